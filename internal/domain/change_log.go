package domain

import (
	"context"
	"time"
)

// Names of the event fields tracked in the change log, in evaluation order.
const (
	FieldProfiles      = "profiles"
	FieldTimezone      = "timezone"
	FieldStartDateTime = "startDateTime"
	FieldEndDateTime   = "endDateTime"
)

// FieldChange records one field's value before and after an update.
// Profile sets are rendered as comma-joined names and instants as ISO-8601 UTC.
type FieldChange struct {
	Field     string    `json:"field"`
	OldValue  string    `json:"oldValue"`
	NewValue  string    `json:"newValue"`
	Timestamp time.Time `json:"timestamp"`
}

// ChangeLogEntry is the immutable audit record of one mutating update.
// swagger:model ChangeLogEntry
type ChangeLogEntry struct {
	ID        string        `json:"id"`
	EventID   string        `json:"eventId"`
	Changes   []FieldChange `json:"changes"`
	CreatedAt time.Time     `json:"createdAt"`
}

// NewChangeLogEntry returns an entry for eventID. ID is set by the repository on create.
func NewChangeLogEntry(eventID string, changes []FieldChange, createdAt time.Time) *ChangeLogEntry {
	return &ChangeLogEntry{
		EventID:   eventID,
		Changes:   changes,
		CreatedAt: createdAt,
	}
}

// ChangeLogRepository is append-only storage for change log entries.
type ChangeLogRepository interface {
	Create(ctx context.Context, entry *ChangeLogEntry) error
	// ListByEventID returns the event's entries, newest first.
	ListByEventID(ctx context.Context, eventID string) ([]*ChangeLogEntry, error)
}
