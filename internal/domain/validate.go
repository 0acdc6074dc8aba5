package domain

import (
	"strings"
	"time"
)

// ValidateReferences fails with a ReferentialError unless requested and existing
// hold exactly the same set of ids.
func ValidateReferences(requested, existing []string) error {
	if SameIDSet(requested, existing) {
		return nil
	}
	have := idSet(existing)
	var missing []string
	for _, id := range UniqueIDs(requested) {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
		}
	}
	return &ReferentialError{Missing: missing}
}

// ValidateTemporal fails unless end is strictly after start.
func ValidateTemporal(start, end time.Time) error {
	if !TruncateInstant(end).After(TruncateInstant(start)) {
		return NewValidationError(MsgEndBeforeStart)
	}
	return nil
}

// ValidateNewEvent checks the required fields of an event about to be created,
// then its temporal order. References are checked separately against the store.
func ValidateNewEvent(e *Event) error {
	if len(e.ProfileIDs) == 0 {
		return NewValidationError(MsgProfilesRequired)
	}
	if strings.TrimSpace(e.Timezone) == "" {
		return NewValidationError(MsgTimezoneRequired)
	}
	if e.StartDateTime.IsZero() || e.EndDateTime.IsZero() {
		return NewValidationError(MsgDateTimeRequired)
	}
	return ValidateTemporal(e.StartDateTime, e.EndDateTime)
}

// ValidateUpdateFields rejects supplied-but-empty fields in a partial update.
func ValidateUpdateFields(u EventUpdate) error {
	if u.ProfileIDs != nil && len(*u.ProfileIDs) == 0 {
		return NewValidationError(MsgProfilesRequired)
	}
	if u.Timezone != nil && strings.TrimSpace(*u.Timezone) == "" {
		return NewValidationError(MsgTimezoneRequired)
	}
	return nil
}

// instantLayouts are tried in order by ParseInstant. Layouts without an offset are read as UTC.
var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseInstant parses s as an instant and truncates it to milliseconds.
func ParseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, NewValidationError(MsgDateTimeRequired)
	}
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return TruncateInstant(t), nil
		}
	}
	return time.Time{}, NewValidationError(MsgInvalidDateTime)
}

// TruncateInstant normalises t to UTC at millisecond resolution.
func TruncateInstant(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
