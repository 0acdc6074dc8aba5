package domain

import (
	"context"
	"time"
)

// Event is a scheduled interval attached to one or more profiles.
// ProfileIDs keeps the order it was written in; repeated ids are preserved.
type Event struct {
	ID            string    `json:"id"`
	ProfileIDs    []string  `json:"profileIds"`
	Timezone      string    `json:"timezone"`
	StartDateTime time.Time `json:"startDateTime"`
	EndDateTime   time.Time `json:"endDateTime"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// NewEvent returns a new Event with the given fields. ID is set by the repository on create.
func NewEvent(profileIDs []string, timezone string, start, end, createdAt, updatedAt time.Time) *Event {
	return &Event{
		ProfileIDs:    profileIDs,
		Timezone:      timezone,
		StartDateTime: start,
		EndDateTime:   end,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}
}

// Clone returns a deep copy of the event.
func (e Event) Clone() Event {
	out := e
	out.ProfileIDs = append([]string(nil), e.ProfileIDs...)
	return out
}

// EventUpdate is a partial update. A nil field is left untouched.
type EventUpdate struct {
	ProfileIDs    *[]string
	Timezone      *string
	StartDateTime *time.Time
	EndDateTime   *time.Time
}

// IsEmpty reports whether the update supplies no field at all.
func (u EventUpdate) IsEmpty() bool {
	return u.ProfileIDs == nil && u.Timezone == nil && u.StartDateTime == nil && u.EndDateTime == nil
}

// EventFilter narrows event listings. An event matches when it references any of ProfileIDs;
// an empty filter matches everything.
type EventFilter struct {
	ProfileIDs []string
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	// List returns matching events, newest first.
	List(ctx context.Context, filter EventFilter) ([]*Event, error)
	// Replace overwrites the stored event with the same ID. Returns ErrNotFound if absent.
	Replace(ctx context.Context, event *Event) error
}

// ProfileRef is the resolved id and name of a profile attached to an event.
type ProfileRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// EventView is an event joined with the names of its profiles.
// swagger:model EventView
type EventView struct {
	ID            string       `json:"id"`
	Profiles      []ProfileRef `json:"profiles"`
	Timezone      string       `json:"timezone"`
	StartDateTime time.Time    `json:"startDateTime"`
	EndDateTime   time.Time    `json:"endDateTime"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// NewEventView joins e with profiles. Profiles are listed in the event's id order;
// ids with no matching profile are skipped.
func NewEventView(e *Event, profiles []*Profile) *EventView {
	byID := indexProfiles(profiles)
	refs := make([]ProfileRef, 0, len(e.ProfileIDs))
	for _, id := range e.ProfileIDs {
		if p, ok := byID[id]; ok {
			refs = append(refs, ProfileRef{ID: p.ID, Name: p.Name})
		}
	}
	return &EventView{
		ID:            e.ID,
		Profiles:      refs,
		Timezone:      e.Timezone,
		StartDateTime: e.StartDateTime,
		EndDateTime:   e.EndDateTime,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

// ProfileNames returns the names of the view's profiles in order.
func (v *EventView) ProfileNames() []string {
	names := make([]string, 0, len(v.Profiles))
	for _, p := range v.Profiles {
		names = append(names, p.Name)
	}
	return names
}

// EventService defines the business logic for events and their change history.
type EventService interface {
	CreateEvent(ctx context.Context, event *Event) (*EventView, error)
	GetEvent(ctx context.Context, id string) (*EventView, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]*EventView, error)
	UpdateEvent(ctx context.Context, id string, update EventUpdate) (*EventView, error)
	ListChanges(ctx context.Context, eventID string) ([]*ChangeLogEntry, error)
}

func indexProfiles(profiles []*Profile) map[string]*Profile {
	byID := make(map[string]*Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}
	return byID
}
