package domain

import (
	"context"
	"time"
)

// Profile is a uniquely named entity that events are attached to.
// swagger:model Profile
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewProfile returns a new Profile with the given fields. ID is set by the repository on create.
func NewProfile(name string, createdAt, updatedAt time.Time) *Profile {
	return &Profile{
		Name:      name,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// ProfileLookup resolves profiles by id. Ids that do not exist are absent from the result.
type ProfileLookup interface {
	FindByIDs(ctx context.Context, ids []string) ([]*Profile, error)
}

// ProfileRepository defines storage for profiles.
// Create returns ErrDuplicate when the name is already taken.
type ProfileRepository interface {
	ProfileLookup
	Create(ctx context.Context, profile *Profile) error
	// FindAll returns every profile, newest first.
	FindAll(ctx context.Context) ([]*Profile, error)
}

// ProfileService defines the business logic for profiles.
type ProfileService interface {
	CreateProfile(ctx context.Context, name string) (*Profile, error)
	ListProfiles(ctx context.Context) ([]*Profile, error)
}
