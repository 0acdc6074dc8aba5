package domain

import (
	"errors"
	"strings"
)

// Sentinel errors shared by repositories and services.
var (
	ErrNotFound    = errors.New("not found")
	ErrDuplicate   = errors.New("duplicate entry")
	ErrValidation  = errors.New("validation failed")
	ErrReferential = errors.New("referential integrity violated")
)

// User-facing messages surfaced by the API.
const (
	MsgProfileNameRequired = "Profile name is required"
	MsgProfileDuplicate    = "Profile with this name already exists"
	MsgProfilesRequired    = "At least one profile is required"
	MsgProfilesNotFound    = "One or more profiles not found"
	MsgTimezoneRequired    = "Timezone is required"
	MsgDateTimeRequired    = "Start and end date/time are required"
	MsgInvalidDateTime     = "Invalid date/time format"
	MsgEndBeforeStart      = "End date/time must be after start date/time"
	MsgEventNotFound       = "Event not found"
	MsgInvalidID           = "Invalid ID format"
)

// ValidationError reports a missing or malformed field, or a violated temporal rule.
// It matches ErrValidation with errors.Is.
type ValidationError struct {
	Message string
}

func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ReferentialError reports profile ids that do not resolve to stored profiles.
// It matches ErrReferential with errors.Is.
type ReferentialError struct {
	Missing []string
}

func (e *ReferentialError) Error() string {
	if len(e.Missing) == 0 {
		return MsgProfilesNotFound
	}
	return MsgProfilesNotFound + ": " + strings.Join(e.Missing, ", ")
}

func (e *ReferentialError) Is(target error) bool { return target == ErrReferential }
