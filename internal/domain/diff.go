package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// InstantLayout renders instants in change log values: UTC with millisecond precision.
const InstantLayout = "2006-01-02T15:04:05.000Z"

// FormatInstant renders t with InstantLayout.
func FormatInstant(t time.Time) string {
	return t.UTC().Format(InstantLayout)
}

// ComputeDiff returns the fields that update would change on current, in the order
// profiles, timezone, startDateTime, endDateTime. Fields the update omits are skipped.
// Profile sets are compared as sets; lookup is only consulted when they differ.
// Instants are compared at millisecond resolution.
func ComputeDiff(ctx context.Context, current *Event, update EventUpdate, lookup ProfileLookup, at time.Time) ([]FieldChange, error) {
	var changes []FieldChange

	if update.ProfileIDs != nil && !SameIDSet(current.ProfileIDs, *update.ProfileIDs) {
		oldNames, newNames, err := resolveNames(ctx, lookup, current.ProfileIDs, *update.ProfileIDs)
		if err != nil {
			return nil, err
		}
		changes = append(changes, FieldChange{
			Field:     FieldProfiles,
			OldValue:  oldNames,
			NewValue:  newNames,
			Timestamp: at,
		})
	}

	if update.Timezone != nil && *update.Timezone != current.Timezone {
		changes = append(changes, FieldChange{
			Field:     FieldTimezone,
			OldValue:  current.Timezone,
			NewValue:  *update.Timezone,
			Timestamp: at,
		})
	}

	if update.StartDateTime != nil && !sameInstant(current.StartDateTime, *update.StartDateTime) {
		changes = append(changes, FieldChange{
			Field:     FieldStartDateTime,
			OldValue:  FormatInstant(current.StartDateTime),
			NewValue:  FormatInstant(*update.StartDateTime),
			Timestamp: at,
		})
	}

	if update.EndDateTime != nil && !sameInstant(current.EndDateTime, *update.EndDateTime) {
		changes = append(changes, FieldChange{
			Field:     FieldEndDateTime,
			OldValue:  FormatInstant(current.EndDateTime),
			NewValue:  FormatInstant(*update.EndDateTime),
			Timestamp: at,
		})
	}

	return changes, nil
}

// ApplyChanges returns a copy of current with every field named in changes taken from update.
// The stored event is not touched.
func ApplyChanges(current Event, update EventUpdate, changes []FieldChange) Event {
	working := current.Clone()
	for _, c := range changes {
		switch c.Field {
		case FieldProfiles:
			working.ProfileIDs = append([]string(nil), (*update.ProfileIDs)...)
		case FieldTimezone:
			working.Timezone = *update.Timezone
		case FieldStartDateTime:
			working.StartDateTime = TruncateInstant(*update.StartDateTime)
		case FieldEndDateTime:
			working.EndDateTime = TruncateInstant(*update.EndDateTime)
		}
	}
	return working
}

// SameIDSet reports whether a and b hold the same ids, ignoring order and repetition.
func SameIDSet(a, b []string) bool {
	setA := idSet(a)
	setB := idSet(b)
	if len(setA) != len(setB) {
		return false
	}
	for id := range setA {
		if _, ok := setB[id]; !ok {
			return false
		}
	}
	return true
}

// UniqueIDs returns ids with repeats removed, keeping first-seen order.
func UniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func resolveNames(ctx context.Context, lookup ProfileLookup, oldIDs, newIDs []string) (string, string, error) {
	all := UniqueIDs(append(append([]string(nil), oldIDs...), newIDs...))
	profiles, err := lookup.FindByIDs(ctx, all)
	if err != nil {
		return "", "", fmt.Errorf("resolve profile names: %w", err)
	}
	byID := indexProfiles(profiles)
	return joinNames(oldIDs, byID), joinNames(newIDs, byID), nil
}

// joinNames renders ids as a comma-joined name list. Each id appears once and
// unresolvable ids are left out.
func joinNames(ids []string, byID map[string]*Profile) string {
	names := make([]string, 0, len(ids))
	for _, id := range UniqueIDs(ids) {
		if p, ok := byID[id]; ok {
			names = append(names, p.Name)
		}
	}
	return strings.Join(names, ", ")
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func sameInstant(a, b time.Time) bool {
	return TruncateInstant(a).Equal(TruncateInstant(b))
}
