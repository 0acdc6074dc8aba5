package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"eventplanner/internal/domain"

	"github.com/google/uuid"
)

// testLogger discards output so tests don't assert on log text.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeProfileRepo is an in-memory ProfileRepository that enforces name uniqueness.
type fakeProfileRepo struct {
	byID       map[string]*domain.Profile
	order      []string
	createErr  error
	findErr    error
	findByIDsN int
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{byID: make(map[string]*domain.Profile)}
}

func (f *fakeProfileRepo) Create(_ context.Context, p *domain.Profile) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.byID {
		if existing.Name == p.Name {
			return domain.ErrDuplicate
		}
	}
	p.ID = uuid.NewString()
	cp := *p
	f.byID[p.ID] = &cp
	f.order = append(f.order, p.ID)
	return nil
}

func (f *fakeProfileRepo) FindAll(_ context.Context) ([]*domain.Profile, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	out := make([]*domain.Profile, 0, len(f.order))
	for i := len(f.order) - 1; i >= 0; i-- {
		cp := *f.byID[f.order[i]]
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeProfileRepo) FindByIDs(_ context.Context, ids []string) ([]*domain.Profile, error) {
	f.findByIDsN++
	if f.findErr != nil {
		return nil, f.findErr
	}
	out := make([]*domain.Profile, 0, len(ids))
	for _, id := range domain.UniqueIDs(ids) {
		if p, ok := f.byID[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeProfileRepo) mustAdd(name string) string {
	p := &domain.Profile{Name: name}
	if err := f.Create(context.Background(), p); err != nil {
		panic(err)
	}
	return p.ID
}

// fakeEventRepo is an in-memory EventRepository that stores copies.
type fakeEventRepo struct {
	byID       map[string]domain.Event
	nextID     int
	createErr  error
	replaceErr error
	replaces   int
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{byID: make(map[string]domain.Event), nextID: 1}
}

func (f *fakeEventRepo) Create(_ context.Context, e *domain.Event) error {
	if f.createErr != nil {
		return f.createErr
	}
	e.ID = fmt.Sprintf("ev-%d", f.nextID)
	f.nextID++
	f.byID[e.ID] = e.Clone()
	return nil
}

func (f *fakeEventRepo) GetByID(_ context.Context, id string) (*domain.Event, error) {
	e, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := e.Clone()
	return &cp, nil
}

func (f *fakeEventRepo) List(_ context.Context, filter domain.EventFilter) ([]*domain.Event, error) {
	want := make(map[string]struct{}, len(filter.ProfileIDs))
	for _, id := range filter.ProfileIDs {
		want[id] = struct{}{}
	}
	var out []*domain.Event
	for _, e := range f.byID {
		if len(want) > 0 && !referencesAny(e.ProfileIDs, want) {
			continue
		}
		cp := e.Clone()
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeEventRepo) Replace(_ context.Context, e *domain.Event) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	if _, ok := f.byID[e.ID]; !ok {
		return domain.ErrNotFound
	}
	f.replaces++
	f.byID[e.ID] = e.Clone()
	return nil
}

func referencesAny(ids []string, want map[string]struct{}) bool {
	for _, id := range ids {
		if _, ok := want[id]; ok {
			return true
		}
	}
	return false
}

// fakeChangeLogRepo is an in-memory ChangeLogRepository.
type fakeChangeLogRepo struct {
	entries   []*domain.ChangeLogEntry
	createErr error
	listErr   error
}

func (f *fakeChangeLogRepo) Create(_ context.Context, entry *domain.ChangeLogEntry) error {
	if f.createErr != nil {
		return f.createErr
	}
	entry.ID = fmt.Sprintf("log-%d", len(f.entries)+1)
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeChangeLogRepo) ListByEventID(_ context.Context, eventID string) ([]*domain.ChangeLogEntry, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*domain.ChangeLogEntry
	for i := len(f.entries) - 1; i >= 0; i-- {
		if f.entries[i].EventID == eventID {
			out = append(out, f.entries[i])
		}
	}
	return out, nil
}
