package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"eventplanner/internal/domain"
)

var tracer = otel.Tracer("eventplanner/internal/services")

type eventService struct {
	eventRepo      domain.EventRepository
	profileRepo    domain.ProfileRepository
	changeLogRepo  domain.ChangeLogRepository
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time
}

func NewEventService(eventRepo domain.EventRepository,
	profileRepo domain.ProfileRepository,
	changeLogRepo domain.ChangeLogRepository,
	logger *slog.Logger,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		profileRepo:    profileRepo,
		changeLogRepo:  changeLogRepo,
		logger:         logger,
		contextTimeout: timeout,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// CreateEvent validates required fields, temporal order and profile references, then inserts.
// No change log entry is written for creation.
func (s *eventService) CreateEvent(ctx context.Context, event *domain.Event) (*domain.EventView, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "EventService.CreateEvent")
	defer span.End()

	event.StartDateTime = domain.TruncateInstant(event.StartDateTime)
	event.EndDateTime = domain.TruncateInstant(event.EndDateTime)
	if err := domain.ValidateNewEvent(event); err != nil {
		return nil, failSpan(span, err)
	}

	profiles, err := s.profileRepo.FindByIDs(ctx, event.ProfileIDs)
	if err != nil {
		return nil, failSpan(span, fmt.Errorf("find profiles: %w", err))
	}
	if err := domain.ValidateReferences(event.ProfileIDs, profileIDs(profiles)); err != nil {
		return nil, failSpan(span, err)
	}

	now := s.now()
	event.CreatedAt = now
	event.UpdatedAt = now
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, failSpan(span, fmt.Errorf("create event: %w", err))
	}
	span.SetAttributes(attribute.String("event.id", event.ID))
	eventsCreatedTotal.Inc()
	return domain.NewEventView(event, profiles), nil
}

func (s *eventService) GetEvent(ctx context.Context, id string) (*domain.EventView, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return s.view(ctx, event)
}

// ListEvents returns events referencing any of filter.ProfileIDs (all events if empty),
// newest first, joined with profile names in a single lookup.
func (s *eventService) ListEvents(ctx context.Context, filter domain.EventFilter) ([]*domain.EventView, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	var ids []string
	for _, e := range events {
		ids = append(ids, e.ProfileIDs...)
	}
	profiles, err := s.profileRepo.FindByIDs(ctx, domain.UniqueIDs(ids))
	if err != nil {
		return nil, fmt.Errorf("find profiles: %w", err)
	}
	views := make([]*domain.EventView, 0, len(events))
	for _, e := range events {
		views = append(views, domain.NewEventView(e, profiles))
	}
	return views, nil
}

// UpdateEvent applies a partial update.
//
// The diff is computed against the stored event and applied to a working copy; the
// temporal invariant (and, when the profile set changes, profile references) is checked
// on that copy before anything is written. With no changes nothing is persisted.
// Otherwise the event is replaced first and a change log entry appended second; a failure
// of the second write is logged and counted but does not fail the update.
func (s *eventService) UpdateEvent(ctx context.Context, id string, update domain.EventUpdate) (*domain.EventView, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "EventService.UpdateEvent", trace.WithAttributes(attribute.String("event.id", id)))
	defer span.End()

	current, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, failSpan(span, domain.ErrNotFound)
		}
		return nil, failSpan(span, fmt.Errorf("get event: %w", err))
	}

	if err := domain.ValidateUpdateFields(update); err != nil {
		eventUpdatesTotal.WithLabelValues(outcomeRejected).Inc()
		return nil, failSpan(span, err)
	}

	now := s.now()
	changes, err := domain.ComputeDiff(ctx, current, update, s.profileRepo, now)
	if err != nil {
		return nil, failSpan(span, err)
	}
	working := domain.ApplyChanges(*current, update, changes)

	if err := domain.ValidateTemporal(working.StartDateTime, working.EndDateTime); err != nil {
		eventUpdatesTotal.WithLabelValues(outcomeRejected).Inc()
		return nil, failSpan(span, err)
	}
	if !domain.SameIDSet(current.ProfileIDs, working.ProfileIDs) {
		profiles, err := s.profileRepo.FindByIDs(ctx, working.ProfileIDs)
		if err != nil {
			return nil, failSpan(span, fmt.Errorf("find profiles: %w", err))
		}
		if err := domain.ValidateReferences(working.ProfileIDs, profileIDs(profiles)); err != nil {
			eventUpdatesTotal.WithLabelValues(outcomeRejected).Inc()
			return nil, failSpan(span, err)
		}
	}

	span.SetAttributes(attribute.Int("event.changes", len(changes)))
	if len(changes) == 0 {
		eventUpdatesTotal.WithLabelValues(outcomeUnchanged).Inc()
		return s.view(ctx, current)
	}

	working.UpdatedAt = now
	if err := s.eventRepo.Replace(ctx, &working); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, failSpan(span, domain.ErrNotFound)
		}
		return nil, failSpan(span, fmt.Errorf("replace event: %w", err))
	}
	eventUpdatesTotal.WithLabelValues(outcomeChanged).Inc()

	entry := domain.NewChangeLogEntry(id, changes, now)
	if err := s.changeLogRepo.Create(ctx, entry); err != nil {
		changeLogWriteFailuresTotal.Inc()
		span.RecordError(err)
		s.logger.ErrorContext(ctx, "change log write failed after event update",
			"event_id", id,
			"changes", len(changes),
			"err", err,
		)
	}

	return s.view(ctx, &working)
}

// ListChanges returns the event's change log, newest first. An unknown event has no entries.
func (s *eventService) ListChanges(ctx context.Context, eventID string) ([]*domain.ChangeLogEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	entries, err := s.changeLogRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list changes: %w", err)
	}
	if entries == nil {
		entries = []*domain.ChangeLogEntry{}
	}
	return entries, nil
}

// view joins a stored event with its profile names.
func (s *eventService) view(ctx context.Context, event *domain.Event) (*domain.EventView, error) {
	profiles, err := s.profileRepo.FindByIDs(ctx, event.ProfileIDs)
	if err != nil {
		return nil, fmt.Errorf("find profiles: %w", err)
	}
	return domain.NewEventView(event, profiles), nil
}

func profileIDs(profiles []*domain.Profile) []string {
	ids := make([]string, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.ID)
	}
	return ids
}

func failSpan(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
