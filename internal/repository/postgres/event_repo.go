package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventplanner/internal/domain"

	"github.com/lib/pq"
)

const eventColumns = `id, profile_ids, timezone, start_date_time, end_date_time, created_at, updated_at`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (profile_ids, timezone, start_date_time, end_date_time, created_at, updated_at)
		VALUES ($1::uuid[], $2, $3, $4, $5, $6)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		pq.Array(e.ProfileIDs), e.Timezone, e.StartDateTime, e.EndDateTime, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) List(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if len(filter.ProfileIDs) == 0 {
		rows, err = r.DB.QueryContext(ctx, `SELECT `+eventColumns+` FROM events ORDER BY created_at DESC`)
	} else {
		rows, err = r.DB.QueryContext(ctx,
			`SELECT `+eventColumns+` FROM events WHERE profile_ids && $1::uuid[] ORDER BY created_at DESC`,
			pq.Array(filter.ProfileIDs))
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) Replace(ctx context.Context, e *domain.Event) error {
	query := `
		UPDATE events
		SET profile_ids = $1::uuid[], timezone = $2, start_date_time = $3, end_date_time = $4, updated_at = $5
		WHERE id = $6
	`
	result, err := r.DB.ExecContext(ctx, query,
		pq.Array(e.ProfileIDs), e.Timezone, e.StartDateTime, e.EndDateTime, e.UpdatedAt, e.ID,
	)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var profileIDs pq.StringArray
	if err := row.Scan(&e.ID, &profileIDs, &e.Timezone, &e.StartDateTime, &e.EndDateTime, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.ProfileIDs = []string(profileIDs)
	e.StartDateTime = e.StartDateTime.UTC()
	e.EndDateTime = e.EndDateTime.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return e, nil
}
