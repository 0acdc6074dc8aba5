package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"eventplanner/internal/domain"
)

type changeLogRepository struct {
	DB *sql.DB
}

// NewChangeLogRepository returns an append-only domain.ChangeLogRepository backed by the event_logs table.
func NewChangeLogRepository(db *sql.DB) domain.ChangeLogRepository {
	return &changeLogRepository{DB: db}
}

func (r *changeLogRepository) Create(ctx context.Context, entry *domain.ChangeLogEntry) error {
	payload, err := json.Marshal(entry.Changes)
	if err != nil {
		return fmt.Errorf("encode changes: %w", err)
	}
	query := `
		INSERT INTO event_logs (event_id, changes, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, entry.EventID, string(payload), entry.CreatedAt).Scan(&entry.ID)
}

func (r *changeLogRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.ChangeLogEntry, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, event_id, changes, created_at
		FROM event_logs
		WHERE event_id = $1
		ORDER BY created_at DESC
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*domain.ChangeLogEntry, 0)
	for rows.Next() {
		entry := &domain.ChangeLogEntry{}
		var payload []byte
		if err := rows.Scan(&entry.ID, &entry.EventID, &payload, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &entry.Changes); err != nil {
			return nil, fmt.Errorf("decode changes for log %s: %w", entry.ID, err)
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
