package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventplanner/internal/domain"

	"github.com/lib/pq"
)

type profileRepository struct {
	DB *sql.DB
}

// NewProfileRepository returns a domain.ProfileRepository implemented with Postgres.
// Name uniqueness is enforced by the profiles_name_key constraint.
func NewProfileRepository(db *sql.DB) domain.ProfileRepository {
	return &profileRepository{DB: db}
}

func (r *profileRepository) Create(ctx context.Context, p *domain.Profile) error {
	query := `
		INSERT INTO profiles (name, created_at, updated_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, p.Name, p.CreatedAt, p.UpdatedAt).Scan(&p.ID)
	if err != nil {
		var perr *pq.Error
		if errors.As(err, &perr) && perr.Code == uniqueViolation {
			return domain.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *profileRepository) FindAll(ctx context.Context) ([]*domain.Profile, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, created_at, updated_at
		FROM profiles
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	return scanProfiles(rows)
}

func (r *profileRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Profile, error) {
	if len(ids) == 0 {
		return []*domain.Profile{}, nil
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, created_at, updated_at
		FROM profiles
		WHERE id = ANY($1::uuid[])
	`, pq.Array(domain.UniqueIDs(ids)))
	if err != nil {
		return nil, err
	}
	return scanProfiles(rows)
}

func scanProfiles(rows *sql.Rows) ([]*domain.Profile, error) {
	defer rows.Close()
	profiles := make([]*domain.Profile, 0)
	for rows.Next() {
		p := &domain.Profile{}
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.CreatedAt = p.CreatedAt.UTC()
		p.UpdatedAt = p.UpdatedAt.UTC()
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return profiles, nil
}
