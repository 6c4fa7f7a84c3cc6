package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bds-sync/internal/database"
	"bds-sync/internal/intent"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrSavedSearchNotFound = errors.New("saved search not found")

// SavedSearch is a user's stored filter set. Searches with Notify on are
// matched against freshly ingested listings.
type SavedSearch struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	Query     string
	Filters   intent.Filters
	Notify    bool
	CreatedAt time.Time
}

type SavedSearchRepository interface {
	Create(ctx context.Context, s SavedSearch) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]SavedSearch, error)
	ListNotifiable(ctx context.Context) ([]SavedSearch, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type PostgresSavedSearchRepository struct {
	db database.DB
}

func NewPostgresSavedSearchRepository(db database.DB) *PostgresSavedSearchRepository {
	return &PostgresSavedSearchRepository{db: db}
}

func (r *PostgresSavedSearchRepository) Create(ctx context.Context, s SavedSearch) error {
	filters, err := json.Marshal(s.Filters)
	if err != nil {
		return fmt.Errorf("marshal filters: %w", err)
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO saved_searches (id, user_id, name, query, filters, notify, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		s.ID, s.UserID, s.Name, s.Query, filters, s.Notify, s.CreatedAt,
	)
	return err
}

func (r *PostgresSavedSearchRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]SavedSearch, error) {
	return r.list(ctx,
		`SELECT id, user_id, COALESCE(name, ''), COALESCE(query, ''), filters, notify, created_at
		 FROM saved_searches
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
}

func (r *PostgresSavedSearchRepository) ListNotifiable(ctx context.Context) ([]SavedSearch, error) {
	return r.list(ctx,
		`SELECT id, user_id, COALESCE(name, ''), COALESCE(query, ''), filters, notify, created_at
		 FROM saved_searches
		 WHERE notify`,
	)
}

func (r *PostgresSavedSearchRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	n, err := r.db.Exec(ctx,
		`DELETE FROM saved_searches WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSavedSearchNotFound
	}
	return nil
}

func (r *PostgresSavedSearchRepository) list(ctx context.Context, query string, args ...any) ([]SavedSearch, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []SavedSearch{}, nil
		}
		return nil, err
	}
	defer rows.Close()

	out := make([]SavedSearch, 0)
	for rows.Next() {
		var (
			s       SavedSearch
			filters []byte
		)
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &s.Query, &filters, &s.Notify, &s.CreatedAt); err != nil {
			return nil, err
		}
		if len(filters) > 0 {
			if err := json.Unmarshal(filters, &s.Filters); err != nil {
				return nil, fmt.Errorf("decode filters for %s: %w", s.ID, err)
			}
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
