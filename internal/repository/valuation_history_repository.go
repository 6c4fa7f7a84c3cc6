package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bds-sync/internal/database"
	"bds-sync/internal/domain/valuation"

	"github.com/google/uuid"
)

type ValuationHistoryRepository interface {
	Save(ctx context.Context, res *valuation.Result) error
	ListRecent(ctx context.Context, limit, offset int) ([]HistoryEntry, error)
}

// HistoryEntry is the stored summary of a past valuation. The full
// comparable set is kept as JSON for audit but not re-hydrated on list.
type HistoryEntry struct {
	ID             uuid.UUID
	PropertyType   string
	District       string
	AreaM2         float64
	PriceSuggested int64
	PriceMin       int64
	PriceMax       int64
	Confidence     int
	CreatedAt      time.Time
}

type PostgresValuationHistoryRepository struct {
	db database.DB
}

func NewPostgresValuationHistoryRepository(db database.DB) *PostgresValuationHistoryRepository {
	return &PostgresValuationHistoryRepository{db: db}
}

func (r *PostgresValuationHistoryRepository) Save(ctx context.Context, res *valuation.Result) error {
	comparables, err := json.Marshal(res.Comparables)
	if err != nil {
		return fmt.Errorf("marshal comparables: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO valuation_history (
			id, property_type, district, ward, area_m2, bedrooms,
			price_suggested, price_min, price_max, price_per_m2,
			confidence, market_samples, reasoning, market_comparison,
			comparables, created_at
		 ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		res.ID, res.Request.PropertyType, res.Request.District, res.Request.Ward,
		res.Request.AreaM2, res.Request.Bedrooms,
		res.PriceSuggested, res.PriceMin, res.PriceMax, res.PricePerM2,
		res.Confidence, res.MarketSamples, res.Reasoning, res.MarketComparison,
		comparables, res.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save valuation %s: %w", res.ID, err)
	}
	return nil
}

func (r *PostgresValuationHistoryRepository) ListRecent(ctx context.Context, limit, offset int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, property_type, district, area_m2,
		        price_suggested, price_min, price_max, confidence, created_at
		 FROM valuation_history
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]HistoryEntry, 0)
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(
			&e.ID, &e.PropertyType, &e.District, &e.AreaM2,
			&e.PriceSuggested, &e.PriceMin, &e.PriceMax, &e.Confidence, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
