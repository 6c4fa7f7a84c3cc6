package repository

import (
	"context"
	"errors"

	"bds-sync/internal/database"
	"bds-sync/internal/validator"

	"github.com/jackc/pgx/v5"
)

// PostgresPriceBandRepository backs the validator's plausibility check
// with the district_price_bands table. It implements validator.BandSource.
type PostgresPriceBandRepository struct {
	db database.DB
}

func NewPostgresPriceBandRepository(db database.DB) *PostgresPriceBandRepository {
	return &PostgresPriceBandRepository{db: db}
}

func (r *PostgresPriceBandRepository) Band(ctx context.Context, district string) (validator.Band, bool, error) {
	var b validator.Band
	row := r.db.QueryRow(ctx,
		`SELECT floor_per_m2, ceil_per_m2
		 FROM district_price_bands
		 WHERE LOWER(district) = LOWER(TRIM($1))`,
		district,
	)
	if err := row.Scan(&b.FloorPerM2, &b.CeilPerM2); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return validator.Band{}, false, nil
		}
		return validator.Band{}, false, err
	}
	return b, true, nil
}
