package seeder

import (
	"context"

	"bds-sync/internal/database"
	"bds-sync/internal/validator"
)

// PriceBandsSeeder loads the Hà Nội plausibility bands. Existing rows
// are left alone so operators can tune bands without losing the edits
// on restart.
type PriceBandsSeeder struct{}

func (PriceBandsSeeder) Name() string { return "district_price_bands" }

func (PriceBandsSeeder) Run(ctx context.Context, db database.DB) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(context.Background())
	}()

	for district, band := range validator.DefaultBands() {
		if _, err := tx.Exec(ctx,
			`INSERT INTO district_price_bands (district, floor_per_m2, ceil_per_m2)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (district) DO NOTHING`,
			district, band.FloorPerM2, band.CeilPerM2,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
