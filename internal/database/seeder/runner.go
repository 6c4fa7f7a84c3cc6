package seeder

import (
	"context"
	"fmt"

	"bds-sync/internal/database"
)

type Runner struct {
	Seeders []Seeder
}

// Run applies the schema bootstrap first, then each seeder in order.
// Seeders are idempotent so the runner is safe on every boot.
func (r Runner) Run(ctx context.Context, db database.DB) error {
	if db == nil {
		return fmt.Errorf("nil db")
	}
	if err := Bootstrap(ctx, db); err != nil {
		return fmt.Errorf("bootstrap schema: %w", err)
	}
	for _, s := range r.Seeders {
		if s == nil {
			continue
		}
		if err := s.Run(ctx, db); err != nil {
			return fmt.Errorf("seed %s: %w", s.Name(), err)
		}
	}
	return nil
}

func Defaults() []Seeder {
	return []Seeder{
		PriceBandsSeeder{},
	}
}
