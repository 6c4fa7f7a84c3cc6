package seeder

import (
	"context"

	"bds-sync/internal/database"
)

// Bootstrap creates the tables and indexes the engine needs. Statements
// are IF NOT EXISTS so existing deployments are untouched.
func Bootstrap(ctx context.Context, db database.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS listings (
			id              TEXT PRIMARY KEY,
			title           TEXT NOT NULL,
			description     TEXT,
			price_text      TEXT,
			price_number    BIGINT NOT NULL,
			area_m2         DOUBLE PRECISION,
			district        TEXT,
			ward            TEXT,
			city            TEXT,
			property_type   TEXT,
			phone_clean     TEXT,
			bedrooms        INT,
			source_url      TEXT NOT NULL,
			source_platform TEXT,
			status          TEXT NOT NULL DEFAULT 'active',
			flags           TEXT[] NOT NULL DEFAULT '{}',
			scraped_at      TIMESTAMPTZ NOT NULL,
			last_seen_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			embedding_ref   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_listings_district_type
			ON listings (LOWER(district), property_type) WHERE status = 'active'`,
		`CREATE INDEX IF NOT EXISTS idx_listings_scraped_at ON listings (scraped_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_listings_area ON listings (area_m2) WHERE status = 'active'`,

		`CREATE TABLE IF NOT EXISTS district_price_bands (
			district     TEXT PRIMARY KEY,
			floor_per_m2 DOUBLE PRECISION NOT NULL,
			ceil_per_m2  DOUBLE PRECISION NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS users (
			id            UUID PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			name          TEXT,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		`CREATE TABLE IF NOT EXISTS saved_searches (
			id         UUID PRIMARY KEY,
			user_id    UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name       TEXT,
			query      TEXT,
			filters    JSONB NOT NULL DEFAULT '{}',
			notify     BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_saved_searches_user ON saved_searches (user_id)`,

		`CREATE TABLE IF NOT EXISTS valuation_history (
			id                UUID PRIMARY KEY,
			property_type     TEXT NOT NULL,
			district          TEXT NOT NULL,
			ward              TEXT,
			area_m2           DOUBLE PRECISION NOT NULL,
			bedrooms          INT,
			price_suggested   BIGINT NOT NULL,
			price_min         BIGINT NOT NULL,
			price_max         BIGINT NOT NULL,
			price_per_m2      BIGINT NOT NULL,
			confidence        INT NOT NULL,
			market_samples    INT NOT NULL,
			reasoning         TEXT,
			market_comparison TEXT,
			comparables       JSONB,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_valuation_history_created ON valuation_history (created_at DESC)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
