package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bds-sync/internal/database"
	"bds-sync/internal/domain/listing"
	"bds-sync/internal/domain/valuation"
	"bds-sync/internal/intent"
	valengine "bds-sync/internal/valuation"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrListingNotFound = errors.New("listing not found")
)

type ListingRepository interface {
	Upsert(ctx context.Context, l listing.Listing) (inserted bool, err error)
	GetByID(ctx context.Context, id string) (*listing.Listing, error)
	FilterSearch(ctx context.Context, f intent.Filters, limit int) ([]listing.Listing, error)
	Comparables(ctx context.Context, q valengine.PoolQuery) ([]valuation.Comparable, error)
	Districts(ctx context.Context) ([]DistrictCount, error)
	Stats(ctx context.Context) (ListingStats, error)
	SetEmbeddingRef(ctx context.Context, id, ref string) error
	MarkStaleBefore(ctx context.Context, cutoff time.Time) (int64, error)
	MarkRemoved(ctx context.Context, ids []string) (int64, error)
}

type DistrictCount struct {
	District string
	Count    int
}

// ListingStats is the corpus overview served by the stats endpoint.
type ListingStats struct {
	Total     int
	Active    int
	Indexed   int
	Districts int
}

type PostgresListingRepository struct {
	db database.DB
}

func NewPostgresListingRepository(db database.DB) *PostgresListingRepository {
	return &PostgresListingRepository{db: db}
}

// Upsert inserts the listing keyed by its fingerprint id. On conflict the
// identity columns (id, source_url, first scraped_at) are kept while the
// mutable columns (price, status, flags, text) take the incoming values.
// A re-seen stale listing goes back to active this way.
func (r *PostgresListingRepository) Upsert(ctx context.Context, l listing.Listing) (bool, error) {
	var inserted bool
	row := r.db.QueryRow(ctx,
		`INSERT INTO listings (
			id, title, description, price_text, price_number, area_m2,
			district, ward, city, property_type, phone_clean, bedrooms,
			source_url, source_platform, status, flags, scraped_at, embedding_ref
		 ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		 ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			price_text = EXCLUDED.price_text,
			price_number = EXCLUDED.price_number,
			area_m2 = EXCLUDED.area_m2,
			district = EXCLUDED.district,
			ward = EXCLUDED.ward,
			city = EXCLUDED.city,
			property_type = EXCLUDED.property_type,
			phone_clean = EXCLUDED.phone_clean,
			bedrooms = EXCLUDED.bedrooms,
			source_platform = EXCLUDED.source_platform,
			status = EXCLUDED.status,
			flags = EXCLUDED.flags,
			last_seen_at = EXCLUDED.scraped_at
		 RETURNING (xmax = 0)`,
		l.ID, l.Title, l.Description, l.PriceText, l.PriceNumber, nullFloat(l.AreaM2),
		l.District, l.Ward, l.City, string(l.PropertyType), l.PhoneClean, l.Bedrooms,
		l.SourceURL, l.SourcePlatform, string(l.Status), flagStrings(l.Flags), l.ScrapedAt, l.EmbeddingRef,
	)
	if err := row.Scan(&inserted); err != nil {
		return false, fmt.Errorf("upsert listing %s: %w", l.ID, err)
	}
	return inserted, nil
}

func (r *PostgresListingRepository) GetByID(ctx context.Context, id string) (*listing.Listing, error) {
	row := r.db.QueryRow(ctx, selectListing+` WHERE id = $1`, id)
	l, err := scanListing(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return l, nil
}

// FilterSearch runs the relational stage of a hybrid search. Every set
// filter narrows the result; nil filters are not applied at all. Results
// come back newest first so the caller can use them directly when no
// free-text ranking follows.
func (r *PostgresListingRepository) FilterSearch(ctx context.Context, f intent.Filters, limit int) ([]listing.Listing, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 500 {
		limit = 500
	}

	where := []string{`status = 'active'`}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.District != nil {
		where = append(where, `LOWER(district) = LOWER(`+arg(*f.District)+`)`)
	}
	if f.City != nil {
		where = append(where, `LOWER(city) = LOWER(`+arg(*f.City)+`)`)
	}
	if f.PropertyType != nil {
		where = append(where, `property_type = `+arg(string(*f.PropertyType)))
	}
	if f.MinPrice != nil {
		where = append(where, `price_number >= `+arg(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		where = append(where, `price_number <= `+arg(*f.MaxPrice))
	}
	if f.MinArea != nil {
		where = append(where, `area_m2 >= `+arg(*f.MinArea))
	}
	if f.MaxArea != nil {
		where = append(where, `area_m2 <= `+arg(*f.MaxArea))
	}
	if f.Bedrooms != nil {
		where = append(where, `bedrooms >= `+arg(*f.Bedrooms))
	}

	query := selectListing +
		` WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY scraped_at DESC
		 LIMIT ` + arg(limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("filter search: %w", err)
	}
	defer rows.Close()

	out := make([]listing.Listing, 0)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Comparables loads the valuation pool: active listings in the same
// district with the same property type, area inside the band, scraped
// within the recency window, and with a usable price and area. Ordered
// by area difference from the band midpoint so the engine sees the best
// candidates first even when it truncates.
func (r *PostgresListingRepository) Comparables(ctx context.Context, q valengine.PoolQuery) ([]valuation.Comparable, error) {
	mid := (q.AreaMin + q.AreaMax) / 2

	where := []string{
		`status = 'active'`,
		`price_number > 0`,
		`area_m2 IS NOT NULL AND area_m2 > 0`,
		`LOWER(district) = LOWER($1)`,
		`property_type = $2`,
		`area_m2 BETWEEN $3 AND $4`,
		`scraped_at >= $5`,
	}
	args := []any{q.District, q.PropertyType, q.AreaMin, q.AreaMax, q.Since}

	if q.Bedrooms != nil {
		args = append(args, *q.Bedrooms)
		where = append(where, fmt.Sprintf(`bedrooms = $%d`, len(args)))
	}
	args = append(args, mid)

	rows, err := r.db.Query(ctx,
		`SELECT id, COALESCE(title, ''), COALESCE(price_text, ''), price_number,
		        area_m2, COALESCE(ward, ''), scraped_at
		 FROM listings
		 WHERE `+strings.Join(where, " AND ")+
			fmt.Sprintf(` ORDER BY ABS(area_m2 - $%d) ASC, scraped_at DESC LIMIT 200`, len(args)),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("load comparables: %w", err)
	}
	defer rows.Close()

	out := make([]valuation.Comparable, 0)
	for rows.Next() {
		var (
			c  valuation.Comparable
			id string
		)
		if err := rows.Scan(&id, &c.Title, &c.PriceText, &c.Price, &c.AreaM2, &c.Ward, &c.ScrapedAt); err != nil {
			return nil, err
		}
		c.ListingID = listingUUID(id)
		if c.AreaM2 > 0 {
			c.PricePerM2 = int64(float64(c.Price) / c.AreaM2)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresListingRepository) Stats(ctx context.Context) (ListingStats, error) {
	var s ListingStats
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE status = 'active'),
		        COUNT(*) FILTER (WHERE COALESCE(embedding_ref, '') <> ''),
		        COUNT(DISTINCT district) FILTER (WHERE district <> '')
		 FROM listings`,
	).Scan(&s.Total, &s.Active, &s.Indexed, &s.Districts)
	if err != nil {
		return ListingStats{}, fmt.Errorf("listing stats: %w", err)
	}
	return s, nil
}

func (r *PostgresListingRepository) Districts(ctx context.Context) ([]DistrictCount, error) {
	rows, err := r.db.Query(ctx,
		`SELECT district, COUNT(*)
		 FROM listings
		 WHERE status = 'active' AND district <> ''
		 GROUP BY district
		 ORDER BY COUNT(*) DESC, district ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]DistrictCount, 0)
	for rows.Next() {
		var d DistrictCount
		if err := rows.Scan(&d.District, &d.Count); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresListingRepository) SetEmbeddingRef(ctx context.Context, id, ref string) error {
	n, err := r.db.Exec(ctx, `UPDATE listings SET embedding_ref = $2 WHERE id = $1`, id, ref)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrListingNotFound
	}
	return nil
}

// MarkStaleBefore downgrades active listings not seen since the cutoff.
func (r *PostgresListingRepository) MarkStaleBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.db.Exec(ctx,
		`UPDATE listings SET status = 'stale'
		 WHERE status = 'active' AND last_seen_at < $1`,
		cutoff,
	)
}

func (r *PostgresListingRepository) MarkRemoved(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return r.db.Exec(ctx,
		`UPDATE listings SET status = 'removed' WHERE id = ANY($1)`,
		ids,
	)
}

const selectListing = `SELECT id, COALESCE(title, ''), COALESCE(description, ''),
	COALESCE(price_text, ''), price_number, COALESCE(area_m2, 0),
	COALESCE(district, ''), COALESCE(ward, ''), COALESCE(city, ''),
	COALESCE(property_type, ''), COALESCE(phone_clean, ''), bedrooms,
	source_url, COALESCE(source_platform, ''), status, flags, scraped_at,
	COALESCE(embedding_ref, '')
 FROM listings`

func scanListing(row database.Row) (*listing.Listing, error) {
	var (
		l     listing.Listing
		ptype string
		stat  string
		flags []string
	)
	if err := row.Scan(
		&l.ID, &l.Title, &l.Description,
		&l.PriceText, &l.PriceNumber, &l.AreaM2,
		&l.District, &l.Ward, &l.City,
		&ptype, &l.PhoneClean, &l.Bedrooms,
		&l.SourceURL, &l.SourcePlatform, &stat, &flags, &l.ScrapedAt,
		&l.EmbeddingRef,
	); err != nil {
		return nil, err
	}
	l.PropertyType = listing.PropertyType(ptype)
	l.Status = listing.Status(stat)
	for _, f := range flags {
		l.Flags = append(l.Flags, listing.Flag(f))
	}
	return &l, nil
}

func flagStrings(flags []listing.Flag) []string {
	out := make([]string, 0, len(flags))
	for _, f := range flags {
		out = append(out, string(f))
	}
	return out
}

func nullFloat(v float64) any {
	if v <= 0 {
		return nil
	}
	return v
}

// listingUUID derives a stable UUID from the fingerprint id so the
// valuation result can reference comparables without exposing raw ids.
func listingUUID(id string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(id))
}
