package validator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"bds-sync/internal/domain/listing"
)

// ErrMissingRequiredField rejects a raw listing that lacks source URL,
// title, or a parsable price. It is the only rejection class;
// plausibility and spam findings annotate instead.
var ErrMissingRequiredField = errors.New("missing required field")

type Config struct {
	// SuspectRatio scales the district floor price: below
	// floor*SuspectRatio the listing is flagged suspect. Tunable, not
	// a hard invariant.
	SuspectRatio   float64
	SpamDailyLimit int64
}

// Validator turns RawListings into canonical Listings: clean fields,
// compute the fingerprint, annotate plausibility and spam findings.
type Validator struct {
	cfg     Config
	bands   BandSource
	counter DailyCounter
	logger  *log.Logger
}

func New(cfg Config, bands BandSource, counter DailyCounter, logger *log.Logger) *Validator {
	if cfg.SuspectRatio <= 0 {
		cfg.SuspectRatio = 0.3
	}
	if cfg.SpamDailyLimit <= 0 {
		cfg.SpamDailyLimit = 50
	}
	return &Validator{cfg: cfg, bands: bands, counter: counter, logger: logger}
}

// Validate is safe to run concurrently for different raw listings. Two
// raws producing the same fingerprint are the same Listing; the
// repository upsert reconciles them.
func (v *Validator) Validate(ctx context.Context, raw listing.RawListing) (listing.Listing, error) {
	sourceURL := strings.TrimSpace(raw.SourceURL)
	if sourceURL == "" {
		return listing.Listing{}, fmt.Errorf("%w: source_url", ErrMissingRequiredField)
	}

	title := strings.TrimSpace(raw.Title)
	if title == "" {
		return listing.Listing{}, fmt.Errorf("%w: title", ErrMissingRequiredField)
	}

	price, ok := ParsePrice(raw.PriceText)
	if !ok {
		return listing.Listing{}, fmt.Errorf("%w: price", ErrMissingRequiredField)
	}

	phone := CleanPhone(raw.PhoneText)
	area, _ := ParseArea(raw.AreaText)

	scrapedAt := raw.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = time.Now().UTC()
	}

	l := listing.Listing{
		ID:             Fingerprint(sourceURL, phone, NormalizeTitle(title)),
		Title:          title,
		Description:    strings.TrimSpace(raw.Description),
		PriceText:      strings.TrimSpace(raw.PriceText),
		PriceNumber:    price,
		AreaM2:         area,
		District:       strings.TrimSpace(raw.District),
		Ward:           strings.TrimSpace(raw.Ward),
		City:           strings.TrimSpace(raw.City),
		PropertyType:   listing.ParsePropertyType(strings.ToLower(strings.TrimSpace(raw.PropertyType))),
		PhoneClean:     phone,
		Bedrooms:       raw.Bedrooms,
		SourceURL:      sourceURL,
		SourcePlatform: strings.TrimSpace(raw.SourcePlatform),
		Status:         listing.StatusActive,
		ScrapedAt:      scrapedAt,
	}

	v.checkPlausibility(ctx, &l)
	v.checkSpam(ctx, &l)

	return l, nil
}

// checkPlausibility flags a price-per-m² far below the district floor.
// No area means no check: there is nothing to divide by.
func (v *Validator) checkPlausibility(ctx context.Context, l *listing.Listing) {
	if v.bands == nil || l.AreaM2 <= 0 || l.District == "" {
		return
	}

	band, ok, err := v.bands.Band(ctx, l.District)
	if err != nil {
		if v.logger != nil {
			v.logger.Printf("[Validator] band lookup failed | district=%s err=%v", l.District, err)
		}
		return
	}
	if !ok {
		return
	}

	if l.PricePerM2() < band.FloorPerM2*v.cfg.SuspectRatio {
		l.Flags = append(l.Flags, listing.FlagSuspectPrice)
		if v.logger != nil {
			v.logger.Printf("[Validator] suspect price | id=%s price_per_m2=%.0f floor=%.0f", l.ID, l.PricePerM2(), band.FloorPerM2)
		}
	}
}

// checkSpam flags phones seen past the daily threshold; counting
// failures degrade to no flag rather than blocking ingestion.
func (v *Validator) checkSpam(ctx context.Context, l *listing.Listing) {
	if v.counter == nil || l.PhoneClean == "" {
		return
	}

	n, err := v.counter.Incr(ctx, l.PhoneClean)
	if err != nil {
		if v.logger != nil {
			v.logger.Printf("[Validator] phone counter failed | err=%v", err)
		}
		return
	}
	if n > v.cfg.SpamDailyLimit {
		l.Flags = append(l.Flags, listing.FlagSpamPhone)
	}
}
