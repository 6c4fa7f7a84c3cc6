package valuation

import (
	"time"

	"github.com/google/uuid"

	"bds-sync/internal/domain/listing"
)

// Request describes the property to estimate. It is ephemeral and
// never persisted as authoritative truth.
type Request struct {
	PropertyType listing.PropertyType
	AreaM2       float64
	District     string
	Ward         string
	Bedrooms     *int
	Direction    string
	LegalStatus  string
}

// Comparable is a validated listing used as a reference point in the
// nearest-neighbor estimate.
type Comparable struct {
	ListingID  uuid.UUID
	Title      string
	PriceText  string
	Price      int64
	AreaM2     float64
	PricePerM2 int64
	Ward       string
	ScrapedAt  time.Time

	Distance float64
	Weight   float64
}

// Result is the comparative-market estimate. It is written once to the
// valuation history and never mutated.
type Result struct {
	ID               uuid.UUID
	Request          Request
	PriceMin         int64
	PriceMax         int64
	PriceSuggested   int64
	PricePerM2       int64
	Confidence       int
	Reasoning        string
	MarketComparison string
	MarketSamples    int
	Comparables      []Comparable
	CreatedAt        time.Time
}
