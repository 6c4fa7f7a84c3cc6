package intent

import (
	"fmt"
	"strings"

	"bds-sync/internal/domain/listing"
)

// Filters is the structured search intent extracted from a free-text
// query. Fields the model cannot confidently extract stay nil; they are
// never guessed as zero.
type Filters struct {
	District     *string               `json:"district,omitempty"`
	City         *string               `json:"city,omitempty"`
	PropertyType *listing.PropertyType `json:"property_type,omitempty"`
	MinPrice     *int64                `json:"min_price,omitempty"`
	MaxPrice     *int64                `json:"max_price,omitempty"`
	MinArea      *float64              `json:"min_area,omitempty"`
	MaxArea      *float64              `json:"max_area,omitempty"`
	Bedrooms     *int                  `json:"bedrooms,omitempty"`
	Intent       string                `json:"intent,omitempty"`
}

// Matches reports whether a listing satisfies every set filter. Unset
// filters match everything; a listing with unknown area fails area
// filters rather than slipping through.
func (f Filters) Matches(l listing.Listing) bool {
	if f.District != nil && !strings.EqualFold(*f.District, l.District) {
		return false
	}
	if f.City != nil && !strings.EqualFold(*f.City, l.City) {
		return false
	}
	if f.PropertyType != nil && *f.PropertyType != l.PropertyType {
		return false
	}
	if f.MinPrice != nil && l.PriceNumber < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && l.PriceNumber > *f.MaxPrice {
		return false
	}
	if f.MinArea != nil && (l.AreaM2 <= 0 || l.AreaM2 < *f.MinArea) {
		return false
	}
	if f.MaxArea != nil && (l.AreaM2 <= 0 || l.AreaM2 > *f.MaxArea) {
		return false
	}
	if f.Bedrooms != nil && (l.Bedrooms == nil || *l.Bedrooms < *f.Bedrooms) {
		return false
	}
	return true
}

func (f Filters) Empty() bool {
	return f.District == nil && f.City == nil && f.PropertyType == nil &&
		f.MinPrice == nil && f.MaxPrice == nil &&
		f.MinArea == nil && f.MaxArea == nil && f.Bedrooms == nil
}

// parsedIntent is the schema the gateway must fill. It mirrors the
// prompt's JSON contract; ValidateSchema rejects out-of-range values
// so garbage output counts as a provider failure.
type parsedIntent struct {
	PropertyType string `json:"property_type"`
	Location     struct {
		City     string `json:"city"`
		District string `json:"district"`
	} `json:"location"`
	Price struct {
		Min *int64 `json:"min"`
		Max *int64 `json:"max"`
	} `json:"price"`
	Area struct {
		Min *float64 `json:"min"`
		Max *float64 `json:"max"`
	} `json:"area"`
	Bedrooms *int   `json:"bedrooms"`
	Intent   string `json:"intent"`
}

func (p *parsedIntent) ValidateSchema() error {
	if p.Price.Min != nil && *p.Price.Min < 0 {
		return fmt.Errorf("negative price min")
	}
	if p.Price.Max != nil && *p.Price.Max < 0 {
		return fmt.Errorf("negative price max")
	}
	if p.Area.Min != nil && *p.Area.Min < 0 {
		return fmt.Errorf("negative area min")
	}
	if p.Area.Max != nil && *p.Area.Max < 0 {
		return fmt.Errorf("negative area max")
	}
	if p.Bedrooms != nil && (*p.Bedrooms < 0 || *p.Bedrooms > 20) {
		return fmt.Errorf("implausible bedrooms %d", *p.Bedrooms)
	}
	return nil
}

func (p *parsedIntent) toFilters() Filters {
	f := Filters{Intent: p.Intent}
	if f.Intent == "" {
		f.Intent = "mua"
	}
	if p.Location.District != "" {
		f.District = ptr(p.Location.District)
	}
	if p.Location.City != "" {
		f.City = ptr(p.Location.City)
	}
	if pt := listing.ParsePropertyType(p.PropertyType); pt != "" {
		f.PropertyType = ptr(pt)
	}
	f.MinPrice = p.Price.Min
	f.MaxPrice = p.Price.Max
	f.MinArea = p.Area.Min
	f.MaxArea = p.Area.Max
	f.Bedrooms = p.Bedrooms
	return f
}

func ptr[T any](v T) *T { return &v }
