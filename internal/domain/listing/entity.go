package listing

import "time"

type PropertyType string

const (
	PropertyApartment    PropertyType = "chung cư"
	PropertyPrivateHouse PropertyType = "nhà riêng"
	PropertyVilla        PropertyType = "biệt thự"
	PropertyLand         PropertyType = "đất nền"
	PropertyStreetHouse  PropertyType = "nhà mặt phố"
)

type Status string

const (
	StatusActive  Status = "active"
	StatusStale   Status = "stale"
	StatusRemoved Status = "removed"
)

// Flag annotates a listing without rejecting it.
type Flag string

const (
	FlagSuspectPrice Flag = "suspect_price"
	FlagSpamPhone    Flag = "spam_phone"
)

// RawListing is unvalidated scrape output. It is consumed by the
// validator and never persisted as-is.
type RawListing struct {
	Title          string
	Description    string
	PriceText      string
	AreaText       string
	Address        string
	District       string
	Ward           string
	City           string
	PhoneText      string
	Bedrooms       *int
	PropertyType   string
	SourceURL      string
	SourcePlatform string
	ScrapedAt      time.Time
}

// Listing is the canonical persisted entity. ID is the content
// fingerprint: sha256(source_url | phone_clean | normalized_title).
type Listing struct {
	ID             string
	Title          string
	Description    string
	PriceText      string
	PriceNumber    int64
	AreaM2         float64
	District       string
	Ward           string
	City           string
	PropertyType   PropertyType
	PhoneClean     string
	Bedrooms       *int
	SourceURL      string
	SourcePlatform string
	Status         Status
	Flags          []Flag
	ScrapedAt      time.Time
	EmbeddingRef   string
}

// PricePerM2 returns 0 when area is unknown; callers must treat 0 as
// "not computable", never as a price.
func (l Listing) PricePerM2() float64 {
	if l.AreaM2 <= 0 {
		return 0
	}
	return float64(l.PriceNumber) / l.AreaM2
}

func (l Listing) HasFlag(f Flag) bool {
	for _, x := range l.Flags {
		if x == f {
			return true
		}
	}
	return false
}

// Indexed reports whether the listing is vector-searchable. A listing
// without an embedding is still filter-searchable.
func (l Listing) Indexed() bool {
	return l.EmbeddingRef != ""
}

// EmbeddingText is the text the vector index stores for the listing.
// Title and description changes change this text, which is the signal
// to refresh the embedding.
func (l Listing) EmbeddingText() string {
	s := l.Title
	if l.District != "" {
		s += " " + l.District
	}
	if l.Description != "" {
		s += " " + l.Description
	}
	return s
}

// ParsePropertyType maps free text onto the enum; unknown input maps
// to the empty type rather than guessing.
func ParsePropertyType(s string) PropertyType {
	switch s {
	case string(PropertyApartment), "căn hộ", "apartment":
		return PropertyApartment
	case string(PropertyPrivateHouse), "private-house":
		return PropertyPrivateHouse
	case string(PropertyVilla), "villa":
		return PropertyVilla
	case string(PropertyLand), "land":
		return PropertyLand
	case string(PropertyStreetHouse), "street-house":
		return PropertyStreetHouse
	}
	return ""
}
