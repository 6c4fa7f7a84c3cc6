package dto

import (
	"time"

	"bds-sync/internal/domain/listing"
)

type ListingResponse struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	PriceText      string   `json:"price_text"`
	PriceNumber    int64    `json:"price_number"`
	AreaM2         float64  `json:"area_m2"`
	PricePerM2     float64  `json:"price_per_m2"`
	District       string   `json:"district"`
	Ward           string   `json:"ward,omitempty"`
	City           string   `json:"city,omitempty"`
	PropertyType   string   `json:"property_type"`
	Bedrooms       *int     `json:"bedrooms,omitempty"`
	SourceURL      string   `json:"source_url"`
	SourcePlatform string   `json:"source_platform"`
	Status         string   `json:"status"`
	Flags          []string `json:"flags,omitempty"`
	ScrapedAt      string   `json:"scraped_at"`
	Score          float64  `json:"score,omitempty"`
}

func NewListingResponse(l listing.Listing, score float64) ListingResponse {
	flags := make([]string, 0, len(l.Flags))
	for _, f := range l.Flags {
		flags = append(flags, string(f))
	}

	scraped := ""
	if !l.ScrapedAt.IsZero() {
		scraped = l.ScrapedAt.UTC().Format(time.RFC3339)
	}

	return ListingResponse{
		ID:             l.ID,
		Title:          l.Title,
		Description:    l.Description,
		PriceText:      l.PriceText,
		PriceNumber:    l.PriceNumber,
		AreaM2:         l.AreaM2,
		PricePerM2:     l.PricePerM2(),
		District:       l.District,
		Ward:           l.Ward,
		City:           l.City,
		PropertyType:   string(l.PropertyType),
		Bedrooms:       l.Bedrooms,
		SourceURL:      l.SourceURL,
		SourcePlatform: l.SourcePlatform,
		Status:         string(l.Status),
		Flags:          flags,
		ScrapedAt:      scraped,
		Score:          score,
	}
}

type DistrictCountResponse struct {
	District string `json:"district"`
	Count    int    `json:"count"`
}
