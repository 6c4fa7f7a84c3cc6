package dto

import (
	"time"

	"github.com/google/uuid"

	"bds-sync/internal/domain/valuation"
	"bds-sync/internal/repository"
)

type ComparableResponse struct {
	ListingID  string  `json:"listing_id"`
	Title      string  `json:"title"`
	Price      int64   `json:"price"`
	AreaM2     float64 `json:"area_m2"`
	PricePerM2 int64   `json:"price_per_m2"`
	Ward       string  `json:"ward,omitempty"`
	Distance   float64 `json:"distance"`
	Weight     float64 `json:"weight"`
}

type ValuationResponse struct {
	ID               uuid.UUID            `json:"id"`
	PriceMin         int64                `json:"price_min"`
	PriceMax         int64                `json:"price_max"`
	PriceSuggested   int64                `json:"price_suggested"`
	PricePerM2       int64                `json:"price_per_m2"`
	Confidence       int                  `json:"confidence"`
	Reasoning        string               `json:"reasoning,omitempty"`
	MarketComparison string               `json:"market_comparison,omitempty"`
	MarketSamples    int                  `json:"market_samples"`
	District         string               `json:"district"`
	Comparables      []ComparableResponse `json:"comparables"`
	CreatedAt        string               `json:"created_at"`
}

func NewValuationResponse(res *valuation.Result) ValuationResponse {
	out := ValuationResponse{
		ID:               res.ID,
		PriceMin:         res.PriceMin,
		PriceMax:         res.PriceMax,
		PriceSuggested:   res.PriceSuggested,
		PricePerM2:       res.PricePerM2,
		Confidence:       res.Confidence,
		Reasoning:        res.Reasoning,
		MarketComparison: res.MarketComparison,
		MarketSamples:    res.MarketSamples,
		District:         res.Request.District,
		Comparables:      make([]ComparableResponse, 0, len(res.Comparables)),
		CreatedAt:        res.CreatedAt.UTC().Format(time.RFC3339),
	}
	for _, c := range res.Comparables {
		out.Comparables = append(out.Comparables, ComparableResponse{
			ListingID:  c.ListingID.String(),
			Title:      c.Title,
			Price:      c.Price,
			AreaM2:     c.AreaM2,
			PricePerM2: c.PricePerM2,
			Ward:       c.Ward,
			Distance:   c.Distance,
			Weight:     c.Weight,
		})
	}
	return out
}

type ValuationHistoryResponse struct {
	ID             uuid.UUID `json:"id"`
	PropertyType   string    `json:"property_type"`
	District       string    `json:"district"`
	AreaM2         float64   `json:"area_m2"`
	PriceSuggested int64     `json:"price_suggested"`
	PriceMin       int64     `json:"price_min"`
	PriceMax       int64     `json:"price_max"`
	Confidence     int       `json:"confidence"`
	CreatedAt      string    `json:"created_at"`
}

func NewValuationHistoryResponse(e repository.HistoryEntry) ValuationHistoryResponse {
	return ValuationHistoryResponse{
		ID:             e.ID,
		PropertyType:   e.PropertyType,
		District:       e.District,
		AreaM2:         e.AreaM2,
		PriceSuggested: e.PriceSuggested,
		PriceMin:       e.PriceMin,
		PriceMax:       e.PriceMax,
		Confidence:     e.Confidence,
		CreatedAt:      e.CreatedAt.UTC().Format(time.RFC3339),
	}
}
