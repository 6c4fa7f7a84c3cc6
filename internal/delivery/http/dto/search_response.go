package dto

import (
	"bds-sync/internal/intent"
	"bds-sync/internal/repository"
	"bds-sync/internal/usecase"
)

type SearchResponse struct {
	Results         []ListingResponse `json:"results"`
	Total           int               `json:"total"`
	Filters         intent.Filters    `json:"applied_filters"`
	FromCache       bool              `json:"from_cache"`
	Sources         []string          `json:"sources,omitempty"`
	ExecutionTimeMS int64             `json:"execution_time_ms"`
	Errors          []string          `json:"errors,omitempty"`
}

func NewSearchResponse(res *usecase.SearchResult) SearchResponse {
	out := SearchResponse{
		Results:         make([]ListingResponse, 0, len(res.Results)),
		Total:           res.Total,
		Filters:         res.Filters,
		FromCache:       res.FromCache,
		Sources:         res.Sources,
		ExecutionTimeMS: res.ExecutionTimeMS,
		Errors:          res.Errors,
	}
	for _, sl := range res.Results {
		out.Results = append(out.Results, NewListingResponse(sl.Listing, sl.Score))
	}
	return out
}

type SearchStatsResponse struct {
	TotalListings   int `json:"total_listings"`
	ActiveListings  int `json:"active_listings"`
	IndexedListings int `json:"indexed_listings"`
	Districts       int `json:"districts"`
}

func NewSearchStatsResponse(s repository.ListingStats) SearchStatsResponse {
	return SearchStatsResponse{
		TotalListings:   s.Total,
		ActiveListings:  s.Active,
		IndexedListings: s.Indexed,
		Districts:       s.Districts,
	}
}
