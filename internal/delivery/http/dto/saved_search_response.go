package dto

import (
	"time"

	"github.com/google/uuid"

	"bds-sync/internal/intent"
	"bds-sync/internal/repository"
)

type SavedSearchResponse struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Query     string         `json:"query,omitempty"`
	Filters   intent.Filters `json:"filters"`
	Notify    bool           `json:"notify"`
	CreatedAt string         `json:"created_at"`
}

func NewSavedSearchResponse(s repository.SavedSearch) SavedSearchResponse {
	return SavedSearchResponse{
		ID:        s.ID,
		Name:      s.Name,
		Query:     s.Query,
		Filters:   s.Filters,
		Notify:    s.Notify,
		CreatedAt: s.CreatedAt.UTC().Format(time.RFC3339),
	}
}
