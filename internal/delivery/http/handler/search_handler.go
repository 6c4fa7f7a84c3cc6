package handler

import (
	"context"
	"errors"

	"bds-sync/internal/delivery/http/dto"
	"bds-sync/internal/delivery/http/middleware"
	"bds-sync/internal/intent"
	"bds-sync/internal/pkg/response"
	"bds-sync/internal/repository"
	"bds-sync/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type SearchHandler struct {
	uc    usecase.SearchUsecase
	stats statsSource
}

type statsSource interface {
	Stats(ctx context.Context) (repository.ListingStats, error)
}

type searchRequest struct {
	Query    string         `json:"query"`
	Filters  intent.Filters `json:"filters"`
	Limit    int            `json:"limit"`
	Realtime bool           `json:"realtime"`
}

func NewSearchHandler(uc usecase.SearchUsecase, stats statsSource) *SearchHandler {
	return &SearchHandler{uc: uc, stats: stats}
}

func (h *SearchHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Post("/search", h.Search)
	r.Get("/search/quick", h.QuickSearch)
	r.Get("/search/stats", h.Stats)
}

func (h *SearchHandler) Search(c fiber.Ctx) error {
	var req searchRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	res, err := h.uc.Search(c.Context(), usecase.SearchParams{
		Query:    req.Query,
		Filters:  req.Filters,
		Limit:    req.Limit,
		Realtime: req.Realtime,
	})
	if err != nil {
		return mapSearchUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewSearchResponse(res))
}

// QuickSearch is the GET variant for simple clients: free text only,
// never realtime.
func (h *SearchHandler) QuickSearch(c fiber.Ctx) error {
	limit, err := parseQueryIntStrict(c, "limit", 0)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	res, err := h.uc.Search(c.Context(), usecase.SearchParams{
		Query: c.Query("q"),
		Limit: limit,
	})
	if err != nil {
		return mapSearchUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewSearchResponse(res))
}

func (h *SearchHandler) Stats(c fiber.Ctx) error {
	s, err := h.stats.Stats(c.Context())
	if err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewSearchStatsResponse(s))
}

func mapSearchUsecaseError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, "Query or filters required", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
