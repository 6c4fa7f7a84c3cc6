package handler

import (
	"context"
	"errors"
	"strconv"

	"bds-sync/internal/delivery/http/dto"
	"bds-sync/internal/delivery/http/middleware"
	"bds-sync/internal/domain/listing"
	"bds-sync/internal/domain/valuation"
	"bds-sync/internal/pkg/response"
	"bds-sync/internal/repository"
	"bds-sync/internal/usecase"
	engine "bds-sync/internal/valuation"

	"github.com/gofiber/fiber/v3"
)

type ValuationHandler struct {
	uc        usecase.ValuationUsecase
	districts districtSource
}

type districtSource interface {
	Districts(ctx context.Context) ([]repository.DistrictCount, error)
}

type valuationRequest struct {
	PropertyType string  `json:"property_type"`
	AreaM2       float64 `json:"area_m2"`
	District     string  `json:"district"`
	Ward         string  `json:"ward"`
	Bedrooms     *int    `json:"bedrooms"`
	Direction    string  `json:"direction"`
	LegalStatus  string  `json:"legal_status"`
}

func NewValuationHandler(uc usecase.ValuationUsecase, districts districtSource) *ValuationHandler {
	return &ValuationHandler{uc: uc, districts: districts}
}

func (h *ValuationHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Post("/valuation/estimate", h.Estimate)
	r.Get("/valuation/history", h.History)
	r.Get("/valuation/districts", h.Districts)
}

func (h *ValuationHandler) Estimate(c fiber.Ctx) error {
	var req valuationRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	pt := listing.ParsePropertyType(req.PropertyType)
	if pt == "" {
		return middleware.NewAppError(fiber.StatusBadRequest, "Unknown property type", nil, nil)
	}
	if req.AreaM2 <= 0 {
		return middleware.NewAppError(fiber.StatusBadRequest, "Area must be positive", nil, nil)
	}
	if req.District == "" {
		return middleware.NewAppError(fiber.StatusBadRequest, "District is required", nil, nil)
	}

	res, err := h.uc.Estimate(c.Context(), valuation.Request{
		PropertyType: pt,
		AreaM2:       req.AreaM2,
		District:     req.District,
		Ward:         req.Ward,
		Bedrooms:     req.Bedrooms,
		Direction:    req.Direction,
		LegalStatus:  req.LegalStatus,
	})
	if err != nil {
		// Too few comparables is an expected answer, not a failure: the
		// client gets "no estimate available" plus the pool size.
		var insufficient *engine.InsufficientDataError
		if errors.As(err, &insufficient) {
			return response.Success(c, fiber.StatusOK, "insufficient data", map[string]any{
				"insufficient_data": true,
				"samples":           insufficient.Samples,
				"required":          insufficient.Required,
			})
		}
		return mapValuationUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewValuationResponse(res))
}

func (h *ValuationHandler) Districts(c fiber.Ctx) error {
	counts, err := h.districts.Districts(c.Context())
	if err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}

	out := make([]dto.DistrictCountResponse, 0, len(counts))
	for _, d := range counts {
		out = append(out, dto.DistrictCountResponse{District: d.District, Count: d.Count})
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, out)
}

func (h *ValuationHandler) History(c fiber.Ctx) error {
	limit, err := parseQueryIntStrict(c, "limit", 20)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}
	offset, err := parseQueryIntStrict(c, "offset", 0)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	entries, err := h.uc.History(c.Context(), limit, offset)
	if err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}

	out := make([]dto.ValuationHistoryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.NewValuationHistoryResponse(e))
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, out)
}

func mapValuationUsecaseError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}

func parseQueryIntStrict(c fiber.Ctx, key string, defaultVal int) (int, error) {
	s := c.Query(key)
	if s == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(s)
}
