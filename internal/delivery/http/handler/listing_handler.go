package handler

import (
	"errors"
	"strings"

	"bds-sync/internal/delivery/http/dto"
	"bds-sync/internal/delivery/http/middleware"
	"bds-sync/internal/pkg/response"
	"bds-sync/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type ListingHandler struct {
	uc usecase.ListingUsecase
}

func NewListingHandler(uc usecase.ListingUsecase) *ListingHandler {
	return &ListingHandler{uc: uc}
}

func (h *ListingHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/listings/:id", h.Get)
}

func (h *ListingHandler) Get(c fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return middleware.NewAppError(fiber.StatusBadRequest, "Listing id required", nil, nil)
	}

	l, err := h.uc.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, usecase.ErrListingNotFound) {
			return middleware.NewAppError(fiber.StatusNotFound, "Listing not found", nil, err)
		}
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewListingResponse(*l, 0))
}
