package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"bds-sync/internal/delivery/http/dto"
	"bds-sync/internal/delivery/http/middleware"
	"bds-sync/internal/intent"
	"bds-sync/internal/pkg/response"
	"bds-sync/internal/usecase"
)

type SavedSearchHandler struct {
	uc usecase.SavedSearchUsecase
}

type savedSearchRequest struct {
	Name    string         `json:"name"`
	Query   string         `json:"query"`
	Filters intent.Filters `json:"filters"`
	Notify  bool           `json:"notify"`
}

func NewSavedSearchHandler(uc usecase.SavedSearchUsecase) *SavedSearchHandler {
	return &SavedSearchHandler{uc: uc}
}

// RegisterRoutes expects a router already behind the auth middleware.
func (h *SavedSearchHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Delete("/:id", h.Delete)
}

func (h *SavedSearchHandler) Create(c fiber.Ctx) error {
	userID, ok := userIDFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	var req savedSearchRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	s, err := h.uc.Create(c.Context(), userID, req.Name, req.Query, req.Filters, req.Notify)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidInput) {
			return middleware.NewAppError(fiber.StatusBadRequest, "Name and a query or filters are required", nil, err)
		}
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
	return response.Success(c, fiber.StatusCreated, response.MessageOK, dto.NewSavedSearchResponse(*s))
}

func (h *SavedSearchHandler) List(c fiber.Ctx) error {
	userID, ok := userIDFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	items, err := h.uc.List(c.Context(), userID)
	if err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}

	out := make([]dto.SavedSearchResponse, 0, len(items))
	for _, s := range items {
		out = append(out, dto.NewSavedSearchResponse(s))
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, out)
}

func (h *SavedSearchHandler) Delete(c fiber.Ctx) error {
	userID, ok := userIDFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	if err := h.uc.Delete(c.Context(), userID, id); err != nil {
		if errors.Is(err, usecase.ErrSavedSearchNotFound) {
			return middleware.NewAppError(fiber.StatusNotFound, "Saved search not found", nil, err)
		}
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, nil)
}

func userIDFromCtx(c fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals(middleware.CtxUserIDKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}
