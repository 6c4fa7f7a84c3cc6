package handler

import (
	"errors"

	"bds-sync/internal/delivery/http/dto"
	"bds-sync/internal/delivery/http/middleware"
	"bds-sync/internal/pkg/response"
	"bds-sync/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type ChatHandler struct {
	uc usecase.ChatUsecase
}

type chatMessageRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

func NewChatHandler(uc usecase.ChatUsecase) *ChatHandler {
	return &ChatHandler{uc: uc}
}

func (h *ChatHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Post("/chat/message", h.Message)
	r.Get("/chat/history/:session_id", h.History)
	r.Delete("/chat/history/:session_id", h.ClearHistory)
	r.Get("/chat/suggestions", h.Suggestions)
}

func (h *ChatHandler) Message(c fiber.Ctx) error {
	var req chatMessageRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	reply, err := h.uc.Message(c.Context(), req.SessionID, req.Message)
	if err != nil {
		return mapChatUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewChatReplyResponse(reply))
}

func (h *ChatHandler) History(c fiber.Ctx) error {
	sessionID := c.Params("session_id")

	messages, err := h.uc.History(c.Context(), sessionID)
	if err != nil {
		return mapChatUsecaseError(err)
	}
	if messages == nil {
		messages = []usecase.ChatMessage{}
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.ChatHistoryResponse{
		SessionID: sessionID,
		Messages:  messages,
	})
}

func (h *ChatHandler) ClearHistory(c fiber.Ctx) error {
	if err := h.uc.ClearHistory(c.Context(), c.Params("session_id")); err != nil {
		return mapChatUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, nil)
}

func (h *ChatHandler) Suggestions(c fiber.Ctx) error {
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.ChatSuggestionsResponse{
		Suggestions: h.uc.Suggestions(),
	})
}

func mapChatUsecaseError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, "Message is required", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
