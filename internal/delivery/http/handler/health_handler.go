package handler

import (
	"context"

	"bds-sync/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db    pinger
	cache pinger
}

func NewHealthHandler(db, cache pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

func (h *HealthHandler) RegisterRoutes(app *fiber.App) {
	if app == nil {
		return
	}
	app.Get("/health", h.Health)
}

// Health reports degraded rather than failing outright when the cache
// is down; the service still answers filter searches without it.
func (h *HealthHandler) Health(c fiber.Ctx) error {
	data := map[string]string{
		"database": "ok",
		"cache":    "ok",
	}
	status := fiber.StatusOK

	if h.db != nil {
		if err := h.db.Ping(c.Context()); err != nil {
			data["database"] = "down"
			status = fiber.StatusServiceUnavailable
		}
	}
	if h.cache != nil {
		if err := h.cache.Ping(c.Context()); err != nil {
			data["cache"] = "down"
		}
	}

	msg := "ok"
	if status != fiber.StatusOK {
		msg = "degraded"
	}
	return response.Success(c, status, msg, data)
}
