package routes

import (
	"bds-sync/internal/delivery/http/handler"
	"bds-sync/internal/delivery/http/middleware"
	"bds-sync/internal/ws"

	"github.com/gofiber/fiber/v3"
)

// Registry holds the constructed handlers; the app container builds it
// once and hands it to the fiber app.
type Registry struct {
	Health      *handler.HealthHandler
	Search      *handler.SearchHandler
	Chat        *handler.ChatHandler
	Valuation   *handler.ValuationHandler
	Ingest      *handler.IngestHandler
	Listing     *handler.ListingHandler
	Auth        *handler.AuthHandler
	SavedSearch *handler.SavedSearchHandler

	WS     *ws.Handler
	AuthMW *middleware.AuthMiddleware
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	if r.Health != nil {
		r.Health.RegisterRoutes(app)
	}
	if r.WS != nil {
		app.Get("/ws", r.WS.HandleEventsWS)
	}

	api := app.Group("/api")
	r.registerV1(api.Group("/v1"))
}
