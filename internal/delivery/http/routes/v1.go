package routes

import (
	"github.com/gofiber/fiber/v3"
)

func (r *Registry) registerV1(v1 fiber.Router) {
	if v1 == nil {
		return
	}

	if r.Search != nil {
		r.Search.RegisterRoutes(v1)
	}
	if r.Chat != nil {
		r.Chat.RegisterRoutes(v1)
	}
	if r.Valuation != nil {
		r.Valuation.RegisterRoutes(v1)
	}
	if r.Ingest != nil {
		r.Ingest.RegisterRoutes(v1)
	}
	if r.Listing != nil {
		r.Listing.RegisterRoutes(v1)
	}
	if r.Auth != nil {
		r.Auth.RegisterRoutes(v1.Group("/auth"))
	}

	if r.SavedSearch != nil && r.AuthMW != nil {
		protected := v1.Group("", r.AuthMW.Middleware())
		r.SavedSearch.RegisterRoutes(protected.Group("/saved-searches"))
	}
}
