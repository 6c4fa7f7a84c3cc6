package app

import (
	"fmt"
	"log"
	"strings"

	"bds-sync/internal/config"
	"bds-sync/internal/delivery/http/handler"
	"bds-sync/internal/delivery/http/middleware"
	"bds-sync/internal/delivery/http/routes"
	"bds-sync/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

// Bootstrap builds the container, starts the websocket hub and returns
// the fiber app ready to listen. The cleanup closes the container.
func Bootstrap(cfg config.Config, logger *log.Logger) (*App, func() error, error) {
	c, err := NewContainer(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	go c.Hub.Run()

	f := fiber.New(fiber.Config{
		AppName: cfg.App.AppName,
	})

	f.Use(middleware.NewAccessLogMiddleware(c.Logger).Middleware())
	f.Use(middleware.NewErrorMiddleware(c.Logger).Middleware())

	registry := &routes.Registry{
		Health:      handler.NewHealthHandler(c.DB, c.Redis),
		Search:      handler.NewSearchHandler(c.SearchUC, c.ListingUC),
		Chat:        handler.NewChatHandler(c.ChatUC),
		Valuation:   handler.NewValuationHandler(c.ValuationUC, c.ListingUC),
		Ingest:      handler.NewIngestHandler(c.IngestUC),
		Listing:     handler.NewListingHandler(c.ListingUC),
		Auth:        handler.NewAuthHandler(c.AuthUC),
		SavedSearch: handler.NewSavedSearchHandler(c.SavedSearchUC),
		WS:          ws.NewHandler(c.Hub, c.JWT, c.Logger),
		AuthMW:      middleware.NewAuthMiddleware(c.JWT),
	}
	registry.Register(f)

	return &App{Fiber: f, Container: c}, c.Close, nil
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
