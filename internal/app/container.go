package app

import (
	"context"
	"log"
	"time"

	"bds-sync/internal/config"
	"bds-sync/internal/database"
	dbpostgres "bds-sync/internal/database/postgres"
	"bds-sync/internal/database/seeder"
	"bds-sync/internal/inference"
	"bds-sync/internal/infrastructure/cache"
	"bds-sync/internal/intent"
	"bds-sync/internal/pkg/jwt"
	"bds-sync/internal/repository"
	"bds-sync/internal/retriever"
	"bds-sync/internal/scraper"
	"bds-sync/internal/service"
	"bds-sync/internal/usecase"
	"bds-sync/internal/validator"
	"bds-sync/internal/valuation"
	"bds-sync/internal/ws"
)

// Container wires the whole dependency graph once at boot. Both the
// HTTP server and the scraper binary build one and pick what they use.
type Container struct {
	Config config.Config
	Logger *log.Logger

	DB    database.DB
	Redis *cache.Redis
	Hub   *ws.Hub
	JWT   jwt.Service

	Listings  repository.ListingRepository
	Collector *service.CollectorService

	SearchUC      usecase.SearchUsecase
	ChatUC        usecase.ChatUsecase
	IngestUC      usecase.IngestUsecase
	ValuationUC   usecase.ValuationUsecase
	ListingUC     usecase.ListingUsecase
	AuthUC        usecase.AuthUsecase
	SavedSearchUC usecase.SavedSearchUsecase
}

func NewContainer(cfg config.Config, logger *log.Logger) (*Container, error) {
	if logger == nil {
		logger = log.Default()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := (seeder.Runner{Seeders: seeder.Defaults()}).Run(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		loc = time.UTC
	}

	redis := cache.NewRedis(cfg.Redis, logger)
	vectors := cache.NewVectorStore(redis)
	phones := cache.NewPhoneCounter(redis, loc)

	gateway := newGateway(cfg.Inference, logger)
	embedder := inference.NewOllamaProvider(inference.OllamaConfig{
		BaseURL:        cfg.Inference.OllamaBaseURL,
		Model:          cfg.Inference.OllamaModel,
		EmbeddingModel: cfg.Inference.EmbeddingModel,
		Timeout:        cfg.Inference.ProviderTimeout,
	})

	listings := repository.NewPostgresListingRepository(db)
	bands := repository.NewPostgresPriceBandRepository(db)
	history := repository.NewPostgresValuationHistoryRepository(db)
	users := repository.NewPostgresUserRepository(db)
	savedSearches := repository.NewPostgresSavedSearchRepository(db)

	parser := intent.NewParser(gateway, logger)
	valid := validator.New(validator.Config{
		SuspectRatio:   cfg.Validator.SuspectRatio,
		SpamDailyLimit: cfg.Validator.SpamDailyLimit,
	}, bands, phones, logger)
	hybrid := retriever.New(listings, vectors, embedder, logger)
	engine := valuation.NewEngine(valuation.Config{
		MinSamples:    cfg.Valuation.MinSamples,
		MaxNeighbors:  cfg.Valuation.MaxNeighbors,
		AreaTolerance: cfg.Valuation.AreaTolerance,
		RecencyWindow: time.Duration(cfg.Valuation.MaxAgeDays) * 24 * time.Hour,
		LowPercentile: cfg.Valuation.LowPercentile,
		HiPercentile:  cfg.Valuation.HiPercentile,
	}, listings, logger)

	hub := ws.NewHub(logger)
	notifier := ws.NewNotifier(hub)

	jwtSvc := jwt.NewHMACService(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessExpiresIn,
		cfg.JWT.RefreshExpiresIn,
	)

	collector := service.NewCollectorService([]scraper.Source{
		scraper.NewBatdongsanScraper(),
		scraper.NewChototScraper(),
	}, logger)

	savedSearchUC := usecase.NewSavedSearchUsecase(savedSearches, notifier, logger)
	ingestUC := usecase.NewIngestUsecase(valid, listings, embedder, vectors, redis, savedSearchUC, logger)
	searchUC := usecase.NewSearchUsecase(parser, hybrid, redis, collector, ingestUC, notifier, logger)
	chatUC := usecase.NewChatUsecase(hybrid, gateway, redis, logger)
	valuationUC := usecase.NewValuationUsecase(engine, gateway, history, logger)
	listingUC := usecase.NewListingUsecase(listings, logger)
	authUC := usecase.NewAuthUsecase(users, jwtSvc)

	return &Container{
		Config:        cfg,
		Logger:        logger,
		DB:            db,
		Redis:         redis,
		Hub:           hub,
		JWT:           jwtSvc,
		Listings:      listings,
		Collector:     collector,
		SearchUC:      searchUC,
		ChatUC:        chatUC,
		IngestUC:      ingestUC,
		ValuationUC:   valuationUC,
		ListingUC:     listingUC,
		AuthUC:        authUC,
		SavedSearchUC: savedSearchUC,
	}, nil
}

// newGateway degrades to Ollama-only when no Gemini key is configured,
// so local development needs no cloud credentials.
func newGateway(cfg config.InferenceConfig, logger *log.Logger) *inference.Gateway {
	ollama := inference.NewOllamaProvider(inference.OllamaConfig{
		BaseURL:        cfg.OllamaBaseURL,
		Model:          cfg.OllamaModel,
		EmbeddingModel: cfg.EmbeddingModel,
		Timeout:        cfg.ProviderTimeout,
	})

	providers := []inference.Provider{ollama}
	if cfg.GeminiAPIKey != "" {
		gemini, err := inference.NewGeminiProvider(inference.GeminiConfig{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			BaseURL: cfg.GeminiBaseURL,
			Timeout: cfg.ProviderTimeout,
		})
		if err == nil {
			providers = []inference.Provider{gemini, ollama}
		} else {
			logger.Printf("[App] gemini disabled | err=%v", err)
		}
	}
	return inference.NewGateway(logger, cfg.ProviderTimeout, cfg.RetryBackoff, providers...)
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
