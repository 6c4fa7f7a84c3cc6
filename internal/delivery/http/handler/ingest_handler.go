package handler

import (
	"time"

	"bds-sync/internal/delivery/http/middleware"
	"bds-sync/internal/domain/listing"
	"bds-sync/internal/pkg/response"
	"bds-sync/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type IngestHandler struct {
	uc usecase.IngestUsecase
}

type rawListingRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	PriceText      string `json:"price_text"`
	AreaText       string `json:"area_text"`
	Address        string `json:"address"`
	District       string `json:"district"`
	Ward           string `json:"ward"`
	City           string `json:"city"`
	Phone          string `json:"phone"`
	Bedrooms       *int   `json:"bedrooms"`
	PropertyType   string `json:"property_type"`
	SourceURL      string `json:"source_url"`
	SourcePlatform string `json:"source_platform"`
	ScrapedAt      string `json:"scraped_at"`
}

type ingestRequest struct {
	Listings []rawListingRequest `json:"listings"`
}

func NewIngestHandler(uc usecase.IngestUsecase) *IngestHandler {
	return &IngestHandler{uc: uc}
}

func (h *IngestHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Post("/ingest", h.Ingest)
}

func (h *IngestHandler) Ingest(c fiber.Ctx) error {
	var req ingestRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}
	if len(req.Listings) == 0 {
		return middleware.NewAppError(fiber.StatusBadRequest, "No listings in batch", nil, nil)
	}

	raw := make([]listing.RawListing, 0, len(req.Listings))
	for _, item := range req.Listings {
		raw = append(raw, toRawListing(item))
	}

	report, err := h.uc.IngestBatch(c.Context(), raw)
	if err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, report)
}

func toRawListing(in rawListingRequest) listing.RawListing {
	scraped := time.Now().UTC()
	if in.ScrapedAt != "" {
		if t, err := time.Parse(time.RFC3339, in.ScrapedAt); err == nil {
			scraped = t.UTC()
		}
	}
	return listing.RawListing{
		Title:          in.Title,
		Description:    in.Description,
		PriceText:      in.PriceText,
		AreaText:       in.AreaText,
		Address:        in.Address,
		District:       in.District,
		Ward:           in.Ward,
		City:           in.City,
		PhoneText:      in.Phone,
		Bedrooms:       in.Bedrooms,
		PropertyType:   in.PropertyType,
		SourceURL:      in.SourceURL,
		SourcePlatform: in.SourcePlatform,
		ScrapedAt:      scraped,
	}
}
