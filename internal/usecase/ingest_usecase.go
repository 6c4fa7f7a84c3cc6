package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"

	"bds-sync/internal/domain/listing"
	"bds-sync/internal/inference"
	"bds-sync/internal/retriever"
	"bds-sync/internal/validator"
)

type IngestReport struct {
	Received int      `json:"received"`
	Accepted int      `json:"accepted"`
	Rejected int      `json:"rejected"`
	Inserted int      `json:"inserted"`
	Updated  int      `json:"updated"`
	Flagged  int      `json:"flagged"`
	Errors   []string `json:"errors,omitempty"`
}

type IngestUsecase interface {
	IngestBatch(ctx context.Context, raw []listing.RawListing) (*IngestReport, error)
}

type listingWriter interface {
	Upsert(ctx context.Context, l listing.Listing) (bool, error)
	SetEmbeddingRef(ctx context.Context, id, ref string) error
}

type listingValidator interface {
	Validate(ctx context.Context, raw listing.RawListing) (listing.Listing, error)
}

// NewListingNotifier fans freshly inserted listings out to saved-search
// subscribers. Implemented by the saved-search usecase.
type NewListingNotifier interface {
	NotifyNewListing(ctx context.Context, l listing.Listing)
}

type DefaultIngestUsecase struct {
	validator listingValidator
	writer    listingWriter
	embedder  inference.Embedder
	index     retriever.VectorIndex
	cache     SearchCache
	notifier  NewListingNotifier
	logger    *log.Logger
}

func NewIngestUsecase(
	v listingValidator,
	writer listingWriter,
	embedder inference.Embedder,
	index retriever.VectorIndex,
	cache SearchCache,
	notifier NewListingNotifier,
	logger *log.Logger,
) *DefaultIngestUsecase {
	return &DefaultIngestUsecase{
		validator: v,
		writer:    writer,
		embedder:  embedder,
		index:     index,
		cache:     cache,
		notifier:  notifier,
		logger:    logger,
	}
}

// IngestBatch validates and persists a scrape batch. One bad listing
// never fails the batch: rejections and embedding failures are counted
// and reported. A listing whose embedding fails stays filter-searchable
// and gets a vector on its next sighting.
func (u *DefaultIngestUsecase) IngestBatch(ctx context.Context, raw []listing.RawListing) (*IngestReport, error) {
	report := &IngestReport{Received: len(raw)}

	for _, r := range raw {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		l, err := u.validator.Validate(ctx, r)
		if err != nil {
			report.Rejected++
			if errors.Is(err, validator.ErrMissingRequiredField) {
				report.Errors = append(report.Errors, fmt.Sprintf("rejected %s: %v", r.SourceURL, err))
				continue
			}
			report.Errors = append(report.Errors, fmt.Sprintf("validate %s: %v", r.SourceURL, err))
			continue
		}
		if len(l.Flags) > 0 {
			report.Flagged++
		}

		inserted, err := u.writer.Upsert(ctx, l)
		if err != nil {
			report.Rejected++
			report.Errors = append(report.Errors, fmt.Sprintf("store %s: %v", l.ID, err))
			continue
		}
		report.Accepted++
		if inserted {
			report.Inserted++
		} else {
			report.Updated++
		}

		u.indexListing(ctx, &l, report)

		if inserted && u.notifier != nil {
			u.notifier.NotifyNewListing(ctx, l)
		}
	}

	if report.Accepted > 0 && u.cache != nil {
		if err := u.cache.InvalidateSearches(ctx); err != nil && u.logger != nil {
			u.logger.Printf("[Ingest] cache invalidation failed | err=%v", err)
		}
	}

	if u.logger != nil {
		u.logger.Printf("[Ingest] received=%d accepted=%d rejected=%d inserted=%d flagged=%d",
			report.Received, report.Accepted, report.Rejected, report.Inserted, report.Flagged)
	}
	return report, nil
}

func (u *DefaultIngestUsecase) indexListing(ctx context.Context, l *listing.Listing, report *IngestReport) {
	if u.embedder == nil || u.index == nil {
		return
	}

	vec, err := u.embedder.Embed(ctx, l.EmbeddingText())
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("embed %s: %v", l.ID, err))
		return
	}
	if err := u.index.Upsert(ctx, l.ID, vec); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("index %s: %v", l.ID, err))
		return
	}
	if err := u.writer.SetEmbeddingRef(ctx, l.ID, l.ID); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("embedding ref %s: %v", l.ID, err))
	}
}
