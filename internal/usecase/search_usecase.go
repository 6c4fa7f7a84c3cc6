package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"bds-sync/internal/domain/listing"
	"bds-sync/internal/intent"
	"bds-sync/internal/retriever"
)

type SearchParams struct {
	Query   string
	Filters intent.Filters
	Limit   int

	// Realtime triggers the live collectors before answering, trading
	// latency for freshness.
	Realtime bool
}

type SearchResult struct {
	Results         []retriever.ScoredListing `json:"results"`
	Total           int                       `json:"total"`
	Filters         intent.Filters            `json:"filters"`
	FromCache       bool                      `json:"from_cache"`
	Sources         []string                  `json:"sources"`
	ExecutionTimeMS int64                     `json:"execution_time_ms"`
	Errors          []string                  `json:"errors,omitempty"`
}

type SearchUsecase interface {
	Search(ctx context.Context, params SearchParams) (*SearchResult, error)
}

type queryParser interface {
	Parse(ctx context.Context, query string) (intent.Filters, intent.ParseMeta, error)
}

type listingRetriever interface {
	Search(ctx context.Context, filters intent.Filters, freeText string, limit int) ([]retriever.ScoredListing, error)
}

// LiveCollector fetches fresh listings from the source platforms for a
// realtime search. Implemented by service.CollectorService.
type LiveCollector interface {
	Collect(ctx context.Context, filters intent.Filters, freeText string) (raw []listing.RawListing, sources []string, errs []string)
}

// ProgressNotifier pushes per-phase progress to subscribed clients.
type ProgressNotifier interface {
	SearchProgress(query, phase string)
}

type DefaultSearchUsecase struct {
	parser    queryParser
	retriever listingRetriever
	cache     SearchCache
	collector LiveCollector
	ingest    IngestUsecase
	notifier  ProgressNotifier
	logger    *log.Logger

	cacheTTL time.Duration
}

func NewSearchUsecase(
	parser queryParser,
	r listingRetriever,
	cache SearchCache,
	collector LiveCollector,
	ingest IngestUsecase,
	notifier ProgressNotifier,
	logger *log.Logger,
) *DefaultSearchUsecase {
	return &DefaultSearchUsecase{
		parser:    parser,
		retriever: r,
		cache:     cache,
		collector: collector,
		ingest:    ingest,
		notifier:  notifier,
		logger:    logger,
		cacheTTL:  10 * time.Minute,
	}
}

// Search answers a free-text query. Provider fallbacks, heuristic
// parses and collector failures are reported in Errors, never as a
// failed search; only a store failure or cancelled context aborts.
func (u *DefaultSearchUsecase) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	start := time.Now()

	params.Query = strings.TrimSpace(params.Query)
	if params.Query == "" && params.Filters.Empty() {
		return nil, fmt.Errorf("%w: empty query and no filters", ErrInvalidInput)
	}
	if params.Limit <= 0 {
		params.Limit = 20
	}

	key := SearchCacheKey(params)
	if !params.Realtime && u.cache != nil {
		var cached SearchResult
		if hit, err := u.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			cached.FromCache = true
			cached.ExecutionTimeMS = time.Since(start).Milliseconds()
			return &cached, nil
		}
	}

	res := &SearchResult{Sources: []string{"database"}}

	u.notifyProgress(params.Query, "parsing")
	filters, pmeta, err := u.parser.Parse(ctx, params.Query)
	if err != nil {
		return nil, err
	}
	if pmeta.Fallback {
		res.Errors = append(res.Errors, "fallback model used")
	}
	if pmeta.Heuristic {
		res.Errors = append(res.Errors, "heuristic parse used")
	}

	filters = mergeFilters(filters, params.Filters)
	res.Filters = filters

	if params.Realtime && u.collector != nil && u.ingest != nil {
		u.notifyProgress(params.Query, "collecting")
		raw, sources, errs := u.collector.Collect(ctx, filters, params.Query)
		res.Sources = append(res.Sources, sources...)
		res.Errors = append(res.Errors, errs...)
		if len(raw) > 0 {
			if _, err := u.ingest.IngestBatch(ctx, raw); err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("ingest: %v", err))
			}
		}
	}

	u.notifyProgress(params.Query, "searching")
	results, err := u.retriever.Search(ctx, filters, params.Query, params.Limit)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	res.Results = results
	res.Total = len(results)
	res.ExecutionTimeMS = time.Since(start).Milliseconds()

	if u.cache != nil {
		if err := u.cache.SetJSON(ctx, key, res, u.cacheTTL); err != nil && u.logger != nil {
			u.logger.Printf("[Search] cache write failed | err=%v", err)
		}
	}

	u.notifyProgress(params.Query, "done")
	if u.logger != nil {
		u.logger.Printf("[Search] query=%q results=%d took=%dms errors=%d",
			params.Query, res.Total, res.ExecutionTimeMS, len(res.Errors))
	}
	return res, nil
}

func (u *DefaultSearchUsecase) notifyProgress(query, phase string) {
	if u.notifier != nil {
		u.notifier.SearchProgress(query, phase)
	}
}

// mergeFilters lets explicit request filters override parsed ones.
func mergeFilters(parsed, explicit intent.Filters) intent.Filters {
	out := parsed
	if explicit.District != nil {
		out.District = explicit.District
	}
	if explicit.City != nil {
		out.City = explicit.City
	}
	if explicit.PropertyType != nil {
		out.PropertyType = explicit.PropertyType
	}
	if explicit.MinPrice != nil {
		out.MinPrice = explicit.MinPrice
	}
	if explicit.MaxPrice != nil {
		out.MaxPrice = explicit.MaxPrice
	}
	if explicit.MinArea != nil {
		out.MinArea = explicit.MinArea
	}
	if explicit.MaxArea != nil {
		out.MaxArea = explicit.MaxArea
	}
	if explicit.Bedrooms != nil {
		out.Bedrooms = explicit.Bedrooms
	}
	if explicit.Intent != "" {
		out.Intent = explicit.Intent
	}
	return out
}
