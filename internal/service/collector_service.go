package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"bds-sync/internal/domain/listing"
	"bds-sync/internal/intent"
	"bds-sync/internal/scraper"
)

const (
	defaultSourceTimeout = 10 * time.Second
	defaultMaxPages      = 2
)

// CollectorService fans a sweep out over every registered source. One
// slow or broken platform degrades the sweep, it never fails it.
type CollectorService struct {
	sources       []scraper.Source
	sourceTimeout time.Duration
	maxPages      int
	logger        *log.Logger
}

func NewCollectorService(sources []scraper.Source, logger *log.Logger) *CollectorService {
	if logger == nil {
		logger = log.Default()
	}
	return &CollectorService{
		sources:       sources,
		sourceTimeout: defaultSourceTimeout,
		maxPages:      defaultMaxPages,
		logger:        logger,
	}
}

type sourceResult struct {
	name string
	raw  []listing.RawListing
	err  error
}

// Collect runs every source concurrently and merges whatever came
// back. Per-source failures are reported as strings so callers can
// surface them as non-fatal search notes.
func (s *CollectorService) Collect(ctx context.Context, filters intent.Filters, freeText string) ([]listing.RawListing, []string, []string) {
	q := scraper.Query{
		Keyword:  freeText,
		MaxPages: s.maxPages,
	}
	if filters.District != nil {
		q.District = *filters.District
	}

	res := make(chan sourceResult, len(s.sources))
	var wg sync.WaitGroup
	for _, src := range s.sources {
		wg.Add(1)
		go func(src scraper.Source) {
			defer wg.Done()
			sctx, cancel := context.WithTimeout(ctx, s.sourceTimeout)
			defer cancel()

			start := time.Now()
			raw, err := src.Search(sctx, q)
			if err != nil {
				s.logger.Printf("[Collector] source failed | source=%s err=%v", src.Name(), err)
			} else {
				s.logger.Printf("[Collector] source done | source=%s listings=%d took=%s", src.Name(), len(raw), time.Since(start).Round(time.Millisecond))
			}
			res <- sourceResult{name: src.Name(), raw: raw, err: err}
		}(src)
	}
	wg.Wait()
	close(res)

	var (
		merged  []listing.RawListing
		sources []string
		errs    []string
	)
	for r := range res {
		if r.err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", r.name, r.err))
			continue
		}
		sources = append(sources, r.name)
		merged = append(merged, r.raw...)
	}
	return merged, sources, errs
}
