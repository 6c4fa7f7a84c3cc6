package retriever

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"

	"bds-sync/internal/domain/listing"
	"bds-sync/internal/inference"
	"bds-sync/internal/intent"
)

// ListingSource is the relational filter stage: exact and range
// filters applied in the store, ordered by recency. This filter set is
// authoritative and never loosened.
type ListingSource interface {
	FilterSearch(ctx context.Context, filters intent.Filters, limit int) ([]listing.Listing, error)
}

type ScoredListing struct {
	listing.Listing
	Score float64
}

// Retriever is a two-stage pipeline: the relational filter stage runs
// always; the similarity stage runs only when there is free text to
// embed.
type Retriever struct {
	source   ListingSource
	index    VectorIndex
	embedder inference.Embedder
	logger   *log.Logger

	// candidateFactor widens the stage-1 fetch so the similarity stage
	// has enough candidates to rank.
	candidateFactor int
}

func New(source ListingSource, index VectorIndex, embedder inference.Embedder, logger *log.Logger) *Retriever {
	return &Retriever{
		source:          source,
		index:           index,
		embedder:        embedder,
		logger:          logger,
		candidateFactor: 10,
	}
}

// Search returns listings satisfying the filters, ranked by vector
// similarity to freeText when present, by recency otherwise. Identical
// inputs against an unchanged store return the identical ordered set.
func (r *Retriever) Search(ctx context.Context, filters intent.Filters, freeText string, limit int) ([]ScoredListing, error) {
	if limit <= 0 {
		limit = 20
	}
	freeText = strings.TrimSpace(freeText)

	candidateLimit := limit
	if freeText != "" {
		candidateLimit = limit * r.candidateFactor
		if candidateLimit < 200 {
			candidateLimit = 200
		}
	}

	candidates, err := r.source.FilterSearch(ctx, filters, candidateLimit)
	if err != nil {
		return nil, fmt.Errorf("filter stage: %w", err)
	}

	// Precondition for the similarity stage: a non-empty query to
	// embed. Without one, stage-1 recency order is the result.
	if freeText == "" {
		out := make([]ScoredListing, 0, min(limit, len(candidates)))
		for _, l := range candidates {
			if len(out) == limit {
				break
			}
			out = append(out, ScoredListing{Listing: l})
		}
		return out, nil
	}

	return r.similarityStage(ctx, candidates, freeText, limit)
}

func (r *Retriever) similarityStage(ctx context.Context, candidates []listing.Listing, freeText string, limit int) ([]ScoredListing, error) {
	query, err := r.embedder.Embed(ctx, freeText)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Embedding failure degrades to filter-only ranking; the
		// candidates still satisfy every relational filter.
		if r.logger != nil {
			r.logger.Printf("[Retriever] embed failed, filter-only order | err=%v", err)
		}
		out := make([]ScoredListing, 0, min(limit, len(candidates)))
		for _, l := range candidates {
			if len(out) == limit {
				break
			}
			out = append(out, ScoredListing{Listing: l})
		}
		return out, nil
	}

	ids := make([]string, 0, len(candidates))
	for _, l := range candidates {
		if l.Indexed() {
			ids = append(ids, l.ID)
		}
	}

	vectors := map[string][]float32{}
	if len(ids) > 0 {
		vectors, err = r.index.Vectors(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("vector stage: %w", err)
		}
	}

	scored := make([]ScoredListing, 0, len(candidates))
	unindexed := make([]ScoredListing, 0)
	for _, l := range candidates {
		vec, ok := vectors[l.ID]
		if !ok {
			// Filter-searchable but not vector-searchable until the
			// embedding lands.
			unindexed = append(unindexed, ScoredListing{Listing: l})
			continue
		}
		d := l2Distance(query, vec)
		if math.IsInf(d, 1) {
			if r.logger != nil {
				r.logger.Printf("[Retriever] dimension mismatch | id=%s", l.ID)
			}
			unindexed = append(unindexed, ScoredListing{Listing: l})
			continue
		}
		scored = append(scored, ScoredListing{Listing: l, Score: similarityScore(d)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].ScrapedAt.After(scored[j].ScrapedAt)
	})

	out := append(scored, unindexed...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
