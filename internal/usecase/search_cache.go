package usecase

import (
	"context"
	"time"
)

// SearchCache is the slice of the cache the search path needs. The
// Redis implementation degrades to a no-op when the server is down, so
// callers treat a miss and an outage the same way.
type SearchCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	InvalidateSearches(ctx context.Context) error
}
