package inference

import (
	"context"
	"errors"
)

// Provider is a single language-model backend. Both backends are
// driven through the same prompt contract; the gateway owns coercing
// their raw text into structured output.
type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Embedder turns text into a vector for the retriever's similarity
// stage.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

var (
	// ErrAllProvidersExhausted is returned when the primary (after one
	// retry) and the fallback both fail. Callers branch on it; it is
	// never surfaced as an unstructured fault.
	ErrAllProvidersExhausted = errors.New("all inference providers exhausted")

	// ErrMalformedOutput marks provider text that does not decode into
	// the expected schema. Treated as a provider failure.
	ErrMalformedOutput = errors.New("malformed provider output")

	errRateLimited = errors.New("provider rate limited")
)
