package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"
)

// Meta records which backend served a call, for observability. Callers
// do not need it for correctness.
type Meta struct {
	Provider string
	Latency  time.Duration
	Fallback bool
}

// SchemaValidator lets the output schema add checks beyond decoding.
type SchemaValidator interface {
	ValidateSchema() error
}

// Gateway drives the providers in fixed priority order: primary,
// one retry on the primary after a short backoff, then the fallback
// once for the remainder of the call.
type Gateway struct {
	providers []Provider
	timeout   time.Duration
	backoff   time.Duration
	logger    *log.Logger
}

func NewGateway(logger *log.Logger, timeout, backoff time.Duration, providers ...Provider) *Gateway {
	ps := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p != nil {
			ps = append(ps, p)
		}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	return &Gateway{providers: ps, timeout: timeout, backoff: backoff, logger: logger}
}

// Infer runs the prompt and decodes the provider text into out, which
// must be a pointer to the expected schema. Output that does not decode
// (or fails out's ValidateSchema) counts as a provider failure. When
// every provider fails the returned error wraps
// ErrAllProvidersExhausted.
func (g *Gateway) Infer(ctx context.Context, prompt string, out any) (Meta, error) {
	if len(g.providers) == 0 {
		return Meta{}, fmt.Errorf("%w: no providers configured", ErrAllProvidersExhausted)
	}

	var lastErr error
	for i, p := range g.providers {
		attempts := 1
		if i == 0 {
			attempts = 2
		}

		for a := 0; a < attempts; a++ {
			if err := ctx.Err(); err != nil {
				return Meta{}, err
			}
			if a > 0 {
				select {
				case <-time.After(g.backoff):
				case <-ctx.Done():
					return Meta{}, ctx.Err()
				}
			}

			meta, err := g.attempt(ctx, p, prompt, out)
			if err == nil {
				meta.Fallback = i > 0
				return meta, nil
			}
			lastErr = err
		}
	}

	return Meta{}, fmt.Errorf("%w: %v", ErrAllProvidersExhausted, lastErr)
}

func (g *Gateway) attempt(ctx context.Context, p Provider, prompt string, out any) (Meta, error) {
	cctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	text, err := p.Complete(cctx, prompt)
	latency := time.Since(start)

	if err == nil {
		err = decodeStructured(text, out)
	}

	if g.logger != nil {
		outcome := "ok"
		if err != nil {
			outcome = fmt.Sprintf("error: %v", err)
		}
		g.logger.Printf("[Inference] provider=%s latency=%s outcome=%s", p.Name(), latency.Round(time.Millisecond), outcome)
	}
	if err != nil {
		return Meta{}, err
	}

	return Meta{Provider: p.Name(), Latency: latency}, nil
}

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// decodeStructured enforces JSON-or-fail: the provider text must
// contain a JSON object that unmarshals into out. Markdown fences and
// conversational padding around the object are tolerated.
func decodeStructured(text string, out any) error {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	if !strings.HasPrefix(s, "{") {
		m := jsonObjectPattern.FindString(s)
		if m == "" {
			return fmt.Errorf("%w: no JSON object in output", ErrMalformedOutput)
		}
		s = m
	}

	if err := json.Unmarshal([]byte(s), out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	if v, ok := out.(SchemaValidator); ok {
		if err := v.ValidateSchema(); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedOutput, err)
		}
	}

	return nil
}
