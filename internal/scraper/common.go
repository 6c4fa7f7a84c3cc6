package scraper

import (
	"context"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"bds-sync/internal/domain/listing"
)

// Query narrows a collection sweep. Keyword and district feed the
// platform's own search; MaxPages caps the listing pages visited.
type Query struct {
	Keyword  string
	District string
	MaxPages int
}

// Source is one listing platform. Implementations return raw,
// unvalidated listings; cleaning happens downstream in the validator.
type Source interface {
	Name() string
	Search(ctx context.Context, q Query) ([]listing.RawListing, error)
}

func newCollector(allowedHost string) *colly.Collector {
	c := colly.NewCollector(
		colly.AllowedDomains(allowedHost),
	)
	_ = c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 2,
		Delay:       400 * time.Millisecond,
		RandomDelay: 750 * time.Millisecond,
	})
	c.OnRequest(func(r *colly.Request) {
		for k, v := range httpHeaders() {
			r.Headers.Set(k, v)
		}
	})
	return c
}

func httpHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "vi-VN,vi;q=0.9,en;q=0.6",
	}
}

func hostFromBaseURL(baseURL string) string {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Host == "" {
		return ""
	}
	host := u.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return host
}

// normalizeURL strips query noise and fragments so the same detail
// page always fingerprints identically.
func normalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	u.Fragment = ""
	u.RawQuery = ""
	return strings.TrimRight(u.String(), "/")
}

func dedupeByURL(items []listing.RawListing) []listing.RawListing {
	seen := map[string]struct{}{}
	out := make([]listing.RawListing, 0, len(items))
	for _, it := range items {
		if it.SourceURL == "" {
			continue
		}
		if _, ok := seen[it.SourceURL]; ok {
			continue
		}
		seen[it.SourceURL] = struct{}{}
		out = append(out, it)
	}
	return out
}
