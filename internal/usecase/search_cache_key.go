package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"bds-sync/internal/intent"
)

type searchCacheKeyInput struct {
	Query   string         `json:"query"`
	Filters intent.Filters `json:"filters"`
	Limit   int            `json:"limit"`
}

func normalizeSearchValue(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	s = strings.Join(strings.Fields(s), " ")
	return s
}

// SearchCacheKey is stable across query whitespace and casing so the
// same question hits the same cache entry.
func SearchCacheKey(params SearchParams) string {
	in := searchCacheKeyInput{
		Query:   normalizeSearchValue(params.Query),
		Filters: params.Filters,
		Limit:   params.Limit,
	}

	b, err := json.Marshal(in)
	if err != nil {
		return "search:" + normalizeSearchValue(params.Query)
	}
	sum := sha256.Sum256(b)
	return "search:" + hex.EncodeToString(sum[:])
}
