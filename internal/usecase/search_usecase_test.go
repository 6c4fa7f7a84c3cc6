package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"bds-sync/internal/domain/listing"
	"bds-sync/internal/intent"
	"bds-sync/internal/retriever"
)

type stubParser struct {
	filters intent.Filters
	meta    intent.ParseMeta
	err     error
}

func (s stubParser) Parse(_ context.Context, _ string) (intent.Filters, intent.ParseMeta, error) {
	return s.filters, s.meta, s.err
}

type stubRetriever struct {
	results []retriever.ScoredListing
	err     error
	calls   int
	filters intent.Filters
}

func (s *stubRetriever) Search(_ context.Context, filters intent.Filters, _ string, _ int) ([]retriever.ScoredListing, error) {
	s.calls++
	s.filters = filters
	return s.results, s.err
}

type memoryCache struct {
	store map[string][]byte
	sets  int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{store: map[string][]byte{}}
}

func (c *memoryCache) GetJSON(_ context.Context, key string, out any) (bool, error) {
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, out)
}

func (c *memoryCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.sets++
	c.store[key] = b
	return nil
}

func (c *memoryCache) InvalidateSearches(_ context.Context) error {
	c.store = map[string][]byte{}
	return nil
}

func districtFilters(d string) intent.Filters {
	return intent.Filters{District: &d}
}

func sampleResults() []retriever.ScoredListing {
	return []retriever.ScoredListing{
		{Listing: listing.Listing{ID: "a", Title: "Căn hộ Cầu Giấy", District: "Cầu Giấy"}, Score: 0.9},
	}
}

func TestSearch_HappyPath(t *testing.T) {
	r := &stubRetriever{results: sampleResults()}
	uc := NewSearchUsecase(stubParser{filters: districtFilters("Cầu Giấy")}, r, newMemoryCache(), nil, nil, nil, nil)

	res, err := uc.Search(context.Background(), SearchParams{Query: "chung cư cầu giấy"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 1 || len(res.Results) != 1 {
		t.Fatalf("expected 1 result, got %+v", res)
	}
	if res.FromCache {
		t.Fatal("first call must not be served from cache")
	}
	if len(res.Errors) != 0 {
		t.Fatalf("expected no errors, got %v", res.Errors)
	}
	if r.filters.District == nil || *r.filters.District != "Cầu Giấy" {
		t.Fatalf("parsed filters not passed to retriever: %+v", r.filters)
	}
}

func TestSearch_SecondCallFromCache(t *testing.T) {
	r := &stubRetriever{results: sampleResults()}
	cache := newMemoryCache()
	uc := NewSearchUsecase(stubParser{}, r, cache, nil, nil, nil, nil)

	params := SearchParams{Query: "chung cư cầu giấy"}
	if _, err := uc.Search(context.Background(), params); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := uc.Search(context.Background(), params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.FromCache {
		t.Fatal("second identical call must come from cache")
	}
	if r.calls != 1 {
		t.Fatalf("retriever must run once, ran %d times", r.calls)
	}
}

func TestSearch_FallbackNoted(t *testing.T) {
	uc := NewSearchUsecase(
		stubParser{meta: intent.ParseMeta{Provider: "ollama", Fallback: true}},
		&stubRetriever{results: sampleResults()},
		newMemoryCache(), nil, nil, nil, nil,
	)

	res, err := uc.Search(context.Background(), SearchParams{Query: "nhà riêng hà đông"})
	if err != nil {
		t.Fatalf("fallback must not fail the search: %v", err)
	}
	if len(res.Errors) != 1 || res.Errors[0] != "fallback model used" {
		t.Fatalf("expected fallback note, got %v", res.Errors)
	}
	if res.Total != 1 {
		t.Fatalf("results must still be returned, got %d", res.Total)
	}
}

func TestSearch_EmptyInput(t *testing.T) {
	uc := NewSearchUsecase(stubParser{}, &stubRetriever{}, nil, nil, nil, nil, nil)

	_, err := uc.Search(context.Background(), SearchParams{Query: "   "})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSearch_ExplicitFiltersOverrideParsed(t *testing.T) {
	r := &stubRetriever{results: sampleResults()}
	uc := NewSearchUsecase(stubParser{filters: districtFilters("Cầu Giấy")}, r, newMemoryCache(), nil, nil, nil, nil)

	_, err := uc.Search(context.Background(), SearchParams{
		Query:   "chung cư cầu giấy",
		Filters: districtFilters("Thanh Xuân"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.filters.District == nil || *r.filters.District != "Thanh Xuân" {
		t.Fatalf("explicit district must win, got %+v", r.filters.District)
	}
}

func TestSearch_StoreFailureSurfaces(t *testing.T) {
	uc := NewSearchUsecase(stubParser{}, &stubRetriever{err: errors.New("connection refused")}, nil, nil, nil, nil, nil)

	_, err := uc.Search(context.Background(), SearchParams{Query: "chung cư"})
	if !errors.Is(err, ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
}
