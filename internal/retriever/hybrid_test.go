package retriever

import (
	"context"
	"errors"
	"testing"
	"time"

	"bds-sync/internal/domain/listing"
	"bds-sync/internal/intent"
)

type fakeSource struct {
	items []listing.Listing
	err   error
	calls int
}

func (s *fakeSource) FilterSearch(ctx context.Context, f intent.Filters, limit int) ([]listing.Listing, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if len(s.items) > limit {
		return s.items[:limit], nil
	}
	return s.items, nil
}

type fakeIndex struct {
	vectors map[string][]float32
}

func (i fakeIndex) Upsert(ctx context.Context, id string, v []float32) error { return nil }
func (i fakeIndex) Delete(ctx context.Context, ids []string) error           { return nil }

func (i fakeIndex) Vectors(ctx context.Context, ids []string) (map[string][]float32, error) {
	out := make(map[string][]float32, len(ids))
	for _, id := range ids {
		if v, ok := i.vectors[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

type fakeEmbedder struct {
	vec []float32
	err error
}

func (e fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.vec, e.err
}

func mkListing(id string, age time.Duration, indexed bool) listing.Listing {
	l := listing.Listing{
		ID:        id,
		Title:     "nhà " + id,
		District:  "Cầu Giấy",
		Status:    listing.StatusActive,
		ScrapedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC).Add(-age),
	}
	if indexed {
		l.EmbeddingRef = id
	}
	return l
}

func TestSimilarityScore(t *testing.T) {
	if got := similarityScore(0); got != 1.0 {
		t.Fatalf("score(0) = %v, want 1.0", got)
	}
	if got := similarityScore(1); got != 0.5 {
		t.Fatalf("score(1) = %v, want 0.5", got)
	}
	if similarityScore(2) >= similarityScore(1) {
		t.Fatalf("score must be strictly decreasing in distance")
	}
}

func TestSearch_NoFreeText_RecencyOrder(t *testing.T) {
	src := &fakeSource{items: []listing.Listing{
		mkListing("a", 0, true),
		mkListing("b", time.Hour, true),
	}}
	r := New(src, fakeIndex{}, fakeEmbedder{}, nil)

	got, err := r.Search(context.Background(), intent.Filters{}, "", 10)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("expected store order preserved, got %+v", got)
	}
	for _, g := range got {
		if g.Score != 0 {
			t.Fatalf("no similarity stage ran, score must be zero")
		}
	}
}

func TestSearch_FreeText_ScoresMonotonic(t *testing.T) {
	src := &fakeSource{items: []listing.Listing{
		mkListing("far", 0, true),
		mkListing("near", 0, true),
		mkListing("mid", 0, true),
	}}
	idx := fakeIndex{vectors: map[string][]float32{
		"near": {1, 0},
		"mid":  {0, 1},
		"far":  {3, 4},
	}}
	r := New(src, idx, fakeEmbedder{vec: []float32{1, 0}}, nil)

	got, err := r.Search(context.Background(), intent.Filters{}, "nhà gần hồ", 10)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	if got[0].ID != "near" {
		t.Fatalf("closest vector first, got %s", got[0].ID)
	}
	if got[0].Score != 1.0 {
		t.Fatalf("distance 0 must score 1.0, got %v", got[0].Score)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Fatalf("scores must be non-increasing: %v then %v", got[i-1].Score, got[i].Score)
		}
	}
}

func TestSearch_TieBrokenByRecency(t *testing.T) {
	src := &fakeSource{items: []listing.Listing{
		mkListing("older", 2*time.Hour, true),
		mkListing("newer", 0, true),
	}}
	idx := fakeIndex{vectors: map[string][]float32{
		"older": {1, 0},
		"newer": {1, 0},
	}}
	r := New(src, idx, fakeEmbedder{vec: []float32{0, 0}}, nil)

	got, err := r.Search(context.Background(), intent.Filters{}, "q", 10)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got[0].ID != "newer" {
		t.Fatalf("equal scores must order by most recent scraped_at")
	}
}

func TestSearch_UnindexedListingsFilterOnly(t *testing.T) {
	src := &fakeSource{items: []listing.Listing{
		mkListing("indexed", 0, true),
		mkListing("pending", 0, false),
	}}
	idx := fakeIndex{vectors: map[string][]float32{"indexed": {0, 0}}}
	r := New(src, idx, fakeEmbedder{vec: []float32{0, 0}}, nil)

	got, err := r.Search(context.Background(), intent.Filters{}, "q", 10)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("unindexed listing must stay filter-searchable, got %d results", len(got))
	}
	if got[0].ID != "indexed" || got[1].ID != "pending" {
		t.Fatalf("scored results precede unindexed ones: %+v", got)
	}
}

func TestSearch_EmbedFailureDegradesToFilterOnly(t *testing.T) {
	src := &fakeSource{items: []listing.Listing{mkListing("a", 0, true)}}
	r := New(src, fakeIndex{}, fakeEmbedder{err: errors.New("down")}, nil)

	got, err := r.Search(context.Background(), intent.Filters{}, "q", 10)
	if err != nil {
		t.Fatalf("embedding failure must not fail the search: %v", err)
	}
	if len(got) != 1 || got[0].Score != 0 {
		t.Fatalf("expected filter-only result, got %+v", got)
	}
}

func TestSearch_StoreErrorIsSurfaced(t *testing.T) {
	src := &fakeSource{err: errors.New("connection refused")}
	r := New(src, fakeIndex{}, fakeEmbedder{}, nil)

	_, err := r.Search(context.Background(), intent.Filters{}, "", 10)
	if err == nil {
		t.Fatalf("store unavailability must be reported, not returned as empty results")
	}
}

func TestSearch_Deterministic(t *testing.T) {
	src := &fakeSource{items: []listing.Listing{
		mkListing("a", time.Hour, true),
		mkListing("b", time.Hour, true),
		mkListing("c", 0, true),
	}}
	idx := fakeIndex{vectors: map[string][]float32{
		"a": {1, 0}, "b": {1, 0}, "c": {0, 2},
	}}
	r := New(src, idx, fakeEmbedder{vec: []float32{0, 0}}, nil)

	first, err := r.Search(context.Background(), intent.Filters{}, "q", 10)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	second, err := r.Search(context.Background(), intent.Filters{}, "q", 10)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("order changed between identical calls")
		}
	}
}
