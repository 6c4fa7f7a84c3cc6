package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"testing"

	"bds-sync/internal/domain/listing"
	"bds-sync/internal/intent"
	"bds-sync/internal/scraper"
)

type fakeSource struct {
	name    string
	raw     []listing.RawListing
	err     error
	lastQ   scraper.Query
	queried bool
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Search(_ context.Context, q scraper.Query) ([]listing.RawListing, error) {
	f.lastQ = q
	f.queried = true
	return f.raw, f.err
}

func testLogger() *log.Logger {
	return log.New(&strings.Builder{}, "", 0)
}

func TestCollectorServiceMergesSources(t *testing.T) {
	a := &fakeSource{name: "batdongsan", raw: []listing.RawListing{
		{Title: "Nhà A", SourceURL: "https://a.example/1"},
		{Title: "Nhà B", SourceURL: "https://a.example/2"},
	}}
	b := &fakeSource{name: "chotot", raw: []listing.RawListing{
		{Title: "Nhà C", SourceURL: "https://b.example/3"},
	}}

	district := "Cầu Giấy"
	svc := NewCollectorService([]scraper.Source{a, b}, testLogger())
	raw, sources, errs := svc.Collect(context.Background(), intent.Filters{District: &district}, "chung cư 2 ngủ")

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(raw) != 3 {
		t.Fatalf("expected 3 merged listings, got %d", len(raw))
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %v", sources)
	}
	if a.lastQ.District != district || a.lastQ.Keyword != "chung cư 2 ngủ" {
		t.Errorf("query = %+v", a.lastQ)
	}
}

func TestCollectorServiceFailedSourceIsNonFatal(t *testing.T) {
	ok := &fakeSource{name: "chotot", raw: []listing.RawListing{
		{Title: "Nhà C", SourceURL: "https://b.example/3"},
	}}
	broken := &fakeSource{name: "batdongsan", err: errors.New("503 from upstream")}

	svc := NewCollectorService([]scraper.Source{ok, broken}, testLogger())
	raw, sources, errs := svc.Collect(context.Background(), intent.Filters{}, "")

	if len(raw) != 1 {
		t.Fatalf("expected the healthy source's listings, got %d", len(raw))
	}
	if len(sources) != 1 || sources[0] != "chotot" {
		t.Fatalf("sources = %v", sources)
	}
	if len(errs) != 1 || !strings.Contains(errs[0], "batdongsan") {
		t.Fatalf("errs = %v", errs)
	}
	if !broken.queried {
		t.Fatal("broken source was never queried")
	}
}
