package valuation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"bds-sync/internal/domain/valuation"
)

type fakePool struct {
	comparables []valuation.Comparable
	err         error
	lastQuery   PoolQuery
}

func (f *fakePool) Comparables(_ context.Context, q PoolQuery) ([]valuation.Comparable, error) {
	f.lastQuery = q
	if f.err != nil {
		return nil, f.err
	}
	return f.comparables, nil
}

func testLogger() *log.Logger {
	return log.New(os.Stderr, "", 0)
}

func makePool(n int, basePerM2 int64, area float64) []valuation.Comparable {
	now := time.Now()
	out := make([]valuation.Comparable, 0, n)
	for i := 0; i < n; i++ {
		perM2 := basePerM2 + int64(i)*1_000_000
		a := area + float64(i%5) - 2
		out = append(out, valuation.Comparable{
			ListingID:  uuid.New(),
			Title:      fmt.Sprintf("Căn hộ %d", i),
			AreaM2:     a,
			PricePerM2: perM2,
			Price:      int64(float64(perM2) * a),
			Ward:       "Dịch Vọng",
			ScrapedAt:  now.Add(-time.Duration(i) * 24 * time.Hour),
		})
	}
	return out
}

func baseRequest() valuation.Request {
	return valuation.Request{
		PropertyType: "chung cư",
		District:     "Cầu Giấy",
		AreaM2:       80,
	}
}

func TestEstimate_InsufficientPool(t *testing.T) {
	source := &fakePool{comparables: makePool(4, 60_000_000, 80)}
	engine := NewEngine(Config{}, source, testLogger())

	_, err := engine.Estimate(context.Background(), baseRequest())
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}

	var ie *InsufficientDataError
	if !errors.As(err, &ie) {
		t.Fatalf("expected InsufficientDataError, got %T", err)
	}
	if ie.Samples != 4 || ie.Required != 5 {
		t.Fatalf("expected samples=4 required=5, got samples=%d required=%d", ie.Samples, ie.Required)
	}
}

func TestEstimate_ProducesBandAroundSuggested(t *testing.T) {
	source := &fakePool{comparables: makePool(12, 60_000_000, 80)}
	engine := NewEngine(Config{}, source, testLogger())

	res, err := engine.Estimate(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.PriceSuggested <= 0 {
		t.Fatalf("expected positive suggested price, got %d", res.PriceSuggested)
	}
	if res.PriceMin > res.PriceSuggested || res.PriceSuggested > res.PriceMax {
		t.Fatalf("expected min <= suggested <= max, got min=%d suggested=%d max=%d",
			res.PriceMin, res.PriceSuggested, res.PriceMax)
	}
	if res.Confidence < 0 || res.Confidence > 100 {
		t.Fatalf("confidence out of range: %d", res.Confidence)
	}
	if res.MarketSamples != 12 {
		t.Fatalf("expected 12 market samples, got %d", res.MarketSamples)
	}
	if len(res.Comparables) == 0 {
		t.Fatal("expected comparables attached to the result")
	}
}

func TestEstimate_PoolQueryBounds(t *testing.T) {
	source := &fakePool{comparables: makePool(6, 60_000_000, 100)}
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	engine := NewEngine(Config{}, source, testLogger()).WithClock(func() time.Time { return now })

	req := baseRequest()
	req.AreaM2 = 100
	if _, err := engine.Estimate(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	q := source.lastQuery
	if q.AreaMin != 70 || q.AreaMax != 130 {
		t.Fatalf("expected area band [70, 130], got [%.1f, %.1f]", q.AreaMin, q.AreaMax)
	}
	if want := now.Add(-90 * 24 * time.Hour); !q.Since.Equal(want) {
		t.Fatalf("expected since=%s, got %s", want, q.Since)
	}
	if q.District != "Cầu Giấy" || q.PropertyType != "chung cư" {
		t.Fatalf("query lost filters: %+v", q)
	}
}

func TestEstimate_CapsNeighborsAtK(t *testing.T) {
	source := &fakePool{comparables: makePool(40, 60_000_000, 80)}
	engine := NewEngine(Config{MaxNeighbors: 15}, source, testLogger())

	res, err := engine.Estimate(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Comparables) != 15 {
		t.Fatalf("expected 15 neighbors, got %d", len(res.Comparables))
	}
	if res.MarketSamples != 40 {
		t.Fatalf("pool size should report the full pool, got %d", res.MarketSamples)
	}
}

func TestEstimate_WardMatchRanksCloser(t *testing.T) {
	now := time.Now()
	sameWard := valuation.Comparable{
		ListingID: uuid.New(), AreaM2: 80, PricePerM2: 62_000_000, Ward: "Dịch Vọng", ScrapedAt: now,
	}
	otherWard := valuation.Comparable{
		ListingID: uuid.New(), AreaM2: 80, PricePerM2: 70_000_000, Ward: "Nghĩa Đô", ScrapedAt: now,
	}
	pool := []valuation.Comparable{otherWard, sameWard}
	for i := 0; i < 4; i++ {
		pool = append(pool, valuation.Comparable{
			ListingID: uuid.New(), AreaM2: 90, PricePerM2: 65_000_000, Ward: "Nghĩa Đô", ScrapedAt: now,
		})
	}
	source := &fakePool{comparables: pool}
	engine := NewEngine(Config{}, source, testLogger())

	req := baseRequest()
	req.Ward = "Dịch Vọng"
	res, err := engine.Estimate(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Comparables[0].ListingID != sameWard.ListingID {
		t.Fatalf("expected same-ward comparable ranked first, got %s", res.Comparables[0].Title)
	}
	if res.Comparables[0].Weight <= res.Comparables[1].Weight {
		t.Fatal("expected the closest comparable to carry the largest weight")
	}
}

func TestEstimate_ResultCarriesRequest(t *testing.T) {
	source := &fakePool{comparables: makePool(12, 60_000_000, 80)}
	engine := NewEngine(Config{}, source, testLogger())

	req := baseRequest()
	req.Ward = "Dịch Vọng"
	res, err := engine.Estimate(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// History rows and response payloads read the request back off the
	// result, so it has to survive the estimate intact.
	if res.Request.District != "Cầu Giấy" || res.Request.Ward != "Dịch Vọng" {
		t.Fatalf("result lost request location: %+v", res.Request)
	}
	if res.Request.PropertyType != req.PropertyType || res.Request.AreaM2 != req.AreaM2 {
		t.Fatalf("result lost request shape: %+v", res.Request)
	}
}

func TestEstimate_Deterministic(t *testing.T) {
	source := &fakePool{comparables: makePool(12, 60_000_000, 80)}
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	engine := NewEngine(Config{}, source, testLogger()).WithClock(func() time.Time { return now })

	first, err := engine.Estimate(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := engine.Estimate(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.PriceSuggested != second.PriceSuggested ||
		first.PriceMin != second.PriceMin ||
		first.PriceMax != second.PriceMax ||
		first.Confidence != second.Confidence {
		t.Fatalf("estimates differ across identical runs: %+v vs %+v", first, second)
	}
}

func TestEstimate_InvalidRequest(t *testing.T) {
	engine := NewEngine(Config{}, &fakePool{}, testLogger())

	req := baseRequest()
	req.AreaM2 = 0
	if _, err := engine.Estimate(context.Background(), req); err == nil {
		t.Fatal("expected error for zero area")
	}

	req = baseRequest()
	req.District = ""
	if _, err := engine.Estimate(context.Background(), req); err == nil {
		t.Fatal("expected error for missing district")
	}
}

func TestEstimate_SourceErrorSurfaces(t *testing.T) {
	source := &fakePool{err: errors.New("connection refused")}
	engine := NewEngine(Config{}, source, testLogger())

	_, err := engine.Estimate(context.Background(), baseRequest())
	if err == nil || errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected a storage error distinct from insufficient data, got %v", err)
	}
}
