package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"bds-sync/internal/domain/listing"
	"bds-sync/internal/validator"
)

type fakeWriter struct {
	upserts   []listing.Listing
	inserted  map[string]bool
	upsertErr error
	refs      map[string]string
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{inserted: map[string]bool{}, refs: map[string]string{}}
}

func (w *fakeWriter) Upsert(_ context.Context, l listing.Listing) (bool, error) {
	if w.upsertErr != nil {
		return false, w.upsertErr
	}
	w.upserts = append(w.upserts, l)
	first := !w.inserted[l.ID]
	w.inserted[l.ID] = true
	return first, nil
}

func (w *fakeWriter) SetEmbeddingRef(_ context.Context, id, ref string) error {
	w.refs[id] = ref
	return nil
}

type fakeIngestEmbedder struct {
	err   error
	calls int
}

func (e *fakeIngestEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return []float32{0.1, 0.2}, nil
}

type fakeIngestIndex struct {
	vectors map[string][]float32
}

func newFakeIngestIndex() *fakeIngestIndex {
	return &fakeIngestIndex{vectors: map[string][]float32{}}
}

func (i *fakeIngestIndex) Upsert(_ context.Context, id string, vec []float32) error {
	i.vectors[id] = vec
	return nil
}

func (i *fakeIngestIndex) Vectors(_ context.Context, ids []string) (map[string][]float32, error) {
	out := map[string][]float32{}
	for _, id := range ids {
		if v, ok := i.vectors[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func (i *fakeIngestIndex) Delete(_ context.Context, ids []string) error {
	for _, id := range ids {
		delete(i.vectors, id)
	}
	return nil
}

func testValidator() *validator.Validator {
	return validator.New(validator.Config{}, validator.DefaultBands(), nil, nil)
}

func rawFixture(url, title, price string) listing.RawListing {
	return listing.RawListing{
		Title:     title,
		PriceText: price,
		AreaText:  "80m2",
		District:  "Cầu Giấy",
		City:      "Hà Nội",
		PhoneText: "0912.345.678",
		SourceURL: url,
		ScrapedAt: time.Now(),
	}
}

func TestIngestBatch_AcceptsAndIndexes(t *testing.T) {
	writer := newFakeWriter()
	embedder := &fakeIngestEmbedder{}
	index := newFakeIngestIndex()
	uc := NewIngestUsecase(testValidator(), writer, embedder, index, newMemoryCache(), nil, nil)

	report, err := uc.IngestBatch(context.Background(), []listing.RawListing{
		rawFixture("https://example.com/1", "Bán căn hộ Cầu Giấy", "5 tỷ"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Accepted != 1 || report.Inserted != 1 || report.Rejected != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(writer.upserts) != 1 {
		t.Fatalf("expected one upsert, got %d", len(writer.upserts))
	}
	id := writer.upserts[0].ID
	if _, ok := index.vectors[id]; !ok {
		t.Fatal("expected a vector for the accepted listing")
	}
	if writer.refs[id] != id {
		t.Fatalf("expected embedding ref set, got %q", writer.refs[id])
	}
}

func TestIngestBatch_RejectionDoesNotFailBatch(t *testing.T) {
	writer := newFakeWriter()
	uc := NewIngestUsecase(testValidator(), writer, &fakeIngestEmbedder{}, newFakeIngestIndex(), newMemoryCache(), nil, nil)

	report, err := uc.IngestBatch(context.Background(), []listing.RawListing{
		rawFixture("https://example.com/1", "Bán căn hộ Cầu Giấy", "5 tỷ"),
		rawFixture("https://example.com/2", "Thiếu giá", "thỏa thuận"),
		rawFixture("https://example.com/3", "Nhà riêng Cầu Giấy", "7 tỷ"),
	})
	if err != nil {
		t.Fatalf("one bad listing must not fail the batch: %v", err)
	}
	if report.Accepted != 2 || report.Rejected != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(report.Errors) != 1 {
		t.Fatalf("expected one rejection error, got %v", report.Errors)
	}
}

func TestIngestBatch_EmbedFailureKeepsListing(t *testing.T) {
	writer := newFakeWriter()
	index := newFakeIngestIndex()
	uc := NewIngestUsecase(testValidator(), writer, &fakeIngestEmbedder{err: errors.New("embedding service down")}, index, newMemoryCache(), nil, nil)

	report, err := uc.IngestBatch(context.Background(), []listing.RawListing{
		rawFixture("https://example.com/1", "Bán căn hộ Cầu Giấy", "5 tỷ"),
	})
	if err != nil {
		t.Fatalf("embed failure must not fail the batch: %v", err)
	}
	if report.Accepted != 1 {
		t.Fatalf("listing must still be accepted: %+v", report)
	}
	if len(index.vectors) != 0 {
		t.Fatal("no vector should be stored on embed failure")
	}
	if len(writer.refs) != 0 {
		t.Fatal("embedding ref must not be set on embed failure")
	}
	if len(report.Errors) == 0 {
		t.Fatal("embed failure must be reported")
	}
}

func TestIngestBatch_ReingestIsUpdate(t *testing.T) {
	writer := newFakeWriter()
	uc := NewIngestUsecase(testValidator(), writer, &fakeIngestEmbedder{}, newFakeIngestIndex(), newMemoryCache(), nil, nil)

	raw := rawFixture("https://example.com/1", "Bán căn hộ Cầu Giấy", "5 tỷ")
	if _, err := uc.IngestBatch(context.Background(), []listing.RawListing{raw}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw.PriceText = "5.5 tỷ"
	report, err := uc.IngestBatch(context.Background(), []listing.RawListing{raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Inserted != 0 || report.Updated != 1 {
		t.Fatalf("price change must update in place: %+v", report)
	}
}

func TestIngestBatch_InvalidatesSearchCache(t *testing.T) {
	cache := newMemoryCache()
	cache.store["search:stale"] = []byte(`{}`)
	uc := NewIngestUsecase(testValidator(), newFakeWriter(), &fakeIngestEmbedder{}, newFakeIngestIndex(), cache, nil, nil)

	if _, err := uc.IngestBatch(context.Background(), []listing.RawListing{
		rawFixture("https://example.com/1", "Bán căn hộ Cầu Giấy", "5 tỷ"),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cache.store) != 0 {
		t.Fatal("accepted ingest must invalidate cached searches")
	}
}
