package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"bds-sync/internal/domain/valuation"
	"bds-sync/internal/repository"
	valengine "bds-sync/internal/valuation"
)

type stubEstimator struct {
	res *valuation.Result
	err error
}

func (s stubEstimator) Estimate(_ context.Context, _ valuation.Request) (*valuation.Result, error) {
	return s.res, s.err
}

type stubHistoryRepo struct {
	saved []*valuation.Result
}

func (s *stubHistoryRepo) Save(_ context.Context, res *valuation.Result) error {
	s.saved = append(s.saved, res)
	return nil
}

func (s *stubHistoryRepo) ListRecent(context.Context, int, int) ([]repository.HistoryEntry, error) {
	return nil, nil
}

func valuationRequest() valuation.Request {
	return valuation.Request{PropertyType: "chung cư", District: "Cầu Giấy", AreaM2: 80}
}

func TestValuationEstimate_InsufficientDataPassesThrough(t *testing.T) {
	engine := stubEstimator{err: &valengine.InsufficientDataError{Samples: 3, Required: 5}}
	history := &stubHistoryRepo{}
	uc := NewValuationUsecase(engine, nil, history, nil)

	_, err := uc.Estimate(context.Background(), valuationRequest())
	if !errors.Is(err, valengine.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}

	// Handlers turn this into a regular answer with the pool size, so
	// the typed error must survive the usecase unwrapped.
	var insufficient *valengine.InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientDataError, got %T", err)
	}
	if insufficient.Samples != 3 || insufficient.Required != 5 {
		t.Fatalf("expected samples=3 required=5, got %+v", insufficient)
	}
	if errors.Is(err, ErrInternal) {
		t.Fatal("insufficient data must not read as an internal failure")
	}
	if len(history.saved) != 0 {
		t.Fatal("expected no history row without an estimate")
	}
}

func TestValuationEstimate_HistoryRowCarriesRequest(t *testing.T) {
	req := valuationRequest()
	engine := stubEstimator{res: &valuation.Result{ID: uuid.New(), Request: req, PriceSuggested: 5_000_000_000}}
	history := &stubHistoryRepo{}
	uc := NewValuationUsecase(engine, nil, history, nil)

	res, err := uc.Estimate(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history.saved) != 1 {
		t.Fatalf("expected one history row, got %d", len(history.saved))
	}
	if history.saved[0].Request.District != "Cầu Giấy" || history.saved[0].Request.AreaM2 != 80 {
		t.Fatalf("history row lost the request: %+v", history.saved[0].Request)
	}
	if res.PriceSuggested != 5_000_000_000 {
		t.Fatalf("unexpected suggested price: %d", res.PriceSuggested)
	}
}

func TestValuationEstimate_EngineFailureWraps(t *testing.T) {
	engine := stubEstimator{err: errors.New("connection refused")}
	uc := NewValuationUsecase(engine, nil, &stubHistoryRepo{}, nil)

	if _, err := uc.Estimate(context.Background(), valuationRequest()); !errors.Is(err, ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
}
