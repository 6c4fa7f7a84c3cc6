package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"bds-sync/internal/domain/listing"
	"bds-sync/internal/domain/valuation"
	"bds-sync/internal/intent"
	"bds-sync/internal/repository"
	valengine "bds-sync/internal/valuation"
)

type stubListingRepo struct {
	stats    repository.ListingStats
	statsErr error
}

func (s *stubListingRepo) Upsert(context.Context, listing.Listing) (bool, error) {
	return false, nil
}

func (s *stubListingRepo) GetByID(context.Context, string) (*listing.Listing, error) {
	return nil, repository.ErrListingNotFound
}

func (s *stubListingRepo) FilterSearch(context.Context, intent.Filters, int) ([]listing.Listing, error) {
	return nil, nil
}

func (s *stubListingRepo) Comparables(context.Context, valengine.PoolQuery) ([]valuation.Comparable, error) {
	return nil, nil
}

func (s *stubListingRepo) Districts(context.Context) ([]repository.DistrictCount, error) {
	return nil, nil
}

func (s *stubListingRepo) Stats(context.Context) (repository.ListingStats, error) {
	return s.stats, s.statsErr
}

func (s *stubListingRepo) SetEmbeddingRef(context.Context, string, string) error { return nil }

func (s *stubListingRepo) MarkStaleBefore(context.Context, time.Time) (int64, error) { return 0, nil }

func (s *stubListingRepo) MarkRemoved(context.Context, []string) (int64, error) { return 0, nil }

func TestListingStats(t *testing.T) {
	repo := &stubListingRepo{stats: repository.ListingStats{Total: 120, Active: 100, Indexed: 80, Districts: 7}}
	uc := NewListingUsecase(repo, nil)

	s, err := uc.Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Total != 120 || s.Active != 100 || s.Indexed != 80 || s.Districts != 7 {
		t.Fatalf("unexpected stats: %+v", s)
	}
}

func TestListingStats_RepositoryErrorWraps(t *testing.T) {
	repo := &stubListingRepo{statsErr: errors.New("connection refused")}
	uc := NewListingUsecase(repo, nil)

	if _, err := uc.Stats(context.Background()); !errors.Is(err, ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
}

func TestListingGet_NotFound(t *testing.T) {
	uc := NewListingUsecase(&stubListingRepo{}, nil)

	if _, err := uc.Get(context.Background(), "missing"); !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("expected ErrListingNotFound, got %v", err)
	}
}
