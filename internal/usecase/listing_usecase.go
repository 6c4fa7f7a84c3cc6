package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"bds-sync/internal/domain/listing"
	"bds-sync/internal/repository"
)

type ListingUsecase interface {
	Get(ctx context.Context, id string) (*listing.Listing, error)
	Districts(ctx context.Context) ([]repository.DistrictCount, error)
	Stats(ctx context.Context) (repository.ListingStats, error)
	ExpireStale(ctx context.Context, maxAge time.Duration) (int64, error)
}

var ErrListingNotFound = repository.ErrListingNotFound

type DefaultListingUsecase struct {
	repo   repository.ListingRepository
	logger *log.Logger
}

func NewListingUsecase(repo repository.ListingRepository, logger *log.Logger) *DefaultListingUsecase {
	return &DefaultListingUsecase{repo: repo, logger: logger}
}

func (u *DefaultListingUsecase) Get(ctx context.Context, id string) (*listing.Listing, error) {
	l, err := u.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return l, nil
}

func (u *DefaultListingUsecase) Districts(ctx context.Context) ([]repository.DistrictCount, error) {
	out, err := u.repo.Districts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return out, nil
}

func (u *DefaultListingUsecase) Stats(ctx context.Context) (repository.ListingStats, error) {
	s, err := u.repo.Stats(ctx)
	if err != nil {
		return repository.ListingStats{}, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return s, nil
}

// ExpireStale downgrades listings not seen within maxAge. Run from the
// collector after a full sweep.
func (u *DefaultListingUsecase) ExpireStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}
	n, err := u.repo.MarkStaleBefore(ctx, time.Now().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if n > 0 && u.logger != nil {
		u.logger.Printf("[Listing] marked stale | count=%d max_age=%s", n, maxAge)
	}
	return n, nil
}
