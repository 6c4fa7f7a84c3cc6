package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"bds-sync/internal/domain/listing"
	"bds-sync/internal/intent"
	"bds-sync/internal/repository"

	"github.com/google/uuid"
)

var ErrSavedSearchNotFound = repository.ErrSavedSearchNotFound

type SavedSearchUsecase interface {
	Create(ctx context.Context, userID uuid.UUID, name, query string, filters intent.Filters, notify bool) (*repository.SavedSearch, error)
	List(ctx context.Context, userID uuid.UUID) ([]repository.SavedSearch, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error

	NotifyNewListing(ctx context.Context, l listing.Listing)
}

// ListingBroadcaster pushes a matched listing to a user's websocket
// subscription. Implemented by ws.Notifier.
type ListingBroadcaster interface {
	NewListingMatch(userID uuid.UUID, searchName string, l listing.Listing)
}

type DefaultSavedSearchUsecase struct {
	repo        repository.SavedSearchRepository
	broadcaster ListingBroadcaster
	logger      *log.Logger
}

func NewSavedSearchUsecase(repo repository.SavedSearchRepository, broadcaster ListingBroadcaster, logger *log.Logger) *DefaultSavedSearchUsecase {
	return &DefaultSavedSearchUsecase{repo: repo, broadcaster: broadcaster, logger: logger}
}

func (u *DefaultSavedSearchUsecase) Create(ctx context.Context, userID uuid.UUID, name, query string, filters intent.Filters, notify bool) (*repository.SavedSearch, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if filters.Empty() && strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty search", ErrInvalidInput)
	}

	s := repository.SavedSearch{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		Query:     strings.TrimSpace(query),
		Filters:   filters,
		Notify:    notify,
		CreatedAt: time.Now().UTC(),
	}
	if err := u.repo.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return &s, nil
}

func (u *DefaultSavedSearchUsecase) List(ctx context.Context, userID uuid.UUID) ([]repository.SavedSearch, error) {
	out, err := u.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return out, nil
}

func (u *DefaultSavedSearchUsecase) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := u.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, repository.ErrSavedSearchNotFound) {
			return ErrSavedSearchNotFound
		}
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return nil
}

// NotifyNewListing checks a freshly inserted listing against every
// notifiable saved search. Notification is best effort: a repository
// error here is logged and swallowed because the ingest that triggered
// it must not fail.
func (u *DefaultSavedSearchUsecase) NotifyNewListing(ctx context.Context, l listing.Listing) {
	if u.broadcaster == nil {
		return
	}

	searches, err := u.repo.ListNotifiable(ctx)
	if err != nil {
		if u.logger != nil {
			u.logger.Printf("[SavedSearch] notify scan failed | err=%v", err)
		}
		return
	}

	for _, s := range searches {
		if s.Filters.Matches(l) {
			u.broadcaster.NewListingMatch(s.UserID, s.Name, l)
		}
	}
}
