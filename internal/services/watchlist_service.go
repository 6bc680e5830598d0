package services

import (
	"context"
	"iter"

	"auctions/internal/auctionerrors"
	"auctions/internal/domain"
	"auctions/internal/repos"
)

type WatchlistService struct {
	Repo     *repos.WatchRepo
	Listings *repos.ListingRepo
}

func NewWatchlistService(r *repos.WatchRepo, listings *repos.ListingRepo) *WatchlistService {
	return &WatchlistService{Repo: r, Listings: listings}
}

func (s *WatchlistService) Add(ctx context.Context, userID string, listingID int64) (domain.WatchEntry, error) {
	if userID == "" {
		return domain.WatchEntry{}, auctionerrors.ErrUnauthenticated
	}
	if _, err := s.Listings.Get(ctx, listingID); err != nil {
		return domain.WatchEntry{}, err
	}
	return s.Repo.Add(ctx, userID, listingID)
}

// Remove reports whether an entry was deleted; a missing entry is a no-op.
func (s *WatchlistService) Remove(ctx context.Context, userID string, listingID int64) (bool, error) {
	if userID == "" {
		return false, auctionerrors.ErrUnauthenticated
	}
	return s.Repo.Remove(ctx, userID, listingID)
}

func (s *WatchlistService) IsWatching(ctx context.Context, userID string, listingID int64) (bool, error) {
	if userID == "" {
		return false, nil
	}
	return s.Repo.Exists(ctx, userID, listingID)
}

// Watched lazily yields the user's watched listings, oldest entry first.
func (s *WatchlistService) Watched(ctx context.Context, userID string) iter.Seq2[domain.Listing, error] {
	return s.Repo.Listings(ctx, userID)
}
