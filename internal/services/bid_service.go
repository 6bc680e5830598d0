package services

import (
	"context"

	"auctions/internal/auctionerrors"
	"auctions/internal/domain"
	"auctions/internal/events"
	"auctions/internal/money"
	"auctions/internal/repos"
)

type BidService struct {
	Bids     *repos.BidRepo
	Listings *repos.ListingRepo
	Events   events.Publisher
}

func NewBidService(bids *repos.BidRepo, listings *repos.ListingRepo, pub events.Publisher) *BidService {
	return &BidService{Bids: bids, Listings: listings, Events: pub}
}

// Place records a bid that must strictly exceed the current price. A missing
// amount arrives as zero and is rejected the same way.
func (s *BidService) Place(ctx context.Context, listingID int64, bidderID string, amount money.Amount) (domain.Bid, error) {
	if bidderID == "" {
		return domain.Bid{}, auctionerrors.ErrUnauthenticated
	}
	if !amount.GreaterThan(money.Zero) {
		// still report NotFound for an unknown listing
		if _, err := s.Listings.Get(ctx, listingID); err != nil {
			return domain.Bid{}, err
		}
		return domain.Bid{}, auctionerrors.ErrBidTooLow
	}
	b, err := s.Bids.Place(ctx, listingID, bidderID, amount)
	if err != nil {
		return domain.Bid{}, err
	}
	publish(ctx, s.Events, events.New(events.TypeBidPlaced, listingID, bidderID, b.Amount.String()))
	return b, nil
}

// List returns the listing's bids oldest first.
func (s *BidService) List(ctx context.Context, listingID int64) ([]domain.Bid, error) {
	if _, err := s.Listings.Get(ctx, listingID); err != nil {
		return nil, err
	}
	return s.Bids.ListByListing(ctx, listingID)
}
