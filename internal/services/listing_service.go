package services

import (
	"context"

	"auctions/internal/auctionerrors"
	"auctions/internal/domain"
	"auctions/internal/events"
	"auctions/internal/repos"
	"auctions/internal/validate"
)

type ListingService struct {
	Listings *repos.ListingRepo
	Cats     *repos.CategoryRepo
	Events   events.Publisher
}

func NewListingService(listings *repos.ListingRepo, cats *repos.CategoryRepo, pub events.Publisher) *ListingService {
	return &ListingService{Listings: listings, Cats: cats, Events: pub}
}

func (s *ListingService) Create(ctx context.Context, in domain.NewListing) (domain.Listing, error) {
	if in.OwnerID == "" {
		return domain.Listing{}, auctionerrors.ErrUnauthenticated
	}
	var ok bool
	if in.Title, ok = validate.Title(in.Title); !ok {
		return domain.Listing{}, auctionerrors.Invalid("title", "is required (max 64 characters)")
	}
	if in.Description, ok = validate.Description(in.Description); !ok {
		return domain.Listing{}, auctionerrors.Invalid("description", "is required")
	}
	if in.ImageURL, ok = validate.ImageURL(in.ImageURL); !ok {
		return domain.Listing{}, auctionerrors.Invalid("image_url", "must be an http(s) URL")
	}
	if in.StartingPrice.IsNegative() {
		return domain.Listing{}, auctionerrors.Invalid("starting_price", "must not be negative")
	}
	if err := s.checkCategory(ctx, in.Category); err != nil {
		return domain.Listing{}, err
	}

	l, err := s.Listings.Create(ctx, in)
	if err != nil {
		return domain.Listing{}, err
	}
	publish(ctx, s.Events, events.New(events.TypeListingCreated, l.ID, l.OwnerID, l.CurrentPrice.String()))
	return l, nil
}

func (s *ListingService) checkCategory(ctx context.Context, name string) error {
	if !domain.IsCategory(name) {
		return auctionerrors.ErrUnknownCategory
	}
	ok, err := s.Cats.Exists(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return auctionerrors.ErrUnknownCategory
	}
	return nil
}

func (s *ListingService) Get(ctx context.Context, id int64) (domain.Listing, error) {
	return s.Listings.Get(ctx, id)
}

// Close is owner-only. The winner is fixed in the same transaction as the
// status change.
func (s *ListingService) Close(ctx context.Context, id int64, requesterID string) (domain.Listing, error) {
	if requesterID == "" {
		return domain.Listing{}, auctionerrors.ErrUnauthenticated
	}
	l, changed, err := s.Listings.Close(ctx, id, requesterID)
	if err != nil {
		return domain.Listing{}, err
	}
	if changed {
		winner := ""
		if l.WinnerID != nil {
			winner = *l.WinnerID
		}
		publish(ctx, s.Events, events.New(events.TypeListingClosed, l.ID, winner, l.CurrentPrice.String()))
	}
	return l, nil
}

// ListActive returns open listings, optionally restricted to one category.
func (s *ListingService) ListActive(ctx context.Context, category string) ([]domain.Listing, error) {
	if category != "" && !domain.IsCategory(category) {
		return nil, auctionerrors.ErrUnknownCategory
	}
	return s.Listings.ListActive(ctx, category)
}

func (s *ListingService) Categories(ctx context.Context) ([]string, error) {
	return s.Cats.List(ctx)
}
