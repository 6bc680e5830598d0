package services

import (
	"context"

	"auctions/internal/auctionerrors"
	"auctions/internal/domain"
	"auctions/internal/repos"
)

type CommentService struct {
	Repo     *repos.CommentRepo
	Listings *repos.ListingRepo
}

func NewCommentService(r *repos.CommentRepo, listings *repos.ListingRepo) *CommentService {
	return &CommentService{Repo: r, Listings: listings}
}

// Add appends a comment. Empty text is allowed.
func (s *CommentService) Add(ctx context.Context, listingID int64, authorID, text string) (domain.Comment, error) {
	if authorID == "" {
		return domain.Comment{}, auctionerrors.ErrUnauthenticated
	}
	if _, err := s.Listings.Get(ctx, listingID); err != nil {
		return domain.Comment{}, err
	}
	return s.Repo.Add(ctx, listingID, authorID, text)
}

func (s *CommentService) List(ctx context.Context, listingID int64) ([]domain.Comment, error) {
	if _, err := s.Listings.Get(ctx, listingID); err != nil {
		return nil, err
	}
	return s.Repo.ListByListing(ctx, listingID)
}
