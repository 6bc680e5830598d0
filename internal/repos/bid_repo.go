package repos

import (
	"context"
	"fmt"

	"auctions/internal/auctionerrors"
	"auctions/internal/domain"
	"auctions/internal/money"

	"github.com/jmoiron/sqlx"
)

type BidRepo struct{ db *sqlx.DB }

func NewBidRepo(db *sqlx.DB) *BidRepo { return &BidRepo{db: db} }

// Place appends a bid and raises the listing price in one transaction.
// The price update is conditional on the stored price, so a concurrent
// higher bid that committed first makes this one fail with ErrBidTooLow
// instead of overwriting it.
func (r *BidRepo) Place(ctx context.Context, listingID int64, bidderID string, amount money.Amount) (domain.Bid, error) {
	var bidID int64
	err := InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var cur struct {
			Status domain.ListingStatus `db:"status"`
			Price  money.Amount         `db:"current_price"`
		}
		if err := get(ctx, tx, &cur, `SELECT status, current_price FROM listings WHERE id = ?`, listingID); err != nil {
			return notFound(err, fmt.Sprintf("listing %d", listingID))
		}
		if cur.Status == domain.StatusClosed {
			return auctionerrors.ErrListingClosed
		}
		if !amount.GreaterThan(cur.Price) {
			return auctionerrors.ErrBidTooLow
		}

		res, err := exec(ctx, tx, `
		  UPDATE listings SET current_price = ?
		  WHERE id = ? AND status = 'ACTIVE' AND current_price < ?
		`, amount, listingID, amount)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			var status domain.ListingStatus
			if err := get(ctx, tx, &status, `SELECT status FROM listings WHERE id = ?`, listingID); err != nil {
				return err
			}
			if status == domain.StatusClosed {
				return auctionerrors.ErrListingClosed
			}
			return auctionerrors.ErrBidTooLow
		}

		return get(ctx, tx, &bidID, `
		  INSERT INTO bids(listing_id, bidder_id, amount, created_at)
		  VALUES(?, ?, ?, ?)
		  RETURNING id
		`, listingID, bidderID, amount, now())
	})
	if err != nil {
		return domain.Bid{}, err
	}
	return r.Get(ctx, bidID)
}

func (r *BidRepo) Get(ctx context.Context, id int64) (domain.Bid, error) {
	var b domain.Bid
	err := readRetry(ctx, "bid.get", func() error {
		return get(ctx, r.db, &b, `
		  SELECT b.id, b.listing_id, b.bidder_id, u.username AS bidder_name, b.amount, b.created_at
		  FROM bids b
		  JOIN users u ON u.id = b.bidder_id
		  WHERE b.id = ?
		`, id)
	})
	if err != nil {
		return domain.Bid{}, notFound(err, fmt.Sprintf("bid %d", id))
	}
	return b, nil
}

// ListByListing returns the bid log oldest first.
func (r *BidRepo) ListByListing(ctx context.Context, listingID int64) ([]domain.Bid, error) {
	out := []domain.Bid{}
	err := readRetry(ctx, "bid.list", func() error {
		out = out[:0]
		return selectAll(ctx, r.db, &out, `
		  SELECT b.id, b.listing_id, b.bidder_id, u.username AS bidder_name, b.amount, b.created_at
		  FROM bids b
		  JOIN users u ON u.id = b.bidder_id
		  WHERE b.listing_id = ?
		  ORDER BY b.id ASC
		`, listingID)
	})
	return out, err
}
