package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"auctions/internal/auctionerrors"
	"auctions/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ListingRepo struct{ db *sqlx.DB }

func NewListingRepo(db *sqlx.DB) *ListingRepo { return &ListingRepo{db: db} }

const listingSelect = `
  SELECT l.id, l.owner_id, o.username AS owner_name, l.title, l.description,
         l.current_price, l.image_url, l.category, l.status,
         l.winner_id, w.username AS winner_name, l.created_at
  FROM listings l
  JOIN users o ON o.id = l.owner_id
  LEFT JOIN users w ON w.id = l.winner_id`

func (r *ListingRepo) Create(ctx context.Context, in domain.NewListing) (domain.Listing, error) {
	var id int64
	err := InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return get(ctx, tx, &id, `
		  INSERT INTO listings(owner_id, title, description, current_price, image_url, category, status, created_at)
		  VALUES(?, ?, ?, ?, ?, ?, 'ACTIVE', ?)
		  RETURNING id
		`, in.OwnerID, in.Title, in.Description, in.StartingPrice, in.ImageURL, in.Category, now())
	})
	if err != nil {
		return domain.Listing{}, err
	}
	return r.Get(ctx, id)
}

func (r *ListingRepo) Get(ctx context.Context, id int64) (domain.Listing, error) {
	var l domain.Listing
	err := readRetry(ctx, "listing.get", func() error {
		return get(ctx, r.db, &l, listingSelect+` WHERE l.id = ?`, id)
	})
	if err != nil {
		return domain.Listing{}, notFound(err, fmt.Sprintf("listing %d", id))
	}
	return l, nil
}

// ListActive returns ACTIVE listings, oldest first. An empty category means all.
func (r *ListingRepo) ListActive(ctx context.Context, category string) ([]domain.Listing, error) {
	out := []domain.Listing{}
	q := listingSelect + ` WHERE l.status = 'ACTIVE'`
	args := []any{}
	if category != "" {
		q += ` AND l.category = ?`
		args = append(args, category)
	}
	q += ` ORDER BY l.id ASC`
	err := readRetry(ctx, "listing.list_active", func() error {
		out = out[:0]
		return selectAll(ctx, r.db, &out, q, args...)
	})
	return out, err
}

// Close marks the listing CLOSED and records the highest bidder as winner in
// one transaction. Equal maximum amounts go to the earliest bid. Closing an
// already closed listing returns it unchanged.
func (r *ListingRepo) Close(ctx context.Context, id int64, requesterID string) (domain.Listing, bool, error) {
	changed := false
	err := InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var l domain.Listing
		if err := get(ctx, tx, &l, listingSelect+` WHERE l.id = ?`, id); err != nil {
			return notFound(err, fmt.Sprintf("listing %d", id))
		}
		if !domain.IsOwner(l, requesterID) {
			return fmt.Errorf("close listing %d: %w", id, auctionerrors.ErrForbidden)
		}
		if l.IsClosed() {
			return nil
		}

		res, err := exec(ctx, tx, `UPDATE listings SET status = 'CLOSED' WHERE id = ? AND status = 'ACTIVE'`, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			// closed concurrently
			return nil
		}
		changed = true

		var winner string
		err = get(ctx, tx, &winner, `
		  SELECT bidder_id FROM bids
		  WHERE listing_id = ?
		  ORDER BY amount DESC, id ASC
		  LIMIT 1
		`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		_, err = exec(ctx, tx, `UPDATE listings SET winner_id = ? WHERE id = ?`, winner, id)
		return err
	})
	if err != nil {
		return domain.Listing{}, false, err
	}
	l, err := r.Get(ctx, id)
	return l, changed, err
}
