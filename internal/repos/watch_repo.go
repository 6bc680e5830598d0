package repos

import (
	"context"
	"iter"

	"auctions/internal/domain"

	"github.com/jmoiron/sqlx"
)

type WatchRepo struct{ db *sqlx.DB }

func NewWatchRepo(db *sqlx.DB) *WatchRepo { return &WatchRepo{db: db} }

// Add is idempotent: a second call for the same pair returns the first entry.
func (r *WatchRepo) Add(ctx context.Context, userID string, listingID int64) (domain.WatchEntry, error) {
	var e domain.WatchEntry
	err := InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := exec(ctx, tx, `
		  INSERT INTO watch_entries(user_id, listing_id, created_at)
		  VALUES(?, ?, ?)
		  ON CONFLICT(user_id, listing_id) DO NOTHING
		`, userID, listingID, now()); err != nil {
			return err
		}
		return get(ctx, tx, &e, `
		  SELECT id, user_id, listing_id, created_at FROM watch_entries
		  WHERE user_id = ? AND listing_id = ?
		`, userID, listingID)
	})
	return e, err
}

// Remove deletes the entry for the pair. Missing entries are not an error.
func (r *WatchRepo) Remove(ctx context.Context, userID string, listingID int64) (bool, error) {
	res, err := exec(ctx, r.db, `DELETE FROM watch_entries WHERE user_id = ? AND listing_id = ?`, userID, listingID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *WatchRepo) Exists(ctx context.Context, userID string, listingID int64) (bool, error) {
	var n int
	err := readRetry(ctx, "watch.exists", func() error {
		return get(ctx, r.db, &n, `SELECT COUNT(*) FROM watch_entries WHERE user_id = ? AND listing_id = ?`, userID, listingID)
	})
	return n > 0, err
}

// Listings streams the user's watched listings in the order they were added.
// Rows stay open until iteration ends, so the caller must not issue other
// queries from inside the loop.
func (r *WatchRepo) Listings(ctx context.Context, userID string) iter.Seq2[domain.Listing, error] {
	q := r.db.Rebind(listingSelect + `
	  JOIN watch_entries we ON we.listing_id = l.id
	  WHERE we.user_id = ?
	  ORDER BY we.id ASC`)
	return func(yield func(domain.Listing, error) bool) {
		rows, err := r.db.QueryxContext(ctx, q, userID)
		if err != nil {
			yield(domain.Listing{}, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			var l domain.Listing
			if err := rows.StructScan(&l); err != nil {
				yield(domain.Listing{}, err)
				return
			}
			if !yield(l, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(domain.Listing{}, err)
		}
	}
}
