package repos

import (
	"context"
	"fmt"

	"auctions/internal/domain"

	"github.com/jmoiron/sqlx"
)

type CommentRepo struct{ db *sqlx.DB }

func NewCommentRepo(db *sqlx.DB) *CommentRepo { return &CommentRepo{db: db} }

const commentSelect = `
  SELECT c.id, c.listing_id, c.author_id, u.username AS author_name, c.body, c.created_at
  FROM comments c
  JOIN users u ON u.id = c.author_id`

func (r *CommentRepo) Add(ctx context.Context, listingID int64, authorID, text string) (domain.Comment, error) {
	var c domain.Comment
	err := InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var id int64
		if err := get(ctx, tx, &id, `
		  INSERT INTO comments(listing_id, author_id, body, created_at)
		  VALUES(?, ?, ?, ?)
		  RETURNING id
		`, listingID, authorID, text, now()); err != nil {
			return err
		}
		return get(ctx, tx, &c, commentSelect+` WHERE c.id = ?`, id)
	})
	if err != nil {
		return domain.Comment{}, fmt.Errorf("add comment: %w", err)
	}
	return c, nil
}

// ListByListing returns comments oldest first.
func (r *CommentRepo) ListByListing(ctx context.Context, listingID int64) ([]domain.Comment, error) {
	out := []domain.Comment{}
	err := readRetry(ctx, "comment.list", func() error {
		out = out[:0]
		return selectAll(ctx, r.db, &out, commentSelect+` WHERE c.listing_id = ? ORDER BY c.id ASC`, listingID)
	})
	return out, err
}
