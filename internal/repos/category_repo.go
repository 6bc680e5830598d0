package repos

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

func (r *CategoryRepo) List(ctx context.Context) ([]string, error) {
	out := []string{}
	err := readRetry(ctx, "category.list", func() error {
		out = out[:0]
		return selectAll(ctx, r.db, &out, `SELECT name FROM categories ORDER BY position`)
	})
	return out, err
}

func (r *CategoryRepo) Exists(ctx context.Context, name string) (bool, error) {
	var n int
	err := readRetry(ctx, "category.exists", func() error {
		return get(ctx, r.db, &n, `SELECT COUNT(*) FROM categories WHERE name = ?`, name)
	})
	return n > 0, err
}
