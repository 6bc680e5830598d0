package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"auctions/internal/auctionerrors"
	applog "auctions/internal/log"

	"github.com/jmoiron/sqlx"
)

// InTx runs fn inside a transaction and commits when fn returns nil.
// fn must use only tx: the sqlite pool holds a single connection.
func InTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Queries are written with '?' placeholders and rebound for the driver.

func get(ctx context.Context, q sqlx.ExtContext, dest any, query string, args ...any) error {
	return sqlx.GetContext(ctx, q, dest, q.Rebind(query), args...)
}

func selectAll(ctx context.Context, q sqlx.ExtContext, dest any, query string, args ...any) error {
	return sqlx.SelectContext(ctx, q, dest, q.Rebind(query), args...)
}

func exec(ctx context.Context, q sqlx.ExtContext, query string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, q.Rebind(query), args...)
}

// readRetry runs an idempotent read and repeats it once on a store failure.
// Missing rows and cancelled contexts are returned as is.
func readRetry(ctx context.Context, op string, fn func() error) error {
	err := fn()
	if err == nil || errors.Is(err, sql.ErrNoRows) || ctx.Err() != nil {
		return err
	}
	applog.Warn(nil, "store.read.retry", err, map[string]any{"op": op})
	return fn()
}

// notFound maps sql.ErrNoRows onto the domain error.
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, auctionerrors.ErrNotFound)
	}
	return err
}

func now() string { return time.Now().UTC().Format(time.RFC3339Nano) }
