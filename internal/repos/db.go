package repos

import (
	"context"
	"fmt"
	"time"

	"auctions/internal/auth"
	"auctions/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Options struct {
	Driver   string
	DSN      string
	MaxOpen  int
	SeedDemo bool
}

func OpenDB(ctx context.Context, opt Options) (*sqlx.DB, error) {
	if opt.Driver == "" {
		opt.Driver = DriverSQLite
	}
	if opt.Driver != DriverSQLite && opt.Driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported DB driver %q", opt.Driver)
	}
	db, err := sqlx.Open(opt.Driver, opt.DSN)
	if err != nil {
		return nil, err
	}
	// sqlite allows one writer; an in-memory database also lives on a single connection.
	if opt.Driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	} else if opt.MaxOpen > 0 {
		db.SetMaxOpenConns(opt.MaxOpen)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("schema: %w", err)
	}
	if err := seedCategories(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("seed categories: %w", err)
	}
	if opt.SeedDemo {
		if err := seedUsers(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("seed users: %w", err)
		}
	}
	return db, nil
}

const sqliteSchema = `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  email TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,               -- same value as the 'sid' cookie
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT NOT NULL,
  last_seen  TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);

CREATE TABLE IF NOT EXISTS categories(
  name TEXT PRIMARY KEY,
  position INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS listings(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  owner_id TEXT NOT NULL REFERENCES users(id),
  title TEXT NOT NULL,
  description TEXT NOT NULL,
  current_price INTEGER NOT NULL CHECK (current_price >= 0),  -- cents
  image_url TEXT NOT NULL,
  category TEXT NOT NULL REFERENCES categories(name),
  status TEXT NOT NULL DEFAULT 'ACTIVE' CHECK (status IN ('ACTIVE','CLOSED')),
  winner_id TEXT NULL REFERENCES users(id),
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_listings_status_category ON listings(status, category);

CREATE TABLE IF NOT EXISTS bids(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  listing_id INTEGER NOT NULL REFERENCES listings(id),
  bidder_id TEXT NOT NULL REFERENCES users(id),
  amount INTEGER NOT NULL CHECK (amount > 0),
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bids_listing ON bids(listing_id, amount);

CREATE TABLE IF NOT EXISTS watch_entries(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id TEXT NOT NULL REFERENCES users(id),
  listing_id INTEGER NOT NULL REFERENCES listings(id),
  created_at TEXT NOT NULL,
  UNIQUE(user_id, listing_id)
);

CREATE TABLE IF NOT EXISTS comments(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  listing_id INTEGER NOT NULL REFERENCES listings(id),
  author_id TEXT NOT NULL REFERENCES users(id),
  body TEXT NOT NULL,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_comments_listing ON comments(listing_id);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  email TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT NOT NULL,
  last_seen  TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);

CREATE TABLE IF NOT EXISTS categories(
  name TEXT PRIMARY KEY,
  position INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS listings(
  id BIGSERIAL PRIMARY KEY,
  owner_id TEXT NOT NULL REFERENCES users(id),
  title TEXT NOT NULL,
  description TEXT NOT NULL,
  current_price BIGINT NOT NULL CHECK (current_price >= 0),
  image_url TEXT NOT NULL,
  category TEXT NOT NULL REFERENCES categories(name),
  status TEXT NOT NULL DEFAULT 'ACTIVE' CHECK (status IN ('ACTIVE','CLOSED')),
  winner_id TEXT NULL REFERENCES users(id),
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_listings_status_category ON listings(status, category);

CREATE TABLE IF NOT EXISTS bids(
  id BIGSERIAL PRIMARY KEY,
  listing_id BIGINT NOT NULL REFERENCES listings(id),
  bidder_id TEXT NOT NULL REFERENCES users(id),
  amount BIGINT NOT NULL CHECK (amount > 0),
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bids_listing ON bids(listing_id, amount);

CREATE TABLE IF NOT EXISTS watch_entries(
  id BIGSERIAL PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id),
  listing_id BIGINT NOT NULL REFERENCES listings(id),
  created_at TEXT NOT NULL,
  UNIQUE(user_id, listing_id)
);

CREATE TABLE IF NOT EXISTS comments(
  id BIGSERIAL PRIMARY KEY,
  listing_id BIGINT NOT NULL REFERENCES listings(id),
  author_id TEXT NOT NULL REFERENCES users(id),
  body TEXT NOT NULL,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_comments_listing ON comments(listing_id);
`

func ensureSchema(ctx context.Context, db *sqlx.DB) error {
	schema := sqliteSchema
	if db.DriverName() == DriverPostgres {
		schema = postgresSchema
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

// seedCategories inserts the fixed category set (idempotent; safe to run every start).
func seedCategories(ctx context.Context, db *sqlx.DB) error {
	return InTx(ctx, db, func(tx *sqlx.Tx) error {
		for i, name := range domain.Categories {
			if _, err := exec(ctx, tx, `
				INSERT INTO categories(name, position) VALUES(?, ?)
				ON CONFLICT(name) DO NOTHING
			`, name, i); err != nil {
				return err
			}
		}
		return nil
	})
}

// seedUsers ensures the demo accounts exist (idempotent).
func seedUsers(ctx context.Context, db *sqlx.DB) error {
	type u struct{ Username, Email string }
	users := []u{
		{"alice", "alice@auctions.test"},
		{"bob", "bob@auctions.test"},
		{"carol", "carol@auctions.test"},
	}
	hash, err := auth.HashPassword("Passw0rd!")
	if err != nil {
		return err
	}
	return InTx(ctx, db, func(tx *sqlx.Tx) error {
		for _, x := range users {
			if _, err := exec(ctx, tx, `
				INSERT INTO users(id, username, email, password_hash, created_at)
				VALUES(?, ?, ?, ?, ?)
				ON CONFLICT(username) DO NOTHING
			`, uuid.NewString(), x.Username, x.Email, hash, now()); err != nil {
				return err
			}
		}
		return nil
	})
}
