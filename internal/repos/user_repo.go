package repos

import (
	"context"
	"fmt"

	"auctions/internal/auctionerrors"
	"auctions/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type UserRepo struct{ db *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

const userSelect = `SELECT id, username, email, password_hash, created_at FROM users`

// Create inserts the user unless the username is already taken.
func (r *UserRepo) Create(ctx context.Context, username, email, hash string) (domain.User, error) {
	u := domain.User{ID: uuid.NewString(), Username: username, Email: email, Hash: hash, CreatedAt: now()}
	res, err := exec(ctx, r.db, `
	  INSERT INTO users(id, username, email, password_hash, created_at)
	  VALUES(?, ?, ?, ?, ?)
	  ON CONFLICT(username) DO NOTHING
	`, u.ID, u.Username, u.Email, u.Hash, u.CreatedAt)
	if err != nil {
		return domain.User{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.User{}, auctionerrors.ErrUsernameTaken
	}
	return u, nil
}

func (r *UserRepo) ByUsername(ctx context.Context, username string) (domain.User, error) {
	var u domain.User
	err := readRetry(ctx, "user.by_username", func() error {
		return get(ctx, r.db, &u, userSelect+` WHERE username = ?`, username)
	})
	if err != nil {
		return domain.User{}, notFound(err, fmt.Sprintf("user %q", username))
	}
	return u, nil
}

func (r *UserRepo) ByID(ctx context.Context, id string) (domain.User, error) {
	var u domain.User
	err := readRetry(ctx, "user.by_id", func() error {
		return get(ctx, r.db, &u, userSelect+` WHERE id = ?`, id)
	})
	if err != nil {
		return domain.User{}, notFound(err, "user "+id)
	}
	return u, nil
}

func (r *UserRepo) BindSession(ctx context.Context, sid, userID string) error {
	ts := now()
	_, err := exec(ctx, r.db, `
	  INSERT INTO sessions(id, user_id, created_at, last_seen)
	  VALUES(?, ?, ?, ?)
	  ON CONFLICT(id) DO UPDATE SET user_id = excluded.user_id, last_seen = excluded.last_seen
	`, sid, userID, ts, ts)
	return err
}

func (r *UserRepo) SessionUser(ctx context.Context, sid string) (domain.User, error) {
	var u domain.User
	err := readRetry(ctx, "user.by_session", func() error {
		return get(ctx, r.db, &u, `
		  SELECT u.id, u.username, u.email, u.password_hash, u.created_at
		  FROM sessions s
		  JOIN users u ON u.id = s.user_id
		  WHERE s.id = ?
		`, sid)
	})
	if err != nil {
		return domain.User{}, notFound(err, "session")
	}
	return u, nil
}

func (r *UserRepo) UnbindSession(ctx context.Context, sid string) error {
	_, err := exec(ctx, r.db, `UPDATE sessions SET user_id = NULL, last_seen = ? WHERE id = ?`, now(), sid)
	return err
}
