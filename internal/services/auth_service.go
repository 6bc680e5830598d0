package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"auctions/internal/auctionerrors"
	"auctions/internal/auth"
	"auctions/internal/domain"
	"auctions/internal/repos"
	"auctions/internal/validate"
)

type AuthService struct {
	Users  *repos.UserRepo
	Tokens *auth.Tokens
}

func NewAuthService(users *repos.UserRepo, tokens *auth.Tokens) *AuthService {
	return &AuthService{Users: users, Tokens: tokens}
}

type Registration struct {
	Username     string
	Email        string
	Password     string
	Confirmation string
}

func (s *AuthService) Register(ctx context.Context, in Registration) (domain.User, error) {
	username, ok := validate.Username(in.Username)
	if !ok {
		return domain.User{}, auctionerrors.Invalid("username", "must be 3-30 letters, digits, '_', '.' or '-'")
	}
	email, ok := validate.Email(in.Email)
	if !ok {
		return domain.User{}, auctionerrors.Invalid("email", "is not a valid address")
	}
	if !validate.Password(in.Password) {
		return domain.User{}, auctionerrors.Invalid("password", "must be 8-64 characters")
	}
	if in.Password != in.Confirmation {
		return domain.User{}, auctionerrors.Invalid("confirmation", "must match password")
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	return s.Users.Create(ctx, username, strings.ToLower(email), hash)
}

// Login checks the credentials, binds sid to the user and issues a bearer token.
func (s *AuthService) Login(ctx context.Context, sid, username, password string) (domain.User, string, error) {
	u, err := s.Users.ByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, auctionerrors.ErrNotFound) {
		return domain.User{}, "", auctionerrors.ErrBadCredentials
	}
	if err != nil {
		return domain.User{}, "", err
	}
	if !auth.CheckPasswordHash(password, u.Hash) {
		return domain.User{}, "", auctionerrors.ErrBadCredentials
	}
	if sid != "" {
		if err := s.Users.BindSession(ctx, sid, u.ID); err != nil {
			return domain.User{}, "", err
		}
	}
	token, err := s.Tokens.Issue(u.ID, u.Username)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue token: %w", err)
	}
	return u, token, nil
}

func (s *AuthService) Logout(ctx context.Context, sid string) error {
	if sid == "" {
		return nil
	}
	return s.Users.UnbindSession(ctx, sid)
}

// CurrentUser resolves the user bound to a session cookie.
func (s *AuthService) CurrentUser(ctx context.Context, sid string) (domain.User, error) {
	if sid == "" {
		return domain.User{}, auctionerrors.ErrUnauthenticated
	}
	u, err := s.Users.SessionUser(ctx, sid)
	if errors.Is(err, auctionerrors.ErrNotFound) {
		return domain.User{}, auctionerrors.ErrUnauthenticated
	}
	return u, err
}

// UserFromToken resolves the user named by a bearer token.
func (s *AuthService) UserFromToken(ctx context.Context, token string) (domain.User, error) {
	claims, err := s.Tokens.Parse(token)
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", auctionerrors.ErrUnauthenticated, err)
	}
	u, err := s.Users.ByID(ctx, claims.Subject)
	if errors.Is(err, auctionerrors.ErrNotFound) {
		return domain.User{}, auctionerrors.ErrUnauthenticated
	}
	return u, err
}
