package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	"github.com/concord-chat/concord-server/internal/crypto"
	"github.com/concord-chat/concord-server/internal/model"
	"github.com/concord-chat/concord-server/internal/repository"
)

var (
	ErrWrongCredentials   = errors.New("wrong credentials")
	ErrMissingCredentials = errors.New("missing credentials")
)

// UserRepository is the slice of the repository the services need.
type UserRepository interface {
	UserIDByEmail(ctx context.Context, email string) (int64, error)
	Credentials(ctx context.Context, userID int64) (model.Credentials, error)
	RefreshToken(ctx context.Context, userID int64) (string, error)
	SetRefreshToken(ctx context.Context, userID int64, token string) error
	DeleteRefreshToken(ctx context.Context, userID int64) error
	InsertUser(ctx context.Context, user *model.User) error
}

// SessionService orchestrates login, token refresh and logout. It never
// touches storage directly, only through the repository.
type SessionService struct {
	repo       UserRepository
	codec      *crypto.Codec
	refreshTTL time.Duration
	accessTTL  time.Duration
}

func NewSessionService(repo UserRepository, codec *crypto.Codec, refreshTTL, accessTTL time.Duration) *SessionService {
	return &SessionService{
		repo:       repo,
		codec:      codec,
		refreshTTL: refreshTTL,
		accessTTL:  accessTTL,
	}
}

// Authenticate verifies email+password and issues a fresh refresh token,
// persisting it as the user's single active session. Every lookup
// failure collapses into ErrWrongCredentials so the response never
// reveals whether the email has an account.
func (s *SessionService) Authenticate(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", ErrMissingCredentials
	}

	userID, err := s.repo.UserIDByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			slog.Error("email lookup failed during authentication", "error", err)
		}
		return "", ErrWrongCredentials
	}

	creds, err := s.repo.Credentials(ctx, userID)
	if err != nil {
		return "", err
	}

	match, err := crypto.VerifyPassword(password, creds.Salt, creds.PasswordHash)
	if err != nil {
		return "", err
	}
	if !match {
		return "", ErrWrongCredentials
	}

	token, err := s.codec.IssueSession(crypto.KindRefresh, userID, s.refreshTTL)
	if err != nil {
		return "", err
	}

	// Replaces any previous token: a new login invalidates prior
	// sessions (single active refresh token per user).
	if err := s.repo.SetRefreshToken(ctx, userID, token); err != nil {
		return "", err
	}

	return token, nil
}

// Refresh exchanges a valid refresh token for a short-lived access
// token. The presented token must exactly equal the one on file: a
// cryptographically valid token superseded by a newer login is rejected
// here, not at the codec level. Access tokens are never persisted.
func (s *SessionService) Refresh(ctx context.Context, presented string) (string, error) {
	claims, err := s.codec.VerifySession(presented, crypto.KindRefresh)
	if err != nil {
		return "", err
	}

	stored, err := s.repo.RefreshToken(ctx, claims.UserID)
	if err != nil {
		// No session on file reads the same as an invalid token, so the
		// response does not leak whether the account exists.
		if errors.Is(err, repository.ErrUserNotFound) || errors.Is(err, repository.ErrNoRefreshToken) {
			return "", crypto.ErrInvalidToken
		}
		return "", err
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) != 1 {
		return "", crypto.ErrInvalidToken
	}

	return s.codec.IssueSession(crypto.KindAccess, claims.UserID, s.accessTTL)
}

// Logout revokes the user's session by clearing the stored refresh
// token on both tiers. Outstanding access tokens stay valid until their
// natural expiry.
func (s *SessionService) Logout(ctx context.Context, userID int64) error {
	return s.repo.DeleteRefreshToken(ctx, userID)
}
