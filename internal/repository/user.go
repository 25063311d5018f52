package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/concord-chat/concord-server/internal/model"
)

// Store is the durable tier contract, satisfied by SQLStore.
type Store interface {
	InsertUser(ctx context.Context, user *model.User) error
	UserIDByEmail(ctx context.Context, email string) (int64, error)
	CredentialsByID(ctx context.Context, userID int64) (model.Credentials, error)
	RefreshTokenByID(ctx context.Context, userID int64) (string, error)
	SetRefreshToken(ctx context.Context, userID int64, token string) error
	DeleteRefreshToken(ctx context.Context, userID int64) error
	DeleteUser(ctx context.Context, userID int64) error
}

// Cache is the fast tier contract, satisfied by RedisCache. Absent keys
// are reported as ErrCacheMiss.
type Cache interface {
	RefreshToken(ctx context.Context, userID int64) (string, error)
	SetRefreshToken(ctx context.Context, userID int64, token string) error
	DeleteRefreshToken(ctx context.Context, userID int64) error
	Credentials(ctx context.Context, userID int64) (model.Credentials, error)
	SetCredentials(ctx context.Context, userID int64, creds model.Credentials) error
	DeleteCredentials(ctx context.Context, userID int64) error
	UserIDByEmail(ctx context.Context, email string) (int64, error)
	SetUserIDByEmail(ctx context.Context, email string, userID int64) error
	DeleteEmail(ctx context.Context, email string) error
}

// UserRepository is the two-tier user record store. Reads are
// cache-aside: cache first, durable store on miss, repopulate the cache
// from the store value. Token writes are write-through: both tiers are
// written concurrently, and a one-sided failure triggers a single
// compensating delete on the side that succeeded.
//
// The repository exclusively owns persistence of user records and the
// derived lookup entries; callers never touch either tier directly.
type UserRepository struct {
	store Store
	cache Cache
}

func NewUserRepository(store Store, cache Cache) *UserRepository {
	return &UserRepository{store: store, cache: cache}
}

// RefreshToken returns the user's current refresh token, cache-aside.
// A cache-populate failure after a successful store read fails the
// overall read; callers treat the repository as a single consistent
// unit.
func (r *UserRepository) RefreshToken(ctx context.Context, userID int64) (string, error) {
	token, err := r.cache.RefreshToken(ctx, userID)
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		return "", err
	}

	token, err = r.store.RefreshTokenByID(ctx, userID)
	if err != nil {
		return "", err
	}

	if err := r.cache.SetRefreshToken(ctx, userID, token); err != nil {
		return "", err
	}
	return token, nil
}

// SetRefreshToken writes the token through to both tiers concurrently.
// Ordering between the two writes is unspecified. Two racing calls for
// the same user can briefly leave the tiers holding different tokens;
// the refresh check treats stored != presented as invalid, so the race
// fails toward denial.
func (r *UserRepository) SetRefreshToken(ctx context.Context, userID int64, token string) error {
	var (
		wg       sync.WaitGroup
		storeErr error
		cacheErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		storeErr = r.store.SetRefreshToken(ctx, userID, token)
	}()
	go func() {
		defer wg.Done()
		cacheErr = r.cache.SetRefreshToken(ctx, userID, token)
	}()
	wg.Wait()

	switch {
	case storeErr != nil && cacheErr != nil:
		// Both sides failed; neither holds the new token, nothing to roll
		// back. The store error is authoritative.
		slog.Error("refresh token write failed on both tiers",
			"user_id", userID, "store_error", storeErr, "cache_error", cacheErr)
		return storeErr
	case storeErr != nil:
		return r.rollback(ctx, storeErr, func(rctx context.Context) error {
			return r.cache.DeleteRefreshToken(rctx, userID)
		})
	case cacheErr != nil:
		return r.rollback(ctx, cacheErr, func(rctx context.Context) error {
			return r.store.DeleteRefreshToken(rctx, userID)
		})
	}
	return nil
}

// rollback runs the compensating delete for a failed dual write and
// surfaces the original error. It runs detached from the request's
// cancellation: once started, a rollback completes even if the client
// disconnects, to avoid abandoning the tiers in a divergent state.
func (r *UserRepository) rollback(ctx context.Context, writeErr error, undo func(context.Context) error) error {
	if err := undo(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("%w: write failed (%v), rollback failed: %v", ErrConcurrency, writeErr, err)
	}
	return writeErr
}

// DeleteRefreshToken clears the token on both tiers concurrently. There
// is no compensating action: the target state is absence on both sides,
// so a partial delete needs no undo.
func (r *UserRepository) DeleteRefreshToken(ctx context.Context, userID int64) error {
	var (
		wg       sync.WaitGroup
		storeErr error
		cacheErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		storeErr = r.store.DeleteRefreshToken(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		cacheErr = r.cache.DeleteRefreshToken(ctx, userID)
	}()
	wg.Wait()

	if storeErr != nil {
		return storeErr
	}
	return cacheErr
}

// Credentials returns the user's password hash and salt, cache-aside.
func (r *UserRepository) Credentials(ctx context.Context, userID int64) (model.Credentials, error) {
	creds, err := r.cache.Credentials(ctx, userID)
	if err == nil {
		return creds, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		return model.Credentials{}, err
	}

	creds, err = r.store.CredentialsByID(ctx, userID)
	if err != nil {
		return model.Credentials{}, err
	}

	if err := r.cache.SetCredentials(ctx, userID, creds); err != nil {
		return model.Credentials{}, err
	}
	return creds, nil
}

// UserIDByEmail resolves an email to a user id, cache-aside. Callers
// doing admissibility checks ("is this email taken") test for
// ErrUserNotFound rather than receiving an empty result.
func (r *UserRepository) UserIDByEmail(ctx context.Context, email string) (int64, error) {
	id, err := r.cache.UserIDByEmail(ctx, email)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		return 0, err
	}

	id, err = r.store.UserIDByEmail(ctx, email)
	if err != nil {
		return 0, err
	}

	if err := r.cache.SetUserIDByEmail(ctx, email, id); err != nil {
		return 0, err
	}
	return id, nil
}

// InsertUser commits a new user record. The durable insert is the
// uniqueness authority; the derived email lookup entry is cached
// afterwards.
func (r *UserRepository) InsertUser(ctx context.Context, user *model.User) error {
	if err := r.store.InsertUser(ctx, user); err != nil {
		return err
	}
	return r.cache.SetUserIDByEmail(ctx, user.Email, user.ID)
}

// DeleteUser removes the user row and every derived cache entry.
func (r *UserRepository) DeleteUser(ctx context.Context, user *model.User) error {
	if err := r.store.DeleteUser(ctx, user.ID); err != nil {
		return err
	}
	if err := r.cache.DeleteRefreshToken(ctx, user.ID); err != nil {
		return err
	}
	if err := r.cache.DeleteCredentials(ctx, user.ID); err != nil {
		return err
	}
	return r.cache.DeleteEmail(ctx, user.Email)
}
