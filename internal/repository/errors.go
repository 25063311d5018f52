package repository

import "errors"

var (
	// ErrUserNotFound reports that no user row exists for the given id or
	// email. Operations that semantically require the user to exist return
	// it in place of an empty result.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists reports a uniqueness conflict on insert. The durable
	// store is the single source of truth for uniqueness.
	ErrUserExists = errors.New("user already exists")

	// ErrNoRefreshToken reports that the user exists but has no active
	// session on file.
	ErrNoRefreshToken = errors.New("no refresh token on file")

	// ErrCacheMiss is returned by the cache tier when a key is absent. The
	// repository falls through to the durable store; callers of the
	// repository never see it.
	ErrCacheMiss = errors.New("cache miss")

	// ErrStore and ErrCache wrap infrastructure failures of the respective
	// tier.
	ErrStore = errors.New("store error")
	ErrCache = errors.New("cache error")

	// ErrConcurrency reports that a parallel write failed and the
	// compensating rollback of the other tier failed too, leaving the
	// tiers potentially divergent.
	ErrConcurrency = errors.New("concurrent write rollback failed")
)
