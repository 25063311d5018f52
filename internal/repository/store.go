package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/concord-chat/concord-server/internal/model"
)

// SQLStore is the durable tier of the user repository, backed by MySQL.
// It owns the users table and is the single source of truth for
// uniqueness of id and email.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// InsertUser inserts a new user row and sets the generated ID on the
// user struct. A uniqueness conflict on email returns ErrUserExists.
func (s *SQLStore) InsertUser(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (username, email, password_hash, salt, verified, banned, date_of_birth)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`

	result, err := s.db.ExecContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.Salt,
		user.Verified, user.Banned, user.DateOfBirth,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrUserExists
		}
		return fmt.Errorf("%w: %v", ErrStore, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}

	user.ID = id
	return nil
}

// UserIDByEmail resolves an email to a user id. Emails are compared
// case-sensitively (the column uses a binary collation).
func (s *SQLStore) UserIDByEmail(ctx context.Context, email string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM users WHERE email = ?`, email).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return id, nil
}

// CredentialsByID fetches the password hash and salt of a known user.
// A missing row is ErrUserNotFound, never an empty result.
func (s *SQLStore) CredentialsByID(ctx context.Context, userID int64) (model.Credentials, error) {
	var creds model.Credentials
	err := s.db.QueryRowContext(ctx,
		`SELECT password_hash, salt FROM users WHERE id = ?`, userID,
	).Scan(&creds.PasswordHash, &creds.Salt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Credentials{}, ErrUserNotFound
		}
		return model.Credentials{}, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return creds, nil
}

// RefreshTokenByID returns the user's current refresh token.
// ErrNoRefreshToken means the user exists but has no active session.
func (s *SQLStore) RefreshTokenByID(ctx context.Context, userID int64) (string, error) {
	var token sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT valid_refresh_token FROM users WHERE id = ?`, userID,
	).Scan(&token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrStore, err)
	}
	if !token.Valid {
		return "", ErrNoRefreshToken
	}
	return token.String, nil
}

// SetRefreshToken replaces the user's refresh token, implicitly
// invalidating any prior session.
func (s *SQLStore) SetRefreshToken(ctx context.Context, userID int64, token string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET valid_refresh_token = ? WHERE id = ?`, token, userID,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	if affected == 0 {
		// MySQL reports zero affected rows both when no row matched and
		// when the stored value already equals the new one. Only the
		// former is an error.
		if _, err := s.UserIDByID(ctx, userID); err != nil {
			return err
		}
	}
	return nil
}

// DeleteRefreshToken clears the user's refresh token. Clearing an
// already-cleared token is not an error.
func (s *SQLStore) DeleteRefreshToken(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE users SET valid_refresh_token = NULL WHERE id = ?`, userID,
	); err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	return nil
}

// DeleteUser removes the user row.
func (s *SQLStore) DeleteUser(ctx context.Context, userID int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UserIDByID checks row existence; used to disambiguate no-op updates.
func (s *SQLStore) UserIDByID(ctx context.Context, userID int64) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM users WHERE id = ?`, userID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return id, nil
}

// CountByEmail counts user rows with the given email. Uniqueness makes
// any value above one a consistency violation.
func (s *SQLStore) CountByEmail(ctx context.Context, email string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return n, nil
}

// isDuplicateEntryError checks if a MySQL error is a duplicate entry error (code 1062).
func isDuplicateEntryError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "Duplicate entry")
}
