package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/concord-chat/concord-server/internal/crypto"
	"github.com/concord-chat/concord-server/internal/email"
	"github.com/concord-chat/concord-server/internal/model"
	"github.com/concord-chat/concord-server/internal/password"
	"github.com/concord-chat/concord-server/internal/repository"
)

var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidDateOfBirth = errors.New("date of birth must be in the format YYYY-MM-DD")
	ErrAlreadyRegistered  = errors.New("user already registered")
)

// RegistrationService implements the two-phase registration flow. Phase
// one validates the form, hashes the password and mails a self-contained
// signed token; no server-side pending state exists. Phase two decodes
// the token and commits the account exactly once.
type RegistrationService struct {
	repo         UserRepository
	codec        *crypto.Codec
	mailer       email.Mailer
	requirements password.Requirements
	tokenTTL     time.Duration
}

func NewRegistrationService(
	repo UserRepository,
	codec *crypto.Codec,
	mailer email.Mailer,
	requirements password.Requirements,
	tokenTTL time.Duration,
) *RegistrationService {
	return &RegistrationService{
		repo:         repo,
		codec:        codec,
		mailer:       mailer,
		requirements: requirements,
		tokenTTL:     tokenTTL,
	}
}

// Register validates the form, hashes the password immediately (the
// plaintext does not outlive this call) and emails a verification link
// carrying the signed registration token. No account is created yet.
func (s *RegistrationService) Register(ctx context.Context, form model.RegistrationForm) error {
	if _, err := mail.ParseAddress(form.Email); err != nil {
		return ErrInvalidEmail
	}
	if _, err := time.Parse("2006-01-02", form.DateOfBirth); err != nil {
		return ErrInvalidDateOfBirth
	}
	if err := s.requirements.Validate(form.Password); err != nil {
		return err
	}

	hash, salt, err := crypto.HashPassword(form.Password, crypto.GenerateSalt())
	if err != nil {
		return err
	}

	token, err := s.codec.IssueRegistration(form.Email, hash, salt, form.DateOfBirth, s.tokenTTL)
	if err != nil {
		return err
	}

	return s.mailer.SendVerification(ctx, form.Email, token)
}

// ConfirmEmail decodes a registration token and commits the account.
// Replaying the same link yields ErrAlreadyRegistered, never a second
// account: the admissibility check catches the common case and the
// store's uniqueness-enforcing insert catches the race.
func (s *RegistrationService) ConfirmEmail(ctx context.Context, token string) (int64, error) {
	claims, err := s.codec.VerifyRegistration(token)
	if err != nil {
		return 0, err
	}

	if _, err := s.repo.UserIDByEmail(ctx, claims.Email); err == nil {
		return 0, ErrAlreadyRegistered
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return 0, err
	}

	user := &model.User{
		Username:     usernameFromEmail(claims.Email),
		Email:        claims.Email,
		PasswordHash: claims.PasswordHash,
		Salt:         claims.Salt,
		DateOfBirth:  claims.DateOfBirth,
		// Email ownership is proven by presenting the token, so the
		// account is born verified.
		Verified: true,
	}

	if err := s.repo.InsertUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return 0, ErrAlreadyRegistered
		}
		return 0, err
	}

	return user.ID, nil
}

func usernameFromEmail(address string) string {
	local, _, _ := strings.Cut(address, "@")
	return local
}
