package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

var ErrInvalidSalt = errors.New("invalid salt encoding")

// HashParams configures the Argon2id hashing parameters.
type HashParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultHashParams returns recommended Argon2id parameters for password hashing.
func DefaultHashParams() HashParams {
	return HashParams{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// SaltMode selects between generating a fresh random salt (registration)
// and re-deriving with a stored one (login verification).
type SaltMode struct {
	salt string
}

// GenerateSalt requests a fresh random salt.
func GenerateSalt() SaltMode { return SaltMode{} }

// WithSalt re-uses a previously stored salt.
func WithSalt(salt string) SaltMode { return SaltMode{salt: salt} }

// HashPassword derives an Argon2id hash of password. The hash and the
// salt are returned as separate base64 strings; the salt is stored
// alongside the hash, never derived from the password.
func HashPassword(password string, mode SaltMode) (hash, salt string, err error) {
	params := DefaultHashParams()

	var rawSalt []byte
	if mode.salt == "" {
		rawSalt = make([]byte, params.SaltLength)
		if _, err := rand.Read(rawSalt); err != nil {
			return "", "", fmt.Errorf("generating salt: %w", err)
		}
	} else {
		rawSalt, err = base64.RawStdEncoding.DecodeString(mode.salt)
		if err != nil {
			return "", "", fmt.Errorf("%w: %v", ErrInvalidSalt, err)
		}
	}

	key := argon2.IDKey([]byte(password), rawSalt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	return base64.RawStdEncoding.EncodeToString(key),
		base64.RawStdEncoding.EncodeToString(rawSalt),
		nil
}

// VerifyPassword recomputes the hash of password with the stored salt and
// compares it against expectedHash in constant time. A decoding failure is
// an infrastructure error, distinct from "password does not match".
func VerifyPassword(password, salt, expectedHash string) (bool, error) {
	candidate, _, err := HashPassword(password, WithSalt(salt))
	if err != nil {
		return false, err
	}

	return subtle.ConstantTimeCompare([]byte(candidate), []byte(expectedHash)) == 1, nil
}
