package crypto

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoToken       = errors.New("no token")
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("expired token")
	ErrTokenCreation = errors.New("token creation failed")
)

// TokenKind discriminates the session token shapes. The kind string
// doubles as the cookie name carrying that token.
type TokenKind string

const (
	KindRefresh TokenKind = "refresh_token"
	KindAccess  TokenKind = "authorization_token"

	kindRegistration TokenKind = "registration_token"
)

// CookieName returns the name of the cookie that carries this token kind.
func (k TokenKind) CookieName() string { return string(k) }

// SessionClaims is the payload of access and refresh tokens.
type SessionClaims struct {
	Kind   TokenKind `json:"claim_type"`
	UserID int64     `json:"user_id"`
	jwt.RegisteredClaims
}

// RegistrationClaims is the self-contained payload of a registration
// token: the pending account's data, hashed before issuance. There is no
// user id because the account does not exist yet. The distinct claim
// shape plus the kind tag keep registration tokens from ever passing as
// access or refresh tokens.
type RegistrationClaims struct {
	Kind         TokenKind `json:"claim_type"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Salt         string    `json:"salt"`
	DateOfBirth  string    `json:"date_of_birth"`
	jwt.RegisteredClaims
}

// Codec signs and verifies tokens with a single symmetric secret loaded
// at process start. Safe for concurrent use.
type Codec struct {
	secret []byte
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// IssueSession signs a new access or refresh token for the given user.
func (c *Codec) IssueSession(kind TokenKind, userID int64, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		Kind:   kind,
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", ErrTokenCreation
	}
	return token, nil
}

// VerifySession checks the signature and expiry of a session token and
// that its kind matches expected. A cryptographically valid token of the
// wrong kind is an invalid token, not a distinct error.
func (c *Codec) VerifySession(tokenString string, expected TokenKind) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := c.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Kind != expected {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IssueRegistration signs a registration token embedding the pending
// account data.
func (c *Codec) IssueRegistration(email, passwordHash, salt, dateOfBirth string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := RegistrationClaims{
		Kind:         kindRegistration,
		Email:        email,
		PasswordHash: passwordHash,
		Salt:         salt,
		DateOfBirth:  dateOfBirth,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", ErrTokenCreation
	}
	return token, nil
}

// VerifyRegistration checks the signature and expiry of a registration
// token and returns the embedded account data.
func (c *Codec) VerifyRegistration(tokenString string) (*RegistrationClaims, error) {
	claims := &RegistrationClaims{}
	if err := c.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Kind != kindRegistration {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (c *Codec) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpiredToken
		}
		return ErrInvalidToken
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
