package model

import "time"

// User represents a user row in the durable store.
//
// ID and Email are immutable identity fields and each unique across all
// rows. ValidRefreshToken holds the refresh token most recently accepted
// for this user; empty means no active session.
type User struct {
	ID                int64
	Username          string
	Email             string
	PasswordHash      string
	Salt              string
	ValidRefreshToken string
	Verified          bool
	Banned            bool
	DateOfBirth       string
	CreatedAt         time.Time
}

// Credentials is the hash and salt pair needed to verify a password.
type Credentials struct {
	PasswordHash string
	Salt         string
}

// AuthenticationRequest is the body of POST /authenticate.
type AuthenticationRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthenticationResponse mirrors the refresh token also set as a cookie.
type AuthenticationResponse struct {
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// RegistrationForm is the parsed body of POST /register_user.
type RegistrationForm struct {
	Email       string
	Password    string
	DateOfBirth string
}
