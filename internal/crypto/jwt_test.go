package crypto

import (
	"errors"
	"testing"
	"time"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	codec := NewCodec("test-secret")

	for _, kind := range []TokenKind{KindRefresh, KindAccess} {
		token, err := codec.IssueSession(kind, 42, time.Hour)
		if err != nil {
			t.Fatalf("IssueSession(%s) unexpected error: %v", kind, err)
		}

		claims, err := codec.VerifySession(token, kind)
		if err != nil {
			t.Fatalf("VerifySession(%s) unexpected error: %v", kind, err)
		}
		if claims.UserID != 42 {
			t.Errorf("UserID = %d, want 42", claims.UserID)
		}
		if claims.Kind != kind {
			t.Errorf("Kind = %s, want %s", claims.Kind, kind)
		}
		if !claims.ExpiresAt.After(claims.IssuedAt.Time) {
			t.Error("expiry not after issuance")
		}
	}
}

func TestRegistrationTokenRoundTrip(t *testing.T) {
	codec := NewCodec("test-secret")

	token, err := codec.IssueRegistration("a@b.com", "hash", "salt", "2000-01-01", time.Hour)
	if err != nil {
		t.Fatalf("IssueRegistration() unexpected error: %v", err)
	}

	claims, err := codec.VerifyRegistration(token)
	if err != nil {
		t.Fatalf("VerifyRegistration() unexpected error: %v", err)
	}
	if claims.Email != "a@b.com" || claims.PasswordHash != "hash" ||
		claims.Salt != "salt" || claims.DateOfBirth != "2000-01-01" {
		t.Errorf("claims = %+v, fields do not round trip", claims)
	}
}

func TestKindConfusionRejected(t *testing.T) {
	codec := NewCodec("test-secret")

	refresh, err := codec.IssueSession(KindRefresh, 42, time.Hour)
	if err != nil {
		t.Fatalf("IssueSession() unexpected error: %v", err)
	}
	access, err := codec.IssueSession(KindAccess, 42, time.Hour)
	if err != nil {
		t.Fatalf("IssueSession() unexpected error: %v", err)
	}

	if _, err := codec.VerifySession(refresh, KindAccess); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("refresh verified as access: err = %v, want ErrInvalidToken", err)
	}
	if _, err := codec.VerifySession(access, KindRefresh); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("access verified as refresh: err = %v, want ErrInvalidToken", err)
	}
}

func TestRegistrationTokenNotASessionToken(t *testing.T) {
	codec := NewCodec("test-secret")

	registration, err := codec.IssueRegistration("a@b.com", "hash", "salt", "2000-01-01", time.Hour)
	if err != nil {
		t.Fatalf("IssueRegistration() unexpected error: %v", err)
	}
	if _, err := codec.VerifySession(registration, KindRefresh); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("registration token verified as refresh: err = %v, want ErrInvalidToken", err)
	}
	if _, err := codec.VerifySession(registration, KindAccess); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("registration token verified as access: err = %v, want ErrInvalidToken", err)
	}

	session, err := codec.IssueSession(KindRefresh, 42, time.Hour)
	if err != nil {
		t.Fatalf("IssueSession() unexpected error: %v", err)
	}
	if _, err := codec.VerifyRegistration(session); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("session token verified as registration: err = %v, want ErrInvalidToken", err)
	}
}

func TestExpiredToken(t *testing.T) {
	codec := NewCodec("test-secret")

	token, err := codec.IssueSession(KindRefresh, 42, -time.Minute)
	if err != nil {
		t.Fatalf("IssueSession() unexpected error: %v", err)
	}

	if _, err := codec.VerifySession(token, KindRefresh); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("err = %v, want ErrExpiredToken", err)
	}

	registration, err := codec.IssueRegistration("a@b.com", "h", "s", "2000-01-01", -time.Minute)
	if err != nil {
		t.Fatalf("IssueRegistration() unexpected error: %v", err)
	}
	if _, err := codec.VerifyRegistration(registration); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("err = %v, want ErrExpiredToken", err)
	}
}

func TestWrongSecret(t *testing.T) {
	token, err := NewCodec("correct-secret").IssueSession(KindRefresh, 42, time.Hour)
	if err != nil {
		t.Fatalf("IssueSession() unexpected error: %v", err)
	}

	if _, err := NewCodec("wrong-secret").VerifySession(token, KindRefresh); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestGarbageToken(t *testing.T) {
	codec := NewCodec("test-secret")
	if _, err := codec.VerifySession("not-a-token", KindRefresh); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}
