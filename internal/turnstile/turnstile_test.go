package turnstile

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient("test-secret")
	c.endpoint = srv.URL
	return c
}

func TestVerifySuccess(t *testing.T) {
	var form map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm() unexpected error: %v", err)
		}
		form = map[string]string{
			"secret":   r.PostFormValue("secret"),
			"response": r.PostFormValue("response"),
			"remoteip": r.PostFormValue("remoteip"),
		}
		w.Write([]byte(`{"success":true}`))
	})

	ok, err := c.Verify(context.Background(), "challenge-response", "203.0.113.7")
	if err != nil {
		t.Fatalf("Verify() unexpected error: %v", err)
	}
	if !ok {
		t.Error("Verify() = false, want true")
	}
	want := map[string]string{
		"secret":   "test-secret",
		"response": "challenge-response",
		"remoteip": "203.0.113.7",
	}
	for k, v := range want {
		if form[k] != v {
			t.Errorf("form[%q] = %q, want %q", k, form[k], v)
		}
	}
}

func TestVerifyDenials(t *testing.T) {
	// Bad and replayed responses are denials, not errors.
	for _, code := range []string{"invalid-input-response", "timeout-or-duplicate"} {
		t.Run(code, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"success":false,"error-codes":["` + code + `"]}`))
			})
			ok, err := c.Verify(context.Background(), "stale", "")
			if err != nil {
				t.Fatalf("Verify() unexpected error: %v", err)
			}
			if ok {
				t.Error("Verify() = true, want false")
			}
		})
	}
}

func TestVerifyInvalidSecret(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"error-codes":["invalid-input-secret"]}`))
	})
	_, err := c.Verify(context.Background(), "response", "")
	if !errors.Is(err, ErrInvalidSecret) {
		t.Errorf("Verify() error = %v, want ErrInvalidSecret", err)
	}
}

func TestVerifyUpstreamFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.Verify(context.Background(), "response", "")
	if !errors.Is(err, ErrRequestFailed) {
		t.Errorf("Verify() error = %v, want ErrRequestFailed", err)
	}
}

func TestAllowAll(t *testing.T) {
	ok, err := AllowAll{}.Verify(context.Background(), "", "")
	if err != nil || !ok {
		t.Errorf("Verify() = %v, %v, want true, nil", ok, err)
	}
}
