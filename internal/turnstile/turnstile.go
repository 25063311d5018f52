// Package turnstile verifies Cloudflare Turnstile challenge responses.
package turnstile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const siteverifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

var (
	ErrInvalidSecret = errors.New("turnstile secret rejected")
	ErrRequestFailed = errors.New("turnstile request failed")
)

// Verifier decides whether a challenge response proves a human origin.
// A false result is a denial, not an error; errors are infrastructure
// failures of the verification call itself.
type Verifier interface {
	Verify(ctx context.Context, response, remoteIP string) (bool, error)
}

// Client calls the Cloudflare siteverify endpoint.
type Client struct {
	secret   string
	http     *http.Client
	endpoint string
}

func NewClient(secret string) *Client {
	return &Client{
		secret:   secret,
		http:     &http.Client{Timeout: 10 * time.Second},
		endpoint: siteverifyURL,
	}
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

func (c *Client) Verify(ctx context.Context, response, remoteIP string) (bool, error) {
	form := url.Values{
		"secret":   {c.secret},
		"response": {response},
	}
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	}

	var result siteverifyResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return false, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	for _, code := range result.ErrorCodes {
		switch code {
		case "invalid-input-secret":
			return false, ErrInvalidSecret
		case "invalid-input-response", "timeout-or-duplicate":
			// A bad or replayed challenge response is a denial, not an
			// infrastructure failure.
			return false, nil
		}
	}

	return result.Success, nil
}

// AllowAll accepts every challenge response. Development and tests only.
type AllowAll struct{}

func (AllowAll) Verify(ctx context.Context, response, remoteIP string) (bool, error) {
	return true, nil
}
