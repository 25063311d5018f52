package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/concord-chat/concord-server/internal/crypto"
	"github.com/concord-chat/concord-server/internal/middleware"
	"github.com/concord-chat/concord-server/internal/model"
	"github.com/concord-chat/concord-server/internal/service"
)

// AuthHandler serves the session endpoints: login, token refresh and the
// example secured route.
type AuthHandler struct {
	service    *service.SessionService
	refreshTTL time.Duration
	accessTTL  time.Duration
}

func NewAuthHandler(svc *service.SessionService, refreshTTL, accessTTL time.Duration) *AuthHandler {
	return &AuthHandler{service: svc, refreshTTL: refreshTTL, accessTTL: accessTTL}
}

// HandleAuthenticate handles POST /authenticate. On success the refresh
// token travels both in the response body and in a same-named cookie.
func (h *AuthHandler) HandleAuthenticate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB

	var req model.AuthenticationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("Missing credentials"))
		return
	}

	token, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingCredentials):
			writeJSON(w, http.StatusBadRequest, errorResponse("Missing credentials"))
		case errors.Is(err, service.ErrWrongCredentials):
			writeJSON(w, http.StatusUnauthorized, errorResponse("Wrong credentials"))
		case errors.Is(err, crypto.ErrTokenCreation):
			writeJSON(w, http.StatusInternalServerError, errorResponse(codeTokenCreation))
		default:
			writeJSON(w, http.StatusInternalServerError, errorResponse(codeInternal))
		}
		return
	}

	setTokenCookie(w, crypto.KindRefresh, token, h.refreshTTL)
	writeJSON(w, http.StatusOK, model.AuthenticationResponse{
		RefreshToken: token,
		TokenType:    "Bearer",
	})
}

// HandleRefresh handles POST /refresh_token: it exchanges the refresh
// cookie for a fresh access token cookie.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	presented, err := tokenFromCookie(r, crypto.KindRefresh)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("No token"))
		return
	}

	token, err := h.service.Refresh(r.Context(), presented)
	if err != nil {
		writeVerificationError(w, err)
		return
	}

	setTokenCookie(w, crypto.KindAccess, token, h.accessTTL)
	w.WriteHeader(http.StatusOK)
}

// HandleSecured handles GET /secured, the example protected route. The
// access-token middleware has already verified the caller.
func (h *AuthHandler) HandleSecured(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, "Secured")
}

// HandleLogout handles POST /logout. It revokes the caller's refresh
// token and expires both token cookies. Outstanding access tokens stay
// valid until expiry.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse("No token"))
		return
	}

	if err := h.service.Logout(r.Context(), userID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse(codeInternal))
		return
	}

	clearTokenCookie(w, crypto.KindRefresh)
	clearTokenCookie(w, crypto.KindAccess)
	w.WriteHeader(http.StatusOK)
}

// writeVerificationError maps token verification failures onto the
// endpoint error surface.
func writeVerificationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, crypto.ErrNoToken):
		writeJSON(w, http.StatusBadRequest, errorResponse("No token"))
	case errors.Is(err, crypto.ErrInvalidToken):
		writeJSON(w, http.StatusBadRequest, errorResponse("Invalid token"))
	case errors.Is(err, crypto.ErrExpiredToken):
		writeJSON(w, http.StatusUnauthorized, errorResponse("Expired token"))
	case errors.Is(err, crypto.ErrTokenCreation):
		writeJSON(w, http.StatusInternalServerError, errorResponse(codeTokenCreation))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse(codeInternal))
	}
}

// setTokenCookie stores a token in its kind-named cookie. Values carry
// the "Bearer " prefix, matching what clients send back.
func setTokenCookie(w http.ResponseWriter, kind crypto.TokenKind, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:   kind.CookieName(),
		Value:  "Bearer " + token,
		Path:   "/",
		MaxAge: int(ttl.Seconds()),
	})
}

// clearTokenCookie expires a kind-named cookie on the client.
func clearTokenCookie(w http.ResponseWriter, kind crypto.TokenKind) {
	http.SetCookie(w, &http.Cookie{
		Name:   kind.CookieName(),
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}

// tokenFromCookie extracts the raw token from a kind-named cookie,
// stripping the "Bearer " prefix.
func tokenFromCookie(r *http.Request, kind crypto.TokenKind) (string, error) {
	cookie, err := r.Cookie(kind.CookieName())
	if err != nil {
		return "", crypto.ErrNoToken
	}
	token := strings.TrimPrefix(cookie.Value, "Bearer ")
	if token == "" {
		return "", crypto.ErrNoToken
	}
	return token, nil
}
