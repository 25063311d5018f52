package handler

import (
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/concord-chat/concord-server/internal/crypto"
	"github.com/concord-chat/concord-server/internal/model"
	"github.com/concord-chat/concord-server/internal/password"
	"github.com/concord-chat/concord-server/internal/service"
	"github.com/concord-chat/concord-server/internal/turnstile"
)

// RegistrationHandler serves the two registration endpoints: the form
// submission that emails a verification link, and the link target that
// commits the account.
type RegistrationHandler struct {
	service  *service.RegistrationService
	verifier turnstile.Verifier
}

func NewRegistrationHandler(svc *service.RegistrationService, verifier turnstile.Verifier) *RegistrationHandler {
	return &RegistrationHandler{service: svc, verifier: verifier}
}

// HandleRegister handles POST /register_user.
func (h *RegistrationHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB

	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("Invalid body"))
		return
	}

	allowed, err := h.verifier.Verify(r.Context(), r.PostFormValue("cf-turnstile-response"), remoteIP(r))
	if err != nil {
		slog.Error("turnstile verification failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse(codeInternal))
		return
	}
	if !allowed {
		writeJSON(w, http.StatusForbidden, errorResponse("Forbidden"))
		return
	}

	form := model.RegistrationForm{
		Email:       r.PostFormValue("email"),
		Password:    r.PostFormValue("password"),
		DateOfBirth: r.PostFormValue("date_of_birth"),
	}

	if err := h.service.Register(r.Context(), form); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEmail),
			errors.Is(err, service.ErrInvalidDateOfBirth),
			password.IsViolation(err):
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		case errors.Is(err, crypto.ErrTokenCreation):
			writeJSON(w, http.StatusInternalServerError, errorResponse(codeTokenCreation))
		default:
			slog.Error("registration failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse(codeInternal))
		}
		return
	}

	writeText(w, http.StatusOK, "User registered")
}

// HandleVerifyEmail handles GET /verify_email. The token arrives as a
// query parameter from the emailed link.
func (h *RegistrationHandler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse("No token"))
		return
	}

	userID, err := h.service.ConfirmEmail(r.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrAlreadyRegistered) {
			writeJSON(w, http.StatusBadRequest, errorResponse("User already registered"))
			return
		}
		writeVerificationError(w, err)
		return
	}

	slog.Info("account created", "user_id", userID)
	writeText(w, http.StatusOK, "Account created")
}

func remoteIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
