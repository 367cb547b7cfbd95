package auth

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/getsentry/sentry-go"

	"storefront-api/internal/httpx"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var body registerRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.service.Register(r.Context(), RegisterInput{
		Username: body.Username,
		Password: body.Password,
		Email:    body.Email,
		Role:     body.Role,
	})
	if err != nil {
		writeAuthError(w, err, "failed to register")
		return
	}

	httpx.WriteSuccess(w, http.StatusCreated, sessionBody("User registered successfully", session))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.service.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		writeAuthError(w, err, "failed to login")
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, sessionBody("Login successful", session))
}

// Verify echoes the payload that RequireAuth placed in the context.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	payload, ok := PayloadFrom(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, ErrUnauthorized.Error())
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, map[string]any{"user": payload})
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var body refreshRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tokens, err := h.service.Refresh(r.Context(), body.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, ErrTokenExpired):
			httpx.WriteError(w, http.StatusUnauthorized, "Refresh token has expired")
		case errors.Is(err, ErrTokenInvalid):
			httpx.WriteError(w, http.StatusUnauthorized, "Invalid refresh token")
		default:
			writeAuthError(w, err, "failed to refresh token")
		}
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, map[string]any{
		"message":       "Token refreshed successfully",
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"token_type":    tokens.TokenType,
		"expires_in":    tokens.ExpiresIn,
	})
}

// Logout is stateless: clients discard their tokens.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	httpx.WriteSuccess(w, http.StatusOK, map[string]any{"message": "Logged out successfully"})
}

func sessionBody(message string, session Session) map[string]any {
	return map[string]any{
		"message":       message,
		"user":          session.Profile,
		"access_token":  session.Tokens.AccessToken,
		"refresh_token": session.Tokens.RefreshToken,
		"token_type":    session.Tokens.TokenType,
		"expires_in":    session.Tokens.ExpiresIn,
	}
}

// StatusFor maps an authentication error to its HTTP status.
func StatusFor(err error) int {
	var weak WeakPasswordError
	var locked LockedError

	switch {
	case errors.As(err, &locked):
		return http.StatusLocked
	case errors.As(err, &weak),
		errors.Is(err, ErrMissingField),
		errors.Is(err, ErrInvalidEmail),
		errors.Is(err, ErrIdentityTaken),
		errors.Is(err, ErrInvalidRole):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrAccountDeactivated),
		errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrTokenWrongType),
		errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeAuthError(w http.ResponseWriter, err error, fallback string) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		sentry.CaptureException(err)
		httpx.WriteError(w, status, fallback)
		return
	}

	var locked LockedError
	if errors.As(err, &locked) {
		retryAfter := int(locked.Remaining.Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		httpx.WriteError(w, status, locked.Error(), map[string]any{
			"remaining_minutes": locked.RemainingMinutes(),
		})
		return
	}

	httpx.WriteError(w, status, err.Error())
}
