package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront-api/internal/httpx"
)

type payloadKey struct{}

// PayloadFrom returns the verified token payload stored by RequireAuth.
func PayloadFrom(ctx context.Context) (Payload, bool) {
	payload, ok := ctx.Value(payloadKey{}).(Payload)
	return payload, ok
}

func WithPayload(ctx context.Context, payload Payload) context.Context {
	return context.WithValue(ctx, payloadKey{}, payload)
}

// RequireAuth rejects requests without a valid access token.
func RequireAuth(tokens *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			payload, ok := authenticate(w, r, tokens)
			if !ok {
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPayload(r.Context(), payload)))
		})
	}
}

// RequireAdmin is RequireAuth plus an admin role check.
func RequireAdmin(tokens *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			payload, ok := authenticate(w, r, tokens)
			if !ok {
				return
			}
			if payload.Role != RoleAdmin {
				httpx.WriteError(w, http.StatusForbidden, "Admin access required")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPayload(r.Context(), payload)))
		})
	}
}

func authenticate(w http.ResponseWriter, r *http.Request, tokens *TokenIssuer) (Payload, bool) {
	token, err := bearerToken(r)
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "Authorization header required")
		return Payload{}, false
	}

	payload, err := tokens.VerifyAccess(token)
	if err != nil {
		if errors.Is(err, ErrTokenWrongType) {
			httpx.WriteError(w, http.StatusUnauthorized, err.Error())
			return Payload{}, false
		}
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid or expired token")
		return Payload{}, false
	}

	return payload, true
}

func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", ErrUnauthorized
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrUnauthorized
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrUnauthorized
	}

	return token, nil
}
