package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"storefront-api/internal/httpx"
)

const (
	defaultLoginRateLimit  = 10
	defaultLoginRateWindow = time.Minute
)

// LoginRateLimit limits requests per client IP, independent of the per-username
// lockout.
func LoginRateLimit(maxHits int, window time.Duration) func(http.Handler) http.Handler {
	if maxHits <= 0 {
		maxHits = defaultLoginRateLimit
	}
	if window <= 0 {
		window = defaultLoginRateWindow
	}

	return httprate.Limit(
		maxHits,
		window,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.WriteError(w, http.StatusTooManyRequests, "too many login attempts")
		}),
	)
}
