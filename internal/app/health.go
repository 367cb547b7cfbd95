package app

import (
	"context"
	"net/http"
	"time"

	"storefront-api/internal/httpx"
)

const healthTimeout = 2 * time.Second

// HealthCheck pings one dependency. Name is used as the response key.
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

func HealthHandler(environment string, checks ...HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		healthy := true
		body := map[string]any{
			"environment": environment,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
		}
		for _, check := range checks {
			if err := check.Ping(ctx); err != nil {
				healthy = false
				body[check.Name] = "disconnected"
				continue
			}
			body[check.Name] = "connected"
		}

		if !healthy {
			body["status"] = "unhealthy"
			httpx.WriteError(w, http.StatusServiceUnavailable, "dependency check failed", body)
			return
		}

		body["status"] = "healthy"
		httpx.WriteSuccess(w, http.StatusOK, body)
	}
}
