package maintenance

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"storefront-api/internal/httpx"
	"storefront-api/internal/observability"
)

// Pruner removes expired state and reports how many entries went away.
type Pruner interface {
	Prune(ctx context.Context) (int, error)
}

type CleanupHandler struct {
	pruner     Pruner
	logger     *observability.Logger
	cronSecret string
}

func NewCleanupHandler(pruner Pruner, logger *observability.Logger, cronSecret string) *CleanupHandler {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &CleanupHandler{
		pruner:     pruner,
		logger:     logger,
		cronSecret: strings.TrimSpace(cronSecret),
	}
}

// Handle is mounted for GET and POST so schedulers of either kind can call it.
// Without CRON_SECRET the route answers 404.
func (h *CleanupHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.cronSecret == "" {
		httpx.WriteError(w, http.StatusNotFound, "not found")
		return
	}

	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if !h.authorized(r) {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	started := time.Now()
	removed, err := h.pruner.Prune(r.Context())
	if err != nil {
		observability.CaptureError(err)
		h.logger.Error("lockout_cleanup_failed", map[string]any{"error": err.Error()})
		httpx.WriteError(w, http.StatusInternalServerError, "cleanup failed")
		return
	}

	h.logger.Info("lockout_cleanup_completed", map[string]any{
		"pruned_lockouts": removed,
		"duration_ms":     time.Since(started).Milliseconds(),
	})

	httpx.WriteSuccess(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"pruned_lockouts": removed,
	})
}

func (h *CleanupHandler) authorized(r *http.Request) bool {
	parts := strings.SplitN(strings.TrimSpace(r.Header.Get("Authorization")), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return false
	}
	token := strings.TrimSpace(parts[1])
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.cronSecret)) == 1
}
