package api

import (
	"context"
	"net/http"
	"sync"

	"storefront-api/internal/app"
	"storefront-api/internal/config"
	"storefront-api/internal/httpx"
)

var (
	initOnce   sync.Once
	apiRuntime *app.Runtime
	initErr    error
)

// Handler is the serverless entry point. The runtime is built on the first
// request and reused while the instance stays warm.
func Handler(w http.ResponseWriter, r *http.Request) {
	initOnce.Do(func() {
		ctx := context.Background()
		cfg, err := config.Load(ctx, false)
		if err != nil {
			initErr = err
			return
		}
		apiRuntime, initErr = app.Build(ctx, cfg, app.Options{RunMigrations: cfg.RunMigrationsOnStartup})
	})

	if initErr != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "application bootstrap failed")
		return
	}

	apiRuntime.Handler.ServeHTTP(w, r)
}
