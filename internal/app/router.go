package app

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"storefront-api/internal/auth"
	"storefront-api/internal/category"
	"storefront-api/internal/httpx"
	"storefront-api/internal/maintenance"
	"storefront-api/internal/media"
	"storefront-api/internal/observability"
	"storefront-api/internal/product"
	"storefront-api/internal/rfq"
)

type RouterConfig struct {
	Tokens               *auth.TokenIssuer
	Logger               *observability.Logger
	CORSAllowedOrigins   []string
	LoginRateLimitMax    int
	LoginRateLimitWindow time.Duration
}

type Handlers struct {
	Auth       *auth.Handler
	Categories *category.Handler
	Products   *product.Handler
	RFQ        *rfq.Handler
	Media      *media.UploadHandler
	Cleanup    *maintenance.CleanupHandler
	Health     http.HandlerFunc
}

func NewRouter(cfg RouterConfig, h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.RequestLogging(cfg.Logger))
	r.Use(observability.Recover(cfg.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Retry-After", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	requireAuth := auth.RequireAuth(cfg.Tokens)
	requireAdmin := auth.RequireAdmin(cfg.Tokens)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Auth.Register)
			r.With(auth.LoginRateLimit(cfg.LoginRateLimitMax, cfg.LoginRateLimitWindow)).Post("/login", h.Auth.Login)
			r.Post("/refresh", h.Auth.Refresh)
			r.With(requireAuth).Get("/verify", h.Auth.Verify)
			r.With(requireAuth).Post("/logout", h.Auth.Logout)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.Categories.List)
			r.Get("/main", h.Categories.ListMain)
			r.Get("/sub/{slug}", h.Categories.ListSubs)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Get("/admin", h.Categories.Admin)
				r.Post("/", h.Categories.Create)
				r.Put("/{id}", h.Categories.Update)
				r.Delete("/{id}", h.Categories.Delete)
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Products.List)
			r.Get("/category/{slug}", h.Products.ListByMainCategory)
			r.Get("/{id}", h.Products.Get)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Post("/", h.Products.Create)
				r.Put("/{id}", h.Products.Update)
				r.Delete("/{id}", h.Products.Delete)
			})
		})

		r.Route("/rfq", func(r chi.Router) {
			r.Post("/", h.RFQ.Submit)
			r.With(requireAdmin).Get("/", h.RFQ.List)
			r.With(requireAdmin).Put("/{id}", h.RFQ.UpdateStatus)
		})

		r.With(requireAdmin).Post("/media/upload", h.Media.Upload)
	})

	r.Get("/internal/maintenance/cleanup", h.Cleanup.Handle)
	r.Post("/internal/maintenance/cleanup", h.Cleanup.Handle)

	return r
}
