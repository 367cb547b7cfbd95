package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"storefront-api/internal/auth"
	"storefront-api/internal/cache"
	"storefront-api/internal/category"
	"storefront-api/internal/config"
	"storefront-api/internal/db"
	"storefront-api/internal/maintenance"
	"storefront-api/internal/media"
	"storefront-api/internal/notify"
	"storefront-api/internal/observability"
	"storefront-api/internal/product"
	"storefront-api/internal/rfq"
)

type Options struct {
	RunMigrations bool
}

type Runtime struct {
	Handler http.Handler
	Logger  *observability.Logger

	closers []func() error
}

// Close releases resources in reverse order of acquisition.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	observability.FlushSentry()
	rt.Logger.Sync()
	return errors.Join(errs...)
}

// OpenDatabase opens the pgx-backed pool with the configured limits and pings it.
func OpenDatabase(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	database, err := sqlx.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	database.SetMaxOpenConns(cfg.DBMaxOpenConns)
	database.SetMaxIdleConns(cfg.DBMaxIdleConns)
	database.SetConnMaxLifetime(cfg.DBConnMaxLifetime())
	database.SetConnMaxIdleTime(cfg.DBConnMaxIdleTime())

	if err := database.PingContext(ctx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return database, nil
}

func Build(ctx context.Context, cfg config.Config, options Options) (_ *Runtime, err error) {
	logger := observability.NewLogger(cfg.Env, cfg.LogLevel)
	rt := &Runtime{Logger: logger}
	defer func() {
		if err != nil {
			_ = rt.Close()
		}
	}()

	if err := observability.InitSentry(cfg.SentryDSN, cfg.Env); err != nil {
		logger.Error("init_sentry_failed", map[string]any{"error": err.Error()})
	}

	database, err := OpenDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, database.Close)

	if options.RunMigrations {
		applied, err := db.RunMigrations(ctx, database.DB)
		if err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		if len(applied) > 0 {
			logger.Info("migrations_applied", map[string]any{"versions": applied})
		}
	}

	checks := []HealthCheck{{Name: "database", Ping: database.PingContext}}

	var tracker auth.AttemptTracker
	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, client.Close)
		tracker = auth.NewRedisTracker(client, cfg.Auth.MaxLoginAttempts, cfg.LockoutWindow())
		checks = append(checks, HealthCheck{Name: "redis", Ping: redisPing(client)})
	} else {
		tracker = auth.NewMemoryTracker(cfg.Auth.MaxLoginAttempts, cfg.LockoutWindow())
		if cfg.IsProduction() {
			logger.Warn("login_lockout_in_memory", map[string]any{"reason": "REDIS_URL not set"})
		}
	}

	notifier, err := notify.New(cfg.Notify, cfg.Mail, logger)
	if err != nil {
		return nil, fmt.Errorf("init notifier: %w", err)
	}
	rt.closers = append(rt.closers, notifier.Close)

	var productUploader product.ImageUploader
	var mediaUploader media.ImageUploader
	if cfg.CloudinaryURL != "" {
		cloudinary, err := media.NewCloudinary(cfg.CloudinaryURL)
		if err != nil {
			return nil, fmt.Errorf("init cloudinary: %w", err)
		}
		productUploader = cloudinary
		mediaUploader = cloudinary
	}

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.AccessTokenTTL(), cfg.RefreshTokenTTL())
	authService := auth.NewService(auth.NewRepository(database), tracker, tokens).
		WithPasswordPolicy(cfg.Auth.PasswordMinLength, cfg.Auth.BcryptRounds).
		WithRegisterRole(cfg.Auth.AllowRegisterRole)
	if cfg.Auth.AllowRegisterRole {
		logger.Warn("register_role_enabled", map[string]any{"detail": "registration may request the admin role"})
	}

	if err := authService.BootstrapAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password, cfg.Admin.Email); err != nil {
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}

	categoryService := category.NewService(category.NewRepository(database))
	productService := product.NewService(product.NewRepository(database), categoryService, productUploader)
	rfqService := rfq.NewService(rfq.NewRepository(database), notifier, logger, cfg.Mail.AdminEmail)

	rt.Handler = NewRouter(RouterConfig{
		Tokens:               tokens,
		Logger:               logger,
		CORSAllowedOrigins:   cfg.CORSAllowedOrigins,
		LoginRateLimitMax:    cfg.LoginRateLimitMax,
		LoginRateLimitWindow: cfg.LoginRateLimitWindow(),
	}, Handlers{
		Auth:       auth.NewHandler(authService),
		Categories: category.NewHandler(categoryService),
		Products:   product.NewHandler(productService),
		RFQ:        rfq.NewHandler(rfqService),
		Media:      media.NewUploadHandler(mediaUploader),
		Cleanup:    maintenance.NewCleanupHandler(tracker, logger, cfg.CronSecret),
		Health:     HealthHandler(cfg.Env, checks...),
	})

	logger.Info("app_ready", map[string]any{
		"environment": cfg.Env,
		"redis":       cfg.RedisURL != "",
		"notify":      cfg.Notify.Driver,
		"media":       cfg.CloudinaryURL != "",
	})

	return rt, nil
}

func redisPing(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
