package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Env      string `env:"APP_ENV, default=development"`
	Port     string `env:"PORT, default=8080"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	DatabaseURL              string   `env:"DATABASE_URL, required"`
	DBMaxOpenConns           int      `env:"DB_MAX_OPEN_CONNS, default=10"`
	DBMaxIdleConns           int      `env:"DB_MAX_IDLE_CONNS, default=5"`
	DBConnMaxLifetimeMinutes int      `env:"DB_CONN_MAX_LIFETIME_MINUTES, default=30"`
	DBConnMaxIdleTimeMinutes int      `env:"DB_CONN_MAX_IDLE_TIME_MINUTES, default=10"`
	RunMigrationsOnStartup   bool     `env:"RUN_MIGRATIONS_ON_STARTUP, default=false"`
	RedisURL                 string   `env:"REDIS_URL"`
	SentryDSN                string   `env:"SENTRY_DSN"`
	CloudinaryURL            string   `env:"CLOUDINARY_URL"`
	CronSecret               string   `env:"CRON_SECRET"`
	LoginRateLimitMax        int      `env:"LOGIN_RATE_LIMIT_MAX, default=10"`
	LoginRateLimitWindowSecs int      `env:"LOGIN_RATE_LIMIT_WINDOW_SECONDS, default=60"`
	CORSAllowedOrigins       []string `env:"CORS_ALLOWED_ORIGINS, default=http://localhost:3000,http://localhost:3001"`

	Auth   AuthConfig
	Mail   MailConfig
	Notify NotifyConfig
	Admin  AdminConfig
}

type AuthConfig struct {
	JWTSecret                string `env:"JWT_SECRET_KEY, required"`
	JWTExpirationHours       int    `env:"JWT_EXPIRATION_HOURS, default=24"`
	JWTRefreshExpirationDays int    `env:"JWT_REFRESH_EXPIRATION_DAYS, default=7"`
	BcryptRounds             int    `env:"BCRYPT_ROUNDS, default=12"`
	PasswordMinLength        int    `env:"PASSWORD_MIN_LENGTH, default=8"`
	MaxLoginAttempts         int    `env:"MAX_LOGIN_ATTEMPTS, default=5"`
	LoginLockoutMinutes      int    `env:"LOGIN_LOCKOUT_MINUTES, default=15"`
	AllowRegisterRole        bool   `env:"AUTH_ALLOW_REGISTER_ROLE, default=false"`
}

type MailConfig struct {
	Server        string `env:"MAIL_SERVER, default=smtp.gmail.com"`
	Port          int    `env:"MAIL_PORT, default=587"`
	Username      string `env:"MAIL_USERNAME"`
	Password      string `env:"MAIL_PASSWORD"`
	DefaultSender string `env:"MAIL_DEFAULT_SENDER"`
	AdminEmail    string `env:"ADMIN_EMAIL"`
}

type NotifyConfig struct {
	Driver       string   `env:"NOTIFY_DRIVER, default=log"`
	KafkaBrokers []string `env:"KAFKA_BROKERS"`
	KafkaTopic   string   `env:"KAFKA_NOTIFY_TOPIC, default=storefront.notifications"`
}

// AdminConfig seeds a single admin account at startup when both username and
// password are set.
type AdminConfig struct {
	Username string `env:"ADMIN_USERNAME"`
	Password string `env:"ADMIN_PASSWORD"`
	Email    string `env:"ADMIN_EMAIL_ADDRESS"`
}

// Load reads env.<APP_ENV> (falling back to .env) when loadDotEnv is set and then
// parses the process environment.
func Load(ctx context.Context, loadDotEnv bool) (Config, error) {
	if loadDotEnv {
		loadEnvFile()
	}

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing required env: DATABASE_URL")
	}
	cfg.Auth.JWTSecret = strings.TrimSpace(cfg.Auth.JWTSecret)
	if cfg.Auth.JWTSecret == "" {
		return Config{}, fmt.Errorf("missing required env: JWT_SECRET_KEY")
	}
	cfg.Notify.Driver = strings.ToLower(strings.TrimSpace(cfg.Notify.Driver))
	switch cfg.Notify.Driver {
	case "log", "smtp", "kafka":
	default:
		return Config{}, fmt.Errorf("unsupported NOTIFY_DRIVER %q", cfg.Notify.Driver)
	}
	if cfg.Notify.Driver == "kafka" && len(cfg.Notify.KafkaBrokers) == 0 {
		return Config{}, fmt.Errorf("KAFKA_BROKERS is required when NOTIFY_DRIVER=kafka")
	}

	return cfg, nil
}

func loadEnvFile() {
	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "development"
	}
	name := "env." + env
	if _, err := os.Stat(name); err == nil {
		_ = godotenv.Load(name)
		return
	}
	_ = godotenv.Load()
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) AccessTokenTTL() time.Duration {
	return positiveOr(c.Auth.JWTExpirationHours, 24) * time.Hour
}

func (c Config) RefreshTokenTTL() time.Duration {
	return positiveOr(c.Auth.JWTRefreshExpirationDays, 7) * 24 * time.Hour
}

func (c Config) LockoutWindow() time.Duration {
	return positiveOr(c.Auth.LoginLockoutMinutes, 15) * time.Minute
}

func (c Config) LoginRateLimitWindow() time.Duration {
	return positiveOr(c.LoginRateLimitWindowSecs, 60) * time.Second
}

func (c Config) DBConnMaxLifetime() time.Duration {
	return positiveOr(c.DBConnMaxLifetimeMinutes, 30) * time.Minute
}

func (c Config) DBConnMaxIdleTime() time.Duration {
	return positiveOr(c.DBConnMaxIdleTimeMinutes, 10) * time.Minute
}

func positiveOr(value, fallback int) time.Duration {
	if value <= 0 {
		return time.Duration(fallback)
	}
	return time.Duration(value)
}
