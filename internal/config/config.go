package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devJWTSecret = "dev-secret"

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Storage      StorageConfig
	Maintenance  MaintenanceConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	PublicURL             string
	UIDir                 string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	FeedEnabled bool
	FeedChannel string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines session and identity parameters.
type AuthConfig struct {
	JWTSecret               string
	SessionTTLMinutes       int
	CookieName              string
	LegacyCookieName        string
	SecureCookies           bool
	LoginExchangeKey        string
	PasswordResetTTLMinutes int
	BcryptCost              int
}

// NotificationConfig holds outbound mail settings.
type NotificationConfig struct {
	Enabled            bool
	SMTPHost           string
	SMTPPort           int
	SMTPUser           string
	SMTPPassword       string
	SMTPStartTLS       bool
	EmailFrom          string
	EmailFromName      string
	SendTimeoutSeconds int
	LoginURL           string
	ResetURL           string
}

// StorageConfig controls attachment uploads.
type StorageConfig struct {
	UploadDir      string
	PublicPrefix   string
	MaxUploadBytes int64
	MaxFiles       int
}

// MaintenanceConfig schedules background housekeeping.
type MaintenanceConfig struct {
	PurgeResetTokensSpec string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	env := getEnv("APP_ENV", "development")
	publicURL := strings.TrimRight(getEnv("APP_PUBLIC_URL", "http://localhost:8080"), "/")

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "helpdesk-service"),
			Env:                   env,
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			PublicURL:             publicURL,
			UIDir:                 getEnv("APP_UI_DIR", ""),
		},
		Postgres: PostgresConfig{
			DSN:            getEnv("POSTGRES_DSN", ""),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:        getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          redisDB,
			FeedEnabled: getEnvAsBool("REDIS_FEED_ENABLED", false),
			FeedChannel: getEnv("REDIS_FEED_CHANNEL", "helpdesk:tickets:changed"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:               getEnv("JWT_SECRET_KEY", devJWTSecret),
			SessionTTLMinutes:       getEnvAsInt("AUTH_SESSION_TTL_MINUTES", 120),
			CookieName:              getEnv("AUTH_COOKIE_NAME", "session"),
			LegacyCookieName:        getEnv("AUTH_LEGACY_COOKIE_NAME", "session-token"),
			SecureCookies:           getEnvAsBool("AUTH_SECURE_COOKIES", env == "production"),
			LoginExchangeKey:        getEnv("AUTH_LOGIN_EXCHANGE_KEY", ""),
			PasswordResetTTLMinutes: getEnvAsInt("AUTH_PASSWORD_RESET_TTL_MINUTES", 30),
			BcryptCost:              getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Notification: NotificationConfig{
			Enabled:            getEnvAsBool("NOTIFY_EMAIL_ENABLED", false),
			SMTPHost:           getEnv("SMTP_HOST", "smtp-relay.brevo.com"),
			SMTPPort:           getEnvAsInt("SMTP_PORT", 587),
			SMTPUser:           getEnv("SMTP_USER", ""),
			SMTPPassword:       getEnv("SMTP_PASS", ""),
			SMTPStartTLS:       getEnvAsBool("SMTP_STARTTLS", true),
			EmailFrom:          getEnv("EMAIL_USER", "noreply@example.com"),
			EmailFromName:      getEnv("EMAIL_FROM_NAME", "Hospital IT Help Desk"),
			SendTimeoutSeconds: getEnvAsInt("NOTIFY_SEND_TIMEOUT_SECONDS", 10),
			LoginURL:           getEnv("NOTIFY_LOGIN_URL", publicURL+"/login"),
			ResetURL:           getEnv("NOTIFY_RESET_URL", publicURL+"/reset-password"),
		},
		Storage: StorageConfig{
			UploadDir:      getEnv("STORAGE_UPLOAD_DIR", "uploads"),
			PublicPrefix:   getEnv("STORAGE_PUBLIC_PREFIX", "/files"),
			MaxUploadBytes: int64(getEnvAsInt("STORAGE_MAX_UPLOAD_BYTES", 10<<20)),
			MaxFiles:       getEnvAsInt("STORAGE_MAX_FILES", 5),
		},
		Maintenance: MaintenanceConfig{
			PurgeResetTokensSpec: getEnv("MAINTENANCE_PURGE_RESET_TOKENS_SPEC", "@hourly"),
		},
	}

	if cfg.IsProduction() && cfg.Auth.JWTSecret == devJWTSecret {
		return nil, errors.New("JWT_SECRET_KEY must be set in production")
	}
	if cfg.IsProduction() && cfg.Auth.LoginExchangeKey == "" {
		return nil, errors.New("AUTH_LOGIN_EXCHANGE_KEY must be set in production")
	}

	return cfg, nil
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Env, "production")
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// SessionTTL returns the lifetime of an issued session credential.
func (a AuthConfig) SessionTTL() time.Duration {
	if a.SessionTTLMinutes <= 0 {
		return 2 * time.Hour
	}
	return time.Duration(a.SessionTTLMinutes) * time.Minute
}

// PasswordResetTTL returns how long a reset link stays valid.
func (a AuthConfig) PasswordResetTTL() time.Duration {
	return time.Duration(a.PasswordResetTTLMinutes) * time.Minute
}

// SendTimeout bounds a single outbound email.
func (n NotificationConfig) SendTimeout() time.Duration {
	if n.SendTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(n.SendTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
