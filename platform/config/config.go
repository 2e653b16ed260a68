// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// AuthServiceConfig provides settings needed by the admin login service.
type AuthServiceConfig interface {
	JWTConfig
	GetAccessTokenTTL() time.Duration
	GetAdminEmail() string
	GetAdminPasswordHash() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SMTPConfig provides settings for outgoing mail.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	IsSMTPEnabled() bool
}

// NotificationConfig provides settings for the notification dispatcher.
type NotificationConfig interface {
	GetPublicBaseURL() string
	GetNotifyTimeout() time.Duration
	GetAdminNotifyEmail() string
	GetNotificationMode() string
}

// SchedulerConfig provides settings for the redis-backed task queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetSchedulerConcurrency() int
	IsRedisEnabled() bool
	// GetExpirySweepSpec is the cron spec of the expiry sweep; empty disables it.
	GetExpirySweepSpec() string
	// GetWorkerMetricsAddr is where the worker serves /metrics; empty disables it.
	GetWorkerMetricsAddr() string
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOArchiveBucket() string
	IsMinIOEnabled() bool
}

// QuoteConfig provides settings for the quote lifecycle and pricing engine.
type QuoteConfig interface {
	GetQuoteNumberPrefix() string
	GetQuoteValidity() time.Duration
	GetVATEnabled() bool
	GetVATRate() decimal.Decimal
	GetCatalogPath() string
	GetPublicBaseURL() string
}

// RateLimitConfig provides limits for public endpoints.
type RateLimitConfig interface {
	GetPublicRateLimitPerMinute() int
}

// Notification delivery modes.
const (
	NotificationModeDirect = "direct"
	NotificationModeQueue  = "queue"
	NotificationModeLog    = "log"
)

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env               string
	HTTPAddr          string
	DatabaseURL       string
	JWTAccessSecret   string
	AccessTokenTTL    time.Duration
	AdminEmail        string
	AdminPasswordHash string
	CORSAllowAll      bool
	CORSOrigins       []string
	CORSAllowCreds    bool

	PublicBaseURL    string
	NotifyTimeout    time.Duration
	AdminNotifyEmail string
	NotificationMode string

	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	EmailFromName    string
	EmailFromAddress string

	RedisURL             string
	SchedulerConcurrency int
	ExpirySweepSpec      string
	WorkerMetricsAddr    string

	MinIOEndpoint      string
	MinIOAccessKey     string
	MinIOSecretKey     string
	MinIOUseSSL        bool
	MinIOArchiveBucket string

	QuoteNumberPrefix string
	QuoteValidity     time.Duration
	VATEnabled        bool
	VATRate           decimal.Decimal
	CatalogPath       string

	PublicRateLimitPerMinute int
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig / AuthServiceConfig implementation
func (c *Config) GetJWTAccessSecret() string       { return c.JWTAccessSecret }
func (c *Config) GetAccessTokenTTL() time.Duration { return c.AccessTokenTTL }
func (c *Config) GetAdminEmail() string            { return c.AdminEmail }
func (c *Config) GetAdminPasswordHash() string     { return c.AdminPasswordHash }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// SMTPConfig implementation
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) IsSMTPEnabled() bool         { return c.SMTPHost != "" }

// NotificationConfig implementation
func (c *Config) GetPublicBaseURL() string        { return c.PublicBaseURL }
func (c *Config) GetNotifyTimeout() time.Duration { return c.NotifyTimeout }
func (c *Config) GetAdminNotifyEmail() string     { return c.AdminNotifyEmail }
func (c *Config) GetNotificationMode() string     { return c.NotificationMode }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string          { return c.RedisURL }
func (c *Config) GetSchedulerConcurrency() int { return c.SchedulerConcurrency }
func (c *Config) IsRedisEnabled() bool         { return c.RedisURL != "" }
func (c *Config) GetExpirySweepSpec() string   { return c.ExpirySweepSpec }
func (c *Config) GetWorkerMetricsAddr() string { return c.WorkerMetricsAddr }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string      { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string     { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string     { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool          { return c.MinIOUseSSL }
func (c *Config) GetMinIOArchiveBucket() string { return c.MinIOArchiveBucket }
func (c *Config) IsMinIOEnabled() bool          { return c.MinIOEndpoint != "" }

// QuoteConfig implementation
func (c *Config) GetQuoteNumberPrefix() string    { return c.QuoteNumberPrefix }
func (c *Config) GetQuoteValidity() time.Duration { return c.QuoteValidity }
func (c *Config) GetVATEnabled() bool             { return c.VATEnabled }
func (c *Config) GetVATRate() decimal.Decimal     { return c.VATRate }
func (c *Config) GetCatalogPath() string          { return c.CatalogPath }

// RateLimitConfig implementation
func (c *Config) GetPublicRateLimitPerMinute() int { return c.PublicRateLimitPerMinute }

// Load reads configuration from environment variables, after loading a .env
// file when one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	vatRate, err := decimal.NewFromString(getEnv("VAT_RATE", "0.20"))
	if err != nil {
		return nil, fmt.Errorf("VAT_RATE: %w", err)
	}

	cfg := &Config{
		Env:               getEnv("APP_ENV", "development"),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		JWTAccessSecret:   getEnv("JWT_ACCESS_SECRET", ""),
		AccessTokenTTL:    mustDuration(getEnv("JWT_ACCESS_TTL", "12h")),
		AdminEmail:        strings.ToLower(strings.TrimSpace(getEnv("ADMIN_EMAIL", ""))),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		CORSAllowAll:      corsAllowAll,
		CORSOrigins:       corsOrigins,
		CORSAllowCreds:    strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),

		PublicBaseURL:    strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:5173"), "/"),
		NotifyTimeout:    mustDuration(getEnv("NOTIFY_TIMEOUT", "10s")),
		AdminNotifyEmail: getEnv("ADMIN_NOTIFY_EMAIL", ""),
		NotificationMode: strings.ToLower(getEnv("NOTIFICATION_MODE", NotificationModeDirect)),

		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "Agence"),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),

		RedisURL:             getEnv("REDIS_URL", ""),
		SchedulerConcurrency: mustInt(getEnv("SCHEDULER_CONCURRENCY", "5")),
		ExpirySweepSpec:      sweepSpec(getEnv("EXPIRY_SWEEP_SPEC", "@every 1h")),
		WorkerMetricsAddr:    getEnv("WORKER_METRICS_ADDR", ":9091"),

		MinIOEndpoint:      getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:     getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:     getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:        strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOArchiveBucket: getEnv("MINIO_BUCKET_QUOTE_ARCHIVE", "quote-archive"),

		QuoteNumberPrefix: getEnv("QUOTE_NUMBER_PREFIX", "DEV"),
		QuoteValidity:     mustDuration(getEnv("QUOTE_VALIDITY", "192h")),
		VATEnabled:        strings.EqualFold(getEnv("VAT_ENABLED", "false"), "true"),
		VATRate:           vatRate,
		CatalogPath:       getEnv("PRICING_CATALOG_PATH", ""),

		PublicRateLimitPerMinute: mustInt(getEnv("PUBLIC_RATE_LIMIT_PER_MINUTE", "60")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTAccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if c.AdminEmail == "" || c.AdminPasswordHash == "" {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD_HASH are required")
	}
	if c.CORSAllowAll && c.CORSAllowCreds {
		return fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if c.SMTPHost != "" && c.EmailFromAddress == "" {
		return fmt.Errorf("EMAIL_FROM_ADDRESS is required when SMTP_HOST is set")
	}
	if c.QuoteValidity <= 0 {
		return fmt.Errorf("QUOTE_VALIDITY must be a positive duration")
	}
	if c.NotifyTimeout <= 0 {
		return fmt.Errorf("NOTIFY_TIMEOUT must be a positive duration")
	}
	if c.VATEnabled && (c.VATRate.IsNegative() || c.VATRate.GreaterThanOrEqual(decimal.NewFromInt(1))) {
		return fmt.Errorf("VAT_RATE must be a fraction between 0 and 1")
	}
	switch c.NotificationMode {
	case NotificationModeDirect, NotificationModeLog:
	case NotificationModeQueue:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when NOTIFICATION_MODE is queue")
		}
	default:
		return fmt.Errorf("NOTIFICATION_MODE must be one of direct, queue, log")
	}
	return nil
}

// sweepSpec maps "off" to the empty spec that disables the sweep.
func sweepSpec(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, "off") {
		return ""
	}
	return raw
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
