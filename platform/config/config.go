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

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// WarehouseConfig provides settings for the ClickHouse rate warehouse.
type WarehouseConfig interface {
	GetWarehouseAddr() string
	GetWarehouseDatabase() string
	GetWarehouseUsername() string
	GetWarehousePassword() string
	GetRateQueryTimeout() time.Duration
}

// RatesCacheConfig provides settings for the Redis rate-query cache.
type RatesCacheConfig interface {
	GetRedisURL() string
	GetRatesCacheTTL() time.Duration
}

// SchedulerConfig provides settings for the asynq scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// EmailConfig provides settings for SMTP email sending.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// GotenbergConfig provides settings for the Gotenberg HTML-to-PDF service.
type GotenbergConfig interface {
	GetGotenbergURL() string
	GetGotenbergUsername() string
	GetGotenbergPassword() string
	IsGotenbergEnabled() bool
}

// StorageConfig provides settings for MinIO S3-compatible storage.
type StorageConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetQuotePDFBucket() string
	IsMinIOEnabled() bool
}

// NotificationConfig provides settings for the outbound notification webhook.
type NotificationConfig interface {
	GetNotifyWebhookURL() string
	GetNotifyWebhookKey() string
}

// TenantConfig provides the location of the tenant registry file.
type TenantConfig interface {
	GetTenantsFile() string
}

// =============================================================================
// Config
// =============================================================================

// Config holds all application configuration loaded from the environment.
type Config struct {
	Env      string
	HTTPAddr string

	DatabaseURL string

	JWTAccessSecret string

	CORSAllowAll bool
	CORSOrigins  []string

	WarehouseAddr     string
	WarehouseDatabase string
	WarehouseUsername string
	WarehousePassword string
	RateQueryTimeout  time.Duration

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int
	RatesCacheTTL    time.Duration

	EmailEnabled     bool
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	EmailFromName    string
	EmailFromAddress string

	GotenbergURL      string
	GotenbergUsername string
	GotenbergPassword string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOUseSSL    bool
	QuotePDFBucket string

	NotifyWebhookURL string
	NotifyWebhookKey string

	TenantsFile string
}

// Load reads configuration from the environment (and an optional .env file).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTAccessSecret: getEnv("JWT_ACCESS_SECRET", ""),

		CORSAllowAll: strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true"),
		CORSOrigins:  splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200")),

		WarehouseAddr:     getEnv("WAREHOUSE_ADDR", "localhost:9000"),
		WarehouseDatabase: getEnv("WAREHOUSE_DATABASE", "rates"),
		WarehouseUsername: getEnv("WAREHOUSE_USERNAME", "default"),
		WarehousePassword: getEnv("WAREHOUSE_PASSWORD", ""),
		RateQueryTimeout:  mustDuration(getEnv("RATE_QUERY_TIMEOUT", "10s")),

		RedisURL:         getEnv("REDIS_URL", ""),
		RedisTLSInsecure: strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency: getIntEnv("ASYNQ_CONCURRENCY", 10),
		RatesCacheTTL:    mustDuration(getEnv("RATES_CACHE_TTL", "5m")),

		EmailEnabled:     strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true"),
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         getIntEnv("SMTP_PORT", 587),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "Travel Desk"),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),

		GotenbergURL:      getEnv("GOTENBERG_URL", ""),
		GotenbergUsername: getEnv("GOTENBERG_USERNAME", ""),
		GotenbergPassword: getEnv("GOTENBERG_PASSWORD", ""),

		MinIOEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:    strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		QuotePDFBucket: getEnv("MINIO_BUCKET_QUOTE_PDFS", "quote-pdfs"),

		NotifyWebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		NotifyWebhookKey: getEnv("NOTIFY_WEBHOOK_KEY", ""),

		TenantsFile: getEnv("TENANTS_FILE", "tenants.yaml"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.EmailEnabled && cfg.SMTPHost != "" && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}

	return cfg, nil
}

// =============================================================================
// Interface implementations
// =============================================================================

func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

func (c *Config) GetHTTPAddr() string { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

func (c *Config) GetWarehouseAddr() string { return c.WarehouseAddr }
func (c *Config) GetWarehouseDatabase() string { return c.WarehouseDatabase }
func (c *Config) GetWarehouseUsername() string { return c.WarehouseUsername }
func (c *Config) GetWarehousePassword() string { return c.WarehousePassword }
func (c *Config) GetRateQueryTimeout() time.Duration { return c.RateQueryTimeout }

func (c *Config) GetRedisURL() string { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int { return c.AsynqConcurrency }
func (c *Config) GetRatesCacheTTL() time.Duration { return c.RatesCacheTTL }

func (c *Config) GetEmailEnabled() bool { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string { return c.SMTPHost }
func (c *Config) GetSMTPPort() int { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }

func (c *Config) GetGotenbergURL() string { return c.GotenbergURL }
func (c *Config) GetGotenbergUsername() string { return c.GotenbergUsername }
func (c *Config) GetGotenbergPassword() string { return c.GotenbergPassword }
func (c *Config) IsGotenbergEnabled() bool { return c.GotenbergURL != "" }

func (c *Config) GetMinIOEndpoint() string { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool { return c.MinIOUseSSL }
func (c *Config) GetQuotePDFBucket() string { return c.QuotePDFBucket }
func (c *Config) IsMinIOEnabled() bool { return c.MinIOEndpoint != "" }

func (c *Config) GetNotifyWebhookURL() string { return c.NotifyWebhookURL }
func (c *Config) GetNotifyWebhookKey() string { return c.NotifyWebhookKey }

func (c *Config) GetTenantsFile() string { return c.TenantsFile }

// =============================================================================
// Helpers
// =============================================================================

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	val, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return val
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
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
