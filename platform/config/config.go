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

// JWTConfig provides JWT validation settings for the admin middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// CRMConfig provides settings for the SuiteDash CRM integration.
// Credentials may legitimately be absent; callers must treat a missing
// public/secret key pair as "CRM disabled", never as a startup failure.
type CRMConfig interface {
	GetCRMBaseURL() string
	GetCRMPublicID() string
	GetCRMSecretKey() string
	GetCRMTimeout() time.Duration
	GetCRMInvoicingEnabled() bool
	IsCRMProduction() bool
}

// EmailConfig provides settings for email sending.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetBrevoAPIKey() string
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// NotificationConfig provides settings for the notification module.
type NotificationConfig interface {
	GetAppBaseURL() string
	GetAdminAlertAddress() string
}

// SchedulerConfig provides settings for the asynq-based background worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetSyncSweepInterval() time.Duration
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env               string
	HTTPAddr          string
	DatabaseURL       string
	JWTAccessSecret   string
	CORSAllowAll      bool
	CORSOrigins       []string
	CORSAllowCreds    bool
	AppBaseURL        string
	AdminAlertAddress string

	CRMBaseURL          string
	CRMPublicID         string
	CRMSecretKey        string
	CRMTimeout          time.Duration
	CRMInvoicingEnabled bool
	CRMProduction       bool

	EmailEnabled     bool
	BrevoAPIKey      string
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	EmailFromName    string
	EmailFromAddress string

	RedisURL          string
	RedisTLSInsecure  bool
	AsynqQueueName    string
	AsynqConcurrency  int
	SyncSweepInterval time.Duration
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// CRMConfig implementation
func (c *Config) GetCRMBaseURL() string        { return c.CRMBaseURL }
func (c *Config) GetCRMPublicID() string       { return c.CRMPublicID }
func (c *Config) GetCRMSecretKey() string      { return c.CRMSecretKey }
func (c *Config) GetCRMTimeout() time.Duration { return c.CRMTimeout }
func (c *Config) GetCRMInvoicingEnabled() bool { return c.CRMInvoicingEnabled }
func (c *Config) IsCRMProduction() bool        { return c.CRMProduction }

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetBrevoAPIKey() string      { return c.BrevoAPIKey }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }

// NotificationConfig implementation
func (c *Config) GetAppBaseURL() string        { return c.AppBaseURL }
func (c *Config) GetAdminAlertAddress() string { return c.AdminAlertAddress }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string                 { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool           { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string           { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int            { return c.AsynqConcurrency }
func (c *Config) GetSyncSweepInterval() time.Duration { return c.SyncSweepInterval }

// IsCRMConfigured reports whether CRM credentials are present.
func (c *Config) IsCRMConfigured() bool {
	return c.CRMPublicID != "" && c.CRMSecretKey != ""
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	brevoAPIKey := getEnv("BREVO_API_KEY", "")
	smtpHost := getEnv("SMTP_HOST", "")
	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")

	cfg := &Config{
		Env:               getEnv("APP_ENV", "development"),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		JWTAccessSecret:   getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:      corsAllowAll,
		CORSOrigins:       corsOrigins,
		CORSAllowCreds:    strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		AppBaseURL:        getEnv("APP_BASE_URL", "http://localhost:4200"),
		AdminAlertAddress: getEnv("ADMIN_ALERT_ADDRESS", ""),

		CRMBaseURL:          getEnv("SUITEDASH_BASE_URL", "https://app.suitedash.com/secure-api"),
		CRMPublicID:         getEnv("SUITEDASH_PUBLIC_ID", ""),
		CRMSecretKey:        getEnv("SUITEDASH_SECRET_KEY", ""),
		CRMTimeout:          mustDuration(getEnv("SUITEDASH_TIMEOUT", "10s")),
		CRMInvoicingEnabled: strings.EqualFold(getEnv("SUITEDASH_INVOICING_ENABLED", "true"), "true"),
		CRMProduction:       strings.EqualFold(getEnv("SUITEDASH_PRODUCTION", "true"), "true"),

		EmailEnabled:     emailEnabled && (brevoAPIKey != "" || smtpHost != ""),
		BrevoAPIKey:      brevoAPIKey,
		SMTPHost:         smtpHost,
		SMTPPort:         int(mustInt64(getEnv("SMTP_PORT", "587"))),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "Consultancy"),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),

		RedisURL:          getEnv("REDIS_URL", ""),
		RedisTLSInsecure:  strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:    getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:  int(mustInt64(getEnv("ASYNQ_CONCURRENCY", "10"))),
		SyncSweepInterval: mustDuration(getEnv("SYNC_SWEEP_INTERVAL", "15m")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.EmailEnabled && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if (cfg.CRMPublicID == "") != (cfg.CRMSecretKey == "") {
		return nil, fmt.Errorf("SUITEDASH_PUBLIC_ID and SUITEDASH_SECRET_KEY must be set together")
	}
	if cfg.CRMTimeout <= 0 {
		cfg.CRMTimeout = 10 * time.Second
	}

	return cfg, nil
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

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
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
