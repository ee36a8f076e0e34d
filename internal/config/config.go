// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/pointsync.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultLoyverseURL is the Loyverse customers list endpoint.
const DefaultLoyverseURL = "https://api.loyverse.com/v1.0/customers"

// DefaultSchedule checks for point updates every minute.
const DefaultSchedule = "* * * * *"

// --------------------------------------------------------------------------
// Config struct, populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Loyverse source
	LoyverseAPIToken       string
	LoyverseAPIURL         string
	LoyverseTimeout        time.Duration
	LoyverseRequestsPerMin int

	// Webhook target
	WebhookURL     string
	WebhookSecret  string
	WebhookTimeout time.Duration

	// Scheduling
	CheckSchedule string
	CheckOnStart  bool

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool
	LogFormat   string // text, json

	// CORS
	CORSAllowOrigins []string

	// Rate limiting (manual trigger)
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Delivery journal (optional)
	DatabaseURL            string
	DBPoolMinConns         int
	DBPoolMaxConns         int
	DBPoolMaxLife          time.Duration
	JournalRetentionDays   int
	JournalCleanupInterval time.Duration
}

// Load reads configuration from environment variables with sensible defaults
// and validates everything the server needs.
func Load() (*Config, error) {
	cfg := Read()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read reads configuration from environment variables without validating it.
// Callers that only need part of the config check it with the Validate*
// methods for that part.
func Read() *Config {
	return &Config{
		LoyverseAPIToken:       envOr("LOYVERSE_API_TOKEN", ""),
		LoyverseAPIURL:         envOr("LOYVERSE_API_URL", DefaultLoyverseURL),
		LoyverseTimeout:        envDuration("LOYVERSE_TIMEOUT", 30*time.Second),
		LoyverseRequestsPerMin: envInt("LOYVERSE_REQUESTS_PER_MINUTE", 60),

		WebhookURL:     envOr("WEBHOOK_URL", ""),
		WebhookSecret:  envOr("WEBHOOK_SECRET", ""),
		WebhookTimeout: envDuration("WEBHOOK_TIMEOUT", 10*time.Second),

		CheckSchedule: envOr("CHECK_SCHEDULE", DefaultSchedule),
		CheckOnStart:  envBool("CHECK_ON_START", false),

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("PORT", 3000),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),
		LogFormat:   envOr("LOG_FORMAT", "text"),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 30),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		DatabaseURL:            envOr("DATABASE_URL", ""),
		DBPoolMinConns:         envInt("DB_POOL_MIN_CONNS", 1),
		DBPoolMaxConns:         envInt("DB_POOL_MAX_CONNS", 4),
		DBPoolMaxLife:          time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,
		JournalRetentionDays:   envInt("JOURNAL_RETENTION_DAYS", 30),
		JournalCleanupInterval: envDuration("JOURNAL_CLEANUP_INTERVAL", time.Hour),
	}
}

// Validate checks required values and the cron expression.
func (c *Config) Validate() error {
	var errs []error
	errs = append(errs, c.ValidateSource(), c.ValidateWebhook())
	if _, err := cron.ParseStandard(c.CheckSchedule); err != nil {
		errs = append(errs, fmt.Errorf("CHECK_SCHEDULE %q: %w", c.CheckSchedule, err))
	}
	return errors.Join(errs...)
}

// ValidateSource checks the Loyverse settings.
func (c *Config) ValidateSource() error {
	var errs []error
	if c.LoyverseAPIToken == "" {
		errs = append(errs, errors.New("LOYVERSE_API_TOKEN must be set"))
	}
	if c.LoyverseRequestsPerMin <= 0 {
		errs = append(errs, errors.New("LOYVERSE_REQUESTS_PER_MINUTE must be positive"))
	}
	return errors.Join(errs...)
}

// ValidateWebhook checks the webhook target.
func (c *Config) ValidateWebhook() error {
	if c.WebhookURL == "" {
		return errors.New("WEBHOOK_URL must be set")
	}
	return nil
}

// ValidateDatabase checks that a journal database is configured.
func (c *Config) ValidateDatabase() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL must be set")
	}
	return nil
}

// JournalEnabled reports whether a database is configured for the delivery journal.
func (c *Config) JournalEnabled() bool {
	return c.DatabaseURL != ""
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

// envDuration accepts Go durations ("45s") or a bare number of seconds.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
