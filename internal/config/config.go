// Package config provides configuration loading and validation from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/adhocore/gronx"
)

// Defaults for optional settings.
const (
	DefaultLogLevel          = "info"
	DefaultListenAddr        = ":8080"
	DefaultDatabasePath      = "/data/palettes.db"
	DefaultMetricsListenAddr = "localhost:9090"
	DefaultRateLimit         = 30
	DefaultRateWindow        = 60 * time.Second
	DefaultSessionIdleTTL    = 30 * 24 * time.Hour
	DefaultSweepCron         = "0 3 * * *"
	DefaultMaxBodyBytes      = 64 << 10

	// MinAdminTokenLength bounds how weak the admin bearer credential may be.
	MinAdminTokenLength = 16
)

// Config holds all application configuration.
type Config struct {
	LogLevel          string        // debug, info, warn, error
	ListenAddr        string        // API listen address (e.g., ":8080")
	DatabasePath      string        // SQLite database path
	MetricsListenAddr string        // Metrics listener address (e.g., "localhost:9090")
	AdminToken        string        // Required: bearer credential for /admin routes
	IPHashSalt        string        // Required: HMAC key for stored client address hashes
	RateLimit         int           // Requests admitted per client per window
	RateWindow        time.Duration // Length of a rate limit window
	SessionIdleTTL    time.Duration // Sessions idle longer than this are swept
	SweepCron         string        // Cron expression for the retention sweep
	MaxBodyBytes      int64         // Request body size limit
}

// Load parses configuration from environment variables.
// Optional settings fall back to defaults; malformed numbers and durations are errors.
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:          envOr("LOG_LEVEL", DefaultLogLevel),
		ListenAddr:        envOr("LISTEN_ADDR", DefaultListenAddr),
		DatabasePath:      envOr("DATABASE_PATH", DefaultDatabasePath),
		MetricsListenAddr: envOr("METRICS_LISTEN_ADDR", DefaultMetricsListenAddr),
		AdminToken:        os.Getenv("ADMIN_TOKEN"),
		IPHashSalt:        os.Getenv("IP_HASH_SALT"),
		SweepCron:         envOr("SWEEP_CRON", DefaultSweepCron),
	}

	var err error
	if cfg.RateLimit, err = envInt("RATE_LIMIT", DefaultRateLimit); err != nil {
		return nil, err
	}
	if cfg.RateWindow, err = envDuration("RATE_WINDOW", DefaultRateWindow); err != nil {
		return nil, err
	}
	if cfg.SessionIdleTTL, err = envDuration("SESSION_IDLE_TTL", DefaultSessionIdleTTL); err != nil {
		return nil, err
	}
	maxBody, err := envInt("MAX_BODY_BYTES", DefaultMaxBodyBytes)
	if err != nil {
		return nil, err
	}
	cfg.MaxBodyBytes = int64(maxBody)

	return cfg, nil
}

// Validate checks all configuration constraints.
func (c *Config) Validate() error {
	if c.AdminToken == "" {
		return fmt.Errorf("ADMIN_TOKEN environment variable is required")
	}
	if len(c.AdminToken) < MinAdminTokenLength {
		return fmt.Errorf("ADMIN_TOKEN must be at least %d characters", MinAdminTokenLength)
	}
	if c.IPHashSalt == "" {
		return fmt.Errorf("IP_HASH_SALT environment variable is required")
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error", c.LogLevel)
	}

	if c.RateLimit <= 0 {
		return fmt.Errorf("RATE_LIMIT must be positive, got %d", c.RateLimit)
	}
	if c.RateWindow <= 0 {
		return fmt.Errorf("RATE_WINDOW must be positive, got %s", c.RateWindow)
	}
	if c.SessionIdleTTL <= 0 {
		return fmt.Errorf("SESSION_IDLE_TTL must be positive, got %s", c.SessionIdleTTL)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", c.MaxBodyBytes)
	}
	if !gronx.IsValid(c.SweepCron) {
		return fmt.Errorf("SWEEP_CRON %q is not a valid cron expression", c.SweepCron)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 60s or 720h: %w", key, err)
	}
	return d, nil
}
