package config

import (
	"strings"
	"testing"
	"time"
)

var allKeys = []string{
	"LOG_LEVEL", "LISTEN_ADDR", "DATABASE_PATH", "METRICS_LISTEN_ADDR",
	"ADMIN_TOKEN", "IP_HASH_SALT", "RATE_LIMIT", "RATE_WINDOW",
	"SESSION_IDLE_TTL", "SWEEP_CRON", "MAX_BODY_BYTES",
}

// clearEnv blanks every config variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func validConfig() *Config {
	return &Config{
		LogLevel:       "info",
		AdminToken:     "0123456789abcdef",
		IPHashSalt:     "salt",
		RateLimit:      30,
		RateWindow:     time.Minute,
		SessionIdleTTL: 720 * time.Hour,
		SweepCron:      "0 3 * * *",
		MaxBodyBytes:   1024,
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want %q", cfg.ListenAddr, ":8080")
	}
	if cfg.DatabasePath != DefaultDatabasePath {
		t.Errorf("DatabasePath = %q, want %q", cfg.DatabasePath, DefaultDatabasePath)
	}
	if cfg.MetricsListenAddr != "localhost:9090" {
		t.Errorf("MetricsListenAddr = %q, want %q", cfg.MetricsListenAddr, "localhost:9090")
	}
	if cfg.RateLimit != 30 {
		t.Errorf("RateLimit = %d, want 30", cfg.RateLimit)
	}
	if cfg.RateWindow != 60*time.Second {
		t.Errorf("RateWindow = %s, want 60s", cfg.RateWindow)
	}
	if cfg.SessionIdleTTL != 720*time.Hour {
		t.Errorf("SessionIdleTTL = %s, want 720h", cfg.SessionIdleTTL)
	}
	if cfg.SweepCron != "0 3 * * *" {
		t.Errorf("SweepCron = %q, want daily at 03:00", cfg.SweepCron)
	}
	if cfg.MaxBodyBytes != 64*1024 {
		t.Errorf("MaxBodyBytes = %d, want 65536", cfg.MaxBodyBytes)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LISTEN_ADDR", ":9000")
	t.Setenv("DATABASE_PATH", "/tmp/p.db")
	t.Setenv("ADMIN_TOKEN", "admin-token-long-enough")
	t.Setenv("IP_HASH_SALT", "pepper")
	t.Setenv("RATE_LIMIT", "5")
	t.Setenv("RATE_WINDOW", "10s")
	t.Setenv("SESSION_IDLE_TTL", "48h")
	t.Setenv("SWEEP_CRON", "*/15 * * * *")
	t.Setenv("MAX_BODY_BYTES", "2048")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if cfg.LogLevel != "debug" || cfg.ListenAddr != ":9000" || cfg.DatabasePath != "/tmp/p.db" {
		t.Errorf("unexpected string settings: %+v", cfg)
	}
	if cfg.RateLimit != 5 || cfg.RateWindow != 10*time.Second {
		t.Errorf("unexpected rate settings: %d %s", cfg.RateLimit, cfg.RateWindow)
	}
	if cfg.SessionIdleTTL != 48*time.Hour {
		t.Errorf("SessionIdleTTL = %s, want 48h", cfg.SessionIdleTTL)
	}
	if cfg.SweepCron != "*/15 * * * *" || cfg.MaxBodyBytes != 2048 {
		t.Errorf("unexpected sweep/body settings: %q %d", cfg.SweepCron, cfg.MaxBodyBytes)
	}
}

func TestLoad_MalformedValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"RATE_LIMIT", "thirty"},
		{"RATE_WINDOW", "60"},
		{"SESSION_IDLE_TTL", "30d"},
		{"MAX_BODY_BYTES", "64KiB"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			if err == nil {
				t.Fatalf("Load() with %s=%q succeeded, want error", tt.key, tt.value)
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("error %q should name %s", err, tt.key)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing admin token", func(c *Config) { c.AdminToken = "" }, "ADMIN_TOKEN"},
		{"short admin token", func(c *Config) { c.AdminToken = "short" }, "at least"},
		{"missing salt", func(c *Config) { c.IPHashSalt = "" }, "IP_HASH_SALT"},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, "LOG_LEVEL"},
		{"upper case log level", func(c *Config) { c.LogLevel = "DEBUG" }, ""},
		{"zero rate limit", func(c *Config) { c.RateLimit = 0 }, "RATE_LIMIT"},
		{"negative window", func(c *Config) { c.RateWindow = -time.Second }, "RATE_WINDOW"},
		{"zero idle ttl", func(c *Config) { c.SessionIdleTTL = 0 }, "SESSION_IDLE_TTL"},
		{"zero body limit", func(c *Config) { c.MaxBodyBytes = 0 }, "MAX_BODY_BYTES"},
		{"bad cron", func(c *Config) { c.SweepCron = "every day" }, "SWEEP_CRON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}
