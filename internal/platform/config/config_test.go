package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Addr:                  ":8080",
		Environment:           "development",
		LogLevel:              "info",
		DatabaseURL:           "postgres://localhost/goalrisk",
		MaxBodyBytes:          1 << 20,
		RateLimitPerMinute:    60,
		MonitorInterval:       time.Hour,
		MonitorConcurrency:    4,
		OwnerHistoryCacheSize: 128,
		OwnerHistoryCacheTTL:  time.Minute,
	}
}

func TestLoadReadsEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db/goalrisk")
	t.Setenv("MONITOR_INTERVAL", "2h")
	t.Setenv("MONITOR_CONCURRENCY", "3")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")

	cfg := Load()
	if cfg.DatabaseURL != "postgres://db/goalrisk" {
		t.Fatalf("unexpected database url %q", cfg.DatabaseURL)
	}
	if cfg.MonitorInterval != 2*time.Hour || cfg.MonitorConcurrency != 3 {
		t.Fatalf("unexpected monitor settings: %v / %d", cfg.MonitorInterval, cfg.MonitorConcurrency)
	}
	if cfg.MetricsEnabled {
		t.Fatal("expected metrics disabled")
	}
	if cfg.RateLimitPerMinute != 60 {
		t.Fatalf("expected fallback rate limit, got %d", cfg.RateLimitPerMinute)
	}
	if cfg.OwnerHistoryCacheTTL != 10*time.Minute {
		t.Fatalf("expected default cache ttl, got %v", cfg.OwnerHistoryCacheTTL)
	}
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := map[string]func(*Config){
		"DATABASE_URL":        func(c *Config) { c.DatabaseURL = "" },
		"JWT_SECRET":          func(c *Config) { c.Environment = "production"; c.JWTSecret = "short" },
		"LOG_LEVEL":           func(c *Config) { c.LogLevel = "verbose" },
		"MAX_BODY_BYTES":      func(c *Config) { c.MaxBodyBytes = 10 },
		"MONITOR_INTERVAL":    func(c *Config) { c.MonitorInterval = time.Second },
		"MONITOR_CONCURRENCY": func(c *Config) { c.MonitorConcurrency = 0 },
		"OWNER_HISTORY_CACHE": func(c *Config) { c.OwnerHistoryCacheSize = 0 },
	}
	for key, mutate := range cases {
		cfg := validConfig()
		mutate(&cfg)
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), key) {
			t.Fatalf("%s: expected validation error, got %v", key, err)
		}
	}
}
