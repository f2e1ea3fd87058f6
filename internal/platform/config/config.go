package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr                  string
	Environment           string
	LogLevel              string
	DatabaseURL           string
	JWTSecret             string
	RunMigrations         bool
	MigrationsDir         string
	MaxBodyBytes          int64
	RateLimitPerMinute    int
	MonitorInterval       time.Duration
	MonitorConcurrency    int
	OwnerHistoryCacheSize int
	OwnerHistoryCacheTTL  time.Duration
	ScoringConfigPath     string
	MetricsEnabled        bool
}

func Load() Config {
	return Config{
		Addr:                  getEnv("APP_ADDR", ":8080"),
		Environment:           getEnv("APP_ENV", "development"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		JWTSecret:             getEnv("JWT_SECRET", ""),
		RunMigrations:         getEnvBool("RUN_MIGRATIONS", true),
		MigrationsDir:         getEnv("MIGRATIONS_DIR", "migrations"),
		MaxBodyBytes:          int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimitPerMinute:    getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		MonitorInterval:       getEnvDuration("MONITOR_INTERVAL", 24*time.Hour),
		MonitorConcurrency:    getEnvInt("MONITOR_CONCURRENCY", 8),
		OwnerHistoryCacheSize: getEnvInt("OWNER_HISTORY_CACHE_SIZE", 1024),
		OwnerHistoryCacheTTL:  getEnvDuration("OWNER_HISTORY_CACHE_TTL", 10*time.Minute),
		ScoringConfigPath:     getEnv("SCORING_CONFIG_PATH", ""),
		MetricsEnabled:        getEnvBool("METRICS_ENABLED", true),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.IsProduction() && len(strings.TrimSpace(c.JWTSecret)) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.MonitorInterval < time.Minute {
		return fmt.Errorf("MONITOR_INTERVAL must be at least 1m")
	}
	if c.MonitorConcurrency <= 0 {
		return fmt.Errorf("MONITOR_CONCURRENCY must be positive")
	}
	if c.OwnerHistoryCacheSize <= 0 {
		return fmt.Errorf("OWNER_HISTORY_CACHE_SIZE must be positive")
	}
	if c.OwnerHistoryCacheTTL <= 0 {
		return fmt.Errorf("OWNER_HISTORY_CACHE_TTL must be positive")
	}
	return nil
}
