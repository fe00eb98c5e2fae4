package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sparkmatch/sparkmatch/internal/database"
)

// Config holds runtime settings loaded from env vars.
type Config struct {
	HTTPAddr    string
	Environment string
	LogLevel    string
	LogFile     string

	Database database.Config
	RedisURL string

	TracingEnabled  bool
	RateLimitMax    int
	RateLimitEvery  time.Duration
	ShutdownTimeout time.Duration
}

// Load loads configuration from environment variables.
// Optional variables with defaults: HTTP_ADDR, ENVIRONMENT, LOG_LEVEL,
// LOG_FILE, DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME, DB_SSLMODE,
// REDIS_URL, TRACING_ENABLED, RATE_LIMIT_MAX, RATE_LIMIT_INTERVAL.
func Load() Config {
	return Config{
		HTTPAddr:    envOr("HTTP_ADDR", ":8080"),
		Environment: envOr("ENVIRONMENT", "development"),
		LogLevel:    envOr("LOG_LEVEL", "info"),
		LogFile:     os.Getenv("LOG_FILE"),

		Database: database.Config{
			Host:     envOr("DB_HOST", "localhost"),
			Port:     envOr("DB_PORT", "5432"),
			User:     envOr("DB_USER", "postgres"),
			Password: envOr("DB_PASSWORD", ""),
			DBName:   envOr("DB_NAME", "sparkmatch"),
			SSLMode:  envOr("DB_SSLMODE", "disable"),
		},
		RedisURL: envOr("REDIS_URL", "redis://localhost:6379/0"),

		TracingEnabled:  envBool("TRACING_ENABLED", true),
		RateLimitMax:    envInt("RATE_LIMIT_MAX", 60),
		RateLimitEvery:  envDuration("RATE_LIMIT_INTERVAL", time.Second),
		ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// Validate checks that all required configuration is present and valid.
func (c Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
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

func envInt(key string, fallback int) int {
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

func envDuration(key string, fallback time.Duration) time.Duration {
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
