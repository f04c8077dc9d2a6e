// Package config provides centralized configuration loaded from
// environment variables. Shared by cmd/spotfenced and cmd/spotfence.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is populated from environment variables with sensible defaults.
type Config struct {
	// Database (optional; without it the service runs on an in-memory
	// spot list fed over the API)
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// HTTP rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Engine
	MonitorCap         int
	MovementThresholdM float64
	SettleDelay        time.Duration
	ResyncInterval     time.Duration
	EventQueueSize     int

	// Startup state. A headless deployment has no OS permission prompt,
	// so the service assumes "always" authorization unless told otherwise.
	ToggleEnabled    bool
	AssumeAlwaysAuth bool

	// Notifications
	NotifyPerMinute int
	NotifyBurst     int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	return &Config{
		DatabaseURL:    envOr("SPOTFENCE_DATABASE_URL", envOr("DATABASE_URL", "")),
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		MonitorCap:         envInt("MONITOR_CAP", 20),
		MovementThresholdM: envFloat("MOVEMENT_THRESHOLD_M", 500),
		SettleDelay:        time.Duration(envInt("SETTLE_DELAY_MS", 2000)) * time.Millisecond,
		ResyncInterval:     time.Duration(envInt("RESYNC_INTERVAL_SECONDS", 300)) * time.Second,
		EventQueueSize:     envInt("EVENT_QUEUE_SIZE", 64),

		ToggleEnabled:    envBool("PROXIMITY_ALERTS_ENABLED", true),
		AssumeAlwaysAuth: envBool("ASSUME_ALWAYS_AUTH", true),

		NotifyPerMinute: envInt("NOTIFY_PER_MINUTE", 10),
		NotifyBurst:     envInt("NOTIFY_BURST", 5),
	}, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
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

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
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
