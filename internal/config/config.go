// Package config reads the service settings from the environment.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config holds the whole service configuration. It is read once at startup
// and treated as immutable; command-line flags override it in main.
type Config struct {
	// Storage
	DBPath string

	// Server
	Addr       string
	CORSOrigin string

	// Logging
	LogPath   string
	LogLevel  slog.Level
	LogFormat string

	// Bootstrap
	AdminEmail string

	// Sessions
	TokenTTL time.Duration

	// Lending
	AutoLock bool

	// Rate limits, per user per minute
	RateLimitGeneral  int
	RateLimitRequests int

	// Observability and upkeep
	MetricsEnabled bool
	SweepSchedule  string
}

// Load reads Config from BORROW_* environment variables. Unset or invalid
// values fall back to their defaults.
func Load() *Config {
	return &Config{
		DBPath:            getEnvString("BORROW_DB", "borrow.sqlite3"),
		Addr:              getEnvString("BORROW_ADDR", ":8080"),
		LogPath:           getEnvString("BORROW_LOG", ""),
		LogLevel:          getEnvLevel("BORROW_LOG_LEVEL", slog.LevelInfo),
		LogFormat:         getEnvString("BORROW_LOG_FORMAT", "text"),
		CORSOrigin:        getEnvString("BORROW_CORS_ORIGIN", "http://localhost:3000"),
		AdminEmail:        getEnvString("BORROW_ADMIN_EMAIL", "admin@borrow.local"),
		TokenTTL:          getEnvDuration("BORROW_TOKEN_TTL", 7*24*time.Hour),
		AutoLock:          getEnvBool("BORROW_AUTO_LOCK", true),
		RateLimitGeneral:  getEnvInt("BORROW_RATE_LIMIT_GENERAL", 120),
		RateLimitRequests: getEnvInt("BORROW_RATE_LIMIT_REQUESTS", 10),
		MetricsEnabled:    getEnvBool("BORROW_METRICS", true),
		SweepSchedule:     getEnvString("BORROW_SWEEP_SCHEDULE", "@every 1h"),
	}
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func getEnvLevel(key string, defaultVal slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return defaultVal
	}
	return level
}
