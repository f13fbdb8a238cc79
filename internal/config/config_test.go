package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_DefaultValues(t *testing.T) {
	for _, key := range []string{
		"BORROW_DB", "BORROW_ADDR", "BORROW_LOG", "BORROW_LOG_LEVEL", "BORROW_LOG_FORMAT", "BORROW_CORS_ORIGIN", "BORROW_ADMIN_EMAIL",
		"BORROW_TOKEN_TTL", "BORROW_AUTO_LOCK", "BORROW_RATE_LIMIT_GENERAL",
		"BORROW_RATE_LIMIT_REQUESTS", "BORROW_METRICS", "BORROW_SWEEP_SCHEDULE",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "borrow.sqlite3", cfg.DBPath)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Empty(t, cfg.LogPath)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "http://localhost:3000", cfg.CORSOrigin)
	assert.Equal(t, "admin@borrow.local", cfg.AdminEmail)
	assert.Equal(t, 168*time.Hour, cfg.TokenTTL)
	assert.True(t, cfg.AutoLock)
	assert.Equal(t, 120, cfg.RateLimitGeneral)
	assert.Equal(t, 10, cfg.RateLimitRequests)
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, "@every 1h", cfg.SweepSchedule)
}

func TestLoad_CustomValues(t *testing.T) {
	t.Setenv("BORROW_DB", "/var/lib/borrow/db.sqlite3")
	t.Setenv("BORROW_ADDR", "127.0.0.1:9000")
	t.Setenv("BORROW_TOKEN_TTL", "2h")
	t.Setenv("BORROW_LOG_LEVEL", "debug")
	t.Setenv("BORROW_LOG_FORMAT", "json")
	t.Setenv("BORROW_AUTO_LOCK", "false")
	t.Setenv("BORROW_RATE_LIMIT_REQUESTS", "3")
	t.Setenv("BORROW_METRICS", "0")
	t.Setenv("BORROW_SWEEP_SCHEDULE", "*/5 * * * *")

	cfg := Load()

	assert.Equal(t, "/var/lib/borrow/db.sqlite3", cfg.DBPath)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.False(t, cfg.AutoLock)
	assert.Equal(t, 3, cfg.RateLimitRequests)
	assert.False(t, cfg.MetricsEnabled)
	assert.Equal(t, "*/5 * * * *", cfg.SweepSchedule)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("BORROW_TOKEN_TTL", "forever")
	t.Setenv("BORROW_LOG_LEVEL", "loud")
	t.Setenv("BORROW_AUTO_LOCK", "sometimes")
	t.Setenv("BORROW_RATE_LIMIT_GENERAL", "lots")
	t.Setenv("BORROW_RATE_LIMIT_REQUESTS", "-1")

	cfg := Load()

	assert.Equal(t, 168*time.Hour, cfg.TokenTTL)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.True(t, cfg.AutoLock)
	assert.Equal(t, 120, cfg.RateLimitGeneral)
	assert.Equal(t, 10, cfg.RateLimitRequests)
}
