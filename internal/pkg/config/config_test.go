package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.APIBaseURL)
	assert.Equal(t, "ws://localhost:8080", cfg.WSBaseURL)
	assert.Equal(t, "cart.db", cfg.CartDBPath)
	assert.Empty(t, cfg.CartRedisAddr)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 30*time.Second, cfg.FirstUpdateTimeout)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("DOENER_API_URL", "https://doener.example")
	t.Setenv("DOENER_WS_URL", "wss://doener.example")
	t.Setenv("DOENER_CART_REDIS_ADDR", "redis:6379")
	t.Setenv("DOENER_FIRST_UPDATE_TIMEOUT", "90s")
	t.Setenv("DOENER_LOG_LEVEL", "debug")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "https://doener.example", cfg.APIBaseURL)
	assert.Equal(t, "wss://doener.example", cfg.WSBaseURL)
	assert.Equal(t, "redis:6379", cfg.CartRedisAddr)
	assert.Equal(t, 90*time.Second, cfg.FirstUpdateTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestParseRejectsBadDuration(t *testing.T) {
	t.Setenv("DOENER_REQUEST_TIMEOUT", "soon")
	_, err := Parse()
	assert.Error(t, err)
}
