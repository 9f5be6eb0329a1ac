// Package config loads the client's configuration from environment
// variables.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every knob the client binaries accept.
type Config struct {
	// APIBaseURL is the backend's HTTP base, e.g. "http://localhost:8080".
	APIBaseURL string `env:"DOENER_API_URL" envDefault:"http://localhost:8080"`

	// WSBaseURL is the push-channel base; the order id is appended as
	// "/ws/{orderId}".
	WSBaseURL string `env:"DOENER_WS_URL" envDefault:"ws://localhost:8080"`

	// CartDBPath is the SQLite file the cart persists to.
	CartDBPath string `env:"DOENER_CART_DB" envDefault:"cart.db"`

	// CartRedisAddr, when set, switches cart persistence from the local
	// SQLite file to a shared Redis instance.
	CartRedisAddr string `env:"DOENER_CART_REDIS_ADDR"`

	// RequestTimeout bounds the order-creation request.
	RequestTimeout time.Duration `env:"DOENER_REQUEST_TIMEOUT" envDefault:"10s"`

	// FirstUpdateTimeout bounds the wait for the first lifecycle message
	// after the channel opens. Expiry is non-fatal: the client reports the
	// status as unknown and keeps listening.
	FirstUpdateTimeout time.Duration `env:"DOENER_FIRST_UPDATE_TIMEOUT" envDefault:"30s"`

	// LogLevel is the slog level name (debug, info, warn, error).
	LogLevel slog.Level `env:"DOENER_LOG_LEVEL" envDefault:"info"`
}

// Parse reads the configuration from the environment.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
