// Package config loads runtime settings from the environment
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the settings shared by the server and the CLI
type Config struct {
	Port          string
	CORSOrigin    string
	NATSURL       string
	RateLimit     float64 // mutating requests per second, 0 disables limiting
	RateBurst     int
	LogLevel      slog.Level
	ScriptTimeout time.Duration
}

// Load reads the configuration from environment variables, falling back to
// defaults for anything unset. Malformed values are errors.
func Load() (Config, error) {
	cfg := Config{
		Port:       envOr("CIRCUIT_PORT", "8080"),
		CORSOrigin: envOr("CIRCUIT_CORS_ORIGIN", "*"),
		NATSURL:    os.Getenv("NATS_URL"),
	}

	var err error
	if cfg.RateLimit, err = strconv.ParseFloat(envOr("CIRCUIT_RATE_LIMIT", "20"), 64); err != nil || cfg.RateLimit < 0 {
		return cfg, fmt.Errorf("invalid CIRCUIT_RATE_LIMIT: %q", os.Getenv("CIRCUIT_RATE_LIMIT"))
	}
	if cfg.RateBurst, err = strconv.Atoi(envOr("CIRCUIT_RATE_BURST", "40")); err != nil || cfg.RateBurst < 1 {
		return cfg, fmt.Errorf("invalid CIRCUIT_RATE_BURST: %q", os.Getenv("CIRCUIT_RATE_BURST"))
	}
	if cfg.LogLevel, err = ParseLevel(envOr("CIRCUIT_LOG_LEVEL", "info")); err != nil {
		return cfg, err
	}
	if cfg.ScriptTimeout, err = time.ParseDuration(envOr("CIRCUIT_SCRIPT_TIMEOUT", "5s")); err != nil || cfg.ScriptTimeout <= 0 {
		return cfg, fmt.Errorf("invalid CIRCUIT_SCRIPT_TIMEOUT: %q", os.Getenv("CIRCUIT_SCRIPT_TIMEOUT"))
	}
	return cfg, nil
}

// ParseLevel converts a level name to a slog level
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}

// NewLogger returns a JSON logger at the configured level
func (c Config) NewLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: c.LogLevel}))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
