package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"CIRCUIT_PORT", "CIRCUIT_CORS_ORIGIN", "NATS_URL", "CIRCUIT_RATE_LIMIT",
		"CIRCUIT_RATE_BURST", "CIRCUIT_LOG_LEVEL", "CIRCUIT_SCRIPT_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Port != "8080" || cfg.CORSOrigin != "*" || cfg.NATSURL != "" {
		t.Errorf("Unexpected defaults: %+v", cfg)
	}
	if cfg.RateLimit != 20 || cfg.RateBurst != 40 {
		t.Errorf("Unexpected rate defaults: %v/%d", cfg.RateLimit, cfg.RateBurst)
	}
	if cfg.LogLevel != slog.LevelInfo || cfg.ScriptTimeout != 5*time.Second {
		t.Errorf("Unexpected defaults: %v %v", cfg.LogLevel, cfg.ScriptTimeout)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("CIRCUIT_PORT", "9090")
	t.Setenv("NATS_URL", "nats://localhost:4222")
	t.Setenv("CIRCUIT_RATE_LIMIT", "0")
	t.Setenv("CIRCUIT_RATE_BURST", "3")
	t.Setenv("CIRCUIT_LOG_LEVEL", "DEBUG")
	t.Setenv("CIRCUIT_SCRIPT_TIMEOUT", "250ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Port != "9090" || cfg.NATSURL != "nats://localhost:4222" {
		t.Errorf("Unexpected config: %+v", cfg)
	}
	if cfg.RateLimit != 0 || cfg.RateBurst != 3 {
		t.Errorf("Unexpected rate settings: %v/%d", cfg.RateLimit, cfg.RateBurst)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("Expected debug level, got %v", cfg.LogLevel)
	}
	if cfg.ScriptTimeout != 250*time.Millisecond {
		t.Errorf("Expected 250ms, got %v", cfg.ScriptTimeout)
	}
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	cases := map[string]string{
		"CIRCUIT_RATE_LIMIT":     "fast",
		"CIRCUIT_RATE_BURST":     "0",
		"CIRCUIT_LOG_LEVEL":      "chatty",
		"CIRCUIT_SCRIPT_TIMEOUT": "-1s",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Errorf("Expected %s=%s to be rejected", key, value)
			}
		})
	}
}
