package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("port = %q, want 8080", cfg.Port)
	}
	if cfg.GinMode != "release" {
		t.Fatalf("gin mode = %q, want release", cfg.GinMode)
	}
	if cfg.APIBasePath != "/api/v1" {
		t.Fatalf("base path = %q, want /api/v1", cfg.APIBasePath)
	}
	if cfg.ConfirmationTTL != 5*time.Minute {
		t.Fatalf("confirmation ttl = %v, want 5m", cfg.ConfirmationTTL)
	}
	if cfg.RateRPS != 5.0 || cfg.RateBurst != 10 {
		t.Fatalf("rate limits = (%v, %d), want (5, 10)", cfg.RateRPS, cfg.RateBurst)
	}
	if len(cfg.CORS.AllowedOrigins) != 0 {
		t.Fatalf("default cors origins must be empty")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("GIN_MODE", "DEBUG")
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("API_BASE_PATH", "api/v2/")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , https://b.example ,")
	t.Setenv("CONFIRMATION_TTL", "90s")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("port = %q", cfg.Port)
	}
	if cfg.GinMode != "debug" {
		t.Fatalf("gin mode = %q, want debug", cfg.GinMode)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("log level = %q, want warn", cfg.LogLevel)
	}
	if cfg.APIBasePath != "/api/v2" {
		t.Fatalf("base path = %q, want /api/v2", cfg.APIBasePath)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 {
		t.Fatalf("cors origins = %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.ConfirmationTTL != 90*time.Second {
		t.Fatalf("confirmation ttl = %v", cfg.ConfirmationTTL)
	}
	if cfg.Auth.JWTSecret != "s3cret" {
		t.Fatalf("jwt secret not read")
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := map[string]string{
		"LOG_LEVEL":        "verbose",
		"READ_TIMEOUT":     "-5s",
		"RATE_BURST":       "0",
		"CONFIRMATION_TTL": "-1m",
		"MAX_BODY_BYTES":   "-1",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			if _, err := Load(); err == nil {
				t.Fatalf("%s=%s must fail validation", key, val)
			}
		})
	}
}

func TestLoad_BadValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("RATE_RPS", "many")
	t.Setenv("READ_TIMEOUT", "soon")
	t.Setenv("GIN_MODE", "turbo")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RateRPS != 5.0 {
		t.Fatalf("rate rps = %v, want default 5", cfg.RateRPS)
	}
	if cfg.ReadTimeout != 15*time.Second {
		t.Fatalf("read timeout = %v, want default 15s", cfg.ReadTimeout)
	}
	if cfg.GinMode != "release" {
		t.Fatalf("gin mode = %q, want release", cfg.GinMode)
	}
}
