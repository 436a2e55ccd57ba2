package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadRequiresVerifyToken(t *testing.T) {
	setCoreEnvEmpty(t)

	_, err := Load()
	if !errors.Is(err, ErrMissingVerifyToken) {
		t.Fatalf("Load() error = %v, want %v", err, ErrMissingVerifyToken)
	}
}

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("FB_VERIFY_TOKEN", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":8445" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8445")
	}
	if cfg.CallTimeout != 10*time.Second {
		t.Fatalf("CallTimeout = %v, want 10s", cfg.CallTimeout)
	}
	if cfg.SessionIdleTTL != 0 {
		t.Fatalf("SessionIdleTTL = %v, want 0", cfg.SessionIdleTTL)
	}
	if cfg.WitMaxSteps != 5 {
		t.Fatalf("WitMaxSteps = %d, want 5", cfg.WitMaxSteps)
	}
	if cfg.NLPProvider != "auto" {
		t.Fatalf("NLPProvider = %q, want %q", cfg.NLPProvider, "auto")
	}
	if !cfg.TranscriptRedactPII {
		t.Fatalf("TranscriptRedactPII = false, want true")
	}
}

func TestLoadPortFallback(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("FB_VERIFY_TOKEN", "secret")
	t.Setenv("PORT", "9191")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":9191" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":9191")
	}

	t.Setenv("APP_BIND_ADDR", "127.0.0.1:7000")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != "127.0.0.1:7000" {
		t.Fatalf("BindAddr = %q, want explicit bind addr", cfg.BindAddr)
	}
}

func TestLoadRejectsShortIdleTTL(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("FB_VERIFY_TOKEN", "secret")
	t.Setenv("APP_SESSION_IDLE_TTL", "1s")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() expected error for 1s idle ttl")
	}
}

func TestLoadRejectsInvalidBool(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("FB_VERIFY_TOKEN", "secret")
	t.Setenv("TRANSCRIPT_REDACT_PII", "maybe")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() expected error for invalid bool")
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"PORT",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_CALL_TIMEOUT",
		"APP_SESSION_IDLE_TTL",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"FB_PAGE_ID",
		"FB_PAGE_TOKEN",
		"FB_VERIFY_TOKEN",
		"FB_APP_SECRET",
		"FB_GRAPH_URL",
		"MESSENGER_PROVIDER",
		"MESSENGER_MAX_ATTEMPTS",
		"NLP_PROVIDER",
		"WIT_TOKEN",
		"WIT_BASE_URL",
		"WIT_API_VERSION",
		"WIT_MAX_STEPS",
		"VISION_PROVIDER",
		"CLOUD_VISION_API_KEY",
		"VISION_BASE_URL",
		"VENUE_PROVIDER",
		"FSQ_KEY",
		"FSQ_SECRET",
		"FSQ_BASE_URL",
		"FSQ_API_VERSION",
		"DATABASE_URL",
		"TRANSCRIPT_REDACT_PII",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
