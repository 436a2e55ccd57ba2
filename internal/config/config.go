package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrMissingVerifyToken is returned when FB_VERIFY_TOKEN is not configured.
var ErrMissingVerifyToken = errors.New("missing FB_VERIFY_TOKEN")

// Config contains all runtime settings for the webhook bridge.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	CallTimeout      time.Duration
	SessionIdleTTL   time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	PageID      string
	PageToken   string
	VerifyToken string
	AppSecret   string
	GraphURL    string

	MessengerProvider    string
	MessengerMaxAttempts int

	NLPProvider   string
	WitToken      string
	WitBaseURL    string
	WitAPIVersion string
	WitMaxSteps   int

	VisionProvider string
	VisionAPIKey   string
	VisionBaseURL  string

	VenueProvider    string
	FoursquareKey    string
	FoursquareSecret string
	FoursquareURL    string
	FoursquareAPIVer string

	DatabaseURL         string
	TranscriptRedactPII bool
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:             bindAddrFromEnv(),
		MetricsNamespace:     envOrDefault("APP_METRICS_NAMESPACE", "wayfinder"),
		AllowAnyOrigin:       false,
		PageID:               stringsTrimSpace("FB_PAGE_ID"),
		PageToken:            stringsTrimSpace("FB_PAGE_TOKEN"),
		VerifyToken:          stringsTrimSpace("FB_VERIFY_TOKEN"),
		AppSecret:            stringsTrimSpace("FB_APP_SECRET"),
		GraphURL:             envOrDefault("FB_GRAPH_URL", "https://graph.facebook.com/v2.6"),
		MessengerProvider:    envOrDefault("MESSENGER_PROVIDER", "auto"),
		MessengerMaxAttempts: 3,
		NLPProvider:          envOrDefault("NLP_PROVIDER", "auto"),
		WitToken:             stringsTrimSpace("WIT_TOKEN"),
		WitBaseURL:           envOrDefault("WIT_BASE_URL", "https://api.wit.ai"),
		// The converse endpoint is pinned to the API version it was built against.
		WitAPIVersion:    envOrDefault("WIT_API_VERSION", "20160526"),
		WitMaxSteps:      5,
		VisionProvider:   envOrDefault("VISION_PROVIDER", "auto"),
		VisionAPIKey:     stringsTrimSpace("CLOUD_VISION_API_KEY"),
		VisionBaseURL:    envOrDefault("VISION_BASE_URL", "https://vision.googleapis.com"),
		VenueProvider:    envOrDefault("VENUE_PROVIDER", "auto"),
		FoursquareKey:    stringsTrimSpace("FSQ_KEY"),
		FoursquareSecret: stringsTrimSpace("FSQ_SECRET"),
		FoursquareURL:    envOrDefault("FSQ_BASE_URL", "https://api.foursquare.com"),
		FoursquareAPIVer: envOrDefault("FSQ_API_VERSION", "20160815"),
		DatabaseURL:      stringsTrimSpace("DATABASE_URL"),
		ShutdownTimeout:  15 * time.Second,
		CallTimeout:      10 * time.Second,
		// 0 keeps sessions for the lifetime of the process.
		SessionIdleTTL:      0,
		TranscriptRedactPII: true,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.CallTimeout, err = durationFromEnv("APP_CALL_TIMEOUT", cfg.CallTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionIdleTTL, err = durationFromEnv("APP_SESSION_IDLE_TTL", cfg.SessionIdleTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.MessengerMaxAttempts, err = intFromEnv("MESSENGER_MAX_ATTEMPTS", cfg.MessengerMaxAttempts)
	if err != nil {
		return Config{}, err
	}
	cfg.WitMaxSteps, err = intFromEnv("WIT_MAX_STEPS", cfg.WitMaxSteps)
	if err != nil {
		return Config{}, err
	}
	cfg.TranscriptRedactPII, err = boolFromEnv("TRANSCRIPT_REDACT_PII", cfg.TranscriptRedactPII)
	if err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks invariants that make the service unusable when violated.
func (c Config) Validate() error {
	if c.VerifyToken == "" {
		return ErrMissingVerifyToken
	}
	if c.CallTimeout <= 0 {
		return fmt.Errorf("APP_CALL_TIMEOUT must be positive")
	}
	if c.SessionIdleTTL < 0 {
		return fmt.Errorf("APP_SESSION_IDLE_TTL must be >= 0")
	}
	if c.SessionIdleTTL > 0 && c.SessionIdleTTL < 5*time.Second {
		return fmt.Errorf("APP_SESSION_IDLE_TTL must be 0 or at least 5s")
	}
	if c.MessengerMaxAttempts <= 0 {
		return fmt.Errorf("MESSENGER_MAX_ATTEMPTS must be positive")
	}
	if c.WitMaxSteps <= 0 {
		return fmt.Errorf("WIT_MAX_STEPS must be positive")
	}
	return nil
}

// bindAddrFromEnv prefers APP_BIND_ADDR and falls back to a bare PORT.
func bindAddrFromEnv() string {
	if addr := stringsTrimSpace("APP_BIND_ADDR"); addr != "" {
		return addr
	}
	port := stringsTrimSpace("PORT")
	if port == "" {
		return ":8445"
	}
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

func envOrDefault(key, fallback string) string {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
