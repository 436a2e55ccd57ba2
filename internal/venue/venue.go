// Package venue looks up places near a location and folds the best match
// into the conversation context.
package venue

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Venue is one place returned by a search provider.
type Venue struct {
	Name        string `json:"name"`
	Address     string `json:"address,omitempty"`
	CrossStreet string `json:"cross_street,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
}

// Provider searches venues matching query near a free-form location.
type Provider interface {
	Search(ctx context.Context, near, query string) ([]Venue, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, near, query string) ([]Venue, error)

func (f ProviderFunc) Search(ctx context.Context, near, query string) ([]Venue, error) {
	return f(ctx, near, query)
}

// ErrProvider wraps failures reported by the search backend.
var ErrProvider = errors.New("venue provider error")

// Config controls provider construction.
type Config struct {
	Mode         string
	BaseURL      string
	ClientID     string
	ClientSecret string
	APIVersion   string
}

// NewProvider builds the Foursquare provider when credentials are present,
// otherwise the built-in mock catalog.
func NewProvider(cfg Config) (Provider, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}
	hasCreds := strings.TrimSpace(cfg.ClientID) != "" && strings.TrimSpace(cfg.ClientSecret) != ""

	switch mode {
	case "auto":
		if !hasCreds {
			return NewMockProvider(), nil
		}
		return NewFoursquareProvider(cfg.BaseURL, cfg.ClientID, cfg.ClientSecret, cfg.APIVersion), nil
	case "foursquare":
		if !hasCreds {
			return nil, errors.New("FSQ_KEY and FSQ_SECRET are required for foursquare venue mode")
		}
		return NewFoursquareProvider(cfg.BaseURL, cfg.ClientID, cfg.ClientSecret, cfg.APIVersion), nil
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported venue mode %q", cfg.Mode)
	}
}
