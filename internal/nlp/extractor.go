// Package nlp drives the action handlers from an intent-extraction engine.
package nlp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/antoniostano/wayfinder/internal/actions"
	"github.com/antoniostano/wayfinder/internal/observability"
	"github.com/antoniostano/wayfinder/internal/session"
)

var (
	// ErrMaxSteps is returned when the engine keeps planning past the step cap.
	ErrMaxSteps = errors.New("nlp: max steps reached")
	// ErrEngine wraps an error step reported by the engine itself.
	ErrEngine = errors.New("nlp: engine error")
)

// Extractor runs one plan for an inbound text. It starts from c, drives h
// step by step and returns the resulting context. On error the caller must
// discard the returned context.
type Extractor interface {
	RunActions(ctx context.Context, sessionID, text string, c session.Context, h actions.Handlers) (session.Context, error)
}

// Config controls extractor construction.
type Config struct {
	Mode       string
	Token      string
	BaseURL    string
	APIVersion string
	MaxSteps   int
	Metrics    *observability.Metrics
}

// NewExtractor builds the wit.ai converse client when a token is present,
// otherwise the rule-based extractor.
func NewExtractor(cfg Config) (Extractor, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}
	hasToken := strings.TrimSpace(cfg.Token) != ""

	switch mode {
	case "auto":
		if !hasToken {
			return NewRuleExtractor(), nil
		}
		return newWitFromConfig(cfg), nil
	case "wit":
		if !hasToken {
			return nil, errors.New("WIT_TOKEN is required for wit nlp mode")
		}
		return newWitFromConfig(cfg), nil
	case "mock", "rules":
		return NewRuleExtractor(), nil
	default:
		return nil, fmt.Errorf("unsupported nlp mode %q", cfg.Mode)
	}
}

func newWitFromConfig(cfg Config) *WitExtractor {
	w := NewWitExtractor(cfg.BaseURL, cfg.Token, cfg.APIVersion, cfg.MaxSteps)
	w.metrics = cfg.Metrics
	return w
}
