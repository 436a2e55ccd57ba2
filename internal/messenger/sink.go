// Package messenger delivers text messages to platform users.
package messenger

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sink delivers a text message to a platform recipient.
type Sink interface {
	Send(ctx context.Context, recipientID, text string) error
}

// ErrEmptyRecipient is returned when a message has nowhere to go.
var ErrEmptyRecipient = errors.New("empty recipient id")

// SendError describes a delivery rejected by the platform.
type SendError struct {
	Status  int
	Code    int
	Message string
}

func (e *SendError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("messenger send failed (status %d, code %d): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("messenger send failed (status %d): %s", e.Status, e.Message)
}

// Config controls sink construction.
type Config struct {
	Mode        string
	GraphURL    string
	PageToken   string
	MaxAttempts int
}

// NewSink picks the Graph API sink when a page token is configured, otherwise
// a mock sink that only logs.
func NewSink(cfg Config) (Sink, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.PageToken) == "" {
			return NewMockSink(), nil
		}
		return NewGraphSink(cfg.GraphURL, cfg.PageToken, cfg.MaxAttempts), nil
	case "graph":
		if strings.TrimSpace(cfg.PageToken) == "" {
			return nil, errors.New("FB_PAGE_TOKEN is required for graph messenger mode")
		}
		return NewGraphSink(cfg.GraphURL, cfg.PageToken, cfg.MaxAttempts), nil
	case "mock":
		return NewMockSink(), nil
	default:
		return nil, fmt.Errorf("unsupported messenger mode %q", cfg.Mode)
	}
}
