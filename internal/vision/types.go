// Package vision analyzes photo attachments and reduces the raw face and
// label annotations into short chat messages.
package vision

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Likelihood is the vision engine's ordinal confidence for a face attribute.
type Likelihood string

const (
	LikelihoodUnknown      Likelihood = "UNKNOWN"
	LikelihoodVeryUnlikely Likelihood = "VERY_UNLIKELY"
	LikelihoodUnlikely     Likelihood = "UNLIKELY"
	LikelihoodPossible     Likelihood = "POSSIBLE"
	LikelihoodLikely       Likelihood = "LIKELY"
	LikelihoodVeryLikely   Likelihood = "VERY_LIKELY"
)

// Characteristic names a face attribute as it appears in summaries.
type Characteristic string

const (
	Joy          Characteristic = "joy"
	Sorrow       Characteristic = "sorrow"
	Anger        Characteristic = "anger"
	Surprise     Characteristic = "surprise"
	UnderExposed Characteristic = "underExposed"
	Blurred      Characteristic = "blurred"
	Headwear     Characteristic = "headwear"
)

// Characteristics is the fixed inspection order used by Summarize.
var Characteristics = []Characteristic{Joy, Sorrow, Anger, Surprise, UnderExposed, Blurred, Headwear}

// Face is one detected face.
type Face struct {
	Confidence  float64
	Likelihoods map[Characteristic]Likelihood
}

// Label is one detected label.
type Label struct {
	Description string
	Score       float64
}

// Annotations is the raw engine output for a single image.
type Annotations struct {
	Faces  []Face
	Labels []Label
}

// Engine annotates an image reachable at imageURL.
type Engine interface {
	Analyze(ctx context.Context, imageURL string) (Annotations, error)
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(ctx context.Context, imageURL string) (Annotations, error)

func (f EngineFunc) Analyze(ctx context.Context, imageURL string) (Annotations, error) {
	return f(ctx, imageURL)
}

// Config controls engine construction.
type Config struct {
	Mode    string
	BaseURL string
	APIKey  string
}

// NewEngine builds the Cloud Vision engine when an API key is present,
// otherwise a mock engine.
func NewEngine(cfg Config) (Engine, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return NewMockEngine(), nil
		}
		return NewCloudVisionEngine(cfg.BaseURL, cfg.APIKey), nil
	case "cloudvision":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, errors.New("CLOUD_VISION_API_KEY is required for cloudvision mode")
		}
		return NewCloudVisionEngine(cfg.BaseURL, cfg.APIKey), nil
	case "mock":
		return NewMockEngine(), nil
	default:
		return nil, fmt.Errorf("unsupported vision mode %q", cfg.Mode)
	}
}
