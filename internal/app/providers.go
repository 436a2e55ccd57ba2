package app

import (
	"fmt"

	"github.com/antoniostano/wayfinder/internal/config"
	"github.com/antoniostano/wayfinder/internal/messenger"
	"github.com/antoniostano/wayfinder/internal/nlp"
	"github.com/antoniostano/wayfinder/internal/observability"
	"github.com/antoniostano/wayfinder/internal/venue"
	"github.com/antoniostano/wayfinder/internal/vision"
)

type providerSetup struct {
	extractor nlp.Extractor
	engine    vision.Engine
	places    venue.Provider
	sink      messenger.Sink
	info      ProviderInfo
}

// ProviderInfo reports which backend each external collaborator resolved to.
type ProviderInfo struct {
	NLP       string
	Vision    string
	Venue     string
	Messenger string
}

func resolveProviders(cfg config.Config, metrics *observability.Metrics) (providerSetup, error) {
	extractor, err := nlp.NewExtractor(nlp.Config{
		Mode:       cfg.NLPProvider,
		Token:      cfg.WitToken,
		BaseURL:    cfg.WitBaseURL,
		APIVersion: cfg.WitAPIVersion,
		MaxSteps:   cfg.WitMaxSteps,
		Metrics:    metrics,
	})
	if err != nil {
		return providerSetup{}, fmt.Errorf("nlp provider init failed: %w", err)
	}

	engine, err := vision.NewEngine(vision.Config{
		Mode:    cfg.VisionProvider,
		BaseURL: cfg.VisionBaseURL,
		APIKey:  cfg.VisionAPIKey,
	})
	if err != nil {
		return providerSetup{}, fmt.Errorf("vision provider init failed: %w", err)
	}

	places, err := venue.NewProvider(venue.Config{
		Mode:         cfg.VenueProvider,
		BaseURL:      cfg.FoursquareURL,
		ClientID:     cfg.FoursquareKey,
		ClientSecret: cfg.FoursquareSecret,
		APIVersion:   cfg.FoursquareAPIVer,
	})
	if err != nil {
		return providerSetup{}, fmt.Errorf("venue provider init failed: %w", err)
	}

	sink, err := messenger.NewSink(messenger.Config{
		Mode:        cfg.MessengerProvider,
		GraphURL:    cfg.GraphURL,
		PageToken:   cfg.PageToken,
		MaxAttempts: cfg.MessengerMaxAttempts,
	})
	if err != nil {
		return providerSetup{}, fmt.Errorf("messenger init failed: %w", err)
	}

	return providerSetup{
		extractor: extractor,
		engine:    engine,
		places:    places,
		sink:      sink,
		info: ProviderInfo{
			NLP:       providerName(extractor),
			Vision:    providerName(engine),
			Venue:     providerName(places),
			Messenger: providerName(sink),
		},
	}, nil
}

func providerName(v any) string {
	switch v.(type) {
	case *nlp.WitExtractor:
		return "wit"
	case *vision.CloudVisionEngine:
		return "cloudvision"
	case *venue.FoursquareProvider:
		return "foursquare"
	case *messenger.GraphSink:
		return "graph"
	default:
		return "mock"
	}
}
