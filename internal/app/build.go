package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/antoniostano/wayfinder/internal/config"
	"github.com/antoniostano/wayfinder/internal/conversation"
	"github.com/antoniostano/wayfinder/internal/httpapi"
	"github.com/antoniostano/wayfinder/internal/memory"
	"github.com/antoniostano/wayfinder/internal/monitor"
	"github.com/antoniostano/wayfinder/internal/observability"
	"github.com/antoniostano/wayfinder/internal/session"
	"github.com/antoniostano/wayfinder/internal/venue"
)

type BuildResult struct {
	Config       config.Config
	API          *httpapi.Server
	Sessions     *session.Store
	Orchestrator *conversation.Orchestrator
	Hub          *monitor.Hub
	Metrics      *observability.Metrics
	Providers    ProviderInfo

	// Cleanup should be called on shutdown, after in-flight work is drained,
	// to release external resources.
	Cleanup func() error
}

func Build(ctx context.Context, cfg config.Config) (*BuildResult, error) {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	providers, err := resolveProviders(cfg, metrics)
	if err != nil {
		return nil, err
	}

	transcriptStore, err := memory.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("transcript store init failed: %w", err)
	}
	transcript := memory.NewRecorder(transcriptStore, cfg.TranscriptRedactPII, cfg.CallTimeout)

	sessions := session.NewStore(cfg.SessionIdleTTL)
	hub := monitor.NewHub(0)

	orchestrator := conversation.NewOrchestrator(conversation.Deps{
		Sessions:    sessions,
		Extractor:   providers.extractor,
		Places:      venue.NewLookup(providers.places, metrics, cfg.CallTimeout),
		Vision:      providers.engine,
		Sink:        providers.sink,
		Hub:         hub,
		Transcript:  transcript,
		Metrics:     metrics,
		CallTimeout: cfg.CallTimeout,
		PlanTimeout: cfg.CallTimeout * time.Duration(cfg.WitMaxSteps+1),
	})

	api := httpapi.New(cfg, sessions, orchestrator, hub, transcript, metrics)

	cleanup := func() error {
		var errs []string
		if err := transcriptStore.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		if len(errs) > 0 {
			return fmt.Errorf("%s", strings.Join(errs, "; "))
		}
		return nil
	}

	return &BuildResult{
		Config:       cfg,
		API:          api,
		Sessions:     sessions,
		Orchestrator: orchestrator,
		Hub:          hub,
		Metrics:      metrics,
		Providers:    providers.info,
		Cleanup:      cleanup,
	}, nil
}
