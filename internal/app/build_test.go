package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/antoniostano/wayfinder/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		MetricsNamespace:     fmt.Sprintf("test_app_%d", time.Now().UnixNano()),
		PageID:               "page-1",
		VerifyToken:          "verify-me",
		CallTimeout:          time.Second,
		MessengerMaxAttempts: 1,
		WitMaxSteps:          5,
	}
}

func TestBuildFallsBackToMocks(t *testing.T) {
	res, err := Build(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer func() {
		_ = res.Orchestrator.Close(context.Background())
		_ = res.Cleanup()
	}()

	want := ProviderInfo{NLP: "mock", Vision: "mock", Venue: "mock", Messenger: "mock"}
	if res.Providers != want {
		t.Fatalf("Providers = %+v, want %+v", res.Providers, want)
	}

	ts := httptest.NewServer(res.API.Router())
	defer ts.Close()

	body := `{"object":"page","entry":[{"id":"page-1","messaging":[{"sender":{"id":"fb-1"},"recipient":{"id":"page-1"},"message":{"text":"coffee near Central Park"}}]}]}`
	resp, err := http.Post(ts.URL+"/fb", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /fb error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /fb status = %d, want 200", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := res.Orchestrator.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	id, ok := res.Sessions.Lookup("fb-1")
	if !ok {
		t.Fatalf("no session created for fb-1")
	}
	s, err := res.Sessions.Get(id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if s.Context.Place == "" {
		t.Fatalf("context = %+v, want a place from the mock catalog", s.Context)
	}
}

func TestBuildRejectsUnknownProvider(t *testing.T) {
	cfg := testConfig()
	cfg.NLPProvider = "gpt"
	if _, err := Build(context.Background(), cfg); err == nil {
		t.Fatalf("Build() expected error for unknown nlp provider")
	}
}
