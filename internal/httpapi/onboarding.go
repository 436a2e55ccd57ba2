package httpapi

import (
	"net/http"
	"strings"
)

type onboardingCheck struct {
	ID     string `json:"id"`
	Status string `json:"status"` // ok|warn|error
	Label  string `json:"label"`
	Detail string `json:"detail,omitempty"`
	Fix    string `json:"fix,omitempty"`
}

type onboardingStatusResponse struct {
	PageID          string            `json:"page_id"`
	NLPProvider     string            `json:"nlp_provider"`
	VisionProvider  string            `json:"vision_provider"`
	VenueProvider   string            `json:"venue_provider"`
	Messenger       string            `json:"messenger_provider"`
	TranscriptStore string            `json:"transcript_store"`
	Checks          []onboardingCheck `json:"checks"`
}

// providerMode resolves "auto" the same way the provider factories do.
func providerMode(configured string, hasCredentials bool, live string) string {
	mode := strings.ToLower(strings.TrimSpace(configured))
	if mode == "" || mode == "auto" {
		if hasCredentials {
			return live
		}
		return "mock"
	}
	return mode
}

func (s *Server) handleOnboardingStatus(w http.ResponseWriter, _ *http.Request) {
	cfg := s.cfg
	resp := onboardingStatusResponse{
		PageID:         cfg.PageID,
		NLPProvider:    providerMode(cfg.NLPProvider, cfg.WitToken != "", "wit"),
		VisionProvider: providerMode(cfg.VisionProvider, cfg.VisionAPIKey != "", "cloudvision"),
		VenueProvider:  providerMode(cfg.VenueProvider, cfg.FoursquareKey != "" && cfg.FoursquareSecret != "", "foursquare"),
		Messenger:      providerMode(cfg.MessengerProvider, cfg.PageToken != "", "graph"),
	}
	resp.TranscriptStore = "in-memory"
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		resp.TranscriptStore = "postgres"
	}

	checks := make([]onboardingCheck, 0, 8)
	if cfg.VerifyToken == "" {
		checks = append(checks, onboardingCheck{
			ID:     "verify_token",
			Status: "error",
			Label:  "Webhook verification",
			Detail: "verify token missing",
			Fix:    "Set FB_VERIFY_TOKEN to the token configured in the app dashboard.",
		})
	} else {
		checks = append(checks, onboardingCheck{ID: "verify_token", Status: "ok", Label: "Webhook verification"})
	}
	if cfg.PageID == "" {
		checks = append(checks, onboardingCheck{
			ID:     "page_id",
			Status: "error",
			Label:  "Page",
			Detail: "no page id, every delivery will be ignored",
			Fix:    "Set FB_PAGE_ID.",
		})
	} else {
		checks = append(checks, onboardingCheck{ID: "page_id", Status: "ok", Label: "Page", Detail: cfg.PageID})
	}
	if cfg.AppSecret == "" {
		checks = append(checks, onboardingCheck{
			ID:     "signature",
			Status: "warn",
			Label:  "Delivery signatures",
			Detail: "not checked",
			Fix:    "Set FB_APP_SECRET to verify X-Hub-Signature-256.",
		})
	} else {
		checks = append(checks, onboardingCheck{ID: "signature", Status: "ok", Label: "Delivery signatures", Detail: "sha256"})
	}

	checks = append(checks,
		providerCheck("nlp", "Intent extraction", resp.NLPProvider, "Set WIT_TOKEN to use wit.ai."),
		providerCheck("vision", "Image analysis", resp.VisionProvider, "Set CLOUD_VISION_API_KEY to use Cloud Vision."),
		providerCheck("venue", "Venue search", resp.VenueProvider, "Set FSQ_KEY and FSQ_SECRET to use Foursquare."),
		providerCheck("messenger", "Message delivery", resp.Messenger, "Set FB_PAGE_TOKEN to deliver through the Graph API."),
	)
	if resp.TranscriptStore == "in-memory" {
		checks = append(checks, onboardingCheck{
			ID:     "transcript_store",
			Status: "warn",
			Label:  "Transcript persistence",
			Detail: "in-memory only",
			Fix:    "Set DATABASE_URL to persist transcripts across restarts.",
		})
	} else {
		checks = append(checks, onboardingCheck{ID: "transcript_store", Status: "ok", Label: "Transcript persistence", Detail: "postgres"})
	}

	resp.Checks = checks
	respondJSON(w, http.StatusOK, resp)
}

func providerCheck(id, label, mode, fix string) onboardingCheck {
	if mode == "mock" {
		return onboardingCheck{ID: id, Status: "warn", Label: label, Detail: "mock", Fix: fix}
	}
	return onboardingCheck{ID: id, Status: "ok", Label: label, Detail: mode}
}
