package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/antoniostano/wayfinder/internal/config"
	"github.com/antoniostano/wayfinder/internal/memory"
	"github.com/antoniostano/wayfinder/internal/monitor"
	"github.com/antoniostano/wayfinder/internal/observability"
	"github.com/antoniostano/wayfinder/internal/protocol"
	"github.com/antoniostano/wayfinder/internal/session"
)

// Dispatcher starts the background handling of an accepted inbound message.
type Dispatcher interface {
	Dispatch(in protocol.Inbound) (string, error)
}

type Server struct {
	cfg        config.Config
	sessions   *session.Store
	dispatcher Dispatcher
	hub        *monitor.Hub
	transcript *memory.Recorder
	metrics    *observability.Metrics
	upgrader   websocket.Upgrader
}

func New(cfg config.Config, sessions *session.Store, dispatcher Dispatcher, hub *monitor.Hub, transcript *memory.Recorder, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:        cfg,
		sessions:   sessions,
		dispatcher: dispatcher,
		hub:        hub,
		transcript: transcript,
		metrics:    metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only same-origin browsers may open the monitor stream
				// unless APP_ALLOW_ANY_ORIGIN is set.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	for _, path := range []string{"/fb", "/webhook"} {
		r.Get(path, s.handleVerify)
		r.Post(path, s.handleWebhook)
	}

	r.Get("/v1/onboarding/status", s.handleOnboardingStatus)
	r.Get("/v1/perf/latency", s.handlePerfLatency)
	r.Get("/v1/sessions/{id}", s.handleGetSession)
	r.Get("/v1/sessions/{id}/transcript", s.handleSessionTranscript)
	r.Get("/v1/monitor/ws", s.handleMonitorWS)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"active_sessions": s.activeSessions(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if strings.TrimSpace(s.cfg.VerifyToken) == "" || s.dispatcher == nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "ready",
		"active_sessions": s.activeSessions(),
	})
}

func (s *Server) activeSessions() int {
	if s.sessions == nil {
		return 0
	}
	return s.sessions.Count()
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

func messageTypeOf(v any) (protocol.MessageType, bool) {
	switch m := v.(type) {
	case protocol.InboundMessage:
		return m.Type, true
	case protocol.OutboundMessage:
		return m.Type, true
	case protocol.ActionStep:
		return m.Type, true
	case protocol.ImageSummary:
		return m.Type, true
	case protocol.SessionEvent:
		return m.Type, true
	case protocol.ErrorEvent:
		return m.Type, true
	case protocol.ClientFilter:
		return m.Type, true
	case protocol.ClientPing:
		return m.Type, true
	case protocol.ServerPong:
		return m.Type, true
	default:
		return "", false
	}
}
