package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveSessions   prometheus.Gauge
	SessionEvents    *prometheus.CounterVec
	WebhookEvents    *prometheus.CounterVec
	ActionRuns       *prometheus.CounterVec
	VenueLookups     *prometheus.CounterVec
	OutboundMessages *prometheus.CounterVec
	ProviderErrors   *prometheus.CounterVec
	WSMessages       *prometheus.CounterVec
	CallLatency      *prometheus.HistogramVec

	calls *callWindow
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of live conversation sessions.",
		}),
		SessionEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session events by type.",
		}, []string{"event"}),
		WebhookEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Inbound webhook deliveries by kind.",
		}, []string{"kind"}),
		ActionRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "action_runs_total",
			Help:      "Executed conversation actions by action and outcome.",
		}, []string{"action", "outcome"}),
		VenueLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "venue_lookups_total",
			Help:      "Venue lookups by outcome.",
		}, []string{"outcome"}),
		OutboundMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbound_messages_total",
			Help:      "Outbound platform messages by outcome.",
		}, []string{"outcome"}),
		ProviderErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Provider errors by provider and code.",
		}, []string{"provider", "code"}),
		WSMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "Monitor WebSocket messages by direction and type.",
		}, []string{"direction", "type"}),
		CallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "external_call_latency_ms",
			Help:      "Latency of external provider calls in milliseconds.",
			Buckets:   []float64{50, 100, 200, 400, 800, 1500, 3000, 6000, 10000},
		}, []string{"provider"}),
		calls: newCallWindow(256),
	}
}

// ObserveCall records one external call in both the histogram and the
// rolling window served by /v1/perf/latency.
func (m *Metrics) ObserveCall(provider string, d time.Duration, err error) {
	if m == nil {
		return
	}
	ms := float64(d.Microseconds()) / 1000
	m.CallLatency.WithLabelValues(provider).Observe(ms)
	m.calls.Observe(provider, ms)
	if err != nil {
		m.calls.ObserveFailure(provider)
	}
}

// ObserveProviderError counts a failed provider call.
func (m *Metrics) ObserveProviderError(provider, code string) {
	if m == nil {
		return
	}
	m.ProviderErrors.WithLabelValues(provider, code).Inc()
}

func (m *Metrics) ObserveAction(action, outcome string) {
	if m == nil {
		return
	}
	m.ActionRuns.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) ObserveVenueLookup(outcome string) {
	if m == nil {
		return
	}
	m.VenueLookups.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveOutbound(outcome string) {
	if m == nil {
		return
	}
	m.OutboundMessages.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveWebhook(kind string) {
	if m == nil {
		return
	}
	m.WebhookEvents.WithLabelValues(kind).Inc()
}

// ObserveSessionEvent counts a session lifecycle event and refreshes the
// live-session gauge.
func (m *Metrics) ObserveSessionEvent(event string, active int) {
	if m == nil {
		return
	}
	m.SessionEvents.WithLabelValues(event).Inc()
	m.ActiveSessions.Set(float64(active))
}

func (m *Metrics) ObserveWSMessage(direction, messageType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, messageType).Inc()
}

func (m *Metrics) SnapshotCalls() CallSnapshot {
	if m == nil {
		return CallSnapshot{GeneratedAt: time.Now().UTC()}
	}
	return m.calls.Snapshot()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
