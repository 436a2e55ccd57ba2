package observability

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"
)

type CallStats struct {
	Provider    string  `json:"provider"`
	Samples     int     `json:"samples"`
	Failures    int     `json:"failures"`
	LastMS      float64 `json:"last_ms"`
	AvgMS       float64 `json:"avg_ms"`
	P50MS       float64 `json:"p50_ms"`
	P95MS       float64 `json:"p95_ms"`
	P99MS       float64 `json:"p99_ms"`
	TargetP95MS float64 `json:"target_p95_ms,omitempty"`
}

type CallSnapshot struct {
	GeneratedAt time.Time   `json:"generated_at"`
	WindowSize  int         `json:"window_size"`
	Providers   []CallStats `json:"providers"`
}

type callWindow struct {
	mu         sync.RWMutex
	maxSamples int
	providers  map[string]*callBuffer
	failures   map[string]int
}

type callBuffer struct {
	values []float64
	next   int
	filled bool
	last   float64
}

func newCallWindow(maxSamples int) *callWindow {
	if maxSamples <= 0 {
		maxSamples = 256
	}
	return &callWindow{
		maxSamples: maxSamples,
		providers:  make(map[string]*callBuffer),
		failures:   make(map[string]int),
	}
}

func (w *callWindow) Observe(provider string, ms float64) {
	provider = strings.TrimSpace(provider)
	if provider == "" || ms < 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	buf, ok := w.providers[provider]
	if !ok {
		buf = &callBuffer{
			values: make([]float64, w.maxSamples),
		}
		w.providers[provider] = buf
	}
	buf.values[buf.next] = ms
	buf.last = ms
	buf.next++
	if buf.next >= len(buf.values) {
		buf.next = 0
		buf.filled = true
	}
}

func (w *callWindow) ObserveFailure(provider string) {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failures[provider]++
}

func (w *callWindow) Snapshot() CallSnapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	keys := make([]string, 0, len(w.providers))
	for provider := range w.providers {
		keys = append(keys, provider)
	}
	sort.Strings(keys)

	stats := make([]CallStats, 0, len(keys))
	for _, provider := range keys {
		buf := w.providers[provider]
		n := buf.next
		if buf.filled {
			n = len(buf.values)
		}
		if n <= 0 {
			continue
		}
		samples := make([]float64, n)
		copy(samples, buf.values[:n])
		sort.Float64s(samples)

		sum := 0.0
		for _, v := range samples {
			sum += v
		}

		stats = append(stats, CallStats{
			Provider:    provider,
			Samples:     n,
			Failures:    w.failures[provider],
			LastMS:      round2(buf.last),
			AvgMS:       round2(sum / float64(n)),
			P50MS:       round2(quantile(samples, 0.50)),
			P95MS:       round2(quantile(samples, 0.95)),
			P99MS:       round2(quantile(samples, 0.99)),
			TargetP95MS: providerTargetP95MS(provider),
		})
	}

	return CallSnapshot{
		GeneratedAt: time.Now().UTC(),
		WindowSize:  w.maxSamples,
		Providers:   stats,
	}
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := q * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func providerTargetP95MS(provider string) float64 {
	switch provider {
	case "messenger":
		return 800
	case "nlp":
		return 1500
	case "venue":
		return 1200
	case "vision":
		return 3000
	default:
		return 0
	}
}
