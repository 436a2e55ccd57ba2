package observability

import (
	"errors"
	"testing"
	"time"
)

func TestCallWindowSnapshot(t *testing.T) {
	w := newCallWindow(8)
	w.Observe("vision", 500)
	w.Observe("vision", 700)
	w.Observe("vision", 900)
	w.ObserveFailure("vision")

	snap := w.Snapshot()
	if snap.WindowSize != 8 {
		t.Fatalf("WindowSize = %d, want 8", snap.WindowSize)
	}
	if len(snap.Providers) != 1 {
		t.Fatalf("len(Providers) = %d, want 1", len(snap.Providers))
	}
	s := snap.Providers[0]
	if s.Provider != "vision" {
		t.Fatalf("Provider = %q, want %q", s.Provider, "vision")
	}
	if s.Samples != 3 {
		t.Fatalf("Samples = %d, want 3", s.Samples)
	}
	if s.Failures != 1 {
		t.Fatalf("Failures = %d, want 1", s.Failures)
	}
	if s.LastMS != 900 {
		t.Fatalf("LastMS = %.2f, want 900", s.LastMS)
	}
	if s.P50MS != 700 {
		t.Fatalf("P50MS = %.2f, want 700", s.P50MS)
	}
	if s.P95MS <= 700 || s.P95MS > 900 {
		t.Fatalf("P95MS = %.2f, want (700,900]", s.P95MS)
	}
	if s.TargetP95MS != 3000 {
		t.Fatalf("TargetP95MS = %.2f, want 3000", s.TargetP95MS)
	}
}

func TestCallWindowWrapsAround(t *testing.T) {
	w := newCallWindow(2)
	w.Observe("nlp", 10)
	w.Observe("nlp", 20)
	w.Observe("nlp", 30)

	snap := w.Snapshot()
	s := snap.Providers[0]
	if s.Samples != 2 {
		t.Fatalf("Samples = %d, want 2", s.Samples)
	}
	if s.AvgMS != 25 {
		t.Fatalf("AvgMS = %.2f, want 25", s.AvgMS)
	}
}

func TestMetricsObserveCall(t *testing.T) {
	m := NewMetrics("test_observability_" + time.Now().Format("150405") + "_" + time.Now().Format("000000000"))
	m.ObserveCall("venue", 120*time.Millisecond, nil)
	m.ObserveCall("venue", 80*time.Millisecond, errors.New("boom"))

	snap := m.SnapshotCalls()
	if len(snap.Providers) != 1 {
		t.Fatalf("len(Providers) = %d, want 1", len(snap.Providers))
	}
	if snap.Providers[0].Samples != 2 || snap.Providers[0].Failures != 1 {
		t.Fatalf("stats = %+v, want 2 samples and 1 failure", snap.Providers[0])
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveCall("nlp", time.Millisecond, nil)
	m.ObserveProviderError("nlp", "timeout")
	if snap := m.SnapshotCalls(); len(snap.Providers) != 0 {
		t.Fatalf("nil metrics snapshot = %+v", snap)
	}
}
