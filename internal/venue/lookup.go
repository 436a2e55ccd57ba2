package venue

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/antoniostano/wayfinder/internal/observability"
	"github.com/antoniostano/wayfinder/internal/session"
)

// Outcome classifies a lookup result.
type Outcome string

const (
	Found  Outcome = "found"
	Empty  Outcome = "empty"
	Failed Outcome = "failed"
)

// Candidate is the venue selected for a near/query pair.
type Candidate struct {
	Near  string
	Query string
	Venue Venue
}

// Place is the name folded into the context.
func (c Candidate) Place() string { return c.Venue.Name }

// Address is the composed address folded into the context.
func (c Candidate) Address() string { return ComposeAddress(c.Venue) }

// Lookup wraps a Provider with first-match selection, a per-call timeout and
// failure-as-empty semantics.
type Lookup struct {
	provider Provider
	metrics  *observability.Metrics
	timeout  time.Duration
}

func NewLookup(provider Provider, metrics *observability.Metrics, timeout time.Duration) *Lookup {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Lookup{provider: provider, metrics: metrics, timeout: timeout}
}

// Search returns the first venue the provider lists. A provider error is
// logged and reported as Failed; callers treat it like Empty.
func (l *Lookup) Search(ctx context.Context, near, query string) (Candidate, Outcome) {
	near = strings.TrimSpace(near)
	query = strings.TrimSpace(query)
	if near == "" {
		l.metrics.ObserveVenueLookup(string(Empty))
		return Candidate{}, Empty
	}

	callCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	start := time.Now()
	venues, err := l.provider.Search(callCtx, near, query)
	l.metrics.ObserveCall("venue", time.Since(start), err)
	if err != nil {
		log.Printf("venue: search near=%q query=%q failed: %v", near, query, err)
		l.metrics.ObserveProviderError("venue", "search_failed")
		l.metrics.ObserveVenueLookup(string(Failed))
		return Candidate{}, Failed
	}
	if len(venues) == 0 {
		l.metrics.ObserveVenueLookup(string(Empty))
		return Candidate{}, Empty
	}

	l.metrics.ObserveVenueLookup(string(Found))
	return Candidate{Near: near, Query: query, Venue: venues[0]}, Found
}

// Fold writes the candidate's place and address into c.
func Fold(c session.Context, cand Candidate) session.Context {
	c.Place = cand.Place()
	c.Address = cand.Address()
	return c
}

// ComposeAddress joins address, cross street, city and state with ", ",
// leaving out parts the provider did not return.
func ComposeAddress(v Venue) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{v.Address, v.CrossStreet, v.City, v.State} {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, ", ")
}
