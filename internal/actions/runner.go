package actions

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/antoniostano/wayfinder/internal/messenger"
	"github.com/antoniostano/wayfinder/internal/observability"
	"github.com/antoniostano/wayfinder/internal/session"
	"github.com/antoniostano/wayfinder/internal/venue"
)

// SenderLookup resolves the platform recipient of a session.
type SenderLookup interface {
	SenderOf(sessionID string) string
}

// PlaceFinder searches a venue for a near/query pair.
type PlaceFinder interface {
	Search(ctx context.Context, near, query string) (venue.Candidate, venue.Outcome)
}

// StepHook observes every executed action with the resulting context.
type StepHook func(sessionID string, kind Kind, c session.Context)

// Runner implements Handlers against the session store, the message sink
// and the venue lookup.
type Runner struct {
	senders     SenderLookup
	sink        messenger.Sink
	places      PlaceFinder
	metrics     *observability.Metrics
	sendTimeout time.Duration
	onStep      StepHook
}

func NewRunner(senders SenderLookup, sink messenger.Sink, places PlaceFinder, metrics *observability.Metrics, sendTimeout time.Duration) *Runner {
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	return &Runner{
		senders:     senders,
		sink:        sink,
		places:      places,
		metrics:     metrics,
		sendTimeout: sendTimeout,
	}
}

// SetStepHook installs a hook called after each action.
func (r *Runner) SetStepHook(hook StepHook) {
	r.onStep = hook
}

// Say delivers text to the session's sender. It always returns: a missing
// sender or a failed delivery is logged and the plan carries on.
func (r *Runner) Say(ctx context.Context, sessionID string, c session.Context, text string) {
	defer r.step(sessionID, KindSay, c)

	recipientID := r.senders.SenderOf(sessionID)
	if recipientID == "" {
		log.Printf("actions: no sender for session %s, dropping message", sessionID)
		r.metrics.ObserveAction(string(KindSay), "no_sender")
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, r.sendTimeout)
	defer cancel()
	if err := r.sink.Send(sendCtx, recipientID, text); err != nil {
		log.Printf("actions: forwarding response to %s failed: %v", recipientID, err)
		r.metrics.ObserveAction(string(KindSay), "delivery_failed")
		return
	}
	r.metrics.ObserveAction(string(KindSay), "ok")
}

// Merge folds the location and search query entities into c. Without a
// location entity c is returned unchanged.
func (r *Runner) Merge(_ context.Context, sessionID string, c session.Context, entities Entities, _ string) session.Context {
	loc := entities.FirstValue(EntityLocation)
	if loc == "" {
		r.metrics.ObserveAction(string(KindMerge), "unchanged")
		r.step(sessionID, KindMerge, c)
		return c
	}
	c.Loc = loc
	c.Q = entities.FirstValue(EntityLocalSearchQuery)
	r.metrics.ObserveAction(string(KindMerge), "merged")
	r.step(sessionID, KindMerge, c)
	return c
}

// Error is the terminal fallback when the engine cannot continue the plan.
func (r *Runner) Error(_ context.Context, sessionID string, c session.Context, message string) {
	log.Printf("actions: no plan step for session %s (message %q)", sessionID, message)
	r.metrics.ObserveAction(string(KindError), "ok")
	r.step(sessionID, KindError, c)
}

// FindPlace looks up a venue for c.Loc and c.Q and folds the first match.
func (r *Runner) FindPlace(ctx context.Context, sessionID string, c session.Context) (session.Context, bool) {
	cand, outcome := r.places.Search(ctx, c.Loc, c.Q)
	r.metrics.ObserveAction(string(KindFindPlace), string(outcome))
	found := outcome == venue.Found
	if found {
		c = venue.Fold(c, cand)
	}
	r.step(sessionID, KindFindPlace, c)
	return c, found
}

// Action dispatches a custom action by name. Only findPlace is a custom
// action; the other kinds have dedicated engine response types.
func (r *Runner) Action(ctx context.Context, name, sessionID string, c session.Context) (session.Context, error) {
	kind, err := ParseKind(name)
	if err != nil {
		r.metrics.ObserveAction(name, "unknown")
		r.Error(ctx, sessionID, c, name)
		return c, err
	}
	switch kind {
	case KindFindPlace:
		c, _ = r.FindPlace(ctx, sessionID, c)
		return c, nil
	case KindError:
		r.Error(ctx, sessionID, c, name)
		return c, nil
	default:
		r.metrics.ObserveAction(name, "not_custom")
		r.Error(ctx, sessionID, c, name)
		return c, fmt.Errorf("%w: %q is not a custom action", ErrUnknownAction, name)
	}
}

func (r *Runner) step(sessionID string, kind Kind, c session.Context) {
	if r.onStep != nil {
		r.onStep(sessionID, kind, c.Clone())
	}
}
