package actions

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/antoniostano/wayfinder/internal/messenger"
	"github.com/antoniostano/wayfinder/internal/session"
	"github.com/antoniostano/wayfinder/internal/venue"
)

type fakePlaces struct {
	cand    venue.Candidate
	outcome venue.Outcome
	near    string
	query   string
}

func (f *fakePlaces) Search(_ context.Context, near, query string) (venue.Candidate, venue.Outcome) {
	f.near, f.query = near, query
	return f.cand, f.outcome
}

func newTestRunner(t *testing.T, places PlaceFinder) (*Runner, *session.Store, *messenger.MockSink) {
	t.Helper()
	store := session.NewStore(0)
	sink := messenger.NewRecordingSink()
	return NewRunner(store, sink, places, nil, 0), store, sink
}

func TestParseKind(t *testing.T) {
	for _, name := range []string{"say", "merge", "error", "findPlace"} {
		k, err := ParseKind(name)
		if err != nil || string(k) != name {
			t.Fatalf("ParseKind(%q) = (%q, %v)", name, k, err)
		}
	}
	if _, err := ParseKind("bookTable"); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("ParseKind(bookTable) error = %v, want %v", err, ErrUnknownAction)
	}
}

func TestFirstValueUnwrapsOneLevel(t *testing.T) {
	e := Entities{
		"location":           {{Value: map[string]any{"value": "Central Park", "type": "value"}}},
		"local_search_query": {{Value: "coffee shop"}, {Value: "tea"}},
		"empty":              {},
	}
	if got := e.FirstValue("location"); got != "Central Park" {
		t.Fatalf("FirstValue(location) = %q", got)
	}
	if got := e.FirstValue("local_search_query"); got != "coffee shop" {
		t.Fatalf("FirstValue(local_search_query) = %q", got)
	}
	if got := e.FirstValue("empty"); got != "" {
		t.Fatalf("FirstValue(empty) = %q", got)
	}
	if got := e.FirstValue("missing"); got != "" {
		t.Fatalf("FirstValue(missing) = %q", got)
	}
}

func TestMergeWithoutLocationLeavesContext(t *testing.T) {
	r, _, _ := newTestRunner(t, &fakePlaces{})
	before := session.Context{Place: "Cafe", Address: "5 Ave"}
	got := r.Merge(context.Background(), "s1", before, Entities{
		"local_search_query": {{Value: "coffee"}},
	}, "coffee please")
	if !reflect.DeepEqual(got, before) {
		t.Fatalf("Merge() = %+v, want unchanged %+v", got, before)
	}
	if got.Loc != "" || got.Q != "" {
		t.Fatalf("Merge() added loc/q: %+v", got)
	}
}

func TestMergeWithLocationOverwritesLocAndQuery(t *testing.T) {
	r, _, _ := newTestRunner(t, &fakePlaces{})
	got := r.Merge(context.Background(), "s1", session.Context{Loc: "Paris", Q: "bakery"}, Entities{
		"location": {{Value: "Central Park"}},
	}, "somewhere in Central Park")
	if got.Loc != "Central Park" {
		t.Fatalf("Loc = %q, want %q", got.Loc, "Central Park")
	}
	if got.Q != "" {
		t.Fatalf("Q = %q, want overwritten with the missing query", got.Q)
	}
}

func TestSayDeliversToSessionSender(t *testing.T) {
	r, store, sink := newTestRunner(t, &fakePlaces{})
	id, _ := store.Resolve("fb-1")

	r.Say(context.Background(), id, session.Context{}, "hello")

	sent := sink.Sent()
	if len(sent) != 1 || sent[0].RecipientID != "fb-1" || sent[0].Text != "hello" {
		t.Fatalf("sent = %+v", sent)
	}
}

func TestSayWithoutSenderDoesNotDeliver(t *testing.T) {
	r, _, sink := newTestRunner(t, &fakePlaces{})
	r.Say(context.Background(), "unknown-session", session.Context{}, "hello")
	if len(sink.Sent()) != 0 {
		t.Fatalf("sent = %+v, want none", sink.Sent())
	}
}

func TestSaySurvivesDeliveryFailure(t *testing.T) {
	r, store, sink := newTestRunner(t, &fakePlaces{})
	id, _ := store.Resolve("fb-1")
	sink.FailWith(errors.New("graph down"))

	var steps []Kind
	r.SetStepHook(func(_ string, kind Kind, _ session.Context) { steps = append(steps, kind) })
	r.Say(context.Background(), id, session.Context{}, "hello")

	if len(steps) != 1 || steps[0] != KindSay {
		t.Fatalf("steps = %v, want [say]", steps)
	}
}

func TestFindPlaceFoldsFirstVenue(t *testing.T) {
	places := &fakePlaces{
		outcome: venue.Found,
		cand: venue.Candidate{Venue: venue.Venue{
			Name: "Blue Bottle", Address: "1 Rockefeller Plaza", City: "New York", State: "NY",
		}},
	}
	r, _, _ := newTestRunner(t, places)
	got, found := r.FindPlace(context.Background(), "s1", session.Context{Loc: "Central Park", Q: "coffee shop"})
	if !found {
		t.Fatalf("FindPlace() found = false, want true")
	}

	if places.near != "Central Park" || places.query != "coffee shop" {
		t.Fatalf("search near=%q query=%q", places.near, places.query)
	}
	if got.Place != "Blue Bottle" || got.Address != "1 Rockefeller Plaza, New York, NY" {
		t.Fatalf("FindPlace() = %+v", got)
	}
}

func TestFindPlaceEmptyOrFailedLeavesContext(t *testing.T) {
	for _, outcome := range []venue.Outcome{venue.Empty, venue.Failed} {
		r, _, _ := newTestRunner(t, &fakePlaces{outcome: outcome})
		before := session.Context{Loc: "Nowhere", Q: "unicorns", Place: "Old Place", Address: "Old Street"}
		got, found := r.FindPlace(context.Background(), "s1", before)
		if found {
			t.Fatalf("FindPlace() with %s found = true", outcome)
		}
		if !reflect.DeepEqual(got, before) {
			t.Fatalf("FindPlace() with %s = %+v, want unchanged", outcome, got)
		}
	}
}

func TestActionDispatch(t *testing.T) {
	places := &fakePlaces{outcome: venue.Found, cand: venue.Candidate{Venue: venue.Venue{Name: "Cafe"}}}
	r, _, _ := newTestRunner(t, places)

	got, err := r.Action(context.Background(), "findPlace", "s1", session.Context{Loc: "x"})
	if err != nil {
		t.Fatalf("Action(findPlace) error = %v", err)
	}
	if got.Place != "Cafe" {
		t.Fatalf("Action(findPlace) = %+v", got)
	}

	var steps []Kind
	r.SetStepHook(func(_ string, kind Kind, _ session.Context) { steps = append(steps, kind) })
	before := session.Context{Loc: "x"}
	got, err = r.Action(context.Background(), "launchRocket", "s1", before)
	if !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("Action(launchRocket) error = %v, want %v", err, ErrUnknownAction)
	}
	if !reflect.DeepEqual(got, before) {
		t.Fatalf("Action(launchRocket) mutated context: %+v", got)
	}
	if len(steps) != 1 || steps[0] != KindError {
		t.Fatalf("steps = %v, want [error]", steps)
	}
}
