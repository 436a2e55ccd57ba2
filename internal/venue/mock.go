package venue

import (
	"context"
	"strings"
)

type catalogEntry struct {
	keyword string
	venue   Venue
}

// MockProvider answers from a small in-memory catalog keyed by query words.
// Entries are matched in order, so results are deterministic.
type MockProvider struct {
	catalog []catalogEntry
}

func NewMockProvider() *MockProvider {
	return &MockProvider{catalog: []catalogEntry{
		{"coffee", Venue{Name: "Blue Bottle Coffee", Address: "1 Rockefeller Plaza", CrossStreet: "at W 49th St", City: "New York", State: "NY"}},
		{"pizza", Venue{Name: "Joe's Pizza", Address: "7 Carmine St", CrossStreet: "Bleecker St", City: "New York", State: "NY"}},
		{"museum", Venue{Name: "The Metropolitan Museum of Art", Address: "1000 5th Ave", City: "New York", State: "NY"}},
		{"park", Venue{Name: "Bryant Park", Address: "6th Ave", CrossStreet: "btwn W 40th & W 42nd St", City: "New York", State: "NY"}},
	}}
}

func (m *MockProvider) Search(ctx context.Context, near, query string) ([]Venue, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	q := strings.ToLower(query)
	for _, e := range m.catalog {
		if strings.Contains(q, e.keyword) {
			return []Venue{e.venue}, nil
		}
	}
	return nil, nil
}
