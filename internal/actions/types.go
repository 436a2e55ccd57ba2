// Package actions implements the conversation actions the NLP engine's plan
// can invoke. The set is closed: say, merge, error and findPlace.
package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/antoniostano/wayfinder/internal/session"
)

// Kind identifies one action variant.
type Kind string

const (
	KindSay       Kind = "say"
	KindMerge     Kind = "merge"
	KindError     Kind = "error"
	KindFindPlace Kind = "findPlace"
)

// ErrUnknownAction is returned for action names outside the closed set.
var ErrUnknownAction = errors.New("unknown action")

// ParseKind maps an engine-supplied action name to its Kind.
func ParseKind(name string) (Kind, error) {
	switch Kind(strings.TrimSpace(name)) {
	case KindSay:
		return KindSay, nil
	case KindMerge:
		return KindMerge, nil
	case KindError:
		return KindError, nil
	case KindFindPlace:
		return KindFindPlace, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
}

// Entity names read by Merge.
const (
	EntityLocation         = "location"
	EntityLocalSearchQuery = "local_search_query"
)

// EntityValue is one extracted value. Value is either a plain value or an
// object carrying its own "value" field.
type EntityValue struct {
	Value      any     `json:"value"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Entities maps entity names to their extracted values, best first.
type Entities map[string][]EntityValue

// FirstValue returns the first value of the named entity as a string,
// unwrapping one level of {"value": ...}. Missing or empty values yield "".
func (e Entities) FirstValue(name string) string {
	vals := e[name]
	if len(vals) == 0 {
		return ""
	}
	v := vals[0].Value
	if obj, ok := v.(map[string]any); ok {
		v = obj["value"]
	}
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// Handlers is the typed surface the plan interpreter drives.
type Handlers interface {
	Say(ctx context.Context, sessionID string, c session.Context, text string)
	Merge(ctx context.Context, sessionID string, c session.Context, entities Entities, message string) session.Context
	Error(ctx context.Context, sessionID string, c session.Context, message string)
	// FindPlace reports whether a venue was found. When none was, c is
	// returned unchanged.
	FindPlace(ctx context.Context, sessionID string, c session.Context) (session.Context, bool)
	// Action runs a custom action chosen by name and rejects names outside
	// the closed set with ErrUnknownAction.
	Action(ctx context.Context, name, sessionID string, c session.Context) (session.Context, error)
}
