package nlp

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/antoniostano/wayfinder/internal/actions"
	"github.com/antoniostano/wayfinder/internal/session"
)

const helpMessage = `Tell me what you're looking for and where, like "coffee near Union Square".`

var nearPattern = regexp.MustCompile(
	`(?i)^\s*(?:(?:please\s+)?(?:find|get|show|recommend|suggest|i\s+want|i'm\s+looking\s+for|looking\s+for|where\s+is|where's)\s+(?:me\s+|us\s+)?)?` +
		`(?:an?\s+|the\s+|some\s+)?(.*?)\s*\bnear\s+(.+?)[\s?.!]*$`,
)

// RuleExtractor is a local stand-in for the hosted engine. It understands
// "<query> near <location>" and plans merge, findPlace and say.
type RuleExtractor struct{}

func NewRuleExtractor() *RuleExtractor { return &RuleExtractor{} }

// Extract returns the location and search query entities found in text.
func (RuleExtractor) Extract(text string) actions.Entities {
	m := nearPattern.FindStringSubmatch(text)
	if m == nil {
		return actions.Entities{}
	}
	entities := actions.Entities{}
	if loc := strings.TrimSpace(m[2]); loc != "" {
		entities[actions.EntityLocation] = []actions.EntityValue{{Value: loc, Confidence: 1}}
	}
	if q := strings.TrimSpace(m[1]); q != "" {
		entities[actions.EntityLocalSearchQuery] = []actions.EntityValue{{Value: q, Confidence: 1}}
	}
	return entities
}

func (r RuleExtractor) RunActions(ctx context.Context, sessionID, text string, c session.Context, h actions.Handlers) (session.Context, error) {
	if err := ctx.Err(); err != nil {
		return c, err
	}

	entities := r.Extract(text)
	if len(entities[actions.EntityLocation]) == 0 {
		h.Say(ctx, sessionID, c, helpMessage)
		return c, nil
	}

	c = h.Merge(ctx, sessionID, c, entities, text)
	c, found := h.FindPlace(ctx, sessionID, c)
	h.Say(ctx, sessionID, c, reply(c, found))
	return c, nil
}

// reply answers from the search that just ran. A place kept from an earlier
// search is not offered again.
func reply(c session.Context, found bool) string {
	if !found {
		if c.Q == "" {
			return fmt.Sprintf("Sorry, I couldn't find anything near %s.", c.Loc)
		}
		return fmt.Sprintf("Sorry, I couldn't find a %s near %s.", c.Q, c.Loc)
	}
	if c.Address == "" {
		return fmt.Sprintf("Try %s.", c.Place)
	}
	return fmt.Sprintf("Try %s, %s.", c.Place, c.Address)
}
