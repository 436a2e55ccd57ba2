package session

import "encoding/json"

// Known context keys. Anything else travels in Context.Extra.
const (
	KeyLocation = "loc"
	KeyQuery    = "q"
	KeyPlace    = "place"
	KeyAddress  = "address"
)

// Context is the conversation memory carried across a session's action runs.
type Context struct {
	Loc     string
	Q       string
	Place   string
	Address string

	// Extra holds keys the bridge does not interpret itself.
	Extra map[string]any
}

// Clone returns a copy that shares no map with c.
func (c Context) Clone() Context {
	out := c
	if c.Extra != nil {
		out.Extra = make(map[string]any, len(c.Extra))
		for k, v := range c.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// IsZero reports whether the context carries no memory at all.
func (c Context) IsZero() bool {
	return c.Loc == "" && c.Q == "" && c.Place == "" && c.Address == "" && len(c.Extra) == 0
}

// MarshalJSON flattens known fields and Extra into one object, so the context
// can be handed to the NLP engine as-is.
func (c Context) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Extra)+4)
	for k, v := range c.Extra {
		out[k] = v
	}
	setIfNotEmpty(out, KeyLocation, c.Loc)
	setIfNotEmpty(out, KeyQuery, c.Q)
	setIfNotEmpty(out, KeyPlace, c.Place)
	setIfNotEmpty(out, KeyAddress, c.Address)
	return json.Marshal(out)
}

func (c *Context) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Context{}
	for k, v := range raw {
		s, isString := v.(string)
		switch {
		case k == KeyLocation && isString:
			c.Loc = s
		case k == KeyQuery && isString:
			c.Q = s
		case k == KeyPlace && isString:
			c.Place = s
		case k == KeyAddress && isString:
			c.Address = s
		default:
			if c.Extra == nil {
				c.Extra = make(map[string]any)
			}
			c.Extra[k] = v
		}
	}
	return nil
}

func setIfNotEmpty(m map[string]any, key, value string) {
	if value == "" {
		return
	}
	m[key] = value
}
