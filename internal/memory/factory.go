package memory

import (
	"context"
	"strings"
)

// NewStore creates a postgres-backed transcript when configured, otherwise
// an in-memory one.
func NewStore(ctx context.Context, databaseURL string) (Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewInMemoryStore(0), nil
	}
	return NewPostgresStore(ctx, databaseURL)
}
