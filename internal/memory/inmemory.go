package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultPerSenderLimit = 200

// InMemoryStore is a simple in-process transcript for local/dev use. It keeps
// the latest turns per sender.
type InMemoryStore struct {
	mu       sync.RWMutex
	records  map[string][]TurnRecord
	maxTurns int
}

func NewInMemoryStore(maxTurnsPerSender int) *InMemoryStore {
	if maxTurnsPerSender <= 0 {
		maxTurnsPerSender = defaultPerSenderLimit
	}
	return &InMemoryStore{
		records:  make(map[string][]TurnRecord),
		maxTurns: maxTurnsPerSender,
	}
}

func (s *InMemoryStore) SaveTurn(_ context.Context, record TurnRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	arr := append(s.records[record.SenderID], record)
	if len(arr) > s.maxTurns {
		arr = append([]TurnRecord(nil), arr[len(arr)-s.maxTurns:]...)
	}
	s.records[record.SenderID] = arr
	return nil
}

func (s *InMemoryStore) RecentTurns(_ context.Context, senderID string, limit int) ([]TurnRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	arr := s.records[senderID]
	if len(arr) == 0 {
		return nil, nil
	}
	limit = TranscriptLimit(limit)
	if limit > len(arr) {
		limit = len(arr)
	}
	out := make([]TurnRecord, 0, limit)
	for i := len(arr) - limit; i < len(arr); i++ {
		out = append(out, arr[i])
	}
	return out, nil
}

func (s *InMemoryStore) Close() error { return nil }
