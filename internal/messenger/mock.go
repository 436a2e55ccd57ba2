package messenger

import (
	"context"
	"log"
	"sync"
)

// Delivery is one message accepted by a MockSink.
type Delivery struct {
	RecipientID string
	Text        string
}

// MockSink records deliveries in memory instead of calling the platform.
type MockSink struct {
	mu       sync.Mutex
	sent     []Delivery
	failWith error
	quiet    bool
}

func NewMockSink() *MockSink { return &MockSink{} }

// NewRecordingSink returns a MockSink that does not log, for tests.
func NewRecordingSink() *MockSink { return &MockSink{quiet: true} }

// FailWith makes every following Send return err. nil restores delivery.
func (m *MockSink) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

func (m *MockSink) Send(ctx context.Context, recipientID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if recipientID == "" {
		return ErrEmptyRecipient
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.sent = append(m.sent, Delivery{RecipientID: recipientID, Text: text})
	if !m.quiet {
		log.Printf("messenger mock: to=%s text=%q", recipientID, text)
	}
	return nil
}

// Sent returns a copy of every delivery so far, in send order.
func (m *MockSink) Sent() []Delivery {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Delivery, len(m.sent))
	copy(out, m.sent)
	return out
}
