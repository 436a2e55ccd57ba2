// Package monitor fans bridge events out to operator stream subscribers.
package monitor

import (
	"sync"

	"github.com/google/uuid"

	"github.com/antoniostano/wayfinder/internal/protocol"
)

const (
	defaultBuffer  = 256
	defaultHistory = 100
)

type subscriber struct {
	ch        chan any
	sessionID string
}

// Hub delivers protocol monitor events to subscribers. Publishing never
// blocks: a subscriber whose buffer is full misses the event.
type Hub struct {
	mu         sync.Mutex
	subs       map[string]*subscriber
	history    []any
	historyMax int
	dropped    int64
}

func NewHub(historyMax int) *Hub {
	if historyMax <= 0 {
		historyMax = defaultHistory
	}
	return &Hub{
		subs:       make(map[string]*subscriber),
		historyMax: historyMax,
	}
}

// Subscribe registers a subscriber. sessionID narrows the stream to one
// session; "" receives everything. The returned id is used with Filter and
// the cancel func unsubscribes and closes the channel.
func (h *Hub) Subscribe(sessionID string) (string, <-chan any, func()) {
	id := uuid.NewString()
	sub := &subscriber{ch: make(chan any, defaultBuffer), sessionID: sessionID}

	h.mu.Lock()
	h.subs[id] = sub
	h.mu.Unlock()

	return id, sub.ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if s, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(s.ch)
		}
	}
}

// Filter changes the session a subscriber listens to.
func (h *Hub) Filter(id, sessionID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.subs[id]
	if !ok {
		return false
	}
	s.sessionID = sessionID
	return true
}

// Publish records event in the history and offers it to every matching
// subscriber.
func (h *Hub) Publish(event any) {
	if h == nil || event == nil {
		return
	}
	sessionID := protocol.SessionOf(event)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.history = append(h.history, event)
	if len(h.history) > h.historyMax {
		trimFrom := len(h.history) - h.historyMax
		h.history = append([]any(nil), h.history[trimFrom:]...)
	}
	for _, s := range h.subs {
		if s.sessionID != "" && s.sessionID != sessionID {
			continue
		}
		select {
		case s.ch <- event:
		default:
			h.dropped++
		}
	}
}

// Recent returns up to limit of the latest events for sessionID ("" for all),
// oldest first.
func (h *Hub) Recent(sessionID string, limit int) []any {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]any, 0, len(h.history))
	for _, ev := range h.history {
		if sessionID != "" && protocol.SessionOf(ev) != sessionID {
			continue
		}
		out = append(out, ev)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Dropped counts events a full subscriber buffer refused.
func (h *Hub) Dropped() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}
