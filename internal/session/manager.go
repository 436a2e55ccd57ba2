package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("session not found")

type Session struct {
	ID             string    `json:"session_id"`
	SenderID       string    `json:"sender_id"`
	Context        Context   `json:"context"`
	Runs           int       `json:"runs"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

type entry struct {
	s *Session
	// runLock serializes action runs for one session; capacity 1.
	runLock chan struct{}
}

// Store owns every live session. Callers never touch sessions directly; they
// resolve, read, write and run through the Store.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	bySender map[string]string
	idleTTL  time.Duration
	onExpire func(*Session)
}

// NewStore creates a store. idleTTL <= 0 keeps sessions for the process lifetime.
func NewStore(idleTTL time.Duration) *Store {
	if idleTTL < 0 {
		idleTTL = 0
	}
	return &Store{
		sessions: make(map[string]*entry),
		bySender: make(map[string]string),
		idleTTL:  idleTTL,
	}
}

func (st *Store) SetExpireHook(hook func(*Session)) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.onExpire = hook
}

// Resolve returns the session for senderID, creating it on first contact.
// The lookup and the creation happen under one lock, so concurrent first
// messages from the same sender always land in the same session.
func (st *Store) Resolve(senderID string) (sessionID string, created bool) {
	now := time.Now().UTC()

	st.mu.Lock()
	defer st.mu.Unlock()
	if id, ok := st.bySender[senderID]; ok {
		if e, ok := st.sessions[id]; ok {
			e.s.LastActivityAt = now
			return id, false
		}
	}

	s := &Session{
		ID:             uuid.NewString(),
		SenderID:       senderID,
		CreatedAt:      now,
		LastActivityAt: now,
	}
	st.sessions[s.ID] = &entry{s: s, runLock: make(chan struct{}, 1)}
	st.bySender[senderID] = s.ID
	return s.ID, true
}

// Lookup returns the session bound to senderID without creating one.
func (st *Store) Lookup(senderID string) (string, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	id, ok := st.bySender[senderID]
	if !ok {
		return "", false
	}
	if _, live := st.sessions[id]; !live {
		return "", false
	}
	return id, true
}

func (st *Store) Get(sessionID string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	e, ok := st.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(e.s), nil
}

// SenderOf returns the platform sender id bound to sessionID, or "".
func (st *Store) SenderOf(sessionID string) string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	e, ok := st.sessions[sessionID]
	if !ok {
		return ""
	}
	return e.s.SenderID
}

// Put replaces the stored context of a session.
func (st *Store) Put(sessionID string, c Context) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	e, ok := st.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	e.s.Context = c.Clone()
	e.s.LastActivityAt = time.Now().UTC()
	return nil
}

// Run executes fn with a copy of the session's context and stores the
// returned context when fn succeeds. Runs for the same session never overlap:
// a second run waits for the first and starts from its result. When fn fails
// the stored context is left as it was.
func (st *Store) Run(ctx context.Context, sessionID string, fn func(Context) (Context, error)) error {
	st.mu.RLock()
	e, ok := st.sessions[sessionID]
	st.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	select {
	case e.runLock <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-e.runLock }()

	st.mu.RLock()
	if st.sessions[sessionID] != e {
		// Evicted while this run waited for the lock.
		st.mu.RUnlock()
		return ErrNotFound
	}
	current := e.s.Context.Clone()
	st.mu.RUnlock()

	next, err := fn(current)

	st.mu.Lock()
	defer st.mu.Unlock()
	e.s.LastActivityAt = time.Now().UTC()
	if err != nil {
		return err
	}
	e.s.Context = next.Clone()
	e.s.Runs++
	return nil
}

func (st *Store) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// StartJanitor evicts idle sessions until ctx is done. It is a no-op when the
// store keeps sessions for the process lifetime.
func (st *Store) StartJanitor(ctx context.Context, interval time.Duration) {
	if st.idleTTL <= 0 {
		return
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				st.expireIdle()
			}
		}
	}()
}

func (st *Store) expireIdle() {
	now := time.Now().UTC()
	var expired []*Session

	st.mu.Lock()
	for id, e := range st.sessions {
		if now.Sub(e.s.LastActivityAt) < st.idleTTL {
			continue
		}
		// Skip sessions with a run in flight.
		if len(e.runLock) > 0 {
			continue
		}
		delete(st.sessions, id)
		if st.bySender[e.s.SenderID] == id {
			delete(st.bySender, e.s.SenderID)
		}
		expired = append(expired, clone(e.s))
	}
	hook := st.onExpire
	st.mu.Unlock()

	if hook != nil {
		for _, s := range expired {
			hook(s)
		}
	}
}

func clone(s *Session) *Session {
	c := *s
	c.Context = s.Context.Clone()
	return &c
}
