package chat

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when a session id has no history.
var ErrNotFound = errors.New("chat: session not found")

// ErrForbidden is returned when a caller addresses a session minted for
// a different owner.
var ErrForbidden = errors.New("chat: session belongs to another owner")

// Entry is one message in a session's history.
type Entry struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists session histories keyed by session id. Implementations
// must be safe for concurrent use; concurrent appends to the same
// session may interleave in either order.
type Store interface {
	// Create registers an empty session. Creating an existing session
	// is a no-op.
	Create(ctx context.Context, sessionID string) error

	// Get returns the session's history, oldest first. ErrNotFound if
	// the session does not exist.
	Get(ctx context.Context, sessionID string) ([]Entry, error)

	// Append adds entries to the session, creating it if needed.
	Append(ctx context.Context, sessionID string, entries ...Entry) error

	// Delete removes the session and its entire history irreversibly.
	// ErrNotFound if the session does not exist.
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore is an in-process Store backed by a mutex-guarded map.
// Suitable for single-instance deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]Entry
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]Entry)}
}

func (s *MemoryStore) Create(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		s.sessions[sessionID] = []Entry{}
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]Entry, len(history))
	copy(out, history)
	return out, nil
}

func (s *MemoryStore) Append(_ context.Context, sessionID string, entries ...Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = append(s.sessions[sessionID], entries...)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}
