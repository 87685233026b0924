package storage

import (
	"context"
	"sync"
	"time"

	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/audit"
)

// MemoryStore implements Store with an in-process map. Each session owns its
// own mutex, so mutations against different sessions proceed without
// interference while mutations within a session are serialized.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memorySession
}

type memorySession struct {
	mu     sync.Mutex
	state  *SessionState
	events []audit.Event
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*memorySession)}
}

// session returns the entry for sessionID, creating it on first reference.
func (s *MemoryStore) session(sessionID string) *memorySession {
	s.mu.RLock()
	entry, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok {
		return entry
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok = s.sessions[sessionID]; ok {
		return entry
	}
	entry = &memorySession{state: NewSessionState(sessionID)}
	s.sessions[sessionID] = entry
	return entry
}

// Mutate runs fn under the session's lock and commits slots and events as
// one step.
func (s *MemoryStore) Mutate(ctx context.Context, sessionID string, fn MutateFunc) error {
	entry := s.session(sessionID)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	working := entry.state.Clone()
	events, err := fn(working)

	entry.state = working
	entry.events = append(entry.events, events...)
	return err
}

// Snapshot returns a copy of the session's ring slots.
func (s *MemoryStore) Snapshot(ctx context.Context, sessionID string) (*SessionState, error) {
	entry := s.session(sessionID)

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.state.Clone(), nil
}

// Trail returns the session's audit events in append order.
func (s *MemoryStore) Trail(ctx context.Context, sessionID string) ([]audit.Event, error) {
	entry := s.session(sessionID)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	trail := make([]audit.Event, len(entry.events))
	copy(trail, entry.events)
	return trail, nil
}

// Sessions returns the IDs of all known sessions.
func (s *MemoryStore) Sessions(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids, nil
}

// LastActivity returns the recorded time of the session's most recent event.
func (s *MemoryStore) LastActivity(ctx context.Context, sessionID string) (time.Time, error) {
	entry := s.session(sessionID)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if len(entry.events) == 0 {
		return time.Time{}, nil
	}
	return entry.events[len(entry.events)-1].RecordedAt, nil
}

// Evict removes the session's slots and trail.
func (s *MemoryStore) Evict(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// Close releases the store's sessions.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]*memorySession)
	return nil
}
