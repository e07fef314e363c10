// Package memory keeps sessions in process memory. It is the default store
// and the one used by tests.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/parley/pkg/domain"
)

// Store is a map-backed ports.SessionStore. Sessions are copied on the way
// in and on the way out, so callers never share state with the store.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*domain.Session)}
}

func (s *Store) Save(_ context.Context, sessionID string, sess *domain.Session) error {
	if sessionID == "" {
		return domain.ErrEmptySessionID
	}
	snap := sess.Snapshot()

	s.mu.Lock()
	s.sessions[sessionID] = snap
	s.mu.Unlock()
	return nil
}

func (s *Store) Load(_ context.Context, sessionID string) (*domain.Session, error) {
	if sessionID == "" {
		return nil, domain.ErrEmptySessionID
	}
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sess.Snapshot(), nil
}

// Delete is a no-op for unknown sessions.
func (s *Store) Delete(_ context.Context, sessionID string) error {
	if sessionID == "" {
		return domain.ErrEmptySessionID
	}
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

// List returns the stored session IDs in lexical order.
func (s *Store) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	slices.Sort(ids)
	return ids, nil
}
