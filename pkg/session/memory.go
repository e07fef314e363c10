package session

import (
	"context"
	"sync/atomic"

	"github.com/aretw0/parley/pkg/domain"
)

// Memory implements ports.Memory on top of a Manager.
// It is bound to the turn that created it: an awaiting request for that
// turn's session without an originating intent returns to the turn's intent.
// Once the turn calls Finish, writes fail with domain.ErrTurnFinished.
type Memory struct {
	mgr       *Manager
	sessionID string
	intent    string
	finished  atomic.Bool
}

// NewMemory creates a Memory bound to the turn of sessionID handling intent.
func NewMemory(mgr *Manager, sessionID, intent string) *Memory {
	return &Memory{mgr: mgr, sessionID: sessionID, intent: intent}
}

// Finish revokes write access. Writes already committed stay.
func (m *Memory) Finish() {
	m.finished.Store(true)
}

// update applies fn unless the turn has finished. The flag is checked again
// under the session lock so a write racing Finish either lands first or not at all.
func (m *Memory) update(ctx context.Context, sessionID string, fn func(*domain.Session)) error {
	if m.finished.Load() {
		return domain.ErrTurnFinished
	}
	_, err := m.mgr.Update(ctx, sessionID, func(s *domain.Session) error {
		if m.finished.Load() {
			return domain.ErrTurnFinished
		}
		fn(s)
		return nil
	})
	return err
}

// SetAwaiting marks sessionID as waiting for slot. It drops any pending confirmation.
func (m *Memory) SetAwaiting(ctx context.Context, slot, originatingIntent, sessionID string) error {
	if sessionID == "" {
		sessionID = m.sessionID
	}
	if originatingIntent == "" && sessionID == m.sessionID {
		originatingIntent = m.intent
	}
	return m.update(ctx, sessionID, func(s *domain.Session) {
		s.SetAwaiting(slot, originatingIntent)
	})
}

// GetAwaiting returns the awaiting marker of sessionID, or nil.
func (m *Memory) GetAwaiting(ctx context.Context, sessionID string) (*domain.AwaitingState, error) {
	if sessionID == "" {
		sessionID = m.sessionID
	}
	sess, err := m.mgr.Update(ctx, sessionID, nil)
	if err != nil {
		return nil, err
	}
	return sess.Awaiting, nil
}

// ClearAwaiting removes the awaiting marker of sessionID.
func (m *Memory) ClearAwaiting(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		sessionID = m.sessionID
	}
	return m.update(ctx, sessionID, func(s *domain.Session) {
		s.ClearAwaiting()
	})
}
