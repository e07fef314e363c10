package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the per-session locks and the reference count.
type lockEntry struct {
	turn  chan struct{} // Turn gate, held for a whole turn
	state sync.Mutex    // Guards load-modify-save, never held across handlers
	refs  int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.SessionStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the TTL of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock overrides the time source used for new sessions.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a new Session Manager with the given persistence store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST call release(sessionID) when done with the entry.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{turn: make(chan struct{}, 1)}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Serialize runs fn while holding the turn gate of the session, so turns on
// the same session never interleave. Turns on other sessions are unaffected.
// Waiting for the gate honours ctx.
func (m *Manager) Serialize(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	if sessionID == "" {
		return domain.ErrEmptySessionID
	}
	entry := m.acquire(sessionID)
	defer m.release(sessionID)

	select {
	case entry.turn <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-entry.turn }()

	if m.locker != nil {
		unlock, err := m.distributedLock(ctx, sessionID+":turn")
		if err != nil {
			return err
		}
		defer unlock()
	}

	return fn(ctx)
}

// WithLock executes a function while holding the state lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	if sessionID == "" {
		return domain.ErrEmptySessionID
	}
	entry := m.acquire(sessionID)
	entry.state.Lock()
	defer func() {
		entry.state.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.distributedLock(ctx, sessionID)
		if err != nil {
			return err
		}
		defer unlock()
	}

	return fn(ctx)
}

func (m *Manager) distributedLock(ctx context.Context, key string) (func(), error) {
	unlock, err := m.locker.Lock(ctx, key, m.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire distributed lock: %w", err)
	}
	return func() {
		// Release even if the turn's context is already done.
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
				"key", key,
				"err", err,
			)
		}
	}, nil
}

// Load retrieves an existing session from the store.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	var sess *domain.Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		sess, err = m.store.Load(ctx, sessionID)
		return err
	})
	return sess, err
}

// LoadOrCreate loads a session, creating and persisting an idle one if absent.
func (m *Manager) LoadOrCreate(ctx context.Context, sessionID string) (*domain.Session, error) {
	return m.Update(ctx, sessionID, nil)
}

// Update loads (or creates) the session, applies fn and saves the result,
// atomically with respect to other calls for the same session.
// If fn returns an error nothing is saved. A nil fn only ensures the session exists.
// The returned session is a snapshot safe to read without the lock.
func (m *Manager) Update(ctx context.Context, sessionID string, fn func(*domain.Session) error) (*domain.Session, error) {
	var snap *domain.Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		sess, created, err := m.loadOrNew(ctx, sessionID)
		if err != nil {
			return err
		}
		if fn == nil && !created {
			snap = sess.Snapshot()
			return nil
		}
		if fn != nil {
			if err := fn(sess); err != nil {
				return err
			}
		}
		if err := m.store.Save(ctx, sessionID, sess); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		snap = sess.Snapshot()
		return nil
	})
	return snap, err
}

func (m *Manager) loadOrNew(ctx context.Context, sessionID string) (*domain.Session, bool, error) {
	sess, err := m.store.Load(ctx, sessionID)
	if err == nil {
		return sess, false, nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, false, fmt.Errorf("failed to check session existence: %w", err)
	}

	sess = domain.NewSession(sessionID)
	sess.CreatedAt = m.now()
	sess.UpdatedAt = sess.CreatedAt
	m.logger.Debug("session created", "session_id", sessionID)
	return sess, true, nil
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}
