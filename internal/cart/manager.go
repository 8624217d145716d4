package cart

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Manager owns the Store of every active visitor session.
// Stores are created on first access and torn down by Release, Sweep or Close.
type Manager struct {
	backend Backend
	logger  *slog.Logger

	mu     sync.Mutex
	stores map[string]*Store
}

// NewManager creates a manager whose stores all use backend.
func NewManager(backend Backend, logger *slog.Logger) *Manager {
	return &Manager{
		backend: backend,
		logger:  logger,
		stores:  make(map[string]*Store),
	}
}

// Get returns the session's store, creating and initialising it on first use.
func (m *Manager) Get(ctx context.Context, session string) *Store {
	m.mu.Lock()
	s, ok := m.stores[session]
	if !ok {
		s = NewStore(m.backend, WithSession(session), WithLogger(m.logger))
		m.stores[session] = s
		m.logger.Debug("cart store created", "session", session)
	}
	m.mu.Unlock()

	// Outside the manager lock: Init may call the backend.
	s.Init(ctx)
	s.touch()
	return s
}

// Release tears down the session's store. Reports whether one existed.
func (m *Manager) Release(session string) bool {
	m.mu.Lock()
	s, ok := m.stores[session]
	delete(m.stores, session)
	m.mu.Unlock()

	if ok {
		s.Shutdown()
		m.logger.Debug("cart store released", "session", session)
	}
	return ok
}

// Sweep releases stores unused for longer than idle and returns how many
// were released. Persisted cart IDs are kept, so a returning visitor gets
// their cart back.
func (m *Manager) Sweep(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)

	m.mu.Lock()
	var stale []*Store
	for id, s := range m.stores {
		if s.idleSince().Before(cutoff) {
			stale = append(stale, s)
			delete(m.stores, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.Shutdown()
	}
	if len(stale) > 0 {
		m.logger.Info("idle cart stores released", "count", len(stale))
	}
	return len(stale)
}

// Len returns the number of live stores.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stores)
}

// Close tears down every store.
func (m *Manager) Close() {
	m.mu.Lock()
	stores := m.stores
	m.stores = make(map[string]*Store)
	m.mu.Unlock()

	for _, s := range stores {
		s.Shutdown()
	}
}
