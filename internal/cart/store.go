package cart

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Backend is the cart persistence strategy, chosen once at startup:
// LocalBackend when no commerce backend is configured, RemoteBackend otherwise.
//
// Backends report failures through the store's State.Error; none of these
// methods return errors.
type Backend interface {
	Init(ctx context.Context, s *Store) error
	AddItem(ctx context.Context, s *Store, item Item, quantity int)
	RemoveItem(ctx context.Context, s *Store, lineID string)
	UpdateItemQuantity(ctx context.Context, s *Store, lineID string, quantity int)
	Clear(ctx context.Context, s *Store)
}

// Store owns one visitor's cart state. All changes go through Dispatch,
// which runs Reduce under the store lock. Backend network calls run outside
// the lock, so concurrent operations interleave and the last completion wins.
type Store struct {
	session string
	backend Backend
	logger  *slog.Logger

	initMu      sync.Mutex
	initialized bool

	mu       sync.Mutex
	state    State
	closed   bool
	lastUsed time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithSession sets the visitor session the store belongs to.
// RemoteBackend uses it as the IDStore key.
func WithSession(id string) StoreOption {
	return func(s *Store) { s.session = id }
}

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// NewStore creates an empty store. Call Init before the first operation to
// load any persisted cart.
func NewStore(backend Backend, opts ...StoreOption) *Store {
	s := &Store{
		backend:  backend,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		state:    State{Items: []Item{}},
		lastUsed: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Session returns the visitor session ID.
func (s *Store) Session() string {
	return s.session
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Dispatch applies actions in order and returns the resulting state.
// A closed store ignores dispatches.
func (s *Store) Dispatch(actions ...Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.state.Clone()
	}
	for _, a := range actions {
		s.state = Reduce(s.state, a)
		s.logger.Debug("cart action", "session", s.session, "action", fmt.Sprintf("%T", a))
	}
	s.lastUsed = time.Now()
	return s.state.Clone()
}

// Init loads the persisted cart. Once a call succeeds, later calls do no
// work; a failed Init is retried on the next call.
func (s *Store) Init(ctx context.Context) State {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	if !s.initialized {
		if err := s.backend.Init(ctx, s); err != nil {
			s.logger.Warn("cart init failed, will retry", "session", s.session, "error", err)
		} else {
			s.initialized = true
		}
	}
	return s.State()
}

// AddItem adds quantity units of item and opens the cart.
func (s *Store) AddItem(ctx context.Context, item Item, quantity int) State {
	s.backend.AddItem(ctx, s, item, quantity)
	return s.State()
}

// RemoveItem removes a cart line.
func (s *Store) RemoveItem(ctx context.Context, lineID string) State {
	s.backend.RemoveItem(ctx, s, lineID)
	return s.State()
}

// UpdateItemQuantity sets a line's quantity; zero or less removes it.
func (s *Store) UpdateItemQuantity(ctx context.Context, lineID string, quantity int) State {
	s.backend.UpdateItemQuantity(ctx, s, lineID, quantity)
	return s.State()
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) State {
	s.backend.Clear(ctx, s)
	return s.State()
}

func (s *Store) Toggle() State { return s.Dispatch(ToggleCart{}) }
func (s *Store) Open() State   { return s.Dispatch(OpenCart{}) }
func (s *Store) Close() State  { return s.Dispatch(CloseCart{}) }

// Shutdown detaches the store: later dispatches, including completions of
// requests still in flight, are dropped.
func (s *Store) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Store) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func (s *Store) touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = time.Now()
}
