package cart

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"storefront/internal/adapter"
	"storefront/internal/model"
)

// NotInitializedMessage is shown when a line operation runs before any
// backend cart exists.
const NotInitializedMessage = "Cart not initialized. Please refresh."

// Rollback selects how an optimistic change is undone after a failed mutation.
type Rollback string

const (
	// RollbackRefetch replaces local state with a fresh backend snapshot.
	RollbackRefetch Rollback = "refetch"

	// RollbackSnapshot restores the state captured before the optimistic
	// change, and refetches only when the cart turned out to be stale.
	RollbackSnapshot Rollback = "snapshot"
)

// ParseRollback parses a rollback mode. Empty means RollbackRefetch.
func ParseRollback(s string) (Rollback, error) {
	switch Rollback(s) {
	case "", RollbackRefetch:
		return RollbackRefetch, nil
	case RollbackSnapshot:
		return RollbackSnapshot, nil
	default:
		return "", fmt.Errorf("unknown rollback mode %q", s)
	}
}

// =============================================================================
// REMOTE BACKEND
// =============================================================================
//
// Per cart ID the backend moves through:
//
//   Uninitialized → Creating → Ready ⇄ Mutating → Ready
//   Ready|Mutating --(cart not found)--> Creating (retry) → Ready|Error
//
// Every mutation applies its optimistic change first, then replaces local
// state with the snapshot the backend returns. On failure the error lands in
// State.Error and the optimistic change is rolled back. Error is not
// terminal: the next operation starts over.
// =============================================================================

// RemoteBackend mirrors the cart held by the commerce backend.
type RemoteBackend struct {
	carts    adapter.Carts
	ids      IDStore
	retry    RetryPolicy
	rollback Rollback
	logger   *slog.Logger
}

// RemoteOption configures a RemoteBackend.
type RemoteOption func(*RemoteBackend)

// WithRetryPolicy overrides DefaultRetryPolicy for adds.
func WithRetryPolicy(p RetryPolicy) RemoteOption {
	return func(b *RemoteBackend) { b.retry = p }
}

// WithRollback selects the rollback mode (default RollbackRefetch).
func WithRollback(r Rollback) RemoteOption {
	return func(b *RemoteBackend) { b.rollback = r }
}

// WithRemoteLogger sets the backend logger.
func WithRemoteLogger(l *slog.Logger) RemoteOption {
	return func(b *RemoteBackend) { b.logger = l }
}

// NewRemoteBackend creates a backend that syncs carts through carts and
// remembers each session's cart ID in ids.
func NewRemoteBackend(carts adapter.Carts, ids IDStore, opts ...RemoteOption) *RemoteBackend {
	b := &RemoteBackend{
		carts:    carts,
		ids:      ids,
		retry:    DefaultRetryPolicy(),
		rollback: RollbackRefetch,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Init loads the session's persisted cart, or creates one when none is stored.
func (b *RemoteBackend) Init(ctx context.Context, s *Store) error {
	s.Dispatch(SetLoading{Loading: true}, SetError{})
	defer s.Dispatch(SetLoading{Loading: false})

	cartID, err := b.ids.Get(ctx, s.Session())
	if err != nil {
		b.logger.Error("loading cart id failed", "session", s.Session(), "error", err)
		s.Dispatch(SetError{Error: "Failed to load cart"})
		return fmt.Errorf("loading cart id: %w", err)
	}

	if cartID != "" {
		b.refetch(ctx, s, cartID)
		return nil
	}
	if _, err := b.createCart(ctx, s); err != nil {
		return fmt.Errorf("creating cart: %w", err)
	}
	return nil
}

// AddItem ensures a cart exists, adds the item optimistically, then confirms
// it with the backend. A stale cart is replaced and the add retried
// according to the retry policy.
func (b *RemoteBackend) AddItem(ctx context.Context, s *Store, item Item, quantity int) {
	quantity = max(1, quantity)

	cartID := s.State().CartID
	if cartID == "" {
		id, err := b.createCart(ctx, s)
		if err != nil {
			return
		}
		cartID = id
	}

	before := s.State()
	s.Dispatch(addActions(item, quantity, SetLoading{Loading: true}, SetError{})...)

	lines := []model.LineInput{{MerchandiseID: item.ID, Quantity: quantity}}
	err := b.retry.Do(ctx, func(ctx context.Context, attempt int) error {
		if attempt > 1 {
			b.logger.Warn("cart invalid, creating fresh cart and retrying",
				"session", s.Session(), "cart_id", cartID, "attempt", attempt)
			id, err := b.createCart(ctx, s)
			if err != nil {
				return err
			}
			cartID = id
			// The old cart is gone; a rollback lands on the fresh one.
			before = s.State()
		}

		remote, err := b.carts.AddLines(ctx, cartID, lines)
		if err != nil {
			return err
		}
		s.Dispatch(SetCartData{Cart: remote, CartID: cartID})
		return nil
	})
	if err != nil {
		b.fail(ctx, s, "add item", err, before, cartID)
	}

	s.Dispatch(SetLoading{Loading: false}, OpenCart{})
}

// RemoveItem removes a line. Lines not yet confirmed by the backend are only
// removed locally.
func (b *RemoteBackend) RemoveItem(ctx context.Context, s *Store, lineID string) {
	before := s.State()
	if before.CartID == "" {
		s.Dispatch(SetError{Error: NotInitializedMessage})
		return
	}

	s.Dispatch(RemoveItemOptimistic{LineID: lineID})
	if isTemporaryLine(lineID) {
		return
	}
	s.Dispatch(SetLoading{Loading: true}, SetError{})

	remote, err := b.carts.RemoveLines(ctx, before.CartID, []string{lineID})
	if err != nil {
		b.fail(ctx, s, "remove item", err, before, before.CartID)
	} else {
		s.Dispatch(SetCartData{Cart: remote, CartID: before.CartID})
	}

	s.Dispatch(SetLoading{Loading: false})
}

// UpdateItemQuantity sets a line's quantity. Zero or less removes the line.
func (b *RemoteBackend) UpdateItemQuantity(ctx context.Context, s *Store, lineID string, quantity int) {
	before := s.State()
	if before.CartID == "" {
		s.Dispatch(SetError{Error: NotInitializedMessage})
		return
	}

	s.Dispatch(UpdateQuantityOptimistic{LineID: lineID, Quantity: quantity})
	if isTemporaryLine(lineID) {
		return
	}
	s.Dispatch(SetLoading{Loading: true}, SetError{})

	update := []model.LineUpdate{{ID: lineID, Quantity: max(0, quantity)}}
	remote, err := b.carts.UpdateLines(ctx, before.CartID, update)
	if err != nil {
		b.fail(ctx, s, "update quantity", err, before, before.CartID)
	} else {
		s.Dispatch(SetCartData{Cart: remote, CartID: before.CartID})
	}

	s.Dispatch(SetLoading{Loading: false})
}

// Clear removes every confirmed line, empties the local cart and forgets the
// cart ID; the next add starts a new cart. Without a cart it does nothing.
func (b *RemoteBackend) Clear(ctx context.Context, s *Store) {
	before := s.State()
	if before.CartID == "" {
		return
	}

	s.Dispatch(SetLoading{Loading: true}, SetError{})
	defer s.Dispatch(SetLoading{Loading: false})

	var lineIDs []string
	for _, it := range before.Items {
		if !it.IsTemporary() {
			lineIDs = append(lineIDs, it.LineID)
		}
	}

	if len(lineIDs) > 0 {
		if _, err := b.carts.RemoveLines(ctx, before.CartID, lineIDs); err != nil {
			b.fail(ctx, s, "clear cart", err, before, before.CartID)
			return
		}
	}

	s.Dispatch(ClearCart{})
	b.forget(ctx, s)
}

// createCart creates a backend cart, persists its ID and installs it.
func (b *RemoteBackend) createCart(ctx context.Context, s *Store) (string, error) {
	s.Dispatch(SetLoading{Loading: true})

	remote, err := b.carts.CreateCart(ctx)
	if err != nil {
		b.logger.Error("creating cart failed", "session", s.Session(), "error", err)
		s.Dispatch(SetError{Error: model.Message(err)}, SetLoading{Loading: false})
		return "", err
	}

	if err := b.ids.Set(ctx, s.Session(), remote.ID); err != nil {
		// The cart still works for this process; only persistence is lost.
		b.logger.Warn("persisting cart id failed", "session", s.Session(), "cart_id", remote.ID, "error", err)
	}

	b.logger.Info("cart created", "session", s.Session(), "cart_id", remote.ID)
	s.Dispatch(SetCartData{Cart: remote, CartID: remote.ID})
	return remote.ID, nil
}

// refetch replaces local state with the backend's copy of cartID. A cart
// that is gone or cannot be read is an unrecoverable desync: state is reset
// and the persisted ID dropped.
func (b *RemoteBackend) refetch(ctx context.Context, s *Store, cartID string) {
	remote, err := b.carts.GetCart(ctx, cartID)
	switch {
	case err != nil:
		b.logger.Error("fetching cart failed", "session", s.Session(), "cart_id", cartID, "error", err)
		b.forget(ctx, s)
		s.Dispatch(SetError{Error: model.Message(err)})
	case remote == nil:
		b.logger.Info("cart expired", "session", s.Session(), "cart_id", cartID)
		b.forget(ctx, s)
	default:
		s.Dispatch(SetCartData{Cart: remote, CartID: cartID})
	}
}

// forget drops the persisted cart ID and resets local state.
func (b *RemoteBackend) forget(ctx context.Context, s *Store) {
	if err := b.ids.Delete(ctx, s.Session()); err != nil {
		b.logger.Warn("deleting cart id failed", "session", s.Session(), "error", err)
	}
	s.Dispatch(SetCartData{})
}

// fail records err in state and rolls the optimistic change back.
func (b *RemoteBackend) fail(ctx context.Context, s *Store, op string, err error, before State, cartID string) {
	b.logger.Error("cart operation failed", "op", op, "session", s.Session(), "cart_id", cartID, "error", err)

	switch b.rollback {
	case RollbackSnapshot:
		s.Dispatch(RestoreSnapshot{Snapshot: before})
		if IsStaleCart(err) {
			b.refetch(ctx, s, cartID)
		}
	default:
		b.refetch(ctx, s, cartID)
	}

	s.Dispatch(SetError{Error: model.Message(err)})
}

func isTemporaryLine(lineID string) bool {
	return Item{LineID: lineID}.IsTemporary()
}

var _ Backend = (*RemoteBackend)(nil)
