package cart

import (
	"context"
	"fmt"

	"storefront/internal/model"
)

// ProductLookup resolves a product by ID or handle.
type ProductLookup func(idOrHandle string) (model.Product, bool)

// LocalBackend keeps the cart in memory only. It is used when no commerce
// backend is configured and never performs I/O.
type LocalBackend struct {
	lookup ProductLookup
}

// NewLocalBackend creates a local-only backend that prices items from lookup.
func NewLocalBackend(lookup ProductLookup) *LocalBackend {
	return &LocalBackend{lookup: lookup}
}

func (b *LocalBackend) Init(_ context.Context, s *Store) error {
	s.Dispatch(SetLoading{Loading: false})
	return nil
}

// AddItem takes the price from the catalog, not from the caller.
func (b *LocalBackend) AddItem(_ context.Context, s *Store, item Item, quantity int) {
	p, ok := b.lookup(item.ID)
	if !ok && item.Handle != "" {
		p, ok = b.lookup(item.Handle)
	}
	if !ok {
		s.Dispatch(SetError{Error: fmt.Sprintf("product %q not found", item.ID)})
		return
	}

	item.ID = p.ID
	item.Handle = p.Handle
	item.Price = p.Price
	if item.Name == "" {
		item.Name = p.Name
	}
	if item.Image == "" {
		item.Image = p.Image
	}

	s.Dispatch(addActions(item, quantity, SetError{}, OpenCart{})...)
}

func (b *LocalBackend) RemoveItem(_ context.Context, s *Store, lineID string) {
	s.Dispatch(RemoveItemOptimistic{LineID: lineID})
}

func (b *LocalBackend) UpdateItemQuantity(_ context.Context, s *Store, lineID string, quantity int) {
	s.Dispatch(UpdateQuantityOptimistic{LineID: lineID, Quantity: quantity})
}

func (b *LocalBackend) Clear(_ context.Context, s *Store) {
	s.Dispatch(ClearCart{})
}

// addActions adds quantity units as one optimistic action, followed by extra.
func addActions(item Item, quantity int, extra ...Action) []Action {
	actions := make([]Action, 0, 1+len(extra))
	actions = append(actions, AddItemOptimistic{Item: item, Quantity: max(1, quantity)})
	return append(actions, extra...)
}

var _ Backend = (*LocalBackend)(nil)
