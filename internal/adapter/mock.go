package adapter

import (
	"context"

	"storefront/internal/model"
)

// Mock implements Backend for testing.
// Each method can be configured via function fields.
type Mock struct {
	ConfiguredFunc         func() bool
	ListProductsFunc       func(ctx context.Context, limit int) ([]model.Product, error)
	GetProductFunc         func(ctx context.Context, handle string) (*model.Product, error)
	ListCollectionsFunc    func(ctx context.Context, limit int) ([]model.Collection, error)
	CollectionProductsFunc func(ctx context.Context, handle string, limit int) ([]model.Product, error)

	CreateCartFunc  func(ctx context.Context) (*model.RemoteCart, error)
	GetCartFunc     func(ctx context.Context, cartID string) (*model.RemoteCart, error)
	AddLinesFunc    func(ctx context.Context, cartID string, lines []model.LineInput) (*model.RemoteCart, error)
	UpdateLinesFunc func(ctx context.Context, cartID string, lines []model.LineUpdate) (*model.RemoteCart, error)
	RemoveLinesFunc func(ctx context.Context, cartID string, lineIDs []string) (*model.RemoteCart, error)
}

// Configured calls ConfiguredFunc or reports true.
func (m *Mock) Configured() bool {
	if m.ConfiguredFunc != nil {
		return m.ConfiguredFunc()
	}
	return true
}

// ListProducts calls the configured ListProductsFunc or returns no products.
func (m *Mock) ListProducts(ctx context.Context, limit int) ([]model.Product, error) {
	if m.ListProductsFunc != nil {
		return m.ListProductsFunc(ctx, limit)
	}
	return nil, nil
}

// GetProduct calls the configured GetProductFunc or reports a missing product.
func (m *Mock) GetProduct(ctx context.Context, handle string) (*model.Product, error) {
	if m.GetProductFunc != nil {
		return m.GetProductFunc(ctx, handle)
	}
	return nil, nil
}

// ListCollections calls the configured ListCollectionsFunc or returns none.
func (m *Mock) ListCollections(ctx context.Context, limit int) ([]model.Collection, error) {
	if m.ListCollectionsFunc != nil {
		return m.ListCollectionsFunc(ctx, limit)
	}
	return nil, nil
}

// CollectionProducts calls the configured CollectionProductsFunc or returns none.
func (m *Mock) CollectionProducts(ctx context.Context, handle string, limit int) ([]model.Product, error) {
	if m.CollectionProductsFunc != nil {
		return m.CollectionProductsFunc(ctx, handle, limit)
	}
	return nil, nil
}

// CreateCart calls the configured CreateCartFunc or returns an error.
func (m *Mock) CreateCart(ctx context.Context) (*model.RemoteCart, error) {
	if m.CreateCartFunc != nil {
		return m.CreateCartFunc(ctx)
	}
	return nil, model.NewInternalError(nil)
}

// GetCart calls the configured GetCartFunc or reports a missing cart.
func (m *Mock) GetCart(ctx context.Context, cartID string) (*model.RemoteCart, error) {
	if m.GetCartFunc != nil {
		return m.GetCartFunc(ctx, cartID)
	}
	return nil, nil
}

// AddLines calls the configured AddLinesFunc or returns an error.
func (m *Mock) AddLines(ctx context.Context, cartID string, lines []model.LineInput) (*model.RemoteCart, error) {
	if m.AddLinesFunc != nil {
		return m.AddLinesFunc(ctx, cartID, lines)
	}
	return nil, model.NewCartNotFoundError("")
}

// UpdateLines calls the configured UpdateLinesFunc or returns an error.
func (m *Mock) UpdateLines(ctx context.Context, cartID string, lines []model.LineUpdate) (*model.RemoteCart, error) {
	if m.UpdateLinesFunc != nil {
		return m.UpdateLinesFunc(ctx, cartID, lines)
	}
	return nil, model.NewCartNotFoundError("")
}

// RemoveLines calls the configured RemoveLinesFunc or returns an error.
func (m *Mock) RemoveLines(ctx context.Context, cartID string, lineIDs []string) (*model.RemoteCart, error) {
	if m.RemoveLinesFunc != nil {
		return m.RemoveLinesFunc(ctx, cartID, lineIDs)
	}
	return nil, model.NewCartNotFoundError("")
}

// Verify Mock implements Backend interface at compile time.
var _ Backend = (*Mock)(nil)
