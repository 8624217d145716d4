// Package adapter defines the interfaces the storefront uses to reach the
// commerce backend. The Shopify client implements both; tests use Mock.
package adapter

import (
	"context"

	"storefront/internal/model"
)

// Catalog is the read-only side of the commerce backend.
//
// When the backend is not configured, implementations return empty results
// and a nil error so callers can fall back to demo data. A configured backend
// that fails returns the error.
type Catalog interface {
	// Configured reports whether a backend is attached.
	Configured() bool

	// ListProducts returns up to limit products in backend order.
	ListProducts(ctx context.Context, limit int) ([]model.Product, error)

	// GetProduct looks a product up by handle. Returns nil, nil when missing.
	GetProduct(ctx context.Context, handle string) (*model.Product, error)

	// ListCollections returns up to limit collections.
	ListCollections(ctx context.Context, limit int) ([]model.Collection, error)

	// CollectionProducts returns up to limit products of one collection.
	CollectionProducts(ctx context.Context, handle string, limit int) ([]model.Product, error)
}

// Carts is the mutation side of the commerce backend.
// Every mutation returns the full cart snapshot.
//
// Errors wrapping model.ErrCartNotFound mean the cart ID is stale.
// Unconfigured implementations return model.ErrNotConfigured.
type Carts interface {
	CreateCart(ctx context.Context) (*model.RemoteCart, error)

	// GetCart returns nil, nil when the backend no longer has the cart.
	GetCart(ctx context.Context, cartID string) (*model.RemoteCart, error)

	AddLines(ctx context.Context, cartID string, lines []model.LineInput) (*model.RemoteCart, error)
	UpdateLines(ctx context.Context, cartID string, lines []model.LineUpdate) (*model.RemoteCart, error)
	RemoveLines(ctx context.Context, cartID string, lineIDs []string) (*model.RemoteCart, error)
}

// Backend is a commerce backend offering both catalog and carts.
type Backend interface {
	Catalog
	Carts
}
