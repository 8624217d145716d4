package shopify

import (
	"context"
	"fmt"

	"storefront/internal/model"
)

// Default page sizes when callers pass limit <= 0.
const (
	DefaultProductLimit    = 20
	DefaultCollectionLimit = 10
)

// ListProducts returns the first limit products.
// Returns an empty slice when the client is not configured.
func (c *Client) ListProducts(ctx context.Context, limit int) ([]model.Product, error) {
	if !c.Configured() {
		return []model.Product{}, nil
	}
	if limit <= 0 {
		limit = DefaultProductLimit
	}

	var data struct {
		Products connection[product] `json:"products"`
	}
	if err := c.query(ctx, queryProducts, map[string]any{"first": limit}, &data); err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}

	return toProducts(data.Products.nodes()), nil
}

// GetProduct returns the product with the given handle, or nil when the store
// has no such product or the client is not configured.
func (c *Client) GetProduct(ctx context.Context, handle string) (*model.Product, error) {
	if !c.Configured() {
		return nil, nil
	}

	var data struct {
		Product *product `json:"product"`
	}
	if err := c.query(ctx, queryProduct, map[string]any{"handle": handle}, &data); err != nil {
		return nil, fmt.Errorf("getting product %q: %w", handle, err)
	}
	if data.Product == nil {
		return nil, nil
	}

	p := toProduct(*data.Product)
	return &p, nil
}

// ListCollections returns the first limit collections.
func (c *Client) ListCollections(ctx context.Context, limit int) ([]model.Collection, error) {
	if !c.Configured() {
		return []model.Collection{}, nil
	}
	if limit <= 0 {
		limit = DefaultCollectionLimit
	}

	var data struct {
		Collections connection[collection] `json:"collections"`
	}
	if err := c.query(ctx, queryCollections, map[string]any{"first": limit}, &data); err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}

	nodes := data.Collections.nodes()
	out := make([]model.Collection, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, toCollection(n))
	}
	return out, nil
}

// CollectionProducts returns the products of one collection.
// An unknown collection yields an empty slice.
func (c *Client) CollectionProducts(ctx context.Context, handle string, limit int) ([]model.Product, error) {
	if !c.Configured() {
		return []model.Product{}, nil
	}
	if limit <= 0 {
		limit = DefaultProductLimit
	}

	var data struct {
		Collection *struct {
			Products connection[product] `json:"products"`
		} `json:"collection"`
	}
	vars := map[string]any{"handle": handle, "first": limit}
	if err := c.query(ctx, queryCollectionProducts, vars, &data); err != nil {
		return nil, fmt.Errorf("listing collection %q: %w", handle, err)
	}
	if data.Collection == nil {
		return []model.Product{}, nil
	}

	return toProducts(data.Collection.Products.nodes()), nil
}
