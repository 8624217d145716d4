package shopify

import (
	"context"
	"fmt"

	"storefront/internal/model"
)

// CreateCart creates an empty cart.
func (c *Client) CreateCart(ctx context.Context) (*model.RemoteCart, error) {
	var data struct {
		CartCreate cartPayload `json:"cartCreate"`
	}
	if err := c.query(ctx, mutationCartCreate, nil, &data); err != nil {
		return nil, fmt.Errorf("creating cart: %w", err)
	}
	return unwrapCart(data.CartCreate, "creating cart")
}

// GetCart fetches a cart snapshot. Returns nil, nil when the cart no longer
// exists or the client is not configured.
func (c *Client) GetCart(ctx context.Context, cartID string) (*model.RemoteCart, error) {
	if !c.Configured() {
		return nil, nil
	}

	var data struct {
		Cart *cart `json:"cart"`
	}
	if err := c.query(ctx, queryCart, map[string]any{"cartId": cartID}, &data); err != nil {
		return nil, fmt.Errorf("getting cart: %w", err)
	}
	return toRemoteCart(data.Cart), nil
}

// AddLines adds merchandise to a cart.
func (c *Client) AddLines(ctx context.Context, cartID string, lines []model.LineInput) (*model.RemoteCart, error) {
	vars := map[string]any{"cartId": cartID, "lines": lines}

	var data struct {
		CartLinesAdd cartPayload `json:"cartLinesAdd"`
	}
	if err := c.query(ctx, mutationCartLinesAdd, vars, &data); err != nil {
		return nil, fmt.Errorf("adding cart lines: %w", err)
	}
	return unwrapCart(data.CartLinesAdd, "adding cart lines")
}

// UpdateLines sets the quantity of existing lines.
func (c *Client) UpdateLines(ctx context.Context, cartID string, lines []model.LineUpdate) (*model.RemoteCart, error) {
	vars := map[string]any{"cartId": cartID, "lines": lines}

	var data struct {
		CartLinesUpdate cartPayload `json:"cartLinesUpdate"`
	}
	if err := c.query(ctx, mutationCartLinesUpdate, vars, &data); err != nil {
		return nil, fmt.Errorf("updating cart lines: %w", err)
	}
	return unwrapCart(data.CartLinesUpdate, "updating cart lines")
}

// RemoveLines deletes lines from a cart.
func (c *Client) RemoveLines(ctx context.Context, cartID string, lineIDs []string) (*model.RemoteCart, error) {
	vars := map[string]any{"cartId": cartID, "lineIds": lineIDs}

	var data struct {
		CartLinesRemove cartPayload `json:"cartLinesRemove"`
	}
	if err := c.query(ctx, mutationCartLinesRemove, vars, &data); err != nil {
		return nil, fmt.Errorf("removing cart lines: %w", err)
	}
	return unwrapCart(data.CartLinesRemove, "removing cart lines")
}

// unwrapCart checks user errors before trusting the payload.
func unwrapCart(p cartPayload, op string) (*model.RemoteCart, error) {
	if err := parseUserErrors(p.UserErrors); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if p.Cart == nil {
		return nil, fmt.Errorf("%s: %w", op, model.NewUpstreamError(serviceName, fmt.Errorf("empty cart in response")))
	}
	return toRemoteCart(p.Cart), nil
}
