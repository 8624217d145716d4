// Package checkout starts hosted payment sessions for a set of products and
// reports their status.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stripe/stripe-go/v81"

	"storefront/internal/model"
)

// =============================================================================
// CHECKOUT INITIATOR
// =============================================================================
//
// Prices always come from the product list, never from the caller. Every item
// is validated before the payment provider is contacted, so a single unknown
// product means no session and no network call.
//
// Calls are single shot. Failures are folded into the result's Error field;
// the caller decides the HTTP status.
// =============================================================================

// DefaultCurrency is used when the Initiator is built without one.
const DefaultCurrency = "usd"

// Messages surfaced in results.
const (
	MsgNotConfigured     = "payment provider is not configured"
	MsgItemsRequired     = "Items array is required"
	MsgSessionIDRequired = "Session ID is required"
	msgCreateFailed      = "Failed to create checkout session"
	msgRetrieveFailed    = "Failed to retrieve session"
)

// Item is one product to pay for.
type Item struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// SessionResult is the outcome of CreateSession. Exactly one of the fields
// is set.
type SessionResult struct {
	ClientSecret *string `json:"clientSecret"`
	Error        *string `json:"error,omitempty"`
}

// StatusResult is the outcome of SessionStatus.
type StatusResult struct {
	Status        *string `json:"status"`
	CustomerEmail *string `json:"customerEmail"`
	Error         *string `json:"error,omitempty"`
}

// Sessions is the payment provider's checkout session API.
type Sessions interface {
	Create(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(ctx context.Context, id string) (*stripe.CheckoutSession, error)
}

// ProductLookup resolves a product by ID.
type ProductLookup func(id string) (model.Product, bool)

// Initiator creates embedded checkout sessions.
type Initiator struct {
	sessions Sessions // nil = not configured
	lookup   ProductLookup
	currency string
	logger   *slog.Logger
}

// NewInitiator creates an Initiator. A nil sessions makes every call report
// MsgNotConfigured.
func NewInitiator(sessions Sessions, lookup ProductLookup, currency string, logger *slog.Logger) *Initiator {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Initiator{
		sessions: sessions,
		lookup:   lookup,
		currency: strings.ToLower(currency),
		logger:   logger,
	}
}

// Configured reports whether a payment provider is available.
func (i *Initiator) Configured() bool {
	return i.sessions != nil
}

// CreateSession validates items and opens an embedded, payment-mode session
// that never redirects on completion.
func (i *Initiator) CreateSession(ctx context.Context, items []Item) SessionResult {
	if !i.Configured() {
		return SessionResult{Error: stripe.String(MsgNotConfigured)}
	}

	lineItems, err := i.lineItems(items)
	if err != nil {
		return SessionResult{Error: stripe.String(err.Error())}
	}

	params := &stripe.CheckoutSessionParams{
		Mode:                 stripe.String(string(stripe.CheckoutSessionModePayment)),
		UIMode:               stripe.String(string(stripe.CheckoutSessionUIModeEmbedded)),
		RedirectOnCompletion: stripe.String(string(stripe.CheckoutSessionRedirectOnCompletionNever)),
		LineItems:            lineItems,
	}

	sess, err := i.sessions.Create(ctx, params)
	if err != nil {
		i.logger.Error("failed to create checkout session",
			slog.Int("items", len(items)),
			slog.String("error", err.Error()))
		return SessionResult{Error: stripe.String(errorMessage(err, msgCreateFailed))}
	}

	i.logger.Info("checkout session created",
		slog.String("session_id", sess.ID),
		slog.Int("items", len(items)))

	return SessionResult{ClientSecret: stripe.String(sess.ClientSecret)}
}

// SessionStatus reports the status and customer email of a session.
func (i *Initiator) SessionStatus(ctx context.Context, sessionID string) StatusResult {
	if !i.Configured() {
		return StatusResult{Error: stripe.String(MsgNotConfigured)}
	}
	if strings.TrimSpace(sessionID) == "" {
		return StatusResult{Error: stripe.String(MsgSessionIDRequired)}
	}

	sess, err := i.sessions.Get(ctx, sessionID)
	if err != nil {
		i.logger.Error("failed to retrieve checkout session",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()))
		return StatusResult{Error: stripe.String(errorMessage(err, msgRetrieveFailed))}
	}

	result := StatusResult{Status: stripe.String(string(sess.Status))}
	if sess.CustomerDetails != nil && sess.CustomerDetails.Email != "" {
		result.CustomerEmail = stripe.String(sess.CustomerDetails.Email)
	}
	return result
}

// lineItems validates every item before building any provider params.
func (i *Initiator) lineItems(items []Item) ([]*stripe.CheckoutSessionLineItemParams, error) {
	if len(items) == 0 {
		return nil, errors.New(MsgItemsRequired)
	}

	out := make([]*stripe.CheckoutSessionLineItemParams, 0, len(items))
	for _, item := range items {
		p, ok := i.lookup(item.ProductID)
		if !ok || p.ID != item.ProductID {
			return nil, fmt.Errorf("Product with id %q not found", item.ProductID)
		}
		if item.Quantity < 1 {
			return nil, fmt.Errorf("Invalid quantity %d for product %q", item.Quantity, item.ProductID)
		}

		out = append(out, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(i.currency),
				UnitAmount: stripe.Int64(p.Price),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(p.Name),
					Description: stripe.String(p.Description),
				},
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}
	return out, nil
}

// errorMessage prefers the provider's human-readable message.
func errorMessage(err error, fallback string) string {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return stripeErr.Msg
	}
	if msg := model.Message(err); msg != "" {
		return msg
	}
	return fallback
}
