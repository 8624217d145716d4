package checkout

import (
	"context"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"

	"storefront/internal/transport"
)

// stripeTimeout matches stripe-go's own default client timeout.
const stripeTimeout = 80 * time.Second

// StripeSessions is the Stripe Checkout Sessions API.
type StripeSessions struct {
	client session.Client
}

// NewStripeBackend returns a Stripe API backend whose requests are traced
// like every other outbound call. A nil httpClient uses an instrumented
// default transport.
func NewStripeBackend(httpClient *http.Client) stripe.Backend {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   stripeTimeout,
			Transport: transport.Instrument(http.DefaultTransport, "Stripe"),
		}
	}
	return stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		HTTPClient:        httpClient,
		MaxNetworkRetries: stripe.Int64(0),
	})
}

// NewStripeSessions creates a session client authenticated with secretKey.
// A nil backend uses NewStripeBackend(nil).
func NewStripeSessions(secretKey string, backend stripe.Backend) *StripeSessions {
	if backend == nil {
		backend = NewStripeBackend(nil)
	}
	return &StripeSessions{client: session.Client{B: backend, Key: secretKey}}
}

// Create implements Sessions.
func (s *StripeSessions) Create(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	params.Context = ctx
	return s.client.New(params)
}

// Get implements Sessions.
func (s *StripeSessions) Get(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	return s.client.Get(id, params)
}

// Verify StripeSessions implements Sessions at compile time.
var _ Sessions = (*StripeSessions)(nil)
