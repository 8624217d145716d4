// Package shopify is the Storefront API client: catalog queries and cart
// mutations over a single GraphQL endpoint.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"storefront/internal/adapter"
	"storefront/internal/model"
	"storefront/internal/transport"
)

// =============================================================================
// STOREFRONT API CLIENT
// =============================================================================
//
// All operations POST {query, variables} to
//
//   https://{domain}/api/{version}/graphql.json
//
// Failures come in three layers and each is checked:
//   - HTTP status >= 400 (auth, throttling, outages)
//   - top-level GraphQL "errors" on an HTTP 200
//   - mutation "userErrors" next to an otherwise valid payload
//
// Requests pass a token-bucket limiter (optional) and a circuit breaker.
// Only upstream failures (5xx, network) count against the breaker; auth and
// throttling answers come from a healthy API.
//
// A client without a store domain is "not configured": catalog reads return
// empty results and cart mutations return model.ErrNotConfigured, so callers
// can switch to demo mode without treating it as a failure.
// =============================================================================

const (
	// DefaultAPIVersion is the Storefront API release the queries target.
	DefaultAPIVersion = "2025-07"

	headerAccessToken = "X-Shopify-Storefront-Access-Token"
	userAgent         = "Storefront/1.0"
	serviceName       = "Shopify"

	// DefaultBreakerThreshold is the run of consecutive upstream failures
	// that opens the breaker.
	DefaultBreakerThreshold = 5

	// DefaultBreakerCooldown is how long the breaker stays open before
	// letting a trial request through.
	DefaultBreakerCooldown = 30 * time.Second
)

// Config holds Storefront API client settings.
type Config struct {
	StoreDomain     string // Normalized, e.g. "shop.myshopify.com". Empty = not configured.
	APIVersion      string // Default: DefaultAPIVersion
	StorefrontToken string // Optional public access token

	// Endpoint overrides the URL derived from StoreDomain (tests).
	Endpoint string

	// HTTPClient overrides the fingerprinting transport (tests).
	HTTPClient *http.Client

	// RateLimit caps outgoing requests per second. 0 disables the limiter.
	RateLimit float64
	RateBurst int // Default: 1

	BreakerThreshold uint32        // Default: DefaultBreakerThreshold
	BreakerCooldown  time.Duration // Default: DefaultBreakerCooldown

	Logger *slog.Logger // Default: slog.Default()
}

// Client talks to one store's Storefront API.
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
	limiter    *rate.Limiter // nil = unlimited
	breaker    *gobreaker.CircuitBreaker[[]byte]
}

// New creates a Storefront API client. It never fails: a Config without a
// store domain yields an unconfigured client.
func New(cfg Config) *Client {
	version := cfg.APIVersion
	if version == "" {
		version = DefaultAPIVersion
	}

	endpoint := cfg.Endpoint
	if endpoint == "" && cfg.StoreDomain != "" {
		endpoint = fmt.Sprintf("https://%s/api/%s/graphql.json", cfg.StoreDomain, version)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = transport.NewClient(transport.WithServiceName(serviceName))
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		httpClient: httpClient,
		endpoint:   endpoint,
		token:      cfg.StorefrontToken,
		breaker:    newBreaker(cfg.BreakerThreshold, cfg.BreakerCooldown, logger),
	}

	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return c
}

func newBreaker(threshold uint32, cooldown time.Duration, logger *slog.Logger) *gobreaker.CircuitBreaker[[]byte] {
	if threshold == 0 {
		threshold = DefaultBreakerThreshold
	}
	if cooldown <= 0 {
		cooldown = DefaultBreakerCooldown
	}

	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        serviceName,
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, model.ErrUpstreamError)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				slog.String("service", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})
}

// Configured reports whether the client has a store to talk to.
func (c *Client) Configured() bool {
	return c.endpoint != ""
}

// Endpoint returns the GraphQL URL, or "" when not configured.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// query executes a GraphQL operation and decodes its data into result.
func (c *Client) query(ctx context.Context, query string, vars map[string]any, result any) error {
	if !c.Configured() {
		return model.NewNotConfiguredError(serviceName)
	}

	req, err := c.newRequest(ctx, &graphqlRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	var resp graphqlResponse
	if err := c.do(req, &resp); err != nil {
		return err
	}

	if len(resp.Errors) > 0 {
		return parseGraphQLErrors(resp.Errors)
	}

	if result != nil && len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, result); err != nil {
			return fmt.Errorf("parsing data: %w", err)
		}
	}

	return nil
}

// === HTTP Helpers ===

func (c *Client) newRequest(ctx context.Context, body *graphqlRequest) (*http.Request, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set(headerAccessToken, c.token)
	}

	return req, nil
}

// do executes the request and decodes the response envelope.
func (c *Client) do(req *http.Request, result any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.roundTrip(req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return model.NewUpstreamError(serviceName, err)
		}
		return err
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}

	return nil
}

// roundTrip sends req and returns the body of a successful response.
func (c *Client) roundTrip(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, model.NewUpstreamError(serviceName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, model.NewUpstreamError(serviceName, fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode >= 400 {
		return nil, parseHTTPError(resp.StatusCode, body)
	}

	return body, nil
}

// parseHTTPError converts non-2xx responses to model.APIError.
func parseHTTPError(statusCode int, body []byte) error {
	switch statusCode {
	case 400, 422:
		return model.NewUserError("Shopify rejected the request",
			fmt.Errorf("HTTP status %d: %s: %w", statusCode, strings.TrimSpace(string(body)), model.ErrInvalidRequest))
	case 401:
		return model.NewUnauthorizedError("Shopify rejected the storefront token")
	case 403:
		return model.NewUnauthorizedError("Shopify access denied")
	case 429:
		return model.NewRateLimitError(serviceName)
	default:
		return model.NewUpstreamError(serviceName,
			fmt.Errorf("HTTP status %d: %s", statusCode, strings.TrimSpace(string(body))))
	}
}

// parseGraphQLErrors converts top-level GraphQL errors.
// Shopify reports query-cost throttling and rejected arguments here with
// HTTP 200. Only errors on Shopify's side are upstream failures.
func parseGraphQLErrors(errs []graphqlError) error {
	msgs := make([]string, 0, len(errs))
	rejected := true
	for _, e := range errs {
		if e.Extensions.Code == "THROTTLED" {
			return model.NewRateLimitError(serviceName)
		}
		if isMissingCart(e.Message) {
			return model.NewCartNotFoundError(e.Message)
		}
		if e.Extensions.Code == "ACCESS_DENIED" {
			return model.NewUnauthorizedError("Shopify access denied")
		}
		if !isRejectedInput(e) {
			rejected = false
		}
		msgs = append(msgs, e.Message)
	}
	if rejected {
		return model.NewUserError(errs[0].Message,
			fmt.Errorf("graphql: %s: %w", strings.Join(msgs, "; "), model.ErrInvalidRequest))
	}
	return model.NewUpstreamError(serviceName, fmt.Errorf("graphql: %s", strings.Join(msgs, "; ")))
}

// rejectedInputCodes are GraphQL error codes caused by the request's
// arguments rather than by Shopify.
var rejectedInputCodes = map[string]bool{
	"BAD_REQUEST":                  true,
	"MAX_COST_EXCEEDED":            true,
	"argumentLiteralsIncompatible": true,
	"argumentNotAccepted":          true,
	"missingRequiredArguments":     true,
	"variableMismatch":             true,
	"invalidVariables":             true,
	"INVALID_VARIABLE":             true,
}

func isRejectedInput(e graphqlError) bool {
	if rejectedInputCodes[e.Extensions.Code] {
		return true
	}
	msg := strings.ToLower(e.Message)
	return strings.Contains(msg, "invalid global id") ||
		strings.Contains(msg, "invalid id") ||
		strings.Contains(msg, "exceeds the maximum")
}

// parseUserErrors turns the first mutation user error into an APIError.
// Returns nil when there are none.
func parseUserErrors(errs []userError) error {
	if len(errs) == 0 {
		return nil
	}
	ue := errs[0]
	if isStaleCartError(ue) {
		return model.NewCartNotFoundError(ue.Message)
	}
	return model.NewUserError(ue.Message, nil)
}

// isStaleCartError reports whether a user error means the cart ID is gone.
// The structured code on the cartId field is authoritative; the message
// check covers API versions that omit codes.
func isStaleCartError(ue userError) bool {
	if ue.Code == "INVALID" || ue.Code == "NOT_FOUND" {
		for _, f := range ue.Field {
			if f == "cartId" {
				return true
			}
		}
	}
	return isMissingCart(ue.Message)
}

func isMissingCart(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "does not exist")
}

// Verify Client implements adapter.Backend at compile time.
var _ adapter.Backend = (*Client)(nil)
