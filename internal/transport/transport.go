// Package transport builds the outbound HTTP clients used to reach the
// commerce backend.
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	utls "github.com/refraction-networking/utls"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/net/http2"
)

// =============================================================================
// TLS FINGERPRINT TRANSPORT
// =============================================================================
//
// Shopify fronts the Storefront API with a CDN that scores clients by their
// TLS handshake. Go's crypto/tls hello is easy to single out, and under load
// the storefront sees throttled catalog queries.
//
// The chrome transport dials with uTLS using a browser ClientHello, lets ALPN
// pick h2 or http/1.1, and frames HTTP/2 with x/net/http2 when negotiated.
// Every request is wrapped in an otelhttp span named after the upstream.
// =============================================================================

// DefaultTimeout bounds dialing and whole requests to the backend.
const DefaultTimeout = 30 * time.Second

type options struct {
	timeout     time.Duration
	hello       utls.ClientHelloID
	serviceName string
}

// Option customises the transport built by NewClient.
type Option func(*options)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithHello selects the ClientHello fingerprint (default HelloChrome_Auto).
func WithHello(id utls.ClientHelloID) Option {
	return func(o *options) { o.hello = id }
}

// WithServiceName names the upstream in trace spans.
func WithServiceName(name string) Option {
	return func(o *options) { o.serviceName = name }
}

// NewClient returns an http.Client that presents a browser TLS fingerprint
// and records a client span per request.
func NewClient(opts ...Option) *http.Client {
	o := options{
		timeout:     DefaultTimeout,
		hello:       utls.HelloChrome_Auto,
		serviceName: "upstream",
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &http.Client{
		Timeout:   o.timeout,
		Transport: Instrument(NewChromeTransport(o.timeout, o.hello), o.serviceName),
	}
}

// Instrument wraps rt with otelhttp client spans named "<service> <METHOD>".
func Instrument(rt http.RoundTripper, service string) http.RoundTripper {
	return otelhttp.NewTransport(rt,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return service + " " + r.Method
		}),
	)
}

// NewChromeTransport creates an http.RoundTripper that dials with the given
// uTLS fingerprint. HTTP/2 is tried first; servers that refuse it are served
// over HTTP/1.1 on the same fingerprint.
func NewChromeTransport(timeout time.Duration, hello utls.ClientHelloID) http.RoundTripper {
	dialer := &net.Dialer{Timeout: timeout}
	dial := func(ctx context.Context, network, addr string) (net.Conn, error) {
		return dialFingerprinted(ctx, dialer, hello, network, addr)
	}

	return &chromeTransport{
		h2: &http2.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return dial(ctx, network, addr)
			},
		},
		h1: &http.Transport{
			DialTLSContext:      dial,
			ForceAttemptHTTP2:   false,
			MaxIdleConnsPerHost: 16,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

type chromeTransport struct {
	h2 *http2.Transport
	h1 *http.Transport
}

// RoundTrip implements http.RoundTripper.
func (t *chromeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.h2.RoundTrip(req)
	if err == nil {
		return resp, nil
	}
	// Request bodies are consumed by the failed h2 attempt; only replay
	// when the body can be rebuilt.
	if req.Body != nil && req.GetBody == nil {
		return nil, err
	}
	if req.GetBody != nil {
		body, berr := req.GetBody()
		if berr != nil {
			return nil, err
		}
		req = req.Clone(req.Context())
		req.Body = body
	}
	return t.h1.RoundTrip(req)
}

func dialFingerprinted(ctx context.Context, dialer *net.Dialer, hello utls.ClientHelloID, network, addr string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	tlsConn := utls.UClient(conn, &utls.Config{ServerName: host}, hello)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	return tlsConn, nil
}
