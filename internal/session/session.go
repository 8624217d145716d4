// Package session identifies the visitor behind a request so each visitor
// gets their own cart.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dunglas/httpsfv"
	"github.com/google/uuid"
)

// =============================================================================
// VISITOR SESSIONS
// =============================================================================
//
// Browsers are identified by an HttpOnly cookie. Scripted clients (the CLI,
// MCP hosts) send a structured header instead (RFC 8941 Dictionary):
//
//   Cart-Session: id="3f2b9c1e-..."
//
// The header wins when both are present. A request carrying neither gets a
// freshly generated ID and a Set-Cookie.
// =============================================================================

const (
	// HeaderName carries the session ID for non-browser clients.
	HeaderName = "Cart-Session"

	// CookieName carries the session ID for browsers.
	CookieName = "storefront_session"

	maxIDLength = 128
)

type contextKey struct{}

// ParseHeader extracts the session ID from a Cart-Session header.
// Parameters on the item are ignored.
//
// Returns error if header is empty, malformed, missing the id key, or the
// ID contains characters outside [A-Za-z0-9._-].
func ParseHeader(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("empty Cart-Session header")
	}

	dict, err := httpsfv.UnmarshalDictionary([]string{header})
	if err != nil {
		return "", fmt.Errorf("invalid Cart-Session header: %w", err)
	}

	member, ok := dict.Get("id")
	if !ok {
		return "", errors.New("id key not found in Cart-Session header")
	}

	item, ok := member.(httpsfv.Item)
	if !ok {
		return "", errors.New("id value must be an item")
	}

	// Tokens are accepted alongside strings: id=abc is as clear as id="abc".
	var id string
	switch v := item.Value.(type) {
	case string:
		id = v
	case httpsfv.Token:
		id = string(v)
	default:
		return "", errors.New("id value must be a string")
	}

	if !ValidID(id) {
		return "", fmt.Errorf("invalid session id %q", id)
	}
	return id, nil
}

// FormatHeader renders id as a Cart-Session header value.
func FormatHeader(id string) (string, error) {
	if !ValidID(id) {
		return "", fmt.Errorf("invalid session id %q", id)
	}
	dict := httpsfv.NewDictionary()
	dict.Add("id", httpsfv.NewItem(id))
	return httpsfv.Marshal(dict)
}

// ValidID reports whether id is usable as a session ID: 1-128 characters
// from [A-Za-z0-9._-]. The same rule guards cookie values and Redis keys.
func ValidID(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}

// NewID generates a random session ID.
func NewID() string {
	return uuid.NewString()
}

// WithID stores the session ID in ctx.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the session ID stored by the middleware, or "".
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}
