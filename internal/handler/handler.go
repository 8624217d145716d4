// Package handler provides the HTTP and MCP surfaces of the storefront.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/model"
)

// Info describes the storefront to UI clients.
type Info struct {
	StoreDomain          string // Empty in demo mode
	StripePublishableKey string // Empty when checkout is disabled
	Version              string
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	catalog  *catalog.Service
	carts    *cart.Manager
	checkout *checkout.Initiator
	info     Info
	logger   *slog.Logger
}

// New creates a new Handler.
func New(catalogSvc *catalog.Service, carts *cart.Manager, initiator *checkout.Initiator, info Info, logger *slog.Logger) *Handler {
	return &Handler{
		catalog:  catalogSvc,
		carts:    carts,
		checkout: initiator,
		info:     info,
		logger:   logger,
	}
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
// Uses Go 1.22+ method routing patterns.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/storefront", h.handleStorefront)

	// Catalog
	mux.HandleFunc("GET /api/products", h.handleListProducts)
	mux.HandleFunc("GET /api/products/{handle}", h.handleGetProduct)
	mux.HandleFunc("GET /api/collections", h.handleListCollections)

	// Cart - always 200 with full state; failures live in state.error
	mux.HandleFunc("GET /api/cart", h.handleGetCart)
	mux.HandleFunc("POST /api/cart/items", h.handleAddItem)
	mux.HandleFunc("PATCH /api/cart/items/{lineId}", h.handleUpdateItem)
	mux.HandleFunc("DELETE /api/cart/items/{lineId}", h.handleRemoveItem)
	mux.HandleFunc("DELETE /api/cart", h.handleClearCart)
	mux.HandleFunc("POST /api/cart/toggle", h.handleCartFlag((*cart.Store).Toggle))
	mux.HandleFunc("POST /api/cart/open", h.handleCartFlag((*cart.Store).Open))
	mux.HandleFunc("POST /api/cart/close", h.handleCartFlag((*cart.Store).Close))
	mux.HandleFunc("DELETE /api/session", h.handleReleaseSession)

	// Checkout
	mux.HandleFunc("POST /api/checkout", h.handleCreateCheckout)
	mux.HandleFunc("GET /api/checkout/status", h.handleCheckoutStatus)

	// MCP transport - JSON-RPC endpoint using official MCP SDK
	mux.Handle("/mcp", h.NewMCPHandler())

	// Health check
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

// handleStorefront returns what a UI needs to boot.
// GET /api/storefront
func (h *Handler) handleStorefront(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, storefrontResponse{
		DemoMode:             h.catalog.DemoMode(),
		StoreDomain:          h.info.StoreDomain,
		StripePublishableKey: h.info.StripePublishableKey,
		CheckoutEnabled:      h.checkout.Configured(),
		Version:              h.info.Version,
	})
}

type storefrontResponse struct {
	DemoMode             bool   `json:"demoMode"`
	StoreDomain          string `json:"storeDomain,omitempty"`
	StripePublishableKey string `json:"stripePublishableKey,omitempty"`
	CheckoutEnabled      bool   `json:"checkoutEnabled"`
	Version              string `json:"version"`
}

// handleHealth returns a simple health check response.
// GET /health, GET /healthz
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: h.info.Version})
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// === Response Helpers ===

// writeJSON sends a JSON response with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError sends an error response, extracting status/code from APIError if present.
// Uses errors.As() to unwrap error chains (e.g., fmt.Errorf wrapping).
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError

	if !errors.As(err, &apiErr) {
		// Don't leak internal error details
		apiErr = model.NewInternalError(err)
		h.logger.Error("internal error", slog.String("error", err.Error()))
	}

	h.writeJSON(w, apiErr.StatusCode, errorResponse{
		Error: errorBody{
			Code:    apiErr.Code,
			Message: apiErr.Message,
		},
	})
}

// errorResponse is the JSON structure for error responses.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MaxRequestBodySize limits JSON request bodies to 1MB to prevent DoS.
const MaxRequestBodySize = 1 << 20 // 1MB

// decodeJSON reads JSON from request body into v.
// Limits body size to MaxRequestBodySize to prevent memory exhaustion.
// Returns an APIError if decoding fails.
func decodeJSON(r *http.Request, v interface{}) error {
	// Limit request body size to prevent DoS
	r.Body = http.MaxBytesReader(nil, r.Body, MaxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// Don't expose internal error details to client
		return model.NewValidationError("body", "invalid JSON")
	}
	return nil
}
