package handler

import (
	"log/slog"
	"net/http"

	"storefront/internal/checkout"
)

// createCheckoutRequest is the body of POST /api/checkout.
type createCheckoutRequest struct {
	Items []checkout.Item `json:"items"`
}

// checkoutErrorResponse is the flat error body the embedded checkout UI reads.
type checkoutErrorResponse struct {
	Error string `json:"error"`
}

// handleCreateCheckout opens an embedded checkout session.
// POST /api/checkout
//
// 200 {clientSecret}; 400 {error} for a missing item list; 503 when payments
// are not configured; 500 {error} for unknown products or provider failures.
func (h *Handler) handleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req createCheckoutRequest
	if err := decodeJSON(r, &req); err != nil || len(req.Items) == 0 {
		h.writeJSON(w, http.StatusBadRequest, checkoutErrorResponse{Error: checkout.MsgItemsRequired})
		return
	}

	if !h.checkout.Configured() {
		h.writeJSON(w, http.StatusServiceUnavailable, checkoutErrorResponse{Error: checkout.MsgNotConfigured})
		return
	}

	h.logger.InfoContext(r.Context(), "creating checkout session", slog.Int("items", len(req.Items)))

	res := h.checkout.CreateSession(r.Context(), req.Items)
	if res.Error != nil {
		h.writeJSON(w, http.StatusInternalServerError, checkoutErrorResponse{Error: *res.Error})
		return
	}

	h.writeJSON(w, http.StatusOK, struct {
		ClientSecret *string `json:"clientSecret"`
	}{res.ClientSecret})
}

// handleCheckoutStatus reports a session's status after the payment form
// completes.
// GET /api/checkout/status?session_id=
func (h *Handler) handleCheckoutStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		h.writeJSON(w, http.StatusBadRequest, checkoutErrorResponse{Error: checkout.MsgSessionIDRequired})
		return
	}

	if !h.checkout.Configured() {
		h.writeJSON(w, http.StatusServiceUnavailable, checkoutErrorResponse{Error: checkout.MsgNotConfigured})
		return
	}

	res := h.checkout.SessionStatus(r.Context(), sessionID)
	if res.Error != nil {
		h.writeJSON(w, http.StatusInternalServerError, checkoutErrorResponse{Error: *res.Error})
		return
	}

	h.writeJSON(w, http.StatusOK, struct {
		Status        *string `json:"status"`
		CustomerEmail *string `json:"customerEmail"`
	}{res.Status, res.CustomerEmail})
}
