package handler

import (
	"context"
	"log/slog"
	"net/http"

	"storefront/internal/cart"
	"storefront/internal/model"
	"storefront/internal/session"
)

// MaxItemQuantity caps the quantity a single request may set on a line.
const MaxItemQuantity = 999

// addItemRequest is the body of POST /api/cart/items.
type addItemRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Image    string `json:"image"`
	Handle   string `json:"handle"`
	Quantity int    `json:"quantity"`
}

// updateItemRequest is the body of PATCH /api/cart/items/{lineId}.
type updateItemRequest struct {
	Quantity *int `json:"quantity"`
}

// store returns the visitor's cart store, or writes an error when the
// request carries no session (middleware not mounted).
func (h *Handler) store(w http.ResponseWriter, r *http.Request) (*cart.Store, bool) {
	id := session.FromContext(r.Context())
	if id == "" {
		h.writeError(w, model.NewValidationError("session", "no visitor session"))
		return nil, false
	}
	return h.carts.Get(detach(r.Context()), id), true
}

// handleGetCart returns the cart, initialising it on first access.
// GET /api/cart
func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.store(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, s.State())
}

// handleAddItem adds an item.
// POST /api/cart/items
func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.ID == "" {
		h.writeError(w, model.NewValidationError("id", "required"))
		return
	}
	quantity, err := addQuantity(req.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	req.Quantity = quantity

	s, ok := h.store(w, r)
	if !ok {
		return
	}

	h.logger.InfoContext(r.Context(), "adding to cart",
		slog.String("session", s.Session()),
		slog.String("item_id", req.ID),
		slog.Int("quantity", req.Quantity))

	state := s.AddItem(detach(r.Context()), cart.Item{
		ID:     req.ID,
		Name:   req.Name,
		Price:  req.Price,
		Image:  req.Image,
		Handle: req.Handle,
	}, req.Quantity)

	h.writeJSON(w, http.StatusOK, state)
}

// handleUpdateItem sets a line's quantity; zero or less removes it.
// PATCH /api/cart/items/{lineId}
func (h *Handler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.Quantity == nil {
		h.writeError(w, model.NewValidationError("quantity", "required"))
		return
	}
	if err := checkUpdateQuantity(*req.Quantity); err != nil {
		h.writeError(w, err)
		return
	}

	s, ok := h.store(w, r)
	if !ok {
		return
	}

	state := s.UpdateItemQuantity(detach(r.Context()), r.PathValue("lineId"), *req.Quantity)
	h.writeJSON(w, http.StatusOK, state)
}

// handleRemoveItem removes a line.
// DELETE /api/cart/items/{lineId}
func (h *Handler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.store(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, s.RemoveItem(detach(r.Context()), r.PathValue("lineId")))
}

// handleClearCart empties the cart and forgets the stored cart ID.
// DELETE /api/cart
func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.store(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, s.Clear(detach(r.Context())))
}

// handleCartFlag applies a UI-only drawer action.
// POST /api/cart/{toggle,open,close}
func (h *Handler) handleCartFlag(apply func(*cart.Store) cart.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := h.store(w, r)
		if !ok {
			return
		}
		h.writeJSON(w, http.StatusOK, apply(s))
	}
}

// handleReleaseSession tears down the visitor's store. The persisted cart
// ID survives, so the next visit reloads the same remote cart.
// DELETE /api/session
func (h *Handler) handleReleaseSession(w http.ResponseWriter, r *http.Request) {
	id := session.FromContext(r.Context())
	released := id != "" && h.carts.Release(id)
	h.writeJSON(w, http.StatusOK, releaseResponse{Released: released})
}

type releaseResponse struct {
	Released bool `json:"released"`
}

// detach keeps request values but drops cancellation, so an optimistic
// update is always followed by its reconciliation.
func detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

// addQuantity defaults zero to one and rejects anything outside 1..MaxItemQuantity.
func addQuantity(n int) (int, error) {
	if n == 0 {
		return 1, nil
	}
	if n < 1 || n > MaxItemQuantity {
		return 0, quantityError()
	}
	return n, nil
}

// checkUpdateQuantity allows zero or less (removal) up to MaxItemQuantity.
func checkUpdateQuantity(n int) error {
	if n > MaxItemQuantity {
		return quantityError()
	}
	return nil
}

func quantityError() error {
	return model.NewValidationError("quantity", "must be between 1 and 999")
}
