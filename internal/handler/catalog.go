package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"storefront/internal/catalog"
	"storefront/internal/model"
)

// MaxListLimit caps the limit query parameter.
const MaxListLimit = 100

// handleListProducts lists products.
// GET /api/products?limit=&q=&sort=&collection=
func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	sort, err := catalog.ParseSort(q.Get("sort"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	products, err := h.catalog.Products(r.Context(), catalog.Query{
		Search:     q.Get("q"),
		Sort:       sort,
		Collection: q.Get("collection"),
		Limit:      limit,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, productsResponse{Products: products, DemoMode: h.catalog.DemoMode()})
}

type productsResponse struct {
	Products []model.Product `json:"products"`
	DemoMode bool            `json:"demoMode"`
}

// handleGetProduct returns one product.
// GET /api/products/{handle}
func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	handle := r.PathValue("handle")

	p, err := h.catalog.Product(r.Context(), handle)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.DebugContext(r.Context(), "product served", slog.String("handle", handle))
	h.writeJSON(w, http.StatusOK, p)
}

// handleListCollections lists collections.
// GET /api/collections?limit=
func (h *Handler) handleListCollections(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	collections, err := h.catalog.Collections(r.Context(), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, collectionsResponse{Collections: collections})
}

type collectionsResponse struct {
	Collections []model.Collection `json:"collections"`
}

// parseLimit reads an optional positive limit; 0 means the backend default.
func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, limitError()
	}
	if err := checkLimit(n); err != nil {
		return 0, err
	}
	return n, nil
}

// checkLimit accepts zero (use the default) or 1..MaxListLimit.
func checkLimit(n int) error {
	if n < 0 || n > MaxListLimit {
		return limitError()
	}
	return nil
}

func limitError() error {
	return model.NewValidationError("limit", "must be between 1 and 100")
}
