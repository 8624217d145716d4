package model

// RemoteCart is an authoritative cart snapshot returned by the commerce backend.
// Every cart mutation returns the full snapshot so callers can replace local
// state wholesale instead of patching it.
type RemoteCart struct {
	ID          string     `json:"id"`
	Lines       []CartLine `json:"lines"`
	Total       int64      `json:"total"` // Minor units, as reported by the backend
	Currency    string     `json:"currency"`
	CheckoutURL string     `json:"checkout_url"`
}

// CartLine is one row of a remote cart: a variant paired with a quantity.
type CartLine struct {
	ID            string `json:"id"`             // Backend-assigned line ID
	MerchandiseID string `json:"merchandise_id"` // Variant ID
	Quantity      int    `json:"quantity"`
	Price         int64  `json:"price"` // Unit price, minor units
	Title         string `json:"title"` // Product title
	Handle        string `json:"handle"`
	Image         string `json:"image"`
}

// LineInput adds merchandise to a cart.
type LineInput struct {
	MerchandiseID string `json:"merchandiseId"`
	Quantity      int    `json:"quantity"`
}

// LineUpdate changes the quantity of an existing cart line.
type LineUpdate struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}
