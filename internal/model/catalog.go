package model

// Product is a catalog entry as shown in the storefront.
// Loaded either from the commerce backend or from the static demo list;
// immutable once loaded.
type Product struct {
	ID             string    `json:"id"`
	Handle         string    `json:"handle"` // URL-safe identifier
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Price          int64     `json:"price"`                      // Minor units (cents)
	CompareAtPrice int64     `json:"compare_at_price,omitempty"` // 0 when not discounted
	Currency       string    `json:"currency"`
	Image          string    `json:"image"` // Primary image URL or path
	Images         []Image   `json:"images,omitempty"`
	Variants       []Variant `json:"variants,omitempty"`
}

// Variant is one purchasable option of a product.
// Cart lines reference variants, not products.
type Variant struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Price            int64  `json:"price"`
	AvailableForSale bool   `json:"available_for_sale"`
}

// Image is a product or collection image.
type Image struct {
	URL     string `json:"url"`
	AltText string `json:"alt_text,omitempty"`
}

// Collection groups products in the backend catalog.
type Collection struct {
	ID          string `json:"id"`
	Handle      string `json:"handle"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       *Image `json:"image,omitempty"`
}

// DefaultVariant returns the first variant, or nil for products without any
// (demo products are sold directly by product ID).
func (p *Product) DefaultVariant() *Variant {
	if len(p.Variants) == 0 {
		return nil
	}
	return &p.Variants[0]
}

// PurchaseID returns the identifier a cart line should reference.
func (p *Product) PurchaseID() string {
	if v := p.DefaultVariant(); v != nil {
		return v.ID
	}
	return p.ID
}

// DiscountPercent returns the rounded saving against the compare-at price.
func (p *Product) DiscountPercent() int {
	return DiscountPercent(p.Price, p.CompareAtPrice)
}
