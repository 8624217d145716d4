package shopify

import "encoding/json"

// =============================================================================
// STOREFRONT API WIRE TYPES
// =============================================================================
//
// These mirror the GraphQL selection sets in queries.go. Money arrives as
// decimal strings and is converted to minor units in transform.go.
// =============================================================================

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors,omitempty"`
}

type graphqlError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

// connection is the Relay edges/node wrapper used by every list field.
type connection[T any] struct {
	Edges []struct {
		Node T `json:"node"`
	} `json:"edges"`
}

func (c connection[T]) nodes() []T {
	out := make([]T, 0, len(c.Edges))
	for _, e := range c.Edges {
		out = append(out, e.Node)
	}
	return out
}

type money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

type image struct {
	URL     string `json:"url"`
	AltText string `json:"altText"`
}

type priceRange struct {
	MinVariantPrice money `json:"minVariantPrice"`
}

type product struct {
	ID                  string              `json:"id"`
	Title               string              `json:"title"`
	Description         string              `json:"description"`
	Handle              string              `json:"handle"`
	Images              connection[image]   `json:"images"`
	PriceRange          priceRange          `json:"priceRange"`
	CompareAtPriceRange priceRange          `json:"compareAtPriceRange"`
	Variants            connection[variant] `json:"variants"`
}

type variant struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Price            money  `json:"price"`
	AvailableForSale bool   `json:"availableForSale"`
}

type collection struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Handle      string `json:"handle"`
	Description string `json:"description"`
	Image       *image `json:"image"`
}

type cart struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"checkoutUrl"`
	Cost        struct {
		TotalAmount    money `json:"totalAmount"`
		SubtotalAmount money `json:"subtotalAmount"`
	} `json:"cost"`
	Lines connection[cartLine] `json:"lines"`
}

type cartLine struct {
	ID          string `json:"id"`
	Quantity    int    `json:"quantity"`
	Merchandise struct {
		ID      string `json:"id"`
		Title   string `json:"title"`
		Price   money  `json:"price"`
		Product struct {
			Title  string            `json:"title"`
			Handle string            `json:"handle"`
			Images connection[image] `json:"images"`
		} `json:"product"`
	} `json:"merchandise"`
}

// userError is a field-level error returned next to mutation payloads.
// Field is the input path, e.g. ["cartId"] or ["lines", "0", "quantity"].
type userError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
	Code    string   `json:"code"`
}

// cartPayload is the shape shared by all cart mutations.
type cartPayload struct {
	Cart       *cart       `json:"cart"`
	UserErrors []userError `json:"userErrors"`
}
