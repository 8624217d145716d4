// MCP transport handler for the storefront using the official MCP Go SDK.
// Exposes catalog, cart and checkout operations as MCP tools.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/model"
	"storefront/internal/session"
)

// === MCP Tool Input/Output Types ===
// Fields without omitempty are required by the generated input schema.

// ListProductsInput is the input schema for list_products.
type ListProductsInput struct {
	Query      string `json:"query,omitempty" jsonschema:"case-insensitive search on name and description"`
	Sort       string `json:"sort,omitempty" jsonschema:"featured, price-asc, price-desc or name"`
	Collection string `json:"collection,omitempty" jsonschema:"collection handle"`
	Limit      int    `json:"limit,omitempty" jsonschema:"maximum number of products, up to 100 (default 20)"`
}

// ProductList is the output of list_products.
type ProductList struct {
	Products []model.Product `json:"products"`
	DemoMode bool            `json:"demo_mode"`
}

// GetProductInput is the input schema for get_product.
type GetProductInput struct {
	Handle string `json:"handle" jsonschema:"product handle"`
}

// ListCollectionsInput is the input schema for list_collections.
type ListCollectionsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of collections, up to 100 (default 10)"`
}

// CollectionList is the output of list_collections.
type CollectionList struct {
	Collections []model.Collection `json:"collections"`
}

// EmptyInput is the input schema for tools without arguments.
type EmptyInput struct{}

// AddToCartInput is the input schema for add_to_cart.
type AddToCartInput struct {
	ID       string `json:"id" jsonschema:"variant ID, or product ID in demo mode"`
	Name     string `json:"name,omitempty" jsonschema:"display name"`
	Price    int64  `json:"price,omitempty" jsonschema:"unit price in minor units"`
	Image    string `json:"image,omitempty" jsonschema:"image URL"`
	Handle   string `json:"handle,omitempty" jsonschema:"product handle"`
	Quantity int    `json:"quantity,omitempty" jsonschema:"quantity to add, 1 to 999 (default 1)"`
}

// UpdateCartLineInput is the input schema for update_cart_line.
type UpdateCartLineInput struct {
	LineID   string `json:"line_id" jsonschema:"cart line ID"`
	Quantity int    `json:"quantity" jsonschema:"new quantity; 0 removes the line"`
}

// RemoveCartLineInput is the input schema for remove_cart_line.
type RemoveCartLineInput struct {
	LineID string `json:"line_id" jsonschema:"cart line ID"`
}

// CreateCheckoutSessionInput is the input schema for create_checkout_session.
type CreateCheckoutSessionInput struct {
	Items []checkout.Item `json:"items" jsonschema:"products and quantities to pay for"`
}

// GetCheckoutStatusInput is the input schema for get_checkout_status.
type GetCheckoutStatusInput struct {
	SessionID string `json:"session_id" jsonschema:"checkout session ID"`
}

// NewMCPServer creates an MCP server with storefront tools registered.
// Cart tools act on cartSession; an empty cartSession gets a fresh one.
func (h *Handler) NewMCPServer(cartSession string) *mcp.Server {
	if cartSession == "" {
		cartSession = "mcp-" + session.NewID()
	}

	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "storefront",
			Version: h.info.Version,
		},
		&mcp.ServerOptions{
			Instructions: "Storefront - browse the catalog, manage a shopping cart and start checkout. " +
				"Prices are integers in minor currency units (cents).",
		},
	)

	t := &mcpTools{h: h, session: cartSession}

	// Catalog
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_products",
		Description: "List products, optionally filtered by search text or collection and sorted.",
	}, t.listProducts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_product",
		Description: "Get one product by handle.",
	}, t.getProduct)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_collections",
		Description: "List product collections. Empty in demo mode.",
	}, t.listCollections)

	// Cart
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_cart",
		Description: "Get the current cart.",
	}, t.getCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_to_cart",
		Description: "Add an item to the cart. Returns the full cart; failures are reported in its error field.",
	}, t.addToCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_cart_line",
		Description: "Set the quantity of a cart line. Quantity 0 removes it.",
	}, t.updateCartLine)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_cart_line",
		Description: "Remove a line from the cart.",
	}, t.removeCartLine)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "clear_cart",
		Description: "Empty the cart and start over with a new one.",
	}, t.clearCart)

	// Checkout
	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_checkout_session",
		Description: "Create an embedded payment session for the given products. Returns a client secret.",
	}, t.createCheckoutSession)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_checkout_status",
		Description: "Get the status and customer email of a checkout session.",
	}, t.getCheckoutStatus)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux. Each MCP session is bound to the visitor
// session of the request that initialized it.
func (h *Handler) NewMCPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server {
			return h.NewMCPServer(session.FromContext(r.Context()))
		},
		nil,
	)
}

// mcpTools binds tool handlers to one cart session.
type mcpTools struct {
	h       *Handler
	session string
}

// === Tool Handlers ===

func (t *mcpTools) listProducts(ctx context.Context, _ *mcp.CallToolRequest, in ListProductsInput) (*mcp.CallToolResult, *ProductList, error) {
	if err := checkLimit(in.Limit); err != nil {
		return nil, nil, t.h.mcpError(err)
	}
	sort, err := catalog.ParseSort(in.Sort)
	if err != nil {
		return nil, nil, t.h.mcpError(err)
	}

	products, err := t.h.catalog.Products(ctx, catalog.Query{
		Search:     in.Query,
		Sort:       sort,
		Collection: in.Collection,
		Limit:      in.Limit,
	})
	if err != nil {
		return nil, nil, t.h.mcpError(err)
	}

	return nil, &ProductList{Products: products, DemoMode: t.h.catalog.DemoMode()}, nil
}

func (t *mcpTools) getProduct(ctx context.Context, _ *mcp.CallToolRequest, in GetProductInput) (*mcp.CallToolResult, *model.Product, error) {
	if in.Handle == "" {
		return nil, nil, fmt.Errorf("handle is required")
	}

	p, err := t.h.catalog.Product(ctx, in.Handle)
	if err != nil {
		return nil, nil, t.h.mcpError(err)
	}
	return nil, p, nil
}

func (t *mcpTools) listCollections(ctx context.Context, _ *mcp.CallToolRequest, in ListCollectionsInput) (*mcp.CallToolResult, *CollectionList, error) {
	if err := checkLimit(in.Limit); err != nil {
		return nil, nil, t.h.mcpError(err)
	}
	collections, err := t.h.catalog.Collections(ctx, in.Limit)
	if err != nil {
		return nil, nil, t.h.mcpError(err)
	}
	return nil, &CollectionList{Collections: collections}, nil
}

func (t *mcpTools) getCart(ctx context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, *cart.State, error) {
	state := t.store(ctx).State()
	return nil, &state, nil
}

func (t *mcpTools) addToCart(ctx context.Context, _ *mcp.CallToolRequest, in AddToCartInput) (*mcp.CallToolResult, *cart.State, error) {
	if in.ID == "" {
		return nil, nil, fmt.Errorf("id is required")
	}
	quantity, err := addQuantity(in.Quantity)
	if err != nil {
		return nil, nil, t.h.mcpError(err)
	}

	state := t.store(ctx).AddItem(detach(ctx), cart.Item{
		ID:     in.ID,
		Name:   in.Name,
		Price:  in.Price,
		Image:  in.Image,
		Handle: in.Handle,
	}, quantity)
	return nil, &state, nil
}

func (t *mcpTools) updateCartLine(ctx context.Context, _ *mcp.CallToolRequest, in UpdateCartLineInput) (*mcp.CallToolResult, *cart.State, error) {
	if in.LineID == "" {
		return nil, nil, fmt.Errorf("line_id is required")
	}
	if err := checkUpdateQuantity(in.Quantity); err != nil {
		return nil, nil, t.h.mcpError(err)
	}
	state := t.store(ctx).UpdateItemQuantity(detach(ctx), in.LineID, in.Quantity)
	return nil, &state, nil
}

func (t *mcpTools) removeCartLine(ctx context.Context, _ *mcp.CallToolRequest, in RemoveCartLineInput) (*mcp.CallToolResult, *cart.State, error) {
	if in.LineID == "" {
		return nil, nil, fmt.Errorf("line_id is required")
	}
	state := t.store(ctx).RemoveItem(detach(ctx), in.LineID)
	return nil, &state, nil
}

func (t *mcpTools) clearCart(ctx context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, *cart.State, error) {
	state := t.store(ctx).Clear(detach(ctx))
	return nil, &state, nil
}

func (t *mcpTools) createCheckoutSession(ctx context.Context, _ *mcp.CallToolRequest, in CreateCheckoutSessionInput) (*mcp.CallToolResult, *checkout.SessionResult, error) {
	res := t.h.checkout.CreateSession(ctx, in.Items)
	if res.Error != nil {
		return nil, nil, errors.New(*res.Error)
	}
	return nil, &res, nil
}

func (t *mcpTools) getCheckoutStatus(ctx context.Context, _ *mcp.CallToolRequest, in GetCheckoutStatusInput) (*mcp.CallToolResult, *checkout.StatusResult, error) {
	res := t.h.checkout.SessionStatus(ctx, in.SessionID)
	if res.Error != nil {
		return nil, nil, errors.New(*res.Error)
	}
	return nil, &res, nil
}

func (t *mcpTools) store(ctx context.Context) *cart.Store {
	return t.h.carts.Get(detach(ctx), t.session)
}

// mcpError converts service errors to MCP-friendly errors.
func (h *Handler) mcpError(err error) error {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}
	// Don't leak internal error details
	h.logger.Error("mcp internal error", "error", err.Error())
	internal := model.NewInternalError(err)
	return fmt.Errorf("%s: %s", internal.Code, internal.Message)
}
