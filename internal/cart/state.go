// Package cart holds a visitor's shopping cart: a pure reducer over State,
// a Store that serialises dispatches, and the Backend strategies that keep
// the store in sync with (or independent of) the commerce backend.
package cart

import (
	"strings"

	"github.com/google/uuid"

	"storefront/internal/model"
)

// TempLinePrefix marks line IDs assigned locally before the backend confirms
// a line. Such IDs are never sent to the backend.
const TempLinePrefix = "temp-"

// placeholderImage is shown for lines whose product has no image.
const placeholderImage = "/placeholder.svg"

// Item is one cart row as the UI renders it.
type Item struct {
	ID       string `json:"id"`                // Variant ID (remote) or product ID (demo)
	LineID   string `json:"line_id,omitempty"` // Backend line ID, or TempLinePrefix+uuid
	Name     string `json:"name"`
	Price    int64  `json:"price"` // Unit price, minor units
	Image    string `json:"image"`
	Quantity int    `json:"quantity"`
	Handle   string `json:"handle"`
}

// IsTemporary reports whether the line has not been confirmed by the backend.
func (i Item) IsTemporary() bool {
	return i.LineID == "" || strings.HasPrefix(i.LineID, TempLinePrefix)
}

// State is a visitor's cart.
//
// Invariants after every optimistic action: Total == Σ Price×Quantity,
// ItemCount == Σ Quantity, and no item has Quantity < 1. SetCartData takes
// Total from the backend snapshot instead (taxes and discounts included).
type State struct {
	CartID      string `json:"cart_id,omitempty"`
	Items       []Item `json:"items"`
	Open        bool   `json:"open"`
	Total       int64  `json:"total"`
	ItemCount   int    `json:"item_count"`
	CheckoutURL string `json:"checkout_url,omitempty"`
	Loading     bool   `json:"loading"`
	Error       string `json:"error,omitempty"`
}

// Clone returns a copy that shares no slice memory with s.
func (s State) Clone() State {
	out := s
	out.Items = append([]Item(nil), s.Items...)
	if out.Items == nil {
		out.Items = []Item{}
	}
	return out
}

// Action is a state transition understood by Reduce.
type Action interface {
	action()
}

// SetCartData replaces the cart wholesale with an authoritative snapshot.
// A nil Cart resets to empty.
type SetCartData struct {
	Cart   *model.RemoteCart
	CartID string
}

// AddItemOptimistic adds Quantity units of Item; zero or less adds one.
type AddItemOptimistic struct {
	Item     Item
	Quantity int
}

// RemoveItemOptimistic drops the line with LineID.
type RemoveItemOptimistic struct {
	LineID string
}

// UpdateQuantityOptimistic sets a line's quantity, removing it at zero.
type UpdateQuantityOptimistic struct {
	LineID   string
	Quantity int
}

// RestoreSnapshot puts back the cart contents of an earlier state.
// UI flags, loading and error are left alone.
type RestoreSnapshot struct {
	Snapshot State
}

type (
	ClearCart  struct{}
	ToggleCart struct{}
	OpenCart   struct{}
	CloseCart  struct{}
)

// SetLoading sets the loading flag.
type SetLoading struct {
	Loading bool
}

// SetError sets the error message. Empty clears it.
type SetError struct {
	Error string
}

func (SetCartData) action()              {}
func (AddItemOptimistic) action()        {}
func (RemoveItemOptimistic) action()     {}
func (UpdateQuantityOptimistic) action() {}
func (RestoreSnapshot) action()          {}
func (ClearCart) action()                {}
func (ToggleCart) action()               {}
func (OpenCart) action()                 {}
func (CloseCart) action()                {}
func (SetLoading) action()               {}
func (SetError) action()                 {}

// Reduce applies a to s and returns the new state.
// It performs no I/O and never modifies s.Items in place.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case SetCartData:
		return setCartData(s, a)

	case AddItemOptimistic:
		n := max(1, a.Quantity)
		items := make([]Item, 0, len(s.Items)+1)
		found := false
		for _, it := range s.Items {
			if it.ID == a.Item.ID {
				it.Quantity += n
				found = true
			}
			items = append(items, it)
		}
		if !found {
			it := a.Item
			it.Quantity = n
			it.LineID = TempLinePrefix + uuid.NewString()
			items = append(items, it)
		}
		return withItems(s, items)

	case RemoveItemOptimistic:
		items := make([]Item, 0, len(s.Items))
		for _, it := range s.Items {
			if it.LineID != a.LineID {
				items = append(items, it)
			}
		}
		return withItems(s, items)

	case UpdateQuantityOptimistic:
		items := make([]Item, 0, len(s.Items))
		for _, it := range s.Items {
			if it.LineID == a.LineID {
				it.Quantity = max(0, a.Quantity)
			}
			if it.Quantity > 0 {
				items = append(items, it)
			}
		}
		return withItems(s, items)

	case RestoreSnapshot:
		snap := a.Snapshot.Clone()
		s.CartID = snap.CartID
		s.Items = snap.Items
		s.Total = snap.Total
		s.ItemCount = snap.ItemCount
		s.CheckoutURL = snap.CheckoutURL
		return s

	case ClearCart:
		s.Items = []Item{}
		s.Total = 0
		s.ItemCount = 0
		s.CheckoutURL = ""
		return s

	case ToggleCart:
		s.Open = !s.Open
		return s

	case OpenCart:
		s.Open = true
		return s

	case CloseCart:
		s.Open = false
		return s

	case SetLoading:
		s.Loading = a.Loading
		return s

	case SetError:
		s.Error = a.Error
		return s

	default:
		return s
	}
}

func setCartData(s State, a SetCartData) State {
	s.CartID = a.CartID
	s.Loading = false
	s.Error = ""

	if a.Cart == nil {
		s.Items = []Item{}
		s.Total = 0
		s.ItemCount = 0
		s.CheckoutURL = ""
		return s
	}

	items := make([]Item, 0, len(a.Cart.Lines))
	for _, l := range a.Cart.Lines {
		img := l.Image
		if img == "" {
			img = placeholderImage
		}
		items = append(items, Item{
			ID:       l.MerchandiseID,
			LineID:   l.ID,
			Name:     l.Title,
			Price:    l.Price,
			Image:    img,
			Quantity: l.Quantity,
			Handle:   l.Handle,
		})
	}

	s.Items = items
	s.Total = a.Cart.Total
	s.ItemCount = countItems(items)
	s.CheckoutURL = a.Cart.CheckoutURL
	return s
}

// withItems installs items and recomputes the derived totals.
func withItems(s State, items []Item) State {
	s.Items = items
	s.Total = 0
	for _, it := range items {
		s.Total += it.Price * int64(it.Quantity)
	}
	s.ItemCount = countItems(items)
	return s
}

func countItems(items []Item) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}
