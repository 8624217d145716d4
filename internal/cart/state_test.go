package cart

import (
	"math/rand"
	"strings"
	"testing"

	"storefront/internal/model"
)

var (
	headphones = Item{ID: "wireless-headphones", Name: "Premium Wireless Headphones", Price: 29999, Handle: "wireless-headphones"}
	watch      = Item{ID: "smart-watch", Name: "Smart Fitness Watch", Price: 19999, Handle: "smart-watch"}
	charger    = Item{ID: "wireless-charger", Name: "Wireless Charging Pad", Price: 4999, Handle: "wireless-charger"}
)

// checkInvariants verifies the derived totals of an optimistic state.
func checkInvariants(t *testing.T, s State) {
	t.Helper()
	var total int64
	var count int
	for _, it := range s.Items {
		if it.Quantity < 1 {
			t.Errorf("item %s has quantity %d", it.ID, it.Quantity)
		}
		total += it.Price * int64(it.Quantity)
		count += it.Quantity
	}
	if s.Total != total {
		t.Errorf("Total = %d, want %d", s.Total, total)
	}
	if s.ItemCount != count {
		t.Errorf("ItemCount = %d, want %d", s.ItemCount, count)
	}
}

func TestReduce_AddItemOptimistic(t *testing.T) {
	s := Reduce(State{}, AddItemOptimistic{Item: headphones})
	s = Reduce(s, AddItemOptimistic{Item: headphones})
	s = Reduce(s, AddItemOptimistic{Item: watch})

	if len(s.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(s.Items))
	}
	if s.Items[0].Quantity != 2 || s.Items[1].Quantity != 1 {
		t.Errorf("quantities = %d, %d", s.Items[0].Quantity, s.Items[1].Quantity)
	}
	for _, it := range s.Items {
		if !strings.HasPrefix(it.LineID, TempLinePrefix) {
			t.Errorf("LineID = %q, want temp- prefix", it.LineID)
		}
	}
	if s.Items[0].LineID == s.Items[1].LineID {
		t.Error("temporary line IDs should be unique")
	}
	if s.Total != 79997 || s.ItemCount != 3 {
		t.Errorf("Total = %d ItemCount = %d", s.Total, s.ItemCount)
	}
}

func TestReduce_AddItemOptimistic_IgnoresPayloadQuantity(t *testing.T) {
	item := headphones
	item.Quantity = 7

	s := Reduce(State{}, AddItemOptimistic{Item: item})
	if s.Items[0].Quantity != 1 {
		t.Errorf("Quantity = %d, want 1", s.Items[0].Quantity)
	}
}

func TestReduce_AddItemOptimisticQuantity(t *testing.T) {
	s := Reduce(State{}, AddItemOptimistic{Item: headphones, Quantity: 5})
	if len(s.Items) != 1 || s.Items[0].Quantity != 5 {
		t.Fatalf("Items = %+v, want one line with quantity 5", s.Items)
	}
	if s.ItemCount != 5 {
		t.Errorf("ItemCount = %d, want 5", s.ItemCount)
	}

	s = Reduce(s, AddItemOptimistic{Item: headphones, Quantity: 3})
	if len(s.Items) != 1 || s.Items[0].Quantity != 8 {
		t.Errorf("Items = %+v, want one line with quantity 8", s.Items)
	}
	checkInvariants(t, s)
}

func TestReduce_RandomAddSequencesKeepInvariants(t *testing.T) {
	catalog := []Item{headphones, watch, charger}
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 50; run++ {
		s := State{}
		n := rng.Intn(30)
		for i := 0; i < n; i++ {
			s = Reduce(s, AddItemOptimistic{Item: catalog[rng.Intn(len(catalog))]})
			checkInvariants(t, s)
		}
	}
}

func TestReduce_UpdateQuantityOptimistic(t *testing.T) {
	base := Reduce(State{}, AddItemOptimistic{Item: headphones})
	base = Reduce(base, AddItemOptimistic{Item: watch})
	line := base.Items[0].LineID

	tests := []struct {
		name      string
		quantity  int
		wantItems int
		wantQty   int
	}{
		{"increase", 5, 2, 5},
		{"zero removes", 0, 1, 0},
		{"negative floors to zero and removes", -5, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Reduce(base, UpdateQuantityOptimistic{LineID: line, Quantity: tt.quantity})
			if len(s.Items) != tt.wantItems {
				t.Fatalf("len(Items) = %d, want %d", len(s.Items), tt.wantItems)
			}
			if tt.wantQty > 0 && s.Items[0].Quantity != tt.wantQty {
				t.Errorf("Quantity = %d, want %d", s.Items[0].Quantity, tt.wantQty)
			}
			for _, it := range s.Items {
				if tt.wantQty == 0 && it.LineID == line {
					t.Error("line should have been removed")
				}
			}
			checkInvariants(t, s)
		})
	}
}

func TestReduce_RemoveItemOptimistic(t *testing.T) {
	s := Reduce(State{}, AddItemOptimistic{Item: headphones})
	s = Reduce(s, AddItemOptimistic{Item: watch})

	s = Reduce(s, RemoveItemOptimistic{LineID: s.Items[0].LineID})
	if len(s.Items) != 1 || s.Items[0].ID != watch.ID {
		t.Fatalf("Items = %+v", s.Items)
	}
	checkInvariants(t, s)

	unchanged := Reduce(s, RemoveItemOptimistic{LineID: "no-such-line"})
	if len(unchanged.Items) != 1 {
		t.Error("removing an unknown line should change nothing")
	}
}

func TestReduce_SetCartData(t *testing.T) {
	remote := &model.RemoteCart{
		ID:          "gid://shopify/Cart/c1",
		Total:       64998, // includes tax
		CheckoutURL: "https://shop.example/checkouts/c1",
		Lines: []model.CartLine{
			{ID: "l1", MerchandiseID: "v1", Quantity: 2, Price: 29999, Title: "Headphones", Handle: "wireless-headphones", Image: "https://cdn.example/h.jpg"},
			{ID: "l2", MerchandiseID: "v2", Quantity: 1, Price: 4999, Title: "Charger", Handle: "wireless-charger"},
		},
	}
	prior := State{Loading: true, Error: "boom", Open: true}

	s := Reduce(prior, SetCartData{Cart: remote, CartID: remote.ID})

	if s.CartID != remote.ID || s.CheckoutURL != remote.CheckoutURL {
		t.Errorf("CartID = %q CheckoutURL = %q", s.CartID, s.CheckoutURL)
	}
	if s.Total != 64998 {
		t.Errorf("Total = %d, want backend total 64998", s.Total)
	}
	if s.ItemCount != 3 {
		t.Errorf("ItemCount = %d, want 3", s.ItemCount)
	}
	if s.Items[0].LineID != "l1" || s.Items[0].ID != "v1" {
		t.Errorf("first item = %+v", s.Items[0])
	}
	if s.Items[1].Image != "/placeholder.svg" {
		t.Errorf("missing image = %q, want placeholder", s.Items[1].Image)
	}
	if s.Loading || s.Error != "" {
		t.Errorf("Loading = %v Error = %q, want cleared", s.Loading, s.Error)
	}
	if !s.Open {
		t.Error("SetCartData should not touch the open flag")
	}
}

func TestReduce_SetCartDataNilEmpties(t *testing.T) {
	priors := []State{
		{},
		Reduce(Reduce(State{}, AddItemOptimistic{Item: headphones}), AddItemOptimistic{Item: watch}),
		{CartID: "old", CheckoutURL: "https://x", Items: []Item{{ID: "a", Quantity: 3, Price: 1}}, Total: 3, ItemCount: 3, Error: "e", Loading: true},
	}

	for _, prior := range priors {
		s := Reduce(prior, SetCartData{Cart: nil, CartID: "c9"})
		if len(s.Items) != 0 || s.Total != 0 || s.ItemCount != 0 || s.CheckoutURL != "" {
			t.Errorf("state not empty: %+v", s)
		}
		if s.CartID != "c9" {
			t.Errorf("CartID = %q, want c9", s.CartID)
		}
	}
}

func TestReduce_ClearCartIdempotent(t *testing.T) {
	s := Reduce(State{CartID: "c1", CheckoutURL: "https://x"}, AddItemOptimistic{Item: headphones})

	once := Reduce(s, ClearCart{})
	twice := Reduce(once, ClearCart{})

	if len(once.Items) != 0 || once.Total != 0 || once.ItemCount != 0 || once.CheckoutURL != "" {
		t.Errorf("once = %+v", once)
	}
	if len(twice.Items) != len(once.Items) || twice.Total != once.Total ||
		twice.ItemCount != once.ItemCount || twice.CheckoutURL != once.CheckoutURL || twice.CartID != once.CartID {
		t.Errorf("twice = %+v, once = %+v", twice, once)
	}
	if once.CartID != "c1" {
		t.Errorf("ClearCart should keep CartID, got %q", once.CartID)
	}
}

func TestReduce_UIFlagsAndStatus(t *testing.T) {
	s := State{}
	s = Reduce(s, ToggleCart{})
	if !s.Open {
		t.Error("ToggleCart should open a closed cart")
	}
	s = Reduce(s, ToggleCart{})
	if s.Open {
		t.Error("ToggleCart should close an open cart")
	}
	if s = Reduce(s, OpenCart{}); !s.Open {
		t.Error("OpenCart")
	}
	if s = Reduce(s, CloseCart{}); s.Open {
		t.Error("CloseCart")
	}
	if s = Reduce(s, SetLoading{Loading: true}); !s.Loading {
		t.Error("SetLoading")
	}
	if s = Reduce(s, SetError{Error: "x"}); s.Error != "x" {
		t.Error("SetError")
	}
	if s = Reduce(s, SetError{}); s.Error != "" {
		t.Error("SetError empty should clear")
	}
}

type unknownAction struct{}

func (unknownAction) action() {}

func TestReduce_UnknownActionIsNoop(t *testing.T) {
	s := Reduce(State{}, AddItemOptimistic{Item: headphones})
	got := Reduce(s, unknownAction{})
	if got.Total != s.Total || len(got.Items) != len(s.Items) {
		t.Errorf("unknown action changed state: %+v", got)
	}
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	s := Reduce(State{}, AddItemOptimistic{Item: headphones})
	line := s.Items[0].LineID

	_ = Reduce(s, AddItemOptimistic{Item: headphones})
	_ = Reduce(s, UpdateQuantityOptimistic{LineID: line, Quantity: 9})
	_ = Reduce(s, RemoveItemOptimistic{LineID: line})

	if len(s.Items) != 1 || s.Items[0].Quantity != 1 {
		t.Errorf("input state mutated: %+v", s.Items)
	}
}

func TestReduce_RestoreSnapshot(t *testing.T) {
	snap := Reduce(State{CartID: "c1"}, AddItemOptimistic{Item: headphones})
	changed := Reduce(snap, AddItemOptimistic{Item: watch})
	changed = Reduce(changed, SetError{Error: "failed"})
	changed = Reduce(changed, OpenCart{})

	s := Reduce(changed, RestoreSnapshot{Snapshot: snap})
	if len(s.Items) != 1 || s.Total != 29999 || s.CartID != "c1" {
		t.Errorf("restored = %+v", s)
	}
	if s.Error != "failed" || !s.Open {
		t.Error("RestoreSnapshot should keep error and UI flags")
	}
}
