package cart

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/angelmondragon/storefront-cart/pkg/money"
)

func product(id string, cents int64) Product {
	return Product{ID: id, Name: "Product " + id, UnitPrice: money.FromCents(cents)}
}

func TestCartAddItemMergesQuantity(t *testing.T) {
	c := New()
	if err := c.AddItem(product("p1", 1000), 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	agg := c.Snapshot()
	if len(agg.Items) != 1 || agg.Items[0].Quantity != 2 {
		t.Fatalf("expected one line of quantity 2, got %+v", agg.Items)
	}
	if agg.Total != money.FromCents(2000) || agg.ItemCount != 2 {
		t.Fatalf("unexpected totals after first add: total=%d count=%d", agg.Total, agg.ItemCount)
	}

	if err := c.AddItem(product("p1", 1000), 3); err != nil {
		t.Fatalf("second add: %v", err)
	}
	agg = c.Snapshot()
	if len(agg.Items) != 1 || agg.Items[0].Quantity != 5 {
		t.Fatalf("expected merged quantity 5, got %+v", agg.Items)
	}
	if agg.Total != money.FromCents(5000) {
		t.Fatalf("expected total 5000, got %d", agg.Total)
	}

	_ = c.SetQuantity("p1", 0)
	agg = c.Snapshot()
	if !agg.IsEmpty() || agg.Total != 0 || agg.ItemCount != 0 {
		t.Fatalf("expected empty cart after zero quantity, got %+v", agg)
	}
}

func TestCartPreservesInsertionOrder(t *testing.T) {
	c := New()
	if err := c.AddItem(product("p1", 1000), 1); err != nil {
		t.Fatalf("add p1: %v", err)
	}
	if err := c.AddItem(product("p2", 500), 4); err != nil {
		t.Fatalf("add p2: %v", err)
	}

	agg := c.Snapshot()
	if len(agg.Items) != 2 || agg.Items[0].Product.ID != "p1" || agg.Items[1].Product.ID != "p2" {
		t.Fatalf("expected [p1 p2], got %+v", agg.Items)
	}
	if agg.Total != money.FromCents(3000) || agg.ItemCount != 5 {
		t.Fatalf("unexpected totals: total=%d count=%d", agg.Total, agg.ItemCount)
	}
}

func TestCartRemoveMissingIsNoop(t *testing.T) {
	c := New()
	c.RemoveItem("nonexistent")
	if agg := c.Snapshot(); !agg.IsEmpty() || agg.Total != 0 {
		t.Fatalf("expected untouched empty cart, got %+v", agg)
	}
}

func TestCartAddItemRejectsInvalidInput(t *testing.T) {
	c := New()
	if err := c.AddItem(product("p1", 100), 1); err != nil {
		t.Fatalf("seed: %v", err)
	}

	cases := []struct {
		name    string
		product Product
		qty     int
	}{
		{name: "zero quantity", product: product("p2", 100), qty: 0},
		{name: "negative quantity", product: product("p1", 100), qty: -3},
		{name: "blank id", product: product("  ", 100), qty: 1},
		{name: "negative price", product: product("p3", -1), qty: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := c.AddItem(tc.product, tc.qty)
			if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			agg := c.Snapshot()
			if len(agg.Items) != 1 || agg.Items[0].Quantity != 1 || agg.Total != money.FromCents(100) {
				t.Fatalf("cart changed after rejected add: %+v", agg)
			}
		})
	}
}

func TestCartAddItemKeepsOriginalSnapshot(t *testing.T) {
	c := New()
	if err := c.AddItem(Product{ID: "p1", Name: "Old", UnitPrice: money.FromCents(1000)}, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := c.AddItem(Product{ID: "p1", Name: "New", UnitPrice: money.FromCents(1500)}, 1); err != nil {
		t.Fatalf("re-add: %v", err)
	}

	item := c.Snapshot().Items[0]
	if item.Product.Name != "Old" || item.Product.UnitPrice != money.FromCents(1000) {
		t.Fatalf("expected original snapshot to be kept, got %+v", item.Product)
	}
	if item.Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", item.Quantity)
	}
}

func TestCartSetQuantity(t *testing.T) {
	c := New()
	_ = c.AddItem(product("p1", 250), 1)
	_ = c.AddItem(product("p2", 100), 1)

	_ = c.SetQuantity("p1", 7)
	_ = c.SetQuantity("ghost", 3)
	_ = c.SetQuantity("p2", -1)

	agg := c.Snapshot()
	if len(agg.Items) != 1 || agg.Items[0].Product.ID != "p1" || agg.Items[0].Quantity != 7 {
		t.Fatalf("unexpected items: %+v", agg.Items)
	}
	if agg.Total != money.FromCents(1750) {
		t.Fatalf("expected total 1750, got %d", agg.Total)
	}
}

func TestCartRemoveKeepsRemainingOrder(t *testing.T) {
	c := New()
	for _, id := range []string{"a", "b", "c", "d"} {
		_ = c.AddItem(product(id, 100), 1)
	}
	c.RemoveItem("b")
	_ = c.SetQuantity("d", 2)

	got := []string{}
	for _, item := range c.Snapshot().Items {
		got = append(got, item.Product.ID)
	}
	want := []string{"a", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if c.Snapshot().Items[2].Quantity != 2 {
		t.Fatalf("expected index to follow removal")
	}
}

func TestCartClear(t *testing.T) {
	c := New()
	_ = c.AddItem(product("p1", 100), 3)
	c.Clear()
	if agg := c.Snapshot(); !agg.IsEmpty() || agg.ItemCount != 0 {
		t.Fatalf("expected empty cart, got %+v", agg)
	}
	if err := c.AddItem(product("p1", 100), 1); err != nil {
		t.Fatalf("add after clear: %v", err)
	}
	if c.Snapshot().ItemCount != 1 {
		t.Fatalf("expected cart usable after clear")
	}
}

func TestCartSnapshotIsCopy(t *testing.T) {
	c := New()
	_ = c.AddItem(product("p1", 100), 1)
	agg := c.Snapshot()
	agg.Items[0].Quantity = 99

	if c.Snapshot().Items[0].Quantity != 1 {
		t.Fatalf("snapshot mutation leaked into cart")
	}
}

func TestRestoreRebuildsCart(t *testing.T) {
	c, err := Restore(Aggregate{
		Items: []LineItem{
			{Product: product("p1", 100), Quantity: 2},
			{Product: product("p2", 300), Quantity: 1},
		},
		Total:     money.FromCents(1),
		ItemCount: 42,
	})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	agg := c.Snapshot()
	if agg.Total != money.FromCents(500) || agg.ItemCount != 3 {
		t.Fatalf("expected recomputed totals, got total=%d count=%d", agg.Total, agg.ItemCount)
	}
}

func TestRestoreRejectsBrokenLines(t *testing.T) {
	cases := map[string][]LineItem{
		"duplicate id":   {{Product: product("p1", 100), Quantity: 1}, {Product: product("p1", 100), Quantity: 2}},
		"zero quantity":  {{Product: product("p1", 100), Quantity: 0}},
		"over quantity":  {{Product: product("p1", 100), Quantity: MaxQuantity + 1}},
		"price too high": {{Product: product("p1", int64(money.MaxAmount)+1), Quantity: 1}},
	}
	for name, items := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Restore(Aggregate{Items: items}); err == nil {
				t.Fatalf("expected restore to reject %s", name)
			}
		})
	}
}

func TestCartQuantityCeiling(t *testing.T) {
	c := New()
	if err := c.AddItem(product("p1", 100), MaxQuantity); err != nil {
		t.Fatalf("add at ceiling: %v", err)
	}
	if err := c.AddItem(product("p1", 100), 1); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error past the ceiling, got %v", err)
	}
	if err := c.AddItem(product("p2", 100), math.MaxInt); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for huge quantity, got %v", err)
	}
	if err := c.SetQuantity("p1", MaxQuantity+1); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error from set quantity, got %v", err)
	}

	agg := c.Snapshot()
	if len(agg.Items) != 1 || agg.Items[0].Quantity != MaxQuantity {
		t.Fatalf("rejected mutations must leave the cart unchanged, got %+v", agg.Items)
	}
	if agg.ItemCount != MaxQuantity || agg.Total != money.FromCents(100*MaxQuantity) {
		t.Fatalf("unexpected totals: total=%d count=%d", agg.Total, agg.ItemCount)
	}
}

func TestCartLineAndPriceCeilings(t *testing.T) {
	c := New()
	if err := c.AddItem(product("big", int64(money.MaxAmount)+1), 1); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for price past MaxAmount, got %v", err)
	}
	for i := 0; i < MaxLines; i++ {
		if err := c.AddItem(product(fmt.Sprintf("p%d", i), int64(money.MaxAmount)), MaxQuantity); err != nil {
			t.Fatalf("add line %d: %v", i, err)
		}
	}
	if err := c.AddItem(product("one-more", 100), 1); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error past MaxLines, got %v", err)
	}

	agg := c.Snapshot()
	want := money.MaxAmount * money.Amount(MaxQuantity) * money.Amount(MaxLines)
	if agg.Total != want || agg.Total <= 0 {
		t.Fatalf("expected fully loaded total %d, got %d", want, agg.Total)
	}
	if agg.ItemCount != MaxQuantity*MaxLines {
		t.Fatalf("unexpected item count %d", agg.ItemCount)
	}
}

func TestCartInvariantsHoldUnderRandomMutations(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ids := []string{"a", "b", "c", "d", "e"}
	c := New()

	for step := 0; step < 2000; step++ {
		id := ids[rng.Intn(len(ids))]
		switch rng.Intn(4) {
		case 0:
			_ = c.AddItem(product(id, int64(rng.Intn(5000))), rng.Intn(6)-1)
		case 1:
			_ = c.SetQuantity(id, rng.Intn(8)-2)
		case 2:
			c.RemoveItem(id)
		case 3:
			if rng.Intn(20) == 0 {
				c.Clear()
			}
		}

		agg := c.Snapshot()
		seen := map[string]bool{}
		var total money.Amount
		count := 0
		for _, item := range agg.Items {
			if item.Quantity < 1 {
				t.Fatalf("step %d: quantity %d below one", step, item.Quantity)
			}
			if seen[item.Product.ID] {
				t.Fatalf("step %d: duplicate product %s", step, item.Product.ID)
			}
			seen[item.Product.ID] = true
			total += item.LineTotal()
			count += item.Quantity
		}
		if agg.Total != total || agg.ItemCount != count {
			t.Fatalf("step %d: aggregate drifted: total=%d want %d, count=%d want %d", step, agg.Total, total, agg.ItemCount, count)
		}
		if agg.IsEmpty() != (agg.ItemCount == 0) {
			t.Fatalf("step %d: empty flag disagrees with count", step)
		}
	}
}
