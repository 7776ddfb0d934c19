package cart

import (
	"time"

	"github.com/angelmondragon/storefront-cart/pkg/money"
)

// Aggregate is the cart as callers see it. Total and ItemCount are always
// the fold over Items; nothing sets them directly.
type Aggregate struct {
	Items     []LineItem
	Total     money.Amount
	ItemCount int
}

// EmptyAggregate is the state of a new or discarded cart.
func EmptyAggregate() Aggregate {
	return Aggregate{Items: []LineItem{}}
}

// Summarize derives the aggregate from a line item sequence.
func Summarize(items []LineItem) Aggregate {
	agg := Aggregate{Items: make([]LineItem, len(items))}
	copy(agg.Items, items)
	for _, item := range items {
		agg.Total += item.LineTotal()
		agg.ItemCount += item.Quantity
	}
	return agg
}

// IsEmpty reports whether the cart holds no line items.
func (a Aggregate) IsEmpty() bool {
	return len(a.Items) == 0
}

// CheckoutLine is the minimal per-line data handed to the payment provider integration.
type CheckoutLine struct {
	ProductID string
	Quantity  int
	UnitPrice money.Amount
}

// CheckoutSnapshot is a read-only copy of the cart taken when checkout begins.
type CheckoutSnapshot struct {
	SessionID  string
	Lines      []CheckoutLine
	Total      money.Amount
	ItemCount  int
	CapturedAt time.Time
}

func newCheckoutSnapshot(sessionID string, agg Aggregate, now time.Time) CheckoutSnapshot {
	lines := make([]CheckoutLine, 0, len(agg.Items))
	for _, item := range agg.Items {
		lines = append(lines, CheckoutLine{
			ProductID: item.Product.ID,
			Quantity:  item.Quantity,
			UnitPrice: item.Product.UnitPrice,
		})
	}
	return CheckoutSnapshot{
		SessionID:  sessionID,
		Lines:      lines,
		Total:      agg.Total,
		ItemCount:  agg.ItemCount,
		CapturedAt: now,
	}
}
