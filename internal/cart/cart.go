package cart

import (
	"fmt"

	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
)

const (
	// MaxQuantity caps a single line.
	MaxQuantity = 9999
	// MaxLines caps distinct products per cart. With MaxQuantity and
	// money.MaxAmount it keeps totals well inside int64.
	MaxLines = 200
)

// Cart is the single owner of one session's line items. Every mutation
// recomputes the aggregate before returning. Cart is not safe for concurrent
// use; the registry serializes access per session.
type Cart struct {
	store *lineItemStore
	agg   Aggregate
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{store: newLineItemStore(), agg: EmptyAggregate()}
}

// Restore rebuilds a cart from previously persisted line items, preserving
// order. Items breaking a cart invariant reject the whole set.
func Restore(agg Aggregate) (*Cart, error) {
	if err := checkLines(agg.Items); err != nil {
		return nil, err
	}
	c := New()
	for _, item := range agg.Items {
		c.store.upsert(item.Product, item.Quantity)
	}
	c.recompute()
	return c, nil
}

// checkLines enforces the stored-line invariants shared by hydration and Restore.
func checkLines(items []LineItem) error {
	if len(items) > MaxLines {
		return fmt.Errorf("%d lines exceed the limit of %d", len(items), MaxLines)
	}
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		if err := item.Product.validate(); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		if item.Quantity <= 0 || item.Quantity > MaxQuantity {
			return fmt.Errorf("item %d: quantity %d", i, item.Quantity)
		}
		if _, dup := seen[item.Product.ID]; dup {
			return fmt.Errorf("item %d: duplicate product id %q", i, item.Product.ID)
		}
		seen[item.Product.ID] = struct{}{}
	}
	return nil
}

func quantityError(quantity int) error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must not exceed %d", MaxQuantity)).
		WithDetails(map[string]any{"quantity": quantity, "max": MaxQuantity})
}

// AddItem adds quantity of product. A product already in the cart keeps its
// original snapshot and only its quantity grows. Non-positive quantities, a
// merged quantity above MaxQuantity and a new line past MaxLines are rejected
// and leave the cart unchanged.
func (c *Cart) AddItem(product Product, quantity int) error {
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero").
			WithDetails(map[string]any{"quantity": quantity})
	}
	if quantity > MaxQuantity {
		return quantityError(quantity)
	}
	if err := product.validate(); err != nil {
		return err
	}

	existing, ok := c.store.find(product.ID)
	switch {
	case ok && existing.Quantity > MaxQuantity-quantity:
		return quantityError(existing.Quantity + quantity)
	case ok:
		c.store.upsert(existing.Product, existing.Quantity+quantity)
	case c.store.len() >= MaxLines:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("cart holds at most %d products", MaxLines)).
			WithDetails(map[string]any{"max_lines": MaxLines})
	default:
		c.store.upsert(product, quantity)
	}
	c.recompute()
	return nil
}

// SetQuantity overwrites the quantity of a line. Zero or below removes it;
// unknown product ids are ignored. Quantities above MaxQuantity are rejected.
func (c *Cart) SetQuantity(productID string, quantity int) error {
	if quantity <= 0 {
		c.RemoveItem(productID)
		return nil
	}
	if quantity > MaxQuantity {
		return quantityError(quantity)
	}
	existing, ok := c.store.find(productID)
	if !ok {
		return nil
	}
	c.store.upsert(existing.Product, quantity)
	c.recompute()
	return nil
}

// RemoveItem drops a line. Removing an absent product is a no-op.
func (c *Cart) RemoveItem(productID string) {
	if c.store.remove(productID) {
		c.recompute()
	}
}

// Clear drops every line.
func (c *Cart) Clear() {
	c.store.reset()
	c.recompute()
}

// Snapshot returns a copy of the current aggregate.
func (c *Cart) Snapshot() Aggregate {
	return Summarize(c.agg.Items)
}

func (c *Cart) recompute() {
	c.agg = Summarize(c.store.list())
}
