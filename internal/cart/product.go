package cart

import (
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/angelmondragon/storefront-cart/pkg/money"
)

// Product is the catalog snapshot captured when an item enters the cart.
// Later catalog price changes do not touch it.
type Product struct {
	ID        string
	Name      string
	UnitPrice money.Amount
	ImageRef  string
}

func (p Product) validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if p.UnitPrice < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
	}
	if !p.UnitPrice.Valid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price out of range").
			WithDetails(map[string]any{"max": money.MaxAmount.String()})
	}
	return nil
}

// LineItem is one product and its quantity. Quantity stays in [1, MaxQuantity] while stored.
type LineItem struct {
	Product  Product
	Quantity int
}

// LineTotal is the unit price times quantity.
func (li LineItem) LineTotal() money.Amount {
	return li.Product.UnitPrice.Times(li.Quantity)
}
