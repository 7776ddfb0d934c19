package cart

import (
	cartdto "github.com/angelmondragon/storefront-cart/api/controllers/cart/dto"
	cartsvc "github.com/angelmondragon/storefront-cart/internal/cart"
	"github.com/angelmondragon/storefront-cart/pkg/enums"
)

func newCartView(agg cartsvc.Aggregate, currency enums.Currency) cartdto.Cart {
	items := make([]cartdto.CartItem, 0, len(agg.Items))
	for _, item := range agg.Items {
		lineTotal := item.LineTotal()
		items = append(items, cartdto.CartItem{
			ProductID:      item.Product.ID,
			Name:           item.Product.Name,
			ImageRef:       item.Product.ImageRef,
			UnitPrice:      item.Product.UnitPrice.String(),
			UnitPriceCents: item.Product.UnitPrice.Cents(),
			Quantity:       item.Quantity,
			LineTotal:      lineTotal.String(),
			LineTotalCents: lineTotal.Cents(),
		})
	}

	return cartdto.Cart{
		Items:      items,
		Total:      agg.Total.String(),
		TotalCents: agg.Total.Cents(),
		ItemCount:  agg.ItemCount,
		Currency:   currency.String(),
	}
}

func newCheckoutView(snapshot cartsvc.CheckoutSnapshot, currency enums.Currency) cartdto.CheckoutSnapshot {
	lines := make([]cartdto.CheckoutLine, 0, len(snapshot.Lines))
	for _, line := range snapshot.Lines {
		lines = append(lines, cartdto.CheckoutLine{
			ProductID:      line.ProductID,
			Quantity:       line.Quantity,
			UnitPrice:      line.UnitPrice.String(),
			UnitPriceCents: line.UnitPrice.Cents(),
		})
	}

	return cartdto.CheckoutSnapshot{
		SessionID:  snapshot.SessionID,
		Lines:      lines,
		Total:      snapshot.Total.String(),
		TotalCents: snapshot.Total.Cents(),
		ItemCount:  snapshot.ItemCount,
		Currency:   currency.String(),
		CapturedAt: snapshot.CapturedAt,
	}
}
