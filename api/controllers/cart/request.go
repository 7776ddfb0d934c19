package cart

import (
	cartdto "github.com/angelmondragon/storefront-cart/api/controllers/cart/dto"
	"github.com/angelmondragon/storefront-cart/api/validators"
	cartsvc "github.com/angelmondragon/storefront-cart/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/angelmondragon/storefront-cart/pkg/money"
)

const (
	maxNameLength     = 256
	maxImageRefLength = 2048
)

func toProduct(payload cartdto.AddItemRequest) (cartsvc.Product, error) {
	price, err := money.ParseAmount(payload.UnitPrice)
	if err != nil {
		return cartsvc.Product{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit price").
			WithDetails(map[string]string{"unit_price": err.Error()})
	}
	return cartsvc.Product{
		ID:        validators.SanitizeString(payload.ProductID, 0),
		Name:      validators.SanitizeString(payload.Name, maxNameLength),
		UnitPrice: price,
		ImageRef:  validators.SanitizeString(payload.ImageRef, maxImageRefLength),
	}, nil
}
