package cart

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	cartdto "github.com/angelmondragon/storefront-cart/api/controllers/cart/dto"
	"github.com/angelmondragon/storefront-cart/api/middleware"
	"github.com/angelmondragon/storefront-cart/api/responses"
	"github.com/angelmondragon/storefront-cart/api/validators"
	cartsvc "github.com/angelmondragon/storefront-cart/internal/cart"
	"github.com/angelmondragon/storefront-cart/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
)

const productIDParam = "productId"

// CartFetch returns the session's cart.
func CartFetch(svc cartsvc.Service, currency enums.Currency, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !serviceReady(w, r, svc, logg) {
			return
		}

		agg, err := svc.GetCart(r.Context(), middleware.SessionIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(agg, currency))
	}
}

// CartAddItem adds a product snapshot to the cart, merging with an existing line.
func CartAddItem(svc cartsvc.Service, currency enums.Currency, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !serviceReady(w, r, svc, logg) {
			return
		}

		var payload cartdto.AddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := toProduct(payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		agg, err := svc.AddItem(r.Context(), middleware.SessionIDFromContext(r.Context()), product, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(agg, currency))
	}
}

// CartSetQuantity overwrites a line quantity.
func CartSetQuantity(svc cartsvc.Service, currency enums.Currency, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !serviceReady(w, r, svc, logg) {
			return
		}

		productID, err := productIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload cartdto.SetQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		agg, err := svc.SetQuantity(r.Context(), middleware.SessionIDFromContext(r.Context()), productID, *payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(agg, currency))
	}
}

// CartRemoveItem drops a line; removing an absent product succeeds.
func CartRemoveItem(svc cartsvc.Service, currency enums.Currency, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !serviceReady(w, r, svc, logg) {
			return
		}

		productID, err := productIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		agg, err := svc.RemoveItem(r.Context(), middleware.SessionIDFromContext(r.Context()), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(agg, currency))
	}
}

// CartClear empties the cart.
func CartClear(svc cartsvc.Service, currency enums.Currency, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !serviceReady(w, r, svc, logg) {
			return
		}

		agg, err := svc.Clear(r.Context(), middleware.SessionIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(agg, currency))
	}
}

// CartCheckout returns the snapshot handed to the payment provider.
func CartCheckout(svc cartsvc.Service, currency enums.Currency, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !serviceReady(w, r, svc, logg) {
			return
		}

		snapshot, err := svc.CheckoutSnapshot(r.Context(), middleware.SessionIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCheckoutView(snapshot, currency))
	}
}

// CartConfirm discards the cart once the payment provider has confirmed the order.
func CartConfirm(svc cartsvc.Service, currency enums.Currency, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !serviceReady(w, r, svc, logg) {
			return
		}

		if err := svc.ConfirmOrder(r.Context(), middleware.SessionIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(cartsvc.EmptyAggregate(), currency))
	}
}

func serviceReady(w http.ResponseWriter, r *http.Request, svc cartsvc.Service, logg *logger.Logger) bool {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
		return false
	}
	return true
}

func productIDFromPath(r *http.Request) (string, error) {
	productID := validators.SanitizeString(chi.URLParam(r, productIDParam), 0)
	if productID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return productID, nil
}
