package controllers

import (
	"net/http"

	"github.com/gymnastic/shopcart-backend/api/responses"
	"github.com/gymnastic/shopcart-backend/api/validators"
	"github.com/gymnastic/shopcart-backend/internal/shop"
	pkgerrors "github.com/gymnastic/shopcart-backend/pkg/errors"
	"github.com/gymnastic/shopcart-backend/pkg/logger"
)

type checkoutRequest struct {
	AddressID string `json:"address_id"`
}

// CheckoutPlaceOrder turns the current cart into a receipt. With no address
// in the payload the order ships to the default address.
func CheckoutPlaceOrder(store *shop.Shop, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop unavailable"))
			return
		}

		var payload checkoutRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		receipt, err := store.Checkout(r.Context(), payload.AddressID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, receipt)
	}
}
