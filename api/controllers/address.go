package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gymnastic/shopcart-backend/api/responses"
	"github.com/gymnastic/shopcart-backend/api/validators"
	addresssvc "github.com/gymnastic/shopcart-backend/internal/address"
	"github.com/gymnastic/shopcart-backend/internal/shop"
	"github.com/gymnastic/shopcart-backend/pkg/db/models"
	pkgerrors "github.com/gymnastic/shopcart-backend/pkg/errors"
	"github.com/gymnastic/shopcart-backend/pkg/logger"
)

// The store holds one account, so every address belongs to the principal.
const addressOwner = models.PrincipalUserID

type addressRequest struct {
	FullName    string `json:"full_name" validate:"required"`
	Phone       string `json:"phone" validate:"required,number,min=10"`
	FullAddress string `json:"full_address" validate:"required"`
	IsDefault   bool   `json:"is_default"`
}

func (r addressRequest) toInput() addresssvc.Input {
	return addresssvc.Input{
		FullName:    r.FullName,
		Phone:       r.Phone,
		FullAddress: r.FullAddress,
		IsDefault:   r.IsDefault,
	}
}

// AddressList returns the saved addresses newest first.
func AddressList(store *shop.Shop, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop unavailable"))
			return
		}

		rows, err := store.Addresses(r.Context(), addressOwner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// AddressDefault returns the default address, if one exists.
func AddressDefault(store *shop.Shop, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop unavailable"))
			return
		}

		row, err := store.DefaultAddress(r.Context(), addressOwner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

// AddressGet returns one saved address.
func AddressGet(store *shop.Shop, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop unavailable"))
			return
		}

		row, err := store.AddressByID(r.Context(), chi.URLParam(r, "addressId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

// AddressCreate saves a new address.
func AddressCreate(store *shop.Shop, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop unavailable"))
			return
		}

		var payload addressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := store.CreateAddress(r.Context(), addressOwner, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, row)
	}
}

// AddressUpdate rewrites an existing address.
func AddressUpdate(store *shop.Shop, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop unavailable"))
			return
		}

		var payload addressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id := chi.URLParam(r, "addressId")
		if err := store.UpdateAddress(r.Context(), addressOwner, id, payload.toInput()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

// AddressSetDefault promotes one address to be the default.
func AddressSetDefault(store *shop.Shop, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop unavailable"))
			return
		}

		id := chi.URLParam(r, "addressId")
		if err := store.SetDefaultAddress(r.Context(), addressOwner, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "default_set"})
	}
}

// AddressDelete removes an address. The default flag is never reassigned.
func AddressDelete(store *shop.Shop, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop unavailable"))
			return
		}

		id := chi.URLParam(r, "addressId")
		if err := store.RemoveAddress(r.Context(), addressOwner, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// AddressWatch streams address snapshots as server-sent events.
func AddressWatch(store *shop.Shop, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop unavailable"))
			return
		}

		stream, err := store.WatchAddresses(r.Context(), addressOwner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		serveEventStream(w, r, logg, stream)
	}
}
