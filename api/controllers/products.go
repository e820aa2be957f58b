package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gymnastic/shopcart-backend/api/responses"
	"github.com/gymnastic/shopcart-backend/internal/shop"
	pkgerrors "github.com/gymnastic/shopcart-backend/pkg/errors"
	"github.com/gymnastic/shopcart-backend/pkg/logger"
)

// ProductList returns the catalog, optionally filtered by a q= search term.
func ProductList(store *shop.Shop, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop unavailable"))
			return
		}
		if query := r.URL.Query().Get("q"); query != "" {
			responses.WriteSuccess(w, store.SearchProducts(query))
			return
		}
		responses.WriteSuccess(w, store.Products())
	}
}

// ProductGet returns one catalog entry.
func ProductGet(store *shop.Shop, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop unavailable"))
			return
		}

		product, err := store.Product(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}
