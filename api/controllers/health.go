package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gymnastic/shopcart-backend/api/responses"
	"github.com/gymnastic/shopcart-backend/pkg/config"
	"github.com/gymnastic/shopcart-backend/pkg/db"
	pkgerrors "github.com/gymnastic/shopcart-backend/pkg/errors"
	"github.com/gymnastic/shopcart-backend/pkg/logger"
)

func withTimeout(r *http.Request, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), d)
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Shopcart-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Shopcart-Env", cfg.App.Env)

		if dbP == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "database not wired"))
			return
		}

		ctx, cancel := withTimeout(r, 2*time.Second)
		defer cancel()

		if err := dbP.Ping(ctx); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "database unreachable"))
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
