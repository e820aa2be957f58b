package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gymnastic/shopcart-backend/api/routes"
	addresssvc "github.com/gymnastic/shopcart-backend/internal/address"
	cartsvc "github.com/gymnastic/shopcart-backend/internal/cart"
	"github.com/gymnastic/shopcart-backend/internal/catalog"
	checkoutsvc "github.com/gymnastic/shopcart-backend/internal/checkout"
	"github.com/gymnastic/shopcart-backend/internal/shop"
	userssvc "github.com/gymnastic/shopcart-backend/internal/users"
	"github.com/gymnastic/shopcart-backend/pkg/config"
	"github.com/gymnastic/shopcart-backend/pkg/db"
	"github.com/gymnastic/shopcart-backend/pkg/db/models"
	"github.com/gymnastic/shopcart-backend/pkg/feed"
	"github.com/gymnastic/shopcart-backend/pkg/logger"
	"github.com/gymnastic/shopcart-backend/pkg/metrics"
	"github.com/gymnastic/shopcart-backend/pkg/migrate"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	storeMetrics := metrics.NewStoreMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	userService, err := userssvc.NewService(
		userssvc.NewRepository(dbClient.DB()),
		dbClient,
		feed.NewBroker[*models.UserProfile](),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	cartService, err := cartsvc.NewService(
		cartsvc.NewRepository(dbClient.DB()),
		feed.NewBroker[[]models.CartLine](),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	addressService, err := addresssvc.NewService(
		addresssvc.NewRepository(dbClient.DB()),
		dbClient,
		feed.NewBroker[[]models.Address](),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create address service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(userService, cartService, addressService)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	store, err := shop.New(shop.Params{
		Catalog:   catalog.NewService(),
		Cart:      cartService,
		Users:     userService,
		Addresses: addressService,
		Checkout:  checkoutService,
		Metrics:   storeMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create shop facade", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, store, httpMetrics, registry),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
