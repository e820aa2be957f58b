package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gymnastic/shopcart-backend/api/controllers"
	"github.com/gymnastic/shopcart-backend/api/middleware"
	"github.com/gymnastic/shopcart-backend/internal/shop"
	"github.com/gymnastic/shopcart-backend/pkg/config"
	"github.com/gymnastic/shopcart-backend/pkg/db"
	"github.com/gymnastic/shopcart-backend/pkg/logger"
	"github.com/gymnastic/shopcart-backend/pkg/metrics"
)

// NewRouter assembles the HTTP surface over the shop facade.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	store *shop.Shop,
	httpMetrics *metrics.HTTPMetrics,
	gatherer prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(store, logg))
			r.Get("/{productId}", controllers.ProductGet(store, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartList(store, logg))
			r.Delete("/", controllers.CartClear(store, logg))
			r.Get("/watch", controllers.CartWatch(store, logg))
			r.Post("/items", controllers.CartAdd(store, logg))
			r.Get("/items/{productId}", controllers.CartGetLine(store, logg))
			r.Put("/items/{productId}", controllers.CartSetQuantity(store, logg))
			r.Delete("/items/{productId}", controllers.CartRemove(store, logg))
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", controllers.AuthRegister(store, logg))
			r.Post("/login", controllers.AuthLogin(store, logg))
			r.Post("/logout", controllers.AuthLogout(store, logg))
		})

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", controllers.ProfileGet(store, logg))
			r.Get("/watch", controllers.ProfileWatch(store, logg))
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", controllers.AddressList(store, logg))
			r.Post("/", controllers.AddressCreate(store, logg))
			r.Get("/default", controllers.AddressDefault(store, logg))
			r.Get("/watch", controllers.AddressWatch(store, logg))
			r.Get("/{addressId}", controllers.AddressGet(store, logg))
			r.Put("/{addressId}", controllers.AddressUpdate(store, logg))
			r.Delete("/{addressId}", controllers.AddressDelete(store, logg))
			r.Post("/{addressId}/default", controllers.AddressSetDefault(store, logg))
		})

		r.Post("/checkout", controllers.CheckoutPlaceOrder(store, logg))
	})

	return r
}
