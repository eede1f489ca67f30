package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aryankapoor/zapkart-backend/api/controllers"
	"github.com/aryankapoor/zapkart-backend/api/middleware"
	"github.com/aryankapoor/zapkart-backend/internal/address"
	"github.com/aryankapoor/zapkart-backend/internal/analytics"
	"github.com/aryankapoor/zapkart-backend/internal/orders"
	"github.com/aryankapoor/zapkart-backend/internal/products"
	"github.com/aryankapoor/zapkart-backend/internal/session"
	"github.com/aryankapoor/zapkart-backend/pkg/config"
	"github.com/aryankapoor/zapkart-backend/pkg/db"
	"github.com/aryankapoor/zapkart-backend/pkg/logger"
	"github.com/aryankapoor/zapkart-backend/pkg/pricing"
	"github.com/aryankapoor/zapkart-backend/pkg/redis"
)

// Dependencies carries everything the HTTP surface needs.
type Dependencies struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        *db.Client
	Redis     *redis.Client
	Sessions  *session.Manager
	Products  *products.Service
	Orders    *orders.Service
	Addresses *address.Service
	Analytics *analytics.Service
	Pricing   pricing.Config
	Registry  *prometheus.Registry

	// IdempotencyTTL bounds how long a checkout idempotency key is held.
	IdempotencyTTL time.Duration
}

// New assembles the router. Everything under /api/v1 requires a verified
// identity token; health and metrics stay open.
func New(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer(deps.Logger))
	r.Use(middleware.RequestID(deps.Logger))
	r.Use(middleware.Logging(deps.Logger))

	r.Get("/health/live", controllers.HealthLive(deps.Config))
	r.Get("/health/ready", controllers.HealthReady(deps.Config, deps.Logger, deps.DB, deps.Redis))
	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	idempotencyTTL := deps.IdempotencyTTL
	if idempotencyTTL <= 0 {
		idempotencyTTL = 24 * time.Hour
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(deps.Config.JWT, deps.Logger))

		r.Post("/session/sign-in", controllers.SessionSignIn(deps.Sessions, deps.Logger))
		r.Post("/session/sign-out", controllers.SessionSignOut(deps.Sessions, deps.Logger))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(deps.Sessions, deps.Pricing, deps.Logger))
			r.Post("/items", controllers.CartAddItem(deps.Sessions, deps.Products, deps.Pricing, deps.Logger))
			r.Put("/items/{productID}", controllers.CartUpdateItem(deps.Sessions, deps.Pricing, deps.Logger))
			r.Delete("/items/{productID}", controllers.CartRemoveItem(deps.Sessions, deps.Pricing, deps.Logger))
			r.Delete("/", controllers.CartClear(deps.Sessions, deps.Pricing, deps.Logger))
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", controllers.WishlistGet(deps.Sessions, deps.Products, deps.Logger))
			r.Put("/{productID}", controllers.WishlistAdd(deps.Sessions, deps.Logger))
			r.Delete("/{productID}", controllers.WishlistRemove(deps.Sessions, deps.Logger))
			r.Post("/{productID}/toggle", controllers.WishlistToggle(deps.Sessions, deps.Logger))
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", controllers.AddressList(deps.Addresses, deps.Logger))
			r.Post("/", controllers.AddressCreate(deps.Addresses, deps.Logger))
			r.Get("/suggest", controllers.AddressSuggest(deps.Addresses, deps.Logger))
			r.Put("/{addressID}", controllers.AddressUpdate(deps.Addresses, deps.Logger))
			r.Delete("/{addressID}", controllers.AddressDelete(deps.Addresses, deps.Logger))
			r.Post("/{addressID}/default", controllers.AddressSetDefault(deps.Addresses, deps.Logger))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductsList(deps.Products, deps.Logger))
			r.Post("/", controllers.ProductsCreate(deps.Products, deps.Logger))
			r.Get("/{productID}", controllers.ProductsGet(deps.Products, deps.Logger))
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(middleware.Idempotency("checkout", deps.Redis, idempotencyTTL, deps.Logger)).
				Post("/", controllers.OrdersCreate(deps.Sessions, deps.Orders, deps.Logger))
			r.Get("/", controllers.OrdersList(deps.Orders, deps.Logger))
			r.Get("/{orderID}", controllers.OrdersGet(deps.Orders, deps.Logger))
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/summary", controllers.AnalyticsSummary(deps.Analytics))
			r.Get("/top-products", controllers.AnalyticsTopProducts(deps.Analytics, deps.Logger))
			r.Get("/revenue-by-day", controllers.AnalyticsRevenueByDay(deps.Analytics))
		})
	})

	return r
}
