package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-cart/api/controllers"
	cartcontrollers "github.com/angelmondragon/storefront-cart/api/controllers/cart"
	"github.com/angelmondragon/storefront-cart/api/middleware"
	"github.com/angelmondragon/storefront-cart/api/responses"
	"github.com/angelmondragon/storefront-cart/internal/cart"
	"github.com/angelmondragon/storefront-cart/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
	"github.com/angelmondragon/storefront-cart/pkg/redis"
)

// Params collects the dependencies the HTTP surface needs. Redis is optional;
// without it rate limiting and idempotency replay are disabled.
type Params struct {
	Config          *config.Config
	Logger          *logger.Logger
	CartService     cart.Service
	Redis           *redis.Client
	ReadinessChecks []controllers.ReadinessCheck
	MetricsHandler  http.Handler
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		responses.WriteError(req.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		responses.WriteError(req.Context(), logg, w, pkgerrors.New(pkgerrors.CodeMethodNotAllowed, "method not allowed"))
	})

	var (
		rateStore        redis.RateLimitStore
		idempotencyStore redis.IdempotencyStore
	)
	if p.Redis != nil {
		rateStore = p.Redis
		idempotencyStore = p.Redis
	}

	mutationPolicy := middleware.NewRateLimitPolicy(
		"cart",
		cfg.RateLimit.Window,
		cfg.RateLimit.IPLimit,
		cfg.RateLimit.SessionLimit,
	)
	rateLimited := middleware.RateLimit(mutationPolicy, rateStore, logg)
	currency := cfg.Cart.DisplayCurrency()

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.ReadinessChecks...))
	})

	if p.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", p.MetricsHandler)
	}

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.CartSession(middleware.CartSessionOptions{
			CookieSecure: cfg.Cart.CookieSecure,
			CookieMaxAge: cfg.Cart.CookieMaxAge,
		}, logg))

		r.Get("/", cartcontrollers.CartFetch(p.CartService, currency, logg))
		r.Get("/checkout", cartcontrollers.CartCheckout(p.CartService, currency, logg))

		// idempotency matches on the full route pattern, so it is attached per route
		replayable := middleware.Idempotency(idempotencyStore, logg)
		r.With(rateLimited).Delete("/", cartcontrollers.CartClear(p.CartService, currency, logg))
		r.With(rateLimited, replayable).Post("/items", cartcontrollers.CartAddItem(p.CartService, currency, logg))
		r.With(rateLimited).Put("/items/{productId}", cartcontrollers.CartSetQuantity(p.CartService, currency, logg))
		r.With(rateLimited).Delete("/items/{productId}", cartcontrollers.CartRemoveItem(p.CartService, currency, logg))
		r.With(rateLimited, replayable).Post("/confirm", cartcontrollers.CartConfirm(p.CartService, currency, logg))
	})

	return r
}
