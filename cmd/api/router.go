package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/blessedux/CasaGreda/internal/cart"
	"github.com/blessedux/CasaGreda/internal/catalog"
	"github.com/blessedux/CasaGreda/internal/checkout"
	"github.com/blessedux/CasaGreda/internal/common"
	"github.com/blessedux/CasaGreda/internal/config"
	"github.com/blessedux/CasaGreda/internal/health"
	"github.com/blessedux/CasaGreda/internal/i18n"
	"github.com/blessedux/CasaGreda/internal/obs"
	"github.com/blessedux/CasaGreda/internal/ratelimit"
	"github.com/blessedux/CasaGreda/internal/security"
)

// deps carries the constructed services into the router.
type deps struct {
	Logger      zerolog.Logger
	Redis       *redis.Client
	Catalog     *catalog.Service
	Carts       *cart.Service
	Sessions    cart.Sessions
	Checkout    *checkout.Service
	Health      health.Handler
	HTTPMetrics *obs.HTTPMetrics
	Gatherer    prometheus.Gatherer
	Tracing     bool
}

func newRouter(cfg *config.Config, d deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if d.Tracing {
		r.Use(obs.TracingMiddleware)
	}
	if d.HTTPMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: d.HTTPMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: d.Logger}.Middleware)
	r.Use(security.CORS(joinOrigins(cfg.CORSAllowedOrigins)))
	r.Use(security.Headers{Enable: cfg.SecurityHeaders, EnableHSTS: cfg.HSTSEnabled}.Middleware)
	r.Use(i18n.NewResolver(cfg.LocaleCookieName).Middleware)

	if d.HTTPMetrics != nil {
		r.Handle("/metrics", obs.MetricsHandler(d.Gatherer))
	}
	r.Get("/health/live", d.Health.Live)
	r.Get("/health/ready", d.Health.Ready)

	var limiter ratelimit.Allower = ratelimit.NewMemory()
	if d.Redis != nil {
		limiter = ratelimit.Sliding{Client: d.Redis, Prefix: "ratelimit:"}
	}
	onLimitErr := func(r *http.Request, err error) {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("rate limiter unavailable")
	}
	writeLimit := ratelimit.Handler{
		Limiter: limiter,
		Config:  ratelimit.Config{Key: ratelimit.ByClientIP("cart"), Window: cfg.RateLimitWindow, Max: cfg.RateLimitMax},
		OnError: onLimitErr,
	}
	checkoutMax := cfg.RateLimitMax / 10
	if checkoutMax < 1 {
		checkoutMax = 1
	}
	checkoutLimit := ratelimit.Handler{
		Limiter: limiter,
		Config:  ratelimit.Config{Key: ratelimit.ByClientIP("checkout"), Window: cfg.RateLimitWindow, Max: checkoutMax},
		OnError: onLimitErr,
	}
	csrf := security.CSRF{Secure: cfg.CookieSecure}
	idem := common.Idem{R: d.Redis, TTL: cfg.IdempotencyTTL, Scope: cart.Visitor(cfg.SessionCookieName, cfg.CartCookieName)}

	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Service: d.Catalog})
	cartHandler := &cart.Handler{Svc: d.Carts, Catalog: d.Catalog, Sessions: d.Sessions}
	checkoutHandler := &checkout.Handler{Svc: d.Checkout, Sessions: d.Sessions}

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(cart.CookieJarMiddleware)
		v.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)

		v.Get("/i18n", i18n.DictionaryHandler)
		v.Get("/rooms", catalogHandler.Rooms)
		v.Get("/rooms/{room}", catalogHandler.Room)
		v.Get("/products/{slug}", catalogHandler.ProductDetail)
		v.Get("/products/{slug}/quote", catalogHandler.Quote)
		if cfg.CSRFEnabled {
			v.Get("/csrf", csrf.Issue)
		}

		v.Group(func(w chi.Router) {
			if cfg.CSRFEnabled {
				w.Use(csrf.Middleware)
			}
			w.Route("/cart", func(c chi.Router) {
				c.Get("/", cartHandler.Get)
				c.Group(func(g chi.Router) {
					g.Use(writeLimit.Middleware)
					g.Delete("/", cartHandler.Clear)
					g.Post("/items", cartHandler.AddItem)
					g.Patch("/items", cartHandler.UpdateItem)
					g.Delete("/items", cartHandler.RemoveItem)
				})
			})
			w.With(checkoutLimit.Middleware, idem.Middleware).Post("/checkout", checkoutHandler.Checkout)
		})
	})
	return r
}

func joinOrigins(origins []string) string {
	if len(origins) == 0 {
		return "*"
	}
	return strings.Join(origins, ",")
}

func cartSessions(cfg *config.Config) cart.Sessions {
	if cfg.CartStore == config.CartStoreRedis {
		return cart.CookieSession{
			Name:     cfg.SessionCookieName,
			TTL:      cfg.CartTTL,
			Secure:   cfg.CookieSecure,
			SameSite: cfg.CookieSameSite,
			Domain:   cfg.CookieDomain,
		}
	}
	return cart.FixedSession(cfg.CartCookieName)
}

func cartStore(cfg *config.Config, client *redis.Client) cart.Store {
	if cfg.CartStore == config.CartStoreRedis && client != nil {
		return cart.NewRedisStore(client, cfg.CartTTL)
	}
	return cart.CookieStore{
		Secret:   cfg.CartCookieSecret,
		TTL:      cfg.CartTTL,
		Secure:   cfg.CookieSecure,
		SameSite: cfg.CookieSameSite,
		Domain:   cfg.CookieDomain,
	}
}

func shutdownTimeout(cfg *config.Config) time.Duration {
	if cfg.ShutdownTimeout <= 0 {
		return 15 * time.Second
	}
	return cfg.ShutdownTimeout
}
