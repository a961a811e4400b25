package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/solecart-backend/api/controllers"
	"github.com/angelmondragon/solecart-backend/api/middleware"
	"github.com/angelmondragon/solecart-backend/internal/auth"
	"github.com/angelmondragon/solecart-backend/internal/cart"
	"github.com/angelmondragon/solecart-backend/pkg/auth/session"
	"github.com/angelmondragon/solecart-backend/pkg/config"
	"github.com/angelmondragon/solecart-backend/pkg/db"
	"github.com/angelmondragon/solecart-backend/pkg/enums"
	"github.com/angelmondragon/solecart-backend/pkg/logger"
	"github.com/angelmondragon/solecart-backend/pkg/metrics"
)

// RateLimiter is the redis surface used by the auth throttles.
type RateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Dependencies bundles everything the route table needs. Nil pingers are
// skipped by the readiness probe and a nil limiter disables throttling.
type Dependencies struct {
	DB          db.Pinger
	Redis       controllers.Pinger
	RateLimiter RateLimiter
	Sessions    session.AccessSessionChecker
	Auth        auth.Service
	Cart        cart.Service
	Registry    *prometheus.Registry
	HTTPMetrics *metrics.HTTPMetrics
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)
	resetPolicy := middleware.NewAuthRateLimitPolicy(
		"reset",
		cfg.AuthRateLimit.ResetWindow,
		cfg.AuthRateLimit.ResetIPLimit,
		cfg.AuthRateLimit.ResetEmailLimit,
	)

	readiness := map[string]controllers.Pinger{}
	if deps.DB != nil {
		readiness["db"] = deps.DB
	}
	if deps.Redis != nil {
		readiness["redis"] = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readiness, logg))
	})

	if deps.Registry != nil {
		r.Handle("/metrics", metrics.Handler(deps.Registry))
	}

	r.Route("/carts", func(r chi.Router) {
		r.Post("/add-to-cart", controllers.CartAddItem(deps.Cart, logg))
		r.Get("/cart/{email}", controllers.CartGet(deps.Cart, logg))
		r.Delete("/cart/{email}/remove-checked-items", controllers.CartRemoveChecked(deps.Cart, logg))
		r.Delete("/cart/{email}/remove-item/{itemId}", controllers.CartRemoveItem(deps.Cart, logg))
		r.Delete("/cart/{email}/remove-unchecked", controllers.CartRemoveUnchecked(deps.Cart, logg))
		r.Put("/update-item-quantity/{email}/{itemId}", controllers.CartUpdateQuantity(deps.Cart, logg))
	})

	cookies := controllers.SessionCookieConfig{
		Secure: cfg.App.IsProd(),
		MaxAge: cfg.JWT.AccessTokenTTL(),
	}
	clientURL := cfg.App.ClientURL

	r.Route("/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, deps.RateLimiter, logg)).Post("/register", controllers.AuthRegister(deps.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.RateLimiter, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.With(middleware.AuthRateLimit(resetPolicy, deps.RateLimiter, logg)).Post("/reset-password", controllers.AuthRequestPasswordReset(deps.Auth, logg))
		r.Post("/change-password", controllers.AuthChangePassword(deps.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))

		for _, provider := range []enums.AuthProvider{enums.AuthProviderGoogle, enums.AuthProviderFacebook} {
			r.Get("/"+string(provider), controllers.OAuthBegin(deps.Auth, provider, logg))
			r.Get("/"+string(provider)+"/callback", controllers.OAuthCallback(deps.Auth, provider, cookies, clientURL, logg))
		}

		r.Get("/login/failed", controllers.LoginFailed())

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Get("/login/success", controllers.LoginSuccess(deps.Auth, logg))
			r.Get("/logout", controllers.Logout(deps.Auth, cookies, clientURL, logg))
		})
	})

	return r
}
