package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/angelmondragon/solecart-backend/api/routes"
	"github.com/angelmondragon/solecart-backend/internal/auth"
	"github.com/angelmondragon/solecart-backend/internal/cart"
	"github.com/angelmondragon/solecart-backend/internal/events"
	"github.com/angelmondragon/solecart-backend/internal/users"
	"github.com/angelmondragon/solecart-backend/pkg/auth/session"
	"github.com/angelmondragon/solecart-backend/pkg/config"
	"github.com/angelmondragon/solecart-backend/pkg/db"
	"github.com/angelmondragon/solecart-backend/pkg/logger"
	"github.com/angelmondragon/solecart-backend/pkg/mailer"
	"github.com/angelmondragon/solecart-backend/pkg/metrics"
	"github.com/angelmondragon/solecart-backend/pkg/migrate"
	"github.com/angelmondragon/solecart-backend/pkg/oauth"
	"github.com/angelmondragon/solecart-backend/pkg/pubsub"
	"github.com/angelmondragon/solecart-backend/pkg/redis"
	"github.com/joho/godotenv"
)

const shutdownTimeout = 15 * time.Second

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
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	stateStore, err := oauth.NewStateStore(redisClient, cfg.OAuth.StateTTL)
	if err != nil {
		logg.Error(ctx, "failed to create oauth state store", err)
		os.Exit(1)
	}

	registry := metrics.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)
	eventMetrics := metrics.NewEventMetrics(registry)

	emitter := events.NewLogEmitter(logg)
	if cfg.FeatureFlags.PublishEvents {
		psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := psClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
		emitter, err = events.NewPubSubEmitter(psClient, events.Topics{
			Cart: psClient.CartTopic(),
			Auth: psClient.AuthTopic(),
		}, logg, eventMetrics)
		if err != nil {
			logg.Error(ctx, "failed to create event emitter", err)
			os.Exit(1)
		}
	}

	userRepo := users.NewRepository(dbClient.DB())
	authService, err := auth.NewService(auth.ServiceParams{
		TxRunner:        dbClient,
		UserRepo:        userRepo,
		UserRepoFactory: auth.TxScopedUsers(userRepo),
		SessionManager:  sessionManager,
		Mailer:          mailer.New(cfg.Sendgrid, logg),
		Providers:       oauth.NewRegistry(ctx, cfg.OAuth, logg),
		States:          stateStore,
		Emitter:         emitter,
		Logger:          logg,
		JWTConfig:       cfg.JWT,
		PasswordConfig:  cfg.PasswordReset,
		HashConfig:      cfg.Password,
		ExposeToken:     cfg.FeatureFlags.ExposeResetToken && !cfg.App.IsProd(),
	})
	if err != nil {
		logg.Error(ctx, "failed to create auth service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.NewRepository(dbClient.DB()), dbClient, emitter)
	if err != nil {
		logg.Error(ctx, "failed to create cart service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(serverCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Dependencies{
			DB:          dbClient,
			Redis:       redisClient,
			RateLimiter: redisClient,
			Sessions:    sessionManager,
			Auth:        authService,
			Cart:        cartService,
			Registry:    registry,
			HTTPMetrics: httpMetrics,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(serverCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(serverCtx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(serverCtx, "graceful shutdown failed", err)
		}
	}
}
