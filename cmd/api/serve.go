// AngelaMos | 2026
// serve.go

package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/carterperez-dev/recipe-shop/internal/admin"
	"github.com/carterperez-dev/recipe-shop/internal/auth"
	"github.com/carterperez-dev/recipe-shop/internal/core"
	"github.com/carterperez-dev/recipe-shop/internal/health"
	"github.com/carterperez-dev/recipe-shop/internal/metrics"
	"github.com/carterperez-dev/recipe-shop/internal/middleware"
	"github.com/carterperez-dev/recipe-shop/internal/migrations"
	"github.com/carterperez-dev/recipe-shop/internal/order"
	"github.com/carterperez-dev/recipe-shop/internal/product"
	"github.com/carterperez-dev/recipe-shop/internal/recipe"
	"github.com/carterperez-dev/recipe-shop/internal/server"
	"github.com/carterperez-dev/recipe-shop/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

//nolint:funlen // bootstrap code is inherently verbose
func runServe(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if cfg.Database.MigrateOnStart {
		if err := migrations.Up(db.DB.DB); err != nil {
			return err
		}
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	appMetrics := metrics.New()

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo, cfg.Auth.AllowRoleSelection)
	userHandler := user.NewHandler(userSvc)

	authRepo := auth.NewRepository(db.DB)
	authSvc := auth.NewService(authRepo, jwtManager, userSvc, redis.Client)
	authHandler := auth.NewHandler(authSvc)

	productSvc := product.NewService(product.NewRepository(db.DB))
	productHandler := product.NewHandler(productSvc)

	recipeSvc := recipe.NewService(recipe.NewRepository(db.DB), productSvc)
	recipeHandler := recipe.NewHandler(recipeSvc)

	orderSvc := order.NewService(order.NewRepository(db.DB), productSvc, appMetrics)
	orderHandler := order.NewHandler(orderSvc)

	healthHandler := health.NewHandler(db, redis)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
		Orders:     orderSvc,
		Catalog:    productSvc,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	if telemetry != nil {
		router.Use(middleware.Tracing)
	}
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recoverer)
	if cfg.Metrics.Enabled {
		router.Use(appMetrics.Middleware)
	}
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	globalLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Name: "global",
		Limit: middleware.PerWindow(
			cfg.RateLimit.Requests,
			cfg.RateLimit.Burst,
			cfg.RateLimit.Window,
		),
		OnLimited: appMetrics.RateLimited,
	})
	defer globalLimiter.Stop()
	router.Use(globalLimiter.Handler)

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())
	if cfg.Metrics.Enabled {
		router.Handle(cfg.Metrics.Path, appMetrics.Handler())
	}

	authenticator := middleware.Authenticator(authSvc)
	optionalAuth := middleware.OptionalAuth(authSvc)
	adminOnly := middleware.RequireAdmin
	userOnly := middleware.RequireUser

	authLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Name: "auth",
		Limit: middleware.PerWindow(
			cfg.RateLimit.AuthRequests,
			cfg.RateLimit.AuthBurst,
			cfg.RateLimit.Window,
		),
		KeyFunc:   middleware.KeyByUserAndEndpoint,
		OnLimited: appMetrics.RateLimited,
	})
	defer authLimiter.Stop()

	router.Route("/api", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator, optionalAuth, authLimiter.Handler)

		userHandler.RegisterRoutes(r, authenticator)
		userHandler.RegisterAdminRoutes(r, authenticator, adminOnly)
		adminHandler.RegisterRoutes(r, authenticator, adminOnly)

		productHandler.RegisterRoutes(r, authenticator, adminOnly)
		recipeHandler.RegisterRoutes(r, authenticator, adminOnly)
		orderHandler.RegisterRoutes(r, authenticator, userOnly, adminOnly)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}
