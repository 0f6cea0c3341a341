// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/go-chi/chi/v5"
	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carterperez-dev/storefront/internal/admin"
	"github.com/carterperez-dev/storefront/internal/audit"
	"github.com/carterperez-dev/storefront/internal/auth"
	"github.com/carterperez-dev/storefront/internal/cart"
	"github.com/carterperez-dev/storefront/internal/config"
	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/health"
	"github.com/carterperez-dev/storefront/internal/middleware"
	"github.com/carterperez-dev/storefront/internal/notify"
	"github.com/carterperez-dev/storefront/internal/order"
	"github.com/carterperez-dev/storefront/internal/payment"
	"github.com/carterperez-dev/storefront/internal/product"
	"github.com/carterperez-dev/storefront/internal/review"
	"github.com/carterperez-dev/storefront/internal/server"
	"github.com/carterperez-dev/storefront/internal/storage"
	"github.com/carterperez-dev/storefront/internal/user"
	"github.com/carterperez-dev/storefront/internal/wishlist"
)

const (
	drainDelay       = 5 * time.Second
	metricsNamespace = "storefront"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	generateKeys := flag.Bool("generate-keys", false, "write a new ES256 key pair and exit")
	flag.Parse()

	// .env is optional; real environments set variables directly.
	_ = godotenv.Load() //nolint:errcheck // missing .env is fine

	if *generateKeys {
		if err := runGenerateKeys(*configPath); err != nil {
			slog.Error("generate keys", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func runGenerateKeys(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := auth.GenerateKeyPair(cfg.JWT.PrivateKeyPath, cfg.JWT.PublicKeyPath); err != nil {
		return err
	}

	slog.Info("key pair written",
		"private", cfg.JWT.PrivateKeyPath,
		"public", cfg.JWT.PublicKeyPath,
	)
	return nil
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

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

	awsCfg, err := core.NewAWSConfig(ctx, cfg.AWS)
	if err != nil {
		return err
	}

	if err := config.ResolveStripeSecrets(ctx, secretsmanager.NewFromConfig(awsCfg), &cfg.Stripe); err != nil {
		return err
	}

	mongo, err := core.NewMongo(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	logger.Info("mongo connected",
		"database", cfg.Mongo.Database,
		"max_pool_size", cfg.Mongo.MaxPoolSize,
		"transactions", cfg.Mongo.Transactions,
	)

	if err := mongo.EnsureIndexes(ctx); err != nil {
		return err
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	switch {
	case errors.Is(err, core.ErrRedisUnreachable):
		logger.Warn("redis unreachable, continuing without cache", "error", err)
	case err != nil:
		return err
	default:
		logger.Info("redis connected", "pool_size", cfg.Redis.PoolSize)
	}

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	mailer, err := notify.NewSender(cfg.Email, awsCfg, logger)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := middleware.NewMetrics(registry, metricsNamespace)
	orderMetrics := order.NewMetrics(registry, metricsNamespace)

	auditSvc := audit.NewService(audit.NewRepository(mongo.DB), logger)

	userSvc := user.NewService(user.NewRepository(mongo.DB))
	userHandler := user.NewHandler(userSvc)

	authSvc := auth.NewService(auth.ServiceConfig{
		Repo:         auth.NewRepository(mongo.DB),
		JWT:          jwtManager,
		UserProvider: userSvc,
		Redis:        redis.Client,
		Audit:        auditSvc,
		Mailer:       mailer,
		FrontendURL:  cfg.App.FrontendURL,
		Logger:       logger,
	})
	authHandler := auth.NewHandler(authSvc)

	productSvc := product.NewService(
		product.NewRepository(mongo.DB),
		redis,
		storage.NewPresigner(awsCfg, cfg.Storage),
		logger,
	)
	productHandler := product.NewHandler(productSvc)

	reviewSvc := review.NewService(review.NewRepository(mongo.DB), productSvc, userSvc, logger)
	reviewHandler := review.NewHandler(reviewSvc)

	cartSvc := cart.NewService(cart.NewRepository(mongo.DB), productSvc)
	cartHandler := cart.NewHandler(cartSvc)

	wishlistSvc := wishlist.NewService(wishlist.NewRepository(mongo.DB), productSvc)
	wishlistHandler := wishlist.NewHandler(wishlistSvc)

	orderSvc := order.NewService(order.ServiceConfig{
		Repo:    order.NewRepository(mongo.DB),
		Catalog: productSvc,
		Carts:   cartSvc,
		Tx:      mongo,
		Mailer:  mailer,
		Audit:   auditSvc,
		Metrics: orderMetrics,
		Logger:  logger,
	})
	orderHandler := order.NewHandler(orderSvc)

	paymentSvc := payment.NewService(
		payment.NewStripeIntents(cfg.Stripe.SecretKey),
		orderSvc,
		cfg.Stripe,
		logger,
	)
	paymentHandler := payment.NewHandler(paymentSvc)
	if cfg.Stripe.SecretKey == "" {
		logger.Warn("stripe is not configured, card payments disabled")
	}

	healthHandler := health.NewHandler(
		health.Dependency{Name: "mongo", Checker: mongo},
		health.Dependency{Name: "redis", Checker: redis, Optional: true},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		CountUsers: userSvc.CountUsers,
		Products:   productSvc,
		Orders:     orderSvc,
		Logs:       auditSvc,
		MongoStats: mongo.Stats,
		MongoPing:  mongo.Ping,
		RedisStats: redis.PoolStats,
		RedisPing:  redis.Ping,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	var closers []func()
	defer func() {
		for _, closeFn := range closers {
			closeFn()
		}
	}()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(httpMetrics.Handler)
	globalLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit:     middleware.PerMinute(cfg.RateLimit.Requests, cfg.RateLimit.Burst),
		FailOpen:  true,
		Skip:      isStripeWebhook,
		OnLimited: httpMetrics.RateLimited,
		Logger:    logger,
	})
	closers = append(closers, globalLimiter.Close)
	router.Use(globalLimiter.Handler)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	authenticator := middleware.Authenticator(authSvc)
	adminOnly := middleware.RequireAdmin

	limiter := func(name string, limit redis_rate.Limit, key func(*http.Request) string, failOpen bool) func(http.Handler) http.Handler {
		rl := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Name:      name,
			Limit:     limit,
			KeyFunc:   key,
			FailOpen:  failOpen,
			OnLimited: httpMetrics.RateLimited,
			Logger:    logger,
		})
		closers = append(closers, rl.Close)
		return rl.Handler
	}

	resetLimiter := limiter("password_reset",
		middleware.PerHour(cfg.RateLimit.ResetPerHour, cfg.RateLimit.ResetBurst),
		middleware.KeyByIPAndEndpoint, false)
	checkoutLimiter := limiter("checkout", middleware.PerMinute(10, 5), middleware.KeyByUser, true)
	intentLimiter := limiter("payment_intent", middleware.PerMinute(10, 5), middleware.KeyByUser, true)

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator, resetLimiter)

		userHandler.RegisterRoutes(r, authenticator)
		userHandler.RegisterAdminRoutes(r, authenticator, adminOnly)

		productHandler.RegisterRoutes(r, authenticator, adminOnly)
		reviewHandler.RegisterRoutes(r, authenticator)
		cartHandler.RegisterRoutes(r, authenticator)
		wishlistHandler.RegisterRoutes(r, authenticator)
		orderHandler.RegisterRoutes(r, authenticator, checkoutLimiter)
		paymentHandler.RegisterRoutes(r, authenticator, intentLimiter)

		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
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

	if err := mongo.Close(); err != nil {
		logger.Error("mongo close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func isStripeWebhook(r *http.Request) bool {
	return r.URL.Path == "/v1/payments/webhook"
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
