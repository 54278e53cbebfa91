// Package app wires together all dependencies and runs the storefront.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/StorefrontGo/internal/config"
	"github.com/utafrali/StorefrontGo/internal/event"
	handler "github.com/utafrali/StorefrontGo/internal/handler/http"
	"github.com/utafrali/StorefrontGo/internal/provider"
	stripeprovider "github.com/utafrali/StorefrontGo/internal/provider/stripe"
	"github.com/utafrali/StorefrontGo/internal/repository/postgres"
	"github.com/utafrali/StorefrontGo/internal/service"
	"github.com/utafrali/StorefrontGo/migrations"
	"github.com/utafrali/StorefrontGo/pkg/database"
	"github.com/utafrali/StorefrontGo/pkg/health"
	pkgkafka "github.com/utafrali/StorefrontGo/pkg/kafka"
	"github.com/utafrali/StorefrontGo/pkg/tracing"
)

// App holds the storefront's long-lived components.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redisClient    *redis.Client
	producer       *pkgkafka.Producer
	catalogService *service.CatalogService
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "storefront",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: time.Duration(cfg.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(cfg.DBMaxConnIdleTimeMins) * time.Minute,
	}

	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, "storefront")

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Configure slow query logging.
	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}

	// Redis showcase cache is optional: a connection failure disables
	// caching, it never blocks startup.
	var redisClient *redis.Client
	if cfg.CatalogCacheEnabled {
		redisCfg := database.RedisConfig{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}
		redisClient, err = database.NewRedisClient(ctx, redisCfg)
		if err != nil {
			logger.Warn("redis unavailable, showcase caching disabled",
				slog.String("error", err.Error()),
			)
			redisClient = nil
		} else {
			logger.Info("connected to Redis",
				slog.String("host", cfg.RedisHost),
				slog.Int("port", cfg.RedisPort),
			)
		}
	}

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Payment provider. Without Stripe credentials the storefront runs
	// with checkout disabled.
	var paymentProvider provider.Provider
	if cfg.StripeConfigured() {
		stripeProv := stripeprovider.New(cfg.StripeSecretKey, cfg.StripeWebhookSecret, logger)
		paymentProvider = provider.WithBreaker(stripeProv, provider.BreakerConfig{
			MaxRequests:  cfg.CBMaxRequests,
			Interval:     time.Duration(cfg.CBInterval) * time.Second,
			Timeout:      time.Duration(cfg.CBTimeout) * time.Second,
			FailureRatio: cfg.CBFailureRatio,
			MinRequests:  cfg.CBMinRequests,
		}, logger)
		logger.Info("stripe payment provider initialized")
	} else {
		paymentProvider = provider.NewDisabled()
		logger.Warn("stripe credentials not configured, checkout is disabled")
	}

	// Build the dependency graph.
	productRepo := postgres.NewProductRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	eventProducer := event.NewProducer(producer, logger)

	catalogService := service.NewCatalogService(productRepo, redisClient, cfg.CatalogCacheTTL(), logger)
	checkoutService := service.NewCheckoutService(catalogService, orderRepo, paymentProvider, eventProducer, cfg.SiteURL, logger)
	orderService := service.NewOrderService(orderRepo, paymentProvider, eventProducer, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})
	if redisClient != nil {
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	// HTTP router.
	router := handler.NewRouter(catalogService, checkoutService, orderService, healthHandler, logger, handler.RouterConfig{
		Environment:     cfg.Environment,
		AllowedOrigins:  cfg.AllowedOrigins,
		PprofCIDRs:      cfg.PprofAllowedCIDRs,
		StripePublicKey: cfg.StripePublicKey,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redisClient:    redisClient,
		producer:       producer,
		catalogService: catalogService,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// SeedCatalog inserts the fixed showcase products if missing.
func (a *App) SeedCatalog(ctx context.Context) error {
	inserted, err := a.catalogService.SeedDefaults(ctx)
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	if inserted > 0 {
		a.logger.Info("catalog seeded", slog.Int("products", inserted))
	}
	return nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans from drained requests)
// 3. Kafka producer
// 4. Redis client
// 5. PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// 1. Drain in-flight HTTP requests (5s budget).
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 2. Flush pending spans after HTTP drain so in-flight request spans are captured.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 3. Close Kafka producer.
	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 4. Close Redis client.
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 5. Close PostgreSQL pool.
	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
