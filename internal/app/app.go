// Package app wires the campaign service together and runs it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/darkcaptain12/zensticker-ecommerce-sub001/pkg/database"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/pkg/health"
	pkgkafka "github.com/darkcaptain12/zensticker-ecommerce-sub001/pkg/kafka"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/pkg/middleware"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/pkg/tracing"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/internal/cache"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/internal/clientstate"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/internal/config"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/internal/event"
	handler "github.com/darkcaptain12/zensticker-ecommerce-sub001/internal/handler/http"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/internal/repository/postgres"
	"github.com/darkcaptain12/zensticker-ecommerce-sub001/internal/service"
)

// App wires together all dependencies and runs the campaign service.
type App struct {
	cfg             *config.Config
	logger          *slog.Logger
	pool            *pgxpool.Pool
	redisClient     *redis.Client
	producer        *pkgkafka.Producer
	httpServer      *http.Server
	tracingShutdown func(context.Context) error
}

// NewApp creates the application, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tracingShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "campaign-service",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	pgCfg := database.DefaultPostgresConfig()
	pgCfg.Host = cfg.PostgresHost
	pgCfg.Port = cfg.PostgresPort
	pgCfg.User = cfg.PostgresUser
	pgCfg.Password = cfg.PostgresPass
	pgCfg.DBName = cfg.PostgresDB
	pgCfg.SSLMode = cfg.PostgresSSL

	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)

	if err := database.RunMigrations(ctx, pool, postgres.Migrations, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := database.NewRedisClient(ctx, database.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("addr", cfg.RedisAddr))

	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	prometheus.MustRegister(database.NewPoolStatsCollector(pool, "campaign"))

	// Build the dependency graph.
	campaignRepo := postgres.NewCampaignRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	eventProducer := event.NewProducer(producer, logger)
	campaignCache := cache.NewCampaignCache(redisClient,
		time.Duration(cfg.CampaignCacheTTLSeconds)*time.Second, logger)

	campaignService := service.NewCampaignService(campaignRepo, eventProducer, campaignCache, logger)
	matcherService := service.NewMatcherService(campaignRepo, campaignCache, eventProducer, logger)
	pricingService := service.NewPricingService(campaignRepo, productRepo, campaignCache, logger)

	stateBackend := stateBackendFactory(cfg, redisClient)

	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	corsCfg.Environment = cfg.Environment

	router := handler.NewRouter(handler.RouterConfig{
		Campaigns:     campaignService,
		Matcher:       matcherService,
		Pricing:       pricingService,
		StateBackend:  stateBackend,
		PopupTTL:      time.Duration(cfg.PopupTTLHours) * time.Hour,
		HealthHandler: healthHandler,
		CORS:          corsCfg,
		Logger:        logger,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:             cfg,
		logger:          logger,
		pool:            pool,
		redisClient:     redisClient,
		producer:        producer,
		httpServer:      httpServer,
		tracingShutdown: tracingShutdown,
	}, nil
}

// stateBackendFactory selects where the popup-shown flag is persisted.
// The Redis variant keys records by the visitor cookie so the flag
// survives a cleared cookie jar on the same visitor id.
func stateBackendFactory(cfg *config.Config, redisClient *redis.Client) handler.StateBackendFactory {
	if cfg.PopupStateBackend == "redis" {
		redisBackend := clientstate.NewRedisBackend(redisClient)
		return func(http.ResponseWriter, *http.Request) clientstate.Backend {
			return redisBackend
		}
	}

	return func(w http.ResponseWriter, r *http.Request) clientstate.Backend {
		return clientstate.NewCookieBackend(w, r)
	}
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

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	if err := a.redisClient.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	a.pool.Close()

	if err := a.tracingShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracing shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
