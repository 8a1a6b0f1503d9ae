package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/blessedux/CasaGreda/internal/cart"
	"github.com/blessedux/CasaGreda/internal/catalog"
	"github.com/blessedux/CasaGreda/internal/checkout"
	"github.com/blessedux/CasaGreda/internal/config"
	"github.com/blessedux/CasaGreda/internal/events"
	"github.com/blessedux/CasaGreda/internal/health"
	"github.com/blessedux/CasaGreda/internal/lock"
	"github.com/blessedux/CasaGreda/internal/obs"
	"github.com/blessedux/CasaGreda/internal/resilience"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("env", cfg.AppEnv).Logger()
	zerolog.DefaultContextLogger = &logger

	var httpMetrics *obs.HTTPMetrics
	if cfg.Obs.MetricsEnabled {
		obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, nil)
		httpMetrics = obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, obs.ParseBucketsCSV(cfg.Obs.MetricsBucketsMS), nil)
	}

	tracingEnabled := cfg.Obs.TracingEnabled
	if tracingEnabled {
		shutdown, err := obs.StartTracing(context.Background(), obs.Tracing{
			Exporter:    cfg.Obs.TracingExporter,
			Endpoint:    cfg.Obs.OTLPEndpoint,
			Sampling:    cfg.Obs.TracingSampling,
			Environment: cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	probes := map[string]health.Probe{}

	var redisClient *redis.Client
	if cfg.UseRedis() {
		redisClient = mustInitRedis(ctx, cfg, logger)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
		probes["redis"] = health.RedisProbe(redisClient)
	}

	var source catalog.Source
	switch cfg.CatalogSource {
	case config.CatalogPostgres:
		pool := mustInitPostgres(ctx, cfg, logger)
		defer pool.Close()
		probes["postgres"] = health.PostgresProbe(pool)
		source = &catalog.PGSource{Pool: pool}
		if cfg.CatalogFallback {
			source = catalog.FallbackSource{
				Primary:  source,
				Fallback: mustStaticCatalog(logger),
				Breaker:  resilience.NewBreaker(5, 0.5, cfg.CatalogBreakerOpenFor).WithTarget("catalog").WithLogger(logger),
			}
		}
	default:
		source = mustStaticCatalog(logger)
	}
	if redisClient != nil && cfg.CatalogCacheTTL > 0 {
		source = catalog.CachedSource{Source: source, Cache: catalog.NewCache(redisClient, cfg.CatalogCacheTTL)}
	}
	catalogService, err := catalog.NewService(catalog.ServiceConfig{Source: source})
	if err != nil {
		logger.Fatal().Err(err).Msg("init catalog service")
	}

	carts := &cart.Service{Store: cartStore(cfg, redisClient)}
	if cfg.CartLockEnabled && redisClient != nil {
		carts.Locker = lock.Locker{R: redisClient, Prefix: "lock:cart:", MaxWait: cfg.CartLockTTL}
		carts.LockTTL = cfg.CartLockTTL
	}

	bus := &events.Bus{Publishers: []events.Publisher{events.LogPublisher{}}}
	if redisClient != nil {
		taskClient := asynq.NewClient(asynqOpt(redisClient))
		defer func() {
			if err := taskClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close task client")
			}
		}()
		bus.Publishers = append(bus.Publishers, events.AsynqPublisher{Client: taskClient, Queue: cfg.AsynqQueue, MaxRetry: 10})
	}

	handler := newRouter(cfg, deps{
		Logger:      logger,
		Redis:       redisClient,
		Catalog:     catalogService,
		Carts:       carts,
		Sessions:    cartSessions(cfg),
		Checkout:    &checkout.Service{Carts: carts, Events: bus, Delay: cfg.CheckoutMockDelay},
		Health:      health.Handler{Probes: probes, Timeout: cfg.HealthTimeout},
		HTTPMetrics: httpMetrics,
		Gatherer:    prometheus.DefaultGatherer,
		Tracing:     tracingEnabled,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return logger.WithContext(context.Background()) },
	}

	health.SetReady(true)
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("cart_store", cfg.CartStore).Str("catalog", cfg.CatalogSource).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	case <-ctx.Done():
	}

	health.SetReady(false)
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
	logger.Info().Msg("server stopped")
}

func mustInitRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *redis.Client {
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	client := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if cfg.Obs.MetricsEnabled {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return client
}

func mustInitPostgres(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *pgxpool.Pool {
	if cfg.CatalogMigrate {
		if err := catalog.Migrate(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("migrate catalog schema")
		}
	}
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{Component: "catalog"}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "casa-greda-api"

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	if err := pool.Ping(connectCtx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}
	return pool
}

// asynqOpt reuses the parsed go-redis options for the task client.
func asynqOpt(client *redis.Client) asynq.RedisClientOpt {
	opts := client.Options()
	return asynq.RedisClientOpt{
		Network:   opts.Network,
		Addr:      opts.Addr,
		Username:  opts.Username,
		Password:  opts.Password,
		DB:        opts.DB,
		TLSConfig: opts.TLSConfig,
	}
}

func mustStaticCatalog(logger zerolog.Logger) *catalog.StaticSource {
	seed, err := catalog.DefaultSeed()
	if err != nil {
		logger.Fatal().Err(err).Msg("load catalog seed")
	}
	return catalog.NewStaticSource(seed)
}
