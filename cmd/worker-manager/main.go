package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"storefront-workers/internal/cache"
	"storefront-workers/internal/common/camunda"
	"storefront-workers/internal/common/config"
	"storefront-workers/internal/common/database"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/common/observability"
	"storefront-workers/internal/handler"
	"storefront-workers/internal/middleware"
	"storefront-workers/internal/printful"
	"storefront-workers/internal/shipping"
	"storefront-workers/internal/variant"

	qs "storefront-workers/internal/workers/checkout/quote-shipping"
	rov "storefront-workers/internal/workers/fulfillment/resolve-order-variants"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format).With(
		zap.String("service", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
	)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("catalogBackend", cfg.Catalog.Backend),
		zap.String("cacheBackend", cfg.Shipping.CacheBackend),
		zap.Bool("camundaEnabled", cfg.Camunda.Enabled),
		zap.Bool("printfulConfigured", cfg.Printful.Token != ""),
	)

	obs := observability.New(observability.Options{
		ServiceName:    cfg.App.Name,
		JaegerEndpoint: cfg.Tracing.JaegerEndpoint,
		Logger:         zapLog,
	})
	defer obs.Shutdown()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	checks := map[string]handler.Check{}

	// --- Catalog ---
	var pg *database.PostgresClient
	var es *database.ElasticsearchClient
	switch cfg.Catalog.Backend {
	case config.CatalogBackendElasticsearch:
		err = retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		checks["elasticsearch"] = es.Ping
		zapLog.Info("Elasticsearch connected successfully")
	default:
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		checks["postgres"] = pg.Ping
		zapLog.Info("PostgreSQL connected successfully")
	}
	cat := buildCatalog(cfg, pg, es)

	aliases, err := loadAliases(cfg.Catalog.AliasFile)
	if err != nil {
		zapLog.Fatal("alias file invalid", zap.String("path", cfg.Catalog.AliasFile), zap.Error(err))
	}
	resolver := variant.NewResolver(
		variant.NewRouter(cat, routeTable(cfg.Catalog.ProductRoutes)),
		variant.NewMatcher(aliases),
		log,
	)
	zapLog.Info("Variant resolver ready", zap.Int("aliasTokens", aliases.Len()))

	// --- Shipping quote cache ---
	var quoteCache cache.Store[shipping.QuoteResponse]
	switch cfg.Shipping.CacheBackend {
	case config.CacheBackendRedis:
		var rc *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			rc, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rc.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rc.Close()
		checks["redis"] = rc.Ping
		quoteCache = cache.NewRedisStore[shipping.QuoteResponse](rc.Client, rc.Prefix+"quotes:", log)
		zapLog.Info("Redis connected successfully")
	default:
		quoteCache = cache.NewMemoryStore[shipping.QuoteResponse]()
	}

	// --- Shipping gateway ---
	pf := printful.NewClient(printful.Config{
		BaseURL:            cfg.Printful.BaseURL,
		Token:              cfg.Printful.Token,
		StoreID:            cfg.Printful.StoreID,
		UserAgent:          cfg.Printful.UserAgent,
		Timeout:            config.GetDuration(cfg.Printful.Timeout),
		RateLimitPerMinute: cfg.Printful.RateLimitPerMinute,
	})
	if !pf.Configured() {
		zapLog.Warn("Printful token not configured, every quote will use the fallback table")
	}
	gateway := shipping.NewGateway(
		pf,
		quoteCache,
		fallbackTable(cfg.Shipping.FallbackRates),
		shipping.NewVariantTranslator(cfg.Shipping.VariantMappings),
		shipping.GatewayConfig{
			TTL:             config.GetSeconds(cfg.Shipping.TTLSeconds),
			FallbackTTL:     config.GetSeconds(cfg.Shipping.FallbackTTLSeconds),
			UpstreamTimeout: config.GetDuration(cfg.Printful.Timeout),
		},
		log,
	)

	// --- Operator alerts ---
	notifier, err := buildNotifier(ctx, cfg.Notifications, log)
	if err != nil {
		zapLog.Warn("Operator alerts disabled", zap.Error(err))
	}

	// --- Workers ---
	var workers []*camunda.Worker
	if cfg.Camunda.Enabled {
		var zc *camunda.Client
		err = retryWithBackoff(func() error {
			var err error
			zc, err = camunda.Connect(ctx, &camunda.ClientConfig{
				GatewayAddress:         cfg.Camunda.BrokerAddress,
				UsePlaintextConnection: true,
				ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
			})
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		defer zc.Close()
		checks["zeebe"] = zc.HealthCheck
		zapLog.Info("Zeebe client connected successfully")

		if config.IsWorkerEnabled(cfg, rov.TaskType) {
			wcfg := config.GetWorkerConfig(cfg, rov.TaskType)
			h := rov.NewHandler(&rov.Config{
				Timeout:     config.GetDuration(wcfg.Timeout),
				Concurrency: wcfg.Concurrency,
			}, resolver, notifier, log)
			workers = append(workers, camunda.StartWorker(zc.Zeebe(), rov.TaskType, workerOptions(wcfg), h.Handle, obs, zapLog))
		}

		if config.IsWorkerEnabled(cfg, qs.TaskType) {
			wcfg := config.GetWorkerConfig(cfg, qs.TaskType)
			h := qs.NewHandler(&qs.Config{Timeout: config.GetDuration(wcfg.Timeout)}, gateway, log)
			workers = append(workers, camunda.StartWorker(zc.Zeebe(), qs.TaskType, workerOptions(wcfg), h.Handle, obs, zapLog))
		}
		zapLog.Info("Workers registered", zap.Int("count", len(workers)))
	}

	// --- HTTP: quotes, health, metrics ---
	health := handler.NewHealthHandler(checks)
	mux := http.NewServeMux()
	mux.Handle("/shipping-quotes", handler.NewShippingHandler(
		gateway,
		cfg.Server.AllowedOrigins,
		config.GetDuration(cfg.Printful.Timeout)+2*time.Second,
		log,
	))
	mux.HandleFunc("/health", health.Health)
	mux.HandleFunc("/ready", health.Ready)
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      middleware.Chain(mux, middleware.Logging(log), middleware.Recover(log)),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigCh:
		zapLog.Info("Shutdown signal received, stopping workers...")
	case <-ctx.Done():
		zapLog.Info("Server stopped, shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}
	for _, w := range workers {
		w.Stop()
	}
	stop()

	zapLog.Info("Worker manager stopped gracefully")
}
