package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/voralis/envrisk/internal/adapters/http/api"
	"github.com/voralis/envrisk/internal/adapters/http/swagger"
	"github.com/voralis/envrisk/internal/adapters/mq/publish"
	"github.com/voralis/envrisk/internal/adapters/repository"
	"github.com/voralis/envrisk/internal/adapters/upstream"
	"github.com/voralis/envrisk/internal/adapters/upstream/openweather"
	"github.com/voralis/envrisk/internal/adapters/upstream/readingcache"
	"github.com/voralis/envrisk/internal/adapters/upstream/synth"
	service "github.com/voralis/envrisk/internal/app"
	"github.com/voralis/envrisk/internal/config"
	"github.com/voralis/envrisk/internal/domain/reading"
	"github.com/voralis/envrisk/pkg/logger"
	"github.com/voralis/envrisk/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	systemMetricsInterval  = 10 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	fetcher, err := buildFetcher(ctx, cfg, log)
	if err != nil {
		os.Stderr.WriteString("failed to build fetcher: " + err.Error() + "\n")
		return
	}

	stores, cleanup, err := buildStores(ctx, cfg, log)
	if err != nil {
		os.Stderr.WriteString("failed to open storage: " + err.Error() + "\n")
		return
	}
	defer cleanup()

	opts := []service.Option{
		service.WithConfig(cfg),
		service.WithLogger(log),
		service.WithFetcher(fetcher),
		service.WithReportStore(stores.reports),
		service.WithProfileStore(stores.profiles),
		service.WithSnapshotStore(stores.snapshots),
	}
	if cfg.Analytics.Kafka.Enabled {
		pub := publish.NewKafkaPublisher(cfg.Analytics.Kafka.Brokers, cfg.Analytics.Kafka.Topic)
		opts = append(opts, service.WithPublisher(pub))
		log.Info(ctx, "kafka publisher enabled",
			logger.Any("brokers", cfg.Analytics.Kafka.Brokers),
			logger.String("topic", cfg.Analytics.Kafka.Topic))
	}

	svc := service.New(opts...)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	// HTTP mux and routes.
	mux := http.NewServeMux()

	// API documentation routes.
	swagger.Register(ctx, mux)

	// Business API routes with the service dependency.
	apiServer := api.NewServer(svc)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// buildFetcher assembles the upstream layer: live OpenWeather providers
// when an API key is configured, synthetic readings otherwise, with the
// optional Redis read-through cache in front of the live providers.
func buildFetcher(ctx context.Context, cfg *config.Config, log logger.Logger) (*upstream.Fetcher, error) {
	fallback := synth.New()

	opts := []upstream.Option{}
	if cfg.Upstream.TimeoutMS > 0 {
		opts = append(opts, upstream.WithTimeout(time.Duration(cfg.Upstream.TimeoutMS)*time.Millisecond))
	}

	var cache *readingcache.Cache
	if cfg.Cache.Enabled {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
		cacheOpts := []readingcache.Option{}
		if cfg.Cache.TTLMS > 0 {
			cacheOpts = append(cacheOpts, readingcache.WithTTL(time.Duration(cfg.Cache.TTLMS)*time.Millisecond))
		}
		cache = readingcache.New(rdb, cacheOpts...)
		log.Info(ctx, "reading cache enabled", logger.String("redis_addr", cfg.Cache.RedisAddr))
	}

	if cfg.Upstream.OpenWeather.APIKey != "" {
		ow, err := openweather.New(cfg.Upstream.OpenWeather.BaseURL, cfg.Upstream.OpenWeather.APIKey)
		if err != nil {
			return nil, err
		}
		if cache != nil {
			opts = append(opts, upstream.WithAir(cache.Air(ow), reading.SourceLive))
		} else {
			opts = append(opts, upstream.WithAir(ow, reading.SourceLive))
		}
		if cfg.Upstream.Weather.Enabled {
			if cache != nil {
				opts = append(opts, upstream.WithWeather(cache.Weather(ow), reading.SourceLive))
			} else {
				opts = append(opts, upstream.WithWeather(ow, reading.SourceLive))
			}
		}
		log.Info(ctx, "openweather providers enabled")
	} else {
		if cfg.Upstream.Weather.Enabled {
			opts = append(opts, upstream.WithWeather(fallback, reading.SourceMock))
		}
		log.Info(ctx, "no openweather api key; serving synthetic readings")
	}

	// Soil and water have no live upstream; the synthetic provider is
	// authoritative when the domain is enabled.
	if cfg.Upstream.Soil.Enabled {
		opts = append(opts, upstream.WithSoil(fallback, reading.SourceMock))
	}
	if cfg.Upstream.Water.Enabled {
		opts = append(opts, upstream.WithWater(fallback, reading.SourceMock))
	}

	return upstream.NewFetcher(fallback, opts...), nil
}

type storeSet struct {
	reports   repository.ReportStore
	profiles  repository.ProfileStore
	snapshots repository.SnapshotStore
}

// buildStores selects the persistence backend from configuration.
func buildStores(ctx context.Context, cfg *config.Config, log logger.Logger) (storeSet, func(), error) {
	if cfg.Storage.Driver != "postgres" {
		mem := repository.NewMemoryStore()
		log.Info(ctx, "using in-memory storage")
		return storeSet{reports: mem, profiles: mem, snapshots: mem}, func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.Storage.Postgres.DSN)
	if err != nil {
		return storeSet{}, nil, err
	}
	db.SetMaxOpenConns(cfg.Storage.Postgres.MaxOpen)
	db.SetMaxIdleConns(cfg.Storage.Postgres.MaxIdle)
	if cfg.Storage.Postgres.ConnMaxLifetimeMS > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.Storage.Postgres.ConnMaxLifetimeMS) * time.Millisecond)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return storeSet{}, nil, err
	}

	pg := repository.NewPostgresStore(db)
	if err := pg.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return storeSet{}, nil, err
	}
	log.Info(ctx, "using postgres storage")
	cleanup := func() { _ = db.Close() }
	return storeSet{reports: pg, profiles: pg, snapshots: pg}, cleanup, nil
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that refreshes
// the service gauges between requests.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Stats refreshes the queue, worker and uptime gauges.
			_ = svc.Stats(ctx)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
