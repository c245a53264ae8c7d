package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"guesthouse/roomsync/internal/api"
	"guesthouse/roomsync/internal/auth"
	"guesthouse/roomsync/internal/clock"
	"guesthouse/roomsync/internal/common"
	"guesthouse/roomsync/internal/config"
	"guesthouse/roomsync/internal/constants"
	"guesthouse/roomsync/internal/db"
	"guesthouse/roomsync/internal/jobs"
	"guesthouse/roomsync/internal/logging"
	"guesthouse/roomsync/internal/metrics"
	"guesthouse/roomsync/internal/middleware"
	"guesthouse/roomsync/internal/routes"
	"guesthouse/roomsync/internal/workers"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := config.Load()

	if err := logging.Init(cfg.AppEnv); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logging.Close()

	logging.Info("roomsync starting up",
		"environment", cfg.AppEnv,
		"version", cfg.AppVersion,
		"queue_backend", cfg.QueueBackend,
	)

	if cfg.AdminJWTSecret == "" {
		logging.Fatal("ADMIN_JWT_SECRET must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqlDB, err := db.InitPostgres(cfg.PostgresDSN())
	if err != nil {
		logging.Fatal("Failed to connect to Postgres (sqlx)", "error", err)
	}
	defer sqlDB.Close()
	logging.Info("Connected to Postgres (sqlx)")

	gormDB, err := db.InitPostgresORM(cfg.PostgresDSN())
	if err != nil {
		logging.Fatal("Failed to connect to Postgres (GORM)", "error", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		logging.Fatal("Failed to migrate schema", "error", err)
	}
	logging.Info("Connected to Postgres (GORM)")

	var (
		redisClient *redis.Client
		queue       common.DispatchQueue
		cache       common.CacheInterface
	)
	switch cfg.QueueBackend {
	case config.QueueBackendMemory:
		mq := common.NewMemoryDispatchQueue(cfg.MemoryQueueSize)
		defer mq.Close()
		queue = mq
		cache = common.NewCacheService(cfg.SnapshotTTL, 10*time.Minute)
	default:
		redisClient = common.NewRedisClient(cfg)
		defer redisClient.Close()

		rq := common.NewRedisDispatchQueue(redisClient, constants.DispatchStream, constants.DispatchConsumerGroup)
		if err := rq.EnsureGroup(ctx); err != nil {
			logging.Fatal("Failed to create dispatch consumer group", "error", err)
		}
		queue = rq
		cache = common.NewRedisCacheService(redisClient)
	}

	metricsReg := metrics.NewMetricsRegistry(prometheus.DefaultRegisterer)
	clk := clock.Real()

	deps, err := api.InitDependencies(api.Infrastructure{
		Config:     cfg,
		ORM:        gormDB,
		SQL:        sqlDB,
		Cache:      cache,
		Queue:      queue,
		Secrets:    common.NewCachedSecretStore(common.NewEnvSecretStore(cfg.ChannelSecretPrefix), 5*time.Minute),
		HTTPClient: &http.Client{Timeout: cfg.PushTimeout},
		Metrics:    metricsReg,
		Clock:      clk,
	})
	if err != nil {
		logging.Fatal("Failed to initialize dependencies", "error", err)
	}

	// Background work gets its own context so HTTP can stop first and
	// in-flight pushes still finish.
	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	workersContainer := workers.InitWorkers(bgCtx, queue, deps.Services.Dispatcher, deps.Repo.Entries,
		metricsReg, clk, cfg.DispatchWorkers, 30*time.Second)
	jobs.InitializeJobs(bgCtx, deps.Jobs, cfg.RetrySweepInterval, cfg.ScheduledSyncInterval)

	router := routes.RegisterRoutes(deps, routes.RouterOptions{
		UpSince:     time.Now(),
		DB:          sqlDB,
		Redis:       redisClient,
		Tokens:      auth.NewTokenManager(cfg.AdminJWTSecret),
		RateLimiter: middleware.NewIPRateLimiter(cfg.HTTPRatePerSec, cfg.HTTPRateBurst, cfg.HTTPRateAllow),
		CORSOrigins: cfg.CORSOrigins,
		Gatherer:    prometheus.DefaultGatherer,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Info("Server starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("HTTP server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logging.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("HTTP server shutdown failed", "error", err)
	}

	bgCancel()
	done := make(chan struct{})
	go func() {
		workersContainer.Wait()
		close(done)
	}()
	select {
	case <-done:
		logging.Info("Dispatch workers drained")
	case <-shutdownCtx.Done():
		logging.Warn("Timed out waiting for dispatch workers")
	}

	logging.Info("roomsync stopped")
}
