package routes

import (
	"net/http"
	"time"

	"guesthouse/roomsync/internal/api"
	"guesthouse/roomsync/internal/auth"
	"guesthouse/roomsync/internal/logging"
	"guesthouse/roomsync/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// RouterOptions carries what the router needs beyond the handler dependencies.
type RouterOptions struct {
	UpSince     time.Time
	DB          *sqlx.DB
	Redis       *redis.Client
	Tokens      *auth.TokenManager
	RateLimiter *middleware.IPRateLimiter
	CORSOrigins []string
	Gatherer    prometheus.Gatherer
}

func RegisterRoutes(deps *api.Dependencies, opts RouterOptions) http.Handler {

	// initialize Chi router
	r := chi.NewRouter()

	// global middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.MetricsMiddleware(deps.Metrics))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Get("/healthCheck", api.HealthCheckHandler(opts.DB, opts.Redis, opts.UpSince))

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	RegisterAPIRoutes(r, deps, opts)

	logging.Info("Router initialized", "cors_origins", opts.CORSOrigins)
	return r
}
