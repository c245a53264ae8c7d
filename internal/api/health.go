package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"guesthouse/roomsync/internal/models/entities"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// HealthCheckHandler handles GET /healthCheck. A nil redis client means the
// service runs without Redis and it is not reported.
func HealthCheckHandler(db *sqlx.DB, rdb *redis.Client, upSince time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		services := make(map[string]entities.ServiceStatus)

		pgStatus := entities.ServiceStatus{Status: "ok", Details: "Postgres Connected"}
		if err := db.PingContext(ctx); err != nil {
			pgStatus = entities.ServiceStatus{Status: "down", Details: err.Error()}
		}
		services["postgres"] = pgStatus

		if rdb != nil {
			redisStatus := entities.ServiceStatus{Status: "ok", Details: "Redis Connected"}
			if err := rdb.Ping(ctx).Err(); err != nil {
				redisStatus = entities.ServiceStatus{Status: "down", Details: err.Error()}
			}
			services["redis"] = redisStatus
		}

		overallStatus := "ok"
		for _, svc := range services {
			if svc.Status != "ok" {
				overallStatus = "down"
				break
			}
		}

		resp := entities.HealthCheckResponse{
			Services: services,
			Status:   overallStatus,
			UpSince:  upSince,
			Uptime:   time.Since(upSince).Round(time.Second).String(),
		}

		w.Header().Set("Content-Type", "application/json")
		if overallStatus != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
