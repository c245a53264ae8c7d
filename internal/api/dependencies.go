package api

import (
	"errors"
	"net/http"

	"guesthouse/roomsync/internal/clock"
	"guesthouse/roomsync/internal/common"
	"guesthouse/roomsync/internal/config"
	"guesthouse/roomsync/internal/db/repositories"
	"guesthouse/roomsync/internal/jobs"
	"guesthouse/roomsync/internal/metrics"
	"guesthouse/roomsync/internal/providers"
	"guesthouse/roomsync/internal/services"

	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

// Infrastructure is everything InitDependencies needs from main.
type Infrastructure struct {
	Config     config.Config
	ORM        *gorm.DB
	SQL        *sqlx.DB
	Cache      common.CacheInterface
	Queue      common.DispatchQueue
	Secrets    common.SecretStore
	HTTPClient *http.Client
	Metrics    *metrics.MetricsRegistry
	Clock      clock.Clock
}

type Repositories struct {
	RoomTypes *repositories.RoomTypeRepo
	Bookings  *repositories.BookingRepo
	Blackouts *repositories.BlackoutRepo
	Channels  *repositories.ChannelManagerRepo
	Entries   *repositories.SyncQueueRepo
	Logs      *repositories.SyncLogRepo
	Reports   *repositories.SyncReportRepo
}

type Services struct {
	Availability *services.AvailabilityService
	Orchestrator *services.SyncOrchestrator
	Dispatcher   *services.DispatcherService
	Events       *services.InventoryEventService
	Query        *services.SyncQueryService
}

type Dependencies struct {
	Repo     *Repositories
	Services *Services
	Jobs     *jobs.Jobs
	Queue    common.DispatchQueue
	Metrics  *metrics.MetricsRegistry
	Clock    clock.Clock
}

func InitDependencies(infra Infrastructure) (*Dependencies, error) {
	if infra.ORM == nil || infra.SQL == nil {
		return nil, errors.New("database handles are required")
	}
	if infra.Queue == nil {
		return nil, errors.New("dispatch queue is required")
	}
	if infra.Clock == nil {
		infra.Clock = clock.Real()
	}
	if infra.Secrets == nil {
		infra.Secrets = common.NewEnvSecretStore(infra.Config.ChannelSecretPrefix)
	}
	if infra.HTTPClient == nil {
		infra.HTTPClient = &http.Client{Timeout: infra.Config.PushTimeout}
	}
	cfg := infra.Config

	repos := &Repositories{
		RoomTypes: repositories.NewRoomTypeRepo(infra.ORM),
		Bookings:  repositories.NewBookingRepo(infra.ORM),
		Blackouts: repositories.NewBlackoutRepo(infra.ORM),
		Channels:  repositories.NewChannelManagerRepo(infra.ORM),
		Entries:   repositories.NewSyncQueueRepo(infra.ORM),
		Logs:      repositories.NewSyncLogRepo(infra.ORM),
		Reports:   repositories.NewSyncReportRepo(infra.SQL),
	}

	userAgent := "roomsync/" + cfg.AppVersion
	registry := providers.NewRegistry(
		providers.NewAPIPusher(infra.HTTPClient, userAgent),
		providers.NewWebhookPusher(infra.HTTPClient, userAgent),
	)
	limiter := providers.NewChannelLimiter(cfg.ChannelRatePerSec, cfg.ChannelRateBurst)

	availability := services.NewAvailabilityService(repos.RoomTypes, repos.Bookings, repos.Blackouts,
		infra.Cache, cfg.SnapshotTTL, infra.Metrics)
	orchestrator := services.NewSyncOrchestrator(availability, repos.Channels, repos.Entries,
		infra.Queue, infra.Clock, infra.Metrics)

	svc := &Services{
		Availability: availability,
		Orchestrator: orchestrator,
		Dispatcher: services.NewDispatcherService(repos.Entries, repos.Channels, repos.RoomTypes, repos.Logs,
			registry, infra.Secrets, limiter, infra.Clock, infra.Metrics, cfg.PropertyID),
		Events: services.NewInventoryEventService(repos.RoomTypes, repos.Blackouts, repos.Bookings, orchestrator),
		Query:  services.NewSyncQueryService(repos.Entries, repos.Logs, repos.Channels, repos.Reports),
	}

	bgJobs := &jobs.Jobs{
		RetrySweep: jobs.NewRetrySweepJob(repos.Entries, infra.Queue, infra.Clock, infra.Metrics,
			cfg.RetrySweepGrace),
		ScheduledSync: jobs.NewScheduledSyncJob(repos.RoomTypes, orchestrator, infra.Clock, infra.Metrics,
			cfg.ScheduledSyncHorizonDays, cfg.ScheduledSyncConcurrency),
	}

	return &Dependencies{
		Repo:     repos,
		Services: svc,
		Jobs:     bgJobs,
		Queue:    infra.Queue,
		Metrics:  infra.Metrics,
		Clock:    infra.Clock,
	}, nil
}
