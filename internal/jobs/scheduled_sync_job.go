package jobs

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"guesthouse/roomsync/internal/clock"
	"guesthouse/roomsync/internal/constants"
	"guesthouse/roomsync/internal/db/repositories"
	"guesthouse/roomsync/internal/inventory"
	"guesthouse/roomsync/internal/logging"
	"guesthouse/roomsync/internal/metrics"
	"guesthouse/roomsync/internal/services"

	"golang.org/x/sync/errgroup"
)

// ScheduledSyncResult summarises one full-sync pass.
type ScheduledSyncResult struct {
	RoomTypes int   `json:"room_types"`
	Entries   int64 `json:"entries"`
	Failed    int64 `json:"failed"`
}

// ScheduledSyncJob re-pushes the rolling availability horizon of every room
// type so channels converge even if an event-driven sync was missed.
type ScheduledSyncJob struct {
	rooms        *repositories.RoomTypeRepo
	orchestrator *services.SyncOrchestrator
	clock        clock.Clock
	metrics      *metrics.MetricsRegistry
	horizonDays  int
	concurrency  int
}

func NewScheduledSyncJob(
	rooms *repositories.RoomTypeRepo,
	orchestrator *services.SyncOrchestrator,
	clk clock.Clock,
	m *metrics.MetricsRegistry,
	horizonDays int,
	concurrency int,
) *ScheduledSyncJob {
	if clk == nil {
		clk = clock.Real()
	}
	if horizonDays <= 0 {
		horizonDays = 1
	}
	if horizonDays > services.MaxWindowDays {
		horizonDays = services.MaxWindowDays
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &ScheduledSyncJob{
		rooms:        rooms,
		orchestrator: orchestrator,
		clock:        clk,
		metrics:      m,
		horizonDays:  horizonDays,
		concurrency:  concurrency,
	}
}

// Run triggers a schedule sync for every room type over [today, today+horizon).
// A failing room type is logged and does not stop the others.
func (j *ScheduledSyncJob) Run(ctx context.Context) (*ScheduledSyncResult, error) {
	start := time.Now()
	defer func() { j.metrics.ObserveJob("scheduled_sync", time.Since(start).Seconds()) }()

	rooms, err := j.rooms.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list room types: %w", err)
	}

	from := inventory.Day(j.clock.Now())
	to := from.AddDate(0, 0, j.horizonDays)

	logging.Info("Starting scheduled sync",
		"room_types", len(rooms),
		"date_from", inventory.FormatDay(from),
		"date_to", inventory.FormatDay(to))

	var entries, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.concurrency)
	for _, room := range rooms {
		roomID := room.ID
		g.Go(func() error {
			summary, err := j.orchestrator.TriggerSync(gctx, services.TriggerRequest{
				RoomTypeID:  roomID,
				DateFrom:    from,
				DateTo:      to,
				TriggeredBy: constants.TriggeredBySchedule,
			})
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed.Add(1)
				logging.Warn("Scheduled sync failed for room type",
					"room_type_id", roomID,
					"error", err)
				return nil
			}
			entries.Add(int64(summary.Queued))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scheduled sync interrupted: %w", err)
	}

	res := &ScheduledSyncResult{
		RoomTypes: len(rooms),
		Entries:   entries.Load(),
		Failed:    failed.Load(),
	}
	logging.Info("Scheduled sync finished",
		"room_types", res.RoomTypes,
		"entries", res.Entries,
		"failed", res.Failed,
		"duration", time.Since(start).String())
	return res, nil
}

// RunScheduled runs the job immediately and then every interval.
func (j *ScheduledSyncJob) RunScheduled(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if _, err := j.Run(ctx); err != nil {
		logging.Error("Scheduled sync failed", "error", err)
	}

	for {
		select {
		case <-ticker.C:
			if _, err := j.Run(ctx); err != nil {
				logging.Error("Scheduled sync failed", "error", err)
			}
		case <-ctx.Done():
			logging.Info("Scheduled sync shutting down")
			return
		}
	}
}
