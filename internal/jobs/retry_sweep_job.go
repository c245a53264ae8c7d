package jobs

import (
	"context"
	"fmt"
	"time"

	"guesthouse/roomsync/internal/clock"
	"guesthouse/roomsync/internal/common"
	"guesthouse/roomsync/internal/db/repositories"
	"guesthouse/roomsync/internal/logging"
	"guesthouse/roomsync/internal/metrics"
)

const retrySweepBatch = 200

// RetrySweepJob hands due pending entries back to the dispatch queue. It
// covers both scheduled retries and entries whose first hand-off was lost.
type RetrySweepJob struct {
	entries *repositories.SyncQueueRepo
	queue   common.DispatchQueue
	clock   clock.Clock
	metrics *metrics.MetricsRegistry
	grace   time.Duration
	batch   int

	// staleAfter releases entries stuck in processing this long. Zero disables.
	staleAfter time.Duration
}

// NewRetrySweepJob creates a sweep. Fresh entries younger than grace are left
// to the hand-off that created them.
func NewRetrySweepJob(
	entries *repositories.SyncQueueRepo,
	queue common.DispatchQueue,
	clk clock.Clock,
	m *metrics.MetricsRegistry,
	grace time.Duration,
) *RetrySweepJob {
	if clk == nil {
		clk = clock.Real()
	}
	return &RetrySweepJob{
		entries: entries,
		queue:   queue,
		clock:   clk,
		metrics: m,
		grace:   grace,
		batch:   retrySweepBatch,

		staleAfter: 5 * time.Minute,
	}
}

// Run enqueues one dispatch task per due entry and returns how many were
// handed off.
func (j *RetrySweepJob) Run(ctx context.Context) (int, error) {
	start := time.Now()
	defer func() { j.metrics.ObserveJob("retry_sweep", time.Since(start).Seconds()) }()

	now := j.clock.Now()
	if j.staleAfter > 0 {
		released, err := j.entries.ReleaseStaleProcessing(ctx, now.Add(-j.staleAfter), now)
		if err != nil {
			return 0, err
		}
		if released.Retried+released.Failed > 0 {
			logging.Warn("Settled stale processing entries",
				"retried", released.Retried,
				"failed", released.Failed)
		}
	}

	due, err := j.entries.ListDue(ctx, now, j.grace, j.batch)
	if err != nil {
		return 0, fmt.Errorf("failed to list due entries: %w", err)
	}
	if len(due) == 0 {
		return 0, nil
	}

	enqueued := 0
	for _, e := range due {
		task := &common.DispatchTask{
			QueueEntryID:     e.ID,
			ChannelManagerID: e.ChannelManagerID,
			RoomTypeID:       e.RoomTypeID,
			EnqueuedAt:       j.clock.Now(),
		}
		if err := j.queue.Enqueue(ctx, task); err != nil {
			// Remaining entries stay due and are retried on the next tick.
			logging.Warn("Retry sweep could not enqueue entry",
				"entry_id", e.ID,
				"error", err)
			break
		}
		enqueued++
	}

	logging.Info("Retry sweep finished",
		"due", len(due),
		"enqueued", enqueued,
		"duration", time.Since(start).String())
	return enqueued, nil
}

// RunScheduled runs the sweep immediately and then every interval.
func (j *RetrySweepJob) RunScheduled(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if _, err := j.Run(ctx); err != nil {
		logging.Error("Retry sweep failed", "error", err)
	}

	for {
		select {
		case <-ticker.C:
			if _, err := j.Run(ctx); err != nil {
				logging.Error("Retry sweep failed", "error", err)
			}
		case <-ctx.Done():
			logging.Info("Retry sweep shutting down")
			return
		}
	}
}
