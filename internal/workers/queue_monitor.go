package workers

import (
	"context"
	"time"

	"guesthouse/roomsync/internal/clock"
	"guesthouse/roomsync/internal/common"
	"guesthouse/roomsync/internal/constants"
	"guesthouse/roomsync/internal/db/repositories"
	"guesthouse/roomsync/internal/logging"
	"guesthouse/roomsync/internal/metrics"
)

// QueueStats is one snapshot of sync queue health.
type QueueStats struct {
	ByStatus        map[string]int64 `json:"by_status"`
	DispatchBacklog int64            `json:"dispatch_backlog"`
	StaleProcessing int64            `json:"stale_processing"`
	CheckedAt       time.Time        `json:"checked_at"`
}

// maxStreamLength caps the Redis stream. Trimmed tasks are not lost: their
// entries stay pending and the retry sweep re-enqueues them.
const maxStreamLength = 100000

type streamTrimmer interface {
	Trim(ctx context.Context, maxLen int64) error
}

// QueueMonitor publishes queue gauges and warns about entries stuck in
// processing.
type QueueMonitor struct {
	entries    *repositories.SyncQueueRepo
	queue      common.DispatchQueue
	metrics    *metrics.MetricsRegistry
	clock      clock.Clock
	staleAfter time.Duration
}

func NewQueueMonitor(
	entries *repositories.SyncQueueRepo,
	queue common.DispatchQueue,
	m *metrics.MetricsRegistry,
	clk clock.Clock,
	staleAfter time.Duration,
) *QueueMonitor {
	if clk == nil {
		clk = clock.Real()
	}
	return &QueueMonitor{
		entries:    entries,
		queue:      queue,
		metrics:    m,
		clock:      clk,
		staleAfter: staleAfter,
	}
}

// Start checks immediately and then every interval until ctx is cancelled.
func (m *QueueMonitor) Start(ctx context.Context, interval time.Duration) {
	logging.Info("Starting queue monitor", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if _, err := m.Check(ctx); err != nil {
		logging.Warn("Queue check failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			logging.Info("Queue monitor shutting down")
			return
		case <-ticker.C:
			if _, err := m.Check(ctx); err != nil {
				logging.Warn("Queue check failed", "error", err)
			}
		}
	}
}

func (m *QueueMonitor) Check(ctx context.Context) (*QueueStats, error) {
	counts, err := m.entries.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	stale, err := m.entries.CountStaleProcessing(ctx, m.clock.Now().Add(-m.staleAfter))
	if err != nil {
		return nil, err
	}

	var backlog int64
	if m.queue != nil {
		backlog, err = m.queue.Length(ctx)
		if err != nil {
			// Consumer group may not exist yet.
			logging.Debug("Could not read dispatch backlog", "error", err)
			backlog = 0
		}
	}

	m.metrics.SetQueueEntries(counts)
	m.metrics.SetDispatchQueueLength(backlog)
	m.metrics.SetStaleProcessing(stale)

	if t, ok := m.queue.(streamTrimmer); ok {
		if err := t.Trim(ctx, maxStreamLength); err != nil {
			logging.Debug("Could not trim dispatch stream", "error", err)
		}
	}

	if stale > 0 {
		logging.Warn("Sync entries stuck in processing",
			"count", stale,
			"older_than", m.staleAfter.String())
	}
	logging.Debug("Queue health",
		constants.SyncStatusPending, counts[constants.SyncStatusPending],
		constants.SyncStatusProcessing, counts[constants.SyncStatusProcessing],
		constants.SyncStatusFailed, counts[constants.SyncStatusFailed],
		"backlog", backlog)

	return &QueueStats{
		ByStatus:        counts,
		DispatchBacklog: backlog,
		StaleProcessing: stale,
		CheckedAt:       m.clock.Now(),
	}, nil
}
