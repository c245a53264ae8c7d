package services

import (
	"context"
	"fmt"
	"time"

	"guesthouse/roomsync/internal/clock"
	"guesthouse/roomsync/internal/common"
	"guesthouse/roomsync/internal/constants"
	"guesthouse/roomsync/internal/db/repositories"
	"guesthouse/roomsync/internal/inventory"
	"guesthouse/roomsync/internal/logging"
	"guesthouse/roomsync/internal/metrics"
	"guesthouse/roomsync/internal/models"
	"guesthouse/roomsync/internal/models/gorm"
)

// TriggerRequest asks for availability of one room type over [DateFrom, DateTo)
// to be pushed to every active channel manager.
type TriggerRequest struct {
	RoomTypeID  string
	DateFrom    time.Time
	DateTo      time.Time
	TriggeredBy string
	BookingID   *string
}

// SyncRunSummary reports what one trigger computed and enqueued.
type SyncRunSummary struct {
	RoomTypeID   string         `json:"room_type_id"`
	RoomName     string         `json:"room_name"`
	DateFrom     string         `json:"date_from"`
	DateTo       string         `json:"date_to"`
	TriggeredBy  string         `json:"triggered_by"`
	Availability map[string]int `json:"availability"`
	Overbooked   []string       `json:"overbooked_dates,omitempty"`
	Unconfigured bool           `json:"unconfigured,omitempty"`
	EntryIDs     []string       `json:"entry_ids"`
	Queued       int            `json:"queued"`
	NoOp         bool           `json:"no_op"`
}

// SyncOrchestrator turns an inventory change into one pending queue entry per
// active channel manager. It never performs network I/O itself.
type SyncOrchestrator struct {
	availability *AvailabilityService
	channels     *repositories.ChannelManagerRepo
	queue        *repositories.SyncQueueRepo
	dispatch     common.DispatchQueue
	clock        clock.Clock
	metrics      *metrics.MetricsRegistry
}

func NewSyncOrchestrator(
	availability *AvailabilityService,
	channels *repositories.ChannelManagerRepo,
	queue *repositories.SyncQueueRepo,
	dispatch common.DispatchQueue,
	clk clock.Clock,
	m *metrics.MetricsRegistry,
) *SyncOrchestrator {
	if clk == nil {
		clk = clock.Real()
	}
	return &SyncOrchestrator{
		availability: availability,
		channels:     channels,
		queue:        queue,
		dispatch:     dispatch,
		clock:        clk,
		metrics:      m,
	}
}

// TriggerSync computes availability and enqueues it for every active channel.
// Repeated calls for the same window create new entries each time; the
// receiving side applies the latest one.
func (o *SyncOrchestrator) TriggerSync(ctx context.Context, req TriggerRequest) (*SyncRunSummary, error) {
	if !constants.ValidTriggeredBy(req.TriggeredBy) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTrigger, req.TriggeredBy)
	}
	from, to, err := ValidateWindow(req.DateFrom, req.DateTo)
	if err != nil {
		return nil, err
	}

	log := logging.With("sync_orchestrator",
		"room_type_id", req.RoomTypeID,
		"triggered_by", req.TriggeredBy)

	room, result, err := o.availability.Compute(ctx, req.RoomTypeID, from, to)
	if err != nil {
		o.metrics.RecordSyncRun(req.TriggeredBy, "error")
		return nil, err
	}
	o.availability.StoreSnapshot(ctx, room, from, to, result, o.clock.Now())

	snapshot := models.AvailabilityMap(result.ByDate())
	summary := &SyncRunSummary{
		RoomTypeID:   room.ID,
		RoomName:     room.Name,
		DateFrom:     inventory.FormatDay(from),
		DateTo:       inventory.FormatDay(to),
		TriggeredBy:  req.TriggeredBy,
		Availability: snapshot,
		Overbooked:   result.Overbooked,
		Unconfigured: result.Unconfigured,
		EntryIDs:     []string{},
	}

	channels, err := o.channels.ListActive(ctx)
	if err != nil {
		o.metrics.RecordSyncRun(req.TriggeredBy, "error")
		return nil, err
	}
	if len(channels) == 0 {
		log.Infow("No active channel managers, nothing to sync")
		summary.NoOp = true
		o.metrics.RecordSyncRun(req.TriggeredBy, "noop")
		return summary, nil
	}

	entries := make([]*gorm.SyncQueueEntry, 0, len(channels))
	for _, ch := range channels {
		entry := &gorm.SyncQueueEntry{
			ChannelManagerID: ch.ID,
			RoomTypeID:       room.ID,
			DateFrom:         from,
			DateTo:           to,
			AvailabilityData: snapshot.Clone(),
			Status:           constants.SyncStatusPending,
			TriggeredBy:      req.TriggeredBy,
			BookingID:        req.BookingID,
		}
		if err := o.queue.Create(ctx, entry); err != nil {
			o.metrics.RecordSyncRun(req.TriggeredBy, "error")
			return nil, fmt.Errorf("failed to enqueue sync for channel %s: %w", ch.Name, err)
		}
		entries = append(entries, entry)
		summary.EntryIDs = append(summary.EntryIDs, entry.ID)
	}

	// Hand-off is best effort. A lost task leaves its entry pending and the
	// retry sweep dispatches it after the grace period.
	for _, entry := range entries {
		if o.dispatch == nil {
			continue
		}
		task := &common.DispatchTask{
			QueueEntryID:     entry.ID,
			ChannelManagerID: entry.ChannelManagerID,
			RoomTypeID:       entry.RoomTypeID,
			EnqueuedAt:       o.clock.Now(),
		}
		if err := o.dispatch.Enqueue(ctx, task); err != nil {
			log.Warnw("Failed to hand off sync entry", "queue_entry_id", entry.ID, "error", err)
			continue
		}
		summary.Queued++
	}

	log.Infow("Sync triggered",
		"date_from", summary.DateFrom,
		"date_to", summary.DateTo,
		"entries", len(entries),
		"queued", summary.Queued)
	o.metrics.RecordSyncRun(req.TriggeredBy, "queued")
	return summary, nil
}
