package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"guesthouse/roomsync/internal/common"
	"guesthouse/roomsync/internal/logging"
	"guesthouse/roomsync/internal/services"

	"github.com/google/uuid"
)

// Dispatcher pushes one queue entry. Implemented by services.DispatcherService.
type Dispatcher interface {
	Dispatch(ctx context.Context, entryID string) (*services.DispatchResult, error)
}

// staleClaimer is implemented by queues that can hand over messages a dead
// consumer never acknowledged.
type staleClaimer interface {
	ClaimStale(ctx context.Context, consumer string, minIdle time.Duration) ([]*common.DispatchTask, []string, error)
}

// DispatchWorker drains the dispatch queue with a fixed number of goroutines.
type DispatchWorker struct {
	workerID   string
	queue      common.DispatchQueue
	dispatcher Dispatcher
	block      time.Duration
	staleAfter time.Duration
}

func NewDispatchWorker(queue common.DispatchQueue, dispatcher Dispatcher) *DispatchWorker {
	return &DispatchWorker{
		workerID:   "dispatch-" + uuid.NewString()[:8],
		queue:      queue,
		dispatcher: dispatcher,
		block:      5 * time.Second,
		staleAfter: 5 * time.Minute,
	}
}

// Start runs numWorkers consumers and blocks until ctx is cancelled and every
// in-flight dispatch has finished.
func (w *DispatchWorker) Start(ctx context.Context, numWorkers int) {
	if numWorkers < 1 {
		numWorkers = 1
	}
	logging.Info("Starting dispatch workers", "workers", numWorkers, "worker_id", w.workerID)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		name := fmt.Sprintf("%s-%d", w.workerID, i)
		go func() {
			defer wg.Done()
			w.processQueue(ctx, name)
		}()
	}

	if claimer, ok := w.queue.(staleClaimer); ok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.claimStaleMessages(ctx, claimer)
		}()
	}

	wg.Wait()
	logging.Info("All dispatch workers stopped", "worker_id", w.workerID)
}

func (w *DispatchWorker) processQueue(ctx context.Context, name string) {
	log := logging.With("dispatch_worker", "consumer", name)
	processed, failed := 0, 0

	for {
		if ctx.Err() != nil {
			log.Infow("Shutting down", "processed", processed, "errors", failed)
			return
		}

		task, msgID, err := w.queue.Dequeue(ctx, name, w.block)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, common.ErrQueueClosed) {
				log.Infow("Shutting down", "processed", processed, "errors", failed)
				return
			}
			log.Errorw("Error dequeuing", "error", err)
			sleepCtx(ctx, time.Second)
			continue
		}
		if task == nil {
			continue
		}

		if w.handle(ctx, task) {
			processed++
		} else {
			failed++
		}

		// Acked either way: the entry row, not the message, drives retries.
		if err := w.queue.Ack(context.WithoutCancel(ctx), msgID); err != nil {
			log.Warnw("Error acknowledging message", "message_id", msgID, "error", err)
		}
	}
}

// handle dispatches a task and reports whether the call itself succeeded.
func (w *DispatchWorker) handle(ctx context.Context, task *common.DispatchTask) bool {
	res, err := w.dispatcher.Dispatch(ctx, task.QueueEntryID)
	switch {
	case err == nil:
		logging.Debug("Dispatched entry",
			"queue_entry_id", task.QueueEntryID,
			"status", res.Status,
			"skipped", res.Skipped)
		return true
	case errors.Is(err, services.ErrEntryNotPending),
		errors.Is(err, services.ErrEntryNotFound),
		errors.Is(err, services.ErrEntryNotDue):
		// Duplicate delivery or an entry already handled by the sweep.
		logging.Debug("Dropping dispatch task", "queue_entry_id", task.QueueEntryID, "reason", err.Error())
		return true
	default:
		logging.Error("Dispatch failed", "queue_entry_id", task.QueueEntryID, "error", err)
		return false
	}
}

func (w *DispatchWorker) claimStaleMessages(ctx context.Context, claimer staleClaimer) {
	ticker := time.NewTicker(w.staleAfter)
	defer ticker.Stop()

	consumer := w.workerID + "-reclaimer"
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tasks, ids, err := claimer.ClaimStale(ctx, consumer, w.staleAfter)
			if err != nil {
				logging.Warn("Failed to claim stale dispatch messages", "error", err)
				continue
			}
			if len(tasks) > 0 {
				logging.Info("Reclaimed stale dispatch messages", "count", len(tasks))
			}
			for i, task := range tasks {
				w.handle(ctx, task)
				_ = w.queue.Ack(context.WithoutCancel(ctx), ids[i])
			}
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
