package workers

import (
	"context"
	"sync"
	"time"

	"guesthouse/roomsync/internal/clock"
	"guesthouse/roomsync/internal/common"
	"guesthouse/roomsync/internal/db/repositories"
	"guesthouse/roomsync/internal/metrics"
)

type WorkersContainer struct {
	Dispatch *DispatchWorker
	Monitor  *QueueMonitor

	wg sync.WaitGroup
}

// InitWorkers starts the dispatch pool and the queue monitor. They stop when
// ctx is cancelled; Wait blocks until in-flight dispatches have finished.
func InitWorkers(
	ctx context.Context,
	queue common.DispatchQueue,
	dispatcher Dispatcher,
	entries *repositories.SyncQueueRepo,
	m *metrics.MetricsRegistry,
	clk clock.Clock,
	numWorkers int,
	monitorInterval time.Duration,
) *WorkersContainer {
	c := &WorkersContainer{
		Dispatch: NewDispatchWorker(queue, dispatcher),
		Monitor:  NewQueueMonitor(entries, queue, m, clk, 5*time.Minute),
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.Dispatch.Start(ctx, numWorkers)
	}()

	if monitorInterval > 0 {
		go c.Monitor.Start(ctx, monitorInterval)
	}

	return c
}

func (c *WorkersContainer) Wait() {
	c.wg.Wait()
}
