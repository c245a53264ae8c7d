package workers

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"guesthouse/roomsync/internal/clock"
	"guesthouse/roomsync/internal/common"
	"guesthouse/roomsync/internal/constants"
	"guesthouse/roomsync/internal/db/dbtest"
	"guesthouse/roomsync/internal/db/repositories"
	"guesthouse/roomsync/internal/logging"
	"guesthouse/roomsync/internal/metrics"
	"guesthouse/roomsync/internal/models"
	"guesthouse/roomsync/internal/models/gorm"
	"guesthouse/roomsync/internal/services"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMain(m *testing.M) {
	logging.UseNop()
	os.Exit(m.Run())
}

type fakeDispatcher struct {
	mu   sync.Mutex
	seen []string
	fn   func(id string) (*services.DispatchResult, error)
}

func (f *fakeDispatcher) Dispatch(_ context.Context, id string) (*services.DispatchResult, error) {
	f.mu.Lock()
	f.seen = append(f.seen, id)
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(id)
	}
	return &services.DispatchResult{QueueEntryID: id, Success: true, Status: constants.SyncStatusSuccess}, nil
}

func (f *fakeDispatcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}

func TestDispatchWorker_DrainsQueueAndStops(t *testing.T) {
	queue := common.NewMemoryDispatchQueue(16)
	fake := &fakeDispatcher{fn: func(id string) (*services.DispatchResult, error) {
		if id == "dup" {
			return nil, services.ErrEntryNotPending
		}
		return &services.DispatchResult{QueueEntryID: id}, nil
	}}
	for _, id := range []string{"a", "b", "dup", "c"} {
		if err := queue.Enqueue(context.Background(), &common.DispatchTask{QueueEntryID: id}); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	w := NewDispatchWorker(queue, fake)
	w.block = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx, 3)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for fake.count() < 4 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if fake.count() != 4 {
		t.Fatalf("Expected 4 dispatches, got %d", fake.count())
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Workers did not stop after cancel")
	}

	if n, _ := queue.Length(context.Background()); n != 0 {
		t.Errorf("Expected empty queue, got %d", n)
	}
}

func TestDispatchWorker_StopsWhenQueueClosed(t *testing.T) {
	queue := common.NewMemoryDispatchQueue(4)
	w := NewDispatchWorker(queue, &fakeDispatcher{})
	w.block = 10 * time.Millisecond
	queue.Close()

	done := make(chan struct{})
	go func() {
		w.Start(context.Background(), 2)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Workers did not stop on closed queue")
	}
}

func TestQueueMonitor_Check(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	entries := repositories.NewSyncQueueRepo(db)
	room := &gorm.RoomType{Name: "Deluxe", Allotment: 1}
	if err := db.Create(room).Error; err != nil {
		t.Fatal(err)
	}
	ch := &gorm.ChannelManager{Name: "alpha", Transport: constants.TransportAPI, EndpointURL: "http://x", IsActive: true}
	if err := db.Create(ch).Error; err != nil {
		t.Fatal(err)
	}

	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		e := &gorm.SyncQueueEntry{
			ChannelManagerID: ch.ID,
			RoomTypeID:       room.ID,
			DateFrom:         now,
			DateTo:           now.AddDate(0, 0, 1),
			AvailabilityData: models.AvailabilityMap{"2025-07-01": 1},
			TriggeredBy:      constants.TriggeredByManual,
		}
		if err := entries.Create(ctx, e); err != nil {
			t.Fatal(err)
		}
		if i == 0 {
			if _, err := entries.Claim(ctx, e.ID, now.Add(-time.Hour)); err != nil {
				t.Fatal(err)
			}
		}
	}

	queue := common.NewMemoryDispatchQueue(4)
	_ = queue.Enqueue(ctx, &common.DispatchTask{QueueEntryID: "x"})

	m := metrics.NewMetricsRegistry(prometheus.NewRegistry())
	mon := NewQueueMonitor(entries, queue, m, clock.NewFakeClock(now), 10*time.Minute)

	stats, err := mon.Check(ctx)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if stats.ByStatus[constants.SyncStatusPending] != 2 || stats.ByStatus[constants.SyncStatusProcessing] != 1 {
		t.Errorf("Unexpected counts: %v", stats.ByStatus)
	}
	if stats.StaleProcessing != 1 {
		t.Errorf("Expected 1 stale entry, got %d", stats.StaleProcessing)
	}
	if stats.DispatchBacklog != 1 {
		t.Errorf("Expected backlog 1, got %d", stats.DispatchBacklog)
	}
	if got := testutil.ToFloat64(m.QueueEntries.WithLabelValues(constants.SyncStatusPending)); got != 2 {
		t.Errorf("Expected pending gauge 2, got %v", got)
	}
	if got := testutil.ToFloat64(m.StaleProcessingEntries); got != 1 {
		t.Errorf("Expected stale gauge 1, got %v", got)
	}
}
