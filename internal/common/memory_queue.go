package common

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryDispatchQueue is a buffered in-process queue for single-instance
// deployments and tests. Tasks are lost on restart; the retry sweep picks
// their entries back up from the database.
type MemoryDispatchQueue struct {
	tasks  chan *DispatchTask
	seq    atomic.Int64
	mu     sync.Mutex
	closed bool
}

// Ensure MemoryDispatchQueue implements DispatchQueue
var _ DispatchQueue = (*MemoryDispatchQueue)(nil)

func NewMemoryDispatchQueue(size int) *MemoryDispatchQueue {
	if size <= 0 {
		size = 1024
	}
	return &MemoryDispatchQueue{tasks: make(chan *DispatchTask, size)}
}

// Enqueue fails rather than blocks when the buffer is full.
func (q *MemoryDispatchQueue) Enqueue(ctx context.Context, task *DispatchTask) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("dispatch queue full (%d tasks)", cap(q.tasks))
	}
}

func (q *MemoryDispatchQueue) Dequeue(ctx context.Context, _ string, block time.Duration) (*DispatchTask, string, error) {
	timer := time.NewTimer(block)
	defer timer.Stop()

	select {
	case task, ok := <-q.tasks:
		if !ok {
			return nil, "", ErrQueueClosed
		}
		return task, strconv.FormatInt(q.seq.Add(1), 10), nil
	case <-timer.C:
		return nil, "", nil
	case <-ctx.Done():
		return nil, "", ctx.Err()
	}
}

// Ack is a no-op: a dequeued task is already gone from the channel.
func (q *MemoryDispatchQueue) Ack(context.Context, string) error {
	return nil
}

func (q *MemoryDispatchQueue) Length(context.Context) (int64, error) {
	return int64(len(q.tasks)), nil
}

// Close stops accepting tasks. Workers drain what is buffered, then see
// ErrQueueClosed.
func (q *MemoryDispatchQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.tasks)
	}
}
