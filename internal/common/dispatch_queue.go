package common

import (
	"context"
	"errors"
	"time"
)

// ErrQueueClosed is returned by Dequeue once a queue has been shut down.
var ErrQueueClosed = errors.New("dispatch queue closed")

// DispatchTask tells a worker which sync queue entry to push.
// The entry row is the source of truth; the task only carries its ID.
type DispatchTask struct {
	QueueEntryID     string    `json:"queue_entry_id"`
	ChannelManagerID string    `json:"channel_manager_id"`
	RoomTypeID       string    `json:"room_type_id"`
	EnqueuedAt       time.Time `json:"enqueued_at"`
}

// DispatchQueue hands entries from the orchestrator to dispatch workers.
// Delivery is at-least-once; the dispatcher's claim step drops duplicates.
type DispatchQueue interface {
	Enqueue(ctx context.Context, task *DispatchTask) error

	// Dequeue blocks up to block for a task. It returns nil, "", nil on timeout.
	Dequeue(ctx context.Context, consumer string, block time.Duration) (*DispatchTask, string, error)

	// Ack marks the message as handled.
	Ack(ctx context.Context, messageID string) error

	// Length reports tasks waiting to be picked up.
	Length(ctx context.Context) (int64, error)
}
