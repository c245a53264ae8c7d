package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"guesthouse/roomsync/internal/logging"

	"github.com/redis/go-redis/v9"
)

// RedisDispatchQueue provides the dispatch hand-off using Redis Streams
// with a consumer group, so tasks survive a restart of the process.
type RedisDispatchQueue struct {
	client *redis.Client
	stream string
	group  string
}

// Ensure RedisDispatchQueue implements DispatchQueue
var _ DispatchQueue = (*RedisDispatchQueue)(nil)

func NewRedisDispatchQueue(client *redis.Client, stream, group string) *RedisDispatchQueue {
	return &RedisDispatchQueue{
		client: client,
		stream: stream,
		group:  group,
	}
}

// EnsureGroup creates the consumer group for the stream if it doesn't exist
func (q *RedisDispatchQueue) EnsureGroup(ctx context.Context) error {
	// XGROUP CREATE stream group 0 MKSTREAM
	err := q.client.XGroupCreateMkStream(ctx, q.stream, q.group, "0").Err()
	if err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return nil
	}
	return err
}

func (q *RedisDispatchQueue) Enqueue(ctx context.Context, task *DispatchTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal dispatch task: %w", err)
	}

	err = q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to add to stream: %w", err)
	}
	return nil
}

func (q *RedisDispatchQueue) Dequeue(ctx context.Context, consumer string, block time.Duration) (*DispatchTask, string, error) {
	// XREADGROUP GROUP group consumer BLOCK ms COUNT 1 STREAMS stream >
	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.group,
		Consumer: consumer,
		Streams:  []string{q.stream, ">"},
		Count:    1,
		Block:    block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("failed to read from stream: %w", err)
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return nil, "", nil
	}

	msg := streams[0].Messages[0]
	task, err := decodeTask(msg)
	if err != nil {
		// Poison message: ack it so it is not redelivered forever.
		_ = q.Ack(ctx, msg.ID)
		return nil, "", err
	}
	return task, msg.ID, nil
}

func (q *RedisDispatchQueue) Ack(ctx context.Context, messageID string) error {
	return q.client.XAck(ctx, q.stream, q.group, messageID).Err()
}

// Length returns the number of unacknowledged messages for the group.
func (q *RedisDispatchQueue) Length(ctx context.Context) (int64, error) {
	pending, err := q.client.XPending(ctx, q.stream, q.group).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get pending count: %w", err)
	}
	return pending.Count, nil
}

// Trim removes old processed messages, keeping roughly the newest maxLen.
func (q *RedisDispatchQueue) Trim(ctx context.Context, maxLen int64) error {
	return q.client.XTrimMaxLenApprox(ctx, q.stream, maxLen, 0).Err()
}

// ClaimStale takes over messages a dead consumer read but never acked.
func (q *RedisDispatchQueue) ClaimStale(ctx context.Context, consumer string, minIdle time.Duration) ([]*DispatchTask, []string, error) {
	pending, err := q.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: q.stream,
		Group:  q.group,
		Start:  "-",
		End:    "+",
		Count:  100,
	}).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get pending messages: %w", err)
	}

	var staleIDs []string
	for _, p := range pending {
		if p.Idle >= minIdle {
			staleIDs = append(staleIDs, p.ID)
		}
	}
	if len(staleIDs) == 0 {
		return nil, nil, nil
	}

	messages, err := q.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   q.stream,
		Group:    q.group,
		Consumer: consumer,
		MinIdle:  minIdle,
		Messages: staleIDs,
	}).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to claim stale messages: %w", err)
	}

	var tasks []*DispatchTask
	var ids []string
	for _, msg := range messages {
		task, err := decodeTask(msg)
		if err != nil {
			logging.Warn("Dropping unreadable dispatch message", "message_id", msg.ID, "error", err)
			_ = q.Ack(ctx, msg.ID)
			continue
		}
		tasks = append(tasks, task)
		ids = append(ids, msg.ID)
	}
	return tasks, ids, nil
}

func decodeTask(msg redis.XMessage) (*DispatchTask, error) {
	dataStr, ok := msg.Values["data"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid message format: data field missing")
	}
	var task DispatchTask
	if err := json.Unmarshal([]byte(dataStr), &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dispatch task: %w", err)
	}
	return &task, nil
}
