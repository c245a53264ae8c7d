package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheService_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewCacheService(time.Minute, time.Minute)

	type snapshot struct {
		RoomTypeID string         `json:"room_type_id"`
		Days       map[string]int `json:"days"`
	}
	in := snapshot{RoomTypeID: "rt-1", Days: map[string]int{"2025-07-10": 2}}
	require.NoError(t, c.Set(ctx, "k", in, time.Minute))

	var out snapshot
	found, err := c.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, in, out)

	require.NoError(t, c.Delete(ctx, "k"))
	found, err = c.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryDispatchQueue_FIFOAndTimeout(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryDispatchQueue(2)

	require.NoError(t, q.Enqueue(ctx, &DispatchTask{QueueEntryID: "a"}))
	require.NoError(t, q.Enqueue(ctx, &DispatchTask{QueueEntryID: "b"}))
	assert.Error(t, q.Enqueue(ctx, &DispatchTask{QueueEntryID: "c"}), "full buffer must not block")

	n, _ := q.Length(ctx)
	assert.Equal(t, int64(2), n)

	task, id, err := q.Dequeue(ctx, "w1", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "a", task.QueueEntryID)
	assert.NotEmpty(t, id)

	_, _, err = q.Dequeue(ctx, "w1", time.Second)
	require.NoError(t, err)

	task, id, err = q.Dequeue(ctx, "w1", 10*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, task)
	assert.Empty(t, id)
}

func TestMemoryDispatchQueue_Close(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryDispatchQueue(4)
	require.NoError(t, q.Enqueue(ctx, &DispatchTask{QueueEntryID: "a"}))
	q.Close()
	q.Close()

	assert.ErrorIs(t, q.Enqueue(ctx, &DispatchTask{}), ErrQueueClosed)

	task, _, err := q.Dequeue(ctx, "w", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "a", task.QueueEntryID)

	_, _, err = q.Dequeue(ctx, "w", time.Second)
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestEnvSecretStore(t *testing.T) {
	store := NewEnvSecretStore("CHANNEL_SECRET_")
	store.lookup = func(key string) (string, bool) {
		if key == "CHANNEL_SECRET_BOOKING_COM" {
			return "s3cret", true
		}
		return "", false
	}

	assert.Equal(t, "CHANNEL_SECRET_BOOKING_COM", store.EnvKey("booking.com"))

	v, err := store.Secret(context.Background(), "booking.com")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", v)

	_, err = store.Secret(context.Background(), "expedia")
	assert.True(t, errors.Is(err, ErrSecretNotFound))

	_, err = store.Secret(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrSecretNotFound)
}

type countingStore struct {
	calls int
	inner SecretStore
}

func (c *countingStore) Secret(ctx context.Context, ref string) (string, error) {
	c.calls++
	return c.inner.Secret(ctx, ref)
}

func TestCachedSecretStore_CachesHitsOnly(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{inner: StaticSecretStore{"a": "x"}}
	store := NewCachedSecretStore(inner, time.Minute)

	for i := 0; i < 3; i++ {
		v, err := store.Secret(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "x", v)
	}
	assert.Equal(t, 1, inner.calls)

	_, err := store.Secret(ctx, "missing")
	assert.ErrorIs(t, err, ErrSecretNotFound)
	_, _ = store.Secret(ctx, "missing")
	assert.Equal(t, 3, inner.calls)

	store.Invalidate("a")
	_, _ = store.Secret(ctx, "a")
	assert.Equal(t, 4, inner.calls)
}
