package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"guesthouse/roomsync/internal/constants"
	"guesthouse/roomsync/internal/models/gorm"

	gormlib "gorm.io/gorm"
)

// SyncQueueRepo persists sync queue entries and their status transitions.
// Every transition is a conditional update on the current status, so two
// workers racing on one entry cannot both win.
type SyncQueueRepo struct {
	db *gormlib.DB
}

func NewSyncQueueRepo(db *gormlib.DB) *SyncQueueRepo {
	return &SyncQueueRepo{db: db}
}

// SyncQueueFilter narrows List. Zero values match everything.
type SyncQueueFilter struct {
	Status           string
	ChannelManagerID string
	RoomTypeID       string
	Limit            int
}

func (r *SyncQueueRepo) Create(ctx context.Context, entry *gorm.SyncQueueEntry) error {
	if entry.Status == "" {
		entry.Status = constants.SyncStatusPending
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create sync queue entry: %w", err)
	}
	return nil
}

// GetByID returns nil, nil when the entry does not exist.
func (r *SyncQueueRepo) GetByID(ctx context.Context, id string) (*gorm.SyncQueueEntry, error) {
	var entry gorm.SyncQueueEntry
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error
	if err != nil {
		if errors.Is(err, gormlib.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get sync queue entry: %w", err)
	}
	return &entry, nil
}

// Claim moves a pending entry to processing. It returns false when the entry
// was not pending, which means another worker got there first.
func (r *SyncQueueRepo) Claim(ctx context.Context, id string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&gorm.SyncQueueEntry{}).
		Where("id = ? AND status = ?", id, constants.SyncStatusPending).
		Updates(map[string]interface{}{
			"status":          constants.SyncStatusProcessing,
			"last_attempt_at": now,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to claim sync queue entry: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *SyncQueueRepo) MarkSuccess(ctx context.Context, id string) error {
	return r.transition(ctx, id, map[string]interface{}{
		"status":        constants.SyncStatusSuccess,
		"next_retry_at": nil,
		"last_error":    nil,
	})
}

// MarkRetry returns the entry to pending with the attempt recorded.
func (r *SyncQueueRepo) MarkRetry(ctx context.Context, id string, retryCount int, nextRetryAt time.Time, lastError string) error {
	return r.transition(ctx, id, map[string]interface{}{
		"status":        constants.SyncStatusPending,
		"retry_count":   retryCount,
		"next_retry_at": nextRetryAt,
		"last_error":    lastError,
	})
}

// MarkFailed is terminal. Nothing moves an entry out of failed.
func (r *SyncQueueRepo) MarkFailed(ctx context.Context, id string, retryCount int, lastError string) error {
	return r.transition(ctx, id, map[string]interface{}{
		"status":        constants.SyncStatusFailed,
		"retry_count":   retryCount,
		"next_retry_at": nil,
		"last_error":    lastError,
	})
}

func (r *SyncQueueRepo) transition(ctx context.Context, id string, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&gorm.SyncQueueEntry{}).
		Where("id = ? AND status = ?", id, constants.SyncStatusProcessing).
		Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("failed to update sync queue entry: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("sync queue entry %s is not processing", id)
	}
	return nil
}

// ListDue returns pending entries on active channels that are ready to be
// pushed: either their retry time has passed, or they were never attempted
// and have waited longer than grace (the enqueue hand-off was lost).
func (r *SyncQueueRepo) ListDue(ctx context.Context, now time.Time, grace time.Duration, limit int) ([]gorm.SyncQueueEntry, error) {
	var entries []gorm.SyncQueueEntry
	q := r.db.WithContext(ctx).
		Model(&gorm.SyncQueueEntry{}).
		Select("sync_queue.*").
		Joins("JOIN channel_managers ON channel_managers.id = sync_queue.channel_manager_id").
		Where("sync_queue.status = ? AND channel_managers.is_active = ?", constants.SyncStatusPending, true).
		Where("((sync_queue.next_retry_at IS NOT NULL AND sync_queue.next_retry_at <= ?) OR (sync_queue.next_retry_at IS NULL AND sync_queue.created_at <= ?))",
			now, now.Add(-grace)).
		Order("sync_queue.created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list due sync queue entries: %w", err)
	}
	return entries, nil
}

func (r *SyncQueueRepo) List(ctx context.Context, filter SyncQueueFilter) ([]gorm.SyncQueueEntry, error) {
	q := r.db.WithContext(ctx).Model(&gorm.SyncQueueEntry{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.ChannelManagerID != "" {
		q = q.Where("channel_manager_id = ?", filter.ChannelManagerID)
	}
	if filter.RoomTypeID != "" {
		q = q.Where("room_type_id = ?", filter.RoomTypeID)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var entries []gorm.SyncQueueEntry
	if err := q.Order("created_at DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list sync queue entries: %w", err)
	}
	return entries, nil
}

// CountByStatus returns the number of entries per status.
func (r *SyncQueueRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&gorm.SyncQueueEntry{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count sync queue entries: %w", err)
	}

	counts := map[string]int64{
		constants.SyncStatusPending:    0,
		constants.SyncStatusProcessing: 0,
		constants.SyncStatusSuccess:    0,
		constants.SyncStatusFailed:     0,
	}
	for _, rw := range rows {
		counts[rw.Status] = rw.Count
	}
	return counts, nil
}

// CountStaleProcessing counts entries claimed before the cutoff and never
// finished, usually because the worker died mid-push.
func (r *SyncQueueRepo) CountStaleProcessing(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&gorm.SyncQueueEntry{}).
		Where("status = ? AND last_attempt_at < ?", constants.SyncStatusProcessing, cutoff).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count stale sync queue entries: %w", err)
	}
	return n, nil
}

// AbandonedClaimError is recorded on entries and audit rows whose claim went
// stale without a result.
const AbandonedClaimError = "claim abandoned: no result recorded before the stale timeout"

// StaleRelease reports what ReleaseStaleProcessing did.
type StaleRelease struct {
	Retried int64
	Failed  int64
}

// ReleaseStaleProcessing settles entries claimed before cutoff and never
// finished. The lost attempt may have reached the channel, so it counts
// against max_retries like any other failure and gets its own audit row:
// the entry goes back to pending after the channel's retry delay, or to
// failed once the attempts are used up.
func (r *SyncQueueRepo) ReleaseStaleProcessing(ctx context.Context, cutoff, now time.Time) (*StaleRelease, error) {
	var stale []gorm.SyncQueueEntry
	err := r.db.WithContext(ctx).
		Where("status = ? AND last_attempt_at < ?", constants.SyncStatusProcessing, cutoff).
		Find(&stale).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stale sync queue entries: %w", err)
	}

	out := &StaleRelease{}
	if len(stale) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(stale))
	for _, e := range stale {
		ids = append(ids, e.ChannelManagerID)
	}
	var channels []gorm.ChannelManager
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&channels).Error; err != nil {
		return nil, fmt.Errorf("failed to load channels for stale entries: %w", err)
	}
	byID := make(map[string]gorm.ChannelManager, len(channels))
	for _, c := range channels {
		byID[c.ID] = c
	}

	for _, entry := range stale {
		// A missing channel row leaves max_retries at zero, which is terminal.
		channel := byID[entry.ChannelManagerID]
		attemptNo := entry.RetryCount + 1
		terminal := attemptNo >= channel.MaxRetries

		err := r.db.WithContext(ctx).Transaction(func(tx *gormlib.DB) error {
			fields := map[string]interface{}{
				"status":        constants.SyncStatusPending,
				"retry_count":   attemptNo,
				"next_retry_at": now.Add(channel.RetryDelay()),
				"last_error":    AbandonedClaimError,
			}
			if terminal {
				fields["status"] = constants.SyncStatusFailed
				fields["next_retry_at"] = nil
			}

			res := tx.Model(&gorm.SyncQueueEntry{}).
				Where("id = ? AND status = ? AND last_attempt_at < ?", entry.ID, constants.SyncStatusProcessing, cutoff).
				Updates(fields)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// finished while we were looking
				return errNothingReleased
			}

			msg := AbandonedClaimError
			var elapsed int64
			if entry.LastAttemptAt != nil {
				elapsed = now.Sub(*entry.LastAttemptAt).Milliseconds()
			}
			if err := tx.Create(&gorm.SyncLog{
				QueueEntryID:     entry.ID,
				ChannelManagerID: entry.ChannelManagerID,
				RoomTypeID:       entry.RoomTypeID,
				DurationMs:       elapsed,
				Success:          false,
				ErrorMessage:     &msg,
			}).Error; err != nil {
				return err
			}

			if terminal && channel.ID != "" {
				return tx.Model(&gorm.ChannelManager{}).
					Where("id = ?", channel.ID).
					Updates(map[string]interface{}{
						"last_sync_status": constants.SyncStatusFailed,
						"last_sync_error":  msg,
					}).Error
			}
			return nil
		})
		if errors.Is(err, errNothingReleased) {
			continue
		}
		if err != nil {
			return out, fmt.Errorf("failed to release stale sync queue entry %s: %w", entry.ID, err)
		}

		if terminal {
			out.Failed++
		} else {
			out.Retried++
		}
	}
	return out, nil
}

var errNothingReleased = errors.New("stale entry already settled")
