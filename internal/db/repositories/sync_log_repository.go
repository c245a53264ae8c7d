package repositories

import (
	"context"
	"fmt"

	"guesthouse/roomsync/internal/models/gorm"

	gormlib "gorm.io/gorm"
)

// SyncLogRepo is append-only: there is no update or delete.
type SyncLogRepo struct {
	db *gormlib.DB
}

func NewSyncLogRepo(db *gormlib.DB) *SyncLogRepo {
	return &SyncLogRepo{db: db}
}

func (r *SyncLogRepo) Append(ctx context.Context, entry *gorm.SyncLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append sync log: %w", err)
	}
	return nil
}

// ListByEntry returns attempts for a queue entry, oldest first.
func (r *SyncLogRepo) ListByEntry(ctx context.Context, queueEntryID string) ([]gorm.SyncLog, error) {
	var logs []gorm.SyncLog
	err := r.db.WithContext(ctx).
		Where("queue_entry_id = ?", queueEntryID).
		Order("created_at ASC").
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sync logs: %w", err)
	}
	return logs, nil
}
