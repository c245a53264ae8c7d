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

type ChannelManagerRepo struct {
	db *gormlib.DB
}

func NewChannelManagerRepo(db *gormlib.DB) *ChannelManagerRepo {
	return &ChannelManagerRepo{db: db}
}

// ListActive returns channel managers that should receive pushes.
func (r *ChannelManagerRepo) ListActive(ctx context.Context) ([]gorm.ChannelManager, error) {
	var channels []gorm.ChannelManager
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&channels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active channel managers: %w", err)
	}
	return channels, nil
}

func (r *ChannelManagerRepo) List(ctx context.Context) ([]gorm.ChannelManager, error) {
	var channels []gorm.ChannelManager
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&channels).Error; err != nil {
		return nil, fmt.Errorf("failed to list channel managers: %w", err)
	}
	return channels, nil
}

// GetByID returns nil, nil when the channel manager does not exist.
func (r *ChannelManagerRepo) GetByID(ctx context.Context, id string) (*gorm.ChannelManager, error) {
	var channel gorm.ChannelManager
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&channel).Error
	if err != nil {
		if errors.Is(err, gormlib.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get channel manager: %w", err)
	}
	return &channel, nil
}

func (r *ChannelManagerRepo) Create(ctx context.Context, channel *gorm.ChannelManager) error {
	if err := r.db.WithContext(ctx).Create(channel).Error; err != nil {
		return fmt.Errorf("failed to create channel manager: %w", err)
	}
	return nil
}

func (r *ChannelManagerRepo) SetActive(ctx context.Context, id string, active bool) error {
	err := r.db.WithContext(ctx).
		Model(&gorm.ChannelManager{}).
		Where("id = ?", id).
		Update("is_active", active).Error
	if err != nil {
		return fmt.Errorf("failed to update channel manager: %w", err)
	}
	return nil
}

// RecordSuccess stamps the channel with a successful push at the given time.
func (r *ChannelManagerRepo) RecordSuccess(ctx context.Context, id string, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&gorm.ChannelManager{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_sync_at":     at,
			"last_sync_status": constants.SyncStatusSuccess,
			"last_sync_error":  nil,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to record channel success: %w", err)
	}
	return nil
}

// RecordFailure marks the channel failed without touching last_sync_at, which
// keeps pointing at the last push that actually landed.
func (r *ChannelManagerRepo) RecordFailure(ctx context.Context, id string, message string) error {
	err := r.db.WithContext(ctx).
		Model(&gorm.ChannelManager{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_sync_status": constants.SyncStatusFailed,
			"last_sync_error":  message,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to record channel failure: %w", err)
	}
	return nil
}
