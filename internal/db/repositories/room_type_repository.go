package repositories

import (
	"context"
	"errors"
	"fmt"

	"guesthouse/roomsync/internal/models/gorm"

	gormlib "gorm.io/gorm"
)

// RoomTypeRepo reads room types and their unit configuration.
type RoomTypeRepo struct {
	db *gormlib.DB
}

func NewRoomTypeRepo(db *gormlib.DB) *RoomTypeRepo {
	return &RoomTypeRepo{db: db}
}

// GetByID returns nil, nil when the room type does not exist.
func (r *RoomTypeRepo) GetByID(ctx context.Context, id string) (*gorm.RoomType, error) {
	var room gorm.RoomType
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&room).Error
	if err != nil {
		if errors.Is(err, gormlib.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get room type: %w", err)
	}
	return &room, nil
}

func (r *RoomTypeRepo) List(ctx context.Context) ([]gorm.RoomType, error) {
	var rooms []gorm.RoomType
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("failed to list room types: %w", err)
	}
	return rooms, nil
}

func (r *RoomTypeRepo) Create(ctx context.Context, room *gorm.RoomType) error {
	if err := r.db.WithContext(ctx).Create(room).Error; err != nil {
		return fmt.Errorf("failed to create room type: %w", err)
	}
	return nil
}
