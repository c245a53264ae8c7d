package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"guesthouse/roomsync/internal/inventory"
	"guesthouse/roomsync/internal/models/gorm"

	gormlib "gorm.io/gorm"
)

// BookingRepo is a read-only view over the booking subsystem's tables.
type BookingRepo struct {
	db *gormlib.DB
}

func NewBookingRepo(db *gormlib.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

// ListActiveInWindow returns bookings of the room type that hold inventory
// on at least one day of [from, to), with their unit allocations loaded.
func (r *BookingRepo) ListActiveInWindow(ctx context.Context, roomTypeID string, from, to time.Time) ([]gorm.Booking, error) {
	var bookings []gorm.Booking
	err := r.db.WithContext(ctx).
		Preload("Units").
		Where("room_type_id = ?", roomTypeID).
		Where("status NOT IN ?", []string{inventory.StatusCancelled, inventory.StatusRejected}).
		Where("check_in < ? AND check_out > ?", inventory.Day(to), inventory.Day(from)).
		Order("check_in ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// GetByID returns nil, nil when the booking does not exist.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (*gorm.Booking, error) {
	var booking gorm.Booking
	err := r.db.WithContext(ctx).Preload("Units").Where("id = ?", id).First(&booking).Error
	if err != nil {
		if errors.Is(err, gormlib.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}
