package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"guesthouse/roomsync/internal/inventory"
	"guesthouse/roomsync/internal/models/gorm"

	gormlib "gorm.io/gorm"
)

type BlackoutRepo struct {
	db *gormlib.DB
}

func NewBlackoutRepo(db *gormlib.DB) *BlackoutRepo {
	return &BlackoutRepo{db: db}
}

// ListInWindow returns blackouts of the room type with date in [from, to).
func (r *BlackoutRepo) ListInWindow(ctx context.Context, roomTypeID string, from, to time.Time) ([]gorm.BlackoutDate, error) {
	var blackouts []gorm.BlackoutDate
	err := r.db.WithContext(ctx).
		Where("room_type_id = ? AND date >= ? AND date < ?", roomTypeID, inventory.Day(from), inventory.Day(to)).
		Order("date ASC").
		Find(&blackouts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list blackout dates: %w", err)
	}
	return blackouts, nil
}

// Add inserts the blackout unless an identical one exists. The unique index
// does not catch duplicates with a NULL unit, so the lookup runs first.
func (r *BlackoutRepo) Add(ctx context.Context, blackout *gorm.BlackoutDate) (bool, error) {
	blackout.Date = inventory.Day(blackout.Date)
	blackout.UnitNumber = normalizeUnit(blackout.UnitNumber)

	existing, err := r.find(ctx, blackout.RoomTypeID, blackout.UnitNumber, blackout.Date)
	if err != nil {
		return false, err
	}
	if existing != nil {
		*blackout = *existing
		return false, nil
	}

	if err := r.db.WithContext(ctx).Create(blackout).Error; err != nil {
		return false, fmt.Errorf("failed to create blackout date: %w", err)
	}
	return true, nil
}

// Remove deletes a matching blackout and reports whether one existed.
func (r *BlackoutRepo) Remove(ctx context.Context, roomTypeID string, unit *string, date time.Time) (bool, error) {
	q := r.db.WithContext(ctx).Where("room_type_id = ? AND date = ?", roomTypeID, inventory.Day(date))
	if unit = normalizeUnit(unit); unit == nil {
		q = q.Where("unit_number IS NULL")
	} else {
		q = q.Where("unit_number = ?", *unit)
	}

	res := q.Delete(&gorm.BlackoutDate{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete blackout date: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *BlackoutRepo) find(ctx context.Context, roomTypeID string, unit *string, date time.Time) (*gorm.BlackoutDate, error) {
	q := r.db.WithContext(ctx).Where("room_type_id = ? AND date = ?", roomTypeID, date)
	if unit == nil {
		q = q.Where("unit_number IS NULL")
	} else {
		q = q.Where("unit_number = ?", *unit)
	}

	var blackout gorm.BlackoutDate
	if err := q.First(&blackout).Error; err != nil {
		if errors.Is(err, gormlib.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find blackout date: %w", err)
	}
	return &blackout, nil
}

func normalizeUnit(unit *string) *string {
	if unit == nil {
		return nil
	}
	u := strings.TrimSpace(*unit)
	if u == "" {
		return nil
	}
	return &u
}
