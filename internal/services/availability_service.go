package services

import (
	"context"
	"fmt"
	"time"

	"guesthouse/roomsync/internal/common"
	"guesthouse/roomsync/internal/constants"
	"guesthouse/roomsync/internal/db/repositories"
	"guesthouse/roomsync/internal/inventory"
	"guesthouse/roomsync/internal/logging"
	"guesthouse/roomsync/internal/metrics"
	"guesthouse/roomsync/internal/models/gorm"
)

// MaxWindowDays bounds a single availability computation.
const MaxWindowDays = 731

// AvailabilitySnapshot is the last computed availability for a room type.
type AvailabilitySnapshot struct {
	RoomTypeID   string                      `json:"room_type_id"`
	RoomName     string                      `json:"room_name"`
	DateFrom     string                      `json:"date_from"`
	DateTo       string                      `json:"date_to"`
	Capacity     int                         `json:"capacity"`
	Availability []inventory.DayAvailability `json:"availability"`
	Overbooked   []string                    `json:"overbooked_dates,omitempty"`
	Unconfigured bool                        `json:"unconfigured,omitempty"`
	ComputedAt   time.Time                   `json:"computed_at"`
}

func NewAvailabilitySnapshot(room *gorm.RoomType, from, to time.Time, result inventory.Result, at time.Time) AvailabilitySnapshot {
	return AvailabilitySnapshot{
		RoomTypeID:   room.ID,
		RoomName:     room.Name,
		DateFrom:     inventory.FormatDay(from),
		DateTo:       inventory.FormatDay(to),
		Capacity:     result.Capacity,
		Availability: result.Days,
		Overbooked:   result.Overbooked,
		Unconfigured: result.Unconfigured,
		ComputedAt:   at,
	}
}

// AvailabilityService loads inventory facts and runs the calculator.
type AvailabilityService struct {
	rooms     *repositories.RoomTypeRepo
	bookings  *repositories.BookingRepo
	blackouts *repositories.BlackoutRepo
	cache     common.CacheInterface
	ttl       time.Duration
	metrics   *metrics.MetricsRegistry
}

func NewAvailabilityService(
	rooms *repositories.RoomTypeRepo,
	bookings *repositories.BookingRepo,
	blackouts *repositories.BlackoutRepo,
	cache common.CacheInterface,
	ttl time.Duration,
	m *metrics.MetricsRegistry,
) *AvailabilityService {
	return &AvailabilityService{
		rooms:     rooms,
		bookings:  bookings,
		blackouts: blackouts,
		cache:     cache,
		ttl:       ttl,
		metrics:   m,
	}
}

// ValidateWindow normalizes a [from, to) window to whole days.
func ValidateWindow(from, to time.Time) (time.Time, time.Time, error) {
	from, to = inventory.Day(from), inventory.Day(to)
	if !from.Before(to) {
		return from, to, fmt.Errorf("%w: date_from must be before date_to", ErrInvalidWindow)
	}
	if to.Sub(from) > MaxWindowDays*24*time.Hour {
		return from, to, fmt.Errorf("%w: window longer than %d days", ErrInvalidWindow, MaxWindowDays)
	}
	return from, to, nil
}

// Compute returns the room type and its availability over [from, to).
// Any load failure aborts the whole computation.
func (s *AvailabilityService) Compute(ctx context.Context, roomTypeID string, from, to time.Time) (*gorm.RoomType, inventory.Result, error) {
	from, to, err := ValidateWindow(from, to)
	if err != nil {
		return nil, inventory.Result{}, err
	}

	room, err := s.rooms.GetByID(ctx, roomTypeID)
	if err != nil {
		return nil, inventory.Result{}, err
	}
	if room == nil {
		return nil, inventory.Result{}, fmt.Errorf("%w: %s", ErrRoomTypeNotFound, roomTypeID)
	}

	bookings, err := s.bookings.ListActiveInWindow(ctx, roomTypeID, from, to)
	if err != nil {
		return nil, inventory.Result{}, err
	}
	blackouts, err := s.blackouts.ListInWindow(ctx, roomTypeID, from, to)
	if err != nil {
		return nil, inventory.Result{}, err
	}

	stays := make([]inventory.Stay, 0, len(bookings))
	for _, b := range bookings {
		stays = append(stays, b.Stay())
	}
	blocks := make([]inventory.Blackout, 0, len(blackouts))
	for _, b := range blackouts {
		blocks = append(blocks, b.Blackout())
	}

	result := inventory.Compute(room.Inventory(), from, to, stays, blocks)
	if len(result.Overbooked) > 0 {
		logging.Warn("Overbooking detected",
			"room_type_id", roomTypeID,
			"dates", result.Overbooked)
		s.metrics.RecordOverbooked(len(result.Overbooked))
	}
	if result.Unconfigured {
		logging.Warn("Room type has no sellable units configured", "room_type_id", roomTypeID)
	}
	return room, result, nil
}

// StoreSnapshot caches the result for the snapshot endpoint. Cache errors are
// logged and swallowed.
func (s *AvailabilityService) StoreSnapshot(ctx context.Context, room *gorm.RoomType, from, to time.Time, result inventory.Result, at time.Time) {
	if s.cache == nil {
		return
	}
	snap := NewAvailabilitySnapshot(room, from, to, result, at)
	if err := s.cache.Set(ctx, constants.SnapshotCachePrefix+room.ID, snap, s.ttl); err != nil {
		logging.Warn("Failed to cache availability snapshot", "room_type_id", room.ID, "error", err)
	}
}

// Snapshot returns nil, nil when nothing is cached for the room type.
func (s *AvailabilityService) Snapshot(ctx context.Context, roomTypeID string) (*AvailabilitySnapshot, error) {
	if s.cache == nil {
		return nil, nil
	}
	var snap AvailabilitySnapshot
	found, err := s.cache.Get(ctx, constants.SnapshotCachePrefix+roomTypeID, &snap)
	s.metrics.RecordCache("availability_snapshot", found)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &snap, nil
}
