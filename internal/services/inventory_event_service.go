package services

import (
	"context"
	"fmt"
	"time"

	"guesthouse/roomsync/internal/constants"
	"guesthouse/roomsync/internal/db/repositories"
	"guesthouse/roomsync/internal/inventory"
	"guesthouse/roomsync/internal/models/gorm"
)

// InventoryEventService applies inventory mutations this service owns
// (blackouts) and reacts to ones it does not (bookings) by triggering a sync
// over the affected dates.
type InventoryEventService struct {
	rooms        *repositories.RoomTypeRepo
	blackouts    *repositories.BlackoutRepo
	bookings     *repositories.BookingRepo
	orchestrator *SyncOrchestrator
}

func NewInventoryEventService(
	rooms *repositories.RoomTypeRepo,
	blackouts *repositories.BlackoutRepo,
	bookings *repositories.BookingRepo,
	orchestrator *SyncOrchestrator,
) *InventoryEventService {
	return &InventoryEventService{
		rooms:        rooms,
		blackouts:    blackouts,
		bookings:     bookings,
		orchestrator: orchestrator,
	}
}

// BlackoutRequest identifies one blackout day.
type BlackoutRequest struct {
	RoomTypeID string
	Date       time.Time
	UnitNumber *string
	Reason     string
	CreatedBy  string
}

// BlackoutChange is the outcome of a blackout add or remove.
type BlackoutChange struct {
	Blackout *gorm.BlackoutDate
	Created  bool
	Removed  bool
	Sync     *SyncRunSummary
}

// AddBlackout stores the blackout and syncs that day. The day is synced even
// when the blackout already existed, so a client retrying after a failed sync
// still gets the change pushed.
func (s *InventoryEventService) AddBlackout(ctx context.Context, req BlackoutRequest) (*BlackoutChange, error) {
	if err := s.ensureRoom(ctx, req.RoomTypeID); err != nil {
		return nil, err
	}

	blackout := &gorm.BlackoutDate{
		RoomTypeID: req.RoomTypeID,
		Date:       req.Date,
		UnitNumber: req.UnitNumber,
		Reason:     req.Reason,
		CreatedBy:  req.CreatedBy,
	}
	created, err := s.blackouts.Add(ctx, blackout)
	if err != nil {
		return nil, err
	}

	change := &BlackoutChange{Blackout: blackout, Created: created}
	change.Sync, err = s.syncDay(ctx, req.RoomTypeID, blackout.Date)
	if err != nil {
		return change, fmt.Errorf("blackout saved but sync failed: %w", err)
	}
	return change, nil
}

// RemoveBlackout deletes the blackout if present and syncs that day either way.
func (s *InventoryEventService) RemoveBlackout(ctx context.Context, req BlackoutRequest) (*BlackoutChange, error) {
	if err := s.ensureRoom(ctx, req.RoomTypeID); err != nil {
		return nil, err
	}

	removed, err := s.blackouts.Remove(ctx, req.RoomTypeID, req.UnitNumber, req.Date)
	if err != nil {
		return nil, err
	}

	change := &BlackoutChange{Removed: removed}
	change.Sync, err = s.syncDay(ctx, req.RoomTypeID, req.Date)
	if err != nil {
		return change, fmt.Errorf("blackout removal saved but sync failed: %w", err)
	}
	return change, nil
}

// BookingEvent reports that a booking was created, changed or cancelled.
// PreviousCheckIn/Out carry the old stay when dates moved so freed nights
// are pushed too.
type BookingEvent struct {
	BookingID        string
	PreviousCheckIn  *time.Time
	PreviousCheckOut *time.Time
}

// BookingChanged looks up the booking and syncs the union of its old and new
// stay windows.
func (s *InventoryEventService) BookingChanged(ctx context.Context, ev BookingEvent) (*SyncRunSummary, error) {
	booking, err := s.bookings.GetByID(ctx, ev.BookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("%w: %s", ErrBookingNotFound, ev.BookingID)
	}

	from, to := inventory.Day(booking.CheckIn), inventory.Day(booking.CheckOut)
	if ev.PreviousCheckIn != nil && inventory.Day(*ev.PreviousCheckIn).Before(from) {
		from = inventory.Day(*ev.PreviousCheckIn)
	}
	if ev.PreviousCheckOut != nil && inventory.Day(*ev.PreviousCheckOut).After(to) {
		to = inventory.Day(*ev.PreviousCheckOut)
	}

	bookingID := booking.ID
	return s.orchestrator.TriggerSync(ctx, TriggerRequest{
		RoomTypeID:  booking.RoomTypeID,
		DateFrom:    from,
		DateTo:      to,
		TriggeredBy: constants.TriggeredByBooking,
		BookingID:   &bookingID,
	})
}

func (s *InventoryEventService) syncDay(ctx context.Context, roomTypeID string, day time.Time) (*SyncRunSummary, error) {
	day = inventory.Day(day)
	return s.orchestrator.TriggerSync(ctx, TriggerRequest{
		RoomTypeID:  roomTypeID,
		DateFrom:    day,
		DateTo:      day.AddDate(0, 0, 1),
		TriggeredBy: constants.TriggeredByBlackout,
	})
}

func (s *InventoryEventService) ensureRoom(ctx context.Context, roomTypeID string) error {
	room, err := s.rooms.GetByID(ctx, roomTypeID)
	if err != nil {
		return err
	}
	if room == nil {
		return fmt.Errorf("%w: %s", ErrRoomTypeNotFound, roomTypeID)
	}
	return nil
}
