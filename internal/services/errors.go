package services

import "errors"

var (
	ErrRoomTypeNotFound = errors.New("room type not found")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrEntryNotFound    = errors.New("sync queue entry not found")
	ErrEntryNotPending  = errors.New("sync queue entry is not pending")
	ErrEntryNotDue      = errors.New("sync queue entry is waiting for its retry time")
	ErrChannelNotFound  = errors.New("channel manager not found")
	ErrInvalidWindow    = errors.New("invalid date window")
	ErrInvalidTrigger   = errors.New("invalid triggered_by value")
)
