package dtos

// TriggerSyncRequest is the body of POST /api/v1/sync/trigger.
// Dates are YYYY-MM-DD; date_to is exclusive.
type TriggerSyncRequest struct {
	RoomTypeID  string  `json:"room_type_id"`
	DateFrom    string  `json:"date_from"`
	DateTo      string  `json:"date_to"`
	TriggeredBy string  `json:"triggered_by,omitempty"`
	BookingID   *string `json:"booking_id,omitempty"`
}

// BlackoutRequest is the body of POST /api/v1/room-types/{id}/blackouts.
// Omitting unit_number blacks out the whole room type.
type BlackoutRequest struct {
	Date       string  `json:"date"`
	UnitNumber *string `json:"unit_number,omitempty"`
	Reason     string  `json:"reason,omitempty"`
}

// BookingEventRequest is the body of POST /api/v1/bookings/{id}/events.
// The previous dates widen the sync window when a stay was moved or shortened.
type BookingEventRequest struct {
	PreviousCheckIn  *string `json:"previous_check_in,omitempty"`
	PreviousCheckOut *string `json:"previous_check_out,omitempty"`
}
