package providers

import (
	"encoding/json"
	"time"

	"guesthouse/roomsync/internal/inventory"
)

// AvailabilityPayload is the body both transports send.
type AvailabilityPayload struct {
	PropertyID   string                      `json:"property_id"`
	RoomTypeID   string                      `json:"room_type_id"`
	RoomName     string                      `json:"room_name"`
	Availability []inventory.DayAvailability `json:"availability"`
	UpdatedAt    string                      `json:"updated_at"`
}

// NewAvailabilityPayload orders the snapshot by date.
func NewAvailabilityPayload(propertyID, roomTypeID, roomName string, snapshot map[string]int, updatedAt time.Time) AvailabilityPayload {
	return AvailabilityPayload{
		PropertyID:   propertyID,
		RoomTypeID:   roomTypeID,
		RoomName:     roomName,
		Availability: inventory.SortedDays(snapshot),
		UpdatedAt:    updatedAt.UTC().Format(time.RFC3339),
	}
}

// Encode serializes the payload once. The returned bytes are what gets
// signed, sent and logged.
func (p AvailabilityPayload) Encode() ([]byte, error) {
	return json.Marshal(p)
}
