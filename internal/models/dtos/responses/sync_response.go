package responses

import (
	"time"

	"guesthouse/roomsync/internal/inventory"
	"guesthouse/roomsync/internal/models/gorm"
)

// ChannelManagerResponse omits the credential reference.
type ChannelManagerResponse struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Transport         string     `json:"transport"`
	EndpointURL       string     `json:"endpoint_url"`
	IsActive          bool       `json:"is_active"`
	MaxRetries        int        `json:"max_retries"`
	RetryDelaySeconds int        `json:"retry_delay_seconds"`
	LastSyncAt        *time.Time `json:"last_sync_at"`
	LastSyncStatus    *string    `json:"last_sync_status"`
	LastSyncError     *string    `json:"last_sync_error"`
}

func FromChannelManager(c gorm.ChannelManager) ChannelManagerResponse {
	return ChannelManagerResponse{
		ID:                c.ID,
		Name:              c.Name,
		Transport:         c.Transport,
		EndpointURL:       c.EndpointURL,
		IsActive:          c.IsActive,
		MaxRetries:        c.MaxRetries,
		RetryDelaySeconds: c.RetryDelaySeconds,
		LastSyncAt:        c.LastSyncAt,
		LastSyncStatus:    c.LastSyncStatus,
		LastSyncError:     c.LastSyncError,
	}
}

type SyncQueueEntryResponse struct {
	ID               string         `json:"id"`
	ChannelManagerID string         `json:"channel_manager_id"`
	RoomTypeID       string         `json:"room_type_id"`
	DateFrom         string         `json:"date_from"`
	DateTo           string         `json:"date_to"`
	AvailabilityData map[string]int `json:"availability_data"`
	Status           string         `json:"status"`
	RetryCount       int            `json:"retry_count"`
	NextRetryAt      *time.Time     `json:"next_retry_at"`
	LastAttemptAt    *time.Time     `json:"last_attempt_at"`
	LastError        *string        `json:"last_error"`
	TriggeredBy      string         `json:"triggered_by"`
	BookingID        *string        `json:"booking_id,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}

func FromSyncQueueEntry(e gorm.SyncQueueEntry) SyncQueueEntryResponse {
	return SyncQueueEntryResponse{
		ID:               e.ID,
		ChannelManagerID: e.ChannelManagerID,
		RoomTypeID:       e.RoomTypeID,
		DateFrom:         inventory.FormatDay(e.DateFrom),
		DateTo:           inventory.FormatDay(e.DateTo),
		AvailabilityData: e.AvailabilityData,
		Status:           e.Status,
		RetryCount:       e.RetryCount,
		NextRetryAt:      e.NextRetryAt,
		LastAttemptAt:    e.LastAttemptAt,
		LastError:        e.LastError,
		TriggeredBy:      e.TriggeredBy,
		BookingID:        e.BookingID,
		CreatedAt:        e.CreatedAt,
	}
}

type SyncLogResponse struct {
	ID               string    `json:"id"`
	QueueEntryID     string    `json:"queue_entry_id"`
	ChannelManagerID string    `json:"channel_manager_id"`
	RequestPayload   string    `json:"request_payload"`
	ResponsePayload  *string   `json:"response_payload"`
	StatusCode       *int      `json:"status_code"`
	DurationMs       int64     `json:"duration_ms"`
	Success          bool      `json:"success"`
	ErrorMessage     *string   `json:"error_message"`
	CreatedAt        time.Time `json:"created_at"`
}

func FromSyncLog(l gorm.SyncLog) SyncLogResponse {
	return SyncLogResponse{
		ID:               l.ID,
		QueueEntryID:     l.QueueEntryID,
		ChannelManagerID: l.ChannelManagerID,
		RequestPayload:   l.RequestPayload,
		ResponsePayload:  l.ResponsePayload,
		StatusCode:       l.StatusCode,
		DurationMs:       l.DurationMs,
		Success:          l.Success,
		ErrorMessage:     l.ErrorMessage,
		CreatedAt:        l.CreatedAt,
	}
}

type BlackoutResponse struct {
	ID         string  `json:"id"`
	RoomTypeID string  `json:"room_type_id"`
	Date       string  `json:"date"`
	UnitNumber *string `json:"unit_number"`
	Reason     string  `json:"reason,omitempty"`
	CreatedBy  string  `json:"created_by,omitempty"`
}

func FromBlackout(b gorm.BlackoutDate) BlackoutResponse {
	return BlackoutResponse{
		ID:         b.ID,
		RoomTypeID: b.RoomTypeID,
		Date:       inventory.FormatDay(b.Date),
		UnitNumber: b.UnitNumber,
		Reason:     b.Reason,
		CreatedBy:  b.CreatedBy,
	}
}

// MapSlice converts a slice of rows with fn.
func MapSlice[S any, T any](in []S, fn func(S) T) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}
