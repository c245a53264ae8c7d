package gorm

import (
	"time"

	"guesthouse/roomsync/internal/models"

	"github.com/google/uuid"
	gormlib "gorm.io/gorm"
)

// SyncQueueEntry is one push of a room/date-window snapshot to one channel
// manager. AvailabilityData is captured at enqueue time and never rewritten.
type SyncQueueEntry struct {
	ID               string                 `gorm:"column:id;primaryKey;type:uuid"`
	ChannelManagerID string                 `gorm:"column:channel_manager_id;type:uuid;not null;index"`
	RoomTypeID       string                 `gorm:"column:room_type_id;type:uuid;not null;index"`
	DateFrom         time.Time              `gorm:"column:date_from;type:date;not null"`
	DateTo           time.Time              `gorm:"column:date_to;type:date;not null"`
	AvailabilityData models.AvailabilityMap `gorm:"column:availability_data;not null"`
	Status           string                 `gorm:"column:status;type:varchar(20);not null;index"`
	RetryCount       int                    `gorm:"column:retry_count;default:0"`
	NextRetryAt      *time.Time             `gorm:"column:next_retry_at;index"`
	LastAttemptAt    *time.Time             `gorm:"column:last_attempt_at"`
	LastError        *string                `gorm:"column:last_error;type:text"`
	TriggeredBy      string                 `gorm:"column:triggered_by;type:varchar(20);not null"`
	BookingID        *string                `gorm:"column:booking_id;type:uuid"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (SyncQueueEntry) TableName() string {
	return "sync_queue"
}

func (e *SyncQueueEntry) BeforeCreate(tx *gormlib.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
