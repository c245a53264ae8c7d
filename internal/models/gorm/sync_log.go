package gorm

import (
	"time"

	"github.com/google/uuid"
	gormlib "gorm.io/gorm"
)

// SyncLog is the append-only record of one dispatch attempt.
// RequestPayload holds the exact transmitted bytes, so it is plain text and
// not jsonb (which would re-serialize it).
type SyncLog struct {
	ID               string    `gorm:"column:id;primaryKey;type:uuid"`
	QueueEntryID     string    `gorm:"column:queue_entry_id;type:uuid;not null;index"`
	ChannelManagerID string    `gorm:"column:channel_manager_id;type:uuid;not null;index"`
	RoomTypeID       string    `gorm:"column:room_type_id;type:uuid;not null"`
	RequestPayload   string    `gorm:"column:request_payload;type:text"`
	ResponsePayload  *string   `gorm:"column:response_payload;type:text"`
	StatusCode       *int      `gorm:"column:status_code"`
	DurationMs       int64     `gorm:"column:duration_ms"`
	Success          bool      `gorm:"column:success"`
	ErrorMessage     *string   `gorm:"column:error_message;type:text"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime;index"`
}

// TableName specifies the table name for GORM
func (SyncLog) TableName() string {
	return "sync_logs"
}

func (l *SyncLog) BeforeCreate(tx *gormlib.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
