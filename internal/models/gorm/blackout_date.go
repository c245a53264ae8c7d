package gorm

import (
	"time"

	"guesthouse/roomsync/internal/inventory"

	"github.com/google/uuid"
	gormlib "gorm.io/gorm"
)

// BlackoutDate removes a unit (or the whole room type when UnitNumber is nil)
// from sale for one day.
type BlackoutDate struct {
	ID         string    `gorm:"column:id;primaryKey;type:uuid"`
	RoomTypeID string    `gorm:"column:room_type_id;type:uuid;not null;uniqueIndex:idx_blackout_room_unit_date"`
	UnitNumber *string   `gorm:"column:unit_number;type:varchar(40);uniqueIndex:idx_blackout_room_unit_date"`
	Date       time.Time `gorm:"column:date;type:date;not null;uniqueIndex:idx_blackout_room_unit_date"`
	Reason     string    `gorm:"column:reason;type:varchar(255)"`
	CreatedBy  string    `gorm:"column:created_by;type:varchar(120)"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table name for GORM
func (BlackoutDate) TableName() string {
	return "blackout_dates"
}

func (b *BlackoutDate) BeforeCreate(tx *gormlib.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

func (b BlackoutDate) Blackout() inventory.Blackout {
	return inventory.Blackout{
		RoomTypeID: b.RoomTypeID,
		Date:       b.Date,
		UnitNumber: b.UnitNumber,
	}
}
