package gorm

import (
	"time"

	"guesthouse/roomsync/internal/inventory"

	"github.com/google/uuid"
	gormlib "gorm.io/gorm"
)

// Booking is owned by the booking subsystem; this service only reads it.
type Booking struct {
	ID                  string    `gorm:"column:id;primaryKey;type:uuid"`
	RoomTypeID          string    `gorm:"column:room_type_id;type:uuid;not null;index"`
	CheckIn             time.Time `gorm:"column:check_in;type:date;not null;index"`
	CheckOut            time.Time `gorm:"column:check_out;type:date;not null;index"`
	Status              string    `gorm:"column:status;type:varchar(20);not null"`
	AllocatedUnitNumber *string   `gorm:"column:allocated_unit_number;type:varchar(40)"`
	UnitsCount          int       `gorm:"column:units_count;default:1"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time `gorm:"column:updated_at;autoUpdateTime"`

	// Relationships
	Units []BookingUnit `gorm:"foreignKey:BookingID"`
}

// TableName specifies the table name for GORM
func (Booking) TableName() string {
	return "bookings"
}

func (b *Booking) BeforeCreate(tx *gormlib.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// Stay flattens the single allocated unit and the per-unit allocations into
// one list for the calculator.
func (b Booking) Stay() inventory.Stay {
	var units []string
	if b.AllocatedUnitNumber != nil && *b.AllocatedUnitNumber != "" {
		units = append(units, *b.AllocatedUnitNumber)
	}
	for _, u := range b.Units {
		if u.UnitNumber != "" {
			units = append(units, u.UnitNumber)
		}
	}

	return inventory.Stay{
		BookingID:  b.ID,
		RoomTypeID: b.RoomTypeID,
		CheckIn:    b.CheckIn,
		CheckOut:   b.CheckOut,
		Status:     b.Status,
		Units:      units,
		UnitsCount: b.UnitsCount,
	}
}

// BookingUnit is one unit allocation of a multi-unit booking.
type BookingUnit struct {
	ID         string `gorm:"column:id;primaryKey;type:uuid"`
	BookingID  string `gorm:"column:booking_id;type:uuid;not null;index"`
	UnitNumber string `gorm:"column:unit_number;type:varchar(40);not null"`
}

// TableName specifies the table name for GORM
func (BookingUnit) TableName() string {
	return "booking_units"
}

func (u *BookingUnit) BeforeCreate(tx *gormlib.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
