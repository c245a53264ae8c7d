package gorm

import (
	"time"

	"guesthouse/roomsync/internal/inventory"
	"guesthouse/roomsync/internal/models"

	"github.com/google/uuid"
	gormlib "gorm.io/gorm"
)

// RoomType is a sellable category of room.
type RoomType struct {
	ID          string            `gorm:"column:id;primaryKey;type:uuid"`
	Name        string            `gorm:"column:name;type:varchar(120);not null"`
	UnitNumbers models.StringList `gorm:"column:unit_numbers"`
	Allotment   int               `gorm:"column:allotment;default:0"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (RoomType) TableName() string {
	return "room_types"
}

func (r *RoomType) BeforeCreate(tx *gormlib.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Inventory converts the row into the calculator's unit model.
func (r RoomType) Inventory() inventory.RoomInventory {
	return inventory.RoomInventory{
		RoomTypeID:  r.ID,
		UnitNumbers: []string(r.UnitNumbers),
		Allotment:   r.Allotment,
	}
}
