package models

import (
	"time"

	"github.com/google/uuid"
)

// VehiclePhoto stores one gallery image reference for a vehicle.
type VehiclePhoto struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	VehicleID    uuid.UUID `gorm:"column:vehicle_id;type:uuid;not null;index"`
	Path         string    `gorm:"column:path;not null"`
	Caption      *string   `gorm:"column:caption"`
	DisplayOrder int       `gorm:"column:display_order;not null;default:0"`
	IsPrimary    bool      `gorm:"column:is_primary;not null;default:false"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}
