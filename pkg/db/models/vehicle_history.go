package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// VehicleHistory is an append-only record of vehicle status transitions.
type VehicleHistory struct {
	ID        uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	VehicleID uuid.UUID           `gorm:"column:vehicle_id;type:uuid;not null;index"`
	OldStatus enums.VehicleStatus `gorm:"column:old_status;type:vehicle_status;not null"`
	NewStatus enums.VehicleStatus `gorm:"column:new_status;type:vehicle_status;not null"`
	Notes     *string             `gorm:"column:notes"`
	ChangedBy *uuid.UUID          `gorm:"column:changed_by;type:uuid"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime;index"`
}
