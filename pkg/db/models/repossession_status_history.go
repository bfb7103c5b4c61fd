package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// RepossessionStatusHistory is an append-only trail of case transitions.
type RepossessionStatusHistory struct {
	ID             uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RepossessionID uuid.UUID                `gorm:"column:repossession_id;type:uuid;not null;index"`
	OldStatus      enums.RepossessionStatus `gorm:"column:old_status;type:repossession_status;not null"`
	NewStatus      enums.RepossessionStatus `gorm:"column:new_status;type:repossession_status;not null"`
	Reason         *string                  `gorm:"column:reason"`
	ChangedBy      *uuid.UUID               `gorm:"column:changed_by;type:uuid"`
	CreatedAt      time.Time                `gorm:"column:created_at;autoCreateTime;index"`
}

// TableName keeps the plural irregular form used by the schema.
func (RepossessionStatusHistory) TableName() string {
	return "repossession_status_history"
}
