package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// RepossessionRecoveryAttempt logs one physical attempt to recover a vehicle.
type RepossessionRecoveryAttempt struct {
	ID                 uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RepossessionID     uuid.UUID            `gorm:"column:repossession_id;type:uuid;not null;index"`
	AttemptedAt        time.Time            `gorm:"column:attempted_at;not null"`
	Result             enums.RecoveryResult `gorm:"column:result;type:recovery_result;not null"`
	Location           string               `gorm:"column:location;not null"`
	TeamSize           int                  `gorm:"column:team_size;not null;default:1"`
	PoliceInvolved     bool                 `gorm:"column:police_involved;not null;default:false"`
	PoliceReportNumber *string              `gorm:"column:police_report_number"`
	VehicleCondition   *string              `gorm:"column:vehicle_condition"`
	CostIncurred       decimal.Decimal      `gorm:"column:cost_incurred;type:numeric(12,2);not null;default:0"`
	Notes              *string              `gorm:"column:notes"`
	AttemptedBy        *uuid.UUID           `gorm:"column:attempted_by;type:uuid"`
	CreatedAt          time.Time            `gorm:"column:created_at;autoCreateTime"`
}
