package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// Repossession is a recovery case opened against a defaulted agreement.
type Repossession struct {
	ID                 uuid.UUID                     `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CaseNumber         string                        `gorm:"column:case_number;not null;uniqueIndex"`
	ClientVehicleID    uuid.UUID                     `gorm:"column:client_vehicle_id;type:uuid;not null;index"`
	Reason             enums.RepossessionReason      `gorm:"column:reason;type:repossession_reason;not null"`
	Status             enums.RepossessionStatus      `gorm:"column:status;type:repossession_status;not null;default:'pending';index"`
	OutstandingAmount  decimal.Decimal               `gorm:"column:outstanding_amount;type:numeric(12,2);not null"`
	PaymentsMissed     int                           `gorm:"column:payments_missed;not null;default:0"`
	NoticeSentDate     *time.Time                    `gorm:"column:notice_sent_date"`
	RecoveryDate       *time.Time                    `gorm:"column:recovery_date"`
	CompletionDate     *time.Time                    `gorm:"column:completion_date"`
	AssignedTo         *uuid.UUID                    `gorm:"column:assigned_to;type:uuid"`
	LastKnownLocation  *string                       `gorm:"column:last_known_location"`
	RecoveryLocation   *string                       `gorm:"column:recovery_location"`
	RecoveryMethod     *string                       `gorm:"column:recovery_method"`
	RecoveryAgent      *string                       `gorm:"column:recovery_agent"`
	CourtOrderRequired bool                          `gorm:"column:court_order_required;not null;default:false"`
	CourtOrderNumber   *string                       `gorm:"column:court_order_number"`
	RecoveryCost       decimal.Decimal               `gorm:"column:recovery_cost;type:numeric(12,2);not null;default:0"`
	StorageCost        decimal.Decimal               `gorm:"column:storage_cost;type:numeric(12,2);not null;default:0"`
	LegalCost          decimal.Decimal               `gorm:"column:legal_cost;type:numeric(12,2);not null;default:0"`
	OtherCost          decimal.Decimal               `gorm:"column:other_cost;type:numeric(12,2);not null;default:0"`
	Resolution         *enums.RepossessionResolution `gorm:"column:resolution;type:repossession_resolution"`
	Notes              *string                       `gorm:"column:notes"`
	InitiatedBy        *uuid.UUID                    `gorm:"column:initiated_by;type:uuid"`
	Agreement          *ClientVehicle                `gorm:"foreignKey:ClientVehicleID"`
	CreatedAt          time.Time                     `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt          time.Time                     `gorm:"column:updated_at;autoUpdateTime"`
}

// TotalCost sums every cost bucket booked against the case.
func (r Repossession) TotalCost() decimal.Decimal {
	return r.RecoveryCost.Add(r.StorageCost).Add(r.LegalCost).Add(r.OtherCost)
}
