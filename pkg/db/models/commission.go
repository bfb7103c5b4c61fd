package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// Commission is a sales incentive earned by an employee.
type Commission struct {
	ID             uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	EmployeeID     uuid.UUID              `gorm:"column:employee_id;type:uuid;not null;index"`
	Description    string                 `gorm:"column:description;not null"`
	Amount         decimal.Decimal        `gorm:"column:amount;type:numeric(12,2);not null"`
	Rate           *decimal.Decimal       `gorm:"column:rate;type:numeric(5,2)"`
	BaseAmount     *decimal.Decimal       `gorm:"column:base_amount;type:numeric(12,2)"`
	VehicleSaleID  *uuid.UUID             `gorm:"column:vehicle_sale_id;type:uuid"`
	CommissionDate time.Time              `gorm:"column:commission_date;type:date;not null"`
	PayrollMonth   time.Time              `gorm:"column:payroll_month;type:date;not null;index"`
	Status         enums.CommissionStatus `gorm:"column:status;type:commission_status;not null;default:'pending';index"`
	ApprovedBy     *uuid.UUID             `gorm:"column:approved_by;type:uuid"`
	ApprovedAt     *time.Time             `gorm:"column:approved_at"`
	CreatedAt      time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
