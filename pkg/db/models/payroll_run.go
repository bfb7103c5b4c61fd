package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// PayrollRun is one month's payroll batch.
type PayrollRun struct {
	ID              uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RunNumber       string                 `gorm:"column:run_number;not null;uniqueIndex"`
	PayrollMonth    time.Time              `gorm:"column:payroll_month;type:date;not null;uniqueIndex"`
	Status          enums.PayrollRunStatus `gorm:"column:status;type:payroll_run_status;not null;default:'draft';index"`
	TotalGross      decimal.Decimal        `gorm:"column:total_gross;type:numeric(14,2);not null;default:0"`
	TotalDeductions decimal.Decimal        `gorm:"column:total_deductions;type:numeric(14,2);not null;default:0"`
	TotalNet        decimal.Decimal        `gorm:"column:total_net;type:numeric(14,2);not null;default:0"`
	EmployeeCount   int                    `gorm:"column:employee_count;not null;default:0"`
	ProcessedAt     *time.Time             `gorm:"column:processed_at"`
	ApprovedBy      *uuid.UUID             `gorm:"column:approved_by;type:uuid"`
	ApprovedAt      *time.Time             `gorm:"column:approved_at"`
	PaidAt          *time.Time             `gorm:"column:paid_at"`
	Notes           *string                `gorm:"column:notes"`
	CreatedBy       *uuid.UUID             `gorm:"column:created_by;type:uuid"`
	CreatedAt       time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
