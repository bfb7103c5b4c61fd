package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// Deduction reduces an employee's net pay, once or every month.
type Deduction struct {
	ID           uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	EmployeeID   uuid.UUID                `gorm:"column:employee_id;type:uuid;not null;index"`
	Type         enums.DeductionType      `gorm:"column:type;type:deduction_type;not null"`
	Description  string                   `gorm:"column:description;not null"`
	Amount       *decimal.Decimal         `gorm:"column:amount;type:numeric(12,2)"`
	Percentage   *decimal.Decimal         `gorm:"column:percentage;type:numeric(5,2)"`
	IsPercentage bool                     `gorm:"column:is_percentage;not null;default:false"`
	Frequency    enums.DeductionFrequency `gorm:"column:frequency;type:deduction_frequency;not null;default:'monthly'"`
	StartDate    time.Time                `gorm:"column:start_date;type:date;not null"`
	EndDate      *time.Time               `gorm:"column:end_date;type:date"`
	IsActive     bool                     `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

// AppliesToMonth reports whether the deduction hits the given payroll month.
func (d Deduction) AppliesToMonth(monthStart time.Time) bool {
	if !d.IsActive {
		return false
	}
	monthEnd := monthStart.AddDate(0, 1, -1)
	if d.Frequency == enums.DeductionOneTime {
		return !d.StartDate.Before(monthStart) && !d.StartDate.After(monthEnd)
	}
	if monthEnd.Before(d.StartDate) {
		return false
	}
	return d.EndDate == nil || !monthStart.After(*d.EndDate)
}

// AmountFor resolves the deduction value against a gross salary.
func (d Deduction) AmountFor(gross decimal.Decimal) decimal.Decimal {
	if d.IsPercentage {
		if d.Percentage == nil {
			return decimal.Zero
		}
		return gross.Mul(*d.Percentage).Div(decimal.NewFromInt(100)).Round(2)
	}
	if d.Amount == nil {
		return decimal.Zero
	}
	return *d.Amount
}
