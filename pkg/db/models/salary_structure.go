package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalaryStructure defines pay components effective over a window.
type SalaryStructure struct {
	ID                 uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	EmployeeID         uuid.UUID        `gorm:"column:employee_id;type:uuid;not null;index"`
	BasicSalary        decimal.Decimal  `gorm:"column:basic_salary;type:numeric(12,2);not null"`
	HousingAllowance   decimal.Decimal  `gorm:"column:housing_allowance;type:numeric(12,2);not null;default:0"`
	TransportAllowance decimal.Decimal  `gorm:"column:transport_allowance;type:numeric(12,2);not null;default:0"`
	MedicalAllowance   decimal.Decimal  `gorm:"column:medical_allowance;type:numeric(12,2);not null;default:0"`
	MealAllowance      decimal.Decimal  `gorm:"column:meal_allowance;type:numeric(12,2);not null;default:0"`
	OtherAllowance     decimal.Decimal  `gorm:"column:other_allowance;type:numeric(12,2);not null;default:0"`
	CommissionEnabled  bool             `gorm:"column:commission_enabled;not null;default:false"`
	CommissionRate     *decimal.Decimal `gorm:"column:commission_rate;type:numeric(5,2)"`
	OvertimeEnabled    bool             `gorm:"column:overtime_enabled;not null;default:false"`
	OvertimeHourlyRate *decimal.Decimal `gorm:"column:overtime_hourly_rate;type:numeric(12,2)"`
	EffectiveFrom      time.Time        `gorm:"column:effective_from;type:date;not null;index"`
	EffectiveTo        *time.Time       `gorm:"column:effective_to;type:date"`
	CreatedAt          time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// GrossSalary sums the basic salary and all allowances.
func (s SalaryStructure) GrossSalary() decimal.Decimal {
	return s.BasicSalary.
		Add(s.HousingAllowance).
		Add(s.TransportAllowance).
		Add(s.MedicalAllowance).
		Add(s.MealAllowance).
		Add(s.OtherAllowance)
}

// CoversMonth reports whether the structure is effective for the month start.
func (s SalaryStructure) CoversMonth(monthStart time.Time) bool {
	if monthStart.Before(s.EffectiveFrom) {
		return false
	}
	return s.EffectiveTo == nil || !monthStart.After(*s.EffectiveTo)
}
