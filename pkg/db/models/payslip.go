package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payslip snapshots one employee's pay for a payroll run.
type Payslip struct {
	ID                 uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PayrollRunID       uuid.UUID       `gorm:"column:payroll_run_id;type:uuid;not null;uniqueIndex:ux_payslips_run_employee;index"`
	EmployeeID         uuid.UUID       `gorm:"column:employee_id;type:uuid;not null;uniqueIndex:ux_payslips_run_employee;index"`
	BasicSalary        decimal.Decimal `gorm:"column:basic_salary;type:numeric(12,2);not null"`
	HousingAllowance   decimal.Decimal `gorm:"column:housing_allowance;type:numeric(12,2);not null;default:0"`
	TransportAllowance decimal.Decimal `gorm:"column:transport_allowance;type:numeric(12,2);not null;default:0"`
	MedicalAllowance   decimal.Decimal `gorm:"column:medical_allowance;type:numeric(12,2);not null;default:0"`
	MealAllowance      decimal.Decimal `gorm:"column:meal_allowance;type:numeric(12,2);not null;default:0"`
	OtherAllowance     decimal.Decimal `gorm:"column:other_allowance;type:numeric(12,2);not null;default:0"`
	CommissionAmount   decimal.Decimal `gorm:"column:commission_amount;type:numeric(12,2);not null;default:0"`
	OvertimeAmount     decimal.Decimal `gorm:"column:overtime_amount;type:numeric(12,2);not null;default:0"`
	BonusAmount        decimal.Decimal `gorm:"column:bonus_amount;type:numeric(12,2);not null;default:0"`
	GrossPay           decimal.Decimal `gorm:"column:gross_pay;type:numeric(12,2);not null"`
	TaxDeduction       decimal.Decimal `gorm:"column:tax_deduction;type:numeric(12,2);not null;default:0"`
	PensionDeduction   decimal.Decimal `gorm:"column:pension_deduction;type:numeric(12,2);not null;default:0"`
	OtherDeductions    decimal.Decimal `gorm:"column:other_deductions;type:numeric(12,2);not null;default:0"`
	TotalDeductions    decimal.Decimal `gorm:"column:total_deductions;type:numeric(12,2);not null;default:0"`
	NetPay             decimal.Decimal `gorm:"column:net_pay;type:numeric(12,2);not null"`
	IsPaid             bool            `gorm:"column:is_paid;not null;default:false"`
	PaymentReference   *string         `gorm:"column:payment_reference"`
	Employee           *Employee       `gorm:"foreignKey:EmployeeID"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
