package payroll

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
)

// EmployeeDTO is the API shape of an employee.
type EmployeeDTO struct {
	ID                    uuid.UUID            `json:"id"`
	EmployeeNumber        string               `json:"employee_number"`
	UserID                *uuid.UUID           `json:"user_id,omitempty"`
	FirstName             string               `json:"first_name"`
	MiddleName            *string              `json:"middle_name,omitempty"`
	LastName              string               `json:"last_name"`
	FullName              string               `json:"full_name"`
	NationalID            string               `json:"national_id"`
	EmploymentType        enums.EmploymentType `json:"employment_type"`
	Status                enums.EmployeeStatus `json:"status"`
	JobTitle              string               `json:"job_title"`
	Department            *string              `json:"department,omitempty"`
	HireDate              time.Time            `json:"hire_date"`
	TerminationDate       *time.Time           `json:"termination_date,omitempty"`
	BankName              *string              `json:"bank_name,omitempty"`
	BankAccountNumber     *string              `json:"bank_account_number,omitempty"`
	BankBranch            *string              `json:"bank_branch,omitempty"`
	KRAPin                *string              `json:"kra_pin,omitempty"`
	EmergencyContactName  *string              `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone *string              `json:"emergency_contact_phone,omitempty"`
	CreatedAt             time.Time            `json:"created_at"`
}

// StructureDTO is the API shape of a salary structure.
type StructureDTO struct {
	ID                 uuid.UUID        `json:"id"`
	EmployeeID         uuid.UUID        `json:"employee_id"`
	BasicSalary        decimal.Decimal  `json:"basic_salary"`
	HousingAllowance   decimal.Decimal  `json:"housing_allowance"`
	TransportAllowance decimal.Decimal  `json:"transport_allowance"`
	MedicalAllowance   decimal.Decimal  `json:"medical_allowance"`
	MealAllowance      decimal.Decimal  `json:"meal_allowance"`
	OtherAllowance     decimal.Decimal  `json:"other_allowance"`
	GrossSalary        decimal.Decimal  `json:"gross_salary"`
	CommissionEnabled  bool             `json:"commission_enabled"`
	CommissionRate     *decimal.Decimal `json:"commission_rate,omitempty"`
	OvertimeEnabled    bool             `json:"overtime_enabled"`
	OvertimeHourlyRate *decimal.Decimal `json:"overtime_hourly_rate,omitempty"`
	EffectiveFrom      time.Time        `json:"effective_from"`
	EffectiveTo        *time.Time       `json:"effective_to,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
}

// CommissionDTO is the API shape of a commission.
type CommissionDTO struct {
	ID             uuid.UUID              `json:"id"`
	EmployeeID     uuid.UUID              `json:"employee_id"`
	Description    string                 `json:"description"`
	Amount         decimal.Decimal        `json:"amount"`
	Rate           *decimal.Decimal       `json:"rate,omitempty"`
	BaseAmount     *decimal.Decimal       `json:"base_amount,omitempty"`
	VehicleSaleID  *uuid.UUID             `json:"vehicle_sale_id,omitempty"`
	CommissionDate time.Time              `json:"commission_date"`
	PayrollMonth   time.Time              `json:"payroll_month"`
	Status         enums.CommissionStatus `json:"status"`
	ApprovedBy     *uuid.UUID             `json:"approved_by,omitempty"`
	ApprovedAt     *time.Time             `json:"approved_at,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}

// DeductionDTO is the API shape of a deduction.
type DeductionDTO struct {
	ID           uuid.UUID                `json:"id"`
	EmployeeID   uuid.UUID                `json:"employee_id"`
	Type         enums.DeductionType      `json:"type"`
	Description  string                   `json:"description"`
	Amount       *decimal.Decimal         `json:"amount,omitempty"`
	Percentage   *decimal.Decimal         `json:"percentage,omitempty"`
	IsPercentage bool                     `json:"is_percentage"`
	Frequency    enums.DeductionFrequency `json:"frequency"`
	StartDate    time.Time                `json:"start_date"`
	EndDate      *time.Time               `json:"end_date,omitempty"`
	IsActive     bool                     `json:"is_active"`
	CreatedAt    time.Time                `json:"created_at"`
}

// RunDTO is the API shape of a payroll run.
type RunDTO struct {
	ID              uuid.UUID              `json:"id"`
	RunNumber       string                 `json:"run_number"`
	PayrollMonth    time.Time              `json:"payroll_month"`
	Status          enums.PayrollRunStatus `json:"status"`
	TotalGross      decimal.Decimal        `json:"total_gross"`
	TotalDeductions decimal.Decimal        `json:"total_deductions"`
	TotalNet        decimal.Decimal        `json:"total_net"`
	EmployeeCount   int                    `json:"employee_count"`
	ProcessedAt     *time.Time             `json:"processed_at,omitempty"`
	ApprovedBy      *uuid.UUID             `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time             `json:"approved_at,omitempty"`
	PaidAt          *time.Time             `json:"paid_at,omitempty"`
	Notes           *string                `json:"notes,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
}

// PayslipDTO is the API shape of a payslip.
type PayslipDTO struct {
	ID               uuid.UUID       `json:"id"`
	PayrollRunID     uuid.UUID       `json:"payroll_run_id"`
	EmployeeID       uuid.UUID       `json:"employee_id"`
	EmployeeName     string          `json:"employee_name,omitempty"`
	BasicSalary      decimal.Decimal `json:"basic_salary"`
	Allowances       decimal.Decimal `json:"allowances"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	OvertimeAmount   decimal.Decimal `json:"overtime_amount"`
	BonusAmount      decimal.Decimal `json:"bonus_amount"`
	GrossPay         decimal.Decimal `json:"gross_pay"`
	TaxDeduction     decimal.Decimal `json:"tax_deduction"`
	PensionDeduction decimal.Decimal `json:"pension_deduction"`
	OtherDeductions  decimal.Decimal `json:"other_deductions"`
	TotalDeductions  decimal.Decimal `json:"total_deductions"`
	NetPay           decimal.Decimal `json:"net_pay"`
	IsPaid           bool            `json:"is_paid"`
	PaymentReference *string         `json:"payment_reference,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// CreateEmployeeRequest registers a payroll subject.
type CreateEmployeeRequest struct {
	UserID                *uuid.UUID           `json:"user_id"`
	FirstName             string               `json:"first_name" validate:"required"`
	MiddleName            *string              `json:"middle_name"`
	LastName              string               `json:"last_name" validate:"required"`
	NationalID            string               `json:"national_id" validate:"required"`
	EmploymentType        enums.EmploymentType `json:"employment_type"`
	JobTitle              string               `json:"job_title" validate:"required"`
	Department            *string              `json:"department"`
	HireDate              time.Time            `json:"hire_date" validate:"required"`
	BankName              *string              `json:"bank_name"`
	BankAccountNumber     *string              `json:"bank_account_number"`
	BankBranch            *string              `json:"bank_branch"`
	KRAPin                *string              `json:"kra_pin"`
	EmergencyContactName  *string              `json:"emergency_contact_name"`
	EmergencyContactPhone *string              `json:"emergency_contact_phone"`
}

// UpdateEmployeeRequest carries partial employee edits.
type UpdateEmployeeRequest struct {
	FirstName             *string               `json:"first_name"`
	MiddleName            *string               `json:"middle_name"`
	LastName              *string               `json:"last_name"`
	EmploymentType        *enums.EmploymentType `json:"employment_type"`
	JobTitle              *string               `json:"job_title"`
	Department            *string               `json:"department"`
	BankName              *string               `json:"bank_name"`
	BankAccountNumber     *string               `json:"bank_account_number"`
	BankBranch            *string               `json:"bank_branch"`
	KRAPin                *string               `json:"kra_pin"`
	EmergencyContactName  *string               `json:"emergency_contact_name"`
	EmergencyContactPhone *string               `json:"emergency_contact_phone"`
}

// ChangeEmployeeStatusRequest moves an employee between statuses.
type ChangeEmployeeStatusRequest struct {
	Status          enums.EmployeeStatus `json:"status" validate:"required"`
	TerminationDate *time.Time           `json:"termination_date"`
}

// CreateStructureRequest adds a salary structure effective from a date.
type CreateStructureRequest struct {
	EmployeeID         uuid.UUID        `json:"employee_id" validate:"required"`
	BasicSalary        decimal.Decimal  `json:"basic_salary" validate:"required"`
	HousingAllowance   decimal.Decimal  `json:"housing_allowance"`
	TransportAllowance decimal.Decimal  `json:"transport_allowance"`
	MedicalAllowance   decimal.Decimal  `json:"medical_allowance"`
	MealAllowance      decimal.Decimal  `json:"meal_allowance"`
	OtherAllowance     decimal.Decimal  `json:"other_allowance"`
	CommissionEnabled  bool             `json:"commission_enabled"`
	CommissionRate     *decimal.Decimal `json:"commission_rate"`
	OvertimeEnabled    bool             `json:"overtime_enabled"`
	OvertimeHourlyRate *decimal.Decimal `json:"overtime_hourly_rate"`
	EffectiveFrom      time.Time        `json:"effective_from" validate:"required"`
}

// CreateCommissionRequest records an earned commission.
type CreateCommissionRequest struct {
	EmployeeID     uuid.UUID        `json:"employee_id" validate:"required"`
	Description    string           `json:"description" validate:"required"`
	Amount         decimal.Decimal  `json:"amount"`
	Rate           *decimal.Decimal `json:"rate"`
	BaseAmount     *decimal.Decimal `json:"base_amount"`
	VehicleSaleID  *uuid.UUID       `json:"vehicle_sale_id"`
	CommissionDate *time.Time       `json:"commission_date"`
	PayrollMonth   *time.Time       `json:"payroll_month"`
}

// CreateDeductionRequest adds a deduction against an employee.
type CreateDeductionRequest struct {
	EmployeeID   uuid.UUID                 `json:"employee_id" validate:"required"`
	Type         enums.DeductionType       `json:"type" validate:"required"`
	Description  string                    `json:"description" validate:"required"`
	Amount       *decimal.Decimal          `json:"amount"`
	Percentage   *decimal.Decimal          `json:"percentage"`
	IsPercentage bool                      `json:"is_percentage"`
	Frequency    *enums.DeductionFrequency `json:"frequency"`
	StartDate    time.Time                 `json:"start_date" validate:"required"`
	EndDate      *time.Time                `json:"end_date"`
}

// UpdateDeductionRequest carries partial deduction edits.
type UpdateDeductionRequest struct {
	Description *string          `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
	Percentage  *decimal.Decimal `json:"percentage"`
	EndDate     *time.Time       `json:"end_date"`
	IsActive    *bool            `json:"is_active"`
}

// CreateRunRequest opens a payroll run for a month.
type CreateRunRequest struct {
	PayrollMonth time.Time `json:"payroll_month" validate:"required"`
	Notes        *string   `json:"notes"`
}

// MarkRunPaidRequest settles an approved run.
type MarkRunPaidRequest struct {
	PaymentReference *string `json:"payment_reference"`
}

// EmployeeFilter narrows employee listings.
type EmployeeFilter struct {
	Status     enums.EmployeeStatus
	Department string
	Search     string
}

// CommissionFilter narrows commission listings.
type CommissionFilter struct {
	EmployeeID   *uuid.UUID
	Status       enums.CommissionStatus
	PayrollMonth *time.Time
}

// Page is one cursor-bounded slice of results.
type Page[T any] struct {
	Items      []T     `json:"items"`
	NextCursor *string `json:"next_cursor,omitempty"`
}

func pageOf[T any](items []T, limit int, cursorFor func(T) pagination.Cursor) Page[T] {
	page := Page[T]{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		cursor := cursorFor(page.Items[limit-1]).Encode()
		page.NextCursor = &cursor
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	return page
}

func employeeFromModel(e *models.Employee) *EmployeeDTO {
	return &EmployeeDTO{
		ID:                    e.ID,
		EmployeeNumber:        e.EmployeeNumber,
		UserID:                e.UserID,
		FirstName:             e.FirstName,
		MiddleName:            e.MiddleName,
		LastName:              e.LastName,
		FullName:              e.FullName(),
		NationalID:            e.NationalID,
		EmploymentType:        e.EmploymentType,
		Status:                e.Status,
		JobTitle:              e.JobTitle,
		Department:            e.Department,
		HireDate:              e.HireDate,
		TerminationDate:       e.TerminationDate,
		BankName:              e.BankName,
		BankAccountNumber:     e.BankAccountNumber,
		BankBranch:            e.BankBranch,
		KRAPin:                e.KRAPin,
		EmergencyContactName:  e.EmergencyContactName,
		EmergencyContactPhone: e.EmergencyContactPhone,
		CreatedAt:             e.CreatedAt,
	}
}

func structureFromModel(s *models.SalaryStructure) *StructureDTO {
	return &StructureDTO{
		ID:                 s.ID,
		EmployeeID:         s.EmployeeID,
		BasicSalary:        s.BasicSalary,
		HousingAllowance:   s.HousingAllowance,
		TransportAllowance: s.TransportAllowance,
		MedicalAllowance:   s.MedicalAllowance,
		MealAllowance:      s.MealAllowance,
		OtherAllowance:     s.OtherAllowance,
		GrossSalary:        s.GrossSalary(),
		CommissionEnabled:  s.CommissionEnabled,
		CommissionRate:     s.CommissionRate,
		OvertimeEnabled:    s.OvertimeEnabled,
		OvertimeHourlyRate: s.OvertimeHourlyRate,
		EffectiveFrom:      s.EffectiveFrom,
		EffectiveTo:        s.EffectiveTo,
		CreatedAt:          s.CreatedAt,
	}
}

func commissionFromModel(c *models.Commission) *CommissionDTO {
	return &CommissionDTO{
		ID:             c.ID,
		EmployeeID:     c.EmployeeID,
		Description:    c.Description,
		Amount:         c.Amount,
		Rate:           c.Rate,
		BaseAmount:     c.BaseAmount,
		VehicleSaleID:  c.VehicleSaleID,
		CommissionDate: c.CommissionDate,
		PayrollMonth:   c.PayrollMonth,
		Status:         c.Status,
		ApprovedBy:     c.ApprovedBy,
		ApprovedAt:     c.ApprovedAt,
		CreatedAt:      c.CreatedAt,
	}
}

func deductionFromModel(d *models.Deduction) *DeductionDTO {
	return &DeductionDTO{
		ID:           d.ID,
		EmployeeID:   d.EmployeeID,
		Type:         d.Type,
		Description:  d.Description,
		Amount:       d.Amount,
		Percentage:   d.Percentage,
		IsPercentage: d.IsPercentage,
		Frequency:    d.Frequency,
		StartDate:    d.StartDate,
		EndDate:      d.EndDate,
		IsActive:     d.IsActive,
		CreatedAt:    d.CreatedAt,
	}
}

func runFromModel(r *models.PayrollRun) *RunDTO {
	return &RunDTO{
		ID:              r.ID,
		RunNumber:       r.RunNumber,
		PayrollMonth:    r.PayrollMonth,
		Status:          r.Status,
		TotalGross:      r.TotalGross,
		TotalDeductions: r.TotalDeductions,
		TotalNet:        r.TotalNet,
		EmployeeCount:   r.EmployeeCount,
		ProcessedAt:     r.ProcessedAt,
		ApprovedBy:      r.ApprovedBy,
		ApprovedAt:      r.ApprovedAt,
		PaidAt:          r.PaidAt,
		Notes:           r.Notes,
		CreatedAt:       r.CreatedAt,
	}
}

func payslipFromModel(p *models.Payslip) *PayslipDTO {
	dto := &PayslipDTO{
		ID:           p.ID,
		PayrollRunID: p.PayrollRunID,
		EmployeeID:   p.EmployeeID,
		BasicSalary:  p.BasicSalary,
		Allowances: p.HousingAllowance.
			Add(p.TransportAllowance).
			Add(p.MedicalAllowance).
			Add(p.MealAllowance).
			Add(p.OtherAllowance),
		CommissionAmount: p.CommissionAmount,
		OvertimeAmount:   p.OvertimeAmount,
		BonusAmount:      p.BonusAmount,
		GrossPay:         p.GrossPay,
		TaxDeduction:     p.TaxDeduction,
		PensionDeduction: p.PensionDeduction,
		OtherDeductions:  p.OtherDeductions,
		TotalDeductions:  p.TotalDeductions,
		NetPay:           p.NetPay,
		IsPaid:           p.IsPaid,
		PaymentReference: p.PaymentReference,
		CreatedAt:        p.CreatedAt,
	}
	if p.Employee != nil {
		dto.EmployeeName = p.Employee.FullName()
	}
	return dto
}
