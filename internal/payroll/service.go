package payroll

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	pkgerrors "github.com/dealerdeskhq/dealerdesk-backend/pkg/errors"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/refs"
)

// Service exposes employees, salary structures, commissions, deductions
// and monthly payroll runs.
type Service interface {
	CreateEmployee(ctx context.Context, req CreateEmployeeRequest) (*EmployeeDTO, error)
	GetEmployee(ctx context.Context, id uuid.UUID) (*EmployeeDTO, error)
	ListEmployees(ctx context.Context, filter EmployeeFilter, params pagination.Params) (Page[EmployeeDTO], error)
	UpdateEmployee(ctx context.Context, id uuid.UUID, req UpdateEmployeeRequest) (*EmployeeDTO, error)
	ChangeEmployeeStatus(ctx context.Context, id uuid.UUID, req ChangeEmployeeStatusRequest) (*EmployeeDTO, error)

	CreateStructure(ctx context.Context, req CreateStructureRequest) (*StructureDTO, error)
	ListStructures(ctx context.Context, employeeID uuid.UUID) ([]StructureDTO, error)

	CreateCommission(ctx context.Context, req CreateCommissionRequest) (*CommissionDTO, error)
	ApproveCommission(ctx context.Context, id uuid.UUID, approverID uuid.UUID) (*CommissionDTO, error)
	RejectCommission(ctx context.Context, id uuid.UUID) (*CommissionDTO, error)
	ListCommissions(ctx context.Context, filter CommissionFilter) ([]CommissionDTO, error)

	CreateDeduction(ctx context.Context, req CreateDeductionRequest) (*DeductionDTO, error)
	UpdateDeduction(ctx context.Context, id uuid.UUID, req UpdateDeductionRequest) (*DeductionDTO, error)
	ListDeductions(ctx context.Context, employeeID uuid.UUID, activeOnly bool) ([]DeductionDTO, error)

	CreateRun(ctx context.Context, req CreateRunRequest, createdBy uuid.UUID) (*RunDTO, error)
	GetRun(ctx context.Context, id uuid.UUID) (*RunDTO, error)
	ListRuns(ctx context.Context, params pagination.Params) (Page[RunDTO], error)
	ProcessRun(ctx context.Context, id uuid.UUID) (*RunDTO, error)
	ApproveRun(ctx context.Context, id uuid.UUID, approverID uuid.UUID) (*RunDTO, error)
	MarkRunPaid(ctx context.Context, id uuid.UUID, req MarkRunPaidRequest) (*RunDTO, error)
	CancelRun(ctx context.Context, id uuid.UUID) (*RunDTO, error)
	ListPayslips(ctx context.Context, runID uuid.UUID) ([]PayslipDTO, error)
	GetPayslip(ctx context.Context, id uuid.UUID) (*PayslipDTO, error)
}

type repository interface {
	CreateEmployeeTx(tx *gorm.DB, employee *models.Employee) error
	FindEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error)
	FindEmployeeByNationalID(ctx context.Context, nationalID string) (*models.Employee, error)
	ListEmployees(ctx context.Context, filter EmployeeFilter, cursor *pagination.Cursor, limit int) ([]models.Employee, error)
	ListActiveEmployees(ctx context.Context) ([]models.Employee, error)
	UpdateEmployee(ctx context.Context, employee *models.Employee) error
	CreateStructureTx(tx *gorm.DB, structure *models.SalaryStructure) error
	ListStructures(ctx context.Context, employeeID uuid.UUID) ([]models.SalaryStructure, error)
	ActiveStructure(ctx context.Context, employeeID uuid.UUID, monthStart time.Time) (*models.SalaryStructure, error)
	CloseOpenStructureTx(tx *gorm.DB, employeeID uuid.UUID, endDate time.Time) error
	CreateCommission(ctx context.Context, commission *models.Commission) error
	FindCommission(ctx context.Context, id uuid.UUID) (*models.Commission, error)
	ListCommissions(ctx context.Context, filter CommissionFilter) ([]models.Commission, error)
	TransitionCommissionTx(tx *gorm.DB, id uuid.UUID, from, to enums.CommissionStatus, updates map[string]any) (bool, error)
	ApprovedCommissionTotalTx(tx *gorm.DB, employeeID uuid.UUID, monthStart time.Time) (decimal.Decimal, error)
	MarkMonthCommissionsPaidTx(tx *gorm.DB, monthStart time.Time) error
	CreateDeduction(ctx context.Context, deduction *models.Deduction) error
	FindDeduction(ctx context.Context, id uuid.UUID) (*models.Deduction, error)
	ListDeductions(ctx context.Context, employeeID uuid.UUID, activeOnly bool) ([]models.Deduction, error)
	ListDeductionsTx(tx *gorm.DB, employeeID uuid.UUID) ([]models.Deduction, error)
	UpdateDeduction(ctx context.Context, deduction *models.Deduction) error
	CreateRunTx(tx *gorm.DB, run *models.PayrollRun) error
	FindRun(ctx context.Context, id uuid.UUID) (*models.PayrollRun, error)
	FindRunByMonth(ctx context.Context, monthStart time.Time) (*models.PayrollRun, error)
	ListRuns(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.PayrollRun, error)
	TransitionRunTx(tx *gorm.DB, id uuid.UUID, from, to enums.PayrollRunStatus, updates map[string]any) (bool, error)
	CreatePayslipsTx(tx *gorm.DB, payslips []models.Payslip) error
	ListPayslips(ctx context.Context, runID uuid.UUID) ([]models.Payslip, error)
	FindPayslip(ctx context.Context, id uuid.UUID) (*models.Payslip, error)
	MarkPayslipsPaidTx(tx *gorm.DB, runID uuid.UUID, reference *string) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type numberAllocator func(tx *gorm.DB, now time.Time) (string, error)

type service struct {
	repo         repository
	db           txRunner
	nextEmployee numberAllocator
	nextRun      numberAllocator
}

// NewService wires the payroll service.
func NewService(repo repository, db txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payroll repository is required")
	}
	if db == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	return &service{
		repo: repo,
		db:   db,
		nextEmployee: func(tx *gorm.DB, now time.Time) (string, error) {
			return refs.Next(tx, refs.Employee, now)
		},
		nextRun: func(tx *gorm.DB, now time.Time) (string, error) {
			return refs.Next(tx, refs.PayrollRun, now)
		},
	}, nil
}

var hundred = decimal.NewFromInt(100)

func (s *service) CreateEmployee(ctx context.Context, req CreateEmployeeRequest) (*EmployeeDTO, error) {
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first and last name are required")
	}
	nationalID := strings.TrimSpace(req.NationalID)
	if nationalID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "national ID is required")
	}
	if strings.TrimSpace(req.JobTitle) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "job title is required")
	}
	if req.HireDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "hire date is required")
	}
	employmentType := req.EmploymentType
	if employmentType == "" {
		employmentType = enums.EmploymentFullTime
	}
	if !employmentType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid employment type")
	}
	if existing, err := s.repo.FindEmployeeByNationalID(ctx, nationalID); err == nil && existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "national ID already registered")
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup employee")
	}

	employee := &models.Employee{
		UserID:                req.UserID,
		FirstName:             strings.TrimSpace(req.FirstName),
		MiddleName:            req.MiddleName,
		LastName:              strings.TrimSpace(req.LastName),
		NationalID:            nationalID,
		EmploymentType:        employmentType,
		Status:                enums.EmployeeActive,
		JobTitle:              strings.TrimSpace(req.JobTitle),
		Department:            req.Department,
		HireDate:              req.HireDate,
		BankName:              req.BankName,
		BankAccountNumber:     req.BankAccountNumber,
		BankBranch:            req.BankBranch,
		KRAPin:                req.KRAPin,
		EmergencyContactName:  req.EmergencyContactName,
		EmergencyContactPhone: req.EmergencyContactPhone,
	}
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		number, err := s.nextEmployee(tx, time.Now().UTC())
		if err != nil {
			return err
		}
		employee.EmployeeNumber = number
		return s.repo.CreateEmployeeTx(tx, employee)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create employee")
	}
	return employeeFromModel(employee), nil
}

func (s *service) GetEmployee(ctx context.Context, id uuid.UUID) (*EmployeeDTO, error) {
	employee, err := s.findEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	return employeeFromModel(employee), nil
}

func (s *service) ListEmployees(ctx context.Context, filter EmployeeFilter, params pagination.Params) (Page[EmployeeDTO], error) {
	limit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return Page[EmployeeDTO]{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	employees, err := s.repo.ListEmployees(ctx, filter, cursor, pagination.LimitWithBuffer(limit))
	if err != nil {
		return Page[EmployeeDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list employees")
	}
	dtos := make([]EmployeeDTO, 0, len(employees))
	for i := range employees {
		dtos = append(dtos, *employeeFromModel(&employees[i]))
	}
	return pageOf(dtos, limit, func(dto EmployeeDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: dto.CreatedAt, ID: dto.ID}
	}), nil
}

func (s *service) UpdateEmployee(ctx context.Context, id uuid.UUID, req UpdateEmployeeRequest) (*EmployeeDTO, error) {
	employee, err := s.findEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	if employee.Status == enums.EmployeeTerminated || employee.Status == enums.EmployeeResigned {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "employee record is closed")
	}
	if req.FirstName != nil {
		if strings.TrimSpace(*req.FirstName) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "first name cannot be empty")
		}
		employee.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.MiddleName != nil {
		employee.MiddleName = req.MiddleName
	}
	if req.LastName != nil {
		if strings.TrimSpace(*req.LastName) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "last name cannot be empty")
		}
		employee.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.EmploymentType != nil {
		if !req.EmploymentType.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid employment type")
		}
		employee.EmploymentType = *req.EmploymentType
	}
	if req.JobTitle != nil {
		employee.JobTitle = strings.TrimSpace(*req.JobTitle)
	}
	if req.Department != nil {
		employee.Department = req.Department
	}
	if req.BankName != nil {
		employee.BankName = req.BankName
	}
	if req.BankAccountNumber != nil {
		employee.BankAccountNumber = req.BankAccountNumber
	}
	if req.BankBranch != nil {
		employee.BankBranch = req.BankBranch
	}
	if req.KRAPin != nil {
		employee.KRAPin = req.KRAPin
	}
	if req.EmergencyContactName != nil {
		employee.EmergencyContactName = req.EmergencyContactName
	}
	if req.EmergencyContactPhone != nil {
		employee.EmergencyContactPhone = req.EmergencyContactPhone
	}
	if err := s.repo.UpdateEmployee(ctx, employee); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update employee")
	}
	return employeeFromModel(employee), nil
}

func (s *service) ChangeEmployeeStatus(ctx context.Context, id uuid.UUID, req ChangeEmployeeStatusRequest) (*EmployeeDTO, error) {
	if !req.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid employee status")
	}
	employee, err := s.findEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	if employee.Status == enums.EmployeeTerminated || employee.Status == enums.EmployeeResigned {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "employee record is closed")
	}
	if employee.Status == req.Status {
		return employeeFromModel(employee), nil
	}
	employee.Status = req.Status
	if req.Status == enums.EmployeeTerminated || req.Status == enums.EmployeeResigned {
		when := time.Now().UTC()
		if req.TerminationDate != nil {
			when = *req.TerminationDate
		}
		employee.TerminationDate = &when
	}
	if err := s.repo.UpdateEmployee(ctx, employee); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "change employee status")
	}
	return employeeFromModel(employee), nil
}

// CreateStructure adds a salary structure and ends the employee's open
// one the day before the new effective date.
func (s *service) CreateStructure(ctx context.Context, req CreateStructureRequest) (*StructureDTO, error) {
	if req.BasicSalary.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "basic salary must be positive")
	}
	for _, allowance := range []decimal.Decimal{
		req.HousingAllowance, req.TransportAllowance, req.MedicalAllowance,
		req.MealAllowance, req.OtherAllowance,
	} {
		if allowance.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "allowances cannot be negative")
		}
	}
	if req.CommissionEnabled {
		if req.CommissionRate == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "commission rate is required when commission is enabled")
		}
		if req.CommissionRate.IsNegative() || req.CommissionRate.GreaterThan(hundred) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "commission rate must be between 0 and 100")
		}
	}
	if req.OvertimeEnabled {
		if req.OvertimeHourlyRate == nil || req.OvertimeHourlyRate.LessThanOrEqual(decimal.Zero) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "overtime hourly rate must be positive when overtime is enabled")
		}
	}
	if req.EffectiveFrom.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "effective date is required")
	}
	if _, err := s.findEmployee(ctx, req.EmployeeID); err != nil {
		return nil, err
	}

	structure := &models.SalaryStructure{
		EmployeeID:         req.EmployeeID,
		BasicSalary:        req.BasicSalary,
		HousingAllowance:   req.HousingAllowance,
		TransportAllowance: req.TransportAllowance,
		MedicalAllowance:   req.MedicalAllowance,
		MealAllowance:      req.MealAllowance,
		OtherAllowance:     req.OtherAllowance,
		CommissionEnabled:  req.CommissionEnabled,
		CommissionRate:     req.CommissionRate,
		OvertimeEnabled:    req.OvertimeEnabled,
		OvertimeHourlyRate: req.OvertimeHourlyRate,
		EffectiveFrom:      req.EffectiveFrom,
	}
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.CloseOpenStructureTx(tx, req.EmployeeID, req.EffectiveFrom); err != nil {
			return err
		}
		return s.repo.CreateStructureTx(tx, structure)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create salary structure")
	}
	return structureFromModel(structure), nil
}

func (s *service) ListStructures(ctx context.Context, employeeID uuid.UUID) ([]StructureDTO, error) {
	structures, err := s.repo.ListStructures(ctx, employeeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list salary structures")
	}
	out := make([]StructureDTO, 0, len(structures))
	for i := range structures {
		out = append(out, *structureFromModel(&structures[i]))
	}
	return out, nil
}

func (s *service) CreateCommission(ctx context.Context, req CreateCommissionRequest) (*CommissionDTO, error) {
	if strings.TrimSpace(req.Description) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}
	amount := req.Amount
	if amount.LessThanOrEqual(decimal.Zero) {
		if req.Rate == nil || req.BaseAmount == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "either an amount or a rate with a base amount is required")
		}
		if req.Rate.IsNegative() || req.Rate.GreaterThan(hundred) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "rate must be between 0 and 100")
		}
		amount = req.BaseAmount.Mul(*req.Rate).Div(hundred).Round(2)
		if amount.LessThanOrEqual(decimal.Zero) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "computed commission must be positive")
		}
	}
	if _, err := s.findEmployee(ctx, req.EmployeeID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	commissionDate := now
	if req.CommissionDate != nil {
		commissionDate = req.CommissionDate.UTC()
	}
	payrollMonth := monthStart(commissionDate)
	if req.PayrollMonth != nil {
		payrollMonth = monthStart(req.PayrollMonth.UTC())
	}

	commission := &models.Commission{
		EmployeeID:     req.EmployeeID,
		Description:    strings.TrimSpace(req.Description),
		Amount:         amount,
		Rate:           req.Rate,
		BaseAmount:     req.BaseAmount,
		VehicleSaleID:  req.VehicleSaleID,
		CommissionDate: commissionDate,
		PayrollMonth:   payrollMonth,
		Status:         enums.CommissionPending,
	}
	if err := s.repo.CreateCommission(ctx, commission); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create commission")
	}
	return commissionFromModel(commission), nil
}

func (s *service) ApproveCommission(ctx context.Context, id uuid.UUID, approverID uuid.UUID) (*CommissionDTO, error) {
	now := time.Now().UTC()
	return s.moveCommission(ctx, id, enums.CommissionApproved, map[string]any{
		"approved_by": approverID,
		"approved_at": now,
	})
}

func (s *service) RejectCommission(ctx context.Context, id uuid.UUID) (*CommissionDTO, error) {
	return s.moveCommission(ctx, id, enums.CommissionRejected, nil)
}

func (s *service) moveCommission(ctx context.Context, id uuid.UUID, to enums.CommissionStatus, updates map[string]any) (*CommissionDTO, error) {
	commission, err := s.repo.FindCommission(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "commission not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup commission")
	}
	if commission.Status != enums.CommissionPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only pending commissions can be decided")
	}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		moved, err := s.repo.TransitionCommissionTx(tx, id, enums.CommissionPending, to, updates)
		if err != nil {
			return err
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "commission state changed, retry")
		}
		return nil
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "transition commission")
	}
	updated, err := s.repo.FindCommission(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload commission")
	}
	return commissionFromModel(updated), nil
}

func (s *service) ListCommissions(ctx context.Context, filter CommissionFilter) ([]CommissionDTO, error) {
	if filter.PayrollMonth != nil {
		normalized := monthStart(filter.PayrollMonth.UTC())
		filter.PayrollMonth = &normalized
	}
	commissions, err := s.repo.ListCommissions(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list commissions")
	}
	out := make([]CommissionDTO, 0, len(commissions))
	for i := range commissions {
		out = append(out, *commissionFromModel(&commissions[i]))
	}
	return out, nil
}

func (s *service) CreateDeduction(ctx context.Context, req CreateDeductionRequest) (*DeductionDTO, error) {
	if !req.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid deduction type")
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}
	if req.IsPercentage {
		if req.Percentage == nil || req.Percentage.LessThanOrEqual(decimal.Zero) || req.Percentage.GreaterThan(hundred) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage must be between 0 and 100")
		}
	} else {
		if req.Amount == nil || req.Amount.LessThanOrEqual(decimal.Zero) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
		}
	}
	if req.StartDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "start date is required")
	}
	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date cannot precede start date")
	}
	frequency := enums.DeductionMonthly
	if req.Frequency != nil {
		if !req.Frequency.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid deduction frequency")
		}
		frequency = *req.Frequency
	}
	if _, err := s.findEmployee(ctx, req.EmployeeID); err != nil {
		return nil, err
	}

	deduction := &models.Deduction{
		EmployeeID:   req.EmployeeID,
		Type:         req.Type,
		Description:  strings.TrimSpace(req.Description),
		Amount:       req.Amount,
		Percentage:   req.Percentage,
		IsPercentage: req.IsPercentage,
		Frequency:    frequency,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		IsActive:     true,
	}
	if err := s.repo.CreateDeduction(ctx, deduction); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create deduction")
	}
	return deductionFromModel(deduction), nil
}

func (s *service) UpdateDeduction(ctx context.Context, id uuid.UUID, req UpdateDeductionRequest) (*DeductionDTO, error) {
	deduction, err := s.repo.FindDeduction(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "deduction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup deduction")
	}
	if req.Description != nil {
		deduction.Description = strings.TrimSpace(*req.Description)
	}
	if req.Amount != nil {
		if req.Amount.LessThanOrEqual(decimal.Zero) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
		}
		deduction.Amount = req.Amount
	}
	if req.Percentage != nil {
		if req.Percentage.LessThanOrEqual(decimal.Zero) || req.Percentage.GreaterThan(hundred) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage must be between 0 and 100")
		}
		deduction.Percentage = req.Percentage
	}
	if req.EndDate != nil {
		deduction.EndDate = req.EndDate
	}
	if req.IsActive != nil {
		deduction.IsActive = *req.IsActive
	}
	if err := s.repo.UpdateDeduction(ctx, deduction); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update deduction")
	}
	return deductionFromModel(deduction), nil
}

func (s *service) ListDeductions(ctx context.Context, employeeID uuid.UUID, activeOnly bool) ([]DeductionDTO, error) {
	deductions, err := s.repo.ListDeductions(ctx, employeeID, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list deductions")
	}
	out := make([]DeductionDTO, 0, len(deductions))
	for i := range deductions {
		out = append(out, *deductionFromModel(&deductions[i]))
	}
	return out, nil
}

func (s *service) CreateRun(ctx context.Context, req CreateRunRequest, createdBy uuid.UUID) (*RunDTO, error) {
	if req.PayrollMonth.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payroll month is required")
	}
	month := monthStart(req.PayrollMonth.UTC())
	if existing, err := s.repo.FindRunByMonth(ctx, month); err == nil && existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("payroll run %s already covers this month", existing.RunNumber))
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup payroll run")
	}

	run := &models.PayrollRun{
		PayrollMonth: month,
		Status:       enums.PayrollRunDraft,
		Notes:        req.Notes,
		CreatedBy:    &createdBy,
	}
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		number, err := s.nextRun(tx, month)
		if err != nil {
			return err
		}
		run.RunNumber = number
		return s.repo.CreateRunTx(tx, run)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create payroll run")
	}
	return runFromModel(run), nil
}

func (s *service) GetRun(ctx context.Context, id uuid.UUID) (*RunDTO, error) {
	run, err := s.findRun(ctx, id)
	if err != nil {
		return nil, err
	}
	return runFromModel(run), nil
}

func (s *service) ListRuns(ctx context.Context, params pagination.Params) (Page[RunDTO], error) {
	limit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return Page[RunDTO]{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	runs, err := s.repo.ListRuns(ctx, cursor, pagination.LimitWithBuffer(limit))
	if err != nil {
		return Page[RunDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list payroll runs")
	}
	dtos := make([]RunDTO, 0, len(runs))
	for i := range runs {
		dtos = append(dtos, *runFromModel(&runs[i]))
	}
	return pageOf(dtos, limit, func(dto RunDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: dto.CreatedAt, ID: dto.ID}
	}), nil
}

// ProcessRun generates one payslip per active employee with a salary
// structure covering the month, from the structure, the month's
// approved commissions and applicable deductions, then totals the run.
func (s *service) ProcessRun(ctx context.Context, id uuid.UUID) (*RunDTO, error) {
	run, err := s.findRun(ctx, id)
	if err != nil {
		return nil, err
	}
	if run.Status != enums.PayrollRunDraft {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only draft runs can be processed")
	}
	employees, err := s.repo.ListActiveEmployees(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list active employees")
	}

	month := run.PayrollMonth
	now := time.Now().UTC()
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		moved, err := s.repo.TransitionRunTx(tx, id, enums.PayrollRunDraft, enums.PayrollRunProcessing, nil)
		if err != nil {
			return err
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payroll run state changed, retry")
		}

		var payslips []models.Payslip
		totalGross := decimal.Zero
		totalDeductions := decimal.Zero
		totalNet := decimal.Zero
		for i := range employees {
			employee := employees[i]
			structure, err := s.repo.ActiveStructure(ctx, employee.ID, month)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue // no pay defined for this month
				}
				return err
			}
			payslip, err := s.buildPayslip(ctx, tx, run.ID, &employee, structure, month)
			if err != nil {
				return err
			}
			totalGross = totalGross.Add(payslip.GrossPay)
			totalDeductions = totalDeductions.Add(payslip.TotalDeductions)
			totalNet = totalNet.Add(payslip.NetPay)
			payslips = append(payslips, *payslip)
		}
		if err := s.repo.CreatePayslipsTx(tx, payslips); err != nil {
			return err
		}

		moved, err = s.repo.TransitionRunTx(tx, id, enums.PayrollRunProcessing, enums.PayrollRunCompleted, map[string]any{
			"total_gross":      totalGross,
			"total_deductions": totalDeductions,
			"total_net":        totalNet,
			"employee_count":   len(payslips),
			"processed_at":     now,
		})
		if err != nil {
			return err
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payroll run state changed, retry")
		}
		return nil
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "process payroll run")
	}
	return s.GetRun(ctx, id)
}

func (s *service) buildPayslip(ctx context.Context, tx *gorm.DB, runID uuid.UUID, employee *models.Employee, structure *models.SalaryStructure, month time.Time) (*models.Payslip, error) {
	commission := decimal.Zero
	if structure.CommissionEnabled {
		total, err := s.repo.ApprovedCommissionTotalTx(tx, employee.ID, month)
		if err != nil {
			return nil, err
		}
		commission = total
	}
	gross := structure.GrossSalary().Add(commission)

	tax := decimal.Zero
	pension := decimal.Zero
	other := decimal.Zero
	deductions, err := s.repo.ListDeductionsTx(tx, employee.ID)
	if err != nil {
		return nil, err
	}
	for _, deduction := range deductions {
		if !deduction.AppliesToMonth(month) {
			continue
		}
		amount := deduction.AmountFor(gross)
		switch deduction.Type {
		case enums.DeductionTax:
			tax = tax.Add(amount)
		case enums.DeductionPension:
			pension = pension.Add(amount)
		default:
			other = other.Add(amount)
		}
	}
	totalDeductions := tax.Add(pension).Add(other)
	net := gross.Sub(totalDeductions)

	return &models.Payslip{
		PayrollRunID:       runID,
		EmployeeID:         employee.ID,
		BasicSalary:        structure.BasicSalary,
		HousingAllowance:   structure.HousingAllowance,
		TransportAllowance: structure.TransportAllowance,
		MedicalAllowance:   structure.MedicalAllowance,
		MealAllowance:      structure.MealAllowance,
		OtherAllowance:     structure.OtherAllowance,
		CommissionAmount:   commission,
		OvertimeAmount:     decimal.Zero,
		BonusAmount:        decimal.Zero,
		GrossPay:           gross,
		TaxDeduction:       tax,
		PensionDeduction:   pension,
		OtherDeductions:    other,
		TotalDeductions:    totalDeductions,
		NetPay:             net,
	}, nil
}

func (s *service) ApproveRun(ctx context.Context, id uuid.UUID, approverID uuid.UUID) (*RunDTO, error) {
	now := time.Now().UTC()
	return s.moveRun(ctx, id, enums.PayrollRunCompleted, enums.PayrollRunApproved, map[string]any{
		"approved_by": approverID,
		"approved_at": now,
	}, nil)
}

func (s *service) MarkRunPaid(ctx context.Context, id uuid.UUID, req MarkRunPaidRequest) (*RunDTO, error) {
	run, err := s.findRun(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return s.moveRun(ctx, id, enums.PayrollRunApproved, enums.PayrollRunPaid, map[string]any{
		"paid_at": now,
	}, func(tx *gorm.DB) error {
		if err := s.repo.MarkPayslipsPaidTx(tx, id, req.PaymentReference); err != nil {
			return err
		}
		return s.repo.MarkMonthCommissionsPaidTx(tx, run.PayrollMonth)
	})
}

func (s *service) CancelRun(ctx context.Context, id uuid.UUID) (*RunDTO, error) {
	run, err := s.findRun(ctx, id)
	if err != nil {
		return nil, err
	}
	if run.Status != enums.PayrollRunDraft && run.Status != enums.PayrollRunProcessing {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only draft or processing runs can be cancelled")
	}
	return s.moveRun(ctx, id, run.Status, enums.PayrollRunCancelled, nil, nil)
}

func (s *service) moveRun(ctx context.Context, id uuid.UUID, from, to enums.PayrollRunStatus, updates map[string]any, extra func(tx *gorm.DB) error) (*RunDTO, error) {
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		moved, err := s.repo.TransitionRunTx(tx, id, from, to, updates)
		if err != nil {
			return err
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("payroll run is not %s", from))
		}
		if extra != nil {
			return extra(tx)
		}
		return nil
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "transition payroll run")
	}
	return s.GetRun(ctx, id)
}

func (s *service) ListPayslips(ctx context.Context, runID uuid.UUID) ([]PayslipDTO, error) {
	if _, err := s.findRun(ctx, runID); err != nil {
		return nil, err
	}
	payslips, err := s.repo.ListPayslips(ctx, runID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list payslips")
	}
	out := make([]PayslipDTO, 0, len(payslips))
	for i := range payslips {
		out = append(out, *payslipFromModel(&payslips[i]))
	}
	return out, nil
}

func (s *service) GetPayslip(ctx context.Context, id uuid.UUID) (*PayslipDTO, error) {
	payslip, err := s.repo.FindPayslip(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payslip not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup payslip")
	}
	return payslipFromModel(payslip), nil
}

func (s *service) findEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	employee, err := s.repo.FindEmployee(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "employee not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup employee")
	}
	return employee, nil
}

func (s *service) findRun(ctx context.Context, id uuid.UUID) (*models.PayrollRun, error) {
	run, err := s.repo.FindRun(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payroll run not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup payroll run")
	}
	return run, nil
}

// monthStart normalizes to the first day of t's month.
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
