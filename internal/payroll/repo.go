package payroll

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
)

// Repo is the gorm-backed store for employees, salary structures,
// commissions, deductions and payroll runs.
type Repo struct {
	db *gorm.DB
}

// NewRepo builds a Repo on the given connection.
func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) CreateEmployeeTx(tx *gorm.DB, employee *models.Employee) error {
	return tx.Create(employee).Error
}

func (r *Repo) FindEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	var employee models.Employee
	if err := r.db.WithContext(ctx).First(&employee, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &employee, nil
}

func (r *Repo) FindEmployeeByNationalID(ctx context.Context, nationalID string) (*models.Employee, error) {
	var employee models.Employee
	err := r.db.WithContext(ctx).First(&employee, "national_id = ?", nationalID).Error
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

func (r *Repo) ListEmployees(ctx context.Context, filter EmployeeFilter, cursor *pagination.Cursor, limit int) ([]models.Employee, error) {
	query := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Department != "" {
		query = query.Where("department = ?", filter.Department)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where(
			"employee_number ILIKE ? OR first_name ILIKE ? OR last_name ILIKE ? OR national_id ILIKE ?",
			pattern, pattern, pattern, pattern)
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	var employees []models.Employee
	if err := query.Find(&employees).Error; err != nil {
		return nil, err
	}
	return employees, nil
}

func (r *Repo) ListActiveEmployees(ctx context.Context) ([]models.Employee, error) {
	var employees []models.Employee
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.EmployeeActive).
		Order("employee_number ASC").
		Find(&employees).Error
	if err != nil {
		return nil, err
	}
	return employees, nil
}

func (r *Repo) UpdateEmployee(ctx context.Context, employee *models.Employee) error {
	return r.db.WithContext(ctx).Save(employee).Error
}

func (r *Repo) CreateStructureTx(tx *gorm.DB, structure *models.SalaryStructure) error {
	return tx.Create(structure).Error
}

func (r *Repo) ListStructures(ctx context.Context, employeeID uuid.UUID) ([]models.SalaryStructure, error) {
	var structures []models.SalaryStructure
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("effective_from DESC").
		Find(&structures).Error
	if err != nil {
		return nil, err
	}
	return structures, nil
}

// ActiveStructure returns the structure covering the given month start,
// preferring the most recently effective one.
func (r *Repo) ActiveStructure(ctx context.Context, employeeID uuid.UUID, monthStart time.Time) (*models.SalaryStructure, error) {
	var structure models.SalaryStructure
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Where("effective_from <= ?", monthStart).
		Where("effective_to IS NULL OR effective_to >= ?", monthStart).
		Order("effective_from DESC").
		First(&structure).Error
	if err != nil {
		return nil, err
	}
	return &structure, nil
}

// CloseOpenStructureTx ends the employee's open structure the day
// before a new one takes effect.
func (r *Repo) CloseOpenStructureTx(tx *gorm.DB, employeeID uuid.UUID, endDate time.Time) error {
	return tx.Model(&models.SalaryStructure{}).
		Where("employee_id = ? AND effective_to IS NULL AND effective_from < ?", employeeID, endDate).
		Updates(map[string]any{
			"effective_to": endDate.AddDate(0, 0, -1),
			"updated_at":   time.Now().UTC(),
		}).Error
}

func (r *Repo) CreateCommission(ctx context.Context, commission *models.Commission) error {
	return r.db.WithContext(ctx).Create(commission).Error
}

func (r *Repo) FindCommission(ctx context.Context, id uuid.UUID) (*models.Commission, error) {
	var commission models.Commission
	if err := r.db.WithContext(ctx).First(&commission, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &commission, nil
}

func (r *Repo) ListCommissions(ctx context.Context, filter CommissionFilter) ([]models.Commission, error) {
	query := r.db.WithContext(ctx).Order("commission_date DESC, created_at DESC")
	if filter.EmployeeID != nil {
		query = query.Where("employee_id = ?", *filter.EmployeeID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PayrollMonth != nil {
		query = query.Where("payroll_month = ?", *filter.PayrollMonth)
	}
	var commissions []models.Commission
	if err := query.Find(&commissions).Error; err != nil {
		return nil, err
	}
	return commissions, nil
}

// TransitionCommissionTx moves a commission between statuses guarded by
// the current status.
func (r *Repo) TransitionCommissionTx(tx *gorm.DB, id uuid.UUID, from, to enums.CommissionStatus, updates map[string]any) (bool, error) {
	set := map[string]any{"status": to, "updated_at": time.Now().UTC()}
	for k, v := range updates {
		set[k] = v
	}
	result := tx.Model(&models.Commission{}).
		Where("id = ? AND status = ?", id, from).
		Updates(set)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ApprovedCommissionTotalTx sums an employee's approved commissions for
// the payroll month.
func (r *Repo) ApprovedCommissionTotalTx(tx *gorm.DB, employeeID uuid.UUID, monthStart time.Time) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := tx.Model(&models.Commission{}).
		Select("SUM(amount)").
		Where("employee_id = ? AND payroll_month = ? AND status = ?",
			employeeID, monthStart, enums.CommissionApproved).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// MarkMonthCommissionsPaidTx flips the month's approved commissions to
// paid when the run settles.
func (r *Repo) MarkMonthCommissionsPaidTx(tx *gorm.DB, monthStart time.Time) error {
	return tx.Model(&models.Commission{}).
		Where("payroll_month = ? AND status = ?", monthStart, enums.CommissionApproved).
		Updates(map[string]any{
			"status":     enums.CommissionPaid,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *Repo) CreateDeduction(ctx context.Context, deduction *models.Deduction) error {
	return r.db.WithContext(ctx).Create(deduction).Error
}

func (r *Repo) FindDeduction(ctx context.Context, id uuid.UUID) (*models.Deduction, error) {
	var deduction models.Deduction
	if err := r.db.WithContext(ctx).First(&deduction, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &deduction, nil
}

func (r *Repo) ListDeductions(ctx context.Context, employeeID uuid.UUID, activeOnly bool) ([]models.Deduction, error) {
	query := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("created_at DESC")
	if activeOnly {
		query = query.Where("is_active")
	}
	var deductions []models.Deduction
	if err := query.Find(&deductions).Error; err != nil {
		return nil, err
	}
	return deductions, nil
}

func (r *Repo) ListDeductionsTx(tx *gorm.DB, employeeID uuid.UUID) ([]models.Deduction, error) {
	var deductions []models.Deduction
	err := tx.Where("employee_id = ? AND is_active", employeeID).
		Find(&deductions).Error
	if err != nil {
		return nil, err
	}
	return deductions, nil
}

func (r *Repo) UpdateDeduction(ctx context.Context, deduction *models.Deduction) error {
	return r.db.WithContext(ctx).Save(deduction).Error
}

func (r *Repo) CreateRunTx(tx *gorm.DB, run *models.PayrollRun) error {
	return tx.Create(run).Error
}

func (r *Repo) FindRun(ctx context.Context, id uuid.UUID) (*models.PayrollRun, error) {
	var run models.PayrollRun
	if err := r.db.WithContext(ctx).First(&run, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *Repo) FindRunByMonth(ctx context.Context, monthStart time.Time) (*models.PayrollRun, error) {
	var run models.PayrollRun
	err := r.db.WithContext(ctx).First(&run, "payroll_month = ?", monthStart).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *Repo) ListRuns(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.PayrollRun, error) {
	query := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	var runs []models.PayrollRun
	if err := query.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// TransitionRunTx moves a run between statuses with a conditional
// UPDATE so concurrent transitions cannot double-apply.
func (r *Repo) TransitionRunTx(tx *gorm.DB, id uuid.UUID, from, to enums.PayrollRunStatus, updates map[string]any) (bool, error) {
	set := map[string]any{"status": to, "updated_at": time.Now().UTC()}
	for k, v := range updates {
		set[k] = v
	}
	result := tx.Model(&models.PayrollRun{}).
		Where("id = ? AND status = ?", id, from).
		Updates(set)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Repo) CreatePayslipsTx(tx *gorm.DB, payslips []models.Payslip) error {
	if len(payslips) == 0 {
		return nil
	}
	return tx.Create(&payslips).Error
}

func (r *Repo) ListPayslips(ctx context.Context, runID uuid.UUID) ([]models.Payslip, error) {
	var payslips []models.Payslip
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Where("payroll_run_id = ?", runID).
		Order("created_at ASC").
		Find(&payslips).Error
	if err != nil {
		return nil, err
	}
	return payslips, nil
}

func (r *Repo) FindPayslip(ctx context.Context, id uuid.UUID) (*models.Payslip, error) {
	var payslip models.Payslip
	err := r.db.WithContext(ctx).
		Preload("Employee").
		First(&payslip, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &payslip, nil
}

// MarkPayslipsPaidTx flags every payslip on the run as paid.
func (r *Repo) MarkPayslipsPaidTx(tx *gorm.DB, runID uuid.UUID, reference *string) error {
	updates := map[string]any{
		"is_paid":    true,
		"updated_at": time.Now().UTC(),
	}
	if reference != nil {
		updates["payment_reference"] = *reference
	}
	return tx.Model(&models.Payslip{}).
		Where("payroll_run_id = ?", runID).
		Updates(updates).Error
}
