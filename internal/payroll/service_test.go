package payroll

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	pkgerrors "github.com/dealerdeskhq/dealerdesk-backend/pkg/errors"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
)

type fakePayrollRepo struct {
	employees   map[uuid.UUID]*models.Employee
	structures  []*models.SalaryStructure
	commissions map[uuid.UUID]*models.Commission
	deductions  []*models.Deduction
	runs        map[uuid.UUID]*models.PayrollRun
	payslips    []*models.Payslip
}

func newFakePayrollRepo() *fakePayrollRepo {
	return &fakePayrollRepo{
		employees:   make(map[uuid.UUID]*models.Employee),
		commissions: make(map[uuid.UUID]*models.Commission),
		runs:        make(map[uuid.UUID]*models.PayrollRun),
	}
}

func (f *fakePayrollRepo) CreateEmployeeTx(_ *gorm.DB, employee *models.Employee) error {
	employee.ID = uuid.New()
	employee.CreatedAt = time.Now().UTC()
	f.employees[employee.ID] = employee
	return nil
}

func (f *fakePayrollRepo) FindEmployee(_ context.Context, id uuid.UUID) (*models.Employee, error) {
	employee, ok := f.employees[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *employee
	return &copied, nil
}

func (f *fakePayrollRepo) FindEmployeeByNationalID(_ context.Context, nationalID string) (*models.Employee, error) {
	for _, employee := range f.employees {
		if employee.NationalID == nationalID {
			copied := *employee
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePayrollRepo) ListEmployees(_ context.Context, filter EmployeeFilter, _ *pagination.Cursor, limit int) ([]models.Employee, error) {
	var out []models.Employee
	for _, employee := range f.employees {
		if filter.Status != "" && employee.Status != filter.Status {
			continue
		}
		out = append(out, *employee)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakePayrollRepo) ListActiveEmployees(_ context.Context) ([]models.Employee, error) {
	var out []models.Employee
	for _, employee := range f.employees {
		if employee.Status == enums.EmployeeActive {
			out = append(out, *employee)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeNumber < out[j].EmployeeNumber })
	return out, nil
}

func (f *fakePayrollRepo) UpdateEmployee(_ context.Context, employee *models.Employee) error {
	copied := *employee
	f.employees[employee.ID] = &copied
	return nil
}

func (f *fakePayrollRepo) CreateStructureTx(_ *gorm.DB, structure *models.SalaryStructure) error {
	structure.ID = uuid.New()
	structure.CreatedAt = time.Now().UTC()
	copied := *structure
	f.structures = append(f.structures, &copied)
	return nil
}

func (f *fakePayrollRepo) ListStructures(_ context.Context, employeeID uuid.UUID) ([]models.SalaryStructure, error) {
	var out []models.SalaryStructure
	for _, structure := range f.structures {
		if structure.EmployeeID == employeeID {
			out = append(out, *structure)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EffectiveFrom.After(out[j].EffectiveFrom) })
	return out, nil
}

func (f *fakePayrollRepo) ActiveStructure(_ context.Context, employeeID uuid.UUID, monthStart time.Time) (*models.SalaryStructure, error) {
	var best *models.SalaryStructure
	for _, structure := range f.structures {
		if structure.EmployeeID != employeeID {
			continue
		}
		if structure.EffectiveFrom.After(monthStart) {
			continue
		}
		if structure.EffectiveTo != nil && structure.EffectiveTo.Before(monthStart) {
			continue
		}
		if best == nil || structure.EffectiveFrom.After(best.EffectiveFrom) {
			best = structure
		}
	}
	if best == nil {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *best
	return &copied, nil
}

func (f *fakePayrollRepo) CloseOpenStructureTx(_ *gorm.DB, employeeID uuid.UUID, endDate time.Time) error {
	closing := endDate.AddDate(0, 0, -1)
	for _, structure := range f.structures {
		if structure.EmployeeID == employeeID && structure.EffectiveTo == nil && structure.EffectiveFrom.Before(endDate) {
			when := closing
			structure.EffectiveTo = &when
		}
	}
	return nil
}

func (f *fakePayrollRepo) CreateCommission(_ context.Context, commission *models.Commission) error {
	commission.ID = uuid.New()
	commission.CreatedAt = time.Now().UTC()
	f.commissions[commission.ID] = commission
	return nil
}

func (f *fakePayrollRepo) FindCommission(_ context.Context, id uuid.UUID) (*models.Commission, error) {
	commission, ok := f.commissions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *commission
	return &copied, nil
}

func (f *fakePayrollRepo) ListCommissions(_ context.Context, filter CommissionFilter) ([]models.Commission, error) {
	var out []models.Commission
	for _, commission := range f.commissions {
		if filter.EmployeeID != nil && commission.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Status != "" && commission.Status != filter.Status {
			continue
		}
		if filter.PayrollMonth != nil && !commission.PayrollMonth.Equal(*filter.PayrollMonth) {
			continue
		}
		out = append(out, *commission)
	}
	return out, nil
}

func (f *fakePayrollRepo) TransitionCommissionTx(_ *gorm.DB, id uuid.UUID, from, to enums.CommissionStatus, updates map[string]any) (bool, error) {
	commission, ok := f.commissions[id]
	if !ok || commission.Status != from {
		return false, nil
	}
	commission.Status = to
	for key, value := range updates {
		switch key {
		case "approved_by":
			v := value.(uuid.UUID)
			commission.ApprovedBy = &v
		case "approved_at":
			v := value.(time.Time)
			commission.ApprovedAt = &v
		}
	}
	return true, nil
}

func (f *fakePayrollRepo) ApprovedCommissionTotalTx(_ *gorm.DB, employeeID uuid.UUID, monthStart time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, commission := range f.commissions {
		if commission.EmployeeID == employeeID && commission.Status == enums.CommissionApproved && commission.PayrollMonth.Equal(monthStart) {
			total = total.Add(commission.Amount)
		}
	}
	return total, nil
}

func (f *fakePayrollRepo) MarkMonthCommissionsPaidTx(_ *gorm.DB, monthStart time.Time) error {
	for _, commission := range f.commissions {
		if commission.Status == enums.CommissionApproved && commission.PayrollMonth.Equal(monthStart) {
			commission.Status = enums.CommissionPaid
		}
	}
	return nil
}

func (f *fakePayrollRepo) CreateDeduction(_ context.Context, deduction *models.Deduction) error {
	deduction.ID = uuid.New()
	deduction.CreatedAt = time.Now().UTC()
	copied := *deduction
	f.deductions = append(f.deductions, &copied)
	return nil
}

func (f *fakePayrollRepo) FindDeduction(_ context.Context, id uuid.UUID) (*models.Deduction, error) {
	for _, deduction := range f.deductions {
		if deduction.ID == id {
			copied := *deduction
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePayrollRepo) ListDeductions(_ context.Context, employeeID uuid.UUID, activeOnly bool) ([]models.Deduction, error) {
	var out []models.Deduction
	for _, deduction := range f.deductions {
		if deduction.EmployeeID != employeeID {
			continue
		}
		if activeOnly && !deduction.IsActive {
			continue
		}
		out = append(out, *deduction)
	}
	return out, nil
}

func (f *fakePayrollRepo) ListDeductionsTx(_ *gorm.DB, employeeID uuid.UUID) ([]models.Deduction, error) {
	var out []models.Deduction
	for _, deduction := range f.deductions {
		if deduction.EmployeeID == employeeID && deduction.IsActive {
			out = append(out, *deduction)
		}
	}
	return out, nil
}

func (f *fakePayrollRepo) UpdateDeduction(_ context.Context, deduction *models.Deduction) error {
	for i, existing := range f.deductions {
		if existing.ID == deduction.ID {
			copied := *deduction
			f.deductions[i] = &copied
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakePayrollRepo) CreateRunTx(_ *gorm.DB, run *models.PayrollRun) error {
	run.ID = uuid.New()
	run.CreatedAt = time.Now().UTC()
	f.runs[run.ID] = run
	return nil
}

func (f *fakePayrollRepo) FindRun(_ context.Context, id uuid.UUID) (*models.PayrollRun, error) {
	run, ok := f.runs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *run
	return &copied, nil
}

func (f *fakePayrollRepo) FindRunByMonth(_ context.Context, monthStart time.Time) (*models.PayrollRun, error) {
	for _, run := range f.runs {
		if run.PayrollMonth.Equal(monthStart) && run.Status != enums.PayrollRunCancelled {
			copied := *run
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePayrollRepo) ListRuns(_ context.Context, _ *pagination.Cursor, limit int) ([]models.PayrollRun, error) {
	var out []models.PayrollRun
	for _, run := range f.runs {
		out = append(out, *run)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakePayrollRepo) TransitionRunTx(_ *gorm.DB, id uuid.UUID, from, to enums.PayrollRunStatus, updates map[string]any) (bool, error) {
	run, ok := f.runs[id]
	if !ok || run.Status != from {
		return false, nil
	}
	run.Status = to
	for key, value := range updates {
		switch key {
		case "total_gross":
			run.TotalGross = value.(decimal.Decimal)
		case "total_deductions":
			run.TotalDeductions = value.(decimal.Decimal)
		case "total_net":
			run.TotalNet = value.(decimal.Decimal)
		case "employee_count":
			run.EmployeeCount = value.(int)
		case "processed_at":
			v := value.(time.Time)
			run.ProcessedAt = &v
		case "approved_by":
			v := value.(uuid.UUID)
			run.ApprovedBy = &v
		case "approved_at":
			v := value.(time.Time)
			run.ApprovedAt = &v
		case "paid_at":
			v := value.(time.Time)
			run.PaidAt = &v
		}
	}
	return true, nil
}

func (f *fakePayrollRepo) CreatePayslipsTx(_ *gorm.DB, payslips []models.Payslip) error {
	for i := range payslips {
		payslips[i].ID = uuid.New()
		payslips[i].CreatedAt = time.Now().UTC()
		copied := payslips[i]
		f.payslips = append(f.payslips, &copied)
	}
	return nil
}

func (f *fakePayrollRepo) ListPayslips(_ context.Context, runID uuid.UUID) ([]models.Payslip, error) {
	var out []models.Payslip
	for _, payslip := range f.payslips {
		if payslip.PayrollRunID == runID {
			out = append(out, *payslip)
		}
	}
	return out, nil
}

func (f *fakePayrollRepo) FindPayslip(_ context.Context, id uuid.UUID) (*models.Payslip, error) {
	for _, payslip := range f.payslips {
		if payslip.ID == id {
			copied := *payslip
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePayrollRepo) MarkPayslipsPaidTx(_ *gorm.DB, runID uuid.UUID, reference *string) error {
	for _, payslip := range f.payslips {
		if payslip.PayrollRunID == runID {
			payslip.IsPaid = true
			payslip.PaymentReference = reference
		}
	}
	return nil
}

type fakePayrollTx struct{}

func (fakePayrollTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newPayrollService(t *testing.T, repo *fakePayrollRepo) Service {
	t.Helper()
	svc, err := NewService(repo, fakePayrollTx{})
	require.NoError(t, err)
	var employeeSeq, runSeq int
	svc.(*service).nextEmployee = func(_ *gorm.DB, _ time.Time) (string, error) {
		employeeSeq++
		return fmt.Sprintf("EMP-%04d", employeeSeq), nil
	}
	svc.(*service).nextRun = func(_ *gorm.DB, now time.Time) (string, error) {
		runSeq++
		return fmt.Sprintf("PAY-%s-%03d", now.Format("200601"), runSeq), nil
	}
	return svc
}

func seedEmployee(t *testing.T, svc Service, nationalID string) *EmployeeDTO {
	t.Helper()
	employee, err := svc.CreateEmployee(context.Background(), CreateEmployeeRequest{
		FirstName:  "Grace",
		LastName:   "Mwangi",
		NationalID: nationalID,
		JobTitle:   "Sales Executive",
		HireDate:   time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return employee
}

func TestCreateEmployeeAllocatesNumberAndRejectsDuplicateID(t *testing.T) {
	repo := newFakePayrollRepo()
	svc := newPayrollService(t, repo)

	employee := seedEmployee(t, svc, "30112233")
	assert.Equal(t, "EMP-0001", employee.EmployeeNumber)
	assert.Equal(t, enums.EmployeeActive, employee.Status)
	assert.Equal(t, "Grace Mwangi", employee.FullName)

	_, err := svc.CreateEmployee(context.Background(), CreateEmployeeRequest{
		FirstName:  "Another",
		LastName:   "Person",
		NationalID: "30112233",
		JobTitle:   "Clerk",
		HireDate:   time.Now().UTC(),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestTerminationStampsDateAndClosesRecord(t *testing.T) {
	repo := newFakePayrollRepo()
	svc := newPayrollService(t, repo)
	employee := seedEmployee(t, svc, "30112234")

	when := time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC)
	terminated, err := svc.ChangeEmployeeStatus(context.Background(), employee.ID, ChangeEmployeeStatusRequest{
		Status:          enums.EmployeeTerminated,
		TerminationDate: &when,
	})
	require.NoError(t, err)
	require.NotNil(t, terminated.TerminationDate)
	assert.True(t, terminated.TerminationDate.Equal(when))

	_, err = svc.ChangeEmployeeStatus(context.Background(), employee.ID, ChangeEmployeeStatusRequest{Status: enums.EmployeeActive})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	name := "New Name"
	_, err = svc.UpdateEmployee(context.Background(), employee.ID, UpdateEmployeeRequest{FirstName: &name})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestCreateStructureClosesPreviousWindow(t *testing.T) {
	repo := newFakePayrollRepo()
	svc := newPayrollService(t, repo)
	employee := seedEmployee(t, svc, "30112235")

	_, err := svc.CreateStructure(context.Background(), CreateStructureRequest{
		EmployeeID:    employee.ID,
		BasicSalary:   decimal.NewFromInt(50000),
		EffectiveFrom: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	_, err = svc.CreateStructure(context.Background(), CreateStructureRequest{
		EmployeeID:    employee.ID,
		BasicSalary:   decimal.NewFromInt(65000),
		EffectiveFrom: time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	structures, err := svc.ListStructures(context.Background(), employee.ID)
	require.NoError(t, err)
	require.Len(t, structures, 2)
	assert.Equal(t, "65000", structures[0].BasicSalary.String())
	require.NotNil(t, structures[1].EffectiveTo)
	assert.True(t, structures[1].EffectiveTo.Equal(time.Date(2026, time.May, 31, 0, 0, 0, 0, time.UTC)))

	// May still resolves to the old structure, June to the new one.
	may, err := repo.ActiveStructure(context.Background(), employee.ID, time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "50000", may.BasicSalary.String())
	june, err := repo.ActiveStructure(context.Background(), employee.ID, time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "65000", june.BasicSalary.String())
}

func TestCommissionComputedFromRateAndDecidedOnce(t *testing.T) {
	repo := newFakePayrollRepo()
	svc := newPayrollService(t, repo)
	employee := seedEmployee(t, svc, "30112236")

	rate := decimal.NewFromFloat(2.5)
	base := decimal.NewFromInt(800000)
	saleDate := time.Date(2026, time.August, 12, 0, 0, 0, 0, time.UTC)
	commission, err := svc.CreateCommission(context.Background(), CreateCommissionRequest{
		EmployeeID:     employee.ID,
		Description:    "Land Cruiser sale",
		Rate:           &rate,
		BaseAmount:     &base,
		CommissionDate: &saleDate,
	})
	require.NoError(t, err)
	assert.Equal(t, "20000", commission.Amount.String())
	assert.True(t, commission.PayrollMonth.Equal(time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, enums.CommissionPending, commission.Status)

	approver := uuid.New()
	approved, err := svc.ApproveCommission(context.Background(), commission.ID, approver)
	require.NoError(t, err)
	assert.Equal(t, enums.CommissionApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, approver, *approved.ApprovedBy)

	_, err = svc.RejectCommission(context.Background(), commission.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestDeductionValidation(t *testing.T) {
	repo := newFakePayrollRepo()
	svc := newPayrollService(t, repo)
	employee := seedEmployee(t, svc, "30112237")

	_, err := svc.CreateDeduction(context.Background(), CreateDeductionRequest{
		EmployeeID:   employee.ID,
		Type:         enums.DeductionTax,
		Description:  "PAYE",
		IsPercentage: true,
		StartDate:    time.Now().UTC(),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	over := decimal.NewFromInt(150)
	_, err = svc.CreateDeduction(context.Background(), CreateDeductionRequest{
		EmployeeID:   employee.ID,
		Type:         enums.DeductionTax,
		Description:  "PAYE",
		IsPercentage: true,
		Percentage:   &over,
		StartDate:    time.Now().UTC(),
	})
	require.Error(t, err)

	pct := decimal.NewFromInt(10)
	created, err := svc.CreateDeduction(context.Background(), CreateDeductionRequest{
		EmployeeID:   employee.ID,
		Type:         enums.DeductionTax,
		Description:  "PAYE",
		IsPercentage: true,
		Percentage:   &pct,
		StartDate:    time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.True(t, created.IsActive)
	assert.Equal(t, enums.DeductionMonthly, created.Frequency)
}

func TestProcessRunGeneratesPayslips(t *testing.T) {
	repo := newFakePayrollRepo()
	svc := newPayrollService(t, repo)
	ctx := context.Background()

	salaried := seedEmployee(t, svc, "30112238")
	unsalaried := seedEmployee(t, svc, "30112239")
	_ = unsalaried

	rate := decimal.NewFromInt(5)
	_, err := svc.CreateStructure(ctx, CreateStructureRequest{
		EmployeeID:        salaried.ID,
		BasicSalary:       decimal.NewFromInt(50000),
		HousingAllowance:  decimal.NewFromInt(10000),
		CommissionEnabled: true,
		CommissionRate:    &rate,
		EffectiveFrom:     time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	month := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	approver := uuid.New()

	approvedCommission, err := svc.CreateCommission(ctx, CreateCommissionRequest{
		EmployeeID:   salaried.ID,
		Description:  "August sale",
		Amount:       decimal.NewFromInt(5000),
		PayrollMonth: &month,
	})
	require.NoError(t, err)
	_, err = svc.ApproveCommission(ctx, approvedCommission.ID, approver)
	require.NoError(t, err)

	// Pending commissions are not paid out.
	_, err = svc.CreateCommission(ctx, CreateCommissionRequest{
		EmployeeID:   salaried.ID,
		Description:  "Unreviewed sale",
		Amount:       decimal.NewFromInt(9999),
		PayrollMonth: &month,
	})
	require.NoError(t, err)

	taxRate := decimal.NewFromInt(10)
	_, err = svc.CreateDeduction(ctx, CreateDeductionRequest{
		EmployeeID:   salaried.ID,
		Type:         enums.DeductionTax,
		Description:  "PAYE",
		IsPercentage: true,
		Percentage:   &taxRate,
		StartDate:    time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	pension := decimal.NewFromInt(2000)
	_, err = svc.CreateDeduction(ctx, CreateDeductionRequest{
		EmployeeID:  salaried.ID,
		Type:        enums.DeductionPension,
		Description: "NSSF",
		Amount:      &pension,
		StartDate:   time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	run, err := svc.CreateRun(ctx, CreateRunRequest{PayrollMonth: month}, approver)
	require.NoError(t, err)
	assert.Equal(t, enums.PayrollRunDraft, run.Status)

	processed, err := svc.ProcessRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PayrollRunCompleted, processed.Status)
	assert.Equal(t, 1, processed.EmployeeCount)

	payslips, err := svc.ListPayslips(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, payslips, 1)
	slip := payslips[0]
	// 50000 basic + 10000 housing + 5000 approved commission.
	assert.Equal(t, "65000", slip.GrossPay.String())
	assert.Equal(t, "6500", slip.TaxDeduction.String())
	assert.Equal(t, "2000", slip.PensionDeduction.String())
	assert.Equal(t, "8500", slip.TotalDeductions.String())
	assert.Equal(t, "56500", slip.NetPay.String())
	assert.True(t, processed.TotalGross.Equal(slip.GrossPay))
	assert.True(t, processed.TotalNet.Equal(slip.NetPay))

	_, err = svc.ProcessRun(ctx, run.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestCreateRunRejectsDuplicateMonth(t *testing.T) {
	repo := newFakePayrollRepo()
	svc := newPayrollService(t, repo)
	ctx := context.Background()

	month := time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.CreateRun(ctx, CreateRunRequest{PayrollMonth: month}, uuid.New())
	require.NoError(t, err)

	midMonth := time.Date(2026, time.July, 18, 10, 0, 0, 0, time.UTC)
	_, err = svc.CreateRun(ctx, CreateRunRequest{PayrollMonth: midMonth}, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestRunApprovalAndSettlement(t *testing.T) {
	repo := newFakePayrollRepo()
	svc := newPayrollService(t, repo)
	ctx := context.Background()

	salaried := seedEmployee(t, svc, "30112240")
	rate := decimal.NewFromInt(3)
	_, err := svc.CreateStructure(ctx, CreateStructureRequest{
		EmployeeID:        salaried.ID,
		BasicSalary:       decimal.NewFromInt(40000),
		CommissionEnabled: true,
		CommissionRate:    &rate,
		EffectiveFrom:     time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	month := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	commission, err := svc.CreateCommission(ctx, CreateCommissionRequest{
		EmployeeID:   salaried.ID,
		Description:  "Sale",
		Amount:       decimal.NewFromInt(3000),
		PayrollMonth: &month,
	})
	require.NoError(t, err)
	approver := uuid.New()
	_, err = svc.ApproveCommission(ctx, commission.ID, approver)
	require.NoError(t, err)

	run, err := svc.CreateRun(ctx, CreateRunRequest{PayrollMonth: month}, approver)
	require.NoError(t, err)

	// Draft runs cannot be approved or paid.
	_, err = svc.ApproveRun(ctx, run.ID, approver)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	_, err = svc.ProcessRun(ctx, run.ID)
	require.NoError(t, err)
	approved, err := svc.ApproveRun(ctx, run.ID, approver)
	require.NoError(t, err)
	assert.Equal(t, enums.PayrollRunApproved, approved.Status)

	reference := "BANK-2026-08"
	paid, err := svc.MarkRunPaid(ctx, run.ID, MarkRunPaidRequest{PaymentReference: &reference})
	require.NoError(t, err)
	assert.Equal(t, enums.PayrollRunPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	payslips, err := svc.ListPayslips(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, payslips, 1)
	assert.True(t, payslips[0].IsPaid)
	require.NotNil(t, payslips[0].PaymentReference)
	assert.Equal(t, reference, *payslips[0].PaymentReference)

	settled, err := repo.FindCommission(ctx, commission.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.CommissionPaid, settled.Status)

	// Cancelling a paid run is refused.
	_, err = svc.CancelRun(ctx, run.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestCancelDraftRun(t *testing.T) {
	repo := newFakePayrollRepo()
	svc := newPayrollService(t, repo)
	ctx := context.Background()

	month := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	run, err := svc.CreateRun(ctx, CreateRunRequest{PayrollMonth: month}, uuid.New())
	require.NoError(t, err)

	cancelled, err := svc.CancelRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PayrollRunCancelled, cancelled.Status)

	// The month is free again once the run is cancelled.
	_, err = svc.CreateRun(ctx, CreateRunRequest{PayrollMonth: month}, uuid.New())
	require.NoError(t, err)
}
