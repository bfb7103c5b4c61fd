package expenses

import (
	"context"
	"fmt"
	"strings"
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
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/outbox"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
)

type fakeExpenseRepo struct {
	categories map[uuid.UUID]*models.ExpenseCategory
	expenses   map[uuid.UUID]*models.Expense
	reports    map[uuid.UUID]*models.ExpenseReport
	items      []models.ExpenseReportItem
	recurring  map[uuid.UUID]*models.RecurringExpense
}

func newFakeExpenseRepo() *fakeExpenseRepo {
	return &fakeExpenseRepo{
		categories: map[uuid.UUID]*models.ExpenseCategory{},
		expenses:   map[uuid.UUID]*models.Expense{},
		reports:    map[uuid.UUID]*models.ExpenseReport{},
		recurring:  map[uuid.UUID]*models.RecurringExpense{},
	}
}

func (f *fakeExpenseRepo) CreateCategory(_ context.Context, category *models.ExpenseCategory) error {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	category.CreatedAt = time.Now().UTC()
	f.categories[category.ID] = category
	return nil
}

func (f *fakeExpenseRepo) FindCategory(_ context.Context, id uuid.UUID) (*models.ExpenseCategory, error) {
	category, ok := f.categories[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *category
	return &copied, nil
}

func (f *fakeExpenseRepo) FindCategoryByNameOrCode(_ context.Context, name, code string) (*models.ExpenseCategory, error) {
	for _, category := range f.categories {
		if category.Name == name || category.Code == code {
			copied := *category
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeExpenseRepo) ListCategories(_ context.Context, activeOnly bool) ([]models.ExpenseCategory, error) {
	var out []models.ExpenseCategory
	for _, category := range f.categories {
		if activeOnly && !category.IsActive {
			continue
		}
		out = append(out, *category)
	}
	return out, nil
}

func (f *fakeExpenseRepo) UpdateCategory(_ context.Context, category *models.ExpenseCategory) error {
	copied := *category
	f.categories[category.ID] = &copied
	return nil
}

func (f *fakeExpenseRepo) ApprovedTotalForCategory(_ context.Context, categoryID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, e := range f.expenses {
		if e.CategoryID != categoryID {
			continue
		}
		if e.Status != enums.ExpenseStatusApproved && e.Status != enums.ExpenseStatusPaid {
			continue
		}
		if e.ExpenseDate.Before(from) || !e.ExpenseDate.Before(to) {
			continue
		}
		total = total.Add(e.TotalAmount())
	}
	return total, nil
}

func (f *fakeExpenseRepo) CreateExpenseTx(_ *gorm.DB, expense *models.Expense) error {
	if expense.ID == uuid.Nil {
		expense.ID = uuid.New()
	}
	expense.CreatedAt = time.Now().UTC()
	copied := *expense
	f.expenses[expense.ID] = &copied
	return nil
}

func (f *fakeExpenseRepo) FindExpense(_ context.Context, id uuid.UUID) (*models.Expense, error) {
	expense, ok := f.expenses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *expense
	if category, ok := f.categories[expense.CategoryID]; ok {
		categoryCopy := *category
		copied.Category = &categoryCopy
	}
	return &copied, nil
}

func (f *fakeExpenseRepo) ListExpenses(_ context.Context, filter ListFilter, _ *pagination.Cursor, _ int) ([]models.Expense, error) {
	return f.listFiltered(filter), nil
}

func (f *fakeExpenseRepo) ListAllExpenses(_ context.Context, filter ListFilter) ([]models.Expense, error) {
	return f.listFiltered(filter), nil
}

func (f *fakeExpenseRepo) listFiltered(filter ListFilter) []models.Expense {
	var out []models.Expense
	for _, e := range f.expenses {
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.CategoryID != nil && e.CategoryID != *filter.CategoryID {
			continue
		}
		copied := *e
		if category, ok := f.categories[e.CategoryID]; ok {
			categoryCopy := *category
			copied.Category = &categoryCopy
		}
		out = append(out, copied)
	}
	return out
}

func (f *fakeExpenseRepo) UpdateExpense(_ context.Context, expense *models.Expense) error {
	copied := *expense
	copied.Category = nil
	f.expenses[expense.ID] = &copied
	return nil
}

func (f *fakeExpenseRepo) DeleteExpense(_ context.Context, id uuid.UUID) error {
	delete(f.expenses, id)
	return nil
}

func (f *fakeExpenseRepo) TransitionTx(_ *gorm.DB, id uuid.UUID, from, to enums.ExpenseStatus, updates map[string]any) (bool, error) {
	expense, ok := f.expenses[id]
	if !ok || expense.Status != from {
		return false, nil
	}
	expense.Status = to
	for key, value := range updates {
		switch key {
		case "submitted_at":
			at := value.(time.Time)
			expense.SubmittedAt = &at
		case "approved_at":
			at := value.(time.Time)
			expense.ApprovedAt = &at
		case "approved_by":
			by := value.(uuid.UUID)
			expense.ApprovedBy = &by
		case "rejection_reason":
			if value == nil {
				expense.RejectionReason = nil
			} else {
				reason := value.(string)
				expense.RejectionReason = &reason
			}
		case "paid_at":
			at := value.(time.Time)
			expense.PaidAt = &at
		case "payment_method":
			method := value.(enums.PaymentMethod)
			expense.PaymentMethod = &method
		}
	}
	return true, nil
}

func (f *fakeExpenseRepo) CreateReportTx(_ *gorm.DB, report *models.ExpenseReport) error {
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	report.CreatedAt = time.Now().UTC()
	copied := *report
	f.reports[report.ID] = &copied
	return nil
}

func (f *fakeExpenseRepo) FindReport(_ context.Context, id uuid.UUID) (*models.ExpenseReport, error) {
	report, ok := f.reports[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *report
	copied.Items = nil
	for _, item := range f.items {
		if item.ExpenseReportID != id {
			continue
		}
		itemCopy := item
		if expense, ok := f.expenses[item.ExpenseID]; ok {
			expenseCopy := *expense
			itemCopy.Expense = &expenseCopy
		}
		copied.Items = append(copied.Items, itemCopy)
	}
	return &copied, nil
}

func (f *fakeExpenseRepo) ListReports(_ context.Context, _ *pagination.Cursor, _ int) ([]models.ExpenseReport, error) {
	var out []models.ExpenseReport
	for _, report := range f.reports {
		out = append(out, *report)
	}
	return out, nil
}

func (f *fakeExpenseRepo) UpdateReportTx(_ *gorm.DB, report *models.ExpenseReport) error {
	stored, ok := f.reports[report.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Status = report.Status
	stored.TotalAmount = report.TotalAmount
	return nil
}

func (f *fakeExpenseRepo) AddReportItemTx(_ *gorm.DB, item *models.ExpenseReportItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	f.items = append(f.items, *item)
	return nil
}

func (f *fakeExpenseRepo) RemoveReportItemTx(_ *gorm.DB, reportID, expenseID uuid.UUID) (bool, error) {
	for i, item := range f.items {
		if item.ExpenseReportID == reportID && item.ExpenseID == expenseID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeExpenseRepo) ReportHasExpense(_ context.Context, reportID, expenseID uuid.UUID) (bool, error) {
	for _, item := range f.items {
		if item.ExpenseReportID == reportID && item.ExpenseID == expenseID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeExpenseRepo) CreateRecurring(_ context.Context, recurring *models.RecurringExpense) error {
	if recurring.ID == uuid.Nil {
		recurring.ID = uuid.New()
	}
	recurring.CreatedAt = time.Now().UTC()
	copied := *recurring
	f.recurring[recurring.ID] = &copied
	return nil
}

func (f *fakeExpenseRepo) FindRecurring(_ context.Context, id uuid.UUID) (*models.RecurringExpense, error) {
	recurring, ok := f.recurring[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *recurring
	return &copied, nil
}

func (f *fakeExpenseRepo) ListRecurring(_ context.Context, activeOnly bool) ([]models.RecurringExpense, error) {
	var out []models.RecurringExpense
	for _, recurring := range f.recurring {
		if activeOnly && !recurring.IsActive {
			continue
		}
		out = append(out, *recurring)
	}
	return out, nil
}

func (f *fakeExpenseRepo) ListDueRecurring(_ context.Context, now time.Time) ([]models.RecurringExpense, error) {
	var out []models.RecurringExpense
	for _, recurring := range f.recurring {
		if recurring.IsActive && !recurring.NextRunDate.After(now) {
			out = append(out, *recurring)
		}
	}
	return out, nil
}

func (f *fakeExpenseRepo) UpdateRecurring(_ context.Context, recurring *models.RecurringExpense) error {
	copied := *recurring
	f.recurring[recurring.ID] = &copied
	return nil
}

func (f *fakeExpenseRepo) UpdateRecurringTx(_ *gorm.DB, recurring *models.RecurringExpense) error {
	stored, ok := f.recurring[recurring.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.NextRunDate = recurring.NextRunDate
	stored.IsActive = recurring.IsActive
	return nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeEmitter struct {
	events []outbox.DomainEvent
}

func (f *fakeEmitter) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

func newTestService(t *testing.T, repo *fakeExpenseRepo) (Service, *fakeEmitter) {
	t.Helper()
	emitter := &fakeEmitter{}
	svc, err := NewService(repo, fakeTxRunner{}, emitter)
	require.NoError(t, err)
	counter := 0
	svc.(*service).nextExpense = func(_ *gorm.DB, now time.Time) (string, error) {
		counter++
		return fmt.Sprintf("EXP-%s-%04d", now.Format("20060102"), counter), nil
	}
	reportCounter := 0
	svc.(*service).nextReport = func(_ *gorm.DB, now time.Time) (string, error) {
		reportCounter++
		return fmt.Sprintf("ER-%s-%03d", now.Format("200601"), reportCounter), nil
	}
	return svc, emitter
}

func seedCategory(t *testing.T, repo *fakeExpenseRepo, mutate func(*models.ExpenseCategory)) *models.ExpenseCategory {
	t.Helper()
	category := &models.ExpenseCategory{
		ID:               uuid.New(),
		Name:             "Fuel",
		Code:             "FUEL",
		RequiresApproval: true,
		IsActive:         true,
	}
	if mutate != nil {
		mutate(category)
	}
	repo.categories[category.ID] = category
	return category
}

func draftExpense(t *testing.T, svc Service, categoryID uuid.UUID, submitter uuid.UUID, amount int64) *ExpenseDTO {
	t.Helper()
	dto, err := svc.Create(context.Background(), CreateExpenseRequest{
		CategoryID:  categoryID,
		Description: "Diesel top-up",
		Amount:      decimal.NewFromInt(amount),
		TaxAmount:   decimal.NewFromInt(amount / 10),
	}, submitter)
	require.NoError(t, err)
	return dto
}

func TestCreateExpenseAllocatesNumberAndDefaults(t *testing.T) {
	repo := newFakeExpenseRepo()
	svc, _ := newTestService(t, repo)
	category := seedCategory(t, repo, nil)
	submitter := uuid.New()

	dto := draftExpense(t, svc, category.ID, submitter, 5000)

	assert.True(t, strings.HasPrefix(dto.ExpenseNumber, "EXP-"))
	assert.Equal(t, enums.ExpenseStatusDraft, dto.Status)
	assert.Equal(t, submitter, dto.SubmittedBy)
	assert.True(t, dto.TotalAmount.Equal(decimal.NewFromInt(5500)))
	assert.Equal(t, "Fuel", dto.CategoryName)
}

func TestCreateExpenseRejectsInactiveCategory(t *testing.T) {
	repo := newFakeExpenseRepo()
	svc, _ := newTestService(t, repo)
	category := seedCategory(t, repo, func(c *models.ExpenseCategory) { c.IsActive = false })

	_, err := svc.Create(context.Background(), CreateExpenseRequest{
		CategoryID:  category.ID,
		Description: "Diesel top-up",
		Amount:      decimal.NewFromInt(5000),
	}, uuid.New())

	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestOnlySubmitterMayEditOrDelete(t *testing.T) {
	repo := newFakeExpenseRepo()
	svc, _ := newTestService(t, repo)
	category := seedCategory(t, repo, nil)
	submitter := uuid.New()
	stranger := uuid.New()
	dto := draftExpense(t, svc, category.ID, submitter, 5000)

	newDescription := "Petrol top-up"
	_, err := svc.Update(context.Background(), dto.ID, UpdateExpenseRequest{Description: &newDescription}, stranger)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	err = svc.Delete(context.Background(), dto.ID, stranger)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	updated, err := svc.Update(context.Background(), dto.ID, UpdateExpenseRequest{Description: &newDescription}, submitter)
	require.NoError(t, err)
	assert.Equal(t, "Petrol top-up", updated.Description)

	require.NoError(t, svc.Delete(context.Background(), dto.ID, submitter))
	_, err = svc.Get(context.Background(), dto.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestSubmitRequiresReceiptWhenCategoryDemandsOne(t *testing.T) {
	repo := newFakeExpenseRepo()
	svc, emitter := newTestService(t, repo)
	category := seedCategory(t, repo, func(c *models.ExpenseCategory) { c.RequiresReceipt = true })
	submitter := uuid.New()
	dto := draftExpense(t, svc, category.ID, submitter, 5000)

	_, err := svc.Submit(context.Background(), dto.ID, submitter)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	path := "receipts/2026/08/fuel.pdf"
	_, err = svc.Update(context.Background(), dto.ID, UpdateExpenseRequest{ReceiptPath: &path}, submitter)
	require.NoError(t, err)

	submitted, err := svc.Submit(context.Background(), dto.ID, submitter)
	require.NoError(t, err)
	assert.Equal(t, enums.ExpenseStatusSubmitted, submitted.Status)
	require.NotNil(t, submitted.SubmittedAt)
	require.Len(t, emitter.events, 1)
	assert.Equal(t, enums.EventExpenseSubmitted, emitter.events[0].EventType)
}

func TestSubmitAutoApprovesWhenNoApprovalRequired(t *testing.T) {
	repo := newFakeExpenseRepo()
	svc, emitter := newTestService(t, repo)
	category := seedCategory(t, repo, func(c *models.ExpenseCategory) { c.RequiresApproval = false })
	submitter := uuid.New()
	dto := draftExpense(t, svc, category.ID, submitter, 5000)

	approved, err := svc.Submit(context.Background(), dto.ID, submitter)
	require.NoError(t, err)
	assert.Equal(t, enums.ExpenseStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedAt)
	require.Len(t, emitter.events, 1)
	assert.Equal(t, enums.EventExpenseApproved, emitter.events[0].EventType)
}

func TestApproveEnforcesMonthlyBudget(t *testing.T) {
	repo := newFakeExpenseRepo()
	svc, emitter := newTestService(t, repo)
	limit := decimal.NewFromInt(10000)
	category := seedCategory(t, repo, func(c *models.ExpenseCategory) { c.BudgetLimit = &limit })
	submitter := uuid.New()
	approver := uuid.New()

	first := draftExpense(t, svc, category.ID, submitter, 6000)
	_, err := svc.Submit(context.Background(), first.ID, submitter)
	require.NoError(t, err)
	approvedFirst, err := svc.Approve(context.Background(), first.ID, approver)
	require.NoError(t, err)
	assert.Equal(t, enums.ExpenseStatusApproved, approvedFirst.Status)
	assert.Equal(t, &approver, approvedFirst.ApprovedBy)

	// 6600 already approved this month; another 6600 would blow the 10000 cap.
	second := draftExpense(t, svc, category.ID, submitter, 6000)
	_, err = svc.Submit(context.Background(), second.ID, submitter)
	require.NoError(t, err)
	_, err = svc.Approve(context.Background(), second.ID, approver)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
	assert.Contains(t, err.Error(), "budget")

	status, err := svc.BudgetStatus(context.Background(), category.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, status.Spent.Equal(decimal.NewFromInt(6600)))
	assert.False(t, status.OverBudget)

	require.Len(t, emitter.events, 3) // two submits and one approval
}

func TestRejectRequiresReasonAndAllowsResubmit(t *testing.T) {
	repo := newFakeExpenseRepo()
	svc, emitter := newTestService(t, repo)
	category := seedCategory(t, repo, nil)
	submitter := uuid.New()
	approver := uuid.New()
	dto := draftExpense(t, svc, category.ID, submitter, 5000)
	_, err := svc.Submit(context.Background(), dto.ID, submitter)
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), dto.ID, RejectExpenseRequest{Reason: "  "}, approver)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	rejected, err := svc.Reject(context.Background(), dto.ID, RejectExpenseRequest{Reason: "missing vendor details"}, approver)
	require.NoError(t, err)
	assert.Equal(t, enums.ExpenseStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "missing vendor details", *rejected.RejectionReason)

	// Rejected expenses stay editable and can go back through approval.
	vendor := "Shell Westlands"
	_, err = svc.Update(context.Background(), dto.ID, UpdateExpenseRequest{VendorName: &vendor}, submitter)
	require.NoError(t, err)
	resubmitted, err := svc.Submit(context.Background(), dto.ID, submitter)
	require.NoError(t, err)
	assert.Equal(t, enums.ExpenseStatusSubmitted, resubmitted.Status)
	assert.Nil(t, resubmitted.RejectionReason)

	last := emitter.events[len(emitter.events)-1]
	assert.Equal(t, enums.EventExpenseSubmitted, last.EventType)
}

func TestMarkPaidOnlyFromApproved(t *testing.T) {
	repo := newFakeExpenseRepo()
	svc, emitter := newTestService(t, repo)
	category := seedCategory(t, repo, nil)
	submitter := uuid.New()
	approver := uuid.New()
	dto := draftExpense(t, svc, category.ID, submitter, 5000)

	method := enums.PaymentMethodMpesa
	_, err := svc.MarkPaid(context.Background(), dto.ID, PayExpenseRequest{PaymentMethod: &method}, approver)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	_, err = svc.Submit(context.Background(), dto.ID, submitter)
	require.NoError(t, err)
	_, err = svc.Approve(context.Background(), dto.ID, approver)
	require.NoError(t, err)

	paid, err := svc.MarkPaid(context.Background(), dto.ID, PayExpenseRequest{PaymentMethod: &method}, approver)
	require.NoError(t, err)
	assert.Equal(t, enums.ExpenseStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
	require.NotNil(t, paid.PaymentMethod)
	assert.Equal(t, enums.PaymentMethodMpesa, *paid.PaymentMethod)

	_, err = svc.MarkPaid(context.Background(), dto.ID, PayExpenseRequest{}, approver)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	last := emitter.events[len(emitter.events)-1]
	assert.Equal(t, enums.EventExpensePaid, last.EventType)
}

func TestCancelDraftBySubmitter(t *testing.T) {
	repo := newFakeExpenseRepo()
	svc, _ := newTestService(t, repo)
	category := seedCategory(t, repo, nil)
	submitter := uuid.New()
	dto := draftExpense(t, svc, category.ID, submitter, 5000)

	cancelled, err := svc.Cancel(context.Background(), dto.ID, submitter)
	require.NoError(t, err)
	assert.Equal(t, enums.ExpenseStatusCancelled, cancelled.Status)

	_, err = svc.Cancel(context.Background(), dto.ID, submitter)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestReportTracksTotalsAndFreezesOnFinalize(t *testing.T) {
	repo := newFakeExpenseRepo()
	svc, _ := newTestService(t, repo)
	category := seedCategory(t, repo, nil)
	submitter := uuid.New()
	now := time.Now().UTC()

	report, err := svc.CreateReport(context.Background(), CreateReportRequest{
		Title:      "August operations",
		PeriodFrom: now.AddDate(0, 0, -30),
		PeriodTo:   now,
	}, submitter)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(report.ReportNumber, "ER-"))

	inPeriod := draftExpense(t, svc, category.ID, submitter, 5000)
	outOfPeriod, err := svc.Create(context.Background(), CreateExpenseRequest{
		CategoryID:  category.ID,
		Description: "Old invoice",
		Amount:      decimal.NewFromInt(2000),
		ExpenseDate: ptrTime(now.AddDate(0, -3, 0)),
	}, submitter)
	require.NoError(t, err)

	_, err = svc.AddToReport(context.Background(), report.ID, outOfPeriod.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	withItem, err := svc.AddToReport(context.Background(), report.ID, inPeriod.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, withItem.ItemCount)
	assert.True(t, withItem.TotalAmount.Equal(decimal.NewFromInt(5500)))

	_, err = svc.AddToReport(context.Background(), report.ID, inPeriod.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())

	second := draftExpense(t, svc, category.ID, submitter, 3000)
	withBoth, err := svc.AddToReport(context.Background(), report.ID, second.ID)
	require.NoError(t, err)
	assert.True(t, withBoth.TotalAmount.Equal(decimal.NewFromInt(8800)))

	afterRemove, err := svc.RemoveFromReport(context.Background(), report.ID, second.ID)
	require.NoError(t, err)
	assert.True(t, afterRemove.TotalAmount.Equal(decimal.NewFromInt(5500)))

	finalized, err := svc.FinalizeReport(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ExpenseReportFinalized, finalized.Status)

	_, err = svc.AddToReport(context.Background(), report.ID, second.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestFinalizeRejectsEmptyReport(t *testing.T) {
	repo := newFakeExpenseRepo()
	svc, _ := newTestService(t, repo)
	now := time.Now().UTC()
	report, err := svc.CreateReport(context.Background(), CreateReportRequest{
		Title:      "Empty",
		PeriodFrom: now.AddDate(0, 0, -7),
		PeriodTo:   now,
	}, uuid.New())
	require.NoError(t, err)

	_, err = svc.FinalizeReport(context.Background(), report.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestMaterializeDueCreatesDraftsAndAdvancesSchedule(t *testing.T) {
	repo := newFakeExpenseRepo()
	svc, _ := newTestService(t, repo)
	category := seedCategory(t, repo, nil)
	creator := uuid.New()
	now := time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC)

	monthly, err := svc.CreateRecurring(context.Background(), CreateRecurringRequest{
		CategoryID:  category.ID,
		Description: "Showroom rent",
		Amount:      decimal.NewFromInt(120000),
		Frequency:   enums.RecurrenceMonthly,
		StartDate:   time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}, creator)
	require.NoError(t, err)

	endDate := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	expiring, err := svc.CreateRecurring(context.Background(), CreateRecurringRequest{
		CategoryID:  category.ID,
		Description: "Short lease",
		Amount:      decimal.NewFromInt(30000),
		Frequency:   enums.RecurrenceWeekly,
		StartDate:   time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC),
		EndDate:     &endDate,
	}, creator)
	require.NoError(t, err)

	notDue, err := svc.CreateRecurring(context.Background(), CreateRecurringRequest{
		CategoryID:  category.ID,
		Description: "Annual audit",
		Amount:      decimal.NewFromInt(90000),
		Frequency:   enums.RecurrenceYearly,
		StartDate:   time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
	}, creator)
	require.NoError(t, err)

	created, err := svc.MaterializeDue(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	drafts, err := svc.List(context.Background(), ListFilter{Status: enums.ExpenseStatusDraft}, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, drafts.Items, 2)

	stored := repo.recurring[monthly.ID]
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), stored.NextRunDate)
	assert.True(t, stored.IsActive)

	// The weekly template's next run lands past its end date, so it retires.
	retired := repo.recurring[expiring.ID]
	assert.Equal(t, time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC), retired.NextRunDate)
	assert.False(t, retired.IsActive)

	assert.Equal(t, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), repo.recurring[notDue.ID].NextRunDate)

	// A second run finds nothing due.
	created, err = svc.MaterializeDue(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}

func TestExportCSVIncludesTotals(t *testing.T) {
	repo := newFakeExpenseRepo()
	svc, _ := newTestService(t, repo)
	category := seedCategory(t, repo, nil)
	submitter := uuid.New()
	draftExpense(t, svc, category.ID, submitter, 5000)

	out, err := svc.ExportCSV(context.Background(), ListFilter{})
	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, "Expense,Category,Description")
	assert.Contains(t, text, "5500.00")
	assert.Contains(t, text, "Fuel")
}

func ptrTime(t time.Time) *time.Time { return &t }
