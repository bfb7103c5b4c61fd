package expenses

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

// Repo is the gorm-backed store for expenses, categories, reports and
// recurring templates.
type Repo struct {
	db *gorm.DB
}

// NewRepo builds a Repo on the given connection.
func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) CreateCategory(ctx context.Context, category *models.ExpenseCategory) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *Repo) FindCategory(ctx context.Context, id uuid.UUID) (*models.ExpenseCategory, error) {
	var category models.ExpenseCategory
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *Repo) FindCategoryByNameOrCode(ctx context.Context, name, code string) (*models.ExpenseCategory, error) {
	var category models.ExpenseCategory
	err := r.db.WithContext(ctx).
		Where("name = ? OR code = ?", name, code).
		First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *Repo) ListCategories(ctx context.Context, activeOnly bool) ([]models.ExpenseCategory, error) {
	query := r.db.WithContext(ctx).Order("name ASC")
	if activeOnly {
		query = query.Where("is_active")
	}
	var categories []models.ExpenseCategory
	if err := query.Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *Repo) UpdateCategory(ctx context.Context, category *models.ExpenseCategory) error {
	return r.db.WithContext(ctx).Save(category).Error
}

// ApprovedTotalForCategory sums approved and paid expense totals for the
// category inside the given window. Used for budget checks.
func (r *Repo) ApprovedTotalForCategory(ctx context.Context, categoryID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Model(&models.Expense{}).
		Select("SUM(amount + tax_amount)").
		Where("category_id = ?", categoryID).
		Where("status IN ?", []enums.ExpenseStatus{enums.ExpenseStatusApproved, enums.ExpenseStatusPaid}).
		Where("expense_date >= ? AND expense_date < ?", from, to).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (r *Repo) CreateExpenseTx(tx *gorm.DB, expense *models.Expense) error {
	return tx.Create(expense).Error
}

func (r *Repo) FindExpense(ctx context.Context, id uuid.UUID) (*models.Expense, error) {
	var expense models.Expense
	err := r.db.WithContext(ctx).
		Preload("Category").
		First(&expense, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

func (r *Repo) ListExpenses(ctx context.Context, filter ListFilter, cursor *pagination.Cursor, limit int) ([]models.Expense, error) {
	query := r.db.WithContext(ctx).
		Preload("Category").
		Order("created_at DESC, id DESC").
		Limit(limit)
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.SubmittedBy != nil {
		query = query.Where("submitted_by = ?", *filter.SubmittedBy)
	}
	if filter.From != nil {
		query = query.Where("expense_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("expense_date <= ?", *filter.To)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("expense_number ILIKE ? OR description ILIKE ? OR vendor_name ILIKE ?", pattern, pattern, pattern)
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	var items []models.Expense
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *Repo) ListAllExpenses(ctx context.Context, filter ListFilter) ([]models.Expense, error) {
	query := r.db.WithContext(ctx).
		Preload("Category").
		Order("expense_date DESC, created_at DESC")
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.SubmittedBy != nil {
		query = query.Where("submitted_by = ?", *filter.SubmittedBy)
	}
	if filter.From != nil {
		query = query.Where("expense_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("expense_date <= ?", *filter.To)
	}
	var items []models.Expense
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *Repo) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	return r.db.WithContext(ctx).Save(expense).Error
}

func (r *Repo) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Expense{}, "id = ?", id).Error
}

// TransitionTx moves an expense between statuses with a conditional UPDATE
// so concurrent transitions cannot double-apply.
func (r *Repo) TransitionTx(tx *gorm.DB, id uuid.UUID, from, to enums.ExpenseStatus, updates map[string]any) (bool, error) {
	set := map[string]any{"status": to, "updated_at": time.Now().UTC()}
	for k, v := range updates {
		set[k] = v
	}
	result := tx.Model(&models.Expense{}).
		Where("id = ? AND status = ?", id, from).
		Updates(set)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Repo) CreateReportTx(tx *gorm.DB, report *models.ExpenseReport) error {
	return tx.Create(report).Error
}

func (r *Repo) FindReport(ctx context.Context, id uuid.UUID) (*models.ExpenseReport, error) {
	var report models.ExpenseReport
	err := r.db.WithContext(ctx).
		Preload("Items.Expense.Category").
		First(&report, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *Repo) ListReports(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.ExpenseReport, error) {
	query := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC, id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	var reports []models.ExpenseReport
	if err := query.Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *Repo) UpdateReportTx(tx *gorm.DB, report *models.ExpenseReport) error {
	return tx.Model(&models.ExpenseReport{}).
		Where("id = ?", report.ID).
		Updates(map[string]any{
			"status":       report.Status,
			"total_amount": report.TotalAmount,
			"updated_at":   time.Now().UTC(),
		}).Error
}

func (r *Repo) AddReportItemTx(tx *gorm.DB, item *models.ExpenseReportItem) error {
	return tx.Create(item).Error
}

func (r *Repo) RemoveReportItemTx(tx *gorm.DB, reportID, expenseID uuid.UUID) (bool, error) {
	result := tx.
		Where("expense_report_id = ? AND expense_id = ?", reportID, expenseID).
		Delete(&models.ExpenseReportItem{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Repo) ReportHasExpense(ctx context.Context, reportID, expenseID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ExpenseReportItem{}).
		Where("expense_report_id = ? AND expense_id = ?", reportID, expenseID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repo) CreateRecurring(ctx context.Context, recurring *models.RecurringExpense) error {
	return r.db.WithContext(ctx).Create(recurring).Error
}

func (r *Repo) FindRecurring(ctx context.Context, id uuid.UUID) (*models.RecurringExpense, error) {
	var recurring models.RecurringExpense
	if err := r.db.WithContext(ctx).First(&recurring, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &recurring, nil
}

func (r *Repo) ListRecurring(ctx context.Context, activeOnly bool) ([]models.RecurringExpense, error) {
	query := r.db.WithContext(ctx).Order("next_run_date ASC")
	if activeOnly {
		query = query.Where("is_active")
	}
	var templates []models.RecurringExpense
	if err := query.Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

// ListDueRecurring returns active templates whose next run date has arrived.
func (r *Repo) ListDueRecurring(ctx context.Context, now time.Time) ([]models.RecurringExpense, error) {
	var templates []models.RecurringExpense
	err := r.db.WithContext(ctx).
		Where("is_active AND next_run_date <= ?", now).
		Order("next_run_date ASC").
		Find(&templates).Error
	if err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *Repo) UpdateRecurring(ctx context.Context, recurring *models.RecurringExpense) error {
	return r.db.WithContext(ctx).Save(recurring).Error
}

func (r *Repo) UpdateRecurringTx(tx *gorm.DB, recurring *models.RecurringExpense) error {
	return tx.Model(&models.RecurringExpense{}).
		Where("id = ?", recurring.ID).
		Updates(map[string]any{
			"next_run_date": recurring.NextRunDate,
			"is_active":     recurring.IsActive,
			"updated_at":    time.Now().UTC(),
		}).Error
}
