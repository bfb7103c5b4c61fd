package expenses

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
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/outbox"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/outbox/payloads"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/refs"
)

// Service exposes expense tracking, approval, reporting and recurring
// template materialization.
type Service interface {
	CreateCategory(ctx context.Context, req CreateCategoryRequest) (*CategoryDTO, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, req UpdateCategoryRequest) (*CategoryDTO, error)
	ListCategories(ctx context.Context, activeOnly bool) ([]CategoryDTO, error)
	BudgetStatus(ctx context.Context, categoryID uuid.UUID, month time.Time) (*BudgetStatusDTO, error)

	Create(ctx context.Context, req CreateExpenseRequest, submittedBy uuid.UUID) (*ExpenseDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*ExpenseDTO, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) (Page[ExpenseDTO], error)
	Update(ctx context.Context, id uuid.UUID, req UpdateExpenseRequest, actorID uuid.UUID) (*ExpenseDTO, error)
	Delete(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error
	Submit(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (*ExpenseDTO, error)
	Approve(ctx context.Context, id uuid.UUID, approverID uuid.UUID) (*ExpenseDTO, error)
	Reject(ctx context.Context, id uuid.UUID, req RejectExpenseRequest, approverID uuid.UUID) (*ExpenseDTO, error)
	MarkPaid(ctx context.Context, id uuid.UUID, req PayExpenseRequest, actorID uuid.UUID) (*ExpenseDTO, error)
	Cancel(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (*ExpenseDTO, error)

	CreateReport(ctx context.Context, req CreateReportRequest, createdBy uuid.UUID) (*ReportDTO, error)
	GetReport(ctx context.Context, id uuid.UUID) (*ReportDTO, error)
	ListReports(ctx context.Context, params pagination.Params) (Page[ReportDTO], error)
	AddToReport(ctx context.Context, reportID, expenseID uuid.UUID) (*ReportDTO, error)
	RemoveFromReport(ctx context.Context, reportID, expenseID uuid.UUID) (*ReportDTO, error)
	FinalizeReport(ctx context.Context, id uuid.UUID) (*ReportDTO, error)

	CreateRecurring(ctx context.Context, req CreateRecurringRequest, createdBy uuid.UUID) (*RecurringDTO, error)
	UpdateRecurring(ctx context.Context, id uuid.UUID, req UpdateRecurringRequest) (*RecurringDTO, error)
	ListRecurring(ctx context.Context, activeOnly bool) ([]RecurringDTO, error)
	MaterializeDue(ctx context.Context, now time.Time) (int, error)

	ExportCSV(ctx context.Context, filter ListFilter) ([]byte, error)
}

type repository interface {
	CreateCategory(ctx context.Context, category *models.ExpenseCategory) error
	FindCategory(ctx context.Context, id uuid.UUID) (*models.ExpenseCategory, error)
	FindCategoryByNameOrCode(ctx context.Context, name, code string) (*models.ExpenseCategory, error)
	ListCategories(ctx context.Context, activeOnly bool) ([]models.ExpenseCategory, error)
	UpdateCategory(ctx context.Context, category *models.ExpenseCategory) error
	ApprovedTotalForCategory(ctx context.Context, categoryID uuid.UUID, from, to time.Time) (decimal.Decimal, error)
	CreateExpenseTx(tx *gorm.DB, expense *models.Expense) error
	FindExpense(ctx context.Context, id uuid.UUID) (*models.Expense, error)
	ListExpenses(ctx context.Context, filter ListFilter, cursor *pagination.Cursor, limit int) ([]models.Expense, error)
	ListAllExpenses(ctx context.Context, filter ListFilter) ([]models.Expense, error)
	UpdateExpense(ctx context.Context, expense *models.Expense) error
	DeleteExpense(ctx context.Context, id uuid.UUID) error
	TransitionTx(tx *gorm.DB, id uuid.UUID, from, to enums.ExpenseStatus, updates map[string]any) (bool, error)
	CreateReportTx(tx *gorm.DB, report *models.ExpenseReport) error
	FindReport(ctx context.Context, id uuid.UUID) (*models.ExpenseReport, error)
	ListReports(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.ExpenseReport, error)
	UpdateReportTx(tx *gorm.DB, report *models.ExpenseReport) error
	AddReportItemTx(tx *gorm.DB, item *models.ExpenseReportItem) error
	RemoveReportItemTx(tx *gorm.DB, reportID, expenseID uuid.UUID) (bool, error)
	ReportHasExpense(ctx context.Context, reportID, expenseID uuid.UUID) (bool, error)
	CreateRecurring(ctx context.Context, recurring *models.RecurringExpense) error
	FindRecurring(ctx context.Context, id uuid.UUID) (*models.RecurringExpense, error)
	ListRecurring(ctx context.Context, activeOnly bool) ([]models.RecurringExpense, error)
	ListDueRecurring(ctx context.Context, now time.Time) ([]models.RecurringExpense, error)
	UpdateRecurring(ctx context.Context, recurring *models.RecurringExpense) error
	UpdateRecurringTx(tx *gorm.DB, recurring *models.RecurringExpense) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type numberAllocator func(tx *gorm.DB, now time.Time) (string, error)

type service struct {
	repo        repository
	db          txRunner
	emitter     eventEmitter
	nextExpense numberAllocator
	nextReport  numberAllocator
}

// NewService wires the expenses service.
func NewService(repo repository, db txRunner, emitter eventEmitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("expenses repository is required")
	}
	if db == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("event emitter is required")
	}
	return &service{
		repo:    repo,
		db:      db,
		emitter: emitter,
		nextExpense: func(tx *gorm.DB, now time.Time) (string, error) {
			return refs.Next(tx, refs.ExpenseEntry, now)
		},
		nextReport: func(tx *gorm.DB, now time.Time) (string, error) {
			return refs.Next(tx, refs.ExpenseReport, now)
		},
	}, nil
}

func (s *service) CreateCategory(ctx context.Context, req CreateCategoryRequest) (*CategoryDTO, error) {
	name := strings.TrimSpace(req.Name)
	code := strings.TrimSpace(req.Code)
	if name == "" || code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name and code are required")
	}
	if existing, err := s.repo.FindCategoryByNameOrCode(ctx, name, code); err == nil && existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "category name or code already in use")
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup category")
	}
	if req.ParentID != nil {
		if _, err := s.repo.FindCategory(ctx, *req.ParentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "parent category not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup parent category")
		}
	}
	if req.BudgetLimit != nil && req.BudgetLimit.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "budget limit must be positive")
	}

	category := &models.ExpenseCategory{
		Name:             name,
		Code:             code,
		Description:      req.Description,
		ParentID:         req.ParentID,
		RequiresReceipt:  req.RequiresReceipt,
		RequiresApproval: true,
		BudgetLimit:      req.BudgetLimit,
		IsActive:         true,
	}
	if req.RequiresApproval != nil {
		category.RequiresApproval = *req.RequiresApproval
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create category")
	}
	return categoryFromModel(category), nil
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, req UpdateCategoryRequest) (*CategoryDTO, error) {
	category, err := s.findCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name cannot be empty")
		}
		category.Name = name
	}
	if req.Description != nil {
		category.Description = req.Description
	}
	if req.RequiresReceipt != nil {
		category.RequiresReceipt = *req.RequiresReceipt
	}
	if req.RequiresApproval != nil {
		category.RequiresApproval = *req.RequiresApproval
	}
	if req.BudgetLimit != nil {
		if req.BudgetLimit.LessThanOrEqual(decimal.Zero) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "budget limit must be positive")
		}
		category.BudgetLimit = req.BudgetLimit
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	if err := s.repo.UpdateCategory(ctx, category); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update category")
	}
	return categoryFromModel(category), nil
}

func (s *service) ListCategories(ctx context.Context, activeOnly bool) ([]CategoryDTO, error) {
	categories, err := s.repo.ListCategories(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(categories))
	for i := range categories {
		out = append(out, *categoryFromModel(&categories[i]))
	}
	return out, nil
}

func (s *service) BudgetStatus(ctx context.Context, categoryID uuid.UUID, month time.Time) (*BudgetStatusDTO, error) {
	category, err := s.findCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	from, to := monthWindow(month)
	spent, err := s.repo.ApprovedTotalForCategory(ctx, categoryID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum category spend")
	}
	status := &BudgetStatusDTO{
		CategoryID:  categoryID,
		Month:       from.Format("2006-01"),
		Spent:       spent,
		BudgetLimit: category.BudgetLimit,
	}
	if category.BudgetLimit != nil {
		remaining := category.BudgetLimit.Sub(spent)
		status.Remaining = &remaining
		status.OverBudget = spent.GreaterThan(*category.BudgetLimit)
	}
	return status, nil
}

func (s *service) Create(ctx context.Context, req CreateExpenseRequest, submittedBy uuid.UUID) (*ExpenseDTO, error) {
	if strings.TrimSpace(req.Description) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if req.TaxAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tax amount cannot be negative")
	}
	if req.PaymentMethod != nil && !req.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	category, err := s.findCategory(ctx, req.CategoryID)
	if err != nil {
		return nil, err
	}
	if !category.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "category is inactive")
	}

	now := time.Now().UTC()
	expenseDate := now
	if req.ExpenseDate != nil {
		expenseDate = req.ExpenseDate.UTC()
		if expenseDate.After(now.Add(24 * time.Hour)) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "expense date cannot be in the future")
		}
	}

	expense := &models.Expense{
		CategoryID:    req.CategoryID,
		Description:   strings.TrimSpace(req.Description),
		Amount:        req.Amount,
		TaxAmount:     req.TaxAmount,
		ExpenseDate:   expenseDate,
		PaymentMethod: req.PaymentMethod,
		VendorName:    req.VendorName,
		HasReceipt:    req.HasReceipt,
		ReceiptPath:   req.ReceiptPath,
		Status:        enums.ExpenseStatusDraft,
		VehicleID:     req.VehicleID,
		ClientID:      req.ClientID,
		SubmittedBy:   submittedBy,
	}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		number, err := s.nextExpense(tx, now)
		if err != nil {
			return err
		}
		expense.ExpenseNumber = number
		return s.repo.CreateExpenseTx(tx, expense)
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create expense")
	}
	expense.Category = category
	return fromModel(expense), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ExpenseDTO, error) {
	expense, err := s.findExpense(ctx, id)
	if err != nil {
		return nil, err
	}
	return fromModel(expense), nil
}

func (s *service) List(ctx context.Context, filter ListFilter, params pagination.Params) (Page[ExpenseDTO], error) {
	limit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return Page[ExpenseDTO]{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	items, err := s.repo.ListExpenses(ctx, filter, cursor, pagination.LimitWithBuffer(limit))
	if err != nil {
		return Page[ExpenseDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list expenses")
	}
	dtos := make([]ExpenseDTO, 0, len(items))
	for i := range items {
		dtos = append(dtos, *fromModel(&items[i]))
	}
	return pageOf(dtos, limit, func(dto ExpenseDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: dto.CreatedAt, ID: dto.ID}
	}), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, req UpdateExpenseRequest, actorID uuid.UUID) (*ExpenseDTO, error) {
	expense, err := s.findExpense(ctx, id)
	if err != nil {
		return nil, err
	}
	if expense.SubmittedBy != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the submitter may edit this expense")
	}
	if !expense.IsEditable() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "expense can no longer be edited")
	}
	if req.CategoryID != nil {
		category, err := s.findCategory(ctx, *req.CategoryID)
		if err != nil {
			return nil, err
		}
		if !category.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "category is inactive")
		}
		expense.CategoryID = *req.CategoryID
		expense.Category = category
	}
	if req.Description != nil {
		if strings.TrimSpace(*req.Description) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "description cannot be empty")
		}
		expense.Description = strings.TrimSpace(*req.Description)
	}
	if req.Amount != nil {
		if req.Amount.LessThanOrEqual(decimal.Zero) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
		}
		expense.Amount = *req.Amount
	}
	if req.TaxAmount != nil {
		if req.TaxAmount.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "tax amount cannot be negative")
		}
		expense.TaxAmount = *req.TaxAmount
	}
	if req.ExpenseDate != nil {
		expense.ExpenseDate = req.ExpenseDate.UTC()
	}
	if req.PaymentMethod != nil {
		if !req.PaymentMethod.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
		}
		expense.PaymentMethod = req.PaymentMethod
	}
	if req.VendorName != nil {
		expense.VendorName = req.VendorName
	}
	if req.HasReceipt != nil {
		expense.HasReceipt = *req.HasReceipt
	}
	if req.ReceiptPath != nil {
		expense.ReceiptPath = req.ReceiptPath
		expense.HasReceipt = true
	}
	if err := s.repo.UpdateExpense(ctx, expense); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update expense")
	}
	return fromModel(expense), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error {
	expense, err := s.findExpense(ctx, id)
	if err != nil {
		return err
	}
	if expense.SubmittedBy != actorID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the submitter may delete this expense")
	}
	if !expense.IsEditable() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "expense can no longer be deleted")
	}
	if err := s.repo.DeleteExpense(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete expense")
	}
	return nil
}

// Submit moves a draft into the approval queue. Categories that do not
// require approval skip straight to approved.
func (s *service) Submit(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (*ExpenseDTO, error) {
	expense, err := s.findExpense(ctx, id)
	if err != nil {
		return nil, err
	}
	if expense.SubmittedBy != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the submitter may submit this expense")
	}
	if expense.Status != enums.ExpenseStatusDraft && expense.Status != enums.ExpenseStatusRejected {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only draft or rejected expenses can be submitted")
	}
	category := expense.Category
	if category == nil {
		category, err = s.findCategory(ctx, expense.CategoryID)
		if err != nil {
			return nil, err
		}
	}
	if category.RequiresReceipt && !expense.HasReceipt {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "this category requires a receipt")
	}

	now := time.Now().UTC()
	target := enums.ExpenseStatusSubmitted
	eventType := enums.EventExpenseSubmitted
	updates := map[string]any{"submitted_at": now, "rejection_reason": nil}
	if !category.RequiresApproval {
		target = enums.ExpenseStatusApproved
		eventType = enums.EventExpenseApproved
		updates["approved_at"] = now
	}

	from := expense.Status
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		moved, err := s.repo.TransitionTx(tx, id, from, target, updates)
		if err != nil {
			return err
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "expense state changed, retry")
		}
		return s.emitter.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregateExpense,
			AggregateID:   id,
			Actor:         &outbox.ActorRef{UserID: actorID},
			Data: payloads.ExpenseStatusEvent{
				ExpenseID:     id,
				ExpenseNumber: expense.ExpenseNumber,
				Status:        target,
				Total:         expense.TotalAmount(),
				SubmittedBy:   &expense.SubmittedBy,
			},
			Version:    1,
			OccurredAt: now,
		})
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "submit expense")
	}
	return s.Get(ctx, id)
}

func (s *service) Approve(ctx context.Context, id uuid.UUID, approverID uuid.UUID) (*ExpenseDTO, error) {
	expense, err := s.findExpense(ctx, id)
	if err != nil {
		return nil, err
	}
	if expense.Status != enums.ExpenseStatusSubmitted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only submitted expenses can be approved")
	}
	category := expense.Category
	if category == nil {
		category, err = s.findCategory(ctx, expense.CategoryID)
		if err != nil {
			return nil, err
		}
	}
	if category.BudgetLimit != nil {
		from, to := monthWindow(expense.ExpenseDate)
		spent, err := s.repo.ApprovedTotalForCategory(ctx, expense.CategoryID, from, to)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum category spend")
		}
		if spent.Add(expense.TotalAmount()).GreaterThan(*category.BudgetLimit) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("approving would exceed the %s budget for %s", category.Name, from.Format("2006-01")))
		}
	}

	now := time.Now().UTC()
	return s.decide(ctx, expense, enums.ExpenseStatusApproved, enums.EventExpenseApproved, approverID, "", map[string]any{
		"approved_by": approverID,
		"approved_at": now,
	})
}

func (s *service) Reject(ctx context.Context, id uuid.UUID, req RejectExpenseRequest, approverID uuid.UUID) (*ExpenseDTO, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason is required")
	}
	expense, err := s.findExpense(ctx, id)
	if err != nil {
		return nil, err
	}
	if expense.Status != enums.ExpenseStatusSubmitted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only submitted expenses can be rejected")
	}
	return s.decide(ctx, expense, enums.ExpenseStatusRejected, enums.EventExpenseRejected, approverID, reason, map[string]any{
		"rejection_reason": reason,
	})
}

func (s *service) MarkPaid(ctx context.Context, id uuid.UUID, req PayExpenseRequest, actorID uuid.UUID) (*ExpenseDTO, error) {
	expense, err := s.findExpense(ctx, id)
	if err != nil {
		return nil, err
	}
	if expense.Status != enums.ExpenseStatusApproved {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only approved expenses can be paid")
	}
	if req.PaymentMethod != nil && !req.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	updates := map[string]any{"paid_at": time.Now().UTC()}
	if req.PaymentMethod != nil {
		updates["payment_method"] = *req.PaymentMethod
	}
	return s.decide(ctx, expense, enums.ExpenseStatusPaid, enums.EventExpensePaid, actorID, "", updates)
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (*ExpenseDTO, error) {
	expense, err := s.findExpense(ctx, id)
	if err != nil {
		return nil, err
	}
	if expense.SubmittedBy != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the submitter may cancel this expense")
	}
	if expense.Status != enums.ExpenseStatusDraft && expense.Status != enums.ExpenseStatusSubmitted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only draft or submitted expenses can be cancelled")
	}
	from := expense.Status
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		moved, err := s.repo.TransitionTx(tx, expense.ID, from, enums.ExpenseStatusCancelled, nil)
		if err != nil {
			return err
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "expense state changed, retry")
		}
		return nil
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancel expense")
	}
	return s.Get(ctx, id)
}

// decide applies an approve/reject/paid transition with its event in one tx.
func (s *service) decide(ctx context.Context, expense *models.Expense, to enums.ExpenseStatus, eventType enums.OutboxEventType, actorID uuid.UUID, reason string, updates map[string]any) (*ExpenseDTO, error) {
	from := expense.Status
	now := time.Now().UTC()
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		moved, err := s.repo.TransitionTx(tx, expense.ID, from, to, updates)
		if err != nil {
			return err
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "expense state changed, retry")
		}
		return s.emitter.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregateExpense,
			AggregateID:   expense.ID,
			Actor:         &outbox.ActorRef{UserID: actorID},
			Data: payloads.ExpenseStatusEvent{
				ExpenseID:     expense.ID,
				ExpenseNumber: expense.ExpenseNumber,
				Status:        to,
				Total:         expense.TotalAmount(),
				SubmittedBy:   &expense.SubmittedBy,
				DecidedBy:     &actorID,
				Reason:        reason,
			},
			Version:    1,
			OccurredAt: now,
		})
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "transition expense")
	}
	return s.Get(ctx, expense.ID)
}

func (s *service) CreateReport(ctx context.Context, req CreateReportRequest, createdBy uuid.UUID) (*ReportDTO, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "report title is required")
	}
	if req.PeriodTo.Before(req.PeriodFrom) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "period end cannot precede period start")
	}
	now := time.Now().UTC()
	report := &models.ExpenseReport{
		Title:       strings.TrimSpace(req.Title),
		PeriodFrom:  req.PeriodFrom,
		PeriodTo:    req.PeriodTo,
		Status:      enums.ExpenseReportDraft,
		TotalAmount: decimal.Zero,
		CreatedBy:   &createdBy,
	}
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		number, err := s.nextReport(tx, now)
		if err != nil {
			return err
		}
		report.ReportNumber = number
		return s.repo.CreateReportTx(tx, report)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create report")
	}
	return reportFromModel(report, false), nil
}

func (s *service) GetReport(ctx context.Context, id uuid.UUID) (*ReportDTO, error) {
	report, err := s.findReport(ctx, id)
	if err != nil {
		return nil, err
	}
	return reportFromModel(report, true), nil
}

func (s *service) ListReports(ctx context.Context, params pagination.Params) (Page[ReportDTO], error) {
	limit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return Page[ReportDTO]{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	reports, err := s.repo.ListReports(ctx, cursor, pagination.LimitWithBuffer(limit))
	if err != nil {
		return Page[ReportDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list reports")
	}
	dtos := make([]ReportDTO, 0, len(reports))
	for i := range reports {
		dtos = append(dtos, *reportFromModel(&reports[i], false))
	}
	return pageOf(dtos, limit, func(dto ReportDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: dto.CreatedAt, ID: dto.ID}
	}), nil
}

func (s *service) AddToReport(ctx context.Context, reportID, expenseID uuid.UUID) (*ReportDTO, error) {
	report, err := s.findReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report.Status != enums.ExpenseReportDraft {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "report is finalized")
	}
	expense, err := s.findExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if expense.ExpenseDate.Before(report.PeriodFrom) || expense.ExpenseDate.After(report.PeriodTo) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expense date falls outside the report period")
	}
	exists, err := s.repo.ReportHasExpense(ctx, reportID, expenseID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check report item")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "expense is already on this report")
	}

	report.TotalAmount = report.TotalAmount.Add(expense.TotalAmount())
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.AddReportItemTx(tx, &models.ExpenseReportItem{
			ExpenseReportID: reportID,
			ExpenseID:       expenseID,
		}); err != nil {
			return err
		}
		return s.repo.UpdateReportTx(tx, report)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add report item")
	}
	return s.GetReport(ctx, reportID)
}

func (s *service) RemoveFromReport(ctx context.Context, reportID, expenseID uuid.UUID) (*ReportDTO, error) {
	report, err := s.findReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report.Status != enums.ExpenseReportDraft {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "report is finalized")
	}
	expense, err := s.findExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		removed, err := s.repo.RemoveReportItemTx(tx, reportID, expenseID)
		if err != nil {
			return err
		}
		if !removed {
			return pkgerrors.New(pkgerrors.CodeNotFound, "expense is not on this report")
		}
		report.TotalAmount = report.TotalAmount.Sub(expense.TotalAmount())
		return s.repo.UpdateReportTx(tx, report)
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove report item")
	}
	return s.GetReport(ctx, reportID)
}

func (s *service) FinalizeReport(ctx context.Context, id uuid.UUID) (*ReportDTO, error) {
	report, err := s.findReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.Status != enums.ExpenseReportDraft {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "report is already finalized")
	}
	if len(report.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot finalize an empty report")
	}
	report.Status = enums.ExpenseReportFinalized
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.UpdateReportTx(tx, report)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "finalize report")
	}
	return reportFromModel(report, true), nil
}

func (s *service) CreateRecurring(ctx context.Context, req CreateRecurringRequest, createdBy uuid.UUID) (*RecurringDTO, error) {
	if strings.TrimSpace(req.Description) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if !req.Frequency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid recurrence frequency")
	}
	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date cannot precede start date")
	}
	category, err := s.findCategory(ctx, req.CategoryID)
	if err != nil {
		return nil, err
	}
	if !category.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "category is inactive")
	}

	recurring := &models.RecurringExpense{
		CategoryID:  req.CategoryID,
		Description: strings.TrimSpace(req.Description),
		Amount:      req.Amount,
		Frequency:   req.Frequency,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		NextRunDate: req.StartDate,
		VendorName:  req.VendorName,
		IsActive:    true,
		CreatedBy:   &createdBy,
	}
	if err := s.repo.CreateRecurring(ctx, recurring); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create recurring expense")
	}
	return recurringFromModel(recurring), nil
}

func (s *service) UpdateRecurring(ctx context.Context, id uuid.UUID, req UpdateRecurringRequest) (*RecurringDTO, error) {
	recurring, err := s.repo.FindRecurring(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "recurring expense not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup recurring expense")
	}
	if req.Description != nil {
		if strings.TrimSpace(*req.Description) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "description cannot be empty")
		}
		recurring.Description = strings.TrimSpace(*req.Description)
	}
	if req.Amount != nil {
		if req.Amount.LessThanOrEqual(decimal.Zero) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
		}
		recurring.Amount = *req.Amount
	}
	if req.EndDate != nil {
		recurring.EndDate = req.EndDate
	}
	if req.VendorName != nil {
		recurring.VendorName = req.VendorName
	}
	if req.IsActive != nil {
		recurring.IsActive = *req.IsActive
	}
	if err := s.repo.UpdateRecurring(ctx, recurring); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update recurring expense")
	}
	return recurringFromModel(recurring), nil
}

func (s *service) ListRecurring(ctx context.Context, activeOnly bool) ([]RecurringDTO, error) {
	templates, err := s.repo.ListRecurring(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list recurring expenses")
	}
	out := make([]RecurringDTO, 0, len(templates))
	for i := range templates {
		out = append(out, *recurringFromModel(&templates[i]))
	}
	return out, nil
}

// MaterializeDue turns due recurring templates into draft expenses and
// advances their schedules. Templates past their end date are deactivated.
// Each template commits in its own transaction so one failure does not
// roll back the rest of the batch.
func (s *service) MaterializeDue(ctx context.Context, now time.Time) (int, error) {
	due, err := s.repo.ListDueRecurring(ctx, now)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list due recurring expenses")
	}
	created := 0
	for i := range due {
		template := due[i]
		err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
			submitter := uuid.Nil
			if template.CreatedBy != nil {
				submitter = *template.CreatedBy
			}
			number, err := s.nextExpense(tx, now)
			if err != nil {
				return err
			}
			expense := &models.Expense{
				ExpenseNumber: number,
				CategoryID:    template.CategoryID,
				Description:   template.Description,
				Amount:        template.Amount,
				ExpenseDate:   template.NextRunDate,
				VendorName:    template.VendorName,
				Status:        enums.ExpenseStatusDraft,
				SubmittedBy:   submitter,
			}
			if err := s.repo.CreateExpenseTx(tx, expense); err != nil {
				return err
			}
			template.NextRunDate = template.AdvanceNextRun(template.NextRunDate)
			if template.EndDate != nil && template.NextRunDate.After(*template.EndDate) {
				template.IsActive = false
			}
			return s.repo.UpdateRecurringTx(tx, &template)
		})
		if err != nil {
			return created, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "materialize recurring expense")
		}
		created++
	}
	return created, nil
}

func (s *service) findCategory(ctx context.Context, id uuid.UUID) (*models.ExpenseCategory, error) {
	category, err := s.repo.FindCategory(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup category")
	}
	return category, nil
}

func (s *service) findExpense(ctx context.Context, id uuid.UUID) (*models.Expense, error) {
	expense, err := s.repo.FindExpense(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "expense not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup expense")
	}
	return expense, nil
}

func (s *service) findReport(ctx context.Context, id uuid.UUID) (*models.ExpenseReport, error) {
	report, err := s.repo.FindReport(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "report not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup report")
	}
	return report, nil
}

// monthWindow returns the [start, end) of the calendar month containing t.
func monthWindow(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
