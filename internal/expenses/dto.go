package expenses

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
)

// CategoryDTO is the API shape of an expense category.
type CategoryDTO struct {
	ID               uuid.UUID        `json:"id"`
	Name             string           `json:"name"`
	Code             string           `json:"code"`
	Description      *string          `json:"description,omitempty"`
	ParentID         *uuid.UUID       `json:"parent_id,omitempty"`
	RequiresReceipt  bool             `json:"requires_receipt"`
	RequiresApproval bool             `json:"requires_approval"`
	BudgetLimit      *decimal.Decimal `json:"budget_limit,omitempty"`
	IsActive         bool             `json:"is_active"`
	CreatedAt        time.Time        `json:"created_at"`
}

// BudgetStatusDTO compares a month's approved spend against the budget.
type BudgetStatusDTO struct {
	CategoryID  uuid.UUID        `json:"category_id"`
	Month       string           `json:"month"`
	Spent       decimal.Decimal  `json:"spent"`
	BudgetLimit *decimal.Decimal `json:"budget_limit,omitempty"`
	Remaining   *decimal.Decimal `json:"remaining,omitempty"`
	OverBudget  bool             `json:"over_budget"`
}

// ExpenseDTO is the API shape of an expense.
type ExpenseDTO struct {
	ID              uuid.UUID            `json:"id"`
	ExpenseNumber   string               `json:"expense_number"`
	CategoryID      uuid.UUID            `json:"category_id"`
	CategoryName    string               `json:"category_name,omitempty"`
	Description     string               `json:"description"`
	Amount          decimal.Decimal      `json:"amount"`
	TaxAmount       decimal.Decimal      `json:"tax_amount"`
	TotalAmount     decimal.Decimal      `json:"total_amount"`
	ExpenseDate     time.Time            `json:"expense_date"`
	PaymentMethod   *enums.PaymentMethod `json:"payment_method,omitempty"`
	VendorName      *string              `json:"vendor_name,omitempty"`
	HasReceipt      bool                 `json:"has_receipt"`
	Status          enums.ExpenseStatus  `json:"status"`
	SubmittedAt     *time.Time           `json:"submitted_at,omitempty"`
	ApprovedBy      *uuid.UUID           `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time           `json:"approved_at,omitempty"`
	RejectionReason *string              `json:"rejection_reason,omitempty"`
	PaidAt          *time.Time           `json:"paid_at,omitempty"`
	VehicleID       *uuid.UUID           `json:"vehicle_id,omitempty"`
	ClientID        *uuid.UUID           `json:"client_id,omitempty"`
	SubmittedBy     uuid.UUID            `json:"submitted_by"`
	CreatedAt       time.Time            `json:"created_at"`
}

// ReportDTO is the API shape of an expense report.
type ReportDTO struct {
	ID           uuid.UUID                 `json:"id"`
	ReportNumber string                    `json:"report_number"`
	Title        string                    `json:"title"`
	PeriodFrom   time.Time                 `json:"period_from"`
	PeriodTo     time.Time                 `json:"period_to"`
	Status       enums.ExpenseReportStatus `json:"status"`
	TotalAmount  decimal.Decimal           `json:"total_amount"`
	ItemCount    int                       `json:"item_count"`
	Items        []ExpenseDTO              `json:"items,omitempty"`
	CreatedAt    time.Time                 `json:"created_at"`
}

// RecurringDTO is the API shape of a recurring expense template.
type RecurringDTO struct {
	ID          uuid.UUID                 `json:"id"`
	CategoryID  uuid.UUID                 `json:"category_id"`
	Description string                    `json:"description"`
	Amount      decimal.Decimal           `json:"amount"`
	Frequency   enums.RecurrenceFrequency `json:"frequency"`
	StartDate   time.Time                 `json:"start_date"`
	EndDate     *time.Time                `json:"end_date,omitempty"`
	NextRunDate time.Time                 `json:"next_run_date"`
	VendorName  *string                   `json:"vendor_name,omitempty"`
	IsActive    bool                      `json:"is_active"`
	CreatedAt   time.Time                 `json:"created_at"`
}

// CreateCategoryRequest adds a new expense category.
type CreateCategoryRequest struct {
	Name             string           `json:"name" validate:"required"`
	Code             string           `json:"code" validate:"required"`
	Description      *string          `json:"description"`
	ParentID         *uuid.UUID       `json:"parent_id"`
	RequiresReceipt  bool             `json:"requires_receipt"`
	RequiresApproval *bool            `json:"requires_approval"`
	BudgetLimit      *decimal.Decimal `json:"budget_limit"`
}

// UpdateCategoryRequest carries partial category edits.
type UpdateCategoryRequest struct {
	Name             *string          `json:"name"`
	Description      *string          `json:"description"`
	RequiresReceipt  *bool            `json:"requires_receipt"`
	RequiresApproval *bool            `json:"requires_approval"`
	BudgetLimit      *decimal.Decimal `json:"budget_limit"`
	IsActive         *bool            `json:"is_active"`
}

// CreateExpenseRequest opens a draft expense.
type CreateExpenseRequest struct {
	CategoryID    uuid.UUID            `json:"category_id" validate:"required"`
	Description   string               `json:"description" validate:"required"`
	Amount        decimal.Decimal      `json:"amount" validate:"required"`
	TaxAmount     decimal.Decimal      `json:"tax_amount"`
	ExpenseDate   *time.Time           `json:"expense_date"`
	PaymentMethod *enums.PaymentMethod `json:"payment_method"`
	VendorName    *string              `json:"vendor_name"`
	HasReceipt    bool                 `json:"has_receipt"`
	ReceiptPath   *string              `json:"receipt_path"`
	VehicleID     *uuid.UUID           `json:"vehicle_id"`
	ClientID      *uuid.UUID           `json:"client_id"`
}

// UpdateExpenseRequest carries partial expense edits.
type UpdateExpenseRequest struct {
	CategoryID    *uuid.UUID           `json:"category_id"`
	Description   *string              `json:"description"`
	Amount        *decimal.Decimal     `json:"amount"`
	TaxAmount     *decimal.Decimal     `json:"tax_amount"`
	ExpenseDate   *time.Time           `json:"expense_date"`
	PaymentMethod *enums.PaymentMethod `json:"payment_method"`
	VendorName    *string              `json:"vendor_name"`
	HasReceipt    *bool                `json:"has_receipt"`
	ReceiptPath   *string              `json:"receipt_path"`
}

// RejectExpenseRequest carries the mandatory rejection reason.
type RejectExpenseRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// PayExpenseRequest settles an approved expense.
type PayExpenseRequest struct {
	PaymentMethod *enums.PaymentMethod `json:"payment_method"`
}

// CreateReportRequest opens a draft expense report.
type CreateReportRequest struct {
	Title      string    `json:"title" validate:"required"`
	PeriodFrom time.Time `json:"period_from" validate:"required"`
	PeriodTo   time.Time `json:"period_to" validate:"required"`
}

// CreateRecurringRequest adds a recurring expense template.
type CreateRecurringRequest struct {
	CategoryID  uuid.UUID                 `json:"category_id" validate:"required"`
	Description string                    `json:"description" validate:"required"`
	Amount      decimal.Decimal           `json:"amount" validate:"required"`
	Frequency   enums.RecurrenceFrequency `json:"frequency" validate:"required"`
	StartDate   time.Time                 `json:"start_date" validate:"required"`
	EndDate     *time.Time                `json:"end_date"`
	VendorName  *string                   `json:"vendor_name"`
}

// UpdateRecurringRequest carries partial template edits.
type UpdateRecurringRequest struct {
	Description *string          `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
	EndDate     *time.Time       `json:"end_date"`
	VendorName  *string          `json:"vendor_name"`
	IsActive    *bool            `json:"is_active"`
}

// ListFilter narrows expense listings.
type ListFilter struct {
	CategoryID  *uuid.UUID
	Status      enums.ExpenseStatus
	SubmittedBy *uuid.UUID
	From        *time.Time
	To          *time.Time
	Search      string
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

func categoryFromModel(c *models.ExpenseCategory) *CategoryDTO {
	return &CategoryDTO{
		ID:               c.ID,
		Name:             c.Name,
		Code:             c.Code,
		Description:      c.Description,
		ParentID:         c.ParentID,
		RequiresReceipt:  c.RequiresReceipt,
		RequiresApproval: c.RequiresApproval,
		BudgetLimit:      c.BudgetLimit,
		IsActive:         c.IsActive,
		CreatedAt:        c.CreatedAt,
	}
}

func fromModel(e *models.Expense) *ExpenseDTO {
	dto := &ExpenseDTO{
		ID:              e.ID,
		ExpenseNumber:   e.ExpenseNumber,
		CategoryID:      e.CategoryID,
		Description:     e.Description,
		Amount:          e.Amount,
		TaxAmount:       e.TaxAmount,
		TotalAmount:     e.TotalAmount(),
		ExpenseDate:     e.ExpenseDate,
		PaymentMethod:   e.PaymentMethod,
		VendorName:      e.VendorName,
		HasReceipt:      e.HasReceipt,
		Status:          e.Status,
		SubmittedAt:     e.SubmittedAt,
		ApprovedBy:      e.ApprovedBy,
		ApprovedAt:      e.ApprovedAt,
		RejectionReason: e.RejectionReason,
		PaidAt:          e.PaidAt,
		VehicleID:       e.VehicleID,
		ClientID:        e.ClientID,
		SubmittedBy:     e.SubmittedBy,
		CreatedAt:       e.CreatedAt,
	}
	if e.Category != nil {
		dto.CategoryName = e.Category.Name
	}
	return dto
}

func reportFromModel(r *models.ExpenseReport, withItems bool) *ReportDTO {
	dto := &ReportDTO{
		ID:           r.ID,
		ReportNumber: r.ReportNumber,
		Title:        r.Title,
		PeriodFrom:   r.PeriodFrom,
		PeriodTo:     r.PeriodTo,
		Status:       r.Status,
		TotalAmount:  r.TotalAmount,
		ItemCount:    len(r.Items),
		CreatedAt:    r.CreatedAt,
	}
	if withItems {
		dto.Items = make([]ExpenseDTO, 0, len(r.Items))
		for i := range r.Items {
			if r.Items[i].Expense != nil {
				dto.Items = append(dto.Items, *fromModel(r.Items[i].Expense))
			}
		}
	}
	return dto
}

func recurringFromModel(r *models.RecurringExpense) *RecurringDTO {
	return &RecurringDTO{
		ID:          r.ID,
		CategoryID:  r.CategoryID,
		Description: r.Description,
		Amount:      r.Amount,
		Frequency:   r.Frequency,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		NextRunDate: r.NextRunDate,
		VendorName:  r.VendorName,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt,
	}
}
