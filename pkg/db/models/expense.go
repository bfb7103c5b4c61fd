package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// Expense is one operating cost moving through the approval workflow.
type Expense struct {
	ID              uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ExpenseNumber   string               `gorm:"column:expense_number;not null;uniqueIndex"`
	CategoryID      uuid.UUID            `gorm:"column:category_id;type:uuid;not null;index"`
	Description     string               `gorm:"column:description;not null"`
	Amount          decimal.Decimal      `gorm:"column:amount;type:numeric(12,2);not null"`
	TaxAmount       decimal.Decimal      `gorm:"column:tax_amount;type:numeric(12,2);not null;default:0"`
	ExpenseDate     time.Time            `gorm:"column:expense_date;type:date;not null;index"`
	PaymentMethod   *enums.PaymentMethod `gorm:"column:payment_method;type:payment_method"`
	VendorName      *string              `gorm:"column:vendor_name"`
	HasReceipt      bool                 `gorm:"column:has_receipt;not null;default:false"`
	ReceiptPath     *string              `gorm:"column:receipt_path"`
	Status          enums.ExpenseStatus  `gorm:"column:status;type:expense_status;not null;default:'draft';index"`
	SubmittedAt     *time.Time           `gorm:"column:submitted_at"`
	ApprovedBy      *uuid.UUID           `gorm:"column:approved_by;type:uuid"`
	ApprovedAt      *time.Time           `gorm:"column:approved_at"`
	RejectionReason *string              `gorm:"column:rejection_reason"`
	PaidAt          *time.Time           `gorm:"column:paid_at"`
	VehicleID       *uuid.UUID           `gorm:"column:vehicle_id;type:uuid"`
	ClientID        *uuid.UUID           `gorm:"column:client_id;type:uuid"`
	SubmittedBy     uuid.UUID            `gorm:"column:submitted_by;type:uuid;not null;index"`
	Category        *ExpenseCategory     `gorm:"foreignKey:CategoryID"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// TotalAmount is the expense amount including tax.
func (e Expense) TotalAmount() decimal.Decimal {
	return e.Amount.Add(e.TaxAmount)
}

// IsEditable reports whether the submitter may still change the expense.
func (e Expense) IsEditable() bool {
	return e.Status == enums.ExpenseStatusDraft || e.Status == enums.ExpenseStatusRejected
}
