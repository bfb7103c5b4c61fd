package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentSchedule is one expected installment on a plan.
type PaymentSchedule struct {
	ID                uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	InstallmentPlanID uuid.UUID       `gorm:"column:installment_plan_id;type:uuid;not null;uniqueIndex:ux_payment_schedules_plan_number;index"`
	InstallmentNumber int             `gorm:"column:installment_number;not null;uniqueIndex:ux_payment_schedules_plan_number"`
	DueDate           time.Time       `gorm:"column:due_date;type:date;not null;index"`
	AmountDue         decimal.Decimal `gorm:"column:amount_due;type:numeric(12,2);not null"`
	AmountPaid        decimal.Decimal `gorm:"column:amount_paid;type:numeric(12,2);not null;default:0"`
	IsPaid            bool            `gorm:"column:is_paid;not null;default:false;index"`
	PaidDate          *time.Time      `gorm:"column:paid_date"`
	PaymentID         *uuid.UUID      `gorm:"column:payment_id;type:uuid"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// IsOverdue reports whether the installment is unpaid past its due date.
func (p PaymentSchedule) IsOverdue(now time.Time) bool {
	return !p.IsPaid && now.After(p.DueDate)
}

// DaysOverdue counts full days past the due date for unpaid installments.
func (p PaymentSchedule) DaysOverdue(now time.Time) int {
	if !p.IsOverdue(now) {
		return 0
	}
	return int(now.Sub(p.DueDate).Hours() / 24)
}
