package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// RepossessionExpense books a cost against a recovery case.
type RepossessionExpense struct {
	ID             uuid.UUID             `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RepossessionID uuid.UUID             `gorm:"column:repossession_id;type:uuid;not null;index"`
	Type           enums.RepoExpenseType `gorm:"column:type;type:repossession_expense_type;not null"`
	Description    string                `gorm:"column:description;not null"`
	Amount         decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null"`
	IncurredOn     time.Time             `gorm:"column:incurred_on;type:date;not null"`
	IsPaid         bool                  `gorm:"column:is_paid;not null;default:false"`
	PaidAt         *time.Time            `gorm:"column:paid_at"`
	PaymentMethod  *enums.PaymentMethod  `gorm:"column:payment_method;type:payment_method"`
	RecordedBy     *uuid.UUID            `gorm:"column:recorded_by;type:uuid"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
