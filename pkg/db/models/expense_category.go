package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseCategory organizes operating expenses and their budgets.
type ExpenseCategory struct {
	ID               uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name             string           `gorm:"column:name;not null;uniqueIndex"`
	Code             string           `gorm:"column:code;not null;uniqueIndex"`
	Description      *string          `gorm:"column:description"`
	ParentID         *uuid.UUID       `gorm:"column:parent_id;type:uuid"`
	RequiresReceipt  bool             `gorm:"column:requires_receipt;not null;default:false"`
	RequiresApproval bool             `gorm:"column:requires_approval;not null;default:true"`
	BudgetLimit      *decimal.Decimal `gorm:"column:budget_limit;type:numeric(12,2)"`
	IsActive         bool             `gorm:"column:is_active;not null;default:true"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
