package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// ExpenseReport groups expenses over a period for review.
type ExpenseReport struct {
	ID           uuid.UUID                 `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ReportNumber string                    `gorm:"column:report_number;not null;uniqueIndex"`
	Title        string                    `gorm:"column:title;not null"`
	PeriodFrom   time.Time                 `gorm:"column:period_from;type:date;not null"`
	PeriodTo     time.Time                 `gorm:"column:period_to;type:date;not null"`
	Status       enums.ExpenseReportStatus `gorm:"column:status;type:expense_report_status;not null;default:'draft'"`
	TotalAmount  decimal.Decimal           `gorm:"column:total_amount;type:numeric(12,2);not null;default:0"`
	CreatedBy    *uuid.UUID                `gorm:"column:created_by;type:uuid"`
	Items        []ExpenseReportItem       `gorm:"foreignKey:ExpenseReportID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}

// ExpenseReportItem links one expense into a report.
type ExpenseReportItem struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ExpenseReportID uuid.UUID `gorm:"column:expense_report_id;type:uuid;not null;uniqueIndex:ux_expense_report_items_report_expense;index"`
	ExpenseID       uuid.UUID `gorm:"column:expense_id;type:uuid;not null;uniqueIndex:ux_expense_report_items_report_expense"`
	Expense         *Expense  `gorm:"foreignKey:ExpenseID"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}
