package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// RecurringExpense is a template the cron worker materializes on schedule.
type RecurringExpense struct {
	ID          uuid.UUID                 `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CategoryID  uuid.UUID                 `gorm:"column:category_id;type:uuid;not null"`
	Description string                    `gorm:"column:description;not null"`
	Amount      decimal.Decimal           `gorm:"column:amount;type:numeric(12,2);not null"`
	Frequency   enums.RecurrenceFrequency `gorm:"column:frequency;type:recurrence_frequency;not null"`
	StartDate   time.Time                 `gorm:"column:start_date;type:date;not null"`
	EndDate     *time.Time                `gorm:"column:end_date;type:date"`
	NextRunDate time.Time                 `gorm:"column:next_run_date;type:date;not null;index"`
	VendorName  *string                   `gorm:"column:vendor_name"`
	IsActive    bool                      `gorm:"column:is_active;not null;default:true;index"`
	CreatedBy   *uuid.UUID                `gorm:"column:created_by;type:uuid"`
	CreatedAt   time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}

// AdvanceNextRun steps the schedule forward one period from the given date.
func (r RecurringExpense) AdvanceNextRun(from time.Time) time.Time {
	switch r.Frequency {
	case enums.RecurrenceWeekly:
		return from.AddDate(0, 0, 7)
	case enums.RecurrenceQuarterly:
		return from.AddDate(0, 3, 0)
	case enums.RecurrenceYearly:
		return from.AddDate(1, 0, 0)
	default:
		return from.AddDate(0, 1, 0)
	}
}
