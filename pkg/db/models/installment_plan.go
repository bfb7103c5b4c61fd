package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InstallmentPlan describes the financing terms for one agreement.
type InstallmentPlan struct {
	ID                 uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ClientVehicleID    uuid.UUID       `gorm:"column:client_vehicle_id;type:uuid;not null;uniqueIndex"`
	Principal          decimal.Decimal `gorm:"column:principal;type:numeric(12,2);not null"`
	InterestRate       decimal.Decimal `gorm:"column:interest_rate;type:numeric(5,2);not null"`
	TotalInterest      decimal.Decimal `gorm:"column:total_interest;type:numeric(12,2);not null"`
	TotalAmount        decimal.Decimal `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Months             int             `gorm:"column:months;not null"`
	MonthlyInstallment decimal.Decimal `gorm:"column:monthly_installment;type:numeric(12,2);not null"`
	StartDate          time.Time       `gorm:"column:start_date;type:date;not null"`
	EndDate            time.Time       `gorm:"column:end_date;type:date;not null"`
	IsActive           bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
