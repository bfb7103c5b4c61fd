package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClientVehicle is a purchase agreement binding a client to a vehicle.
type ClientVehicle struct {
	ID                 uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ClientID           uuid.UUID        `gorm:"column:client_id;type:uuid;not null;uniqueIndex:ux_client_vehicles_client_vehicle;index"`
	VehicleID          uuid.UUID        `gorm:"column:vehicle_id;type:uuid;not null;uniqueIndex:ux_client_vehicles_client_vehicle;index"`
	PurchasePrice      decimal.Decimal  `gorm:"column:purchase_price;type:numeric(12,2);not null"`
	DepositPaid        decimal.Decimal  `gorm:"column:deposit_paid;type:numeric(12,2);not null;default:0"`
	TotalPaid          decimal.Decimal  `gorm:"column:total_paid;type:numeric(12,2);not null;default:0"`
	Balance            decimal.Decimal  `gorm:"column:balance;type:numeric(12,2);not null;default:0"`
	MonthlyInstallment *decimal.Decimal `gorm:"column:monthly_installment;type:numeric(12,2)"`
	InstallmentMonths  *int             `gorm:"column:installment_months"`
	InterestRate       decimal.Decimal  `gorm:"column:interest_rate;type:numeric(5,2);not null;default:0"`
	IsPaidOff          bool             `gorm:"column:is_paid_off;not null;default:false"`
	PaidOffDate        *time.Time       `gorm:"column:paid_off_date"`
	Client             *Client          `gorm:"foreignKey:ClientID"`
	Vehicle            *Vehicle         `gorm:"foreignKey:VehicleID"`
	CreatedAt          time.Time        `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt          time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
