package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// Vehicle is the canonical inventory record.
type Vehicle struct {
	ID                 uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	VIN                string                 `gorm:"column:vin;type:varchar(17);not null;uniqueIndex"`
	RegistrationNumber *string                `gorm:"column:registration_number;uniqueIndex"`
	Make               string                 `gorm:"column:make;not null;index"`
	Model              string                 `gorm:"column:model;not null;index"`
	Year               int                    `gorm:"column:year;not null"`
	Color              string                 `gorm:"column:color;not null"`
	Mileage            int                    `gorm:"column:mileage;not null;default:0"`
	FuelType           enums.FuelType         `gorm:"column:fuel_type;type:fuel_type;not null"`
	Transmission       enums.Transmission     `gorm:"column:transmission;type:transmission;not null"`
	BodyType           enums.BodyType         `gorm:"column:body_type;type:body_type;not null"`
	Condition          enums.VehicleCondition `gorm:"column:condition;type:vehicle_condition;not null"`
	Seats              int                    `gorm:"column:seats;not null;default:5"`
	Doors              int                    `gorm:"column:doors;not null;default:4"`
	EngineSizeCC       *int                   `gorm:"column:engine_size_cc"`
	PurchasePrice      decimal.Decimal        `gorm:"column:purchase_price;type:numeric(12,2);not null"`
	SellingPrice       decimal.Decimal        `gorm:"column:selling_price;type:numeric(12,2);not null"`
	DepositAmount      *decimal.Decimal       `gorm:"column:deposit_amount;type:numeric(12,2)"`
	Status             enums.VehicleStatus    `gorm:"column:status;type:vehicle_status;not null;default:'available';index"`
	IsFeatured         bool                   `gorm:"column:is_featured;not null;default:false"`
	Description        *string                `gorm:"column:description"`
	DateSold           *time.Time             `gorm:"column:date_sold"`
	AddedBy            *uuid.UUID             `gorm:"column:added_by;type:uuid"`
	Photos             []VehiclePhoto         `gorm:"foreignKey:VehicleID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time              `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt          time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// Profit is the margin between selling and purchase price.
func (v Vehicle) Profit() decimal.Decimal {
	return v.SellingPrice.Sub(v.PurchasePrice)
}

// ProfitMarginPercent returns the profit as a percentage of the purchase price.
func (v Vehicle) ProfitMarginPercent() decimal.Decimal {
	if v.PurchasePrice.IsZero() {
		return decimal.Zero
	}
	return v.Profit().Div(v.PurchasePrice).Mul(decimal.NewFromInt(100)).Round(2)
}
