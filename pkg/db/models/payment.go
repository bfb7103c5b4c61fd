package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// Payment is one money-in movement against a purchase agreement.
type Payment struct {
	ID              uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ReceiptNumber   string              `gorm:"column:receipt_number;not null;uniqueIndex"`
	ClientVehicleID uuid.UUID           `gorm:"column:client_vehicle_id;type:uuid;not null;index"`
	Amount          decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Method          enums.PaymentMethod `gorm:"column:method;type:payment_method;not null"`
	TransactionRef  *string             `gorm:"column:transaction_ref"`
	PaymentDate     time.Time           `gorm:"column:payment_date;not null;index"`
	Notes           *string             `gorm:"column:notes"`
	RecordedBy      *uuid.UUID          `gorm:"column:recorded_by;type:uuid"`
	Agreement       *ClientVehicle      `gorm:"foreignKey:ClientVehicleID"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime;index"`
}
