package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// AuctionResult records the settlement of a completed auction.
type AuctionResult struct {
	ID             uuid.UUID                 `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AuctionID      uuid.UUID                 `gorm:"column:auction_id;type:uuid;not null;uniqueIndex"`
	WinnerID       *uuid.UUID                `gorm:"column:winner_id;type:uuid"`
	WinningBidID   *uuid.UUID                `gorm:"column:winning_bid_id;type:uuid"`
	FinalPrice     decimal.Decimal           `gorm:"column:final_price;type:numeric(12,2);not null"`
	BuyersPremium  decimal.Decimal           `gorm:"column:buyers_premium;type:numeric(12,2);not null;default:0"`
	Taxes          decimal.Decimal           `gorm:"column:taxes;type:numeric(12,2);not null;default:0"`
	Fees           decimal.Decimal           `gorm:"column:fees;type:numeric(12,2);not null;default:0"`
	TotalDue       decimal.Decimal           `gorm:"column:total_due;type:numeric(12,2);not null;default:0"`
	AmountPaid     decimal.Decimal           `gorm:"column:amount_paid;type:numeric(12,2);not null;default:0"`
	PaymentStatus  enums.ResultPaymentStatus `gorm:"column:payment_status;type:result_payment_status;not null;default:'pending'"`
	PaymentDueDate *time.Time                `gorm:"column:payment_due_date;type:date"`
	DeliveryStatus enums.DeliveryStatus      `gorm:"column:delivery_status;type:delivery_status;not null;default:'pending'"`
	DeliveredAt    *time.Time                `gorm:"column:delivered_at"`
	ReserveMet     bool                      `gorm:"column:reserve_met;not null;default:false"`
	Notes          *string                   `gorm:"column:notes"`
	CreatedAt      time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
