package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// Auction is a single-vehicle sale event with timed bidding.
type Auction struct {
	ID                  uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AuctionNumber       string              `gorm:"column:auction_number;not null;uniqueIndex"`
	VehicleID           uuid.UUID           `gorm:"column:vehicle_id;type:uuid;not null;index"`
	Title               string              `gorm:"column:title;not null"`
	Description         *string             `gorm:"column:description"`
	Type                enums.AuctionType   `gorm:"column:type;type:auction_type;not null;default:'standard'"`
	Status              enums.AuctionStatus `gorm:"column:status;type:auction_status;not null;default:'draft';index"`
	StartTime           time.Time           `gorm:"column:start_time;not null;index"`
	EndTime             time.Time           `gorm:"column:end_time;not null;index"`
	StartingPrice       decimal.Decimal     `gorm:"column:starting_price;type:numeric(12,2);not null"`
	ReservePrice        *decimal.Decimal    `gorm:"column:reserve_price;type:numeric(12,2)"`
	BidIncrement        decimal.Decimal     `gorm:"column:bid_increment;type:numeric(12,2);not null;default:100"`
	BuyNowPrice         *decimal.Decimal    `gorm:"column:buy_now_price;type:numeric(12,2)"`
	CurrentPrice        decimal.Decimal     `gorm:"column:current_price;type:numeric(12,2);not null;default:0"`
	RequireRegistration bool                `gorm:"column:require_registration;not null;default:false"`
	RequireDeposit      bool                `gorm:"column:require_deposit;not null;default:false"`
	DepositAmount       *decimal.Decimal    `gorm:"column:deposit_amount;type:numeric(12,2)"`
	AutoExtend          bool                `gorm:"column:auto_extend;not null;default:true"`
	ExtensionMinutes    int                 `gorm:"column:extension_minutes;not null;default:5"`
	TotalBids           int                 `gorm:"column:total_bids;not null;default:0"`
	UniqueBidders       int                 `gorm:"column:unique_bidders;not null;default:0"`
	WinningBidID        *uuid.UUID          `gorm:"column:winning_bid_id;type:uuid"`
	ReserveMet          *bool               `gorm:"column:reserve_met"`
	CompletedAt         *time.Time          `gorm:"column:completed_at"`
	CreatedBy           *uuid.UUID          `gorm:"column:created_by;type:uuid"`
	Vehicle             *Vehicle            `gorm:"foreignKey:VehicleID"`
	CreatedAt           time.Time           `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt           time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// MinimumNextBid is the lowest amount the next bid must reach.
func (a Auction) MinimumNextBid() decimal.Decimal {
	if a.TotalBids == 0 {
		return a.StartingPrice
	}
	return a.CurrentPrice.Add(a.BidIncrement)
}

// InBiddingWindow reports whether now falls inside the auction's schedule.
func (a Auction) InBiddingWindow(now time.Time) bool {
	return !now.Before(a.StartTime) && now.Before(a.EndTime)
}
