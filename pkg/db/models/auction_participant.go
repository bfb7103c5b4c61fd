package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuctionParticipant is a user registered to bid in one auction.
type AuctionParticipant struct {
	ID                  uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AuctionID           uuid.UUID        `gorm:"column:auction_id;type:uuid;not null;uniqueIndex:ux_auction_participants_auction_user;index"`
	UserID              uuid.UUID        `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_auction_participants_auction_user"`
	IsApproved          bool             `gorm:"column:is_approved;not null;default:false"`
	ApprovedBy          *uuid.UUID       `gorm:"column:approved_by;type:uuid"`
	ApprovedAt          *time.Time       `gorm:"column:approved_at"`
	DepositPaid         bool             `gorm:"column:deposit_paid;not null;default:false"`
	RegistrationFeePaid bool             `gorm:"column:registration_fee_paid;not null;default:false"`
	ProxyBidding        bool             `gorm:"column:proxy_bidding;not null;default:false"`
	ProxyMaxAmount      *decimal.Decimal `gorm:"column:proxy_max_amount;type:numeric(12,2)"`
	BidCount            int              `gorm:"column:bid_count;not null;default:0"`
	HighestBid          *decimal.Decimal `gorm:"column:highest_bid;type:numeric(12,2)"`
	CreatedAt           time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
