package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// Bid is a single offer placed in an auction.
type Bid struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AuctionID uuid.UUID       `gorm:"column:auction_id;type:uuid;not null;index"`
	BidderID  uuid.UUID       `gorm:"column:bidder_id;type:uuid;not null;index"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	Type      enums.BidType   `gorm:"column:type;type:bid_type;not null;default:'manual'"`
	IsActive  bool            `gorm:"column:is_active;not null;default:true"`
	IsWinning bool            `gorm:"column:is_winning;not null;default:false"`
	IsOutbid  bool            `gorm:"column:is_outbid;not null;default:false"`
	IPAddress *string         `gorm:"column:ip_address"`
	UserAgent *string         `gorm:"column:user_agent"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime;index"`
}
