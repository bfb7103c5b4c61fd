package models

import (
	"time"

	"github.com/google/uuid"
)

// AuctionWatchlistItem tracks a user's interest in an auction.
type AuctionWatchlistItem struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AuctionID       uuid.UUID `gorm:"column:auction_id;type:uuid;not null;uniqueIndex:ux_auction_watchlist_auction_user;index"`
	UserID          uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_auction_watchlist_auction_user;index"`
	NotifyBeforeEnd bool      `gorm:"column:notify_before_end;not null;default:true"`
	NotifyOnOutbid  bool      `gorm:"column:notify_on_outbid;not null;default:true"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName keeps the historical table name for the watchlist.
func (AuctionWatchlistItem) TableName() string {
	return "auction_watchlist"
}
