package auctions

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
)

// AuctionDTO is the transport shape for an auction.
type AuctionDTO struct {
	ID                  uuid.UUID           `json:"id"`
	AuctionNumber       string              `json:"auction_number"`
	VehicleID           uuid.UUID           `json:"vehicle_id"`
	Title               string              `json:"title"`
	Description         *string             `json:"description,omitempty"`
	Type                enums.AuctionType   `json:"type"`
	Status              enums.AuctionStatus `json:"status"`
	StartTime           time.Time           `json:"start_time"`
	EndTime             time.Time           `json:"end_time"`
	StartingPrice       decimal.Decimal     `json:"starting_price"`
	ReservePrice        *decimal.Decimal    `json:"reserve_price,omitempty"`
	BidIncrement        decimal.Decimal     `json:"bid_increment"`
	BuyNowPrice         *decimal.Decimal    `json:"buy_now_price,omitempty"`
	CurrentPrice        decimal.Decimal     `json:"current_price"`
	MinimumNextBid      decimal.Decimal     `json:"minimum_next_bid"`
	RequireRegistration bool                `json:"require_registration"`
	RequireDeposit      bool                `json:"require_deposit"`
	DepositAmount       *decimal.Decimal    `json:"deposit_amount,omitempty"`
	AutoExtend          bool                `json:"auto_extend"`
	ExtensionMinutes    int                 `json:"extension_minutes"`
	TotalBids           int                 `json:"total_bids"`
	UniqueBidders       int                 `json:"unique_bidders"`
	WinningBidID        *uuid.UUID          `json:"winning_bid_id,omitempty"`
	ReserveMet          *bool               `json:"reserve_met,omitempty"`
	CompletedAt         *time.Time          `json:"completed_at,omitempty"`
	CreatedBy           *uuid.UUID          `json:"created_by,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
}

// BidDTO is one accepted bid.
type BidDTO struct {
	ID        uuid.UUID       `json:"id"`
	AuctionID uuid.UUID       `json:"auction_id"`
	BidderID  uuid.UUID       `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
	Type      enums.BidType   `json:"type"`
	IsWinning bool            `json:"is_winning"`
	IsOutbid  bool            `json:"is_outbid"`
	CreatedAt time.Time       `json:"created_at"`
}

// ParticipantDTO is a registered bidder.
type ParticipantDTO struct {
	ID                  uuid.UUID        `json:"id"`
	AuctionID           uuid.UUID        `json:"auction_id"`
	UserID              uuid.UUID        `json:"user_id"`
	IsApproved          bool             `json:"is_approved"`
	ApprovedBy          *uuid.UUID       `json:"approved_by,omitempty"`
	ApprovedAt          *time.Time       `json:"approved_at,omitempty"`
	DepositPaid         bool             `json:"deposit_paid"`
	RegistrationFeePaid bool             `json:"registration_fee_paid"`
	ProxyBidding        bool             `json:"proxy_bidding"`
	ProxyMaxAmount      *decimal.Decimal `json:"proxy_max_amount,omitempty"`
	BidCount            int              `json:"bid_count"`
	HighestBid          *decimal.Decimal `json:"highest_bid,omitempty"`
}

// ResultDTO is the settlement record of a completed auction.
type ResultDTO struct {
	ID             uuid.UUID                 `json:"id"`
	AuctionID      uuid.UUID                 `json:"auction_id"`
	WinnerID       *uuid.UUID                `json:"winner_id,omitempty"`
	WinningBidID   *uuid.UUID                `json:"winning_bid_id,omitempty"`
	FinalPrice     decimal.Decimal           `json:"final_price"`
	BuyersPremium  decimal.Decimal           `json:"buyers_premium"`
	Taxes          decimal.Decimal           `json:"taxes"`
	Fees           decimal.Decimal           `json:"fees"`
	TotalDue       decimal.Decimal           `json:"total_due"`
	AmountPaid     decimal.Decimal           `json:"amount_paid"`
	PaymentStatus  enums.ResultPaymentStatus `json:"payment_status"`
	PaymentDueDate *time.Time                `json:"payment_due_date,omitempty"`
	DeliveryStatus enums.DeliveryStatus      `json:"delivery_status"`
	DeliveredAt    *time.Time                `json:"delivered_at,omitempty"`
	ReserveMet     bool                      `json:"reserve_met"`
	Notes          *string                   `json:"notes,omitempty"`
}

// WatchDTO is one watchlist entry.
type WatchDTO struct {
	AuctionID       uuid.UUID `json:"auction_id"`
	UserID          uuid.UUID `json:"user_id"`
	NotifyBeforeEnd bool      `json:"notify_before_end"`
	NotifyOnOutbid  bool      `json:"notify_on_outbid"`
}

// CreateAuctionRequest opens a draft auction for one vehicle.
type CreateAuctionRequest struct {
	VehicleID           uuid.UUID         `json:"vehicle_id" validate:"required"`
	Title               string            `json:"title" validate:"required"`
	Description         *string           `json:"description,omitempty"`
	Type                enums.AuctionType `json:"type,omitempty"`
	StartTime           time.Time         `json:"start_time" validate:"required"`
	EndTime             time.Time         `json:"end_time" validate:"required"`
	StartingPrice       decimal.Decimal   `json:"starting_price" validate:"required"`
	ReservePrice        *decimal.Decimal  `json:"reserve_price,omitempty"`
	BidIncrement        *decimal.Decimal  `json:"bid_increment,omitempty"`
	BuyNowPrice         *decimal.Decimal  `json:"buy_now_price,omitempty"`
	RequireRegistration bool              `json:"require_registration"`
	RequireDeposit      bool              `json:"require_deposit"`
	DepositAmount       *decimal.Decimal  `json:"deposit_amount,omitempty"`
	AutoExtend          *bool             `json:"auto_extend,omitempty"`
	ExtensionMinutes    *int              `json:"extension_minutes,omitempty"`
}

// UpdateAuctionRequest edits a draft or scheduled auction.
type UpdateAuctionRequest struct {
	Title            *string          `json:"title,omitempty"`
	Description      *string          `json:"description,omitempty"`
	StartTime        *time.Time       `json:"start_time,omitempty"`
	EndTime          *time.Time       `json:"end_time,omitempty"`
	StartingPrice    *decimal.Decimal `json:"starting_price,omitempty"`
	ReservePrice     *decimal.Decimal `json:"reserve_price,omitempty"`
	BidIncrement     *decimal.Decimal `json:"bid_increment,omitempty"`
	BuyNowPrice      *decimal.Decimal `json:"buy_now_price,omitempty"`
	AutoExtend       *bool            `json:"auto_extend,omitempty"`
	ExtensionMinutes *int             `json:"extension_minutes,omitempty"`
}

// PlaceBidRequest is an offer on an active auction.
type PlaceBidRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

// BidMeta carries request origin for the bid trail.
type BidMeta struct {
	IPAddress string
	UserAgent string
}

// RegisterRequest enrolls a bidder into an auction.
type RegisterRequest struct {
	ProxyBidding   bool             `json:"proxy_bidding"`
	ProxyMaxAmount *decimal.Decimal `json:"proxy_max_amount,omitempty"`
}

// UpdateResultRequest settles fees, payment and delivery on a result.
type UpdateResultRequest struct {
	BuyersPremium  *decimal.Decimal      `json:"buyers_premium,omitempty"`
	Taxes          *decimal.Decimal      `json:"taxes,omitempty"`
	Fees           *decimal.Decimal      `json:"fees,omitempty"`
	AmountPaid     *decimal.Decimal      `json:"amount_paid,omitempty"`
	PaymentDueDate *time.Time            `json:"payment_due_date,omitempty"`
	DeliveryStatus *enums.DeliveryStatus `json:"delivery_status,omitempty"`
	Notes          *string               `json:"notes,omitempty"`
}

// WatchRequest tunes watchlist notifications.
type WatchRequest struct {
	NotifyBeforeEnd *bool `json:"notify_before_end,omitempty"`
	NotifyOnOutbid  *bool `json:"notify_on_outbid,omitempty"`
}

// ListFilter narrows the auction listing.
type ListFilter struct {
	Status    *enums.AuctionStatus
	Type      *enums.AuctionType
	VehicleID *uuid.UUID
	Search    string
}

// Page wraps a result slice with the cursor for the next page.
type Page[T any] struct {
	Items      []T     `json:"items"`
	NextCursor *string `json:"next_cursor,omitempty"`
}

func pageOf[T any](items []T, limit int, cursorFor func(T) pagination.Cursor) Page[T] {
	normalized := pagination.NormalizeLimit(limit)
	page := Page[T]{Items: items}
	if len(items) > normalized {
		page.Items = items[:normalized]
		last := page.Items[len(page.Items)-1]
		encoded := pagination.EncodeCursor(cursorFor(last))
		page.NextCursor = &encoded
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	return page
}

func fromModel(a *models.Auction) *AuctionDTO {
	if a == nil {
		return nil
	}
	return &AuctionDTO{
		ID:                  a.ID,
		AuctionNumber:       a.AuctionNumber,
		VehicleID:           a.VehicleID,
		Title:               a.Title,
		Description:         a.Description,
		Type:                a.Type,
		Status:              a.Status,
		StartTime:           a.StartTime,
		EndTime:             a.EndTime,
		StartingPrice:       a.StartingPrice,
		ReservePrice:        a.ReservePrice,
		BidIncrement:        a.BidIncrement,
		BuyNowPrice:         a.BuyNowPrice,
		CurrentPrice:        a.CurrentPrice,
		MinimumNextBid:      a.MinimumNextBid(),
		RequireRegistration: a.RequireRegistration,
		RequireDeposit:      a.RequireDeposit,
		DepositAmount:       a.DepositAmount,
		AutoExtend:          a.AutoExtend,
		ExtensionMinutes:    a.ExtensionMinutes,
		TotalBids:           a.TotalBids,
		UniqueBidders:       a.UniqueBidders,
		WinningBidID:        a.WinningBidID,
		ReserveMet:          a.ReserveMet,
		CompletedAt:         a.CompletedAt,
		CreatedBy:           a.CreatedBy,
		CreatedAt:           a.CreatedAt,
	}
}

func bidFromModel(b *models.Bid) *BidDTO {
	if b == nil {
		return nil
	}
	return &BidDTO{
		ID:        b.ID,
		AuctionID: b.AuctionID,
		BidderID:  b.BidderID,
		Amount:    b.Amount,
		Type:      b.Type,
		IsWinning: b.IsWinning,
		IsOutbid:  b.IsOutbid,
		CreatedAt: b.CreatedAt,
	}
}

func participantFromModel(p *models.AuctionParticipant) *ParticipantDTO {
	if p == nil {
		return nil
	}
	return &ParticipantDTO{
		ID:                  p.ID,
		AuctionID:           p.AuctionID,
		UserID:              p.UserID,
		IsApproved:          p.IsApproved,
		ApprovedBy:          p.ApprovedBy,
		ApprovedAt:          p.ApprovedAt,
		DepositPaid:         p.DepositPaid,
		RegistrationFeePaid: p.RegistrationFeePaid,
		ProxyBidding:        p.ProxyBidding,
		ProxyMaxAmount:      p.ProxyMaxAmount,
		BidCount:            p.BidCount,
		HighestBid:          p.HighestBid,
	}
}

func resultFromModel(r *models.AuctionResult) *ResultDTO {
	if r == nil {
		return nil
	}
	return &ResultDTO{
		ID:             r.ID,
		AuctionID:      r.AuctionID,
		WinnerID:       r.WinnerID,
		WinningBidID:   r.WinningBidID,
		FinalPrice:     r.FinalPrice,
		BuyersPremium:  r.BuyersPremium,
		Taxes:          r.Taxes,
		Fees:           r.Fees,
		TotalDue:       r.TotalDue,
		AmountPaid:     r.AmountPaid,
		PaymentStatus:  r.PaymentStatus,
		PaymentDueDate: r.PaymentDueDate,
		DeliveryStatus: r.DeliveryStatus,
		DeliveredAt:    r.DeliveredAt,
		ReserveMet:     r.ReserveMet,
		Notes:          r.Notes,
	}
}

func watchFromModel(w *models.AuctionWatchlistItem) *WatchDTO {
	if w == nil {
		return nil
	}
	return &WatchDTO{
		AuctionID:       w.AuctionID,
		UserID:          w.UserID,
		NotifyBeforeEnd: w.NotifyBeforeEnd,
		NotifyOnOutbid:  w.NotifyOnOutbid,
	}
}
