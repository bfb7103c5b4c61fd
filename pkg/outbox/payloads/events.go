package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// VehicleStatusChangedEvent is emitted on every inventory status transition.
type VehicleStatusChangedEvent struct {
	VehicleID uuid.UUID           `json:"vehicle_id"`
	VIN       string              `json:"vin"`
	OldStatus enums.VehicleStatus `json:"old_status"`
	NewStatus enums.VehicleStatus `json:"new_status"`
	Notes     string              `json:"notes,omitempty"`
}

// PaymentRecordedEvent signals a receipt posted against an agreement.
type PaymentRecordedEvent struct {
	PaymentID       uuid.UUID       `json:"payment_id"`
	ReceiptNumber   string          `json:"receipt_number"`
	ClientVehicleID uuid.UUID       `json:"client_vehicle_id"`
	ClientID        uuid.UUID       `json:"client_id"`
	Amount          decimal.Decimal `json:"amount"`
	Balance         decimal.Decimal `json:"balance"`
	PaidOff         bool            `json:"paid_off"`
}

// PaymentOverdueEvent is raised by the cron scan per overdue schedule row.
type PaymentOverdueEvent struct {
	ScheduleID      uuid.UUID       `json:"schedule_id"`
	ClientVehicleID uuid.UUID       `json:"client_vehicle_id"`
	ClientID        uuid.UUID       `json:"client_id"`
	DueDate         time.Time       `json:"due_date"`
	AmountDue       decimal.Decimal `json:"amount_due"`
	DaysOverdue     int             `json:"days_overdue"`
}

// BidPlacedEvent records the accepted bid and the new auction state.
type BidPlacedEvent struct {
	BidID       uuid.UUID       `json:"bid_id"`
	AuctionID   uuid.UUID       `json:"auction_id"`
	BidderID    uuid.UUID       `json:"bidder_id"`
	Amount      decimal.Decimal `json:"amount"`
	TotalBids   int             `json:"total_bids"`
	EndExtended bool            `json:"end_extended"`
	NewEndTime  *time.Time      `json:"new_end_time,omitempty"`
}

// BidOutbidEvent tells the displaced bidder they lost the lead.
type BidOutbidEvent struct {
	BidID        uuid.UUID       `json:"bid_id"`
	AuctionID    uuid.UUID       `json:"auction_id"`
	BidderID     uuid.UUID       `json:"bidder_id"`
	OutbidAmount decimal.Decimal `json:"outbid_amount"`
}

// AuctionLifecycleEvent covers scheduled/activated/cancelled transitions.
type AuctionLifecycleEvent struct {
	AuctionID     uuid.UUID           `json:"auction_id"`
	AuctionNumber string              `json:"auction_number"`
	VehicleID     uuid.UUID           `json:"vehicle_id"`
	Status        enums.AuctionStatus `json:"status"`
	StartTime     time.Time           `json:"start_time"`
	EndTime       time.Time           `json:"end_time"`
}

// AuctionCompletedEvent carries the finalization outcome.
type AuctionCompletedEvent struct {
	AuctionID     uuid.UUID        `json:"auction_id"`
	AuctionNumber string           `json:"auction_number"`
	VehicleID     uuid.UUID        `json:"vehicle_id"`
	WinningBidID  *uuid.UUID       `json:"winning_bid_id,omitempty"`
	WinnerID      *uuid.UUID       `json:"winner_id,omitempty"`
	FinalPrice    *decimal.Decimal `json:"final_price,omitempty"`
	ReserveMet    bool             `json:"reserve_met"`
}

// InsuranceExpiryEvent is emitted for expiring and expired policies.
type InsuranceExpiryEvent struct {
	PolicyID     uuid.UUID `json:"policy_id"`
	PolicyNumber string    `json:"policy_number"`
	VehicleID    uuid.UUID `json:"vehicle_id"`
	EndDate      time.Time `json:"end_date"`
	DaysLeft     int       `json:"days_left"`
}

// RepossessionStatusChangedEvent tracks case transitions.
type RepossessionStatusChangedEvent struct {
	RepossessionID uuid.UUID                `json:"repossession_id"`
	CaseNumber     string                   `json:"case_number"`
	ClientID       uuid.UUID                `json:"client_id"`
	OldStatus      enums.RepossessionStatus `json:"old_status"`
	NewStatus      enums.RepossessionStatus `json:"new_status"`
	Reason         string                   `json:"reason,omitempty"`
}

// ExpenseStatusEvent covers submitted/approved/rejected/paid transitions.
type ExpenseStatusEvent struct {
	ExpenseID     uuid.UUID           `json:"expense_id"`
	ExpenseNumber string              `json:"expense_number"`
	Status        enums.ExpenseStatus `json:"status"`
	Total         decimal.Decimal     `json:"total"`
	SubmittedBy   *uuid.UUID          `json:"submitted_by,omitempty"`
	DecidedBy     *uuid.UUID          `json:"decided_by,omitempty"`
	Reason        string              `json:"reason,omitempty"`
}

// NotificationRequestedEvent asks the worker to fan a notification out
// to explicit recipients, bypassing type-based recipient resolution.
type NotificationRequestedEvent struct {
	Type       enums.NotificationType     `json:"type"`
	Priority   enums.NotificationPriority `json:"priority"`
	Title      string                     `json:"title"`
	Message    string                     `json:"message"`
	Link       string                     `json:"link,omitempty"`
	EntityType string                     `json:"entity_type,omitempty"`
	EntityID   *uuid.UUID                 `json:"entity_id,omitempty"`
	Recipients []uuid.UUID                `json:"recipients"`
}

// AuditRecordedEvent streams audit rows to the long-term retention sink.
type AuditRecordedEvent struct {
	AuditLogID uuid.UUID         `json:"audit_log_id"`
	UserID     *uuid.UUID        `json:"user_id,omitempty"`
	Action     enums.AuditAction `json:"action"`
	EntityName string            `json:"entity_name,omitempty"`
	EntityID   string            `json:"entity_id,omitempty"`
	RecordedAt time.Time         `json:"recorded_at"`
}
