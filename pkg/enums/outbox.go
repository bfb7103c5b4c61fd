package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateVehicle         OutboxAggregateType = "vehicle"
	AggregateClient          OutboxAggregateType = "client"
	AggregateAgreement       OutboxAggregateType = "agreement"
	AggregatePayment         OutboxAggregateType = "payment"
	AggregateAuction         OutboxAggregateType = "auction"
	AggregateInsurancePolicy OutboxAggregateType = "insurance_policy"
	AggregateRepossession    OutboxAggregateType = "repossession"
	AggregateExpense         OutboxAggregateType = "expense"
	AggregateNotification    OutboxAggregateType = "notification"
	AggregateAuditLog        OutboxAggregateType = "audit_log"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateVehicle,
	AggregateClient,
	AggregateAgreement,
	AggregatePayment,
	AggregateAuction,
	AggregateInsurancePolicy,
	AggregateRepossession,
	AggregateExpense,
	AggregateNotification,
	AggregateAuditLog,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventVehicleStatusChanged      OutboxEventType = "vehicle_status_changed"
	EventPaymentRecorded           OutboxEventType = "payment_recorded"
	EventPaymentOverdue            OutboxEventType = "payment_overdue"
	EventBidPlaced                 OutboxEventType = "bid_placed"
	EventBidOutbid                 OutboxEventType = "bid_outbid"
	EventAuctionScheduled          OutboxEventType = "auction_scheduled"
	EventAuctionActivated          OutboxEventType = "auction_activated"
	EventAuctionCompleted          OutboxEventType = "auction_completed"
	EventAuctionCancelled          OutboxEventType = "auction_cancelled"
	EventInsuranceExpiring         OutboxEventType = "insurance_expiring"
	EventInsuranceExpired          OutboxEventType = "insurance_expired"
	EventRepossessionStatusChanged OutboxEventType = "repossession_status_changed"
	EventExpenseSubmitted          OutboxEventType = "expense_submitted"
	EventExpenseApproved           OutboxEventType = "expense_approved"
	EventExpenseRejected           OutboxEventType = "expense_rejected"
	EventExpensePaid               OutboxEventType = "expense_paid"
	EventNotificationRequested     OutboxEventType = "notification_requested"
	EventAuditRecorded             OutboxEventType = "audit_recorded"
)

var validOutboxEventTypes = []OutboxEventType{
	EventVehicleStatusChanged,
	EventPaymentRecorded,
	EventPaymentOverdue,
	EventBidPlaced,
	EventBidOutbid,
	EventAuctionScheduled,
	EventAuctionActivated,
	EventAuctionCompleted,
	EventAuctionCancelled,
	EventInsuranceExpiring,
	EventInsuranceExpired,
	EventRepossessionStatusChanged,
	EventExpenseSubmitted,
	EventExpenseApproved,
	EventExpenseRejected,
	EventExpensePaid,
	EventNotificationRequested,
	EventAuditRecorded,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
