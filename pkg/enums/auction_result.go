package enums

import "fmt"

// ResultPaymentStatus tracks settlement of a completed auction.
type ResultPaymentStatus string

const (
	ResultPaymentPending  ResultPaymentStatus = "pending"
	ResultPaymentPartial  ResultPaymentStatus = "partial"
	ResultPaymentPaid     ResultPaymentStatus = "paid"
	ResultPaymentFailed   ResultPaymentStatus = "failed"
	ResultPaymentRefunded ResultPaymentStatus = "refunded"
)

var validResultPaymentStatuses = []ResultPaymentStatus{
	ResultPaymentPending,
	ResultPaymentPartial,
	ResultPaymentPaid,
	ResultPaymentFailed,
	ResultPaymentRefunded,
}

// IsValid reports whether the value is a known ResultPaymentStatus.
func (r ResultPaymentStatus) IsValid() bool {
	for _, candidate := range validResultPaymentStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseResultPaymentStatus converts raw input into a ResultPaymentStatus.
func ParseResultPaymentStatus(value string) (ResultPaymentStatus, error) {
	for _, candidate := range validResultPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid result payment status %q", value)
}

// DeliveryStatus tracks handover of an auctioned vehicle.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryScheduled DeliveryStatus = "scheduled"
	DeliveryInTransit DeliveryStatus = "in_transit"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryCancelled DeliveryStatus = "cancelled"
)

var validDeliveryStatuses = []DeliveryStatus{
	DeliveryPending,
	DeliveryScheduled,
	DeliveryInTransit,
	DeliveryDelivered,
	DeliveryCancelled,
}

// IsValid reports whether the value is a known DeliveryStatus.
func (d DeliveryStatus) IsValid() bool {
	for _, candidate := range validDeliveryStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeliveryStatus converts raw input into a DeliveryStatus.
func ParseDeliveryStatus(value string) (DeliveryStatus, error) {
	for _, candidate := range validDeliveryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery status %q", value)
}
