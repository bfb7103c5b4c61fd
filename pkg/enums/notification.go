package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationPaymentReminder    NotificationType = "payment_reminder"
	NotificationPaymentOverdue     NotificationType = "payment_overdue"
	NotificationInsuranceExpiry    NotificationType = "insurance_expiry"
	NotificationVehicleAvailable   NotificationType = "vehicle_available"
	NotificationAuctionScheduled   NotificationType = "auction_scheduled"
	NotificationAuctionOutbid      NotificationType = "auction_outbid"
	NotificationAuctionWon         NotificationType = "auction_won"
	NotificationRepossessionUpdate NotificationType = "repossession_update"
	NotificationExpenseApproval    NotificationType = "expense_approval"
	NotificationGeneral            NotificationType = "general"
)

var validNotificationTypes = []NotificationType{
	NotificationPaymentReminder,
	NotificationPaymentOverdue,
	NotificationInsuranceExpiry,
	NotificationVehicleAvailable,
	NotificationAuctionScheduled,
	NotificationAuctionOutbid,
	NotificationAuctionWon,
	NotificationRepossessionUpdate,
	NotificationExpenseApproval,
	NotificationGeneral,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

// NotificationPriority orders notifications for filtering and delivery.
type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityMedium NotificationPriority = "medium"
	PriorityHigh   NotificationPriority = "high"
	PriorityUrgent NotificationPriority = "urgent"
)

var validNotificationPriorities = []NotificationPriority{
	PriorityLow,
	PriorityMedium,
	PriorityHigh,
	PriorityUrgent,
}

var notificationPriorityRanks = map[NotificationPriority]int{
	PriorityLow:    0,
	PriorityMedium: 1,
	PriorityHigh:   2,
	PriorityUrgent: 3,
}

// Rank returns the position of the priority for threshold comparisons.
func (p NotificationPriority) Rank() int {
	rank, ok := notificationPriorityRanks[p]
	if !ok {
		return -1
	}
	return rank
}

// IsValid reports whether the value is a known NotificationPriority.
func (p NotificationPriority) IsValid() bool {
	for _, candidate := range validNotificationPriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseNotificationPriority converts raw input into a NotificationPriority.
func ParseNotificationPriority(value string) (NotificationPriority, error) {
	for _, candidate := range validNotificationPriorities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification priority %q", value)
}

// NotificationChannel names a delivery channel.
type NotificationChannel string

const (
	ChannelInApp NotificationChannel = "in_app"
	ChannelEmail NotificationChannel = "email"
	ChannelSMS   NotificationChannel = "sms"
)

var validNotificationChannels = []NotificationChannel{
	ChannelInApp,
	ChannelEmail,
	ChannelSMS,
}

// IsValid reports whether the value is a known NotificationChannel.
func (c NotificationChannel) IsValid() bool {
	for _, candidate := range validNotificationChannels {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseNotificationChannel converts raw input into a NotificationChannel.
func ParseNotificationChannel(value string) (NotificationChannel, error) {
	for _, candidate := range validNotificationChannels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification channel %q", value)
}
