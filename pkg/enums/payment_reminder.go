package enums

import "fmt"

// ReminderType is the channel used to chase an overdue installment.
type ReminderType string

const (
	ReminderTypeSMS    ReminderType = "sms"
	ReminderTypeEmail  ReminderType = "email"
	ReminderTypeCall   ReminderType = "call"
	ReminderTypeLetter ReminderType = "letter"
)

var validReminderTypes = []ReminderType{
	ReminderTypeSMS,
	ReminderTypeEmail,
	ReminderTypeCall,
	ReminderTypeLetter,
}

// IsValid reports whether the value is a known ReminderType.
func (r ReminderType) IsValid() bool {
	for _, candidate := range validReminderTypes {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReminderType converts raw input into a ReminderType.
func ParseReminderType(value string) (ReminderType, error) {
	for _, candidate := range validReminderTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reminder type %q", value)
}

// ReminderStatus tracks delivery of a payment reminder.
type ReminderStatus string

const (
	ReminderStatusPending   ReminderStatus = "pending"
	ReminderStatusSent      ReminderStatus = "sent"
	ReminderStatusFailed    ReminderStatus = "failed"
	ReminderStatusResponded ReminderStatus = "responded"
)

var validReminderStatuses = []ReminderStatus{
	ReminderStatusPending,
	ReminderStatusSent,
	ReminderStatusFailed,
	ReminderStatusResponded,
}

// IsValid reports whether the value is a known ReminderStatus.
func (r ReminderStatus) IsValid() bool {
	for _, candidate := range validReminderStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReminderStatus converts raw input into a ReminderStatus.
func ParseReminderStatus(value string) (ReminderStatus, error) {
	for _, candidate := range validReminderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reminder status %q", value)
}
