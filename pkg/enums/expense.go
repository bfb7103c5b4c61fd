package enums

import "fmt"

// ExpenseStatus tracks an expense through its approval workflow.
type ExpenseStatus string

const (
	ExpenseStatusDraft     ExpenseStatus = "draft"
	ExpenseStatusSubmitted ExpenseStatus = "submitted"
	ExpenseStatusApproved  ExpenseStatus = "approved"
	ExpenseStatusRejected  ExpenseStatus = "rejected"
	ExpenseStatusPaid      ExpenseStatus = "paid"
	ExpenseStatusCancelled ExpenseStatus = "cancelled"
)

var validExpenseStatuses = []ExpenseStatus{
	ExpenseStatusDraft,
	ExpenseStatusSubmitted,
	ExpenseStatusApproved,
	ExpenseStatusRejected,
	ExpenseStatusPaid,
	ExpenseStatusCancelled,
}

// String implements fmt.Stringer.
func (e ExpenseStatus) String() string {
	return string(e)
}

// IsValid reports whether the value is a known ExpenseStatus.
func (e ExpenseStatus) IsValid() bool {
	for _, candidate := range validExpenseStatuses {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseExpenseStatus converts raw input into an ExpenseStatus.
func ParseExpenseStatus(value string) (ExpenseStatus, error) {
	for _, candidate := range validExpenseStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid expense status %q", value)
}

// ExpenseReportStatus tracks whether a report still accepts expenses.
type ExpenseReportStatus string

const (
	ExpenseReportDraft     ExpenseReportStatus = "draft"
	ExpenseReportFinalized ExpenseReportStatus = "finalized"
)

var validExpenseReportStatuses = []ExpenseReportStatus{
	ExpenseReportDraft,
	ExpenseReportFinalized,
}

// IsValid reports whether the value is a known ExpenseReportStatus.
func (e ExpenseReportStatus) IsValid() bool {
	for _, candidate := range validExpenseReportStatuses {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseExpenseReportStatus converts raw input into an ExpenseReportStatus.
func ParseExpenseReportStatus(value string) (ExpenseReportStatus, error) {
	for _, candidate := range validExpenseReportStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid expense report status %q", value)
}

// RecurrenceFrequency schedules recurring expense generation.
type RecurrenceFrequency string

const (
	RecurrenceWeekly    RecurrenceFrequency = "weekly"
	RecurrenceMonthly   RecurrenceFrequency = "monthly"
	RecurrenceQuarterly RecurrenceFrequency = "quarterly"
	RecurrenceYearly    RecurrenceFrequency = "yearly"
)

var validRecurrenceFrequencies = []RecurrenceFrequency{
	RecurrenceWeekly,
	RecurrenceMonthly,
	RecurrenceQuarterly,
	RecurrenceYearly,
}

// IsValid reports whether the value is a known RecurrenceFrequency.
func (r RecurrenceFrequency) IsValid() bool {
	for _, candidate := range validRecurrenceFrequencies {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRecurrenceFrequency converts raw input into a RecurrenceFrequency.
func ParseRecurrenceFrequency(value string) (RecurrenceFrequency, error) {
	for _, candidate := range validRecurrenceFrequencies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid recurrence frequency %q", value)
}
