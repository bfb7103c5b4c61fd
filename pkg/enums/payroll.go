package enums

import "fmt"

// PayrollRunStatus tracks a payroll run through processing and payment.
type PayrollRunStatus string

const (
	PayrollRunDraft      PayrollRunStatus = "draft"
	PayrollRunProcessing PayrollRunStatus = "processing"
	PayrollRunCompleted  PayrollRunStatus = "completed"
	PayrollRunApproved   PayrollRunStatus = "approved"
	PayrollRunPaid       PayrollRunStatus = "paid"
	PayrollRunCancelled  PayrollRunStatus = "cancelled"
)

var validPayrollRunStatuses = []PayrollRunStatus{
	PayrollRunDraft,
	PayrollRunProcessing,
	PayrollRunCompleted,
	PayrollRunApproved,
	PayrollRunPaid,
	PayrollRunCancelled,
}

// String implements fmt.Stringer.
func (p PayrollRunStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PayrollRunStatus.
func (p PayrollRunStatus) IsValid() bool {
	for _, candidate := range validPayrollRunStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePayrollRunStatus converts raw input into a PayrollRunStatus.
func ParsePayrollRunStatus(value string) (PayrollRunStatus, error) {
	for _, candidate := range validPayrollRunStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payroll run status %q", value)
}

// CommissionStatus tracks sales commission approval.
type CommissionStatus string

const (
	CommissionPending  CommissionStatus = "pending"
	CommissionApproved CommissionStatus = "approved"
	CommissionPaid     CommissionStatus = "paid"
	CommissionRejected CommissionStatus = "rejected"
)

var validCommissionStatuses = []CommissionStatus{
	CommissionPending,
	CommissionApproved,
	CommissionPaid,
	CommissionRejected,
}

// IsValid reports whether the value is a known CommissionStatus.
func (c CommissionStatus) IsValid() bool {
	for _, candidate := range validCommissionStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCommissionStatus converts raw input into a CommissionStatus.
func ParseCommissionStatus(value string) (CommissionStatus, error) {
	for _, candidate := range validCommissionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid commission status %q", value)
}

// DeductionType maps to the deduction_type enum in Postgres.
type DeductionType string

const (
	DeductionTax       DeductionType = "tax"
	DeductionPension   DeductionType = "pension"
	DeductionInsurance DeductionType = "insurance"
	DeductionLoan      DeductionType = "loan"
	DeductionAdvance   DeductionType = "advance"
	DeductionOther     DeductionType = "other"
)

var validDeductionTypes = []DeductionType{
	DeductionTax,
	DeductionPension,
	DeductionInsurance,
	DeductionLoan,
	DeductionAdvance,
	DeductionOther,
}

// IsValid reports whether the value is a known DeductionType.
func (d DeductionType) IsValid() bool {
	for _, candidate := range validDeductionTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeductionType converts raw input into a DeductionType.
func ParseDeductionType(value string) (DeductionType, error) {
	for _, candidate := range validDeductionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid deduction type %q", value)
}

// DeductionFrequency controls how often a deduction applies.
type DeductionFrequency string

const (
	DeductionMonthly DeductionFrequency = "monthly"
	DeductionOneTime DeductionFrequency = "one_time"
)

var validDeductionFrequencies = []DeductionFrequency{
	DeductionMonthly,
	DeductionOneTime,
}

// IsValid reports whether the value is a known DeductionFrequency.
func (d DeductionFrequency) IsValid() bool {
	for _, candidate := range validDeductionFrequencies {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeductionFrequency converts raw input into a DeductionFrequency.
func ParseDeductionFrequency(value string) (DeductionFrequency, error) {
	for _, candidate := range validDeductionFrequencies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid deduction frequency %q", value)
}
