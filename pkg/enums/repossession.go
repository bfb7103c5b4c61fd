package enums

import "fmt"

// RepossessionStatus tracks a repossession case through its workflow.
type RepossessionStatus string

const (
	RepoStatusPending          RepossessionStatus = "pending"
	RepoStatusNoticeSent       RepossessionStatus = "notice_sent"
	RepoStatusInProgress       RepossessionStatus = "in_progress"
	RepoStatusVehicleRecovered RepossessionStatus = "vehicle_recovered"
	RepoStatusCompleted        RepossessionStatus = "completed"
	RepoStatusCancelled        RepossessionStatus = "cancelled"
	RepoStatusOnHold           RepossessionStatus = "on_hold"
)

var validRepossessionStatuses = []RepossessionStatus{
	RepoStatusPending,
	RepoStatusNoticeSent,
	RepoStatusInProgress,
	RepoStatusVehicleRecovered,
	RepoStatusCompleted,
	RepoStatusCancelled,
	RepoStatusOnHold,
}

// String implements fmt.Stringer.
func (r RepossessionStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RepossessionStatus.
func (r RepossessionStatus) IsValid() bool {
	for _, candidate := range validRepossessionStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRepossessionStatus converts raw input into a RepossessionStatus.
func ParseRepossessionStatus(value string) (RepossessionStatus, error) {
	for _, candidate := range validRepossessionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid repossession status %q", value)
}

// RepossessionReason records why a case was opened.
type RepossessionReason string

const (
	RepoReasonPaymentDefault   RepossessionReason = "payment_default"
	RepoReasonBreachOfContract RepossessionReason = "breach_of_contract"
	RepoReasonInsuranceLapse   RepossessionReason = "insurance_lapse"
	RepoReasonUnauthorizedUse  RepossessionReason = "unauthorized_use"
	RepoReasonOther            RepossessionReason = "other"
)

var validRepossessionReasons = []RepossessionReason{
	RepoReasonPaymentDefault,
	RepoReasonBreachOfContract,
	RepoReasonInsuranceLapse,
	RepoReasonUnauthorizedUse,
	RepoReasonOther,
}

// IsValid reports whether the value is a known RepossessionReason.
func (r RepossessionReason) IsValid() bool {
	for _, candidate := range validRepossessionReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRepossessionReason converts raw input into a RepossessionReason.
func ParseRepossessionReason(value string) (RepossessionReason, error) {
	for _, candidate := range validRepossessionReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid repossession reason %q", value)
}

// RepossessionResolution records how a completed case ended.
type RepossessionResolution string

const (
	RepoResolutionPaidInFull       RepossessionResolution = "paid_in_full"
	RepoResolutionAuctioned        RepossessionResolution = "auctioned"
	RepoResolutionReturnedToClient RepossessionResolution = "returned_to_client"
	RepoResolutionWrittenOff       RepossessionResolution = "written_off"
	RepoResolutionOther            RepossessionResolution = "other"
)

var validRepossessionResolutions = []RepossessionResolution{
	RepoResolutionPaidInFull,
	RepoResolutionAuctioned,
	RepoResolutionReturnedToClient,
	RepoResolutionWrittenOff,
	RepoResolutionOther,
}

// IsValid reports whether the value is a known RepossessionResolution.
func (r RepossessionResolution) IsValid() bool {
	for _, candidate := range validRepossessionResolutions {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRepossessionResolution converts raw input into a RepossessionResolution.
func ParseRepossessionResolution(value string) (RepossessionResolution, error) {
	for _, candidate := range validRepossessionResolutions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid repossession resolution %q", value)
}
