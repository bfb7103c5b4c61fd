package enums

import "fmt"

// PolicyType maps to the policy_type enum in Postgres.
type PolicyType string

const (
	PolicyComprehensive       PolicyType = "comprehensive"
	PolicyThirdParty          PolicyType = "third_party"
	PolicyThirdPartyFireTheft PolicyType = "third_party_fire_theft"
)

var validPolicyTypes = []PolicyType{
	PolicyComprehensive,
	PolicyThirdParty,
	PolicyThirdPartyFireTheft,
}

// IsValid reports whether the value is a known PolicyType.
func (p PolicyType) IsValid() bool {
	for _, candidate := range validPolicyTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePolicyType converts raw input into a PolicyType.
func ParsePolicyType(value string) (PolicyType, error) {
	for _, candidate := range validPolicyTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid policy type %q", value)
}

// PolicyStatus tracks the insurance policy lifecycle.
type PolicyStatus string

const (
	PolicyStatusActive    PolicyStatus = "active"
	PolicyStatusExpired   PolicyStatus = "expired"
	PolicyStatusCancelled PolicyStatus = "cancelled"
	PolicyStatusRenewed   PolicyStatus = "renewed"
)

var validPolicyStatuses = []PolicyStatus{
	PolicyStatusActive,
	PolicyStatusExpired,
	PolicyStatusCancelled,
	PolicyStatusRenewed,
}

// IsValid reports whether the value is a known PolicyStatus.
func (p PolicyStatus) IsValid() bool {
	for _, candidate := range validPolicyStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePolicyStatus converts raw input into a PolicyStatus.
func ParsePolicyStatus(value string) (PolicyStatus, error) {
	for _, candidate := range validPolicyStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid policy status %q", value)
}

// ClaimType categorizes the incident behind an insurance claim.
type ClaimType string

const (
	ClaimAccident        ClaimType = "accident"
	ClaimTheft           ClaimType = "theft"
	ClaimFire            ClaimType = "fire"
	ClaimVandalism       ClaimType = "vandalism"
	ClaimNaturalDisaster ClaimType = "natural_disaster"
	ClaimOther           ClaimType = "other"
)

var validClaimTypes = []ClaimType{
	ClaimAccident,
	ClaimTheft,
	ClaimFire,
	ClaimVandalism,
	ClaimNaturalDisaster,
	ClaimOther,
}

// IsValid reports whether the value is a known ClaimType.
func (c ClaimType) IsValid() bool {
	for _, candidate := range validClaimTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseClaimType converts raw input into a ClaimType.
func ParseClaimType(value string) (ClaimType, error) {
	for _, candidate := range validClaimTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid claim type %q", value)
}

// ClaimStatus tracks an insurance claim through review and settlement.
type ClaimStatus string

const (
	ClaimStatusPending     ClaimStatus = "pending"
	ClaimStatusUnderReview ClaimStatus = "under_review"
	ClaimStatusApproved    ClaimStatus = "approved"
	ClaimStatusRejected    ClaimStatus = "rejected"
	ClaimStatusSettled     ClaimStatus = "settled"
)

var validClaimStatuses = []ClaimStatus{
	ClaimStatusPending,
	ClaimStatusUnderReview,
	ClaimStatusApproved,
	ClaimStatusRejected,
	ClaimStatusSettled,
}

// IsValid reports whether the value is a known ClaimStatus.
func (c ClaimStatus) IsValid() bool {
	for _, candidate := range validClaimStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseClaimStatus converts raw input into a ClaimStatus.
func ParseClaimStatus(value string) (ClaimStatus, error) {
	for _, candidate := range validClaimStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid claim status %q", value)
}
