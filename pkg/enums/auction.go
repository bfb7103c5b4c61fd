package enums

import "fmt"

// AuctionStatus tracks the auction lifecycle.
type AuctionStatus string

const (
	AuctionStatusDraft     AuctionStatus = "draft"
	AuctionStatusScheduled AuctionStatus = "scheduled"
	AuctionStatusActive    AuctionStatus = "active"
	AuctionStatusCompleted AuctionStatus = "completed"
	AuctionStatusCancelled AuctionStatus = "cancelled"
)

var validAuctionStatuses = []AuctionStatus{
	AuctionStatusDraft,
	AuctionStatusScheduled,
	AuctionStatusActive,
	AuctionStatusCompleted,
	AuctionStatusCancelled,
}

// String implements fmt.Stringer.
func (a AuctionStatus) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AuctionStatus.
func (a AuctionStatus) IsValid() bool {
	for _, candidate := range validAuctionStatuses {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAuctionStatus converts raw input into an AuctionStatus.
func ParseAuctionStatus(value string) (AuctionStatus, error) {
	for _, candidate := range validAuctionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid auction status %q", value)
}

// AuctionType distinguishes reserve handling and bid visibility.
type AuctionType string

const (
	AuctionTypeStandard  AuctionType = "standard"
	AuctionTypeReserve   AuctionType = "reserve"
	AuctionTypeNoReserve AuctionType = "no_reserve"
	AuctionTypeSilent    AuctionType = "silent"
	AuctionTypeLive      AuctionType = "live"
)

var validAuctionTypes = []AuctionType{
	AuctionTypeStandard,
	AuctionTypeReserve,
	AuctionTypeNoReserve,
	AuctionTypeSilent,
	AuctionTypeLive,
}

// IsValid reports whether the value is a known AuctionType.
func (a AuctionType) IsValid() bool {
	for _, candidate := range validAuctionTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAuctionType converts raw input into an AuctionType.
func ParseAuctionType(value string) (AuctionType, error) {
	for _, candidate := range validAuctionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid auction type %q", value)
}

// BidType records how a bid was produced.
type BidType string

const (
	BidTypeManual BidType = "manual"
	BidTypeProxy  BidType = "proxy"
	BidTypeAuto   BidType = "auto"
)

var validBidTypes = []BidType{BidTypeManual, BidTypeProxy, BidTypeAuto}

// IsValid reports whether the value is a known BidType.
func (b BidType) IsValid() bool {
	for _, candidate := range validBidTypes {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBidType converts raw input into a BidType.
func ParseBidType(value string) (BidType, error) {
	for _, candidate := range validBidTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid bid type %q", value)
}
