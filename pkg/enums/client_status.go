package enums

import "fmt"

// ClientStatus tracks the account standing of a dealership client.
type ClientStatus string

const (
	ClientStatusActive    ClientStatus = "active"
	ClientStatusInactive  ClientStatus = "inactive"
	ClientStatusDefaulted ClientStatus = "defaulted"
	ClientStatusCompleted ClientStatus = "completed"
)

var validClientStatuses = []ClientStatus{
	ClientStatusActive,
	ClientStatusInactive,
	ClientStatusDefaulted,
	ClientStatusCompleted,
}

// String implements fmt.Stringer.
func (c ClientStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ClientStatus.
func (c ClientStatus) IsValid() bool {
	for _, candidate := range validClientStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseClientStatus converts raw input into a ClientStatus.
func ParseClientStatus(value string) (ClientStatus, error) {
	for _, candidate := range validClientStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid client status %q", value)
}

// IDType maps to the id_type enum on client records.
type IDType string

const (
	IDTypeNationalID IDType = "national_id"
	IDTypePassport   IDType = "passport"
	IDTypeOther      IDType = "other"
)

var validIDTypes = []IDType{IDTypeNationalID, IDTypePassport, IDTypeOther}

// String implements fmt.Stringer.
func (i IDType) String() string {
	return string(i)
}

// IsValid reports whether the value is a known IDType.
func (i IDType) IsValid() bool {
	for _, candidate := range validIDTypes {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseIDType converts raw input into an IDType.
func ParseIDType(value string) (IDType, error) {
	for _, candidate := range validIDTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid id type %q", value)
}
