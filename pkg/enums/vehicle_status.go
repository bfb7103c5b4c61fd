package enums

import "fmt"

// VehicleStatus tracks where a vehicle sits in the inventory lifecycle.
type VehicleStatus string

const (
	VehicleStatusAvailable   VehicleStatus = "available"
	VehicleStatusReserved    VehicleStatus = "reserved"
	VehicleStatusSold        VehicleStatus = "sold"
	VehicleStatusRepossessed VehicleStatus = "repossessed"
	VehicleStatusAuctioned   VehicleStatus = "auctioned"
	VehicleStatusMaintenance VehicleStatus = "maintenance"
)

var validVehicleStatuses = []VehicleStatus{
	VehicleStatusAvailable,
	VehicleStatusReserved,
	VehicleStatusSold,
	VehicleStatusRepossessed,
	VehicleStatusAuctioned,
	VehicleStatusMaintenance,
}

// String implements fmt.Stringer.
func (v VehicleStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known VehicleStatus.
func (v VehicleStatus) IsValid() bool {
	for _, candidate := range validVehicleStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVehicleStatus converts raw input into a VehicleStatus.
func ParseVehicleStatus(value string) (VehicleStatus, error) {
	for _, candidate := range validVehicleStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid vehicle status %q", value)
}
