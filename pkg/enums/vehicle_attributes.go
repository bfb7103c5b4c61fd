package enums

import "fmt"

// FuelType maps to the fuel_type enum in Postgres.
type FuelType string

const (
	FuelPetrol   FuelType = "petrol"
	FuelDiesel   FuelType = "diesel"
	FuelHybrid   FuelType = "hybrid"
	FuelElectric FuelType = "electric"
)

var validFuelTypes = []FuelType{FuelPetrol, FuelDiesel, FuelHybrid, FuelElectric}

// IsValid reports whether the value is a known FuelType.
func (f FuelType) IsValid() bool {
	for _, candidate := range validFuelTypes {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFuelType converts raw input into a FuelType.
func ParseFuelType(value string) (FuelType, error) {
	for _, candidate := range validFuelTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fuel type %q", value)
}

// Transmission maps to the transmission enum in Postgres.
type Transmission string

const (
	TransmissionManual    Transmission = "manual"
	TransmissionAutomatic Transmission = "automatic"
)

var validTransmissions = []Transmission{TransmissionManual, TransmissionAutomatic}

// IsValid reports whether the value is a known Transmission.
func (t Transmission) IsValid() bool {
	for _, candidate := range validTransmissions {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTransmission converts raw input into a Transmission.
func ParseTransmission(value string) (Transmission, error) {
	for _, candidate := range validTransmissions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transmission %q", value)
}

// BodyType maps to the body_type enum in Postgres.
type BodyType string

const (
	BodySedan       BodyType = "sedan"
	BodySUV         BodyType = "suv"
	BodyHatchback   BodyType = "hatchback"
	BodyPickup      BodyType = "pickup"
	BodyVan         BodyType = "van"
	BodyTruck       BodyType = "truck"
	BodyCoupe       BodyType = "coupe"
	BodyConvertible BodyType = "convertible"
	BodyWagon       BodyType = "wagon"
	BodyOther       BodyType = "other"
)

var validBodyTypes = []BodyType{
	BodySedan,
	BodySUV,
	BodyHatchback,
	BodyPickup,
	BodyVan,
	BodyTruck,
	BodyCoupe,
	BodyConvertible,
	BodyWagon,
	BodyOther,
}

// IsValid reports whether the value is a known BodyType.
func (b BodyType) IsValid() bool {
	for _, candidate := range validBodyTypes {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBodyType converts raw input into a BodyType.
func ParseBodyType(value string) (BodyType, error) {
	for _, candidate := range validBodyTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid body type %q", value)
}

// VehicleCondition maps to the vehicle_condition enum in Postgres.
type VehicleCondition string

const (
	ConditionBrandNew    VehicleCondition = "brand_new"
	ConditionForeignUsed VehicleCondition = "foreign_used"
	ConditionLocallyUsed VehicleCondition = "locally_used"
)

var validVehicleConditions = []VehicleCondition{
	ConditionBrandNew,
	ConditionForeignUsed,
	ConditionLocallyUsed,
}

// IsValid reports whether the value is a known VehicleCondition.
func (c VehicleCondition) IsValid() bool {
	for _, candidate := range validVehicleConditions {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseVehicleCondition converts raw input into a VehicleCondition.
func ParseVehicleCondition(value string) (VehicleCondition, error) {
	for _, candidate := range validVehicleConditions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid vehicle condition %q", value)
}
