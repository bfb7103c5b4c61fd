package enums

import "fmt"

// EmploymentType maps to the employment_type enum in Postgres.
type EmploymentType string

const (
	EmploymentFullTime  EmploymentType = "full_time"
	EmploymentPartTime  EmploymentType = "part_time"
	EmploymentContract  EmploymentType = "contract"
	EmploymentTemporary EmploymentType = "temporary"
	EmploymentIntern    EmploymentType = "intern"
)

var validEmploymentTypes = []EmploymentType{
	EmploymentFullTime,
	EmploymentPartTime,
	EmploymentContract,
	EmploymentTemporary,
	EmploymentIntern,
}

// IsValid reports whether the value is a known EmploymentType.
func (e EmploymentType) IsValid() bool {
	for _, candidate := range validEmploymentTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEmploymentType converts raw input into an EmploymentType.
func ParseEmploymentType(value string) (EmploymentType, error) {
	for _, candidate := range validEmploymentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid employment type %q", value)
}

// EmployeeStatus maps to the employee_status enum in Postgres.
type EmployeeStatus string

const (
	EmployeeActive     EmployeeStatus = "active"
	EmployeeOnLeave    EmployeeStatus = "on_leave"
	EmployeeSuspended  EmployeeStatus = "suspended"
	EmployeeTerminated EmployeeStatus = "terminated"
	EmployeeResigned   EmployeeStatus = "resigned"
)

var validEmployeeStatuses = []EmployeeStatus{
	EmployeeActive,
	EmployeeOnLeave,
	EmployeeSuspended,
	EmployeeTerminated,
	EmployeeResigned,
}

// IsValid reports whether the value is a known EmployeeStatus.
func (e EmployeeStatus) IsValid() bool {
	for _, candidate := range validEmployeeStatuses {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEmployeeStatus converts raw input into an EmployeeStatus.
func ParseEmployeeStatus(value string) (EmployeeStatus, error) {
	for _, candidate := range validEmployeeStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid employee status %q", value)
}
