package enums

import "fmt"

// PermissionChangeAction is recorded in the permission history log.
type PermissionChangeAction string

const (
	PermissionCreated     PermissionChangeAction = "created"
	PermissionUpdated     PermissionChangeAction = "updated"
	PermissionDeactivated PermissionChangeAction = "deactivated"
)

var validPermissionChangeActions = []PermissionChangeAction{
	PermissionCreated,
	PermissionUpdated,
	PermissionDeactivated,
}

// IsValid reports whether the value is a known PermissionChangeAction.
func (p PermissionChangeAction) IsValid() bool {
	for _, candidate := range validPermissionChangeActions {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePermissionChangeAction converts raw input into a PermissionChangeAction.
func ParsePermissionChangeAction(value string) (PermissionChangeAction, error) {
	for _, candidate := range validPermissionChangeActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid permission change action %q", value)
}
