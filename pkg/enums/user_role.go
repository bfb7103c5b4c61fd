package enums

import "fmt"

// UserRole maps to the user_role enum in Postgres.
type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RoleManager    UserRole = "manager"
	RoleSales      UserRole = "sales"
	RoleAccountant UserRole = "accountant"
	RoleAuctioneer UserRole = "auctioneer"
	RoleClerk      UserRole = "clerk"
)

var validUserRoles = []UserRole{
	RoleAdmin,
	RoleManager,
	RoleSales,
	RoleAccountant,
	RoleAuctioneer,
	RoleClerk,
}

// AllUserRoles returns every role the permission matrix covers.
func AllUserRoles() []UserRole {
	out := make([]UserRole, len(validUserRoles))
	copy(out, validUserRoles)
	return out
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
