package enums

import "fmt"

// Module names every permission-gated area of the application.
type Module string

const (
	ModuleDashboard     Module = "dashboard"
	ModuleVehicles      Module = "vehicles"
	ModuleClients       Module = "clients"
	ModulePayments      Module = "payments"
	ModulePayroll       Module = "payroll"
	ModuleExpenses      Module = "expenses"
	ModuleRepossessions Module = "repossessions"
	ModuleAuctions      Module = "auctions"
	ModuleInsurance     Module = "insurance"
	ModuleNotifications Module = "notifications"
	ModuleDocuments     Module = "documents"
	ModuleReports       Module = "reports"
	ModuleAudit         Module = "audit"
	ModulePermissions   Module = "permissions"
)

var validModules = []Module{
	ModuleDashboard,
	ModuleVehicles,
	ModuleClients,
	ModulePayments,
	ModulePayroll,
	ModuleExpenses,
	ModuleRepossessions,
	ModuleAuctions,
	ModuleInsurance,
	ModuleNotifications,
	ModuleDocuments,
	ModuleReports,
	ModuleAudit,
	ModulePermissions,
}

// AllModules returns every module in matrix order.
func AllModules() []Module {
	out := make([]Module, len(validModules))
	copy(out, validModules)
	return out
}

// String implements fmt.Stringer.
func (m Module) String() string {
	return string(m)
}

// IsValid reports whether the value is a known Module.
func (m Module) IsValid() bool {
	for _, candidate := range validModules {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseModule converts raw input into a Module.
func ParseModule(value string) (Module, error) {
	for _, candidate := range validModules {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid module %q", value)
}
