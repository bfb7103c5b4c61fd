package permissions

import (
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

type defaultGrant struct {
	level     enums.AccessLevel
	canCreate bool
	canEdit   bool
	canDelete bool
	canExport bool
}

func fullGrant() defaultGrant {
	return defaultGrant{enums.AccessFull, true, true, true, true}
}

func readWriteGrant() defaultGrant {
	return defaultGrant{enums.AccessReadWrite, true, true, false, false}
}

func readOnlyGrant() defaultGrant {
	return defaultGrant{level: enums.AccessReadOnly}
}

// defaultMatrix returns the grant installed for (role, module) when no
// customized row exists. Missing entries mean no access.
func defaultMatrix() map[enums.UserRole]map[enums.Module]defaultGrant {
	matrix := make(map[enums.UserRole]map[enums.Module]defaultGrant)

	admin := make(map[enums.Module]defaultGrant)
	for _, module := range enums.AllModules() {
		admin[module] = fullGrant()
	}
	matrix[enums.RoleAdmin] = admin

	manager := make(map[enums.Module]defaultGrant)
	for _, module := range enums.AllModules() {
		grant := fullGrant()
		grant.canDelete = false
		manager[module] = grant
	}
	matrix[enums.RoleManager] = manager

	matrix[enums.RoleSales] = map[enums.Module]defaultGrant{
		enums.ModuleDashboard:     readOnlyGrant(),
		enums.ModuleVehicles:      readWriteGrant(),
		enums.ModuleClients:       readWriteGrant(),
		enums.ModulePayments:      readWriteGrant(),
		enums.ModuleInsurance:     readWriteGrant(),
		enums.ModuleDocuments:     readWriteGrant(),
		enums.ModuleNotifications: readWriteGrant(),
		enums.ModuleReports:       readOnlyGrant(),
	}

	matrix[enums.RoleAccountant] = map[enums.Module]defaultGrant{
		enums.ModuleDashboard:     readOnlyGrant(),
		enums.ModuleVehicles:      readOnlyGrant(),
		enums.ModuleClients:       readOnlyGrant(),
		enums.ModulePayments:      fullGrant(),
		enums.ModulePayroll:       fullGrant(),
		enums.ModuleExpenses:      fullGrant(),
		enums.ModuleReports:       fullGrant(),
		enums.ModuleRepossessions: readOnlyGrant(),
		enums.ModuleAuctions:      readOnlyGrant(),
		enums.ModuleNotifications: readWriteGrant(),
		enums.ModuleDocuments:     readWriteGrant(),
	}

	matrix[enums.RoleAuctioneer] = map[enums.Module]defaultGrant{
		enums.ModuleDashboard:     readOnlyGrant(),
		enums.ModuleAuctions:      fullGrant(),
		enums.ModuleRepossessions: readWriteGrant(),
		enums.ModuleVehicles:      readOnlyGrant(),
		enums.ModuleClients:       readOnlyGrant(),
		enums.ModuleNotifications: readWriteGrant(),
	}

	matrix[enums.RoleClerk] = map[enums.Module]defaultGrant{
		enums.ModuleDashboard:     readOnlyGrant(),
		enums.ModuleVehicles:      readOnlyGrant(),
		enums.ModuleClients:       readOnlyGrant(),
		enums.ModuleDocuments:     readOnlyGrant(),
		enums.ModuleNotifications: readWriteGrant(),
	}

	return matrix
}
