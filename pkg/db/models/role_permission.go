package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// RolePermission is one cell of the (role, module) access matrix.
type RolePermission struct {
	ID          uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Role        enums.UserRole    `gorm:"column:role;type:user_role;not null;uniqueIndex:ux_role_permissions_role_module"`
	Module      enums.Module      `gorm:"column:module;type:module_name;not null;uniqueIndex:ux_role_permissions_role_module"`
	AccessLevel enums.AccessLevel `gorm:"column:access_level;type:access_level;not null;default:'no_access'"`
	CanCreate   bool              `gorm:"column:can_create;not null;default:false"`
	CanEdit     bool              `gorm:"column:can_edit;not null;default:false"`
	CanDelete   bool              `gorm:"column:can_delete;not null;default:false"`
	CanExport   bool              `gorm:"column:can_export;not null;default:false"`
	IsActive    bool              `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
