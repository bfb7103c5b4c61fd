package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// PermissionHistory is an append-only log of permission matrix changes.
type PermissionHistory struct {
	ID        uuid.UUID                    `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Role      enums.UserRole               `gorm:"column:role;type:user_role;not null;index"`
	Module    enums.Module                 `gorm:"column:module;type:module_name;not null;index"`
	Action    enums.PermissionChangeAction `gorm:"column:action;type:permission_change_action;not null"`
	OldValues json.RawMessage              `gorm:"column:old_values;type:jsonb"`
	NewValues json.RawMessage              `gorm:"column:new_values;type:jsonb"`
	ChangedBy *uuid.UUID                   `gorm:"column:changed_by;type:uuid"`
	Reason    *string                      `gorm:"column:reason"`
	CreatedAt time.Time                    `gorm:"column:created_at;autoCreateTime;index"`
}
