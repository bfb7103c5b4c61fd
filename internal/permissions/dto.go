package permissions

import (
	"time"

	"github.com/google/uuid"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// PermissionDTO is one cell of the role/module matrix.
type PermissionDTO struct {
	ID          uuid.UUID         `json:"id"`
	Role        enums.UserRole    `json:"role"`
	Module      enums.Module      `json:"module"`
	AccessLevel enums.AccessLevel `json:"access_level"`
	CanCreate   bool              `json:"can_create"`
	CanEdit     bool              `json:"can_edit"`
	CanDelete   bool              `json:"can_delete"`
	CanExport   bool              `json:"can_export"`
	IsActive    bool              `json:"is_active"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// UpdatePermissionRequest changes one (role, module) cell.
type UpdatePermissionRequest struct {
	AccessLevel enums.AccessLevel `json:"access_level" validate:"required"`
	CanCreate   bool              `json:"can_create"`
	CanEdit     bool              `json:"can_edit"`
	CanDelete   bool              `json:"can_delete"`
	CanExport   bool              `json:"can_export"`
	IsActive    *bool             `json:"is_active,omitempty"`
	Reason      *string           `json:"reason,omitempty"`
}

// HistoryDTO is one permission change log row.
type HistoryDTO struct {
	ID        uuid.UUID                    `json:"id"`
	Role      enums.UserRole               `json:"role"`
	Module    enums.Module                 `json:"module"`
	Action    enums.PermissionChangeAction `json:"action"`
	OldValues any                          `json:"old_values,omitempty"`
	NewValues any                          `json:"new_values,omitempty"`
	ChangedBy *uuid.UUID                   `json:"changed_by,omitempty"`
	Reason    *string                      `json:"reason,omitempty"`
	CreatedAt time.Time                    `json:"created_at"`
}

func fromModel(p *models.RolePermission) *PermissionDTO {
	if p == nil {
		return nil
	}
	return &PermissionDTO{
		ID:          p.ID,
		Role:        p.Role,
		Module:      p.Module,
		AccessLevel: p.AccessLevel,
		CanCreate:   p.CanCreate,
		CanEdit:     p.CanEdit,
		CanDelete:   p.CanDelete,
		CanExport:   p.CanExport,
		IsActive:    p.IsActive,
		UpdatedAt:   p.UpdatedAt,
	}
}
