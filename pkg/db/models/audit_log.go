package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// AuditLog is an append-only record of user activity across modules.
type AuditLog struct {
	ID            uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        *uuid.UUID        `gorm:"column:user_id;type:uuid;index"`
	UserEmail     *string           `gorm:"column:user_email"`
	Action        enums.AuditAction `gorm:"column:action;type:audit_action;not null;index"`
	Description   string            `gorm:"column:description;not null"`
	EntityName    *string           `gorm:"column:entity_name;index"`
	EntityID      *string           `gorm:"column:entity_id;index"`
	Changes       json.RawMessage   `gorm:"column:changes;type:jsonb"`
	IPAddress     *string           `gorm:"column:ip_address"`
	UserAgent     *string           `gorm:"column:user_agent"`
	RequestPath   *string           `gorm:"column:request_path"`
	RequestMethod *string           `gorm:"column:request_method"`
	Metadata      json.RawMessage   `gorm:"column:metadata;type:jsonb"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime;index"`
}
