package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// DocumentAccess is an append-only log of who touched a document.
type DocumentAccess struct {
	ID         uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	DocumentID uuid.UUID            `gorm:"column:document_id;type:uuid;not null;index"`
	UserID     *uuid.UUID           `gorm:"column:user_id;type:uuid;index"`
	Action     enums.DocumentAction `gorm:"column:action;type:document_action;not null"`
	IPAddress  *string              `gorm:"column:ip_address"`
	CreatedAt  time.Time            `gorm:"column:created_at;autoCreateTime;index"`
}

// TableName keeps the uncountable table name used by the schema.
func (DocumentAccess) TableName() string {
	return "document_access"
}
