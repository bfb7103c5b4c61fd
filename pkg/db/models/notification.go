package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// Notification is an in-app message addressed to one user.
type Notification struct {
	ID          uuid.UUID                  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID                  `gorm:"column:user_id;type:uuid;not null;index"`
	Type        enums.NotificationType     `gorm:"column:type;type:notification_type;not null"`
	Priority    enums.NotificationPriority `gorm:"column:priority;type:notification_priority;not null;default:'medium'"`
	Title       string                     `gorm:"column:title;not null"`
	Message     string                     `gorm:"column:message;not null"`
	Link        *string                    `gorm:"column:link"`
	EntityType  *string                    `gorm:"column:entity_type"`
	EntityID    *uuid.UUID                 `gorm:"column:entity_id;type:uuid"`
	ReadAt      *time.Time                 `gorm:"column:read_at;index"`
	DismissedAt *time.Time                 `gorm:"column:dismissed_at"`
	ExpiresAt   *time.Time                 `gorm:"column:expires_at"`
	CreatedAt   time.Time                  `gorm:"column:created_at;autoCreateTime;index"`
}

// IsExpired reports whether the notification has aged out.
func (n Notification) IsExpired(now time.Time) bool {
	return n.ExpiresAt != nil && now.After(*n.ExpiresAt)
}
