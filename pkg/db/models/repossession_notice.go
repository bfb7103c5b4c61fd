package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// RepossessionNotice is a formal demand sent to a defaulting client.
type RepossessionNotice struct {
	ID               uuid.UUID                  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RepossessionID   uuid.UUID                  `gorm:"column:repossession_id;type:uuid;not null;index"`
	Type             enums.NoticeType           `gorm:"column:type;type:notice_type;not null"`
	DeliveryMethod   enums.NoticeDeliveryMethod `gorm:"column:delivery_method;type:notice_delivery_method;not null"`
	TrackingNumber   *string                    `gorm:"column:tracking_number"`
	SentAt           time.Time                  `gorm:"column:sent_at;not null"`
	IsDelivered      bool                       `gorm:"column:is_delivered;not null;default:false"`
	DeliveredAt      *time.Time                 `gorm:"column:delivered_at"`
	ResponseDeadline *time.Time                 `gorm:"column:response_deadline;type:date"`
	Content          *string                    `gorm:"column:content"`
	SentBy           *uuid.UUID                 `gorm:"column:sent_by;type:uuid"`
	CreatedAt        time.Time                  `gorm:"column:created_at;autoCreateTime"`
}

// IsResponseOverdue reports whether the client missed the response deadline.
func (n RepossessionNotice) IsResponseOverdue(now time.Time) bool {
	return n.ResponseDeadline != nil && now.After(*n.ResponseDeadline)
}
