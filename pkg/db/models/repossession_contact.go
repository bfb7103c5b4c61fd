package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// RepossessionContact logs one outreach attempt to the client.
type RepossessionContact struct {
	ID             uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RepossessionID uuid.UUID            `gorm:"column:repossession_id;type:uuid;not null;index"`
	Method         enums.ContactMethod  `gorm:"column:method;type:contact_method;not null"`
	Outcome        enums.ContactOutcome `gorm:"column:outcome;type:contact_outcome;not null"`
	Summary        string               `gorm:"column:summary;not null"`
	FollowUpDate   *time.Time           `gorm:"column:follow_up_date;type:date"`
	ContactedBy    *uuid.UUID           `gorm:"column:contacted_by;type:uuid"`
	ContactedAt    time.Time            `gorm:"column:contacted_at;not null"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
}
