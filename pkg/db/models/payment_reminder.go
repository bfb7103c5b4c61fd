package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// PaymentReminder tracks collection outreach for an overdue installment.
type PaymentReminder struct {
	ID                uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PaymentScheduleID uuid.UUID            `gorm:"column:payment_schedule_id;type:uuid;not null;index"`
	Type              enums.ReminderType   `gorm:"column:type;type:reminder_type;not null"`
	Status            enums.ReminderStatus `gorm:"column:status;type:reminder_status;not null;default:'pending'"`
	Message           string               `gorm:"column:message;not null"`
	SentAt            *time.Time           `gorm:"column:sent_at"`
	ClientResponse    *string              `gorm:"column:client_response"`
	CreatedBy         *uuid.UUID           `gorm:"column:created_by;type:uuid"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
