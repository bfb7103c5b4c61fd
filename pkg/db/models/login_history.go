package models

import (
	"time"

	"github.com/google/uuid"
)

// LoginHistory records every authentication attempt, successful or not.
type LoginHistory struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         *uuid.UUID `gorm:"column:user_id;type:uuid;index"`
	EmailAttempted string     `gorm:"column:email_attempted;not null;index"`
	Success        bool       `gorm:"column:success;not null;default:false"`
	FailureReason  *string    `gorm:"column:failure_reason"`
	IPAddress      *string    `gorm:"column:ip_address;index"`
	UserAgent      *string    `gorm:"column:user_agent"`
	SessionKey     *string    `gorm:"column:session_key"`
	IsSuspicious   bool       `gorm:"column:is_suspicious;not null;default:false"`
	LogoutTime     *time.Time `gorm:"column:logout_time"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime;index"`
}

// Duration returns the session length for completed sessions.
func (l LoginHistory) Duration() *time.Duration {
	if l.LogoutTime == nil {
		return nil
	}
	d := l.LogoutTime.Sub(l.CreatedAt)
	return &d
}
