package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
)

// LogDTO is one audit trail entry.
type LogDTO struct {
	ID            uuid.UUID         `json:"id"`
	UserID        *uuid.UUID        `json:"user_id,omitempty"`
	UserEmail     *string           `json:"user_email,omitempty"`
	Action        enums.AuditAction `json:"action"`
	Description   string            `json:"description"`
	EntityName    *string           `json:"entity_name,omitempty"`
	EntityID      *string           `json:"entity_id,omitempty"`
	Changes       any               `json:"changes,omitempty"`
	IPAddress     *string           `json:"ip_address,omitempty"`
	RequestPath   *string           `json:"request_path,omitempty"`
	RequestMethod *string           `json:"request_method,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// LoginHistoryDTO is one authentication attempt row.
type LoginHistoryDTO struct {
	ID             uuid.UUID  `json:"id"`
	UserID         *uuid.UUID `json:"user_id,omitempty"`
	EmailAttempted string     `json:"email_attempted"`
	Success        bool       `json:"success"`
	FailureReason  *string    `json:"failure_reason,omitempty"`
	IPAddress      *string    `json:"ip_address,omitempty"`
	UserAgent      *string    `json:"user_agent,omitempty"`
	IsSuspicious   bool       `json:"is_suspicious"`
	LoginTime      time.Time  `json:"login_time"`
	LogoutTime     *time.Time `json:"logout_time,omitempty"`
}

// LogFilter narrows the audit trail listing.
type LogFilter struct {
	UserID     *uuid.UUID
	Action     *enums.AuditAction
	EntityName *string
	From       *time.Time
	To         *time.Time
}

// LoginHistoryFilter narrows the login history listing.
type LoginHistoryFilter struct {
	UserID         *uuid.UUID
	Success        *bool
	SuspiciousOnly bool
}

// Page wraps a result slice with the cursor for the next page.
type Page[T any] struct {
	Items      []T     `json:"items"`
	NextCursor *string `json:"next_cursor,omitempty"`
}

func pageOf[T any](items []T, limit int, cursorFor func(T) pagination.Cursor) Page[T] {
	normalized := pagination.NormalizeLimit(limit)
	page := Page[T]{Items: items}
	if len(items) > normalized {
		page.Items = items[:normalized]
		last := page.Items[len(page.Items)-1]
		encoded := pagination.EncodeCursor(cursorFor(last))
		page.NextCursor = &encoded
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	return page
}

func logFromModel(row *models.AuditLog) LogDTO {
	dto := LogDTO{
		ID:            row.ID,
		UserID:        row.UserID,
		UserEmail:     row.UserEmail,
		Action:        row.Action,
		Description:   row.Description,
		EntityName:    row.EntityName,
		EntityID:      row.EntityID,
		IPAddress:     row.IPAddress,
		RequestPath:   row.RequestPath,
		RequestMethod: row.RequestMethod,
		CreatedAt:     row.CreatedAt,
	}
	if len(row.Changes) > 0 {
		dto.Changes = json.RawMessage(row.Changes)
	}
	return dto
}

func loginFromModel(row *models.LoginHistory) LoginHistoryDTO {
	return LoginHistoryDTO{
		ID:             row.ID,
		UserID:         row.UserID,
		EmailAttempted: row.EmailAttempted,
		Success:        row.Success,
		FailureReason:  row.FailureReason,
		IPAddress:      row.IPAddress,
		UserAgent:      row.UserAgent,
		IsSuspicious:   row.IsSuspicious,
		LoginTime:      row.CreatedAt,
		LogoutTime:     row.LogoutTime,
	}
}
