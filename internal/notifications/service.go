package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	pkgerrors "github.com/dealerdeskhq/dealerdesk-backend/pkg/errors"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
)

// Service defines the per-user notification surface.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Dismiss(ctx context.Context, userID, notificationID uuid.UUID) error
	GetPreferences(ctx context.Context, userID uuid.UUID) (*PreferenceDTO, error)
	UpdatePreferences(ctx context.Context, userID uuid.UUID, req UpdatePreferencesRequest) (*PreferenceDTO, error)
}

type service struct {
	repo Repository
}

// NewService wires the notifications service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository is required")
	}
	return &service{repo: repo}, nil
}

// ListParams configures pagination for a user's notifications.
type ListParams struct {
	UserID     uuid.UUID
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// ListResult is one page of notifications.
type ListResult struct {
	Items      []NotificationDTO `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

// NotificationDTO is the outward notification shape.
type NotificationDTO struct {
	ID         uuid.UUID                  `json:"id"`
	Type       enums.NotificationType     `json:"type"`
	Priority   enums.NotificationPriority `json:"priority"`
	Title      string                     `json:"title"`
	Message    string                     `json:"message"`
	Link       *string                    `json:"link,omitempty"`
	EntityType *string                    `json:"entity_type,omitempty"`
	EntityID   *uuid.UUID                 `json:"entity_id,omitempty"`
	ReadAt     *time.Time                 `json:"read_at,omitempty"`
	ExpiresAt  *time.Time                 `json:"expires_at,omitempty"`
	CreatedAt  time.Time                  `json:"created_at"`
}

// PreferenceDTO is the outward preference shape.
type PreferenceDTO struct {
	UserID              uuid.UUID `json:"user_id"`
	Enabled             bool      `json:"enabled"`
	InAppEnabled        bool      `json:"in_app_enabled"`
	EmailEnabled        bool      `json:"email_enabled"`
	SMSEnabled          bool      `json:"sms_enabled"`
	NotifyPayments      bool      `json:"notify_payments"`
	NotifyInsurance     bool      `json:"notify_insurance"`
	NotifyVehicles      bool      `json:"notify_vehicles"`
	NotifyAuctions      bool      `json:"notify_auctions"`
	NotifyRepossessions bool      `json:"notify_repossessions"`
	NotifyExpenses      bool      `json:"notify_expenses"`
	NotifyGeneral       bool      `json:"notify_general"`
	UrgentOnly          bool      `json:"urgent_only"`
	QuietHoursStart     *int      `json:"quiet_hours_start,omitempty"`
	QuietHoursEnd       *int      `json:"quiet_hours_end,omitempty"`
}

// UpdatePreferencesRequest carries partial preference edits. Quiet
// hours are set together and cleared with ClearQuietHours.
type UpdatePreferencesRequest struct {
	Enabled             *bool `json:"enabled"`
	InAppEnabled        *bool `json:"in_app_enabled"`
	EmailEnabled        *bool `json:"email_enabled"`
	SMSEnabled          *bool `json:"sms_enabled"`
	NotifyPayments      *bool `json:"notify_payments"`
	NotifyInsurance     *bool `json:"notify_insurance"`
	NotifyVehicles      *bool `json:"notify_vehicles"`
	NotifyAuctions      *bool `json:"notify_auctions"`
	NotifyRepossessions *bool `json:"notify_repossessions"`
	NotifyExpenses      *bool `json:"notify_expenses"`
	NotifyGeneral       *bool `json:"notify_general"`
	UrgentOnly          *bool `json:"urgent_only"`
	QuietHoursStart     *int  `json:"quiet_hours_start"`
	QuietHoursEnd       *int  `json:"quiet_hours_end"`
	ClearQuietHours     bool  `json:"clear_quiet_hours"`
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	rows, next, err := s.repo.List(ctx, listParams{
		UserID:     params.UserID,
		Limit:      params.Limit,
		Cursor:     cursor,
		UnreadOnly: params.UnreadOnly,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list notifications")
	}
	result := &ListResult{Items: make([]NotificationDTO, 0, len(rows))}
	for i := range rows {
		result.Items = append(result.Items, notificationFromModel(&rows[i]))
	}
	if next != nil {
		result.NextCursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count unread notifications")
	}
	return count, nil
}

func (s *service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	result, err := s.repo.MarkRead(ctx, userID, notificationID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	// Re-reading an already read notification is a no-op.
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	updated, err := s.repo.MarkAllRead(ctx, userID, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark notifications read")
	}
	return updated, nil
}

func (s *service) Dismiss(ctx context.Context, userID, notificationID uuid.UUID) error {
	result, err := s.repo.Dismiss(ctx, userID, notificationID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "dismiss notification")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) GetPreferences(ctx context.Context, userID uuid.UUID) (*PreferenceDTO, error) {
	pref, err := s.loadPreference(ctx, userID)
	if err != nil {
		return nil, err
	}
	return preferenceFromModel(pref), nil
}

func (s *service) UpdatePreferences(ctx context.Context, userID uuid.UUID, req UpdatePreferencesRequest) (*PreferenceDTO, error) {
	pref, err := s.loadPreference(ctx, userID)
	if err != nil {
		return nil, err
	}
	applyToggle := func(target *bool, value *bool) {
		if value != nil {
			*target = *value
		}
	}
	applyToggle(&pref.Enabled, req.Enabled)
	applyToggle(&pref.InAppEnabled, req.InAppEnabled)
	applyToggle(&pref.EmailEnabled, req.EmailEnabled)
	applyToggle(&pref.SMSEnabled, req.SMSEnabled)
	applyToggle(&pref.NotifyPayments, req.NotifyPayments)
	applyToggle(&pref.NotifyInsurance, req.NotifyInsurance)
	applyToggle(&pref.NotifyVehicles, req.NotifyVehicles)
	applyToggle(&pref.NotifyAuctions, req.NotifyAuctions)
	applyToggle(&pref.NotifyRepossessions, req.NotifyRepossessions)
	applyToggle(&pref.NotifyExpenses, req.NotifyExpenses)
	applyToggle(&pref.NotifyGeneral, req.NotifyGeneral)
	applyToggle(&pref.UrgentOnly, req.UrgentOnly)

	if req.ClearQuietHours {
		pref.QuietHoursStart = nil
		pref.QuietHoursEnd = nil
	} else if req.QuietHoursStart != nil || req.QuietHoursEnd != nil {
		if req.QuietHoursStart == nil || req.QuietHoursEnd == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quiet hours start and end are set together")
		}
		for _, hour := range []int{*req.QuietHoursStart, *req.QuietHoursEnd} {
			if hour < 0 || hour > 23 {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "quiet hours must be clock hours between 0 and 23")
			}
		}
		pref.QuietHoursStart = req.QuietHoursStart
		pref.QuietHoursEnd = req.QuietHoursEnd
	}

	if err := s.repo.SavePreference(ctx, pref); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save notification preferences")
	}
	return preferenceFromModel(pref), nil
}

func (s *service) loadPreference(ctx context.Context, userID uuid.UUID) (*models.NotificationPreference, error) {
	pref, err := s.repo.FindPreference(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return defaultPreference(userID), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load notification preferences")
	}
	return pref, nil
}

// defaultPreference is what a user gets before saving anything: every
// category on, in-app and email channels, no SMS.
func defaultPreference(userID uuid.UUID) *models.NotificationPreference {
	return &models.NotificationPreference{
		UserID:              userID,
		Enabled:             true,
		InAppEnabled:        true,
		EmailEnabled:        true,
		NotifyPayments:      true,
		NotifyInsurance:     true,
		NotifyVehicles:      true,
		NotifyAuctions:      true,
		NotifyRepossessions: true,
		NotifyExpenses:      true,
		NotifyGeneral:       true,
	}
}

func notificationFromModel(n *models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:         n.ID,
		Type:       n.Type,
		Priority:   n.Priority,
		Title:      n.Title,
		Message:    n.Message,
		Link:       n.Link,
		EntityType: n.EntityType,
		EntityID:   n.EntityID,
		ReadAt:     n.ReadAt,
		ExpiresAt:  n.ExpiresAt,
		CreatedAt:  n.CreatedAt,
	}
}

func preferenceFromModel(p *models.NotificationPreference) *PreferenceDTO {
	return &PreferenceDTO{
		UserID:              p.UserID,
		Enabled:             p.Enabled,
		InAppEnabled:        p.InAppEnabled,
		EmailEnabled:        p.EmailEnabled,
		SMSEnabled:          p.SMSEnabled,
		NotifyPayments:      p.NotifyPayments,
		NotifyInsurance:     p.NotifyInsurance,
		NotifyVehicles:      p.NotifyVehicles,
		NotifyAuctions:      p.NotifyAuctions,
		NotifyRepossessions: p.NotifyRepossessions,
		NotifyExpenses:      p.NotifyExpenses,
		NotifyGeneral:       p.NotifyGeneral,
		UrgentOnly:          p.UrgentOnly,
		QuietHoursStart:     p.QuietHoursStart,
		QuietHoursEnd:       p.QuietHoursEnd,
	}
}
