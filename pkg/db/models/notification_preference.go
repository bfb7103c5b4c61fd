package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// NotificationPreference controls what a user is told and through which
// channels. Quiet hours may cross midnight.
type NotificationPreference struct {
	ID                  uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID              uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Enabled             bool      `gorm:"column:enabled;not null;default:true"`
	InAppEnabled        bool      `gorm:"column:in_app_enabled;not null;default:true"`
	EmailEnabled        bool      `gorm:"column:email_enabled;not null;default:true"`
	SMSEnabled          bool      `gorm:"column:sms_enabled;not null;default:false"`
	NotifyPayments      bool      `gorm:"column:notify_payments;not null;default:true"`
	NotifyInsurance     bool      `gorm:"column:notify_insurance;not null;default:true"`
	NotifyVehicles      bool      `gorm:"column:notify_vehicles;not null;default:true"`
	NotifyAuctions      bool      `gorm:"column:notify_auctions;not null;default:true"`
	NotifyRepossessions bool      `gorm:"column:notify_repossessions;not null;default:true"`
	NotifyExpenses      bool      `gorm:"column:notify_expenses;not null;default:true"`
	NotifyGeneral       bool      `gorm:"column:notify_general;not null;default:true"`
	UrgentOnly          bool      `gorm:"column:urgent_only;not null;default:false"`
	QuietHoursStart     *int      `gorm:"column:quiet_hours_start"`
	QuietHoursEnd       *int      `gorm:"column:quiet_hours_end"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// typeEnabled maps a notification type onto its per-type toggle.
func (p NotificationPreference) typeEnabled(t enums.NotificationType) bool {
	switch t {
	case enums.NotificationPaymentReminder, enums.NotificationPaymentOverdue:
		return p.NotifyPayments
	case enums.NotificationInsuranceExpiry:
		return p.NotifyInsurance
	case enums.NotificationVehicleAvailable:
		return p.NotifyVehicles
	case enums.NotificationAuctionScheduled, enums.NotificationAuctionOutbid, enums.NotificationAuctionWon:
		return p.NotifyAuctions
	case enums.NotificationRepossessionUpdate:
		return p.NotifyRepossessions
	case enums.NotificationExpenseApproval:
		return p.NotifyExpenses
	default:
		return p.NotifyGeneral
	}
}

// ShouldNotify applies the master switch, per-type toggles and the
// urgent-only filter.
func (p NotificationPreference) ShouldNotify(t enums.NotificationType, priority enums.NotificationPriority) bool {
	if !p.Enabled {
		return false
	}
	if p.UrgentOnly && priority != enums.PriorityUrgent {
		return false
	}
	return p.typeEnabled(t)
}

// InQuietHours reports whether the clock hour falls inside the quiet
// window, including windows that wrap past midnight.
func (p NotificationPreference) InQuietHours(hour int) bool {
	if p.QuietHoursStart == nil || p.QuietHoursEnd == nil {
		return false
	}
	start, end := *p.QuietHoursStart, *p.QuietHoursEnd
	if start == end {
		return false
	}
	if start < end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}

// Channels resolves the delivery channels for a priority at a clock hour.
// SMS is reserved for high and urgent priorities, and quiet hours drop
// everything except urgent notifications.
func (p NotificationPreference) Channels(priority enums.NotificationPriority, hour int) []enums.NotificationChannel {
	if p.InQuietHours(hour) && priority != enums.PriorityUrgent {
		return nil
	}
	var channels []enums.NotificationChannel
	if p.InAppEnabled {
		channels = append(channels, enums.ChannelInApp)
	}
	if p.EmailEnabled {
		channels = append(channels, enums.ChannelEmail)
	}
	if p.SMSEnabled && priority.Rank() >= enums.PriorityHigh.Rank() {
		channels = append(channels, enums.ChannelSMS)
	}
	return channels
}
