package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// InsurancePolicy covers one vehicle for a fixed term.
type InsurancePolicy struct {
	ID              uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PolicyNumber    string             `gorm:"column:policy_number;not null;uniqueIndex"`
	VehicleID       uuid.UUID          `gorm:"column:vehicle_id;type:uuid;not null;index"`
	ProviderID      uuid.UUID          `gorm:"column:provider_id;type:uuid;not null;index"`
	Type            enums.PolicyType   `gorm:"column:type;type:policy_type;not null"`
	Status          enums.PolicyStatus `gorm:"column:status;type:policy_status;not null;default:'active';index"`
	StartDate       time.Time          `gorm:"column:start_date;type:date;not null"`
	EndDate         time.Time          `gorm:"column:end_date;type:date;not null;index"`
	Premium         decimal.Decimal    `gorm:"column:premium;type:numeric(12,2);not null"`
	SumInsured      decimal.Decimal    `gorm:"column:sum_insured;type:numeric(12,2);not null"`
	Excess          *decimal.Decimal   `gorm:"column:excess;type:numeric(12,2)"`
	ReminderSent    bool               `gorm:"column:reminder_sent;not null;default:false"`
	RenewedPolicyID *uuid.UUID         `gorm:"column:renewed_policy_id;type:uuid"`
	Notes           *string            `gorm:"column:notes"`
	CreatedBy       *uuid.UUID         `gorm:"column:created_by;type:uuid"`
	Vehicle         *Vehicle           `gorm:"foreignKey:VehicleID"`
	Provider        *InsuranceProvider `gorm:"foreignKey:ProviderID"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// DaysUntilExpiry counts whole days left on an active policy.
func (p InsurancePolicy) DaysUntilExpiry(now time.Time) int {
	return int(p.EndDate.Sub(now).Hours() / 24)
}

// IsExpiringSoon reports whether the policy lapses within the window days.
func (p InsurancePolicy) IsExpiringSoon(now time.Time, windowDays int) bool {
	if p.Status != enums.PolicyStatusActive {
		return false
	}
	days := p.DaysUntilExpiry(now)
	return days >= 0 && days <= windowDays
}
