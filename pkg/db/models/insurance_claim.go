package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// InsuranceClaim tracks a loss event filed against a policy.
type InsuranceClaim struct {
	ID                  uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ClaimNumber         string            `gorm:"column:claim_number;not null;uniqueIndex"`
	PolicyID            uuid.UUID         `gorm:"column:policy_id;type:uuid;not null;index"`
	Type                enums.ClaimType   `gorm:"column:type;type:claim_type;not null"`
	Status              enums.ClaimStatus `gorm:"column:status;type:claim_status;not null;default:'pending';index"`
	IncidentDate        time.Time         `gorm:"column:incident_date;type:date;not null"`
	IncidentDescription string            `gorm:"column:incident_description;not null"`
	PoliceReportNumber  *string           `gorm:"column:police_report_number"`
	ClaimedAmount       decimal.Decimal   `gorm:"column:claimed_amount;type:numeric(12,2);not null"`
	ApprovedAmount      *decimal.Decimal  `gorm:"column:approved_amount;type:numeric(12,2)"`
	SettledAmount       *decimal.Decimal  `gorm:"column:settled_amount;type:numeric(12,2)"`
	ExcessPaid          *decimal.Decimal  `gorm:"column:excess_paid;type:numeric(12,2)"`
	SettledAt           *time.Time        `gorm:"column:settled_at"`
	FiledBy             *uuid.UUID        `gorm:"column:filed_by;type:uuid"`
	Policy              *InsurancePolicy  `gorm:"foreignKey:PolicyID"`
	CreatedAt           time.Time         `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt           time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// ApprovalPercentage compares the approved amount against the claim.
func (c InsuranceClaim) ApprovalPercentage() decimal.Decimal {
	if c.ApprovedAmount == nil || c.ClaimedAmount.IsZero() {
		return decimal.Zero
	}
	return c.ApprovedAmount.Div(c.ClaimedAmount).Mul(decimal.NewFromInt(100)).Round(2)
}
