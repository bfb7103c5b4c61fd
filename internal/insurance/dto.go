package insurance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
)

// ProviderDTO is the API shape of an insurance provider.
type ProviderDTO struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	ContactPerson *string   `json:"contact_person,omitempty"`
	Phone         *string   `json:"phone,omitempty"`
	Email         *string   `json:"email,omitempty"`
	Address       *string   `json:"address,omitempty"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

// PolicyDTO is the API shape of an insurance policy.
type PolicyDTO struct {
	ID              uuid.UUID          `json:"id"`
	PolicyNumber    string             `json:"policy_number"`
	VehicleID       uuid.UUID          `json:"vehicle_id"`
	ProviderID      uuid.UUID          `json:"provider_id"`
	ProviderName    string             `json:"provider_name,omitempty"`
	Type            enums.PolicyType   `json:"type"`
	Status          enums.PolicyStatus `json:"status"`
	StartDate       time.Time          `json:"start_date"`
	EndDate         time.Time          `json:"end_date"`
	Premium         decimal.Decimal    `json:"premium"`
	SumInsured      decimal.Decimal    `json:"sum_insured"`
	Excess          *decimal.Decimal   `json:"excess,omitempty"`
	ReminderSent    bool               `json:"reminder_sent"`
	RenewedPolicyID *uuid.UUID         `json:"renewed_policy_id,omitempty"`
	DaysUntilExpiry int                `json:"days_until_expiry"`
	ExpiringSoon    bool               `json:"expiring_soon"`
	Notes           *string            `json:"notes,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

// ClaimDTO is the API shape of an insurance claim.
type ClaimDTO struct {
	ID                  uuid.UUID         `json:"id"`
	ClaimNumber         string            `json:"claim_number"`
	PolicyID            uuid.UUID         `json:"policy_id"`
	Type                enums.ClaimType   `json:"type"`
	Status              enums.ClaimStatus `json:"status"`
	IncidentDate        time.Time         `json:"incident_date"`
	IncidentDescription string            `json:"incident_description"`
	PoliceReportNumber  *string           `json:"police_report_number,omitempty"`
	ClaimedAmount       decimal.Decimal   `json:"claimed_amount"`
	ApprovedAmount      *decimal.Decimal  `json:"approved_amount,omitempty"`
	SettledAmount       *decimal.Decimal  `json:"settled_amount,omitempty"`
	ExcessPaid          *decimal.Decimal  `json:"excess_paid,omitempty"`
	ApprovalPercentage  decimal.Decimal   `json:"approval_percentage"`
	SettledAt           *time.Time        `json:"settled_at,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
}

// CreateProviderRequest carries a new underwriter.
type CreateProviderRequest struct {
	Name          string  `json:"name" validate:"required"`
	ContactPerson *string `json:"contact_person"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email" validate:"omitempty,email"`
	Address       *string `json:"address"`
}

// UpdateProviderRequest carries partial provider changes.
type UpdateProviderRequest struct {
	Name          *string `json:"name"`
	ContactPerson *string `json:"contact_person"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email" validate:"omitempty,email"`
	Address       *string `json:"address"`
	IsActive      *bool   `json:"is_active"`
}

// CreatePolicyRequest carries a new policy for a vehicle.
type CreatePolicyRequest struct {
	PolicyNumber string           `json:"policy_number" validate:"required"`
	VehicleID    uuid.UUID        `json:"vehicle_id" validate:"required"`
	ProviderID   uuid.UUID        `json:"provider_id" validate:"required"`
	Type         enums.PolicyType `json:"type" validate:"required"`
	StartDate    time.Time        `json:"start_date" validate:"required"`
	EndDate      time.Time        `json:"end_date" validate:"required"`
	Premium      decimal.Decimal  `json:"premium" validate:"required"`
	SumInsured   decimal.Decimal  `json:"sum_insured" validate:"required"`
	Excess       *decimal.Decimal `json:"excess"`
	Notes        *string          `json:"notes"`
}

// RenewPolicyRequest carries the successor policy's terms.
type RenewPolicyRequest struct {
	PolicyNumber string           `json:"policy_number" validate:"required"`
	StartDate    time.Time        `json:"start_date" validate:"required"`
	EndDate      time.Time        `json:"end_date" validate:"required"`
	Premium      decimal.Decimal  `json:"premium" validate:"required"`
	SumInsured   decimal.Decimal  `json:"sum_insured" validate:"required"`
	Excess       *decimal.Decimal `json:"excess"`
	Notes        *string          `json:"notes"`
}

// FileClaimRequest opens a claim against a policy.
type FileClaimRequest struct {
	PolicyID            uuid.UUID       `json:"policy_id" validate:"required"`
	Type                enums.ClaimType `json:"type" validate:"required"`
	IncidentDate        time.Time       `json:"incident_date" validate:"required"`
	IncidentDescription string          `json:"incident_description" validate:"required"`
	PoliceReportNumber  *string         `json:"police_report_number"`
	ClaimedAmount       decimal.Decimal `json:"claimed_amount" validate:"required"`
}

// ApproveClaimRequest fixes the approved payout.
type ApproveClaimRequest struct {
	ApprovedAmount decimal.Decimal `json:"approved_amount" validate:"required"`
}

// SettleClaimRequest records the final payout.
type SettleClaimRequest struct {
	SettledAmount decimal.Decimal  `json:"settled_amount" validate:"required"`
	ExcessPaid    *decimal.Decimal `json:"excess_paid"`
}

// PolicyFilter narrows policy listings.
type PolicyFilter struct {
	Status     enums.PolicyStatus
	VehicleID  *uuid.UUID
	ProviderID *uuid.UUID
	Search     string
}

// ClaimFilter narrows claim listings.
type ClaimFilter struct {
	Status   enums.ClaimStatus
	PolicyID *uuid.UUID
	Search   string
}

// Page is one cursor-bounded slice of results.
type Page[T any] struct {
	Items      []T     `json:"items"`
	NextCursor *string `json:"next_cursor,omitempty"`
}

func pageOf[T any](items []T, limit int, cursorFor func(T) pagination.Cursor) Page[T] {
	page := Page[T]{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		cursor := cursorFor(page.Items[limit-1]).Encode()
		page.NextCursor = &cursor
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	return page
}

func providerFromModel(p *models.InsuranceProvider) *ProviderDTO {
	return &ProviderDTO{
		ID:            p.ID,
		Name:          p.Name,
		ContactPerson: p.ContactPerson,
		Phone:         p.Phone,
		Email:         p.Email,
		Address:       p.Address,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
	}
}

func policyFromModel(p *models.InsurancePolicy, now time.Time) *PolicyDTO {
	dto := &PolicyDTO{
		ID:              p.ID,
		PolicyNumber:    p.PolicyNumber,
		VehicleID:       p.VehicleID,
		ProviderID:      p.ProviderID,
		Type:            p.Type,
		Status:          p.Status,
		StartDate:       p.StartDate,
		EndDate:         p.EndDate,
		Premium:         p.Premium,
		SumInsured:      p.SumInsured,
		Excess:          p.Excess,
		ReminderSent:    p.ReminderSent,
		RenewedPolicyID: p.RenewedPolicyID,
		DaysUntilExpiry: p.DaysUntilExpiry(now),
		ExpiringSoon:    p.IsExpiringSoon(now, expiryWindowDays),
		Notes:           p.Notes,
		CreatedAt:       p.CreatedAt,
	}
	if p.Provider != nil {
		dto.ProviderName = p.Provider.Name
	}
	return dto
}

func claimFromModel(c *models.InsuranceClaim) *ClaimDTO {
	return &ClaimDTO{
		ID:                  c.ID,
		ClaimNumber:         c.ClaimNumber,
		PolicyID:            c.PolicyID,
		Type:                c.Type,
		Status:              c.Status,
		IncidentDate:        c.IncidentDate,
		IncidentDescription: c.IncidentDescription,
		PoliceReportNumber:  c.PoliceReportNumber,
		ClaimedAmount:       c.ClaimedAmount,
		ApprovedAmount:      c.ApprovedAmount,
		SettledAmount:       c.SettledAmount,
		ExcessPaid:          c.ExcessPaid,
		ApprovalPercentage:  c.ApprovalPercentage(),
		SettledAt:           c.SettledAt,
		CreatedAt:           c.CreatedAt,
	}
}
