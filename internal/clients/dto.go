package clients

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
)

// ClientDTO is the transport shape for a customer record.
type ClientDTO struct {
	ID                uuid.UUID          `json:"id"`
	FirstName         string             `json:"first_name"`
	MiddleName        *string            `json:"middle_name,omitempty"`
	LastName          string             `json:"last_name"`
	FullName          string             `json:"full_name"`
	DateOfBirth       *time.Time         `json:"date_of_birth,omitempty"`
	Gender            *string            `json:"gender,omitempty"`
	IDType            enums.IDType       `json:"id_type"`
	IDNumber          string             `json:"id_number"`
	Phone             string             `json:"phone"`
	Email             *string            `json:"email,omitempty"`
	Address           *string            `json:"address,omitempty"`
	City              *string            `json:"city,omitempty"`
	Occupation        *string            `json:"occupation,omitempty"`
	Employer          *string            `json:"employer,omitempty"`
	MonthlyIncome     *decimal.Decimal   `json:"monthly_income,omitempty"`
	NextOfKinName     *string            `json:"next_of_kin_name,omitempty"`
	NextOfKinPhone    *string            `json:"next_of_kin_phone,omitempty"`
	NextOfKinRelation *string            `json:"next_of_kin_relation,omitempty"`
	CreditLimit       decimal.Decimal    `json:"credit_limit"`
	CurrentDebt       decimal.Decimal    `json:"current_debt"`
	AvailableCredit   decimal.Decimal    `json:"available_credit"`
	Status            enums.ClientStatus `json:"status"`
	IsBlacklisted     bool               `json:"is_blacklisted"`
	BlacklistReason   *string            `json:"blacklist_reason,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// AgreementDTO is a purchase agreement view.
type AgreementDTO struct {
	ID                 uuid.UUID        `json:"id"`
	ClientID           uuid.UUID        `json:"client_id"`
	VehicleID          uuid.UUID        `json:"vehicle_id"`
	PurchasePrice      decimal.Decimal  `json:"purchase_price"`
	DepositPaid        decimal.Decimal  `json:"deposit_paid"`
	TotalPaid          decimal.Decimal  `json:"total_paid"`
	Balance            decimal.Decimal  `json:"balance"`
	MonthlyInstallment *decimal.Decimal `json:"monthly_installment,omitempty"`
	InstallmentMonths  *int             `json:"installment_months,omitempty"`
	InterestRate       decimal.Decimal  `json:"interest_rate"`
	IsPaidOff          bool             `json:"is_paid_off"`
	PaidOffDate        *time.Time       `json:"paid_off_date,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
}

// CreateClientRequest registers a new customer.
type CreateClientRequest struct {
	FirstName         string           `json:"first_name" validate:"required"`
	MiddleName        *string          `json:"middle_name,omitempty"`
	LastName          string           `json:"last_name" validate:"required"`
	DateOfBirth       *time.Time       `json:"date_of_birth,omitempty"`
	Gender            *string          `json:"gender,omitempty"`
	IDType            enums.IDType     `json:"id_type" validate:"required"`
	IDNumber          string           `json:"id_number" validate:"required"`
	Phone             string           `json:"phone" validate:"required"`
	Email             *string          `json:"email,omitempty" validate:"omitempty,email"`
	Address           *string          `json:"address,omitempty"`
	City              *string          `json:"city,omitempty"`
	Occupation        *string          `json:"occupation,omitempty"`
	Employer          *string          `json:"employer,omitempty"`
	MonthlyIncome     *decimal.Decimal `json:"monthly_income,omitempty"`
	NextOfKinName     *string          `json:"next_of_kin_name,omitempty"`
	NextOfKinPhone    *string          `json:"next_of_kin_phone,omitempty"`
	NextOfKinRelation *string          `json:"next_of_kin_relation,omitempty"`
	CreditLimit       *decimal.Decimal `json:"credit_limit,omitempty"`
}

// UpdateClientRequest carries partial updates. Nil means unchanged.
type UpdateClientRequest struct {
	FirstName         *string             `json:"first_name,omitempty"`
	MiddleName        *string             `json:"middle_name,omitempty"`
	LastName          *string             `json:"last_name,omitempty"`
	Phone             *string             `json:"phone,omitempty"`
	Email             *string             `json:"email,omitempty"`
	Address           *string             `json:"address,omitempty"`
	City              *string             `json:"city,omitempty"`
	Occupation        *string             `json:"occupation,omitempty"`
	Employer          *string             `json:"employer,omitempty"`
	MonthlyIncome     *decimal.Decimal    `json:"monthly_income,omitempty"`
	NextOfKinName     *string             `json:"next_of_kin_name,omitempty"`
	NextOfKinPhone    *string             `json:"next_of_kin_phone,omitempty"`
	NextOfKinRelation *string             `json:"next_of_kin_relation,omitempty"`
	CreditLimit       *decimal.Decimal    `json:"credit_limit,omitempty"`
	Status            *enums.ClientStatus `json:"status,omitempty"`
}

// BlacklistRequest flags a client.
type BlacklistRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// CreateAgreementRequest opens a purchase agreement.
type CreateAgreementRequest struct {
	VehicleID         uuid.UUID        `json:"vehicle_id" validate:"required"`
	PurchasePrice     decimal.Decimal  `json:"purchase_price" validate:"required"`
	DepositPaid       decimal.Decimal  `json:"deposit_paid"`
	InstallmentMonths *int             `json:"installment_months,omitempty"`
	InterestRate      *decimal.Decimal `json:"interest_rate,omitempty"`
}

// ListFilter narrows the client listing.
type ListFilter struct {
	Status      *enums.ClientStatus
	Blacklisted *bool
	City        *string
	Search      string
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

func fromModel(c *models.Client) *ClientDTO {
	if c == nil {
		return nil
	}
	return &ClientDTO{
		ID:                c.ID,
		FirstName:         c.FirstName,
		MiddleName:        c.MiddleName,
		LastName:          c.LastName,
		FullName:          c.FullName(),
		DateOfBirth:       c.DateOfBirth,
		Gender:            c.Gender,
		IDType:            c.IDType,
		IDNumber:          c.IDNumber,
		Phone:             c.Phone,
		Email:             c.Email,
		Address:           c.Address,
		City:              c.City,
		Occupation:        c.Occupation,
		Employer:          c.Employer,
		MonthlyIncome:     c.MonthlyIncome,
		NextOfKinName:     c.NextOfKinName,
		NextOfKinPhone:    c.NextOfKinPhone,
		NextOfKinRelation: c.NextOfKinRelation,
		CreditLimit:       c.CreditLimit,
		CurrentDebt:       c.CurrentDebt,
		AvailableCredit:   c.AvailableCredit(),
		Status:            c.Status,
		IsBlacklisted:     c.IsBlacklisted,
		BlacklistReason:   c.BlacklistReason,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

func agreementFromModel(a *models.ClientVehicle) *AgreementDTO {
	if a == nil {
		return nil
	}
	return &AgreementDTO{
		ID:                 a.ID,
		ClientID:           a.ClientID,
		VehicleID:          a.VehicleID,
		PurchasePrice:      a.PurchasePrice,
		DepositPaid:        a.DepositPaid,
		TotalPaid:          a.TotalPaid,
		Balance:            a.Balance,
		MonthlyInstallment: a.MonthlyInstallment,
		InstallmentMonths:  a.InstallmentMonths,
		InterestRate:       a.InterestRate,
		IsPaidOff:          a.IsPaidOff,
		PaidOffDate:        a.PaidOffDate,
		CreatedAt:          a.CreatedAt,
	}
}
