package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// Client is a dealership customer.
type Client struct {
	ID                uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	FirstName         string             `gorm:"column:first_name;not null"`
	MiddleName        *string            `gorm:"column:middle_name"`
	LastName          string             `gorm:"column:last_name;not null"`
	DateOfBirth       *time.Time         `gorm:"column:date_of_birth;type:date"`
	Gender            *string            `gorm:"column:gender"`
	IDType            enums.IDType       `gorm:"column:id_type;type:id_type;not null;default:'national_id'"`
	IDNumber          string             `gorm:"column:id_number;not null;uniqueIndex"`
	Phone             string             `gorm:"column:phone;not null;index"`
	Email             *string            `gorm:"column:email;index"`
	Address           *string            `gorm:"column:address"`
	City              *string            `gorm:"column:city"`
	Occupation        *string            `gorm:"column:occupation"`
	Employer          *string            `gorm:"column:employer"`
	MonthlyIncome     *decimal.Decimal   `gorm:"column:monthly_income;type:numeric(12,2)"`
	NextOfKinName     *string            `gorm:"column:next_of_kin_name"`
	NextOfKinPhone    *string            `gorm:"column:next_of_kin_phone"`
	NextOfKinRelation *string            `gorm:"column:next_of_kin_relation"`
	CreditLimit       decimal.Decimal    `gorm:"column:credit_limit;type:numeric(12,2);not null;default:0"`
	CurrentDebt       decimal.Decimal    `gorm:"column:current_debt;type:numeric(12,2);not null;default:0"`
	Status            enums.ClientStatus `gorm:"column:status;type:client_status;not null;default:'active';index"`
	IsBlacklisted     bool               `gorm:"column:is_blacklisted;not null;default:false"`
	BlacklistReason   *string            `gorm:"column:blacklist_reason"`
	RegisteredBy      *uuid.UUID         `gorm:"column:registered_by;type:uuid"`
	CreatedAt         time.Time          `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt         time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// FullName joins the client's names for display and exports.
func (c Client) FullName() string {
	if c.MiddleName != nil && *c.MiddleName != "" {
		return c.FirstName + " " + *c.MiddleName + " " + c.LastName
	}
	return c.FirstName + " " + c.LastName
}

// AvailableCredit is the remaining headroom under the client's limit.
func (c Client) AvailableCredit() decimal.Decimal {
	return c.CreditLimit.Sub(c.CurrentDebt)
}
