package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// Employee is a payroll subject, optionally linked to a login account.
type Employee struct {
	ID                    uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	EmployeeNumber        string               `gorm:"column:employee_number;not null;uniqueIndex"`
	UserID                *uuid.UUID           `gorm:"column:user_id;type:uuid;uniqueIndex"`
	FirstName             string               `gorm:"column:first_name;not null"`
	MiddleName            *string              `gorm:"column:middle_name"`
	LastName              string               `gorm:"column:last_name;not null"`
	NationalID            string               `gorm:"column:national_id;not null;uniqueIndex"`
	EmploymentType        enums.EmploymentType `gorm:"column:employment_type;type:employment_type;not null;default:'full_time'"`
	Status                enums.EmployeeStatus `gorm:"column:status;type:employee_status;not null;default:'active';index"`
	JobTitle              string               `gorm:"column:job_title;not null"`
	Department            *string              `gorm:"column:department"`
	HireDate              time.Time            `gorm:"column:hire_date;type:date;not null"`
	TerminationDate       *time.Time           `gorm:"column:termination_date;type:date"`
	BankName              *string              `gorm:"column:bank_name"`
	BankAccountNumber     *string              `gorm:"column:bank_account_number"`
	BankBranch            *string              `gorm:"column:bank_branch"`
	KRAPin                *string              `gorm:"column:kra_pin"`
	EmergencyContactName  *string              `gorm:"column:emergency_contact_name"`
	EmergencyContactPhone *string              `gorm:"column:emergency_contact_phone"`
	CreatedAt             time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// FullName joins the employee's names for payslips.
func (e Employee) FullName() string {
	if e.MiddleName != nil && *e.MiddleName != "" {
		return e.FirstName + " " + *e.MiddleName + " " + e.LastName
	}
	return e.FirstName + " " + e.LastName
}
