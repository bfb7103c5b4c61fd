package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// User represents a dealership staff account.
type User struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email          string         `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash   string         `gorm:"column:password_hash;not null"`
	FirstName      string         `gorm:"column:first_name;not null"`
	LastName       string         `gorm:"column:last_name;not null"`
	Phone          *string        `gorm:"column:phone"`
	Role           enums.UserRole `gorm:"column:role;type:user_role;not null;default:'clerk'"`
	EmployeeNumber *string        `gorm:"column:employee_number;uniqueIndex"`
	Department     *string        `gorm:"column:department"`
	HireDate       *time.Time     `gorm:"column:hire_date;type:date"`
	IsActive       bool           `gorm:"column:is_active;not null;default:true"`
	LastLoginAt    *time.Time     `gorm:"column:last_login_at"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// FullName joins the user's names for display and audit entries.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}
