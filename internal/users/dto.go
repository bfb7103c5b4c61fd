package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID             uuid.UUID      `json:"id"`
	Email          string         `json:"email"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	Phone          *string        `json:"phone,omitempty"`
	Role           enums.UserRole `json:"role"`
	EmployeeNumber *string        `json:"employee_number,omitempty"`
	Department     *string        `json:"department,omitempty"`
	HireDate       *time.Time     `json:"hire_date,omitempty"`
	IsActive       bool           `json:"is_active"`
	LastLoginAt    *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email          string
	PasswordHash   string
	FirstName      string
	LastName       string
	Phone          *string
	Role           enums.UserRole
	EmployeeNumber *string
	Department     *string
	HireDate       *time.Time
	IsActive       *bool
}

// UpdateUserDTO carries the mutable profile fields. Nil means unchanged.
type UpdateUserDTO struct {
	FirstName  *string
	LastName   *string
	Phone      *string
	Role       *enums.UserRole
	Department *string
	HireDate   *time.Time
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:             u.ID,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Phone:          u.Phone,
		Role:           u.Role,
		EmployeeNumber: u.EmployeeNumber,
		Department:     u.Department,
		HireDate:       u.HireDate,
		IsActive:       u.IsActive,
		LastLoginAt:    u.LastLoginAt,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	isActive := true
	if c.IsActive != nil {
		isActive = *c.IsActive
	}

	return &models.User{
		Email:          c.Email,
		PasswordHash:   c.PasswordHash,
		FirstName:      c.FirstName,
		LastName:       c.LastName,
		Phone:          c.Phone,
		Role:           c.Role,
		EmployeeNumber: c.EmployeeNumber,
		Department:     c.Department,
		HireDate:       c.HireDate,
		IsActive:       isActive,
	}
}
