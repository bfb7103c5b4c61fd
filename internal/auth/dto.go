package auth

import (
	"time"

	"github.com/dealerdeskhq/dealerdesk-backend/internal/users"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RequestMeta carries the client fingerprint recorded into login history.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// LoginResponse contains the tokens and user produced by a successful login.
type LoginResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         *users.UserDTO `json:"user"`
}

// RefreshRequest rotates a refresh token bound to the expired access token.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshResponse returns the rotated token pair.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RegisterRequest creates a staff account. Admin only.
type RegisterRequest struct {
	Email          string         `json:"email" validate:"required,email"`
	Password       string         `json:"password" validate:"required,min=8"`
	FirstName      string         `json:"first_name" validate:"required"`
	LastName       string         `json:"last_name" validate:"required"`
	Phone          *string        `json:"phone,omitempty"`
	Role           enums.UserRole `json:"role" validate:"required"`
	EmployeeNumber *string        `json:"employee_number,omitempty"`
	Department     *string        `json:"department,omitempty"`
	HireDate       *time.Time     `json:"hire_date,omitempty"`
}

// ChangePasswordRequest swaps the caller's credential.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}
