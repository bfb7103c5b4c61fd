package models

import (
	"time"

	"github.com/google/uuid"
)

// Dealership holds the company profile shown on receipts and exports.
type Dealership struct {
	ID                  uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name                string     `gorm:"column:name;not null"`
	Email               string     `gorm:"column:email;not null"`
	Phone               *string    `gorm:"column:phone"`
	Address             *string    `gorm:"column:address"`
	City                *string    `gorm:"column:city"`
	LogoPath            *string    `gorm:"column:logo_path"`
	PrimaryColor        string     `gorm:"column:primary_color;not null;default:'#1a73e8'"`
	SecondaryColor      string     `gorm:"column:secondary_color;not null;default:'#f8f9fa'"`
	SubscriptionEndDate *time.Time `gorm:"column:subscription_end_date;type:date"`
	IsActive            bool       `gorm:"column:is_active;not null;default:true"`
	CreatedAt           time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
