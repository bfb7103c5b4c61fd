package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// DocumentCategory constrains what may be uploaded under a heading.
type DocumentCategory struct {
	ID                uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name              string         `gorm:"column:name;not null;uniqueIndex"`
	Slug              string         `gorm:"column:slug;not null;uniqueIndex"`
	Description       *string        `gorm:"column:description"`
	AllowedExtensions pq.StringArray `gorm:"column:allowed_extensions;type:text[];not null;default:ARRAY[]::text[]"`
	MaxFileSizeMB     int            `gorm:"column:max_file_size_mb;not null;default:10"`
	RequireExpiryDate bool           `gorm:"column:require_expiry_date;not null;default:false"`
	IsActive          bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt         time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// AllowsExtension reports whether the lowercase extension is permitted.
// An empty allow-list accepts anything.
func (c DocumentCategory) AllowsExtension(ext string) bool {
	if len(c.AllowedExtensions) == 0 {
		return true
	}
	for _, allowed := range c.AllowedExtensions {
		if allowed == ext {
			return true
		}
	}
	return false
}
