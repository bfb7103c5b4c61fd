package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentShare is a tokenized external link to a document.
type DocumentShare struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	DocumentID    uuid.UUID  `gorm:"column:document_id;type:uuid;not null;index"`
	ShareToken    string     `gorm:"column:share_token;not null;uniqueIndex"`
	PasswordHash  *string    `gorm:"column:password_hash"`
	AllowDownload bool       `gorm:"column:allow_download;not null;default:true"`
	MaxDownloads  *int       `gorm:"column:max_downloads"`
	DownloadCount int        `gorm:"column:download_count;not null;default:0"`
	ExpiresAt     *time.Time `gorm:"column:expires_at"`
	IsActive      bool       `gorm:"column:is_active;not null;default:true"`
	CreatedBy     *uuid.UUID `gorm:"column:created_by;type:uuid"`
	Document      *Document  `gorm:"foreignKey:DocumentID"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// IsValid reports whether the share link may still be used.
func (s DocumentShare) IsValid(now time.Time) bool {
	if !s.IsActive {
		return false
	}
	if s.ExpiresAt != nil && now.After(*s.ExpiresAt) {
		return false
	}
	if s.MaxDownloads != nil && s.DownloadCount >= *s.MaxDownloads {
		return false
	}
	return true
}
