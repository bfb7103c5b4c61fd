package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// Document is a versioned file record attached to a dealership entity.
type Document struct {
	ID                uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Title             string                   `gorm:"column:title;not null;index"`
	CategoryID        uuid.UUID                `gorm:"column:category_id;type:uuid;not null;index"`
	FilePath          string                   `gorm:"column:file_path;not null"`
	FileSizeBytes     int64                    `gorm:"column:file_size_bytes;not null;default:0"`
	FileType          *string                  `gorm:"column:file_type"`
	Status            enums.DocumentStatus     `gorm:"column:status;type:document_status;not null;default:'pending'"`
	DocumentNumber    *string                  `gorm:"column:document_number"`
	IssueDate         *time.Time               `gorm:"column:issue_date;type:date"`
	ExpiryDate        *time.Time               `gorm:"column:expiry_date;type:date;index"`
	Version           int                      `gorm:"column:version;not null;default:1"`
	IsLatestVersion   bool                     `gorm:"column:is_latest_version;not null;default:true;index"`
	PreviousVersionID *uuid.UUID               `gorm:"column:previous_version_id;type:uuid"`
	Tags              pq.StringArray           `gorm:"column:tags;type:text[];not null;default:ARRAY[]::text[]"`
	IsPrivate         bool                     `gorm:"column:is_private;not null;default:false"`
	EntityType        enums.DocumentEntityType `gorm:"column:entity_type;type:document_entity_type;not null;default:'general';index"`
	EntityID          *uuid.UUID               `gorm:"column:entity_id;type:uuid;index"`
	UploadedBy        *uuid.UUID               `gorm:"column:uploaded_by;type:uuid"`
	DownloadCount     int                      `gorm:"column:download_count;not null;default:0"`
	LastDownloadedAt  *time.Time               `gorm:"column:last_downloaded_at"`
	Category          *DocumentCategory        `gorm:"foreignKey:CategoryID"`
	CreatedAt         time.Time                `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt         time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

// IsExpired reports whether the document's validity has lapsed.
func (d Document) IsExpired(now time.Time) bool {
	return d.ExpiryDate != nil && now.After(*d.ExpiryDate)
}

// IsExpiringSoon reports whether the document lapses within the window days.
func (d Document) IsExpiringSoon(now time.Time, windowDays int) bool {
	if d.ExpiryDate == nil || d.IsExpired(now) {
		return false
	}
	return d.ExpiryDate.Sub(now).Hours()/24 <= float64(windowDays)
}
