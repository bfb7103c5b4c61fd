package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// Report is a saved report definition, optionally on a schedule.
type Report struct {
	ID         uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name       string                 `gorm:"column:name;not null"`
	Type       enums.ReportType       `gorm:"column:type;type:report_type;not null;index"`
	Format     enums.ReportFormat     `gorm:"column:format;type:report_format;not null;default:'csv'"`
	DateFrom   *time.Time             `gorm:"column:date_from;type:date"`
	DateTo     *time.Time             `gorm:"column:date_to;type:date"`
	Recipients pq.StringArray         `gorm:"column:recipients;type:text[];not null;default:ARRAY[]::text[]"`
	Scheduled  bool                   `gorm:"column:scheduled;not null;default:false"`
	Frequency  *enums.ReportFrequency `gorm:"column:frequency;type:report_frequency"`
	NextRunAt  *time.Time             `gorm:"column:next_run_at;index"`
	CreatedBy  *uuid.UUID             `gorm:"column:created_by;type:uuid"`
	CreatedAt  time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
