package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// ReportExecution tracks one run of a report definition.
type ReportExecution struct {
	ID            uuid.UUID                   `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ReportID      uuid.UUID                   `gorm:"column:report_id;type:uuid;not null;index"`
	Status        enums.ReportExecutionStatus `gorm:"column:status;type:report_execution_status;not null;default:'pending';index"`
	StartedAt     *time.Time                  `gorm:"column:started_at"`
	CompletedAt   *time.Time                  `gorm:"column:completed_at"`
	FilePath      *string                     `gorm:"column:file_path"`
	FileSizeBytes *int64                      `gorm:"column:file_size_bytes"`
	RowCount      *int                        `gorm:"column:row_count"`
	ErrorMessage  *string                     `gorm:"column:error_message"`
	TriggeredBy   *uuid.UUID                  `gorm:"column:triggered_by;type:uuid"`
	Report        *Report                     `gorm:"foreignKey:ReportID"`
	CreatedAt     time.Time                   `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt     time.Time                   `gorm:"column:updated_at;autoUpdateTime"`
}

// ExecutionSeconds is the wall-clock duration of a finished run.
func (e ReportExecution) ExecutionSeconds() *float64 {
	if e.StartedAt == nil || e.CompletedAt == nil {
		return nil
	}
	seconds := e.CompletedAt.Sub(*e.StartedAt).Seconds()
	return &seconds
}
