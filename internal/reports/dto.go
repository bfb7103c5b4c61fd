package reports

import (
	"time"

	"github.com/google/uuid"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
)

// ReportDTO is the outward report definition.
type ReportDTO struct {
	ID         uuid.UUID              `json:"id"`
	Name       string                 `json:"name"`
	Type       enums.ReportType       `json:"type"`
	Format     enums.ReportFormat     `json:"format"`
	DateFrom   *time.Time             `json:"date_from,omitempty"`
	DateTo     *time.Time             `json:"date_to,omitempty"`
	Recipients []string               `json:"recipients"`
	Scheduled  bool                   `json:"scheduled"`
	Frequency  *enums.ReportFrequency `json:"frequency,omitempty"`
	NextRunAt  *time.Time             `json:"next_run_at,omitempty"`
	CreatedBy  *uuid.UUID             `json:"created_by,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// ExecutionDTO is one run of a report.
type ExecutionDTO struct {
	ID               uuid.UUID                   `json:"id"`
	ReportID         uuid.UUID                   `json:"report_id"`
	Status           enums.ReportExecutionStatus `json:"status"`
	StartedAt        *time.Time                  `json:"started_at,omitempty"`
	CompletedAt      *time.Time                  `json:"completed_at,omitempty"`
	ExecutionSeconds *float64                    `json:"execution_seconds,omitempty"`
	FileSizeBytes    *int64                      `json:"file_size_bytes,omitempty"`
	RowCount         *int                        `json:"row_count,omitempty"`
	ErrorMessage     *string                     `json:"error_message,omitempty"`
	TriggeredBy      *uuid.UUID                  `json:"triggered_by,omitempty"`
	CreatedAt        time.Time                   `json:"created_at"`
}

// CreateReportRequest defines a new report.
type CreateReportRequest struct {
	Name       string                 `json:"name" validate:"required"`
	Type       enums.ReportType       `json:"type" validate:"required"`
	Format     enums.ReportFormat     `json:"format"`
	DateFrom   *time.Time             `json:"date_from"`
	DateTo     *time.Time             `json:"date_to"`
	Recipients []string               `json:"recipients"`
	Scheduled  bool                   `json:"scheduled"`
	Frequency  *enums.ReportFrequency `json:"frequency"`
}

// UpdateReportRequest carries partial report edits.
type UpdateReportRequest struct {
	Name       *string                `json:"name"`
	Format     *enums.ReportFormat    `json:"format"`
	DateFrom   *time.Time             `json:"date_from"`
	DateTo     *time.Time             `json:"date_to"`
	Recipients []string               `json:"recipients"`
	Scheduled  *bool                  `json:"scheduled"`
	Frequency  *enums.ReportFrequency `json:"frequency"`
}

// FileInfo describes a completed execution's artifact for download.
type FileInfo struct {
	Path        string `json:"-"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

// Page is a cursor page of report definitions.
type Page struct {
	Items      []ReportDTO `json:"items"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

func reportFromModel(r *models.Report) *ReportDTO {
	return &ReportDTO{
		ID:         r.ID,
		Name:       r.Name,
		Type:       r.Type,
		Format:     r.Format,
		DateFrom:   r.DateFrom,
		DateTo:     r.DateTo,
		Recipients: append([]string(nil), r.Recipients...),
		Scheduled:  r.Scheduled,
		Frequency:  r.Frequency,
		NextRunAt:  r.NextRunAt,
		CreatedBy:  r.CreatedBy,
		CreatedAt:  r.CreatedAt,
	}
}

func executionFromModel(e *models.ReportExecution) *ExecutionDTO {
	return &ExecutionDTO{
		ID:               e.ID,
		ReportID:         e.ReportID,
		Status:           e.Status,
		StartedAt:        e.StartedAt,
		CompletedAt:      e.CompletedAt,
		ExecutionSeconds: e.ExecutionSeconds(),
		FileSizeBytes:    e.FileSizeBytes,
		RowCount:         e.RowCount,
		ErrorMessage:     e.ErrorMessage,
		TriggeredBy:      e.TriggeredBy,
		CreatedAt:        e.CreatedAt,
	}
}

func pageOf(items []ReportDTO, limit int) Page {
	page := Page{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		last := page.Items[len(page.Items)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page
}
