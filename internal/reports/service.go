package reports

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	pkgerrors "github.com/dealerdeskhq/dealerdesk-backend/pkg/errors"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
)

const defaultWindowDays = 30

// Service manages report definitions, runs and downloads.
type Service interface {
	Create(ctx context.Context, req CreateReportRequest, createdBy uuid.UUID) (*ReportDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*ReportDTO, error)
	List(ctx context.Context, params pagination.Params) (Page, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateReportRequest) (*ReportDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Run(ctx context.Context, id uuid.UUID, triggeredBy *uuid.UUID) (*ExecutionDTO, error)
	ListExecutions(ctx context.Context, reportID uuid.UUID, limit int) ([]ExecutionDTO, error)
	Download(ctx context.Context, executionID uuid.UUID) (*FileInfo, error)
	RunDue(ctx context.Context, now time.Time) (int, error)
}

type repository interface {
	Create(ctx context.Context, report *models.Report) error
	Find(ctx context.Context, id uuid.UUID) (*models.Report, error)
	List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Report, error)
	Update(ctx context.Context, report *models.Report) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListDueScheduled(ctx context.Context, now time.Time) ([]models.Report, error)
	CreateExecution(ctx context.Context, execution *models.ReportExecution) error
	FindExecution(ctx context.Context, id uuid.UUID) (*models.ReportExecution, error)
	ListExecutions(ctx context.Context, reportID uuid.UUID, limit int) ([]models.ReportExecution, error)
	TransitionExecution(ctx context.Context, id uuid.UUID, from, to enums.ReportExecutionStatus, updates map[string]any) (bool, error)
	BuildDataset(ctx context.Context, reportType enums.ReportType, from, to time.Time) (*dataset, error)
}

type service struct {
	repo      repository
	exportDir string
	now       func() time.Time
}

// NewService wires the reports service. Rendered files land in exportDir.
func NewService(repo repository, exportDir string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reports repository is required")
	}
	if exportDir == "" {
		return nil, fmt.Errorf("export directory is required")
	}
	return &service{
		repo:      repo,
		exportDir: exportDir,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Create(ctx context.Context, req CreateReportRequest, createdBy uuid.UUID) (*ReportDTO, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !req.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid report type")
	}
	format := req.Format
	if format == "" {
		format = enums.FormatCSV
	}
	if !format.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid report format")
	}
	if req.DateFrom != nil && req.DateTo != nil && req.DateTo.Before(*req.DateFrom) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date range end cannot precede its start")
	}

	report := &models.Report{
		Name:       strings.TrimSpace(req.Name),
		Type:       req.Type,
		Format:     format,
		DateFrom:   req.DateFrom,
		DateTo:     req.DateTo,
		Recipients: pq.StringArray(req.Recipients),
		CreatedBy:  &createdBy,
	}
	if req.Scheduled {
		if req.Frequency == nil || !req.Frequency.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "scheduled reports need a valid frequency")
		}
		report.Scheduled = true
		report.Frequency = req.Frequency
		next := nextRun(s.now(), *req.Frequency)
		report.NextRunAt = &next
	}
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create report")
	}
	return reportFromModel(report), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ReportDTO, error) {
	report, err := s.findReport(ctx, id)
	if err != nil {
		return nil, err
	}
	return reportFromModel(report), nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (Page, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return Page{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, cursor, pagination.LimitWithBuffer(limit))
	if err != nil {
		return Page{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list reports")
	}
	items := make([]ReportDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *reportFromModel(&rows[i]))
	}
	return pageOf(items, limit), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, req UpdateReportRequest) (*ReportDTO, error) {
	report, err := s.findReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		report.Name = strings.TrimSpace(*req.Name)
	}
	if req.Format != nil {
		if !req.Format.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid report format")
		}
		report.Format = *req.Format
	}
	if req.DateFrom != nil {
		report.DateFrom = req.DateFrom
	}
	if req.DateTo != nil {
		report.DateTo = req.DateTo
	}
	if report.DateFrom != nil && report.DateTo != nil && report.DateTo.Before(*report.DateFrom) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date range end cannot precede its start")
	}
	if req.Recipients != nil {
		report.Recipients = pq.StringArray(req.Recipients)
	}
	if req.Frequency != nil {
		if !req.Frequency.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid report frequency")
		}
		report.Frequency = req.Frequency
	}
	if req.Scheduled != nil {
		report.Scheduled = *req.Scheduled
	}
	if report.Scheduled {
		if report.Frequency == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "scheduled reports need a frequency")
		}
		if report.NextRunAt == nil {
			next := nextRun(s.now(), *report.Frequency)
			report.NextRunAt = &next
		}
	} else {
		report.NextRunAt = nil
	}
	if err := s.repo.Update(ctx, report); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update report")
	}
	return reportFromModel(report), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.findReport(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete report")
	}
	return nil
}

// Run executes a report definition end to end: it opens an execution
// row, builds the dataset, renders it into the export directory and
// closes the row as completed or failed.
func (s *service) Run(ctx context.Context, id uuid.UUID, triggeredBy *uuid.UUID) (*ExecutionDTO, error) {
	report, err := s.findReport(ctx, id)
	if err != nil {
		return nil, err
	}

	execution := &models.ReportExecution{
		ReportID:    report.ID,
		Status:      enums.ExecutionPending,
		TriggeredBy: triggeredBy,
	}
	if err := s.repo.CreateExecution(ctx, execution); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "open report execution")
	}

	started := s.now()
	if _, err := s.repo.TransitionExecution(ctx, execution.ID, enums.ExecutionPending, enums.ExecutionRunning, map[string]any{
		"started_at": started,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "start report execution")
	}

	if runErr := s.runToFile(ctx, report, execution.ID); runErr != nil {
		message := runErr.Error()
		if len(message) > 500 {
			message = message[:500]
		}
		if _, err := s.repo.TransitionExecution(ctx, execution.ID, enums.ExecutionRunning, enums.ExecutionFailed, map[string]any{
			"completed_at":  s.now(),
			"error_message": message,
		}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "fail report execution")
		}
	}

	finished, err := s.repo.FindExecution(ctx, execution.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload report execution")
	}
	return executionFromModel(finished), nil
}

func (s *service) runToFile(ctx context.Context, report *models.Report, executionID uuid.UUID) error {
	from, to := s.window(report)
	data, err := s.repo.BuildDataset(ctx, report.Type, from, to)
	if err != nil {
		return fmt.Errorf("build dataset: %w", err)
	}
	payload, err := render(data, report.Format)
	if err != nil {
		return fmt.Errorf("render %s: %w", report.Format, err)
	}
	if err := os.MkdirAll(s.exportDir, 0o755); err != nil {
		return fmt.Errorf("prepare export directory: %w", err)
	}
	fileName := fmt.Sprintf("%s-%s.%s", report.Type, executionID, report.Format)
	fullPath := filepath.Join(s.exportDir, fileName)
	if err := os.WriteFile(fullPath, payload, 0o644); err != nil {
		return fmt.Errorf("write report file: %w", err)
	}

	moved, err := s.repo.TransitionExecution(ctx, executionID, enums.ExecutionRunning, enums.ExecutionCompleted, map[string]any{
		"completed_at":    s.now(),
		"file_path":       fullPath,
		"file_size_bytes": int64(len(payload)),
		"row_count":       len(data.Rows),
	})
	if err != nil {
		return fmt.Errorf("complete execution: %w", err)
	}
	if !moved {
		return fmt.Errorf("execution %s no longer running", executionID)
	}
	return nil
}

// window resolves the report's date range, defaulting to the trailing
// 30 days. DateTo is inclusive, so the query bound is the next day.
func (s *service) window(report *models.Report) (time.Time, time.Time) {
	now := s.now()
	to := now
	if report.DateTo != nil {
		to = report.DateTo.AddDate(0, 0, 1)
	}
	from := to.AddDate(0, 0, -defaultWindowDays)
	if report.DateFrom != nil {
		from = *report.DateFrom
	}
	return from, to
}

func (s *service) ListExecutions(ctx context.Context, reportID uuid.UUID, limit int) ([]ExecutionDTO, error) {
	if _, err := s.findReport(ctx, reportID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.repo.ListExecutions(ctx, reportID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list report executions")
	}
	out := make([]ExecutionDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *executionFromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Download(ctx context.Context, executionID uuid.UUID) (*FileInfo, error) {
	execution, err := s.repo.FindExecution(ctx, executionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "report execution not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup report execution")
	}
	if execution.Status != enums.ExecutionCompleted || execution.FilePath == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "report execution has no file to download")
	}
	info, err := os.Stat(*execution.FilePath)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "stat report file")
	}
	format := enums.FormatJSON
	if execution.Report != nil {
		format = execution.Report.Format
	}
	return &FileInfo{
		Path:        *execution.FilePath,
		FileName:    filepath.Base(*execution.FilePath),
		ContentType: contentTypeFor(format),
		SizeBytes:   info.Size(),
	}, nil
}

// RunDue fires every scheduled report whose next run has passed and
// advances its schedule. Failures run on but count against no one; the
// execution row carries the error.
func (s *service) RunDue(ctx context.Context, now time.Time) (int, error) {
	due, err := s.repo.ListDueScheduled(ctx, now)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list due reports")
	}
	ran := 0
	for i := range due {
		report := due[i]
		if _, err := s.Run(ctx, report.ID, nil); err != nil {
			continue
		}
		ran++
		if report.Frequency != nil {
			next := nextRun(now, *report.Frequency)
			report.NextRunAt = &next
			if err := s.repo.Update(ctx, &report); err != nil {
				return ran, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "advance report schedule")
			}
		}
	}
	return ran, nil
}

func (s *service) findReport(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	report, err := s.repo.Find(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "report not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup report")
	}
	return report, nil
}

// nextRun advances a schedule from now to its next fire time, pinned
// to early morning UTC.
func nextRun(now time.Time, frequency enums.ReportFrequency) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 6, 0, 0, 0, time.UTC)
	switch frequency {
	case enums.ReportDaily:
		return day.AddDate(0, 0, 1)
	case enums.ReportWeekly:
		return day.AddDate(0, 0, 7)
	default:
		return day.AddDate(0, 1, 0)
	}
}
