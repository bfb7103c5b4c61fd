package reports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
)

// Repository persists report definitions and their executions.
type Repository struct {
	db *gorm.DB
}

// NewRepository returns a reports repository bound to the provided database.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, report *models.Report) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *Repository) Find(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var report models.Report
	err := r.db.WithContext(ctx).First(&report, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *Repository) List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Report, error) {
	query := r.db.WithContext(ctx).Model(&models.Report{})
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	var rows []models.Report
	err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *Repository) Update(ctx context.Context, report *models.Report) error {
	return r.db.WithContext(ctx).Save(report).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Report{}, "id = ?", id).Error
}

// ListDueScheduled returns scheduled reports whose next run is due.
func (r *Repository) ListDueScheduled(ctx context.Context, now time.Time) ([]models.Report, error) {
	var rows []models.Report
	err := r.db.WithContext(ctx).
		Where("scheduled AND next_run_at IS NOT NULL AND next_run_at <= ?", now).
		Order("next_run_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) CreateExecution(ctx context.Context, execution *models.ReportExecution) error {
	return r.db.WithContext(ctx).Create(execution).Error
}

func (r *Repository) FindExecution(ctx context.Context, id uuid.UUID) (*models.ReportExecution, error) {
	var execution models.ReportExecution
	err := r.db.WithContext(ctx).Preload("Report").First(&execution, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &execution, nil
}

func (r *Repository) ListExecutions(ctx context.Context, reportID uuid.UUID, limit int) ([]models.ReportExecution, error) {
	var rows []models.ReportExecution
	err := r.db.WithContext(ctx).
		Where("report_id = ?", reportID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// TransitionExecution moves an execution between statuses with a
// conditional update, applying extra column writes alongside.
func (r *Repository) TransitionExecution(ctx context.Context, id uuid.UUID, from, to enums.ReportExecutionStatus, updates map[string]any) (bool, error) {
	set := map[string]any{"status": to, "updated_at": time.Now().UTC()}
	for key, value := range updates {
		set[key] = value
	}
	result := r.db.WithContext(ctx).Model(&models.ReportExecution{}).
		Where("id = ? AND status = ?", id, from).
		Updates(set)
	return result.RowsAffected > 0, result.Error
}
