package audit

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
)

// Repository persists and queries the audit trail.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the audit repo to a GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert appends an audit row.
func (r *Repository) Insert(ctx context.Context, entry models.AuditLog) (*models.AuditLog, error) {
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListLogs pages the audit trail, newest first.
func (r *Repository) ListLogs(ctx context.Context, filter LogFilter, params pagination.Params) ([]models.AuditLog, error) {
	query := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Action != nil {
		query = query.Where("action = ?", *filter.Action)
	}
	if filter.EntityName != nil {
		query = query.Where("entity_name = ?", *filter.EntityName)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}
	if cursor, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, err
	} else if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.AuditLog
	err := query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	return rows, err
}

// ListLoginHistory pages authentication attempts, newest first.
func (r *Repository) ListLoginHistory(ctx context.Context, filter LoginHistoryFilter, params pagination.Params) ([]models.LoginHistory, error) {
	query := r.db.WithContext(ctx).Model(&models.LoginHistory{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Success != nil {
		query = query.Where("success = ?", *filter.Success)
	}
	if filter.SuspiciousOnly {
		query = query.Where("is_suspicious = ?", true)
	}
	if cursor, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, err
	} else if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.LoginHistory
	err := query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	return rows, err
}

// DeleteLoginHistoryBefore prunes attempts older than the cutoff.
func (r *Repository) DeleteLoginHistoryBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.LoginHistory{})
	return result.RowsAffected, result.Error
}
