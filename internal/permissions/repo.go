package permissions

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
)

// Repository persists the role permission matrix and its history.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the permissions repo to a GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Find returns the cell for (role, module).
func (r *Repository) Find(ctx context.Context, role enums.UserRole, module enums.Module) (*models.RolePermission, error) {
	var row models.RolePermission
	err := r.db.WithContext(ctx).
		Where("role = ? AND module = ?", role, module).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListAll returns the full matrix ordered by role then module.
func (r *Repository) ListAll(ctx context.Context) ([]models.RolePermission, error) {
	var rows []models.RolePermission
	err := r.db.WithContext(ctx).
		Order("role ASC, module ASC").
		Find(&rows).Error
	return rows, err
}

// Save upserts the cell on its (role, module) key.
func (r *Repository) Save(ctx context.Context, row *models.RolePermission) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "role"}, {Name: "module"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"access_level", "can_create", "can_edit", "can_delete", "can_export", "is_active", "updated_at",
			}),
		}).
		Create(row).Error
}

// InsertMissing inserts the row only when the (role, module) cell does
// not exist yet. Returns true when a row was inserted.
func (r *Repository) InsertMissing(ctx context.Context, row *models.RolePermission) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "role"}, {Name: "module"}},
			DoNothing: true,
		}).
		Create(row)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// RecordHistory appends a permission change log row.
func (r *Repository) RecordHistory(ctx context.Context, entry models.PermissionHistory) error {
	return r.db.WithContext(ctx).Create(&entry).Error
}

// ListHistory pages the change log, newest first.
func (r *Repository) ListHistory(ctx context.Context, role *enums.UserRole, params pagination.Params) ([]models.PermissionHistory, error) {
	query := r.db.WithContext(ctx).Model(&models.PermissionHistory{})
	if role != nil {
		query = query.Where("role = ?", *role)
	}
	if cursor, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, err
	} else if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	var rows []models.PermissionHistory
	err := query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	return rows, err
}
