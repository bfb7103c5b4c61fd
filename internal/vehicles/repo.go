package vehicles

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
)

// Repository persists vehicles, photos and status history.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the vehicles repo to a GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new vehicle.
func (r *Repository) Create(ctx context.Context, vehicle *models.Vehicle) error {
	return r.db.WithContext(ctx).Create(vehicle).Error
}

// FindByID loads a vehicle with its photos.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := r.db.WithContext(ctx).
		Preload("Photos", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC, created_at ASC")
		}).
		First(&vehicle, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// FindByVIN loads a vehicle by its VIN.
func (r *Repository) FindByVIN(ctx context.Context, vin string) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	if err := r.db.WithContext(ctx).Where("vin = ?", vin).First(&vehicle).Error; err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// List pages the inventory with filters, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Vehicle, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.Vehicle{}), filter)
	if cursor, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, err
	} else if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Vehicle
	err := query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	return rows, err
}

// ListAll streams every vehicle matching the filter, for exports.
func (r *Repository) ListAll(ctx context.Context, filter ListFilter) ([]models.Vehicle, error) {
	var rows []models.Vehicle
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.Vehicle{}), filter).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

// ListFeatured returns active featured vehicles.
func (r *Repository) ListFeatured(ctx context.Context, limit int) ([]models.Vehicle, error) {
	var rows []models.Vehicle
	err := r.db.WithContext(ctx).
		Where("is_featured = ? AND status = ?", true, enums.VehicleStatusAvailable).
		Order("created_at DESC").
		Limit(pagination.NormalizeLimit(limit)).
		Find(&rows).Error
	return rows, err
}

func (r *Repository) applyFilter(query *gorm.DB, filter ListFilter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Make != nil {
		query = query.Where("make = ?", *filter.Make)
	}
	if filter.Model != nil {
		query = query.Where("model = ?", *filter.Model)
	}
	if filter.YearMin != nil {
		query = query.Where("year >= ?", *filter.YearMin)
	}
	if filter.YearMax != nil {
		query = query.Where("year <= ?", *filter.YearMax)
	}
	if filter.PriceMin != nil {
		query = query.Where("selling_price >= ?", *filter.PriceMin)
	}
	if filter.PriceMax != nil {
		query = query.Where("selling_price <= ?", *filter.PriceMax)
	}
	if filter.Featured != nil {
		query = query.Where("is_featured = ?", *filter.Featured)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("vin LIKE ? OR make LIKE ? OR model LIKE ? OR registration_number LIKE ?", like, like, like, like)
	}
	return query
}

// Update saves the provided vehicle.
func (r *Repository) Update(ctx context.Context, vehicle *models.Vehicle) error {
	return r.db.WithContext(ctx).Save(vehicle).Error
}

// Delete removes a vehicle and its photos.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Vehicle{}, "id = ?", id).Error
}

// ChangeStatusTx updates the status and appends history inside tx.
// The date_sold stamp rides along when the vehicle is sold.
func (r *Repository) ChangeStatusTx(tx *gorm.DB, vehicle *models.Vehicle, newStatus enums.VehicleStatus, notes *string, changedBy *uuid.UUID, now time.Time) error {
	updates := map[string]any{"status": newStatus, "updated_at": now}
	if newStatus == enums.VehicleStatusSold {
		updates["date_sold"] = now
	}
	if err := tx.Model(&models.Vehicle{}).
		Where("id = ?", vehicle.ID).
		Updates(updates).Error; err != nil {
		return err
	}
	history := models.VehicleHistory{
		VehicleID: vehicle.ID,
		OldStatus: vehicle.Status,
		NewStatus: newStatus,
		Notes:     notes,
		ChangedBy: changedBy,
	}
	return tx.Create(&history).Error
}

// ListHistory returns the status transitions for a vehicle, newest first.
func (r *Repository) ListHistory(ctx context.Context, vehicleID uuid.UUID) ([]models.VehicleHistory, error) {
	var rows []models.VehicleHistory
	err := r.db.WithContext(ctx).
		Where("vehicle_id = ?", vehicleID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

// AddPhotoTx inserts a photo; when primary it demotes the others first.
func (r *Repository) AddPhotoTx(tx *gorm.DB, photo *models.VehiclePhoto) error {
	if photo.IsPrimary {
		if err := tx.Model(&models.VehiclePhoto{}).
			Where("vehicle_id = ?", photo.VehicleID).
			Update("is_primary", false).Error; err != nil {
			return err
		}
	}
	return tx.Create(photo).Error
}

// ListPhotos returns the gallery in display order.
func (r *Repository) ListPhotos(ctx context.Context, vehicleID uuid.UUID) ([]models.VehiclePhoto, error) {
	var rows []models.VehiclePhoto
	err := r.db.WithContext(ctx).
		Where("vehicle_id = ?", vehicleID).
		Order("display_order ASC, created_at ASC").
		Find(&rows).Error
	return rows, err
}

// FindPhoto loads one photo scoped to the vehicle.
func (r *Repository) FindPhoto(ctx context.Context, vehicleID, photoID uuid.UUID) (*models.VehiclePhoto, error) {
	var photo models.VehiclePhoto
	err := r.db.WithContext(ctx).
		Where("id = ? AND vehicle_id = ?", photoID, vehicleID).
		First(&photo).Error
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

// SetPrimaryPhotoTx makes one photo primary and demotes the rest.
func (r *Repository) SetPrimaryPhotoTx(tx *gorm.DB, vehicleID, photoID uuid.UUID) error {
	if err := tx.Model(&models.VehiclePhoto{}).
		Where("vehicle_id = ?", vehicleID).
		Update("is_primary", false).Error; err != nil {
		return err
	}
	result := tx.Model(&models.VehiclePhoto{}).
		Where("id = ? AND vehicle_id = ?", photoID, vehicleID).
		Update("is_primary", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeletePhoto removes one photo.
func (r *Repository) DeletePhoto(ctx context.Context, vehicleID, photoID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND vehicle_id = ?", photoID, vehicleID).
		Delete(&models.VehiclePhoto{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
