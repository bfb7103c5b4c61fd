package clients

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
)

// Repository persists clients and purchase agreements.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the clients repo to a GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new client.
func (r *Repository) Create(ctx context.Context, client *models.Client) error {
	return r.db.WithContext(ctx).Create(client).Error
}

// FindByID loads a client.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	var client models.Client
	if err := r.db.WithContext(ctx).First(&client, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

// FindByIDNumber loads a client by national ID / passport number.
func (r *Repository) FindByIDNumber(ctx context.Context, idNumber string) (*models.Client, error) {
	var client models.Client
	if err := r.db.WithContext(ctx).Where("id_number = ?", idNumber).First(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

// List pages clients, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Client, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.Client{}), filter)
	if cursor, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, err
	} else if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Client
	err := query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	return rows, err
}

// ListAll streams every matching client, for exports.
func (r *Repository) ListAll(ctx context.Context, filter ListFilter) ([]models.Client, error) {
	var rows []models.Client
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.Client{}), filter).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) applyFilter(query *gorm.DB, filter ListFilter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Blacklisted != nil {
		query = query.Where("is_blacklisted = ?", *filter.Blacklisted)
	}
	if filter.City != nil {
		query = query.Where("city = ?", *filter.City)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("first_name LIKE ? OR last_name LIKE ? OR id_number LIKE ? OR phone LIKE ?", like, like, like, like)
	}
	return query
}

// Update saves the provided client.
func (r *Repository) Update(ctx context.Context, client *models.Client) error {
	return r.db.WithContext(ctx).Save(client).Error
}

// CreateAgreementTx inserts the agreement inside tx.
func (r *Repository) CreateAgreementTx(tx *gorm.DB, agreement *models.ClientVehicle) error {
	return tx.Create(agreement).Error
}

// FindAgreement loads one agreement scoped to the client.
func (r *Repository) FindAgreement(ctx context.Context, clientID, agreementID uuid.UUID) (*models.ClientVehicle, error) {
	var agreement models.ClientVehicle
	err := r.db.WithContext(ctx).
		Where("id = ? AND client_id = ?", agreementID, clientID).
		First(&agreement).Error
	if err != nil {
		return nil, err
	}
	return &agreement, nil
}

// FindAgreementByVehicle loads the open agreement for a vehicle.
func (r *Repository) FindAgreementByVehicle(ctx context.Context, vehicleID uuid.UUID) (*models.ClientVehicle, error) {
	var agreement models.ClientVehicle
	err := r.db.WithContext(ctx).
		Where("vehicle_id = ? AND is_paid_off = ?", vehicleID, false).
		First(&agreement).Error
	if err != nil {
		return nil, err
	}
	return &agreement, nil
}

// ListAgreements returns the client's agreements, newest first.
func (r *Repository) ListAgreements(ctx context.Context, clientID uuid.UUID) ([]models.ClientVehicle, error) {
	var rows []models.ClientVehicle
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

// AddDebtTx adjusts the client's current debt inside tx. Negative
// amounts reduce it.
func (r *Repository) AddDebtTx(tx *gorm.DB, clientID uuid.UUID, delta decimal.Decimal) error {
	return tx.Model(&models.Client{}).
		Where("id = ?", clientID).
		UpdateColumn("current_debt", gorm.Expr("current_debt + ?", delta)).Error
}
