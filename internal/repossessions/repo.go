package repossessions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
)

// Repository persists repossession cases and their satellites.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repossessions repo to a GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateTx inserts a case inside a transaction.
func (r *Repository) CreateTx(tx *gorm.DB, repossession *models.Repossession) error {
	return tx.Create(repossession).Error
}

// FindByID loads a case.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Repossession, error) {
	var repossession models.Repossession
	if err := r.db.WithContext(ctx).First(&repossession, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &repossession, nil
}

// FindOpenByAgreement returns the live case attached to an agreement, if any.
func (r *Repository) FindOpenByAgreement(ctx context.Context, clientVehicleID uuid.UUID) (*models.Repossession, error) {
	var repossession models.Repossession
	err := r.db.WithContext(ctx).
		Where("client_vehicle_id = ? AND status NOT IN ?", clientVehicleID,
			[]enums.RepossessionStatus{enums.RepoStatusCompleted, enums.RepoStatusCancelled}).
		First(&repossession).Error
	if err != nil {
		return nil, err
	}
	return &repossession, nil
}

// List pages cases, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Repossession, error) {
	query := r.db.WithContext(ctx).Model(&models.Repossession{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.AssignedTo != nil {
		query = query.Where("assigned_to = ?", *filter.AssignedTo)
	}
	if filter.Search != "" {
		query = query.Where("case_number ILIKE ?", "%"+filter.Search+"%")
	}
	if cursor, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, err
	} else if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Repossession
	err := query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	return rows, err
}

// Update saves case changes.
func (r *Repository) Update(ctx context.Context, repossession *models.Repossession) error {
	return r.db.WithContext(ctx).Save(repossession).Error
}

// TransitionTx moves a case between statuses only when it is still in the
// expected one. Extra column updates ride along.
func (r *Repository) TransitionTx(tx *gorm.DB, caseID uuid.UUID, from, to enums.RepossessionStatus, updates map[string]any) (bool, error) {
	set := map[string]any{"status": to, "updated_at": time.Now().UTC()}
	for column, value := range updates {
		set[column] = value
	}
	result := tx.Model(&models.Repossession{}).
		Where("id = ? AND status = ?", caseID, from).
		Updates(set)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// AddCostTx bumps one of the case's cost buckets.
func (r *Repository) AddCostTx(tx *gorm.DB, caseID uuid.UUID, column string, amount decimal.Decimal) error {
	return tx.Model(&models.Repossession{}).
		Where("id = ?", caseID).
		Update(column, gorm.Expr(column+" + ?", amount)).Error
}

// CreateHistoryTx appends a transition record.
func (r *Repository) CreateHistoryTx(tx *gorm.DB, entry *models.RepossessionStatusHistory) error {
	return tx.Create(entry).Error
}

// ListHistory returns a case's transition trail, oldest first.
func (r *Repository) ListHistory(ctx context.Context, caseID uuid.UUID) ([]models.RepossessionStatusHistory, error) {
	var rows []models.RepossessionStatusHistory
	err := r.db.WithContext(ctx).
		Where("repossession_id = ?", caseID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// CreateNoticeTx inserts a notice inside a transaction.
func (r *Repository) CreateNoticeTx(tx *gorm.DB, notice *models.RepossessionNotice) error {
	return tx.Create(notice).Error
}

// FindNotice loads a notice.
func (r *Repository) FindNotice(ctx context.Context, id uuid.UUID) (*models.RepossessionNotice, error) {
	var notice models.RepossessionNotice
	if err := r.db.WithContext(ctx).First(&notice, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &notice, nil
}

// ListNotices returns a case's notices, newest first.
func (r *Repository) ListNotices(ctx context.Context, caseID uuid.UUID) ([]models.RepossessionNotice, error) {
	var rows []models.RepossessionNotice
	err := r.db.WithContext(ctx).
		Where("repossession_id = ?", caseID).
		Order("sent_at DESC").
		Find(&rows).Error
	return rows, err
}

// UpdateNotice saves notice changes.
func (r *Repository) UpdateNotice(ctx context.Context, notice *models.RepossessionNotice) error {
	return r.db.WithContext(ctx).Save(notice).Error
}

// CreateContact inserts an outreach record.
func (r *Repository) CreateContact(ctx context.Context, contact *models.RepossessionContact) error {
	return r.db.WithContext(ctx).Create(contact).Error
}

// ListContacts returns a case's outreach log, newest first.
func (r *Repository) ListContacts(ctx context.Context, caseID uuid.UUID) ([]models.RepossessionContact, error) {
	var rows []models.RepossessionContact
	err := r.db.WithContext(ctx).
		Where("repossession_id = ?", caseID).
		Order("contacted_at DESC").
		Find(&rows).Error
	return rows, err
}

// CreateAttemptTx inserts a recovery attempt inside a transaction.
func (r *Repository) CreateAttemptTx(tx *gorm.DB, attempt *models.RepossessionRecoveryAttempt) error {
	return tx.Create(attempt).Error
}

// ListAttempts returns a case's recovery attempts, newest first.
func (r *Repository) ListAttempts(ctx context.Context, caseID uuid.UUID) ([]models.RepossessionRecoveryAttempt, error) {
	var rows []models.RepossessionRecoveryAttempt
	err := r.db.WithContext(ctx).
		Where("repossession_id = ?", caseID).
		Order("attempted_at DESC").
		Find(&rows).Error
	return rows, err
}

// CreateExpenseTx inserts a case expense inside a transaction.
func (r *Repository) CreateExpenseTx(tx *gorm.DB, expense *models.RepossessionExpense) error {
	return tx.Create(expense).Error
}

// FindExpense loads a case expense.
func (r *Repository) FindExpense(ctx context.Context, id uuid.UUID) (*models.RepossessionExpense, error) {
	var expense models.RepossessionExpense
	if err := r.db.WithContext(ctx).First(&expense, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &expense, nil
}

// ListExpenses returns a case's expenses, newest first.
func (r *Repository) ListExpenses(ctx context.Context, caseID uuid.UUID) ([]models.RepossessionExpense, error) {
	var rows []models.RepossessionExpense
	err := r.db.WithContext(ctx).
		Where("repossession_id = ?", caseID).
		Order("incurred_on DESC, created_at DESC").
		Find(&rows).Error
	return rows, err
}

// UpdateExpense saves expense changes.
func (r *Repository) UpdateExpense(ctx context.Context, expense *models.RepossessionExpense) error {
	return r.db.WithContext(ctx).Save(expense).Error
}
