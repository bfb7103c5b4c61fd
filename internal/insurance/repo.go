package insurance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
)

// Repository persists providers, policies and claims.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the insurance repo to a GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateProvider inserts an underwriter.
func (r *Repository) CreateProvider(ctx context.Context, provider *models.InsuranceProvider) error {
	return r.db.WithContext(ctx).Create(provider).Error
}

// FindProvider loads a provider.
func (r *Repository) FindProvider(ctx context.Context, id uuid.UUID) (*models.InsuranceProvider, error) {
	var provider models.InsuranceProvider
	if err := r.db.WithContext(ctx).First(&provider, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &provider, nil
}

// FindProviderByName loads a provider by its unique name.
func (r *Repository) FindProviderByName(ctx context.Context, name string) (*models.InsuranceProvider, error) {
	var provider models.InsuranceProvider
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&provider).Error; err != nil {
		return nil, err
	}
	return &provider, nil
}

// ListProviders returns providers alphabetically, optionally only active ones.
func (r *Repository) ListProviders(ctx context.Context, activeOnly bool) ([]models.InsuranceProvider, error) {
	query := r.db.WithContext(ctx).Model(&models.InsuranceProvider{})
	if activeOnly {
		query = query.Where("is_active")
	}
	var rows []models.InsuranceProvider
	err := query.Order("name ASC").Find(&rows).Error
	return rows, err
}

// UpdateProvider saves provider changes.
func (r *Repository) UpdateProvider(ctx context.Context, provider *models.InsuranceProvider) error {
	return r.db.WithContext(ctx).Save(provider).Error
}

// CreatePolicyTx inserts a policy inside a transaction.
func (r *Repository) CreatePolicyTx(tx *gorm.DB, policy *models.InsurancePolicy) error {
	return tx.Create(policy).Error
}

// FindPolicy loads a policy with its provider.
func (r *Repository) FindPolicy(ctx context.Context, id uuid.UUID) (*models.InsurancePolicy, error) {
	var policy models.InsurancePolicy
	err := r.db.WithContext(ctx).Preload("Provider").First(&policy, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &policy, nil
}

// FindPolicyByNumber loads a policy by its unique number.
func (r *Repository) FindPolicyByNumber(ctx context.Context, number string) (*models.InsurancePolicy, error) {
	var policy models.InsurancePolicy
	err := r.db.WithContext(ctx).Where("policy_number = ?", number).First(&policy).Error
	if err != nil {
		return nil, err
	}
	return &policy, nil
}

// ListPolicies pages policies, newest first.
func (r *Repository) ListPolicies(ctx context.Context, filter PolicyFilter, params pagination.Params) ([]models.InsurancePolicy, error) {
	query := r.applyPolicyFilter(r.db.WithContext(ctx).Model(&models.InsurancePolicy{}).Preload("Provider"), filter)
	if cursor, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, err
	} else if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.InsurancePolicy
	err := query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	return rows, err
}

func (r *Repository) applyPolicyFilter(query *gorm.DB, filter PolicyFilter) *gorm.DB {
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.VehicleID != nil {
		query = query.Where("vehicle_id = ?", *filter.VehicleID)
	}
	if filter.ProviderID != nil {
		query = query.Where("provider_id = ?", *filter.ProviderID)
	}
	if filter.Search != "" {
		query = query.Where("policy_number ILIKE ?", "%"+filter.Search+"%")
	}
	return query
}

// UpdatePolicy saves policy changes.
func (r *Repository) UpdatePolicy(ctx context.Context, policy *models.InsurancePolicy) error {
	return r.db.WithContext(ctx).Save(policy).Error
}

// TransitionPolicyTx moves a policy between statuses only when it is still
// in the expected one. Extra column updates ride along.
func (r *Repository) TransitionPolicyTx(tx *gorm.DB, policyID uuid.UUID, from, to enums.PolicyStatus, updates map[string]any) (bool, error) {
	set := map[string]any{"status": to, "updated_at": time.Now().UTC()}
	for column, value := range updates {
		set[column] = value
	}
	result := tx.Model(&models.InsurancePolicy{}).
		Where("id = ? AND status = ?", policyID, from).
		Updates(set)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkReminderSentTx flags a policy so the expiry scan fires once.
func (r *Repository) MarkReminderSentTx(tx *gorm.DB, policyID uuid.UUID) (bool, error) {
	result := tx.Model(&models.InsurancePolicy{}).
		Where("id = ? AND NOT reminder_sent", policyID).
		Update("reminder_sent", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListExpiring returns active policies lapsing within the window that have
// not been reminded yet.
func (r *Repository) ListExpiring(ctx context.Context, now time.Time, windowDays int) ([]models.InsurancePolicy, error) {
	limit := now.AddDate(0, 0, windowDays)
	var rows []models.InsurancePolicy
	err := r.db.WithContext(ctx).
		Where("status = ? AND NOT reminder_sent AND end_date >= ? AND end_date <= ?",
			enums.PolicyStatusActive, now, limit).
		Order("end_date ASC").
		Find(&rows).Error
	return rows, err
}

// ListExpiringSoon returns active policies lapsing within the window,
// reminded or not, for the expiring dashboard list.
func (r *Repository) ListExpiringSoon(ctx context.Context, now time.Time, windowDays int) ([]models.InsurancePolicy, error) {
	limit := now.AddDate(0, 0, windowDays)
	var rows []models.InsurancePolicy
	err := r.db.WithContext(ctx).
		Preload("Provider").
		Where("status = ? AND end_date >= ? AND end_date <= ?",
			enums.PolicyStatusActive, now, limit).
		Order("end_date ASC").
		Find(&rows).Error
	return rows, err
}

// ListLapsed returns active policies whose end date has passed.
func (r *Repository) ListLapsed(ctx context.Context, now time.Time) ([]models.InsurancePolicy, error) {
	var rows []models.InsurancePolicy
	err := r.db.WithContext(ctx).
		Where("status = ? AND end_date < ?", enums.PolicyStatusActive, now).
		Order("end_date ASC").
		Find(&rows).Error
	return rows, err
}

// CreateClaimTx inserts a claim inside a transaction.
func (r *Repository) CreateClaimTx(tx *gorm.DB, claim *models.InsuranceClaim) error {
	return tx.Create(claim).Error
}

// FindClaim loads a claim with its policy.
func (r *Repository) FindClaim(ctx context.Context, id uuid.UUID) (*models.InsuranceClaim, error) {
	var claim models.InsuranceClaim
	err := r.db.WithContext(ctx).Preload("Policy").First(&claim, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

// ListClaims pages claims, newest first.
func (r *Repository) ListClaims(ctx context.Context, filter ClaimFilter, params pagination.Params) ([]models.InsuranceClaim, error) {
	query := r.db.WithContext(ctx).Model(&models.InsuranceClaim{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PolicyID != nil {
		query = query.Where("policy_id = ?", *filter.PolicyID)
	}
	if filter.Search != "" {
		query = query.Where("claim_number ILIKE ?", "%"+filter.Search+"%")
	}
	if cursor, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, err
	} else if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.InsuranceClaim
	err := query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	return rows, err
}

// UpdateClaim saves claim changes.
func (r *Repository) UpdateClaim(ctx context.Context, claim *models.InsuranceClaim) error {
	return r.db.WithContext(ctx).Save(claim).Error
}
