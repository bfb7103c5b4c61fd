package dealership

import (
	"context"

	"gorm.io/gorm"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
)

// Repository persists the single dealership profile row.
type Repository struct {
	db *gorm.DB
}

// NewRepository returns a dealership repository bound to the provided database.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Find returns the profile row. The schema seeds exactly one.
func (r *Repository) Find(ctx context.Context) (*models.Dealership, error) {
	var dealership models.Dealership
	err := r.db.WithContext(ctx).Order("created_at ASC").First(&dealership).Error
	if err != nil {
		return nil, err
	}
	return &dealership, nil
}

// Save writes profile edits back.
func (r *Repository) Save(ctx context.Context, dealership *models.Dealership) error {
	return r.db.WithContext(ctx).Save(dealership).Error
}
