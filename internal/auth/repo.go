package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
)

// LoginHistoryRepository persists authentication attempts.
type LoginHistoryRepository struct {
	db *gorm.DB
}

// NewLoginHistoryRepository binds the repo to a GORM DB.
func NewLoginHistoryRepository(db *gorm.DB) *LoginHistoryRepository {
	return &LoginHistoryRepository{db: db}
}

// Record inserts a login attempt row.
func (r *LoginHistoryRepository) Record(ctx context.Context, entry models.LoginHistory) (*models.LoginHistory, error) {
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// CountRecentFailures counts failed attempts from the IP since the cutoff.
func (r *LoginHistoryRepository) CountRecentFailures(ctx context.Context, ip string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LoginHistory{}).
		Where("ip_address = ? AND success = ? AND created_at >= ?", ip, false, since).
		Count(&count).Error
	return count, err
}

// StampLogout closes the session row identified by its JWT ID.
func (r *LoginHistoryRepository) StampLogout(ctx context.Context, userID uuid.UUID, sessionKey string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.LoginHistory{}).
		Where("user_id = ? AND session_key = ? AND logout_time IS NULL", userID, sessionKey).
		UpdateColumn("logout_time", at).Error
}
