package documents

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
)

// Repo is the gorm-backed store for documents, categories, shares and
// the access log.
type Repo struct {
	db *gorm.DB
}

// NewRepo builds a Repo on the given connection.
func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) CreateCategory(ctx context.Context, category *models.DocumentCategory) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *Repo) FindCategory(ctx context.Context, id uuid.UUID) (*models.DocumentCategory, error) {
	var category models.DocumentCategory
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *Repo) FindCategoryBySlug(ctx context.Context, slug string) (*models.DocumentCategory, error) {
	var category models.DocumentCategory
	if err := r.db.WithContext(ctx).First(&category, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *Repo) ListCategories(ctx context.Context, activeOnly bool) ([]models.DocumentCategory, error) {
	query := r.db.WithContext(ctx).Order("name ASC")
	if activeOnly {
		query = query.Where("is_active")
	}
	var categories []models.DocumentCategory
	if err := query.Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *Repo) UpdateCategory(ctx context.Context, category *models.DocumentCategory) error {
	return r.db.WithContext(ctx).Save(category).Error
}

func (r *Repo) Create(ctx context.Context, document *models.Document) error {
	return r.db.WithContext(ctx).Create(document).Error
}

func (r *Repo) CreateTx(tx *gorm.DB, document *models.Document) error {
	return tx.Create(document).Error
}

func (r *Repo) FindByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	var document models.Document
	err := r.db.WithContext(ctx).
		Preload("Category").
		First(&document, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &document, nil
}

func (r *Repo) List(ctx context.Context, filter ListFilter, cursor *pagination.Cursor, limit int) ([]models.Document, error) {
	query := r.db.WithContext(ctx).
		Preload("Category").
		Order("created_at DESC, id DESC").
		Limit(limit)
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != nil {
		query = query.Where("entity_id = ?", *filter.EntityID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Tag != "" {
		query = query.Where("tags @> ?", pq.StringArray{filter.Tag})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("title ILIKE ? OR document_number ILIKE ?", pattern, pattern)
	}
	if filter.LatestOnly {
		query = query.Where("is_latest_version")
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	var documents []models.Document
	if err := query.Find(&documents).Error; err != nil {
		return nil, err
	}
	return documents, nil
}

func (r *Repo) Update(ctx context.Context, document *models.Document) error {
	return r.db.WithContext(ctx).Save(document).Error
}

// DemoteVersionTx clears the latest flag on a superseded version.
func (r *Repo) DemoteVersionTx(tx *gorm.DB, id uuid.UUID) (bool, error) {
	result := tx.Model(&models.Document{}).
		Where("id = ? AND is_latest_version", id).
		Updates(map[string]any{
			"is_latest_version": false,
			"updated_at":        time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Versions walks the version chain for a document, newest first.
func (r *Repo) Versions(ctx context.Context, id uuid.UUID) ([]models.Document, error) {
	head, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	chain := []models.Document{*head}
	previous := head.PreviousVersionID
	for previous != nil {
		var doc models.Document
		if err := r.db.WithContext(ctx).First(&doc, "id = ?", *previous).Error; err != nil {
			return nil, err
		}
		chain = append(chain, doc)
		previous = doc.PreviousVersionID
	}
	return chain, nil
}

func (r *Repo) TransitionStatusTx(tx *gorm.DB, id uuid.UUID, from, to enums.DocumentStatus) (bool, error) {
	result := tx.Model(&models.Document{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// RecordDownloadTx bumps the download counters on the document row.
func (r *Repo) RecordDownloadTx(tx *gorm.DB, id uuid.UUID, now time.Time) error {
	return tx.Model(&models.Document{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"download_count":     gorm.Expr("download_count + 1"),
			"last_downloaded_at": now,
			"updated_at":         now,
		}).Error
}

// ListExpiring returns latest-version documents lapsing inside the window.
func (r *Repo) ListExpiring(ctx context.Context, now time.Time, windowDays int) ([]models.Document, error) {
	horizon := now.AddDate(0, 0, windowDays)
	var documents []models.Document
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("is_latest_version AND status = ?", enums.DocumentStatusActive).
		Where("expiry_date IS NOT NULL AND expiry_date >= ? AND expiry_date <= ?", now, horizon).
		Order("expiry_date ASC").
		Find(&documents).Error
	if err != nil {
		return nil, err
	}
	return documents, nil
}

func (r *Repo) CreateAccess(ctx context.Context, access *models.DocumentAccess) error {
	return r.db.WithContext(ctx).Create(access).Error
}

func (r *Repo) CreateAccessTx(tx *gorm.DB, access *models.DocumentAccess) error {
	return tx.Create(access).Error
}

func (r *Repo) ListAccess(ctx context.Context, documentID uuid.UUID, limit int) ([]models.DocumentAccess, error) {
	var rows []models.DocumentAccess
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repo) CreateShare(ctx context.Context, share *models.DocumentShare) error {
	return r.db.WithContext(ctx).Create(share).Error
}

func (r *Repo) FindShare(ctx context.Context, id uuid.UUID) (*models.DocumentShare, error) {
	var share models.DocumentShare
	if err := r.db.WithContext(ctx).First(&share, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &share, nil
}

func (r *Repo) FindShareByToken(ctx context.Context, token string) (*models.DocumentShare, error) {
	var share models.DocumentShare
	err := r.db.WithContext(ctx).
		Preload("Document").
		First(&share, "share_token = ?", token).Error
	if err != nil {
		return nil, err
	}
	return &share, nil
}

func (r *Repo) ListShares(ctx context.Context, documentID uuid.UUID) ([]models.DocumentShare, error) {
	var shares []models.DocumentShare
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("created_at DESC").
		Find(&shares).Error
	if err != nil {
		return nil, err
	}
	return shares, nil
}

func (r *Repo) UpdateShare(ctx context.Context, share *models.DocumentShare) error {
	return r.db.WithContext(ctx).Save(share).Error
}

// ClaimShareDownloadTx bumps the share download counter only while the
// link is active and under its budget, so concurrent downloads cannot
// exceed max_downloads.
func (r *Repo) ClaimShareDownloadTx(tx *gorm.DB, id uuid.UUID) (bool, error) {
	result := tx.Model(&models.DocumentShare{}).
		Where("id = ? AND is_active", id).
		Where("max_downloads IS NULL OR download_count < max_downloads").
		Updates(map[string]any{
			"download_count": gorm.Expr("download_count + 1"),
			"updated_at":     time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
