package documents

import (
	"time"

	"github.com/google/uuid"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
)

// CategoryDTO is the API shape of a document category.
type CategoryDTO struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Slug              string    `json:"slug"`
	Description       *string   `json:"description,omitempty"`
	AllowedExtensions []string  `json:"allowed_extensions"`
	MaxFileSizeMB     int       `json:"max_file_size_mb"`
	RequireExpiryDate bool      `json:"require_expiry_date"`
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
}

// DocumentDTO is the API shape of a stored document.
type DocumentDTO struct {
	ID                uuid.UUID                `json:"id"`
	Title             string                   `json:"title"`
	CategoryID        uuid.UUID                `json:"category_id"`
	CategoryName      string                   `json:"category_name,omitempty"`
	FilePath          string                   `json:"file_path"`
	FileSizeBytes     int64                    `json:"file_size_bytes"`
	FileType          *string                  `json:"file_type,omitempty"`
	Status            enums.DocumentStatus     `json:"status"`
	DocumentNumber    *string                  `json:"document_number,omitempty"`
	IssueDate         *time.Time               `json:"issue_date,omitempty"`
	ExpiryDate        *time.Time               `json:"expiry_date,omitempty"`
	IsExpired         bool                     `json:"is_expired"`
	IsExpiringSoon    bool                     `json:"is_expiring_soon"`
	Version           int                      `json:"version"`
	IsLatestVersion   bool                     `json:"is_latest_version"`
	PreviousVersionID *uuid.UUID               `json:"previous_version_id,omitempty"`
	Tags              []string                 `json:"tags"`
	IsPrivate         bool                     `json:"is_private"`
	EntityType        enums.DocumentEntityType `json:"entity_type"`
	EntityID          *uuid.UUID               `json:"entity_id,omitempty"`
	UploadedBy        *uuid.UUID               `json:"uploaded_by,omitempty"`
	DownloadCount     int                      `json:"download_count"`
	LastDownloadedAt  *time.Time               `json:"last_downloaded_at,omitempty"`
	CreatedAt         time.Time                `json:"created_at"`
}

// ShareDTO is the API shape of a share link. The token is only returned
// to the creator at creation time.
type ShareDTO struct {
	ID            uuid.UUID  `json:"id"`
	DocumentID    uuid.UUID  `json:"document_id"`
	ShareToken    string     `json:"share_token,omitempty"`
	HasPassword   bool       `json:"has_password"`
	AllowDownload bool       `json:"allow_download"`
	MaxDownloads  *int       `json:"max_downloads,omitempty"`
	DownloadCount int        `json:"download_count"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
}

// SharedDocumentDTO is what a public share resolution returns.
type SharedDocumentDTO struct {
	Title         string  `json:"title"`
	FilePath      string  `json:"file_path,omitempty"`
	FileType      *string `json:"file_type,omitempty"`
	FileSizeBytes int64   `json:"file_size_bytes"`
	AllowDownload bool    `json:"allow_download"`
}

// AccessDTO is one access-log row.
type AccessDTO struct {
	ID         uuid.UUID            `json:"id"`
	DocumentID uuid.UUID            `json:"document_id"`
	UserID     *uuid.UUID           `json:"user_id,omitempty"`
	Action     enums.DocumentAction `json:"action"`
	IPAddress  *string              `json:"ip_address,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
}

// CreateCategoryRequest adds a document category.
type CreateCategoryRequest struct {
	Name              string   `json:"name" validate:"required"`
	Slug              string   `json:"slug"`
	Description       *string  `json:"description"`
	AllowedExtensions []string `json:"allowed_extensions"`
	MaxFileSizeMB     *int     `json:"max_file_size_mb"`
	RequireExpiryDate bool     `json:"require_expiry_date"`
}

// UpdateCategoryRequest carries partial category edits.
type UpdateCategoryRequest struct {
	Name              *string  `json:"name"`
	Description       *string  `json:"description"`
	AllowedExtensions []string `json:"allowed_extensions"`
	MaxFileSizeMB     *int     `json:"max_file_size_mb"`
	RequireExpiryDate *bool    `json:"require_expiry_date"`
	IsActive          *bool    `json:"is_active"`
}

// CreateDocumentRequest registers uploaded file metadata.
type CreateDocumentRequest struct {
	Title          string                   `json:"title" validate:"required"`
	CategoryID     uuid.UUID                `json:"category_id" validate:"required"`
	FilePath       string                   `json:"file_path" validate:"required"`
	FileSizeBytes  int64                    `json:"file_size_bytes"`
	FileType       *string                  `json:"file_type"`
	DocumentNumber *string                  `json:"document_number"`
	IssueDate      *time.Time               `json:"issue_date"`
	ExpiryDate     *time.Time               `json:"expiry_date"`
	Tags           []string                 `json:"tags"`
	IsPrivate      bool                     `json:"is_private"`
	EntityType     enums.DocumentEntityType `json:"entity_type"`
	EntityID       *uuid.UUID               `json:"entity_id"`
}

// UpdateDocumentRequest carries partial metadata edits.
type UpdateDocumentRequest struct {
	Title          *string    `json:"title"`
	DocumentNumber *string    `json:"document_number"`
	IssueDate      *time.Time `json:"issue_date"`
	ExpiryDate     *time.Time `json:"expiry_date"`
	Tags           []string   `json:"tags"`
	IsPrivate      *bool      `json:"is_private"`
}

// NewVersionRequest uploads a replacement file for a document.
type NewVersionRequest struct {
	FilePath      string  `json:"file_path" validate:"required"`
	FileSizeBytes int64   `json:"file_size_bytes"`
	FileType      *string `json:"file_type"`
}

// CreateShareRequest mints a share link for a document.
type CreateShareRequest struct {
	Password      *string    `json:"password"`
	AllowDownload *bool      `json:"allow_download"`
	MaxDownloads  *int       `json:"max_downloads"`
	ExpiresAt     *time.Time `json:"expires_at"`
}

// ResolveShareRequest is the public access to a shared document.
type ResolveShareRequest struct {
	Password string `json:"password"`
	Download bool   `json:"download"`
}

// ListFilter narrows document listings.
type ListFilter struct {
	CategoryID *uuid.UUID
	EntityType enums.DocumentEntityType
	EntityID   *uuid.UUID
	Status     enums.DocumentStatus
	Tag        string
	Search     string
	LatestOnly bool
}

// Page is one cursor-bounded slice of results.
type Page[T any] struct {
	Items      []T     `json:"items"`
	NextCursor *string `json:"next_cursor,omitempty"`
}

func pageOf[T any](items []T, limit int, cursorFor func(T) pagination.Cursor) Page[T] {
	page := Page[T]{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		cursor := cursorFor(page.Items[limit-1]).Encode()
		page.NextCursor = &cursor
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	return page
}

func categoryFromModel(c *models.DocumentCategory) *CategoryDTO {
	return &CategoryDTO{
		ID:                c.ID,
		Name:              c.Name,
		Slug:              c.Slug,
		Description:       c.Description,
		AllowedExtensions: append([]string{}, c.AllowedExtensions...),
		MaxFileSizeMB:     c.MaxFileSizeMB,
		RequireExpiryDate: c.RequireExpiryDate,
		IsActive:          c.IsActive,
		CreatedAt:         c.CreatedAt,
	}
}

func fromModel(d *models.Document, now time.Time) *DocumentDTO {
	dto := &DocumentDTO{
		ID:                d.ID,
		Title:             d.Title,
		CategoryID:        d.CategoryID,
		FilePath:          d.FilePath,
		FileSizeBytes:     d.FileSizeBytes,
		FileType:          d.FileType,
		Status:            d.Status,
		DocumentNumber:    d.DocumentNumber,
		IssueDate:         d.IssueDate,
		ExpiryDate:        d.ExpiryDate,
		IsExpired:         d.IsExpired(now),
		IsExpiringSoon:    d.IsExpiringSoon(now, expiryWindowDays),
		Version:           d.Version,
		IsLatestVersion:   d.IsLatestVersion,
		PreviousVersionID: d.PreviousVersionID,
		Tags:              append([]string{}, d.Tags...),
		IsPrivate:         d.IsPrivate,
		EntityType:        d.EntityType,
		EntityID:          d.EntityID,
		UploadedBy:        d.UploadedBy,
		DownloadCount:     d.DownloadCount,
		LastDownloadedAt:  d.LastDownloadedAt,
		CreatedAt:         d.CreatedAt,
	}
	if d.Category != nil {
		dto.CategoryName = d.Category.Name
	}
	return dto
}

func shareFromModel(s *models.DocumentShare, includeToken bool) *ShareDTO {
	dto := &ShareDTO{
		ID:            s.ID,
		DocumentID:    s.DocumentID,
		HasPassword:   s.PasswordHash != nil,
		AllowDownload: s.AllowDownload,
		MaxDownloads:  s.MaxDownloads,
		DownloadCount: s.DownloadCount,
		ExpiresAt:     s.ExpiresAt,
		IsActive:      s.IsActive,
		CreatedAt:     s.CreatedAt,
	}
	if includeToken {
		dto.ShareToken = s.ShareToken
	}
	return dto
}

func accessFromModel(a *models.DocumentAccess) *AccessDTO {
	return &AccessDTO{
		ID:         a.ID,
		DocumentID: a.DocumentID,
		UserID:     a.UserID,
		Action:     a.Action,
		IPAddress:  a.IPAddress,
		CreatedAt:  a.CreatedAt,
	}
}
