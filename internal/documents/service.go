package documents

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/config"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	pkgerrors "github.com/dealerdeskhq/dealerdesk-backend/pkg/errors"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/security"
)

const (
	expiryWindowDays = 30
	accessLogLimit   = 100
)

// Service exposes document metadata, versioning, sharing and the
// access log.
type Service interface {
	CreateCategory(ctx context.Context, req CreateCategoryRequest) (*CategoryDTO, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, req UpdateCategoryRequest) (*CategoryDTO, error)
	ListCategories(ctx context.Context, activeOnly bool) ([]CategoryDTO, error)

	Create(ctx context.Context, req CreateDocumentRequest, uploadedBy uuid.UUID) (*DocumentDTO, error)
	Get(ctx context.Context, id uuid.UUID, meta AccessMeta) (*DocumentDTO, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) (Page[DocumentDTO], error)
	Update(ctx context.Context, id uuid.UUID, req UpdateDocumentRequest, meta AccessMeta) (*DocumentDTO, error)
	Archive(ctx context.Context, id uuid.UUID) (*DocumentDTO, error)
	ConfirmUpload(ctx context.Context, id uuid.UUID) (*DocumentDTO, error)
	UploadNewVersion(ctx context.Context, id uuid.UUID, req NewVersionRequest, uploadedBy uuid.UUID) (*DocumentDTO, error)
	Versions(ctx context.Context, id uuid.UUID) ([]DocumentDTO, error)
	RecordDownload(ctx context.Context, id uuid.UUID, meta AccessMeta) (*DocumentDTO, error)
	AccessLog(ctx context.Context, id uuid.UUID) ([]AccessDTO, error)
	Expiring(ctx context.Context, now time.Time) ([]DocumentDTO, error)

	CreateShare(ctx context.Context, documentID uuid.UUID, req CreateShareRequest, createdBy uuid.UUID) (*ShareDTO, error)
	ListShares(ctx context.Context, documentID uuid.UUID) ([]ShareDTO, error)
	RevokeShare(ctx context.Context, id uuid.UUID) error
	ResolveShare(ctx context.Context, token string, req ResolveShareRequest, ip string) (*SharedDocumentDTO, error)
}

// AccessMeta identifies who touched a document for the access log.
type AccessMeta struct {
	UserID uuid.UUID
	IP     string
}

type repository interface {
	CreateCategory(ctx context.Context, category *models.DocumentCategory) error
	FindCategory(ctx context.Context, id uuid.UUID) (*models.DocumentCategory, error)
	FindCategoryBySlug(ctx context.Context, slug string) (*models.DocumentCategory, error)
	ListCategories(ctx context.Context, activeOnly bool) ([]models.DocumentCategory, error)
	UpdateCategory(ctx context.Context, category *models.DocumentCategory) error
	Create(ctx context.Context, document *models.Document) error
	CreateTx(tx *gorm.DB, document *models.Document) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	List(ctx context.Context, filter ListFilter, cursor *pagination.Cursor, limit int) ([]models.Document, error)
	Update(ctx context.Context, document *models.Document) error
	DemoteVersionTx(tx *gorm.DB, id uuid.UUID) (bool, error)
	Versions(ctx context.Context, id uuid.UUID) ([]models.Document, error)
	TransitionStatusTx(tx *gorm.DB, id uuid.UUID, from, to enums.DocumentStatus) (bool, error)
	RecordDownloadTx(tx *gorm.DB, id uuid.UUID, now time.Time) error
	ListExpiring(ctx context.Context, now time.Time, windowDays int) ([]models.Document, error)
	CreateAccess(ctx context.Context, access *models.DocumentAccess) error
	CreateAccessTx(tx *gorm.DB, access *models.DocumentAccess) error
	ListAccess(ctx context.Context, documentID uuid.UUID, limit int) ([]models.DocumentAccess, error)
	CreateShare(ctx context.Context, share *models.DocumentShare) error
	FindShare(ctx context.Context, id uuid.UUID) (*models.DocumentShare, error)
	FindShareByToken(ctx context.Context, token string) (*models.DocumentShare, error)
	ListShares(ctx context.Context, documentID uuid.UUID) ([]models.DocumentShare, error)
	UpdateShare(ctx context.Context, share *models.DocumentShare) error
	ClaimShareDownloadTx(tx *gorm.DB, id uuid.UUID) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo        repository
	db          txRunner
	passwordCfg config.PasswordConfig
}

// NewService wires the documents service.
func NewService(repo repository, db txRunner, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("documents repository is required")
	}
	if db == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	return &service{repo: repo, db: db, passwordCfg: passwordCfg}, nil
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(name string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}

func (s *service) CreateCategory(ctx context.Context, req CreateCategoryRequest) (*CategoryDTO, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}
	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		slug = slugify(name)
	}
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category slug is required")
	}
	if existing, err := s.repo.FindCategoryBySlug(ctx, slug); err == nil && existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "category slug already in use")
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup category")
	}

	category := &models.DocumentCategory{
		Name:              name,
		Slug:              slug,
		Description:       req.Description,
		AllowedExtensions: normalizeExtensions(req.AllowedExtensions),
		MaxFileSizeMB:     10,
		RequireExpiryDate: req.RequireExpiryDate,
		IsActive:          true,
	}
	if req.MaxFileSizeMB != nil {
		if *req.MaxFileSizeMB <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "max file size must be positive")
		}
		category.MaxFileSizeMB = *req.MaxFileSizeMB
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create category")
	}
	return categoryFromModel(category), nil
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, req UpdateCategoryRequest) (*CategoryDTO, error) {
	category, err := s.findCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name cannot be empty")
		}
		category.Name = name
	}
	if req.Description != nil {
		category.Description = req.Description
	}
	if req.AllowedExtensions != nil {
		category.AllowedExtensions = normalizeExtensions(req.AllowedExtensions)
	}
	if req.MaxFileSizeMB != nil {
		if *req.MaxFileSizeMB <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "max file size must be positive")
		}
		category.MaxFileSizeMB = *req.MaxFileSizeMB
	}
	if req.RequireExpiryDate != nil {
		category.RequireExpiryDate = *req.RequireExpiryDate
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	if err := s.repo.UpdateCategory(ctx, category); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update category")
	}
	return categoryFromModel(category), nil
}

func (s *service) ListCategories(ctx context.Context, activeOnly bool) ([]CategoryDTO, error) {
	categories, err := s.repo.ListCategories(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(categories))
	for i := range categories {
		out = append(out, *categoryFromModel(&categories[i]))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, req CreateDocumentRequest, uploadedBy uuid.UUID) (*DocumentDTO, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if strings.TrimSpace(req.FilePath) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file path is required")
	}
	entityType := req.EntityType
	if entityType == "" {
		entityType = enums.DocumentEntityGeneral
	}
	if !entityType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid entity type")
	}
	category, err := s.findCategory(ctx, req.CategoryID)
	if err != nil {
		return nil, err
	}
	if !category.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "category is inactive")
	}
	if err := validateFile(category, req.FilePath, req.FileSizeBytes); err != nil {
		return nil, err
	}
	if category.RequireExpiryDate && req.ExpiryDate == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "this category requires an expiry date")
	}
	if req.IssueDate != nil && req.ExpiryDate != nil && req.ExpiryDate.Before(*req.IssueDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expiry date cannot precede issue date")
	}

	document := &models.Document{
		Title:           strings.TrimSpace(req.Title),
		CategoryID:      req.CategoryID,
		FilePath:        req.FilePath,
		FileSizeBytes:   req.FileSizeBytes,
		FileType:        req.FileType,
		Status:          enums.DocumentStatusPending,
		DocumentNumber:  req.DocumentNumber,
		IssueDate:       req.IssueDate,
		ExpiryDate:      req.ExpiryDate,
		Version:         1,
		IsLatestVersion: true,
		Tags:            normalizeTags(req.Tags),
		IsPrivate:       req.IsPrivate,
		EntityType:      entityType,
		EntityID:        req.EntityID,
		UploadedBy:      &uploadedBy,
	}
	if err := s.repo.Create(ctx, document); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create document")
	}
	document.Category = category
	return fromModel(document, time.Now().UTC()), nil
}

// ConfirmUpload marks a pending document active once its file landed.
func (s *service) ConfirmUpload(ctx context.Context, id uuid.UUID) (*DocumentDTO, error) {
	if _, err := s.findDocument(ctx, id); err != nil {
		return nil, err
	}
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		moved, err := s.repo.TransitionStatusTx(tx, id, enums.DocumentStatusPending, enums.DocumentStatusActive)
		if err != nil {
			return err
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "document is not pending upload")
		}
		return nil
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "confirm upload")
	}
	return s.get(ctx, id)
}

func (s *service) Get(ctx context.Context, id uuid.UUID, meta AccessMeta) (*DocumentDTO, error) {
	document, err := s.findDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logAccess(ctx, id, meta, enums.DocumentActionView)
	return fromModel(document, time.Now().UTC()), nil
}

func (s *service) List(ctx context.Context, filter ListFilter, params pagination.Params) (Page[DocumentDTO], error) {
	limit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return Page[DocumentDTO]{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	documents, err := s.repo.List(ctx, filter, cursor, pagination.LimitWithBuffer(limit))
	if err != nil {
		return Page[DocumentDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list documents")
	}
	now := time.Now().UTC()
	dtos := make([]DocumentDTO, 0, len(documents))
	for i := range documents {
		dtos = append(dtos, *fromModel(&documents[i], now))
	}
	return pageOf(dtos, limit, func(dto DocumentDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: dto.CreatedAt, ID: dto.ID}
	}), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, req UpdateDocumentRequest, meta AccessMeta) (*DocumentDTO, error) {
	document, err := s.findDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if document.Status == enums.DocumentStatusArchived {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "archived documents cannot be edited")
	}
	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be empty")
		}
		document.Title = strings.TrimSpace(*req.Title)
	}
	if req.DocumentNumber != nil {
		document.DocumentNumber = req.DocumentNumber
	}
	if req.IssueDate != nil {
		document.IssueDate = req.IssueDate
	}
	if req.ExpiryDate != nil {
		document.ExpiryDate = req.ExpiryDate
	}
	if document.IssueDate != nil && document.ExpiryDate != nil && document.ExpiryDate.Before(*document.IssueDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expiry date cannot precede issue date")
	}
	if req.Tags != nil {
		document.Tags = normalizeTags(req.Tags)
	}
	if req.IsPrivate != nil {
		document.IsPrivate = *req.IsPrivate
	}
	if err := s.repo.Update(ctx, document); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update document")
	}
	s.logAccess(ctx, id, meta, enums.DocumentActionEdit)
	return fromModel(document, time.Now().UTC()), nil
}

func (s *service) Archive(ctx context.Context, id uuid.UUID) (*DocumentDTO, error) {
	if _, err := s.findDocument(ctx, id); err != nil {
		return nil, err
	}
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		moved, err := s.repo.TransitionStatusTx(tx, id, enums.DocumentStatusActive, enums.DocumentStatusArchived)
		if err != nil {
			return err
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only active documents can be archived")
		}
		return nil
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "archive document")
	}
	return s.get(ctx, id)
}

// UploadNewVersion chains a replacement file onto the document: the new
// row takes the next version and the latest flag, the old row keeps its
// history but is demoted, all in one transaction.
func (s *service) UploadNewVersion(ctx context.Context, id uuid.UUID, req NewVersionRequest, uploadedBy uuid.UUID) (*DocumentDTO, error) {
	if strings.TrimSpace(req.FilePath) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file path is required")
	}
	current, err := s.findDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.IsLatestVersion {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "new versions attach to the latest version only")
	}
	category := current.Category
	if category == nil {
		category, err = s.findCategory(ctx, current.CategoryID)
		if err != nil {
			return nil, err
		}
	}
	if err := validateFile(category, req.FilePath, req.FileSizeBytes); err != nil {
		return nil, err
	}

	next := &models.Document{
		Title:             current.Title,
		CategoryID:        current.CategoryID,
		FilePath:          req.FilePath,
		FileSizeBytes:     req.FileSizeBytes,
		FileType:          req.FileType,
		Status:            current.Status,
		DocumentNumber:    current.DocumentNumber,
		IssueDate:         current.IssueDate,
		ExpiryDate:        current.ExpiryDate,
		Version:           current.Version + 1,
		IsLatestVersion:   true,
		PreviousVersionID: &current.ID,
		Tags:              current.Tags,
		IsPrivate:         current.IsPrivate,
		EntityType:        current.EntityType,
		EntityID:          current.EntityID,
		UploadedBy:        &uploadedBy,
	}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		demoted, err := s.repo.DemoteVersionTx(tx, current.ID)
		if err != nil {
			return err
		}
		if !demoted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "document version changed, retry")
		}
		return s.repo.CreateTx(tx, next)
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "upload new version")
	}
	next.Category = category
	return fromModel(next, time.Now().UTC()), nil
}

func (s *service) Versions(ctx context.Context, id uuid.UUID) ([]DocumentDTO, error) {
	chain, err := s.repo.Versions(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list versions")
	}
	now := time.Now().UTC()
	out := make([]DocumentDTO, 0, len(chain))
	for i := range chain {
		out = append(out, *fromModel(&chain[i], now))
	}
	return out, nil
}

func (s *service) RecordDownload(ctx context.Context, id uuid.UUID, meta AccessMeta) (*DocumentDTO, error) {
	document, err := s.findDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if document.Status != enums.DocumentStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "document is not available for download")
	}
	now := time.Now().UTC()
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.RecordDownloadTx(tx, id, now); err != nil {
			return err
		}
		return s.repo.CreateAccessTx(tx, accessRow(id, meta, enums.DocumentActionDownload))
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record download")
	}
	return s.get(ctx, id)
}

func (s *service) AccessLog(ctx context.Context, id uuid.UUID) ([]AccessDTO, error) {
	if _, err := s.findDocument(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListAccess(ctx, id, accessLogLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list access log")
	}
	out := make([]AccessDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *accessFromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Expiring(ctx context.Context, now time.Time) ([]DocumentDTO, error) {
	documents, err := s.repo.ListExpiring(ctx, now, expiryWindowDays)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list expiring documents")
	}
	out := make([]DocumentDTO, 0, len(documents))
	for i := range documents {
		out = append(out, *fromModel(&documents[i], now))
	}
	return out, nil
}

func (s *service) CreateShare(ctx context.Context, documentID uuid.UUID, req CreateShareRequest, createdBy uuid.UUID) (*ShareDTO, error) {
	document, err := s.findDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if document.Status != enums.DocumentStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only active documents can be shared")
	}
	if req.MaxDownloads != nil && *req.MaxDownloads <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max downloads must be positive")
	}
	if req.ExpiresAt != nil && req.ExpiresAt.Before(time.Now().UTC()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "share expiry must be in the future")
	}

	token, err := newShareToken()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate share token")
	}
	share := &models.DocumentShare{
		DocumentID:    documentID,
		ShareToken:    token,
		AllowDownload: true,
		MaxDownloads:  req.MaxDownloads,
		ExpiresAt:     req.ExpiresAt,
		IsActive:      true,
		CreatedBy:     &createdBy,
	}
	if req.AllowDownload != nil {
		share.AllowDownload = *req.AllowDownload
	}
	if req.Password != nil && *req.Password != "" {
		hash, err := security.HashPassword(*req.Password, s.passwordCfg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash share password")
		}
		share.PasswordHash = &hash
	}
	if err := s.repo.CreateShare(ctx, share); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create share")
	}
	return shareFromModel(share, true), nil
}

func (s *service) ListShares(ctx context.Context, documentID uuid.UUID) ([]ShareDTO, error) {
	if _, err := s.findDocument(ctx, documentID); err != nil {
		return nil, err
	}
	shares, err := s.repo.ListShares(ctx, documentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list shares")
	}
	out := make([]ShareDTO, 0, len(shares))
	for i := range shares {
		out = append(out, *shareFromModel(&shares[i], false))
	}
	return out, nil
}

func (s *service) RevokeShare(ctx context.Context, id uuid.UUID) error {
	share, err := s.repo.FindShare(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "share not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup share")
	}
	if !share.IsActive {
		return nil
	}
	share.IsActive = false
	if err := s.repo.UpdateShare(ctx, share); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke share")
	}
	return nil
}

// ResolveShare is the public entry: the token must be live, the
// password must match when one is set, and downloads spend the share's
// budget under a conditional update.
func (s *service) ResolveShare(ctx context.Context, token string, req ResolveShareRequest, ip string) (*SharedDocumentDTO, error) {
	share, err := s.repo.FindShareByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "share link not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup share")
	}
	now := time.Now().UTC()
	if !share.IsValid(now) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "share link is no longer valid")
	}
	if share.PasswordHash != nil {
		ok, err := security.VerifyPassword(req.Password, *share.PasswordHash)
		if err != nil || !ok {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid share password")
		}
	}
	document := share.Document
	if document == nil {
		document, err = s.findDocument(ctx, share.DocumentID)
		if err != nil {
			return nil, err
		}
	}

	result := &SharedDocumentDTO{
		Title:         document.Title,
		FileType:      document.FileType,
		FileSizeBytes: document.FileSizeBytes,
		AllowDownload: share.AllowDownload,
	}
	if !req.Download {
		s.logAccess(ctx, document.ID, AccessMeta{IP: ip}, enums.DocumentActionView)
		return result, nil
	}
	if !share.AllowDownload {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "downloads are disabled for this share")
	}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		claimed, err := s.repo.ClaimShareDownloadTx(tx, share.ID)
		if err != nil {
			return err
		}
		if !claimed {
			return pkgerrors.New(pkgerrors.CodeForbidden, "share download limit reached")
		}
		if err := s.repo.RecordDownloadTx(tx, document.ID, now); err != nil {
			return err
		}
		return s.repo.CreateAccessTx(tx, accessRow(document.ID, AccessMeta{IP: ip}, enums.DocumentActionDownload))
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve share download")
	}
	result.FilePath = document.FilePath
	return result, nil
}

func (s *service) get(ctx context.Context, id uuid.UUID) (*DocumentDTO, error) {
	document, err := s.findDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	return fromModel(document, time.Now().UTC()), nil
}

func (s *service) logAccess(ctx context.Context, documentID uuid.UUID, meta AccessMeta, action enums.DocumentAction) {
	// Access logging is best effort and never fails the request.
	_ = s.repo.CreateAccess(ctx, accessRow(documentID, meta, action))
}

func accessRow(documentID uuid.UUID, meta AccessMeta, action enums.DocumentAction) *models.DocumentAccess {
	access := &models.DocumentAccess{
		DocumentID: documentID,
		Action:     action,
	}
	if meta.UserID != uuid.Nil {
		userID := meta.UserID
		access.UserID = &userID
	}
	if meta.IP != "" {
		ip := meta.IP
		access.IPAddress = &ip
	}
	return access
}

func (s *service) findCategory(ctx context.Context, id uuid.UUID) (*models.DocumentCategory, error) {
	category, err := s.repo.FindCategory(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup category")
	}
	return category, nil
}

func (s *service) findDocument(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	document, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup document")
	}
	return document, nil
}

func validateFile(category *models.DocumentCategory, filePath string, sizeBytes int64) error {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filePath)), ".")
	if !category.AllowsExtension(ext) {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("file extension %q is not allowed in this category", ext))
	}
	if sizeBytes < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "file size cannot be negative")
	}
	maxBytes := int64(category.MaxFileSizeMB) * 1024 * 1024
	if maxBytes > 0 && sizeBytes > maxBytes {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("file exceeds the %d MB category limit", category.MaxFileSizeMB))
	}
	return nil
}

func normalizeExtensions(extensions []string) []string {
	out := make([]string, 0, len(extensions))
	for _, raw := range extensions {
		ext := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(raw)), ".")
		if ext != "" {
			out = append(out, ext)
		}
	}
	return out
}

func normalizeTags(tags []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(tags))
	for _, raw := range tags {
		tag := strings.ToLower(strings.TrimSpace(raw))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

func newShareToken() (string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}
