package permissions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dealerdeskhq/dealerdesk-backend/api/middleware"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	pkgerrors "github.com/dealerdeskhq/dealerdesk-backend/pkg/errors"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/logger"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
)

// Service manages the role/module permission matrix.
type Service interface {
	Resolve(ctx context.Context, role enums.UserRole, module enums.Module) (middleware.Grant, error)
	Matrix(ctx context.Context) ([]PermissionDTO, error)
	Get(ctx context.Context, role enums.UserRole, module enums.Module) (*PermissionDTO, error)
	Update(ctx context.Context, role enums.UserRole, module enums.Module, req UpdatePermissionRequest, changedBy uuid.UUID) (*PermissionDTO, error)
	SeedDefaults(ctx context.Context, changedBy uuid.UUID) (int, error)
	History(ctx context.Context, role *enums.UserRole, params pagination.Params) ([]HistoryDTO, error)
}

type repository interface {
	Find(ctx context.Context, role enums.UserRole, module enums.Module) (*models.RolePermission, error)
	ListAll(ctx context.Context) ([]models.RolePermission, error)
	Save(ctx context.Context, row *models.RolePermission) error
	InsertMissing(ctx context.Context, row *models.RolePermission) (bool, error)
	RecordHistory(ctx context.Context, entry models.PermissionHistory) error
	ListHistory(ctx context.Context, role *enums.UserRole, params pagination.Params) ([]models.PermissionHistory, error)
}

type grantCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	PermissionKey(role, module string) string
}

type service struct {
	repo  repository
	cache grantCache
	ttl   time.Duration
	logg  *logger.Logger
}

// NewService wires the permission service. Cache is optional; without
// it every resolve hits the database.
func NewService(repo repository, cache grantCache, ttl time.Duration, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("permissions repository is required")
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &service{repo: repo, cache: cache, ttl: ttl, logg: logg}, nil
}

type cachedGrant struct {
	AccessLevel enums.AccessLevel `json:"access_level"`
	CanCreate   bool              `json:"can_create"`
	CanEdit     bool              `json:"can_edit"`
	CanDelete   bool              `json:"can_delete"`
	CanExport   bool              `json:"can_export"`
}

func (s *service) Resolve(ctx context.Context, role enums.UserRole, module enums.Module) (middleware.Grant, error) {
	if role == enums.RoleAdmin {
		return middleware.Grant{
			AccessLevel: enums.AccessFull,
			CanCreate:   true,
			CanEdit:     true,
			CanDelete:   true,
			CanExport:   true,
		}, nil
	}

	if s.cache != nil {
		key := s.cache.PermissionKey(string(role), string(module))
		if raw, err := s.cache.Get(ctx, key); err == nil && raw != "" {
			var cached cachedGrant
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return middleware.Grant(cached), nil
			}
		}
	}

	grant := middleware.Grant{AccessLevel: enums.AccessNone}
	row, err := s.repo.Find(ctx, role, module)
	switch {
	case err == nil:
		if row.IsActive {
			grant = middleware.Grant{
				AccessLevel: row.AccessLevel,
				CanCreate:   row.CanCreate,
				CanEdit:     row.CanEdit,
				CanDelete:   row.CanDelete,
				CanExport:   row.CanExport,
			}
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// no row means no access
	default:
		return middleware.Grant{}, err
	}

	if s.cache != nil {
		if encoded, err := json.Marshal(cachedGrant(grant)); err == nil {
			key := s.cache.PermissionKey(string(role), string(module))
			if err := s.cache.Set(ctx, key, string(encoded), s.ttl); err != nil && s.logg != nil {
				s.logg.Warn(ctx, "permission cache write failed")
			}
		}
	}
	return grant, nil
}

func (s *service) Matrix(ctx context.Context) ([]PermissionDTO, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list permissions")
	}
	out := make([]PermissionDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *fromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, role enums.UserRole, module enums.Module) (*PermissionDTO, error) {
	if err := validateCell(role, module); err != nil {
		return nil, err
	}
	row, err := s.repo.Find(ctx, role, module)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "permission not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find permission")
	}
	return fromModel(row), nil
}

func (s *service) Update(ctx context.Context, role enums.UserRole, module enums.Module, req UpdatePermissionRequest, changedBy uuid.UUID) (*PermissionDTO, error) {
	if err := validateCell(role, module); err != nil {
		return nil, err
	}
	if role == enums.RoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "admin permissions cannot be modified")
	}
	if !req.AccessLevel.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid access level")
	}

	existing, err := s.repo.Find(ctx, role, module)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find permission")
	}

	action := enums.PermissionCreated
	var oldValues json.RawMessage
	row := &models.RolePermission{Role: role, Module: module, IsActive: true}
	if existing != nil {
		row = existing
		action = enums.PermissionUpdated
		oldValues, _ = json.Marshal(fromModel(existing))
	}

	row.AccessLevel = req.AccessLevel
	row.CanCreate = req.CanCreate
	row.CanEdit = req.CanEdit
	row.CanDelete = req.CanDelete
	row.CanExport = req.CanExport
	if req.IsActive != nil {
		row.IsActive = *req.IsActive
		if !*req.IsActive {
			action = enums.PermissionDeactivated
		}
	}

	if err := s.repo.Save(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save permission")
	}

	newValues, _ := json.Marshal(fromModel(row))
	changedByID := changedBy
	history := models.PermissionHistory{
		Role:      role,
		Module:    module,
		Action:    action,
		OldValues: oldValues,
		NewValues: newValues,
		ChangedBy: &changedByID,
		Reason:    req.Reason,
	}
	if err := s.repo.RecordHistory(ctx, history); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "permission history write failed")
	}

	s.invalidate(ctx, role, module)
	return fromModel(row), nil
}

func (s *service) SeedDefaults(ctx context.Context, changedBy uuid.UUID) (int, error) {
	seeded := 0
	changedByID := changedBy
	for role, grants := range defaultMatrix() {
		for module, grant := range grants {
			row := &models.RolePermission{
				Role:        role,
				Module:      module,
				AccessLevel: grant.level,
				CanCreate:   grant.canCreate,
				CanEdit:     grant.canEdit,
				CanDelete:   grant.canDelete,
				CanExport:   grant.canExport,
				IsActive:    true,
			}
			inserted, err := s.repo.InsertMissing(ctx, row)
			if err != nil {
				return seeded, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "seed permission")
			}
			if !inserted {
				continue
			}
			seeded++
			newValues, _ := json.Marshal(fromModel(row))
			entry := models.PermissionHistory{
				Role:      role,
				Module:    module,
				Action:    enums.PermissionCreated,
				NewValues: newValues,
				ChangedBy: &changedByID,
			}
			if err := s.repo.RecordHistory(ctx, entry); err != nil && s.logg != nil {
				s.logg.Warn(ctx, "permission history write failed")
			}
			s.invalidate(ctx, role, module)
		}
	}
	return seeded, nil
}

func (s *service) History(ctx context.Context, role *enums.UserRole, params pagination.Params) ([]HistoryDTO, error) {
	rows, err := s.repo.ListHistory(ctx, role, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list permission history")
	}
	out := make([]HistoryDTO, 0, len(rows))
	for i := range rows {
		row := rows[i]
		dto := HistoryDTO{
			ID:        row.ID,
			Role:      row.Role,
			Module:    row.Module,
			Action:    row.Action,
			ChangedBy: row.ChangedBy,
			Reason:    row.Reason,
			CreatedAt: row.CreatedAt,
		}
		if len(row.OldValues) > 0 {
			var decoded any
			if err := json.Unmarshal(row.OldValues, &decoded); err == nil {
				dto.OldValues = decoded
			}
		}
		if len(row.NewValues) > 0 {
			var decoded any
			if err := json.Unmarshal(row.NewValues, &decoded); err == nil {
				dto.NewValues = decoded
			}
		}
		out = append(out, dto)
	}
	return out, nil
}

func (s *service) invalidate(ctx context.Context, role enums.UserRole, module enums.Module) {
	if s.cache == nil {
		return
	}
	key := s.cache.PermissionKey(string(role), string(module))
	if err := s.cache.Del(ctx, key); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "permission cache invalidation failed")
	}
}

func validateCell(role enums.UserRole, module enums.Module) error {
	if !role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	if !module.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid module")
	}
	return nil
}
