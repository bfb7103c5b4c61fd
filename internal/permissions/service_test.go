package permissions

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	pkgerrors "github.com/dealerdeskhq/dealerdesk-backend/pkg/errors"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
)

type matrixKey struct {
	role   enums.UserRole
	module enums.Module
}

type fakeRepo struct {
	rows    map[matrixKey]*models.RolePermission
	history []models.PermissionHistory
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: make(map[matrixKey]*models.RolePermission)}
}

func (f *fakeRepo) Find(_ context.Context, role enums.UserRole, module enums.Module) (*models.RolePermission, error) {
	if row, ok := f.rows[matrixKey{role, module}]; ok {
		copied := *row
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) ListAll(context.Context) ([]models.RolePermission, error) {
	out := make([]models.RolePermission, 0, len(f.rows))
	for _, row := range f.rows {
		out = append(out, *row)
	}
	return out, nil
}

func (f *fakeRepo) Save(_ context.Context, row *models.RolePermission) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.UpdatedAt = time.Now().UTC()
	copied := *row
	f.rows[matrixKey{row.Role, row.Module}] = &copied
	return nil
}

func (f *fakeRepo) InsertMissing(_ context.Context, row *models.RolePermission) (bool, error) {
	key := matrixKey{row.Role, row.Module}
	if _, exists := f.rows[key]; exists {
		return false, nil
	}
	row.ID = uuid.New()
	copied := *row
	f.rows[key] = &copied
	return true, nil
}

func (f *fakeRepo) RecordHistory(_ context.Context, entry models.PermissionHistory) error {
	f.history = append(f.history, entry)
	return nil
}

func (f *fakeRepo) ListHistory(_ context.Context, role *enums.UserRole, _ pagination.Params) ([]models.PermissionHistory, error) {
	if role == nil {
		return f.history, nil
	}
	var out []models.PermissionHistory
	for _, entry := range f.history {
		if entry.Role == *role {
			out = append(out, entry)
		}
	}
	return out, nil
}

type fakeCache struct {
	values  map[string]string
	deleted []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string]string)}
}

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	if value, ok := f.values[key]; ok {
		return value, nil
	}
	return "", fmt.Errorf("missing key")
}

func (f *fakeCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.values[key] = fmt.Sprintf("%v", value)
	return nil
}

func (f *fakeCache) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		f.deleted = append(f.deleted, key)
		delete(f.values, key)
	}
	return nil
}

func (f *fakeCache) PermissionKey(role, module string) string {
	return "dd:perm:" + role + ":" + module
}

func buildService(t *testing.T, repo *fakeRepo, cache *fakeCache) Service {
	t.Helper()
	var grantStore grantCache
	if cache != nil {
		grantStore = cache
	}
	svc, err := NewService(repo, grantStore, time.Minute, nil)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func TestResolveAdminBypass(t *testing.T) {
	svc := buildService(t, newFakeRepo(), nil)

	grant, err := svc.Resolve(context.Background(), enums.RoleAdmin, enums.ModulePayroll)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if grant.AccessLevel != enums.AccessFull || !grant.CanDelete || !grant.CanExport {
		t.Fatalf("expected full admin grant, got %+v", grant)
	}
}

func TestResolveMissingRowMeansNoAccess(t *testing.T) {
	svc := buildService(t, newFakeRepo(), nil)

	grant, err := svc.Resolve(context.Background(), enums.RoleClerk, enums.ModulePayroll)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if grant.AccessLevel != enums.AccessNone {
		t.Fatalf("expected no access, got %s", grant.AccessLevel)
	}
}

func TestResolveInactiveRowMeansNoAccess(t *testing.T) {
	repo := newFakeRepo()
	repo.rows[matrixKey{enums.RoleSales, enums.ModuleVehicles}] = &models.RolePermission{
		Role:        enums.RoleSales,
		Module:      enums.ModuleVehicles,
		AccessLevel: enums.AccessReadWrite,
		IsActive:    false,
	}
	svc := buildService(t, repo, nil)

	grant, err := svc.Resolve(context.Background(), enums.RoleSales, enums.ModuleVehicles)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if grant.AccessLevel != enums.AccessNone {
		t.Fatalf("expected no access for inactive row, got %s", grant.AccessLevel)
	}
}

func TestResolveUsesCacheAfterFirstLookup(t *testing.T) {
	repo := newFakeRepo()
	repo.rows[matrixKey{enums.RoleSales, enums.ModuleVehicles}] = &models.RolePermission{
		Role:        enums.RoleSales,
		Module:      enums.ModuleVehicles,
		AccessLevel: enums.AccessReadWrite,
		CanCreate:   true,
		CanEdit:     true,
		IsActive:    true,
	}
	cache := newFakeCache()
	svc := buildService(t, repo, cache)

	first, err := svc.Resolve(context.Background(), enums.RoleSales, enums.ModuleVehicles)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if first.AccessLevel != enums.AccessReadWrite || !first.CanCreate {
		t.Fatalf("unexpected grant %+v", first)
	}

	// Drop the DB row; the cached grant must still answer.
	delete(repo.rows, matrixKey{enums.RoleSales, enums.ModuleVehicles})
	second, err := svc.Resolve(context.Background(), enums.RoleSales, enums.ModuleVehicles)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if second.AccessLevel != enums.AccessReadWrite {
		t.Fatalf("expected cached grant, got %+v", second)
	}
}

func TestUpdateRecordsHistoryAndInvalidatesCache(t *testing.T) {
	repo := newFakeRepo()
	cache := newFakeCache()
	svc := buildService(t, repo, cache)
	admin := uuid.New()

	dto, err := svc.Update(context.Background(), enums.RoleClerk, enums.ModuleClients, UpdatePermissionRequest{
		AccessLevel: enums.AccessReadWrite,
		CanCreate:   true,
		CanEdit:     true,
	}, admin)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if dto.AccessLevel != enums.AccessReadWrite {
		t.Fatalf("unexpected level %s", dto.AccessLevel)
	}
	if len(repo.history) != 1 || repo.history[0].Action != enums.PermissionCreated {
		t.Fatalf("expected created history entry, got %+v", repo.history)
	}

	if _, err := svc.Update(context.Background(), enums.RoleClerk, enums.ModuleClients, UpdatePermissionRequest{
		AccessLevel: enums.AccessReadOnly,
	}, admin); err != nil {
		t.Fatalf("second update: %v", err)
	}
	if len(repo.history) != 2 || repo.history[1].Action != enums.PermissionUpdated {
		t.Fatalf("expected updated history entry")
	}
	if len(repo.history[1].OldValues) == 0 {
		t.Fatalf("expected old values snapshot")
	}
	if len(cache.deleted) == 0 {
		t.Fatalf("expected cache invalidation")
	}
}

func TestUpdateRejectsAdminRole(t *testing.T) {
	svc := buildService(t, newFakeRepo(), nil)
	_, err := svc.Update(context.Background(), enums.RoleAdmin, enums.ModuleClients, UpdatePermissionRequest{
		AccessLevel: enums.AccessReadOnly,
	}, uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSeedDefaultsKeepsCustomizedRows(t *testing.T) {
	repo := newFakeRepo()
	custom := &models.RolePermission{
		ID:          uuid.New(),
		Role:        enums.RoleClerk,
		Module:      enums.ModuleDashboard,
		AccessLevel: enums.AccessReadWrite,
		IsActive:    true,
	}
	repo.rows[matrixKey{enums.RoleClerk, enums.ModuleDashboard}] = custom
	svc := buildService(t, repo, nil)

	seeded, err := svc.SeedDefaults(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if seeded == 0 {
		t.Fatalf("expected rows to be seeded")
	}

	kept := repo.rows[matrixKey{enums.RoleClerk, enums.ModuleDashboard}]
	if kept.AccessLevel != enums.AccessReadWrite {
		t.Fatalf("customized row must not be overwritten, got %s", kept.AccessLevel)
	}

	adminRow := repo.rows[matrixKey{enums.RoleAdmin, enums.ModulePermissions}]
	if adminRow == nil || adminRow.AccessLevel != enums.AccessFull {
		t.Fatalf("expected admin defaults installed")
	}
	managerRow := repo.rows[matrixKey{enums.RoleManager, enums.ModuleVehicles}]
	if managerRow == nil || managerRow.CanDelete {
		t.Fatalf("manager default must not allow delete")
	}
}
