package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dealerdeskhq/dealerdesk-backend/api/middleware"
	authsvc "github.com/dealerdeskhq/dealerdesk-backend/internal/auth"
	dealershipsvc "github.com/dealerdeskhq/dealerdesk-backend/internal/dealership"
	documentsvc "github.com/dealerdeskhq/dealerdesk-backend/internal/documents"
	permissionsvc "github.com/dealerdeskhq/dealerdesk-backend/internal/permissions"
	"github.com/dealerdeskhq/dealerdesk-backend/internal/users"
	pkgauth "github.com/dealerdeskhq/dealerdesk-backend/pkg/auth"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/config"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/logger"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubSessionChecker struct{}

func (stubSessionChecker) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubPermissionService struct {
	grant middleware.Grant
}

func (s stubPermissionService) Resolve(ctx context.Context, role enums.UserRole, module enums.Module) (middleware.Grant, error) {
	return s.grant, nil
}

func (s stubPermissionService) Matrix(ctx context.Context) ([]permissionsvc.PermissionDTO, error) {
	return []permissionsvc.PermissionDTO{}, nil
}

func (s stubPermissionService) Get(ctx context.Context, role enums.UserRole, module enums.Module) (*permissionsvc.PermissionDTO, error) {
	panic("unimplemented")
}

func (s stubPermissionService) Update(ctx context.Context, role enums.UserRole, module enums.Module, req permissionsvc.UpdatePermissionRequest, changedBy uuid.UUID) (*permissionsvc.PermissionDTO, error) {
	panic("unimplemented")
}

func (s stubPermissionService) SeedDefaults(ctx context.Context, changedBy uuid.UUID) (int, error) {
	panic("unimplemented")
}

func (s stubPermissionService) History(ctx context.Context, role *enums.UserRole, params pagination.Params) ([]permissionsvc.HistoryDTO, error) {
	panic("unimplemented")
}

type stubDealershipService struct{}

func (stubDealershipService) Get(ctx context.Context) (*dealershipsvc.ProfileDTO, error) {
	return &dealershipsvc.ProfileDTO{}, nil
}

func (stubDealershipService) Update(ctx context.Context, req dealershipsvc.UpdateProfileRequest) (*dealershipsvc.ProfileDTO, error) {
	return &dealershipsvc.ProfileDTO{}, nil
}

type stubAuthService struct{}

func (stubAuthService) Login(ctx context.Context, req authsvc.LoginRequest, meta authsvc.RequestMeta) (*authsvc.LoginResponse, error) {
	panic("unimplemented")
}

func (stubAuthService) Logout(ctx context.Context, userID uuid.UUID, accessID string) error {
	return nil
}

func (stubAuthService) Refresh(ctx context.Context, req authsvc.RefreshRequest) (*authsvc.RefreshResponse, error) {
	panic("unimplemented")
}

func (stubAuthService) Register(ctx context.Context, req authsvc.RegisterRequest) (*users.UserDTO, error) {
	return &users.UserDTO{}, nil
}

func (stubAuthService) ChangePassword(ctx context.Context, userID uuid.UUID, req authsvc.ChangePasswordRequest) error {
	return nil
}

func (stubAuthService) Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	return &users.UserDTO{}, nil
}

type stubDocumentsService struct{}

func (stubDocumentsService) CreateCategory(ctx context.Context, req documentsvc.CreateCategoryRequest) (*documentsvc.CategoryDTO, error) {
	panic("unimplemented")
}

func (stubDocumentsService) UpdateCategory(ctx context.Context, id uuid.UUID, req documentsvc.UpdateCategoryRequest) (*documentsvc.CategoryDTO, error) {
	panic("unimplemented")
}

func (stubDocumentsService) ListCategories(ctx context.Context, activeOnly bool) ([]documentsvc.CategoryDTO, error) {
	panic("unimplemented")
}

func (stubDocumentsService) Create(ctx context.Context, req documentsvc.CreateDocumentRequest, uploadedBy uuid.UUID) (*documentsvc.DocumentDTO, error) {
	panic("unimplemented")
}

func (stubDocumentsService) Get(ctx context.Context, id uuid.UUID, meta documentsvc.AccessMeta) (*documentsvc.DocumentDTO, error) {
	panic("unimplemented")
}

func (stubDocumentsService) List(ctx context.Context, filter documentsvc.ListFilter, params pagination.Params) (documentsvc.Page[documentsvc.DocumentDTO], error) {
	panic("unimplemented")
}

func (stubDocumentsService) Update(ctx context.Context, id uuid.UUID, req documentsvc.UpdateDocumentRequest, meta documentsvc.AccessMeta) (*documentsvc.DocumentDTO, error) {
	panic("unimplemented")
}

func (stubDocumentsService) Archive(ctx context.Context, id uuid.UUID) (*documentsvc.DocumentDTO, error) {
	panic("unimplemented")
}

func (stubDocumentsService) ConfirmUpload(ctx context.Context, id uuid.UUID) (*documentsvc.DocumentDTO, error) {
	panic("unimplemented")
}

func (stubDocumentsService) UploadNewVersion(ctx context.Context, id uuid.UUID, req documentsvc.NewVersionRequest, uploadedBy uuid.UUID) (*documentsvc.DocumentDTO, error) {
	panic("unimplemented")
}

func (stubDocumentsService) Versions(ctx context.Context, id uuid.UUID) ([]documentsvc.DocumentDTO, error) {
	panic("unimplemented")
}

func (stubDocumentsService) RecordDownload(ctx context.Context, id uuid.UUID, meta documentsvc.AccessMeta) (*documentsvc.DocumentDTO, error) {
	panic("unimplemented")
}

func (stubDocumentsService) AccessLog(ctx context.Context, id uuid.UUID) ([]documentsvc.AccessDTO, error) {
	panic("unimplemented")
}

func (stubDocumentsService) Expiring(ctx context.Context, now time.Time) ([]documentsvc.DocumentDTO, error) {
	panic("unimplemented")
}

func (stubDocumentsService) CreateShare(ctx context.Context, documentID uuid.UUID, req documentsvc.CreateShareRequest, createdBy uuid.UUID) (*documentsvc.ShareDTO, error) {
	panic("unimplemented")
}

func (stubDocumentsService) ListShares(ctx context.Context, documentID uuid.UUID) ([]documentsvc.ShareDTO, error) {
	panic("unimplemented")
}

func (stubDocumentsService) RevokeShare(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

func (stubDocumentsService) ResolveShare(ctx context.Context, token string, req documentsvc.ResolveShareRequest, ip string) (*documentsvc.SharedDocumentDTO, error) {
	return &documentsvc.SharedDocumentDTO{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
	}
}

func newTestRouter(cfg *config.Config, grant middleware.Grant) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		stubSessionChecker{},
		Services{
			Auth:        stubAuthService{},
			Documents:   stubDocumentsService{},
			Permissions: stubPermissionService{grant: grant},
			Dealership:  stubDealershipService{},
		},
	)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig(), middleware.Grant{})
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	router := newTestRouter(testConfig(), middleware.Grant{})
	for _, path := range []string{"/api/v1/dealership", "/api/v1/vehicles", "/api/v1/reports"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s got %d", path, resp.Code)
		}
	}
}

func TestPermissionGateBlocksNoAccess(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, middleware.Grant{AccessLevel: enums.AccessNone})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/vehicles", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleSales))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for no_access got %d", resp.Code)
	}
}

func TestAdminBypassesPermissionMatrix(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, middleware.Grant{AccessLevel: enums.AccessNone})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/permissions", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestRegisterRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, middleware.Grant{AccessLevel: enums.AccessFull})

	body := `{"email":"clerk@dealerdesk.test","password":"Sup3r-Secret!","first_name":"Dana","last_name":"Reyes","role":"clerk"}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleSales))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin register got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for admin register got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestExportRequiresExportGrant(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, middleware.Grant{AccessLevel: enums.AccessReadWrite, CanExport: false})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/vehicles/export/csv", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleAccountant))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without export grant got %d", resp.Code)
	}
}

func TestSharedDocumentRouteIsPublic(t *testing.T) {
	router := newTestRouter(testConfig(), middleware.Grant{})
	req := httptest.NewRequest(http.MethodGet, "/api/public/documents/shared/abc123", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public share got %d: %s", resp.Code, resp.Body.String())
	}
}
