package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dealerdeskhq/dealerdesk-backend/api/middleware"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
)

type fakeAuditRepo struct {
	inserted []models.AuditLog
	logs     []models.AuditLog
	logins   []models.LoginHistory
}

func (f *fakeAuditRepo) Insert(_ context.Context, entry models.AuditLog) (*models.AuditLog, error) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	f.inserted = append(f.inserted, entry)
	return &entry, nil
}

func (f *fakeAuditRepo) ListLogs(_ context.Context, _ LogFilter, _ pagination.Params) ([]models.AuditLog, error) {
	return f.logs, nil
}

func (f *fakeAuditRepo) ListLoginHistory(_ context.Context, _ LoginHistoryFilter, _ pagination.Params) ([]models.LoginHistory, error) {
	return f.logins, nil
}

func TestRecordHTTPBuildsRow(t *testing.T) {
	repo := &fakeAuditRepo{}
	svc, err := NewService(repo, nil, nil, nil)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	userID := uuid.New()
	entityID := "b2b0f5d6-0000-0000-0000-000000000001"
	changes, _ := json.Marshal(map[string]string{"status": "sold"})
	err = svc.RecordHTTP(context.Background(), middleware.AuditEntry{
		UserID:        &userID,
		Action:        enums.AuditActionUpdate,
		EntityName:    "vehicles",
		EntityID:      &entityID,
		RequestPath:   "/api/v1/vehicles/" + entityID + "/status",
		RequestMethod: "POST",
		IPAddress:     "203.0.113.9",
		UserAgent:     "test-agent",
		StatusCode:    200,
		Changes:       changes,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("expected one row")
	}
	row := repo.inserted[0]
	if row.Action != enums.AuditActionUpdate || row.EntityName == nil || *row.EntityName != "vehicles" {
		t.Fatalf("unexpected row %+v", row)
	}
	if row.Description == "" || row.RequestMethod == nil || *row.RequestMethod != "POST" {
		t.Fatalf("expected description and method, got %+v", row)
	}
	if len(row.Metadata) == 0 {
		t.Fatalf("expected status metadata")
	}
}

func TestRecordEventTruncatesUserAgent(t *testing.T) {
	repo := &fakeAuditRepo{}
	svc, err := NewService(repo, nil, nil, nil)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	long := make([]byte, 600)
	for i := range long {
		long[i] = 'a'
	}
	ua := string(long)
	userID := uuid.New()
	if err := svc.RecordEvent(context.Background(), Event{
		UserID:      &userID,
		Action:      enums.AuditActionLogin,
		Description: "user logged in",
		UserAgent:   &ua,
	}); err != nil {
		t.Fatalf("record event: %v", err)
	}
	row := repo.inserted[0]
	if row.UserAgent == nil || len(*row.UserAgent) != 500 {
		t.Fatalf("expected user agent truncated to 500")
	}
}

func TestRecordEventRejectsInvalidAction(t *testing.T) {
	svc, err := NewService(&fakeAuditRepo{}, nil, nil, nil)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	if err := svc.RecordEvent(context.Background(), Event{Action: enums.AuditAction("bogus")}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestListLogsPaginates(t *testing.T) {
	repo := &fakeAuditRepo{}
	base := time.Now().UTC()
	for i := 0; i < 26; i++ {
		repo.logs = append(repo.logs, models.AuditLog{
			ID:        uuid.New(),
			Action:    enums.AuditActionRead,
			CreatedAt: base.Add(-time.Duration(i) * time.Minute),
		})
	}
	svc, err := NewService(repo, nil, nil, nil)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	page, err := svc.ListLogs(context.Background(), LogFilter{}, pagination.Params{Limit: 25})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 25 {
		t.Fatalf("expected 25 items, got %d", len(page.Items))
	}
	if page.NextCursor == nil {
		t.Fatalf("expected next cursor")
	}
}
