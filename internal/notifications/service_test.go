package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	pkgerrors "github.com/dealerdeskhq/dealerdesk-backend/pkg/errors"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/outbox/payloads"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
)

type fakeNotificationRepo struct {
	notifications map[uuid.UUID]*models.Notification
	preferences   map[uuid.UUID]*models.NotificationPreference
	moduleUsers   map[enums.Module][]uuid.UUID
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{
		notifications: make(map[uuid.UUID]*models.Notification),
		preferences:   make(map[uuid.UUID]*models.NotificationPreference),
		moduleUsers:   make(map[enums.Module][]uuid.UUID),
	}
}

func (f *fakeNotificationRepo) Create(_ context.Context, notification *models.Notification) error {
	notification.ID = uuid.New()
	notification.CreatedAt = time.Now().UTC()
	f.notifications[notification.ID] = notification
	return nil
}

func (f *fakeNotificationRepo) CreateBatch(ctx context.Context, notifications []models.Notification) error {
	for i := range notifications {
		copied := notifications[i]
		if err := f.Create(ctx, &copied); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeNotificationRepo) List(_ context.Context, params listParams) ([]models.Notification, *pagination.Cursor, error) {
	var out []models.Notification
	for _, n := range f.notifications {
		if n.UserID != params.UserID || n.DismissedAt != nil {
			continue
		}
		if params.UnreadOnly && n.ReadAt != nil {
			continue
		}
		out = append(out, *n)
	}
	return out, nil, nil
}

func (f *fakeNotificationRepo) UnreadCount(_ context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	for _, n := range f.notifications {
		if n.UserID == userID && n.ReadAt == nil && n.DismissedAt == nil {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationRepo) MarkRead(_ context.Context, userID, notificationID uuid.UUID, now time.Time) (markResult, error) {
	n, ok := f.notifications[notificationID]
	if !ok || n.UserID != userID {
		return markResult{}, nil
	}
	if n.ReadAt != nil {
		return markResult{Found: true}, nil
	}
	n.ReadAt = &now
	return markResult{Found: true, Updated: true}, nil
}

func (f *fakeNotificationRepo) MarkAllRead(_ context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	var updated int64
	for _, n := range f.notifications {
		if n.UserID == userID && n.ReadAt == nil && n.DismissedAt == nil {
			n.ReadAt = &now
			updated++
		}
	}
	return updated, nil
}

func (f *fakeNotificationRepo) Dismiss(_ context.Context, userID, notificationID uuid.UUID, now time.Time) (markResult, error) {
	n, ok := f.notifications[notificationID]
	if !ok || n.UserID != userID {
		return markResult{}, nil
	}
	if n.DismissedAt != nil {
		return markResult{Found: true}, nil
	}
	n.DismissedAt = &now
	return markResult{Found: true, Updated: true}, nil
}

func (f *fakeNotificationRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var deleted int64
	for id, n := range f.notifications {
		if n.ExpiresAt != nil && !n.ExpiresAt.After(now) {
			delete(f.notifications, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeNotificationRepo) DeleteReadBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	for id, n := range f.notifications {
		if n.ReadAt != nil && n.ReadAt.Before(cutoff) {
			delete(f.notifications, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeNotificationRepo) FindPreference(_ context.Context, userID uuid.UUID) (*models.NotificationPreference, error) {
	pref, ok := f.preferences[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *pref
	return &copied, nil
}

func (f *fakeNotificationRepo) SavePreference(_ context.Context, pref *models.NotificationPreference) error {
	copied := *pref
	f.preferences[pref.UserID] = &copied
	return nil
}

func (f *fakeNotificationRepo) ModuleRecipients(_ context.Context, module enums.Module) ([]uuid.UUID, error) {
	return f.moduleUsers[module], nil
}

func seedNotification(repo *fakeNotificationRepo, userID uuid.UUID) uuid.UUID {
	n := &models.Notification{
		UserID:   userID,
		Type:     enums.NotificationGeneral,
		Priority: enums.PriorityMedium,
		Title:    "Heads up",
		Message:  "Something happened",
	}
	_ = repo.Create(context.Background(), n)
	return n.ID
}

func TestMarkReadIsScopedAndIdempotent(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)
	ctx := context.Background()

	owner := uuid.New()
	stranger := uuid.New()
	id := seedNotification(repo, owner)

	err = svc.MarkRead(ctx, stranger, id)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	require.NoError(t, svc.MarkRead(ctx, owner, id))
	require.NoError(t, svc.MarkRead(ctx, owner, id))

	count, err := svc.UnreadCount(ctx, owner)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMarkAllReadAndDismiss(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)
	ctx := context.Background()

	owner := uuid.New()
	seedNotification(repo, owner)
	seedNotification(repo, owner)
	dismissed := seedNotification(repo, owner)

	require.NoError(t, svc.Dismiss(ctx, owner, dismissed))

	updated, err := svc.MarkAllRead(ctx, owner)
	require.NoError(t, err)
	assert.EqualValues(t, 2, updated)

	page, err := svc.List(ctx, ListParams{UserID: owner, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2) // dismissed one is gone from the feed
}

func TestPreferencesDefaultUntilSaved(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)
	ctx := context.Background()
	userID := uuid.New()

	prefs, err := svc.GetPreferences(ctx, userID)
	require.NoError(t, err)
	assert.True(t, prefs.Enabled)
	assert.True(t, prefs.InAppEnabled)
	assert.False(t, prefs.SMSEnabled)
	assert.Nil(t, prefs.QuietHoursStart)
	assert.Empty(t, repo.preferences)

	off := false
	start, end := 22, 6
	updated, err := svc.UpdatePreferences(ctx, userID, UpdatePreferencesRequest{
		NotifyAuctions:  &off,
		QuietHoursStart: &start,
		QuietHoursEnd:   &end,
	})
	require.NoError(t, err)
	assert.False(t, updated.NotifyAuctions)
	require.NotNil(t, updated.QuietHoursStart)
	assert.Equal(t, 22, *updated.QuietHoursStart)
	assert.Len(t, repo.preferences, 1)

	cleared, err := svc.UpdatePreferences(ctx, userID, UpdatePreferencesRequest{ClearQuietHours: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.QuietHoursStart)
	assert.False(t, cleared.NotifyAuctions) // earlier edit survives
}

func TestUpdatePreferencesValidatesQuietHours(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)
	ctx := context.Background()
	userID := uuid.New()

	bad := 25
	start := 22
	_, err = svc.UpdatePreferences(ctx, userID, UpdatePreferencesRequest{QuietHoursStart: &start, QuietHoursEnd: &bad})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.UpdatePreferences(ctx, userID, UpdatePreferencesRequest{QuietHoursStart: &start})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func testConsumer(repo *fakeNotificationRepo, hour int) *Consumer {
	return &Consumer{
		repo: repo,
		now: func() time.Time {
			return time.Date(2026, time.August, 20, hour, 30, 0, 0, time.UTC)
		},
	}
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestDraftForPaymentOverdueEscalates(t *testing.T) {
	c := testConsumer(newFakeNotificationRepo(), 12)

	payload := payloads.PaymentOverdueEvent{
		ScheduleID:  uuid.New(),
		ClientID:    uuid.New(),
		DueDate:     time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC),
		AmountDue:   decimal.NewFromInt(25000),
		DaysOverdue: 10,
	}
	d, err := c.draftFor(enums.EventPaymentOverdue, mustJSON(t, payload))
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, enums.PriorityHigh, d.Priority)
	assert.Equal(t, enums.NotificationPaymentOverdue, d.Type)
	assert.Equal(t, enums.ModulePayments, d.Module)

	payload.DaysOverdue = 45
	d, err = c.draftFor(enums.EventPaymentOverdue, mustJSON(t, payload))
	require.NoError(t, err)
	assert.Equal(t, enums.PriorityUrgent, d.Priority)
}

func TestDraftForSkipsRoutineEvents(t *testing.T) {
	c := testConsumer(newFakeNotificationRepo(), 12)

	receipt := payloads.PaymentRecordedEvent{PaymentID: uuid.New(), ClientID: uuid.New(), PaidOff: false}
	d, err := c.draftFor(enums.EventPaymentRecorded, mustJSON(t, receipt))
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = c.draftFor(enums.EventBidPlaced, mustJSON(t, payloads.BidPlacedEvent{}))
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestDraftForExpenseDecisionTargetsSubmitter(t *testing.T) {
	c := testConsumer(newFakeNotificationRepo(), 12)
	submitter := uuid.New()
	payload := payloads.ExpenseStatusEvent{
		ExpenseID:     uuid.New(),
		ExpenseNumber: "EXP-20260820-0001",
		Status:        enums.ExpenseStatusRejected,
		Total:         decimal.NewFromInt(4800),
		SubmittedBy:   &submitter,
		Reason:        "missing receipt",
	}
	d, err := c.draftFor(enums.EventExpenseRejected, mustJSON(t, payload))
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, []uuid.UUID{submitter}, d.Recipients)
	assert.Contains(t, d.Message, "missing receipt")
}

func TestDeliverHonorsPreferences(t *testing.T) {
	repo := newFakeNotificationRepo()
	c := testConsumer(repo, 12)
	ctx := context.Background()

	plain := uuid.New()
	muted := uuid.New()
	urgentOnly := uuid.New()
	repo.moduleUsers[enums.ModuleInsurance] = []uuid.UUID{plain, muted, urgentOnly, plain}

	mutedPref := defaultPreference(muted)
	mutedPref.Enabled = false
	repo.preferences[muted] = mutedPref
	urgentPref := defaultPreference(urgentOnly)
	urgentPref.UrgentOnly = true
	repo.preferences[urgentOnly] = urgentPref

	err := c.deliver(ctx, &draft{
		Type:     enums.NotificationInsuranceExpiry,
		Priority: enums.PriorityHigh,
		Title:    "Insurance policy expiring",
		Message:  "Policy POL-1 expires soon.",
		Module:   enums.ModuleInsurance,
	})
	require.NoError(t, err)

	require.Len(t, repo.notifications, 1)
	for _, n := range repo.notifications {
		assert.Equal(t, plain, n.UserID)
	}
}

func TestDeliverSuppressesDuringQuietHoursExceptUrgent(t *testing.T) {
	repo := newFakeNotificationRepo()
	c := testConsumer(repo, 23) // inside a 22-06 window that wraps midnight
	ctx := context.Background()

	sleeper := uuid.New()
	start, end := 22, 6
	pref := defaultPreference(sleeper)
	pref.QuietHoursStart = &start
	pref.QuietHoursEnd = &end
	repo.preferences[sleeper] = pref

	err := c.deliver(ctx, &draft{
		Type:       enums.NotificationPaymentOverdue,
		Priority:   enums.PriorityHigh,
		Title:      "Payment overdue",
		Message:    "10 days overdue.",
		Recipients: []uuid.UUID{sleeper},
	})
	require.NoError(t, err)
	assert.Empty(t, repo.notifications)

	err = c.deliver(ctx, &draft{
		Type:       enums.NotificationPaymentOverdue,
		Priority:   enums.PriorityUrgent,
		Title:      "Payment overdue",
		Message:    "45 days overdue.",
		Recipients: []uuid.UUID{sleeper},
	})
	require.NoError(t, err)
	assert.Len(t, repo.notifications, 1)
}
