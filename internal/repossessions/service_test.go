package repossessions

import (
	"context"
	"fmt"
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
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/outbox"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/outbox/payloads"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
)

type fakeRepoRepo struct {
	cases    map[uuid.UUID]*models.Repossession
	history  []*models.RepossessionStatusHistory
	notices  map[uuid.UUID]*models.RepossessionNotice
	contacts []*models.RepossessionContact
	attempts []*models.RepossessionRecoveryAttempt
	expenses map[uuid.UUID]*models.RepossessionExpense
}

func newFakeRepoRepo() *fakeRepoRepo {
	return &fakeRepoRepo{
		cases:    make(map[uuid.UUID]*models.Repossession),
		notices:  make(map[uuid.UUID]*models.RepossessionNotice),
		expenses: make(map[uuid.UUID]*models.RepossessionExpense),
	}
}

func (f *fakeRepoRepo) CreateTx(_ *gorm.DB, repossession *models.Repossession) error {
	repossession.ID = uuid.New()
	repossession.CreatedAt = time.Now().UTC()
	f.cases[repossession.ID] = repossession
	return nil
}

func (f *fakeRepoRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Repossession, error) {
	repossession, ok := f.cases[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *repossession
	return &copied, nil
}

func (f *fakeRepoRepo) FindOpenByAgreement(_ context.Context, clientVehicleID uuid.UUID) (*models.Repossession, error) {
	for _, repossession := range f.cases {
		if repossession.ClientVehicleID != clientVehicleID {
			continue
		}
		if repossession.Status == enums.RepoStatusCompleted || repossession.Status == enums.RepoStatusCancelled {
			continue
		}
		return repossession, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepoRepo) List(_ context.Context, _ ListFilter, _ pagination.Params) ([]models.Repossession, error) {
	var out []models.Repossession
	for _, repossession := range f.cases {
		out = append(out, *repossession)
	}
	return out, nil
}

func (f *fakeRepoRepo) Update(_ context.Context, repossession *models.Repossession) error {
	f.cases[repossession.ID] = repossession
	return nil
}

func (f *fakeRepoRepo) TransitionTx(_ *gorm.DB, caseID uuid.UUID, from, to enums.RepossessionStatus, updates map[string]any) (bool, error) {
	repossession, ok := f.cases[caseID]
	if !ok || repossession.Status != from {
		return false, nil
	}
	repossession.Status = to
	if v, ok := updates["notice_sent_date"]; ok {
		t := v.(time.Time)
		repossession.NoticeSentDate = &t
	}
	if v, ok := updates["recovery_date"]; ok {
		t := v.(time.Time)
		repossession.RecoveryDate = &t
	}
	if v, ok := updates["recovery_location"]; ok {
		loc := v.(string)
		repossession.RecoveryLocation = &loc
	}
	if v, ok := updates["completion_date"]; ok {
		t := v.(time.Time)
		repossession.CompletionDate = &t
	}
	if v, ok := updates["resolution"]; ok {
		res := v.(enums.RepossessionResolution)
		repossession.Resolution = &res
	}
	return true, nil
}

func (f *fakeRepoRepo) AddCostTx(_ *gorm.DB, caseID uuid.UUID, column string, amount decimal.Decimal) error {
	repossession := f.cases[caseID]
	switch column {
	case "recovery_cost":
		repossession.RecoveryCost = repossession.RecoveryCost.Add(amount)
	case "storage_cost":
		repossession.StorageCost = repossession.StorageCost.Add(amount)
	case "legal_cost":
		repossession.LegalCost = repossession.LegalCost.Add(amount)
	default:
		repossession.OtherCost = repossession.OtherCost.Add(amount)
	}
	return nil
}

func (f *fakeRepoRepo) CreateHistoryTx(_ *gorm.DB, entry *models.RepossessionStatusHistory) error {
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now().UTC()
	f.history = append(f.history, entry)
	return nil
}

func (f *fakeRepoRepo) ListHistory(_ context.Context, caseID uuid.UUID) ([]models.RepossessionStatusHistory, error) {
	var out []models.RepossessionStatusHistory
	for _, entry := range f.history {
		if entry.RepossessionID == caseID {
			out = append(out, *entry)
		}
	}
	return out, nil
}

func (f *fakeRepoRepo) CreateNoticeTx(_ *gorm.DB, notice *models.RepossessionNotice) error {
	notice.ID = uuid.New()
	notice.CreatedAt = time.Now().UTC()
	f.notices[notice.ID] = notice
	return nil
}

func (f *fakeRepoRepo) FindNotice(_ context.Context, id uuid.UUID) (*models.RepossessionNotice, error) {
	notice, ok := f.notices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return notice, nil
}

func (f *fakeRepoRepo) ListNotices(_ context.Context, caseID uuid.UUID) ([]models.RepossessionNotice, error) {
	var out []models.RepossessionNotice
	for _, notice := range f.notices {
		if notice.RepossessionID == caseID {
			out = append(out, *notice)
		}
	}
	return out, nil
}

func (f *fakeRepoRepo) UpdateNotice(_ context.Context, notice *models.RepossessionNotice) error {
	f.notices[notice.ID] = notice
	return nil
}

func (f *fakeRepoRepo) CreateContact(_ context.Context, contact *models.RepossessionContact) error {
	contact.ID = uuid.New()
	contact.CreatedAt = time.Now().UTC()
	f.contacts = append(f.contacts, contact)
	return nil
}

func (f *fakeRepoRepo) ListContacts(_ context.Context, caseID uuid.UUID) ([]models.RepossessionContact, error) {
	var out []models.RepossessionContact
	for _, contact := range f.contacts {
		if contact.RepossessionID == caseID {
			out = append(out, *contact)
		}
	}
	return out, nil
}

func (f *fakeRepoRepo) CreateAttemptTx(_ *gorm.DB, attempt *models.RepossessionRecoveryAttempt) error {
	attempt.ID = uuid.New()
	attempt.CreatedAt = time.Now().UTC()
	f.attempts = append(f.attempts, attempt)
	return nil
}

func (f *fakeRepoRepo) ListAttempts(_ context.Context, caseID uuid.UUID) ([]models.RepossessionRecoveryAttempt, error) {
	var out []models.RepossessionRecoveryAttempt
	for _, attempt := range f.attempts {
		if attempt.RepossessionID == caseID {
			out = append(out, *attempt)
		}
	}
	return out, nil
}

func (f *fakeRepoRepo) CreateExpenseTx(_ *gorm.DB, expense *models.RepossessionExpense) error {
	expense.ID = uuid.New()
	expense.CreatedAt = time.Now().UTC()
	f.expenses[expense.ID] = expense
	return nil
}

func (f *fakeRepoRepo) FindExpense(_ context.Context, id uuid.UUID) (*models.RepossessionExpense, error) {
	expense, ok := f.expenses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return expense, nil
}

func (f *fakeRepoRepo) ListExpenses(_ context.Context, caseID uuid.UUID) ([]models.RepossessionExpense, error) {
	var out []models.RepossessionExpense
	for _, expense := range f.expenses {
		if expense.RepossessionID == caseID {
			out = append(out, *expense)
		}
	}
	return out, nil
}

func (f *fakeRepoRepo) UpdateExpense(_ context.Context, expense *models.RepossessionExpense) error {
	f.expenses[expense.ID] = expense
	return nil
}

type fakeAgreements struct {
	byID map[uuid.UUID]*models.ClientVehicle
}

func (f *fakeAgreements) FindAgreement(_ context.Context, id uuid.UUID) (*models.ClientVehicle, error) {
	agreement, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return agreement, nil
}

type fakeVehicleRepo struct {
	byID map[uuid.UUID]*models.Vehicle
}

func (f *fakeVehicleRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Vehicle, error) {
	vehicle, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return vehicle, nil
}

func (f *fakeVehicleRepo) ChangeStatusTx(_ *gorm.DB, vehicle *models.Vehicle, newStatus enums.VehicleStatus, _ *string, _ *uuid.UUID, _ time.Time) error {
	vehicle.Status = newStatus
	return nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeEmitter struct {
	events []outbox.DomainEvent
}

func (f *fakeEmitter) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

type testEnv struct {
	svc        *service
	repo       *fakeRepoRepo
	agreements *fakeAgreements
	vehicles   *fakeVehicleRepo
	emitter    *fakeEmitter
	agreement  *models.ClientVehicle
	vehicle    *models.Vehicle
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo := newFakeRepoRepo()
	agreements := &fakeAgreements{byID: make(map[uuid.UUID]*models.ClientVehicle)}
	vehicles := &fakeVehicleRepo{byID: make(map[uuid.UUID]*models.Vehicle)}
	emitter := &fakeEmitter{}
	svc, err := NewService(repo, agreements, vehicles, fakeTxRunner{}, emitter)
	require.NoError(t, err)

	concrete := svc.(*service)
	numbers := 0
	concrete.nextNumber = func(_ *gorm.DB, now time.Time) (string, error) {
		numbers++
		return fmt.Sprintf("REPO-%s-%04d", now.Format("2006"), numbers), nil
	}

	vehicle := &models.Vehicle{ID: uuid.New(), Status: enums.VehicleStatusSold}
	vehicles.byID[vehicle.ID] = vehicle
	agreement := &models.ClientVehicle{
		ID:        uuid.New(),
		ClientID:  uuid.New(),
		VehicleID: vehicle.ID,
		Balance:   decimal.NewFromInt(480000),
	}
	agreements.byID[agreement.ID] = agreement

	return &testEnv{
		svc:        concrete,
		repo:       repo,
		agreements: agreements,
		vehicles:   vehicles,
		emitter:    emitter,
		agreement:  agreement,
		vehicle:    vehicle,
	}
}

func (e *testEnv) openCase(t *testing.T) *CaseDTO {
	t.Helper()
	dto, err := e.svc.Open(context.Background(), OpenCaseRequest{
		ClientVehicleID: e.agreement.ID,
		Reason:          enums.RepoReasonPaymentDefault,
		PaymentsMissed:  3,
	}, uuid.New())
	require.NoError(t, err)
	return dto
}

func TestOpenCaseDefaultsOutstandingToBalance(t *testing.T) {
	env := newTestEnv(t)
	dto := env.openCase(t)

	assert.Contains(t, dto.CaseNumber, "REPO-")
	assert.Equal(t, enums.RepoStatusPending, dto.Status)
	assert.True(t, dto.OutstandingAmount.Equal(decimal.NewFromInt(480000)))
	assert.Equal(t, 3, dto.PaymentsMissed)
}

func TestOpenCaseRejectsSecondOpenCase(t *testing.T) {
	env := newTestEnv(t)
	env.openCase(t)

	_, err := env.svc.Open(context.Background(), OpenCaseRequest{
		ClientVehicleID: env.agreement.ID,
		Reason:          enums.RepoReasonBreachOfContract,
	}, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestOpenCaseRejectsPaidOffAgreement(t *testing.T) {
	env := newTestEnv(t)
	env.agreement.IsPaidOff = true

	_, err := env.svc.Open(context.Background(), OpenCaseRequest{
		ClientVehicleID: env.agreement.ID,
		Reason:          enums.RepoReasonPaymentDefault,
	}, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestTransitionTableIsEnforced(t *testing.T) {
	env := newTestEnv(t)
	dto := env.openCase(t)
	actor := uuid.New()

	// pending cannot jump straight to vehicle_recovered
	_, err := env.svc.Transition(context.Background(), dto.ID, TransitionRequest{
		Status: enums.RepoStatusVehicleRecovered,
	}, actor)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	// completion must go through Complete
	_, err = env.svc.Transition(context.Background(), dto.ID, TransitionRequest{
		Status: enums.RepoStatusCompleted,
	}, actor)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	moved, err := env.svc.Transition(context.Background(), dto.ID, TransitionRequest{
		Status: enums.RepoStatusInProgress,
		Reason: "client unreachable",
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, enums.RepoStatusInProgress, moved.Status)

	history, err := env.svc.History(context.Background(), dto.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, enums.RepoStatusPending, history[0].OldStatus)
	assert.Equal(t, enums.RepoStatusInProgress, history[0].NewStatus)

	require.Len(t, env.emitter.events, 1)
	payload := env.emitter.events[0].Data.(payloads.RepossessionStatusChangedEvent)
	assert.Equal(t, env.agreement.ClientID, payload.ClientID)
	assert.Equal(t, "client unreachable", payload.Reason)
}

func TestOnHoldRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	dto := env.openCase(t)
	actor := uuid.New()

	_, err := env.svc.Transition(context.Background(), dto.ID, TransitionRequest{Status: enums.RepoStatusOnHold}, actor)
	require.NoError(t, err)
	resumed, err := env.svc.Transition(context.Background(), dto.ID, TransitionRequest{Status: enums.RepoStatusPending}, actor)
	require.NoError(t, err)
	assert.Equal(t, enums.RepoStatusPending, resumed.Status)
}

func TestFirstNoticeMovesCaseToNoticeSent(t *testing.T) {
	env := newTestEnv(t)
	dto := env.openCase(t)

	notice, err := env.svc.SendNotice(context.Background(), dto.ID, SendNoticeRequest{
		Type:           enums.NoticeFirst,
		DeliveryMethod: enums.NoticeDeliveryPost,
	}, uuid.New())
	require.NoError(t, err)
	assert.False(t, notice.IsDelivered)

	stored := env.repo.cases[dto.ID]
	assert.Equal(t, enums.RepoStatusNoticeSent, stored.Status)
	require.NotNil(t, stored.NoticeSentDate)
	require.Len(t, env.repo.history, 1)

	// a second notice does not re-transition
	_, err = env.svc.SendNotice(context.Background(), dto.ID, SendNoticeRequest{
		Type:           enums.NoticeSecond,
		DeliveryMethod: enums.NoticeDeliveryCourier,
	}, uuid.New())
	require.NoError(t, err)
	assert.Len(t, env.repo.history, 1)

	delivered, err := env.svc.MarkNoticeDelivered(context.Background(), dto.ID, notice.ID)
	require.NoError(t, err)
	assert.True(t, delivered.IsDelivered)
	require.NotNil(t, delivered.DeliveredAt)
}

func TestSuccessfulAttemptRecoversVehicle(t *testing.T) {
	env := newTestEnv(t)
	dto := env.openCase(t)
	actor := uuid.New()
	_, err := env.svc.Transition(context.Background(), dto.ID, TransitionRequest{Status: enums.RepoStatusInProgress}, actor)
	require.NoError(t, err)

	// a failed attempt books cost but leaves the case in progress
	_, err = env.svc.LogAttempt(context.Background(), dto.ID, LogAttemptRequest{
		Result:       enums.RecoveryVehicleNotFound,
		Location:     "Kitengela",
		CostIncurred: decimal.NewFromInt(8000),
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, enums.RepoStatusInProgress, env.repo.cases[dto.ID].Status)
	assert.True(t, env.repo.cases[dto.ID].RecoveryCost.Equal(decimal.NewFromInt(8000)))

	attempt, err := env.svc.LogAttempt(context.Background(), dto.ID, LogAttemptRequest{
		Result:       enums.RecoverySuccessful,
		Location:     "Athi River",
		TeamSize:     3,
		CostIncurred: decimal.NewFromInt(12000),
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, enums.RecoverySuccessful, attempt.Result)

	stored := env.repo.cases[dto.ID]
	assert.Equal(t, enums.RepoStatusVehicleRecovered, stored.Status)
	require.NotNil(t, stored.RecoveryDate)
	require.NotNil(t, stored.RecoveryLocation)
	assert.Equal(t, "Athi River", *stored.RecoveryLocation)
	assert.True(t, stored.RecoveryCost.Equal(decimal.NewFromInt(20000)))
	assert.Equal(t, enums.VehicleStatusRepossessed, env.vehicle.Status)
}

func TestAttemptRequiresInProgressCase(t *testing.T) {
	env := newTestEnv(t)
	dto := env.openCase(t)

	_, err := env.svc.LogAttempt(context.Background(), dto.ID, LogAttemptRequest{
		Result:   enums.RecoverySuccessful,
		Location: "Nairobi CBD",
	}, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestCompleteRequiresRecoveredCase(t *testing.T) {
	env := newTestEnv(t)
	dto := env.openCase(t)
	actor := uuid.New()

	_, err := env.svc.Complete(context.Background(), dto.ID, CompleteCaseRequest{
		Resolution: enums.RepoResolutionAuctioned,
	}, actor)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	_, err = env.svc.Transition(context.Background(), dto.ID, TransitionRequest{Status: enums.RepoStatusInProgress}, actor)
	require.NoError(t, err)
	_, err = env.svc.LogAttempt(context.Background(), dto.ID, LogAttemptRequest{
		Result:   enums.RecoverySuccessful,
		Location: "Athi River",
	}, actor)
	require.NoError(t, err)

	done, err := env.svc.Complete(context.Background(), dto.ID, CompleteCaseRequest{
		Resolution: enums.RepoResolutionAuctioned,
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, enums.RepoStatusCompleted, done.Status)
	require.NotNil(t, done.Resolution)
	assert.Equal(t, enums.RepoResolutionAuctioned, *done.Resolution)
	require.NotNil(t, done.CompletionDate)

	// completed cases are terminal
	_, err = env.svc.Transition(context.Background(), dto.ID, TransitionRequest{Status: enums.RepoStatusCancelled}, actor)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestExpenseRollsIntoCostBuckets(t *testing.T) {
	env := newTestEnv(t)
	dto := env.openCase(t)
	actor := uuid.New()

	_, err := env.svc.AddExpense(context.Background(), dto.ID, AddExpenseRequest{
		Type:        enums.RepoExpenseTowing,
		Description: "Flatbed tow from Athi River",
		Amount:      decimal.NewFromInt(15000),
	}, actor)
	require.NoError(t, err)
	_, err = env.svc.AddExpense(context.Background(), dto.ID, AddExpenseRequest{
		Type:        enums.RepoExpenseStorage,
		Description: "Yard storage, two weeks",
		Amount:      decimal.NewFromInt(7000),
	}, actor)
	require.NoError(t, err)
	exp, err := env.svc.AddExpense(context.Background(), dto.ID, AddExpenseRequest{
		Type:        enums.RepoExpenseCourt,
		Description: "Filing fees",
		Amount:      decimal.NewFromInt(5000),
	}, actor)
	require.NoError(t, err)

	summary, err := env.svc.CostSummary(context.Background(), dto.ID)
	require.NoError(t, err)
	assert.True(t, summary.RecoveryCost.Equal(decimal.NewFromInt(15000)))
	assert.True(t, summary.StorageCost.Equal(decimal.NewFromInt(7000)))
	assert.True(t, summary.LegalCost.Equal(decimal.NewFromInt(5000)))
	assert.True(t, summary.TotalCost.Equal(decimal.NewFromInt(27000)))
	assert.Equal(t, 3, summary.ExpenseCount)
	assert.Equal(t, 3, summary.UnpaidCount)

	paid, err := env.svc.PayExpense(context.Background(), dto.ID, exp.ID, PayExpenseRequest{
		PaymentMethod: enums.PaymentMethodMpesa,
	})
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)

	// double payment rejected
	_, err = env.svc.PayExpense(context.Background(), dto.ID, exp.ID, PayExpenseRequest{
		PaymentMethod: enums.PaymentMethodCash,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	summary, err = env.svc.CostSummary(context.Background(), dto.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.UnpaidCount)
}

func TestLogContactValidation(t *testing.T) {
	env := newTestEnv(t)
	dto := env.openCase(t)

	_, err := env.svc.LogContact(context.Background(), dto.ID, LogContactRequest{
		Method:  enums.ContactPhone,
		Outcome: enums.OutcomePromiseToPay,
	}, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	contact, err := env.svc.LogContact(context.Background(), dto.ID, LogContactRequest{
		Method:  enums.ContactPhone,
		Outcome: enums.OutcomePromiseToPay,
		Summary: "Client promised to clear two installments by Friday",
	}, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, enums.OutcomePromiseToPay, contact.Outcome)

	contacts, err := env.svc.ListContacts(context.Background(), dto.ID)
	require.NoError(t, err)
	assert.Len(t, contacts, 1)
}
