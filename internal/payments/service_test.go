package payments

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

type fakePaymentRepo struct {
	payments   map[uuid.UUID]*models.Payment
	agreements map[uuid.UUID]*models.ClientVehicle
	plans      map[uuid.UUID]*models.InstallmentPlan
	schedules  []*models.PaymentSchedule
	reminders  map[uuid.UUID]*models.PaymentReminder
	debtDeltas map[uuid.UUID]decimal.Decimal
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{
		payments:   make(map[uuid.UUID]*models.Payment),
		agreements: make(map[uuid.UUID]*models.ClientVehicle),
		plans:      make(map[uuid.UUID]*models.InstallmentPlan),
		reminders:  make(map[uuid.UUID]*models.PaymentReminder),
		debtDeltas: make(map[uuid.UUID]decimal.Decimal),
	}
}

func (f *fakePaymentRepo) CreateTx(_ *gorm.DB, payment *models.Payment) error {
	payment.ID = uuid.New()
	payment.CreatedAt = time.Now().UTC()
	f.payments[payment.ID] = payment
	return nil
}

func (f *fakePaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Payment, error) {
	payment, ok := f.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return payment, nil
}

func (f *fakePaymentRepo) List(_ context.Context, _ ListFilter, _ pagination.Params) ([]models.Payment, error) {
	out := make([]models.Payment, 0, len(f.payments))
	for _, payment := range f.payments {
		out = append(out, *payment)
	}
	return out, nil
}

func (f *fakePaymentRepo) ListAll(_ context.Context, _ ListFilter) ([]models.Payment, error) {
	return f.List(context.Background(), ListFilter{}, pagination.Params{})
}

func (f *fakePaymentRepo) FindAgreementTx(_ *gorm.DB, id uuid.UUID) (*models.ClientVehicle, error) {
	agreement, ok := f.agreements[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return agreement, nil
}

func (f *fakePaymentRepo) FindAgreement(_ context.Context, id uuid.UUID) (*models.ClientVehicle, error) {
	return f.FindAgreementTx(nil, id)
}

func (f *fakePaymentRepo) UpdateAgreementTx(_ *gorm.DB, agreement *models.ClientVehicle) error {
	f.agreements[agreement.ID] = agreement
	return nil
}

func (f *fakePaymentRepo) AddClientDebtTx(_ *gorm.DB, clientID uuid.UUID, delta decimal.Decimal) error {
	f.debtDeltas[clientID] = f.debtDeltas[clientID].Add(delta)
	return nil
}

func (f *fakePaymentRepo) CreatePlanTx(_ *gorm.DB, plan *models.InstallmentPlan) error {
	plan.ID = uuid.New()
	f.plans[plan.ID] = plan
	return nil
}

func (f *fakePaymentRepo) CreateSchedulesTx(_ *gorm.DB, rows []models.PaymentSchedule) error {
	for i := range rows {
		row := rows[i]
		row.ID = uuid.New()
		f.schedules = append(f.schedules, &row)
	}
	return nil
}

func (f *fakePaymentRepo) FindPlanByAgreement(_ context.Context, clientVehicleID uuid.UUID) (*models.InstallmentPlan, error) {
	for _, plan := range f.plans {
		if plan.ClientVehicleID == clientVehicleID {
			return plan, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePaymentRepo) ListSchedules(_ context.Context, planID uuid.UUID) ([]models.PaymentSchedule, error) {
	var out []models.PaymentSchedule
	for _, row := range f.schedules {
		if row.InstallmentPlanID == planID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (f *fakePaymentRepo) ListUnpaidSchedulesTx(_ *gorm.DB, clientVehicleID uuid.UUID) ([]models.PaymentSchedule, error) {
	var out []models.PaymentSchedule
	for _, row := range f.schedules {
		plan := f.plans[row.InstallmentPlanID]
		if plan == nil || plan.ClientVehicleID != clientVehicleID || !plan.IsActive || row.IsPaid {
			continue
		}
		out = append(out, *row)
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].DueDate.Before(out[i].DueDate) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (f *fakePaymentRepo) UpdateScheduleTx(_ *gorm.DB, schedule *models.PaymentSchedule) error {
	for i, row := range f.schedules {
		if row.ID == schedule.ID {
			updated := *schedule
			f.schedules[i] = &updated
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakePaymentRepo) DeactivatePlansTx(_ *gorm.DB, clientVehicleID uuid.UUID) error {
	for _, plan := range f.plans {
		if plan.ClientVehicleID == clientVehicleID {
			plan.IsActive = false
		}
	}
	return nil
}

func (f *fakePaymentRepo) ListOverdue(_ context.Context, now time.Time) ([]OverdueInstallment, error) {
	var out []OverdueInstallment
	for _, row := range f.schedules {
		plan := f.plans[row.InstallmentPlanID]
		if plan == nil || !plan.IsActive || !row.IsOverdue(now) {
			continue
		}
		agreement := f.agreements[plan.ClientVehicleID]
		out = append(out, OverdueInstallment{
			Schedule:        *row,
			ClientVehicleID: agreement.ID,
			ClientID:        agreement.ClientID,
		})
	}
	return out, nil
}

func (f *fakePaymentRepo) HasPendingReminder(_ context.Context, scheduleID uuid.UUID) (bool, error) {
	for _, reminder := range f.reminders {
		if reminder.PaymentScheduleID == scheduleID && reminder.Status == enums.ReminderStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePaymentRepo) FindSchedule(_ context.Context, id uuid.UUID) (*models.PaymentSchedule, error) {
	for _, row := range f.schedules {
		if row.ID == id {
			return row, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePaymentRepo) CreateReminder(_ context.Context, reminder *models.PaymentReminder) error {
	reminder.ID = uuid.New()
	reminder.CreatedAt = time.Now().UTC()
	f.reminders[reminder.ID] = reminder
	return nil
}

func (f *fakePaymentRepo) CreateReminderTx(_ *gorm.DB, reminder *models.PaymentReminder) error {
	return f.CreateReminder(context.Background(), reminder)
}

func (f *fakePaymentRepo) FindReminder(_ context.Context, id uuid.UUID) (*models.PaymentReminder, error) {
	reminder, ok := f.reminders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return reminder, nil
}

func (f *fakePaymentRepo) ListReminders(_ context.Context, scheduleID uuid.UUID) ([]models.PaymentReminder, error) {
	var out []models.PaymentReminder
	for _, reminder := range f.reminders {
		if reminder.PaymentScheduleID == scheduleID {
			out = append(out, *reminder)
		}
	}
	return out, nil
}

func (f *fakePaymentRepo) UpdateReminder(_ context.Context, reminder *models.PaymentReminder) error {
	f.reminders[reminder.ID] = reminder
	return nil
}

func (f *fakePaymentRepo) Summary(_ context.Context, _ time.Time) (*SummaryDTO, error) {
	return &SummaryDTO{}, nil
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

func newTestService(t *testing.T) (*service, *fakePaymentRepo, *fakeEmitter) {
	t.Helper()
	repo := newFakePaymentRepo()
	emitter := &fakeEmitter{}
	svc, err := NewService(repo, fakeTxRunner{}, emitter)
	require.NoError(t, err)

	concrete := svc.(*service)
	receipts := 0
	concrete.nextReceipt = func(_ *gorm.DB, now time.Time) (string, error) {
		receipts++
		return fmt.Sprintf("RCP-%s-%04d", now.Format("20060102"), receipts), nil
	}
	return concrete, repo, emitter
}

func seedAgreement(repo *fakePaymentRepo, balance decimal.Decimal) *models.ClientVehicle {
	agreement := &models.ClientVehicle{
		ID:            uuid.New(),
		ClientID:      uuid.New(),
		VehicleID:     uuid.New(),
		PurchasePrice: decimal.NewFromInt(1250000),
		DepositPaid:   decimal.NewFromInt(250000),
		TotalPaid:     decimal.NewFromInt(250000),
		Balance:       balance,
	}
	repo.agreements[agreement.ID] = agreement
	return agreement
}

func seedPlanWithSchedules(repo *fakePaymentRepo, agreement *models.ClientVehicle, monthly decimal.Decimal, months int, start time.Time) *models.InstallmentPlan {
	plan := &models.InstallmentPlan{
		ID:                 uuid.New(),
		ClientVehicleID:    agreement.ID,
		Principal:          agreement.Balance,
		TotalAmount:        monthly.Mul(decimal.NewFromInt(int64(months))),
		Months:             months,
		MonthlyInstallment: monthly,
		StartDate:          start,
		EndDate:            start.AddDate(0, months, 0),
		IsActive:           true,
	}
	repo.plans[plan.ID] = plan
	for i := 1; i <= months; i++ {
		repo.schedules = append(repo.schedules, &models.PaymentSchedule{
			ID:                uuid.New(),
			InstallmentPlanID: plan.ID,
			InstallmentNumber: i,
			DueDate:           start.AddDate(0, i, 0),
			AmountDue:         monthly,
			AmountPaid:        decimal.Zero,
		})
	}
	return plan
}

func TestRecordPaymentSettlesOldestFirst(t *testing.T) {
	svc, repo, emitter := newTestService(t)
	agreement := seedAgreement(repo, decimal.NewFromInt(300000))
	start := time.Now().UTC().AddDate(0, -3, 0)
	seedPlanWithSchedules(repo, agreement, decimal.NewFromInt(100000), 3, start)

	dto, err := svc.Record(context.Background(), RecordPaymentRequest{
		ClientVehicleID: agreement.ID,
		Amount:          decimal.NewFromInt(150000),
		Method:          enums.PaymentMethodMpesa,
	}, uuid.New())
	require.NoError(t, err)
	assert.Contains(t, dto.ReceiptNumber, "RCP-")

	// first installment settled, second half-paid
	assert.True(t, repo.schedules[0].IsPaid)
	assert.True(t, repo.schedules[0].AmountPaid.Equal(decimal.NewFromInt(100000)))
	assert.False(t, repo.schedules[1].IsPaid)
	assert.True(t, repo.schedules[1].AmountPaid.Equal(decimal.NewFromInt(50000)))

	assert.True(t, agreement.Balance.Equal(decimal.NewFromInt(150000)))
	assert.True(t, repo.debtDeltas[agreement.ClientID].Equal(decimal.NewFromInt(-150000)))

	require.Len(t, emitter.events, 1)
	assert.Equal(t, enums.EventPaymentRecorded, emitter.events[0].EventType)
	payload := emitter.events[0].Data.(payloads.PaymentRecordedEvent)
	assert.False(t, payload.PaidOff)
	assert.True(t, payload.Balance.Equal(decimal.NewFromInt(150000)))
}

func TestRecordPaymentPaysOffAgreement(t *testing.T) {
	svc, repo, emitter := newTestService(t)
	agreement := seedAgreement(repo, decimal.NewFromInt(100000))
	start := time.Now().UTC().AddDate(0, -1, 0)
	plan := seedPlanWithSchedules(repo, agreement, decimal.NewFromInt(100000), 1, start)

	_, err := svc.Record(context.Background(), RecordPaymentRequest{
		ClientVehicleID: agreement.ID,
		Amount:          decimal.NewFromInt(100000),
		Method:          enums.PaymentMethodCash,
	}, uuid.New())
	require.NoError(t, err)

	assert.True(t, agreement.IsPaidOff)
	require.NotNil(t, agreement.PaidOffDate)
	assert.True(t, agreement.Balance.IsZero())
	assert.False(t, plan.IsActive)

	payload := emitter.events[0].Data.(payloads.PaymentRecordedEvent)
	assert.True(t, payload.PaidOff)
}

func TestRecordPaymentRejectsPaidOffAgreement(t *testing.T) {
	svc, repo, _ := newTestService(t)
	agreement := seedAgreement(repo, decimal.Zero)
	agreement.IsPaidOff = true

	_, err := svc.Record(context.Background(), RecordPaymentRequest{
		ClientVehicleID: agreement.ID,
		Amount:          decimal.NewFromInt(1000),
		Method:          enums.PaymentMethodCash,
	}, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestRecordPaymentRejectsNonPositiveAmount(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Record(context.Background(), RecordPaymentRequest{
		ClientVehicleID: uuid.New(),
		Amount:          decimal.Zero,
		Method:          enums.PaymentMethodCash,
	}, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestCreatePlanGeneratesSchedule(t *testing.T) {
	svc, repo, _ := newTestService(t)
	agreement := seedAgreement(repo, decimal.NewFromInt(1000000))

	rate := decimal.NewFromInt(10)
	dto, err := svc.CreatePlan(context.Background(), CreatePlanRequest{
		ClientVehicleID: agreement.ID,
		InterestRate:    &rate,
		Months:          12,
	})
	require.NoError(t, err)

	// principal 1,000,000 at 10% over 12 months: interest 100,000
	assert.True(t, dto.Principal.Equal(decimal.NewFromInt(1000000)))
	assert.True(t, dto.TotalInterest.Equal(decimal.NewFromInt(100000)))
	assert.True(t, dto.TotalAmount.Equal(decimal.NewFromInt(1100000)))
	require.Len(t, dto.Schedule, 12)

	// schedule sums exactly to the total despite per-row rounding
	sum := decimal.Zero
	for _, row := range dto.Schedule {
		sum = sum.Add(row.AmountDue)
	}
	assert.True(t, sum.Equal(dto.TotalAmount), "schedule sums to %s", sum)
	assert.Equal(t, 1, dto.Schedule[0].InstallmentNumber)
	assert.Equal(t, 12, dto.Schedule[11].InstallmentNumber)
}

func TestCreatePlanRejectsDuplicate(t *testing.T) {
	svc, repo, _ := newTestService(t)
	agreement := seedAgreement(repo, decimal.NewFromInt(500000))
	seedPlanWithSchedules(repo, agreement, decimal.NewFromInt(50000), 10, time.Now().UTC())

	_, err := svc.CreatePlan(context.Background(), CreatePlanRequest{
		ClientVehicleID: agreement.ID,
		Months:          10,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestScanOverdueEmitsAndQueuesReminder(t *testing.T) {
	svc, repo, emitter := newTestService(t)
	agreement := seedAgreement(repo, decimal.NewFromInt(300000))
	start := time.Now().UTC().AddDate(0, -4, 0)
	seedPlanWithSchedules(repo, agreement, decimal.NewFromInt(100000), 3, start)

	now := time.Now().UTC()
	flagged, err := svc.ScanOverdue(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 3, flagged)
	assert.Len(t, emitter.events, 3)
	assert.Len(t, repo.reminders, 3)
	for _, event := range emitter.events {
		assert.Equal(t, enums.EventPaymentOverdue, event.EventType)
		payload := event.Data.(payloads.PaymentOverdueEvent)
		assert.Equal(t, agreement.ClientID, payload.ClientID)
		assert.Greater(t, payload.DaysOverdue, 0)
	}

	// a second scan emits again but does not stack pending reminders
	flagged, err = svc.ScanOverdue(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 3, flagged)
	assert.Len(t, repo.reminders, 3)
}

func TestReminderTransitions(t *testing.T) {
	svc, repo, _ := newTestService(t)
	agreement := seedAgreement(repo, decimal.NewFromInt(100000))
	seedPlanWithSchedules(repo, agreement, decimal.NewFromInt(100000), 1, time.Now().UTC().AddDate(0, -2, 0))
	scheduleID := repo.schedules[0].ID

	reminder, err := svc.CreateReminder(context.Background(), scheduleID, CreateReminderRequest{
		Type:    enums.ReminderTypeCall,
		Message: "please settle installment 1",
	}, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, enums.ReminderStatusPending, reminder.Status)

	// pending -> responded is not allowed
	_, err = svc.UpdateReminder(context.Background(), reminder.ID, UpdateReminderRequest{
		Status: enums.ReminderStatusResponded,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	sent, err := svc.UpdateReminder(context.Background(), reminder.ID, UpdateReminderRequest{
		Status: enums.ReminderStatusSent,
	})
	require.NoError(t, err)
	require.NotNil(t, sent.SentAt)

	response := "will pay friday"
	responded, err := svc.UpdateReminder(context.Background(), reminder.ID, UpdateReminderRequest{
		Status:         enums.ReminderStatusResponded,
		ClientResponse: &response,
	})
	require.NoError(t, err)
	require.NotNil(t, responded.ClientResponse)
	assert.Equal(t, response, *responded.ClientResponse)
}

func TestReceiptPDFRendersDocument(t *testing.T) {
	svc, repo, _ := newTestService(t)
	agreement := seedAgreement(repo, decimal.NewFromInt(300000))

	dto, err := svc.Record(context.Background(), RecordPaymentRequest{
		ClientVehicleID: agreement.ID,
		Amount:          decimal.NewFromInt(50000),
		Method:          enums.PaymentMethodBankTransfer,
	}, uuid.New())
	require.NoError(t, err)

	out, err := svc.ReceiptPDF(context.Background(), dto.ID)
	require.NoError(t, err)
	assert.True(t, len(out) > 0)
	assert.Equal(t, "%PDF-", string(out[:5]))
}
