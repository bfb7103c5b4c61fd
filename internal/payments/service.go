package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	pkgerrors "github.com/dealerdeskhq/dealerdesk-backend/pkg/errors"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/outbox"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/outbox/payloads"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/refs"
)

// Service exposes payment recording, financing and collections.
type Service interface {
	Record(ctx context.Context, req RecordPaymentRequest, recordedBy uuid.UUID) (*PaymentDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*PaymentDTO, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) (Page[PaymentDTO], error)
	CreatePlan(ctx context.Context, req CreatePlanRequest) (*PlanDTO, error)
	PlanForAgreement(ctx context.Context, clientVehicleID uuid.UUID) (*PlanDTO, error)
	CreateReminder(ctx context.Context, scheduleID uuid.UUID, req CreateReminderRequest, createdBy uuid.UUID) (*ReminderDTO, error)
	UpdateReminder(ctx context.Context, id uuid.UUID, req UpdateReminderRequest) (*ReminderDTO, error)
	ListReminders(ctx context.Context, scheduleID uuid.UUID) ([]ReminderDTO, error)
	ScanOverdue(ctx context.Context, now time.Time) (int, error)
	Summary(ctx context.Context) (*SummaryDTO, error)
	ReceiptPDF(ctx context.Context, id uuid.UUID) ([]byte, error)
	ExportCSV(ctx context.Context, filter ListFilter) ([]byte, error)
	ExportPDF(ctx context.Context, filter ListFilter) ([]byte, error)
}

type repository interface {
	CreateTx(tx *gorm.DB, payment *models.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Payment, error)
	ListAll(ctx context.Context, filter ListFilter) ([]models.Payment, error)
	FindAgreementTx(tx *gorm.DB, id uuid.UUID) (*models.ClientVehicle, error)
	FindAgreement(ctx context.Context, id uuid.UUID) (*models.ClientVehicle, error)
	UpdateAgreementTx(tx *gorm.DB, agreement *models.ClientVehicle) error
	AddClientDebtTx(tx *gorm.DB, clientID uuid.UUID, delta decimal.Decimal) error
	CreatePlanTx(tx *gorm.DB, plan *models.InstallmentPlan) error
	CreateSchedulesTx(tx *gorm.DB, rows []models.PaymentSchedule) error
	FindPlanByAgreement(ctx context.Context, clientVehicleID uuid.UUID) (*models.InstallmentPlan, error)
	ListSchedules(ctx context.Context, planID uuid.UUID) ([]models.PaymentSchedule, error)
	ListUnpaidSchedulesTx(tx *gorm.DB, clientVehicleID uuid.UUID) ([]models.PaymentSchedule, error)
	UpdateScheduleTx(tx *gorm.DB, schedule *models.PaymentSchedule) error
	DeactivatePlansTx(tx *gorm.DB, clientVehicleID uuid.UUID) error
	ListOverdue(ctx context.Context, now time.Time) ([]OverdueInstallment, error)
	HasPendingReminder(ctx context.Context, scheduleID uuid.UUID) (bool, error)
	FindSchedule(ctx context.Context, id uuid.UUID) (*models.PaymentSchedule, error)
	CreateReminder(ctx context.Context, reminder *models.PaymentReminder) error
	CreateReminderTx(tx *gorm.DB, reminder *models.PaymentReminder) error
	FindReminder(ctx context.Context, id uuid.UUID) (*models.PaymentReminder, error)
	ListReminders(ctx context.Context, scheduleID uuid.UUID) ([]models.PaymentReminder, error)
	UpdateReminder(ctx context.Context, reminder *models.PaymentReminder) error
	Summary(ctx context.Context, now time.Time) (*SummaryDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// receiptAllocator abstracts receipt number allocation for tests.
type receiptAllocator func(tx *gorm.DB, now time.Time) (string, error)

type service struct {
	repo        repository
	db          txRunner
	emitter     eventEmitter
	nextReceipt receiptAllocator
}

// NewService wires the payments service.
func NewService(repo repository, db txRunner, emitter eventEmitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository is required")
	}
	if db == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("event emitter is required")
	}
	return &service{
		repo:    repo,
		db:      db,
		emitter: emitter,
		nextReceipt: func(tx *gorm.DB, now time.Time) (string, error) {
			return refs.Next(tx, refs.Receipt, now)
		},
	}, nil
}

func (s *service) Record(ctx context.Context, req RecordPaymentRequest, recordedBy uuid.UUID) (*PaymentDTO, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if !req.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	now := time.Now().UTC()
	paymentDate := now
	if req.PaymentDate != nil {
		paymentDate = req.PaymentDate.UTC()
		if paymentDate.After(now.Add(24 * time.Hour)) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment date cannot be in the future")
		}
	}

	recordedByID := recordedBy
	var payment *models.Payment
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		agreement, err := s.repo.FindAgreementTx(tx, req.ClientVehicleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "agreement not found")
			}
			return err
		}
		if agreement.IsPaidOff {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "agreement is already paid off")
		}

		receipt, err := s.nextReceipt(tx, now)
		if err != nil {
			return err
		}
		payment = &models.Payment{
			ReceiptNumber:   receipt,
			ClientVehicleID: agreement.ID,
			Amount:          req.Amount,
			Method:          req.Method,
			TransactionRef:  req.TransactionRef,
			PaymentDate:     paymentDate,
			Notes:           req.Notes,
			RecordedBy:      &recordedByID,
		}
		if err := s.repo.CreateTx(tx, payment); err != nil {
			return err
		}

		if err := s.settleSchedules(tx, agreement.ID, payment, now); err != nil {
			return err
		}

		agreement.TotalPaid = agreement.TotalPaid.Add(req.Amount)
		agreement.Balance = agreement.Balance.Sub(req.Amount)
		paidOff := agreement.Balance.LessThanOrEqual(decimal.Zero)
		if paidOff {
			agreement.Balance = decimal.Zero
			agreement.IsPaidOff = true
			paidDate := now
			agreement.PaidOffDate = &paidDate
			if err := s.repo.DeactivatePlansTx(tx, agreement.ID); err != nil {
				return err
			}
		}
		if err := s.repo.UpdateAgreementTx(tx, agreement); err != nil {
			return err
		}
		if err := s.repo.AddClientDebtTx(tx, agreement.ClientID, req.Amount.Neg()); err != nil {
			return err
		}

		return s.emitter.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentRecorded,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Actor:         &outbox.ActorRef{UserID: recordedBy},
			Data: payloads.PaymentRecordedEvent{
				PaymentID:       payment.ID,
				ReceiptNumber:   payment.ReceiptNumber,
				ClientVehicleID: agreement.ID,
				ClientID:        agreement.ClientID,
				Amount:          payment.Amount,
				Balance:         agreement.Balance,
				PaidOff:         agreement.IsPaidOff,
			},
			Version:    1,
			OccurredAt: now,
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record payment")
	}
	return fromModel(payment), nil
}

// settleSchedules applies the payment to unpaid installments oldest
// first. Partial amounts accumulate on the earliest open row.
func (s *service) settleSchedules(tx *gorm.DB, clientVehicleID uuid.UUID, payment *models.Payment, now time.Time) error {
	schedules, err := s.repo.ListUnpaidSchedulesTx(tx, clientVehicleID)
	if err != nil {
		return err
	}
	remaining := payment.Amount
	for i := range schedules {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		row := &schedules[i]
		owed := row.AmountDue.Sub(row.AmountPaid)
		applied := decimal.Min(owed, remaining)
		row.AmountPaid = row.AmountPaid.Add(applied)
		remaining = remaining.Sub(applied)
		if row.AmountPaid.GreaterThanOrEqual(row.AmountDue) {
			row.IsPaid = true
			paidDate := now
			row.PaidDate = &paidDate
			row.PaymentID = &payment.ID
		}
		if err := s.repo.UpdateScheduleTx(tx, row); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*PaymentDTO, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find payment")
	}
	return fromModel(payment), nil
}

func (s *service) List(ctx context.Context, filter ListFilter, params pagination.Params) (Page[PaymentDTO], error) {
	rows, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return Page[PaymentDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list payments")
	}
	items := make([]PaymentDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *fromModel(&rows[i]))
	}
	return pageOf(items, params.Limit, func(item PaymentDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: item.CreatedAt, ID: item.ID}
	}), nil
}

func (s *service) CreatePlan(ctx context.Context, req CreatePlanRequest) (*PlanDTO, error) {
	if req.Months < 1 || req.Months > 120 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "months must be between 1 and 120")
	}
	rate := decimal.Zero
	if req.InterestRate != nil {
		if req.InterestRate.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "interest rate must not be negative")
		}
		rate = *req.InterestRate
	}

	agreement, err := s.repo.FindAgreement(ctx, req.ClientVehicleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "agreement not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find agreement")
	}
	if agreement.IsPaidOff {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "agreement is already paid off")
	}
	if _, err := s.repo.FindPlanByAgreement(ctx, agreement.ID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "agreement already has an installment plan")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup plan")
	}

	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if req.StartDate != nil {
		d := req.StartDate.UTC()
		start = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	}

	principal := agreement.PurchasePrice.Sub(agreement.DepositPaid)
	// simple interest: principal * rate% * months/12
	totalInterest := principal.
		Mul(rate).
		Div(decimal.NewFromInt(100)).
		Mul(decimal.NewFromInt(int64(req.Months))).
		Div(decimal.NewFromInt(12)).
		Round(2)
	totalAmount := principal.Add(totalInterest)
	monthly := totalAmount.Div(decimal.NewFromInt(int64(req.Months))).Round(2)

	plan := &models.InstallmentPlan{
		ClientVehicleID:    agreement.ID,
		Principal:          principal,
		InterestRate:       rate,
		TotalInterest:      totalInterest,
		TotalAmount:        totalAmount,
		Months:             req.Months,
		MonthlyInstallment: monthly,
		StartDate:          start,
		EndDate:            start.AddDate(0, req.Months, 0),
		IsActive:           true,
	}

	var schedule []models.PaymentSchedule
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.CreatePlanTx(tx, plan); err != nil {
			return err
		}
		schedule = buildSchedule(plan)
		return s.repo.CreateSchedulesTx(tx, schedule)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create installment plan")
	}
	return planFromModel(plan, schedule, now), nil
}

// buildSchedule generates the monthly rows; the final installment
// absorbs the rounding remainder so the schedule sums to the total.
func buildSchedule(plan *models.InstallmentPlan) []models.PaymentSchedule {
	rows := make([]models.PaymentSchedule, 0, plan.Months)
	allocated := decimal.Zero
	for i := 1; i <= plan.Months; i++ {
		due := plan.MonthlyInstallment
		if i == plan.Months {
			due = plan.TotalAmount.Sub(allocated)
		}
		allocated = allocated.Add(due)
		rows = append(rows, models.PaymentSchedule{
			InstallmentPlanID: plan.ID,
			InstallmentNumber: i,
			DueDate:           plan.StartDate.AddDate(0, i, 0),
			AmountDue:         due,
			AmountPaid:        decimal.Zero,
		})
	}
	return rows
}

func (s *service) PlanForAgreement(ctx context.Context, clientVehicleID uuid.UUID) (*PlanDTO, error) {
	plan, err := s.repo.FindPlanByAgreement(ctx, clientVehicleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "installment plan not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find plan")
	}
	schedule, err := s.repo.ListSchedules(ctx, plan.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list schedule")
	}
	return planFromModel(plan, schedule, time.Now().UTC()), nil
}

func (s *service) CreateReminder(ctx context.Context, scheduleID uuid.UUID, req CreateReminderRequest, createdBy uuid.UUID) (*ReminderDTO, error) {
	if !req.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid reminder type")
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message is required")
	}
	if _, err := s.repo.FindSchedule(ctx, scheduleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "installment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find installment")
	}

	createdByID := createdBy
	reminder := &models.PaymentReminder{
		PaymentScheduleID: scheduleID,
		Type:              req.Type,
		Status:            enums.ReminderStatusPending,
		Message:           message,
		CreatedBy:         &createdByID,
	}
	if err := s.repo.CreateReminder(ctx, reminder); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create reminder")
	}
	return reminderFromModel(reminder), nil
}

var reminderTransitions = map[enums.ReminderStatus][]enums.ReminderStatus{
	enums.ReminderStatusPending: {enums.ReminderStatusSent, enums.ReminderStatusFailed},
	enums.ReminderStatusSent:    {enums.ReminderStatusResponded},
	enums.ReminderStatusFailed:  {enums.ReminderStatusPending},
}

func (s *service) UpdateReminder(ctx context.Context, id uuid.UUID, req UpdateReminderRequest) (*ReminderDTO, error) {
	if !req.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid reminder status")
	}
	reminder, err := s.repo.FindReminder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reminder not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find reminder")
	}

	allowed := false
	for _, next := range reminderTransitions[reminder.Status] {
		if next == req.Status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move reminder from %s to %s", reminder.Status, req.Status))
	}

	reminder.Status = req.Status
	if req.Status == enums.ReminderStatusSent {
		now := time.Now().UTC()
		reminder.SentAt = &now
	}
	if req.ClientResponse != nil {
		reminder.ClientResponse = req.ClientResponse
	}
	if err := s.repo.UpdateReminder(ctx, reminder); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update reminder")
	}
	return reminderFromModel(reminder), nil
}

func (s *service) ListReminders(ctx context.Context, scheduleID uuid.UUID) ([]ReminderDTO, error) {
	rows, err := s.repo.ListReminders(ctx, scheduleID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list reminders")
	}
	items := make([]ReminderDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *reminderFromModel(&rows[i]))
	}
	return items, nil
}

// ScanOverdue emits payment.overdue per overdue installment and queues
// an SMS reminder when none is pending. Returns the number of rows
// flagged; used by the nightly cron.
func (s *service) ScanOverdue(ctx context.Context, now time.Time) (int, error) {
	overdue, err := s.repo.ListOverdue(ctx, now)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "scan overdue installments")
	}

	flagged := 0
	for _, row := range overdue {
		pending, err := s.repo.HasPendingReminder(ctx, row.Schedule.ID)
		if err != nil {
			return flagged, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check pending reminder")
		}

		schedule := row.Schedule
		clientVehicleID := row.ClientVehicleID
		clientID := row.ClientID
		err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
			if !pending {
				reminder := &models.PaymentReminder{
					PaymentScheduleID: schedule.ID,
					Type:              enums.ReminderTypeSMS,
					Status:            enums.ReminderStatusPending,
					Message: fmt.Sprintf("Installment of %s due %s is overdue by %d day(s).",
						schedule.AmountDue.Sub(schedule.AmountPaid).StringFixed(2),
						schedule.DueDate.Format("2006-01-02"),
						schedule.DaysOverdue(now)),
				}
				if err := s.repo.CreateReminderTx(tx, reminder); err != nil {
					return err
				}
			}
			return s.emitter.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventPaymentOverdue,
				AggregateType: enums.AggregateAgreement,
				AggregateID:   clientVehicleID,
				Data: payloads.PaymentOverdueEvent{
					ScheduleID:      schedule.ID,
					ClientVehicleID: clientVehicleID,
					ClientID:        clientID,
					DueDate:         schedule.DueDate,
					AmountDue:       schedule.AmountDue.Sub(schedule.AmountPaid),
					DaysOverdue:     schedule.DaysOverdue(now),
				},
				Version:    1,
				OccurredAt: now,
			})
		})
		if err != nil {
			return flagged, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "flag overdue installment")
		}
		flagged++
	}
	return flagged, nil
}

func (s *service) Summary(ctx context.Context) (*SummaryDTO, error) {
	summary, err := s.repo.Summary(ctx, time.Now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "payment summary")
	}
	return summary, nil
}
