package repossessions

import (
	"context"
	"errors"
	"fmt"
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

// Service manages repossession cases, notices, contacts, recovery
// attempts and case expenses.
type Service interface {
	Open(ctx context.Context, req OpenCaseRequest, initiatedBy uuid.UUID) (*CaseDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*CaseDTO, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) (Page[CaseDTO], error)
	Update(ctx context.Context, id uuid.UUID, req UpdateCaseRequest) (*CaseDTO, error)
	Transition(ctx context.Context, id uuid.UUID, req TransitionRequest, changedBy uuid.UUID) (*CaseDTO, error)
	Complete(ctx context.Context, id uuid.UUID, req CompleteCaseRequest, changedBy uuid.UUID) (*CaseDTO, error)
	History(ctx context.Context, id uuid.UUID) ([]HistoryDTO, error)
	CostSummary(ctx context.Context, id uuid.UUID) (*CostSummaryDTO, error)

	SendNotice(ctx context.Context, caseID uuid.UUID, req SendNoticeRequest, sentBy uuid.UUID) (*NoticeDTO, error)
	MarkNoticeDelivered(ctx context.Context, caseID, noticeID uuid.UUID) (*NoticeDTO, error)
	ListNotices(ctx context.Context, caseID uuid.UUID) ([]NoticeDTO, error)

	LogContact(ctx context.Context, caseID uuid.UUID, req LogContactRequest, contactedBy uuid.UUID) (*ContactDTO, error)
	ListContacts(ctx context.Context, caseID uuid.UUID) ([]ContactDTO, error)

	LogAttempt(ctx context.Context, caseID uuid.UUID, req LogAttemptRequest, attemptedBy uuid.UUID) (*AttemptDTO, error)
	ListAttempts(ctx context.Context, caseID uuid.UUID) ([]AttemptDTO, error)

	AddExpense(ctx context.Context, caseID uuid.UUID, req AddExpenseRequest, recordedBy uuid.UUID) (*ExpenseDTO, error)
	PayExpense(ctx context.Context, caseID, expenseID uuid.UUID, req PayExpenseRequest) (*ExpenseDTO, error)
	ListExpenses(ctx context.Context, caseID uuid.UUID) ([]ExpenseDTO, error)
}

type repository interface {
	CreateTx(tx *gorm.DB, repossession *models.Repossession) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Repossession, error)
	FindOpenByAgreement(ctx context.Context, clientVehicleID uuid.UUID) (*models.Repossession, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Repossession, error)
	Update(ctx context.Context, repossession *models.Repossession) error
	TransitionTx(tx *gorm.DB, caseID uuid.UUID, from, to enums.RepossessionStatus, updates map[string]any) (bool, error)
	AddCostTx(tx *gorm.DB, caseID uuid.UUID, column string, amount decimal.Decimal) error
	CreateHistoryTx(tx *gorm.DB, entry *models.RepossessionStatusHistory) error
	ListHistory(ctx context.Context, caseID uuid.UUID) ([]models.RepossessionStatusHistory, error)
	CreateNoticeTx(tx *gorm.DB, notice *models.RepossessionNotice) error
	FindNotice(ctx context.Context, id uuid.UUID) (*models.RepossessionNotice, error)
	ListNotices(ctx context.Context, caseID uuid.UUID) ([]models.RepossessionNotice, error)
	UpdateNotice(ctx context.Context, notice *models.RepossessionNotice) error
	CreateContact(ctx context.Context, contact *models.RepossessionContact) error
	ListContacts(ctx context.Context, caseID uuid.UUID) ([]models.RepossessionContact, error)
	CreateAttemptTx(tx *gorm.DB, attempt *models.RepossessionRecoveryAttempt) error
	ListAttempts(ctx context.Context, caseID uuid.UUID) ([]models.RepossessionRecoveryAttempt, error)
	CreateExpenseTx(tx *gorm.DB, expense *models.RepossessionExpense) error
	FindExpense(ctx context.Context, id uuid.UUID) (*models.RepossessionExpense, error)
	ListExpenses(ctx context.Context, caseID uuid.UUID) ([]models.RepossessionExpense, error)
	UpdateExpense(ctx context.Context, expense *models.RepossessionExpense) error
}

type agreementRepo interface {
	FindAgreement(ctx context.Context, id uuid.UUID) (*models.ClientVehicle, error)
}

type vehicleRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
	ChangeStatusTx(tx *gorm.DB, vehicle *models.Vehicle, newStatus enums.VehicleStatus, notes *string, changedBy *uuid.UUID, now time.Time) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type numberAllocator func(tx *gorm.DB, now time.Time) (string, error)

type service struct {
	repo       repository
	agreements agreementRepo
	vehicles   vehicleRepo
	db         txRunner
	emitter    eventEmitter
	nextNumber numberAllocator
}

// NewService wires the repossessions service.
func NewService(repo repository, agreements agreementRepo, vehicles vehicleRepo, db txRunner, emitter eventEmitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("repo is required")
	}
	if agreements == nil {
		return nil, fmt.Errorf("agreements repo is required")
	}
	if vehicles == nil {
		return nil, fmt.Errorf("vehicles repo is required")
	}
	if db == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("event emitter is required")
	}
	return &service{
		repo:       repo,
		agreements: agreements,
		vehicles:   vehicles,
		db:         db,
		emitter:    emitter,
		nextNumber: func(tx *gorm.DB, now time.Time) (string, error) {
			return refs.Next(tx, refs.Repossession, now)
		},
	}, nil
}

// caseTransitions is the allowed-move table for the case workflow.
var caseTransitions = map[enums.RepossessionStatus][]enums.RepossessionStatus{
	enums.RepoStatusPending: {
		enums.RepoStatusNoticeSent, enums.RepoStatusInProgress,
		enums.RepoStatusCancelled, enums.RepoStatusOnHold,
	},
	enums.RepoStatusNoticeSent: {
		enums.RepoStatusInProgress, enums.RepoStatusCancelled, enums.RepoStatusOnHold,
	},
	enums.RepoStatusInProgress: {
		enums.RepoStatusVehicleRecovered, enums.RepoStatusCancelled, enums.RepoStatusOnHold,
	},
	enums.RepoStatusVehicleRecovered: {enums.RepoStatusCompleted},
	enums.RepoStatusOnHold: {
		enums.RepoStatusPending, enums.RepoStatusNoticeSent,
		enums.RepoStatusInProgress, enums.RepoStatusCancelled,
	},
	enums.RepoStatusCompleted: {},
	enums.RepoStatusCancelled: {},
}

func caseCanMove(from, to enums.RepossessionStatus) bool {
	for _, allowed := range caseTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s *service) Open(ctx context.Context, req OpenCaseRequest, initiatedBy uuid.UUID) (*CaseDTO, error) {
	if !req.Reason.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid repossession reason %q", req.Reason))
	}
	if req.PaymentsMissed < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payments missed cannot be negative")
	}

	agreement, err := s.agreements.FindAgreement(ctx, req.ClientVehicleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "agreement not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load agreement")
	}
	if agreement.IsPaidOff {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "agreement is already paid off")
	}
	if existing, err := s.repo.FindOpenByAgreement(ctx, req.ClientVehicleID); err == nil && existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("agreement already has open case %s", existing.CaseNumber))
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check open cases")
	}

	outstanding := agreement.Balance
	if req.OutstandingAmount != nil {
		if req.OutstandingAmount.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "outstanding amount cannot be negative")
		}
		outstanding = *req.OutstandingAmount
	}

	actor := initiatedBy
	repossession := &models.Repossession{
		ClientVehicleID:    agreement.ID,
		Reason:             req.Reason,
		Status:             enums.RepoStatusPending,
		OutstandingAmount:  outstanding,
		PaymentsMissed:     req.PaymentsMissed,
		AssignedTo:         req.AssignedTo,
		LastKnownLocation:  req.LastKnownLocation,
		CourtOrderRequired: req.CourtOrderRequired,
		Notes:              req.Notes,
		InitiatedBy:        &actor,
	}
	now := time.Now().UTC()
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		number, err := s.nextNumber(tx, now)
		if err != nil {
			return err
		}
		repossession.CaseNumber = number
		return s.repo.CreateTx(tx, repossession)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "open repossession case")
	}
	return fromModel(repossession), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*CaseDTO, error) {
	repossession, err := s.findCase(ctx, id)
	if err != nil {
		return nil, err
	}
	return fromModel(repossession), nil
}

func (s *service) List(ctx context.Context, filter ListFilter, params pagination.Params) (Page[CaseDTO], error) {
	params.Limit = pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return Page[CaseDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list repossession cases")
	}
	items := make([]CaseDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *fromModel(&rows[i]))
	}
	return pageOf(items, params.Limit, func(c CaseDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: c.CreatedAt, ID: c.ID}
	}), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, req UpdateCaseRequest) (*CaseDTO, error) {
	repossession, err := s.findCase(ctx, id)
	if err != nil {
		return nil, err
	}
	switch repossession.Status {
	case enums.RepoStatusCompleted, enums.RepoStatusCancelled:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot edit a %s case", repossession.Status))
	}

	if req.PaymentsMissed != nil {
		if *req.PaymentsMissed < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "payments missed cannot be negative")
		}
		repossession.PaymentsMissed = *req.PaymentsMissed
	}
	if req.OutstandingAmount != nil {
		if req.OutstandingAmount.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "outstanding amount cannot be negative")
		}
		repossession.OutstandingAmount = *req.OutstandingAmount
	}
	if req.AssignedTo != nil {
		repossession.AssignedTo = req.AssignedTo
	}
	if req.LastKnownLocation != nil {
		repossession.LastKnownLocation = req.LastKnownLocation
	}
	if req.CourtOrderRequired != nil {
		repossession.CourtOrderRequired = *req.CourtOrderRequired
	}
	if req.CourtOrderNumber != nil {
		repossession.CourtOrderNumber = req.CourtOrderNumber
	}
	if req.Notes != nil {
		repossession.Notes = req.Notes
	}
	if err := s.repo.Update(ctx, repossession); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update repossession case")
	}
	return fromModel(repossession), nil
}

func (s *service) Transition(ctx context.Context, id uuid.UUID, req TransitionRequest, changedBy uuid.UUID) (*CaseDTO, error) {
	if !req.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status %q", req.Status))
	}
	if req.Status == enums.RepoStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "completion requires a resolution")
	}
	repossession, err := s.findCase(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.move(ctx, repossession, req.Status, optional(req.Reason), changedBy, nil)
}

func (s *service) Complete(ctx context.Context, id uuid.UUID, req CompleteCaseRequest, changedBy uuid.UUID) (*CaseDTO, error) {
	if !req.Resolution.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid resolution %q", req.Resolution))
	}
	repossession, err := s.findCase(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	updates := map[string]any{"resolution": req.Resolution, "completion_date": now}
	dto, err := s.move(ctx, repossession, enums.RepoStatusCompleted, optional(req.Reason), changedBy, updates)
	if err != nil {
		return nil, err
	}
	resolution := req.Resolution
	dto.Resolution = &resolution
	dto.CompletionDate = &now
	return dto, nil
}

// move runs one guarded transition: conditional UPDATE, history row and
// the status-changed event in a single transaction.
func (s *service) move(ctx context.Context, repossession *models.Repossession, to enums.RepossessionStatus, reason *string, changedBy uuid.UUID, updates map[string]any) (*CaseDTO, error) {
	from := repossession.Status
	if !caseCanMove(from, to) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("case cannot move from %s to %s", from, to))
	}

	now := time.Now().UTC()
	if updates == nil {
		updates = map[string]any{}
	}
	if to == enums.RepoStatusNoticeSent && repossession.NoticeSentDate == nil {
		updates["notice_sent_date"] = now
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		moved, err := s.repo.TransitionTx(tx, repossession.ID, from, to, updates)
		if err != nil {
			return err
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "case state changed, retry")
		}
		return s.recordMove(ctx, tx, repossession, from, to, reason, changedBy, now)
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "transition case")
	}
	repossession.Status = to
	return fromModel(repossession), nil
}

// recordMove writes the history row and emits the event. Callers hold the tx.
func (s *service) recordMove(ctx context.Context, tx *gorm.DB, repossession *models.Repossession, from, to enums.RepossessionStatus, reason *string, changedBy uuid.UUID, now time.Time) error {
	actor := changedBy
	if err := s.repo.CreateHistoryTx(tx, &models.RepossessionStatusHistory{
		RepossessionID: repossession.ID,
		OldStatus:      from,
		NewStatus:      to,
		Reason:         reason,
		ChangedBy:      &actor,
	}); err != nil {
		return err
	}

	agreement, err := s.agreements.FindAgreement(ctx, repossession.ClientVehicleID)
	if err != nil {
		return err
	}
	event := payloads.RepossessionStatusChangedEvent{
		RepossessionID: repossession.ID,
		CaseNumber:     repossession.CaseNumber,
		ClientID:       agreement.ClientID,
		OldStatus:      from,
		NewStatus:      to,
	}
	if reason != nil {
		event.Reason = *reason
	}
	return s.emitter.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventRepossessionStatusChanged,
		AggregateType: enums.AggregateRepossession,
		AggregateID:   repossession.ID,
		Actor:         &outbox.ActorRef{UserID: changedBy},
		Data:          event,
		Version:       1,
		OccurredAt:    now,
	})
}

func (s *service) History(ctx context.Context, id uuid.UUID) ([]HistoryDTO, error) {
	if _, err := s.findCase(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListHistory(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list case history")
	}
	items := make([]HistoryDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *historyFromModel(&rows[i]))
	}
	return items, nil
}

func (s *service) CostSummary(ctx context.Context, id uuid.UUID) (*CostSummaryDTO, error) {
	repossession, err := s.findCase(ctx, id)
	if err != nil {
		return nil, err
	}
	expenses, err := s.repo.ListExpenses(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list case expenses")
	}
	summary := &CostSummaryDTO{
		RecoveryCost: repossession.RecoveryCost,
		StorageCost:  repossession.StorageCost,
		LegalCost:    repossession.LegalCost,
		OtherCost:    repossession.OtherCost,
		TotalCost:    repossession.TotalCost(),
		ExpenseCount: len(expenses),
	}
	for i := range expenses {
		if !expenses[i].IsPaid {
			summary.UnpaidCount++
		}
	}
	return summary, nil
}

func (s *service) SendNotice(ctx context.Context, caseID uuid.UUID, req SendNoticeRequest, sentBy uuid.UUID) (*NoticeDTO, error) {
	if !req.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid notice type %q", req.Type))
	}
	if !req.DeliveryMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid delivery method %q", req.DeliveryMethod))
	}
	repossession, err := s.findCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	switch repossession.Status {
	case enums.RepoStatusCompleted, enums.RepoStatusCancelled:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot send notices on a %s case", repossession.Status))
	}

	now := time.Now().UTC()
	actor := sentBy
	notice := &models.RepossessionNotice{
		RepossessionID:   caseID,
		Type:             req.Type,
		DeliveryMethod:   req.DeliveryMethod,
		TrackingNumber:   req.TrackingNumber,
		SentAt:           now,
		ResponseDeadline: req.ResponseDeadline,
		Content:          req.Content,
		SentBy:           &actor,
	}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.CreateNoticeTx(tx, notice); err != nil {
			return err
		}
		// the first notice moves a pending case to notice_sent
		if repossession.Status != enums.RepoStatusPending {
			return nil
		}
		moved, err := s.repo.TransitionTx(tx, caseID,
			enums.RepoStatusPending, enums.RepoStatusNoticeSent,
			map[string]any{"notice_sent_date": now})
		if err != nil {
			return err
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "case state changed, retry")
		}
		reason := fmt.Sprintf("%s sent by %s", req.Type, req.DeliveryMethod)
		return s.recordMove(ctx, tx, repossession,
			enums.RepoStatusPending, enums.RepoStatusNoticeSent, &reason, sentBy, now)
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "send notice")
	}
	return noticeFromModel(notice, now), nil
}

func (s *service) MarkNoticeDelivered(ctx context.Context, caseID, noticeID uuid.UUID) (*NoticeDTO, error) {
	notice, err := s.repo.FindNotice(ctx, noticeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "notice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load notice")
	}
	if notice.RepossessionID != caseID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "notice not found")
	}
	now := time.Now().UTC()
	if !notice.IsDelivered {
		notice.IsDelivered = true
		notice.DeliveredAt = &now
		if err := s.repo.UpdateNotice(ctx, notice); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update notice")
		}
	}
	return noticeFromModel(notice, now), nil
}

func (s *service) ListNotices(ctx context.Context, caseID uuid.UUID) ([]NoticeDTO, error) {
	if _, err := s.findCase(ctx, caseID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListNotices(ctx, caseID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list notices")
	}
	now := time.Now().UTC()
	items := make([]NoticeDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *noticeFromModel(&rows[i], now))
	}
	return items, nil
}

func (s *service) LogContact(ctx context.Context, caseID uuid.UUID, req LogContactRequest, contactedBy uuid.UUID) (*ContactDTO, error) {
	if !req.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid contact method %q", req.Method))
	}
	if !req.Outcome.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid contact outcome %q", req.Outcome))
	}
	if req.Summary == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "summary is required")
	}
	if _, err := s.findCase(ctx, caseID); err != nil {
		return nil, err
	}

	contactedAt := time.Now().UTC()
	if req.ContactedAt != nil {
		contactedAt = *req.ContactedAt
	}
	actor := contactedBy
	contact := &models.RepossessionContact{
		RepossessionID: caseID,
		Method:         req.Method,
		Outcome:        req.Outcome,
		Summary:        req.Summary,
		FollowUpDate:   req.FollowUpDate,
		ContactedBy:    &actor,
		ContactedAt:    contactedAt,
	}
	if err := s.repo.CreateContact(ctx, contact); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "log contact")
	}
	return contactFromModel(contact), nil
}

func (s *service) ListContacts(ctx context.Context, caseID uuid.UUID) ([]ContactDTO, error) {
	if _, err := s.findCase(ctx, caseID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListContacts(ctx, caseID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list contacts")
	}
	items := make([]ContactDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *contactFromModel(&rows[i]))
	}
	return items, nil
}

func (s *service) LogAttempt(ctx context.Context, caseID uuid.UUID, req LogAttemptRequest, attemptedBy uuid.UUID) (*AttemptDTO, error) {
	if !req.Result.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid recovery result %q", req.Result))
	}
	if req.Location == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location is required")
	}
	if req.CostIncurred.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cost incurred cannot be negative")
	}
	repossession, err := s.findCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if repossession.Status != enums.RepoStatusInProgress {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			"recovery attempts require an in-progress case")
	}

	now := time.Now().UTC()
	attemptedAt := now
	if req.AttemptedAt != nil {
		attemptedAt = *req.AttemptedAt
	}
	teamSize := req.TeamSize
	if teamSize <= 0 {
		teamSize = 1
	}
	actor := attemptedBy
	attempt := &models.RepossessionRecoveryAttempt{
		RepossessionID:     caseID,
		AttemptedAt:        attemptedAt,
		Result:             req.Result,
		Location:           req.Location,
		TeamSize:           teamSize,
		PoliceInvolved:     req.PoliceInvolved,
		PoliceReportNumber: req.PoliceReportNumber,
		VehicleCondition:   req.VehicleCondition,
		CostIncurred:       req.CostIncurred,
		Notes:              req.Notes,
		AttemptedBy:        &actor,
	}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.CreateAttemptTx(tx, attempt); err != nil {
			return err
		}
		if req.CostIncurred.IsPositive() {
			if err := s.repo.AddCostTx(tx, caseID, "recovery_cost", req.CostIncurred); err != nil {
				return err
			}
		}
		if req.Result != enums.RecoverySuccessful {
			return nil
		}

		// a successful attempt recovers the vehicle
		updates := map[string]any{
			"recovery_date":     attemptedAt,
			"recovery_location": req.Location,
		}
		moved, err := s.repo.TransitionTx(tx, caseID,
			enums.RepoStatusInProgress, enums.RepoStatusVehicleRecovered, updates)
		if err != nil {
			return err
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "case state changed, retry")
		}

		agreement, err := s.agreements.FindAgreement(ctx, repossession.ClientVehicleID)
		if err != nil {
			return err
		}
		vehicle, err := s.vehicles.FindByID(ctx, agreement.VehicleID)
		if err != nil {
			return err
		}
		note := "recovered under case " + repossession.CaseNumber
		if err := s.vehicles.ChangeStatusTx(tx, vehicle, enums.VehicleStatusRepossessed, &note, &actor, now); err != nil {
			return err
		}
		reason := "vehicle recovered at " + req.Location
		return s.recordMove(ctx, tx, repossession,
			enums.RepoStatusInProgress, enums.RepoStatusVehicleRecovered, &reason, attemptedBy, now)
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "log recovery attempt")
	}
	return attemptFromModel(attempt), nil
}

func (s *service) ListAttempts(ctx context.Context, caseID uuid.UUID) ([]AttemptDTO, error) {
	if _, err := s.findCase(ctx, caseID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListAttempts(ctx, caseID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list recovery attempts")
	}
	items := make([]AttemptDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *attemptFromModel(&rows[i]))
	}
	return items, nil
}

// costColumn maps an expense type to the case's rollup bucket.
func costColumn(expenseType enums.RepoExpenseType) string {
	switch expenseType {
	case enums.RepoExpenseRecovery, enums.RepoExpenseTowing, enums.RepoExpenseTransport:
		return "recovery_cost"
	case enums.RepoExpenseStorage:
		return "storage_cost"
	case enums.RepoExpenseLegal, enums.RepoExpenseCourt:
		return "legal_cost"
	default:
		return "other_cost"
	}
}

func (s *service) AddExpense(ctx context.Context, caseID uuid.UUID, req AddExpenseRequest, recordedBy uuid.UUID) (*ExpenseDTO, error) {
	if !req.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid expense type %q", req.Type))
	}
	if req.Description == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	repossession, err := s.findCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	switch repossession.Status {
	case enums.RepoStatusCompleted, enums.RepoStatusCancelled:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot book expenses on a %s case", repossession.Status))
	}

	incurredOn := time.Now().UTC()
	if req.IncurredOn != nil {
		incurredOn = *req.IncurredOn
	}
	actor := recordedBy
	expense := &models.RepossessionExpense{
		RepossessionID: caseID,
		Type:           req.Type,
		Description:    req.Description,
		Amount:         req.Amount,
		IncurredOn:     incurredOn,
		RecordedBy:     &actor,
	}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.CreateExpenseTx(tx, expense); err != nil {
			return err
		}
		return s.repo.AddCostTx(tx, caseID, costColumn(req.Type), req.Amount)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add case expense")
	}
	return expenseFromModel(expense), nil
}

func (s *service) PayExpense(ctx context.Context, caseID, expenseID uuid.UUID, req PayExpenseRequest) (*ExpenseDTO, error) {
	if !req.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", req.PaymentMethod))
	}
	expense, err := s.repo.FindExpense(ctx, expenseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "expense not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load expense")
	}
	if expense.RepossessionID != caseID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "expense not found")
	}
	if expense.IsPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "expense is already paid")
	}

	now := time.Now().UTC()
	method := req.PaymentMethod
	expense.IsPaid = true
	expense.PaidAt = &now
	expense.PaymentMethod = &method
	if err := s.repo.UpdateExpense(ctx, expense); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update expense")
	}
	return expenseFromModel(expense), nil
}

func (s *service) ListExpenses(ctx context.Context, caseID uuid.UUID) ([]ExpenseDTO, error) {
	if _, err := s.findCase(ctx, caseID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListExpenses(ctx, caseID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list case expenses")
	}
	items := make([]ExpenseDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *expenseFromModel(&rows[i]))
	}
	return items, nil
}

func (s *service) findCase(ctx context.Context, id uuid.UUID) (*models.Repossession, error) {
	repossession, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "repossession case not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load repossession case")
	}
	return repossession, nil
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
