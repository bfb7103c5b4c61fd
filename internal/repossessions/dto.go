package repossessions

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
)

// CaseDTO is the API shape of a repossession case.
type CaseDTO struct {
	ID                 uuid.UUID                     `json:"id"`
	CaseNumber         string                        `json:"case_number"`
	ClientVehicleID    uuid.UUID                     `json:"client_vehicle_id"`
	Reason             enums.RepossessionReason      `json:"reason"`
	Status             enums.RepossessionStatus      `json:"status"`
	OutstandingAmount  decimal.Decimal               `json:"outstanding_amount"`
	PaymentsMissed     int                           `json:"payments_missed"`
	NoticeSentDate     *time.Time                    `json:"notice_sent_date,omitempty"`
	RecoveryDate       *time.Time                    `json:"recovery_date,omitempty"`
	CompletionDate     *time.Time                    `json:"completion_date,omitempty"`
	AssignedTo         *uuid.UUID                    `json:"assigned_to,omitempty"`
	LastKnownLocation  *string                       `json:"last_known_location,omitempty"`
	RecoveryLocation   *string                       `json:"recovery_location,omitempty"`
	RecoveryMethod     *string                       `json:"recovery_method,omitempty"`
	RecoveryAgent      *string                       `json:"recovery_agent,omitempty"`
	CourtOrderRequired bool                          `json:"court_order_required"`
	CourtOrderNumber   *string                       `json:"court_order_number,omitempty"`
	RecoveryCost       decimal.Decimal               `json:"recovery_cost"`
	StorageCost        decimal.Decimal               `json:"storage_cost"`
	LegalCost          decimal.Decimal               `json:"legal_cost"`
	OtherCost          decimal.Decimal               `json:"other_cost"`
	TotalCost          decimal.Decimal               `json:"total_cost"`
	Resolution         *enums.RepossessionResolution `json:"resolution,omitempty"`
	Notes              *string                       `json:"notes,omitempty"`
	CreatedAt          time.Time                     `json:"created_at"`
}

// NoticeDTO is the API shape of a repossession notice.
type NoticeDTO struct {
	ID               uuid.UUID                  `json:"id"`
	RepossessionID   uuid.UUID                  `json:"repossession_id"`
	Type             enums.NoticeType           `json:"type"`
	DeliveryMethod   enums.NoticeDeliveryMethod `json:"delivery_method"`
	TrackingNumber   *string                    `json:"tracking_number,omitempty"`
	SentAt           time.Time                  `json:"sent_at"`
	IsDelivered      bool                       `json:"is_delivered"`
	DeliveredAt      *time.Time                 `json:"delivered_at,omitempty"`
	ResponseDeadline *time.Time                 `json:"response_deadline,omitempty"`
	ResponseOverdue  bool                       `json:"response_overdue"`
	Content          *string                    `json:"content,omitempty"`
	CreatedAt        time.Time                  `json:"created_at"`
}

// ContactDTO is the API shape of a client outreach record.
type ContactDTO struct {
	ID             uuid.UUID            `json:"id"`
	RepossessionID uuid.UUID            `json:"repossession_id"`
	Method         enums.ContactMethod  `json:"method"`
	Outcome        enums.ContactOutcome `json:"outcome"`
	Summary        string               `json:"summary"`
	FollowUpDate   *time.Time           `json:"follow_up_date,omitempty"`
	ContactedAt    time.Time            `json:"contacted_at"`
	CreatedAt      time.Time            `json:"created_at"`
}

// AttemptDTO is the API shape of a recovery attempt.
type AttemptDTO struct {
	ID                 uuid.UUID            `json:"id"`
	RepossessionID     uuid.UUID            `json:"repossession_id"`
	AttemptedAt        time.Time            `json:"attempted_at"`
	Result             enums.RecoveryResult `json:"result"`
	Location           string               `json:"location"`
	TeamSize           int                  `json:"team_size"`
	PoliceInvolved     bool                 `json:"police_involved"`
	PoliceReportNumber *string              `json:"police_report_number,omitempty"`
	VehicleCondition   *string              `json:"vehicle_condition,omitempty"`
	CostIncurred       decimal.Decimal      `json:"cost_incurred"`
	Notes              *string              `json:"notes,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
}

// ExpenseDTO is the API shape of a case expense.
type ExpenseDTO struct {
	ID             uuid.UUID             `json:"id"`
	RepossessionID uuid.UUID             `json:"repossession_id"`
	Type           enums.RepoExpenseType `json:"type"`
	Description    string                `json:"description"`
	Amount         decimal.Decimal       `json:"amount"`
	IncurredOn     time.Time             `json:"incurred_on"`
	IsPaid         bool                  `json:"is_paid"`
	PaidAt         *time.Time            `json:"paid_at,omitempty"`
	PaymentMethod  *enums.PaymentMethod  `json:"payment_method,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
}

// HistoryDTO is one row of the case's transition trail.
type HistoryDTO struct {
	ID        uuid.UUID                `json:"id"`
	OldStatus enums.RepossessionStatus `json:"old_status"`
	NewStatus enums.RepossessionStatus `json:"new_status"`
	Reason    *string                  `json:"reason,omitempty"`
	ChangedBy *uuid.UUID               `json:"changed_by,omitempty"`
	CreatedAt time.Time                `json:"created_at"`
}

// CostSummaryDTO rolls up what a case has cost so far.
type CostSummaryDTO struct {
	RecoveryCost decimal.Decimal `json:"recovery_cost"`
	StorageCost  decimal.Decimal `json:"storage_cost"`
	LegalCost    decimal.Decimal `json:"legal_cost"`
	OtherCost    decimal.Decimal `json:"other_cost"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	ExpenseCount int             `json:"expense_count"`
	UnpaidCount  int             `json:"unpaid_count"`
}

// OpenCaseRequest opens a recovery case against an agreement.
type OpenCaseRequest struct {
	ClientVehicleID    uuid.UUID                `json:"client_vehicle_id" validate:"required"`
	Reason             enums.RepossessionReason `json:"reason" validate:"required"`
	OutstandingAmount  *decimal.Decimal         `json:"outstanding_amount"`
	PaymentsMissed     int                      `json:"payments_missed"`
	AssignedTo         *uuid.UUID               `json:"assigned_to"`
	LastKnownLocation  *string                  `json:"last_known_location"`
	CourtOrderRequired bool                     `json:"court_order_required"`
	Notes              *string                  `json:"notes"`
}

// UpdateCaseRequest carries partial case edits.
type UpdateCaseRequest struct {
	PaymentsMissed     *int             `json:"payments_missed"`
	OutstandingAmount  *decimal.Decimal `json:"outstanding_amount"`
	AssignedTo         *uuid.UUID       `json:"assigned_to"`
	LastKnownLocation  *string          `json:"last_known_location"`
	CourtOrderRequired *bool            `json:"court_order_required"`
	CourtOrderNumber   *string          `json:"court_order_number"`
	Notes              *string          `json:"notes"`
}

// TransitionRequest moves a case to a new status.
type TransitionRequest struct {
	Status enums.RepossessionStatus `json:"status" validate:"required"`
	Reason string                   `json:"reason"`
}

// CompleteCaseRequest closes a recovered case.
type CompleteCaseRequest struct {
	Resolution enums.RepossessionResolution `json:"resolution" validate:"required"`
	Reason     string                       `json:"reason"`
}

// SendNoticeRequest dispatches a formal notice.
type SendNoticeRequest struct {
	Type             enums.NoticeType           `json:"type" validate:"required"`
	DeliveryMethod   enums.NoticeDeliveryMethod `json:"delivery_method" validate:"required"`
	TrackingNumber   *string                    `json:"tracking_number"`
	ResponseDeadline *time.Time                 `json:"response_deadline"`
	Content          *string                    `json:"content"`
}

// LogContactRequest records one outreach to the client.
type LogContactRequest struct {
	Method       enums.ContactMethod  `json:"method" validate:"required"`
	Outcome      enums.ContactOutcome `json:"outcome" validate:"required"`
	Summary      string               `json:"summary" validate:"required"`
	FollowUpDate *time.Time           `json:"follow_up_date"`
	ContactedAt  *time.Time           `json:"contacted_at"`
}

// LogAttemptRequest records one physical recovery attempt.
type LogAttemptRequest struct {
	Result             enums.RecoveryResult `json:"result" validate:"required"`
	Location           string               `json:"location" validate:"required"`
	TeamSize           int                  `json:"team_size"`
	PoliceInvolved     bool                 `json:"police_involved"`
	PoliceReportNumber *string              `json:"police_report_number"`
	VehicleCondition   *string              `json:"vehicle_condition"`
	CostIncurred       decimal.Decimal      `json:"cost_incurred"`
	Notes              *string              `json:"notes"`
	AttemptedAt        *time.Time           `json:"attempted_at"`
}

// AddExpenseRequest books a cost against the case.
type AddExpenseRequest struct {
	Type        enums.RepoExpenseType `json:"type" validate:"required"`
	Description string                `json:"description" validate:"required"`
	Amount      decimal.Decimal       `json:"amount" validate:"required"`
	IncurredOn  *time.Time            `json:"incurred_on"`
}

// PayExpenseRequest settles a booked expense.
type PayExpenseRequest struct {
	PaymentMethod enums.PaymentMethod `json:"payment_method" validate:"required"`
}

// ListFilter narrows case listings.
type ListFilter struct {
	Status     enums.RepossessionStatus
	AssignedTo *uuid.UUID
	Search     string
}

// Page is one cursor-bounded slice of results.
type Page[T any] struct {
	Items      []T     `json:"items"`
	NextCursor *string `json:"next_cursor,omitempty"`
}

func pageOf[T any](items []T, limit int, cursorFor func(T) pagination.Cursor) Page[T] {
	page := Page[T]{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		cursor := cursorFor(page.Items[limit-1]).Encode()
		page.NextCursor = &cursor
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	return page
}

func fromModel(r *models.Repossession) *CaseDTO {
	return &CaseDTO{
		ID:                 r.ID,
		CaseNumber:         r.CaseNumber,
		ClientVehicleID:    r.ClientVehicleID,
		Reason:             r.Reason,
		Status:             r.Status,
		OutstandingAmount:  r.OutstandingAmount,
		PaymentsMissed:     r.PaymentsMissed,
		NoticeSentDate:     r.NoticeSentDate,
		RecoveryDate:       r.RecoveryDate,
		CompletionDate:     r.CompletionDate,
		AssignedTo:         r.AssignedTo,
		LastKnownLocation:  r.LastKnownLocation,
		RecoveryLocation:   r.RecoveryLocation,
		RecoveryMethod:     r.RecoveryMethod,
		RecoveryAgent:      r.RecoveryAgent,
		CourtOrderRequired: r.CourtOrderRequired,
		CourtOrderNumber:   r.CourtOrderNumber,
		RecoveryCost:       r.RecoveryCost,
		StorageCost:        r.StorageCost,
		LegalCost:          r.LegalCost,
		OtherCost:          r.OtherCost,
		TotalCost:          r.TotalCost(),
		Resolution:         r.Resolution,
		Notes:              r.Notes,
		CreatedAt:          r.CreatedAt,
	}
}

func noticeFromModel(n *models.RepossessionNotice, now time.Time) *NoticeDTO {
	return &NoticeDTO{
		ID:               n.ID,
		RepossessionID:   n.RepossessionID,
		Type:             n.Type,
		DeliveryMethod:   n.DeliveryMethod,
		TrackingNumber:   n.TrackingNumber,
		SentAt:           n.SentAt,
		IsDelivered:      n.IsDelivered,
		DeliveredAt:      n.DeliveredAt,
		ResponseDeadline: n.ResponseDeadline,
		ResponseOverdue:  n.IsResponseOverdue(now),
		Content:          n.Content,
		CreatedAt:        n.CreatedAt,
	}
}

func contactFromModel(c *models.RepossessionContact) *ContactDTO {
	return &ContactDTO{
		ID:             c.ID,
		RepossessionID: c.RepossessionID,
		Method:         c.Method,
		Outcome:        c.Outcome,
		Summary:        c.Summary,
		FollowUpDate:   c.FollowUpDate,
		ContactedAt:    c.ContactedAt,
		CreatedAt:      c.CreatedAt,
	}
}

func attemptFromModel(a *models.RepossessionRecoveryAttempt) *AttemptDTO {
	return &AttemptDTO{
		ID:                 a.ID,
		RepossessionID:     a.RepossessionID,
		AttemptedAt:        a.AttemptedAt,
		Result:             a.Result,
		Location:           a.Location,
		TeamSize:           a.TeamSize,
		PoliceInvolved:     a.PoliceInvolved,
		PoliceReportNumber: a.PoliceReportNumber,
		VehicleCondition:   a.VehicleCondition,
		CostIncurred:       a.CostIncurred,
		Notes:              a.Notes,
		CreatedAt:          a.CreatedAt,
	}
}

func expenseFromModel(e *models.RepossessionExpense) *ExpenseDTO {
	return &ExpenseDTO{
		ID:             e.ID,
		RepossessionID: e.RepossessionID,
		Type:           e.Type,
		Description:    e.Description,
		Amount:         e.Amount,
		IncurredOn:     e.IncurredOn,
		IsPaid:         e.IsPaid,
		PaidAt:         e.PaidAt,
		PaymentMethod:  e.PaymentMethod,
		CreatedAt:      e.CreatedAt,
	}
}

func historyFromModel(h *models.RepossessionStatusHistory) *HistoryDTO {
	return &HistoryDTO{
		ID:        h.ID,
		OldStatus: h.OldStatus,
		NewStatus: h.NewStatus,
		Reason:    h.Reason,
		ChangedBy: h.ChangedBy,
		CreatedAt: h.CreatedAt,
	}
}
