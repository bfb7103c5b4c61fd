package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
)

// PaymentDTO is the transport shape for one recorded payment.
type PaymentDTO struct {
	ID              uuid.UUID           `json:"id"`
	ReceiptNumber   string              `json:"receipt_number"`
	ClientVehicleID uuid.UUID           `json:"client_vehicle_id"`
	Amount          decimal.Decimal     `json:"amount"`
	Method          enums.PaymentMethod `json:"method"`
	TransactionRef  *string             `json:"transaction_ref,omitempty"`
	PaymentDate     time.Time           `json:"payment_date"`
	Notes           *string             `json:"notes,omitempty"`
	RecordedBy      *uuid.UUID          `json:"recorded_by,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

// PlanDTO is an installment plan with its schedule.
type PlanDTO struct {
	ID                 uuid.UUID       `json:"id"`
	ClientVehicleID    uuid.UUID       `json:"client_vehicle_id"`
	Principal          decimal.Decimal `json:"principal"`
	InterestRate       decimal.Decimal `json:"interest_rate"`
	TotalInterest      decimal.Decimal `json:"total_interest"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	Months             int             `json:"months"`
	MonthlyInstallment decimal.Decimal `json:"monthly_installment"`
	StartDate          time.Time       `json:"start_date"`
	EndDate            time.Time       `json:"end_date"`
	IsActive           bool            `json:"is_active"`
	Schedule           []ScheduleDTO   `json:"schedule,omitempty"`
}

// ScheduleDTO is one expected installment.
type ScheduleDTO struct {
	ID                uuid.UUID       `json:"id"`
	InstallmentNumber int             `json:"installment_number"`
	DueDate           time.Time       `json:"due_date"`
	AmountDue         decimal.Decimal `json:"amount_due"`
	AmountPaid        decimal.Decimal `json:"amount_paid"`
	IsPaid            bool            `json:"is_paid"`
	PaidDate          *time.Time      `json:"paid_date,omitempty"`
	DaysOverdue       int             `json:"days_overdue"`
}

// ReminderDTO is collection outreach for an overdue installment.
type ReminderDTO struct {
	ID                uuid.UUID            `json:"id"`
	PaymentScheduleID uuid.UUID            `json:"payment_schedule_id"`
	Type              enums.ReminderType   `json:"type"`
	Status            enums.ReminderStatus `json:"status"`
	Message           string               `json:"message"`
	SentAt            *time.Time           `json:"sent_at,omitempty"`
	ClientResponse    *string              `json:"client_response,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
}

// RecordPaymentRequest posts money against an agreement.
type RecordPaymentRequest struct {
	ClientVehicleID uuid.UUID           `json:"client_vehicle_id" validate:"required"`
	Amount          decimal.Decimal     `json:"amount" validate:"required"`
	Method          enums.PaymentMethod `json:"method" validate:"required"`
	TransactionRef  *string             `json:"transaction_ref,omitempty"`
	PaymentDate     *time.Time          `json:"payment_date,omitempty"`
	Notes           *string             `json:"notes,omitempty"`
}

// CreatePlanRequest opens financing for an agreement.
type CreatePlanRequest struct {
	ClientVehicleID uuid.UUID        `json:"client_vehicle_id" validate:"required"`
	InterestRate    *decimal.Decimal `json:"interest_rate,omitempty"`
	Months          int              `json:"months" validate:"required,min=1,max=120"`
	StartDate       *time.Time       `json:"start_date,omitempty"`
}

// CreateReminderRequest logs outreach for a schedule row.
type CreateReminderRequest struct {
	Type    enums.ReminderType `json:"type" validate:"required"`
	Message string             `json:"message" validate:"required"`
}

// UpdateReminderRequest moves a reminder through its delivery states.
type UpdateReminderRequest struct {
	Status         enums.ReminderStatus `json:"status" validate:"required"`
	ClientResponse *string              `json:"client_response,omitempty"`
}

// ListFilter narrows the payment listing.
type ListFilter struct {
	ClientVehicleID *uuid.UUID
	Method          *enums.PaymentMethod
	From            *time.Time
	To              *time.Time
	Search          string
}

// SummaryDTO aggregates collections for the dashboard cards.
type SummaryDTO struct {
	TotalCollected  decimal.Decimal `json:"total_collected"`
	CollectedToday  decimal.Decimal `json:"collected_today"`
	PaymentsToday   int64           `json:"payments_today"`
	OverdueCount    int64           `json:"overdue_count"`
	OverdueAmount   decimal.Decimal `json:"overdue_amount"`
	OutstandingDebt decimal.Decimal `json:"outstanding_debt"`
}

// Page wraps a result slice with the cursor for the next page.
type Page[T any] struct {
	Items      []T     `json:"items"`
	NextCursor *string `json:"next_cursor,omitempty"`
}

func pageOf[T any](items []T, limit int, cursorFor func(T) pagination.Cursor) Page[T] {
	normalized := pagination.NormalizeLimit(limit)
	page := Page[T]{Items: items}
	if len(items) > normalized {
		page.Items = items[:normalized]
		last := page.Items[len(page.Items)-1]
		encoded := pagination.EncodeCursor(cursorFor(last))
		page.NextCursor = &encoded
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	return page
}

func fromModel(p *models.Payment) *PaymentDTO {
	if p == nil {
		return nil
	}
	return &PaymentDTO{
		ID:              p.ID,
		ReceiptNumber:   p.ReceiptNumber,
		ClientVehicleID: p.ClientVehicleID,
		Amount:          p.Amount,
		Method:          p.Method,
		TransactionRef:  p.TransactionRef,
		PaymentDate:     p.PaymentDate,
		Notes:           p.Notes,
		RecordedBy:      p.RecordedBy,
		CreatedAt:       p.CreatedAt,
	}
}

func planFromModel(plan *models.InstallmentPlan, schedule []models.PaymentSchedule, now time.Time) *PlanDTO {
	if plan == nil {
		return nil
	}
	dto := &PlanDTO{
		ID:                 plan.ID,
		ClientVehicleID:    plan.ClientVehicleID,
		Principal:          plan.Principal,
		InterestRate:       plan.InterestRate,
		TotalInterest:      plan.TotalInterest,
		TotalAmount:        plan.TotalAmount,
		Months:             plan.Months,
		MonthlyInstallment: plan.MonthlyInstallment,
		StartDate:          plan.StartDate,
		EndDate:            plan.EndDate,
		IsActive:           plan.IsActive,
	}
	for i := range schedule {
		dto.Schedule = append(dto.Schedule, scheduleFromModel(&schedule[i], now))
	}
	return dto
}

func scheduleFromModel(s *models.PaymentSchedule, now time.Time) ScheduleDTO {
	return ScheduleDTO{
		ID:                s.ID,
		InstallmentNumber: s.InstallmentNumber,
		DueDate:           s.DueDate,
		AmountDue:         s.AmountDue,
		AmountPaid:        s.AmountPaid,
		IsPaid:            s.IsPaid,
		PaidDate:          s.PaidDate,
		DaysOverdue:       s.DaysOverdue(now),
	}
}

func reminderFromModel(r *models.PaymentReminder) *ReminderDTO {
	if r == nil {
		return nil
	}
	return &ReminderDTO{
		ID:                r.ID,
		PaymentScheduleID: r.PaymentScheduleID,
		Type:              r.Type,
		Status:            r.Status,
		Message:           r.Message,
		SentAt:            r.SentAt,
		ClientResponse:    r.ClientResponse,
		CreatedAt:         r.CreatedAt,
	}
}
