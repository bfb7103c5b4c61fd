package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"gorm.io/gorm/clause"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
)

// Repository persists payments, installment plans, schedules and reminders.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the payments repo to a GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateTx inserts a payment inside the caller's transaction.
func (r *Repository) CreateTx(tx *gorm.DB, payment *models.Payment) error {
	return tx.Create(payment).Error
}

// FindByID loads one payment.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// List pages payments with filters, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Payment, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.Payment{}), filter)
	if cursor, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, err
	} else if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Payment
	err := query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	return rows, err
}

// ListAll streams every payment matching the filter, for exports.
func (r *Repository) ListAll(ctx context.Context, filter ListFilter) ([]models.Payment, error) {
	var rows []models.Payment
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.Payment{}), filter).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) applyFilter(query *gorm.DB, filter ListFilter) *gorm.DB {
	if filter.ClientVehicleID != nil {
		query = query.Where("client_vehicle_id = ?", *filter.ClientVehicleID)
	}
	if filter.Method != nil {
		query = query.Where("method = ?", *filter.Method)
	}
	if filter.From != nil {
		query = query.Where("payment_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("payment_date <= ?", *filter.To)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("receipt_number ILIKE ? OR transaction_ref ILIKE ?", like, like)
	}
	return query
}

// FindAgreementTx loads the agreement row with a row lock so concurrent
// payments against the same agreement serialize.
func (r *Repository) FindAgreementTx(tx *gorm.DB, id uuid.UUID) (*models.ClientVehicle, error) {
	var agreement models.ClientVehicle
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&agreement, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &agreement, nil
}

// FindAgreement loads the agreement row without locking.
func (r *Repository) FindAgreement(ctx context.Context, id uuid.UUID) (*models.ClientVehicle, error) {
	var agreement models.ClientVehicle
	if err := r.db.WithContext(ctx).First(&agreement, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &agreement, nil
}

// UpdateAgreementTx persists agreement balance fields.
func (r *Repository) UpdateAgreementTx(tx *gorm.DB, agreement *models.ClientVehicle) error {
	return tx.Save(agreement).Error
}

// AddClientDebtTx atomically adjusts a client's tracked debt.
func (r *Repository) AddClientDebtTx(tx *gorm.DB, clientID uuid.UUID, delta decimal.Decimal) error {
	return tx.Model(&models.Client{}).
		Where("id = ?", clientID).
		UpdateColumn("current_debt", gorm.Expr("current_debt + ?", delta)).Error
}

// CreatePlanTx inserts the plan inside the caller's transaction.
func (r *Repository) CreatePlanTx(tx *gorm.DB, plan *models.InstallmentPlan) error {
	return tx.Create(plan).Error
}

// CreateSchedulesTx inserts the generated schedule rows.
func (r *Repository) CreateSchedulesTx(tx *gorm.DB, rows []models.PaymentSchedule) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.Create(&rows).Error
}

// FindPlan loads one plan.
func (r *Repository) FindPlan(ctx context.Context, id uuid.UUID) (*models.InstallmentPlan, error) {
	var plan models.InstallmentPlan
	if err := r.db.WithContext(ctx).First(&plan, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

// FindPlanByAgreement loads the plan bound to an agreement.
func (r *Repository) FindPlanByAgreement(ctx context.Context, clientVehicleID uuid.UUID) (*models.InstallmentPlan, error) {
	var plan models.InstallmentPlan
	err := r.db.WithContext(ctx).
		Where("client_vehicle_id = ?", clientVehicleID).
		First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListSchedules returns the plan's installments in order.
func (r *Repository) ListSchedules(ctx context.Context, planID uuid.UUID) ([]models.PaymentSchedule, error) {
	var rows []models.PaymentSchedule
	err := r.db.WithContext(ctx).
		Where("installment_plan_id = ?", planID).
		Order("installment_number ASC").
		Find(&rows).Error
	return rows, err
}

// ListUnpaidSchedulesTx returns the agreement's unsettled installments
// oldest-first, locked for the settling transaction.
func (r *Repository) ListUnpaidSchedulesTx(tx *gorm.DB, clientVehicleID uuid.UUID) ([]models.PaymentSchedule, error) {
	var rows []models.PaymentSchedule
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Joins("JOIN installment_plans ON installment_plans.id = payment_schedules.installment_plan_id").
		Where("installment_plans.client_vehicle_id = ? AND installment_plans.is_active AND NOT payment_schedules.is_paid", clientVehicleID).
		Order("payment_schedules.due_date ASC, payment_schedules.installment_number ASC").
		Find(&rows).Error
	return rows, err
}

// UpdateScheduleTx persists settling progress on one installment.
func (r *Repository) UpdateScheduleTx(tx *gorm.DB, schedule *models.PaymentSchedule) error {
	return tx.Save(schedule).Error
}

// DeactivatePlansTx retires the agreement's plans once it is paid off.
func (r *Repository) DeactivatePlansTx(tx *gorm.DB, clientVehicleID uuid.UUID) error {
	return tx.Model(&models.InstallmentPlan{}).
		Where("client_vehicle_id = ? AND is_active", clientVehicleID).
		UpdateColumn("is_active", false).Error
}

// OverdueInstallment pairs an overdue schedule row with its agreement.
type OverdueInstallment struct {
	Schedule        models.PaymentSchedule
	ClientVehicleID uuid.UUID
	ClientID        uuid.UUID
}

// ListOverdue returns unpaid installments past due as of now, joined to
// their agreement for downstream notification.
func (r *Repository) ListOverdue(ctx context.Context, now time.Time) ([]OverdueInstallment, error) {
	var schedules []models.PaymentSchedule
	err := r.db.WithContext(ctx).
		Joins("JOIN installment_plans ON installment_plans.id = payment_schedules.installment_plan_id").
		Where("installment_plans.is_active AND NOT payment_schedules.is_paid AND payment_schedules.due_date < ?", now).
		Order("payment_schedules.due_date ASC").
		Find(&schedules).Error
	if err != nil {
		return nil, err
	}

	out := make([]OverdueInstallment, 0, len(schedules))
	for i := range schedules {
		var plan models.InstallmentPlan
		if err := r.db.WithContext(ctx).First(&plan, "id = ?", schedules[i].InstallmentPlanID).Error; err != nil {
			return nil, err
		}
		var agreement models.ClientVehicle
		if err := r.db.WithContext(ctx).First(&agreement, "id = ?", plan.ClientVehicleID).Error; err != nil {
			return nil, err
		}
		out = append(out, OverdueInstallment{
			Schedule:        schedules[i],
			ClientVehicleID: agreement.ID,
			ClientID:        agreement.ClientID,
		})
	}
	return out, nil
}

// HasPendingReminder reports whether a schedule row already has an
// undelivered reminder queued.
func (r *Repository) HasPendingReminder(ctx context.Context, scheduleID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PaymentReminder{}).
		Where("payment_schedule_id = ? AND status = ?", scheduleID, enums.ReminderStatusPending).
		Count(&count).Error
	return count > 0, err
}

// FindSchedule loads one installment row.
func (r *Repository) FindSchedule(ctx context.Context, id uuid.UUID) (*models.PaymentSchedule, error) {
	var schedule models.PaymentSchedule
	if err := r.db.WithContext(ctx).First(&schedule, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &schedule, nil
}

// CreateReminder logs outreach for a schedule row.
func (r *Repository) CreateReminder(ctx context.Context, reminder *models.PaymentReminder) error {
	return r.db.WithContext(ctx).Create(reminder).Error
}

// CreateReminderTx logs outreach inside the caller's transaction.
func (r *Repository) CreateReminderTx(tx *gorm.DB, reminder *models.PaymentReminder) error {
	return tx.Create(reminder).Error
}

// FindReminder loads one reminder.
func (r *Repository) FindReminder(ctx context.Context, id uuid.UUID) (*models.PaymentReminder, error) {
	var reminder models.PaymentReminder
	if err := r.db.WithContext(ctx).First(&reminder, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reminder, nil
}

// ListReminders returns outreach for one schedule row, newest first.
func (r *Repository) ListReminders(ctx context.Context, scheduleID uuid.UUID) ([]models.PaymentReminder, error) {
	var rows []models.PaymentReminder
	err := r.db.WithContext(ctx).
		Where("payment_schedule_id = ?", scheduleID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// UpdateReminder persists reminder state changes.
func (r *Repository) UpdateReminder(ctx context.Context, reminder *models.PaymentReminder) error {
	return r.db.WithContext(ctx).Save(reminder).Error
}

// Summary aggregates collection figures for the dashboard.
func (r *Repository) Summary(ctx context.Context, now time.Time) (*SummaryDTO, error) {
	summary := &SummaryDTO{
		TotalCollected:  decimal.Zero,
		CollectedToday:  decimal.Zero,
		OverdueAmount:   decimal.Zero,
		OutstandingDebt: decimal.Zero,
	}
	db := r.db.WithContext(ctx)

	var total decimal.NullDecimal
	if err := db.Model(&models.Payment{}).
		Select("SUM(amount)").Scan(&total).Error; err != nil {
		return nil, err
	}
	if total.Valid {
		summary.TotalCollected = total.Decimal
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	var today decimal.NullDecimal
	err := db.Model(&models.Payment{}).
		Where("payment_date >= ?", dayStart).
		Select("SUM(amount)").Scan(&today).Error
	if err != nil {
		return nil, err
	}
	if today.Valid {
		summary.CollectedToday = today.Decimal
	}
	err = db.Model(&models.Payment{}).
		Where("payment_date >= ?", dayStart).
		Count(&summary.PaymentsToday).Error
	if err != nil {
		return nil, err
	}

	overdue := db.Model(&models.PaymentSchedule{}).
		Joins("JOIN installment_plans ON installment_plans.id = payment_schedules.installment_plan_id").
		Where("installment_plans.is_active AND NOT payment_schedules.is_paid AND payment_schedules.due_date < ?", now)
	if err := overdue.Count(&summary.OverdueCount).Error; err != nil {
		return nil, err
	}
	var overdueAmount decimal.NullDecimal
	err = overdue.Select("SUM(payment_schedules.amount_due - payment_schedules.amount_paid)").
		Scan(&overdueAmount).Error
	if err != nil {
		return nil, err
	}
	if overdueAmount.Valid {
		summary.OverdueAmount = overdueAmount.Decimal
	}

	var outstanding decimal.NullDecimal
	err = db.Model(&models.ClientVehicle{}).
		Where("NOT is_paid_off").
		Select("SUM(balance)").Scan(&outstanding).Error
	if err != nil {
		return nil, err
	}
	if outstanding.Valid {
		summary.OutstandingDebt = outstanding.Decimal
	}
	return summary, nil
}
