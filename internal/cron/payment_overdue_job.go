package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/logger"
)

type PaymentOverdueJobParams struct {
	Logger   *logger.Logger
	Payments overdueScanner
}

type overdueScanner interface {
	ScanOverdue(ctx context.Context, now time.Time) (int, error)
}

// NewPaymentOverdueJob flags overdue installments and queues reminders.
func NewPaymentOverdueJob(params PaymentOverdueJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payments service required")
	}
	return &paymentOverdueJob{
		logg:     params.Logger,
		payments: params.Payments,
		now:      time.Now,
	}, nil
}

type paymentOverdueJob struct {
	logg     *logger.Logger
	payments overdueScanner
	now      func() time.Time
}

func (j *paymentOverdueJob) Name() string { return "payment-overdue-scan" }

func (j *paymentOverdueJob) Run(ctx context.Context) error {
	flagged, err := j.payments.ScanOverdue(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("payment overdue scan: %w", err)
	}
	logCtx := j.logg.WithField(ctx, "flagged", flagged)
	j.logg.Info(logCtx, "overdue installment scan complete")
	return nil
}
