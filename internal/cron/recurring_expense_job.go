package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/logger"
)

type RecurringExpenseJobParams struct {
	Logger   *logger.Logger
	Expenses recurringMaterializer
}

type recurringMaterializer interface {
	MaterializeDue(ctx context.Context, now time.Time) (int, error)
}

// NewRecurringExpenseJob turns due recurring templates into draft expenses.
func NewRecurringExpenseJob(params RecurringExpenseJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Expenses == nil {
		return nil, fmt.Errorf("expenses service required")
	}
	return &recurringExpenseJob{
		logg:     params.Logger,
		expenses: params.Expenses,
		now:      time.Now,
	}, nil
}

type recurringExpenseJob struct {
	logg     *logger.Logger
	expenses recurringMaterializer
	now      func() time.Time
}

func (j *recurringExpenseJob) Name() string { return "recurring-expense-materialize" }

func (j *recurringExpenseJob) Run(ctx context.Context) error {
	created, err := j.expenses.MaterializeDue(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("materialize recurring expenses: %w", err)
	}
	logCtx := j.logg.WithField(ctx, "created", created)
	j.logg.Info(logCtx, "recurring expense materialization complete")
	return nil
}
