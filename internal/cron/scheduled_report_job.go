package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/logger"
)

type ScheduledReportJobParams struct {
	Logger  *logger.Logger
	Reports dueReportRunner
}

type dueReportRunner interface {
	RunDue(ctx context.Context, now time.Time) (int, error)
}

// NewScheduledReportJob fires scheduled reports whose next run has passed.
func NewScheduledReportJob(params ScheduledReportJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reports == nil {
		return nil, fmt.Errorf("reports service required")
	}
	return &scheduledReportJob{
		logg:    params.Logger,
		reports: params.Reports,
		now:     time.Now,
	}, nil
}

type scheduledReportJob struct {
	logg    *logger.Logger
	reports dueReportRunner
	now     func() time.Time
}

func (j *scheduledReportJob) Name() string { return "scheduled-reports" }

func (j *scheduledReportJob) Run(ctx context.Context) error {
	ran, err := j.reports.RunDue(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("run due reports: %w", err)
	}
	logCtx := j.logg.WithField(ctx, "executed", ran)
	j.logg.Info(logCtx, "scheduled report run complete")
	return nil
}
