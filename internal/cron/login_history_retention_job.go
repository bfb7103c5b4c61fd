package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/logger"
)

const loginHistoryRetentionDays = 180

type LoginHistoryRetentionJobParams struct {
	Logger     *logger.Logger
	Repository loginHistoryPruner
	Retention  int
}

type loginHistoryPruner interface {
	DeleteLoginHistoryBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewLoginHistoryRetentionJob prunes authentication attempts older than
// the retention window.
func NewLoginHistoryRetentionJob(params LoginHistoryRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = loginHistoryRetentionDays
	}
	return &loginHistoryRetentionJob{
		logg:      params.Logger,
		repo:      params.Repository,
		retention: retention,
		now:       time.Now,
	}, nil
}

type loginHistoryRetentionJob struct {
	logg      *logger.Logger
	repo      loginHistoryPruner
	retention int
	now       func() time.Time
}

func (j *loginHistoryRetentionJob) Name() string { return "login-history-retention" }

func (j *loginHistoryRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)
	deleted, err := j.repo.DeleteLoginHistoryBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("login history retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "login history retention complete")
	return nil
}
