package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/logger"
)

type InsuranceExpiryJobParams struct {
	Logger    *logger.Logger
	Insurance expiryScanner
}

type expiryScanner interface {
	ScanExpiry(ctx context.Context, now time.Time) (int, int, error)
}

// NewInsuranceExpiryJob expires lapsed policies and sends expiry warnings.
func NewInsuranceExpiryJob(params InsuranceExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Insurance == nil {
		return nil, fmt.Errorf("insurance service required")
	}
	return &insuranceExpiryJob{
		logg:      params.Logger,
		insurance: params.Insurance,
		now:       time.Now,
	}, nil
}

type insuranceExpiryJob struct {
	logg      *logger.Logger
	insurance expiryScanner
	now       func() time.Time
}

func (j *insuranceExpiryJob) Name() string { return "insurance-expiry-scan" }

func (j *insuranceExpiryJob) Run(ctx context.Context) error {
	expired, warned, err := j.insurance.ScanExpiry(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("insurance expiry scan: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"expired": expired,
		"warned":  warned,
	})
	j.logg.Info(logCtx, "insurance expiry scan complete")
	return nil
}
