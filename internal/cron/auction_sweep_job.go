package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/logger"
)

type AuctionSweepJobParams struct {
	Logger   *logger.Logger
	Auctions auctionSweeper
}

type auctionSweeper interface {
	Sweep(ctx context.Context, now time.Time) (int, int, error)
}

// NewAuctionSweepJob activates scheduled auctions whose start time has
// passed and finalizes active auctions past their end time.
func NewAuctionSweepJob(params AuctionSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Auctions == nil {
		return nil, fmt.Errorf("auctions service required")
	}
	return &auctionSweepJob{
		logg:     params.Logger,
		auctions: params.Auctions,
		now:      time.Now,
	}, nil
}

type auctionSweepJob struct {
	logg     *logger.Logger
	auctions auctionSweeper
	now      func() time.Time
}

func (j *auctionSweepJob) Name() string { return "auction-sweep" }

func (j *auctionSweepJob) Run(ctx context.Context) error {
	activated, completed, err := j.auctions.Sweep(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("auction sweep: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"activated": activated,
		"completed": completed,
	})
	j.logg.Info(logCtx, "auction sweep complete")
	return nil
}
