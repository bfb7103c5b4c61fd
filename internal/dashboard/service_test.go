package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	pkgerrors "github.com/dealerdeskhq/dealerdesk-backend/pkg/errors"
)

type fakeDashboardRepo struct {
	vehicleCounts  map[enums.VehicleStatus]int64
	clientTotal    int64
	clientActive   int64
	blacklisted    int64
	paymentTotal   decimal.Decimal
	paymentCount   int64
	expenseTotal   decimal.Decimal
	salesCount     int64
	salesRevenue   decimal.Decimal
	activeAuctions int64
	scheduled      int64
	bids           int64
	activeBidTotal int64
	unread         int64

	paymentWindow [2]time.Time
	salesSince    time.Time
}

func (f *fakeDashboardRepo) VehicleCountsByStatus(context.Context) (map[enums.VehicleStatus]int64, error) {
	return f.vehicleCounts, nil
}

func (f *fakeDashboardRepo) ClientCounts(context.Context) (int64, int64, int64, error) {
	return f.clientTotal, f.clientActive, f.blacklisted, nil
}

func (f *fakeDashboardRepo) PaymentTotals(_ context.Context, from, to time.Time) (decimal.Decimal, int64, error) {
	f.paymentWindow = [2]time.Time{from, to}
	return f.paymentTotal, f.paymentCount, nil
}

func (f *fakeDashboardRepo) ExpenseTotals(context.Context, time.Time, time.Time) (decimal.Decimal, error) {
	return f.expenseTotal, nil
}

func (f *fakeDashboardRepo) SalesTotals(_ context.Context, since time.Time) (int64, decimal.Decimal, error) {
	f.salesSince = since
	return f.salesCount, f.salesRevenue, nil
}

func (f *fakeDashboardRepo) AuctionCounts(context.Context) (int64, int64, error) {
	return f.activeAuctions, f.scheduled, nil
}

func (f *fakeDashboardRepo) BidsBetween(context.Context, time.Time, time.Time) (int64, error) {
	return f.bids, nil
}

func (f *fakeDashboardRepo) ActiveAuctionBidTotal(context.Context) (int64, error) {
	return f.activeBidTotal, nil
}

func (f *fakeDashboardRepo) UnreadNotifications(context.Context, uuid.UUID) (int64, error) {
	return f.unread, nil
}

func newDashboardService(t *testing.T, repo *fakeDashboardRepo) Service {
	t.Helper()
	svc, err := NewService(repo)
	require.NoError(t, err)
	svc.(*service).now = func() time.Time {
		return time.Date(2026, time.August, 20, 14, 30, 0, 0, time.UTC)
	}
	return svc
}

func TestOverviewAggregates(t *testing.T) {
	repo := &fakeDashboardRepo{
		vehicleCounts: map[enums.VehicleStatus]int64{
			enums.VehicleStatusAvailable: 12,
			enums.VehicleStatusSold:      30,
			enums.VehicleStatusReserved:  3,
		},
		clientTotal:    40,
		clientActive:   35,
		blacklisted:    2,
		paymentTotal:   decimal.NewFromInt(180000),
		paymentCount:   6,
		activeAuctions: 2,
		scheduled:      1,
		unread:         4,
	}
	svc := newDashboardService(t, repo)

	overview, err := svc.Overview(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.EqualValues(t, 45, overview.Vehicles.Total)
	assert.EqualValues(t, 12, overview.Vehicles.Available)
	assert.EqualValues(t, 30, overview.Vehicles.Sold)
	assert.EqualValues(t, 2, overview.Clients.Blacklisted)
	assert.EqualValues(t, 6, overview.PaymentsToday.Count)
	assert.EqualValues(t, 4, overview.UnreadNotifications)

	// Payments are windowed to the current day.
	assert.True(t, repo.paymentWindow[0].Equal(time.Date(2026, time.August, 20, 0, 0, 0, 0, time.UTC)))
	assert.True(t, repo.paymentWindow[1].Equal(time.Date(2026, time.August, 21, 0, 0, 0, 0, time.UTC)))
}

func TestFinancialSummaryComputesMargin(t *testing.T) {
	repo := &fakeDashboardRepo{
		paymentTotal: decimal.NewFromInt(500000),
		expenseTotal: decimal.NewFromInt(125000),
	}
	svc := newDashboardService(t, repo)

	from := time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	summary, err := svc.FinancialSummary(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, "375000", summary.Net.String())
	assert.Equal(t, "75", summary.MarginPct.String())

	_, err = svc.FinancialSummary(context.Background(), to, from)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestFinancialSummaryZeroRevenue(t *testing.T) {
	repo := &fakeDashboardRepo{expenseTotal: decimal.NewFromInt(9000)}
	svc := newDashboardService(t, repo)

	from := time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)
	summary, err := svc.FinancialSummary(context.Background(), from, from.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, "-9000", summary.Net.String())
	assert.True(t, summary.MarginPct.IsZero())
}

func TestSalesMetricsAverages(t *testing.T) {
	repo := &fakeDashboardRepo{
		salesCount:   4,
		salesRevenue: decimal.NewFromInt(2600000),
	}
	svc := newDashboardService(t, repo)

	metrics, err := svc.SalesMetrics(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 30, metrics.Days) // default window
	assert.Equal(t, "650000", metrics.AveragePrice.String())
	assert.True(t, repo.salesSince.Equal(time.Date(2026, time.July, 21, 0, 0, 0, 0, time.UTC)))
}

func TestAuctionMetricsAverageBids(t *testing.T) {
	repo := &fakeDashboardRepo{
		activeAuctions: 4,
		scheduled:      2,
		bids:           9,
		activeBidTotal: 18,
	}
	svc := newDashboardService(t, repo)

	metrics, err := svc.AuctionMetrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "4.5", metrics.AvgBidsPerAuction.String())
	assert.EqualValues(t, 9, metrics.BidsToday)

	repo.activeAuctions = 0
	metrics, err = svc.AuctionMetrics(context.Background())
	require.NoError(t, err)
	assert.True(t, metrics.AvgBidsPerAuction.IsZero())
}
