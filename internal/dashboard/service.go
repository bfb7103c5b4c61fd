package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	pkgerrors "github.com/dealerdeskhq/dealerdesk-backend/pkg/errors"
)

// Service serves the dashboard aggregate endpoints.
type Service interface {
	Overview(ctx context.Context, userID uuid.UUID) (*Overview, error)
	FinancialSummary(ctx context.Context, from, to time.Time) (*FinancialSummary, error)
	SalesMetrics(ctx context.Context, days int) (*SalesMetrics, error)
	AuctionMetrics(ctx context.Context) (*AuctionMetrics, error)
}

type repository interface {
	VehicleCountsByStatus(ctx context.Context) (map[enums.VehicleStatus]int64, error)
	ClientCounts(ctx context.Context) (total, active, blacklisted int64, err error)
	PaymentTotals(ctx context.Context, from, to time.Time) (decimal.Decimal, int64, error)
	ExpenseTotals(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
	SalesTotals(ctx context.Context, since time.Time) (int64, decimal.Decimal, error)
	AuctionCounts(ctx context.Context) (active, scheduled int64, err error)
	BidsBetween(ctx context.Context, from, to time.Time) (int64, error)
	ActiveAuctionBidTotal(ctx context.Context) (int64, error)
	UnreadNotifications(ctx context.Context, userID uuid.UUID) (int64, error)
}

type service struct {
	repo repository
	now  func() time.Time
}

// NewService wires the dashboard service.
func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("dashboard repository is required")
	}
	return &service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

// Overview is the landing-page summary.
type Overview struct {
	Vehicles            VehicleCounts `json:"vehicles"`
	Clients             ClientCounts  `json:"clients"`
	PaymentsToday       PaymentTotals `json:"payments_today"`
	ActiveAuctions      int64         `json:"active_auctions"`
	ScheduledAuctions   int64         `json:"scheduled_auctions"`
	UnreadNotifications int64         `json:"unread_notifications"`
}

// VehicleCounts breaks the inventory down by status.
type VehicleCounts struct {
	Total       int64 `json:"total"`
	Available   int64 `json:"available"`
	Reserved    int64 `json:"reserved"`
	Sold        int64 `json:"sold"`
	Repossessed int64 `json:"repossessed"`
	Auctioned   int64 `json:"auctioned"`
	Maintenance int64 `json:"maintenance"`
}

// ClientCounts summarizes the client book.
type ClientCounts struct {
	Total       int64 `json:"total"`
	Active      int64 `json:"active"`
	Blacklisted int64 `json:"blacklisted"`
}

// PaymentTotals pairs a receipt count with its sum.
type PaymentTotals struct {
	Count int64           `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// FinancialSummary covers revenue and spend over a window.
type FinancialSummary struct {
	From      time.Time       `json:"from"`
	To        time.Time       `json:"to"`
	Revenue   decimal.Decimal `json:"revenue"`
	Expenses  decimal.Decimal `json:"expenses"`
	Net       decimal.Decimal `json:"net"`
	MarginPct decimal.Decimal `json:"margin_pct"`
}

// SalesMetrics covers vehicle sales over the trailing N days.
type SalesMetrics struct {
	Days         int             `json:"days"`
	SoldCount    int64           `json:"sold_count"`
	Revenue      decimal.Decimal `json:"revenue"`
	AveragePrice decimal.Decimal `json:"average_price"`
}

// AuctionMetrics summarizes the auction floor.
type AuctionMetrics struct {
	Active            int64           `json:"active"`
	Scheduled         int64           `json:"scheduled"`
	BidsToday         int64           `json:"bids_today"`
	AvgBidsPerAuction decimal.Decimal `json:"avg_bids_per_auction"`
}

func (s *service) Overview(ctx context.Context, userID uuid.UUID) (*Overview, error) {
	vehicleCounts, err := s.repo.VehicleCountsByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count vehicles")
	}
	vehicles := VehicleCounts{
		Available:   vehicleCounts[enums.VehicleStatusAvailable],
		Reserved:    vehicleCounts[enums.VehicleStatusReserved],
		Sold:        vehicleCounts[enums.VehicleStatusSold],
		Repossessed: vehicleCounts[enums.VehicleStatusRepossessed],
		Auctioned:   vehicleCounts[enums.VehicleStatusAuctioned],
		Maintenance: vehicleCounts[enums.VehicleStatusMaintenance],
	}
	for _, count := range vehicleCounts {
		vehicles.Total += count
	}

	clientTotal, clientActive, blacklisted, err := s.repo.ClientCounts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count clients")
	}

	dayStart := s.dayStart()
	paymentsTotal, paymentsCount, err := s.repo.PaymentTotals(ctx, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum payments")
	}

	active, scheduled, err := s.repo.AuctionCounts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count auctions")
	}

	unread, err := s.repo.UnreadNotifications(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count notifications")
	}

	return &Overview{
		Vehicles:            vehicles,
		Clients:             ClientCounts{Total: clientTotal, Active: clientActive, Blacklisted: blacklisted},
		PaymentsToday:       PaymentTotals{Count: paymentsCount, Total: paymentsTotal},
		ActiveAuctions:      active,
		ScheduledAuctions:   scheduled,
		UnreadNotifications: unread,
	}, nil
}

func (s *service) FinancialSummary(ctx context.Context, from, to time.Time) (*FinancialSummary, error) {
	if !to.After(from) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date range end must follow its start")
	}
	revenue, _, err := s.repo.PaymentTotals(ctx, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum revenue")
	}
	expenses, err := s.repo.ExpenseTotals(ctx, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum expenses")
	}
	net := revenue.Sub(expenses)
	margin := decimal.Zero
	if revenue.IsPositive() {
		margin = net.Div(revenue).Mul(decimal.NewFromInt(100)).Round(2)
	}
	return &FinancialSummary{
		From:      from,
		To:        to,
		Revenue:   revenue,
		Expenses:  expenses,
		Net:       net,
		MarginPct: margin,
	}, nil
}

func (s *service) SalesMetrics(ctx context.Context, days int) (*SalesMetrics, error) {
	if days <= 0 {
		days = 30
	}
	since := s.dayStart().AddDate(0, 0, -days)
	count, revenue, err := s.repo.SalesTotals(ctx, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum sales")
	}
	average := decimal.Zero
	if count > 0 {
		average = revenue.Div(decimal.NewFromInt(count)).Round(2)
	}
	return &SalesMetrics{Days: days, SoldCount: count, Revenue: revenue, AveragePrice: average}, nil
}

func (s *service) AuctionMetrics(ctx context.Context) (*AuctionMetrics, error) {
	active, scheduled, err := s.repo.AuctionCounts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count auctions")
	}
	dayStart := s.dayStart()
	bidsToday, err := s.repo.BidsBetween(ctx, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count bids")
	}
	avg := decimal.Zero
	if active > 0 {
		totalBids, err := s.repo.ActiveAuctionBidTotal(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum auction bids")
		}
		avg = decimal.NewFromInt(totalBids).Div(decimal.NewFromInt(active)).Round(2)
	}
	return &AuctionMetrics{
		Active:            active,
		Scheduled:         scheduled,
		BidsToday:         bidsToday,
		AvgBidsPerAuction: avg,
	}, nil
}

func (s *service) dayStart() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
