package auctions

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	pkgerrors "github.com/dealerdeskhq/dealerdesk-backend/pkg/errors"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/outbox"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/outbox/payloads"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
)

type fakeAuctionRepo struct {
	auctions     map[uuid.UUID]*models.Auction
	bids         []*models.Bid
	participants map[uuid.UUID]*models.AuctionParticipant
	watches      []*models.AuctionWatchlistItem
	results      map[uuid.UUID]*models.AuctionResult
	failClaims   int
}

func newFakeAuctionRepo() *fakeAuctionRepo {
	return &fakeAuctionRepo{
		auctions:     make(map[uuid.UUID]*models.Auction),
		participants: make(map[uuid.UUID]*models.AuctionParticipant),
		results:      make(map[uuid.UUID]*models.AuctionResult),
	}
}

func (f *fakeAuctionRepo) CreateTx(_ *gorm.DB, auction *models.Auction) error {
	auction.ID = uuid.New()
	auction.CreatedAt = time.Now().UTC()
	f.auctions[auction.ID] = auction
	return nil
}

func (f *fakeAuctionRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Auction, error) {
	auction, ok := f.auctions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *auction
	return &copied, nil
}

func (f *fakeAuctionRepo) List(_ context.Context, _ ListFilter, _ pagination.Params) ([]models.Auction, error) {
	out := make([]models.Auction, 0, len(f.auctions))
	for _, auction := range f.auctions {
		out = append(out, *auction)
	}
	return out, nil
}

func (f *fakeAuctionRepo) Update(_ context.Context, auction *models.Auction) error {
	f.auctions[auction.ID] = auction
	return nil
}

func (f *fakeAuctionRepo) TransitionTx(_ *gorm.DB, auctionID uuid.UUID, from, to enums.AuctionStatus, updates map[string]any) (bool, error) {
	auction, ok := f.auctions[auctionID]
	if !ok || auction.Status != from {
		return false, nil
	}
	auction.Status = to
	if v, ok := updates["current_price"]; ok {
		auction.CurrentPrice = v.(decimal.Decimal)
	}
	if v, ok := updates["completed_at"]; ok {
		t := v.(time.Time)
		auction.CompletedAt = &t
	}
	if v, ok := updates["reserve_met"]; ok {
		b := v.(bool)
		auction.ReserveMet = &b
	}
	return true, nil
}

func (f *fakeAuctionRepo) ClaimBidTx(_ *gorm.DB, auction *models.Auction, amount decimal.Decimal, newEndTime *time.Time, _ time.Time) (bool, error) {
	if f.failClaims > 0 {
		f.failClaims--
		return false, nil
	}
	stored := f.auctions[auction.ID]
	if stored.Status != enums.AuctionStatusActive ||
		stored.TotalBids != auction.TotalBids ||
		!stored.CurrentPrice.Equal(auction.CurrentPrice) {
		return false, nil
	}
	stored.CurrentPrice = amount
	stored.TotalBids++
	if newEndTime != nil {
		stored.EndTime = *newEndTime
	}
	return true, nil
}

func (f *fakeAuctionRepo) InsertBidTx(_ *gorm.DB, bid *models.Bid) error {
	bid.ID = uuid.New()
	bid.CreatedAt = time.Now().UTC()
	f.bids = append(f.bids, bid)
	return nil
}

func (f *fakeAuctionRepo) findWinning(auctionID uuid.UUID) (*models.Bid, error) {
	for _, bid := range f.bids {
		if bid.AuctionID == auctionID && bid.IsWinning {
			return bid, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAuctionRepo) CurrentWinningBidTx(_ *gorm.DB, auctionID uuid.UUID) (*models.Bid, error) {
	return f.findWinning(auctionID)
}

func (f *fakeAuctionRepo) CurrentWinningBid(_ context.Context, auctionID uuid.UUID) (*models.Bid, error) {
	return f.findWinning(auctionID)
}

func (f *fakeAuctionRepo) MarkOutbidTx(_ *gorm.DB, bidID uuid.UUID) error {
	for _, bid := range f.bids {
		if bid.ID == bidID {
			bid.IsWinning = false
			bid.IsOutbid = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeAuctionRepo) SetWinningBidTx(_ *gorm.DB, auctionID, bidID uuid.UUID) error {
	id := bidID
	f.auctions[auctionID].WinningBidID = &id
	return nil
}

func (f *fakeAuctionRepo) HighestActiveBidTx(_ *gorm.DB, auctionID uuid.UUID) (*models.Bid, error) {
	var best *models.Bid
	for _, bid := range f.bids {
		if bid.AuctionID != auctionID || !bid.IsActive {
			continue
		}
		if best == nil ||
			bid.Amount.GreaterThan(best.Amount) ||
			(bid.Amount.Equal(best.Amount) && bid.CreatedAt.Before(best.CreatedAt)) {
			best = bid
		}
	}
	if best == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return best, nil
}

func (f *fakeAuctionRepo) ListBids(_ context.Context, auctionID uuid.UUID) ([]models.Bid, error) {
	var out []models.Bid
	for _, bid := range f.bids {
		if bid.AuctionID == auctionID {
			out = append(out, *bid)
		}
	}
	return out, nil
}

func (f *fakeAuctionRepo) RefreshUniqueBiddersTx(_ *gorm.DB, auctionID uuid.UUID) error {
	seen := map[uuid.UUID]bool{}
	for _, bid := range f.bids {
		if bid.AuctionID == auctionID {
			seen[bid.BidderID] = true
		}
	}
	f.auctions[auctionID].UniqueBidders = len(seen)
	return nil
}

func (f *fakeAuctionRepo) CreateParticipant(_ context.Context, participant *models.AuctionParticipant) error {
	participant.ID = uuid.New()
	f.participants[participant.ID] = participant
	return nil
}

func (f *fakeAuctionRepo) FindParticipant(_ context.Context, auctionID, userID uuid.UUID) (*models.AuctionParticipant, error) {
	for _, participant := range f.participants {
		if participant.AuctionID == auctionID && participant.UserID == userID {
			return participant, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAuctionRepo) ListParticipants(_ context.Context, auctionID uuid.UUID) ([]models.AuctionParticipant, error) {
	var out []models.AuctionParticipant
	for _, participant := range f.participants {
		if participant.AuctionID == auctionID {
			out = append(out, *participant)
		}
	}
	return out, nil
}

func (f *fakeAuctionRepo) UpdateParticipant(_ context.Context, participant *models.AuctionParticipant) error {
	f.participants[participant.ID] = participant
	return nil
}

func (f *fakeAuctionRepo) BumpParticipantStatsTx(_ *gorm.DB, auctionID, userID uuid.UUID, amount decimal.Decimal) error {
	for _, participant := range f.participants {
		if participant.AuctionID == auctionID && participant.UserID == userID {
			participant.BidCount++
			if participant.HighestBid == nil || amount.GreaterThan(*participant.HighestBid) {
				copied := amount
				participant.HighestBid = &copied
			}
		}
	}
	return nil
}

func (f *fakeAuctionRepo) AddWatch(_ context.Context, watch *models.AuctionWatchlistItem) error {
	watch.ID = uuid.New()
	f.watches = append(f.watches, watch)
	return nil
}

func (f *fakeAuctionRepo) RemoveWatch(_ context.Context, auctionID, userID uuid.UUID) error {
	kept := f.watches[:0]
	for _, watch := range f.watches {
		if watch.AuctionID != auctionID || watch.UserID != userID {
			kept = append(kept, watch)
		}
	}
	f.watches = kept
	return nil
}

func (f *fakeAuctionRepo) ListWatched(_ context.Context, userID uuid.UUID) ([]models.AuctionWatchlistItem, error) {
	var out []models.AuctionWatchlistItem
	for _, watch := range f.watches {
		if watch.UserID == userID {
			out = append(out, *watch)
		}
	}
	return out, nil
}

func (f *fakeAuctionRepo) CreateResultTx(_ *gorm.DB, result *models.AuctionResult) error {
	result.ID = uuid.New()
	f.results[result.AuctionID] = result
	return nil
}

func (f *fakeAuctionRepo) FindResult(_ context.Context, auctionID uuid.UUID) (*models.AuctionResult, error) {
	result, ok := f.results[auctionID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return result, nil
}

func (f *fakeAuctionRepo) UpdateResult(_ context.Context, result *models.AuctionResult) error {
	f.results[result.AuctionID] = result
	return nil
}

func (f *fakeAuctionRepo) ListDueForActivation(_ context.Context, now time.Time) ([]models.Auction, error) {
	var out []models.Auction
	for _, auction := range f.auctions {
		if auction.Status == enums.AuctionStatusScheduled && !auction.StartTime.After(now) {
			out = append(out, *auction)
		}
	}
	return out, nil
}

func (f *fakeAuctionRepo) ListDueForCompletion(_ context.Context, now time.Time) ([]models.Auction, error) {
	var out []models.Auction
	for _, auction := range f.auctions {
		if auction.Status == enums.AuctionStatusActive && !auction.EndTime.After(now) {
			out = append(out, *auction)
		}
	}
	return out, nil
}

type fakeVehicleRepo struct {
	byID map[uuid.UUID]*models.Vehicle
}

func (f *fakeVehicleRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Vehicle, error) {
	vehicle, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return vehicle, nil
}

func (f *fakeVehicleRepo) ChangeStatusTx(_ *gorm.DB, vehicle *models.Vehicle, newStatus enums.VehicleStatus, _ *string, _ *uuid.UUID, _ time.Time) error {
	vehicle.Status = newStatus
	return nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeEmitter struct {
	events []outbox.DomainEvent
}

func (f *fakeEmitter) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

func newTestService(t *testing.T) (*service, *fakeAuctionRepo, *fakeVehicleRepo, *fakeEmitter) {
	t.Helper()
	repo := newFakeAuctionRepo()
	vehicles := &fakeVehicleRepo{byID: make(map[uuid.UUID]*models.Vehicle)}
	emitter := &fakeEmitter{}
	svc, err := NewService(repo, vehicles, fakeTxRunner{}, emitter)
	require.NoError(t, err)

	concrete := svc.(*service)
	numbers := 0
	concrete.nextNumber = func(_ *gorm.DB, now time.Time) (string, error) {
		numbers++
		return fmt.Sprintf("AUC-%s-%04d", now.Format("20060102"), numbers), nil
	}
	return concrete, repo, vehicles, emitter
}

func seedVehicle(vehicles *fakeVehicleRepo, status enums.VehicleStatus) *models.Vehicle {
	vehicle := &models.Vehicle{
		ID:     uuid.New(),
		VIN:    "JTDBT923771012345",
		Make:   "Toyota",
		Model:  "Axio",
		Year:   2019,
		Status: status,
	}
	vehicles.byID[vehicle.ID] = vehicle
	return vehicle
}

func seedActiveAuction(repo *fakeAuctionRepo, vehicleID uuid.UUID) *models.Auction {
	now := time.Now().UTC()
	reserve := decimal.NewFromInt(900000)
	auction := &models.Auction{
		ID:               uuid.New(),
		AuctionNumber:    "AUC-20260830-0001",
		VehicleID:        vehicleID,
		Title:            "Toyota Axio 2019",
		Type:             enums.AuctionTypeReserve,
		Status:           enums.AuctionStatusActive,
		StartTime:        now.Add(-time.Hour),
		EndTime:          now.Add(time.Hour),
		StartingPrice:    decimal.NewFromInt(800000),
		ReservePrice:     &reserve,
		BidIncrement:     decimal.NewFromInt(10000),
		CurrentPrice:     decimal.Zero,
		AutoExtend:       true,
		ExtensionMinutes: 5,
		CreatedAt:        now,
	}
	repo.auctions[auction.ID] = auction
	return auction
}

func validCreateRequest(vehicleID uuid.UUID) CreateAuctionRequest {
	now := time.Now().UTC()
	return CreateAuctionRequest{
		VehicleID:     vehicleID,
		Title:         "Toyota Axio 2019",
		StartTime:     now.Add(24 * time.Hour),
		EndTime:       now.Add(48 * time.Hour),
		StartingPrice: decimal.NewFromInt(800000),
	}
}

func TestCreateAuctionAppliesDefaults(t *testing.T) {
	svc, _, vehicles, _ := newTestService(t)
	vehicle := seedVehicle(vehicles, enums.VehicleStatusAvailable)

	dto, err := svc.Create(context.Background(), validCreateRequest(vehicle.ID), uuid.New())
	require.NoError(t, err)

	assert.Contains(t, dto.AuctionNumber, "AUC-")
	assert.Equal(t, enums.AuctionStatusDraft, dto.Status)
	assert.Equal(t, enums.AuctionTypeStandard, dto.Type)
	assert.True(t, dto.BidIncrement.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 5, dto.ExtensionMinutes)
	assert.True(t, dto.AutoExtend)
}

func TestCreateAuctionRejectsSoldVehicle(t *testing.T) {
	svc, _, vehicles, _ := newTestService(t)
	vehicle := seedVehicle(vehicles, enums.VehicleStatusSold)

	_, err := svc.Create(context.Background(), validCreateRequest(vehicle.ID), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestCreateAuctionRejectsReserveBelowStarting(t *testing.T) {
	svc, _, vehicles, _ := newTestService(t)
	vehicle := seedVehicle(vehicles, enums.VehicleStatusAvailable)

	req := validCreateRequest(vehicle.ID)
	reserve := decimal.NewFromInt(700000)
	req.ReservePrice = &reserve
	_, err := svc.Create(context.Background(), req, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestLifecycleTransitionsEmitEvents(t *testing.T) {
	svc, repo, vehicles, emitter := newTestService(t)
	vehicle := seedVehicle(vehicles, enums.VehicleStatusAvailable)
	actor := uuid.New()

	dto, err := svc.Create(context.Background(), validCreateRequest(vehicle.ID), actor)
	require.NoError(t, err)

	scheduled, err := svc.Schedule(context.Background(), dto.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, enums.AuctionStatusScheduled, scheduled.Status)

	active, err := svc.Activate(context.Background(), dto.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, enums.AuctionStatusActive, active.Status)

	// activating twice conflicts
	_, err = svc.Activate(context.Background(), dto.ID, actor)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	require.Len(t, emitter.events, 2)
	assert.Equal(t, enums.EventAuctionScheduled, emitter.events[0].EventType)
	assert.Equal(t, enums.EventAuctionActivated, emitter.events[1].EventType)
	assert.Equal(t, enums.AuctionStatusActive, repo.auctions[dto.ID].Status)
}

func TestPlaceBidAcceptsAndOutbids(t *testing.T) {
	svc, repo, vehicles, emitter := newTestService(t)
	vehicle := seedVehicle(vehicles, enums.VehicleStatusAvailable)
	auction := seedActiveAuction(repo, vehicle.ID)

	first := uuid.New()
	second := uuid.New()

	bid1, err := svc.PlaceBid(context.Background(), auction.ID, first, PlaceBidRequest{
		Amount: decimal.NewFromInt(800000),
	}, BidMeta{IPAddress: "10.0.0.1"})
	require.NoError(t, err)
	assert.True(t, bid1.IsWinning)

	bid2, err := svc.PlaceBid(context.Background(), auction.ID, second, PlaceBidRequest{
		Amount: decimal.NewFromInt(810000),
	}, BidMeta{})
	require.NoError(t, err)
	assert.True(t, bid2.IsWinning)

	// first bid demoted
	assert.True(t, repo.bids[0].IsOutbid)
	assert.False(t, repo.bids[0].IsWinning)
	assert.Equal(t, 2, repo.auctions[auction.ID].TotalBids)
	assert.Equal(t, 2, repo.auctions[auction.ID].UniqueBidders)
	assert.True(t, repo.auctions[auction.ID].CurrentPrice.Equal(decimal.NewFromInt(810000)))

	// bid.placed, bid.placed, bid.outbid
	var outbids []payloads.BidOutbidEvent
	for _, event := range emitter.events {
		if event.EventType == enums.EventBidOutbid {
			outbids = append(outbids, event.Data.(payloads.BidOutbidEvent))
		}
	}
	require.Len(t, outbids, 1)
	assert.Equal(t, first, outbids[0].BidderID)
}

func TestPlaceBidRejectsLowAmount(t *testing.T) {
	svc, repo, vehicles, _ := newTestService(t)
	vehicle := seedVehicle(vehicles, enums.VehicleStatusAvailable)
	auction := seedActiveAuction(repo, vehicle.ID)

	bidder := uuid.New()
	_, err := svc.PlaceBid(context.Background(), auction.ID, bidder, PlaceBidRequest{
		Amount: decimal.NewFromInt(800000),
	}, BidMeta{})
	require.NoError(t, err)

	// next bid must clear current + increment
	_, err = svc.PlaceBid(context.Background(), auction.ID, uuid.New(), PlaceBidRequest{
		Amount: decimal.NewFromInt(805000),
	}, BidMeta{})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestPlaceBidRejectsCurrentLeader(t *testing.T) {
	svc, repo, vehicles, _ := newTestService(t)
	vehicle := seedVehicle(vehicles, enums.VehicleStatusAvailable)
	auction := seedActiveAuction(repo, vehicle.ID)

	bidder := uuid.New()
	_, err := svc.PlaceBid(context.Background(), auction.ID, bidder, PlaceBidRequest{
		Amount: decimal.NewFromInt(800000),
	}, BidMeta{})
	require.NoError(t, err)

	_, err = svc.PlaceBid(context.Background(), auction.ID, bidder, PlaceBidRequest{
		Amount: decimal.NewFromInt(900000),
	}, BidMeta{})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestPlaceBidLosingClaimConflicts(t *testing.T) {
	svc, repo, vehicles, _ := newTestService(t)
	vehicle := seedVehicle(vehicles, enums.VehicleStatusAvailable)
	auction := seedActiveAuction(repo, vehicle.ID)
	repo.failClaims = 1

	_, err := svc.PlaceBid(context.Background(), auction.ID, uuid.New(), PlaceBidRequest{
		Amount: decimal.NewFromInt(800000),
	}, BidMeta{})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
	assert.Empty(t, repo.bids)
}

func TestPlaceBidRequiresApprovedRegistration(t *testing.T) {
	svc, repo, vehicles, _ := newTestService(t)
	vehicle := seedVehicle(vehicles, enums.VehicleStatusAvailable)
	auction := seedActiveAuction(repo, vehicle.ID)
	auction.RequireRegistration = true

	bidder := uuid.New()
	_, err := svc.PlaceBid(context.Background(), auction.ID, bidder, PlaceBidRequest{
		Amount: decimal.NewFromInt(800000),
	}, BidMeta{})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	_, err = svc.Register(context.Background(), auction.ID, bidder, RegisterRequest{})
	require.NoError(t, err)

	// registered but not yet approved
	_, err = svc.PlaceBid(context.Background(), auction.ID, bidder, PlaceBidRequest{
		Amount: decimal.NewFromInt(800000),
	}, BidMeta{})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	_, err = svc.ApproveParticipant(context.Background(), auction.ID, bidder, uuid.New())
	require.NoError(t, err)

	_, err = svc.PlaceBid(context.Background(), auction.ID, bidder, PlaceBidRequest{
		Amount: decimal.NewFromInt(800000),
	}, BidMeta{})
	require.NoError(t, err)
}

func TestPlaceBidExtendsEndInsideWindow(t *testing.T) {
	svc, repo, vehicles, emitter := newTestService(t)
	vehicle := seedVehicle(vehicles, enums.VehicleStatusAvailable)
	auction := seedActiveAuction(repo, vehicle.ID)
	auction.EndTime = time.Now().UTC().Add(2 * time.Minute)
	originalEnd := auction.EndTime

	_, err := svc.PlaceBid(context.Background(), auction.ID, uuid.New(), PlaceBidRequest{
		Amount: decimal.NewFromInt(800000),
	}, BidMeta{})
	require.NoError(t, err)

	assert.True(t, repo.auctions[auction.ID].EndTime.After(originalEnd))
	payload := emitter.events[0].Data.(payloads.BidPlacedEvent)
	assert.True(t, payload.EndExtended)
	require.NotNil(t, payload.NewEndTime)
}

func TestBuyNowCompletesImmediately(t *testing.T) {
	svc, repo, vehicles, emitter := newTestService(t)
	vehicle := seedVehicle(vehicles, enums.VehicleStatusAvailable)
	auction := seedActiveAuction(repo, vehicle.ID)
	buyNow := decimal.NewFromInt(1200000)
	auction.BuyNowPrice = &buyNow

	buyer := uuid.New()
	dto, err := svc.BuyNow(context.Background(), auction.ID, buyer, BidMeta{})
	require.NoError(t, err)

	assert.Equal(t, enums.AuctionStatusCompleted, dto.Status)
	assert.True(t, dto.CurrentPrice.Equal(buyNow))
	assert.Equal(t, enums.VehicleStatusAuctioned, vehicle.Status)

	result := repo.results[auction.ID]
	require.NotNil(t, result)
	assert.Equal(t, buyer, *result.WinnerID)
	assert.True(t, result.FinalPrice.Equal(buyNow))
	assert.True(t, result.ReserveMet)

	last := emitter.events[len(emitter.events)-1]
	assert.Equal(t, enums.EventAuctionCompleted, last.EventType)
}

func TestFinalizePicksHighestActiveBid(t *testing.T) {
	svc, repo, vehicles, emitter := newTestService(t)
	vehicle := seedVehicle(vehicles, enums.VehicleStatusAvailable)
	auction := seedActiveAuction(repo, vehicle.ID)

	low := uuid.New()
	high := uuid.New()
	_, err := svc.PlaceBid(context.Background(), auction.ID, low, PlaceBidRequest{
		Amount: decimal.NewFromInt(900000),
	}, BidMeta{})
	require.NoError(t, err)
	_, err = svc.PlaceBid(context.Background(), auction.ID, high, PlaceBidRequest{
		Amount: decimal.NewFromInt(950000),
	}, BidMeta{})
	require.NoError(t, err)

	result, err := svc.Finalize(context.Background(), auction.ID, uuid.New())
	require.NoError(t, err)

	assert.True(t, result.ReserveMet)
	require.NotNil(t, result.WinnerID)
	assert.Equal(t, high, *result.WinnerID)
	assert.True(t, result.FinalPrice.Equal(decimal.NewFromInt(950000)))
	assert.Equal(t, enums.VehicleStatusAuctioned, vehicle.Status)

	last := emitter.events[len(emitter.events)-1]
	payload := last.Data.(payloads.AuctionCompletedEvent)
	assert.True(t, payload.ReserveMet)
	assert.Equal(t, high, *payload.WinnerID)
}

func TestFinalizeReserveNotMetLeavesVehicle(t *testing.T) {
	svc, repo, vehicles, _ := newTestService(t)
	vehicle := seedVehicle(vehicles, enums.VehicleStatusAvailable)
	auction := seedActiveAuction(repo, vehicle.ID)

	// bid clears starting price but not the 900k reserve
	_, err := svc.PlaceBid(context.Background(), auction.ID, uuid.New(), PlaceBidRequest{
		Amount: decimal.NewFromInt(850000),
	}, BidMeta{})
	require.NoError(t, err)

	result, err := svc.Finalize(context.Background(), auction.ID, uuid.New())
	require.NoError(t, err)

	assert.False(t, result.ReserveMet)
	assert.Nil(t, result.WinnerID)
	assert.Equal(t, enums.VehicleStatusAvailable, vehicle.Status)
}

func TestUpdateResultRecomputesTotals(t *testing.T) {
	svc, repo, vehicles, _ := newTestService(t)
	vehicle := seedVehicle(vehicles, enums.VehicleStatusAvailable)
	auction := seedActiveAuction(repo, vehicle.ID)

	winner := uuid.New()
	_, err := svc.PlaceBid(context.Background(), auction.ID, winner, PlaceBidRequest{
		Amount: decimal.NewFromInt(950000),
	}, BidMeta{})
	require.NoError(t, err)
	_, err = svc.Finalize(context.Background(), auction.ID, uuid.New())
	require.NoError(t, err)

	premium := decimal.NewFromInt(47500)
	taxes := decimal.NewFromInt(152000)
	paid := decimal.NewFromInt(500000)
	result, err := svc.UpdateResult(context.Background(), auction.ID, UpdateResultRequest{
		BuyersPremium: &premium,
		Taxes:         &taxes,
		AmountPaid:    &paid,
	})
	require.NoError(t, err)

	assert.True(t, result.TotalDue.Equal(decimal.NewFromInt(1149500)))
	assert.Equal(t, enums.ResultPaymentPartial, result.PaymentStatus)

	full := result.TotalDue
	result, err = svc.UpdateResult(context.Background(), auction.ID, UpdateResultRequest{
		AmountPaid: &full,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.ResultPaymentPaid, result.PaymentStatus)
}

func TestSweepActivatesAndFinalizes(t *testing.T) {
	svc, repo, vehicles, _ := newTestService(t)
	vehicle := seedVehicle(vehicles, enums.VehicleStatusAvailable)
	now := time.Now().UTC()

	scheduled := seedActiveAuction(repo, vehicle.ID)
	scheduled.Status = enums.AuctionStatusScheduled
	scheduled.StartTime = now.Add(-time.Minute)

	other := seedVehicle(vehicles, enums.VehicleStatusAvailable)
	ended := seedActiveAuction(repo, other.ID)
	ended.EndTime = now.Add(-time.Minute)

	activated, completed, err := svc.Sweep(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, activated)
	assert.Equal(t, 1, completed)
	assert.Equal(t, enums.AuctionStatusActive, repo.auctions[scheduled.ID].Status)
	assert.Equal(t, enums.AuctionStatusCompleted, repo.auctions[ended.ID].Status)
}

func TestWatchlistRoundTrip(t *testing.T) {
	svc, repo, vehicles, _ := newTestService(t)
	vehicle := seedVehicle(vehicles, enums.VehicleStatusAvailable)
	auction := seedActiveAuction(repo, vehicle.ID)
	user := uuid.New()

	watch, err := svc.Watch(context.Background(), auction.ID, user, WatchRequest{})
	require.NoError(t, err)
	assert.True(t, watch.NotifyBeforeEnd)
	assert.True(t, watch.NotifyOnOutbid)

	list, err := svc.Watchlist(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.Unwatch(context.Background(), auction.ID, user))
	list, err = svc.Watchlist(context.Background(), user)
	require.NoError(t, err)
	assert.Empty(t, list)
}
