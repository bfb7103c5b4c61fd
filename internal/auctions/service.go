package auctions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	pkgerrors "github.com/dealerdeskhq/dealerdesk-backend/pkg/errors"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/outbox"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/outbox/payloads"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/refs"
)

const (
	defaultBidIncrement     = 100
	defaultExtensionMinutes = 5
	paymentDueDays          = 7
)

// Service exposes auction lifecycle, bidding and settlement.
type Service interface {
	Create(ctx context.Context, req CreateAuctionRequest, createdBy uuid.UUID) (*AuctionDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*AuctionDTO, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) (Page[AuctionDTO], error)
	Update(ctx context.Context, id uuid.UUID, req UpdateAuctionRequest) (*AuctionDTO, error)
	Schedule(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*AuctionDTO, error)
	Activate(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*AuctionDTO, error)
	Cancel(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*AuctionDTO, error)
	Register(ctx context.Context, auctionID, userID uuid.UUID, req RegisterRequest) (*ParticipantDTO, error)
	ApproveParticipant(ctx context.Context, auctionID, userID, approvedBy uuid.UUID) (*ParticipantDTO, error)
	ListParticipants(ctx context.Context, auctionID uuid.UUID) ([]ParticipantDTO, error)
	PlaceBid(ctx context.Context, auctionID, bidderID uuid.UUID, req PlaceBidRequest, meta BidMeta) (*BidDTO, error)
	BuyNow(ctx context.Context, auctionID, bidderID uuid.UUID, meta BidMeta) (*AuctionDTO, error)
	ListBids(ctx context.Context, auctionID uuid.UUID) ([]BidDTO, error)
	Finalize(ctx context.Context, auctionID uuid.UUID, actor uuid.UUID) (*ResultDTO, error)
	Watch(ctx context.Context, auctionID, userID uuid.UUID, req WatchRequest) (*WatchDTO, error)
	Unwatch(ctx context.Context, auctionID, userID uuid.UUID) error
	Watchlist(ctx context.Context, userID uuid.UUID) ([]WatchDTO, error)
	Result(ctx context.Context, auctionID uuid.UUID) (*ResultDTO, error)
	UpdateResult(ctx context.Context, auctionID uuid.UUID, req UpdateResultRequest) (*ResultDTO, error)
	Sweep(ctx context.Context, now time.Time) (activated, completed int, err error)
}

type repository interface {
	CreateTx(tx *gorm.DB, auction *models.Auction) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Auction, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Auction, error)
	Update(ctx context.Context, auction *models.Auction) error
	TransitionTx(tx *gorm.DB, auctionID uuid.UUID, from, to enums.AuctionStatus, updates map[string]any) (bool, error)
	ClaimBidTx(tx *gorm.DB, auction *models.Auction, amount decimal.Decimal, newEndTime *time.Time, now time.Time) (bool, error)
	InsertBidTx(tx *gorm.DB, bid *models.Bid) error
	CurrentWinningBidTx(tx *gorm.DB, auctionID uuid.UUID) (*models.Bid, error)
	CurrentWinningBid(ctx context.Context, auctionID uuid.UUID) (*models.Bid, error)
	MarkOutbidTx(tx *gorm.DB, bidID uuid.UUID) error
	SetWinningBidTx(tx *gorm.DB, auctionID, bidID uuid.UUID) error
	HighestActiveBidTx(tx *gorm.DB, auctionID uuid.UUID) (*models.Bid, error)
	ListBids(ctx context.Context, auctionID uuid.UUID) ([]models.Bid, error)
	RefreshUniqueBiddersTx(tx *gorm.DB, auctionID uuid.UUID) error
	CreateParticipant(ctx context.Context, participant *models.AuctionParticipant) error
	FindParticipant(ctx context.Context, auctionID, userID uuid.UUID) (*models.AuctionParticipant, error)
	ListParticipants(ctx context.Context, auctionID uuid.UUID) ([]models.AuctionParticipant, error)
	UpdateParticipant(ctx context.Context, participant *models.AuctionParticipant) error
	BumpParticipantStatsTx(tx *gorm.DB, auctionID, userID uuid.UUID, amount decimal.Decimal) error
	AddWatch(ctx context.Context, watch *models.AuctionWatchlistItem) error
	RemoveWatch(ctx context.Context, auctionID, userID uuid.UUID) error
	ListWatched(ctx context.Context, userID uuid.UUID) ([]models.AuctionWatchlistItem, error)
	CreateResultTx(tx *gorm.DB, result *models.AuctionResult) error
	FindResult(ctx context.Context, auctionID uuid.UUID) (*models.AuctionResult, error)
	UpdateResult(ctx context.Context, result *models.AuctionResult) error
	ListDueForActivation(ctx context.Context, now time.Time) ([]models.Auction, error)
	ListDueForCompletion(ctx context.Context, now time.Time) ([]models.Auction, error)
}

type vehicleRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
	ChangeStatusTx(tx *gorm.DB, vehicle *models.Vehicle, newStatus enums.VehicleStatus, notes *string, changedBy *uuid.UUID, now time.Time) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type numberAllocator func(tx *gorm.DB, now time.Time) (string, error)

type service struct {
	repo       repository
	vehicles   vehicleRepo
	db         txRunner
	emitter    eventEmitter
	nextNumber numberAllocator
}

// NewService wires the auctions service.
func NewService(repo repository, vehicles vehicleRepo, db txRunner, emitter eventEmitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("auctions repository is required")
	}
	if vehicles == nil {
		return nil, fmt.Errorf("vehicles repository is required")
	}
	if db == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("event emitter is required")
	}
	return &service{
		repo:     repo,
		vehicles: vehicles,
		db:       db,
		emitter:  emitter,
		nextNumber: func(tx *gorm.DB, now time.Time) (string, error) {
			return refs.Next(tx, refs.Auction, now)
		},
	}, nil
}

func (s *service) Create(ctx context.Context, req CreateAuctionRequest, createdBy uuid.UUID) (*AuctionDTO, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end time must be after start time")
	}
	if req.StartingPrice.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "starting price must be positive")
	}
	auctionType := req.Type
	if auctionType == "" {
		auctionType = enums.AuctionTypeStandard
	}
	if !auctionType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid auction type")
	}
	if req.ReservePrice != nil && req.ReservePrice.LessThan(req.StartingPrice) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reserve price must be at least the starting price")
	}
	increment := decimal.NewFromInt(defaultBidIncrement)
	if req.BidIncrement != nil {
		if req.BidIncrement.LessThanOrEqual(decimal.Zero) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "bid increment must be positive")
		}
		increment = *req.BidIncrement
	}
	if req.BuyNowPrice != nil {
		floor := req.StartingPrice
		if req.ReservePrice != nil && req.ReservePrice.GreaterThan(floor) {
			floor = *req.ReservePrice
		}
		if req.BuyNowPrice.LessThan(floor) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "buy-now price must cover the reserve and starting price")
		}
	}
	extension := defaultExtensionMinutes
	if req.ExtensionMinutes != nil {
		if *req.ExtensionMinutes < 1 || *req.ExtensionMinutes > 60 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "extension minutes must be between 1 and 60")
		}
		extension = *req.ExtensionMinutes
	}
	if req.RequireDeposit && req.DepositAmount == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deposit amount is required when a deposit is required")
	}
	autoExtend := true
	if req.AutoExtend != nil {
		autoExtend = *req.AutoExtend
	}

	vehicle, err := s.vehicles.FindByID(ctx, req.VehicleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find vehicle")
	}
	if vehicle.Status != enums.VehicleStatusAvailable && vehicle.Status != enums.VehicleStatusRepossessed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "vehicle cannot be auctioned in its current status")
	}

	createdByID := createdBy
	now := time.Now().UTC()
	auction := &models.Auction{
		VehicleID:           req.VehicleID,
		Title:               title,
		Description:         req.Description,
		Type:                auctionType,
		Status:              enums.AuctionStatusDraft,
		StartTime:           req.StartTime.UTC(),
		EndTime:             req.EndTime.UTC(),
		StartingPrice:       req.StartingPrice,
		ReservePrice:        req.ReservePrice,
		BidIncrement:        increment,
		BuyNowPrice:         req.BuyNowPrice,
		CurrentPrice:        decimal.Zero,
		RequireRegistration: req.RequireRegistration,
		RequireDeposit:      req.RequireDeposit,
		DepositAmount:       req.DepositAmount,
		AutoExtend:          autoExtend,
		ExtensionMinutes:    extension,
		CreatedBy:           &createdByID,
	}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		number, err := s.nextNumber(tx, now)
		if err != nil {
			return err
		}
		auction.AuctionNumber = number
		return s.repo.CreateTx(tx, auction)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create auction")
	}
	return fromModel(auction), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*AuctionDTO, error) {
	auction, err := s.findAuction(ctx, id)
	if err != nil {
		return nil, err
	}
	return fromModel(auction), nil
}

func (s *service) List(ctx context.Context, filter ListFilter, params pagination.Params) (Page[AuctionDTO], error) {
	rows, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return Page[AuctionDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list auctions")
	}
	items := make([]AuctionDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *fromModel(&rows[i]))
	}
	return pageOf(items, params.Limit, func(item AuctionDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: item.CreatedAt, ID: item.ID}
	}), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, req UpdateAuctionRequest) (*AuctionDTO, error) {
	auction, err := s.findAuction(ctx, id)
	if err != nil {
		return nil, err
	}
	if auction.Status != enums.AuctionStatusDraft && auction.Status != enums.AuctionStatusScheduled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only draft or scheduled auctions can be edited")
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
		}
		auction.Title = title
	}
	if req.Description != nil {
		auction.Description = req.Description
	}
	if req.StartTime != nil {
		auction.StartTime = req.StartTime.UTC()
	}
	if req.EndTime != nil {
		auction.EndTime = req.EndTime.UTC()
	}
	if !auction.EndTime.After(auction.StartTime) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end time must be after start time")
	}
	if req.StartingPrice != nil {
		if req.StartingPrice.LessThanOrEqual(decimal.Zero) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "starting price must be positive")
		}
		auction.StartingPrice = *req.StartingPrice
	}
	if req.ReservePrice != nil {
		if req.ReservePrice.LessThan(auction.StartingPrice) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reserve price must be at least the starting price")
		}
		auction.ReservePrice = req.ReservePrice
	}
	if req.BidIncrement != nil {
		if req.BidIncrement.LessThanOrEqual(decimal.Zero) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "bid increment must be positive")
		}
		auction.BidIncrement = *req.BidIncrement
	}
	if req.BuyNowPrice != nil {
		auction.BuyNowPrice = req.BuyNowPrice
	}
	if req.AutoExtend != nil {
		auction.AutoExtend = *req.AutoExtend
	}
	if req.ExtensionMinutes != nil {
		if *req.ExtensionMinutes < 1 || *req.ExtensionMinutes > 60 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "extension minutes must be between 1 and 60")
		}
		auction.ExtensionMinutes = *req.ExtensionMinutes
	}

	if err := s.repo.Update(ctx, auction); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update auction")
	}
	return fromModel(auction), nil
}

func (s *service) Schedule(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*AuctionDTO, error) {
	return s.transition(ctx, id, actor, enums.AuctionStatusDraft, enums.AuctionStatusScheduled, enums.EventAuctionScheduled, nil)
}

func (s *service) Activate(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*AuctionDTO, error) {
	return s.transition(ctx, id, actor, enums.AuctionStatusScheduled, enums.AuctionStatusActive, enums.EventAuctionActivated, nil)
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*AuctionDTO, error) {
	auction, err := s.findAuction(ctx, id)
	if err != nil {
		return nil, err
	}
	switch auction.Status {
	case enums.AuctionStatusDraft, enums.AuctionStatusScheduled, enums.AuctionStatusActive:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot cancel a %s auction", auction.Status))
	}
	return s.transition(ctx, id, actor, auction.Status, enums.AuctionStatusCancelled, enums.EventAuctionCancelled, nil)
}

func (s *service) transition(ctx context.Context, id uuid.UUID, actor uuid.UUID, from, to enums.AuctionStatus, eventType enums.OutboxEventType, updates map[string]any) (*AuctionDTO, error) {
	auction, err := s.findAuction(ctx, id)
	if err != nil {
		return nil, err
	}
	if auction.Status != from {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("auction is %s, expected %s", auction.Status, from))
	}

	now := time.Now().UTC()
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		moved, err := s.repo.TransitionTx(tx, auction.ID, from, to, updates)
		if err != nil {
			return err
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "auction state changed, retry")
		}
		return s.emitter.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregateAuction,
			AggregateID:   auction.ID,
			Actor:         &outbox.ActorRef{UserID: actor},
			Data: payloads.AuctionLifecycleEvent{
				AuctionID:     auction.ID,
				AuctionNumber: auction.AuctionNumber,
				VehicleID:     auction.VehicleID,
				Status:        to,
				StartTime:     auction.StartTime,
				EndTime:       auction.EndTime,
			},
			Version:    1,
			OccurredAt: now,
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "transition auction")
	}
	auction.Status = to
	return fromModel(auction), nil
}

func (s *service) Register(ctx context.Context, auctionID, userID uuid.UUID, req RegisterRequest) (*ParticipantDTO, error) {
	auction, err := s.findAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	switch auction.Status {
	case enums.AuctionStatusScheduled, enums.AuctionStatusActive:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "registration is closed for this auction")
	}
	if _, err := s.repo.FindParticipant(ctx, auctionID, userID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "already registered for this auction")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup participant")
	}
	if req.ProxyBidding && req.ProxyMaxAmount == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "proxy max amount is required for proxy bidding")
	}

	participant := &models.AuctionParticipant{
		AuctionID:      auctionID,
		UserID:         userID,
		IsApproved:     !auction.RequireRegistration,
		ProxyBidding:   req.ProxyBidding,
		ProxyMaxAmount: req.ProxyMaxAmount,
	}
	if err := s.repo.CreateParticipant(ctx, participant); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "register participant")
	}
	return participantFromModel(participant), nil
}

func (s *service) ApproveParticipant(ctx context.Context, auctionID, userID, approvedBy uuid.UUID) (*ParticipantDTO, error) {
	participant, err := s.repo.FindParticipant(ctx, auctionID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "participant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find participant")
	}
	if participant.IsApproved {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "participant is already approved")
	}
	now := time.Now().UTC()
	approvedByID := approvedBy
	participant.IsApproved = true
	participant.ApprovedBy = &approvedByID
	participant.ApprovedAt = &now
	if err := s.repo.UpdateParticipant(ctx, participant); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "approve participant")
	}
	return participantFromModel(participant), nil
}

func (s *service) ListParticipants(ctx context.Context, auctionID uuid.UUID) ([]ParticipantDTO, error) {
	rows, err := s.repo.ListParticipants(ctx, auctionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list participants")
	}
	items := make([]ParticipantDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *participantFromModel(&rows[i]))
	}
	return items, nil
}

func (s *service) PlaceBid(ctx context.Context, auctionID, bidderID uuid.UUID, req PlaceBidRequest, meta BidMeta) (*BidDTO, error) {
	auction, err := s.findAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := s.checkBidAllowed(ctx, auction, bidderID, req.Amount, now); err != nil {
		return nil, err
	}

	// extend the end when the bid lands inside the anti-sniping window
	var newEndTime *time.Time
	extended := false
	if auction.AutoExtend {
		window := time.Duration(auction.ExtensionMinutes) * time.Minute
		if auction.EndTime.Sub(now) <= window {
			extendedEnd := now.Add(window)
			newEndTime = &extendedEnd
			extended = true
		}
	}

	bid := &models.Bid{
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    req.Amount,
		Type:      enums.BidTypeManual,
		IsActive:  true,
		IsWinning: true,
	}
	if meta.IPAddress != "" {
		bid.IPAddress = &meta.IPAddress
	}
	if meta.UserAgent != "" {
		bid.UserAgent = &meta.UserAgent
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		claimed, err := s.repo.ClaimBidTx(tx, auction, req.Amount, newEndTime, now)
		if err != nil {
			return err
		}
		if !claimed {
			return pkgerrors.New(pkgerrors.CodeConflict, "auction moved on, retry your bid")
		}

		previous, err := s.repo.CurrentWinningBidTx(tx, auctionID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if previous != nil {
			if err := s.repo.MarkOutbidTx(tx, previous.ID); err != nil {
				return err
			}
		}
		if err := s.repo.InsertBidTx(tx, bid); err != nil {
			return err
		}
		if err := s.repo.SetWinningBidTx(tx, auctionID, bid.ID); err != nil {
			return err
		}
		if err := s.repo.RefreshUniqueBiddersTx(tx, auctionID); err != nil {
			return err
		}
		if err := s.repo.BumpParticipantStatsTx(tx, auctionID, bidderID, req.Amount); err != nil {
			return err
		}

		endTime := auction.EndTime
		if newEndTime != nil {
			endTime = *newEndTime
		}
		err = s.emitter.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBidPlaced,
			AggregateType: enums.AggregateAuction,
			AggregateID:   auctionID,
			Actor:         &outbox.ActorRef{UserID: bidderID},
			Data: payloads.BidPlacedEvent{
				BidID:       bid.ID,
				AuctionID:   auctionID,
				BidderID:    bidderID,
				Amount:      req.Amount,
				TotalBids:   auction.TotalBids + 1,
				EndExtended: extended,
				NewEndTime:  newEndTimeOrNil(extended, endTime),
			},
			Version:    1,
			OccurredAt: now,
		})
		if err != nil {
			return err
		}
		if previous != nil {
			return s.emitter.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventBidOutbid,
				AggregateType: enums.AggregateAuction,
				AggregateID:   auctionID,
				Data: payloads.BidOutbidEvent{
					BidID:        previous.ID,
					AuctionID:    auctionID,
					BidderID:     previous.BidderID,
					OutbidAmount: req.Amount,
				},
				Version:    1,
				OccurredAt: now,
			})
		}
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "place bid")
	}
	return bidFromModel(bid), nil
}

func newEndTimeOrNil(extended bool, endTime time.Time) *time.Time {
	if !extended {
		return nil
	}
	return &endTime
}

func (s *service) checkBidAllowed(ctx context.Context, auction *models.Auction, bidderID uuid.UUID, amount decimal.Decimal, now time.Time) error {
	if auction.Status != enums.AuctionStatusActive {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "auction is not open for bidding")
	}
	if !auction.InBiddingWindow(now) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "bidding window is closed")
	}
	if auction.RequireRegistration {
		participant, err := s.repo.FindParticipant(ctx, auction.ID, bidderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeForbidden, "registration is required for this auction")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find participant")
		}
		if !participant.IsApproved {
			return pkgerrors.New(pkgerrors.CodeForbidden, "registration has not been approved")
		}
		if auction.RequireDeposit && !participant.DepositPaid {
			return pkgerrors.New(pkgerrors.CodeForbidden, "deposit has not been paid")
		}
	}
	if auction.WinningBidID != nil {
		current, err := s.repo.CurrentWinningBid(ctx, auction.ID)
		if err == nil && current.BidderID == bidderID {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "you are already the highest bidder")
		}
	}
	if amount.LessThan(auction.MinimumNextBid()) {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("bid must be at least %s", auction.MinimumNextBid().StringFixed(2)))
	}
	return nil
}

func (s *service) BuyNow(ctx context.Context, auctionID, bidderID uuid.UUID, meta BidMeta) (*AuctionDTO, error) {
	auction, err := s.findAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if auction.Status != enums.AuctionStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "auction is not open")
	}
	if auction.BuyNowPrice == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "auction has no buy-now price")
	}
	now := time.Now().UTC()
	if !auction.InBiddingWindow(now) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "bidding window is closed")
	}

	price := *auction.BuyNowPrice
	bid := &models.Bid{
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    price,
		Type:      enums.BidTypeAuto,
		IsActive:  true,
		IsWinning: true,
	}
	if meta.IPAddress != "" {
		bid.IPAddress = &meta.IPAddress
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		moved, err := s.repo.TransitionTx(tx, auctionID,
			enums.AuctionStatusActive, enums.AuctionStatusCompleted,
			map[string]any{"current_price": price, "completed_at": now, "reserve_met": true})
		if err != nil {
			return err
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeConflict, "auction moved on, retry")
		}

		previous, err := s.repo.CurrentWinningBidTx(tx, auctionID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if previous != nil {
			if err := s.repo.MarkOutbidTx(tx, previous.ID); err != nil {
				return err
			}
		}
		if err := s.repo.InsertBidTx(tx, bid); err != nil {
			return err
		}
		if err := s.repo.SetWinningBidTx(tx, auctionID, bid.ID); err != nil {
			return err
		}

		_, err = s.settle(ctx, tx, auction, bid, true, now, bidderID)
		return err
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "buy now")
	}

	auction.Status = enums.AuctionStatusCompleted
	auction.CurrentPrice = price
	auction.CompletedAt = &now
	auction.WinningBidID = &bid.ID
	return fromModel(auction), nil
}

func (s *service) ListBids(ctx context.Context, auctionID uuid.UUID) ([]BidDTO, error) {
	rows, err := s.repo.ListBids(ctx, auctionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list bids")
	}
	items := make([]BidDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *bidFromModel(&rows[i]))
	}
	return items, nil
}

func (s *service) Finalize(ctx context.Context, auctionID uuid.UUID, actor uuid.UUID) (*ResultDTO, error) {
	auction, err := s.findAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if auction.Status != enums.AuctionStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only active auctions can be finalized")
	}

	now := time.Now().UTC()
	var result *models.AuctionResult
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		winning, err := s.repo.HighestActiveBidTx(tx, auctionID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		reserveMet := winning != nil
		if winning != nil && auction.ReservePrice != nil {
			reserveMet = winning.Amount.GreaterThanOrEqual(*auction.ReservePrice)
		}

		updates := map[string]any{"completed_at": now, "reserve_met": reserveMet}
		moved, err := s.repo.TransitionTx(tx, auctionID,
			enums.AuctionStatusActive, enums.AuctionStatusCompleted, updates)
		if err != nil {
			return err
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeConflict, "auction moved on, retry")
		}

		if winning != nil && reserveMet {
			if err := s.repo.SetWinningBidTx(tx, auctionID, winning.ID); err != nil {
				return err
			}
		}
		settled, err := s.settle(ctx, tx, auction, winningIfMet(winning, reserveMet), reserveMet, now, actor)
		if err != nil {
			return err
		}
		result = settled
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "finalize auction")
	}
	return resultFromModel(result), nil
}

func winningIfMet(bid *models.Bid, reserveMet bool) *models.Bid {
	if !reserveMet {
		return nil
	}
	return bid
}

// settle writes the result row, moves the vehicle and emits
// auction.completed. Runs inside the finalization transaction.
func (s *service) settle(ctx context.Context, tx *gorm.DB, auction *models.Auction, winning *models.Bid, reserveMet bool, now time.Time, actor uuid.UUID) (*models.AuctionResult, error) {
	result := &models.AuctionResult{
		AuctionID:      auction.ID,
		FinalPrice:     decimal.Zero,
		PaymentStatus:  enums.ResultPaymentPending,
		DeliveryStatus: enums.DeliveryPending,
		ReserveMet:     reserveMet,
	}
	var winnerID, winningBidID *uuid.UUID
	var finalPrice *decimal.Decimal
	if winning != nil {
		result.WinnerID = &winning.BidderID
		result.WinningBidID = &winning.ID
		result.FinalPrice = winning.Amount
		result.TotalDue = winning.Amount
		dueDate := now.AddDate(0, 0, paymentDueDays)
		result.PaymentDueDate = &dueDate
		winnerID = &winning.BidderID
		winningBidID = &winning.ID
		finalPrice = &winning.Amount
	}
	if err := s.repo.CreateResultTx(tx, result); err != nil {
		return nil, err
	}

	vehicle, err := s.vehicles.FindByID(ctx, auction.VehicleID)
	if err != nil {
		return nil, err
	}
	if winning != nil {
		note := "sold at auction " + auction.AuctionNumber
		actorID := actor
		if err := s.vehicles.ChangeStatusTx(tx, vehicle, enums.VehicleStatusAuctioned, &note, &actorID, now); err != nil {
			return nil, err
		}
	}

	err = s.emitter.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventAuctionCompleted,
		AggregateType: enums.AggregateAuction,
		AggregateID:   auction.ID,
		Actor:         &outbox.ActorRef{UserID: actor},
		Data: payloads.AuctionCompletedEvent{
			AuctionID:     auction.ID,
			AuctionNumber: auction.AuctionNumber,
			VehicleID:     auction.VehicleID,
			WinningBidID:  winningBidID,
			WinnerID:      winnerID,
			FinalPrice:    finalPrice,
			ReserveMet:    reserveMet,
		},
		Version:    1,
		OccurredAt: now,
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Watch(ctx context.Context, auctionID, userID uuid.UUID, req WatchRequest) (*WatchDTO, error) {
	if _, err := s.findAuction(ctx, auctionID); err != nil {
		return nil, err
	}
	watch := &models.AuctionWatchlistItem{
		AuctionID:       auctionID,
		UserID:          userID,
		NotifyBeforeEnd: true,
		NotifyOnOutbid:  true,
	}
	if req.NotifyBeforeEnd != nil {
		watch.NotifyBeforeEnd = *req.NotifyBeforeEnd
	}
	if req.NotifyOnOutbid != nil {
		watch.NotifyOnOutbid = *req.NotifyOnOutbid
	}
	if err := s.repo.AddWatch(ctx, watch); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "watch auction")
	}
	return watchFromModel(watch), nil
}

func (s *service) Unwatch(ctx context.Context, auctionID, userID uuid.UUID) error {
	if err := s.repo.RemoveWatch(ctx, auctionID, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unwatch auction")
	}
	return nil
}

func (s *service) Watchlist(ctx context.Context, userID uuid.UUID) ([]WatchDTO, error) {
	rows, err := s.repo.ListWatched(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load watchlist")
	}
	items := make([]WatchDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *watchFromModel(&rows[i]))
	}
	return items, nil
}

func (s *service) Result(ctx context.Context, auctionID uuid.UUID) (*ResultDTO, error) {
	result, err := s.repo.FindResult(ctx, auctionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "result not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find result")
	}
	return resultFromModel(result), nil
}

func (s *service) UpdateResult(ctx context.Context, auctionID uuid.UUID, req UpdateResultRequest) (*ResultDTO, error) {
	result, err := s.repo.FindResult(ctx, auctionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "result not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find result")
	}

	if req.BuyersPremium != nil {
		result.BuyersPremium = *req.BuyersPremium
	}
	if req.Taxes != nil {
		result.Taxes = *req.Taxes
	}
	if req.Fees != nil {
		result.Fees = *req.Fees
	}
	result.TotalDue = result.FinalPrice.
		Add(result.BuyersPremium).
		Add(result.Taxes).
		Add(result.Fees)

	if req.AmountPaid != nil {
		if req.AmountPaid.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount paid must not be negative")
		}
		result.AmountPaid = *req.AmountPaid
		switch {
		case result.AmountPaid.GreaterThanOrEqual(result.TotalDue) && result.TotalDue.GreaterThan(decimal.Zero):
			result.PaymentStatus = enums.ResultPaymentPaid
		case result.AmountPaid.GreaterThan(decimal.Zero):
			result.PaymentStatus = enums.ResultPaymentPartial
		default:
			result.PaymentStatus = enums.ResultPaymentPending
		}
	}
	if req.PaymentDueDate != nil {
		result.PaymentDueDate = req.PaymentDueDate
	}
	if req.DeliveryStatus != nil {
		if !req.DeliveryStatus.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery status")
		}
		result.DeliveryStatus = *req.DeliveryStatus
		if *req.DeliveryStatus == enums.DeliveryDelivered {
			now := time.Now().UTC()
			result.DeliveredAt = &now
		}
	}
	if req.Notes != nil {
		result.Notes = req.Notes
	}

	if err := s.repo.UpdateResult(ctx, result); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update result")
	}
	return resultFromModel(result), nil
}

// Sweep advances overdue lifecycle states; run from cron.
func (s *service) Sweep(ctx context.Context, now time.Time) (int, int, error) {
	activated := 0
	due, err := s.repo.ListDueForActivation(ctx, now)
	if err != nil {
		return 0, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list auctions due for activation")
	}
	for i := range due {
		if _, err := s.Activate(ctx, due[i].ID, uuid.Nil); err != nil {
			if pkgerrors.As(err) != nil {
				continue
			}
			return activated, 0, err
		}
		activated++
	}

	completed := 0
	ended, err := s.repo.ListDueForCompletion(ctx, now)
	if err != nil {
		return activated, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list auctions due for completion")
	}
	for i := range ended {
		if _, err := s.Finalize(ctx, ended[i].ID, uuid.Nil); err != nil {
			if pkgerrors.As(err) != nil {
				continue
			}
			return activated, completed, err
		}
		completed++
	}
	return activated, completed, nil
}

func (s *service) findAuction(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	auction, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "auction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find auction")
	}
	return auction, nil
}
