package auctions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/pagination"
)

// Repository persists auctions, bids, participants, watchlist and results.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the auctions repo to a GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateTx inserts an auction inside the caller's transaction.
func (r *Repository) CreateTx(tx *gorm.DB, auction *models.Auction) error {
	return tx.Create(auction).Error
}

// FindByID loads one auction.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	var auction models.Auction
	if err := r.db.WithContext(ctx).First(&auction, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &auction, nil
}

// List pages auctions with filters, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Auction, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.Auction{}), filter)
	if cursor, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, err
	} else if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Auction
	err := query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	return rows, err
}

func (r *Repository) applyFilter(query *gorm.DB, filter ListFilter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.VehicleID != nil {
		query = query.Where("vehicle_id = ?", *filter.VehicleID)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("auction_number ILIKE ? OR title ILIKE ?", like, like)
	}
	return query
}

// Update persists auction field edits.
func (r *Repository) Update(ctx context.Context, auction *models.Auction) error {
	return r.db.WithContext(ctx).Save(auction).Error
}

// TransitionTx moves the auction between lifecycle states guarded on
// the current status; returns false when another writer got there first.
func (r *Repository) TransitionTx(tx *gorm.DB, auctionID uuid.UUID, from, to enums.AuctionStatus, updates map[string]any) (bool, error) {
	if updates == nil {
		updates = map[string]any{}
	}
	updates["status"] = to
	result := tx.Model(&models.Auction{}).
		Where("id = ? AND status = ?", auctionID, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ClaimBidTx reserves the right to append a bid by bumping the auction
// row only when price and counter still match what the bidder saw.
func (r *Repository) ClaimBidTx(tx *gorm.DB, auction *models.Auction, amount decimal.Decimal, newEndTime *time.Time, now time.Time) (bool, error) {
	updates := map[string]any{
		"current_price": amount,
		"total_bids":    auction.TotalBids + 1,
		"updated_at":    now,
	}
	if newEndTime != nil {
		updates["end_time"] = *newEndTime
	}
	result := tx.Model(&models.Auction{}).
		Where("id = ? AND status = ? AND total_bids = ? AND current_price = ?",
			auction.ID, enums.AuctionStatusActive, auction.TotalBids, auction.CurrentPrice).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// InsertBidTx appends the accepted bid.
func (r *Repository) InsertBidTx(tx *gorm.DB, bid *models.Bid) error {
	return tx.Create(bid).Error
}

// CurrentWinningBidTx returns the bid currently flagged winning, if any.
func (r *Repository) CurrentWinningBidTx(tx *gorm.DB, auctionID uuid.UUID) (*models.Bid, error) {
	var bid models.Bid
	err := tx.Where("auction_id = ? AND is_winning", auctionID).First(&bid).Error
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

// CurrentWinningBid returns the winning bid outside a transaction.
func (r *Repository) CurrentWinningBid(ctx context.Context, auctionID uuid.UUID) (*models.Bid, error) {
	var bid models.Bid
	err := r.db.WithContext(ctx).
		Where("auction_id = ? AND is_winning", auctionID).
		First(&bid).Error
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

// MarkOutbidTx demotes the displaced winning bid.
func (r *Repository) MarkOutbidTx(tx *gorm.DB, bidID uuid.UUID) error {
	return tx.Model(&models.Bid{}).
		Where("id = ?", bidID).
		Updates(map[string]any{"is_winning": false, "is_outbid": true}).Error
}

// SetWinningBidTx stamps the auction's winning bid pointer.
func (r *Repository) SetWinningBidTx(tx *gorm.DB, auctionID, bidID uuid.UUID) error {
	return tx.Model(&models.Auction{}).
		Where("id = ?", auctionID).
		UpdateColumn("winning_bid_id", bidID).Error
}

// HighestActiveBidTx returns the best active bid; earliest of equal
// amounts wins.
func (r *Repository) HighestActiveBidTx(tx *gorm.DB, auctionID uuid.UUID) (*models.Bid, error) {
	var bid models.Bid
	err := tx.Where("auction_id = ? AND is_active", auctionID).
		Order("amount DESC, created_at ASC").
		First(&bid).Error
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

// ListBids returns the bid trail newest first.
func (r *Repository) ListBids(ctx context.Context, auctionID uuid.UUID) ([]models.Bid, error) {
	var rows []models.Bid
	err := r.db.WithContext(ctx).
		Where("auction_id = ?", auctionID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// RefreshUniqueBiddersTx recomputes the distinct-bidder counter.
func (r *Repository) RefreshUniqueBiddersTx(tx *gorm.DB, auctionID uuid.UUID) error {
	return tx.Model(&models.Auction{}).
		Where("id = ?", auctionID).
		UpdateColumn("unique_bidders", gorm.Expr(
			"(SELECT COUNT(DISTINCT bidder_id) FROM bids WHERE auction_id = ?)", auctionID)).Error
}

// CreateParticipant enrolls a bidder.
func (r *Repository) CreateParticipant(ctx context.Context, participant *models.AuctionParticipant) error {
	return r.db.WithContext(ctx).Create(participant).Error
}

// FindParticipant loads one enrollment by auction and user.
func (r *Repository) FindParticipant(ctx context.Context, auctionID, userID uuid.UUID) (*models.AuctionParticipant, error) {
	var participant models.AuctionParticipant
	err := r.db.WithContext(ctx).
		Where("auction_id = ? AND user_id = ?", auctionID, userID).
		First(&participant).Error
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

// ListParticipants returns all enrollments for one auction.
func (r *Repository) ListParticipants(ctx context.Context, auctionID uuid.UUID) ([]models.AuctionParticipant, error) {
	var rows []models.AuctionParticipant
	err := r.db.WithContext(ctx).
		Where("auction_id = ?", auctionID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// UpdateParticipant persists enrollment changes.
func (r *Repository) UpdateParticipant(ctx context.Context, participant *models.AuctionParticipant) error {
	return r.db.WithContext(ctx).Save(participant).Error
}

// BumpParticipantStatsTx tracks the bidder's count and best amount.
func (r *Repository) BumpParticipantStatsTx(tx *gorm.DB, auctionID, userID uuid.UUID, amount decimal.Decimal) error {
	return tx.Model(&models.AuctionParticipant{}).
		Where("auction_id = ? AND user_id = ?", auctionID, userID).
		Updates(map[string]any{
			"bid_count":   gorm.Expr("bid_count + 1"),
			"highest_bid": gorm.Expr("GREATEST(COALESCE(highest_bid, 0), ?)", amount),
		}).Error
}

// AddWatch inserts a watchlist entry, ignoring duplicates.
func (r *Repository) AddWatch(ctx context.Context, watch *models.AuctionWatchlistItem) error {
	return r.db.WithContext(ctx).Create(watch).Error
}

// RemoveWatch drops a watchlist entry.
func (r *Repository) RemoveWatch(ctx context.Context, auctionID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("auction_id = ? AND user_id = ?", auctionID, userID).
		Delete(&models.AuctionWatchlistItem{}).Error
}

// ListWatched returns the auctions one user watches.
func (r *Repository) ListWatched(ctx context.Context, userID uuid.UUID) ([]models.AuctionWatchlistItem, error) {
	var rows []models.AuctionWatchlistItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// CreateResultTx writes the settlement row.
func (r *Repository) CreateResultTx(tx *gorm.DB, result *models.AuctionResult) error {
	return tx.Create(result).Error
}

// FindResult loads the settlement row for one auction.
func (r *Repository) FindResult(ctx context.Context, auctionID uuid.UUID) (*models.AuctionResult, error) {
	var result models.AuctionResult
	err := r.db.WithContext(ctx).
		Where("auction_id = ?", auctionID).
		First(&result).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateResult persists settlement changes.
func (r *Repository) UpdateResult(ctx context.Context, result *models.AuctionResult) error {
	return r.db.WithContext(ctx).Save(result).Error
}

// ListDueForActivation returns scheduled auctions whose window opened.
func (r *Repository) ListDueForActivation(ctx context.Context, now time.Time) ([]models.Auction, error) {
	var rows []models.Auction
	err := r.db.WithContext(ctx).
		Where("status = ? AND start_time <= ?", enums.AuctionStatusScheduled, now).
		Find(&rows).Error
	return rows, err
}

// ListDueForCompletion returns active auctions whose window closed.
func (r *Repository) ListDueForCompletion(ctx context.Context, now time.Time) ([]models.Auction, error) {
	var rows []models.Auction
	err := r.db.WithContext(ctx).
		Where("status = ? AND end_time <= ?", enums.AuctionStatusActive, now).
		Find(&rows).Error
	return rows, err
}
