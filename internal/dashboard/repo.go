package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
)

// Repository runs the aggregate queries behind the dashboard endpoints.
type Repository struct {
	db *gorm.DB
}

// NewRepository returns a dashboard repository bound to the provided database.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type statusCountRow struct {
	Status string
	Count  int64
}

// VehicleCountsByStatus groups the inventory by status.
func (r *Repository) VehicleCountsByStatus(ctx context.Context) (map[enums.VehicleStatus]int64, error) {
	var rows []statusCountRow
	err := r.db.WithContext(ctx).Model(&models.Vehicle{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[enums.VehicleStatus]int64, len(rows))
	for _, row := range rows {
		counts[enums.VehicleStatus(row.Status)] = row.Count
	}
	return counts, nil
}

// ClientCounts returns total, active and blacklisted client counts.
func (r *Repository) ClientCounts(ctx context.Context) (total, active, blacklisted int64, err error) {
	base := r.db.WithContext(ctx).Model(&models.Client{})
	if err = base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return
	}
	if err = base.Session(&gorm.Session{}).Where("status = ?", enums.ClientStatusActive).Count(&active).Error; err != nil {
		return
	}
	err = base.Session(&gorm.Session{}).Where("is_blacklisted").Count(&blacklisted).Error
	return
}

// PaymentTotals sums completed receipts in [from, to).
func (r *Repository) PaymentTotals(ctx context.Context, from, to time.Time) (decimal.Decimal, int64, error) {
	var row struct {
		Total decimal.NullDecimal
		Count int64
	}
	err := r.db.WithContext(ctx).Model(&models.Payment{}).
		Select("COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Where("payment_date >= ? AND payment_date < ?", from, to).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, 0, err
	}
	total := decimal.Zero
	if row.Total.Valid {
		total = row.Total.Decimal
	}
	return total, row.Count, nil
}

// ExpenseTotals sums approved and paid expenses (amount + tax) whose
// expense date falls in [from, to).
func (r *Repository) ExpenseTotals(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).Model(&models.Expense{}).
		Select("SUM(amount + tax_amount)").
		Where("status IN ?", []enums.ExpenseStatus{enums.ExpenseStatusApproved, enums.ExpenseStatusPaid}).
		Where("expense_date >= ? AND expense_date < ?", from, to).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// SalesTotals covers vehicles sold since the given time.
func (r *Repository) SalesTotals(ctx context.Context, since time.Time) (count int64, revenue decimal.Decimal, err error) {
	var row struct {
		Count   int64
		Revenue decimal.NullDecimal
	}
	err = r.db.WithContext(ctx).Model(&models.Vehicle{}).
		Select("COUNT(*) AS count, COALESCE(SUM(selling_price), 0) AS revenue").
		Where("status = ? AND date_sold >= ?", enums.VehicleStatusSold, since).
		Scan(&row).Error
	if err != nil {
		return 0, decimal.Zero, err
	}
	revenue = decimal.Zero
	if row.Revenue.Valid {
		revenue = row.Revenue.Decimal
	}
	return row.Count, revenue, nil
}

// AuctionCounts returns active and scheduled auction counts.
func (r *Repository) AuctionCounts(ctx context.Context) (active, scheduled int64, err error) {
	base := r.db.WithContext(ctx).Model(&models.Auction{})
	if err = base.Session(&gorm.Session{}).Where("status = ?", enums.AuctionStatusActive).Count(&active).Error; err != nil {
		return
	}
	err = base.Session(&gorm.Session{}).Where("status = ?", enums.AuctionStatusScheduled).Count(&scheduled).Error
	return
}

// BidsBetween counts bids placed in [from, to).
func (r *Repository) BidsBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Bid{}).
		Where("created_at >= ? AND created_at < ?", from, to).
		Count(&count).Error
	return count, err
}

// ActiveAuctionBidTotal sums total_bids across active auctions.
func (r *Repository) ActiveAuctionBidTotal(ctx context.Context) (int64, error) {
	var total *int64
	err := r.db.WithContext(ctx).Model(&models.Auction{}).
		Select("SUM(total_bids)").
		Where("status = ?", enums.AuctionStatusActive).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// UnreadNotifications counts the caller's unread, undismissed rows.
func (r *Repository) UnreadNotifications(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL AND dismissed_at IS NULL", userID).
		Count(&count).Error
	return count, err
}
