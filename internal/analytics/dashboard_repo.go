package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DashboardRepository computes seller metrics from the transactional store.
type DashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

type orderTotalsRow struct {
	OrderCount   int64 `gorm:"column:order_count"`
	RevenueCents int64 `gorm:"column:revenue_cents"`
}

type topProductRow struct {
	ProductID    uuid.UUID `gorm:"column:product_id"`
	Title        string    `gorm:"column:title"`
	UnitsSold    int64     `gorm:"column:units_sold"`
	RevenueCents int64     `gorm:"column:revenue_cents"`
}

// OrderTotals counts orders and sums revenue for a seller inside a window.
// Cancelled orders are excluded from both figures.
func (r *DashboardRepository) OrderTotals(ctx context.Context, sellerID uuid.UUID, from, to time.Time) (orderTotalsRow, error) {
	var row orderTotalsRow
	err := r.db.WithContext(ctx).
		Raw(`SELECT COUNT(*) AS order_count, COALESCE(SUM(total_cents), 0) AS revenue_cents
		     FROM orders
		     WHERE seller_id = ? AND status <> 'cancelled'
		       AND created_at >= ? AND created_at < ?`,
			sellerID, from, to).
		Scan(&row).Error
	return row, err
}

// TopProducts ranks a seller's products by units sold inside a window.
func (r *DashboardRepository) TopProducts(ctx context.Context, sellerID uuid.UUID, from, to time.Time, limit int) ([]topProductRow, error) {
	var rows []topProductRow
	err := r.db.WithContext(ctx).
		Raw(`SELECT oi.product_id, oi.title,
		            SUM(oi.quantity) AS units_sold,
		            SUM(oi.line_total_cents) AS revenue_cents
		     FROM order_items oi
		     JOIN orders o ON o.id = oi.order_id
		     WHERE o.seller_id = ? AND o.status <> 'cancelled'
		       AND o.created_at >= ? AND o.created_at < ?
		     GROUP BY oi.product_id, oi.title
		     ORDER BY units_sold DESC, revenue_cents DESC
		     LIMIT ?`,
			sellerID, from, to, limit).
		Scan(&rows).Error
	return rows, err
}

// RepeatCustomerCount counts buyers with at least two non-cancelled orders
// from the seller inside the window.
func (r *DashboardRepository) RepeatCustomerCount(ctx context.Context, sellerID uuid.UUID, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Raw(`SELECT COUNT(*) FROM (
		       SELECT buyer_id
		       FROM orders
		       WHERE seller_id = ? AND status <> 'cancelled'
		         AND created_at >= ? AND created_at < ?
		       GROUP BY buyer_id
		       HAVING COUNT(*) >= 2
		     ) repeats`,
			sellerID, from, to).
		Scan(&count).Error
	return count, err
}
