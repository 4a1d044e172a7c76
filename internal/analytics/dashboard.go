package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/jdelacruz/tradepost-backend/pkg/errors"
)

const (
	defaultWindowDays = 30
	topProductsLimit  = 5
	maxWindowDuration = 366 * 24 * time.Hour
)

// TopProductDTO is one entry of the seller's best-seller ranking.
type TopProductDTO struct {
	ProductID    uuid.UUID `json:"product_id"`
	Title        string    `json:"title"`
	UnitsSold    int64     `json:"units_sold"`
	RevenueCents int64     `json:"revenue_cents"`
	Revenue      string    `json:"revenue"`
}

// SellerDashboardDTO aggregates a seller's performance over a window.
type SellerDashboardDTO struct {
	From            time.Time       `json:"from"`
	To              time.Time       `json:"to"`
	Orders          int64           `json:"orders"`
	RevenueCents    int64           `json:"revenue_cents"`
	Revenue         string          `json:"revenue"`
	AvgOrderValue   string          `json:"avg_order_value"`
	RepeatCustomers int64           `json:"repeat_customers"`
	TopProducts     []TopProductDTO `json:"top_products"`
}

type dashboardStore interface {
	OrderTotals(ctx context.Context, sellerID uuid.UUID, from, to time.Time) (orderTotalsRow, error)
	TopProducts(ctx context.Context, sellerID uuid.UUID, from, to time.Time, limit int) ([]topProductRow, error)
	RepeatCustomerCount(ctx context.Context, sellerID uuid.UUID, from, to time.Time) (int64, error)
}

// Dashboard serves seller-facing analytics.
type Dashboard interface {
	SellerDashboard(ctx context.Context, sellerID uuid.UUID, from, to time.Time) (SellerDashboardDTO, error)
}

type dashboard struct {
	store dashboardStore
	now   func() time.Time
}

// NewDashboard builds the seller analytics service.
func NewDashboard(store dashboardStore) (Dashboard, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "dashboard store required")
	}
	return &dashboard{store: store, now: time.Now}, nil
}

// SellerDashboard computes order, revenue and customer metrics for a seller.
// A zero window defaults to the trailing 30 days.
func (d *dashboard) SellerDashboard(ctx context.Context, sellerID uuid.UUID, from, to time.Time) (SellerDashboardDTO, error) {
	if sellerID == uuid.Nil {
		return SellerDashboardDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "seller id is required")
	}

	if to.IsZero() {
		to = d.now().UTC()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -defaultWindowDays)
	}
	if !from.Before(to) {
		return SellerDashboardDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "window start must be before window end")
	}
	if to.Sub(from) > maxWindowDuration {
		return SellerDashboardDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "window cannot exceed one year")
	}

	totals, err := d.store.OrderTotals(ctx, sellerID, from, to)
	if err != nil {
		return SellerDashboardDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order totals")
	}
	repeats, err := d.store.RepeatCustomerCount(ctx, sellerID, from, to)
	if err != nil {
		return SellerDashboardDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count repeat customers")
	}
	top, err := d.store.TopProducts(ctx, sellerID, from, to, topProductsLimit)
	if err != nil {
		return SellerDashboardDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load top products")
	}

	dto := SellerDashboardDTO{
		From:            from,
		To:              to,
		Orders:          totals.OrderCount,
		RevenueCents:    totals.RevenueCents,
		Revenue:         pesos(totals.RevenueCents),
		AvgOrderValue:   pesos(0),
		RepeatCustomers: repeats,
		TopProducts:     make([]TopProductDTO, 0, len(top)),
	}
	if totals.OrderCount > 0 {
		avg := decimal.New(totals.RevenueCents, -2).
			Div(decimal.NewFromInt(totals.OrderCount))
		dto.AvgOrderValue = avg.StringFixed(2)
	}
	for _, row := range top {
		dto.TopProducts = append(dto.TopProducts, TopProductDTO{
			ProductID:    row.ProductID,
			Title:        row.Title,
			UnitsSold:    row.UnitsSold,
			RevenueCents: row.RevenueCents,
			Revenue:      pesos(row.RevenueCents),
		})
	}
	return dto, nil
}

// pesos renders a centavo amount as a fixed two-decimal peso string.
func pesos(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
