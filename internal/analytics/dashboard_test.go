package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/jdelacruz/tradepost-backend/pkg/errors"
)

type stubDashboardStore struct {
	totals  orderTotalsRow
	top     []topProductRow
	repeats int64

	from time.Time
	to   time.Time
}

func (s *stubDashboardStore) OrderTotals(ctx context.Context, sellerID uuid.UUID, from, to time.Time) (orderTotalsRow, error) {
	s.from, s.to = from, to
	return s.totals, nil
}

func (s *stubDashboardStore) TopProducts(ctx context.Context, sellerID uuid.UUID, from, to time.Time, limit int) ([]topProductRow, error) {
	if len(s.top) > limit {
		return s.top[:limit], nil
	}
	return s.top, nil
}

func (s *stubDashboardStore) RepeatCustomerCount(ctx context.Context, sellerID uuid.UUID, from, to time.Time) (int64, error) {
	return s.repeats, nil
}

func TestSellerDashboardFormatsPesoAmounts(t *testing.T) {
	productID := uuid.New()
	store := &stubDashboardStore{
		totals:  orderTotalsRow{OrderCount: 4, RevenueCents: 460000},
		repeats: 2,
		top: []topProductRow{
			{ProductID: productID, Title: "Vintage binder", UnitsSold: 7, RevenueCents: 315000},
		},
	}
	svc, err := NewDashboard(store)
	if err != nil {
		t.Fatalf("NewDashboard: %v", err)
	}

	from := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	dto, err := svc.SellerDashboard(context.Background(), uuid.New(), from, to)
	if err != nil {
		t.Fatalf("SellerDashboard: %v", err)
	}

	if dto.Orders != 4 || dto.RepeatCustomers != 2 {
		t.Fatalf("unexpected counts: %+v", dto)
	}
	if dto.Revenue != "4600.00" {
		t.Fatalf("expected revenue 4600.00, got %s", dto.Revenue)
	}
	if dto.AvgOrderValue != "1150.00" {
		t.Fatalf("expected avg order value 1150.00, got %s", dto.AvgOrderValue)
	}
	if len(dto.TopProducts) != 1 || dto.TopProducts[0].Revenue != "3150.00" {
		t.Fatalf("unexpected top products: %+v", dto.TopProducts)
	}
	if !store.from.Equal(from) || !store.to.Equal(to) {
		t.Fatal("expected explicit window passed to the store")
	}
}

func TestSellerDashboardDefaultsWindow(t *testing.T) {
	store := &stubDashboardStore{}
	svc, _ := NewDashboard(store)

	dto, err := svc.SellerDashboard(context.Background(), uuid.New(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("SellerDashboard: %v", err)
	}
	if got := dto.To.Sub(dto.From); got != defaultWindowDays*24*time.Hour {
		t.Fatalf("expected 30 day default window, got %s", got)
	}
	if dto.AvgOrderValue != "0.00" {
		t.Fatalf("expected zero average with no orders, got %s", dto.AvgOrderValue)
	}
}

func TestSellerDashboardValidation(t *testing.T) {
	svc, _ := NewDashboard(&stubDashboardStore{})

	_, err := svc.SellerDashboard(context.Background(), uuid.Nil, time.Time{}, time.Time{})
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for nil seller, got %v", err)
	}

	now := time.Now()
	_, err = svc.SellerDashboard(context.Background(), uuid.New(), now, now.Add(-time.Hour))
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for inverted window, got %v", err)
	}

	_, err = svc.SellerDashboard(context.Background(), uuid.New(), now.AddDate(-2, 0, 0), now)
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for oversized window, got %v", err)
	}
}
