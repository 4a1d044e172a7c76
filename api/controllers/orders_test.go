package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jdelacruz/tradepost-backend/api/middleware"
	ordersvc "github.com/jdelacruz/tradepost-backend/internal/orders"
	"github.com/jdelacruz/tradepost-backend/pkg/enums"
	"github.com/jdelacruz/tradepost-backend/pkg/pagination"
)

type stubOrderService struct {
	order *ordersvc.OrderDTO
	list  *ordersvc.OrderList
	err   error

	advanced *ordersvc.AdvanceStatusInput
	got      *ordersvc.GetOrderInput
}

func (s *stubOrderService) PlaceOrder(ctx context.Context, input ordersvc.PlaceOrderInput) (*ordersvc.OrderDTO, error) {
	return s.order, s.err
}

func (s *stubOrderService) GetOrder(ctx context.Context, input ordersvc.GetOrderInput) (*ordersvc.OrderDTO, error) {
	s.got = &input
	return s.order, s.err
}

func (s *stubOrderService) ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters ordersvc.ListFilters) (*ordersvc.OrderList, error) {
	return s.list, s.err
}

func (s *stubOrderService) ListSellerOrders(ctx context.Context, sellerID uuid.UUID, params pagination.Params, filters ordersvc.ListFilters) (*ordersvc.OrderList, error) {
	return s.list, s.err
}

func (s *stubOrderService) AdvanceStatus(ctx context.Context, input ordersvc.AdvanceStatusInput) (*ordersvc.OrderDTO, error) {
	s.advanced = &input
	return s.order, s.err
}

func (s *stubOrderService) CancelOrder(ctx context.Context, input ordersvc.CancelOrderInput) (*ordersvc.OrderDTO, error) {
	return s.order, s.err
}

func (s *stubOrderService) ConfirmCardPayment(ctx context.Context, input ordersvc.ConfirmCardPaymentInput) (*ordersvc.OrderDTO, error) {
	return s.order, s.err
}

func (s *stubOrderService) ExpireStalePendingCardOrders(ctx context.Context, cutoff time.Time) (int, error) {
	return 0, s.err
}

func TestOrderGetAsBuyer(t *testing.T) {
	orderID := uuid.New()
	buyerID := uuid.New()
	stub := &stubOrderService{order: &ordersvc.OrderDTO{ID: orderID, BuyerID: buyerID, Status: enums.OrderStatusProcessing}}
	handler := OrderGet(stub, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("orderId", orderID.String())
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	ctx = middleware.WithUserID(ctx, buyerID.String())
	ctx = middleware.WithRole(ctx, string(enums.UserRoleBuyer))
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if stub.got == nil {
		t.Fatal("expected GetOrder to be called")
	}
	if stub.got.Role != enums.UserRoleBuyer {
		t.Fatalf("unexpected role: %s", stub.got.Role)
	}
	if stub.got.SellerID != nil {
		t.Fatalf("expected no seller scope for buyer, got %s", stub.got.SellerID)
	}
}

func TestOrderGetRejectsMissingRole(t *testing.T) {
	orderID := uuid.New()
	handler := OrderGet(&stubOrderService{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("orderId", orderID.String())
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	ctx = middleware.WithUserID(ctx, uuid.New().String())
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestOrderAdvanceParsesTarget(t *testing.T) {
	orderID := uuid.New()
	sellerID := uuid.New()
	userID := uuid.New()
	stub := &stubOrderService{order: &ordersvc.OrderDTO{ID: orderID, Status: enums.OrderStatusShipped}}
	handler := OrderAdvance(stub, testLogger())

	body, _ := json.Marshal(map[string]any{"target": "shipped", "tracking_number": "TRK-20260815"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/seller/orders/"+orderID.String()+"/advance", bytes.NewReader(body))
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("orderId", orderID.String())
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	ctx = middleware.WithUserID(ctx, userID.String())
	ctx = middleware.WithSellerID(ctx, sellerID.String())
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if stub.advanced == nil {
		t.Fatal("expected AdvanceStatus to be called")
	}
	if stub.advanced.Target != enums.OrderStatusShipped {
		t.Fatalf("unexpected target: %s", stub.advanced.Target)
	}
	if stub.advanced.SellerID != sellerID {
		t.Fatalf("unexpected seller: %s", stub.advanced.SellerID)
	}
	if stub.advanced.TrackingNumber == nil || *stub.advanced.TrackingNumber != "TRK-20260815" {
		t.Fatalf("unexpected tracking number: %v", stub.advanced.TrackingNumber)
	}
}

func TestOrderAdvanceRejectsUnknownTarget(t *testing.T) {
	orderID := uuid.New()
	handler := OrderAdvance(&stubOrderService{}, testLogger())

	body, _ := json.Marshal(map[string]any{"target": "teleported"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/seller/orders/"+orderID.String()+"/advance", bytes.NewReader(body))
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("orderId", orderID.String())
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	ctx = middleware.WithUserID(ctx, uuid.New().String())
	ctx = middleware.WithSellerID(ctx, uuid.New().String())
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestOrderAdvanceRequiresSellerContext(t *testing.T) {
	orderID := uuid.New()
	handler := OrderAdvance(&stubOrderService{}, testLogger())

	body, _ := json.Marshal(map[string]any{"target": "shipped"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/seller/orders/"+orderID.String()+"/advance", bytes.NewReader(body))
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("orderId", orderID.String())
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	ctx = middleware.WithUserID(ctx, uuid.New().String())
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
}

func TestBuyerOrdersListAppliesFilters(t *testing.T) {
	buyerID := uuid.New()
	stub := &stubOrderService{list: &ordersvc.OrderList{}}
	handler := BuyerOrdersList(stub, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?status=delivered", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), buyerID.String()))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestBuyerOrdersListRejectsBadStatus(t *testing.T) {
	handler := BuyerOrdersList(&stubOrderService{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?status=lost", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.New().String()))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}
