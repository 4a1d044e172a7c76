package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jdelacruz/tradepost-backend/api/middleware"
	productsvc "github.com/jdelacruz/tradepost-backend/internal/products"
)

type stubProductService struct {
	product *productsvc.ProductDTO
	list    *productsvc.ProductListResult
	logs    []productsvc.InventoryLogDTO
	err     error

	adjusted *productsvc.AdjustStockInput
}

func (s *stubProductService) CreateProduct(ctx context.Context, sellerID uuid.UUID, input productsvc.CreateProductInput) (*productsvc.ProductDTO, error) {
	return s.product, s.err
}

func (s *stubProductService) UpdateProduct(ctx context.Context, sellerID, productID uuid.UUID, input productsvc.UpdateProductInput) (*productsvc.ProductDTO, error) {
	return s.product, s.err
}

func (s *stubProductService) UnlistProduct(ctx context.Context, sellerID, productID uuid.UUID) error {
	return s.err
}

func (s *stubProductService) GetProduct(ctx context.Context, productID uuid.UUID) (*productsvc.ProductDTO, error) {
	return s.product, s.err
}

func (s *stubProductService) ListProducts(ctx context.Context, input productsvc.ListProductsInput) (*productsvc.ProductListResult, error) {
	return s.list, s.err
}

func (s *stubProductService) AdjustStock(ctx context.Context, sellerID, productID uuid.UUID, input productsvc.AdjustStockInput) (*productsvc.ProductDTO, error) {
	s.adjusted = &input
	return s.product, s.err
}

func (s *stubProductService) ListStockHistory(ctx context.Context, sellerID, productID uuid.UUID, limit int) ([]productsvc.InventoryLogDTO, error) {
	return s.logs, s.err
}

func TestCatalogGetReturnsProduct(t *testing.T) {
	productID := uuid.New()
	stub := &stubProductService{product: &productsvc.ProductDTO{ID: productID, Title: "Solar Lantern"}}
	handler := CatalogGet(stub, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products/"+productID.String(), nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("productId", productID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var envelope struct {
		Data productsvc.ProductDTO `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != productID {
		t.Fatalf("unexpected product id: %s", envelope.Data.ID)
	}
}

func TestCatalogGetRejectsBadID(t *testing.T) {
	handler := CatalogGet(&stubProductService{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products/nope", nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("productId", "nope")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestProductCreateRequiresSellerContext(t *testing.T) {
	handler := ProductCreate(&stubProductService{}, testLogger())

	body, _ := json.Marshal(map[string]any{
		"sku":         "SKU-1001",
		"title":       "Solar Lantern",
		"category":    "electronics",
		"price_cents": 149900,
		"stock":       10,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/seller/products", bytes.NewReader(body))
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.New().String()))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
}

func TestProductCreateRejectsUnknownCategory(t *testing.T) {
	handler := ProductCreate(&stubProductService{}, testLogger())

	body, _ := json.Marshal(map[string]any{
		"sku":         "SKU-1001",
		"title":       "Solar Lantern",
		"category":    "contraband",
		"price_cents": 149900,
		"stock":       10,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/seller/products", bytes.NewReader(body))
	ctx := middleware.WithUserID(req.Context(), uuid.New().String())
	ctx = middleware.WithSellerID(ctx, uuid.New().String())
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestProductAdjustStockRejectsUnknownReason(t *testing.T) {
	productID := uuid.New()
	handler := ProductAdjustStock(&stubProductService{}, testLogger())

	body, _ := json.Marshal(map[string]any{"delta": 5, "reason": "shrinkage"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/seller/products/"+productID.String()+"/stock", bytes.NewReader(body))
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("productId", productID.String())
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

func TestProductAdjustStockRecordsActor(t *testing.T) {
	productID := uuid.New()
	userID := uuid.New()
	stub := &stubProductService{product: &productsvc.ProductDTO{ID: productID}}
	handler := ProductAdjustStock(stub, testLogger())

	body, _ := json.Marshal(map[string]any{"delta": -3, "reason": "manual_adjust"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/seller/products/"+productID.String()+"/stock", bytes.NewReader(body))
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("productId", productID.String())
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	ctx = middleware.WithUserID(ctx, userID.String())
	ctx = middleware.WithSellerID(ctx, uuid.New().String())
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if stub.adjusted == nil {
		t.Fatal("expected AdjustStock to be called")
	}
	if stub.adjusted.PerformedBy != userID {
		t.Fatalf("unexpected actor: %s", stub.adjusted.PerformedBy)
	}
	if stub.adjusted.Delta != -3 {
		t.Fatalf("unexpected delta: %d", stub.adjusted.Delta)
	}
}
