package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jdelacruz/tradepost-backend/pkg/db/models"
	pkgerrors "github.com/jdelacruz/tradepost-backend/pkg/errors"
)

func TestServiceAddItemCreatesCartAndLine(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	product := &models.Product{
		ID:         uuid.New(),
		SellerID:   uuid.New(),
		Title:      "Ceramic Mug",
		PriceCents: 500,
		Stock:      10,
		IsActive:   true,
	}
	repo := newStubCartRepo()
	svc := newTestService(t, repo, product)

	dto, err := svc.AddItem(context.Background(), buyerID, AddItemInput{ProductID: product.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if len(dto.Items) != 1 {
		t.Fatalf("expected one line, got %d", len(dto.Items))
	}
	line := dto.Items[0]
	if line.Quantity != 2 || line.UnitPriceCents != 500 || line.LineTotalCents != 1000 {
		t.Fatalf("unexpected line: %+v", line)
	}
	if !line.Selected {
		t.Fatal("new lines must default to selected")
	}
	if line.SellerID != product.SellerID {
		t.Fatal("line must snapshot the product's seller")
	}
	if dto.SubtotalCents != 1000 {
		t.Fatalf("expected subtotal 1000, got %d", dto.SubtotalCents)
	}
}

func TestServiceAddItemIncrementsExistingLine(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	product := &models.Product{
		ID:         uuid.New(),
		SellerID:   uuid.New(),
		Title:      "Ceramic Mug",
		PriceCents: 500,
		IsActive:   true,
	}
	repo := newStubCartRepo()
	svc := newTestService(t, repo, product)

	if _, err := svc.AddItem(context.Background(), buyerID, AddItemInput{ProductID: product.ID, Quantity: 1}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	dto, err := svc.AddItem(context.Background(), buyerID, AddItemInput{ProductID: product.ID, Quantity: 3})
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if len(dto.Items) != 1 || dto.Items[0].Quantity != 4 {
		t.Fatalf("expected single merged line with qty 4, got %+v", dto.Items)
	}
}

func TestServiceAddItemRejectsInactiveProduct(t *testing.T) {
	t.Parallel()

	product := &models.Product{ID: uuid.New(), SellerID: uuid.New(), PriceCents: 500, IsActive: false}
	svc := newTestService(t, newStubCartRepo(), product)

	_, err := svc.AddItem(context.Background(), uuid.New(), AddItemInput{ProductID: product.ID, Quantity: 1})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for inactive product, got %v", err)
	}
}

func TestServiceAddItemRejectsNonPositiveQuantity(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newStubCartRepo(), nil)
	_, err := svc.AddItem(context.Background(), uuid.New(), AddItemInput{ProductID: uuid.New(), Quantity: 0})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for zero quantity, got %v", err)
	}
}

func TestServiceUpdateItemSelection(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	product := &models.Product{ID: uuid.New(), SellerID: uuid.New(), Title: "Mug", PriceCents: 500, IsActive: true}
	repo := newStubCartRepo()
	svc := newTestService(t, repo, product)

	if _, err := svc.AddItem(context.Background(), buyerID, AddItemInput{ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("add: %v", err)
	}

	selected := false
	dto, err := svc.UpdateItem(context.Background(), buyerID, product.ID, UpdateItemInput{Selected: &selected})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if dto.Items[0].Selected {
		t.Fatal("expected line deselected")
	}
	if dto.SubtotalCents != 0 {
		t.Fatalf("deselected lines must not count toward subtotal, got %d", dto.SubtotalCents)
	}
}

func TestServiceUpdateItemMissingLine(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	product := &models.Product{ID: uuid.New(), SellerID: uuid.New(), PriceCents: 500, IsActive: true}
	repo := newStubCartRepo()
	svc := newTestService(t, repo, product)
	if _, err := svc.GetActiveCart(context.Background(), buyerID); err != nil {
		t.Fatalf("get cart: %v", err)
	}

	qty := 3
	_, err := svc.UpdateItem(context.Background(), buyerID, uuid.New(), UpdateItemInput{Quantity: &qty})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for missing line, got %v", err)
	}
}

func TestServiceRemoveItemAndClear(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	product := &models.Product{ID: uuid.New(), SellerID: uuid.New(), Title: "Mug", PriceCents: 500, IsActive: true}
	repo := newStubCartRepo()
	svc := newTestService(t, repo, product)

	if _, err := svc.AddItem(context.Background(), buyerID, AddItemInput{ProductID: product.ID, Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}
	dto, err := svc.RemoveItem(context.Background(), buyerID, product.ID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(dto.Items) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(dto.Items))
	}
	if err := svc.ClearCart(context.Background(), buyerID); err != nil {
		t.Fatalf("clear: %v", err)
	}
}

func newTestService(t *testing.T, repo *stubCartRepo, product *models.Product) Service {
	t.Helper()
	loader := &stubProductLoader{product: product}
	svc, err := NewService(repo, stubTxRunner{}, loader)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubProductLoader struct {
	product *models.Product
}

func (s *stubProductLoader) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if s.product == nil || s.product.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.product, nil
}

type stubCartRepo struct {
	record *models.CartRecord
	items  map[uuid.UUID]*models.CartItem
}

func newStubCartRepo() *stubCartRepo {
	return &stubCartRepo{items: map[uuid.UUID]*models.CartItem{}}
}

func (s *stubCartRepo) WithTx(tx *gorm.DB) CartRepository { return s }

func (s *stubCartRepo) FindActiveByBuyer(ctx context.Context, buyerID uuid.UUID) (*models.CartRecord, error) {
	if s.record == nil {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s.record
	copied.Items = nil
	for _, item := range s.items {
		copied.Items = append(copied.Items, *item)
	}
	return &copied, nil
}

func (s *stubCartRepo) Create(ctx context.Context, record *models.CartRecord) (*models.CartRecord, error) {
	record.ID = uuid.New()
	s.record = record
	return record, nil
}

func (s *stubCartRepo) FindItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	item, ok := s.items[productID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (s *stubCartRepo) CreateItem(ctx context.Context, item *models.CartItem) error {
	s.items[item.ProductID] = item
	return nil
}

func (s *stubCartRepo) SaveItem(ctx context.Context, item *models.CartItem) error {
	s.items[item.ProductID] = item
	return nil
}

func (s *stubCartRepo) DeleteItem(ctx context.Context, cartID, productID uuid.UUID) error {
	delete(s.items, productID)
	return nil
}

func (s *stubCartRepo) DeleteItems(ctx context.Context, cartID uuid.UUID) error {
	s.items = map[uuid.UUID]*models.CartItem{}
	return nil
}

func (s *stubCartRepo) DeleteSelectedItems(ctx context.Context, cartID uuid.UUID) error {
	for id, item := range s.items {
		if item.Selected {
			delete(s.items, id)
		}
	}
	return nil
}

func (s *stubCartRepo) MarkConverted(ctx context.Context, cartID uuid.UUID, at time.Time) error {
	if s.record != nil {
		s.record.ConvertedAt = &at
	}
	return nil
}
