package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jdelacruz/tradepost-backend/internal/products"
	"github.com/jdelacruz/tradepost-backend/pkg/db/models"
	"github.com/jdelacruz/tradepost-backend/pkg/enums"
	pkgerrors "github.com/jdelacruz/tradepost-backend/pkg/errors"
	"github.com/jdelacruz/tradepost-backend/pkg/outbox"
	"github.com/jdelacruz/tradepost-backend/pkg/pagination"
	"github.com/jdelacruz/tradepost-backend/pkg/types"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubEmitter struct {
	events []outbox.DomainEvent
}

func (s *stubEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func (s *stubEmitter) ofType(eventType enums.OutboxEventType) []outbox.DomainEvent {
	var matched []outbox.DomainEvent
	for _, event := range s.events {
		if event.EventType == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}

type stubCartConverter struct {
	converted []uuid.UUID
}

func (s *stubCartConverter) ConvertCart(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) error {
	s.converted = append(s.converted, cartID)
	return nil
}

type recomputeCall struct {
	sellerID uuid.UUID
	buyerID  uuid.UUID
}

type stubRecomputer struct {
	calls []recomputeCall
}

func (s *stubRecomputer) Recompute(ctx context.Context, tx *gorm.DB, sellerID, buyerID uuid.UUID) error {
	s.calls = append(s.calls, recomputeCall{sellerID: sellerID, buyerID: buyerID})
	return nil
}

type stubInventory struct {
	products map[uuid.UUID]*models.Product
	logs     []*models.InventoryLog
}

func (s *stubInventory) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *product
	return &copied, nil
}

func (s *stubInventory) AdjustStockBy(ctx context.Context, id uuid.UUID, delta int) (*models.Product, error) {
	product, ok := s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if product.Stock+delta < 0 {
		return nil, products.ErrInsufficientStock
	}
	product.Stock += delta
	copied := *product
	return &copied, nil
}

func (s *stubInventory) InsertInventoryLog(ctx context.Context, log *models.InventoryLog) error {
	s.logs = append(s.logs, log)
	return nil
}

type stubOrderRepo struct {
	orders     map[uuid.UUID]*models.Order
	nextNumber int64
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: map[uuid.UUID]*models.Order{}, nextNumber: 100000}
}

func (s *stubOrderRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOrderRepo) NextOrderNumber(ctx context.Context) (int64, error) {
	s.nextNumber++
	return s.nextNumber, nil
}

func (s *stubOrderRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	copied := *order
	s.orders[order.ID] = &copied
	return order, nil
}

func (s *stubOrderRepo) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	order, ok := s.orders[items[0].OrderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	order.Items = append(order.Items, items...)
	return nil
}

func (s *stubOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	return &copied, nil
}

func (s *stubOrderRepo) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	order, ok := s.orders[orderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for column, value := range updates {
		switch column {
		case "status":
			order.Status = value.(enums.OrderStatus)
		case "payment_status":
			order.PaymentStatus = value.(enums.PaymentStatus)
		case "payment_ref":
			ref := value.(string)
			order.PaymentRef = &ref
		case "tracking_number":
			tracking := value.(string)
			order.TrackingNumber = &tracking
		case "cancel_reason":
			reason := value.(string)
			order.CancelReason = &reason
		case "paid_at":
			at := value.(time.Time)
			order.PaidAt = &at
		case "shipped_at":
			at := value.(time.Time)
			order.ShippedAt = &at
		case "delivered_at":
			at := value.(time.Time)
			order.DeliveredAt = &at
		case "cancelled_at":
			at := value.(time.Time)
			order.CancelledAt = &at
		}
	}
	return nil
}

func (s *stubOrderRepo) ListByBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error) {
	return &OrderList{}, nil
}

func (s *stubOrderRepo) ListBySeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error) {
	return &OrderList{}, nil
}

func (s *stubOrderRepo) FindStalePendingCardOrders(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	var stale []models.Order
	for _, order := range s.orders {
		if order.Status == enums.OrderStatusPending &&
			order.PaymentMethod == enums.PaymentMethodCard &&
			order.CreatedAt.Before(cutoff) {
			stale = append(stale, *order)
		}
	}
	return stale, nil
}

type stubPaymentVerifier struct {
	status string
	err    error
	asked  []string
}

func (s *stubPaymentVerifier) IntentStatus(ctx context.Context, intentID string) (string, error) {
	s.asked = append(s.asked, intentID)
	if s.err != nil {
		return "", s.err
	}
	if s.status == "" {
		return intentStatusSucceeded, nil
	}
	return s.status, nil
}

type orderTestSetup struct {
	service       Service
	repo          *stubOrderRepo
	inventory     *stubInventory
	emitter       *stubEmitter
	cart          *stubCartConverter
	relationships *stubRecomputer
	payments      *stubPaymentVerifier
}

func newOrderTestSetup(t *testing.T) *orderTestSetup {
	t.Helper()
	setup := &orderTestSetup{
		repo:          newStubOrderRepo(),
		inventory:     &stubInventory{products: map[uuid.UUID]*models.Product{}},
		emitter:       &stubEmitter{},
		cart:          &stubCartConverter{},
		relationships: &stubRecomputer{},
		payments:      &stubPaymentVerifier{},
	}
	svc, err := NewService(ServiceParams{
		Repo:          setup.repo,
		Tx:            stubTxRunner{},
		Events:        setup.emitter,
		Cart:          setup.cart,
		Relationships: setup.relationships,
		Inventory: func(tx *gorm.DB) inventoryStore {
			return setup.inventory
		},
		Payments:          setup.payments,
		LowStockThreshold: 5,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	setup.service = svc
	return setup
}

func (s *orderTestSetup) addProduct(t *testing.T, sellerID uuid.UUID, priceCents int64, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:         uuid.New(),
		SellerID:   sellerID,
		SKU:        "SKU-" + uuid.NewString()[:8],
		Title:      "Ceramic Mug",
		Category:   enums.CategoryHome,
		PriceCents: priceCents,
		Stock:      stock,
		IsActive:   true,
	}
	s.inventory.products[product.ID] = product
	return product
}

func testShippingAddress() types.Address {
	return types.Address{
		FullName:   "Jamie Rivera",
		Phone:      "+63-917-555-0101",
		Line1:      "12 Mabini St",
		City:       "Quezon City",
		State:      "Metro Manila",
		PostalCode: "1100",
		Country:    "PH",
	}
}

func TestPlaceOrderWritesEverything(t *testing.T) {
	setup := newOrderTestSetup(t)
	sellerID := uuid.New()
	buyerID := uuid.New()
	cartID := uuid.New()
	product := setup.addProduct(t, sellerID, 500, 10)

	dto, err := setup.service.PlaceOrder(context.Background(), PlaceOrderInput{
		BuyerID:          buyerID,
		SellerID:         sellerID,
		CartID:           &cartID,
		PaymentMethod:    enums.PaymentMethodCOD,
		DeliveryOption:   enums.DeliveryOptionStandard,
		DeliveryFeeCents: 150,
		ShippingAddress:  testShippingAddress(),
		Lines:            []OrderLine{{ProductID: product.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	if dto.SubtotalCents != 1000 {
		t.Fatalf("subtotal = %d, want 1000", dto.SubtotalCents)
	}
	if dto.TotalCents != 1150 {
		t.Fatalf("total = %d, want 1150", dto.TotalCents)
	}
	if dto.Status != enums.OrderStatusPending {
		t.Fatalf("status = %s, want pending", dto.Status)
	}
	if dto.OrderNumber < 100000 {
		t.Fatalf("order number not allocated: %d", dto.OrderNumber)
	}
	if len(dto.Items) != 1 || dto.Items[0].UnitPriceCents != 500 {
		t.Fatalf("unexpected items: %+v", dto.Items)
	}

	if setup.inventory.products[product.ID].Stock != 8 {
		t.Fatalf("stock = %d, want 8", setup.inventory.products[product.ID].Stock)
	}
	if len(setup.inventory.logs) != 1 {
		t.Fatalf("inventory logs = %d, want exactly 1", len(setup.inventory.logs))
	}
	log := setup.inventory.logs[0]
	if log.Delta != -2 || log.StockAfter != 8 || log.Reason != enums.InventoryReasonOrderPlaced {
		t.Fatalf("unexpected inventory log: %+v", log)
	}

	if len(setup.cart.converted) != 1 || setup.cart.converted[0] != cartID {
		t.Fatalf("cart not converted: %+v", setup.cart.converted)
	}
	if len(setup.relationships.calls) != 1 || setup.relationships.calls[0].sellerID != sellerID {
		t.Fatalf("relationship not recomputed: %+v", setup.relationships.calls)
	}
	if placed := setup.emitter.ofType(enums.EventOrderPlaced); len(placed) != 1 {
		t.Fatalf("order placed events = %d, want 1", len(placed))
	}
}

func TestPlaceOrderChargesSalePrice(t *testing.T) {
	setup := newOrderTestSetup(t)
	sellerID := uuid.New()
	product := setup.addProduct(t, sellerID, 500, 10)
	salePrice := int64(350)
	product.SalePriceCents = &salePrice

	dto, err := setup.service.PlaceOrder(context.Background(), PlaceOrderInput{
		BuyerID:         uuid.New(),
		SellerID:        sellerID,
		PaymentMethod:   enums.PaymentMethodCOD,
		DeliveryOption:  enums.DeliveryOptionStandard,
		ShippingAddress: testShippingAddress(),
		Lines:           []OrderLine{{ProductID: product.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if dto.SubtotalCents != 700 {
		t.Fatalf("subtotal = %d, want 700 at sale price", dto.SubtotalCents)
	}
	if len(dto.Items) != 1 || dto.Items[0].UnitPriceCents != 350 {
		t.Fatalf("unexpected items: %+v", dto.Items)
	}
}

func TestPlaceOrderRejectsInsufficientStock(t *testing.T) {
	setup := newOrderTestSetup(t)
	sellerID := uuid.New()
	product := setup.addProduct(t, sellerID, 500, 2)

	_, err := setup.service.PlaceOrder(context.Background(), PlaceOrderInput{
		BuyerID:          uuid.New(),
		SellerID:         sellerID,
		PaymentMethod:    enums.PaymentMethodCOD,
		DeliveryOption:   enums.DeliveryOptionStandard,
		DeliveryFeeCents: 150,
		ShippingAddress:  testShippingAddress(),
		Lines:            []OrderLine{{ProductID: product.ID, Quantity: 3}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeOutOfStock {
		t.Fatalf("expected out-of-stock error, got %v", err)
	}
	if len(setup.repo.orders) != 0 {
		t.Fatal("no order should be written when stock is insufficient")
	}
	if len(setup.emitter.events) != 0 {
		t.Fatal("no events should be emitted when stock is insufficient")
	}
	if setup.inventory.products[product.ID].Stock != 2 {
		t.Fatalf("stock should be untouched, got %d", setup.inventory.products[product.ID].Stock)
	}
}

func TestPlaceOrderEmitsLowStockWarning(t *testing.T) {
	setup := newOrderTestSetup(t)
	sellerID := uuid.New()
	product := setup.addProduct(t, sellerID, 500, 6)

	_, err := setup.service.PlaceOrder(context.Background(), PlaceOrderInput{
		BuyerID:          uuid.New(),
		SellerID:         sellerID,
		PaymentMethod:    enums.PaymentMethodCOD,
		DeliveryOption:   enums.DeliveryOptionStandard,
		DeliveryFeeCents: 150,
		ShippingAddress:  testShippingAddress(),
		Lines:            []OrderLine{{ProductID: product.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if low := setup.emitter.ofType(enums.EventLowStock); len(low) != 1 {
		t.Fatalf("low stock events = %d, want 1", len(low))
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	setup := newOrderTestSetup(t)
	sellerID := uuid.New()
	otherSeller := uuid.New()
	product := setup.addProduct(t, otherSeller, 500, 10)

	cases := []struct {
		name  string
		input PlaceOrderInput
	}{
		{
			name: "missingSeller",
			input: PlaceOrderInput{
				BuyerID:        uuid.New(),
				PaymentMethod:  enums.PaymentMethodCOD,
				DeliveryOption: enums.DeliveryOptionStandard,
				Lines:          []OrderLine{{ProductID: product.ID, Quantity: 1}},
			},
		},
		{
			name: "noLines",
			input: PlaceOrderInput{
				BuyerID:        uuid.New(),
				SellerID:       sellerID,
				PaymentMethod:  enums.PaymentMethodCOD,
				DeliveryOption: enums.DeliveryOptionStandard,
			},
		},
		{
			name: "zeroQuantity",
			input: PlaceOrderInput{
				BuyerID:        uuid.New(),
				SellerID:       sellerID,
				PaymentMethod:  enums.PaymentMethodCOD,
				DeliveryOption: enums.DeliveryOptionStandard,
				Lines:          []OrderLine{{ProductID: product.ID, Quantity: 0}},
			},
		},
		{
			name: "sellerMismatch",
			input: PlaceOrderInput{
				BuyerID:        uuid.New(),
				SellerID:       sellerID,
				PaymentMethod:  enums.PaymentMethodCOD,
				DeliveryOption: enums.DeliveryOptionStandard,
				Lines:          []OrderLine{{ProductID: product.ID, Quantity: 1}},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := setup.service.PlaceOrder(context.Background(), tc.input)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func seedOrder(setup *orderTestSetup, status enums.OrderStatus, method enums.PaymentMethod, items []models.OrderItem) *models.Order {
	order := &models.Order{
		ID:               uuid.New(),
		OrderNumber:      100042,
		BuyerID:          uuid.New(),
		SellerID:         uuid.New(),
		Status:           status,
		PaymentMethod:    method,
		PaymentStatus:    enums.PaymentStatusPending,
		DeliveryOption:   enums.DeliveryOptionStandard,
		ShippingAddress:  testShippingAddress(),
		SubtotalCents:    1000,
		DeliveryFeeCents: 150,
		TotalCents:       1150,
		Items:            items,
		CreatedAt:        time.Now().Add(-48 * time.Hour),
	}
	setup.repo.orders[order.ID] = order
	return order
}

func TestAdvanceStatusShipsWithTracking(t *testing.T) {
	setup := newOrderTestSetup(t)
	order := seedOrder(setup, enums.OrderStatusProcessing, enums.PaymentMethodCOD, nil)
	tracking := "TP-TRACK-7781"

	dto, err := setup.service.AdvanceStatus(context.Background(), AdvanceStatusInput{
		OrderID:        order.ID,
		SellerID:       order.SellerID,
		ActorUserID:    uuid.New(),
		Target:         enums.OrderStatusShipped,
		TrackingNumber: &tracking,
	})
	if err != nil {
		t.Fatalf("AdvanceStatus: %v", err)
	}
	if dto.Status != enums.OrderStatusShipped {
		t.Fatalf("status = %s, want shipped", dto.Status)
	}
	if dto.ShippedAt == nil {
		t.Fatal("shipped_at not set")
	}
	if dto.TrackingNumber == nil || *dto.TrackingNumber != tracking {
		t.Fatalf("tracking number = %v, want %s", dto.TrackingNumber, tracking)
	}
	moved := setup.emitter.ofType(enums.EventOrderStatusMoved)
	if len(moved) != 1 {
		t.Fatalf("status moved events = %d, want 1", len(moved))
	}
}

func TestAdvanceStatusRejectsIllegalMove(t *testing.T) {
	setup := newOrderTestSetup(t)
	order := seedOrder(setup, enums.OrderStatusPending, enums.PaymentMethodCard, nil)

	_, err := setup.service.AdvanceStatus(context.Background(), AdvanceStatusInput{
		OrderID:     order.ID,
		SellerID:    order.SellerID,
		ActorUserID: uuid.New(),
		Target:      enums.OrderStatusShipped,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestAdvanceStatusRejectsCancelTarget(t *testing.T) {
	setup := newOrderTestSetup(t)
	order := seedOrder(setup, enums.OrderStatusProcessing, enums.PaymentMethodCOD, nil)

	_, err := setup.service.AdvanceStatus(context.Background(), AdvanceStatusInput{
		OrderID:     order.ID,
		SellerID:    order.SellerID,
		ActorUserID: uuid.New(),
		Target:      enums.OrderStatusCancelled,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("cancellation must go through CancelOrder, got %v", err)
	}
}

func TestAdvanceStatusDeliveredSettlesCashOrder(t *testing.T) {
	setup := newOrderTestSetup(t)
	order := seedOrder(setup, enums.OrderStatusShipped, enums.PaymentMethodCOD, nil)

	dto, err := setup.service.AdvanceStatus(context.Background(), AdvanceStatusInput{
		OrderID:     order.ID,
		SellerID:    order.SellerID,
		ActorUserID: uuid.New(),
		Target:      enums.OrderStatusDelivered,
	})
	if err != nil {
		t.Fatalf("AdvanceStatus: %v", err)
	}
	if dto.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("payment status = %s, want paid", dto.PaymentStatus)
	}
	if dto.PaidAt == nil || dto.DeliveredAt == nil {
		t.Fatal("paid_at and delivered_at must be set on delivery")
	}
	if len(setup.relationships.calls) != 1 {
		t.Fatalf("relationship recompute calls = %d, want 1", len(setup.relationships.calls))
	}
}

func TestCancelOrderRestoresStock(t *testing.T) {
	setup := newOrderTestSetup(t)
	sellerID := uuid.New()
	product := setup.addProduct(t, sellerID, 500, 3)
	order := seedOrder(setup, enums.OrderStatusProcessing, enums.PaymentMethodCOD, []models.OrderItem{
		{ID: uuid.New(), ProductID: product.ID, Title: product.Title, Quantity: 2, UnitPriceCents: 500, LineTotalCents: 1000},
	})
	order.SellerID = sellerID
	reason := "buyer requested"

	dto, err := setup.service.CancelOrder(context.Background(), CancelOrderInput{
		OrderID:     order.ID,
		SellerID:    sellerID,
		ActorUserID: uuid.New(),
		Reason:      &reason,
	})
	if err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	if dto.Status != enums.OrderStatusCancelled {
		t.Fatalf("status = %s, want cancelled", dto.Status)
	}
	if setup.inventory.products[product.ID].Stock != 5 {
		t.Fatalf("stock = %d, want 5 after restore", setup.inventory.products[product.ID].Stock)
	}
	if len(setup.inventory.logs) != 1 || setup.inventory.logs[0].Reason != enums.InventoryReasonOrderCancelled {
		t.Fatalf("unexpected inventory logs: %+v", setup.inventory.logs)
	}
	if cancelled := setup.emitter.ofType(enums.EventOrderCancelled); len(cancelled) != 1 {
		t.Fatalf("cancel events = %d, want 1", len(cancelled))
	}
	if len(setup.relationships.calls) != 1 {
		t.Fatal("relationship must be recomputed after cancellation")
	}
}

func TestCancelOrderOnlyFromProcessing(t *testing.T) {
	setup := newOrderTestSetup(t)
	for _, status := range []enums.OrderStatus{
		enums.OrderStatusPending,
		enums.OrderStatusPaymentApproved,
		enums.OrderStatusShipped,
		enums.OrderStatusDelivered,
	} {
		order := seedOrder(setup, status, enums.PaymentMethodCOD, nil)
		_, err := setup.service.CancelOrder(context.Background(), CancelOrderInput{
			OrderID:     order.ID,
			SellerID:    order.SellerID,
			ActorUserID: uuid.New(),
		})
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
			t.Fatalf("cancel from %s: expected state conflict, got %v", status, err)
		}
	}
}

func TestConfirmCardPayment(t *testing.T) {
	setup := newOrderTestSetup(t)
	order := seedOrder(setup, enums.OrderStatusPending, enums.PaymentMethodCard, nil)
	intentID := "pi_3Nk81x"
	order.PaymentRef = &intentID

	dto, err := setup.service.ConfirmCardPayment(context.Background(), ConfirmCardPaymentInput{
		OrderID:    order.ID,
		BuyerID:    order.BuyerID,
		PaymentRef: "pi_3Nk81x",
	})
	if err != nil {
		t.Fatalf("ConfirmCardPayment: %v", err)
	}
	if dto.Status != enums.OrderStatusPaymentApproved {
		t.Fatalf("status = %s, want payment_approved", dto.Status)
	}
	if dto.PaymentStatus != enums.PaymentStatusPaid || dto.PaidAt == nil {
		t.Fatal("payment must be marked paid with a timestamp")
	}
	if confirmed := setup.emitter.ofType(enums.EventPaymentConfirmed); len(confirmed) != 1 {
		t.Fatalf("payment confirmed events = %d, want 1", len(confirmed))
	}
	if len(setup.payments.asked) != 1 || setup.payments.asked[0] != intentID {
		t.Fatalf("verifier asked with %v, want [%s]", setup.payments.asked, intentID)
	}

	// A second confirmation must be rejected, not double-applied.
	_, err = setup.service.ConfirmCardPayment(context.Background(), ConfirmCardPaymentInput{
		OrderID:    order.ID,
		BuyerID:    order.BuyerID,
		PaymentRef: "pi_3Nk81x",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict on replay, got %v", err)
	}
}

func TestConfirmCardPaymentRejectsForeignRef(t *testing.T) {
	setup := newOrderTestSetup(t)
	order := seedOrder(setup, enums.OrderStatusPending, enums.PaymentMethodCard, nil)
	intentID := "pi_real_intent"
	order.PaymentRef = &intentID

	_, err := setup.service.ConfirmCardPayment(context.Background(), ConfirmCardPaymentInput{
		OrderID:    order.ID,
		BuyerID:    order.BuyerID,
		PaymentRef: "pi_made_up_by_client",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for mismatched ref, got %v", err)
	}
	if len(setup.payments.asked) != 0 {
		t.Fatal("verifier must not be consulted for a mismatched ref")
	}
	if setup.repo.orders[order.ID].Status != enums.OrderStatusPending {
		t.Fatal("order must stay pending after rejected confirmation")
	}
}

func TestConfirmCardPaymentRequiresSucceededIntent(t *testing.T) {
	setup := newOrderTestSetup(t)
	setup.payments.status = "requires_payment_method"
	order := seedOrder(setup, enums.OrderStatusPending, enums.PaymentMethodCard, nil)
	intentID := "pi_unpaid"
	order.PaymentRef = &intentID

	_, err := setup.service.ConfirmCardPayment(context.Background(), ConfirmCardPaymentInput{
		OrderID:    order.ID,
		BuyerID:    order.BuyerID,
		PaymentRef: intentID,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for unpaid intent, got %v", err)
	}
	if setup.repo.orders[order.ID].Status != enums.OrderStatusPending {
		t.Fatal("order must stay pending when the intent has not succeeded")
	}
	if confirmed := setup.emitter.ofType(enums.EventPaymentConfirmed); len(confirmed) != 0 {
		t.Fatal("no payment event may be emitted for an unpaid intent")
	}
}

func TestExpireStalePendingCardOrders(t *testing.T) {
	setup := newOrderTestSetup(t)
	sellerID := uuid.New()
	product := setup.addProduct(t, sellerID, 500, 0)
	stale := seedOrder(setup, enums.OrderStatusPending, enums.PaymentMethodCard, []models.OrderItem{
		{ID: uuid.New(), ProductID: product.ID, Title: product.Title, Quantity: 1, UnitPriceCents: 500, LineTotalCents: 500},
	})
	stale.SellerID = sellerID
	seedOrder(setup, enums.OrderStatusPaymentApproved, enums.PaymentMethodCard, nil)

	expired, err := setup.service.ExpireStalePendingCardOrders(context.Background(), time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("ExpireStalePendingCardOrders: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expired = %d, want 1", expired)
	}
	reloaded := setup.repo.orders[stale.ID]
	if reloaded.Status != enums.OrderStatusCancelled {
		t.Fatalf("status = %s, want cancelled", reloaded.Status)
	}
	if reloaded.PaymentStatus != enums.PaymentStatusFailed {
		t.Fatalf("payment status = %s, want failed", reloaded.PaymentStatus)
	}
	if setup.inventory.products[product.ID].Stock != 1 {
		t.Fatalf("stock = %d, want 1 after restore", setup.inventory.products[product.ID].Stock)
	}
	if len(setup.inventory.logs) != 1 || setup.inventory.logs[0].Reason != enums.InventoryReasonOrderExpired {
		t.Fatalf("unexpected inventory logs: %+v", setup.inventory.logs)
	}
	if events := setup.emitter.ofType(enums.EventOrderExpired); len(events) != 1 {
		t.Fatalf("expired events = %d, want 1", len(events))
	}
}

func TestGetOrderAccessControl(t *testing.T) {
	setup := newOrderTestSetup(t)
	order := seedOrder(setup, enums.OrderStatusProcessing, enums.PaymentMethodCOD, nil)

	if _, err := setup.service.GetOrder(context.Background(), GetOrderInput{
		OrderID: order.ID,
		UserID:  order.BuyerID,
		Role:    enums.UserRoleBuyer,
	}); err != nil {
		t.Fatalf("buyer should see own order: %v", err)
	}

	sellerID := order.SellerID
	if _, err := setup.service.GetOrder(context.Background(), GetOrderInput{
		OrderID:  order.ID,
		UserID:   uuid.New(),
		SellerID: &sellerID,
		Role:     enums.UserRoleSeller,
	}); err != nil {
		t.Fatalf("seller should see own order: %v", err)
	}

	_, err := setup.service.GetOrder(context.Background(), GetOrderInput{
		OrderID: order.ID,
		UserID:  uuid.New(),
		Role:    enums.UserRoleBuyer,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for a stranger, got %v", err)
	}
}
