package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jdelacruz/tradepost-backend/internal/products"
	"github.com/jdelacruz/tradepost-backend/pkg/db/models"
	"github.com/jdelacruz/tradepost-backend/pkg/enums"
	pkgerrors "github.com/jdelacruz/tradepost-backend/pkg/errors"
	"github.com/jdelacruz/tradepost-backend/pkg/outbox"
	"github.com/jdelacruz/tradepost-backend/pkg/outbox/payloads"
	"github.com/jdelacruz/tradepost-backend/pkg/pagination"
	"github.com/jdelacruz/tradepost-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// inventoryStore is the slice of the product repository the order writer
// needs inside its transaction.
type inventoryStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	AdjustStockBy(ctx context.Context, id uuid.UUID, delta int) (*models.Product, error)
	InsertInventoryLog(ctx context.Context, log *models.InventoryLog) error
}

// cartConverter finalizes a cart inside the order transaction.
type cartConverter interface {
	ConvertCart(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) error
}

// relationshipRecomputer refreshes the seller-customer aggregate from order
// history inside the same transaction that changed the history.
type relationshipRecomputer interface {
	Recompute(ctx context.Context, tx *gorm.DB, sellerID, buyerID uuid.UUID) error
}

// PaymentVerifier checks a payment intent's state with the provider before an
// order is marked paid.
type PaymentVerifier interface {
	IntentStatus(ctx context.Context, intentID string) (string, error)
}

const intentStatusSucceeded = "succeeded"

// Service owns order creation and every lifecycle transition.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*OrderDTO, error)
	GetOrder(ctx context.Context, input GetOrderInput) (*OrderDTO, error)
	ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error)
	ListSellerOrders(ctx context.Context, sellerID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error)
	AdvanceStatus(ctx context.Context, input AdvanceStatusInput) (*OrderDTO, error)
	CancelOrder(ctx context.Context, input CancelOrderInput) (*OrderDTO, error)
	ConfirmCardPayment(ctx context.Context, input ConfirmCardPaymentInput) (*OrderDTO, error)
	ExpireStalePendingCardOrders(ctx context.Context, cutoff time.Time) (int, error)
}

// OrderLine is one requested product/quantity pair from checkout.
type OrderLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// PlaceOrderInput carries everything the writer persists in one transaction.
// Prices are never taken from the input; the writer snapshots live product
// rows so a stale cart cannot fix an old price.
type PlaceOrderInput struct {
	BuyerID           uuid.UUID
	SellerID          uuid.UUID
	CartID            *uuid.UUID
	PaymentMethod     enums.PaymentMethod
	PaymentRef        *string
	DeliveryOption    enums.DeliveryOption
	DeliveryFeeCents  int64
	EstimatedDelivery *time.Time
	ShippingAddress   types.Address
	BillingAddress    *types.Address
	Lines             []OrderLine
}

// GetOrderInput identifies an order plus the actor asking for it.
type GetOrderInput struct {
	OrderID  uuid.UUID
	UserID   uuid.UUID
	SellerID *uuid.UUID
	Role     enums.UserRole
}

// AdvanceStatusInput moves an order forward through fulfillment.
type AdvanceStatusInput struct {
	OrderID        uuid.UUID
	SellerID       uuid.UUID
	ActorUserID    uuid.UUID
	Target         enums.OrderStatus
	TrackingNumber *string
}

// CancelOrderInput cancels a processing order and restores its stock.
type CancelOrderInput struct {
	OrderID     uuid.UUID
	SellerID    uuid.UUID
	ActorUserID uuid.UUID
	Reason      *string
}

// ConfirmCardPaymentInput settles a pending card order.
type ConfirmCardPaymentInput struct {
	OrderID    uuid.UUID
	BuyerID    uuid.UUID
	PaymentRef string
}

// InventoryFactory binds a product repository slice to a transaction.
type InventoryFactory func(tx *gorm.DB) inventoryStore

// ServiceParams collects the order service dependencies.
type ServiceParams struct {
	Repo              Repository
	Tx                txRunner
	Events            eventEmitter
	Cart              cartConverter
	Relationships     relationshipRecomputer
	Inventory         InventoryFactory
	Payments          PaymentVerifier
	LowStockThreshold int
}

type service struct {
	repo              Repository
	tx                txRunner
	events            eventEmitter
	cart              cartConverter
	relationships     relationshipRecomputer
	inventory         InventoryFactory
	payments          PaymentVerifier
	lowStockThreshold int
}

// NewService builds the order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if params.Cart == nil {
		return nil, fmt.Errorf("cart converter required")
	}
	if params.Relationships == nil {
		return nil, fmt.Errorf("relationship recomputer required")
	}
	if params.Inventory == nil {
		params.Inventory = func(tx *gorm.DB) inventoryStore {
			return products.NewRepository(tx)
		}
	}
	return &service{
		repo:              params.Repo,
		tx:                params.Tx,
		events:            params.Events,
		cart:              params.Cart,
		relationships:     params.Relationships,
		inventory:         params.Inventory,
		payments:          params.Payments,
		lowStockThreshold: params.LowStockThreshold,
	}, nil
}

func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*OrderDTO, error) {
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing")
	}
	if input.SellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order has no items")
	}
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if !input.DeliveryOption.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery option")
	}

	var placed *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		inv := s.inventory(tx)

		orderNumber, err := repo.NextOrderNumber(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
		}

		order := &models.Order{
			ID:                uuid.New(),
			OrderNumber:       orderNumber,
			BuyerID:           input.BuyerID,
			SellerID:          input.SellerID,
			CartID:            input.CartID,
			Status:            enums.OrderStatusPending,
			PaymentMethod:     input.PaymentMethod,
			PaymentStatus:     enums.PaymentStatusPending,
			PaymentRef:        input.PaymentRef,
			DeliveryOption:    input.DeliveryOption,
			ShippingAddress:   input.ShippingAddress,
			BillingAddress:    input.BillingAddress,
			DeliveryFeeCents:  input.DeliveryFeeCents,
			EstimatedDelivery: input.EstimatedDelivery,
		}

		items := make([]models.OrderItem, 0, len(input.Lines))
		var subtotal int64
		type stockMove struct {
			product *models.Product
			before  int
		}
		moves := make([]stockMove, 0, len(input.Lines))

		for _, line := range input.Lines {
			product, err := inv.FindByID(ctx, line.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeValidation, "product no longer available")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
			}
			if product.SellerID != input.SellerID {
				return pkgerrors.New(pkgerrors.CodeValidation, "product does not belong to seller")
			}
			if !product.IsActive {
				return pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("product %q is no longer listed", product.Title))
			}

			unitPrice := product.EffectivePriceCents()
			lineTotal := unitPrice * int64(line.Quantity)
			subtotal += lineTotal
			items = append(items, models.OrderItem{
				ID:             uuid.New(),
				OrderID:        order.ID,
				ProductID:      product.ID,
				Title:          product.Title,
				SKU:            product.SKU,
				UnitPriceCents: unitPrice,
				Quantity:       line.Quantity,
				LineTotalCents: lineTotal,
			})

			updated, err := inv.AdjustStockBy(ctx, product.ID, -line.Quantity)
			if err != nil {
				if errors.Is(err, products.ErrInsufficientStock) {
					return pkgerrors.New(pkgerrors.CodeOutOfStock,
						fmt.Sprintf("insufficient stock for %q", product.Title))
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			}
			moves = append(moves, stockMove{product: updated, before: updated.Stock + line.Quantity})
		}

		order.SubtotalCents = subtotal
		order.TotalCents = subtotal + input.DeliveryFeeCents

		if _, err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order")
		}
		if err := repo.CreateOrderItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order items")
		}

		buyerID := input.BuyerID
		for i, move := range moves {
			log := &models.InventoryLog{
				ProductID:   move.product.ID,
				SellerID:    move.product.SellerID,
				OrderID:     &order.ID,
				Delta:       -items[i].Quantity,
				StockAfter:  move.product.Stock,
				Reason:      enums.InventoryReasonOrderPlaced,
				PerformedBy: &buyerID,
			}
			if err := inv.InsertInventoryLog(ctx, log); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock movement")
			}
		}

		if input.CartID != nil {
			if err := s.cart.ConvertCart(ctx, tx, *input.CartID); err != nil {
				return err
			}
		}

		if err := s.relationships.Recompute(ctx, tx, input.SellerID, input.BuyerID); err != nil {
			return err
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.BuyerID, Role: enums.UserRoleBuyer.String()},
			Data: payloads.OrderPlacedEvent{
				OrderID:       order.ID,
				OrderNumber:   order.OrderNumber,
				BuyerID:       order.BuyerID,
				SellerID:      order.SellerID,
				TotalCents:    order.TotalCents,
				ItemCount:     len(items),
				PaymentMethod: order.PaymentMethod,
			},
		}
		if err := s.events.Emit(ctx, tx, event); err != nil {
			return err
		}

		for _, move := range moves {
			if !dropsBelowThreshold(move.before, move.product.Stock, s.lowStockThreshold) {
				continue
			}
			lowStock := outbox.DomainEvent{
				EventType:     enums.EventLowStock,
				AggregateType: enums.AggregateProduct,
				AggregateID:   move.product.ID,
				Version:       1,
				Data: payloads.LowStockEvent{
					ProductID: move.product.ID,
					SellerID:  move.product.SellerID,
					Stock:     move.product.Stock,
					Threshold: s.lowStockThreshold,
				},
			}
			if err := s.events.Emit(ctx, tx, lowStock); err != nil {
				return err
			}
		}

		order.Items = items
		placed = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := NewOrderDTO(placed)
	return &dto, nil
}

func (s *service) GetOrder(ctx context.Context, input GetOrderInput) (*OrderDTO, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !mayViewOrder(order, input) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to you")
	}
	dto := NewOrderDTO(order)
	return &dto, nil
}

func mayViewOrder(order *models.Order, input GetOrderInput) bool {
	if input.Role == enums.UserRoleAdmin {
		return true
	}
	if order.BuyerID == input.UserID {
		return true
	}
	return input.SellerID != nil && order.SellerID == *input.SellerID
}

func (s *service) ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing")
	}
	list, err := s.repo.ListByBuyer(ctx, buyerID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list buyer orders")
	}
	return list, nil
}

func (s *service) ListSellerOrders(ctx context.Context, sellerID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "seller context missing")
	}
	list, err := s.repo.ListBySeller(ctx, sellerID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list seller orders")
	}
	return list, nil
}

func (s *service) AdvanceStatus(ctx context.Context, input AdvanceStatusInput) (*OrderDTO, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.SellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "seller context missing")
	}
	if !sellerMayTarget(input.Target) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid target status")
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := loadOrderForSeller(ctx, repo, input.OrderID, input.SellerID)
		if err != nil {
			return err
		}
		if !CanTransition(order.Status, input.Target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot move order from %s to %s", order.Status, input.Target))
		}

		now := time.Now()
		from := order.Status
		updates := map[string]any{"status": input.Target}

		switch input.Target {
		case enums.OrderStatusShipped:
			updates["shipped_at"] = now
			order.ShippedAt = &now
			if input.TrackingNumber != nil {
				updates["tracking_number"] = *input.TrackingNumber
				order.TrackingNumber = input.TrackingNumber
			}
		case enums.OrderStatusDelivered:
			updates["delivered_at"] = now
			order.DeliveredAt = &now
			// Cash orders settle on handover.
			if order.PaymentMethod == enums.PaymentMethodCOD && order.PaymentStatus != enums.PaymentStatusPaid {
				updates["payment_status"] = enums.PaymentStatusPaid
				updates["paid_at"] = now
				order.PaymentStatus = enums.PaymentStatusPaid
				order.PaidAt = &now
			}
		}

		if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		order.Status = input.Target

		if input.Target == enums.OrderStatusDelivered {
			if err := s.relationships.Recompute(ctx, tx, order.SellerID, order.BuyerID); err != nil {
				return err
			}
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderStatusMoved,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         sellerActor(input.ActorUserID, input.SellerID),
			Data: payloads.OrderStatusMovedEvent{
				OrderID:  order.ID,
				BuyerID:  order.BuyerID,
				SellerID: order.SellerID,
				From:     from,
				To:       input.Target,
			},
		}
		if err := s.events.Emit(ctx, tx, event); err != nil {
			return err
		}

		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := NewOrderDTO(result)
	return &dto, nil
}

func (s *service) CancelOrder(ctx context.Context, input CancelOrderInput) (*OrderDTO, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.SellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "seller context missing")
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := loadOrderForSeller(ctx, repo, input.OrderID, input.SellerID)
		if err != nil {
			return err
		}
		if !CanTransition(order.Status, enums.OrderStatusCancelled) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot cancel an order in status %s", order.Status))
		}

		now := time.Now()
		updates := map[string]any{
			"status":       enums.OrderStatusCancelled,
			"cancelled_at": now,
		}
		if input.Reason != nil {
			updates["cancel_reason"] = *input.Reason
			order.CancelReason = input.Reason
		}
		if order.PaymentStatus == enums.PaymentStatusPaid {
			updates["payment_status"] = enums.PaymentStatusRefunded
			order.PaymentStatus = enums.PaymentStatusRefunded
		}
		if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		order.Status = enums.OrderStatusCancelled
		order.CancelledAt = &now

		if err := s.restoreStock(ctx, tx, order, enums.InventoryReasonOrderCancelled, input.ActorUserID); err != nil {
			return err
		}
		if err := s.relationships.Recompute(ctx, tx, order.SellerID, order.BuyerID); err != nil {
			return err
		}

		reason := ""
		if input.Reason != nil {
			reason = *input.Reason
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         sellerActor(input.ActorUserID, input.SellerID),
			Data: payloads.OrderCancelledEvent{
				OrderID:     order.ID,
				BuyerID:     order.BuyerID,
				SellerID:    order.SellerID,
				CancelledAt: now,
				Reason:      reason,
			},
		}
		if err := s.events.Emit(ctx, tx, event); err != nil {
			return err
		}

		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := NewOrderDTO(result)
	return &dto, nil
}

func (s *service) ConfirmCardPayment(ctx context.Context, input ConfirmCardPaymentInput) (*OrderDTO, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.PaymentRef == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference required")
	}
	if s.payments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment verification unavailable")
	}

	order, err := s.repo.FindByID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if input.BuyerID != uuid.Nil && order.BuyerID != input.BuyerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to you")
	}
	if order.PaymentMethod != enums.PaymentMethodCard {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not a card order")
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment already resolved for this order")
	}
	// The reference must be the intent checkout issued for this order; a
	// client cannot approve an order with an intent it invented.
	if order.PaymentRef == nil || *order.PaymentRef != input.PaymentRef {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference does not match this order")
	}
	status, err := s.payments.IntentStatus(ctx, input.PaymentRef)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify payment intent")
	}
	if status != intentStatusSucceeded {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("payment intent is %s, not succeeded", status))
	}

	var result *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment already resolved for this order")
		}

		now := time.Now()
		updates := map[string]any{
			"status":         enums.OrderStatusPaymentApproved,
			"payment_status": enums.PaymentStatusPaid,
			"payment_ref":    input.PaymentRef,
			"paid_at":        now,
		}
		if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm payment")
		}
		order.Status = enums.OrderStatusPaymentApproved
		order.PaymentStatus = enums.PaymentStatusPaid
		order.PaymentRef = &input.PaymentRef
		order.PaidAt = &now

		event := outbox.DomainEvent{
			EventType:     enums.EventPaymentConfirmed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: order.BuyerID, Role: enums.UserRoleBuyer.String()},
			Data: payloads.PaymentConfirmedEvent{
				OrderID:     order.ID,
				BuyerID:     order.BuyerID,
				SellerID:    order.SellerID,
				AmountCents: order.TotalCents,
				PaymentRef:  input.PaymentRef,
			},
		}
		if err := s.events.Emit(ctx, tx, event); err != nil {
			return err
		}

		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := NewOrderDTO(result)
	return &dto, nil
}

// ExpireStalePendingCardOrders sweeps card orders that never completed
// payment, restoring their stock. Each order expires in its own transaction
// so one failure does not poison the rest of the sweep.
func (s *service) ExpireStalePendingCardOrders(ctx context.Context, cutoff time.Time) (int, error) {
	stale, err := s.repo.FindStalePendingCardOrders(ctx, cutoff)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find stale card orders")
	}

	expired := 0
	for i := range stale {
		order := stale[i]
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			current, err := repo.FindByID(ctx, order.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
			}
			// Payment may have landed between the sweep query and now.
			if current.Status != enums.OrderStatusPending {
				return nil
			}

			now := time.Now()
			reason := "payment window elapsed"
			updates := map[string]any{
				"status":         enums.OrderStatusCancelled,
				"payment_status": enums.PaymentStatusFailed,
				"cancelled_at":   now,
				"cancel_reason":  reason,
			}
			if err := repo.UpdateOrder(ctx, current.ID, updates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire order")
			}

			if err := s.restoreStock(ctx, tx, current, enums.InventoryReasonOrderExpired, uuid.Nil); err != nil {
				return err
			}
			if err := s.relationships.Recompute(ctx, tx, current.SellerID, current.BuyerID); err != nil {
				return err
			}

			event := outbox.DomainEvent{
				EventType:     enums.EventOrderExpired,
				AggregateType: enums.AggregateOrder,
				AggregateID:   current.ID,
				Version:       1,
				Data: payloads.OrderExpiredEvent{
					OrderID:   current.ID,
					BuyerID:   current.BuyerID,
					SellerID:  current.SellerID,
					ExpiredAt: now,
				},
			}
			if err := s.events.Emit(ctx, tx, event); err != nil {
				return err
			}
			expired++
			return nil
		})
		if err != nil {
			return expired, err
		}
	}
	return expired, nil
}

// restoreStock returns every item's quantity to inventory with one log row
// per item.
func (s *service) restoreStock(ctx context.Context, tx *gorm.DB, order *models.Order, reason enums.InventoryChangeReason, actorID uuid.UUID) error {
	inv := s.inventory(tx)
	var performedBy *uuid.UUID
	if actorID != uuid.Nil {
		performedBy = &actorID
	}
	for _, item := range order.Items {
		updated, err := inv.AdjustStockBy(ctx, item.ProductID, item.Quantity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
		}
		log := &models.InventoryLog{
			ProductID:   item.ProductID,
			SellerID:    order.SellerID,
			OrderID:     &order.ID,
			Delta:       item.Quantity,
			StockAfter:  updated.Stock,
			Reason:      reason,
			PerformedBy: performedBy,
		}
		if err := inv.InsertInventoryLog(ctx, log); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock restore")
		}
	}
	return nil
}

func loadOrderForSeller(ctx context.Context, repo Repository, orderID, sellerID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.SellerID != sellerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to seller")
	}
	return order, nil
}

func sellerActor(userID, sellerID uuid.UUID) *outbox.ActorRef {
	seller := sellerID
	return &outbox.ActorRef{
		UserID:   userID,
		SellerID: &seller,
		Role:     enums.UserRoleSeller.String(),
	}
}

func dropsBelowThreshold(before, after, threshold int) bool {
	return before > threshold && after <= threshold
}
