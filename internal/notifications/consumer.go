package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/jdelacruz/tradepost-backend/pkg/enums"
	"github.com/jdelacruz/tradepost-backend/pkg/logger"
	"github.com/jdelacruz/tradepost-backend/pkg/outbox"
	"github.com/jdelacruz/tradepost-backend/pkg/outbox/idempotency"
	"github.com/jdelacruz/tradepost-backend/pkg/outbox/payloads"
	"github.com/jdelacruz/tradepost-backend/pkg/types"
)

const orderNotificationConsumer = "order-notifications"

// sellerOwnerResolver maps a storefront to the user account that owns it.
type sellerOwnerResolver interface {
	FindOwnerUserID(ctx context.Context, sellerID uuid.UUID) (uuid.UUID, error)
}

type deliverer interface {
	Deliver(ctx context.Context, input DeliverInput) error
}

// Consumer turns order domain events into in-app notifications.
type Consumer struct {
	deliverer    deliverer
	owners       sellerOwnerResolver
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds the order notification consumer.
func NewConsumer(svc deliverer, owners sellerOwnerResolver, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if svc == nil {
		return nil, fmt.Errorf("notification service required")
	}
	if owners == nil {
		return nil, fmt.Errorf("seller owner resolver required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		deliverer:    svc,
		owners:       owners,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	handler := c.handlerFor(eventType)
	if handler == nil {
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, orderNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		return processResult{ack: true}
	}

	if err := handler(logCtx, envelope.Data); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, orderNotificationConsumer, eventID)
		return processResult{nack: true}
	}
	return processResult{ack: true}
}

type payloadHandler func(ctx context.Context, data json.RawMessage) error

func (c *Consumer) handlerFor(eventType enums.OutboxEventType) payloadHandler {
	switch eventType {
	case enums.EventOrderPlaced:
		return c.handleOrderPlaced
	case enums.EventOrderStatusMoved:
		return c.handleOrderStatusMoved
	case enums.EventOrderCancelled:
		return c.handleOrderCancelled
	case enums.EventOrderExpired:
		return c.handleOrderExpired
	case enums.EventPaymentConfirmed:
		return c.handlePaymentConfirmed
	case enums.EventLowStock:
		return c.handleLowStock
	case enums.EventMessageSent:
		return c.handleMessageSent
	case enums.EventReviewSubmitted:
		return c.handleReviewSubmitted
	default:
		return nil
	}
}

func (c *Consumer) handleOrderPlaced(ctx context.Context, data json.RawMessage) error {
	var payload payloads.OrderPlacedEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	ownerID, err := c.owners.FindOwnerUserID(ctx, payload.SellerID)
	if err != nil {
		return fmt.Errorf("resolve seller owner: %w", err)
	}
	return c.deliverer.Deliver(ctx, DeliverInput{
		UserID: ownerID,
		Type:   enums.NotificationTypeNewOrder,
		Title:  "New order received",
		Body:   fmt.Sprintf("Order #%d was placed for %d item(s).", payload.OrderNumber, payload.ItemCount),
		Data: types.JSONMap{
			"order_id":     payload.OrderID.String(),
			"order_number": payload.OrderNumber,
			"total_cents":  payload.TotalCents,
		},
	})
}

func (c *Consumer) handleOrderStatusMoved(ctx context.Context, data json.RawMessage) error {
	var payload payloads.OrderStatusMovedEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	return c.deliverer.Deliver(ctx, DeliverInput{
		UserID: payload.BuyerID,
		Type:   enums.NotificationTypeOrderStatus,
		Title:  "Order update",
		Body:   fmt.Sprintf("Your order is now %s.", payload.To),
		Data: types.JSONMap{
			"order_id": payload.OrderID.String(),
			"from":     payload.From,
			"to":       payload.To,
		},
	})
}

func (c *Consumer) handleOrderCancelled(ctx context.Context, data json.RawMessage) error {
	var payload payloads.OrderCancelledEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	body := "Your order was cancelled and any held stock was released."
	if payload.Reason != "" {
		body = fmt.Sprintf("Your order was cancelled: %s", payload.Reason)
	}
	return c.deliverer.Deliver(ctx, DeliverInput{
		UserID: payload.BuyerID,
		Type:   enums.NotificationTypeOrderStatus,
		Title:  "Order cancelled",
		Body:   body,
		Data:   types.JSONMap{"order_id": payload.OrderID.String()},
	})
}

func (c *Consumer) handleOrderExpired(ctx context.Context, data json.RawMessage) error {
	var payload payloads.OrderExpiredEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	return c.deliverer.Deliver(ctx, DeliverInput{
		UserID: payload.BuyerID,
		Type:   enums.NotificationTypeOrderStatus,
		Title:  "Order expired",
		Body:   "Your order was cancelled because payment was not completed in time.",
		Data:   types.JSONMap{"order_id": payload.OrderID.String()},
	})
}

func (c *Consumer) handlePaymentConfirmed(ctx context.Context, data json.RawMessage) error {
	var payload payloads.PaymentConfirmedEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	if err := c.deliverer.Deliver(ctx, DeliverInput{
		UserID: payload.BuyerID,
		Type:   enums.NotificationTypeOrderStatus,
		Title:  "Payment received",
		Body:   "Your payment went through. The seller is preparing your order.",
		Data:   types.JSONMap{"order_id": payload.OrderID.String()},
	}); err != nil {
		return err
	}
	ownerID, err := c.owners.FindOwnerUserID(ctx, payload.SellerID)
	if err != nil {
		return fmt.Errorf("resolve seller owner: %w", err)
	}
	return c.deliverer.Deliver(ctx, DeliverInput{
		UserID: ownerID,
		Type:   enums.NotificationTypeNewOrder,
		Title:  "Order paid",
		Body:   "A card order was paid and is ready to fulfill.",
		Data:   types.JSONMap{"order_id": payload.OrderID.String()},
	})
}

func (c *Consumer) handleLowStock(ctx context.Context, data json.RawMessage) error {
	var payload payloads.LowStockEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	ownerID, err := c.owners.FindOwnerUserID(ctx, payload.SellerID)
	if err != nil {
		return fmt.Errorf("resolve seller owner: %w", err)
	}
	return c.deliverer.Deliver(ctx, DeliverInput{
		UserID: ownerID,
		Type:   enums.NotificationTypeLowStock,
		Title:  "Low stock",
		Body:   fmt.Sprintf("A listing is down to %d unit(s).", payload.Stock),
		Data: types.JSONMap{
			"product_id": payload.ProductID.String(),
			"stock":      payload.Stock,
			"threshold":  payload.Threshold,
		},
	})
}

func (c *Consumer) handleMessageSent(ctx context.Context, data json.RawMessage) error {
	var payload payloads.MessageSentEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	return c.deliverer.Deliver(ctx, DeliverInput{
		UserID: payload.RecipientID,
		Type:   enums.NotificationTypeNewMessage,
		Title:  "New message",
		Body:   payload.Preview,
		Data: types.JSONMap{
			"conversation_id": payload.ConversationID.String(),
			"message_id":      payload.MessageID.String(),
		},
	})
}

func (c *Consumer) handleReviewSubmitted(ctx context.Context, data json.RawMessage) error {
	var payload payloads.ReviewSubmittedEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	ownerID, err := c.owners.FindOwnerUserID(ctx, payload.SellerID)
	if err != nil {
		return fmt.Errorf("resolve seller owner: %w", err)
	}
	return c.deliverer.Deliver(ctx, DeliverInput{
		UserID: ownerID,
		Type:   enums.NotificationTypeNewReview,
		Title:  "New review",
		Body:   fmt.Sprintf("A buyer left a %d-star review on your product.", payload.Rating),
		Data: types.JSONMap{
			"review_id":  payload.ReviewID.String(),
			"product_id": payload.ProductID.String(),
			"rating":     payload.Rating,
		},
	})
}
