package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/jdelacruz/tradepost-backend/pkg/enums"
	"github.com/jdelacruz/tradepost-backend/pkg/logger"
	"github.com/jdelacruz/tradepost-backend/pkg/outbox"
	"github.com/jdelacruz/tradepost-backend/pkg/outbox/idempotency"
	"github.com/jdelacruz/tradepost-backend/pkg/outbox/payloads"
)

const analyticsConsumer = "analytics"

type rowInserter interface {
	InsertOrderEvent(ctx context.Context, row OrderEventRow) error
}

// Consumer streams order lifecycle events into the warehouse.
type Consumer struct {
	writer       rowInserter
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
	now          func() time.Time
}

// NewConsumer builds the warehouse ingestion consumer.
func NewConsumer(writer rowInserter, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if writer == nil {
		return nil, fmt.Errorf("event writer required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("analytics subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		writer:       writer,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
		now:          time.Now,
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

	if !isOrderEvent(eventType) {
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

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, analyticsConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		return processResult{ack: true}
	}

	row, err := c.buildRow(eventType, envelope)
	if err != nil {
		c.logg.Error(logCtx, "failed to build event row", err)
		_ = c.idempotency.Delete(ctx, analyticsConsumer, eventID)
		return processResult{ack: true}
	}

	if err := c.writer.InsertOrderEvent(ctx, row); err != nil {
		c.logg.Error(logCtx, "warehouse insert failed", err)
		_ = c.idempotency.Delete(ctx, analyticsConsumer, eventID)
		return processResult{nack: true}
	}
	return processResult{ack: true}
}

func isOrderEvent(eventType enums.OutboxEventType) bool {
	switch eventType {
	case enums.EventOrderPlaced, enums.EventOrderStatusMoved, enums.EventOrderCancelled,
		enums.EventOrderExpired, enums.EventPaymentConfirmed:
		return true
	}
	return false
}

func (c *Consumer) buildRow(eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) (OrderEventRow, error) {
	row := OrderEventRow{
		EventID:    envelope.EventID,
		EventType:  string(eventType),
		OccurredAt: envelope.OccurredAt.UTC(),
		IngestedAt: c.now().UTC(),
	}

	switch eventType {
	case enums.EventOrderPlaced:
		var payload payloads.OrderPlacedEvent
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return row, fmt.Errorf("decode order placed payload: %w", err)
		}
		row.OrderID = payload.OrderID.String()
		row.BuyerID = payload.BuyerID.String()
		row.SellerID = payload.SellerID.String()
		row.OrderNumber = payload.OrderNumber
		row.TotalCents = payload.TotalCents
		row.ItemCount = int64(payload.ItemCount)
		row.PaymentMethod = string(payload.PaymentMethod)
		row.ToStatus = string(enums.OrderStatusPending)
	case enums.EventOrderStatusMoved:
		var payload payloads.OrderStatusMovedEvent
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return row, fmt.Errorf("decode status moved payload: %w", err)
		}
		row.OrderID = payload.OrderID.String()
		row.BuyerID = payload.BuyerID.String()
		row.SellerID = payload.SellerID.String()
		row.FromStatus = string(payload.From)
		row.ToStatus = string(payload.To)
	case enums.EventOrderCancelled:
		var payload payloads.OrderCancelledEvent
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return row, fmt.Errorf("decode cancelled payload: %w", err)
		}
		row.OrderID = payload.OrderID.String()
		row.BuyerID = payload.BuyerID.String()
		row.SellerID = payload.SellerID.String()
		row.ToStatus = string(enums.OrderStatusCancelled)
	case enums.EventOrderExpired:
		var payload payloads.OrderExpiredEvent
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return row, fmt.Errorf("decode expired payload: %w", err)
		}
		row.OrderID = payload.OrderID.String()
		row.BuyerID = payload.BuyerID.String()
		row.SellerID = payload.SellerID.String()
		row.ToStatus = string(enums.OrderStatusCancelled)
	case enums.EventPaymentConfirmed:
		var payload payloads.PaymentConfirmedEvent
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return row, fmt.Errorf("decode payment confirmed payload: %w", err)
		}
		row.OrderID = payload.OrderID.String()
		row.BuyerID = payload.BuyerID.String()
		row.SellerID = payload.SellerID.String()
		row.TotalCents = payload.AmountCents
	default:
		return row, fmt.Errorf("unsupported event type %q", eventType)
	}

	return row, nil
}
