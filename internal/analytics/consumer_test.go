package analytics

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jdelacruz/tradepost-backend/pkg/enums"
	"github.com/jdelacruz/tradepost-backend/pkg/outbox"
	"github.com/jdelacruz/tradepost-backend/pkg/outbox/payloads"
)

func testEnvelope(t *testing.T, payload any) outbox.PayloadEnvelope {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC),
		Data:       data,
	}
}

func fixedClockConsumer() *Consumer {
	return &Consumer{now: func() time.Time {
		return time.Date(2026, 8, 1, 9, 31, 0, 0, time.UTC)
	}}
}

func TestBuildRowOrderPlaced(t *testing.T) {
	orderID := uuid.New()
	buyerID := uuid.New()
	sellerID := uuid.New()
	envelope := testEnvelope(t, payloads.OrderPlacedEvent{
		OrderID:       orderID,
		OrderNumber:   100234,
		BuyerID:       buyerID,
		SellerID:      sellerID,
		TotalCents:    115000,
		ItemCount:     2,
		PaymentMethod: enums.PaymentMethodCOD,
	})

	row, err := fixedClockConsumer().buildRow(enums.EventOrderPlaced, envelope)
	if err != nil {
		t.Fatalf("buildRow: %v", err)
	}
	if row.OrderID != orderID.String() || row.BuyerID != buyerID.String() || row.SellerID != sellerID.String() {
		t.Fatal("expected ids carried into the row")
	}
	if row.OrderNumber != 100234 || row.TotalCents != 115000 || row.ItemCount != 2 {
		t.Fatalf("unexpected order figures: %+v", row)
	}
	if row.PaymentMethod != string(enums.PaymentMethodCOD) {
		t.Fatalf("unexpected payment method %q", row.PaymentMethod)
	}
	if row.ToStatus != string(enums.OrderStatusPending) {
		t.Fatalf("expected placed orders to land pending, got %q", row.ToStatus)
	}
	if !row.OccurredAt.Equal(envelope.OccurredAt) {
		t.Fatal("expected occurred_at from the envelope")
	}
	if row.IngestedAt.Before(row.OccurredAt) {
		t.Fatal("expected ingested_at at or after occurred_at")
	}
}

func TestBuildRowStatusMoved(t *testing.T) {
	envelope := testEnvelope(t, payloads.OrderStatusMovedEvent{
		OrderID:  uuid.New(),
		BuyerID:  uuid.New(),
		SellerID: uuid.New(),
		From:     enums.OrderStatusProcessing,
		To:       enums.OrderStatusShipped,
	})

	row, err := fixedClockConsumer().buildRow(enums.EventOrderStatusMoved, envelope)
	if err != nil {
		t.Fatalf("buildRow: %v", err)
	}
	if row.FromStatus != "processing" || row.ToStatus != "shipped" {
		t.Fatalf("unexpected transition %q -> %q", row.FromStatus, row.ToStatus)
	}
}

func TestBuildRowExpiredLandsCancelled(t *testing.T) {
	envelope := testEnvelope(t, payloads.OrderExpiredEvent{
		OrderID:   uuid.New(),
		BuyerID:   uuid.New(),
		SellerID:  uuid.New(),
		ExpiredAt: time.Now(),
	})

	row, err := fixedClockConsumer().buildRow(enums.EventOrderExpired, envelope)
	if err != nil {
		t.Fatalf("buildRow: %v", err)
	}
	if row.ToStatus != string(enums.OrderStatusCancelled) {
		t.Fatalf("expected expired orders recorded as cancelled, got %q", row.ToStatus)
	}
}

func TestBuildRowRejectsMalformedPayload(t *testing.T) {
	envelope := outbox.PayloadEnvelope{
		Version: 1,
		EventID: uuid.NewString(),
		Data:    json.RawMessage(`{"order_id":"not-a-uuid"}`),
	}
	if _, err := fixedClockConsumer().buildRow(enums.EventOrderPlaced, envelope); err == nil {
		t.Fatal("expected malformed payload to be rejected")
	}
}

func TestIsOrderEventFiltersForeignTypes(t *testing.T) {
	if isOrderEvent(enums.EventMessageSent) {
		t.Fatal("message events do not belong in the order stream")
	}
	if !isOrderEvent(enums.EventPaymentConfirmed) {
		t.Fatal("payment confirmations belong in the order stream")
	}
}
