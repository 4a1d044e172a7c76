package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateOrder        OutboxAggregateType = "order"
	AggregateProduct      OutboxAggregateType = "product"
	AggregateMessage      OutboxAggregateType = "message"
	AggregateReview       OutboxAggregateType = "review"
	AggregateNotification OutboxAggregateType = "notification"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateProduct,
	AggregateMessage,
	AggregateReview,
	AggregateNotification,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventOrderPlaced       OutboxEventType = "order_placed"
	EventOrderStatusMoved  OutboxEventType = "order_status_moved"
	EventOrderCancelled    OutboxEventType = "order_cancelled"
	EventOrderExpired      OutboxEventType = "order_expired"
	EventPaymentConfirmed  OutboxEventType = "payment_confirmed"
	EventLowStock          OutboxEventType = "low_stock"
	EventMessageSent       OutboxEventType = "message_sent"
	EventReviewSubmitted   OutboxEventType = "review_submitted"
	EventProductUnlisted   OutboxEventType = "product_unlisted"
	EventRelationshipMoved OutboxEventType = "relationship_moved"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderPlaced,
	EventOrderStatusMoved,
	EventOrderCancelled,
	EventOrderExpired,
	EventPaymentConfirmed,
	EventLowStock,
	EventMessageSent,
	EventReviewSubmitted,
	EventProductUnlisted,
	EventRelationshipMoved,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}

// OutboxDLQErrorReason classifies why an outbox event was dead-lettered.
type OutboxDLQErrorReason string

const (
	DLQReasonMaxAttempts    OutboxDLQErrorReason = "max_attempts"
	DLQReasonInvalidPayload OutboxDLQErrorReason = "invalid_payload"
	DLQReasonPublishError   OutboxDLQErrorReason = "publish_error"
)

// IsValid reports whether the value matches the canonical DLQ reason enum.
func (r OutboxDLQErrorReason) IsValid() bool {
	switch r {
	case DLQReasonMaxAttempts, DLQReasonInvalidPayload, DLQReasonPublishError:
		return true
	}
	return false
}
