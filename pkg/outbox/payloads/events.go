package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/jdelacruz/tradepost-backend/pkg/enums"
)

// OrderPlacedEvent signals a new order committed by checkout.
type OrderPlacedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	OrderNumber   int64               `json:"order_number"`
	BuyerID       uuid.UUID           `json:"buyer_id"`
	SellerID      uuid.UUID           `json:"seller_id"`
	TotalCents    int64               `json:"total_cents"`
	ItemCount     int                 `json:"item_count"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
}

// OrderStatusMovedEvent is emitted whenever the order lifecycle advances.
type OrderStatusMovedEvent struct {
	OrderID  uuid.UUID         `json:"order_id"`
	BuyerID  uuid.UUID         `json:"buyer_id"`
	SellerID uuid.UUID         `json:"seller_id"`
	From     enums.OrderStatus `json:"from"`
	To       enums.OrderStatus `json:"to"`
}

// OrderCancelledEvent is emitted when a processing order is cancelled.
type OrderCancelledEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	BuyerID     uuid.UUID `json:"buyer_id"`
	SellerID    uuid.UUID `json:"seller_id"`
	CancelledAt time.Time `json:"cancelled_at"`
	Reason      string    `json:"reason,omitempty"`
}

// OrderExpiredEvent reports a card order that never completed payment.
type OrderExpiredEvent struct {
	OrderID   uuid.UUID `json:"order_id"`
	BuyerID   uuid.UUID `json:"buyer_id"`
	SellerID  uuid.UUID `json:"seller_id"`
	ExpiredAt time.Time `json:"expired_at"`
}

// PaymentConfirmedEvent is emitted when a card payment settles.
type PaymentConfirmedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	BuyerID     uuid.UUID `json:"buyer_id"`
	SellerID    uuid.UUID `json:"seller_id"`
	AmountCents int64     `json:"amount_cents"`
	PaymentRef  string    `json:"payment_ref,omitempty"`
}

// LowStockEvent warns a seller their product crossed the low-stock threshold.
type LowStockEvent struct {
	ProductID uuid.UUID `json:"product_id"`
	SellerID  uuid.UUID `json:"seller_id"`
	Stock     int       `json:"stock"`
	Threshold int       `json:"threshold"`
}

// MessageSentEvent notifies the counterparty in a conversation.
type MessageSentEvent struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	MessageID      uuid.UUID `json:"message_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	RecipientID    uuid.UUID `json:"recipient_id"`
	Preview        string    `json:"preview,omitempty"`
}

// ReviewSubmittedEvent is emitted when a buyer reviews a delivered order.
type ReviewSubmittedEvent struct {
	ReviewID  uuid.UUID `json:"review_id"`
	OrderID   uuid.UUID `json:"order_id"`
	ProductID uuid.UUID `json:"product_id"`
	SellerID  uuid.UUID `json:"seller_id"`
	BuyerID   uuid.UUID `json:"buyer_id"`
	Rating    int       `json:"rating"`
}

// ProductUnlistedEvent reports a listing deactivated by its seller or an admin.
type ProductUnlistedEvent struct {
	ProductID uuid.UUID `json:"product_id"`
	SellerID  uuid.UUID `json:"seller_id"`
}

// RelationshipMovedEvent is emitted when a buyer's tier with a seller changes.
type RelationshipMovedEvent struct {
	SellerID uuid.UUID                `json:"seller_id"`
	BuyerID  uuid.UUID                `json:"buyer_id"`
	From     enums.RelationshipStatus `json:"from"`
	To       enums.RelationshipStatus `json:"to"`
}
