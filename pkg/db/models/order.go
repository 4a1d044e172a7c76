package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/jdelacruz/tradepost-backend/pkg/enums"
	"github.com/jdelacruz/tradepost-backend/pkg/types"
)

// Order represents a buyer purchase against a single seller.
type Order struct {
	ID                uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber       int64                `gorm:"column:order_number;not null;uniqueIndex"`
	BuyerID           uuid.UUID            `gorm:"column:buyer_id;type:uuid;not null;index"`
	SellerID          uuid.UUID            `gorm:"column:seller_id;type:uuid;not null;index"`
	CartID            *uuid.UUID           `gorm:"column:cart_id;type:uuid"`
	Status            enums.OrderStatus    `gorm:"column:status;type:order_status;not null;default:'pending'"`
	PaymentMethod     enums.PaymentMethod  `gorm:"column:payment_method;type:payment_method;not null"`
	PaymentStatus     enums.PaymentStatus  `gorm:"column:payment_status;type:payment_status;not null;default:'pending'"`
	PaymentRef        *string              `gorm:"column:payment_ref"`
	DeliveryOption    enums.DeliveryOption `gorm:"column:delivery_option;type:delivery_option;not null"`
	ShippingAddress   types.Address        `gorm:"column:shipping_address;type:jsonb;serializer:json;not null"`
	BillingAddress    *types.Address       `gorm:"column:billing_address;type:jsonb;serializer:json"`
	TrackingNumber    *string              `gorm:"column:tracking_number"`
	SubtotalCents     int64                `gorm:"column:subtotal_cents;not null"`
	DeliveryFeeCents  int64                `gorm:"column:delivery_fee_cents;not null"`
	TotalCents        int64                `gorm:"column:total_cents;not null"`
	EstimatedDelivery *time.Time           `gorm:"column:estimated_delivery"`
	Items             []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	PaidAt            *time.Time           `gorm:"column:paid_at"`
	ShippedAt         *time.Time           `gorm:"column:shipped_at"`
	DeliveredAt       *time.Time           `gorm:"column:delivered_at"`
	CancelledAt       *time.Time           `gorm:"column:cancelled_at"`
	CancelReason      *string              `gorm:"column:cancel_reason"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
