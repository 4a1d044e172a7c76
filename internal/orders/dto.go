package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/jdelacruz/tradepost-backend/pkg/db/models"
	"github.com/jdelacruz/tradepost-backend/pkg/enums"
	"github.com/jdelacruz/tradepost-backend/pkg/types"
)

// ListFilters describe the inputs supported by the buyer and seller order lists.
type ListFilters struct {
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	DateFrom      *time.Time
	DateTo        *time.Time
}

// CounterpartySummary names the other side of an order in list responses:
// the shop for a buyer's list, the customer for a seller's list.
type CounterpartySummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug,omitempty"`
}

// OrderSummary is the aggregated row returned by the order lists.
type OrderSummary struct {
	ID            uuid.UUID           `json:"id"`
	OrderNumber   int64               `json:"order_number"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	TotalCents    int64               `json:"total_cents"`
	ItemCount     int                 `json:"item_count"`
	Counterparty  CounterpartySummary `json:"counterparty"`
	CreatedAt     time.Time           `json:"created_at"`
}

// OrderList wraps a page of orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// OrderItemDTO is the priced snapshot of one purchased line.
type OrderItemDTO struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"product_id"`
	Title          string    `json:"title"`
	SKU            string    `json:"sku"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	Quantity       int       `json:"quantity"`
	LineTotalCents int64     `json:"line_total_cents"`
}

// OrderDTO is the full order detail returned to buyers and sellers.
type OrderDTO struct {
	ID                uuid.UUID            `json:"id"`
	OrderNumber       int64                `json:"order_number"`
	BuyerID           uuid.UUID            `json:"buyer_id"`
	SellerID          uuid.UUID            `json:"seller_id"`
	Status            enums.OrderStatus    `json:"status"`
	PaymentMethod     enums.PaymentMethod  `json:"payment_method"`
	PaymentStatus     enums.PaymentStatus  `json:"payment_status"`
	PaymentRef        *string              `json:"payment_ref,omitempty"`
	DeliveryOption    enums.DeliveryOption `json:"delivery_option"`
	ShippingAddress   types.Address        `json:"shipping_address"`
	BillingAddress    *types.Address       `json:"billing_address,omitempty"`
	TrackingNumber    *string              `json:"tracking_number,omitempty"`
	SubtotalCents     int64                `json:"subtotal_cents"`
	DeliveryFeeCents  int64                `json:"delivery_fee_cents"`
	TotalCents        int64                `json:"total_cents"`
	EstimatedDelivery *time.Time           `json:"estimated_delivery,omitempty"`
	Items             []OrderItemDTO       `json:"items"`
	PaidAt            *time.Time           `json:"paid_at,omitempty"`
	ShippedAt         *time.Time           `json:"shipped_at,omitempty"`
	DeliveredAt       *time.Time           `json:"delivered_at,omitempty"`
	CancelledAt       *time.Time           `json:"cancelled_at,omitempty"`
	CancelReason      *string              `json:"cancel_reason,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
}

// NewOrderDTO maps the persisted order plus its items into the API shape.
func NewOrderDTO(order *models.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemDTO{
			ID:             item.ID,
			ProductID:      item.ProductID,
			Title:          item.Title,
			SKU:            item.SKU,
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
			LineTotalCents: item.LineTotalCents,
		})
	}
	return OrderDTO{
		ID:                order.ID,
		OrderNumber:       order.OrderNumber,
		BuyerID:           order.BuyerID,
		SellerID:          order.SellerID,
		Status:            order.Status,
		PaymentMethod:     order.PaymentMethod,
		PaymentStatus:     order.PaymentStatus,
		PaymentRef:        order.PaymentRef,
		DeliveryOption:    order.DeliveryOption,
		ShippingAddress:   order.ShippingAddress,
		BillingAddress:    order.BillingAddress,
		TrackingNumber:    order.TrackingNumber,
		SubtotalCents:     order.SubtotalCents,
		DeliveryFeeCents:  order.DeliveryFeeCents,
		TotalCents:        order.TotalCents,
		EstimatedDelivery: order.EstimatedDelivery,
		Items:             items,
		PaidAt:            order.PaidAt,
		ShippedAt:         order.ShippedAt,
		DeliveredAt:       order.DeliveredAt,
		CancelledAt:       order.CancelledAt,
		CancelReason:      order.CancelReason,
		CreatedAt:         order.CreatedAt,
	}
}
