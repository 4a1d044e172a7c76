package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/jdelacruz/tradepost-backend/pkg/enums"
)

// InventoryLog records every stock movement for a product.
type InventoryLog struct {
	ID          uuid.UUID                   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID   uuid.UUID                   `gorm:"column:product_id;type:uuid;not null;index"`
	SellerID    uuid.UUID                   `gorm:"column:seller_id;type:uuid;not null;index"`
	OrderID     *uuid.UUID                  `gorm:"column:order_id;type:uuid"`
	Delta       int                         `gorm:"column:delta;not null"`
	StockAfter  int                         `gorm:"column:stock_after;not null"`
	Reason      enums.InventoryChangeReason `gorm:"column:reason;type:inventory_reason;not null"`
	PerformedBy *uuid.UUID                  `gorm:"column:performed_by;type:uuid"`
	CreatedAt   time.Time                   `gorm:"column:created_at;autoCreateTime"`
}
