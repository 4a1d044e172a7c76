package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/jdelacruz/tradepost-backend/pkg/enums"
)

// SellerCustomerRelationship aggregates a buyer's purchase history with a
// seller. Aggregate columns are derived from the pair's non-cancelled orders
// and are recomputed, never incremented in place.
type SellerCustomerRelationship struct {
	ID              uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID        uuid.UUID                `gorm:"column:seller_id;type:uuid;not null;uniqueIndex:idx_seller_buyer"`
	BuyerID         uuid.UUID                `gorm:"column:buyer_id;type:uuid;not null;uniqueIndex:idx_seller_buyer"`
	Status          enums.RelationshipStatus `gorm:"column:status;type:relationship_status;not null;default:'new'"`
	Tags            []string                 `gorm:"column:tags;type:jsonb;serializer:json"`
	OrderCount      int                      `gorm:"column:order_count;not null;default:0"`
	TotalSpentCents int64                    `gorm:"column:total_spent_cents;not null;default:0"`
	FirstOrderAt    *time.Time               `gorm:"column:first_order_at"`
	LastOrderAt     *time.Time               `gorm:"column:last_order_at"`
	CreatedAt       time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
