package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is buyer feedback tied to a delivered order.
type Review struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID  `gorm:"column:order_id;type:uuid;not null;uniqueIndex:idx_order_product_review"`
	ProductID uuid.UUID  `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_order_product_review;index"`
	SellerID  uuid.UUID  `gorm:"column:seller_id;type:uuid;not null;index"`
	BuyerID   uuid.UUID  `gorm:"column:buyer_id;type:uuid;not null"`
	Rating    int        `gorm:"column:rating;not null"`
	Comment   *string    `gorm:"column:comment"`
	ReplyBody *string    `gorm:"column:reply_body"`
	RepliedAt *time.Time `gorm:"column:replied_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
