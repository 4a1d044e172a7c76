package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/jdelacruz/tradepost-backend/pkg/enums"
)

// Product represents a seller listing.
type Product struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID    uuid.UUID             `gorm:"column:seller_id;type:uuid;not null;index"`
	SKU         string                `gorm:"column:sku;not null"`
	Title       string                `gorm:"column:title;not null"`
	Description *string               `gorm:"column:description"`
	Category    enums.ProductCategory `gorm:"column:category;type:product_category;not null"`
	PriceCents  int64                 `gorm:"column:price_cents;not null"`
	// SalePriceCents undercuts PriceCents while a promotion runs; nil means no
	// sale. Cart snapshots and order lines charge the effective price.
	SalePriceCents *int64    `gorm:"column:sale_price_cents"`
	Stock          int       `gorm:"column:stock;not null;default:0"`
	IsActive       bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// EffectivePriceCents is the amount buyers are charged: the sale price when
// one is set below the regular price, otherwise the regular price.
func (p *Product) EffectivePriceCents() int64 {
	if p.SalePriceCents != nil && *p.SalePriceCents > 0 && *p.SalePriceCents < p.PriceCents {
		return *p.SalePriceCents
	}
	return p.PriceCents
}
