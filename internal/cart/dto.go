package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/jdelacruz/tradepost-backend/pkg/db/models"
)

// CartDTO is the transport shape for a buyer's cart.
type CartDTO struct {
	ID            uuid.UUID     `json:"id"`
	Status        string        `json:"status"`
	Items         []CartItemDTO `json:"items"`
	SubtotalCents int64         `json:"subtotal_cents"`
	ItemCount     int           `json:"item_count"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// CartItemDTO is a single cart line enriched with live product data.
type CartItemDTO struct {
	ProductID      uuid.UUID `json:"product_id"`
	SellerID       uuid.UUID `json:"seller_id"`
	Title          string    `json:"title"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	LineTotalCents int64     `json:"line_total_cents"`
	Selected       bool      `json:"selected"`
	Stock          int       `json:"stock"`
	IsActive       bool      `json:"is_active"`
}

// NewCartDTO maps a cart record to its transport shape. SubtotalCents only
// counts selected lines, matching what checkout would charge.
func NewCartDTO(record *models.CartRecord) *CartDTO {
	dto := &CartDTO{
		ID:        record.ID,
		Status:    string(record.Status),
		Items:     make([]CartItemDTO, 0, len(record.Items)),
		UpdatedAt: record.UpdatedAt,
	}
	for _, item := range record.Items {
		line := CartItemDTO{
			ProductID:      item.ProductID,
			SellerID:       item.SellerID,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			LineTotalCents: item.UnitPriceCents * int64(item.Quantity),
			Selected:       item.Selected,
		}
		if item.Product != nil {
			line.Title = item.Product.Title
			line.Stock = item.Product.Stock
			line.IsActive = item.Product.IsActive
			// Reflect the live price so stale snapshots never mislead the buyer.
			line.UnitPriceCents = item.Product.EffectivePriceCents()
			line.LineTotalCents = line.UnitPriceCents * int64(item.Quantity)
		}
		if line.Selected {
			dto.SubtotalCents += line.LineTotalCents
		}
		dto.ItemCount += item.Quantity
		dto.Items = append(dto.Items, line)
	}
	return dto
}
