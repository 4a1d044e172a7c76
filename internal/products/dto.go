package products

import (
	"time"

	"github.com/google/uuid"

	"github.com/jdelacruz/tradepost-backend/pkg/db/models"
)

// ProductDTO represents the seller listing payload returned to clients.
type ProductDTO struct {
	ID             uuid.UUID        `json:"id"`
	SellerID       uuid.UUID        `json:"seller_id"`
	SKU            string           `json:"sku"`
	Title          string           `json:"title"`
	Description    *string          `json:"description,omitempty"`
	Category       string           `json:"category"`
	PriceCents     int64            `json:"price_cents"`
	SalePriceCents *int64           `json:"sale_price_cents,omitempty"`
	Stock          int              `json:"stock"`
	IsActive       bool             `json:"is_active"`
	Seller         SellerSummaryDTO `json:"seller"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// SellerSummaryDTO surfaces limited storefront data for product responses.
type SellerSummaryDTO struct {
	SellerID    uuid.UUID `json:"seller_id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	RatingAvg   float64   `json:"rating_avg"`
	RatingCount int       `json:"rating_count"`
}

// InventoryLogDTO exposes a single stock movement row.
type InventoryLogDTO struct {
	ID         uuid.UUID  `json:"id"`
	ProductID  uuid.UUID  `json:"product_id"`
	OrderID    *uuid.UUID `json:"order_id,omitempty"`
	Delta      int        `json:"delta"`
	StockAfter int        `json:"stock_after"`
	Reason     string     `json:"reason"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewProductDTO builds a DTO from the persisted model and seller summary.
func NewProductDTO(product *models.Product, summary *SellerSummary) *ProductDTO {
	dto := &ProductDTO{
		ID:             product.ID,
		SellerID:       product.SellerID,
		SKU:            product.SKU,
		Title:          product.Title,
		Description:    product.Description,
		Category:       string(product.Category),
		PriceCents:     product.PriceCents,
		SalePriceCents: product.SalePriceCents,
		Stock:          product.Stock,
		IsActive:       product.IsActive,
		CreatedAt:      product.CreatedAt,
		UpdatedAt:      product.UpdatedAt,
	}
	if summary != nil {
		dto.Seller = SellerSummaryDTO{
			SellerID:    summary.SellerID,
			Name:        summary.Name,
			Slug:        summary.Slug,
			RatingAvg:   summary.RatingAvg,
			RatingCount: summary.RatingCount,
		}
	}
	return dto
}

// NewInventoryLogDTO maps a stock movement row to its transport shape.
func NewInventoryLogDTO(log *models.InventoryLog) InventoryLogDTO {
	return InventoryLogDTO{
		ID:         log.ID,
		ProductID:  log.ProductID,
		OrderID:    log.OrderID,
		Delta:      log.Delta,
		StockAfter: log.StockAfter,
		Reason:     string(log.Reason),
		CreatedAt:  log.CreatedAt,
	}
}
