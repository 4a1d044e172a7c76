package products

import (
	"time"

	"github.com/google/uuid"

	"github.com/jdelacruz/tradepost-backend/pkg/enums"
	"github.com/jdelacruz/tradepost-backend/pkg/pagination"
)

// ProductListFilters describe the supported filter knobs for the browse endpoint.
type ProductListFilters struct {
	Category      *enums.ProductCategory `json:"category,omitempty"`
	PriceMinCents *int64                 `json:"price_min_cents,omitempty"`
	PriceMaxCents *int64                 `json:"price_max_cents,omitempty"`
	InStockOnly   bool                   `json:"in_stock_only,omitempty"`
	Query         string                 `json:"q,omitempty"`
}

// ListProductsInput captures the inputs needed to paginate/filter the catalog.
// SellerID is set for the seller's own-listings view and includes inactive rows.
type ListProductsInput struct {
	SellerID   *uuid.UUID
	SellerSlug string
	Filters    ProductListFilters
	Pagination pagination.Params
}

// ProductSummary is the compact row returned by catalog list queries.
type ProductSummary struct {
	ID         uuid.UUID             `json:"id"`
	SKU        string                `json:"sku"`
	Title      string                `json:"title"`
	Category   enums.ProductCategory `json:"category"`
	PriceCents int64                 `json:"price_cents"`
	Stock      int                   `json:"stock"`
	IsActive   bool                  `json:"is_active"`
	SellerID   uuid.UUID             `json:"seller_id"`
	SellerName string                `json:"seller_name"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// ProductListResult bundles a page of summaries with the next cursor.
type ProductListResult struct {
	Products   []ProductSummary `json:"products"`
	NextCursor string           `json:"next_cursor,omitempty"`
}
