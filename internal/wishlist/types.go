package wishlist

import (
	"time"

	"github.com/jdelacruz/tradepost-backend/internal/products"
)

// WishlistItemDTO wraps the product summary included in a wishlist row.
type WishlistItemDTO struct {
	Product   products.ProductSummary `json:"product"`
	CreatedAt time.Time               `json:"created_at"`
}

// WishlistPageDTO is a cursor-paginated wishlist view.
type WishlistPageDTO struct {
	Items      []WishlistItemDTO `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
}
