package wishlist

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jdelacruz/tradepost-backend/internal/products"
	"github.com/jdelacruz/tradepost-backend/pkg/db/models"
	"github.com/jdelacruz/tradepost-backend/pkg/pagination"
)

// Repository encapsulates wishlist persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a wishlist repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AddItem inserts a wishlist entry and ignores duplicates.
func (r *Repository) AddItem(ctx context.Context, buyerID, productID uuid.UUID) error {
	if buyerID == uuid.Nil || productID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	return r.db.WithContext(ctx).
		Exec(`INSERT INTO wishlist_items (buyer_id, product_id) VALUES (?, ?) ON CONFLICT (buyer_id, product_id) DO NOTHING`, buyerID, productID).
		Error
}

// RemoveItem deletes the buyer-product entry if it exists.
func (r *Repository) RemoveItem(ctx context.Context, buyerID, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("buyer_id = ? AND product_id = ?", buyerID, productID).
		Delete(&models.WishlistItem{}).
		Error
}

type wishlistRecord struct {
	WishlistID        uuid.UUID `gorm:"column:wishlist_id"`
	WishlistCreatedAt time.Time `gorm:"column:wishlist_created_at"`
	products.ProductSummary
}

// ListItems returns a cursor page of saved products for a buyer.
func (r *Repository) ListItems(ctx context.Context, buyerID uuid.UUID, cursor string, limit int) (WishlistPageDTO, error) {
	normalizedLimit := pagination.NormalizeLimit(limit)
	limitWithBuffer := pagination.LimitWithBuffer(limit)
	decodedCursor, err := pagination.ParseCursor(cursor)
	if err != nil {
		return WishlistPageDTO{}, err
	}

	query := r.db.WithContext(ctx).
		Table("wishlist_items wi").
		Select(`wi.id AS wishlist_id, wi.created_at AS wishlist_created_at,
			p.id, p.sku, p.title, p.category, p.price_cents, p.stock, p.is_active,
			p.seller_id, s.name AS seller_name, p.created_at, p.updated_at`).
		Joins("JOIN products p ON p.id = wi.product_id").
		Joins("JOIN sellers s ON s.id = p.seller_id").
		Where("wi.buyer_id = ?", buyerID)

	if decodedCursor != nil {
		query = query.Where(
			"(wi.created_at < ?) OR (wi.created_at = ? AND wi.id < ?)",
			decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID,
		)
	}

	var records []wishlistRecord
	if err := query.Order("wi.created_at DESC, wi.id DESC").Limit(limitWithBuffer).Scan(&records).Error; err != nil {
		return WishlistPageDTO{}, err
	}

	nextCursor := ""
	if len(records) > normalizedLimit {
		records = records[:normalizedLimit]
		last := records[len(records)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.WishlistCreatedAt,
			ID:        last.WishlistID,
		})
	}

	items := make([]WishlistItemDTO, 0, len(records))
	for _, record := range records {
		items = append(items, WishlistItemDTO{
			Product:   record.ProductSummary,
			CreatedAt: record.WishlistCreatedAt,
		})
	}
	return WishlistPageDTO{Items: items, NextCursor: nextCursor}, nil
}

// ListItemIDs returns only the product IDs a buyer has saved.
func (r *Repository) ListItemIDs(ctx context.Context, buyerID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.WishlistItem{}).
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Pluck("product_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
