package products

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jdelacruz/tradepost-backend/pkg/db/models"
	"github.com/jdelacruz/tradepost-backend/pkg/enums"
	"github.com/jdelacruz/tradepost-backend/pkg/pagination"
)

// SellerSummary exposes the minimal storefront data used by product read paths.
type SellerSummary struct {
	SellerID    uuid.UUID
	Name        string
	Slug        string
	RatingAvg   float64
	RatingCount int
}

// Repository wires together product and inventory-log persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads the product without associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ErrInsufficientStock signals a movement that would take stock below zero.
var ErrInsufficientStock = errors.New("insufficient stock")

// AdjustStockBy applies a conditional stock movement and returns the fresh row.
// The WHERE guard makes the non-negative invariant atomic, so callers never
// need row locks. ErrInsufficientStock is returned when the guard rejects.
func (r *Repository) AdjustStockBy(ctx context.Context, id uuid.UUID, delta int) (*models.Product, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock + ? >= 0", id, delta).
		UpdateColumn("stock", gorm.Expr("stock + ?", delta))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrInsufficientStock
	}
	return r.FindByID(ctx, id)
}

// CreateProduct inserts a new product row.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct updates an existing product row.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// SetStock overwrites the stock column without touching the rest of the row.
func (r *Repository) SetStock(ctx context.Context, id uuid.UUID, stock int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("stock", stock).Error
}

// SetActive flips the listing's visibility flag.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("is_active", active).Error
}

// GetProductDetail fetches a product joined with its seller summary.
func (r *Repository) GetProductDetail(ctx context.Context, id uuid.UUID) (*models.Product, *SellerSummary, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, nil, err
	}
	summary, err := r.fetchSellerSummary(ctx, product.SellerID)
	if err != nil {
		return &product, nil, err
	}
	return &product, summary, nil
}

// ListProductsBySeller lists every listing owned by a seller, newest first.
func (r *Repository) ListProductsBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&rows).
		Error
	return rows, err
}

// InsertInventoryLog appends a stock movement row.
func (r *Repository) InsertInventoryLog(ctx context.Context, log *models.InventoryLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// ListInventoryLogs returns the most recent stock movements for a product.
func (r *Repository) ListInventoryLogs(ctx context.Context, productID uuid.UUID, limit int) ([]models.InventoryLog, error) {
	if limit <= 0 {
		limit = pagination.DefaultLimit
	}
	var rows []models.InventoryLog
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).
		Error
	return rows, err
}

type productListQuery struct {
	Pagination pagination.Params
	Filters    ProductListFilters
	SellerID   *uuid.UUID
	SellerSlug string
}

// ListProductSummaries pages through the catalog with keyset pagination.
func (r *Repository) ListProductSummaries(ctx context.Context, query productListQuery) (*ProductListResult, error) {
	pageSize := pagination.NormalizeLimit(query.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(query.Pagination.Limit)
	if limitWithBuffer <= pageSize {
		limitWithBuffer = pageSize + 1
	}

	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).
		Table("products p").
		Select(strings.Join([]string{
			"p.id",
			"p.sku",
			"p.title",
			"p.category",
			"p.price_cents",
			"p.stock",
			"p.is_active",
			"p.seller_id",
			"s.name AS seller_name",
			"p.created_at",
			"p.updated_at",
		}, ", ")).
		Joins("JOIN sellers s ON s.id = p.seller_id")

	filter := query.Filters
	if filter.Category != nil {
		qb = qb.Where("p.category = ?", *filter.Category)
	}
	if filter.PriceMinCents != nil {
		qb = qb.Where("p.price_cents >= ?", *filter.PriceMinCents)
	}
	if filter.PriceMaxCents != nil {
		qb = qb.Where("p.price_cents <= ?", *filter.PriceMaxCents)
	}
	if filter.InStockOnly {
		qb = qb.Where("p.stock > 0")
	}
	if search := strings.TrimSpace(filter.Query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("(LOWER(p.title) LIKE ? OR LOWER(p.sku) LIKE ?)", pattern, pattern)
	}

	if query.SellerID != nil {
		qb = qb.Where("p.seller_id = ?", *query.SellerID)
	} else {
		if query.SellerSlug != "" {
			qb = qb.Where("s.slug = ?", query.SellerSlug)
		}
		qb = qb.Where("p.is_active = ?", true)
		qb = qb.Where("s.is_active = ?", true)
	}

	if cursor != nil {
		qb = qb.Where("(p.created_at < ?) OR (p.created_at = ? AND p.id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	qb = qb.Order("p.created_at DESC").Order("p.id DESC").Limit(limitWithBuffer)

	var records []productSummaryRecord
	if err := qb.Scan(&records).Error; err != nil {
		return nil, err
	}

	resultRows := records
	nextCursor := ""
	if len(records) > pageSize {
		resultRows = records[:pageSize]
		last := resultRows[len(resultRows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	summaries := make([]ProductSummary, 0, len(resultRows))
	for _, record := range resultRows {
		summaries = append(summaries, record.toSummary())
	}

	return &ProductListResult{
		Products:   summaries,
		NextCursor: nextCursor,
	}, nil
}

type productSummaryRecord struct {
	ID         uuid.UUID
	SKU        string
	Title      string
	Category   string
	PriceCents int64
	Stock      int
	IsActive   bool
	SellerID   uuid.UUID
	SellerName string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (r productSummaryRecord) toSummary() ProductSummary {
	return ProductSummary{
		ID:         r.ID,
		SKU:        r.SKU,
		Title:      r.Title,
		Category:   enums.ProductCategory(r.Category),
		PriceCents: r.PriceCents,
		Stock:      r.Stock,
		IsActive:   r.IsActive,
		SellerID:   r.SellerID,
		SellerName: r.SellerName,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func (r *Repository) fetchSellerSummary(ctx context.Context, sellerID uuid.UUID) (*SellerSummary, error) {
	var row SellerSummary
	err := r.db.WithContext(ctx).
		Table("sellers").
		Select("id AS seller_id, name, slug, rating_avg, rating_count").
		Where("id = ?", sellerID).
		Scan(&row).
		Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}
