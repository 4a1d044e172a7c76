package relationships

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jdelacruz/tradepost-backend/pkg/db/models"
	"github.com/jdelacruz/tradepost-backend/pkg/enums"
	"github.com/jdelacruz/tradepost-backend/pkg/pagination"
)

// OrderHistoryStats is the aggregate of one buyer's non-cancelled orders
// with one seller.
type OrderHistoryStats struct {
	OrderCount      int
	TotalSpentCents int64
	FirstOrderAt    *time.Time
	LastOrderAt     *time.Time
}

// Repository defines persistence for seller-customer aggregates.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	AggregateOrders(ctx context.Context, sellerID, buyerID uuid.UUID) (*OrderHistoryStats, error)
	FindPair(ctx context.Context, sellerID, buyerID uuid.UUID) (*models.SellerCustomerRelationship, error)
	Create(ctx context.Context, rel *models.SellerCustomerRelationship) error
	Update(ctx context.Context, rel *models.SellerCustomerRelationship) error
	ListBySeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params, filters ListFilters) (*CustomerList, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a relationships repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

type orderAggregateRecord struct {
	OrderCount      int
	TotalSpentCents int64
	FirstOrderAt    *time.Time
	LastOrderAt     *time.Time
}

func (r *repository) AggregateOrders(ctx context.Context, sellerID, buyerID uuid.UUID) (*OrderHistoryStats, error) {
	var record orderAggregateRecord
	err := r.db.WithContext(ctx).
		Table("orders").
		Select(`COUNT(*) AS order_count,
			COALESCE(SUM(total_cents), 0) AS total_spent_cents,
			MIN(created_at) AS first_order_at,
			MAX(created_at) AS last_order_at`).
		Where("seller_id = ? AND buyer_id = ? AND status <> ?", sellerID, buyerID, enums.OrderStatusCancelled).
		Scan(&record).Error
	if err != nil {
		return nil, err
	}
	return &OrderHistoryStats{
		OrderCount:      record.OrderCount,
		TotalSpentCents: record.TotalSpentCents,
		FirstOrderAt:    record.FirstOrderAt,
		LastOrderAt:     record.LastOrderAt,
	}, nil
}

func (r *repository) FindPair(ctx context.Context, sellerID, buyerID uuid.UUID) (*models.SellerCustomerRelationship, error) {
	var rel models.SellerCustomerRelationship
	err := r.db.WithContext(ctx).
		Where("seller_id = ? AND buyer_id = ?", sellerID, buyerID).
		First(&rel).Error
	if err != nil {
		return nil, err
	}
	return &rel, nil
}

func (r *repository) Create(ctx context.Context, rel *models.SellerCustomerRelationship) error {
	return r.db.WithContext(ctx).Create(rel).Error
}

func (r *repository) Update(ctx context.Context, rel *models.SellerCustomerRelationship) error {
	return r.db.WithContext(ctx).
		Model(&models.SellerCustomerRelationship{}).
		Where("id = ?", rel.ID).
		Updates(map[string]any{
			"status":            rel.Status,
			"tags":              rel.Tags,
			"order_count":       rel.OrderCount,
			"total_spent_cents": rel.TotalSpentCents,
			"first_order_at":    rel.FirstOrderAt,
			"last_order_at":     rel.LastOrderAt,
		}).Error
}

// customerRecord is the scan target of the seller customer list.
type customerRecord struct {
	ID              uuid.UUID
	BuyerID         uuid.UUID
	BuyerName       string
	Status          enums.RelationshipStatus
	OrderCount      int
	TotalSpentCents int64
	LastOrderAt     *time.Time
	CreatedAt       time.Time
}

func (r *repository) ListBySeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params, filters ListFilters) (*CustomerList, error) {
	query := r.db.WithContext(ctx).
		Table("seller_customer_relationships AS rel").
		Select(`rel.id, rel.buyer_id, (u.first_name || ' ' || u.last_name) AS buyer_name,
			rel.status, rel.order_count, rel.total_spent_cents, rel.last_order_at, rel.created_at`).
		Joins("JOIN users u ON u.id = rel.buyer_id").
		Where("rel.seller_id = ?", sellerID)
	if filters.Status != nil {
		query = query.Where("rel.status = ?", *filters.Status)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, fmt.Errorf("parse cursor: %w", err)
	}
	if cursor != nil {
		query = query.Where(
			"(rel.created_at < ?) OR (rel.created_at = ? AND rel.id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var records []customerRecord
	err = query.
		Order("rel.created_at DESC, rel.id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Scan(&records).Error
	if err != nil {
		return nil, err
	}

	list := &CustomerList{Customers: make([]CustomerSummary, 0, len(records))}
	hasMore := len(records) > limit
	if hasMore {
		records = records[:limit]
	}
	for _, record := range records {
		list.Customers = append(list.Customers, record.toSummary())
	}
	if hasMore {
		last := records[len(records)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return list, nil
}
