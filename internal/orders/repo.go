package orders

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

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	NextOrderNumber(ctx context.Context) (int64, error)
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error)
	FindStalePendingCardOrders(ctx context.Context, cutoff time.Time) ([]models.Order, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) NextOrderNumber(ctx context.Context) (int64, error) {
	var number int64
	err := r.db.WithContext(ctx).
		Raw("SELECT nextval('order_numbers')").
		Scan(&number).Error
	if err != nil {
		return 0, err
	}
	return number, nil
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Omit("Items").Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}

// orderSummaryRecord is the scan target for the order list queries.
type orderSummaryRecord struct {
	ID               uuid.UUID
	OrderNumber      int64
	Status           enums.OrderStatus
	PaymentMethod    enums.PaymentMethod
	PaymentStatus    enums.PaymentStatus
	TotalCents       int64
	ItemCount        int
	CounterpartyID   uuid.UUID
	CounterpartyName string
	CounterpartySlug string
	CreatedAt        time.Time
}

func (r *repository) ListByBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error) {
	query := r.db.WithContext(ctx).
		Table("orders AS o").
		Select(`o.id, o.order_number, o.status, o.payment_method, o.payment_status,
			o.total_cents, o.created_at,
			(SELECT COALESCE(SUM(oi.quantity), 0) FROM order_items oi WHERE oi.order_id = o.id) AS item_count,
			s.id AS counterparty_id, s.name AS counterparty_name, s.slug AS counterparty_slug`).
		Joins("JOIN sellers s ON s.id = o.seller_id").
		Where("o.buyer_id = ?", buyerID)
	return r.listOrders(query, params, filters)
}

func (r *repository) ListBySeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error) {
	query := r.db.WithContext(ctx).
		Table("orders AS o").
		Select(`o.id, o.order_number, o.status, o.payment_method, o.payment_status,
			o.total_cents, o.created_at,
			(SELECT COALESCE(SUM(oi.quantity), 0) FROM order_items oi WHERE oi.order_id = o.id) AS item_count,
			u.id AS counterparty_id, (u.first_name || ' ' || u.last_name) AS counterparty_name, '' AS counterparty_slug`).
		Joins("JOIN users u ON u.id = o.buyer_id").
		Where("o.seller_id = ?", sellerID)
	return r.listOrders(query, params, filters)
}

func (r *repository) listOrders(query *gorm.DB, params pagination.Params, filters ListFilters) (*OrderList, error) {
	if filters.Status != nil {
		query = query.Where("o.status = ?", *filters.Status)
	}
	if filters.PaymentStatus != nil {
		query = query.Where("o.payment_status = ?", *filters.PaymentStatus)
	}
	if filters.DateFrom != nil {
		query = query.Where("o.created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("o.created_at <= ?", *filters.DateTo)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, fmt.Errorf("parse cursor: %w", err)
	}
	if cursor != nil {
		query = query.Where(
			"(o.created_at < ?) OR (o.created_at = ? AND o.id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var records []orderSummaryRecord
	err = query.
		Order("o.created_at DESC, o.id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Scan(&records).Error
	if err != nil {
		return nil, err
	}

	list := &OrderList{Orders: make([]OrderSummary, 0, len(records))}
	hasMore := len(records) > limit
	if hasMore {
		records = records[:limit]
	}
	for _, record := range records {
		list.Orders = append(list.Orders, record.toSummary())
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

func (r orderSummaryRecord) toSummary() OrderSummary {
	return OrderSummary{
		ID:            r.ID,
		OrderNumber:   r.OrderNumber,
		Status:        r.Status,
		PaymentMethod: r.PaymentMethod,
		PaymentStatus: r.PaymentStatus,
		TotalCents:    r.TotalCents,
		ItemCount:     r.ItemCount,
		Counterparty: CounterpartySummary{
			ID:   r.CounterpartyID,
			Name: r.CounterpartyName,
			Slug: r.CounterpartySlug,
		},
		CreatedAt: r.CreatedAt,
	}
}

func (r *repository) FindStalePendingCardOrders(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("status = ? AND payment_method = ? AND created_at < ?",
			enums.OrderStatusPending, enums.PaymentMethodCard, cutoff).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
