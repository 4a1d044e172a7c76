package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jdelacruz/tradepost-backend/pkg/db"
	"github.com/jdelacruz/tradepost-backend/pkg/db/models"
	"github.com/jdelacruz/tradepost-backend/pkg/enums"
	pkgerrors "github.com/jdelacruz/tradepost-backend/pkg/errors"
	"github.com/jdelacruz/tradepost-backend/pkg/outbox"
	"github.com/jdelacruz/tradepost-backend/pkg/outbox/payloads"
)

// Service exposes seller listing management and catalog browsing.
type Service interface {
	CreateProduct(ctx context.Context, sellerID uuid.UUID, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, sellerID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	UnlistProduct(ctx context.Context, sellerID, productID uuid.UUID) error
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	AdjustStock(ctx context.Context, sellerID, productID uuid.UUID, input AdjustStockInput) (*ProductDTO, error)
	ListStockHistory(ctx context.Context, sellerID, productID uuid.UUID, limit int) ([]InventoryLogDTO, error)
}

// CreateProductInput holds the validated payload to create a listing.
type CreateProductInput struct {
	SKU            string
	Title          string
	Description    *string
	Category       enums.ProductCategory
	PriceCents     int64
	SalePriceCents *int64
	Stock          int
	IsActive       bool
}

// UpdateProductInput holds optional mutation values for a listing.
// Stock is deliberately absent: stock only moves through AdjustStock or orders.
type UpdateProductInput struct {
	SKU         *string
	Title       *string
	Description *string
	Category    *enums.ProductCategory
	PriceCents  *int64
	// A zero SalePriceCents ends the sale; any other value starts one.
	SalePriceCents *int64
	IsActive       *bool
}

// AdjustStockInput captures a manual stock movement by the seller.
type AdjustStockInput struct {
	Delta       int
	Reason      enums.InventoryChangeReason
	PerformedBy uuid.UUID
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// service implements the product service.
type service struct {
	repo              *Repository
	dbClient          *db.Client
	events            eventEmitter
	lowStockThreshold int
}

// NewService constructs a product service instance.
func NewService(repo *Repository, dbClient *db.Client, events eventEmitter, lowStockThreshold int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if lowStockThreshold < 0 {
		return nil, fmt.Errorf("low stock threshold must be non-negative")
	}
	return &service{
		repo:              repo,
		dbClient:          dbClient,
		events:            events,
		lowStockThreshold: lowStockThreshold,
	}, nil
}

// CreateProduct creates the listing under the seller's storefront.
func (s *service) CreateProduct(ctx context.Context, sellerID uuid.UUID, input CreateProductInput) (*ProductDTO, error) {
	sku := strings.TrimSpace(input.SKU)
	if sku == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	if input.PriceCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price_cents must be positive")
	}
	if input.SalePriceCents != nil && (*input.SalePriceCents <= 0 || *input.SalePriceCents >= input.PriceCents) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale_price_cents must be positive and below price_cents")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must be non-negative")
	}

	var createdID uuid.UUID
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		product := &models.Product{
			SellerID:       sellerID,
			SKU:            sku,
			Title:          title,
			Description:    input.Description,
			Category:       input.Category,
			PriceCents:     input.PriceCents,
			SalePriceCents: input.SalePriceCents,
			Stock:          input.Stock,
			IsActive:       input.IsActive,
		}
		created, err := txRepo.CreateProduct(ctx, product)
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "sku already in use")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
		}
		createdID = created.ID

		if input.Stock > 0 {
			log := &models.InventoryLog{
				ProductID:   created.ID,
				SellerID:    sellerID,
				Delta:       input.Stock,
				StockAfter:  input.Stock,
				Reason:      enums.InventoryReasonRestock,
				PerformedBy: &sellerID,
			}
			if err := txRepo.InsertInventoryLog(ctx, log); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert inventory log")
			}
		}
		return nil
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}

	product, summary, err := s.repo.GetProductDetail(ctx, createdID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product detail")
	}
	return NewProductDTO(product, summary), nil
}

// UpdateProduct mutates listing fields owned by the seller.
func (s *service) UpdateProduct(ctx context.Context, sellerID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.loadOwnedProduct(ctx, sellerID, productID)
	if err != nil {
		return nil, err
	}

	if input.Category != nil && !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	if input.PriceCents != nil && *input.PriceCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price_cents must be positive")
	}
	if input.SalePriceCents != nil && *input.SalePriceCents != 0 {
		regular := product.PriceCents
		if input.PriceCents != nil {
			regular = *input.PriceCents
		}
		if *input.SalePriceCents < 0 || *input.SalePriceCents >= regular {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale_price_cents must be positive and below price_cents")
		}
	}

	wasActive := product.IsActive
	applyUpdateToProduct(product, input)

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := txRepo.UpdateProduct(ctx, product); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "sku already in use")
			}
			return err
		}
		if wasActive && !product.IsActive {
			return s.emitUnlisted(ctx, tx, product)
		}
		return nil
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}

	updated, summary, err := s.repo.GetProductDetail(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product detail")
	}
	return NewProductDTO(updated, summary), nil
}

// UnlistProduct deactivates the listing so buyers can no longer see or order it.
// Rows are never deleted: order items keep their snapshots and history stays intact.
func (s *service) UnlistProduct(ctx context.Context, sellerID, productID uuid.UUID) error {
	product, err := s.loadOwnedProduct(ctx, sellerID, productID)
	if err != nil {
		return err
	}
	if !product.IsActive {
		return nil
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.SetActive(ctx, productID, false); err != nil {
			return err
		}
		return s.emitUnlisted(ctx, tx, product)
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unlist product")
	}
	return nil
}

// GetProduct returns the listing detail with its seller summary.
func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, summary, err := s.repo.GetProductDetail(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product detail")
	}
	return NewProductDTO(product, summary), nil
}

// ListProducts pages through the catalog or a single seller's listings.
func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	return s.repo.ListProductSummaries(ctx, productListQuery{
		Pagination: input.Pagination,
		Filters:    input.Filters,
		SellerID:   input.SellerID,
		SellerSlug: strings.TrimSpace(input.SellerSlug),
	})
}

// AdjustStock applies a manual stock movement and records the inventory log row.
// A movement that would take stock below zero is rejected outright.
func (s *service) AdjustStock(ctx context.Context, sellerID, productID uuid.UUID, input AdjustStockInput) (*ProductDTO, error) {
	if input.Delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delta must be non-zero")
	}
	reason := input.Reason
	if reason == "" {
		reason = enums.InventoryReasonManualAdjust
	}
	if !reason.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid inventory reason")
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		product, err := txRepo.FindByID(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if product.SellerID != sellerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "product does not belong to seller")
		}
		before := product.Stock

		updated, err := txRepo.AdjustStockBy(ctx, productID, input.Delta)
		if err != nil {
			if errors.Is(err, ErrInsufficientStock) {
				return pkgerrors.New(pkgerrors.CodeOutOfStock,
					fmt.Sprintf("adjustment would take stock below zero (current %d, delta %d)", before, input.Delta))
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: adjust stock")
		}
		newStock := updated.Stock

		performedBy := input.PerformedBy
		log := &models.InventoryLog{
			ProductID:   productID,
			SellerID:    sellerID,
			Delta:       input.Delta,
			StockAfter:  newStock,
			Reason:      reason,
			PerformedBy: &performedBy,
		}
		if err := txRepo.InsertInventoryLog(ctx, log); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert inventory log")
		}

		if crossedLowStock(before, newStock, s.lowStockThreshold) {
			event := outbox.DomainEvent{
				EventType:     enums.EventLowStock,
				AggregateType: enums.AggregateProduct,
				AggregateID:   productID,
				Data: payloads.LowStockEvent{
					ProductID: productID,
					SellerID:  sellerID,
					Stock:     newStock,
					Threshold: s.lowStockThreshold,
				},
			}
			if err := s.events.Emit(ctx, tx, event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit low stock event")
			}
		}
		return nil
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust stock")
	}

	product, summary, err := s.repo.GetProductDetail(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product detail")
	}
	return NewProductDTO(product, summary), nil
}

// ListStockHistory returns recent inventory movements for a seller-owned product.
func (s *service) ListStockHistory(ctx context.Context, sellerID, productID uuid.UUID, limit int) ([]InventoryLogDTO, error) {
	if _, err := s.loadOwnedProduct(ctx, sellerID, productID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListInventoryLogs(ctx, productID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory logs")
	}
	out := make([]InventoryLogDTO, 0, len(rows))
	for i := range rows {
		out = append(out, NewInventoryLogDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) loadOwnedProduct(ctx context.Context, sellerID, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.SellerID != sellerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product does not belong to seller")
	}
	return product, nil
}

func (s *service) emitUnlisted(ctx context.Context, tx *gorm.DB, product *models.Product) error {
	return s.events.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventProductUnlisted,
		AggregateType: enums.AggregateProduct,
		AggregateID:   product.ID,
		Data: payloads.ProductUnlistedEvent{
			ProductID: product.ID,
			SellerID:  product.SellerID,
		},
	})
}

// crossedLowStock reports whether the movement took stock from above to at-or-below the threshold.
func crossedLowStock(before, after, threshold int) bool {
	return before > threshold && after <= threshold
}

func applyUpdateToProduct(product *models.Product, input UpdateProductInput) {
	if input.SKU != nil {
		product.SKU = strings.TrimSpace(*input.SKU)
	}
	if input.Title != nil {
		product.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.PriceCents != nil {
		product.PriceCents = *input.PriceCents
	}
	if input.SalePriceCents != nil {
		if *input.SalePriceCents == 0 {
			product.SalePriceCents = nil
		} else {
			product.SalePriceCents = input.SalePriceCents
		}
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
}
