package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jdelacruz/tradepost-backend/pkg/db/models"
	pkgerrors "github.com/jdelacruz/tradepost-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes buyer cart operations.
type Service interface {
	GetActiveCart(ctx context.Context, buyerID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, buyerID uuid.UUID, input AddItemInput) (*CartDTO, error)
	UpdateItem(ctx context.Context, buyerID, productID uuid.UUID, input UpdateItemInput) (*CartDTO, error)
	RemoveItem(ctx context.Context, buyerID, productID uuid.UUID) (*CartDTO, error)
	ClearCart(ctx context.Context, buyerID uuid.UUID) error
	ConvertCart(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) error
}

// AddItemInput adds a product line to the active cart.
type AddItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// UpdateItemInput mutates quantity and/or checkout selection for a line.
type UpdateItemInput struct {
	Quantity *int
	Selected *bool
}

type service struct {
	repo     CartRepository
	tx       txRunner
	products productLoader
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, tx: tx, products: products}, nil
}

// GetActiveCart returns the buyer's active cart, creating an empty one if needed.
func (s *service) GetActiveCart(ctx context.Context, buyerID uuid.UUID) (*CartDTO, error) {
	record, err := s.loadOrCreateCart(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	return NewCartDTO(record), nil
}

// AddItem appends a product line or increments an existing one.
func (s *service) AddItem(ctx context.Context, buyerID uuid.UUID, input AddItemInput) (*CartDTO, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := s.products.FindByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}

	record, err := s.loadOrCreateCart(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		existing, err := txRepo.FindItem(ctx, record.ID, product.ID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
			}
			item := &models.CartItem{
				CartID:         record.ID,
				ProductID:      product.ID,
				SellerID:       product.SellerID,
				Quantity:       input.Quantity,
				UnitPriceCents: product.EffectivePriceCents(),
				Selected:       true,
			}
			if err := txRepo.CreateItem(ctx, item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert cart item")
			}
			return nil
		}

		existing.Quantity += input.Quantity
		existing.UnitPriceCents = product.EffectivePriceCents()
		if err := txRepo.SaveItem(ctx, existing); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
		return nil
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
	}

	return s.GetActiveCart(ctx, buyerID)
}

// UpdateItem sets quantity and/or selection on an existing line.
func (s *service) UpdateItem(ctx context.Context, buyerID, productID uuid.UUID, input UpdateItemInput) (*CartDTO, error) {
	if input.Quantity == nil && input.Selected == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}
	if input.Quantity != nil && *input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	record, err := s.loadCart(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindItem(ctx, record.ID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}

	if input.Quantity != nil {
		item.Quantity = *input.Quantity
	}
	if input.Selected != nil {
		item.Selected = *input.Selected
	}
	if err := s.repo.SaveItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}

	return s.GetActiveCart(ctx, buyerID)
}

// RemoveItem deletes a line from the active cart.
func (s *service) RemoveItem(ctx context.Context, buyerID, productID uuid.UUID) (*CartDTO, error) {
	record, err := s.loadCart(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteItem(ctx, record.ID, productID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
	}
	return s.GetActiveCart(ctx, buyerID)
}

// ClearCart empties the buyer's active cart.
func (s *service) ClearCart(ctx context.Context, buyerID uuid.UUID) error {
	record, err := s.loadCart(ctx, buyerID)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return nil
		}
		return err
	}
	if err := s.repo.DeleteItems(ctx, record.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

// ConvertCart marks the cart converted and drops its selected lines. It runs
// inside the caller's transaction so a failed checkout leaves the cart intact.
func (s *service) ConvertCart(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for cart conversion")
	}
	repo := s.repo.WithTx(tx)
	if err := repo.DeleteSelectedItems(ctx, cartID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove converted cart lines")
	}
	if err := repo.MarkConverted(ctx, cartID, time.Now()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark cart converted")
	}
	return nil
}

func (s *service) loadCart(ctx context.Context, buyerID uuid.UUID) (*models.CartRecord, error) {
	record, err := s.repo.FindActiveByBuyer(ctx, buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active cart")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return record, nil
}

func (s *service) loadOrCreateCart(ctx context.Context, buyerID uuid.UUID) (*models.CartRecord, error) {
	record, err := s.repo.FindActiveByBuyer(ctx, buyerID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	created, err := s.repo.Create(ctx, &models.CartRecord{BuyerID: buyerID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return created, nil
}
