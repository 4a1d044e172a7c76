package wishlist

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jdelacruz/tradepost-backend/pkg/db/models"
	pkgerrors "github.com/jdelacruz/tradepost-backend/pkg/errors"
)

// productLoader fetches the product a buyer wants to save.
type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// ServiceParams groups dependencies for the wishlist service.
type ServiceParams struct {
	Repo     *Repository
	Products productLoader
}

// Service exposes business rules for wishlist management.
type Service interface {
	GetWishlist(ctx context.Context, buyerID uuid.UUID, cursor string, limit int) (WishlistPageDTO, error)
	GetWishlistIDs(ctx context.Context, buyerID uuid.UUID) ([]uuid.UUID, error)
	AddItem(ctx context.Context, buyerID, productID uuid.UUID) error
	RemoveItem(ctx context.Context, buyerID, productID uuid.UUID) error
}

type service struct {
	repo     *Repository
	products productLoader
}

// NewService builds a wishlist service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "wishlist repo is required")
	}
	if params.Products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "product loader is required")
	}
	return &service{repo: params.Repo, products: params.Products}, nil
}

func (s *service) GetWishlist(ctx context.Context, buyerID uuid.UUID, cursor string, limit int) (WishlistPageDTO, error) {
	if buyerID == uuid.Nil {
		return WishlistPageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	page, err := s.repo.ListItems(ctx, buyerID, cursor, limit)
	if err != nil {
		return WishlistPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist")
	}
	return page, nil
}

func (s *service) GetWishlistIDs(ctx context.Context, buyerID uuid.UUID) ([]uuid.UUID, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	ids, err := s.repo.ListItemIDs(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist ids")
	}
	return ids, nil
}

// AddItem ensures the product exists before saving it. Duplicates are a no-op.
func (s *service) AddItem(ctx context.Context, buyerID, productID uuid.UUID) error {
	if buyerID == uuid.Nil || productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "buyer id and product id required")
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if err := s.repo.AddItem(ctx, buyerID, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save wishlist item")
	}
	return nil
}

// RemoveItem drops the wishlist entry regardless of prior state.
func (s *service) RemoveItem(ctx context.Context, buyerID, productID uuid.UUID) error {
	if buyerID == uuid.Nil || productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "buyer id and product id required")
	}
	if err := s.repo.RemoveItem(ctx, buyerID, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove wishlist item")
	}
	return nil
}
