package products

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jdelacruz/tradepost-backend/pkg/db/models"
	"github.com/jdelacruz/tradepost-backend/pkg/enums"
)

func mustCreateTestSeller(t *testing.T, tx *gorm.DB) *models.Seller {
	t.Helper()
	seller := &models.Seller{
		ID:       uuid.New(),
		Name:     "Repo Shop",
		Slug:     fmt.Sprintf("repo-shop-%s", uuid.NewString()),
		IsActive: true,
	}
	if err := tx.Create(seller).Error; err != nil {
		t.Fatalf("create seller: %v", err)
	}
	return seller
}

func mustCreateTestProduct(t *testing.T, tx *gorm.DB, sellerID uuid.UUID, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:         uuid.New(),
		SellerID:   sellerID,
		SKU:        fmt.Sprintf("SKU-%s", uuid.NewString()),
		Title:      "Test Product",
		Category:   enums.CategoryHome,
		PriceCents: 1000,
		Stock:      stock,
		IsActive:   true,
	}
	if err := tx.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}
