package products

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdelacruz/tradepost-backend/pkg/enums"
	"github.com/jdelacruz/tradepost-backend/pkg/pagination"
)

func TestAdjustStockByGuardsNonNegative(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()

	seller := mustCreateTestSeller(t, conn)
	product := mustCreateTestProduct(t, conn, seller.ID, 5)

	repo := NewRepository(conn)

	updated, err := repo.AdjustStockBy(ctx, product.ID, -3)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Stock)

	_, err = repo.AdjustStockBy(ctx, product.ID, -3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientStock))

	// Stock must be untouched after the rejected movement.
	reloaded, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Stock)
}

func TestListProductSummariesFiltersAndPages(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()

	seller := mustCreateTestSeller(t, conn)
	other := mustCreateTestSeller(t, conn)

	var productIDs []string
	for i := 0; i < 3; i++ {
		p := mustCreateTestProduct(t, conn, seller.ID, 10)
		productIDs = append(productIDs, p.ID.String())
	}
	inactive := mustCreateTestProduct(t, conn, seller.ID, 10)
	require.NoError(t, conn.Model(inactive).UpdateColumn("is_active", false).Error)
	mustCreateTestProduct(t, conn, other.ID, 0)

	repo := NewRepository(conn)

	// Buyer view: only active listings, filtered to one storefront.
	page, err := repo.ListProductSummaries(ctx, productListQuery{
		Pagination: pagination.Params{Limit: 2},
		SellerSlug: seller.Slug,
	})
	require.NoError(t, err)
	require.Len(t, page.Products, 2)
	require.NotEmpty(t, page.NextCursor)

	rest, err := repo.ListProductSummaries(ctx, productListQuery{
		Pagination: pagination.Params{Limit: 2, Cursor: page.NextCursor},
		SellerSlug: seller.Slug,
	})
	require.NoError(t, err)
	require.Len(t, rest.Products, 1)
	assert.Empty(t, rest.NextCursor)

	seen := map[string]bool{}
	for _, row := range append(page.Products, rest.Products...) {
		seen[row.ID.String()] = true
		assert.True(t, row.IsActive)
		assert.Equal(t, seller.ID, row.SellerID)
	}
	for _, id := range productIDs {
		assert.True(t, seen[id], "expected product %s in buyer view", id)
	}
	assert.False(t, seen[inactive.ID.String()], "inactive listing must be hidden from buyers")

	// Seller view includes inactive rows.
	sellerID := seller.ID
	own, err := repo.ListProductSummaries(ctx, productListQuery{
		Pagination: pagination.Params{Limit: 10},
		SellerID:   &sellerID,
	})
	require.NoError(t, err)
	assert.Len(t, own.Products, 4)

	// In-stock filter hides the zero-stock listing.
	inStock, err := repo.ListProductSummaries(ctx, productListQuery{
		Pagination: pagination.Params{Limit: 10},
		Filters:    ProductListFilters{InStockOnly: true},
	})
	require.NoError(t, err)
	for _, row := range inStock.Products {
		assert.Greater(t, row.Stock, 0)
	}

	// Category filter.
	category := enums.CategoryBooks
	none, err := repo.ListProductSummaries(ctx, productListQuery{
		Pagination: pagination.Params{Limit: 10},
		Filters:    ProductListFilters{Category: &category},
		SellerID:   &sellerID,
	})
	require.NoError(t, err)
	assert.Empty(t, none.Products)
}
