package service

import (
	"testing"

	"github.com/ikkim/orders-backend/internal/app/model"
	"github.com/ikkim/orders-backend/internal/app/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampPage(t *testing.T) {
	tests := []struct {
		name                  string
		limit, offset         int
		wantLimit, wantOffset int
	}{
		{"defaults", 0, 0, DefaultPageLimit, 0},
		{"within range", 10, 20, 10, 20},
		{"limit capped", 1000, 0, MaxPageLimit, 0},
		{"negative offset", 5, -3, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, offset := ClampPage(tt.limit, tt.offset)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestCatalogService(t *testing.T) {
	testDB := setupTestDB(t)
	svc := NewCatalogService(repository.NewCatalogRepository(testDB), repository.NewShopRepository(testDB))

	open := createUser(t, testDB, "open@example.com", model.UserTypeShop)
	closed := createUser(t, testDB, "closed@example.com", model.UserTypeShop)
	openOffer := createOffer(t, testDB, open, "Phone A", 100)
	closedOffer := createOffer(t, testDB, closed, "Phone B", 200)
	require.NoError(t, testDB.Model(&model.Shop{}).Where("id = ?", closedOffer.ShopID).Update("state", false).Error)

	shops, err := svc.ListShops(0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, shops.Count)
	require.Len(t, shops.Results, 1)
	assert.Equal(t, openOffer.ShopID, shops.Results[0].ID)

	categories, err := svc.ListCategories(1, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, categories.Count)

	products, err := svc.ListProducts(repository.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, products, 1, "offers of closed shops are hidden")
	assert.Equal(t, "Phone A", products[0].Product.Name)
	assert.Equal(t, "Phones", products[0].Product.Category.Name)

	products, err = svc.ListProducts(repository.ProductFilter{ShopID: closedOffer.ShopID})
	require.NoError(t, err)
	assert.Empty(t, products)
}
