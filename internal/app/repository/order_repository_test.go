package repository

import (
	"testing"

	"github.com/ikkim/orders-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type orderFixture struct {
	db     *gorm.DB
	repo   OrderRepository
	buyer  *model.User
	owners []*model.User
	shops  []*model.Shop
	offers []*model.ProductInfo
}

// setupOrderTest creates a buyer and two shops with one offer each.
func setupOrderTest(t *testing.T) *orderFixture {
	testDB := setupRepoTest(t)
	f := &orderFixture{db: testDB, repo: NewOrderRepository(testDB)}
	f.buyer = newUser(t, testDB, "buyer@example.com", model.UserTypeBuyer)

	category := model.Category{ID: 224, Name: "Smartphones"}
	require.NoError(t, testDB.Create(&category).Error)
	product := model.Product{Name: "Phone", CategoryID: category.ID}
	require.NoError(t, testDB.Create(&product).Error)

	for i, email := range []string{"shop1@example.com", "shop2@example.com"} {
		owner := newUser(t, testDB, email, model.UserTypeShop)
		shop := &model.Shop{Name: email, UserID: &owner.ID, State: true}
		require.NoError(t, testDB.Create(shop).Error)
		offer := &model.ProductInfo{
			ExternalID: uint(100 + i),
			ProductID:  product.ID,
			ShopID:     shop.ID,
			Quantity:   10,
			Price:      1000 * (i + 1),
			PriceRRC:   1500 * (i + 1),
		}
		require.NoError(t, testDB.Omit("Product", "Shop", "ProductParameters").Create(offer).Error)

		f.owners = append(f.owners, owner)
		f.shops = append(f.shops, shop)
		f.offers = append(f.offers, offer)
	}
	return f
}

func (f *orderFixture) basketWithItems(t *testing.T, quantities ...int) *model.Order {
	t.Helper()
	basket, err := f.repo.CreateBasket(f.buyer.ID)
	require.NoError(t, err)
	for i, qty := range quantities {
		require.NoError(t, f.repo.AddItem(&model.OrderItem{
			OrderID:       basket.ID,
			ProductInfoID: f.offers[i].ID,
			Quantity:      qty,
		}))
	}
	return basket
}

func (f *orderFixture) place(t *testing.T, basket *model.Order) {
	t.Helper()
	contact := &model.Contact{UserID: f.buyer.ID, City: "Moscow", Street: "Arbat", Phone: "1"}
	require.NoError(t, NewContactRepository(f.db).Create(contact))
	rows, err := f.repo.PlaceBasket(basket.ID, f.buyer.ID, contact.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), rows)
}

func TestOrderRepository_Basket(t *testing.T) {
	f := setupOrderTest(t)

	_, err := f.repo.FindBasket(f.buyer.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	basket := f.basketWithItems(t, 2, 1)

	found, err := f.repo.FindBasket(f.buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, basket.ID, found.ID)
	assert.Equal(t, model.OrderStateBasket, found.State)

	baskets, err := f.repo.FindBasketsWithItems(f.buyer.ID)
	require.NoError(t, err)
	require.Len(t, baskets, 1)
	assert.Len(t, baskets[0].OrderedItems, 2)
	assert.Equal(t, 2*1000+1*2000, baskets[0].TotalSum)
	assert.Equal(t, "Smartphones", baskets[0].OrderedItems[0].ProductInfo.Product.Category.Name)
}

func TestOrderRepository_AddItemDuplicate(t *testing.T) {
	f := setupOrderTest(t)
	basket := f.basketWithItems(t, 1)

	err := f.repo.AddItem(&model.OrderItem{OrderID: basket.ID, ProductInfoID: f.offers[0].ID, Quantity: 3})
	assert.Error(t, err, "same offer twice in one order")
}

func TestOrderRepository_UpdateAndDeleteItems(t *testing.T) {
	f := setupOrderTest(t)
	basket := f.basketWithItems(t, 1, 1)

	baskets, err := f.repo.FindBasketsWithItems(f.buyer.ID)
	require.NoError(t, err)
	items := baskets[0].OrderedItems

	tests := []struct {
		name     string
		orderID  uint
		itemID   uint
		quantity int
		wantRows int64
	}{
		{"Own item", basket.ID, items[0].ID, 5, 1},
		{"Wrong order", basket.ID + 100, items[0].ID, 7, 0},
		{"Unknown item", basket.ID, 9999, 7, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := f.repo.UpdateItemQuantity(tt.orderID, tt.itemID, tt.quantity)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRows, rows)
		})
	}

	rows, err := f.repo.DeleteItems(basket.ID, []uint{items[1].ID, 9999})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	baskets, err = f.repo.FindBasketsWithItems(f.buyer.ID)
	require.NoError(t, err)
	require.Len(t, baskets[0].OrderedItems, 1)
	assert.Equal(t, 5, baskets[0].OrderedItems[0].Quantity)
	assert.Equal(t, 5000, baskets[0].TotalSum)
}

func TestOrderRepository_PlaceBasket(t *testing.T) {
	f := setupOrderTest(t)
	basket := f.basketWithItems(t, 1, 2)

	contact := &model.Contact{UserID: f.buyer.ID, City: "Moscow", Street: "Arbat", Phone: "1"}
	require.NoError(t, NewContactRepository(f.db).Create(contact))

	other := newUser(t, f.db, "other@example.com", model.UserTypeBuyer)
	rows, err := f.repo.PlaceBasket(basket.ID, other.ID, contact.ID)
	require.NoError(t, err)
	assert.Zero(t, rows, "basket of another user")

	rows, err = f.repo.PlaceBasket(basket.ID, f.buyer.ID, contact.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	rows, err = f.repo.PlaceBasket(basket.ID, f.buyer.ID, contact.ID)
	require.NoError(t, err)
	assert.Zero(t, rows, "already placed")

	_, err = f.repo.FindBasket(f.buyer.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	order, err := f.repo.FindByID(basket.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStateNew, order.State)
	require.NotNil(t, order.Contact)
	assert.Equal(t, "Moscow", order.Contact.City)
	assert.Equal(t, f.buyer.Email, order.User.Email)
	assert.Equal(t, 1000+2*2000, order.TotalSum)

	orders, err := f.repo.FindByUserID(f.buyer.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)

	// a fresh basket may be opened after placing
	_, err = f.repo.CreateBasket(f.buyer.ID)
	assert.NoError(t, err)
	orders, err = f.repo.FindByUserID(f.buyer.ID)
	require.NoError(t, err)
	assert.Len(t, orders, 1, "baskets are not listed as orders")
}

func TestOrderRepository_FindByShopID(t *testing.T) {
	f := setupOrderTest(t)
	basket := f.basketWithItems(t, 3, 1)
	f.place(t, basket)

	orders, err := f.repo.FindByShopID(f.shops[0].ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Len(t, orders[0].OrderedItems, 1)
	assert.Equal(t, f.offers[0].ID, orders[0].OrderedItems[0].ProductInfo.ID)
	assert.Equal(t, 3000, orders[0].TotalSum)

	ok, err := f.repo.ContainsShopItems(basket.ID, f.shops[1].ID)
	require.NoError(t, err)
	assert.True(t, ok)

	third := &model.Shop{Name: "Empty", State: true}
	require.NoError(t, f.db.Create(third).Error)
	ok, err = f.repo.ContainsShopItems(basket.ID, third.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	owners, err := f.repo.ShopOwnerIDs(basket.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{f.owners[0].ID, f.owners[1].ID}, owners)
}

func TestOrderRepository_UpdateState(t *testing.T) {
	f := setupOrderTest(t)
	basket := f.basketWithItems(t, 1)
	f.place(t, basket)

	rows, err := f.repo.UpdateState(basket.ID, model.OrderStateConfirmed, model.OrderStateAssembled)
	require.NoError(t, err)
	assert.Zero(t, rows, "stale from state")

	rows, err = f.repo.UpdateState(basket.ID, model.OrderStateNew, model.OrderStateConfirmed)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	order, err := f.repo.FindByID(basket.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStateConfirmed, order.State)
}
