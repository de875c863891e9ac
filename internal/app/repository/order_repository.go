package repository

import (
	"errors"

	"github.com/ikkim/orders-backend/internal/app/model"
	"github.com/ikkim/orders-backend/pkg/logger"
	"gorm.io/gorm"
)

type OrderRepository interface {
	FindBasket(userID uint) (*model.Order, error)
	CreateBasket(userID uint) (*model.Order, error)
	FindBasketsWithItems(userID uint) ([]model.Order, error)
	AddItem(item *model.OrderItem) error
	UpdateItemQuantity(orderID, itemID uint, quantity int) (int64, error)
	DeleteItems(orderID uint, itemIDs []uint) (int64, error)

	PlaceBasket(orderID, userID, contactID uint) (int64, error)
	FindByID(id uint) (*model.Order, error)
	FindByUserID(userID uint) ([]model.Order, error)
	FindByShopID(shopID uint) ([]model.Order, error)
	ContainsShopItems(orderID, shopID uint) (bool, error)
	UpdateState(id uint, from, to model.OrderState) (int64, error)
	ShopOwnerIDs(orderID uint) ([]uint, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) preloadOrder() *gorm.DB {
	return r.db.Preload("OrderedItems", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_items.id").
			Preload("ProductInfo.Product.Category").
			Preload("ProductInfo.Shop").
			Preload("ProductInfo.ProductParameters.Parameter")
	}).Preload("Contact")
}

func (r *orderRepository) FindBasket(userID uint) (*model.Order, error) {
	var order model.Order
	err := r.db.Where("user_id = ? AND state = ?", userID, model.OrderStateBasket).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) CreateBasket(userID uint) (*model.Order, error) {
	logger.Debug("Creating basket in database", map[string]interface{}{
		"user_id": userID,
	})

	order := model.Order{UserID: userID, State: model.OrderStateBasket}
	if err := r.db.Omit("Contact", "User", "OrderedItems").Create(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindBasketsWithItems(userID uint) ([]model.Order, error) {
	orders := []model.Order{}
	err := r.preloadOrder().
		Where("user_id = ? AND state = ?", userID, model.OrderStateBasket).
		Find(&orders).Error
	if err != nil {
		logger.Error("Failed to find basket in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return withTotals(orders), nil
}

func (r *orderRepository) AddItem(item *model.OrderItem) error {
	logger.Debug("Adding order item in database", map[string]interface{}{
		"order_id":        item.OrderID,
		"product_info_id": item.ProductInfoID,
		"quantity":        item.Quantity,
	})

	if err := r.db.Omit("ProductInfo").Create(item).Error; err != nil {
		logger.Warn("Failed to add order item in database", map[string]interface{}{
			"order_id":        item.OrderID,
			"product_info_id": item.ProductInfoID,
			"error":           err.Error(),
		})
		return err
	}
	return nil
}

func (r *orderRepository) UpdateItemQuantity(orderID, itemID uint, quantity int) (int64, error) {
	result := r.db.Model(&model.OrderItem{}).
		Where("order_id = ? AND id = ?", orderID, itemID).
		Update("quantity", quantity)
	return result.RowsAffected, result.Error
}

func (r *orderRepository) DeleteItems(orderID uint, itemIDs []uint) (int64, error) {
	result := r.db.Where("order_id = ? AND id IN ?", orderID, itemIDs).Delete(&model.OrderItem{})
	if result.Error != nil {
		logger.Error("Failed to delete order items in database", result.Error, map[string]interface{}{
			"order_id": orderID,
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// PlaceBasket turns the user's basket into a new order in one conditional
// update. Zero rows affected means the id is not the user's basket.
func (r *orderRepository) PlaceBasket(orderID, userID, contactID uint) (int64, error) {
	logger.Debug("Placing basket in database", map[string]interface{}{
		"order_id":   orderID,
		"user_id":    userID,
		"contact_id": contactID,
	})

	result := r.db.Model(&model.Order{}).
		Where("id = ? AND user_id = ? AND state = ?", orderID, userID, model.OrderStateBasket).
		Updates(map[string]interface{}{
			"state":      model.OrderStateNew,
			"contact_id": contactID,
		})
	if result.Error != nil {
		logger.Error("Failed to place basket in database", result.Error, map[string]interface{}{
			"order_id": orderID,
		})
	}
	return result.RowsAffected, result.Error
}

func (r *orderRepository) FindByID(id uint) (*model.Order, error) {
	var order model.Order
	if err := r.preloadOrder().Preload("User").First(&order, id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to find order by ID in database", err, map[string]interface{}{
				"order_id": id,
			})
		}
		return nil, err
	}
	order.CalculateTotal()
	return &order, nil
}

// FindByUserID lists placed orders, newest first.
func (r *orderRepository) FindByUserID(userID uint) ([]model.Order, error) {
	orders := []model.Order{}
	err := r.preloadOrder().
		Where("user_id = ? AND state <> ?", userID, model.OrderStateBasket).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	if err != nil {
		logger.Error("Failed to find orders by user in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return withTotals(orders), nil
}

// FindByShopID lists placed orders that contain the shop's offers. Only the
// shop's own items are kept on each order and the total covers them.
func (r *orderRepository) FindByShopID(shopID uint) ([]model.Order, error) {
	logger.Debug("Finding orders by shop in database", map[string]interface{}{
		"shop_id": shopID,
	})

	orderIDs := r.db.Model(&model.OrderItem{}).
		Select("order_items.order_id").
		Joins("JOIN product_infos ON product_infos.id = order_items.product_info_id").
		Where("product_infos.shop_id = ?", shopID)

	orders := []model.Order{}
	err := r.preloadOrder().
		Where("id IN (?) AND state <> ?", orderIDs, model.OrderStateBasket).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	if err != nil {
		logger.Error("Failed to find orders by shop in database", err, map[string]interface{}{
			"shop_id": shopID,
		})
		return nil, err
	}

	for i := range orders {
		items := orders[i].OrderedItems[:0]
		for _, item := range orders[i].OrderedItems {
			if item.ProductInfo.ShopID == shopID {
				items = append(items, item)
			}
		}
		orders[i].OrderedItems = items
	}
	return withTotals(orders), nil
}

func (r *orderRepository) ContainsShopItems(orderID, shopID uint) (bool, error) {
	var count int64
	err := r.db.Model(&model.OrderItem{}).
		Joins("JOIN product_infos ON product_infos.id = order_items.product_info_id").
		Where("order_items.order_id = ? AND product_infos.shop_id = ?", orderID, shopID).
		Count(&count).Error
	return count > 0, err
}

// UpdateState moves the order only if it is still in from.
func (r *orderRepository) UpdateState(id uint, from, to model.OrderState) (int64, error) {
	result := r.db.Model(&model.Order{}).
		Where("id = ? AND state = ?", id, from).
		Update("state", to)
	if result.Error != nil {
		logger.Error("Failed to update order state in database", result.Error, map[string]interface{}{
			"order_id": id,
			"state":    to,
		})
	}
	return result.RowsAffected, result.Error
}

// ShopOwnerIDs returns the users owning shops whose offers are in the order.
func (r *orderRepository) ShopOwnerIDs(orderID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&model.OrderItem{}).
		Distinct("shops.user_id").
		Joins("JOIN product_infos ON product_infos.id = order_items.product_info_id").
		Joins("JOIN shops ON shops.id = product_infos.shop_id").
		Where("order_items.order_id = ? AND shops.user_id IS NOT NULL", orderID).
		Pluck("shops.user_id", &ids).Error
	return ids, err
}

func withTotals(orders []model.Order) []model.Order {
	for i := range orders {
		if orders[i].OrderedItems == nil {
			orders[i].OrderedItems = []model.OrderItem{}
		}
		orders[i].CalculateTotal()
	}
	return orders
}
