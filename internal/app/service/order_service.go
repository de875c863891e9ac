package service

import (
	"errors"

	"github.com/ikkim/orders-backend/internal/app/model"
	"github.com/ikkim/orders-backend/internal/app/repository"
	"github.com/ikkim/orders-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound          = errors.New("order not found")
	ErrInvalidStateTransition = errors.New("invalid order state transition")
)

// PlaceResult reports a checkout. The order is placed even when the
// notification could not be queued.
type PlaceResult struct {
	Order              *model.Order
	NotificationFailed bool
}

type OrderService interface {
	List(principal model.Principal) ([]model.Order, error)
	Place(principal model.Principal, orderID, contactID uint) (*PlaceResult, error)
}

type orderService struct {
	orderRepo     repository.OrderRepository
	contactRepo   repository.ContactRepository
	notifications NotificationService
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	contactRepo repository.ContactRepository,
	notifications NotificationService,
) OrderService {
	return &orderService{
		orderRepo:     orderRepo,
		contactRepo:   contactRepo,
		notifications: notifications,
	}
}

func (s *orderService) List(principal model.Principal) ([]model.Order, error) {
	return s.orderRepo.FindByUserID(principal.UserID)
}

func (s *orderService) Place(principal model.Principal, orderID, contactID uint) (*PlaceResult, error) {
	logger.Info("Placing order", map[string]interface{}{
		"user_id":    principal.UserID,
		"order_id":   orderID,
		"contact_id": contactID,
	})

	if _, err := s.contactRepo.FindByIDAndUser(contactID, principal.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Checkout with a foreign contact", map[string]interface{}{
				"user_id":    principal.UserID,
				"contact_id": contactID,
			})
			return nil, ErrContactNotFound
		}
		return nil, err
	}

	rows, err := s.orderRepo.PlaceBasket(orderID, principal.UserID, contactID)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		logger.Warn("Checkout rejected: not the caller's basket", map[string]interface{}{
			"user_id":  principal.UserID,
			"order_id": orderID,
		})
		return nil, ErrOrderNotFound
	}

	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		return nil, err
	}

	result := &PlaceResult{Order: order}
	if err := s.notifyPlaced(order); err != nil {
		logger.Error("Failed to queue order notification", err, map[string]interface{}{
			"order_id": orderID,
		})
		result.NotificationFailed = true
	}

	logger.Info("Order placed successfully", map[string]interface{}{
		"user_id":   principal.UserID,
		"order_id":  orderID,
		"total_sum": order.TotalSum,
	})
	return result, nil
}

func (s *orderService) notifyPlaced(order *model.Order) error {
	owners, err := s.orderRepo.ShopOwnerIDs(order.ID)
	if err != nil {
		return err
	}
	return s.notifications.NotifyOrderPlaced(order, &order.User, owners)
}
