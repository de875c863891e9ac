package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ikkim/orders-backend/internal/app/model"
	"github.com/ikkim/orders-backend/internal/app/repository"
	"github.com/ikkim/orders-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

var (
	ErrShopNotFound = errors.New("shop not found")
	ErrSharedOrder  = errors.New("order contains items of other shops")
)

const exportSheet = "Orders"

type PartnerService interface {
	GetState(principal model.Principal) (*model.Shop, error)
	SetState(principal model.Principal, state bool) (*model.Shop, error)
	ListOrders(principal model.Principal) ([]model.Order, error)
	UpdateOrderState(principal model.Principal, orderID uint, state model.OrderState) (*model.Order, error)
	ExportOrders(principal model.Principal) ([]byte, error)
}

type partnerService struct {
	shopRepo      repository.ShopRepository
	orderRepo     repository.OrderRepository
	notifications NotificationService
}

func NewPartnerService(
	shopRepo repository.ShopRepository,
	orderRepo repository.OrderRepository,
	notifications NotificationService,
) PartnerService {
	return &partnerService{
		shopRepo:      shopRepo,
		orderRepo:     orderRepo,
		notifications: notifications,
	}
}

func (s *partnerService) shopOf(principal model.Principal) (*model.Shop, error) {
	if !principal.IsShop() {
		return nil, ErrShopOnly
	}
	shop, err := s.shopRepo.FindByUserID(principal.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShopNotFound
		}
		return nil, err
	}
	return shop, nil
}

func (s *partnerService) GetState(principal model.Principal) (*model.Shop, error) {
	return s.shopOf(principal)
}

func (s *partnerService) SetState(principal model.Principal, state bool) (*model.Shop, error) {
	shop, err := s.shopOf(principal)
	if err != nil {
		return nil, err
	}
	if err := s.shopRepo.UpdateState(shop.ID, state); err != nil {
		return nil, err
	}
	shop.State = state

	logger.Info("Shop state changed", map[string]interface{}{
		"shop_id": shop.ID,
		"state":   state,
	})
	return shop, nil
}

func (s *partnerService) ListOrders(principal model.Principal) ([]model.Order, error) {
	shop, err := s.shopOf(principal)
	if err != nil {
		return nil, err
	}
	return s.orderRepo.FindByShopID(shop.ID)
}

func hasForeignItems(order *model.Order, shopID uint) bool {
	for _, item := range order.OrderedItems {
		if item.ProductInfo.ShopID != shopID {
			return true
		}
	}
	return false
}

func (s *partnerService) UpdateOrderState(principal model.Principal, orderID uint, state model.OrderState) (*model.Order, error) {
	shop, err := s.shopOf(principal)
	if err != nil {
		return nil, err
	}

	ok, err := s.orderRepo.ContainsShopItems(orderID, shop.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrOrderNotFound
	}

	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if !order.State.CanTransitionTo(state) {
		logger.Warn("Rejected order state transition", map[string]interface{}{
			"order_id": orderID,
			"from":     order.State,
			"to":       state,
		})
		return nil, ErrInvalidStateTransition
	}
	// closing states end the order for every shop in it
	if (state == model.OrderStateCanceled || state == model.OrderStateDelivered) && hasForeignItems(order, shop.ID) {
		logger.Warn("Rejected closing a shared order", map[string]interface{}{
			"order_id": orderID,
			"shop_id":  shop.ID,
			"to":       state,
		})
		return nil, ErrSharedOrder
	}

	rows, err := s.orderRepo.UpdateState(orderID, order.State, state)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		// state moved under us
		return nil, ErrInvalidStateTransition
	}
	order.State = state

	if err := s.notifications.NotifyOrderStatus(order, &order.User); err != nil {
		logger.Error("Failed to queue order status notification", err, map[string]interface{}{
			"order_id": orderID,
		})
	}

	logger.Info("Order state updated", map[string]interface{}{
		"order_id": orderID,
		"shop_id":  shop.ID,
		"state":    state,
	})
	return order, nil
}

// ExportOrders renders the shop's orders as an XLSX workbook, one row per
// ordered item.
func (s *partnerService) ExportOrders(principal model.Principal) ([]byte, error) {
	orders, err := s.ListOrders(principal)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}

	header := []interface{}{"Order", "Date", "State", "Product", "Model", "Quantity", "Price", "Sum", "Address", "Phone"}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(exportSheet, "A1", "J1", bold); err != nil {
		return nil, err
	}

	row := 2
	for _, order := range orders {
		address, phone := "", ""
		if order.Contact != nil {
			address = formatAddress(order.Contact)
			phone = order.Contact.Phone
		}
		for _, item := range order.OrderedItems {
			values := []interface{}{
				order.ID,
				order.CreatedAt.Format("2006-01-02 15:04"),
				string(order.State),
				item.ProductInfo.Product.Name,
				item.ProductInfo.Model,
				item.Quantity,
				item.ProductInfo.Price,
				item.Quantity * item.ProductInfo.Price,
				address,
				phone,
			}
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
				return nil, err
			}
			row++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		logger.Error("Failed to render orders workbook", err)
		return nil, err
	}

	logger.Info("Orders exported", map[string]interface{}{
		"user_id": principal.UserID,
		"orders":  len(orders),
		"rows":    row - 2,
	})
	return buf.Bytes(), nil
}

func formatAddress(c *model.Contact) string {
	parts := []string{c.City, c.Street}
	for _, p := range []struct{ label, value string }{
		{"h.", c.House}, {"str.", c.Structure}, {"bld.", c.Building}, {"apt.", c.Apartment},
	} {
		if p.value != "" {
			parts = append(parts, fmt.Sprintf("%s %s", p.label, p.value))
		}
	}
	return strings.Join(parts, ", ")
}
