package service

import (
	"errors"

	"github.com/ikkim/orders-backend/internal/app/model"
	"github.com/ikkim/orders-backend/internal/app/repository"
	apperrors "github.com/ikkim/orders-backend/internal/errors"
	"github.com/ikkim/orders-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrProductInfoNotFound = errors.New("product info not found")
	ErrInvalidQuantity     = errors.New("quantity must be at least 1")
	ErrItemAlreadyInBasket = errors.New("product is already in the basket")
)

type BasketItemInput struct {
	ProductInfoID uint
	Quantity      int
}

type BasketQuantityInput struct {
	ItemID   uint
	Quantity int
}

type BasketService interface {
	Get(principal model.Principal) ([]model.Order, error)
	// AddItems inserts items one by one and stops at the first failure. The
	// count of items created before it is returned with the error.
	AddItems(principal model.Principal, items []BasketItemInput) (int, error)
	UpdateItems(principal model.Principal, items []BasketQuantityInput) (int64, error)
	DeleteItems(principal model.Principal, itemIDs []uint) (int64, error)
}

type basketService struct {
	orderRepo   repository.OrderRepository
	catalogRepo repository.CatalogRepository
}

func NewBasketService(orderRepo repository.OrderRepository, catalogRepo repository.CatalogRepository) BasketService {
	return &basketService{orderRepo: orderRepo, catalogRepo: catalogRepo}
}

func (s *basketService) Get(principal model.Principal) ([]model.Order, error) {
	return s.orderRepo.FindBasketsWithItems(principal.UserID)
}

func (s *basketService) getOrCreateBasket(userID uint) (*model.Order, error) {
	basket, err := s.orderRepo.FindBasket(userID)
	if err == nil {
		return basket, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	basket, err = s.orderRepo.CreateBasket(userID)
	if err != nil {
		// another request created the basket first
		if apperrors.IsDuplicateKey(err) {
			return s.orderRepo.FindBasket(userID)
		}
		logger.Error("Failed to create basket", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return basket, nil
}

func (s *basketService) AddItems(principal model.Principal, items []BasketItemInput) (int, error) {
	basket, err := s.getOrCreateBasket(principal.UserID)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, in := range items {
		if in.Quantity < 1 {
			return created, ErrInvalidQuantity
		}
		if _, err := s.catalogRepo.FindProductInfoByID(in.ProductInfoID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return created, ErrProductInfoNotFound
			}
			return created, err
		}

		item := &model.OrderItem{
			OrderID:       basket.ID,
			ProductInfoID: in.ProductInfoID,
			Quantity:      in.Quantity,
		}
		if err := s.orderRepo.AddItem(item); err != nil {
			if apperrors.IsDuplicateKey(err) {
				return created, ErrItemAlreadyInBasket
			}
			return created, err
		}
		created++
	}

	logger.Info("Basket items added", map[string]interface{}{
		"user_id":  principal.UserID,
		"order_id": basket.ID,
		"created":  created,
	})
	return created, nil
}

func (s *basketService) UpdateItems(principal model.Principal, items []BasketQuantityInput) (int64, error) {
	basket, err := s.orderRepo.FindBasket(principal.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}

	var updated int64
	for _, in := range items {
		if in.Quantity < 1 {
			continue
		}
		rows, err := s.orderRepo.UpdateItemQuantity(basket.ID, in.ItemID, in.Quantity)
		if err != nil {
			logger.Error("Failed to update basket item", err, map[string]interface{}{
				"order_id": basket.ID,
				"item_id":  in.ItemID,
			})
			return updated, err
		}
		updated += rows
	}
	return updated, nil
}

func (s *basketService) DeleteItems(principal model.Principal, itemIDs []uint) (int64, error) {
	basket, err := s.orderRepo.FindBasket(principal.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return s.orderRepo.DeleteItems(basket.ID, itemIDs)
}
