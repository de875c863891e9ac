package repository

import (
	"errors"

	"github.com/ikkim/orders-backend/internal/app/model"
	"github.com/ikkim/orders-backend/pkg/logger"
	"gorm.io/gorm"
)

type ShopRepository interface {
	FindByUserID(userID uint) (*model.Shop, error)
	Create(shop *model.Shop) error
	UpdateProfile(shop *model.Shop) error
	UpdateState(shopID uint, state bool) error
	AttachCategory(shop *model.Shop, category *model.Category) error
	ListActive(limit, offset int) ([]model.Shop, int64, error)
	ListRefreshable() ([]model.Shop, error)
}

type shopRepository struct {
	db *gorm.DB
}

func NewShopRepository(db *gorm.DB) ShopRepository {
	return &shopRepository{db: db}
}

func (r *shopRepository) FindByUserID(userID uint) (*model.Shop, error) {
	var shop model.Shop
	if err := r.db.Where("user_id = ?", userID).First(&shop).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to find shop by user in database", err, map[string]interface{}{
				"user_id": userID,
			})
		}
		return nil, err
	}
	return &shop, nil
}

func (r *shopRepository) Create(shop *model.Shop) error {
	logger.Debug("Creating shop in database", map[string]interface{}{
		"name": shop.Name,
	})

	if err := r.db.Create(shop).Error; err != nil {
		logger.Error("Failed to create shop in database", err, map[string]interface{}{
			"name": shop.Name,
		})
		return err
	}
	return nil
}

// UpdateProfile writes name and url.
func (r *shopRepository) UpdateProfile(shop *model.Shop) error {
	return r.db.Model(shop).Select("name", "url").Updates(shop).Error
}

func (r *shopRepository) UpdateState(shopID uint, state bool) error {
	logger.Debug("Updating shop state in database", map[string]interface{}{
		"shop_id": shopID,
		"state":   state,
	})

	if err := r.db.Model(&model.Shop{}).Where("id = ?", shopID).Update("state", state).Error; err != nil {
		logger.Error("Failed to update shop state in database", err, map[string]interface{}{
			"shop_id": shopID,
		})
		return err
	}
	return nil
}

// AttachCategory links the shop to the category; existing links are kept.
func (r *shopRepository) AttachCategory(shop *model.Shop, category *model.Category) error {
	return r.db.Model(shop).Association("Categories").Append(category)
}

func (r *shopRepository) ListActive(limit, offset int) ([]model.Shop, int64, error) {
	var total int64
	if err := r.db.Model(&model.Shop{}).Where("state = ?", true).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	shops := []model.Shop{}
	if err := r.db.Where("state = ?", true).Order("id").Limit(limit).Offset(offset).Find(&shops).Error; err != nil {
		logger.Error("Failed to list shops in database", err)
		return nil, 0, err
	}
	return shops, total, nil
}

// ListRefreshable returns active shops with a stored price-list url.
func (r *shopRepository) ListRefreshable() ([]model.Shop, error) {
	var shops []model.Shop
	err := r.db.Where("state = ? AND url IS NOT NULL AND url <> '' AND user_id IS NOT NULL", true).
		Order("id").Find(&shops).Error
	return shops, err
}
