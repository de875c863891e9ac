package repository

import (
	"errors"

	"github.com/ikkim/orders-backend/internal/app/model"
	"github.com/ikkim/orders-backend/pkg/logger"
	"gorm.io/gorm"
)

// ProductFilter narrows the offer listing. Zero values mean no filter.
type ProductFilter struct {
	ShopID     uint
	CategoryID uint
}

type CatalogRepository interface {
	ListCategories(limit, offset int) ([]model.Category, int64, error)
	FindProductInfos(filter ProductFilter) ([]model.ProductInfo, error)
	FindProductInfoByID(id uint) (*model.ProductInfo, error)

	FindOrCreateCategory(id uint, name string) (*model.Category, error)
	FindOrCreateProduct(name string, categoryID uint) (*model.Product, error)
	FindOrCreateParameter(name string) (*model.Parameter, error)
	DeleteShopOffers(shopID uint) (int64, error)
	CreateProductInfo(info *model.ProductInfo) error
	CreateProductParameter(param *model.ProductParameter) error
}

type catalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) ListCategories(limit, offset int) ([]model.Category, int64, error) {
	var total int64
	if err := r.db.Model(&model.Category{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	categories := []model.Category{}
	if err := r.db.Order("id").Limit(limit).Offset(offset).Find(&categories).Error; err != nil {
		logger.Error("Failed to list categories in database", err)
		return nil, 0, err
	}
	return categories, total, nil
}

// FindProductInfos lists offers of active shops.
func (r *catalogRepository) FindProductInfos(filter ProductFilter) ([]model.ProductInfo, error) {
	logger.Debug("Finding product infos in database", map[string]interface{}{
		"shop_id":     filter.ShopID,
		"category_id": filter.CategoryID,
	})

	query := r.db.Model(&model.ProductInfo{}).
		Joins("JOIN shops ON shops.id = product_infos.shop_id").
		Joins("JOIN products ON products.id = product_infos.product_id").
		Where("shops.state = ?", true)
	if filter.ShopID != 0 {
		query = query.Where("product_infos.shop_id = ?", filter.ShopID)
	}
	if filter.CategoryID != 0 {
		query = query.Where("products.category_id = ?", filter.CategoryID)
	}

	infos := []model.ProductInfo{}
	err := query.
		Preload("Product.Category").
		Preload("Shop").
		Preload("ProductParameters.Parameter").
		Order("product_infos.id").
		Find(&infos).Error
	if err != nil {
		logger.Error("Failed to find product infos in database", err)
		return nil, err
	}
	return infos, nil
}

func (r *catalogRepository) FindProductInfoByID(id uint) (*model.ProductInfo, error) {
	var info model.ProductInfo
	if err := r.db.First(&info, id).Error; err != nil {
		return nil, err
	}
	return &info, nil
}

// FindOrCreateCategory keeps the stored name when the id already exists.
func (r *catalogRepository) FindOrCreateCategory(id uint, name string) (*model.Category, error) {
	var category model.Category
	err := r.db.First(&category, id).Error
	if err == nil {
		if category.Name != name {
			logger.Warn("Category name differs from price list, keeping stored name", map[string]interface{}{
				"category_id": id,
				"stored":      category.Name,
				"price_list":  name,
			})
		}
		return &category, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	category = model.Category{ID: id, Name: name}
	if err := r.db.Create(&category).Error; err != nil {
		logger.Error("Failed to create category in database", err, map[string]interface{}{
			"category_id": id,
		})
		return nil, err
	}
	return &category, nil
}

func (r *catalogRepository) FindOrCreateProduct(name string, categoryID uint) (*model.Product, error) {
	var product model.Product
	err := r.db.Where(model.Product{Name: name, CategoryID: categoryID}).FirstOrCreate(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *catalogRepository) FindOrCreateParameter(name string) (*model.Parameter, error) {
	var param model.Parameter
	if err := r.db.Where(model.Parameter{Name: name}).FirstOrCreate(&param).Error; err != nil {
		return nil, err
	}
	return &param, nil
}

// DeleteShopOffers removes every ProductInfo of the shop together with the
// rows that reference it: product parameters and order items.
func (r *catalogRepository) DeleteShopOffers(shopID uint) (int64, error) {
	infoIDs := func() *gorm.DB {
		return r.db.Model(&model.ProductInfo{}).Select("id").Where("shop_id = ?", shopID)
	}

	if err := r.db.Where("product_info_id IN (?)", infoIDs()).Delete(&model.ProductParameter{}).Error; err != nil {
		return 0, err
	}
	if err := r.db.Where("product_info_id IN (?)", infoIDs()).Delete(&model.OrderItem{}).Error; err != nil {
		return 0, err
	}

	result := r.db.Where("shop_id = ?", shopID).Delete(&model.ProductInfo{})
	if result.Error != nil {
		logger.Error("Failed to delete shop offers in database", result.Error, map[string]interface{}{
			"shop_id": shopID,
		})
		return 0, result.Error
	}

	logger.Debug("Shop offers deleted in database", map[string]interface{}{
		"shop_id": shopID,
		"count":   result.RowsAffected,
	})
	return result.RowsAffected, nil
}

func (r *catalogRepository) CreateProductInfo(info *model.ProductInfo) error {
	return r.db.Omit("Product", "Shop", "ProductParameters").Create(info).Error
}

func (r *catalogRepository) CreateProductParameter(param *model.ProductParameter) error {
	return r.db.Omit("Parameter").Create(param).Error
}
