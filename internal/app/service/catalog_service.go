package service

import (
	"github.com/ikkim/orders-backend/internal/app/model"
	"github.com/ikkim/orders-backend/internal/app/repository"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

// Page is a slice of a listing with the total row count.
type Page[T any] struct {
	Count   int64 `json:"count"`
	Results []T   `json:"results"`
}

type CatalogService interface {
	ListCategories(limit, offset int) (*Page[model.Category], error)
	ListShops(limit, offset int) (*Page[model.Shop], error)
	ListProducts(filter repository.ProductFilter) ([]model.ProductInfo, error)
}

type catalogService struct {
	catalogRepo repository.CatalogRepository
	shopRepo    repository.ShopRepository
}

func NewCatalogService(catalogRepo repository.CatalogRepository, shopRepo repository.ShopRepository) CatalogService {
	return &catalogService{catalogRepo: catalogRepo, shopRepo: shopRepo}
}

// ClampPage applies the default and maximum page size.
func ClampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *catalogService) ListCategories(limit, offset int) (*Page[model.Category], error) {
	limit, offset = ClampPage(limit, offset)
	categories, total, err := s.catalogRepo.ListCategories(limit, offset)
	if err != nil {
		return nil, err
	}
	return &Page[model.Category]{Count: total, Results: categories}, nil
}

func (s *catalogService) ListShops(limit, offset int) (*Page[model.Shop], error) {
	limit, offset = ClampPage(limit, offset)
	shops, total, err := s.shopRepo.ListActive(limit, offset)
	if err != nil {
		return nil, err
	}
	return &Page[model.Shop]{Count: total, Results: shops}, nil
}

func (s *catalogService) ListProducts(filter repository.ProductFilter) ([]model.ProductInfo, error) {
	return s.catalogRepo.FindProductInfos(filter)
}
