package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ikkim/orders-backend/internal/app/model"
	"github.com/ikkim/orders-backend/internal/app/repository"
	"github.com/ikkim/orders-backend/internal/pricelist"
	"github.com/ikkim/orders-backend/pkg/logger"
	"github.com/ikkim/orders-backend/pkg/metrics"
	"github.com/ikkim/orders-backend/pkg/redis"
	"gorm.io/gorm"
)

var (
	ErrShopOnly   = errors.New("only for shops")
	ErrImportBusy = errors.New("price list import already running for this shop")
)

// ImportResult counts what a price list produced.
type ImportResult struct {
	ShopID     uint `json:"shop_id"`
	Categories int  `json:"categories"`
	Goods      int  `json:"goods"`
	Parameters int  `json:"parameters"`
}

// DocumentFetcher downloads and decodes a price list.
type DocumentFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*pricelist.Document, error)
}

type ImportService interface {
	ImportFromURL(ctx context.Context, principal model.Principal, rawURL string) (*ImportResult, error)
	ImportDocument(ctx context.Context, userID uint, doc *pricelist.Document, sourceURL string) (*ImportResult, error)
	RefreshAll(ctx context.Context) (imported int, failed int)
}

type importService struct {
	db       *gorm.DB
	shopRepo repository.ShopRepository
	fetcher  DocumentFetcher
	locker   Locker
	metrics  *metrics.Metrics
}

func NewImportService(
	db *gorm.DB,
	shopRepo repository.ShopRepository,
	fetcher DocumentFetcher,
	locker Locker,
	m *metrics.Metrics,
) ImportService {
	return &importService{
		db:       db,
		shopRepo: shopRepo,
		fetcher:  fetcher,
		locker:   locker,
		metrics:  m,
	}
}

func importOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, pricelist.ErrInvalidURL):
		return "invalid_url"
	case errors.Is(err, pricelist.ErrFetch):
		return "fetch_error"
	case errors.Is(err, pricelist.ErrParse):
		return "parse_error"
	case errors.Is(err, ErrImportBusy):
		return "busy"
	}
	return "error"
}

func (s *importService) ImportFromURL(ctx context.Context, principal model.Principal, rawURL string) (*ImportResult, error) {
	if !principal.IsShop() {
		return nil, ErrShopOnly
	}

	logger.Info("Importing price list", map[string]interface{}{
		"user_id": principal.UserID,
		"url":     rawURL,
	})

	doc, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		s.metrics.ImportFinished(importOutcome(err))
		logger.Warn("Price list rejected", map[string]interface{}{
			"user_id": principal.UserID,
			"error":   err.Error(),
		})
		return nil, err
	}
	return s.ImportDocument(ctx, principal.UserID, doc, rawURL)
}

// ImportDocument replaces the user's shop offers with doc. The whole
// replacement runs in one transaction under a per-shop lock.
func (s *importService) ImportDocument(ctx context.Context, userID uint, doc *pricelist.Document, sourceURL string) (result *ImportResult, err error) {
	defer func() { s.metrics.ImportFinished(importOutcome(err)) }()

	if err := doc.Validate(); err != nil {
		return nil, err
	}

	release, err := s.locker.Lock(ctx, fmt.Sprintf("price-list:user:%d", userID))
	if err != nil {
		if errors.Is(err, redis.ErrLockHeld) {
			return nil, ErrImportBusy
		}
		return nil, err
	}
	defer release()

	result = &ImportResult{
		Categories: len(doc.Categories),
		Goods:      len(doc.Goods),
		Parameters: doc.ParameterCount(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		shopRepo := repository.NewShopRepository(tx)
		catalogRepo := repository.NewCatalogRepository(tx)

		shop, err := s.upsertShop(shopRepo, userID, doc.Shop, sourceURL)
		if err != nil {
			return err
		}
		result.ShopID = shop.ID

		for _, c := range doc.Categories {
			category, err := catalogRepo.FindOrCreateCategory(c.ID, c.Name)
			if err != nil {
				return err
			}
			if err := shopRepo.AttachCategory(shop, category); err != nil {
				return err
			}
		}

		removed, err := catalogRepo.DeleteShopOffers(shop.ID)
		if err != nil {
			return err
		}
		logger.Debug("Previous offers removed", map[string]interface{}{
			"shop_id": shop.ID,
			"count":   removed,
		})

		for _, good := range doc.Goods {
			product, err := catalogRepo.FindOrCreateProduct(good.Name, good.Category)
			if err != nil {
				return err
			}

			info := &model.ProductInfo{
				Model:      good.Model,
				ExternalID: good.ID,
				ProductID:  product.ID,
				ShopID:     shop.ID,
				Quantity:   good.Quantity,
				Price:      good.Price,
				PriceRRC:   good.PriceRRC,
			}
			if err := catalogRepo.CreateProductInfo(info); err != nil {
				return err
			}

			for name, value := range good.Parameters {
				parameter, err := catalogRepo.FindOrCreateParameter(name)
				if err != nil {
					return err
				}
				if err := catalogRepo.CreateProductParameter(&model.ProductParameter{
					ProductInfoID: info.ID,
					ParameterID:   parameter.ID,
					Value:         value,
				}); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		logger.Error("Price list import rolled back", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Info("Price list imported", map[string]interface{}{
		"user_id":    userID,
		"shop_id":    result.ShopID,
		"categories": result.Categories,
		"goods":      result.Goods,
	})
	return result, nil
}

func (s *importService) upsertShop(shopRepo repository.ShopRepository, userID uint, name, sourceURL string) (*model.Shop, error) {
	var urlPtr *string
	if sourceURL != "" {
		urlPtr = &sourceURL
	}

	shop, err := shopRepo.FindByUserID(userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		shop = &model.Shop{Name: name, URL: urlPtr, UserID: &userID, State: true}
		if err := shopRepo.Create(shop); err != nil {
			return nil, err
		}
		return shop, nil
	}

	shop.Name = name
	if urlPtr != nil {
		shop.URL = urlPtr
	}
	if err := shopRepo.UpdateProfile(shop); err != nil {
		return nil, err
	}
	return shop, nil
}

// RefreshAll re-imports every active shop that has a stored price-list URL.
func (s *importService) RefreshAll(ctx context.Context) (int, int) {
	shops, err := s.shopRepo.ListRefreshable()
	if err != nil {
		logger.Error("Failed to list shops for refresh", err)
		return 0, 0
	}

	imported, failed := 0, 0
	for _, shop := range shops {
		if ctx.Err() != nil {
			break
		}
		if shop.UserID == nil || shop.URL == nil {
			continue
		}

		doc, err := s.fetcher.Fetch(ctx, *shop.URL)
		if err == nil {
			_, err = s.ImportDocument(ctx, *shop.UserID, doc, *shop.URL)
		} else {
			s.metrics.ImportFinished(importOutcome(err))
		}
		if err != nil {
			failed++
			logger.Warn("Price list refresh failed", map[string]interface{}{
				"shop_id": shop.ID,
				"error":   err.Error(),
			})
			continue
		}
		imported++
	}

	logger.Info("Price list refresh finished", map[string]interface{}{
		"imported": imported,
		"failed":   failed,
	})
	return imported, failed
}
