package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/orders-backend/internal/app/repository"
	"github.com/ikkim/orders-backend/internal/app/service"
	apperrors "github.com/ikkim/orders-backend/internal/errors"
)

// CatalogController serves the public catalog.
type CatalogController struct {
	catalogService service.CatalogService
}

func NewCatalogController(catalogService service.CatalogService) *CatalogController {
	return &CatalogController{catalogService: catalogService}
}

func queryInt(c *gin.Context, name string) int {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return n
}

// queryID parses an optional id filter. ok is false for a malformed value.
func queryID(c *gin.Context, name string) (uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// GET /api/v1/categories
func (ctrl *CatalogController) ListCategories(c *gin.Context) {
	page, err := ctrl.catalogService.ListCategories(queryInt(c, "limit"), queryInt(c, "offset"))
	if err != nil {
		respondServiceError(c, err, "list categories")
		return
	}
	c.JSON(http.StatusOK, page)
}

// GET /api/v1/shops
func (ctrl *CatalogController) ListShops(c *gin.Context) {
	page, err := ctrl.catalogService.ListShops(queryInt(c, "limit"), queryInt(c, "offset"))
	if err != nil {
		respondServiceError(c, err, "list shops")
		return
	}
	c.JSON(http.StatusOK, page)
}

// ListProducts returns offers of active shops, optionally filtered.
// GET /api/v1/products?shop_id=&category_id=
func (ctrl *CatalogController) ListProducts(c *gin.Context) {
	shopID, ok := queryID(c, "shop_id")
	if !ok {
		apperrors.RespondWithValidationError(c, map[string][]string{"shop_id": {"A valid integer is required."}})
		return
	}
	categoryID, ok := queryID(c, "category_id")
	if !ok {
		apperrors.RespondWithValidationError(c, map[string][]string{"category_id": {"A valid integer is required."}})
		return
	}

	infos, err := ctrl.catalogService.ListProducts(repository.ProductFilter{
		ShopID:     shopID,
		CategoryID: categoryID,
	})
	if err != nil {
		respondServiceError(c, err, "list products")
		return
	}
	c.JSON(http.StatusOK, gin.H{"Status": true, "Products": infos})
}
