package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/orders-backend/internal/app/service"
	apperrors "github.com/ikkim/orders-backend/internal/errors"
	"github.com/ikkim/orders-backend/internal/middleware"
	"github.com/ikkim/orders-backend/pkg/util"
)

type BasketController struct {
	basketService service.BasketService
}

func NewBasketController(basketService service.BasketService) *BasketController {
	return &BasketController{basketService: basketService}
}

// BasketItemsRequest holds loosely typed entries; each one is converted on
// its own so a bad entry only affects itself.
type BasketItemsRequest struct {
	Items []map[string]interface{} `json:"items"`
}

// GET /api/v1/basket
func (ctrl *BasketController) Get(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		return
	}

	baskets, err := ctrl.basketService.Get(principal)
	if err != nil {
		respondServiceError(c, err, "load basket")
		return
	}
	c.JSON(http.StatusOK, gin.H{"Status": true, "Orders": baskets})
}

// AddItems inserts entries in order and stops at the first one that fails.
// Items inserted before the failure are kept and counted in "Created".
// POST /api/v1/basket
func (ctrl *BasketController) AddItems(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		return
	}

	var req BasketItemsRequest
	if !bindJSON(c, &req) {
		return
	}
	if len(req.Items) == 0 {
		apperrors.MissingArgs(c)
		return
	}

	inputs := make([]service.BasketItemInput, 0, len(req.Items))
	for _, entry := range req.Items {
		// malformed values fall through as zero and fail in the service
		id, _ := util.AsUint(entry["product_info"])
		qty, _ := util.AsInt(entry["quantity"])
		inputs = append(inputs, service.BasketItemInput{ProductInfoID: id, Quantity: qty})
	}

	created, err := ctrl.basketService.AddItems(principal, inputs)
	if err != nil {
		respondBasketError(c, err, created)
		return
	}
	c.JSON(http.StatusOK, gin.H{"Status": true, "Created": created})
}

// UpdateItems changes quantities. Entries without integer id and quantity
// are skipped.
// PUT /api/v1/basket
func (ctrl *BasketController) UpdateItems(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		return
	}

	var req BasketItemsRequest
	if !bindJSON(c, &req) {
		return
	}
	if len(req.Items) == 0 {
		apperrors.MissingArgs(c)
		return
	}

	inputs := make([]service.BasketQuantityInput, 0, len(req.Items))
	for _, entry := range req.Items {
		id, okID := util.AsInt(entry["id"])
		qty, okQty := util.AsInt(entry["quantity"])
		if !okID || !okQty || id < 1 {
			continue
		}
		inputs = append(inputs, service.BasketQuantityInput{ItemID: uint(id), Quantity: qty})
	}

	updated, err := ctrl.basketService.UpdateItems(principal, inputs)
	if err != nil {
		respondServiceError(c, err, "update basket")
		return
	}
	c.JSON(http.StatusOK, gin.H{"Status": true, "Updated": updated})
}

// DELETE /api/v1/basket
func (ctrl *BasketController) DeleteItems(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		return
	}

	ids, ok := bindIDList(c)
	if !ok {
		return
	}

	deleted, err := ctrl.basketService.DeleteItems(principal, ids)
	if err != nil {
		respondServiceError(c, err, "delete basket items")
		return
	}
	c.JSON(http.StatusOK, gin.H{"Status": true, "Deleted": deleted})
}

func respondBasketError(c *gin.Context, err error, created int) {
	status, code, msg := http.StatusBadRequest, apperrors.ValidationInvalidInput, ""
	switch {
	case errors.Is(err, service.ErrProductInfoNotFound):
		code, msg = apperrors.ResourceNotFound, "Product not found"
	case errors.Is(err, service.ErrInvalidQuantity):
		msg = "Quantity must be at least 1"
	case errors.Is(err, service.ErrItemAlreadyInBasket):
		status, code, msg = http.StatusConflict, apperrors.ResourceAlreadyExists, "This product is already in the basket"
	default:
		middleware.GetLoggerFromContext(c).Error("Failed to add basket items", err, map[string]interface{}{
			"created": created,
		})
		info := apperrors.ParseError(err, "add basket item")
		status, code, msg = info.Status, info.Code, info.Message
	}

	c.AbortWithStatusJSON(status, gin.H{
		"Status":  false,
		"Errors":  msg,
		"Code":    code,
		"Created": created,
	})
}
