package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/orders-backend/internal/app/service"
	apperrors "github.com/ikkim/orders-backend/internal/errors"
	"github.com/ikkim/orders-backend/internal/middleware"
	"github.com/ikkim/orders-backend/pkg/util"
)

type OrderController struct {
	orderService service.OrderService
}

func NewOrderController(orderService service.OrderService) *OrderController {
	return &OrderController{orderService: orderService}
}

// PlaceOrderRequest accepts the basket id as a digit string or a number.
type PlaceOrderRequest struct {
	ID      interface{} `json:"id" binding:"required"`
	Contact interface{} `json:"contact" binding:"required"`
}

// GET /api/v1/order
func (ctrl *OrderController) List(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		return
	}

	orders, err := ctrl.orderService.List(principal)
	if err != nil {
		respondServiceError(c, err, "list orders")
		return
	}
	c.JSON(http.StatusOK, gin.H{"Status": true, "Orders": orders})
}

// Place checks out the caller's basket to the given contact.
// POST /api/v1/order
func (ctrl *OrderController) Place(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		return
	}

	var req PlaceOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	orderID, okOrder := util.AsUint(req.ID)
	contactID, okContact := util.AsUint(req.Contact)
	if !okOrder || !okContact {
		fields := map[string][]string{}
		if !okOrder {
			fields["id"] = []string{"A valid integer is required."}
		}
		if !okContact {
			fields["contact"] = []string{"A valid integer is required."}
		}
		apperrors.RespondWithValidationError(c, fields)
		return
	}

	result, err := ctrl.orderService.Place(principal, orderID, contactID)
	if err != nil {
		respondServiceError(c, err, "place order")
		return
	}

	log.Info("Order placed", map[string]interface{}{
		"order_id": orderID,
	})

	resp := gin.H{"Status": true}
	if result.NotificationFailed {
		resp["Notification"] = "failed"
	}
	c.JSON(http.StatusOK, resp)
}
