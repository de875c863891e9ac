package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/orders-backend/internal/app/model"
	"github.com/ikkim/orders-backend/internal/app/service"
	apperrors "github.com/ikkim/orders-backend/internal/errors"
	"github.com/ikkim/orders-backend/internal/middleware"
	"github.com/ikkim/orders-backend/internal/storage"
	"github.com/ikkim/orders-backend/pkg/util"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// PriceListUploader issues presigned upload URLs for price list files.
type PriceListUploader interface {
	PresignPriceListUpload(ctx context.Context, shopUserID uint, filename string) (*storage.PresignedURLResponse, error)
}

// PartnerController serves shop users. Routes are mounted behind RequireShop.
type PartnerController struct {
	importService  service.ImportService
	partnerService service.PartnerService
	uploader       PriceListUploader // nil when S3 is not configured
}

func NewPartnerController(importService service.ImportService, partnerService service.PartnerService, uploader PriceListUploader) *PartnerController {
	return &PartnerController{
		importService:  importService,
		partnerService: partnerService,
		uploader:       uploader,
	}
}

type UpdatePriceListRequest struct {
	URL string `json:"url" binding:"required"`
}

type UpdateOrderStateRequest struct {
	ID    interface{} `json:"id" binding:"required"`
	State string      `json:"state" binding:"required,oneof=new confirmed assembled sent delivered canceled"`
}

type UploadURLRequest struct {
	Filename string `json:"filename" binding:"required"`
}

// UpdatePriceList replaces the shop's offers with the document at url.
// POST /api/v1/partner/update
func (ctrl *PartnerController) UpdatePriceList(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		return
	}

	var req UpdatePriceListRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := ctrl.importService.ImportFromURL(c.Request.Context(), principal, req.URL)
	if err != nil {
		log.Warn("Price list import failed", map[string]interface{}{
			"url":   req.URL,
			"error": err.Error(),
		})
		respondServiceError(c, err, "import price list")
		return
	}

	log.Info("Price list imported", map[string]interface{}{
		"shop_id":    result.ShopID,
		"categories": result.Categories,
		"goods":      result.Goods,
	})
	c.JSON(http.StatusOK, gin.H{
		"Status":     true,
		"Categories": result.Categories,
		"Goods":      result.Goods,
	})
}

// GET /api/v1/partner/state
func (ctrl *PartnerController) GetState(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		return
	}

	shop, err := ctrl.partnerService.GetState(principal)
	if err != nil {
		respondServiceError(c, err, "load shop")
		return
	}
	c.JSON(http.StatusOK, gin.H{"Status": true, "Shop": shop})
}

// SetState opens or closes the shop for orders.
// POST /api/v1/partner/state
func (ctrl *PartnerController) SetState(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		return
	}

	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid JSON body")
		return
	}
	raw, present := body["state"]
	if !present {
		apperrors.MissingArgs(c)
		return
	}
	state, err := util.ParseFlag(raw)
	if err != nil {
		apperrors.RespondWithValidationError(c, map[string][]string{"state": {err.Error()}})
		return
	}

	if _, err := ctrl.partnerService.SetState(principal, state); err != nil {
		respondServiceError(c, err, "update shop state")
		return
	}
	c.JSON(http.StatusOK, gin.H{"Status": true})
}

// GET /api/v1/partner/orders
func (ctrl *PartnerController) ListOrders(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		return
	}

	orders, err := ctrl.partnerService.ListOrders(principal)
	if err != nil {
		respondServiceError(c, err, "list shop orders")
		return
	}
	c.JSON(http.StatusOK, gin.H{"Status": true, "Orders": orders})
}

// UpdateOrderState moves an order containing the shop's items forward.
// PUT /api/v1/partner/orders
func (ctrl *PartnerController) UpdateOrderState(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		return
	}

	var req UpdateOrderStateRequest
	if !bindJSON(c, &req) {
		return
	}
	orderID, valid := util.AsUint(req.ID)
	if !valid {
		apperrors.RespondWithValidationError(c, map[string][]string{"id": {"A valid integer is required."}})
		return
	}

	order, err := ctrl.partnerService.UpdateOrderState(principal, orderID, model.OrderState(req.State))
	if err != nil {
		respondServiceError(c, err, "update order state")
		return
	}
	c.JSON(http.StatusOK, gin.H{"Status": true, "State": order.State})
}

// ExportOrders returns the shop's orders as an xlsx workbook.
// GET /api/v1/partner/orders/export
func (ctrl *PartnerController) ExportOrders(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		return
	}

	data, err := ctrl.partnerService.ExportOrders(principal)
	if err != nil {
		respondServiceError(c, err, "export orders")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="orders.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

// UploadURL presigns a PUT for a price list file.
// POST /api/v1/partner/upload-url
func (ctrl *PartnerController) UploadURL(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		return
	}

	if ctrl.uploader == nil {
		apperrors.RespondWithError(c, http.StatusServiceUnavailable, apperrors.UploadUnavailable, "File storage is not configured")
		return
	}

	var req UploadURLRequest
	if !bindJSON(c, &req) {
		return
	}

	presigned, err := ctrl.uploader.PresignPriceListUpload(c.Request.Context(), principal.UserID, req.Filename)
	if err != nil {
		respondServiceError(c, err, "create upload url")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"Status":       true,
		"upload_url":   presigned.UploadURL,
		"file_url":     presigned.FileURL,
		"key":          presigned.Key,
		"content_type": presigned.ContentType,
		"expires_at":   presigned.ExpiresAt,
	})
}
