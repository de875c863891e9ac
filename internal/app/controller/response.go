package controller

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/ikkim/orders-backend/internal/app/service"
	apperrors "github.com/ikkim/orders-backend/internal/errors"
	"github.com/ikkim/orders-backend/internal/middleware"
	"github.com/ikkim/orders-backend/internal/pricelist"
	"github.com/ikkim/orders-backend/internal/storage"
)

func init() {
	// report request fields by their JSON names
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// bindJSON decodes the body into req. On failure it writes the error
// envelope and returns false: absent required fields give the generic
// missing-arguments error, other rule violations a per-field map.
func bindJSON(c *gin.Context, req interface{}) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}

	log := middleware.GetLoggerFromContext(c)
	log.Warn("Invalid request body", map[string]interface{}{
		"error": err.Error(),
	})

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid JSON body")
		return false
	}

	fields := map[string][]string{}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			apperrors.MissingArgs(c)
			return false
		}
		fields[fe.Field()] = append(fields[fe.Field()], fieldMessage(fe))
	}
	apperrors.RespondWithValidationError(c, fields)
	return false
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "email":
		return "Enter a valid email address."
	case "oneof":
		return "Select a valid choice. Allowed: " + fe.Param() + "."
	case "max":
		return "Ensure this field has no more than " + fe.Param() + " characters."
	case "min":
		return "Ensure this value is at least " + fe.Param() + "."
	}
	return "Enter a valid value."
}

// respondServiceError maps a service error to the failure envelope.
func respondServiceError(c *gin.Context, err error, context string) {
	var policy *service.PasswordPolicyError
	if errors.As(err, &policy) {
		apperrors.RespondWithError(c, http.StatusBadRequest, apperrors.AuthWeakPassword, map[string][]string{"password": policy.Problems})
		return
	}

	switch {
	case errors.Is(err, service.ErrEmailAlreadyExists):
		apperrors.Conflict(c, apperrors.AuthEmailAlreadyExists, "User with this email already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, "Failed to authorize")
	case errors.Is(err, service.ErrInvalidConfirmKey):
		apperrors.BadRequest(c, apperrors.AuthTokenInvalid, "Invalid token or email")
	case errors.Is(err, service.ErrInvalidResetToken):
		apperrors.BadRequest(c, apperrors.AuthTokenInvalid, "Invalid password reset token")
	case errors.Is(err, service.ErrResetTokenExpired):
		apperrors.BadRequest(c, apperrors.AuthTokenExpired, "Password reset token has expired")
	case errors.Is(err, service.ErrResetTokenUsed):
		apperrors.BadRequest(c, apperrors.AuthTokenInvalid, "Password reset token has already been used")
	case errors.Is(err, service.ErrInvalidUserType):
		apperrors.RespondWithValidationError(c, map[string][]string{"type": {"Select a valid choice. Allowed: shop, buyer."}})
	case errors.Is(err, service.ErrUserNotFound):
		apperrors.NotFound(c, apperrors.ResourceNotFound, "User not found")

	case errors.Is(err, service.ErrShopOnly):
		apperrors.Forbidden(c, apperrors.AuthzShopOnly, "Only for shops")
	case errors.Is(err, service.ErrShopNotFound):
		apperrors.NotFound(c, apperrors.ShopNotFound, "Shop not found")
	case errors.Is(err, service.ErrImportBusy):
		apperrors.Conflict(c, apperrors.PriceListBusy, "Price list import is already running")
	case errors.Is(err, pricelist.ErrInvalidURL):
		apperrors.RespondWithValidationError(c, map[string][]string{"url": {"Enter a valid URL."}})
	case errors.Is(err, pricelist.ErrFetch):
		apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.PriceListFetchFailed, err.Error())
	case errors.Is(err, pricelist.ErrParse):
		apperrors.RespondWithError(c, http.StatusUnprocessableEntity, apperrors.PriceListInvalid, err.Error())
	case errors.Is(err, storage.ErrUnsupportedFileType):
		apperrors.BadRequest(c, apperrors.UploadInvalidFileType, "Only .yaml and .yml files are allowed")

	case errors.Is(err, service.ErrOrderNotFound):
		apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
	case errors.Is(err, service.ErrInvalidStateTransition):
		apperrors.Conflict(c, apperrors.OrderInvalidTransition, "Order cannot move to this state")
	case errors.Is(err, service.ErrSharedOrder):
		apperrors.Conflict(c, apperrors.OrderShared, "Order has items of other shops and cannot be closed by one of them")
	case errors.Is(err, service.ErrContactNotFound):
		apperrors.BadRequest(c, apperrors.ContactNotFound, "Contact not found")
	case errors.Is(err, service.ErrProductInfoNotFound):
		apperrors.BadRequest(c, apperrors.ResourceNotFound, "Product not found")
	case errors.Is(err, service.ErrInvalidQuantity):
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Quantity must be at least 1")
	case errors.Is(err, service.ErrItemAlreadyInBasket):
		apperrors.Conflict(c, apperrors.ResourceAlreadyExists, "This product is already in the basket")

	default:
		middleware.GetLoggerFromContext(c).Error("Request failed", err, map[string]interface{}{
			"operation": context,
		})
		apperrors.ParseAndRespond(c, err, context)
	}
}
