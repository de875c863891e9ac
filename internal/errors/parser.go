package errors

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ErrorInfo is a database or transport error translated for the caller.
type ErrorInfo struct {
	Status  int
	Code    string
	Message string
}

// ParseError classifies err without exposing the driver message. context names
// the operation, e.g. "add basket item".
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{http.StatusInternalServerError, InternalServerError, "Internal server error"}
	}

	lower := strings.ToLower(err.Error())

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrorInfo{http.StatusNotFound, ResourceNotFound, notFoundMessage(context)}

	// postgres 23505, sqlite "UNIQUE constraint failed"
	case errors.Is(err, gorm.ErrDuplicatedKey),
		strings.Contains(lower, "duplicate key"),
		strings.Contains(lower, "unique constraint"):
		return parseDuplicateKeyError(lower)

	// postgres 23503, sqlite "FOREIGN KEY constraint failed"
	case errors.Is(err, gorm.ErrForeignKeyViolated),
		strings.Contains(lower, "foreign key constraint"):
		return ErrorInfo{http.StatusBadRequest, ResourceNotFound, "Referenced object does not exist"}

	case strings.Contains(lower, "not-null constraint"),
		strings.Contains(lower, "not null constraint"):
		return ErrorInfo{http.StatusBadRequest, ValidationRequired, "A required field is empty"}

	case strings.Contains(lower, "check constraint"):
		return ErrorInfo{http.StatusBadRequest, ValidationInvalidInput, "Value out of allowed range"}

	case strings.Contains(lower, "connection refused"),
		strings.Contains(lower, "no such host"),
		strings.Contains(lower, "timeout"):
		return ErrorInfo{http.StatusBadGateway, InternalExternalAPI, "External service is unavailable, please try again later"}
	}

	return ErrorInfo{http.StatusInternalServerError, InternalServerError, defaultMessage(context)}
}

func parseDuplicateKeyError(lower string) ErrorInfo {
	switch {
	case strings.Contains(lower, "email"):
		return ErrorInfo{http.StatusConflict, AuthEmailAlreadyExists, "User with this email already exists"}
	case strings.Contains(lower, "order_item"):
		return ErrorInfo{http.StatusConflict, ResourceAlreadyExists, "This product is already in the basket"}
	case strings.Contains(lower, "one_basket") || strings.Contains(lower, "orders.user_id"):
		return ErrorInfo{http.StatusConflict, ResourceConflict, "Basket already exists"}
	case strings.Contains(lower, "product_info"):
		return ErrorInfo{http.StatusConflict, ResourceAlreadyExists, "Duplicate product in price list"}
	case strings.Contains(lower, "product_parameter"):
		return ErrorInfo{http.StatusConflict, ResourceAlreadyExists, "Duplicate parameter for product"}
	}
	return ErrorInfo{http.StatusConflict, ResourceAlreadyExists, "Object already exists"}
}

func notFoundMessage(context string) string {
	lower := strings.ToLower(context)
	switch {
	case strings.Contains(lower, "shop"):
		return "Shop not found"
	case strings.Contains(lower, "user"):
		return "User not found"
	case strings.Contains(lower, "contact"):
		return "Contact not found"
	case strings.Contains(lower, "order"), strings.Contains(lower, "basket"):
		return "Order not found"
	case strings.Contains(lower, "product"):
		return "Product not found"
	}
	return "Requested object not found"
}

func defaultMessage(context string) string {
	if context == "" {
		return "Internal server error, please try again later"
	}
	return "Failed to " + context + ", please try again later"
}

// IsDuplicateKey reports whether err is a unique constraint violation.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "duplicate key") || strings.Contains(lower, "unique constraint")
}

// ParseAndRespond translates err and writes the failure envelope.
func ParseAndRespond(c *gin.Context, err error, context string) {
	info := ParseError(err, context)
	RespondWithError(c, info.Status, info.Code, info.Message)
}
