package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the failure envelope. Errors holds either a message or a
// map of field name to messages.
type ErrorResponse struct {
	Status bool        `json:"Status"`
	Errors interface{} `json:"Errors"`
	Code   string      `json:"Code,omitempty"`
}

// RespondWithError writes the failure envelope and aborts the chain.
func RespondWithError(c *gin.Context, statusCode int, errorCode string, errs interface{}) {
	c.AbortWithStatusJSON(statusCode, ErrorResponse{
		Status: false,
		Errors: errs,
		Code:   errorCode,
	})
}

func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Log in required"
	}
	RespondWithError(c, http.StatusUnauthorized, AuthUnauthorized, message)
}

func Forbidden(c *gin.Context, errorCode string, message string) {
	if message == "" {
		message = "Access denied"
	}
	if errorCode == "" {
		errorCode = AuthzForbidden
	}
	RespondWithError(c, http.StatusForbidden, errorCode, message)
}

func BadRequest(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusBadRequest, errorCode, message)
}

// MissingArgs reports absent required fields with the generic message.
func MissingArgs(c *gin.Context) {
	RespondWithError(c, http.StatusBadRequest, ValidationMissingArguments, MissingArguments)
}

func NotFound(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusNotFound, errorCode, message)
}

func Conflict(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusConflict, errorCode, message)
}

func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Internal server error, please try again later"
	}
	RespondWithError(c, http.StatusInternalServerError, InternalServerError, message)
}

// RespondWithValidationError reports per-field problems.
func RespondWithValidationError(c *gin.Context, fields map[string][]string) {
	RespondWithError(c, http.StatusBadRequest, ValidationInvalidInput, fields)
}
