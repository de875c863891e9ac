package middleware

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/orders-backend/internal/app/model"
	"github.com/ikkim/orders-backend/internal/app/service"
	"github.com/ikkim/orders-backend/internal/errors"
)

// PrincipalKey is the context key of the authenticated model.Principal.
const PrincipalKey = "principal"

// Authenticator resolves an auth token to its principal.
type Authenticator interface {
	Authenticate(ctx context.Context, key string) (*model.Principal, error)
}

type AuthMiddleware struct {
	auth Authenticator
}

func NewAuthMiddleware(auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// tokenFromHeader accepts "Token <key>" and "Bearer <key>".
func tokenFromHeader(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return "", false
	}
	switch strings.ToLower(parts[0]) {
	case "token", "bearer":
		return parts[1], true
	}
	return "", false
}

// Authenticate requires a valid auth token.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		header := c.GetHeader("Authorization")
		if header == "" {
			log.Debug("Missing authorization header", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.Unauthorized(c, "")
			return
		}

		key, ok := tokenFromHeader(header)
		if !ok {
			log.Warn("Invalid authorization header format", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.Unauthorized(c, "")
			return
		}

		principal, err := m.auth.Authenticate(c.Request.Context(), key)
		if err != nil {
			switch {
			case stderrors.Is(err, service.ErrInvalidAuthToken):
				log.Warn("Unknown auth token", map[string]interface{}{
					"path": c.Request.URL.Path,
				})
				errors.Unauthorized(c, "")
			case stderrors.Is(err, service.ErrInactiveUser):
				errors.Forbidden(c, errors.AuthzForbidden, "User is not active")
			default:
				log.Error("Token lookup failed", err, map[string]interface{}{
					"path": c.Request.URL.Path,
				})
				errors.InternalError(c, "")
			}
			return
		}

		c.Set(PrincipalKey, *principal)
		log.Debug("User authenticated successfully", map[string]interface{}{
			"user_id": principal.UserID,
			"type":    principal.Type,
		})
		c.Next()
	}
}

// RequireShop rejects callers that are not shop-type users.
func (m *AuthMiddleware) RequireShop() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			errors.Unauthorized(c, "")
			return
		}
		if !principal.IsShop() {
			GetLoggerFromContext(c).Warn("Partner endpoint called by a buyer", map[string]interface{}{
				"user_id": principal.UserID,
				"path":    c.Request.URL.Path,
			})
			errors.Forbidden(c, errors.AuthzShopOnly, "Only for shops")
			return
		}
		c.Next()
	}
}

// GetPrincipal returns the caller set by Authenticate.
func GetPrincipal(c *gin.Context) (model.Principal, bool) {
	v, exists := c.Get(PrincipalKey)
	if !exists {
		return model.Principal{}, false
	}
	p, ok := v.(model.Principal)
	return p, ok
}

// MustPrincipal is GetPrincipal for handlers mounted behind Authenticate. It
// writes the 401 itself when the principal is missing.
func MustPrincipal(c *gin.Context) (model.Principal, bool) {
	p, ok := GetPrincipal(c)
	if !ok {
		errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthUnauthorized, "Log in required")
	}
	return p, ok
}
