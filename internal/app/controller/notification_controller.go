package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/ikkim/orders-backend/internal/app/service"
	apperrors "github.com/ikkim/orders-backend/internal/errors"
	"github.com/ikkim/orders-backend/internal/middleware"
	ws "github.com/ikkim/orders-backend/internal/websocket"
	"github.com/ikkim/orders-backend/pkg/util"
)

// NotificationController hands out websocket tickets and serves the
// notification stream.
type NotificationController struct {
	authService  service.AuthService
	hub          *ws.Hub
	ticketSecret string
	upgrader     gorillaws.Upgrader
}

func NewNotificationController(authService service.AuthService, hub *ws.Hub, ticketSecret string, allowedOrigins []string) *NotificationController {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	return &NotificationController{
		authService:  authService,
		hub:          hub,
		ticketSecret: ticketSecret,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// non-browser clients send no Origin
				return origin == "" || origins["*"] || origins[origin]
			},
		},
	}
}

// IssueTicket returns a short lived ticket for the websocket handshake.
// POST /api/v1/notifications/ticket
func (ctrl *NotificationController) IssueTicket(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		return
	}

	ticket, err := ctrl.authService.IssueTicket(principal)
	if err != nil {
		middleware.GetLoggerFromContext(c).Error("Failed to issue websocket ticket", err, map[string]interface{}{
			"user_id": principal.UserID,
		})
		apperrors.InternalError(c, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"Status": true, "Ticket": ticket})
}

// Connect upgrades to a websocket that receives the user's events.
// GET /api/v1/notifications/ws?ticket=...
func (ctrl *NotificationController) Connect(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	ticket := c.Query("ticket")
	if ticket == "" {
		apperrors.Unauthorized(c, "")
		return
	}

	claims, err := util.ValidateTicket(ticket, ctrl.ticketSecret)
	if err != nil {
		if errors.Is(err, util.ErrExpiredToken) {
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenExpired, "Ticket has expired")
			return
		}
		apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "Invalid ticket")
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		log.Warn("WebSocket upgrade failed", map[string]interface{}{
			"user_id": claims.UserID,
			"error":   err.Error(),
		})
		return
	}

	client := ws.NewClient(ctrl.hub, &ws.Conn{Conn: conn}, claims.UserID)
	ctrl.hub.Register(client)

	log.Info("WebSocket connected", map[string]interface{}{
		"user_id": claims.UserID,
	})

	go client.WritePump()
	go client.ReadPump()
}
