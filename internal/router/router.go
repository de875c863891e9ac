package router

import (
	"github.com/gin-gonic/gin"
	"github.com/ikkim/orders-backend/config"
	"github.com/ikkim/orders-backend/internal/app/controller"
	"github.com/ikkim/orders-backend/internal/middleware"
	"github.com/ikkim/orders-backend/pkg/metrics"
)

type Router struct {
	authController         *controller.AuthController
	contactController      *controller.ContactController
	catalogController      *controller.CatalogController
	basketController       *controller.BasketController
	orderController        *controller.OrderController
	partnerController      *controller.PartnerController
	notificationController *controller.NotificationController
	authMiddleware         *middleware.AuthMiddleware
	metrics                *metrics.Metrics
	config                 *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	contactController *controller.ContactController,
	catalogController *controller.CatalogController,
	basketController *controller.BasketController,
	orderController *controller.OrderController,
	partnerController *controller.PartnerController,
	notificationController *controller.NotificationController,
	authMiddleware *middleware.AuthMiddleware,
	m *metrics.Metrics,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:         authController,
		contactController:      contactController,
		catalogController:      catalogController,
		basketController:       basketController,
		orderController:        orderController,
		partnerController:      partnerController,
		notificationController: notificationController,
		authMiddleware:         authMiddleware,
		metrics:                m,
		config:                 cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.MetricsMiddleware(r.metrics))
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "Orders API is running",
		})
	})
	if r.metrics != nil {
		router.GET("/metrics", gin.WrapH(r.metrics.Handler()))
	}

	v1 := router.Group("/api/v1")
	{
		user := v1.Group("/user")
		{
			user.POST("/register", r.authController.Register)
			user.POST("/register/confirm", r.authController.ConfirmEmail)
			user.POST("/login", r.authController.Login)
			user.POST("/password_reset", r.authController.RequestPasswordReset)
			user.POST("/password_reset/confirm", r.authController.ConfirmPasswordReset)

			user.GET("/details", r.authMiddleware.Authenticate(), r.authController.GetDetails)
			user.POST("/details", r.authMiddleware.Authenticate(), r.authController.UpdateDetails)

			contact := user.Group("/contact")
			contact.Use(r.authMiddleware.Authenticate())
			{
				contact.GET("", r.contactController.List)
				contact.POST("", r.contactController.Create)
				contact.PUT("", r.contactController.Update)
				contact.DELETE("", r.contactController.Delete)
			}
		}

		v1.GET("/categories", r.catalogController.ListCategories)
		v1.GET("/shops", r.catalogController.ListShops)
		v1.GET("/products", r.catalogController.ListProducts)

		basket := v1.Group("/basket")
		basket.Use(r.authMiddleware.Authenticate())
		{
			basket.GET("", r.basketController.Get)
			basket.POST("", r.basketController.AddItems)
			basket.PUT("", r.basketController.UpdateItems)
			basket.DELETE("", r.basketController.DeleteItems)
		}

		order := v1.Group("/order")
		order.Use(r.authMiddleware.Authenticate())
		{
			order.GET("", r.orderController.List)
			order.POST("", r.orderController.Place)
		}

		partner := v1.Group("/partner")
		partner.Use(r.authMiddleware.Authenticate(), r.authMiddleware.RequireShop())
		{
			partner.POST("/update", r.partnerController.UpdatePriceList)
			partner.POST("/upload-url", r.partnerController.UploadURL)
			partner.GET("/state", r.partnerController.GetState)
			partner.POST("/state", r.partnerController.SetState)
			partner.GET("/orders", r.partnerController.ListOrders)
			partner.PUT("/orders", r.partnerController.UpdateOrderState)
			partner.GET("/orders/export", r.partnerController.ExportOrders)
		}

		notifications := v1.Group("/notifications")
		{
			notifications.POST("/ticket", r.authMiddleware.Authenticate(), r.notificationController.IssueTicket)
			// authenticated by the ticket query parameter
			notifications.GET("/ws", r.notificationController.Connect)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
