package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/orders-backend/config"
	"github.com/ikkim/orders-backend/internal/app/controller"
	"github.com/ikkim/orders-backend/internal/app/repository"
	"github.com/ikkim/orders-backend/internal/app/service"
	"github.com/ikkim/orders-backend/internal/db"
	"github.com/ikkim/orders-backend/internal/middleware"
	"github.com/ikkim/orders-backend/internal/pricelist"
	"github.com/ikkim/orders-backend/internal/router"
	"github.com/ikkim/orders-backend/internal/scheduler"
	"github.com/ikkim/orders-backend/internal/storage"
	ws "github.com/ikkim/orders-backend/internal/websocket"
	"github.com/ikkim/orders-backend/pkg/logger"
	"github.com/ikkim/orders-backend/pkg/mailer"
	"github.com/ikkim/orders-backend/pkg/metrics"
	"github.com/ikkim/orders-backend/pkg/redis"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logger.Initialize(logger.Config{
		Level:       cfg.Server.LogLevel,
		Format:      cfg.Server.LogFormat,
		EnableColor: cfg.Server.LogFormat == "console",
	})

	logger.Info("Starting orders backend", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   cfg.Server.LogLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Redis backs the token cache and the cross-process locks. Without it
	// locks are process local and tokens are always read from the database.
	var (
		cache  service.TokenCache
		locker service.Locker = redis.NewLocalLocker()
	)
	if cfg.Redis.Enabled() {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Fatal("Failed to initialize Redis", err)
		}
		defer redis.Close()
		cache = redis.NewTokenCache(redis.GetClient(), cfg.Redis.TokenTTL)
		locker = redis.NewLocker(redis.GetClient(), cfg.PriceList.LockTTL)
	} else {
		logger.Warn("Redis is not configured, using in-process locks", nil)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	sender, err := mailer.New(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize mail sender", err)
	}
	defer sender.Close()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	hub := ws.NewHub()
	go hub.Run(ctx)

	// Initialize repositories
	database := db.GetDB()
	userRepo := repository.NewUserRepository(database)
	tokenRepo := repository.NewTokenRepository(database)
	resetRepo := repository.NewPasswordResetRepository(database)
	contactRepo := repository.NewContactRepository(database)
	shopRepo := repository.NewShopRepository(database)
	catalogRepo := repository.NewCatalogRepository(database)
	orderRepo := repository.NewOrderRepository(database)
	outboxRepo := repository.NewOutboxRepository(database)

	// Initialize services
	notificationService := service.NewNotificationService(
		outboxRepo,
		sender,
		hub,
		locker,
		m,
		cfg.Notification.BatchSize,
		cfg.Notification.MaxAttempts,
	)
	authService := service.NewAuthService(
		database,
		userRepo,
		tokenRepo,
		notificationService,
		cache,
		cfg.Notification.EmailEnabled,
		cfg.Auth.TicketSecret,
		cfg.Auth.TicketExpiry,
	)
	passwordResetService := service.NewPasswordResetService(
		database,
		resetRepo,
		userRepo,
		tokenRepo,
		notificationService,
		cache,
		cfg.Auth.ResetExpiry,
	)
	contactService := service.NewContactService(contactRepo)
	catalogService := service.NewCatalogService(catalogRepo, shopRepo)
	importService := service.NewImportService(
		database,
		shopRepo,
		pricelist.NewFetcher(cfg.PriceList.FetchTimeout, cfg.PriceList.MaxBytes),
		locker,
		m,
	)
	basketService := service.NewBasketService(orderRepo, catalogRepo)
	orderService := service.NewOrderService(orderRepo, contactRepo, notificationService)
	partnerService := service.NewPartnerService(shopRepo, orderRepo, notificationService)

	var uploader controller.PriceListUploader
	if cfg.S3.Enabled() {
		uploader = storage.NewS3Storage(cfg.S3.Region, cfg.S3.Bucket, cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, cfg.S3.BaseURL)
	} else {
		logger.Warn("S3 is not configured, price list uploads are disabled", nil)
	}

	// Initialize controllers
	authController := controller.NewAuthController(authService, passwordResetService)
	contactController := controller.NewContactController(contactService)
	catalogController := controller.NewCatalogController(catalogService)
	basketController := controller.NewBasketController(basketService)
	orderController := controller.NewOrderController(orderService)
	partnerController := controller.NewPartnerController(importService, partnerService, uploader)
	notificationController := controller.NewNotificationController(authService, hub, cfg.Auth.TicketSecret, cfg.CORS.AllowedOrigins)

	authMiddleware := middleware.NewAuthMiddleware(authService)

	r := router.NewRouter(
		authController,
		contactController,
		catalogController,
		basketController,
		orderController,
		partnerController,
		notificationController,
		authMiddleware,
		m,
		cfg,
	)

	jobs := scheduler.NewScheduler(notificationService, importService, cfg.Scheduler.OutboxSpec, cfg.Scheduler.RefreshSpec)
	if err := jobs.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	jobs.Stop()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	logger.Info("Server stopped successfully")
}
