package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ikkim/orders-backend/config"
	"github.com/ikkim/orders-backend/internal/app/repository"
	"github.com/ikkim/orders-backend/internal/app/service"
	"github.com/ikkim/orders-backend/internal/db"
	"github.com/ikkim/orders-backend/internal/pricelist"
	"github.com/ikkim/orders-backend/pkg/logger"
	"github.com/ikkim/orders-backend/pkg/redis"
)

// seed imports a local price list file for an existing shop user.
//
//	go run ./cmd/seed -file data/shop1.yaml -email shop@example.com
func main() {
	file := flag.String("file", "", "path to a YAML price list")
	email := flag.String("email", "", "email of the shop user that owns the price list")
	flag.Parse()

	if *file == "" || *email == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}
	logger.Initialize(logger.Config{Level: cfg.Server.LogLevel, Format: "console", EnableColor: true})

	data, err := os.ReadFile(*file)
	if err != nil {
		logger.Fatal("Failed to read price list", err, map[string]interface{}{"file": *file})
	}
	doc, err := pricelist.Parse(data)
	if err != nil {
		logger.Fatal("Failed to parse price list", err, map[string]interface{}{"file": *file})
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to connect to database", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	userRepo := repository.NewUserRepository(db.GetDB())
	user, err := userRepo.FindByEmail(strings.ToLower(*email))
	if err != nil {
		logger.Fatal("Shop user not found", err, map[string]interface{}{"email": *email})
	}
	if !user.IsShop() {
		logger.Fatal("User is not a shop", service.ErrShopOnly, map[string]interface{}{"email": *email})
	}

	importService := service.NewImportService(
		db.GetDB(),
		repository.NewShopRepository(db.GetDB()),
		pricelist.NewFetcher(cfg.PriceList.FetchTimeout, cfg.PriceList.MaxBytes),
		redis.NewLocalLocker(),
		nil,
	)

	result, err := importService.ImportDocument(context.Background(), user.ID, doc, "")
	if err != nil {
		logger.Fatal("Failed to import price list", err)
	}

	fmt.Printf("Imported %d categories, %d goods and %d parameters into shop %d\n",
		result.Categories, result.Goods, result.Parameters, result.ShopID)
}
