package db

import (
	"github.com/ikkim/orders-backend/internal/app/model"
	"github.com/ikkim/orders-backend/pkg/logger"
	"gorm.io/gorm"
)

// Models lists every table in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.AuthToken{},
		&model.ConfirmEmailToken{},
		&model.PasswordReset{},
		&model.Contact{},
		&model.Shop{},
		&model.Category{},
		&model.Product{},
		&model.Parameter{},
		&model.ProductInfo{},
		&model.ProductParameter{},
		&model.Order{},
		&model.OrderItem{},
		&model.OutboxMessage{},
	}
}

// Migrate runs database migrations on the global connection
func Migrate() error {
	return MigrateDB(DB)
}

// MigrateDB runs AutoMigrate for every model on the given connection.
func MigrateDB(db *gorm.DB) error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := db.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}
