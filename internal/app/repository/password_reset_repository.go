package repository

import (
	"time"

	"github.com/ikkim/orders-backend/internal/app/model"
	"github.com/ikkim/orders-backend/pkg/logger"
	"gorm.io/gorm"
)

type PasswordResetRepository interface {
	Create(reset *model.PasswordReset) error
	FindByToken(token string) (*model.PasswordReset, error)
	MarkAsUsed(id uint) (int64, error)
	DeleteExpired(now time.Time) (int64, error)
}

type passwordResetRepository struct {
	db *gorm.DB
}

func NewPasswordResetRepository(db *gorm.DB) PasswordResetRepository {
	return &passwordResetRepository{db: db}
}

func (r *passwordResetRepository) Create(reset *model.PasswordReset) error {
	logger.Debug("Creating password reset in database", map[string]interface{}{
		"user_id": reset.UserID,
	})

	if err := r.db.Create(reset).Error; err != nil {
		logger.Error("Failed to create password reset in database", err, map[string]interface{}{
			"user_id": reset.UserID,
		})
		return err
	}
	return nil
}

func (r *passwordResetRepository) FindByToken(token string) (*model.PasswordReset, error) {
	var reset model.PasswordReset
	if err := r.db.Where("token = ?", token).First(&reset).Error; err != nil {
		return nil, err
	}
	return &reset, nil
}

// MarkAsUsed flips used only while it is still false, so one of two concurrent
// confirmations wins.
func (r *passwordResetRepository) MarkAsUsed(id uint) (int64, error) {
	result := r.db.Model(&model.PasswordReset{}).
		Where("id = ? AND used = ?", id, false).
		Update("used", true)
	if result.Error != nil {
		logger.Error("Failed to mark password reset as used in database", result.Error, map[string]interface{}{
			"id": id,
		})
	}
	return result.RowsAffected, result.Error
}

func (r *passwordResetRepository) DeleteExpired(now time.Time) (int64, error) {
	result := r.db.Where("expires_at < ? OR used = ?", now, true).Delete(&model.PasswordReset{})
	if result.Error != nil {
		logger.Error("Failed to delete expired password resets", result.Error)
		return 0, result.Error
	}

	logger.Debug("Expired password resets deleted", map[string]interface{}{
		"count": result.RowsAffected,
	})
	return result.RowsAffected, nil
}
