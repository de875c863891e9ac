package repository

import (
	"errors"

	"github.com/ikkim/orders-backend/internal/app/model"
	"github.com/ikkim/orders-backend/pkg/logger"
	"gorm.io/gorm"
)

// TokenRepository stores auth tokens and email confirmation tokens.
type TokenRepository interface {
	FindAuthTokenByUserID(userID uint) (*model.AuthToken, error)
	FindAuthToken(key string) (*model.AuthToken, error)
	CreateAuthToken(token *model.AuthToken) error
	DeleteAuthTokensByUserID(userID uint) ([]string, error)

	FindConfirmTokenByUserID(userID uint) (*model.ConfirmEmailToken, error)
	FindConfirmToken(userID uint, key string) (*model.ConfirmEmailToken, error)
	CreateConfirmToken(token *model.ConfirmEmailToken) error
	DeleteConfirmToken(id uint) (int64, error)
}

type tokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) FindAuthTokenByUserID(userID uint) (*model.AuthToken, error) {
	var token model.AuthToken
	if err := r.db.Where("user_id = ?", userID).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

// FindAuthToken loads the token with its user.
func (r *tokenRepository) FindAuthToken(key string) (*model.AuthToken, error) {
	var token model.AuthToken
	if err := r.db.Preload("User").Where("key = ?", key).First(&token).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to find auth token in database", err, nil)
		}
		return nil, err
	}
	return &token, nil
}

func (r *tokenRepository) CreateAuthToken(token *model.AuthToken) error {
	logger.Debug("Creating auth token in database", map[string]interface{}{
		"user_id": token.UserID,
	})

	if err := r.db.Create(token).Error; err != nil {
		logger.Error("Failed to create auth token in database", err, map[string]interface{}{
			"user_id": token.UserID,
		})
		return err
	}
	return nil
}

// DeleteAuthTokensByUserID removes the user's tokens and returns their keys so
// callers can evict caches.
func (r *tokenRepository) DeleteAuthTokensByUserID(userID uint) ([]string, error) {
	var keys []string
	if err := r.db.Model(&model.AuthToken{}).Where("user_id = ?", userID).Pluck("key", &keys).Error; err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}
	if err := r.db.Where("user_id = ?", userID).Delete(&model.AuthToken{}).Error; err != nil {
		logger.Error("Failed to delete auth tokens in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return keys, nil
}

func (r *tokenRepository) FindConfirmTokenByUserID(userID uint) (*model.ConfirmEmailToken, error) {
	var token model.ConfirmEmailToken
	if err := r.db.Where("user_id = ?", userID).Order("id").First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *tokenRepository) FindConfirmToken(userID uint, key string) (*model.ConfirmEmailToken, error) {
	var token model.ConfirmEmailToken
	if err := r.db.Where("user_id = ? AND key = ?", userID, key).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *tokenRepository) CreateConfirmToken(token *model.ConfirmEmailToken) error {
	logger.Debug("Creating confirm email token in database", map[string]interface{}{
		"user_id": token.UserID,
	})

	if err := r.db.Create(token).Error; err != nil {
		logger.Error("Failed to create confirm email token in database", err, map[string]interface{}{
			"user_id": token.UserID,
		})
		return err
	}
	return nil
}

// DeleteConfirmToken returns the number of deleted rows, zero when a
// concurrent confirmation consumed the token first.
func (r *tokenRepository) DeleteConfirmToken(id uint) (int64, error) {
	result := r.db.Delete(&model.ConfirmEmailToken{}, id)
	return result.RowsAffected, result.Error
}
