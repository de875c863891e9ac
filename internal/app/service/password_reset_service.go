package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ikkim/orders-backend/internal/app/model"
	"github.com/ikkim/orders-backend/internal/app/repository"
	"github.com/ikkim/orders-backend/pkg/logger"
	"github.com/ikkim/orders-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
	ErrResetTokenExpired = errors.New("reset token has expired")
	ErrResetTokenUsed    = errors.New("reset token has already been used")
)

type PasswordResetService interface {
	RequestReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type passwordResetService struct {
	db            *gorm.DB
	resetRepo     repository.PasswordResetRepository
	userRepo      repository.UserRepository
	tokenRepo     repository.TokenRepository
	notifications NotificationService
	cache         TokenCache
	expiry        time.Duration
}

func NewPasswordResetService(
	db *gorm.DB,
	resetRepo repository.PasswordResetRepository,
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
	notifications NotificationService,
	cache TokenCache,
	expiry time.Duration,
) PasswordResetService {
	return &passwordResetService{
		db:            db,
		resetRepo:     resetRepo,
		userRepo:      userRepo,
		tokenRepo:     tokenRepo,
		notifications: notifications,
		cache:         cache,
		expiry:        expiry,
	}
}

// RequestReset queues a reset token email. Unknown emails succeed silently.
func (s *passwordResetService) RequestReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	logger.Info("Processing password reset request", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Password reset requested for non-existent email", map[string]interface{}{
				"email": email,
			})
			return nil
		}
		logger.Error("Failed to find user for password reset", err, map[string]interface{}{
			"email": email,
		})
		return err
	}

	token, err := util.GenerateKey(util.ResetTokenBytes)
	if err != nil {
		logger.Error("Failed to generate reset token", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return err
	}

	reset := &model.PasswordReset{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(s.expiry),
	}
	if err := s.resetRepo.Create(reset); err != nil {
		logger.Error("Failed to create password reset record", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return err
	}

	if err := s.notifications.SendPasswordReset(user, reset); err != nil {
		logger.Error("Failed to queue password reset email", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return err
	}

	if n, err := s.resetRepo.DeleteExpired(time.Now()); err == nil && n > 0 {
		logger.Debug("Expired password resets removed", map[string]interface{}{
			"count": n,
		})
	}

	logger.Info("Password reset token created", map[string]interface{}{
		"user_id":    user.ID,
		"expires_at": reset.ExpiresAt,
	})
	return nil
}

func (s *passwordResetService) ResetPassword(ctx context.Context, token, newPassword string) error {
	reset, err := s.resetRepo.FindByToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Password reset with unknown token", nil)
			return ErrInvalidResetToken
		}
		return err
	}
	if reset.Used {
		return ErrResetTokenUsed
	}
	if reset.Expired(time.Now()) {
		return ErrResetTokenExpired
	}

	user, err := s.userRepo.FindByID(reset.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}

	if problems := util.ValidatePasswordStrength(newPassword, user.Email, user.FirstName, user.LastName); len(problems) > 0 {
		return &PasswordPolicyError{Problems: problems}
	}

	hashed, err := util.HashPassword(newPassword)
	if err != nil {
		return err
	}

	var revoked []string
	err = s.db.Transaction(func(tx *gorm.DB) error {
		rows, err := repository.NewPasswordResetRepository(tx).MarkAsUsed(reset.ID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrResetTokenUsed
		}
		if err := repository.NewUserRepository(tx).UpdatePassword(user.ID, hashed); err != nil {
			return err
		}
		// existing sessions end with the old password
		revoked, err = repository.NewTokenRepository(tx).DeleteAuthTokensByUserID(user.ID)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrResetTokenUsed) {
			logger.Error("Failed to reset password", err, map[string]interface{}{
				"user_id": user.ID,
			})
		}
		return err
	}

	if s.cache != nil {
		for _, key := range revoked {
			_ = s.cache.Delete(ctx, key)
		}
	}

	logger.Info("Password reset successfully", map[string]interface{}{
		"user_id": user.ID,
	})
	return nil
}
