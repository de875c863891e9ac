package repository

import (
	"time"

	"github.com/ikkim/orders-backend/internal/app/model"
	"github.com/ikkim/orders-backend/pkg/logger"
	"gorm.io/gorm"
)

type OutboxRepository interface {
	Insert(msg *model.OutboxMessage) error
	FetchPending(limit, maxAttempts int) ([]model.OutboxMessage, error)
	MarkSent(id uint, at time.Time) error
	MarkFailed(id uint, reason string) error
}

type outboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) Insert(msg *model.OutboxMessage) error {
	logger.Debug("Inserting outbox message", map[string]interface{}{
		"event_id": msg.EventID,
		"kind":     msg.Kind,
	})

	if err := r.db.Create(msg).Error; err != nil {
		logger.Error("Failed to insert outbox message", err, map[string]interface{}{
			"event_id": msg.EventID,
		})
		return err
	}
	return nil
}

// FetchPending returns unsent messages that still have attempts left, oldest
// first.
func (r *outboxRepository) FetchPending(limit, maxAttempts int) ([]model.OutboxMessage, error) {
	var msgs []model.OutboxMessage
	err := r.db.Where("sent_at IS NULL AND attempts < ?", maxAttempts).
		Order("created_at, id").
		Limit(limit).
		Find(&msgs).Error
	return msgs, err
}

func (r *outboxRepository) MarkSent(id uint, at time.Time) error {
	return r.db.Model(&model.OutboxMessage{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"sent_at":    at,
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": "",
		}).Error
}

func (r *outboxRepository) MarkFailed(id uint, reason string) error {
	return r.db.Model(&model.OutboxMessage{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": reason,
		}).Error
}
