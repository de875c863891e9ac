package repository

import (
	"github.com/ikkim/orders-backend/internal/app/model"
	"github.com/ikkim/orders-backend/pkg/logger"
	"gorm.io/gorm"
)

type ContactRepository interface {
	Create(contact *model.Contact) error
	FindByUserID(userID uint) ([]model.Contact, error)
	FindByIDAndUser(id, userID uint) (*model.Contact, error)
	Update(contact *model.Contact, fields map[string]interface{}) error
	DeleteByIDs(userID uint, ids []uint) (int64, error)
}

type contactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) ContactRepository {
	return &contactRepository{db: db}
}

func (r *contactRepository) Create(contact *model.Contact) error {
	logger.Debug("Creating contact in database", map[string]interface{}{
		"user_id": contact.UserID,
	})

	if err := r.db.Create(contact).Error; err != nil {
		logger.Error("Failed to create contact in database", err, map[string]interface{}{
			"user_id": contact.UserID,
		})
		return err
	}
	return nil
}

func (r *contactRepository) FindByUserID(userID uint) ([]model.Contact, error) {
	contacts := []model.Contact{}
	if err := r.db.Where("user_id = ?", userID).Order("id").Find(&contacts).Error; err != nil {
		logger.Error("Failed to find contacts in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return contacts, nil
}

func (r *contactRepository) FindByIDAndUser(id, userID uint) (*model.Contact, error) {
	var contact model.Contact
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&contact).Error; err != nil {
		return nil, err
	}
	return &contact, nil
}

func (r *contactRepository) Update(contact *model.Contact, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	if err := r.db.Model(contact).Updates(fields).Error; err != nil {
		logger.Error("Failed to update contact in database", err, map[string]interface{}{
			"contact_id": contact.ID,
		})
		return err
	}
	return nil
}

func (r *contactRepository) DeleteByIDs(userID uint, ids []uint) (int64, error) {
	result := r.db.Where("user_id = ? AND id IN ?", userID, ids).Delete(&model.Contact{})
	if result.Error != nil {
		logger.Error("Failed to delete contacts in database", result.Error, map[string]interface{}{
			"user_id": userID,
			"ids":     ids,
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
