package service

import (
	"errors"

	"github.com/ikkim/orders-backend/internal/app/model"
	"github.com/ikkim/orders-backend/internal/app/repository"
	"github.com/ikkim/orders-backend/pkg/logger"
	"gorm.io/gorm"
)

var ErrContactNotFound = errors.New("contact not found")

type ContactInput struct {
	City      string
	Street    string
	House     string
	Structure string
	Building  string
	Apartment string
	Phone     string
}

// ContactPatch holds the fields of a partial update. Nil fields are kept.
type ContactPatch struct {
	City      *string
	Street    *string
	House     *string
	Structure *string
	Building  *string
	Apartment *string
	Phone     *string
}

func (p ContactPatch) columns() map[string]interface{} {
	updates := map[string]interface{}{}
	for column, v := range map[string]*string{
		"city":      p.City,
		"street":    p.Street,
		"house":     p.House,
		"structure": p.Structure,
		"building":  p.Building,
		"apartment": p.Apartment,
		"phone":     p.Phone,
	} {
		if v != nil {
			updates[column] = *v
		}
	}
	return updates
}

type ContactService interface {
	List(principal model.Principal) ([]model.Contact, error)
	Create(principal model.Principal, input ContactInput) (*model.Contact, error)
	Update(principal model.Principal, id uint, patch ContactPatch) (*model.Contact, error)
	Delete(principal model.Principal, ids []uint) (int64, error)
}

type contactService struct {
	contactRepo repository.ContactRepository
}

func NewContactService(contactRepo repository.ContactRepository) ContactService {
	return &contactService{contactRepo: contactRepo}
}

func (s *contactService) List(principal model.Principal) ([]model.Contact, error) {
	return s.contactRepo.FindByUserID(principal.UserID)
}

func (s *contactService) Create(principal model.Principal, input ContactInput) (*model.Contact, error) {
	contact := &model.Contact{
		UserID:    principal.UserID,
		City:      input.City,
		Street:    input.Street,
		House:     input.House,
		Structure: input.Structure,
		Building:  input.Building,
		Apartment: input.Apartment,
		Phone:     input.Phone,
	}
	if err := s.contactRepo.Create(contact); err != nil {
		logger.Error("Failed to create contact", err, map[string]interface{}{
			"user_id": principal.UserID,
		})
		return nil, err
	}

	logger.Info("Contact created", map[string]interface{}{
		"user_id":    principal.UserID,
		"contact_id": contact.ID,
	})
	return contact, nil
}

// Update applies the set fields of patch to a contact owned by the caller.
func (s *contactService) Update(principal model.Principal, id uint, patch ContactPatch) (*model.Contact, error) {
	contact, err := s.contactRepo.FindByIDAndUser(id, principal.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, err
	}

	updates := patch.columns()
	if len(updates) == 0 {
		return contact, nil
	}

	if err := s.contactRepo.Update(contact, updates); err != nil {
		logger.Error("Failed to update contact", err, map[string]interface{}{
			"contact_id": id,
		})
		return nil, err
	}
	return s.contactRepo.FindByIDAndUser(id, principal.UserID)
}

func (s *contactService) Delete(principal model.Principal, ids []uint) (int64, error) {
	deleted, err := s.contactRepo.DeleteByIDs(principal.UserID, ids)
	if err != nil {
		logger.Error("Failed to delete contacts", err, map[string]interface{}{
			"user_id": principal.UserID,
		})
		return 0, err
	}
	return deleted, nil
}
