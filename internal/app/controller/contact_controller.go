package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/orders-backend/internal/app/service"
	apperrors "github.com/ikkim/orders-backend/internal/errors"
	"github.com/ikkim/orders-backend/internal/middleware"
	"github.com/ikkim/orders-backend/pkg/util"
)

type ContactController struct {
	contactService service.ContactService
}

func NewContactController(contactService service.ContactService) *ContactController {
	return &ContactController{contactService: contactService}
}

type CreateContactRequest struct {
	City      string `json:"city" binding:"required,max=50"`
	Street    string `json:"street" binding:"required,max=100"`
	House     string `json:"house" binding:"max=15"`
	Structure string `json:"structure" binding:"max=15"`
	Building  string `json:"building" binding:"max=15"`
	Apartment string `json:"apartment" binding:"max=15"`
	Phone     string `json:"phone" binding:"required,max=20"`
}

// UpdateContactRequest is a partial update: nil fields are left unchanged.
type UpdateContactRequest struct {
	ID        interface{} `json:"id"`
	City      *string     `json:"city" binding:"omitempty,max=50"`
	Street    *string     `json:"street" binding:"omitempty,max=100"`
	House     *string     `json:"house" binding:"omitempty,max=15"`
	Structure *string     `json:"structure" binding:"omitempty,max=15"`
	Building  *string     `json:"building" binding:"omitempty,max=15"`
	Apartment *string     `json:"apartment" binding:"omitempty,max=15"`
	Phone     *string     `json:"phone" binding:"omitempty,max=20"`
}

// blankFields lists the required columns the request would clear.
func (r *UpdateContactRequest) blankFields() map[string][]string {
	fields := map[string][]string{}
	for name, v := range map[string]*string{"city": r.City, "street": r.Street, "phone": r.Phone} {
		if v != nil && strings.TrimSpace(*v) == "" {
			fields[name] = []string{"This field may not be blank."}
		}
	}
	return fields
}

// ItemsRequest carries a comma separated id list, e.g. "1,2,3".
type ItemsRequest struct {
	Items string `json:"items" binding:"required"`
}

// GET /api/v1/user/contact
func (ctrl *ContactController) List(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		return
	}

	contacts, err := ctrl.contactService.List(principal)
	if err != nil {
		respondServiceError(c, err, "list contacts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"Status": true, "Contacts": contacts})
}

// POST /api/v1/user/contact
func (ctrl *ContactController) Create(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		return
	}

	var req CreateContactRequest
	if !bindJSON(c, &req) {
		return
	}

	contact, err := ctrl.contactService.Create(principal, service.ContactInput{
		City:      req.City,
		Street:    req.Street,
		House:     req.House,
		Structure: req.Structure,
		Building:  req.Building,
		Apartment: req.Apartment,
		Phone:     req.Phone,
	})
	if err != nil {
		respondServiceError(c, err, "create contact")
		return
	}
	c.JSON(http.StatusOK, gin.H{"Status": true, "Contact": contact})
}

// Update changes the given fields of one contact; "id" selects it.
// PUT /api/v1/user/contact
func (ctrl *ContactController) Update(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		return
	}

	var req UpdateContactRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.ID == nil {
		apperrors.MissingArgs(c)
		return
	}
	id, valid := util.AsUint(req.ID)
	if !valid {
		apperrors.RespondWithValidationError(c, map[string][]string{"id": {"A valid integer is required."}})
		return
	}
	if blank := req.blankFields(); len(blank) > 0 {
		apperrors.RespondWithValidationError(c, blank)
		return
	}

	contact, err := ctrl.contactService.Update(principal, id, service.ContactPatch{
		City:      req.City,
		Street:    req.Street,
		House:     req.House,
		Structure: req.Structure,
		Building:  req.Building,
		Apartment: req.Apartment,
		Phone:     req.Phone,
	})
	if err != nil {
		if errors.Is(err, service.ErrContactNotFound) {
			apperrors.NotFound(c, apperrors.ContactNotFound, "Contact not found")
			return
		}
		respondServiceError(c, err, "update contact")
		return
	}
	c.JSON(http.StatusOK, gin.H{"Status": true, "Contact": contact})
}

// DELETE /api/v1/user/contact
func (ctrl *ContactController) Delete(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		return
	}

	ids, ok := bindIDList(c)
	if !ok {
		return
	}

	deleted, err := ctrl.contactService.Delete(principal, ids)
	if err != nil {
		respondServiceError(c, err, "delete contacts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"Status": true, "Deleted": deleted})
}

// bindIDList reads {"items": "1,2,3"} and keeps the numeric ids. An empty
// result is reported as missing arguments.
func bindIDList(c *gin.Context) ([]uint, bool) {
	var req ItemsRequest
	if !bindJSON(c, &req) {
		return nil, false
	}
	ids := util.ParseIDList(req.Items)
	if len(ids) == 0 {
		apperrors.MissingArgs(c)
		return nil, false
	}
	return ids, true
}
