package controller

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/ikkim/orders-backend/internal/app/model"
	apperrors "github.com/ikkim/orders-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkoutFixture struct {
	env      *testEnv
	buyer    *model.User
	token    string
	shopUser *model.User
	contact  *model.Contact
	basketID uint
}

func setupCheckout(t *testing.T) *checkoutFixture {
	env := setupControllerTest(t, nil)
	shopUser, _ := env.createUser(t, "shop@example.com", model.UserTypeShop)
	buyer, token := env.createUser(t, "buyer@example.com", model.UserTypeBuyer)
	phone := env.createOffer(t, shopUser, "Phone", 100)

	w := env.do(t, http.MethodPost, "/api/v1/basket", token, map[string]interface{}{
		"items": []map[string]interface{}{{"product_info": phone.ID, "quantity": 3}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var basket model.Order
	require.NoError(t, env.db.Where("user_id = ? AND state = ?", buyer.ID, model.OrderStateBasket).First(&basket).Error)

	return &checkoutFixture{
		env:      env,
		buyer:    buyer,
		token:    token,
		shopUser: shopUser,
		contact:  env.createContact(t, buyer.ID),
		basketID: basket.ID,
	}
}

func TestOrderController_Place(t *testing.T) {
	f := setupCheckout(t)

	w := f.env.do(t, http.MethodPost, "/api/v1/order", f.token, map[string]interface{}{
		"id":      fmt.Sprint(f.basketID),
		"contact": f.contact.ID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["Status"])
	assert.NotContains(t, body, "Notification")

	w = f.env.do(t, http.MethodGet, "/api/v1/order", f.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	orders := decode(t, w)["Orders"].([]interface{})
	require.Len(t, orders, 1)
	order := orders[0].(map[string]interface{})
	assert.Equal(t, string(model.OrderStateNew), order["state"])
	assert.Equal(t, float64(300), order["total_sum"])
	assert.NotNil(t, order["contact"])

	var outbox int64
	require.NoError(t, f.env.db.Model(&model.OutboxMessage{}).Where("kind = ?", model.OutboxKindOrderPlaced).Count(&outbox).Error)
	assert.Equal(t, int64(1), outbox)

	// the basket is gone, a second checkout matches nothing
	w = f.env.do(t, http.MethodPost, "/api/v1/order", f.token, map[string]interface{}{
		"id":      fmt.Sprint(f.basketID),
		"contact": f.contact.ID,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrderController_PlaceValidation(t *testing.T) {
	f := setupCheckout(t)
	stranger, strangerToken := f.env.createUser(t, "stranger@example.com", model.UserTypeBuyer)
	foreignContact := f.env.createContact(t, stranger.ID)

	tests := []struct {
		name       string
		token      string
		body       map[string]interface{}
		wantStatus int
		wantCode   string
	}{
		{"missing contact", f.token, map[string]interface{}{"id": fmt.Sprint(f.basketID)}, http.StatusBadRequest, apperrors.ValidationMissingArguments},
		{"non numeric id", f.token, map[string]interface{}{"id": "12a", "contact": f.contact.ID}, http.StatusBadRequest, apperrors.ValidationInvalidInput},
		{"foreign contact", f.token, map[string]interface{}{"id": fmt.Sprint(f.basketID), "contact": foreignContact.ID}, http.StatusBadRequest, apperrors.ContactNotFound},
		{"someone else's basket", strangerToken, map[string]interface{}{"id": fmt.Sprint(f.basketID), "contact": foreignContact.ID}, http.StatusNotFound, apperrors.OrderNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.env.do(t, http.MethodPost, "/api/v1/order", tt.token, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.wantCode, decode(t, w)["Code"])
		})
	}

	var basket model.Order
	require.NoError(t, f.env.db.First(&basket, f.basketID).Error)
	assert.Equal(t, model.OrderStateBasket, basket.State)
}
