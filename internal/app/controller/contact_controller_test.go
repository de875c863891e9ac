package controller

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/ikkim/orders-backend/internal/app/model"
	apperrors "github.com/ikkim/orders-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactController_CRUD(t *testing.T) {
	env := setupControllerTest(t, nil)
	_, token := env.createUser(t, "buyer@example.com", model.UserTypeBuyer)

	w := env.do(t, http.MethodPost, "/api/v1/user/contact", token, map[string]string{
		"city": "Kazan", "street": "Baumana", "house": "5", "phone": "+79991112233",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	created := decode(t, w)["Contact"].(map[string]interface{})
	id := created["id"].(float64)

	w = env.do(t, http.MethodPut, "/api/v1/user/contact", token, map[string]interface{}{
		"id": fmt.Sprint(id), "apartment": "12", "user_id": 999,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode(t, w)["Contact"].(map[string]interface{})
	assert.Equal(t, "12", updated["apartment"])
	assert.Equal(t, "Kazan", updated["city"])

	w = env.do(t, http.MethodGet, "/api/v1/user/contact", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["Contacts"], 1)

	w = env.do(t, http.MethodDelete, "/api/v1/user/contact", token, map[string]string{
		"items": fmt.Sprintf("%d,abc", int(id)),
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["Deleted"])
	assert.Equal(t, int64(0), countRows(t, env.db, &model.Contact{}))
}

func TestContactController_Validation(t *testing.T) {
	env := setupControllerTest(t, nil)
	stranger, _ := env.createUser(t, "stranger@example.com", model.UserTypeBuyer)
	buyer, token := env.createUser(t, "buyer@example.com", model.UserTypeBuyer)
	foreign := env.createContact(t, stranger.ID)
	own := env.createContact(t, buyer.ID)

	tests := []struct {
		name       string
		method     string
		body       interface{}
		wantStatus int
		wantCode   string
	}{
		{"create without phone", http.MethodPost, map[string]string{"city": "Kazan", "street": "Baumana"}, http.StatusBadRequest, apperrors.ValidationMissingArguments},
		{"create with long house", http.MethodPost, map[string]string{"city": "Kazan", "street": "Baumana", "phone": "1", "house": "1234567890123456"}, http.StatusBadRequest, apperrors.ValidationInvalidInput},
		{"update without id", http.MethodPut, map[string]string{"city": "Kazan"}, http.StatusBadRequest, apperrors.ValidationMissingArguments},
		{"update with bad id", http.MethodPut, map[string]string{"id": "x1", "city": "Kazan"}, http.StatusBadRequest, apperrors.ValidationInvalidInput},
		{"update with blank phone", http.MethodPut, map[string]interface{}{"id": own.ID, "phone": ""}, http.StatusBadRequest, apperrors.ValidationInvalidInput},
		{"update with numeric city", http.MethodPut, map[string]interface{}{"id": own.ID, "city": 12345}, http.StatusBadRequest, apperrors.ValidationInvalidInput},
		{"update with long street", http.MethodPut, map[string]interface{}{"id": own.ID, "street": strings.Repeat("s", 500)}, http.StatusBadRequest, apperrors.ValidationInvalidInput},
		{"update foreign contact", http.MethodPut, map[string]interface{}{"id": foreign.ID, "city": "Kazan"}, http.StatusNotFound, apperrors.ContactNotFound},
		{"delete without items", http.MethodDelete, map[string]string{}, http.StatusBadRequest, apperrors.ValidationMissingArguments},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, tt.method, "/api/v1/user/contact", token, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.wantCode, decode(t, w)["Code"])
		})
	}

	var stored model.Contact
	require.NoError(t, env.db.First(&stored, own.ID).Error)
	assert.Equal(t, own.City, stored.City)
	assert.Equal(t, own.Street, stored.Street)
	assert.Equal(t, own.Phone, stored.Phone)

	w := env.do(t, http.MethodDelete, "/api/v1/user/contact", token, map[string]string{"items": fmt.Sprint(foreign.ID)})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["Deleted"])
}
