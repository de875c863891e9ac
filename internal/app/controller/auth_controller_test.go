package controller

import (
	"net/http"
	"strings"
	"testing"

	"github.com/ikkim/orders-backend/internal/app/model"
	apperrors "github.com/ikkim/orders-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerBody(email string) map[string]interface{} {
	return map[string]interface{}{
		"first_name": "Anna",
		"last_name":  "Smirnova",
		"email":      email,
		"password":   strongPassword,
		"company":    "Acme",
		"position":   "Manager",
	}
}

func TestAuthController_RegisterConfirmLogin(t *testing.T) {
	env := setupControllerTest(t, nil)

	w := env.do(t, http.MethodPost, "/api/v1/user/register", "", registerBody("Anna@Example.com"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["Status"])
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	// not active yet
	w = env.do(t, http.MethodPost, "/api/v1/user/login", "", map[string]string{
		"email": "anna@example.com", "password": strongPassword,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/user/register/confirm", "", map[string]string{
		"email": "anna@example.com", "token": token,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/v1/user/register/confirm", "", map[string]string{
		"email": "anna@example.com", "token": token,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "token is single use")

	w = env.do(t, http.MethodPost, "/api/v1/user/login", "", map[string]string{
		"email": "anna@example.com", "password": strongPassword,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decode(t, w)["Token"]
	assert.NotEmpty(t, first)

	w = env.do(t, http.MethodPost, "/api/v1/user/login", "", map[string]string{
		"email": "anna@example.com", "password": strongPassword,
	})
	assert.Equal(t, first, decode(t, w)["Token"], "login reuses the existing token")
}

func TestAuthController_RegisterValidation(t *testing.T) {
	env := setupControllerTest(t, nil)
	env.createUser(t, "taken@example.com", model.UserTypeBuyer)

	tests := []struct {
		name       string
		body       func() map[string]interface{}
		wantStatus int
		check      func(t *testing.T, body map[string]interface{})
	}{
		{
			name: "missing company",
			body: func() map[string]interface{} {
				b := registerBody("new@example.com")
				delete(b, "company")
				return b
			},
			wantStatus: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, apperrors.MissingArguments, body["Errors"])
			},
		},
		{
			name: "weak password",
			body: func() map[string]interface{} {
				b := registerBody("new@example.com")
				b["password"] = "12345"
				return b
			},
			wantStatus: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]interface{}) {
				errs, ok := body["Errors"].(map[string]interface{})
				require.True(t, ok)
				assert.NotEmpty(t, errs["password"])
				assert.Equal(t, apperrors.AuthWeakPassword, body["Code"])
			},
		},
		{
			name: "password longer than bcrypt accepts",
			body: func() map[string]interface{} {
				b := registerBody("long@example.com")
				b["password"] = "Str0ng!" + strings.Repeat("x", 80)
				return b
			},
			wantStatus: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]interface{}) {
				errs, ok := body["Errors"].(map[string]interface{})
				require.True(t, ok)
				assert.Len(t, errs["password"], 1)
				assert.Equal(t, apperrors.AuthWeakPassword, body["Code"])
			},
		},
		{
			name: "invalid email",
			body: func() map[string]interface{} {
				return registerBody("not-an-email")
			},
			wantStatus: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]interface{}) {
				errs, ok := body["Errors"].(map[string]interface{})
				require.True(t, ok)
				assert.Contains(t, errs, "email")
			},
		},
		{
			name: "unknown type",
			body: func() map[string]interface{} {
				b := registerBody("new@example.com")
				b["type"] = "admin"
				return b
			},
			wantStatus: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]interface{}) {
				errs, ok := body["Errors"].(map[string]interface{})
				require.True(t, ok)
				assert.Contains(t, errs, "type")
			},
		},
		{
			name: "duplicate email",
			body: func() map[string]interface{} {
				return registerBody("TAKEN@example.com")
			},
			wantStatus: http.StatusConflict,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, apperrors.AuthEmailAlreadyExists, body["Code"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/v1/user/register", "", tt.body())
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			body := decode(t, w)
			assert.Equal(t, false, body["Status"])
			tt.check(t, body)
		})
	}

	assert.Equal(t, int64(1), countRows(t, env.db, &model.User{}), "only the pre-existing user")
}

func TestAuthController_LoginFailuresAreGeneric(t *testing.T) {
	env := setupControllerTest(t, nil)
	env.createUser(t, "buyer@example.com", model.UserTypeBuyer)

	wrongPassword := env.do(t, http.MethodPost, "/api/v1/user/login", "", map[string]string{
		"email": "buyer@example.com", "password": "wrong-password",
	})
	unknownUser := env.do(t, http.MethodPost, "/api/v1/user/login", "", map[string]string{
		"email": "ghost@example.com", "password": strongPassword,
	})

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownUser.Code)
	assert.Equal(t, decode(t, wrongPassword)["Errors"], decode(t, unknownUser)["Errors"])
}

func TestAuthController_Details(t *testing.T) {
	env := setupControllerTest(t, nil)
	_, token := env.createUser(t, "buyer@example.com", model.UserTypeBuyer)

	w := env.do(t, http.MethodGet, "/api/v1/user/details", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Log in required", decode(t, w)["Errors"])

	w = env.do(t, http.MethodPost, "/api/v1/user/details", token, map[string]string{
		"company": "Globex",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/v1/user/details", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	user := decode(t, w)["User"].(map[string]interface{})
	assert.Equal(t, "Globex", user["company"])
	assert.Equal(t, "Ivan", user["first_name"], "absent fields are unchanged")
	assert.NotContains(t, user, "PasswordHash")
}

func TestAuthController_PasswordReset(t *testing.T) {
	env := setupControllerTest(t, nil)
	user, _ := env.createUser(t, "buyer@example.com", model.UserTypeBuyer)

	for _, email := range []string{"buyer@example.com", "ghost@example.com"} {
		w := env.do(t, http.MethodPost, "/api/v1/user/password_reset", "", map[string]string{"email": email})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, decode(t, w)["Status"])
	}

	var reset model.PasswordReset
	require.NoError(t, env.db.Where("user_id = ?", user.ID).First(&reset).Error)

	confirm := map[string]string{"token": reset.Token, "password": "N3w-Secret-Phrase!"}
	w := env.do(t, http.MethodPost, "/api/v1/user/password_reset/confirm", "", confirm)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/v1/user/password_reset/confirm", "", confirm)
	assert.Equal(t, http.StatusBadRequest, w.Code, "reset token is single use")

	_, err := env.auth.Login("buyer@example.com", "N3w-Secret-Phrase!")
	assert.NoError(t, err)
}
