package controller

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/orders-backend/internal/app/model"
	"github.com/ikkim/orders-backend/internal/app/repository"
	"github.com/ikkim/orders-backend/internal/app/service"
	"github.com/ikkim/orders-backend/internal/db"
	"github.com/ikkim/orders-backend/internal/middleware"
	"github.com/ikkim/orders-backend/internal/pricelist"
	ws "github.com/ikkim/orders-backend/internal/websocket"
	"github.com/ikkim/orders-backend/pkg/mailer"
	"github.com/ikkim/orders-backend/pkg/redis"
	"github.com/ikkim/orders-backend/pkg/util"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testTicketSecret = "test-ticket-secret"
	strongPassword   = "Tr0ub4dor&3-horse"
)

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	auth   service.AuthService
	hub    *ws.Hub
}

// setupControllerTest wires the real services over an in-memory database and
// mounts the API routes.
func setupControllerTest(t *testing.T, uploader PriceListUploader) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	userRepo := repository.NewUserRepository(testDB)
	tokenRepo := repository.NewTokenRepository(testDB)
	contactRepo := repository.NewContactRepository(testDB)
	shopRepo := repository.NewShopRepository(testDB)
	catalogRepo := repository.NewCatalogRepository(testDB)
	orderRepo := repository.NewOrderRepository(testDB)
	locker := redis.NewLocalLocker()
	hub := ws.NewHub()

	notifications := service.NewNotificationService(
		repository.NewOutboxRepository(testDB), mailer.LogSender{}, hub, locker, nil, 50, 5,
	)
	authService := service.NewAuthService(testDB, userRepo, tokenRepo, notifications, nil, false, testTicketSecret, time.Minute)
	resetService := service.NewPasswordResetService(
		testDB, repository.NewPasswordResetRepository(testDB), userRepo, tokenRepo, notifications, nil, time.Hour,
	)
	importService := service.NewImportService(testDB, shopRepo, pricelist.NewFetcher(5*time.Second, 1<<20), locker, nil)
	partnerService := service.NewPartnerService(shopRepo, orderRepo, notifications)

	authCtrl := NewAuthController(authService, resetService)
	contactCtrl := NewContactController(service.NewContactService(contactRepo))
	catalogCtrl := NewCatalogController(service.NewCatalogService(catalogRepo, shopRepo))
	basketCtrl := NewBasketController(service.NewBasketService(orderRepo, catalogRepo))
	orderCtrl := NewOrderController(service.NewOrderService(orderRepo, contactRepo, notifications))
	partnerCtrl := NewPartnerController(importService, partnerService, uploader)
	notificationCtrl := NewNotificationController(authService, hub, testTicketSecret, []string{"*"})

	authMW := middleware.NewAuthMiddleware(authService)
	authenticated := authMW.Authenticate()

	r := gin.New()
	api := r.Group("/api/v1")
	api.POST("/user/register", authCtrl.Register)
	api.POST("/user/register/confirm", authCtrl.ConfirmEmail)
	api.POST("/user/login", authCtrl.Login)
	api.POST("/user/password_reset", authCtrl.RequestPasswordReset)
	api.POST("/user/password_reset/confirm", authCtrl.ConfirmPasswordReset)
	api.GET("/user/details", authenticated, authCtrl.GetDetails)
	api.POST("/user/details", authenticated, authCtrl.UpdateDetails)
	api.GET("/user/contact", authenticated, contactCtrl.List)
	api.POST("/user/contact", authenticated, contactCtrl.Create)
	api.PUT("/user/contact", authenticated, contactCtrl.Update)
	api.DELETE("/user/contact", authenticated, contactCtrl.Delete)

	api.GET("/categories", catalogCtrl.ListCategories)
	api.GET("/shops", catalogCtrl.ListShops)
	api.GET("/products", catalogCtrl.ListProducts)

	api.GET("/basket", authenticated, basketCtrl.Get)
	api.POST("/basket", authenticated, basketCtrl.AddItems)
	api.PUT("/basket", authenticated, basketCtrl.UpdateItems)
	api.DELETE("/basket", authenticated, basketCtrl.DeleteItems)

	api.GET("/order", authenticated, orderCtrl.List)
	api.POST("/order", authenticated, orderCtrl.Place)

	partner := api.Group("/partner", authenticated, authMW.RequireShop())
	partner.POST("/update", partnerCtrl.UpdatePriceList)
	partner.POST("/upload-url", partnerCtrl.UploadURL)
	partner.GET("/state", partnerCtrl.GetState)
	partner.POST("/state", partnerCtrl.SetState)
	partner.GET("/orders", partnerCtrl.ListOrders)
	partner.PUT("/orders", partnerCtrl.UpdateOrderState)
	partner.GET("/orders/export", partnerCtrl.ExportOrders)

	api.POST("/notifications/ticket", authenticated, notificationCtrl.IssueTicket)
	api.GET("/notifications/ws", notificationCtrl.Connect)

	return &testEnv{router: r, db: testDB, auth: authService, hub: hub}
}

// createUser stores an active user and returns it with a login token.
func (e *testEnv) createUser(t *testing.T, email string, userType model.UserType) (*model.User, string) {
	t.Helper()
	hash, err := util.HashPassword(strongPassword)
	require.NoError(t, err)
	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Ivan",
		LastName:     "Petrov",
		Company:      "Acme",
		Position:     "Buyer",
		Type:         userType,
		IsActive:     true,
	}
	require.NoError(t, e.db.Create(user).Error)

	token, err := e.auth.Login(email, strongPassword)
	require.NoError(t, err)
	return user, token
}

// createOffer creates a shop for owner, if missing, with one offer at price.
func (e *testEnv) createOffer(t *testing.T, owner *model.User, name string, price int) *model.ProductInfo {
	t.Helper()

	var shop model.Shop
	err := e.db.Where("user_id = ?", owner.ID).First(&shop).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		shop = model.Shop{Name: owner.Email, UserID: &owner.ID, State: true}
		require.NoError(t, e.db.Create(&shop).Error)
	} else {
		require.NoError(t, err)
	}

	category := model.Category{Name: "Phones"}
	require.NoError(t, e.db.FirstOrCreate(&category, model.Category{Name: "Phones"}).Error)
	product := model.Product{Name: name, CategoryID: category.ID}
	require.NoError(t, e.db.Create(&product).Error)

	info := &model.ProductInfo{
		Model:      name + "-m",
		ExternalID: product.ID,
		ProductID:  product.ID,
		ShopID:     shop.ID,
		Quantity:   10,
		Price:      price,
		PriceRRC:   price + 10,
	}
	require.NoError(t, e.db.Omit("Product", "Shop", "ProductParameters").Create(info).Error)
	return info
}

func (e *testEnv) createContact(t *testing.T, userID uint) *model.Contact {
	t.Helper()
	contact := &model.Contact{UserID: userID, City: "Moscow", Street: "Tverskaya", House: "1", Phone: "+79990000000"}
	require.NoError(t, e.db.Create(contact).Error)
	return contact
}

// do sends body as JSON (a string is sent verbatim) and returns the recorder.
func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewBuffer(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func countRows(t *testing.T, testDB *gorm.DB, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, testDB.Model(m).Count(&n).Error)
	return n
}
