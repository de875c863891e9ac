package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ikkim/orders-backend/internal/app/model"
	"github.com/ikkim/orders-backend/internal/app/repository"
	"github.com/ikkim/orders-backend/internal/db"
	"github.com/ikkim/orders-backend/pkg/mailer"
	"github.com/ikkim/orders-backend/pkg/redis"
	"github.com/ikkim/orders-backend/pkg/util"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
}

// strongPassword passes every strength rule.
const strongPassword = "Tr0ub4dor&3-horse"

func createUser(t *testing.T, testDB *gorm.DB, email string, userType model.UserType) *model.User {
	t.Helper()
	hash, err := util.HashPassword(strongPassword)
	require.NoError(t, err)
	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Ivan",
		LastName:     "Petrov",
		Type:         userType,
		IsActive:     true,
	}
	require.NoError(t, testDB.Create(user).Error)
	return user
}

func principalOf(u *model.User) model.Principal {
	return model.Principal{UserID: u.ID, Email: u.Email, Type: u.Type}
}

func createContact(t *testing.T, testDB *gorm.DB, userID uint) *model.Contact {
	t.Helper()
	contact := &model.Contact{UserID: userID, City: "Moscow", Street: "Tverskaya", House: "1", Phone: "+79990000000"}
	require.NoError(t, testDB.Create(contact).Error)
	return contact
}

// createOffer creates a shop owned by owner with one offer at price.
func createOffer(t *testing.T, testDB *gorm.DB, owner *model.User, name string, price int) *model.ProductInfo {
	t.Helper()

	var shop model.Shop
	err := testDB.Where("user_id = ?", owner.ID).First(&shop).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		shop = model.Shop{Name: owner.Email, UserID: &owner.ID, State: true}
		require.NoError(t, testDB.Create(&shop).Error)
	} else {
		require.NoError(t, err)
	}

	category := model.Category{Name: "Phones"}
	require.NoError(t, testDB.FirstOrCreate(&category, model.Category{Name: "Phones"}).Error)
	product := model.Product{Name: name, CategoryID: category.ID}
	require.NoError(t, testDB.Create(&product).Error)

	info := &model.ProductInfo{
		Model:      name + "-m",
		ExternalID: product.ID,
		ProductID:  product.ID,
		ShopID:     shop.ID,
		Quantity:   10,
		Price:      price,
		PriceRRC:   price + 10,
	}
	require.NoError(t, testDB.Omit("Product", "Shop", "ProductParameters").Create(info).Error)
	return info
}

type recordingSender struct {
	mu   sync.Mutex
	sent []mailer.Message
	fail error
}

func (s *recordingSender) Send(_ context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) Close() error { return nil }

type pushedEvent struct {
	UserID  uint
	Type    string
	Payload interface{}
}

type recordingPusher struct {
	mu     sync.Mutex
	events []pushedEvent
}

func (p *recordingPusher) SendToUser(userID uint, eventType string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, pushedEvent{UserID: userID, Type: eventType, Payload: payload})
}

type memoryCache struct {
	mu    sync.Mutex
	items map[string]model.Principal
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string]model.Principal)}
}

func (c *memoryCache) Get(_ context.Context, key string, dst interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.items[key]
	if ok {
		*dst.(*model.Principal) = p
	}
	return ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = *value.(*model.Principal)
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

func newNotificationService(testDB *gorm.DB, sender mailer.Sender, pusher Pusher) NotificationService {
	return NewNotificationService(
		repository.NewOutboxRepository(testDB),
		sender,
		pusher,
		redis.NewLocalLocker(),
		nil,
		50,
		5,
	)
}

func countRows(t *testing.T, testDB *gorm.DB, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, testDB.Model(m).Count(&n).Error)
	return n
}

var testTicketExpiry = time.Minute
