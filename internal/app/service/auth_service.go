package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ikkim/orders-backend/internal/app/model"
	"github.com/ikkim/orders-backend/internal/app/repository"
	apperrors "github.com/ikkim/orders-backend/internal/errors"
	"github.com/ikkim/orders-backend/pkg/logger"
	"github.com/ikkim/orders-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidConfirmKey  = errors.New("invalid email or confirmation token")
	ErrInvalidAuthToken   = errors.New("invalid auth token")
	ErrInactiveUser       = errors.New("user is not active")
	ErrInvalidUserType    = errors.New("type must be shop or buyer")
)

// PasswordPolicyError lists every password rule a candidate violates.
type PasswordPolicyError struct {
	Problems []string
}

func (e *PasswordPolicyError) Error() string {
	return "password does not meet the policy: " + strings.Join(e.Problems, "; ")
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Company   string
	Position  string
	Type      string
}

type RegisterResult struct {
	User  *model.User
	Token string // email confirmation token
	// NotificationFailed is set when the confirmation email could not be queued.
	NotificationFailed bool
}

// ProfileUpdate carries the fields of a partial profile update. Nil means
// unchanged.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Email     *string
	Company   *string
	Position  *string
	Type      *string
	Password  *string
}

type AuthService interface {
	Register(input RegisterInput) (*RegisterResult, error)
	ConfirmEmail(email, token string) error
	Login(email, password string) (string, error)
	Authenticate(ctx context.Context, key string) (*model.Principal, error)
	GetProfile(userID uint) (*model.User, error)
	UpdateProfile(ctx context.Context, userID uint, update ProfileUpdate) (*model.User, error)
	IssueTicket(principal model.Principal) (string, error)
}

type authService struct {
	db            *gorm.DB
	userRepo      repository.UserRepository
	tokenRepo     repository.TokenRepository
	notifications NotificationService
	cache         TokenCache
	emailEnabled  bool
	ticketSecret  string
	ticketExpiry  time.Duration
}

func NewAuthService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
	notifications NotificationService,
	cache TokenCache,
	emailEnabled bool,
	ticketSecret string,
	ticketExpiry time.Duration,
) AuthService {
	return &authService{
		db:            db,
		userRepo:      userRepo,
		tokenRepo:     tokenRepo,
		notifications: notifications,
		cache:         cache,
		emailEnabled:  emailEnabled,
		ticketSecret:  ticketSecret,
		ticketExpiry:  ticketExpiry,
	}
}

func parseUserType(raw string) (model.UserType, error) {
	switch model.UserType(raw) {
	case "":
		return model.UserTypeBuyer, nil
	case model.UserTypeShop, model.UserTypeBuyer:
		return model.UserType(raw), nil
	}
	return "", ErrInvalidUserType
}

func (s *authService) Register(input RegisterInput) (*RegisterResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	logger.Info("Attempting user registration", map[string]interface{}{
		"email": email,
	})

	userType, err := parseUserType(input.Type)
	if err != nil {
		return nil, err
	}

	if problems := util.ValidatePasswordStrength(input.Password, email, input.FirstName, input.LastName); len(problems) > 0 {
		logger.Warn("Registration rejected: weak password", map[string]interface{}{
			"email":    email,
			"problems": len(problems),
		})
		return nil, &PasswordPolicyError{Problems: problems}
	}

	existing, err := s.userRepo.FindByEmail(email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check existing user", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}
	if existing != nil {
		logger.Warn("Registration failed: email already exists", map[string]interface{}{
			"email": email,
		})
		return nil, ErrEmailAlreadyExists
	}

	hashed, err := util.HashPassword(input.Password)
	if err != nil {
		logger.Error("Failed to hash password", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}

	key, err := util.GenerateKey(util.ConfirmTokenBytes)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hashed,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Company:      input.Company,
		Position:     input.Position,
		Type:         userType,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := repository.NewUserRepository(tx).Create(user); err != nil {
			return err
		}
		return repository.NewTokenRepository(tx).CreateConfirmToken(&model.ConfirmEmailToken{
			UserID: user.ID,
			Key:    key,
		})
	})
	if err != nil {
		if apperrors.IsDuplicateKey(err) {
			return nil, ErrEmailAlreadyExists
		}
		logger.Error("Failed to create user in database", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}

	result := &RegisterResult{User: user, Token: key}
	if s.emailEnabled {
		if err := s.notifications.SendConfirmation(user, key); err != nil {
			logger.Error("Failed to queue confirmation email", err, map[string]interface{}{
				"user_id": user.ID,
			})
			result.NotificationFailed = true
		}
	}

	logger.Info("User registered successfully", map[string]interface{}{
		"user_id": user.ID,
		"type":    user.Type,
	})
	return result, nil
}

func (s *authService) ConfirmEmail(email, token string) error {
	user, err := s.userRepo.FindByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidConfirmKey
		}
		return err
	}

	confirm, err := s.tokenRepo.FindConfirmToken(user.ID, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Email confirmation failed: unknown token", map[string]interface{}{
				"user_id": user.ID,
			})
			return ErrInvalidConfirmKey
		}
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		// whoever deletes the token activates the user
		rows, err := repository.NewTokenRepository(tx).DeleteConfirmToken(confirm.ID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrInvalidConfirmKey
		}
		if err := repository.NewUserRepository(tx).Activate(user.ID); err != nil {
			return err
		}
		logger.Info("Email confirmed", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil
	})
}

func (s *authService) Login(email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	logger.Info("Login attempt", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Login failed: user not found", map[string]interface{}{
				"email": email,
			})
			return "", ErrInvalidCredentials
		}
		logger.Error("Failed to find user", err, map[string]interface{}{
			"email": email,
		})
		return "", err
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Login failed: invalid password", map[string]interface{}{
			"user_id": user.ID,
		})
		return "", ErrInvalidCredentials
	}
	if !user.IsActive {
		logger.Warn("Login failed: user not confirmed", map[string]interface{}{
			"user_id": user.ID,
		})
		return "", ErrInvalidCredentials
	}

	token, err := s.getOrCreateAuthToken(user.ID)
	if err != nil {
		logger.Error("Failed to issue auth token", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return "", err
	}

	logger.Info("User logged in successfully", map[string]interface{}{
		"user_id": user.ID,
	})
	return token.Key, nil
}

func (s *authService) getOrCreateAuthToken(userID uint) (*model.AuthToken, error) {
	token, err := s.tokenRepo.FindAuthTokenByUserID(userID)
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	key, err := util.GenerateKey(util.AuthTokenBytes)
	if err != nil {
		return nil, err
	}
	token = &model.AuthToken{Key: key, UserID: userID}
	if err := s.tokenRepo.CreateAuthToken(token); err != nil {
		// a concurrent login created it first
		if apperrors.IsDuplicateKey(err) {
			return s.tokenRepo.FindAuthTokenByUserID(userID)
		}
		return nil, err
	}
	return token, nil
}

// Authenticate resolves an auth token to its principal. Lookups are cached
// when a TokenCache is configured.
func (s *authService) Authenticate(ctx context.Context, key string) (*model.Principal, error) {
	if key == "" {
		return nil, ErrInvalidAuthToken
	}

	if s.cache != nil {
		var cached model.Principal
		if ok, err := s.cache.Get(ctx, key, &cached); err == nil && ok {
			return &cached, nil
		}
	}

	token, err := s.tokenRepo.FindAuthToken(key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidAuthToken
		}
		return nil, err
	}
	if !token.User.IsActive {
		return nil, ErrInactiveUser
	}

	principal := &model.Principal{
		UserID: token.User.ID,
		Email:  token.User.Email,
		Type:   token.User.Type,
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, principal); err != nil {
			logger.Warn("Failed to cache principal", map[string]interface{}{
				"user_id": principal.UserID,
				"error":   err.Error(),
			})
		}
	}
	return principal, nil
}

func (s *authService) GetProfile(userID uint) (*model.User, error) {
	user, err := s.userRepo.FindWithContacts(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		logger.Error("Failed to load user profile", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return user, nil
}

func (s *authService) UpdateProfile(ctx context.Context, userID uint, update ProfileUpdate) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if update.FirstName != nil {
		user.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		user.LastName = *update.LastName
	}
	if update.Company != nil {
		user.Company = *update.Company
	}
	if update.Position != nil {
		user.Position = *update.Position
	}
	if update.Type != nil {
		userType, err := parseUserType(*update.Type)
		if err != nil {
			return nil, err
		}
		user.Type = userType
	}
	if update.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*update.Email))
		if email != user.Email {
			other, err := s.userRepo.FindByEmail(email)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			if other != nil {
				return nil, ErrEmailAlreadyExists
			}
			user.Email = email
		}
	}

	var hashed string
	if update.Password != nil {
		if problems := util.ValidatePasswordStrength(*update.Password, user.Email, user.FirstName, user.LastName); len(problems) > 0 {
			return nil, &PasswordPolicyError{Problems: problems}
		}
		if hashed, err = util.HashPassword(*update.Password); err != nil {
			return nil, err
		}
	}

	// profile and password are saved together or not at all
	err = s.db.Transaction(func(tx *gorm.DB) error {
		users := repository.NewUserRepository(tx)
		if hashed != "" {
			if err := users.UpdatePassword(user.ID, hashed); err != nil {
				return err
			}
		}
		return users.Update(user)
	})
	if err != nil {
		if apperrors.IsDuplicateKey(err) {
			return nil, ErrEmailAlreadyExists
		}
		logger.Error("Failed to update user profile", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	if hashed != "" {
		user.PasswordHash = hashed
	}

	// email and type live in the cached principal
	if s.cache != nil {
		if token, err := s.tokenRepo.FindAuthTokenByUserID(user.ID); err == nil {
			_ = s.cache.Delete(ctx, token.Key)
		}
	}

	logger.Info("User profile updated", map[string]interface{}{
		"user_id": userID,
	})
	return s.userRepo.FindWithContacts(user.ID)
}

func (s *authService) IssueTicket(principal model.Principal) (string, error) {
	return util.GenerateTicket(principal.UserID, principal.Email, string(principal.Type), s.ticketSecret, s.ticketExpiry)
}
