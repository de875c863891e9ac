package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/orders-backend/internal/app/service"
	"github.com/ikkim/orders-backend/internal/middleware"
)

type AuthController struct {
	authService          service.AuthService
	passwordResetService service.PasswordResetService
}

func NewAuthController(authService service.AuthService, passwordResetService service.PasswordResetService) *AuthController {
	return &AuthController{
		authService:          authService,
		passwordResetService: passwordResetService,
	}
}

type RegisterRequest struct {
	FirstName string `json:"first_name" binding:"required,max=150"`
	LastName  string `json:"last_name" binding:"required,max=150"`
	Email     string `json:"email" binding:"required,email,max=254"`
	Password  string `json:"password" binding:"required"`
	Company   string `json:"company" binding:"required,max=40"`
	Position  string `json:"position" binding:"required,max=40"`
	Type      string `json:"type" binding:"omitempty,oneof=shop buyer"`
}

type ConfirmEmailRequest struct {
	Email string `json:"email" binding:"required"`
	Token string `json:"token" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest is a partial update. Absent fields stay unchanged.
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name" binding:"omitempty,max=150"`
	LastName  *string `json:"last_name" binding:"omitempty,max=150"`
	Email     *string `json:"email" binding:"omitempty,email,max=254"`
	Company   *string `json:"company" binding:"omitempty,max=40"`
	Position  *string `json:"position" binding:"omitempty,max=40"`
	Type      *string `json:"type" binding:"omitempty,oneof=shop buyer"`
	Password  *string `json:"password"`
}

type PasswordResetRequest struct {
	Email string `json:"email" binding:"required"`
}

type PasswordResetConfirmRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register creates an inactive account and returns the confirmation token.
// POST /api/v1/user/register
func (ctrl *AuthController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := ctrl.authService.Register(service.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Company:   req.Company,
		Position:  req.Position,
		Type:      req.Type,
	})
	if err != nil {
		log.Warn("Registration failed", map[string]interface{}{
			"email": req.Email,
			"error": err.Error(),
		})
		respondServiceError(c, err, "register user")
		return
	}

	log.Info("User registered successfully", map[string]interface{}{
		"user_id": result.User.ID,
	})

	resp := gin.H{"Status": true, "token": result.Token}
	if result.NotificationFailed {
		resp["Notification"] = "failed"
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmEmail activates the account.
// POST /api/v1/user/register/confirm
func (ctrl *AuthController) ConfirmEmail(c *gin.Context) {
	var req ConfirmEmailRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := ctrl.authService.ConfirmEmail(req.Email, req.Token); err != nil {
		respondServiceError(c, err, "confirm email")
		return
	}
	c.JSON(http.StatusOK, gin.H{"Status": true})
}

// Login returns the user's auth token.
// POST /api/v1/user/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	token, err := ctrl.authService.Login(req.Email, req.Password)
	if err != nil {
		log.Warn("Login failed", map[string]interface{}{
			"email": req.Email,
		})
		respondServiceError(c, err, "log in")
		return
	}

	c.JSON(http.StatusOK, gin.H{"Status": true, "Token": token})
}

// GetDetails returns the caller's profile.
// GET /api/v1/user/details
func (ctrl *AuthController) GetDetails(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		return
	}

	user, err := ctrl.authService.GetProfile(principal.UserID)
	if err != nil {
		respondServiceError(c, err, "load user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"Status": true, "User": user})
}

// UpdateDetails applies a partial profile update.
// POST /api/v1/user/details
func (ctrl *AuthController) UpdateDetails(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := ctrl.authService.UpdateProfile(c.Request.Context(), principal.UserID, service.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Company:   req.Company,
		Position:  req.Position,
		Type:      req.Type,
		Password:  req.Password,
	})
	if err != nil {
		respondServiceError(c, err, "update user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"Status": true, "User": user})
}

// RequestPasswordReset answers the same way whether or not the email is
// registered.
// POST /api/v1/user/password_reset
func (ctrl *AuthController) RequestPasswordReset(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req PasswordResetRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := ctrl.passwordResetService.RequestReset(c.Request.Context(), req.Email); err != nil {
		log.Error("Password reset request failed", err, nil)
	}
	c.JSON(http.StatusOK, gin.H{"Status": true})
}

// ConfirmPasswordReset sets a new password with a reset token.
// POST /api/v1/user/password_reset/confirm
func (ctrl *AuthController) ConfirmPasswordReset(c *gin.Context) {
	var req PasswordResetConfirmRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := ctrl.passwordResetService.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		respondServiceError(c, err, "reset password")
		return
	}
	c.JSON(http.StatusOK, gin.H{"Status": true})
}
