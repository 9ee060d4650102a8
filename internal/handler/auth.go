package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"example.com/bagstore/internal/middleware"
	"example.com/bagstore/internal/service"
	"example.com/bagstore/pkg/logger"
)

// AuthHandler — обработчик аутентификации.
type AuthHandler struct {
	users service.UserService
}

// NewAuthHandler создаёт обработчик аутентификации.
func NewAuthHandler(users service.UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

// RegisterRequest — запрос на регистрацию.
type RegisterRequest struct {
	Name         string `json:"name" binding:"required,min=2"`
	FirstSurname string `json:"first_surname" binding:"required,min=2"`
	LastSurname  string `json:"last_surname"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=8"`
	Business     string `json:"business"`
}

// AuthResponse — ответ с токеном.
type AuthResponse struct {
	User        UserView  `json:"user"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Register регистрирует нового пользователя.
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	ctx := c.Request.Context()

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err)
		return
	}

	result, err := h.users.Register(ctx, service.RegisterParams{
		Name:         req.Name,
		FirstSurname: req.FirstSurname,
		LastSurname:  req.LastSurname,
		Email:        req.Email,
		Password:     req.Password,
		Business:     req.Business,
	})
	if err != nil {
		HandleError(c, err, "Register")
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{
		User:        toUserView(&result.User),
		AccessToken: result.Token,
		ExpiresAt:   result.ExpiresAt,
	})
}

// LoginRequest — запрос на вход.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login аутентифицирует пользователя.
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err)
		return
	}

	result, err := h.users.Login(ctx, req.Email, req.Password)
	if err != nil {
		HandleError(c, err, "Login")
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		User:        toUserView(&result.User),
		AccessToken: result.Token,
		ExpiresAt:   result.ExpiresAt,
	})
}

// Logout отзывает текущий токен.
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	token := middleware.ExtractBearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Требуется авторизация",
		})
		return
	}

	if err := h.users.Logout(ctx, token); err != nil {
		log.Warn().Err(err).Msg("Ошибка отзыва токена")
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Невалидный токен",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Выход выполнен"})
}

// ForgotPasswordRequest — запрос ссылки сброса пароля.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ForgotPassword отправляет ссылку сброса пароля.
// Ответ одинаков для известного и неизвестного email.
// POST /api/v1/auth/forgot-password
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	ctx := c.Request.Context()

	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err)
		return
	}

	if err := h.users.ForgotPassword(ctx, req.Email); err != nil {
		HandleError(c, err, "ForgotPassword")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Если email зарегистрирован, ссылка сброса отправлена",
	})
}

// ResetPasswordRequest — запрос смены пароля по токену.
type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// ResetPassword меняет пароль по одноразовому токену.
// POST /api/v1/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	ctx := c.Request.Context()

	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err)
		return
	}

	if err := h.users.ResetPassword(ctx, req.Token, req.Password); err != nil {
		HandleError(c, err, "ResetPassword")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Пароль обновлён"})
}
