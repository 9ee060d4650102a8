package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"example.com/bagstore/internal/domain"
	"example.com/bagstore/internal/middleware"
	"example.com/bagstore/internal/service"
)

// UserHandler — обработчик профиля и адресов.
type UserHandler struct {
	users service.UserService
}

// NewUserHandler создаёт обработчик профиля.
func NewUserHandler(users service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// GetMe возвращает профиль текущего пользователя.
// GET /api/v1/users/me
func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.users.GetProfile(c.Request.Context(), c.GetString(middleware.CtxUserID))
	if err != nil {
		HandleError(c, err, "GetMe")
		return
	}
	c.JSON(http.StatusOK, toUserView(user))
}

// UpdateProfileRequest — запрос обновления профиля.
type UpdateProfileRequest struct {
	Name         string `json:"name" binding:"required,min=2"`
	FirstSurname string `json:"first_surname" binding:"required,min=2"`
	LastSurname  string `json:"last_surname"`
	Email        string `json:"email" binding:"required,email"`
	Business     string `json:"business"`
}

// UpdateMe обновляет профиль текущего пользователя.
// PUT /api/v1/users/me
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err)
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), &domain.User{
		ID:           c.GetString(middleware.CtxUserID),
		Name:         req.Name,
		FirstSurname: req.FirstSurname,
		LastSurname:  req.LastSurname,
		Email:        req.Email,
		Business:     req.Business,
	})
	if err != nil {
		HandleError(c, err, "UpdateMe")
		return
	}

	c.JSON(http.StatusOK, toUserView(user))
}

// ChangePasswordRequest — запрос смены пароля.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

// ChangePassword меняет пароль текущего пользователя.
// POST /api/v1/users/me/password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err)
		return
	}

	err := h.users.ChangePassword(c.Request.Context(), c.GetString(middleware.CtxUserID), req.CurrentPassword, req.NewPassword)
	if err != nil {
		HandleError(c, err, "ChangePassword")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Пароль изменён"})
}

// AddressRequest — запрос создания/обновления адреса.
type AddressRequest struct {
	Province   string `json:"province" binding:"required"`
	Canton     string `json:"canton" binding:"required"`
	District   string `json:"district" binding:"required"`
	Exact      string `json:"exact" binding:"required"`
	PostalCode string `json:"postal_code"`
}

// ListAddresses возвращает адреса текущего пользователя.
// GET /api/v1/users/me/addresses
func (h *UserHandler) ListAddresses(c *gin.Context) {
	addresses, err := h.users.ListAddresses(c.Request.Context(), c.GetString(middleware.CtxUserID))
	if err != nil {
		HandleError(c, err, "ListAddresses")
		return
	}
	c.JSON(http.StatusOK, gin.H{"addresses": addresses})
}

// CreateAddress добавляет адрес доставки.
// POST /api/v1/users/me/addresses
func (h *UserHandler) CreateAddress(c *gin.Context) {
	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err)
		return
	}

	address, err := h.users.CreateAddress(c.Request.Context(), &domain.Address{
		UserID:     c.GetString(middleware.CtxUserID),
		Province:   req.Province,
		Canton:     req.Canton,
		District:   req.District,
		Exact:      req.Exact,
		PostalCode: req.PostalCode,
	})
	if err != nil {
		HandleError(c, err, "CreateAddress")
		return
	}

	c.JSON(http.StatusCreated, address)
}

// UpdateAddress обновляет адрес доставки.
// PUT /api/v1/users/me/addresses/:id
func (h *UserHandler) UpdateAddress(c *gin.Context) {
	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err)
		return
	}

	address, err := h.users.UpdateAddress(c.Request.Context(), &domain.Address{
		ID:         c.Param("id"),
		UserID:     c.GetString(middleware.CtxUserID),
		Province:   req.Province,
		Canton:     req.Canton,
		District:   req.District,
		Exact:      req.Exact,
		PostalCode: req.PostalCode,
	})
	if err != nil {
		HandleError(c, err, "UpdateAddress")
		return
	}

	c.JSON(http.StatusOK, address)
}

// DeleteAddress удаляет адрес доставки.
// DELETE /api/v1/users/me/addresses/:id
func (h *UserHandler) DeleteAddress(c *gin.Context) {
	err := h.users.DeleteAddress(c.Request.Context(), c.GetString(middleware.CtxUserID), c.Param("id"))
	if err != nil {
		HandleError(c, err, "DeleteAddress")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Адрес удалён"})
}
