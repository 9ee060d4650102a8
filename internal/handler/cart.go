package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"example.com/bagstore/internal/middleware"
	"example.com/bagstore/internal/service"
)

// CartHandler — обработчик корзины.
type CartHandler struct {
	cart service.CartService
}

// NewCartHandler создаёт обработчик корзины.
func NewCartHandler(cart service.CartService) *CartHandler {
	return &CartHandler{cart: cart}
}

// GetCart возвращает активную корзину пользователя.
// GET /api/v1/cart
func (h *CartHandler) GetCart(c *gin.Context) {
	view, err := h.cart.GetCart(c.Request.Context(), c.GetString(middleware.CtxUserID))
	if err != nil {
		HandleError(c, err, "GetCart")
		return
	}
	c.JSON(http.StatusOK, toCartResponse(view))
}

// AddItemRequest — запрос добавления товара в корзину.
type AddItemRequest struct {
	BagID    string `json:"bag_id" binding:"required"`
	Quantity int32  `json:"quantity" binding:"required,min=1"`
}

// AddItem добавляет товар в корзину.
// POST /api/v1/cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err)
		return
	}

	view, err := h.cart.AddItem(c.Request.Context(), c.GetString(middleware.CtxUserID), req.BagID, req.Quantity)
	if err != nil {
		HandleError(c, err, "AddItem")
		return
	}

	c.JSON(http.StatusOK, toCartResponse(view))
}

// UpdateQuantityRequest — запрос изменения количества.
type UpdateQuantityRequest struct {
	Quantity int32 `json:"quantity" binding:"required,min=1"`
}

// UpdateQuantity меняет количество строки корзины.
// PATCH /api/v1/cart/items/:bag_id
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	var req UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err)
		return
	}

	view, err := h.cart.UpdateQuantity(c.Request.Context(), c.GetString(middleware.CtxUserID), c.Param("bag_id"), req.Quantity)
	if err != nil {
		HandleError(c, err, "UpdateQuantity")
		return
	}

	c.JSON(http.StatusOK, toCartResponse(view))
}

// RemoveItem удаляет строку корзины.
// DELETE /api/v1/cart/items/:bag_id
func (h *CartHandler) RemoveItem(c *gin.Context) {
	view, err := h.cart.RemoveItem(c.Request.Context(), c.GetString(middleware.CtxUserID), c.Param("bag_id"))
	if err != nil {
		HandleError(c, err, "RemoveItem")
		return
	}
	c.JSON(http.StatusOK, toCartResponse(view))
}

// Clear очищает корзину.
// DELETE /api/v1/cart
func (h *CartHandler) Clear(c *gin.Context) {
	if err := h.cart.Clear(c.Request.Context(), c.GetString(middleware.CtxUserID)); err != nil {
		HandleError(c, err, "Clear")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Корзина очищена"})
}
