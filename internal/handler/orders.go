package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"example.com/bagstore/internal/middleware"
	"example.com/bagstore/internal/service"
)

// OrderHandler — обработчик заказов покупателя.
type OrderHandler struct {
	orders service.OrderService
}

// NewOrderHandler создаёт обработчик заказов.
func NewOrderHandler(orders service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// ListOrders возвращает страницу заказов текущего пользователя.
// GET /api/v1/orders?page=&page_size=
func (h *OrderHandler) ListOrders(c *gin.Context) {
	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 20)

	orders, total, err := h.orders.ListMyOrders(c.Request.Context(), c.GetString(middleware.CtxUserID), page, pageSize)
	if err != nil {
		HandleError(c, err, "ListOrders")
		return
	}

	items := make([]OrderResponse, len(orders))
	for i := range orders {
		items[i] = toOrderResponse(&orders[i])
	}

	c.JSON(http.StatusOK, PageResponse{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// GetOrder возвращает заказ текущего пользователя с позициями.
// GET /api/v1/orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orders.GetMyOrder(c.Request.Context(), c.GetString(middleware.CtxUserID), c.Param("id"))
	if err != nil {
		HandleError(c, err, "GetOrder")
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

// UploadReceiptRequest — метаданные загруженного подтверждения оплаты.
// Файл загружается во внешнее хранилище фронтендом, сюда приходит ссылка.
type UploadReceiptRequest struct {
	FileURL   string `json:"file_url" binding:"required,url"`
	MimeType  string `json:"mime_type" binding:"required"`
	FileName  string `json:"file_name" binding:"required"`
	SizeBytes int64  `json:"size_bytes" binding:"required,min=1"`
}

// UploadReceipt сохраняет подтверждение оплаты заказа.
// POST /api/v1/orders/:id/receipts
func (h *OrderHandler) UploadReceipt(c *gin.Context) {
	var req UploadReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err)
		return
	}

	receipt, err := h.orders.UploadReceipt(c.Request.Context(), c.GetString(middleware.CtxUserID), service.ReceiptUpload{
		OrderID:   c.Param("id"),
		FileURL:   req.FileURL,
		MimeType:  req.MimeType,
		FileName:  req.FileName,
		SizeBytes: req.SizeBytes,
	})
	if err != nil {
		HandleError(c, err, "UploadReceipt")
		return
	}

	c.JSON(http.StatusCreated, toReceiptView(receipt))
}
