package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"example.com/bagstore/internal/domain"
	"example.com/bagstore/internal/middleware"
	"example.com/bagstore/internal/repository"
	"example.com/bagstore/internal/service"
)

// AdminOrderHandler — обработчик заказов для админки: списки, статусы,
// взвешивание и проверка подтверждений оплаты.
type AdminOrderHandler struct {
	orders   service.OrderService
	weighing service.WeighingService
}

// NewAdminOrderHandler создаёт обработчик админки заказов.
func NewAdminOrderHandler(orders service.OrderService, weighing service.WeighingService) *AdminOrderHandler {
	return &AdminOrderHandler{orders: orders, weighing: weighing}
}

// ListOrders возвращает страницу заказов по фильтру.
// GET /api/v1/admin/orders?q=&status=&user_id=&delivery_type_id=&payment_method_id=&pending_weighs=&from=&to=&sort=&page=&page_size=
func (h *AdminOrderHandler) ListOrders(c *gin.Context) {
	filter := repository.AdminOrderFilter{
		Sort:     c.Query("sort"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}

	if v := c.Query("q"); v != "" {
		filter.Query = &v
	}
	if v := c.Query("status"); v != "" {
		filter.StatusSlug = &v
	}
	if v := c.Query("user_id"); v != "" {
		filter.UserID = &v
	}
	if v := c.Query("delivery_type_id"); v != "" {
		filter.DeliveryTypeID = &v
	}
	if v := c.Query("payment_method_id"); v != "" {
		filter.PaymentMethodID = &v
	}
	if c.Query("pending_weighs") == "true" {
		filter.PendingWeighs = true
	}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			BadRequest(c, err)
			return
		}
		filter.CreatedFrom = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			BadRequest(c, err)
			return
		}
		filter.CreatedTo = &t
	}

	orders, total, err := h.orders.AdminListOrders(c.Request.Context(), filter)
	if err != nil {
		HandleError(c, err, "AdminListOrders")
		return
	}

	items := make([]OrderResponse, len(orders))
	for i := range orders {
		items[i] = toOrderResponse(&orders[i])
	}

	c.JSON(http.StatusOK, PageResponse{
		Items:    items,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	})
}

// GetOrder возвращает любой заказ с позициями.
// GET /api/v1/admin/orders/:id
func (h *AdminOrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orders.AdminGetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err, "AdminGetOrder")
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

// SetStatusRequest — запрос смены статуса заказа.
type SetStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetStatus переводит заказ в указанный статус.
// PATCH /api/v1/admin/orders/:id/status
func (h *AdminOrderHandler) SetStatus(c *gin.Context) {
	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err)
		return
	}

	order, err := h.orders.AdminSetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		HandleError(c, err, "AdminSetStatus")
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

// RecordWeightRequest — запрос записи измеренного веса позиции.
type RecordWeightRequest struct {
	WeightKg decimal.Decimal `json:"weight_kg" binding:"required"`
}

// WeighResponse — заказ после взвешивания и число весовых позиций,
// ещё ожидающих измерения.
type WeighResponse struct {
	OrderResponse
	PendingWeighings int `json:"pending_weighings"`
}

// RecordWeight записывает вес весовой позиции заказа.
// POST /api/v1/admin/orders/:id/lines/:bag_id/weight
func (h *AdminOrderHandler) RecordWeight(c *gin.Context) {
	var req RecordWeightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err)
		return
	}

	order, err := h.weighing.RecordWeight(c.Request.Context(), c.Param("id"), c.Param("bag_id"), req.WeightKg)
	if err != nil {
		HandleError(c, err, "RecordWeight")
		return
	}

	c.JSON(http.StatusOK, WeighResponse{
		OrderResponse:    toOrderResponse(order),
		PendingWeighings: domain.SumLines(order.Lines).PendingWeighings,
	})
}

// ListPendingReceipts возвращает страницу непроверенных подтверждений.
// GET /api/v1/admin/receipts?page=&page_size=
func (h *AdminOrderHandler) ListPendingReceipts(c *gin.Context) {
	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 20)

	receipts, total, err := h.orders.AdminListPendingReceipts(c.Request.Context(), page, pageSize)
	if err != nil {
		HandleError(c, err, "AdminListPendingReceipts")
		return
	}

	items := make([]ReceiptView, len(receipts))
	for i := range receipts {
		items[i] = toReceiptView(&receipts[i])
	}

	c.JSON(http.StatusOK, PageResponse{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// ReviewReceiptRequest — решение по подтверждению оплаты.
type ReviewReceiptRequest struct {
	Approve bool    `json:"approve"`
	Notes   *string `json:"notes"`
}

// ReviewReceipt одобряет или отклоняет подтверждение оплаты.
// POST /api/v1/admin/receipts/:id/review
func (h *AdminOrderHandler) ReviewReceipt(c *gin.Context) {
	var req ReviewReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err)
		return
	}

	receipt, err := h.orders.AdminReviewReceipt(c.Request.Context(), c.Param("id"), c.GetString(middleware.CtxUserID), req.Approve, req.Notes)
	if err != nil {
		HandleError(c, err, "AdminReviewReceipt")
		return
	}

	c.JSON(http.StatusOK, toReceiptView(receipt))
}
