package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"example.com/bagstore/internal/middleware"
	"example.com/bagstore/internal/repository"
	"example.com/bagstore/internal/service"
)

// CheckoutHandler — обработчик оформления заказа.
type CheckoutHandler struct {
	checkout service.CheckoutService
}

// NewCheckoutHandler создаёт обработчик чекаута.
func NewCheckoutHandler(checkout service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

// CheckoutRequest — запрос оформления заказа.
type CheckoutRequest struct {
	AddressID       *string `json:"address_id"`
	DeliveryTypeID  *string `json:"delivery_type_id"`
	PaymentMethodID *string `json:"payment_method_id"`
	DiscountCode    *string `json:"discount_code"`
}

// Checkout превращает активную корзину в заказ.
// POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err)
		return
	}

	order, err := h.checkout.Checkout(c.Request.Context(), repository.CheckoutParams{
		UserID:          c.GetString(middleware.CtxUserID),
		AddressID:       req.AddressID,
		DeliveryTypeID:  req.DeliveryTypeID,
		PaymentMethodID: req.PaymentMethodID,
		DiscountCode:    req.DiscountCode,
	})
	if err != nil {
		HandleError(c, err, "Checkout")
		return
	}

	c.JSON(http.StatusCreated, toOrderResponse(order))
}

// PreviewResponse — расчёт заказа без создания.
type PreviewResponse struct {
	Lines             []OrderLineView `json:"lines"`
	SubtotalEstMax    decimal.Decimal `json:"subtotal_est_max"`
	ShippingTotal     decimal.Decimal `json:"shipping_total"`
	GrandTotal        decimal.Decimal `json:"grand_total"`
	HasVariableWeight bool            `json:"has_variable_weight"`
	MaxWeightKg       decimal.Decimal `json:"max_weight_kg"`
}

// Preview считает суммы будущего заказа, не создавая его.
// GET /api/v1/checkout/preview?delivery_type_id=
func (h *CheckoutHandler) Preview(c *gin.Context) {
	var deliveryTypeID *string
	if v := c.Query("delivery_type_id"); v != "" {
		deliveryTypeID = &v
	}

	preview, err := h.checkout.Preview(c.Request.Context(), c.GetString(middleware.CtxUserID), deliveryTypeID)
	if err != nil {
		HandleError(c, err, "Preview")
		return
	}

	resp := PreviewResponse{
		Lines:             make([]OrderLineView, len(preview.Lines)),
		SubtotalEstMax:    preview.SubtotalEstMax,
		ShippingTotal:     preview.ShippingTotal,
		GrandTotal:        preview.GrandTotal,
		HasVariableWeight: preview.HasVariableWeight,
		MaxWeightKg:       preview.MaxWeightKg,
	}
	for i := range preview.Lines {
		resp.Lines[i] = toOrderLineView(&preview.Lines[i])
	}

	c.JSON(http.StatusOK, resp)
}
