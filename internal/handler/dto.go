package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"example.com/bagstore/internal/domain"
	"example.com/bagstore/internal/service"
)

// PageResponse — обёртка списка с пагинацией.
type PageResponse struct {
	Items    any   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

// CartLineView — строка корзины в ответе API.
type CartLineView struct {
	BagID          string          `json:"bag_id"`
	Description    string          `json:"description"`
	TypeName       string          `json:"type_name"`
	SubtypeName    string          `json:"subtype_name,omitempty"`
	Width          decimal.Decimal `json:"width"`
	Height         decimal.Decimal `json:"height"`
	Quantity       int32           `json:"quantity"`
	AppliedPrice   decimal.Decimal `json:"applied_price"`
	Strategy       string          `json:"strategy,omitempty"`
	VariableWeight bool            `json:"variable_weight"`
	PricePending   bool            `json:"price_pending"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

// CartResponse — корзина в ответе API.
type CartResponse struct {
	CartID   string          `json:"cart_id"`
	Lines    []CartLineView  `json:"lines"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

func toCartResponse(view *service.CartView) CartResponse {
	resp := CartResponse{
		CartID:   view.Cart.ID,
		Lines:    make([]CartLineView, len(view.Lines)),
		Subtotal: view.Subtotal,
	}
	for i := range view.Lines {
		l := &view.Lines[i]
		resp.Lines[i] = CartLineView{
			BagID:          l.BagID,
			Description:    l.BagDescription,
			TypeName:       l.TypeName,
			SubtypeName:    l.SubtypeName,
			Width:          l.Width,
			Height:         l.Height,
			Quantity:       l.Quantity,
			AppliedPrice:   l.AppliedPrice,
			Strategy:       string(l.Strategy),
			VariableWeight: l.VariableWeight,
			PricePending:   l.NeedsRepricing(),
			Subtotal:       l.Subtotal(),
		}
	}
	return resp
}

// OrderLineView — позиция заказа в ответе API.
type OrderLineView struct {
	BagID          string           `json:"bag_id"`
	Quantity       int32            `json:"quantity"`
	UnitPrice      *decimal.Decimal `json:"unit_price,omitempty"`
	VariableWeight bool             `json:"variable_weight"`
	PricePerKg     *decimal.Decimal `json:"price_per_kg,omitempty"`
	PackQty        *int32           `json:"pack_qty,omitempty"`
	MaxWeightKg    *decimal.Decimal `json:"max_weight_kg,omitempty"`
	RealWeightKg   *decimal.Decimal `json:"real_weight_kg,omitempty"`
	SubtotalEstMax decimal.Decimal  `json:"subtotal_est_max"`
	SubtotalFinal  *decimal.Decimal `json:"subtotal_final,omitempty"`
	PendingWeigh   bool             `json:"pending_weigh"`
}

// OrderResponse — заказ в ответе API.
type OrderResponse struct {
	ID                string           `json:"id"`
	UserID            string           `json:"user_id"`
	Status            string           `json:"status"`
	StatusName        string           `json:"status_name"`
	SubtotalEstMax    decimal.Decimal  `json:"subtotal_est_max"`
	SubtotalFinal     *decimal.Decimal `json:"subtotal_final,omitempty"`
	DiscountTotal     decimal.Decimal  `json:"discount_total"`
	ShippingTotal     decimal.Decimal  `json:"shipping_total"`
	TaxTotal          decimal.Decimal  `json:"tax_total"`
	GrandTotal        decimal.Decimal  `json:"grand_total"`
	HasVariableWeight bool             `json:"has_variable_weight"`
	MaxWeightKg       decimal.Decimal  `json:"max_weight_kg"`
	RealWeightKg      *decimal.Decimal `json:"real_weight_kg,omitempty"`
	DiscountCode      *string          `json:"discount_code,omitempty"`
	HasReceipt        bool             `json:"has_receipt"`
	PaidAt            *time.Time       `json:"paid_at,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	Lines             []OrderLineView  `json:"lines,omitempty"`
}

func toOrderResponse(order *domain.Order) OrderResponse {
	resp := OrderResponse{
		ID:                order.ID,
		UserID:            order.UserID,
		Status:            order.StatusSlug,
		StatusName:        order.StatusName,
		SubtotalEstMax:    order.SubtotalEstMax,
		SubtotalFinal:     order.SubtotalFinal,
		DiscountTotal:     order.DiscountTotal,
		ShippingTotal:     order.ShippingTotal,
		TaxTotal:          order.TaxTotal,
		GrandTotal:        order.GrandTotal,
		HasVariableWeight: order.HasVariableWeight,
		MaxWeightKg:       order.MaxWeightKg,
		RealWeightKg:      order.RealWeightKg,
		DiscountCode:      order.DiscountCode,
		HasReceipt:        order.HasReceipt,
		PaidAt:            order.PaidAt,
		CreatedAt:         order.CreatedAt,
	}
	if len(order.Lines) > 0 {
		resp.Lines = make([]OrderLineView, len(order.Lines))
		for i := range order.Lines {
			resp.Lines[i] = toOrderLineView(&order.Lines[i])
		}
	}
	return resp
}

func toOrderLineView(l *domain.OrderLine) OrderLineView {
	return OrderLineView{
		BagID:          l.BagID,
		Quantity:       l.Quantity,
		UnitPrice:      l.UnitPrice,
		VariableWeight: l.VariableWeight,
		PricePerKg:     l.PricePerKg,
		PackQty:        l.PackQty,
		MaxWeightKg:    l.MaxWeightKg,
		RealWeightKg:   l.RealWeightKg,
		SubtotalEstMax: l.SubtotalEstMax,
		SubtotalFinal:  l.SubtotalFinal,
		PendingWeigh:   l.Pending(),
	}
}

// UserView — профиль пользователя в ответе API.
type UserView struct {
	ID           string    `json:"id"`
	Role         string    `json:"role"`
	Name         string    `json:"name"`
	FirstSurname string    `json:"first_surname"`
	LastSurname  string    `json:"last_surname,omitempty"`
	Email        string    `json:"email"`
	Business     string    `json:"business,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
}

func toUserView(u *domain.User) UserView {
	return UserView{
		ID:           u.ID,
		Role:         u.Role,
		Name:         u.Name,
		FirstSurname: u.FirstSurname,
		LastSurname:  u.LastSurname,
		Email:        u.Email,
		Business:     u.Business,
		RegisteredAt: u.RegisteredAt,
	}
}

// ReceiptView — подтверждение оплаты в ответе API.
type ReceiptView struct {
	ID         string     `json:"id"`
	OrderID    string     `json:"order_id"`
	FileURL    string     `json:"file_url"`
	MimeType   string     `json:"mime_type"`
	FileName   string     `json:"file_name"`
	SizeBytes  int64      `json:"size_bytes"`
	State      string     `json:"state"`
	Notes      *string    `json:"notes,omitempty"`
	UploadedAt time.Time  `json:"uploaded_at"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
}

func toReceiptView(r *domain.Receipt) ReceiptView {
	return ReceiptView{
		ID:         r.ID,
		OrderID:    r.OrderID,
		FileURL:    r.FileURL,
		MimeType:   r.MimeType,
		FileName:   r.FileName,
		SizeBytes:  r.SizeBytes,
		State:      r.State,
		Notes:      r.Notes,
		UploadedAt: r.UploadedAt,
		ReviewedAt: r.ReviewedAt,
	}
}
