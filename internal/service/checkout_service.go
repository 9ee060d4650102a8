package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"example.com/bagstore/internal/domain"
	"example.com/bagstore/internal/repository"
	"example.com/bagstore/pkg/logger"
	"example.com/bagstore/pkg/metrics"
)

// CheckoutPreview — расчёт заказа без его создания.
type CheckoutPreview struct {
	Lines             []domain.OrderLine
	SubtotalEstMax    decimal.Decimal
	ShippingTotal     decimal.Decimal
	GrandTotal        decimal.Decimal
	HasVariableWeight bool
	MaxWeightKg       decimal.Decimal
}

// CheckoutService оформляет заказ из корзины.
type CheckoutService interface {
	// Checkout превращает активную корзину в заказ.
	Checkout(ctx context.Context, params repository.CheckoutParams) (*domain.Order, error)

	// Preview считает позиции и суммы будущего заказа, не создавая его.
	Preview(ctx context.Context, userID string, deliveryTypeID *string) (*CheckoutPreview, error)
}

type checkoutService struct {
	orderRepo   repository.OrderRepository
	catalogRepo repository.CatalogRepository
	cartRepo    repository.CartRepository
	cart        CartService
}

// NewCheckoutService создаёт сервис чекаута.
func NewCheckoutService(orderRepo repository.OrderRepository, catalogRepo repository.CatalogRepository, cartRepo repository.CartRepository, cart CartService) CheckoutService {
	return &checkoutService{
		orderRepo:   orderRepo,
		catalogRepo: catalogRepo,
		cartRepo:    cartRepo,
		cart:        cart,
	}
}

// Checkout сначала даёт корзине шанс самовосстановиться (переоценка строк
// с нулевой ценой), затем выполняет транзакцию чекаута. Строка, у которой
// цена так и не настроена, жёстко останавливает оформление.
func (s *checkoutService) Checkout(ctx context.Context, params repository.CheckoutParams) (*domain.Order, error) {
	log := logger.FromContext(ctx)

	cart, err := s.cartRepo.GetActive(ctx, params.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveCart) {
			metrics.CheckoutsTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	if _, err := s.cart.HealLines(ctx, cart.ID); err != nil {
		return nil, err
	}

	order, err := s.orderRepo.Checkout(ctx, params)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCartEmpty):
			metrics.CheckoutsTotal.WithLabelValues("empty_cart").Inc()
		default:
			metrics.CheckoutsTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	result := "success"
	if order.StatusSlug == domain.StatusDraft {
		// Справочник статусов не настроен, заказ создан черновиком.
		result = "draft_fallback"
	}
	metrics.CheckoutsTotal.WithLabelValues(result).Inc()

	log.Info().
		Str("order_id", order.ID).
		Str("user_id", order.UserID).
		Str("status", order.StatusSlug).
		Str("grand_total", order.GrandTotal.String()).
		Bool("has_variable_weight", order.HasVariableWeight).
		Msg("Заказ оформлен")

	return order, nil
}

// Preview повторяет расчёт чекаута на текущих строках корзины:
// те же доменные функции, но без транзакции и записи.
func (s *checkoutService) Preview(ctx context.Context, userID string, deliveryTypeID *string) (*CheckoutPreview, error) {
	cart, err := s.cartRepo.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	cartLines, err := s.cart.HealLines(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	if len(cartLines) == 0 {
		return nil, domain.ErrCartEmpty
	}

	for i := range cartLines {
		if cartLines[i].NeedsRepricing() {
			return nil, domain.ErrNoPricingRule
		}
	}

	lines := domain.BuildOrderLines(cartLines)
	sums := domain.SumLines(lines)

	// Ненастроенный способ доставки не блокирует расчёт, стоимость 0.
	shipping := decimal.Zero
	if deliveryTypeID != nil {
		delivery, err := s.catalogRepo.GetDeliveryType(ctx, *deliveryTypeID)
		if err != nil && !errors.Is(err, domain.ErrDeliveryTypeNotFound) {
			return nil, err
		}
		if delivery != nil {
			shipping = delivery.Cost
		}
	}

	return &CheckoutPreview{
		Lines:             lines,
		SubtotalEstMax:    sums.SubtotalEstMax,
		ShippingTotal:     shipping,
		GrandTotal:        domain.GrandTotal(sums.SubtotalFinal, sums.SubtotalEstMax, decimal.Zero, shipping, decimal.Zero),
		HasVariableWeight: sums.HasVariableWeight,
		MaxWeightKg:       sums.MaxWeightKg,
	}, nil
}
