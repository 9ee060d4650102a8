package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"example.com/bagstore/internal/domain"
	"example.com/bagstore/internal/repository"
	"example.com/bagstore/pkg/logger"
)

// CartView — корзина со строками и субтоталом для выдачи.
type CartView struct {
	Cart     domain.Cart
	Lines    []domain.CartLine
	Subtotal decimal.Decimal
}

// CartService управляет корзиной пользователя.
type CartService interface {
	// GetCart возвращает активную корзину, создавая её при отсутствии.
	// Строки без зафиксированной цены пытается переоценить заново.
	GetCart(ctx context.Context, userID string) (*CartView, error)

	// AddItem добавляет товар в корзину. Если цена не настроена, строка
	// сохраняется с нулевой ценой и будет переоценена при чтении.
	AddItem(ctx context.Context, userID, bagID string, quantity int32) (*CartView, error)

	// UpdateQuantity меняет количество строки корзины.
	UpdateQuantity(ctx context.Context, userID, bagID string, quantity int32) (*CartView, error)

	// RemoveItem удаляет строку корзины.
	RemoveItem(ctx context.Context, userID, bagID string) (*CartView, error)

	// Clear очищает корзину.
	Clear(ctx context.Context, userID string) error

	// HealLines переоценивает строки корзины с нулевой ценой.
	// Возвращает строки после переоценки.
	HealLines(ctx context.Context, cartID string) ([]domain.CartLine, error)
}

type cartService struct {
	cartRepo    repository.CartRepository
	catalogRepo repository.CatalogRepository
	pricing     PricingService
}

// NewCartService создаёт сервис корзины.
func NewCartService(cartRepo repository.CartRepository, catalogRepo repository.CatalogRepository, pricing PricingService) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		catalogRepo: catalogRepo,
		pricing:     pricing,
	}
}

func (s *cartService) GetCart(ctx context.Context, userID string) (*CartView, error) {
	cart, err := s.cartRepo.GetOrCreateActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	lines, err := s.HealLines(ctx, cart.ID)
	if err != nil {
		return nil, err
	}

	return buildView(cart, lines), nil
}

func (s *cartService) AddItem(ctx context.Context, userID, bagID string, quantity int32) (*CartView, error) {
	log := logger.FromContext(ctx)

	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	bag, err := s.catalogRepo.GetBag(ctx, bagID)
	if err != nil {
		return nil, err
	}

	cart, err := s.cartRepo.GetOrCreateActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	line := domain.CartLine{
		CartID:   cart.ID,
		BagID:    bag.ID,
		Quantity: quantity,
	}

	// Цена фиксируется на момент добавления. Отсутствие правила не
	// блокирует добавление: строка останется с нулевой ценой и будет
	// переоценена при следующем чтении корзины.
	resolved, err := s.pricing.Resolve(ctx, bag)
	switch {
	case err == nil:
		line.AppliedPrice = resolved.AppliedPrice()
		line.Strategy = resolved.Strategy
		line.Snapshot = resolved.Snapshot()
	case errors.Is(err, domain.ErrNoPricingRule):
		log.Warn().
			Str("bag_id", bag.ID).
			Msg("Товар добавлен в корзину без настроенной цены")
	default:
		return nil, err
	}

	if err := s.cartRepo.UpsertLine(ctx, &line); err != nil {
		return nil, err
	}

	log.Info().
		Str("cart_id", cart.ID).
		Str("bag_id", bag.ID).
		Int32("quantity", quantity).
		Msg("Товар добавлен в корзину")

	lines, err := s.cartRepo.ListLines(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	return buildView(cart, lines), nil
}

func (s *cartService) UpdateQuantity(ctx context.Context, userID, bagID string, quantity int32) (*CartView, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	cart, err := s.cartRepo.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.cartRepo.UpdateQuantity(ctx, cart.ID, bagID, quantity); err != nil {
		return nil, err
	}

	lines, err := s.cartRepo.ListLines(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	return buildView(cart, lines), nil
}

func (s *cartService) RemoveItem(ctx context.Context, userID, bagID string) (*CartView, error) {
	cart, err := s.cartRepo.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.cartRepo.RemoveLine(ctx, cart.ID, bagID); err != nil {
		return nil, err
	}

	lines, err := s.cartRepo.ListLines(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	return buildView(cart, lines), nil
}

func (s *cartService) Clear(ctx context.Context, userID string) error {
	cart, err := s.cartRepo.GetActive(ctx, userID)
	if err != nil {
		return err
	}
	return s.cartRepo.Clear(ctx, cart.ID)
}

// HealLines читает строки корзины и переоценивает те, у которых цена не
// зафиксирована. Правило могло появиться после добавления товара:
// корзина самовосстанавливается без участия пользователя.
func (s *cartService) HealLines(ctx context.Context, cartID string) ([]domain.CartLine, error) {
	log := logger.FromContext(ctx)

	lines, err := s.cartRepo.ListLines(ctx, cartID)
	if err != nil {
		return nil, err
	}

	for i := range lines {
		if !lines[i].NeedsRepricing() {
			continue
		}

		resolved, err := s.pricing.ResolveByBagID(ctx, lines[i].BagID)
		if errors.Is(err, domain.ErrNoPricingRule) || errors.Is(err, domain.ErrBagNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		price := resolved.AppliedPrice()
		if price.IsZero() {
			continue
		}

		snapshot := resolved.Snapshot()
		if err := s.cartRepo.UpdateLinePricing(ctx, cartID, lines[i].BagID, price, resolved.Strategy, snapshot); err != nil {
			return nil, err
		}

		lines[i].AppliedPrice = price
		lines[i].Strategy = resolved.Strategy
		lines[i].Snapshot = snapshot

		log.Info().
			Str("cart_id", cartID).
			Str("bag_id", lines[i].BagID).
			Str("price", price.String()).
			Msg("Строка корзины переоценена")
	}

	return lines, nil
}

func buildView(cart *domain.Cart, lines []domain.CartLine) *CartView {
	subtotal := decimal.Zero
	for i := range lines {
		subtotal = subtotal.Add(lines[i].Subtotal())
	}

	return &CartView{
		Cart:     *cart,
		Lines:    lines,
		Subtotal: domain.Round2(subtotal),
	}
}
