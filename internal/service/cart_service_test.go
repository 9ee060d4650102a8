package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"example.com/bagstore/internal/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// =====================================
// Тесты AddItem
// =====================================

// TestCartService_AddItem тестирует добавление товара в корзину.
func TestCartService_AddItem(t *testing.T) {
	ctx := context.Background()
	bag := &domain.Bag{ID: "bag-1", Description: "Пакет 20x30"}
	cart := &domain.Cart{ID: "cart-1", UserID: "user-1", Status: domain.CartStatusActive}

	t.Run("успешное добавление с ценой", func(t *testing.T) {
		cartRepo := new(MockCartRepository)
		catalogRepo := new(MockCatalogRepository)
		pricing := new(MockPricingService)

		resolved := &domain.ResolvedPricing{
			Strategy:  domain.StrategyPerUnit,
			UnitPrice: dec("150"),
		}

		catalogRepo.On("GetBag", ctx, "bag-1").Return(bag, nil)
		cartRepo.On("GetOrCreateActive", ctx, "user-1").Return(cart, nil)
		pricing.On("Resolve", ctx, bag).Return(resolved, nil)
		cartRepo.On("UpsertLine", ctx, mock.MatchedBy(func(line *domain.CartLine) bool {
			return line.BagID == "bag-1" &&
				line.Quantity == 5 &&
				line.AppliedPrice.Equal(dec("150")) &&
				line.Strategy == domain.StrategyPerUnit
		})).Return(nil)
		cartRepo.On("ListLines", ctx, "cart-1").Return([]domain.CartLine{
			{CartID: "cart-1", BagID: "bag-1", Quantity: 5, AppliedPrice: dec("150")},
		}, nil)

		svc := NewCartService(cartRepo, catalogRepo, pricing)
		view, err := svc.AddItem(ctx, "user-1", "bag-1", 5)

		require.NoError(t, err)
		require.Len(t, view.Lines, 1)
		assert.True(t, dec("750").Equal(view.Subtotal))
		cartRepo.AssertExpectations(t)
		pricing.AssertExpectations(t)
	})

	t.Run("без правила цены строка сохраняется с нулевой ценой", func(t *testing.T) {
		cartRepo := new(MockCartRepository)
		catalogRepo := new(MockCatalogRepository)
		pricing := new(MockPricingService)

		catalogRepo.On("GetBag", ctx, "bag-1").Return(bag, nil)
		cartRepo.On("GetOrCreateActive", ctx, "user-1").Return(cart, nil)
		pricing.On("Resolve", ctx, bag).Return(nil, domain.ErrNoPricingRule)
		cartRepo.On("UpsertLine", ctx, mock.MatchedBy(func(line *domain.CartLine) bool {
			return line.AppliedPrice.IsZero()
		})).Return(nil)
		cartRepo.On("ListLines", ctx, "cart-1").Return([]domain.CartLine{
			{CartID: "cart-1", BagID: "bag-1", Quantity: 5},
		}, nil)

		svc := NewCartService(cartRepo, catalogRepo, pricing)
		view, err := svc.AddItem(ctx, "user-1", "bag-1", 5)

		require.NoError(t, err)
		assert.True(t, view.Subtotal.IsZero())
		cartRepo.AssertExpectations(t)
	})

	t.Run("нулевое количество", func(t *testing.T) {
		svc := NewCartService(new(MockCartRepository), new(MockCatalogRepository), new(MockPricingService))

		_, err := svc.AddItem(ctx, "user-1", "bag-1", 0)
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	})

	t.Run("неизвестный товар", func(t *testing.T) {
		cartRepo := new(MockCartRepository)
		catalogRepo := new(MockCatalogRepository)
		pricing := new(MockPricingService)

		catalogRepo.On("GetBag", ctx, "missing").Return(nil, domain.ErrBagNotFound)

		svc := NewCartService(cartRepo, catalogRepo, pricing)
		_, err := svc.AddItem(ctx, "user-1", "missing", 1)

		assert.ErrorIs(t, err, domain.ErrBagNotFound)
		cartRepo.AssertNotCalled(t, "UpsertLine", mock.Anything, mock.Anything)
	})
}

// =====================================
// Тесты HealLines
// =====================================

// TestCartService_HealLines тестирует самовосстановление корзины.
func TestCartService_HealLines(t *testing.T) {
	ctx := context.Background()

	t.Run("строка с нулевой ценой переоценивается", func(t *testing.T) {
		cartRepo := new(MockCartRepository)
		pricing := new(MockPricingService)

		lines := []domain.CartLine{
			{CartID: "cart-1", BagID: "bag-1", Quantity: 2}, // цена не зафиксирована
			{CartID: "cart-1", BagID: "bag-2", Quantity: 1, AppliedPrice: dec("300")},
		}
		resolved := &domain.ResolvedPricing{
			Strategy:  domain.StrategyPerUnit,
			UnitPrice: dec("150"),
		}

		cartRepo.On("ListLines", ctx, "cart-1").Return(lines, nil)
		pricing.On("ResolveByBagID", ctx, "bag-1").Return(resolved, nil)
		cartRepo.On("UpdateLinePricing", ctx, "cart-1", "bag-1", dec("150"), domain.StrategyPerUnit, mock.Anything).Return(nil)

		svc := NewCartService(cartRepo, new(MockCatalogRepository), pricing)
		healed, err := svc.HealLines(ctx, "cart-1")

		require.NoError(t, err)
		require.Len(t, healed, 2)
		assert.True(t, dec("150").Equal(healed[0].AppliedPrice))
		assert.Equal(t, domain.StrategyPerUnit, healed[0].Strategy)
		// Вторая строка не трогалась
		pricing.AssertNotCalled(t, "ResolveByBagID", ctx, "bag-2")
		cartRepo.AssertExpectations(t)
	})

	t.Run("правило так и не появилось — строка остаётся нулевой", func(t *testing.T) {
		cartRepo := new(MockCartRepository)
		pricing := new(MockPricingService)

		lines := []domain.CartLine{
			{CartID: "cart-1", BagID: "bag-1", Quantity: 2},
		}

		cartRepo.On("ListLines", ctx, "cart-1").Return(lines, nil)
		pricing.On("ResolveByBagID", ctx, "bag-1").Return(nil, domain.ErrNoPricingRule)

		svc := NewCartService(cartRepo, new(MockCatalogRepository), pricing)
		healed, err := svc.HealLines(ctx, "cart-1")

		require.NoError(t, err)
		assert.True(t, healed[0].AppliedPrice.IsZero())
		cartRepo.AssertNotCalled(t, "UpdateLinePricing", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("нулевая применённая цена не фиксируется", func(t *testing.T) {
		cartRepo := new(MockCartRepository)
		pricing := new(MockPricingService)

		lines := []domain.CartLine{
			{CartID: "cart-1", BagID: "bag-1", Quantity: 2},
		}
		// per_pack без тарифов проецируется в ноль
		resolved := &domain.ResolvedPricing{Strategy: domain.StrategyPerPack}

		cartRepo.On("ListLines", ctx, "cart-1").Return(lines, nil)
		pricing.On("ResolveByBagID", ctx, "bag-1").Return(resolved, nil)

		svc := NewCartService(cartRepo, new(MockCatalogRepository), pricing)
		healed, err := svc.HealLines(ctx, "cart-1")

		require.NoError(t, err)
		assert.True(t, healed[0].AppliedPrice.IsZero())
		cartRepo.AssertNotCalled(t, "UpdateLinePricing", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

// =====================================
// Тесты UpdateQuantity / RemoveItem / Clear
// =====================================

// TestCartService_UpdateQuantity тестирует изменение количества.
func TestCartService_UpdateQuantity(t *testing.T) {
	ctx := context.Background()
	cart := &domain.Cart{ID: "cart-1", UserID: "user-1", Status: domain.CartStatusActive}

	t.Run("успешное изменение", func(t *testing.T) {
		cartRepo := new(MockCartRepository)

		cartRepo.On("GetActive", ctx, "user-1").Return(cart, nil)
		cartRepo.On("UpdateQuantity", ctx, "cart-1", "bag-1", int32(7)).Return(nil)
		cartRepo.On("ListLines", ctx, "cart-1").Return([]domain.CartLine{
			{CartID: "cart-1", BagID: "bag-1", Quantity: 7, AppliedPrice: dec("100")},
		}, nil)

		svc := NewCartService(cartRepo, new(MockCatalogRepository), new(MockPricingService))
		view, err := svc.UpdateQuantity(ctx, "user-1", "bag-1", 7)

		require.NoError(t, err)
		assert.True(t, dec("700").Equal(view.Subtotal))
	})

	t.Run("отрицательное количество", func(t *testing.T) {
		svc := NewCartService(new(MockCartRepository), new(MockCatalogRepository), new(MockPricingService))

		_, err := svc.UpdateQuantity(ctx, "user-1", "bag-1", -1)
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	})

	t.Run("нет активной корзины", func(t *testing.T) {
		cartRepo := new(MockCartRepository)
		cartRepo.On("GetActive", ctx, "user-1").Return(nil, domain.ErrNoActiveCart)

		svc := NewCartService(cartRepo, new(MockCatalogRepository), new(MockPricingService))
		_, err := svc.UpdateQuantity(ctx, "user-1", "bag-1", 1)

		assert.ErrorIs(t, err, domain.ErrNoActiveCart)
	})
}

// TestCartService_Clear тестирует очистку корзины.
func TestCartService_Clear(t *testing.T) {
	ctx := context.Background()
	cart := &domain.Cart{ID: "cart-1", UserID: "user-1", Status: domain.CartStatusActive}

	cartRepo := new(MockCartRepository)
	cartRepo.On("GetActive", ctx, "user-1").Return(cart, nil)
	cartRepo.On("Clear", ctx, "cart-1").Return(nil)

	svc := NewCartService(cartRepo, new(MockCatalogRepository), new(MockPricingService))
	require.NoError(t, svc.Clear(ctx, "user-1"))
	cartRepo.AssertExpectations(t)
}
