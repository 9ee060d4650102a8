package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartStatus — статус корзины.
type CartStatus string

const (
	// CartStatusActive — корзина принимает изменения. У пользователя
	// одновременно не больше одной активной корзины (lookup-or-create).
	CartStatusActive CartStatus = "ACTIVE"

	// CartStatusClosed — корзина закрыта успешным чекаутом.
	// Закрытая корзина никогда не открывается повторно.
	CartStatusClosed CartStatus = "CLOSED"
)

// Cart — корзина пользователя.
type Cart struct {
	ID        string
	UserID    string
	Status    CartStatus
	CreatedAt time.Time
}

// CartLine — позиция корзины. Изменяема до чекаута.
type CartLine struct {
	CartID       string
	BagID        string
	Quantity     int32
	AppliedPrice decimal.Decimal // Применённая цена (см. ResolvedPricing.AppliedPrice)
	Strategy     PricingStrategy
	Snapshot     PricingSnapshot

	// Денормализованные поля товара, заполняются при чтении.
	BagDescription string
	Width          decimal.Decimal
	Height         decimal.Decimal
	TypeName       string
	SubtypeName    string
	VariableWeight bool
}

// Subtotal возвращает быстрый субтотал позиции для превью корзины:
// применённая цена × количество. Для весовых позиций это потолок.
func (l *CartLine) Subtotal() decimal.Decimal {
	return Round2(l.AppliedPrice.Mul(decimal.NewFromInt32(l.Quantity)))
}

// NeedsRepricing сообщает, что у позиции не зафиксирована цена и её нужно
// пересчитать при чтении корзины. Так корзина самовосстанавливается, если
// правило цены появилось после добавления товара.
func (l *CartLine) NeedsRepricing() bool {
	return l.AppliedPrice.IsZero()
}
