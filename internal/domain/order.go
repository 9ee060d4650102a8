package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Слаги статусов заказа в справочнике order_statuses.
// Справочник конфигурируется в БД; код ссылается на статусы только по слагу.
const (
	// StatusAwaitingWeighing — заказ с весовыми позициями ждёт взвешивания.
	StatusAwaitingWeighing = "awaiting_weighing"

	// StatusAwaitingPayment — заказ ждёт оплаты (подтверждения оплаты).
	StatusAwaitingPayment = "awaiting_payment"

	// StatusPaid — оплата подтверждена.
	StatusPaid = "paid"

	// StatusDraft — резервный начальный статус, если основной не настроен.
	StatusDraft = "draft"

	// StatusCancelled — заказ отменён.
	StatusCancelled = "cancelled"
)

// OrderStatus — запись справочника статусов заказа.
type OrderStatus struct {
	ID   string
	Slug string
	Name string
}

// Order — заказ. После создания неизменяем, кроме полей, обновляемых
// в ходе взвешивания (финальный субтотал, веса, гран-тотал) и статуса.
type Order struct {
	ID              string
	UserID          string
	AddressID       *string
	DeliveryTypeID  *string
	PaymentMethodID *string
	StatusID        string
	StatusSlug      string // Денормализовано для чтения
	StatusName      string

	// SubtotalEstMax — оценочный максимум субтотала: для весовых позиций
	// берётся потолок (цена за кг × максимальный вес).
	SubtotalEstMax decimal.Decimal

	// SubtotalFinal — финальный субтотал. NULL, пока хотя бы одна весовая
	// позиция не взвешена.
	SubtotalFinal *decimal.Decimal

	DiscountTotal decimal.Decimal
	ShippingTotal decimal.Decimal
	TaxTotal      decimal.Decimal
	GrandTotal    decimal.Decimal

	HasVariableWeight bool
	MaxWeightKg       decimal.Decimal
	RealWeightKg      *decimal.Decimal

	DiscountCode *string // Код скидки сохраняется, но пока не тарифицируется
	HasReceipt   bool
	PaidAt       *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Lines []OrderLine
}

// OrderLine — позиция заказа: снимок строки корзины плюс данные взвешивания.
type OrderLine struct {
	OrderID  string
	BagID    string
	Quantity int32

	// UnitPrice — цена за единицу для позиций с фиксированной ценой.
	// nil для весовых позиций.
	UnitPrice *decimal.Decimal

	VariableWeight bool

	// PricePerKg — применённая цена за килограмм (только весовые позиции).
	PricePerKg *decimal.Decimal

	// PackQty — размер упаковки, если позиция добавлена по pack-правилу.
	PackQty *int32

	// MaxWeightKg — потолок веса позиции: количество × макс. вес единицы.
	MaxWeightKg *decimal.Decimal

	// RealWeightKg — измеренный вес. NULL до взвешивания.
	RealWeightKg *decimal.Decimal

	// SubtotalEstMax — оценочный максимум субтотала позиции.
	SubtotalEstMax decimal.Decimal

	// SubtotalFinal — финальный субтотал. Для позиций с фиксированной ценой
	// устанавливается сразу при создании заказа, для весовых — после
	// взвешивания.
	SubtotalFinal *decimal.Decimal

	// Денормализованные поля товара для выдачи.
	BagDescription string
	Width          decimal.Decimal
	Height         decimal.Decimal
}

// Pending сообщает, что позиция весовая и ещё не взвешена.
func (l *OrderLine) Pending() bool {
	return l.VariableWeight && l.RealWeightKg == nil
}

// EffectiveSubtotal возвращает субтотал позиции по правилу чекаута:
// финальный, если он есть, иначе оценочный максимум.
func (l *OrderLine) EffectiveSubtotal() decimal.Decimal {
	if l.SubtotalFinal != nil {
		return *l.SubtotalFinal
	}
	return l.SubtotalEstMax
}

// ApplyWeight записывает измеренный вес весовой позиции и вычисляет её
// финальный субтотал. Возвращает ошибку, если позиция не требует
// взвешивания, у неё нет цены за кг, вес некорректен или превышает
// зафиксированный максимум.
func (l *OrderLine) ApplyWeight(weight decimal.Decimal) error {
	if !l.VariableWeight {
		return ErrLineNotWeighable
	}
	if l.PricePerKg == nil || l.PricePerKg.IsZero() {
		return ErrLineMissingKgPrice
	}
	if !weight.IsPositive() {
		return ErrInvalidWeight
	}
	if l.MaxWeightKg != nil && l.MaxWeightKg.IsPositive() && weight.GreaterThan(*l.MaxWeightKg) {
		return ErrWeightExceedsMax
	}

	final := Round2(l.PricePerKg.Mul(weight))
	l.RealWeightKg = &weight
	l.SubtotalFinal = &final
	return nil
}

// BuildOrderLines превращает строки корзины в строки заказа (шаг расчёта
// чекаута). Для весовых позиций цена за кг и максимальный вес читаются из
// снимка цены; финальный субтотал остаётся пустым до взвешивания.
// Позиции с фиксированной ценой финализируются сразу.
func BuildOrderLines(cartLines []CartLine) []OrderLine {
	lines := make([]OrderLine, 0, len(cartLines))

	for _, cl := range cartLines {
		qty := decimal.NewFromInt32(cl.Quantity)
		line := OrderLine{
			BagID:          cl.BagID,
			Quantity:       cl.Quantity,
			VariableWeight: cl.VariableWeight,
		}

		if cl.Snapshot.PackQty > 0 {
			packQty := cl.Snapshot.PackQty
			line.PackQty = &packQty
		}

		if cl.VariableWeight {
			// Цена за кг: из снимка, при его отсутствии — применённая цена.
			perKg := cl.Snapshot.PricePerKg
			if perKg.IsZero() {
				perKg = cl.AppliedPrice
			}
			line.PricePerKg = &perKg

			if cl.Snapshot.MaxWeightPerUnit.IsPositive() {
				maxWeight := Round2(qty.Mul(cl.Snapshot.MaxWeightPerUnit))
				line.MaxWeightKg = &maxWeight
				line.SubtotalEstMax = Round2(perKg.Mul(maxWeight))
			}
			// SubtotalFinal остаётся nil до взвешивания.
		} else {
			unit := cl.AppliedPrice
			line.UnitPrice = &unit
			sub := Round2(unit.Mul(qty))
			line.SubtotalEstMax = sub
			line.SubtotalFinal = &sub
		}

		lines = append(lines, line)
	}

	return lines
}

// OrderSums — агрегаты заказа, пересчитываемые из позиций.
type OrderSums struct {
	SubtotalEstMax decimal.Decimal

	// SubtotalFinal заполнен только когда взвешены все весовые позиции.
	SubtotalFinal *decimal.Decimal

	HasVariableWeight bool
	MaxWeightKg       decimal.Decimal
	RealWeightKg      *decimal.Decimal

	// PendingWeighings — число весовых позиций без измеренного веса.
	PendingWeighings int
}

// SumLines пересчитывает агрегаты заказа из его позиций. Одно и то же
// правило применяется при чекауте и при взвешивании: субтотал позиции —
// финальный, если есть, иначе оценочный; финальный субтотал заказа появляется
// только когда не осталось невзвешенных весовых позиций.
func SumLines(lines []OrderLine) OrderSums {
	var sums OrderSums
	final := decimal.Zero
	realWeight := decimal.Zero
	hasRealWeight := false

	for i := range lines {
		l := &lines[i]
		sums.SubtotalEstMax = sums.SubtotalEstMax.Add(l.SubtotalEstMax)
		final = final.Add(l.EffectiveSubtotal())

		if l.VariableWeight {
			sums.HasVariableWeight = true
			if l.Pending() {
				sums.PendingWeighings++
			}
		}
		if l.MaxWeightKg != nil {
			sums.MaxWeightKg = sums.MaxWeightKg.Add(*l.MaxWeightKg)
		}
		if l.RealWeightKg != nil {
			realWeight = realWeight.Add(*l.RealWeightKg)
			hasRealWeight = true
		}
	}

	sums.SubtotalEstMax = Round2(sums.SubtotalEstMax)
	if sums.PendingWeighings == 0 {
		f := Round2(final)
		sums.SubtotalFinal = &f
	}
	if hasRealWeight {
		realWeight = realWeight.Round(3)
		sums.RealWeightKg = &realWeight
	}

	return sums
}

// GrandTotal считает гран-тотал заказа:
// round2((subtotal_final ?? subtotal_est_max) − скидка + доставка + налог).
func GrandTotal(subtotalFinal *decimal.Decimal, subtotalEstMax, discount, shipping, tax decimal.Decimal) decimal.Decimal {
	base := subtotalEstMax
	if subtotalFinal != nil {
		base = *subtotalFinal
	}
	return Round2(base.Sub(discount).Add(shipping).Add(tax))
}
