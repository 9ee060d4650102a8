package domain

import "github.com/shopspring/decimal"

// PricingStrategy — стратегия ценообразования товара.
type PricingStrategy string

const (
	// StrategyPerUnit — цена за штуку.
	StrategyPerUnit PricingStrategy = "per_unit"

	// StrategyPerKg — цена за килограмм. Для товаров с переменным весом
	// (рулоны) итоговая цена известна только после взвешивания.
	StrategyPerKg PricingStrategy = "per_kg"

	// StrategyPerPack — цена за упаковку фиксированного размера.
	StrategyPerPack PricingStrategy = "per_pack"
)

// defaultPackQty — размер упаковки, выбираемый по умолчанию, если он
// присутствует среди тарифов pack-правила.
const defaultPackQty = 500

// Round2 округляет денежную сумму до двух знаков.
// Все итоговые суммы заказа хранятся с этой точностью.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// PackTier — тариф pack-правила: размер упаковки и её цена.
type PackTier struct {
	Quantity int32           // Количество штук в упаковке
	Price    decimal.Decimal // Цена упаковки
}

// ResolvedPricing — результат разрешения правила цены для товара.
// Для per_unit заполнен UnitPrice, для per_kg — PricePerKg, VariableWeight
// и MaxWeightPerUnit, для per_pack — список Packs (по возрастанию Quantity).
type ResolvedPricing struct {
	Strategy         PricingStrategy
	Currency         string
	UnitPrice        decimal.Decimal
	PricePerKg       decimal.Decimal
	VariableWeight   bool
	MaxWeightPerUnit decimal.Decimal // кг на единицу (рулон), > 0 при VariableWeight
	Packs            []PackTier
}

// SelectedPack возвращает тариф по умолчанию для per_pack правила:
// упаковку на 500 штук, если она есть, иначе наименьшую.
// Возвращает nil для остальных стратегий и при пустом списке тарифов.
func (p *ResolvedPricing) SelectedPack() *PackTier {
	if p.Strategy != StrategyPerPack || len(p.Packs) == 0 {
		return nil
	}
	for i := range p.Packs {
		if p.Packs[i].Quantity == defaultPackQty {
			return &p.Packs[i]
		}
	}
	return &p.Packs[0]
}

// AppliedPrice проецирует правило в «применённую цену» — то, что хранится
// в строке корзины и от чего считаются субтоталы:
//   - per_unit: цена за штуку;
//   - per_kg без переменного веса: цена за килограмм;
//   - per_kg с переменным весом: цена за кг × максимальный вес единицы
//     (потолок цены одной единицы, реальный вес на этот момент неизвестен);
//   - per_pack: цена упаковки по умолчанию.
func (p *ResolvedPricing) AppliedPrice() decimal.Decimal {
	switch p.Strategy {
	case StrategyPerUnit:
		return p.UnitPrice
	case StrategyPerKg:
		if p.VariableWeight {
			return p.PricePerKg.Mul(p.MaxWeightPerUnit)
		}
		return p.PricePerKg
	case StrategyPerPack:
		if pack := p.SelectedPack(); pack != nil {
			return pack.Price
		}
	}
	return decimal.Zero
}

// Snapshot фиксирует правило в снимке, сохраняемом вместе со строкой корзины.
// Снимок переживает изменение и удаление правил: чекаут и взвешивание читают
// цену за кг и максимальный вес только из него.
func (p *ResolvedPricing) Snapshot() PricingSnapshot {
	s := PricingSnapshot{
		Strategy:         p.Strategy,
		Currency:         p.Currency,
		UnitPrice:        p.UnitPrice,
		PricePerKg:       p.PricePerKg,
		VariableWeight:   p.VariableWeight,
		MaxWeightPerUnit: p.MaxWeightPerUnit,
	}
	if pack := p.SelectedPack(); pack != nil {
		s.PackQty = pack.Quantity
		s.PackPrice = pack.Price
	}
	return s
}

// PricingSnapshot — снимок правила цены на момент добавления в корзину.
// Сериализуется в JSON-колонку строки корзины и копируется в строку заказа.
type PricingSnapshot struct {
	Strategy         PricingStrategy `json:"strategy"`
	Currency         string          `json:"currency,omitempty"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	PricePerKg       decimal.Decimal `json:"price_per_kg"`
	VariableWeight   bool            `json:"variable_weight"`
	MaxWeightPerUnit decimal.Decimal `json:"max_weight_per_unit"`
	PackQty          int32           `json:"pack_qty,omitempty"`
	PackPrice        decimal.Decimal `json:"pack_price,omitempty"`
}
