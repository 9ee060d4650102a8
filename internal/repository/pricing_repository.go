package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"example.com/bagstore/internal/domain"
)

// PricingRepository разрешает правило цены для товара.
type PricingRepository interface {
	// Resolve возвращает действующее правило цены товара на момент at.
	// Возвращает domain.ErrNoPricingRule, если ни одно правило не подходит.
	Resolve(ctx context.Context, bag *domain.Bag, at time.Time) (*domain.ResolvedPricing, error)
}

// PricingRuleModel — GORM модель для таблицы pricing_rules.
// Правило привязано ровно к одной области действия: товару (bag_id),
// подтипу (subtype_id) или типу (type_id). Более узкая область побеждает.
type PricingRuleModel struct {
	ID        string           `gorm:"column:id;type:varchar(36);primaryKey"`
	BagID     *string          `gorm:"column:bag_id;type:varchar(36);index"`
	SubtypeID *string          `gorm:"column:subtype_id;type:varchar(36);index"`
	TypeID    *string          `gorm:"column:type_id;type:varchar(36);index"`
	Strategy  string           `gorm:"column:strategy;type:varchar(20);not null"`
	Price     decimal.Decimal  `gorm:"column:price;type:decimal(12,2);not null;default:0"`
	Currency  string           `gorm:"column:currency;type:varchar(3);not null;default:'CRC'"`
	Priority  int              `gorm:"column:priority;not null;default:100"`
	Active    bool             `gorm:"column:active;not null;default:true"`
	ValidFrom *time.Time       `gorm:"column:valid_from"`
	ValidTo   *time.Time       `gorm:"column:valid_to"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	Tiers     []PackTierModel  `gorm:"foreignKey:RuleID;references:ID"`
}

func (PricingRuleModel) TableName() string { return "pricing_rules" }

// PackTierModel — GORM модель для таблицы pack_tiers (тарифы pack-правил).
type PackTierModel struct {
	ID       string          `gorm:"column:id;type:varchar(36);primaryKey"`
	RuleID   string          `gorm:"column:rule_id;type:varchar(36);not null;index"`
	Quantity int32           `gorm:"column:quantity;not null"`
	Price    decimal.Decimal `gorm:"column:price;type:decimal(12,2);not null"`
}

func (PackTierModel) TableName() string { return "pack_tiers" }

type pricingRepository struct {
	db *gorm.DB
}

// NewPricingRepository создаёт репозиторий правил цен.
func NewPricingRepository(db *gorm.DB) PricingRepository {
	return &pricingRepository{db: db}
}

// scopeOrder — сортировка правил по специфичности области действия:
// товар (0), подтип (1), тип (2). При равной специфичности решает priority.
const scopeOrder = `CASE
	WHEN bag_id IS NOT NULL THEN 0
	WHEN subtype_id IS NOT NULL THEN 1
	ELSE 2
END ASC, priority ASC, created_at DESC`

// Resolve ищет лучшее базовое правило (per_unit / per_kg). Pack-правила
// запрашиваются только если базового правила нет ни в одной области:
// это запасной способ ценообразования, а не перекрывающий.
func (r *pricingRepository) Resolve(ctx context.Context, bag *domain.Bag, at time.Time) (*domain.ResolvedPricing, error) {
	winner, err := r.findBest(ctx, bag, at, []string{string(domain.StrategyPerUnit), string(domain.StrategyPerKg)}, false)
	if err != nil {
		return nil, err
	}

	if winner == nil {
		winner, err = r.findBest(ctx, bag, at, []string{string(domain.StrategyPerPack)}, true)
		if err != nil {
			return nil, err
		}
	}

	if winner == nil {
		return nil, domain.ErrNoPricingRule
	}

	resolved := &domain.ResolvedPricing{
		Strategy: domain.PricingStrategy(winner.Strategy),
		Currency: winner.Currency,
	}

	switch resolved.Strategy {
	case domain.StrategyPerUnit:
		resolved.UnitPrice = winner.Price
	case domain.StrategyPerKg:
		resolved.PricePerKg = winner.Price
		resolved.VariableWeight = bag.VariableWeight
		resolved.MaxWeightPerUnit = bag.MaxWeightPerUnit
	case domain.StrategyPerPack:
		resolved.Packs = make([]domain.PackTier, len(winner.Tiers))
		for i, t := range winner.Tiers {
			resolved.Packs[i] = domain.PackTier{Quantity: t.Quantity, Price: t.Price}
		}
	}

	return resolved, nil
}

// findBest возвращает самое специфичное действующее правило из перечисленных
// стратегий или nil, если ни одно не подходит.
func (r *pricingRepository) findBest(ctx context.Context, bag *domain.Bag, at time.Time, strategies []string, withTiers bool) (*PricingRuleModel, error) {
	query := r.db.WithContext(ctx).
		Where("strategy IN ?", strategies).
		Where("active = ?", true).
		Where("valid_from IS NULL OR valid_from <= ?", at).
		Where("valid_to IS NULL OR valid_to >= ?", at)

	scope := r.db.Where("bag_id = ?", bag.ID).
		Or("type_id = ?", bag.TypeID)
	if bag.SubtypeID != nil {
		scope = scope.Or("subtype_id = ?", *bag.SubtypeID)
	}
	query = query.Where(scope)

	if withTiers {
		query = query.Preload("Tiers", func(db *gorm.DB) *gorm.DB {
			return db.Order("quantity ASC")
		})
	}

	var model PricingRuleModel
	err := query.Order(scopeOrder).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	// Pack-правило без тарифов бесполезно, считаем его отсутствующим.
	if withTiers && len(model.Tiers) == 0 {
		return nil, nil
	}

	return &model, nil
}
