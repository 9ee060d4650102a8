package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"example.com/bagstore/internal/domain"
)

// CartRepository определяет интерфейс работы с корзинами.
type CartRepository interface {
	// GetOrCreateActive возвращает активную корзину пользователя,
	// создавая её при отсутствии.
	GetOrCreateActive(ctx context.Context, userID string) (*domain.Cart, error)

	// GetActive возвращает активную корзину пользователя.
	// Возвращает domain.ErrNoActiveCart, если её нет.
	GetActive(ctx context.Context, userID string) (*domain.Cart, error)

	// ListLines возвращает строки корзины с денормализованными данными товара.
	ListLines(ctx context.Context, cartID string) ([]domain.CartLine, error)

	// UpsertLine добавляет товар в корзину. Если строка уже есть,
	// количество суммируется, а цена и снимок обновляются.
	UpsertLine(ctx context.Context, line *domain.CartLine) error

	// UpdateQuantity устанавливает количество строки.
	// Возвращает domain.ErrCartLineNotFound, если строки нет.
	UpdateQuantity(ctx context.Context, cartID, bagID string, quantity int32) error

	// UpdateLinePricing перезаписывает цену и снимок строки
	// (самовосстановление корзины при появлении правила цены).
	UpdateLinePricing(ctx context.Context, cartID, bagID string, price decimal.Decimal, strategy domain.PricingStrategy, snapshot domain.PricingSnapshot) error

	// RemoveLine удаляет строку корзины.
	RemoveLine(ctx context.Context, cartID, bagID string) error

	// Clear удаляет все строки корзины.
	Clear(ctx context.Context, cartID string) error
}

// CartModel — GORM модель для таблицы carts.
type CartModel struct {
	ID        string    `gorm:"column:id;type:varchar(36);primaryKey"`
	UserID    string    `gorm:"column:user_id;type:varchar(36);not null;index:idx_carts_user_status"`
	Status    string    `gorm:"column:status;type:varchar(10);not null;index:idx_carts_user_status"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (CartModel) TableName() string { return "carts" }

func (m *CartModel) toDomain() *domain.Cart {
	return &domain.Cart{
		ID:        m.ID,
		UserID:    m.UserID,
		Status:    domain.CartStatus(m.Status),
		CreatedAt: m.CreatedAt,
	}
}

// CartLineModel — GORM модель для таблицы cart_lines.
// Составной первичный ключ (cart_id, bag_id): товар встречается в корзине
// не больше одного раза.
type CartLineModel struct {
	CartID       string          `gorm:"column:cart_id;type:varchar(36);primaryKey"`
	BagID        string          `gorm:"column:bag_id;type:varchar(36);primaryKey"`
	Quantity     int32           `gorm:"column:quantity;not null"`
	AppliedPrice decimal.Decimal `gorm:"column:applied_price;type:decimal(12,2);not null;default:0"`
	Strategy     string          `gorm:"column:strategy;type:varchar(20);not null;default:''"`
	Snapshot     []byte          `gorm:"column:snapshot;type:json"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (CartLineModel) TableName() string { return "cart_lines" }

// cartLineRow — строка корзины с присоединёнными данными товара.
type cartLineRow struct {
	CartLineModel
	BagDescription string          `gorm:"column:bag_description"`
	Width          decimal.Decimal `gorm:"column:width"`
	Height         decimal.Decimal `gorm:"column:height"`
	TypeName       string          `gorm:"column:type_name"`
	SubtypeName    *string         `gorm:"column:subtype_name"`
	VariableWeight bool            `gorm:"column:variable_weight"`
}

func (r *cartLineRow) toDomain() domain.CartLine {
	line := domain.CartLine{
		CartID:         r.CartID,
		BagID:          r.BagID,
		Quantity:       r.Quantity,
		AppliedPrice:   r.AppliedPrice,
		Strategy:       domain.PricingStrategy(r.Strategy),
		BagDescription: r.BagDescription,
		Width:          r.Width,
		Height:         r.Height,
		TypeName:       r.TypeName,
		VariableWeight: r.VariableWeight,
	}
	if r.SubtypeName != nil {
		line.SubtypeName = *r.SubtypeName
	}
	if len(r.Snapshot) > 0 {
		_ = json.Unmarshal(r.Snapshot, &line.Snapshot)
	}
	return line
}

type cartRepository struct {
	db *gorm.DB
}

// NewCartRepository создаёт репозиторий корзин.
func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

// GetOrCreateActive ищет активную корзину под блокировкой и создаёт новую,
// если её нет. Блокировка исключает создание двух активных корзин
// параллельными запросами одного пользователя.
func (r *cartRepository) GetOrCreateActive(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart *domain.Cart

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model CartModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND status = ?", userID, string(domain.CartStatusActive)).
			Take(&model).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			model = CartModel{
				ID:     uuid.New().String(),
				UserID: userID,
				Status: string(domain.CartStatusActive),
			}
			if err := tx.Create(&model).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		cart = model.toDomain()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return cart, nil
}

func (r *cartRepository) GetActive(ctx context.Context, userID string) (*domain.Cart, error) {
	var model CartModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, string(domain.CartStatusActive)).
		Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNoActiveCart
	}
	if err != nil {
		return nil, err
	}
	return model.toDomain(), nil
}

func (r *cartRepository) ListLines(ctx context.Context, cartID string) ([]domain.CartLine, error) {
	var rows []cartLineRow
	if err := r.db.WithContext(ctx).
		Table("cart_lines").
		Select(`cart_lines.*,
			bags.description AS bag_description,
			bags.width AS width,
			bags.height AS height,
			bags.variable_weight AS variable_weight,
			bag_types.name AS type_name,
			bag_subtypes.name AS subtype_name`).
		Joins("JOIN bags ON bags.id = cart_lines.bag_id").
		Joins("JOIN bag_types ON bag_types.id = bags.type_id").
		Joins("LEFT JOIN bag_subtypes ON bag_subtypes.id = bags.subtype_id").
		Where("cart_lines.cart_id = ?", cartID).
		Order("cart_lines.created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	lines := make([]domain.CartLine, len(rows))
	for i := range rows {
		lines[i] = rows[i].toDomain()
	}
	return lines, nil
}

// UpsertLine добавляет строку корзины. При конфликте по (cart_id, bag_id)
// количество суммируется, цена и снимок перезаписываются свежими.
func (r *cartRepository) UpsertLine(ctx context.Context, line *domain.CartLine) error {
	snapshot, err := json.Marshal(line.Snapshot)
	if err != nil {
		return err
	}

	model := CartLineModel{
		CartID:       line.CartID,
		BagID:        line.BagID,
		Quantity:     line.Quantity,
		AppliedPrice: line.AppliedPrice,
		Strategy:     string(line.Strategy),
		Snapshot:     snapshot,
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "bag_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":      gorm.Expr("cart_lines.quantity + VALUES(quantity)"),
				"applied_price": line.AppliedPrice,
				"strategy":      string(line.Strategy),
				"snapshot":      snapshot,
			}),
		}).
		Create(&model).Error
}

func (r *cartRepository) UpdateQuantity(ctx context.Context, cartID, bagID string, quantity int32) error {
	result := r.db.WithContext(ctx).Model(&CartLineModel{}).
		Where("cart_id = ? AND bag_id = ?", cartID, bagID).
		Update("quantity", quantity)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrCartLineNotFound
	}
	return nil
}

func (r *cartRepository) UpdateLinePricing(ctx context.Context, cartID, bagID string, price decimal.Decimal, strategy domain.PricingStrategy, snapshot domain.PricingSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Model(&CartLineModel{}).
		Where("cart_id = ? AND bag_id = ?", cartID, bagID).
		Updates(map[string]any{
			"applied_price": price,
			"strategy":      string(strategy),
			"snapshot":      data,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrCartLineNotFound
	}
	return nil
}

func (r *cartRepository) RemoveLine(ctx context.Context, cartID, bagID string) error {
	result := r.db.WithContext(ctx).
		Where("cart_id = ? AND bag_id = ?", cartID, bagID).
		Delete(&CartLineModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrCartLineNotFound
	}
	return nil
}

func (r *cartRepository) Clear(ctx context.Context, cartID string) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&CartLineModel{}).Error
}
