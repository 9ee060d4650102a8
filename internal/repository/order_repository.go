package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"example.com/bagstore/internal/domain"
	"example.com/bagstore/internal/events"
)

// CheckoutParams — входные данные чекаута.
type CheckoutParams struct {
	UserID          string
	AddressID       *string
	DeliveryTypeID  *string
	PaymentMethodID *string
	DiscountCode    *string
}

// AdminOrderFilter — фильтры и пагинация списка заказов для админки.
type AdminOrderFilter struct {
	Query           *string // поиск по id заказа или email покупателя
	StatusSlug      *string
	UserID          *string
	DeliveryTypeID  *string
	PaymentMethodID *string
	PendingWeighs   bool // только заказы с невзвешенными позициями
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
	Sort            string // created_asc|created_desc|total_asc|total_desc
	Page            int
	PageSize        int
}

// OrderRepository определяет интерфейс работы с заказами.
// Чекаут и взвешивание — транзакционные методы: блокировки, пересчёт сумм
// и запись outbox выполняются атомарно.
type OrderRepository interface {
	// Checkout превращает активную корзину пользователя в заказ.
	// В одной транзакции: блокирует корзину, создаёт заказ с позициями,
	// закрывает корзину и пишет событие order.created в outbox.
	Checkout(ctx context.Context, params CheckoutParams) (*domain.Order, error)

	// RecordLineWeight записывает измеренный вес весовой позиции,
	// пересчитывает суммы заказа и при необходимости переводит заказ
	// в статус ожидания оплаты.
	RecordLineWeight(ctx context.Context, orderID, bagID string, weight decimal.Decimal) (*domain.Order, error)

	// GetByID возвращает заказ с позициями. Возвращает
	// domain.ErrOrderNotFound, если заказа нет.
	GetByID(ctx context.Context, orderID string) (*domain.Order, error)

	// ListByUser возвращает страницу заказов пользователя (новые первыми).
	ListByUser(ctx context.Context, userID string, page, pageSize int) ([]domain.Order, int64, error)

	// AdminList возвращает страницу заказов по фильтру админки.
	AdminList(ctx context.Context, filter AdminOrderFilter) ([]domain.Order, int64, error)

	// UpdateStatus переводит заказ в статус с указанным слагом
	// и пишет событие order.status_changed в outbox.
	UpdateStatus(ctx context.Context, orderID, statusSlug string) error

	// MarkPaid помечает заказ оплаченным: статус paid, paid_at, has_receipt.
	MarkPaid(ctx context.Context, orderID string, at time.Time) error
}

// OrderModel — GORM модель для таблицы orders.
type OrderModel struct {
	ID                string           `gorm:"column:id;type:varchar(36);primaryKey"`
	UserID            string           `gorm:"column:user_id;type:varchar(36);not null;index"`
	AddressID         *string          `gorm:"column:address_id;type:varchar(36)"`
	DeliveryTypeID    *string          `gorm:"column:delivery_type_id;type:varchar(36)"`
	PaymentMethodID   *string          `gorm:"column:payment_method_id;type:varchar(36)"`
	StatusID          string           `gorm:"column:status_id;type:varchar(36);not null;index"`
	SubtotalEstMax    decimal.Decimal  `gorm:"column:subtotal_est_max;type:decimal(12,2);not null"`
	SubtotalFinal     *decimal.Decimal `gorm:"column:subtotal_final;type:decimal(12,2)"`
	DiscountTotal     decimal.Decimal  `gorm:"column:discount_total;type:decimal(12,2);not null;default:0"`
	ShippingTotal     decimal.Decimal  `gorm:"column:shipping_total;type:decimal(12,2);not null;default:0"`
	TaxTotal          decimal.Decimal  `gorm:"column:tax_total;type:decimal(12,2);not null;default:0"`
	GrandTotal        decimal.Decimal  `gorm:"column:grand_total;type:decimal(12,2);not null"`
	HasVariableWeight bool             `gorm:"column:has_variable_weight;not null;default:false"`
	MaxWeightKg       decimal.Decimal  `gorm:"column:max_weight_kg;type:decimal(10,3);not null;default:0"`
	RealWeightKg      *decimal.Decimal `gorm:"column:real_weight_kg;type:decimal(10,3)"`
	DiscountCode      *string          `gorm:"column:discount_code;type:varchar(50)"`
	HasReceipt        bool             `gorm:"column:has_receipt;not null;default:false"`
	PaidAt            *time.Time       `gorm:"column:paid_at"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (OrderModel) TableName() string { return "orders" }

// OrderLineModel — GORM модель для таблицы order_lines.
type OrderLineModel struct {
	OrderID        string           `gorm:"column:order_id;type:varchar(36);primaryKey"`
	BagID          string           `gorm:"column:bag_id;type:varchar(36);primaryKey"`
	Quantity       int32            `gorm:"column:quantity;not null"`
	UnitPrice      *decimal.Decimal `gorm:"column:unit_price;type:decimal(12,2)"`
	VariableWeight bool             `gorm:"column:variable_weight;not null;default:false"`
	PricePerKg     *decimal.Decimal `gorm:"column:price_per_kg;type:decimal(12,2)"`
	PackQty        *int32           `gorm:"column:pack_qty"`
	MaxWeightKg    *decimal.Decimal `gorm:"column:max_weight_kg;type:decimal(10,3)"`
	RealWeightKg   *decimal.Decimal `gorm:"column:real_weight_kg;type:decimal(10,3)"`
	SubtotalEstMax decimal.Decimal  `gorm:"column:subtotal_est_max;type:decimal(12,2);not null"`
	SubtotalFinal  *decimal.Decimal `gorm:"column:subtotal_final;type:decimal(12,2)"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (OrderLineModel) TableName() string { return "order_lines" }

func (m *OrderLineModel) toDomain() domain.OrderLine {
	return domain.OrderLine{
		OrderID:        m.OrderID,
		BagID:          m.BagID,
		Quantity:       m.Quantity,
		UnitPrice:      m.UnitPrice,
		VariableWeight: m.VariableWeight,
		PricePerKg:     m.PricePerKg,
		PackQty:        m.PackQty,
		MaxWeightKg:    m.MaxWeightKg,
		RealWeightKg:   m.RealWeightKg,
		SubtotalEstMax: m.SubtotalEstMax,
		SubtotalFinal:  m.SubtotalFinal,
	}
}

func lineModelFromDomain(orderID string, l *domain.OrderLine) OrderLineModel {
	return OrderLineModel{
		OrderID:        orderID,
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
	}
}

// orderRow — заказ с присоединённым статусом.
type orderRow struct {
	OrderModel
	StatusSlug string `gorm:"column:status_slug"`
	StatusName string `gorm:"column:status_name"`
}

func (r *orderRow) toDomain() domain.Order {
	return domain.Order{
		ID:                r.ID,
		UserID:            r.UserID,
		AddressID:         r.AddressID,
		DeliveryTypeID:    r.DeliveryTypeID,
		PaymentMethodID:   r.PaymentMethodID,
		StatusID:          r.StatusID,
		StatusSlug:        r.StatusSlug,
		StatusName:        r.StatusName,
		SubtotalEstMax:    r.SubtotalEstMax,
		SubtotalFinal:     r.SubtotalFinal,
		DiscountTotal:     r.DiscountTotal,
		ShippingTotal:     r.ShippingTotal,
		TaxTotal:          r.TaxTotal,
		GrandTotal:        r.GrandTotal,
		HasVariableWeight: r.HasVariableWeight,
		MaxWeightKg:       r.MaxWeightKg,
		RealWeightKg:      r.RealWeightKg,
		DiscountCode:      r.DiscountCode,
		HasReceipt:        r.HasReceipt,
		PaidAt:            r.PaidAt,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

type orderRepository struct {
	db     *gorm.DB
	outbox events.Repository
	topic  string
}

// NewOrderRepository создаёт репозиторий заказов.
// topic — Kafka топик для событий заказа, пишущихся через outbox.
func NewOrderRepository(db *gorm.DB, outbox events.Repository, topic string) OrderRepository {
	return &orderRepository{db: db, outbox: outbox, topic: topic}
}

// Checkout выполняет чекаут одной транзакцией:
//  1. блокирует активную корзину пользователя (FOR UPDATE);
//  2. читает строки корзины, пустая корзина — ошибка;
//  3. строка без зафиксированной цены — ошибка (цена так и не настроена);
//  4. строит позиции заказа и агрегаты чистыми доменными функциями;
//  5. выбирает начальный статус по слагу, при ненастроенном справочнике
//     откатывается на draft;
//  6. создаёт заказ с позициями, закрывает корзину, пишет outbox.
func (r *orderRepository) Checkout(ctx context.Context, params CheckoutParams) (*domain.Order, error) {
	var created *domain.Order

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cartModel CartModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND status = ?", params.UserID, string(domain.CartStatusActive)).
			Take(&cartModel).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNoActiveCart
		}
		if err != nil {
			return err
		}

		var lineModels []CartLineModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("cart_id = ?", cartModel.ID).
			Order("created_at ASC").
			Find(&lineModels).Error; err != nil {
			return err
		}
		if len(lineModels) == 0 {
			return domain.ErrCartEmpty
		}

		cartLines := make([]domain.CartLine, len(lineModels))
		for i := range lineModels {
			row := cartLineRow{CartLineModel: lineModels[i]}
			cartLines[i] = row.toDomain()
			// Доносим признак переменного веса из товара: в строке
			// корзины он денормализован только при чтении с join.
			var variable bool
			if err := tx.Table("bags").
				Select("variable_weight").
				Where("id = ?", lineModels[i].BagID).
				Scan(&variable).Error; err != nil {
				return err
			}
			cartLines[i].VariableWeight = variable

			if cartLines[i].NeedsRepricing() {
				return domain.ErrNoPricingRule
			}
		}

		lines := domain.BuildOrderLines(cartLines)
		sums := domain.SumLines(lines)

		// Ненастроенный способ доставки даёт нулевую стоимость.
		shipping := decimal.Zero
		if params.DeliveryTypeID != nil {
			var delivery DeliveryTypeModel
			err := tx.Where("id = ?", *params.DeliveryTypeID).Take(&delivery).Error
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if err == nil {
				shipping = delivery.Cost
			}
		}

		status, err := resolveInitialStatus(tx, sums.HasVariableWeight)
		if err != nil {
			return err
		}

		orderID := uuid.New().String()
		model := OrderModel{
			ID:                orderID,
			UserID:            params.UserID,
			AddressID:         params.AddressID,
			DeliveryTypeID:    params.DeliveryTypeID,
			PaymentMethodID:   params.PaymentMethodID,
			StatusID:          status.ID,
			SubtotalEstMax:    sums.SubtotalEstMax,
			SubtotalFinal:     sums.SubtotalFinal,
			ShippingTotal:     shipping,
			DiscountTotal:     decimal.Zero,
			TaxTotal:          decimal.Zero,
			GrandTotal:        domain.GrandTotal(sums.SubtotalFinal, sums.SubtotalEstMax, decimal.Zero, shipping, decimal.Zero),
			HasVariableWeight: sums.HasVariableWeight,
			MaxWeightKg:       sums.MaxWeightKg,
			RealWeightKg:      sums.RealWeightKg,
			DiscountCode:      params.DiscountCode,
		}
		if err := tx.Create(&model).Error; err != nil {
			return err
		}

		for i := range lines {
			lineModel := lineModelFromDomain(orderID, &lines[i])
			if err := tx.Create(&lineModel).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&CartModel{}).
			Where("id = ?", cartModel.ID).
			Update("status", string(domain.CartStatusClosed)).Error; err != nil {
			return err
		}

		record, err := events.NewOrderCreated(r.topic, events.OrderCreatedPayload{
			OrderID:           orderID,
			UserID:            params.UserID,
			Status:            status.Slug,
			SubtotalEstMax:    sums.SubtotalEstMax,
			HasVariableWeight: sums.HasVariableWeight,
			LinesCount:        len(lines),
			CreatedAt:         time.Now(),
		})
		if err != nil {
			return err
		}
		if err := r.outbox.Create(ctx, tx, record); err != nil {
			return err
		}

		row := orderRow{OrderModel: model, StatusSlug: status.Slug, StatusName: status.Name}
		order := row.toDomain()
		order.Lines = lines
		for i := range order.Lines {
			order.Lines[i].OrderID = orderID
		}
		created = &order
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// resolveInitialStatus выбирает начальный статус заказа: ожидание взвешивания
// для заказов с весовыми позициями, иначе ожидание оплаты. Если нужного
// статуса нет в справочнике, используется draft; нет и его — ошибка.
func resolveInitialStatus(tx *gorm.DB, hasVariableWeight bool) (*OrderStatusModel, error) {
	slug := domain.StatusAwaitingPayment
	if hasVariableWeight {
		slug = domain.StatusAwaitingWeighing
	}

	for _, s := range []string{slug, domain.StatusDraft} {
		var model OrderStatusModel
		err := tx.Where("slug = ?", s).Take(&model).Error
		if err == nil {
			return &model, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	return nil, domain.ErrNoInitialStatus
}

// RecordLineWeight записывает вес позиции одной транзакцией:
//  1. блокирует заказ и его позиции (FOR UPDATE);
//  2. применяет вес доменной функцией (валидации веса и стратегии);
//  3. пересчитывает агрегаты заказа из всех позиций;
//  4. когда невзвешенных позиций не осталось и заказ ждал взвешивания,
//     переводит его в ожидание оплаты;
//  5. пишет события в outbox.
func (r *orderRepository) RecordLineWeight(ctx context.Context, orderID, bagID string, weight decimal.Decimal) (*domain.Order, error) {
	var updated *domain.Order

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var orderModel OrderModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", orderID).
			Take(&orderModel).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrOrderNotFound
		}
		if err != nil {
			return err
		}

		var lineModels []OrderLineModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("order_id = ?", orderID).
			Order("created_at ASC").
			Find(&lineModels).Error; err != nil {
			return err
		}

		lines := make([]domain.OrderLine, len(lineModels))
		target := -1
		for i := range lineModels {
			lines[i] = lineModels[i].toDomain()
			if lineModels[i].BagID == bagID {
				target = i
			}
		}
		if target < 0 {
			return domain.ErrOrderLineNotFound
		}

		if err := lines[target].ApplyWeight(weight); err != nil {
			return err
		}

		if err := tx.Model(&OrderLineModel{}).
			Where("order_id = ? AND bag_id = ?", orderID, bagID).
			Updates(map[string]any{
				"real_weight_kg": lines[target].RealWeightKg,
				"subtotal_final": lines[target].SubtotalFinal,
			}).Error; err != nil {
			return err
		}

		sums := domain.SumLines(lines)
		grand := domain.GrandTotal(sums.SubtotalFinal, sums.SubtotalEstMax,
			orderModel.DiscountTotal, orderModel.ShippingTotal, orderModel.TaxTotal)

		orderUpdates := map[string]any{
			"subtotal_final": sums.SubtotalFinal,
			"real_weight_kg": sums.RealWeightKg,
			"grand_total":    grand,
		}

		var currentStatus OrderStatusModel
		if err := tx.Where("id = ?", orderModel.StatusID).Take(&currentStatus).Error; err != nil {
			return err
		}

		newStatus := currentStatus
		if sums.PendingWeighings == 0 && currentStatus.Slug == domain.StatusAwaitingWeighing {
			var next OrderStatusModel
			err := tx.Where("slug = ?", domain.StatusAwaitingPayment).Take(&next).Error
			if err == nil {
				newStatus = next
				orderUpdates["status_id"] = next.ID
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		if err := tx.Model(&OrderModel{}).
			Where("id = ?", orderID).
			Updates(orderUpdates).Error; err != nil {
			return err
		}

		now := time.Now()
		weighed, err := events.NewOrderLineWeighed(r.topic, events.OrderLineWeighedPayload{
			OrderID:       orderID,
			BagID:         bagID,
			RealWeightKg:  *lines[target].RealWeightKg,
			SubtotalFinal: *lines[target].SubtotalFinal,
			PendingLines:  sums.PendingWeighings,
			WeighedAt:     now,
		})
		if err != nil {
			return err
		}
		if err := r.outbox.Create(ctx, tx, weighed); err != nil {
			return err
		}

		if newStatus.ID != currentStatus.ID {
			changed, err := events.NewOrderStatusChanged(r.topic, events.OrderStatusChangedPayload{
				OrderID:    orderID,
				FromStatus: currentStatus.Slug,
				ToStatus:   newStatus.Slug,
				ChangedAt:  now,
			})
			if err != nil {
				return err
			}
			if err := r.outbox.Create(ctx, tx, changed); err != nil {
				return err
			}
		}

		orderModel.SubtotalFinal = sums.SubtotalFinal
		orderModel.RealWeightKg = sums.RealWeightKg
		orderModel.GrandTotal = grand
		orderModel.StatusID = newStatus.ID

		row := orderRow{OrderModel: orderModel, StatusSlug: newStatus.Slug, StatusName: newStatus.Name}
		order := row.toDomain()
		order.Lines = lines
		updated = &order
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// orderSelect — базовый select заказа с присоединённым статусом.
func (r *orderRepository) orderSelect(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("orders").
		Select(`orders.*,
			order_statuses.slug AS status_slug,
			order_statuses.name AS status_name`).
		Joins("JOIN order_statuses ON order_statuses.id = orders.status_id")
}

func (r *orderRepository) GetByID(ctx context.Context, orderID string) (*domain.Order, error) {
	var row orderRow
	err := r.orderSelect(ctx).Where("orders.id = ?", orderID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	var lineModels []OrderLineModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&lineModels).Error; err != nil {
		return nil, err
	}

	order := row.toDomain()
	order.Lines = make([]domain.OrderLine, len(lineModels))
	for i := range lineModels {
		order.Lines[i] = lineModels[i].toDomain()
	}
	return &order, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]domain.Order, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := r.orderSelect(ctx).Where("orders.user_id = ?", userID)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []orderRow
	if err := query.
		Order("orders.created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	orders := make([]domain.Order, len(rows))
	for i := range rows {
		orders[i] = rows[i].toDomain()
	}
	return orders, total, nil
}

// adminSortColumns — разрешённые варианты сортировки списка заказов.
var adminSortColumns = map[string]string{
	"created_asc":  "orders.created_at ASC",
	"created_desc": "orders.created_at DESC",
	"total_asc":    "orders.grand_total ASC",
	"total_desc":   "orders.grand_total DESC",
}

func (r *orderRepository) AdminList(ctx context.Context, filter AdminOrderFilter) ([]domain.Order, int64, error) {
	query := r.orderSelect(ctx)

	if filter.Query != nil {
		q := "%" + *filter.Query + "%"
		query = query.
			Joins("LEFT JOIN users ON users.id = orders.user_id").
			Where("orders.id LIKE ? OR users.email LIKE ?", q, q)
	}
	if filter.StatusSlug != nil {
		query = query.Where("order_statuses.slug = ?", *filter.StatusSlug)
	}
	if filter.UserID != nil {
		query = query.Where("orders.user_id = ?", *filter.UserID)
	}
	if filter.DeliveryTypeID != nil {
		query = query.Where("orders.delivery_type_id = ?", *filter.DeliveryTypeID)
	}
	if filter.PaymentMethodID != nil {
		query = query.Where("orders.payment_method_id = ?", *filter.PaymentMethodID)
	}
	if filter.PendingWeighs {
		query = query.Where(`EXISTS (
			SELECT 1 FROM order_lines
			WHERE order_lines.order_id = orders.id
			  AND order_lines.variable_weight = TRUE
			  AND order_lines.real_weight_kg IS NULL)`)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("orders.created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("orders.created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order, ok := adminSortColumns[filter.Sort]
	if !ok {
		order = "orders.created_at DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var rows []orderRow
	if err := query.
		Order(order).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	orders := make([]domain.Order, len(rows))
	for i := range rows {
		orders[i] = rows[i].toDomain()
	}
	return orders, total, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, orderID, statusSlug string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var orderModel OrderModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", orderID).
			Take(&orderModel).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrOrderNotFound
		}
		if err != nil {
			return err
		}

		var next OrderStatusModel
		err = tx.Where("slug = ?", statusSlug).Take(&next).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrStatusNotFound
		}
		if err != nil {
			return err
		}

		if next.ID == orderModel.StatusID {
			return nil
		}

		var current OrderStatusModel
		if err := tx.Where("id = ?", orderModel.StatusID).Take(&current).Error; err != nil {
			return err
		}

		if err := tx.Model(&OrderModel{}).
			Where("id = ?", orderID).
			Update("status_id", next.ID).Error; err != nil {
			return err
		}

		record, err := events.NewOrderStatusChanged(r.topic, events.OrderStatusChangedPayload{
			OrderID:    orderID,
			FromStatus: current.Slug,
			ToStatus:   next.Slug,
			ChangedAt:  time.Now(),
		})
		if err != nil {
			return err
		}
		return r.outbox.Create(ctx, tx, record)
	})
}

func (r *orderRepository) MarkPaid(ctx context.Context, orderID string, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return markOrderPaid(ctx, tx, r.outbox, r.topic, orderID, at)
	})
}

// markOrderPaid переводит заказ в статус paid внутри открытой транзакции:
// ставит paid_at и has_receipt, пишет события order.paid и
// order.status_changed в outbox. Повторный вызов по уже оплаченному
// заказу обновляет отметки без дублирования событий.
func markOrderPaid(ctx context.Context, tx *gorm.DB, outbox events.Repository, topic, orderID string, at time.Time) error {
	var orderModel OrderModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", orderID).
		Take(&orderModel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrOrderNotFound
	}
	if err != nil {
		return err
	}

	var paid OrderStatusModel
	err = tx.Where("slug = ?", domain.StatusPaid).Take(&paid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrStatusNotFound
	}
	if err != nil {
		return err
	}

	var current OrderStatusModel
	if err := tx.Where("id = ?", orderModel.StatusID).Take(&current).Error; err != nil {
		return err
	}

	if err := tx.Model(&OrderModel{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"status_id":   paid.ID,
			"has_receipt": true,
			"paid_at":     at,
		}).Error; err != nil {
		return err
	}

	if current.ID == paid.ID {
		return nil
	}

	record, err := events.NewOrderPaid(topic, events.OrderPaidPayload{
		OrderID:    orderID,
		GrandTotal: orderModel.GrandTotal,
		PaidAt:     at,
	})
	if err != nil {
		return err
	}
	if err := outbox.Create(ctx, tx, record); err != nil {
		return err
	}

	record, err = events.NewOrderStatusChanged(topic, events.OrderStatusChangedPayload{
		OrderID:    orderID,
		FromStatus: current.Slug,
		ToStatus:   paid.Slug,
		ChangedAt:  at,
	})
	if err != nil {
		return err
	}
	return outbox.Create(ctx, tx, record)
}
