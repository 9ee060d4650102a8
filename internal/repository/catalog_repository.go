// Package repository содержит реализацию доступа к данным (GORM + MySQL).
package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"example.com/bagstore/internal/domain"
)

// CatalogRepository определяет интерфейс чтения каталога и справочников.
type CatalogRepository interface {
	// ListTypes возвращает все типы пакетов.
	ListTypes(ctx context.Context) ([]domain.BagType, error)

	// ListSubtypes возвращает подтипы типа с изображениями.
	ListSubtypes(ctx context.Context, typeID string) ([]domain.BagSubtype, error)

	// GetBag возвращает товар по ID с денормализованными именами таксономии.
	GetBag(ctx context.Context, bagID string) (*domain.Bag, error)

	// SearchBags возвращает страницу товаров по фильтру и общее количество.
	SearchBags(ctx context.Context, filter domain.BagFilter) ([]domain.Bag, int64, error)

	// ListStatuses возвращает справочник статусов заказа.
	ListStatuses(ctx context.Context) ([]domain.OrderStatus, error)

	// GetStatusBySlug возвращает статус заказа по слагу.
	GetStatusBySlug(ctx context.Context, slug string) (*domain.OrderStatus, error)

	// ListDeliveryTypes возвращает способы доставки.
	ListDeliveryTypes(ctx context.Context) ([]domain.DeliveryType, error)

	// GetDeliveryType возвращает способ доставки по ID.
	GetDeliveryType(ctx context.Context, id string) (*domain.DeliveryType, error)

	// ListPaymentMethods возвращает способы оплаты.
	ListPaymentMethods(ctx context.Context) ([]domain.PaymentMethod, error)
}

// BagTypeModel — GORM модель для таблицы bag_types.
type BagTypeModel struct {
	ID   string `gorm:"column:id;type:varchar(36);primaryKey"`
	Name string `gorm:"column:name;type:varchar(100);not null"`
}

func (BagTypeModel) TableName() string { return "bag_types" }

// BagSubtypeModel — GORM модель для таблицы bag_subtypes.
type BagSubtypeModel struct {
	ID          string              `gorm:"column:id;type:varchar(36);primaryKey"`
	TypeID      string              `gorm:"column:type_id;type:varchar(36);not null;index"`
	Name        string              `gorm:"column:name;type:varchar(100);not null"`
	Description string              `gorm:"column:description;type:text"`
	Images      []SubtypeImageModel `gorm:"foreignKey:SubtypeID;references:ID"`
}

func (BagSubtypeModel) TableName() string { return "bag_subtypes" }

// SubtypeImageModel — GORM модель для таблицы subtype_images.
type SubtypeImageModel struct {
	ID          string `gorm:"column:id;type:varchar(36);primaryKey"`
	SubtypeID   string `gorm:"column:subtype_id;type:varchar(36);not null;index"`
	URL         string `gorm:"column:url;type:varchar(500);not null"`
	Description string `gorm:"column:description;type:varchar(255)"`
	Position    int32  `gorm:"column:position;not null;default:0"`
}

func (SubtypeImageModel) TableName() string { return "subtype_images" }

// BagModel — GORM модель для таблицы bags.
type BagModel struct {
	ID               string          `gorm:"column:id;type:varchar(36);primaryKey"`
	TypeID           string          `gorm:"column:type_id;type:varchar(36);not null;index"`
	SubtypeID        *string         `gorm:"column:subtype_id;type:varchar(36);index"`
	Description      string          `gorm:"column:description;type:varchar(255);not null"`
	Width            decimal.Decimal `gorm:"column:width;type:decimal(10,2);not null"`
	Height           decimal.Decimal `gorm:"column:height;type:decimal(10,2);not null"`
	PriceHint        decimal.Decimal `gorm:"column:price_hint;type:decimal(12,2);not null;default:0"`
	VariableWeight   bool            `gorm:"column:variable_weight;not null;default:false"`
	MaxWeightPerUnit decimal.Decimal `gorm:"column:max_weight_per_unit;type:decimal(10,3);not null;default:0"`
}

func (BagModel) TableName() string { return "bags" }

// OrderStatusModel — GORM модель для справочника order_statuses.
type OrderStatusModel struct {
	ID   string `gorm:"column:id;type:varchar(36);primaryKey"`
	Slug string `gorm:"column:slug;type:varchar(50);not null;uniqueIndex"`
	Name string `gorm:"column:name;type:varchar(100);not null"`
}

func (OrderStatusModel) TableName() string { return "order_statuses" }

// DeliveryTypeModel — GORM модель для справочника delivery_types.
type DeliveryTypeModel struct {
	ID   string          `gorm:"column:id;type:varchar(36);primaryKey"`
	Slug string          `gorm:"column:slug;type:varchar(50);not null;uniqueIndex"`
	Name string          `gorm:"column:name;type:varchar(100);not null"`
	Cost decimal.Decimal `gorm:"column:cost;type:decimal(12,2);not null;default:0"`
}

func (DeliveryTypeModel) TableName() string { return "delivery_types" }

// PaymentMethodModel — GORM модель для справочника payment_methods.
type PaymentMethodModel struct {
	ID          string  `gorm:"column:id;type:varchar(36);primaryKey"`
	Name        string  `gorm:"column:name;type:varchar(100);not null"`
	Description *string `gorm:"column:description;type:text"`
}

func (PaymentMethodModel) TableName() string { return "payment_methods" }

// bagRow — результат выборки товара с присоединёнными именами таксономии.
type bagRow struct {
	BagModel
	TypeName    string  `gorm:"column:type_name"`
	SubtypeName *string `gorm:"column:subtype_name"`
	ImageURL    *string `gorm:"column:image_url"`
}

func (r *bagRow) toDomain() domain.Bag {
	b := domain.Bag{
		ID:               r.ID,
		TypeID:           r.TypeID,
		SubtypeID:        r.SubtypeID,
		Description:      r.Description,
		Width:            r.Width,
		Height:           r.Height,
		PriceHint:        r.PriceHint,
		VariableWeight:   r.VariableWeight,
		MaxWeightPerUnit: r.MaxWeightPerUnit,
		TypeName:         r.TypeName,
		ImageURL:         r.ImageURL,
	}
	if r.SubtypeName != nil {
		b.SubtypeName = *r.SubtypeName
	}
	return b
}

type catalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository создаёт репозиторий каталога.
func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) ListTypes(ctx context.Context) ([]domain.BagType, error) {
	var models []BagTypeModel
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	types := make([]domain.BagType, len(models))
	for i, m := range models {
		types[i] = domain.BagType{ID: m.ID, Name: m.Name}
	}
	return types, nil
}

func (r *catalogRepository) ListSubtypes(ctx context.Context, typeID string) ([]domain.BagSubtype, error) {
	var models []BagSubtypeModel
	if err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("type_id = ?", typeID).
		Order("name ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	subtypes := make([]domain.BagSubtype, len(models))
	for i, m := range models {
		st := domain.BagSubtype{
			ID:          m.ID,
			TypeID:      m.TypeID,
			Name:        m.Name,
			Description: m.Description,
			Images:      make([]domain.SubtypeImage, len(m.Images)),
		}
		for j, img := range m.Images {
			st.Images[j] = domain.SubtypeImage{
				ID:          img.ID,
				SubtypeID:   img.SubtypeID,
				URL:         img.URL,
				Description: img.Description,
				Position:    img.Position,
			}
		}
		subtypes[i] = st
	}
	return subtypes, nil
}

// bagSelect — базовый select товара с именами типа/подтипа и первым
// изображением подтипа.
func (r *catalogRepository) bagSelect(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("bags").
		Select(`bags.*,
			bag_types.name AS type_name,
			bag_subtypes.name AS subtype_name,
			(SELECT url FROM subtype_images
			 WHERE subtype_images.subtype_id = bags.subtype_id
			 ORDER BY position ASC LIMIT 1) AS image_url`).
		Joins("JOIN bag_types ON bag_types.id = bags.type_id").
		Joins("LEFT JOIN bag_subtypes ON bag_subtypes.id = bags.subtype_id")
}

func (r *catalogRepository) GetBag(ctx context.Context, bagID string) (*domain.Bag, error) {
	var row bagRow
	err := r.bagSelect(ctx).Where("bags.id = ?", bagID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrBagNotFound
	}
	if err != nil {
		return nil, err
	}

	bag := row.toDomain()
	return &bag, nil
}

// bagSortColumns — разрешённые варианты сортировки каталога.
// Ключи совпадают со значениями query-параметра sort.
var bagSortColumns = map[string]string{
	"price_asc":   "bags.price_hint ASC",
	"price_desc":  "bags.price_hint DESC",
	"width_asc":   "bags.width ASC",
	"width_desc":  "bags.width DESC",
	"height_asc":  "bags.height ASC",
	"height_desc": "bags.height DESC",
}

func (r *catalogRepository) SearchBags(ctx context.Context, filter domain.BagFilter) ([]domain.Bag, int64, error) {
	query := r.bagSelect(ctx)

	if filter.TypeID != nil {
		query = query.Where("bags.type_id = ?", *filter.TypeID)
	}
	if filter.SubtypeID != nil {
		query = query.Where("bags.subtype_id = ?", *filter.SubtypeID)
	}
	if filter.MinWidth != nil {
		query = query.Where("bags.width >= ?", *filter.MinWidth)
	}
	if filter.MinHeight != nil {
		query = query.Where("bags.height >= ?", *filter.MinHeight)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order, ok := bagSortColumns[filter.Sort]
	if !ok {
		order = "bags.description ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var rows []bagRow
	if err := query.
		Order(order).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	bags := make([]domain.Bag, len(rows))
	for i := range rows {
		bags[i] = rows[i].toDomain()
	}
	return bags, total, nil
}

func (r *catalogRepository) ListStatuses(ctx context.Context) ([]domain.OrderStatus, error) {
	var models []OrderStatusModel
	if err := r.db.WithContext(ctx).Order("slug ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	statuses := make([]domain.OrderStatus, len(models))
	for i, m := range models {
		statuses[i] = domain.OrderStatus{ID: m.ID, Slug: m.Slug, Name: m.Name}
	}
	return statuses, nil
}

func (r *catalogRepository) GetStatusBySlug(ctx context.Context, slug string) (*domain.OrderStatus, error) {
	var model OrderStatusModel
	err := r.db.WithContext(ctx).Where("slug = ?", slug).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrStatusNotFound
	}
	if err != nil {
		return nil, err
	}
	return &domain.OrderStatus{ID: model.ID, Slug: model.Slug, Name: model.Name}, nil
}

func (r *catalogRepository) ListDeliveryTypes(ctx context.Context) ([]domain.DeliveryType, error) {
	var models []DeliveryTypeModel
	if err := r.db.WithContext(ctx).Order("cost ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	types := make([]domain.DeliveryType, len(models))
	for i, m := range models {
		types[i] = domain.DeliveryType{ID: m.ID, Slug: m.Slug, Name: m.Name, Cost: m.Cost}
	}
	return types, nil
}

func (r *catalogRepository) GetDeliveryType(ctx context.Context, id string) (*domain.DeliveryType, error) {
	var model DeliveryTypeModel
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrDeliveryTypeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &domain.DeliveryType{ID: model.ID, Slug: model.Slug, Name: model.Name, Cost: model.Cost}, nil
}

func (r *catalogRepository) ListPaymentMethods(ctx context.Context) ([]domain.PaymentMethod, error) {
	var models []PaymentMethodModel
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	methods := make([]domain.PaymentMethod, len(models))
	for i, m := range models {
		methods[i] = domain.PaymentMethod{ID: m.ID, Name: m.Name, Description: m.Description}
	}
	return methods, nil
}
