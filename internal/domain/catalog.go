package domain

import "github.com/shopspring/decimal"

// BagType — тип пакета (верхний уровень таксономии каталога).
type BagType struct {
	ID   string
	Name string
}

// SubtypeImage — изображение подтипа пакета (только чтение в этом сервисе).
type SubtypeImage struct {
	ID          string
	SubtypeID   string
	URL         string
	Description string
	Position    int32
}

// BagSubtype — подтип пакета с привязанными изображениями.
type BagSubtype struct {
	ID          string
	TypeID      string
	Name        string
	Description string
	Images      []SubtypeImage
}

// Bag — товар каталога: конкретный пакет/рулон.
type Bag struct {
	ID          string
	TypeID      string
	SubtypeID   *string
	Description string
	Width       decimal.Decimal
	Height      decimal.Decimal

	// PriceHint — ориентировочная цена для сортировки каталога.
	// Реальная цена всегда берётся из правил ценообразования.
	PriceHint decimal.Decimal

	// VariableWeight — товар с переменным весом (рулон). Итоговая цена
	// известна только после взвешивания на складе.
	VariableWeight bool

	// MaxWeightPerUnit — максимальный вес одной единицы в кг
	// (из физических характеристик), > 0 для весовых товаров.
	MaxWeightPerUnit decimal.Decimal

	TypeName    string
	SubtypeName string
	ImageURL    *string
}

// DeliveryType — способ доставки и его стоимость.
type DeliveryType struct {
	ID   string
	Slug string
	Name string
	Cost decimal.Decimal
}

// PaymentMethod — способ оплаты.
type PaymentMethod struct {
	ID          string
	Name        string
	Description *string
}

// BagFilter — фильтры и пагинация поиска по каталогу.
type BagFilter struct {
	TypeID    *string
	SubtypeID *string
	MinWidth  *decimal.Decimal
	MinHeight *decimal.Decimal
	Sort      string // price_asc|price_desc|width_asc|width_desc|height_asc|height_desc
	Page      int
	PageSize  int
}
