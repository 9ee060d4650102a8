// Package events реализует Outbox Pattern для гарантированной доставки
// доменных событий заказа в Kafka. В одной транзакции пишем бизнес-данные
// и запись в outbox, отдельный Worker читает outbox и отправляет в Kafka.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Типы доменных событий заказа.
const (
	EventOrderCreated       = "order.created"
	EventOrderLineWeighed   = "order.line_weighed"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderPaid          = "order.paid"
)

// AggregateOrder — единственный тип агрегата в outbox этого сервиса.
const AggregateOrder = "order"

// Ключи headers сообщений Kafka.
const (
	HeaderTraceID   = "trace_id"
	HeaderTimestamp = "timestamp"
)

// Outbox — запись в таблице outbox для гарантированной доставки в Kafka.
type Outbox struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Topic         string
	MessageKey    string // ключ для партиционирования (order_id)
	Payload       []byte
	Headers       map[string]string
	CreatedAt     time.Time
	ProcessedAt   *time.Time // nil = не обработана
	RetryCount    int
	LastError     *string
}

// HeadersJSON возвращает headers в формате JSON для БД.
func (o *Outbox) HeadersJSON() ([]byte, error) {
	if o.Headers == nil {
		return nil, nil
	}
	return json.Marshal(o.Headers)
}

// SetHeadersFromJSON устанавливает headers из JSON.
func (o *Outbox) SetHeadersFromJSON(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, &o.Headers)
}

// OrderCreatedPayload — payload события оформления заказа.
type OrderCreatedPayload struct {
	OrderID           string          `json:"order_id"`
	UserID            string          `json:"user_id"`
	Status            string          `json:"status"`
	SubtotalEstMax    decimal.Decimal `json:"subtotal_est_max"`
	HasVariableWeight bool            `json:"has_variable_weight"`
	LinesCount        int             `json:"lines_count"`
	CreatedAt         time.Time       `json:"created_at"`
}

// OrderLineWeighedPayload — payload события взвешивания позиции.
type OrderLineWeighedPayload struct {
	OrderID       string          `json:"order_id"`
	BagID         string          `json:"bag_id"`
	RealWeightKg  decimal.Decimal `json:"real_weight_kg"`
	SubtotalFinal decimal.Decimal `json:"subtotal_final"`
	PendingLines  int             `json:"pending_lines"`
	WeighedAt     time.Time       `json:"weighed_at"`
}

// OrderPaidPayload — payload события подтверждённой оплаты заказа.
type OrderPaidPayload struct {
	OrderID    string          `json:"order_id"`
	GrandTotal decimal.Decimal `json:"grand_total"`
	PaidAt     time.Time       `json:"paid_at"`
}

// OrderStatusChangedPayload — payload события смены статуса заказа.
type OrderStatusChangedPayload struct {
	OrderID    string    `json:"order_id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ChangedAt  time.Time `json:"changed_at"`
}

// newOutbox собирает запись outbox для события заказа.
func newOutbox(topic, eventType, orderID string, payload any) (*Outbox, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Outbox{
		ID:            uuid.New().String(),
		AggregateType: AggregateOrder,
		AggregateID:   orderID,
		EventType:     eventType,
		Topic:         topic,
		MessageKey:    orderID,
		Payload:       data,
	}, nil
}

// NewOrderCreated собирает событие оформления заказа.
func NewOrderCreated(topic string, p OrderCreatedPayload) (*Outbox, error) {
	return newOutbox(topic, EventOrderCreated, p.OrderID, p)
}

// NewOrderLineWeighed собирает событие взвешивания позиции.
func NewOrderLineWeighed(topic string, p OrderLineWeighedPayload) (*Outbox, error) {
	return newOutbox(topic, EventOrderLineWeighed, p.OrderID, p)
}

// NewOrderPaid собирает событие подтверждённой оплаты заказа.
func NewOrderPaid(topic string, p OrderPaidPayload) (*Outbox, error) {
	return newOutbox(topic, EventOrderPaid, p.OrderID, p)
}

// NewOrderStatusChanged собирает событие смены статуса заказа.
func NewOrderStatusChanged(topic string, p OrderStatusChangedPayload) (*Outbox, error) {
	return newOutbox(topic, EventOrderStatusChanged, p.OrderID, p)
}

