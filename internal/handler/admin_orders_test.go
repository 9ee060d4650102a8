package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/bagstore/internal/domain"
	"example.com/bagstore/internal/repository"
	"example.com/bagstore/internal/service"
)

// MockOrderService — мок для OrderService с функциональными полями.
type MockOrderService struct {
	GetMyOrderFunc               func(ctx context.Context, userID, orderID string) (*domain.Order, error)
	ListMyOrdersFunc             func(ctx context.Context, userID string, page, pageSize int) ([]domain.Order, int64, error)
	UploadReceiptFunc            func(ctx context.Context, userID string, upload service.ReceiptUpload) (*domain.Receipt, error)
	AdminGetOrderFunc            func(ctx context.Context, orderID string) (*domain.Order, error)
	AdminListOrdersFunc          func(ctx context.Context, filter repository.AdminOrderFilter) ([]domain.Order, int64, error)
	AdminSetStatusFunc           func(ctx context.Context, orderID, statusSlug string) (*domain.Order, error)
	AdminListPendingReceiptsFunc func(ctx context.Context, page, pageSize int) ([]domain.Receipt, int64, error)
	AdminReviewReceiptFunc       func(ctx context.Context, receiptID, reviewerID string, approve bool, notes *string) (*domain.Receipt, error)
}

func (m *MockOrderService) GetMyOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	if m.GetMyOrderFunc != nil {
		return m.GetMyOrderFunc(ctx, userID, orderID)
	}
	return nil, nil
}

func (m *MockOrderService) ListMyOrders(ctx context.Context, userID string, page, pageSize int) ([]domain.Order, int64, error) {
	if m.ListMyOrdersFunc != nil {
		return m.ListMyOrdersFunc(ctx, userID, page, pageSize)
	}
	return nil, 0, nil
}

func (m *MockOrderService) UploadReceipt(ctx context.Context, userID string, upload service.ReceiptUpload) (*domain.Receipt, error) {
	if m.UploadReceiptFunc != nil {
		return m.UploadReceiptFunc(ctx, userID, upload)
	}
	return nil, nil
}

func (m *MockOrderService) AdminGetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	if m.AdminGetOrderFunc != nil {
		return m.AdminGetOrderFunc(ctx, orderID)
	}
	return nil, nil
}

func (m *MockOrderService) AdminListOrders(ctx context.Context, filter repository.AdminOrderFilter) ([]domain.Order, int64, error) {
	if m.AdminListOrdersFunc != nil {
		return m.AdminListOrdersFunc(ctx, filter)
	}
	return nil, 0, nil
}

func (m *MockOrderService) AdminSetStatus(ctx context.Context, orderID, statusSlug string) (*domain.Order, error) {
	if m.AdminSetStatusFunc != nil {
		return m.AdminSetStatusFunc(ctx, orderID, statusSlug)
	}
	return nil, nil
}

func (m *MockOrderService) AdminListPendingReceipts(ctx context.Context, page, pageSize int) ([]domain.Receipt, int64, error) {
	if m.AdminListPendingReceiptsFunc != nil {
		return m.AdminListPendingReceiptsFunc(ctx, page, pageSize)
	}
	return nil, 0, nil
}

func (m *MockOrderService) AdminReviewReceipt(ctx context.Context, receiptID, reviewerID string, approve bool, notes *string) (*domain.Receipt, error) {
	if m.AdminReviewReceiptFunc != nil {
		return m.AdminReviewReceiptFunc(ctx, receiptID, reviewerID, approve, notes)
	}
	return nil, nil
}

// MockWeighingService — мок для WeighingService.
type MockWeighingService struct {
	RecordWeightFunc func(ctx context.Context, orderID, bagID string, weight decimal.Decimal) (*domain.Order, error)
}

func (m *MockWeighingService) RecordWeight(ctx context.Context, orderID, bagID string, weight decimal.Decimal) (*domain.Order, error) {
	if m.RecordWeightFunc != nil {
		return m.RecordWeightFunc(ctx, orderID, bagID, weight)
	}
	return nil, nil
}

// TestAdminOrderHandler_RecordWeight проверяет запись измеренного веса.
func TestAdminOrderHandler_RecordWeight(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		setupMock      func(*MockWeighingService)
		expectedStatus int
		expectedError  string
	}{
		{
			name:        "успешная запись веса",
			requestBody: map[string]string{"weight_kg": "1.5"},
			setupMock: func(m *MockWeighingService) {
				m.RecordWeightFunc = func(ctx context.Context, orderID, bagID string, weight decimal.Decimal) (*domain.Order, error) {
					assert.Equal(t, "order-1", orderID)
					assert.Equal(t, "bag-roll", bagID)
					assert.True(t, weight.Equal(decimal.RequireFromString("1.5")))
					final := decimal.NewFromInt(750)
					return &domain.Order{
						ID:            orderID,
						StatusSlug:    "awaiting_payment",
						SubtotalFinal: &final,
						GrandTotal:    decimal.NewFromInt(2250),
						Lines: []domain.OrderLine{
							{OrderID: orderID, BagID: bagID, VariableWeight: true, RealWeightKg: &weight},
							{OrderID: orderID, BagID: "bag-other", VariableWeight: true},
						},
					}, nil
				}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "вес превышает максимум",
			requestBody: map[string]string{"weight_kg": "99"},
			setupMock: func(m *MockWeighingService) {
				m.RecordWeightFunc = func(ctx context.Context, orderID, bagID string, weight decimal.Decimal) (*domain.Order, error) {
					return nil, domain.ErrWeightExceedsMax
				}
			},
			expectedStatus: http.StatusConflict,
			expectedError:  "weight_exceeds_max",
		},
		{
			name:        "позиция не весовая",
			requestBody: map[string]string{"weight_kg": "1.5"},
			setupMock: func(m *MockWeighingService) {
				m.RecordWeightFunc = func(ctx context.Context, orderID, bagID string, weight decimal.Decimal) (*domain.Order, error) {
					return nil, domain.ErrLineNotWeighable
				}
			},
			expectedStatus: http.StatusConflict,
			expectedError:  "line_not_weighable",
		},
		{
			name:           "вес не указан",
			requestBody:    map[string]string{},
			setupMock:      func(m *MockWeighingService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid_request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockWeighing := &MockWeighingService{}
			tt.setupMock(mockWeighing)

			handler := NewAdminOrderHandler(&MockOrderService{}, mockWeighing)

			body, err := json.Marshal(tt.requestBody)
			require.NoError(t, err)

			w := httptest.NewRecorder()
			c := newAuthedContext(w, "admin-1")
			c.Params = gin.Params{
				{Key: "id", Value: "order-1"},
				{Key: "bag_id", Value: "bag-roll"},
			}
			c.Request = httptest.NewRequest(http.MethodPost,
				"/api/v1/admin/orders/order-1/lines/bag-roll/weight", bytes.NewBuffer(body))
			c.Request.Header.Set("Content-Type", "application/json")

			handler.RecordWeight(c)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedError != "" {
				var resp map[string]interface{}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, tt.expectedError, resp["error"])
			}

			if tt.expectedStatus == http.StatusOK {
				var resp WeighResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, 1, resp.PendingWeighings)
			}
		})
	}
}

// TestAdminOrderHandler_ListOrders проверяет разбор фильтров списка заказов.
func TestAdminOrderHandler_ListOrders(t *testing.T) {
	t.Run("фильтры передаются в сервис", func(t *testing.T) {
		mockOrders := &MockOrderService{
			AdminListOrdersFunc: func(ctx context.Context, filter repository.AdminOrderFilter) ([]domain.Order, int64, error) {
				require.NotNil(t, filter.StatusSlug)
				assert.Equal(t, "awaiting_payment", *filter.StatusSlug)
				assert.True(t, filter.PendingWeighs)
				assert.Equal(t, 2, filter.Page)
				assert.Equal(t, 10, filter.PageSize)
				return []domain.Order{{ID: "order-1"}}, 21, nil
			},
		}
		handler := NewAdminOrderHandler(mockOrders, &MockWeighingService{})

		w := httptest.NewRecorder()
		c := newAuthedContext(w, "admin-1")
		c.Request = httptest.NewRequest(http.MethodGet,
			"/api/v1/admin/orders?status=awaiting_payment&pending_weighs=true&page=2&page_size=10", nil)

		handler.ListOrders(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp PageResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, int64(21), resp.Total)
		assert.Equal(t, 2, resp.Page)
	})

	t.Run("поиск и фильтры по справочникам", func(t *testing.T) {
		mockOrders := &MockOrderService{
			AdminListOrdersFunc: func(ctx context.Context, filter repository.AdminOrderFilter) ([]domain.Order, int64, error) {
				require.NotNil(t, filter.Query)
				assert.Equal(t, "ivanov@example.com", *filter.Query)
				require.NotNil(t, filter.DeliveryTypeID)
				assert.Equal(t, "dt-1", *filter.DeliveryTypeID)
				require.NotNil(t, filter.PaymentMethodID)
				assert.Equal(t, "pm-2", *filter.PaymentMethodID)
				assert.Nil(t, filter.StatusSlug)
				return nil, 0, nil
			},
		}
		handler := NewAdminOrderHandler(mockOrders, &MockWeighingService{})

		w := httptest.NewRecorder()
		c := newAuthedContext(w, "admin-1")
		c.Request = httptest.NewRequest(http.MethodGet,
			"/api/v1/admin/orders?q=ivanov@example.com&delivery_type_id=dt-1&payment_method_id=pm-2", nil)

		handler.ListOrders(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("невалидная дата from", func(t *testing.T) {
		handler := NewAdminOrderHandler(&MockOrderService{}, &MockWeighingService{})

		w := httptest.NewRecorder()
		c := newAuthedContext(w, "admin-1")
		c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders?from=not-a-date", nil)

		handler.ListOrders(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// TestAdminOrderHandler_ReviewReceipt проверяет решение по подтверждению оплаты.
func TestAdminOrderHandler_ReviewReceipt(t *testing.T) {
	t.Run("одобрение передаёт проверяющего", func(t *testing.T) {
		now := time.Now()
		mockOrders := &MockOrderService{
			AdminReviewReceiptFunc: func(ctx context.Context, receiptID, reviewerID string, approve bool, notes *string) (*domain.Receipt, error) {
				assert.Equal(t, "receipt-1", receiptID)
				assert.Equal(t, "admin-1", reviewerID)
				assert.True(t, approve)
				return &domain.Receipt{
					ID:         receiptID,
					OrderID:    "order-1",
					State:      "approved",
					UploadedAt: now.Add(-time.Hour),
					ReviewedAt: &now,
				}, nil
			},
		}
		handler := NewAdminOrderHandler(mockOrders, &MockWeighingService{})

		body, _ := json.Marshal(ReviewReceiptRequest{Approve: true})
		w := httptest.NewRecorder()
		c := newAuthedContext(w, "admin-1")
		c.Params = gin.Params{{Key: "id", Value: "receipt-1"}}
		c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/admin/receipts/receipt-1/review", bytes.NewBuffer(body))
		c.Request.Header.Set("Content-Type", "application/json")

		handler.ReviewReceipt(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp ReceiptView
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "approved", resp.State)
	})

	t.Run("подтверждение уже проверено", func(t *testing.T) {
		mockOrders := &MockOrderService{
			AdminReviewReceiptFunc: func(ctx context.Context, receiptID, reviewerID string, approve bool, notes *string) (*domain.Receipt, error) {
				return nil, domain.ErrInvalidReceiptState
			},
		}
		handler := NewAdminOrderHandler(mockOrders, &MockWeighingService{})

		body, _ := json.Marshal(ReviewReceiptRequest{Approve: false})
		w := httptest.NewRecorder()
		c := newAuthedContext(w, "admin-1")
		c.Params = gin.Params{{Key: "id", Value: "receipt-1"}}
		c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/admin/receipts/receipt-1/review", bytes.NewBuffer(body))
		c.Request.Header.Set("Content-Type", "application/json")

		handler.ReviewReceipt(c)

		assert.Equal(t, http.StatusConflict, w.Code)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "receipt_already_reviewed", resp["error"])
	})
}
