// Package service — общие моки репозиториев для unit тестов сервисов.
package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"example.com/bagstore/internal/domain"
	"example.com/bagstore/internal/repository"
)

// =====================================
// MockCartRepository
// =====================================

type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) GetOrCreateActive(ctx context.Context, userID string) (*domain.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *MockCartRepository) GetActive(ctx context.Context, userID string) (*domain.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *MockCartRepository) ListLines(ctx context.Context, cartID string) ([]domain.CartLine, error) {
	args := m.Called(ctx, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CartLine), args.Error(1)
}

func (m *MockCartRepository) UpsertLine(ctx context.Context, line *domain.CartLine) error {
	return m.Called(ctx, line).Error(0)
}

func (m *MockCartRepository) UpdateQuantity(ctx context.Context, cartID, bagID string, quantity int32) error {
	return m.Called(ctx, cartID, bagID, quantity).Error(0)
}

func (m *MockCartRepository) UpdateLinePricing(ctx context.Context, cartID, bagID string, price decimal.Decimal, strategy domain.PricingStrategy, snapshot domain.PricingSnapshot) error {
	return m.Called(ctx, cartID, bagID, price, strategy, snapshot).Error(0)
}

func (m *MockCartRepository) RemoveLine(ctx context.Context, cartID, bagID string) error {
	return m.Called(ctx, cartID, bagID).Error(0)
}

func (m *MockCartRepository) Clear(ctx context.Context, cartID string) error {
	return m.Called(ctx, cartID).Error(0)
}

// =====================================
// MockCatalogRepository
// =====================================

type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) ListTypes(ctx context.Context) ([]domain.BagType, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BagType), args.Error(1)
}

func (m *MockCatalogRepository) ListSubtypes(ctx context.Context, typeID string) ([]domain.BagSubtype, error) {
	args := m.Called(ctx, typeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BagSubtype), args.Error(1)
}

func (m *MockCatalogRepository) GetBag(ctx context.Context, bagID string) (*domain.Bag, error) {
	args := m.Called(ctx, bagID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Bag), args.Error(1)
}

func (m *MockCatalogRepository) SearchBags(ctx context.Context, filter domain.BagFilter) ([]domain.Bag, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]domain.Bag), args.Get(1).(int64), args.Error(2)
}

func (m *MockCatalogRepository) ListStatuses(ctx context.Context) ([]domain.OrderStatus, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OrderStatus), args.Error(1)
}

func (m *MockCatalogRepository) GetStatusBySlug(ctx context.Context, slug string) (*domain.OrderStatus, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderStatus), args.Error(1)
}

func (m *MockCatalogRepository) ListDeliveryTypes(ctx context.Context) ([]domain.DeliveryType, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DeliveryType), args.Error(1)
}

func (m *MockCatalogRepository) GetDeliveryType(ctx context.Context, id string) (*domain.DeliveryType, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeliveryType), args.Error(1)
}

func (m *MockCatalogRepository) ListPaymentMethods(ctx context.Context) ([]domain.PaymentMethod, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PaymentMethod), args.Error(1)
}

// =====================================
// MockPricingService
// =====================================

type MockPricingService struct {
	mock.Mock
}

func (m *MockPricingService) Resolve(ctx context.Context, bag *domain.Bag) (*domain.ResolvedPricing, error) {
	args := m.Called(ctx, bag)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ResolvedPricing), args.Error(1)
}

func (m *MockPricingService) ResolveByBagID(ctx context.Context, bagID string) (*domain.ResolvedPricing, error) {
	args := m.Called(ctx, bagID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ResolvedPricing), args.Error(1)
}

func (m *MockPricingService) Invalidate(ctx context.Context, bagID string) {
	m.Called(ctx, bagID)
}

// =====================================
// MockOrderRepository
// =====================================

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Checkout(ctx context.Context, params repository.CheckoutParams) (*domain.Order, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) RecordLineWeight(ctx context.Context, orderID, bagID string, weight decimal.Decimal) (*domain.Order, error) {
	args := m.Called(ctx, orderID, bagID, weight)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, orderID string) (*domain.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]domain.Order, int64, error) {
	args := m.Called(ctx, userID, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]domain.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) AdminList(ctx context.Context, filter repository.AdminOrderFilter) ([]domain.Order, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]domain.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, orderID, statusSlug string) error {
	return m.Called(ctx, orderID, statusSlug).Error(0)
}

func (m *MockOrderRepository) MarkPaid(ctx context.Context, orderID string, at time.Time) error {
	return m.Called(ctx, orderID, at).Error(0)
}

// =====================================
// MockReceiptRepository
// =====================================

type MockReceiptRepository struct {
	mock.Mock
}

func (m *MockReceiptRepository) Create(ctx context.Context, receipt *domain.Receipt) error {
	return m.Called(ctx, receipt).Error(0)
}

func (m *MockReceiptRepository) GetByID(ctx context.Context, receiptID string) (*domain.Receipt, error) {
	args := m.Called(ctx, receiptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Receipt), args.Error(1)
}

func (m *MockReceiptRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.Receipt, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Receipt), args.Error(1)
}

func (m *MockReceiptRepository) ListPending(ctx context.Context, page, pageSize int) ([]domain.Receipt, int64, error) {
	args := m.Called(ctx, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]domain.Receipt), args.Get(1).(int64), args.Error(2)
}

func (m *MockReceiptRepository) Approve(ctx context.Context, receiptID, reviewerID string, notes *string) error {
	return m.Called(ctx, receiptID, reviewerID, notes).Error(0)
}

func (m *MockReceiptRepository) Reject(ctx context.Context, receiptID, reviewerID string, notes *string) error {
	return m.Called(ctx, receiptID, reviewerID, notes).Error(0)
}

// =====================================
// MockUserRepository
// =====================================

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	return m.Called(ctx, userID, passwordHash).Error(0)
}

func (m *MockUserRepository) CreatePasswordReset(ctx context.Context, reset *domain.PasswordReset) error {
	return m.Called(ctx, reset).Error(0)
}

func (m *MockUserRepository) ConsumePasswordReset(ctx context.Context, tokenHash, passwordHash string, now time.Time) error {
	return m.Called(ctx, tokenHash, passwordHash, now).Error(0)
}

// =====================================
// MockAddressRepository
// =====================================

type MockAddressRepository struct {
	mock.Mock
}

func (m *MockAddressRepository) Create(ctx context.Context, address *domain.Address) error {
	return m.Called(ctx, address).Error(0)
}

func (m *MockAddressRepository) ListByUser(ctx context.Context, userID string) ([]domain.Address, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Address), args.Error(1)
}

func (m *MockAddressRepository) GetByID(ctx context.Context, userID, addressID string) (*domain.Address, error) {
	args := m.Called(ctx, userID, addressID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Address), args.Error(1)
}

func (m *MockAddressRepository) Update(ctx context.Context, address *domain.Address) error {
	return m.Called(ctx, address).Error(0)
}

func (m *MockAddressRepository) Delete(ctx context.Context, userID, addressID string) error {
	return m.Called(ctx, userID, addressID).Error(0)
}

// =====================================
// MockMailer
// =====================================

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendPasswordReset(ctx context.Context, email, resetURL string) error {
	return m.Called(ctx, email, resetURL).Error(0)
}
