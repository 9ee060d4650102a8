package service

import (
	"context"

	"github.com/google/uuid"

	"example.com/bagstore/internal/domain"
	"example.com/bagstore/internal/repository"
	"example.com/bagstore/pkg/logger"
)

// ReceiptUpload — входные данные загрузки подтверждения оплаты.
type ReceiptUpload struct {
	OrderID   string
	FileURL   string
	MimeType  string
	FileName  string
	SizeBytes int64
}

// OrderService — чтение заказов покупателем и операции админки.
type OrderService interface {
	// GetMyOrder возвращает заказ пользователя.
	// Чужой заказ — domain.ErrForbidden.
	GetMyOrder(ctx context.Context, userID, orderID string) (*domain.Order, error)

	// ListMyOrders возвращает страницу заказов пользователя.
	ListMyOrders(ctx context.Context, userID string, page, pageSize int) ([]domain.Order, int64, error)

	// UploadReceipt сохраняет подтверждение оплаты заказа пользователя.
	UploadReceipt(ctx context.Context, userID string, upload ReceiptUpload) (*domain.Receipt, error)

	// AdminGetOrder возвращает любой заказ.
	AdminGetOrder(ctx context.Context, orderID string) (*domain.Order, error)

	// AdminListOrders возвращает страницу заказов по фильтру.
	AdminListOrders(ctx context.Context, filter repository.AdminOrderFilter) ([]domain.Order, int64, error)

	// AdminSetStatus переводит заказ в указанный статус.
	AdminSetStatus(ctx context.Context, orderID, statusSlug string) (*domain.Order, error)

	// AdminListPendingReceipts возвращает страницу непроверенных подтверждений.
	AdminListPendingReceipts(ctx context.Context, page, pageSize int) ([]domain.Receipt, int64, error)

	// AdminReviewReceipt одобряет или отклоняет подтверждение оплаты.
	// Одобрение помечает заказ оплаченным.
	AdminReviewReceipt(ctx context.Context, receiptID, reviewerID string, approve bool, notes *string) (*domain.Receipt, error)
}

type orderService struct {
	orderRepo   repository.OrderRepository
	receiptRepo repository.ReceiptRepository
}

// NewOrderService создаёт сервис заказов.
func NewOrderService(orderRepo repository.OrderRepository, receiptRepo repository.ReceiptRepository) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		receiptRepo: receiptRepo,
	}
}

func (s *orderService) GetMyOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return order, nil
}

func (s *orderService) ListMyOrders(ctx context.Context, userID string, page, pageSize int) ([]domain.Order, int64, error) {
	return s.orderRepo.ListByUser(ctx, userID, page, pageSize)
}

func (s *orderService) UploadReceipt(ctx context.Context, userID string, upload ReceiptUpload) (*domain.Receipt, error) {
	order, err := s.orderRepo.GetByID(ctx, upload.OrderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, domain.ErrForbidden
	}

	receipt := domain.Receipt{
		ID:         uuid.New().String(),
		OrderID:    upload.OrderID,
		FileURL:    upload.FileURL,
		MimeType:   upload.MimeType,
		FileName:   upload.FileName,
		SizeBytes:  upload.SizeBytes,
		UploadedBy: userID,
	}
	if err := s.receiptRepo.Create(ctx, &receipt); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("order_id", upload.OrderID).
		Str("receipt_id", receipt.ID).
		Msg("Загружено подтверждение оплаты")

	return &receipt, nil
}

func (s *orderService) AdminGetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.orderRepo.GetByID(ctx, orderID)
}

func (s *orderService) AdminListOrders(ctx context.Context, filter repository.AdminOrderFilter) ([]domain.Order, int64, error) {
	return s.orderRepo.AdminList(ctx, filter)
}

func (s *orderService) AdminSetStatus(ctx context.Context, orderID, statusSlug string) (*domain.Order, error) {
	if err := s.orderRepo.UpdateStatus(ctx, orderID, statusSlug); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("order_id", orderID).
		Str("status", statusSlug).
		Msg("Статус заказа изменён")

	return s.orderRepo.GetByID(ctx, orderID)
}

func (s *orderService) AdminListPendingReceipts(ctx context.Context, page, pageSize int) ([]domain.Receipt, int64, error) {
	return s.receiptRepo.ListPending(ctx, page, pageSize)
}

func (s *orderService) AdminReviewReceipt(ctx context.Context, receiptID, reviewerID string, approve bool, notes *string) (*domain.Receipt, error) {
	log := logger.FromContext(ctx)

	var err error
	if approve {
		err = s.receiptRepo.Approve(ctx, receiptID, reviewerID, notes)
	} else {
		err = s.receiptRepo.Reject(ctx, receiptID, reviewerID, notes)
	}
	if err != nil {
		return nil, err
	}

	receipt, err := s.receiptRepo.GetByID(ctx, receiptID)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("receipt_id", receiptID).
		Str("order_id", receipt.OrderID).
		Str("state", receipt.State).
		Msg("Подтверждение оплаты рассмотрено")

	return receipt, nil
}
