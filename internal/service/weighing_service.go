package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"example.com/bagstore/internal/domain"
	"example.com/bagstore/internal/repository"
	"example.com/bagstore/pkg/logger"
	"example.com/bagstore/pkg/metrics"
)

// WeighingService записывает результаты взвешивания весовых позиций.
type WeighingService interface {
	// RecordWeight записывает измеренный вес позиции заказа и возвращает
	// заказ с пересчитанными суммами.
	RecordWeight(ctx context.Context, orderID, bagID string, weight decimal.Decimal) (*domain.Order, error)
}

type weighingService struct {
	orderRepo repository.OrderRepository
}

// NewWeighingService создаёт сервис взвешивания.
func NewWeighingService(orderRepo repository.OrderRepository) WeighingService {
	return &weighingService{orderRepo: orderRepo}
}

func (s *weighingService) RecordWeight(ctx context.Context, orderID, bagID string, weight decimal.Decimal) (*domain.Order, error) {
	log := logger.FromContext(ctx)

	order, err := s.orderRepo.RecordLineWeight(ctx, orderID, bagID, weight)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrLineNotWeighable),
			errors.Is(err, domain.ErrLineMissingKgPrice),
			errors.Is(err, domain.ErrInvalidWeight),
			errors.Is(err, domain.ErrWeightExceedsMax):
			metrics.WeighingsTotal.WithLabelValues("rejected").Inc()
		default:
			metrics.WeighingsTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	metrics.WeighingsTotal.WithLabelValues("success").Inc()

	pending := 0
	for i := range order.Lines {
		if order.Lines[i].Pending() {
			pending++
		}
	}

	log.Info().
		Str("order_id", orderID).
		Str("bag_id", bagID).
		Str("weight_kg", weight.String()).
		Int("pending_lines", pending).
		Str("status", order.StatusSlug).
		Msg("Позиция заказа взвешена")

	return order, nil
}
