package service

import (
	"context"
	"errors"

	"example.com/bagstore/internal/domain"
	"example.com/bagstore/internal/repository"
)

// BagDetail — товар с разрешённой ценой для карточки каталога.
type BagDetail struct {
	Bag     domain.Bag
	Pricing *domain.ResolvedPricing // nil, если цена не настроена
}

// CatalogService — чтение каталога и справочников.
type CatalogService interface {
	ListTypes(ctx context.Context) ([]domain.BagType, error)
	ListSubtypes(ctx context.Context, typeID string) ([]domain.BagSubtype, error)

	// GetBag возвращает карточку товара с разрешённой ценой.
	GetBag(ctx context.Context, bagID string) (*BagDetail, error)

	// SearchBags возвращает страницу товаров по фильтру.
	SearchBags(ctx context.Context, filter domain.BagFilter) ([]domain.Bag, int64, error)

	ListDeliveryTypes(ctx context.Context) ([]domain.DeliveryType, error)
	ListPaymentMethods(ctx context.Context) ([]domain.PaymentMethod, error)
	ListOrderStatuses(ctx context.Context) ([]domain.OrderStatus, error)
}

type catalogService struct {
	catalogRepo repository.CatalogRepository
	pricing     PricingService
}

// NewCatalogService создаёт сервис каталога.
func NewCatalogService(catalogRepo repository.CatalogRepository, pricing PricingService) CatalogService {
	return &catalogService{catalogRepo: catalogRepo, pricing: pricing}
}

func (s *catalogService) ListTypes(ctx context.Context) ([]domain.BagType, error) {
	return s.catalogRepo.ListTypes(ctx)
}

func (s *catalogService) ListSubtypes(ctx context.Context, typeID string) ([]domain.BagSubtype, error) {
	return s.catalogRepo.ListSubtypes(ctx, typeID)
}

func (s *catalogService) GetBag(ctx context.Context, bagID string) (*BagDetail, error) {
	bag, err := s.catalogRepo.GetBag(ctx, bagID)
	if err != nil {
		return nil, err
	}

	detail := BagDetail{Bag: *bag}

	resolved, err := s.pricing.Resolve(ctx, bag)
	if err != nil && !errors.Is(err, domain.ErrNoPricingRule) {
		return nil, err
	}
	if err == nil {
		detail.Pricing = resolved
	}

	return &detail, nil
}

func (s *catalogService) SearchBags(ctx context.Context, filter domain.BagFilter) ([]domain.Bag, int64, error) {
	return s.catalogRepo.SearchBags(ctx, filter)
}

func (s *catalogService) ListDeliveryTypes(ctx context.Context) ([]domain.DeliveryType, error) {
	return s.catalogRepo.ListDeliveryTypes(ctx)
}

func (s *catalogService) ListPaymentMethods(ctx context.Context) ([]domain.PaymentMethod, error) {
	return s.catalogRepo.ListPaymentMethods(ctx)
}

func (s *catalogService) ListOrderStatuses(ctx context.Context) ([]domain.OrderStatus, error) {
	return s.catalogRepo.ListStatuses(ctx)
}
