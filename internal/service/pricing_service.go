// Package service содержит бизнес-логику поверх репозиториев.
package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"example.com/bagstore/internal/domain"
	"example.com/bagstore/internal/repository"
	"example.com/bagstore/pkg/logger"
	"example.com/bagstore/pkg/metrics"
)

// PricingService разрешает действующую цену товара.
type PricingService interface {
	// Resolve возвращает действующее правило цены товара.
	// Возвращает domain.ErrNoPricingRule, если цена не настроена.
	Resolve(ctx context.Context, bag *domain.Bag) (*domain.ResolvedPricing, error)

	// ResolveByBagID загружает товар и разрешает его цену.
	ResolveByBagID(ctx context.Context, bagID string) (*domain.ResolvedPricing, error)

	// Invalidate сбрасывает кэш цены товара.
	Invalidate(ctx context.Context, bagID string)
}

const pricingCachePrefix = "pricing:"

type pricingService struct {
	catalogRepo repository.CatalogRepository
	pricingRepo repository.PricingRepository
	cache       *redis.Client // nil = без кэша
	cacheTTL    time.Duration
}

// NewPricingService создаёт сервис разрешения цен.
// cache может быть nil, тогда каждый запрос идёт в БД.
func NewPricingService(catalogRepo repository.CatalogRepository, pricingRepo repository.PricingRepository, cache *redis.Client, cacheTTL time.Duration) PricingService {
	return &pricingService{
		catalogRepo: catalogRepo,
		pricingRepo: pricingRepo,
		cache:       cache,
		cacheTTL:    cacheTTL,
	}
}

// Resolve читает цену сквозь Redis кэш. Ошибки кэша не фатальны:
// при недоступном Redis падаем на БД.
func (s *pricingService) Resolve(ctx context.Context, bag *domain.Bag) (*domain.ResolvedPricing, error) {
	log := logger.FromContext(ctx)

	if cached := s.fromCache(ctx, bag.ID); cached != nil {
		metrics.PricingCacheHits.WithLabelValues("hit").Inc()
		return cached, nil
	}

	resolved, err := s.pricingRepo.Resolve(ctx, bag, time.Now())
	if err != nil {
		return nil, err
	}

	outcome := "miss"
	if s.cache == nil {
		outcome = "bypass"
	}
	metrics.PricingCacheHits.WithLabelValues(outcome).Inc()
	s.toCache(ctx, bag.ID, resolved)

	log.Debug().
		Str("bag_id", bag.ID).
		Str("strategy", string(resolved.Strategy)).
		Msg("Цена товара разрешена")

	return resolved, nil
}

func (s *pricingService) ResolveByBagID(ctx context.Context, bagID string) (*domain.ResolvedPricing, error) {
	bag, err := s.catalogRepo.GetBag(ctx, bagID)
	if err != nil {
		return nil, err
	}
	return s.Resolve(ctx, bag)
}

func (s *pricingService) Invalidate(ctx context.Context, bagID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, pricingCachePrefix+bagID).Err(); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("bag_id", bagID).Msg("Не удалось сбросить кэш цены")
	}
}

func (s *pricingService) fromCache(ctx context.Context, bagID string) *domain.ResolvedPricing {
	if s.cache == nil {
		return nil
	}

	data, err := s.cache.Get(ctx, pricingCachePrefix+bagID).Bytes()
	if err != nil {
		if err != redis.Nil {
			log := logger.FromContext(ctx)
			log.Warn().Err(err).Msg("Ошибка чтения кэша цен, идём в БД")
		}
		return nil
	}

	var resolved domain.ResolvedPricing
	if err := json.Unmarshal(data, &resolved); err != nil {
		return nil
	}
	return &resolved
}

func (s *pricingService) toCache(ctx context.Context, bagID string, resolved *domain.ResolvedPricing) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(resolved)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, pricingCachePrefix+bagID, data, s.cacheTTL).Err(); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("Ошибка записи кэша цен")
	}
}
