package repository

import (
	"context"
	"fmt"
	"time"

	"YutaiScan/internal/domain/models"
	"YutaiScan/internal/domain/repository"
	"YutaiScan/pkg/cache"
)

// CachedPriceStore decorates a PriceStore with a cache layer. Full-history
// series dominate scan latency during batch runs; a warm cache turns the
// N-instrument batch into one ClickHouse read per instrument per TTL.
type CachedPriceStore struct {
	next  repository.PriceStore
	cache cache.Service
	ttl   time.Duration
}

func NewCachedPriceStore(next repository.PriceStore, c cache.Service, ttl time.Duration) repository.PriceStore {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &CachedPriceStore{next: next, cache: c, ttl: ttl}
}

func (s *CachedPriceStore) GetPriceSeries(ctx context.Context, code string, years int) ([]models.PriceBar, error) {
	key := cache.GenerateKeyWithParams("bars", code, years)

	var bars []models.PriceBar
	if err := s.cache.Get(ctx, key, &bars); err == nil {
		return bars, nil
	}

	bars, err := s.next.GetPriceSeries(ctx, code, years)
	if err != nil {
		return nil, err
	}
	// Cache failures must not fail the read path.
	_ = s.cache.Set(ctx, key, bars, s.ttl)
	return bars, nil
}

func (s *CachedPriceStore) PutPriceSeries(ctx context.Context, bars []models.PriceBar) error {
	if err := s.next.PutPriceSeries(ctx, bars); err != nil {
		return err
	}
	// New bars invalidate every cached span for the affected codes.
	seen := make(map[string]struct{}, 4)
	for _, b := range bars {
		if _, ok := seen[b.Code]; ok {
			continue
		}
		seen[b.Code] = struct{}{}
		pattern := cache.BuildPattern(fmt.Sprintf("bars:%s", b.Code))
		_ = s.cache.DeleteByPattern(ctx, pattern)
	}
	return nil
}

func (s *CachedPriceStore) Health(ctx context.Context) error {
	return s.next.Health(ctx)
}
