// Package cache adapts the shared Redis cache to the analysis cache port.
package cache

import (
	"context"
	"time"

	"briefing_worker/core/domain"
	"briefing_worker/core/port/out"
	pkgcache "briefing_worker/pkg/cache"
)

// AnalysisCache implements out.AnalysisCachePort on Redis.
type AnalysisCache struct {
	cache *pkgcache.RedisCache
	ttl   time.Duration
}

var _ out.AnalysisCachePort = (*AnalysisCache)(nil)

func NewAnalysisCache(cache *pkgcache.RedisCache, ttl time.Duration) *AnalysisCache {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &AnalysisCache{cache: cache, ttl: ttl}
}

func (c *AnalysisCache) Get(ctx context.Context, key string) (*domain.ThreadAnalysis, bool, error) {
	var analysis domain.ThreadAnalysis
	found, err := c.cache.GetJSON(ctx, key, &analysis)
	if err != nil || !found {
		return nil, false, err
	}
	return &analysis, true, nil
}

func (c *AnalysisCache) Set(ctx context.Context, key string, analysis *domain.ThreadAnalysis) error {
	return c.cache.SetJSON(ctx, key, analysis, c.ttl)
}
