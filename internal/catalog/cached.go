package catalog

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const listingCacheKey = "products:listing"

// Lister returns the storefront listing source records.
type Lister interface {
	ListProducts(ctx context.Context) ([]Product, error)
}

// Cache stores JSON-encodable values with a TTL.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

// CachedLister serves the listing from a cache, falling back to the remote catalog.
// Cache failures are logged and never fail the listing.
type CachedLister struct {
	next   Lister
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedLister(next Lister, cache Cache, ttl time.Duration, logger *zap.Logger) *CachedLister {
	return &CachedLister{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger.Named("catalog-cache"),
	}
}

func (l *CachedLister) ListProducts(ctx context.Context) ([]Product, error) {
	var cached []Product
	hit, err := l.cache.GetJSON(ctx, listingCacheKey, &cached)
	if err != nil {
		l.logger.Warn("cache read failed", zap.Error(err))
	}
	if hit {
		return cached, nil
	}

	products, err := l.next.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	if err := l.cache.SetJSON(ctx, listingCacheKey, products, l.ttl); err != nil {
		l.logger.Warn("cache write failed", zap.Error(err))
	}
	return products, nil
}
