package catalog

import (
	"context"
	"time"

	"storefront-workers/internal/cache"
)

// CachedCatalog memoizes product and variant lookups for a short TTL. Absent
// products and failed lookups are not cached.
type CachedCatalog struct {
	inner    Catalog
	products cache.Store[ProductRecord]
	variants cache.Store[[]VariantRecord]
	ttl      time.Duration
}

func NewCachedCatalog(inner Catalog, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{
		inner:    inner,
		products: cache.NewMemoryStore[ProductRecord](),
		variants: cache.NewMemoryStore[[]VariantRecord](),
		ttl:      ttl,
	}
}

func (c *CachedCatalog) GetProduct(ctx context.Context, idOrName string) (ProductRecord, bool, error) {
	if p, ok := c.products.Get(ctx, idOrName); ok {
		return p, true, nil
	}

	p, found, err := c.inner.GetProduct(ctx, idOrName)
	if err != nil || !found {
		return p, found, err
	}
	c.products.Set(ctx, idOrName, p, c.ttl)
	return p, true, nil
}

func (c *CachedCatalog) ListVariants(ctx context.Context, productID string) ([]VariantRecord, error) {
	if v, ok := c.variants.Get(ctx, productID); ok {
		return cloneVariants(v), nil
	}

	v, err := c.inner.ListVariants(ctx, productID)
	if err != nil {
		return nil, err
	}
	c.variants.Set(ctx, productID, cloneVariants(v), c.ttl)
	return v, nil
}

func cloneVariants(v []VariantRecord) []VariantRecord {
	out := make([]VariantRecord, len(v))
	copy(out, v)
	return out
}
