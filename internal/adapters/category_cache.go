package adapters

import (
	"context"
	"time"

	"smartsplit/internal/cache"
	"smartsplit/internal/core"
	"smartsplit/internal/sheets"
)

const categoriesKey = "categories"

// CachedCategories serves the category list from an LRU cache and falls
// back to the wrapped reader on a miss.
type CachedCategories struct {
	next  sheets.CategoryReader
	cache *cache.LRUCache[[]core.Category]
}

var _ sheets.CategoryReader = (*CachedCategories)(nil)

func NewCachedCategories(next sheets.CategoryReader, ttl time.Duration) *CachedCategories {
	return &CachedCategories{
		next:  next,
		cache: cache.NewLRUCache[[]core.Category](1, ttl),
	}
}

func (c *CachedCategories) ListCategories(ctx context.Context) ([]core.Category, error) {
	if cats, ok := c.cache.Get(categoriesKey); ok {
		return append([]core.Category(nil), cats...), nil
	}
	cats, err := c.next.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.Set(categoriesKey, append([]core.Category(nil), cats...))
	return cats, nil
}

// Invalidate drops the cached list.
func (c *CachedCategories) Invalidate() {
	c.cache.Delete(categoriesKey)
}

// Cleaner exposes the underlying cache for a cache.Manager.
func (c *CachedCategories) Cleaner() cache.Cleaner {
	return c.cache
}
