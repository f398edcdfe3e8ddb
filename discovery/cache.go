package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"pantrypal/metrics"
	"pantrypal/models"
	"pantrypal/rdx"
)

// CachedProvider serves repeated searches from the cache. Cache failures
// fall through to the wrapped provider.
type CachedProvider struct {
	next    Provider
	cache   rdx.Cache
	ttl     time.Duration
	metrics *metrics.Registry
	logger  *logrus.Logger
}

func NewCachedProvider(next Provider, cache rdx.Cache, ttl time.Duration, reg *metrics.Registry, logger *logrus.Logger) *CachedProvider {
	return &CachedProvider{next: next, cache: cache, ttl: ttl, metrics: reg, logger: logger}
}

func cacheKey(ingredients []string, page, pageSize int) string {
	return fmt.Sprintf("discovery:%s:%d:%d", strings.ToLower(strings.Join(ingredients, ",")), page, pageSize)
}

func (c *CachedProvider) Search(ctx context.Context, ingredients []string, page, pageSize int) ([]models.RecipeSummary, error) {
	key := cacheKey(ingredients, page, pageSize)

	val, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.WithError(err).Warn("Discovery cache read failed")
	}
	if ok {
		var cached []models.RecipeSummary
		if err := json.Unmarshal(val, &cached); err == nil {
			c.metrics.CacheLookup(true)
			return cached, nil
		}
	}
	c.metrics.CacheLookup(false)

	recipes, err := c.next.Search(ctx, ingredients, page, pageSize)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(recipes); err == nil {
		if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
			c.logger.WithError(err).Warn("Discovery cache write failed")
		}
	}
	return recipes, nil
}
