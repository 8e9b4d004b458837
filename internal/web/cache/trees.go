package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/conduit-lang/drest/internal/filter"
)

// TreeCacheConfig configures a TreeCache
type TreeCacheConfig struct {
	TTL time.Duration
	// Namespace separates entries built from different schema definitions.
	// The builder configuration is appended to it.
	Namespace string
}

// TreeCache builds filter trees through a Builder and keeps their JSON
// encoding in a Store. Failed translations are never stored. Keys include
// the builder configuration, so caches with different primary key aliases
// can share a store.
type TreeCache struct {
	store     Store
	builder   *filter.Builder
	config    TreeCacheConfig
	namespace string
	logger    *zap.Logger
}

// NewTreeCache creates a tree cache. A nil store disables caching.
func NewTreeCache(store Store, builder *filter.Builder, config TreeCacheConfig, logger *zap.Logger) *TreeCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TreeCache{
		store:     store,
		builder:   builder,
		config:    config,
		namespace: config.Namespace + "|" + builder.Config().String(),
		logger:    logger,
	}
}

// Key returns the store key for resource and params
func (c *TreeCache) Key(resource string, params *filter.Params) string {
	return TreeKey(c.namespace, resource, params)
}

// Encode returns the JSON encoded tree for resource and params. hit reports
// whether the result came from the store.
func (c *TreeCache) Encode(ctx context.Context, resource string, params *filter.Params) (data []byte, hit bool, err error) {
	if c.store == nil {
		data, err = c.build(resource, params)
		return data, false, err
	}

	key := c.Key(resource, params)
	data, err = c.store.Get(ctx, key)
	switch {
	case err == nil:
		c.logger.Debug("tree cache hit", zap.String("resource", resource), zap.String("cache_key", key))
		return data, true, nil
	case !IsCacheMiss(err):
		c.logger.Warn("tree cache read failed", zap.String("cache_key", key), zap.Error(err))
	}

	data, err = c.build(resource, params)
	if err != nil {
		return nil, false, err
	}

	if err := c.store.Set(ctx, key, data, c.config.TTL); err != nil {
		c.logger.Warn("tree cache write failed", zap.String("cache_key", key), zap.Error(err))
	}
	return data, false, nil
}

func (c *TreeCache) build(resource string, params *filter.Params) ([]byte, error) {
	tree, err := c.builder.BuildFor(resource, params)
	if err != nil {
		return nil, err
	}
	return json.Marshal(tree)
}
