package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/conduit-lang/drest/internal/cli/config"
	"github.com/conduit-lang/drest/internal/cli/ui"
	"github.com/conduit-lang/drest/internal/filter"
	"github.com/conduit-lang/drest/internal/schema"
	"github.com/conduit-lang/drest/internal/web/cache"
	"github.com/conduit-lang/drest/internal/web/middleware"
	"github.com/conduit-lang/drest/internal/web/ratelimit"
)

// newLogger builds a development logger when verbose, otherwise a
// production logger at the configured level
func newLogger(cfg config.LogConfig, verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}

	level, err := cfg.ZapLevel()
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// loadRegistry reads and seals the schema definitions. The primary key
// alias is reserved so no schema field is shadowed by it.
func loadRegistry(cfg *config.Config, logger *zap.Logger) (*schema.Registry, error) {
	path := cfg.Schema.Path
	registry, err := schema.LoadFile(path, cfg.Filter.PKAlias)
	if err != nil {
		return nil, configError(err)
	}

	logger.Debug("loaded schema definitions",
		zap.String("path", path),
		zap.Int("schemas", registry.Count()))
	return registry, nil
}

func newBuilder(registry *schema.Registry, cfg *config.Config, logger *zap.Logger) *filter.Builder {
	return filter.NewBuilder(registry, filter.Config{
		PrimaryKeyAlias: cfg.Filter.PKAlias,
		DefaultBucket:   filter.Include,
	}, logger.Named("filter"))
}

// newStore opens the configured cache backend; nil means caching is off
func newStore(ctx context.Context, cfg config.CacheConfig) (cache.Store, error) {
	common := cache.DefaultConfig()
	common.DefaultTTL = cfg.TTL

	switch cfg.Backend {
	case config.CacheNone:
		return nil, nil
	case config.CacheRedis:
		store, err := cache.NewRedisStore(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Config:   common,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return cache.NewMemoryStore(common), nil
	}
}

// newLimiter builds the per-client limiter; nil means limiting is off.
// A redis cache store shares its client so every instance sees one window.
func newLimiter(cfg config.RateLimitConfig, store cache.Store) (ratelimit.Limiter, error) {
	if cfg.Requests == 0 {
		return nil, nil
	}

	limits := ratelimit.Config{Requests: cfg.Requests, Window: cfg.Window}
	if rs, ok := store.(*cache.RedisStore); ok {
		limiter, err := ratelimit.NewRedis(rs.Client(), limits, cache.DefaultConfig().Prefix+"ratelimit:")
		if err != nil {
			return nil, configError(err)
		}
		return limiter, nil
	}

	limiter, err := ratelimit.NewMemory(limits, cfg.Window)
	if err != nil {
		return nil, configError(err)
	}
	return limiter, nil
}

// limiterKey picks how clients are told apart
func limiterKey(cfg config.RateLimitConfig) middleware.KeyFunc {
	if cfg.TrustProxy {
		return middleware.ForwardedIPKeyFunc
	}
	return middleware.IPKeyFunc
}

// schemaNamespace keys cached trees to the exact schema file contents
func schemaNamespace(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read schema file %s: %w", path, err)
	}
	return Version + ":" + cache.Fingerprint(data), nil
}

// translationError renders filter failures for the terminal
func translationError(err error, registry *schema.Registry, resource string) error {
	if errors.Is(err, schema.ErrSchemaNotFound) {
		return &displayError{err: err, message: ui.ResourceNotFoundError(resource, registry.List(), color.NoColor)}
	}

	var messages []string
	var merr *multierror.Error
	if errors.As(err, &merr) {
		for _, e := range merr.Errors {
			messages = append(messages, e.Error())
		}
	} else {
		messages = []string{err.Error()}
	}
	return &displayError{err: err, message: ui.FilterError(messages, color.NoColor)}
}
