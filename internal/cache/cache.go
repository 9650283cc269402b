package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/orderdash/orderdash/internal/config"
)

// ErrCacheMiss indicates the key is absent from the cache.
var ErrCacheMiss = errors.New("cache miss")

// Store is a byte-oriented cache. Callers serialize their own values; a
// ttl of zero or less falls back to the configured default.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Module provides the cache store to the Fx graph.
var Module = fx.Provide(NewStore)

// NewStore selects the backend named by the configuration.
func NewStore(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (Store, error) {
	switch cfg.Cache.Driver {
	case "noop":
		if logger != nil {
			logger.Info("caching disabled, orders are served from the database only")
		}
		return NewNoop(), nil
	case "redis":
		return newRedisCache(lc, cfg.Cache, logger), nil
	default:
		return nil, fmt.Errorf("unsupported cache driver: %s", cfg.Cache.Driver)
	}
}

// NewNoop returns a store that never holds anything: every Get misses and
// writes vanish. It backs disabled-cache deployments and tests.
func NewNoop() Store {
	return noop{}
}

type noop struct{}

func (noop) Get(context.Context, string) ([]byte, error) { return nil, ErrCacheMiss }

func (noop) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (noop) Delete(context.Context, string) error { return nil }
