package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/orderdash/orderdash/internal/config"
)

// keyPrefix namespaces our entries so a shared redis instance can host
// other applications without key collisions.
const keyPrefix = "orderdash:"

type redisCache struct {
	client *goredis.Client
	ttl    time.Duration
}

func newRedisCache(lc fx.Lifecycle, cfg config.Cache, logger *zap.Logger) Store {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("ping redis at %s: %w", cfg.Redis.Addr, err)
			}
			if logger != nil {
				logger.Info("redis cache ready", zap.String("addr", cfg.Redis.Addr))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})

	return &redisCache{client: client, ttl: cfg.DefaultTTL}
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrCacheMiss
	}
	value, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (c *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return errors.New("cache key is required")
	}
	if ttl <= 0 {
		ttl = c.ttl
	}
	return c.client.Set(ctx, keyPrefix+key, value, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return c.client.Del(ctx, keyPrefix+key).Err()
}
