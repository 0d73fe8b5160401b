package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-plant-market.git/internal/redisx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type Getter interface {
	Get(ctx context.Context, id string) (Product, error)
}

// Cache is a cache-aside reader in front of the product repo. Redis errors
// degrade to a direct read; they never fail the request.
type Cache struct {
	RDB    redis.Cmdable
	Source Getter
	TTL    time.Duration
	Log    *zap.Logger

	group singleflight.Group
}

func NewCache(rdb redis.Cmdable, src Getter, ttl time.Duration, log *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = redisx.TTLProduct
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{RDB: rdb, Source: src, TTL: ttl, Log: log}
}

func (c *Cache) Get(ctx context.Context, id string) (Product, error) {
	key := fmt.Sprintf(redisx.KeyProduct, id)
	b, err := c.RDB.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p Product
		if jerr := json.Unmarshal(b, &p); jerr == nil {
			return p, nil
		}
		c.Log.Warn("product cache entry unreadable", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.Log.Warn("product cache get failed", zap.String("key", key), zap.Error(err))
	}

	// singleflight collapses concurrent misses for the same plant into one read.
	// the shared read must outlive the caller that happened to start it
	v, err, _ := c.group.Do(id, func() (any, error) {
		ctx := context.WithoutCancel(ctx)
		p, err := c.Source.Get(ctx, id)
		if err != nil {
			return Product{}, err
		}
		if b, err := json.Marshal(p); err == nil {
			if err := c.RDB.Set(ctx, key, b, c.TTL).Err(); err != nil {
				c.Log.Warn("product cache set failed", zap.String("key", key), zap.Error(err))
			}
		}
		return p, nil
	})
	if err != nil {
		return Product{}, err
	}
	return v.(Product), nil
}

// Invalidate drops the cached copy after the product's quantity changed.
func (c *Cache) Invalidate(ctx context.Context, id string) error {
	return c.RDB.Del(ctx, fmt.Sprintf(redisx.KeyProduct, id)).Err()
}
