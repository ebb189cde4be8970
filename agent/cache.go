package agent

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type Cache[S any] interface {
	Set(ctx context.Context, key string, val S) error
	Get(ctx context.Context, key string) (S, bool, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// ExpiringCache keeps values in process and drops them after ttl without
// access. Reads slide the expiration. A ttl <= 0 never expires.
type ExpiringCache[S any] struct {
	core *gocache.Cache
	ttl  time.Duration
}

func NewExpiringCache[S any](ttl time.Duration) *ExpiringCache[S] {
	expiration := ttl
	cleanup := ttl
	if ttl <= 0 {
		expiration = gocache.NoExpiration
		cleanup = 0
	}
	return &ExpiringCache[S]{
		core: gocache.New(expiration, cleanup),
		ttl:  expiration,
	}
}

// OnEvicted registers fn to run when a value expires or is deleted.
func (c *ExpiringCache[S]) OnEvicted(fn func(key string, val S)) {
	c.core.OnEvicted(func(key string, v any) {
		if val, ok := v.(S); ok {
			fn(key, val)
		}
	})
}

func (c *ExpiringCache[S]) Set(ctx context.Context, key string, val S) error {
	c.core.Set(key, val, c.ttl)
	return nil
}

func (c *ExpiringCache[S]) Get(ctx context.Context, key string) (S, bool, error) {
	var zero S
	v, ok := c.core.Get(key)
	if !ok {
		return zero, false, nil
	}
	val, ok := v.(S)
	if !ok {
		return zero, false, nil
	}
	c.core.Set(key, val, c.ttl)
	return val, true, nil
}

func (c *ExpiringCache[S]) Del(ctx context.Context, key string) error {
	c.core.Delete(key)
	return nil
}

func (c *ExpiringCache[S]) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := c.core.Get(key)
	return ok, nil
}

func (c *ExpiringCache[S]) Len() int {
	return c.core.ItemCount()
}
