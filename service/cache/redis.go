package cache

import (
	"errors"
	"time"

	"github.com/x-xyz/goledger/base/ctx"
	"github.com/x-xyz/goledger/service/redis"
)

type remote struct {
	redis redis.Service
}

// NewRedis creates a layer shared by every ledger instance
func NewRedis(r redis.Service) Layer {
	return &remote{r}
}

func (r *remote) Get(c ctx.Ctx, key string) ([]byte, time.Duration, error) {
	val, err := r.redis.Get(c, key)
	if errors.Is(err, redis.ErrNotFound) {
		return nil, 0, ErrNotFound
	} else if err != nil {
		c.WithField("err", err).WithField("key", key).Error("redis.Get failed")
		return nil, 0, err
	}

	ttl, err := r.redis.TTL(c, key)
	switch {
	case errors.Is(err, redis.ErrNoTTL):
		return val, 0, nil
	case errors.Is(err, redis.ErrNotFound):
		// expired between GET and TTL
		return nil, 0, ErrNotFound
	case err != nil:
		c.WithField("err", err).WithField("key", key).Error("redis.TTL failed")
		return nil, 0, err
	}
	return val, time.Duration(ttl) * time.Second, nil
}

func (r *remote) Set(c ctx.Ctx, key string, value []byte, ttl time.Duration) error {
	if err := r.redis.Set(c, key, value, ttl); err != nil {
		c.WithField("err", err).WithField("key", key).Error("redis.Set failed")
		return err
	}
	return nil
}

func (r *remote) Del(c ctx.Ctx, key string) error {
	if _, err := r.redis.Del(c, key); err != nil {
		c.WithField("err", err).WithField("key", key).Error("redis.Del failed")
		return err
	}
	return nil
}
