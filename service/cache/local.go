package cache

import (
	"time"

	"github.com/coocood/freecache"

	"github.com/x-xyz/goledger/base/ctx"
	"github.com/x-xyz/goledger/base/log"
)

type local struct {
	name  string
	cache *freecache.Cache
}

// NewLocal creates an in-process layer of sizeMB megabytes.
// freecache expires entries on whole seconds, so a ttl under a second never expires.
func NewLocal(name string, sizeMB int) Layer {
	return &local{name, freecache.NewCache(sizeMB * 1024 * 1024)}
}

func (l *local) Get(c ctx.Ctx, key string) ([]byte, time.Duration, error) {
	val, expireAt, err := l.cache.GetWithExpiration([]byte(key))
	if err == freecache.ErrNotFound {
		return nil, 0, ErrNotFound
	} else if err != nil {
		c.WithFields(log.Fields{"err": err, "key": key, "cache": l.name}).Error("freecache get failed")
		return nil, 0, err
	}
	if expireAt == 0 {
		return val, 0, nil
	}
	remain := time.Until(time.Unix(int64(expireAt), 0))
	if remain < 0 {
		remain = 0
	}
	return val, remain, nil
}

func (l *local) Set(c ctx.Ctx, key string, value []byte, ttl time.Duration) error {
	if err := l.cache.Set([]byte(key), value, int(ttl.Seconds())); err != nil {
		c.WithFields(log.Fields{"err": err, "key": key, "cache": l.name}).Error("freecache set failed")
		return err
	}
	return nil
}

func (l *local) Del(c ctx.Ctx, key string) error {
	l.cache.Del([]byte(key))
	return nil
}
