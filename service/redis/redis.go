package redis

import (
	"errors"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/x-xyz/goledger/base/ctx"
)

const (
	// Forever keeps a key without expiration
	Forever time.Duration = 0
)

var (
	// ErrNotFound is returned when the key does not exist
	ErrNotFound = redis.ErrNil
	// ErrNoTTL is returned by TTL when the key exists without an expiration
	ErrNoTTL = errors.New("key has no ttl")
	// ErrNoPool is returned when no pool serves the command
	ErrNoPool = errors.New("no redis pool available")
)

// Service is the subset of redis commands the ledger relies on
type Service interface {
	Get(c ctx.Ctx, key string) ([]byte, error)
	Set(c ctx.Ctx, key string, val []byte, expire time.Duration) error
	Del(c ctx.Ctx, keys ...string) (int, error)
	TTL(c ctx.Ctx, key string) (int, error)
	Publish(c ctx.Ctx, channel string, msg []byte) (int, error)
	Ping(c ctx.Ctx) error
}
