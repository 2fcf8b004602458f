// Package cache is a read-through cache of typed records over one or more byte layers.
package cache

import (
	"errors"
	"time"

	"github.com/x-xyz/goledger/base/ctx"
)

var (
	ErrNotFound = errors.New("cache not found")
)

// Layer is a raw byte cache, e.g. in-process memory or redis
type Layer interface {
	Get(c ctx.Ctx, key string) ([]byte, time.Duration, error)
	Set(c ctx.Ctx, key string, value []byte, ttl time.Duration) error
	Del(c ctx.Ctx, key string) error
}

// Codec converts records to and from the bytes stored in a Layer
type Codec struct {
	Marshal   func(interface{}) ([]byte, error)
	Unmarshal func([]byte, interface{}) error
}

// Service caches records of type T under a key prefix
type Service[T any] interface {
	// GetByFunc returns the cached record or loads it with getter on a miss.
	// Concurrent misses on one key share a single getter call.
	GetByFunc(c ctx.Ctx, key string, getter func() (*T, error)) (*T, error)
	Get(c ctx.Ctx, key string) (*T, error)
	Set(c ctx.Ctx, key string, value *T) error
	Del(c ctx.Ctx, key string) error
}

type Config struct {
	Ttl time.Duration
	Pfx string
	// Layers are consulted nearest first
	Layers []Layer
	// Codec defaults to encoding/json
	Codec *Codec
}
