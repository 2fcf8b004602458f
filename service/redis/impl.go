package redis

import (
	"errors"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/x-xyz/goledger/base/ctx"
	"github.com/x-xyz/goledger/base/log"
	"github.com/x-xyz/goledger/base/metrics"
	"github.com/x-xyz/goledger/domain/keys"
)

const (
	// TTL replies for a missing key and for a key without expiration
	ttlNoKey    = -2
	ttlNoExpire = -1

	delBatchSize = 100
)

type redImpl struct {
	name  string
	met   metrics.Service
	pools *Pools
}

// Pools represents different pool types
type Pools struct {
	Src *redis.Pool
}

// New wraps the pools of one redis cluster. name tags every metric.
func New(name string, met metrics.Service, pools *Pools) Service {
	return &redImpl{
		name:  name,
		met:   met,
		pools: pools,
	}
}

// do runs one command on a pooled connection and records its latency under
// the command name and the key prefix
func (r *redImpl) do(c ctx.Ctx, cmd, key string, args ...interface{}) (interface{}, error) {
	tags := []string{"func", cmd, "cluster", r.name, "prefix", keys.GetPrefix(key)}
	defer r.met.BumpTime("time", tags...).End()

	if r.pools == nil || r.pools.Src == nil {
		return nil, ErrNoPool
	}
	conn, err := r.pools.Src.GetContext(c)
	if err != nil {
		r.met.BumpSum("getconn.err", 1, "cluster", r.name)
		return nil, err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			r.met.BumpSum("conn.close.err", 1, "cluster", r.name)
		}
	}()

	reply, err := redis.DoContext(conn, c, cmd, args...)
	if err != nil && !errors.Is(err, redis.ErrNil) {
		r.met.BumpSum("err", 1, tags...)
		c.WithFields(log.Fields{"err": err, "cmd": cmd, "key": key}).Error("redis command failed")
	}
	return reply, err
}

func (r *redImpl) Get(c ctx.Ctx, key string) ([]byte, error) {
	return redis.Bytes(r.do(c, "GET", key, key))
}

func (r *redImpl) Set(c ctx.Ctx, key string, val []byte, expire time.Duration) error {
	r.met.BumpHistogram("bytes", float64(len(val)), "cluster", r.name, "prefix", keys.GetPrefix(key))
	if expire == Forever {
		_, err := r.do(c, "SET", key, key, val)
		return err
	}
	_, err := r.do(c, "SET", key, key, val, "PX", expire.Milliseconds())
	return err
}

// Del removes keys in batches of delBatchSize and returns how many existed
func (r *redImpl) Del(c ctx.Ctx, ks ...string) (int, error) {
	if len(ks) == 0 {
		return 0, errors.New("no keys to delete")
	}
	affected := 0
	for i := 0; i < len(ks); i += delBatchSize {
		end := i + delBatchSize
		if end > len(ks) {
			end = len(ks)
		}
		n, err := redis.Int(r.do(c, "DEL", ks[i], redis.Args{}.AddFlat(ks[i:end])...))
		if err != nil {
			return affected, err
		}
		affected += n
	}
	return affected, nil
}

// TTL returns the remaining seconds of key, ErrNotFound for a missing key
// and ErrNoTTL for a key without expiration
func (r *redImpl) TTL(c ctx.Ctx, key string) (int, error) {
	res, err := redis.Int(r.do(c, "TTL", key, key))
	switch {
	case err != nil:
		return 0, err
	case res == ttlNoKey:
		return res, ErrNotFound
	case res == ttlNoExpire:
		return res, ErrNoTTL
	}
	return res, nil
}

// Publish posts msg to channel and returns the number of receivers
func (r *redImpl) Publish(c ctx.Ctx, channel string, msg []byte) (int, error) {
	r.met.BumpHistogram("bytes", float64(len(msg)), "cluster", r.name, "prefix", keys.GetPrefix(channel))
	return redis.Int(r.do(c, "PUBLISH", channel, channel, msg))
}

func (r *redImpl) Ping(c ctx.Ctx) error {
	_, err := redis.String(r.do(c, "PING", ""))
	return err
}
