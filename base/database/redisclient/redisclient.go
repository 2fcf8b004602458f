package redisclient

import (
	"context"
	"runtime"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/x-xyz/goledger/base/backoff"
	"github.com/x-xyz/goledger/base/log"
)

const (
	dialTimeout  = 2 * time.Second
	readTimeout  = 1500 * time.Millisecond
	writeTimeout = 1500 * time.Millisecond

	dialRetries = 3
)

// Config is the redis connection setting
type Config struct {
	URI            string
	Password       string
	PoolMultiplier float64
	// Retry dials up to dialRetries more times with a jittered exponential pause
	Retry bool
}

// MustConnectRedis connects to one redis uri
// NOTE This function panics if the connection fails.
func MustConnectRedis(cfg Config) *redis.Pool {
	p, err := ConnectRedis(cfg)
	if err != nil {
		log.Log().WithFields(log.Fields{"redisURI": cfg.URI, "err": err}).Panic("fail to dial Redis")
	}
	return p
}

// NewPool builds a pool without touching the network
func NewPool(cfg Config) *redis.Pool {
	maxIdle := 200
	maxActive := 1024
	if cfg.PoolMultiplier > 0 {
		cpu := float64(runtime.NumCPU())
		// allowing 25% idle connection
		maxIdle = int(cpu*cfg.PoolMultiplier/4) + 1
		maxActive = int(cpu*cfg.PoolMultiplier) + 1
	}

	opts := []redis.DialOption{
		redis.DialConnectTimeout(dialTimeout),
		redis.DialReadTimeout(readTimeout),
		redis.DialWriteTimeout(writeTimeout),
	}
	if cfg.Password != "" {
		opts = append(opts, redis.DialPassword(cfg.Password))
	}
	return &redis.Pool{
		MaxIdle:     maxIdle,
		MaxActive:   maxActive,
		Wait:        true,
		IdleTimeout: 240 * time.Second,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", cfg.URI, opts...)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			// No need to test if it's been recycled less than 1 sec.
			if time.Since(t) < time.Second {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}

// ConnectRedis builds a pool and checks one connection out of it
func ConnectRedis(cfg Config) (*redis.Pool, error) {
	p := NewPool(cfg)

	attempts := 1
	if cfg.Retry {
		attempts += dialRetries
	}
	attempt := 0
	b := backoff.NewExponential(time.Second, 4*time.Second).WithJitter(0.5)
	err := backoff.Retry(context.Background(), b, attempts, func(error) bool { return true }, func() error {
		attempt++
		err := ping(p)
		if err != nil {
			log.Log().WithFields(log.Fields{"redisURI": cfg.URI, "err": err, "attempt": attempt}).Error("fail to dial Redis")
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Log().WithField("redisURI", cfg.URI).Info("redis connected")
	return p, nil
}

func ping(p *redis.Pool) error {
	c, err := p.Dial()
	if err != nil {
		return err
	}
	defer c.Close()
	_, err = c.Do("PING")
	return err
}
