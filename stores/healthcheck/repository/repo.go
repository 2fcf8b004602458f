package repository

import (
	"time"

	"github.com/x-xyz/goledger/base/ctx"
	hcdomain "github.com/x-xyz/goledger/domain/healthcheck"
	"github.com/x-xyz/goledger/domain/keys"
	"github.com/x-xyz/goledger/service/query"
	"github.com/x-xyz/goledger/service/redis"
)

const pingTimeout = 2 * time.Second

type impl struct {
	mongo      query.Mongo
	redisCache redis.Service
}

// New creates the health check repo, either dependency may be nil when it is not configured
func New(
	mongo query.Mongo,
	redisCache redis.Service,
) hcdomain.HealthCheckRepo {
	return &impl{
		mongo:      mongo,
		redisCache: redisCache,
	}
}

func (im *impl) DBEnabled() bool {
	return im.mongo != nil
}

func (im *impl) CacheEnabled() bool {
	return im.redisCache != nil
}

func (im *impl) PingDB(context ctx.Ctx) error {
	ctx, cancel := ctx.WithTimeout(context, pingTimeout)
	defer cancel()
	if err := im.mongo.Ping(ctx); err != nil {
		context.WithField("err", err).Error("ping mongo error")
		return err
	}
	return nil
}

func (im *impl) PingCache(context ctx.Ctx) error {
	ctx, cancel := ctx.WithTimeout(context, pingTimeout)
	defer cancel()
	if err := im.redisCache.Set(ctx, keys.RedisKey(keys.PfxHealthCheck, "testset"), []byte("1"), 30*time.Second); err != nil {
		context.WithField("err", err).Error("test redis set failed")
		return err
	}
	return nil
}
