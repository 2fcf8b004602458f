package emitter

import (
	"encoding/json"

	"golang.org/x/xerrors"

	"github.com/x-xyz/goledger/base/ctx"
	"github.com/x-xyz/goledger/domain/item"
	"github.com/x-xyz/goledger/domain/keys"
	"github.com/x-xyz/goledger/service/redis"
)

// ChannelItems is the redis pub/sub channel item events go to
var ChannelItems = keys.RedisKey(keys.PfxLedgerEvents, "items")

type redisPublisher struct {
	redis   redis.Service
	channel string
}

func NewRedis(r redis.Service) item.Publisher {
	return &redisPublisher{redis: r, channel: ChannelItems}
}

func (p *redisPublisher) Publish(c ctx.Ctx, ev item.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return xerrors.Errorf("marshal event %s: %w", ev.Id, err)
	}
	n, err := p.redis.Publish(c, p.channel, data)
	if err != nil {
		return xerrors.Errorf("publish %s: %w", p.channel, err)
	}
	c.WithField("receivers", n).Debug("event published to redis")
	return nil
}

// Close is a no-op, the redis pool belongs to the caller
func (p *redisPublisher) Close() error {
	return nil
}
