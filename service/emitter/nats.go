package emitter

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"golang.org/x/xerrors"

	"github.com/x-xyz/goledger/base/ctx"
	"github.com/x-xyz/goledger/base/log"
	"github.com/x-xyz/goledger/domain/item"
)

// NatsConfig holds the nats connection settings
type NatsConfig struct {
	URL            string
	SubjectPrefix  string
	ConnectTimeout time.Duration
}

// natsConn is the part of *nats.Conn the publisher needs
type natsConn interface {
	Publish(subject string, data []byte) error
	Drain() error
	IsClosed() bool
}

type natsPublisher struct {
	nc     natsConn
	prefix string
}

// ConnectNats dials the nats server and logs the connection life cycle
func ConnectNats(cfg NatsConfig) (*nats.Conn, error) {
	logger := log.Log()
	opts := []nats.Option{
		nats.Name("ledger"),
		nats.Timeout(cfg.ConnectTimeout),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			logger.WithField("err", err).Error("nats error")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("nats connection closed")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.WithField("url", nc.ConnectedUrl()).Info("nats reconnected")
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.WithField("err", err).Warn("nats disconnected")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, xerrors.Errorf("connect nats %s: %w", cfg.URL, err)
	}
	logger.WithField("url", nc.ConnectedUrl()).Info("connected to nats")
	return nc, nil
}

// NewNats publishes each event on <prefix>.items.<kind>
func NewNats(nc *nats.Conn, prefix string) item.Publisher {
	return newNats(nc, prefix)
}

func newNats(nc natsConn, prefix string) *natsPublisher {
	if prefix == "" {
		prefix = "ledger"
	}
	return &natsPublisher{nc: nc, prefix: prefix}
}

// Subject returns the subject events of kind are published on
func Subject(prefix string, kind item.EventKind) string {
	return prefix + ".items." + string(kind)
}

func (p *natsPublisher) Publish(c ctx.Ctx, ev item.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return xerrors.Errorf("marshal event %s: %w", ev.Id, err)
	}
	subject := Subject(p.prefix, ev.Kind)
	if err := p.nc.Publish(subject, data); err != nil {
		return xerrors.Errorf("publish %s: %w", subject, err)
	}
	c.WithField("subject", subject).Debug("event published to nats")
	return nil
}

func (p *natsPublisher) Close() error {
	if p.nc == nil || p.nc.IsClosed() {
		return nil
	}
	return p.nc.Drain()
}
