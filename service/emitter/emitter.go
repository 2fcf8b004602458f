package emitter

import (
	"sync"
	"time"

	"github.com/viney-shih/goroutines"

	"github.com/x-xyz/goledger/base/ctx"
	"github.com/x-xyz/goledger/base/goroutine"
	"github.com/x-xyz/goledger/base/log"
	"github.com/x-xyz/goledger/base/metrics"
	"github.com/x-xyz/goledger/domain/item"
)

const (
	defaultWorkers        = 4
	defaultQueueLength    = 1024
	defaultEnqueueTimeout = 10 * time.Millisecond
)

type Config struct {
	Publishers  []item.Publisher
	Workers     int
	QueueLength int
	// EnqueueTimeout is how long Emit waits on a full queue before dropping the event
	EnqueueTimeout time.Duration
	Metrics        metrics.Service
}

// Dispatcher hands events to every publisher on a worker pool. Emit never
// blocks the caller for longer than the enqueue timeout and never fails it.
type Dispatcher struct {
	pubs           []item.Publisher
	pool           *goroutines.Pool
	enqueueTimeout time.Duration
	met            metrics.Service

	wg        sync.WaitGroup
	closeOnce sync.Once
}

func New(cfg *Config) *Dispatcher {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	queue := cfg.QueueLength
	if queue <= 0 {
		queue = defaultQueueLength
	}
	timeout := cfg.EnqueueTimeout
	if timeout <= 0 {
		timeout = defaultEnqueueTimeout
	}
	met := cfg.Metrics
	if met == nil {
		met = metrics.New("emitter")
	}

	return &Dispatcher{
		pubs:           cfg.Publishers,
		pool:           goroutines.NewPool(workers, goroutines.WithTaskQueueLength(queue), goroutines.WithPreAllocWorkers(workers)),
		enqueueTimeout: timeout,
		met:            met,
	}
}

func (d *Dispatcher) Emit(c ctx.Ctx, ev item.Event) {
	if len(d.pubs) == 0 {
		return
	}

	dc := ctx.WithValues(ctx.Detach(c), map[string]interface{}{"event": ev.Id, "kind": ev.Kind})
	d.wg.Add(1)
	err := d.pool.ScheduleWithTimeout(d.enqueueTimeout, func() {
		defer d.wg.Done()
		goroutine.Recoverable(func() {
			d.publish(dc, ev)
		}, goroutine.Named("emit"), goroutine.WithLogger(dc.Logger), goroutine.OnPanic(func(*goroutine.PanicEvent) {
			d.met.BumpSum("emit.panic", 1)
		}))
	})
	if err != nil {
		d.wg.Done()
		d.met.BumpSum("emit.dropped", 1, "kind", string(ev.Kind))
		dc.WithField("err", err).Warn("event queue full, event dropped")
	}
}

func (d *Dispatcher) publish(c ctx.Ctx, ev item.Event) {
	defer d.met.BumpTime("emit.time").End()
	for _, p := range d.pubs {
		if err := p.Publish(c, ev); err != nil {
			d.met.BumpSum("emit.failed", 1, "kind", string(ev.Kind))
			c.WithField("err", err).Warn("publish event failed")
			continue
		}
		d.met.BumpSum("emit.published", 1, "kind", string(ev.Kind))
	}
}

// Flush waits until every accepted event has been handed to the publishers
func (d *Dispatcher) Flush() {
	d.wg.Wait()
}

// Close flushes pending events, stops the workers and closes the publishers
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.Flush()
		d.pool.Release()
		for _, p := range d.pubs {
			if err := p.Close(); err != nil {
				log.Log().WithField("err", err).Warn("close publisher failed")
			}
		}
	})
}

type noop struct{}

// Noop drops every event
func Noop() item.Emitter {
	return noop{}
}

func (noop) Emit(ctx.Ctx, item.Event) {}
