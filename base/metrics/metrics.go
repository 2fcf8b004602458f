/*
Package metrics records ledger metrics through a datadog statsd agent.

Naming convention:
  - Internal process time: *.time
  - External latency: *.latency
  - Error: *.err
  - Counted events: plain noun, e.g. store.failover

Every key is prefixed with the package name passed to New.
*/
package metrics

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/x-xyz/goledger/base/env"
)

// Ender is returned by BumpTime
type Ender interface {
	End()
}

// Service provides interface for metrics
type Service interface {
	BumpAvg(key string, val float64, tags ...string)
	BumpSum(key string, val float64, tags ...string)
	BumpHistogram(key string, val float64, tags ...string)

	BumpTime(key string, tags ...string) Ender
}

// Option is functional parameter for metrics option
type Option func(*opt)

type opt struct {
	withPodName bool
	sampleRate  float64
	// cli replaces the datadog agent, e.g. LogClient for local runs and tests
	cli statsCli
}

// WithoutPodName drops the pod tag. Each pod value creates a custom metric,
// so use it for metrics that are not worth grouping per pod.
func WithoutPodName() Option {
	return func(o *opt) {
		o.withPodName = false
	}
}

// WithSampleRate sends only the given fraction of bumps. rate is in (0, 1].
func WithSampleRate(rate float64) Option {
	return func(o *opt) {
		if rate > 0 && rate <= 1 {
			o.sampleRate = rate
		}
	}
}

// WithLogClient writes metrics to the debug log instead of the datadog agent
func WithLogClient() Option {
	return func(o *opt) {
		o.cli = &LogClient{}
	}
}

// NewLog creates a Service that only logs, for tests and local runs
func NewLog(pkgName string) Service {
	return New(pkgName, WithoutPodName(), WithLogClient())
}

// New creates a Service prefixing every key with pkgName.
// Without a configured datadog_host it falls back to LogClient.
func New(pkgName string, options ...Option) Service {
	o := opt{withPodName: true, sampleRate: 1}
	for _, option := range options {
		option(&o)
	}
	if o.cli == nil && viper.GetString("datadog_host") == "" {
		o.cli = &LogClient{}
	}

	// an empty host tag stops the agent from attaching host level tags
	// ref: https://docs.datadoghq.com/developers/dogstatsd/data_types/#host-tag-key
	tags := []string{"host:", "env:" + env.EnvName(), "app:" + env.AppName()}
	if o.withPodName {
		tags = append(tags, "pod:"+env.PodName())
	}

	return &Metrics{
		prefix: pkgName + ".",
		rate:   o.sampleRate,
		dd:     DDMetrics{ddTags: tags, cli: o.cli},
	}
}

// Metrics implements Service on top of DDMetrics. A panic while bumping is
// swallowed and counted under <kind>.panic.
type Metrics struct {
	prefix string
	rate   float64
	dd     DDMetrics
}

func (mt *Metrics) guard(kind, key string, tags []string) {
	if err := recover(); err != nil {
		mt.dd.BumpSum(kind+".panic", 1, 1, "key", mt.prefix+key+"#"+strings.Join(tags, "#"))
	}
}

// BumpAvg bumps the average for the given key.
func (mt *Metrics) BumpAvg(key string, val float64, tags ...string) {
	defer mt.guard("bumpavg", key, tags)
	mt.dd.BumpAvg(mt.prefix+key, val, mt.rate, tags...)
}

// BumpSum bumps the sum for the given key.
func (mt *Metrics) BumpSum(key string, val float64, tags ...string) {
	defer mt.guard("bumpsum", key, tags)
	mt.dd.BumpSum(mt.prefix+key, val, mt.rate, tags...)
}

// BumpHistogram bumps the histogram for the given key.
func (mt *Metrics) BumpHistogram(key string, val float64, tags ...string) {
	defer mt.guard("bumphistogram", key, tags)
	mt.dd.BumpHistogram(mt.prefix+key, val, mt.rate, tags...)
}

// BumpTime starts a timer that is recorded when End is called:
//
//	defer s.BumpTime("op.time", "op", "bid").End()
func (mt *Metrics) BumpTime(key string, tags ...string) Ender {
	return &timeTracker{
		mt:    mt,
		key:   key,
		tags:  tags,
		start: time.Now(),
	}
}

type timeTracker struct {
	mt    *Metrics
	key   string
	tags  []string
	start time.Time
}

func (t *timeTracker) End() {
	defer t.mt.guard("bumptime", t.key, t.tags)
	t.mt.dd.Timing(t.mt.prefix+t.key, time.Since(t.start), t.mt.rate, t.tags...)
}
