package metrics

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/spf13/viper"

	"github.com/x-xyz/goledger/base/log"
)

const (
	ddClientsSize    = 16 // needs to be 2^n
	ddClientsIdxMask = ddClientsSize - 1

	defaultDdPort = 8125
	// buffered bumps per client before a flush to the agent
	bufferMetrics = 10
)

var (
	initOnce = sync.Once{}

	// ddClients are shared by every Service and picked round robin
	ddClientsIdx = int32(0)
	ddClients    []statsCli
)

func ddAddr() string {
	port := viper.GetInt("datadog_port")
	if port == 0 {
		port = defaultDdPort
	}
	return fmt.Sprintf("%s:%d", viper.GetString("datadog_host"), port)
}

func initDDClient() {
	addr := ddAddr()
	ddClients = make([]statsCli, ddClientsSize)
	for i := range ddClients {
		cli, err := statsd.NewBuffered(addr, bufferMetrics)
		if err != nil {
			log.Log().WithFields(log.Fields{"addr": addr, "err": err}).Panic("can't talk to datadog agent")
		}
		ddClients[i] = cli
	}
	log.Log().WithFields(log.Fields{"addr": addr, "clients": ddClientsSize}).Info("connected to datadog agent")
}

type statsCli interface {
	Gauge(name string, value float64, tags []string, rate float64) error
	Count(name string, value int64, tags []string, rate float64) error
	Histogram(name string, value float64, tags []string, rate float64) error
	TimeInMilliseconds(name string, value float64, tags []string, rate float64) error
}

// DDMetrics sends bumps to a statsd client with a fixed set of base tags
type DDMetrics struct {
	ddTags []string
	// cli overrides the shared statsd clients when set
	cli statsCli
}

func (dm *DDMetrics) client() statsCli {
	if dm.cli != nil {
		return dm.cli
	}
	initOnce.Do(initDDClient)
	i := atomic.AddInt32(&ddClientsIdx, 1) & ddClientsIdxMask
	return ddClients[i]
}

// tags copies the base tags so concurrent bumps never share a backing array
func (dm *DDMetrics) tags(kv []string) []string {
	out := make([]string, 0, len(dm.ddTags)+len(kv)/2)
	out = append(out, dm.ddTags...)
	return append(out, parseTag(kv)...)
}

func (dm *DDMetrics) failed(err error, fn, key string, val interface{}) {
	if err != nil {
		log.Log().WithFields(log.Fields{"err": err, "key": key, "val": val, "func": fn}).Error("bump failed")
	}
}

func (dm *DDMetrics) BumpAvg(key string, val, sampleRate float64, tags ...string) {
	dm.failed(dm.client().Gauge(key, val, dm.tags(tags), sampleRate), "BumpAvg", key, val)
}

func (dm *DDMetrics) BumpSum(key string, val, sampleRate float64, tags ...string) {
	dm.failed(dm.client().Count(key, int64(val), dm.tags(tags), sampleRate), "BumpSum", key, val)
}

func (dm *DDMetrics) BumpHistogram(key string, val, sampleRate float64, tags ...string) {
	dm.failed(dm.client().Histogram(key, val, dm.tags(tags), sampleRate), "BumpHistogram", key, val)
}

// Timing records d in fractional milliseconds
func (dm *DDMetrics) Timing(key string, d time.Duration, sampleRate float64, tags ...string) {
	ms := float64(d) / float64(time.Millisecond)
	dm.failed(dm.client().TimeInMilliseconds(key, ms, dm.tags(tags), sampleRate), "BumpTime", key, ms)
}

// parseTag turns key/value pairs into datadog "key:value" tags
func parseTag(tags []string) []string {
	if tags == nil {
		return nil
	}
	if len(tags)%2 != 0 {
		log.Log().WithField("tags", tags).Panic("tag length needs to be multiple of 2")
	}
	arr := make([]string, len(tags)/2)
	for i := 0; i < len(tags); i += 2 {
		arr[i/2] = tags[i] + ":" + tags[i+1]
	}
	return arr
}
