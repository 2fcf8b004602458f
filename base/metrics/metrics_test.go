package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type countingClient struct {
	LogClient
	counts map[string]int64
	timed  []string
}

func (c *countingClient) Count(name string, value int64, tags []string, rate float64) error {
	c.counts[name] += value
	return nil
}

func (c *countingClient) TimeInMilliseconds(name string, value float64, tags []string, rate float64) error {
	c.timed = append(c.timed, name)
	return nil
}

func TestBumpThroughClient(t *testing.T) {
	cli := &countingClient{counts: map[string]int64{}}
	svc := New("ledger", WithoutPodName(), func(o *opt) { o.cli = cli })

	svc.BumpSum("store.failover", 1)
	svc.BumpSum("store.failover", 2, "op", "put")
	svc.BumpTime("op.time", "op", "bid").End()

	assert.Equal(t, int64(3), cli.counts["ledger.store.failover"])
	assert.Equal(t, []string{"ledger.op.time"}, cli.timed)
}

func TestParseTag(t *testing.T) {
	assert.Nil(t, parseTag(nil))
	assert.Equal(t, []string{"op:bid", "result:ok"}, parseTag([]string{"op", "bid", "result", "ok"}))
	assert.Panics(t, func() { parseTag([]string{"odd"}) })
}

func TestNewLog(t *testing.T) {
	svc := NewLog("test")
	assert.NotPanics(t, func() {
		svc.BumpAvg("a", 1)
		svc.BumpHistogram("b", 2)
		svc.BumpSum("c", 3)
		svc.BumpTime("d").End()
	})
}

type rateClient struct {
	LogClient
	rates []float64
	tags  [][]string
}

func (c *rateClient) Count(name string, value int64, tags []string, rate float64) error {
	c.rates = append(c.rates, rate)
	c.tags = append(c.tags, tags)
	return nil
}

func TestSampleRateAndTags(t *testing.T) {
	cli := &rateClient{}
	svc := New("ledger", WithoutPodName(), WithSampleRate(0.25), WithSampleRate(7), func(o *opt) { o.cli = cli })

	svc.BumpSum("op.err", 1, "type", "conflict")
	svc.BumpSum("op.err", 1, "type", "store")

	assert.Equal(t, []float64{0.25, 0.25}, cli.rates)
	assert.Contains(t, cli.tags[0], "type:conflict")
	assert.Contains(t, cli.tags[1], "type:store")
	assert.NotContains(t, cli.tags[0], "type:store")
}

func TestPanicIsSwallowed(t *testing.T) {
	cli := &countingClient{counts: map[string]int64{}}
	svc := New("ledger", WithoutPodName(), func(o *opt) { o.cli = cli })

	assert.NotPanics(t, func() { svc.BumpSum("bad", 1, "odd") })
	assert.Equal(t, int64(1), cli.counts["bumpsum.panic"])
}
