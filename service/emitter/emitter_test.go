package emitter

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/x-xyz/goledger/base/ctx"
	"github.com/x-xyz/goledger/base/metrics"
	"github.com/x-xyz/goledger/domain/item"
	"github.com/x-xyz/goledger/service/redis/mocks"
)

var mockCtx = ctx.Background()

type recorder struct {
	mu     sync.Mutex
	events []item.Event
	err    error
	closed bool
}

func (r *recorder) Publish(c ctx.Ctx, ev item.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recorder) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

func (r *recorder) kinds() []item.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := []item.EventKind{}
	for _, ev := range r.events {
		res = append(res, ev.Kind)
	}
	return res
}

type panicker struct{}

func (panicker) Publish(ctx.Ctx, item.Event) error { panic("boom") }

func (panicker) Close() error { return nil }

type fakeNats struct {
	subjects []string
	payloads [][]byte
	err      error
	closed   bool
	drained  bool
}

func (f *fakeNats) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return nil
}

func (f *fakeNats) Drain() error {
	f.drained = true
	return nil
}

func (f *fakeNats) IsClosed() bool {
	return f.closed
}

type emitterSuite struct {
	suite.Suite
}

func TestEmitter(t *testing.T) {
	suite.Run(t, new(emitterSuite))
}

func event(kind item.EventKind) item.Event {
	return item.Event{
		Id:         "ev-" + string(kind),
		Kind:       kind,
		ItemId:     "a",
		NewState:   item.State{Owner: "u1", Listing: item.Unlisted()},
		Version:    1,
		OccurredAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *emitterSuite) TestFanOut() {
	a, b := &recorder{}, &recorder{err: errors.New("broken pipe")}
	d := New(&Config{Publishers: []item.Publisher{a, b}, Workers: 1, Metrics: metrics.NewLog("emitter")})

	d.Emit(mockCtx, event(item.EventCreated))
	d.Emit(mockCtx, event(item.EventListed))
	d.Close()

	s.Equal([]item.EventKind{item.EventCreated, item.EventListed}, a.kinds())
	s.Equal([]item.EventKind{item.EventCreated, item.EventListed}, b.kinds())
	s.True(a.closed)
	s.True(b.closed)
}

func (s *emitterSuite) TestPanicDoesNotEscape() {
	r := &recorder{}
	d := New(&Config{Publishers: []item.Publisher{panicker{}, r}, Workers: 1, Metrics: metrics.NewLog("emitter")})

	d.Emit(mockCtx, event(item.EventSold))
	d.Flush()
	d.Emit(mockCtx, event(item.EventTransferred))
	d.Close()

	// the panic aborts the first event before it reaches r
	s.Equal([]item.EventKind{item.EventTransferred}, r.kinds())
}

func (s *emitterSuite) TestCancelledCallerStillPublishes() {
	r := &recorder{}
	d := New(&Config{Publishers: []item.Publisher{r}, Metrics: metrics.NewLog("emitter")})

	cc, cancel := ctx.WithCancel(mockCtx)
	cancel()
	d.Emit(cc, event(item.EventBidPlaced))
	d.Close()

	s.Equal([]item.EventKind{item.EventBidPlaced}, r.kinds())
}

func (s *emitterSuite) TestNoPublishers() {
	d := New(&Config{Metrics: metrics.NewLog("emitter")})
	d.Emit(mockCtx, event(item.EventCreated))
	d.Close()
	Noop().Emit(mockCtx, event(item.EventCreated))
}

func (s *emitterSuite) TestNatsSubject() {
	nc := &fakeNats{}
	p := newNats(nc, "")
	s.Require().NoError(p.Publish(mockCtx, event(item.EventAuctionSettled)))
	s.Equal([]string{"ledger.items.auction_settled"}, nc.subjects)

	got := item.Event{}
	s.Require().NoError(json.Unmarshal(nc.payloads[0], &got))
	s.Equal("ev-auction_settled", got.Id)
	s.Equal(item.EventAuctionSettled, got.Kind)

	nc.err = errors.New("nats: connection closed")
	s.ErrorIs(p.Publish(mockCtx, event(item.EventSold)), nc.err)

	s.NoError(p.Close())
	s.True(nc.drained)

	closed := &fakeNats{closed: true}
	s.NoError(newNats(closed, "x").Close())
	s.False(closed.drained)
}

func (s *emitterSuite) TestRedis() {
	r := &mocks.Service{}
	defer r.AssertExpectations(s.T())
	p := NewRedis(r)

	r.On("Publish", mock.Anything, "ledger:items", mock.MatchedBy(func(b []byte) bool {
		ev := item.Event{}
		return json.Unmarshal(b, &ev) == nil && ev.Kind == item.EventDelisted
	})).Return(1, nil).Once()
	s.NoError(p.Publish(mockCtx, event(item.EventDelisted)))

	failure := errors.New("EOF")
	r.On("Publish", mock.Anything, "ledger:items", mock.Anything).Return(0, failure).Once()
	s.ErrorIs(p.Publish(mockCtx, event(item.EventSold)), failure)
	s.NoError(p.Close())
}
