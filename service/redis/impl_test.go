package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/stretchr/testify/suite"

	"github.com/x-xyz/goledger/base/ctx"
	"github.com/x-xyz/goledger/base/metrics"
)

var mockCtx = ctx.Background()

// fakeConn answers from a canned reply table and records every command
type fakeConn struct {
	replies map[string]interface{}
	calls   []string
}

func (f *fakeConn) Close() error { return nil }
func (f *fakeConn) Err() error   { return nil }

func (f *fakeConn) Do(cmd string, args ...interface{}) (interface{}, error) {
	return f.DoContext(context.Background(), cmd, args...)
}

func (f *fakeConn) DoContext(_ context.Context, cmd string, args ...interface{}) (interface{}, error) {
	if cmd == "" {
		return nil, nil
	}
	f.calls = append(f.calls, fmt.Sprint(append([]interface{}{cmd}, args...)...))
	if err, ok := f.replies[cmd].(error); ok {
		return nil, err
	}
	return f.replies[cmd], nil
}

func (f *fakeConn) Send(string, ...interface{}) error { return nil }
func (f *fakeConn) Flush() error                      { return nil }
func (f *fakeConn) Receive() (interface{}, error)     { return nil, nil }

func (f *fakeConn) ReceiveContext(context.Context) (interface{}, error) { return f.Receive() }

type redisSuite struct {
	suite.Suite
	conn *fakeConn
	svc  Service
}

func TestRedisSuite(t *testing.T) {
	suite.Run(t, new(redisSuite))
}

func (s *redisSuite) SetupTest() {
	s.conn = &fakeConn{replies: map[string]interface{}{}}
	pool := &redis.Pool{Dial: func() (redis.Conn, error) { return s.conn, nil }}
	s.svc = New("test", metrics.NewLog("redis"), &Pools{Src: pool})
}

func (s *redisSuite) TestGet() {
	s.conn.replies["GET"] = []byte("v")
	v, err := s.svc.Get(mockCtx, "item:a")
	s.Require().NoError(err)
	s.Equal([]byte("v"), v)

	s.conn.replies["GET"] = nil
	_, err = s.svc.Get(mockCtx, "item:a")
	s.ErrorIs(err, ErrNotFound)
}

func (s *redisSuite) TestSet() {
	s.conn.replies["SET"] = "OK"
	s.Require().NoError(s.svc.Set(mockCtx, "item:a", []byte("v"), 1500*time.Millisecond))
	s.Require().NoError(s.svc.Set(mockCtx, "item:b", []byte("v"), Forever))
	s.Equal([]string{"SETitem:a[118]PX1500", "SETitem:b[118]"}, s.conn.calls)
}

func (s *redisSuite) TestDelBatches() {
	s.conn.replies["DEL"] = int64(delBatchSize)
	ks := make([]string, delBatchSize+1)
	for i := range ks {
		ks[i] = fmt.Sprintf("item:%d", i)
	}
	n, err := s.svc.Del(mockCtx, ks...)
	s.Require().NoError(err)
	s.Equal(2*delBatchSize, n)
	s.Len(s.conn.calls, 2)

	_, err = s.svc.Del(mockCtx)
	s.Error(err)
}

func (s *redisSuite) TestTTL() {
	s.conn.replies["TTL"] = int64(ttlNoKey)
	_, err := s.svc.TTL(mockCtx, "item:a")
	s.ErrorIs(err, ErrNotFound)

	s.conn.replies["TTL"] = int64(ttlNoExpire)
	_, err = s.svc.TTL(mockCtx, "item:a")
	s.ErrorIs(err, ErrNoTTL)

	s.conn.replies["TTL"] = int64(9)
	ttl, err := s.svc.TTL(mockCtx, "item:a")
	s.NoError(err)
	s.Equal(9, ttl)
}

func (s *redisSuite) TestPublishAndPing() {
	s.conn.replies["PUBLISH"] = int64(2)
	n, err := s.svc.Publish(mockCtx, "ledger:items", []byte("{}"))
	s.Require().NoError(err)
	s.Equal(2, n)

	s.conn.replies["PING"] = "PONG"
	s.NoError(s.svc.Ping(mockCtx))

	boom := errors.New("down")
	s.conn.replies["PING"] = boom
	s.ErrorIs(s.svc.Ping(mockCtx), boom)
}

func (s *redisSuite) TestNoPool() {
	svc := New("test", metrics.NewLog("redis"), nil)
	_, err := svc.Get(mockCtx, "item:a")
	s.ErrorIs(err, ErrNoPool)
}
