package backoff

import (
	"context"
	"math/rand"
	"time"
)

// Strategy computes the wait before attempt n (zero based).
type Strategy func(n int, start time.Duration) time.Duration

// Exponential doubles the wait on every attempt.
func Exponential(n int, start time.Duration) time.Duration {
	return start << uint(n)
}

// Linear grows the wait by start on every attempt.
func Linear(n int, start time.Duration) time.Duration {
	return time.Duration(n) * start
}

type Backoff struct {
	LastDuration time.Duration
	NextDuration time.Duration

	start    time.Duration
	limit    time.Duration
	jitter   float64
	count    int
	strategy Strategy
}

func New(strategy Strategy, start, limit time.Duration) *Backoff {
	b := &Backoff{strategy: strategy, start: start, limit: limit}
	b.Reset()
	return b
}

func NewExponential(start, limit time.Duration) *Backoff {
	return New(Exponential, start, limit)
}

func NewLinear(start, limit time.Duration) *Backoff {
	return New(Linear, start, limit)
}

// WithJitter spreads every wait uniformly over [d*(1-f), d]. f is clamped to [0, 1].
func (b *Backoff) WithJitter(f float64) *Backoff {
	if f < 0 {
		f = 0
	} else if f > 1 {
		f = 1
	}
	b.jitter = f
	return b
}

func (b *Backoff) Reset() {
	b.count = 0
	b.LastDuration = 0
	b.NextDuration = b.next()
}

// Attempts is the number of completed waits since the last Reset.
func (b *Backoff) Attempts() int {
	return b.count
}

// Backoff sleeps for NextDuration, or returns the context error if ctx ends first.
func (b *Backoff) Backoff(ctx context.Context) error {
	wait := b.NextDuration
	if b.jitter > 0 && wait > 0 {
		wait -= time.Duration(rand.Float64() * b.jitter * float64(wait))
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
	}
	b.count++
	b.LastDuration = wait
	b.NextDuration = b.next()
	return nil
}

func (b *Backoff) next() time.Duration {
	d := b.strategy(b.count, b.start)
	if d < 0 || (b.limit > 0 && d > b.limit) {
		d = b.limit
	}
	return d
}
