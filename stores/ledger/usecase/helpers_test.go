package usecase

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/x-xyz/goledger/base/ctx"
	"github.com/x-xyz/goledger/domain"
	"github.com/x-xyz/goledger/domain/item"
	"github.com/x-xyz/goledger/stores/item/repository"
)

var errDown = errors.New("server selection timeout")

// durableFake is an in-memory durable repo that can be switched off or made to lose version races
type durableFake struct {
	item.Repo
	mu        sync.Mutex
	down      bool
	conflicts int
	puts      int
}

func newDurableFake() *durableFake {
	return &durableFake{Repo: repository.NewMemory()}
}

func (f *durableFake) setDown(down bool) {
	f.mu.Lock()
	f.down = down
	f.mu.Unlock()
}

func (f *durableFake) setConflicts(n int) {
	f.mu.Lock()
	f.conflicts = n
	f.mu.Unlock()
}

func (f *durableFake) check() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return errDown
	}
	return nil
}

func (f *durableFake) Get(c ctx.Ctx, id string) (*item.Item, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	return f.Repo.Get(c, id)
}

func (f *durableFake) Create(c ctx.Ctx, it *item.Item) error {
	if err := f.check(); err != nil {
		return err
	}
	return f.Repo.Create(c, it)
}

func (f *durableFake) Put(c ctx.Ctx, it *item.Item, expectedVersion int64) error {
	if err := f.check(); err != nil {
		return err
	}
	f.mu.Lock()
	f.puts++
	if f.conflicts > 0 {
		f.conflicts--
		f.mu.Unlock()
		return domain.ErrVersionConflict
	}
	f.mu.Unlock()
	return f.Repo.Put(c, it, expectedVersion)
}

func (f *durableFake) ScanByOwner(c ctx.Ctx, owner string) ([]*item.Item, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	return f.Repo.ScanByOwner(c, owner)
}

func (f *durableFake) Ping(c ctx.Ctx) error {
	return f.check()
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Add(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []item.Event
}

func (r *recordingEmitter) Emit(c ctx.Ctx, ev item.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recordingEmitter) all() []item.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]item.Event{}, r.events...)
}

func (r *recordingEmitter) kinds() []item.EventKind {
	res := []item.EventKind{}
	for _, ev := range r.all() {
		res = append(res, ev.Kind)
	}
	return res
}

func sequentialIds() func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%04d", n)
	}
}

func decimalOf(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}
