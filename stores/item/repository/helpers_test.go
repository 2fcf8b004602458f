package repository

import (
	"errors"
	"sync"
	"time"

	"github.com/x-xyz/goledger/base/ctx"
	"github.com/x-xyz/goledger/domain/item"
)

var errDown = errors.New("connection refused")

// flakyRepo wraps a memory repo and fails every call while down is set
type flakyRepo struct {
	item.Repo
	mu    sync.Mutex
	down  bool
	calls int
}

func newFlakyRepo() *flakyRepo {
	return &flakyRepo{Repo: NewMemory()}
}

func (f *flakyRepo) setDown(down bool) {
	f.mu.Lock()
	f.down = down
	f.mu.Unlock()
}

func (f *flakyRepo) fail() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.down {
		return errDown
	}
	return nil
}

func (f *flakyRepo) Get(c ctx.Ctx, id string) (*item.Item, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	return f.Repo.Get(c, id)
}

func (f *flakyRepo) Create(c ctx.Ctx, it *item.Item) error {
	if err := f.fail(); err != nil {
		return err
	}
	return f.Repo.Create(c, it)
}

func (f *flakyRepo) Put(c ctx.Ctx, it *item.Item, expectedVersion int64) error {
	if err := f.fail(); err != nil {
		return err
	}
	return f.Repo.Put(c, it, expectedVersion)
}

func (f *flakyRepo) ScanByOwner(c ctx.Ctx, owner string) ([]*item.Item, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	return f.Repo.ScanByOwner(c, owner)
}

func (f *flakyRepo) Ping(c ctx.Ctx) error {
	return f.fail()
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

func newItem(id, owner string, version int64) *item.Item {
	t := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return &item.Item{
		Id:        id,
		Owner:     owner,
		Creator:   owner,
		Listing:   item.Unlisted(),
		Version:   version,
		CreatedAt: t,
		UpdatedAt: t,
	}
}
