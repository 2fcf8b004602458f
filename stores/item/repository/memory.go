package repository

import (
	"sort"
	"sync"

	"github.com/x-xyz/goledger/base/ctx"
	"github.com/x-xyz/goledger/domain"
	"github.com/x-xyz/goledger/domain/item"
)

type memoryImpl struct {
	mu    sync.Mutex
	items map[string]*item.Item
}

// NewMemory returns a durable repo kept in process memory, used when no
// mongo uri is configured.
func NewMemory() item.Repo {
	return &memoryImpl{items: map[string]*item.Item{}}
}

func (m *memoryImpl) Get(c ctx.Ctx, id string) (*item.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return it.Clone(), nil
}

func (m *memoryImpl) Create(c ctx.Ctx, it *item.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[it.Id]; ok {
		return domain.ErrDuplicateId
	}
	m.store(it)
	return nil
}

func (m *memoryImpl) Put(c ctx.Ctx, it *item.Item, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.items[it.Id]
	switch {
	case expectedVersion == item.NoVersion && ok:
		return domain.ErrVersionConflict
	case expectedVersion != item.NoVersion && (!ok || cur.Version != expectedVersion):
		return domain.ErrVersionConflict
	}
	m.store(it)
	return nil
}

func (m *memoryImpl) store(it *item.Item) {
	cp := it.Clone()
	cp.Dirty = false
	m.items[cp.Id] = cp
}

func (m *memoryImpl) ScanByOwner(c ctx.Ctx, owner string) ([]*item.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := []*item.Item{}
	for _, it := range m.items {
		if it.Owner == owner {
			res = append(res, it.Clone())
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Id < res[j].Id })
	return res, nil
}

func (m *memoryImpl) Ping(c ctx.Ctx) error {
	return nil
}
