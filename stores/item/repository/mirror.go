package repository

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/coocood/freecache"

	"github.com/x-xyz/goledger/base/log"
	"github.com/x-xyz/goledger/domain/item"
)

const defaultMirrorSizeMB = 32

// mirrorImpl keeps dirty records in a map until they are reconciled and clean
// copies in a bounded freecache that evicts the oldest entries once full.
type mirrorImpl struct {
	mu    sync.RWMutex
	dirty map[string]*item.Item
	clean *freecache.Cache
}

// NewMirror returns an empty in-memory mirror holding up to sizeMB megabytes of clean copies
func NewMirror(sizeMB int) item.Mirror {
	if sizeMB <= 0 {
		sizeMB = defaultMirrorSizeMB
	}
	return &mirrorImpl{
		dirty: map[string]*item.Item{},
		clean: freecache.NewCache(sizeMB * 1024 * 1024),
	}
}

func (m *mirrorImpl) getClean(id string) (*item.Item, bool) {
	raw, err := m.clean.Get([]byte(id))
	if err != nil {
		return nil, false
	}
	res := &item.Item{}
	if err := json.Unmarshal(raw, res); err != nil {
		log.Log().WithFields(log.Fields{"err": err, "id": id}).Error("mirror decode failed")
		return nil, false
	}
	return res, true
}

func (m *mirrorImpl) setClean(it *item.Item) {
	raw, err := json.Marshal(it)
	if err != nil {
		log.Log().WithFields(log.Fields{"err": err, "id": it.Id}).Error("mirror encode failed")
		return
	}
	if err := m.clean.Set([]byte(it.Id), raw, 0); err != nil {
		log.Log().WithFields(log.Fields{"err": err, "id": it.Id}).Warn("mirror clean copy dropped")
	}
}

func (m *mirrorImpl) Get(id string) (*item.Item, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if it, ok := m.dirty[id]; ok {
		return it.Clone(), true
	}
	return m.getClean(id)
}

func (m *mirrorImpl) Put(it *item.Item) {
	cp := it.Clone()
	m.mu.Lock()
	defer m.mu.Unlock()
	if cp.Dirty {
		m.dirty[cp.Id] = cp
		m.clean.Del([]byte(cp.Id))
		return
	}
	delete(m.dirty, cp.Id)
	m.setClean(cp)
}

func (m *mirrorImpl) PutClean(it *item.Item) bool {
	cp := it.Clone()
	cp.Dirty = false
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.dirty[cp.Id]; ok {
		return false
	}
	if cur, ok := m.getClean(cp.Id); ok && cur.Version > cp.Version {
		return false
	}
	m.setClean(cp)
	return true
}

func (m *mirrorImpl) ScanByOwner(owner string) []*item.Item {
	res := []*item.Item{}
	m.mu.RLock()
	for _, it := range m.dirty {
		if it.Owner == owner {
			res = append(res, it.Clone())
		}
	}
	iter := m.clean.NewIterator()
	for e := iter.Next(); e != nil; e = iter.Next() {
		if _, ok := m.dirty[string(e.Key)]; ok {
			continue
		}
		it := &item.Item{}
		if err := json.Unmarshal(e.Value, it); err != nil {
			continue
		}
		if it.Owner == owner {
			res = append(res, it)
		}
	}
	m.mu.RUnlock()
	sort.Slice(res, func(i, j int) bool { return res[i].Id < res[j].Id })
	return res
}

func (m *mirrorImpl) DirtyIds() []string {
	m.mu.RLock()
	res := make([]string, 0, len(m.dirty))
	for id := range m.dirty {
		res = append(res, id)
	}
	m.mu.RUnlock()
	sort.Strings(res)
	return res
}

func (m *mirrorImpl) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.dirty) + int(m.clean.EntryCount())
}
