package repository

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/x-xyz/goledger/base/ctx"
	"github.com/x-xyz/goledger/base/log"
	"github.com/x-xyz/goledger/base/metrics"
	"github.com/x-xyz/goledger/base/ptr"
	"github.com/x-xyz/goledger/domain"
	"github.com/x-xyz/goledger/domain/item"
)

const (
	defaultStoreTimeout = 2 * time.Second
	defaultProbeTimeout = time.Second
	defaultCooldown     = 5 * time.Second
)

// StoreCfg configures the store selector
type StoreCfg struct {
	Durable item.Repo
	// Mirror defaults to NewMirror(MirrorSizeMB)
	Mirror       item.Mirror
	MirrorSizeMB int
	// Timeout bounds every durable call
	Timeout time.Duration
	// ProbeTimeout bounds the liveness check of an unreachable durable store
	ProbeTimeout time.Duration
	// Cooldown is the minimum pause between two probes
	Cooldown time.Duration
	Clock    item.Clock
	Metrics  metrics.Service
}

type storeImpl struct {
	durable      item.Repo
	mirror       item.Mirror
	timeout      time.Duration
	probeTimeout time.Duration
	cooldown     time.Duration
	clock        item.Clock
	met          metrics.Service

	mu               sync.Mutex
	reachable        bool
	unreachableSince time.Time
	nextProbeAt      time.Time
	probing          bool
	recovered        bool
}

// NewStore returns a selector that serves from the durable repo while it is
// reachable and from the mirror, marking writes dirty, while it is not.
func NewStore(cfg *StoreCfg) item.Store {
	s := &storeImpl{
		durable:      cfg.Durable,
		mirror:       cfg.Mirror,
		timeout:      cfg.Timeout,
		probeTimeout: cfg.ProbeTimeout,
		cooldown:     cfg.Cooldown,
		clock:        cfg.Clock,
		met:          cfg.Metrics,
		reachable:    true,
	}
	if s.mirror == nil {
		s.mirror = NewMirror(cfg.MirrorSizeMB)
	}
	if s.timeout <= 0 {
		s.timeout = defaultStoreTimeout
	}
	if s.probeTimeout <= 0 {
		s.probeTimeout = defaultProbeTimeout
	}
	if s.cooldown <= 0 {
		s.cooldown = defaultCooldown
	}
	if s.clock == nil {
		s.clock = item.SystemClock()
	}
	if s.met == nil {
		s.met = metrics.New("store")
	}
	return s
}

// isStoreFailure tells a durable store failure apart from a domain answer or a caller that gave up
func (s *storeImpl) isStoreFailure(c ctx.Ctx, err error) bool {
	if err == nil || c.Err() != nil {
		return false
	}
	return !errors.Is(err, domain.ErrNotFound) &&
		!errors.Is(err, domain.ErrDuplicateId) &&
		!errors.Is(err, domain.ErrVersionConflict)
}

func (s *storeImpl) markUnreachable(c ctx.Ctx, op string, err error) {
	now := s.clock.Now()
	s.mu.Lock()
	wasReachable := s.reachable
	if wasReachable {
		s.reachable = false
		s.unreachableSince = now
	}
	s.nextProbeAt = now.Add(s.cooldown)
	s.mu.Unlock()

	s.met.BumpSum("store.failover", 1, "op", op)
	if wasReachable {
		c.WithFields(log.Fields{"err": err, "op": op}).Warn("durable store unreachable, serving from mirror")
	}
}

func (s *storeImpl) Reachable(c ctx.Ctx) bool {
	now := s.clock.Now()
	s.mu.Lock()
	if s.reachable {
		s.mu.Unlock()
		return true
	}
	if s.probing || now.Before(s.nextProbeAt) {
		s.mu.Unlock()
		return false
	}
	s.probing = true
	s.mu.Unlock()

	pc, cancel := ctx.WithTimeout(c, s.probeTimeout)
	err := s.durable.Ping(pc)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.probing = false
	if err != nil {
		s.nextProbeAt = s.clock.Now().Add(s.cooldown)
		s.met.BumpSum("store.probe", 1, "result", "down")
		c.WithField("err", err).Debug("durable store probe failed")
		return false
	}
	s.met.BumpSum("store.probe", 1, "result", "up")
	c.WithFields(log.Fields{
		"downtime": s.clock.Now().Sub(s.unreachableSince).String(),
		"dirty":    len(s.mirror.DirtyIds()),
	}).Info("durable store reachable again")
	s.reachable = true
	s.recovered = true
	return true
}

func (s *storeImpl) TakeRecovered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.recovered
	s.recovered = false
	return r
}

func (s *storeImpl) durableGet(c ctx.Ctx, id string) (*item.Item, error) {
	dc, cancel := ctx.WithTimeout(c, s.timeout)
	defer cancel()
	return s.durable.Get(dc, id)
}

func (s *storeImpl) durablePut(c ctx.Ctx, it *item.Item, expectedVersion int64) error {
	dc, cancel := ctx.WithTimeout(c, s.timeout)
	defer cancel()
	return s.durable.Put(dc, it, expectedVersion)
}

// keepClean replaces the mirror copy with it. Callers must hold the per-id lock.
func (s *storeImpl) keepClean(it *item.Item) {
	cp := it.Clone()
	cp.Dirty = false
	s.mirror.Put(cp)
}

// refreshClean offers a durable read to the mirror without overwriting a
// concurrent failover write
func (s *storeImpl) refreshClean(it *item.Item) {
	if !s.mirror.PutClean(it) {
		s.met.BumpSum("mirror.refresh.skipped", 1)
	}
}

func (s *storeImpl) writeDirty(it *item.Item) {
	it.Dirty = true
	s.mirror.Put(it)
	s.met.BumpSum("mirror.write", 1)
}

func (s *storeImpl) Get(c ctx.Ctx, id string) (*item.Item, error) {
	if s.Reachable(c) {
		d, err := s.durableGet(c, id)
		switch {
		case err == nil:
			if m, ok := s.mirror.Get(id); ok && m.Dirty {
				if m.Version > d.Version {
					return m, nil
				}
				return d, nil
			}
			s.refreshClean(d)
			return d, nil
		case errors.Is(err, domain.ErrNotFound):
			if m, ok := s.mirror.Get(id); ok && m.Dirty {
				return m, nil
			}
			return nil, domain.ErrNotFound
		case !s.isStoreFailure(c, err):
			return nil, err
		default:
			s.markUnreachable(c, "get", err)
		}
	}

	if m, ok := s.mirror.Get(id); ok {
		return m, nil
	}
	return nil, domain.ErrStoreUnavailable
}

func (s *storeImpl) Create(c ctx.Ctx, it *item.Item) error {
	if s.Reachable(c) {
		dc, cancel := ctx.WithTimeout(c, s.timeout)
		err := s.durable.Create(dc, it)
		cancel()
		if err == nil {
			it.Dirty = false
			s.keepClean(it)
			return nil
		} else if !s.isStoreFailure(c, err) {
			return err
		}
		s.markUnreachable(c, "create", err)
	}

	if _, ok := s.mirror.Get(it.Id); ok {
		return domain.ErrDuplicateId
	}
	s.writeDirty(it)
	return nil
}

func (s *storeImpl) Put(c ctx.Ctx, it *item.Item, expectedVersion int64) error {
	if s.Reachable(c) {
		err := s.durablePut(c, it, expectedVersion)
		if err == nil {
			it.Dirty = false
			s.keepClean(it)
			return nil
		} else if !s.isStoreFailure(c, err) {
			return err
		}
		s.markUnreachable(c, "put", err)
	}

	m, ok := s.mirror.Get(it.Id)
	if !ok {
		return domain.ErrStoreUnavailable
	}
	if m.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	s.writeDirty(it)
	return nil
}

func (s *storeImpl) ScanByOwner(c ctx.Ctx, owner string) ([]*item.Item, error) {
	if s.Reachable(c) {
		dc, cancel := ctx.WithTimeout(c, s.timeout)
		items, err := s.durable.ScanByOwner(dc, owner)
		cancel()
		if err == nil {
			return s.mergeDirty(owner, items), nil
		} else if !s.isStoreFailure(c, err) {
			return nil, err
		}
		s.markUnreachable(c, "scan", err)
	}
	return s.mirror.ScanByOwner(owner), nil
}

// mergeDirty overlays newer dirty mirror records on a durable scan result
func (s *storeImpl) mergeDirty(owner string, durable []*item.Item) []*item.Item {
	byId := make(map[string]*item.Item, len(durable))
	for _, d := range durable {
		byId[d.Id] = d
	}
	for _, id := range s.mirror.DirtyIds() {
		m, ok := s.mirror.Get(id)
		if !ok {
			continue
		}
		d, inDurable := byId[id]
		if inDurable && m.Version <= d.Version {
			continue
		}
		if m.Owner == owner {
			byId[id] = m
		} else {
			delete(byId, id)
		}
	}

	res := make([]*item.Item, 0, len(byId))
	for _, it := range byId {
		if !it.Dirty {
			s.refreshClean(it)
		}
		res = append(res, it)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Id < res[j].Id })
	return res
}

func (s *storeImpl) IsDirty(id string) bool {
	m, ok := s.mirror.Get(id)
	return ok && m.Dirty
}

func (s *storeImpl) DirtyIds() []string {
	return s.mirror.DirtyIds()
}

func (s *storeImpl) Reconcile(c ctx.Ctx, id string) (item.ReconcileOutcome, error) {
	m, ok := s.mirror.Get(id)
	if !ok || !m.Dirty {
		return item.ReconcileNoop, nil
	}
	if !s.Reachable(c) {
		return item.ReconcileNoop, domain.ErrStoreUnavailable
	}

	c = ctx.WithValue(c, "id", id)
	clean := m.Clone()
	clean.Dirty = false

	d, err := s.durableGet(c, id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		if err := s.durablePut(c, clean, item.NoVersion); err != nil {
			return s.reconcileFailed(c, err)
		}
	case err != nil:
		return s.reconcileFailed(c, err)
	case m.Version > d.Version:
		if err := s.durablePut(c, clean, d.Version); err != nil {
			return s.reconcileFailed(c, err)
		}
	default:
		// durable wins ties, the mirror write is dropped
		s.keepClean(d)
		s.met.BumpSum("reconcile.discarded", 1)
		c.WithFields(log.Fields{
			"mirrorVersion":  m.Version,
			"durableVersion": d.Version,
		}).Warn("mirror record discarded, durable copy is newer")
		return item.ReconcileDiscarded, nil
	}

	s.mirror.Put(clean)
	s.met.BumpSum("reconcile.promoted", 1)
	c.WithField("version", clean.Version).Info("mirror record promoted to durable store")
	return item.ReconcilePromoted, nil
}

func (s *storeImpl) reconcileFailed(c ctx.Ctx, err error) (item.ReconcileOutcome, error) {
	if s.isStoreFailure(c, err) {
		s.markUnreachable(c, "reconcile", err)
	}
	c.WithField("err", err).Warn("reconcile failed, record stays dirty")
	return item.ReconcileNoop, err
}

func (s *storeImpl) Status() item.StoreStatus {
	s.mu.Lock()
	st := item.StoreStatus{DurableReachable: s.reachable}
	if !s.reachable {
		st.UnreachableSince = ptr.Of(s.unreachableSince)
	}
	s.mu.Unlock()
	st.DirtyRecords = len(s.mirror.DirtyIds())
	st.MirrorRecords = s.mirror.Len()
	return st
}
