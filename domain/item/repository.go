package item

import (
	"time"

	"github.com/x-xyz/goledger/base/ctx"
)

// Repo is the durable item store
type Repo interface {
	Get(c ctx.Ctx, id string) (*Item, error)
	// Create stores a new record and returns ErrDuplicateId when the id is taken
	Create(c ctx.Ctx, item *Item) error
	// Put replaces the record only if its stored version equals expectedVersion,
	// otherwise ErrVersionConflict. NoVersion requires that no record exists.
	Put(c ctx.Ctx, item *Item, expectedVersion int64) error
	ScanByOwner(c ctx.Ctx, owner string) ([]*Item, error)
	Ping(c ctx.Ctx) error
}

// Mirror is the in-memory copy of the item key space. It hands out and keeps
// deep copies only. Dirty records stay until replaced by a clean copy, clean
// copies may be evicted.
type Mirror interface {
	Get(id string) (*Item, bool)
	Put(item *Item)
	// PutClean stores a clean copy unless the mirror holds a dirty record or a
	// newer version of it, and reports whether it did
	PutClean(item *Item) bool
	ScanByOwner(owner string) []*Item
	DirtyIds() []string
	Len() int
}

// ReconcileOutcome is the result of reconciling one dirty mirror record
type ReconcileOutcome string

const (
	ReconcileNoop      ReconcileOutcome = "noop"
	ReconcilePromoted  ReconcileOutcome = "promoted"
	ReconcileDiscarded ReconcileOutcome = "discarded"
)

// Store picks the durable repo or the mirror for each call
type Store interface {
	Get(c ctx.Ctx, id string) (*Item, error)
	Create(c ctx.Ctx, item *Item) error
	Put(c ctx.Ctx, item *Item, expectedVersion int64) error
	ScanByOwner(c ctx.Ctx, owner string) ([]*Item, error)

	// IsDirty reports whether id has mirror writes not yet in the durable store
	IsDirty(id string) bool
	DirtyIds() []string
	// Reachable returns the durable store state, probing it when the cool-down has passed
	Reachable(c ctx.Ctx) bool
	// TakeRecovered reports, once, that a probe brought the durable store back
	TakeRecovered() bool
	// Reconcile settles the dirty mirror record of id against the durable store.
	// The caller must hold the per-id lock.
	Reconcile(c ctx.Ctx, id string) (ReconcileOutcome, error)
	Status() StoreStatus
}

// StoreStatus describes the store selector for health reporting
type StoreStatus struct {
	DurableReachable bool       `json:"durableReachable"`
	UnreachableSince *time.Time `json:"unreachableSince,omitempty"`
	DirtyRecords     int        `json:"dirtyRecords"`
	MirrorRecords    int        `json:"mirrorRecords"`
}
