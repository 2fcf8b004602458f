package usecase

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/x-xyz/goledger/base/backoff"
	"github.com/x-xyz/goledger/base/ctx"
	"github.com/x-xyz/goledger/base/goroutine"
	"github.com/x-xyz/goledger/base/keylock"
	"github.com/x-xyz/goledger/base/log"
	"github.com/x-xyz/goledger/base/metrics"
	"github.com/x-xyz/goledger/base/ptr"
	"github.com/x-xyz/goledger/domain"
	"github.com/x-xyz/goledger/domain/item"
)

const (
	defaultConflictRetries = 3
	defaultConflictBackoff = 20 * time.Millisecond
)

type LedgerUseCaseCfg struct {
	Store   item.Store
	Emitter item.Emitter
	Clock   item.Clock
	Metrics metrics.Service
	// ConflictRetries is the number of attempts a mutation gets against version conflicts
	ConflictRetries int
	ConflictBackoff time.Duration
	// NewId generates item and event ids, uuid v4 by default
	NewId func() string
}

type impl struct {
	store   item.Store
	emitter item.Emitter
	clock   item.Clock
	met     metrics.Service
	locks   *keylock.Locker

	retries      int
	backoffStart time.Duration
	newId        func() string

	reconciling int32
}

// mutation turns the current item into the next one in place. An empty event
// kind means the item is left as it is and nothing is written.
type mutation func(it *item.Item, now time.Time) (item.EventKind, error)

// expiry tells mutateOnce what to do with an auction past its end
type expiry int

const (
	// keepExpired hands the expired auction to the mutation as is
	keepExpired expiry = iota
	// settleExpired settles it and runs the mutation on the result
	settleExpired
	// rejectExpired settles it and fails with ErrAuctionExpired
	rejectExpired
)

func New(cfg *LedgerUseCaseCfg) item.Usecase {
	im := &impl{
		store:        cfg.Store,
		emitter:      cfg.Emitter,
		clock:        cfg.Clock,
		met:          cfg.Metrics,
		locks:        keylock.New(),
		retries:      cfg.ConflictRetries,
		backoffStart: cfg.ConflictBackoff,
		newId:        cfg.NewId,
	}
	if im.clock == nil {
		im.clock = item.SystemClock()
	}
	if im.met == nil {
		im.met = metrics.New("ledger")
	}
	if im.retries <= 0 {
		im.retries = defaultConflictRetries
	}
	if im.backoffStart <= 0 {
		im.backoffStart = defaultConflictBackoff
	}
	if im.newId == nil {
		im.newId = uuid.NewString
	}
	return im
}

func (im *impl) CreateItem(c ctx.Ctx, p item.CreateParams) (*item.Item, error) {
	defer im.met.BumpTime("op.time", "op", "create").End()
	if p.Creator == "" {
		return nil, domain.ErrInvalidParam
	}
	owner := p.InitialOwner
	if owner == "" {
		owner = p.Creator
	}

	now := im.clock.Now()
	it := &item.Item{
		Id:          im.newId(),
		Owner:       owner,
		Creator:     p.Creator,
		MetadataRef: p.MetadataRef,
		Listing:     item.Unlisted(),
		Version:     0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	c = ctx.WithValue(c, "id", it.Id)
	if err := im.store.Create(c, it); err != nil {
		im.failed(c, "create", err)
		return nil, err
	}
	im.emit(c, item.EventCreated, nil, it, now)
	im.afterOp(c)
	return it, nil
}

func (im *impl) GetItem(c ctx.Ctx, id string) (*item.Item, error) {
	if im.store.IsDirty(id) && im.store.Reachable(c) {
		unlock := im.locks.Lock(id)
		_, err := im.reconcileOne(c, id)
		unlock()
		if errors.Is(err, domain.ErrVersionConflict) {
			return nil, err
		}
	}
	it, err := im.store.Get(c, id)
	if err == nil && it.ExpiredAuction(im.clock.Now()) {
		return im.mutate(c, "settle", id, keepExpired, settle)
	}
	im.afterOp(c)
	return it, err
}

func (im *impl) ItemsByOwner(c ctx.Ctx, owner string) ([]*item.Item, error) {
	if owner == "" {
		return nil, domain.ErrInvalidParam
	}
	items, err := im.store.ScanByOwner(c, owner)
	if err != nil {
		c.WithFields(log.Fields{"err": err, "owner": owner}).Error("store.ScanByOwner failed")
		return nil, err
	}

	// expired auctions are settled on the way out and dropped when they changed hands
	now := im.clock.Now()
	res := make([]*item.Item, 0, len(items))
	for _, it := range items {
		if it.ExpiredAuction(now) {
			if it, err = im.mutate(c, "settle", it.Id, keepExpired, settle); err != nil {
				return nil, err
			}
			if it.Owner != owner {
				continue
			}
		}
		res = append(res, it)
	}
	im.afterOp(c)
	return res, nil
}

func (im *impl) ListFixedPrice(c ctx.Ctx, id string, price item.Price, requester string) (*item.Item, error) {
	return im.mutate(c, "list", id, settleExpired, func(it *item.Item, now time.Time) (item.EventKind, error) {
		if it.Owner != requester {
			return "", domain.ErrNotOwner
		}
		if !price.IsPositive() {
			return "", domain.ErrInvalidPrice
		}
		if it.Listing.Kind == item.ListingAuction {
			return "", domain.ErrAlreadyListed
		}
		it.Listing = item.FixedPrice(price)
		return item.EventListed, nil
	})
}

func (im *impl) Delist(c ctx.Ctx, id string, requester string) (*item.Item, error) {
	return im.mutate(c, "delist", id, settleExpired, func(it *item.Item, now time.Time) (item.EventKind, error) {
		if it.Owner != requester {
			return "", domain.ErrNotOwner
		}
		switch it.Listing.Kind {
		case item.ListingFixedPrice:
		case item.ListingAuction:
			return "", domain.ErrAlreadyListed
		default:
			return "", domain.ErrNotListed
		}
		it.Listing = item.Unlisted()
		return item.EventDelisted, nil
	})
}

func (im *impl) StartAuction(c ctx.Ctx, id string, startingPrice item.Price, duration time.Duration, requester string) (*item.Item, error) {
	return im.mutate(c, "start_auction", id, settleExpired, func(it *item.Item, now time.Time) (item.EventKind, error) {
		if it.Owner != requester {
			return "", domain.ErrNotOwner
		}
		if !startingPrice.IsPositive() {
			return "", domain.ErrInvalidPrice
		}
		if duration <= 0 {
			return "", domain.ErrInvalidDuration
		}
		if !it.Listing.IsUnlisted() {
			return "", domain.ErrAlreadyListed
		}
		it.Listing = item.Auction(startingPrice, now, duration)
		return item.EventAuctionStarted, nil
	})
}

func (im *impl) CancelAuction(c ctx.Ctx, id string, requester string) (*item.Item, error) {
	return im.mutate(c, "cancel_auction", id, settleExpired, func(it *item.Item, now time.Time) (item.EventKind, error) {
		if it.Owner != requester {
			return "", domain.ErrNotOwner
		}
		if it.Listing.Kind != item.ListingAuction || it.Listing.Auction == nil {
			return "", domain.ErrAuctionNotActive
		}
		if it.Listing.Auction.HasBids() {
			return "", domain.ErrAuctionHasBids
		}
		it.Listing = item.Unlisted()
		return item.EventAuctionCancelled, nil
	})
}

func (im *impl) PlaceBid(c ctx.Ctx, id string, bidder string, amount item.Price) (*item.Item, error) {
	return im.mutate(c, "bid", id, rejectExpired, func(it *item.Item, now time.Time) (item.EventKind, error) {
		if bidder == "" {
			return "", domain.ErrInvalidParam
		}
		if it.Listing.Kind != item.ListingAuction || it.Listing.Auction == nil {
			return "", domain.ErrAuctionNotActive
		}
		auction := it.Listing.Auction
		if bidder == it.Owner {
			return "", domain.ErrSelfBid
		}
		min := auction.MinimumAcceptable()
		if !amount.GreaterThan(min.Decimal) {
			return "", &domain.BidTooLowError{MinimumAcceptable: min.Decimal}
		}
		auction.CurrentHighestBid = ptr.Of(amount)
		auction.CurrentHighestBidder = ptr.Of(bidder)
		auction.BidCount++
		return item.EventBidPlaced, nil
	})
}

func (im *impl) SettleAuction(c ctx.Ctx, id string) (*item.Item, error) {
	return im.mutate(c, "settle", id, keepExpired, settle)
}

// settle closes an expired auction. Items without an auction are left untouched.
func settle(it *item.Item, now time.Time) (item.EventKind, error) {
	if it.Listing.Kind != item.ListingAuction || it.Listing.Auction == nil {
		return "", nil
	}
	if !it.Listing.Auction.Expired(now) {
		return "", domain.ErrAuctionNotExpired
	}
	if winner := it.Listing.Auction.CurrentHighestBidder; winner != nil {
		it.Owner = *winner
	}
	it.Listing = item.Unlisted()
	return item.EventAuctionSettled, nil
}

func (im *impl) BuyFixedPrice(c ctx.Ctx, id string, buyer string) (*item.Item, error) {
	return im.mutate(c, "buy", id, settleExpired, func(it *item.Item, now time.Time) (item.EventKind, error) {
		if buyer == "" {
			return "", domain.ErrInvalidParam
		}
		if it.Listing.Kind != item.ListingFixedPrice {
			return "", domain.ErrNotListed
		}
		if buyer == it.Owner {
			return "", domain.ErrSelfBuy
		}
		it.Owner = buyer
		it.Listing = item.Unlisted()
		return item.EventSold, nil
	})
}

func (im *impl) TransferOwnership(c ctx.Ctx, id string, from string, to string) (*item.Item, error) {
	return im.mutate(c, "transfer", id, settleExpired, func(it *item.Item, now time.Time) (item.EventKind, error) {
		if it.Owner != from {
			return "", domain.ErrNotOwner
		}
		if to == "" || to == from {
			return "", domain.ErrInvalidParam
		}
		if !it.Listing.IsUnlisted() {
			return "", domain.ErrAlreadyListed
		}
		it.Owner = to
		return item.EventTransferred, nil
	})
}

func isConflict(err error) bool {
	return errors.Is(err, domain.ErrVersionConflict)
}

// mutate runs m on id under the per-id lock and retries lost version races
func (im *impl) mutate(c ctx.Ctx, op, id string, exp expiry, m mutation) (*item.Item, error) {
	defer im.met.BumpTime("op.time", "op", op).End()
	c = ctx.WithValues(c, map[string]interface{}{"op": op, "id": id})

	var res *item.Item
	b := backoff.NewExponential(im.backoffStart, 16*im.backoffStart).WithJitter(0.5)
	err := backoff.Retry(c, b, im.retries, isConflict, func() error {
		var err error
		res, err = im.mutateOnce(c, id, exp, m)
		return err
	})
	if err != nil {
		im.failed(c, op, err)
		return nil, err
	}
	im.afterOp(c)
	return res, nil
}

func (im *impl) mutateOnce(c ctx.Ctx, id string, exp expiry, m mutation) (*item.Item, error) {
	unlock := im.locks.Lock(id)
	defer unlock()

	cur, err := im.load(c, id)
	if err != nil {
		return nil, err
	}

	now := im.clock.Now()
	if exp != keepExpired && cur.ExpiredAuction(now) {
		if cur, err = im.apply(c, cur, now, settle); err != nil {
			return nil, err
		}
		if exp == rejectExpired {
			return nil, domain.ErrAuctionExpired
		}
	}
	return im.apply(c, cur, now, m)
}

// apply writes the result of m over cur, guarded by the version of cur
func (im *impl) apply(c ctx.Ctx, cur *item.Item, now time.Time, m mutation) (*item.Item, error) {
	next := cur.Clone()
	kind, err := m(next, now)
	if err != nil {
		return nil, err
	} else if kind == "" {
		return cur, nil
	}

	next.Version = cur.Version + 1
	next.UpdatedAt = now
	if err := im.store.Put(c, next, cur.Version); err != nil {
		return nil, err
	}
	im.emit(c, kind, cur, next, now)
	return next, nil
}

// load reads the current item, settling a pending mirror write first when the durable store is back
func (im *impl) load(c ctx.Ctx, id string) (*item.Item, error) {
	if im.store.IsDirty(id) && im.store.Reachable(c) {
		if _, err := im.reconcileOne(c, id); isConflict(err) {
			return nil, err
		}
	}
	return im.store.Get(c, id)
}

func (im *impl) emit(c ctx.Ctx, kind item.EventKind, prev, next *item.Item, now time.Time) {
	ev := item.Event{
		Id:         im.newId(),
		Kind:       kind,
		ItemId:     next.Id,
		NewState:   next.Snapshot(),
		Version:    next.Version,
		OccurredAt: now,
	}
	if prev != nil {
		s := prev.Snapshot()
		ev.PreviousState = &s
	}
	if im.emitter != nil {
		im.emitter.Emit(c, ev)
	}
}

func (im *impl) failed(c ctx.Ctx, op string, err error) {
	switch {
	case domain.IsBusinessError(err):
		im.met.BumpSum("op.err", 1, "op", op, "type", "rejected")
		c.WithField("err", err).Debug("operation rejected")
	case isConflict(err):
		im.met.BumpSum("op.err", 1, "op", op, "type", "conflict")
		c.WithField("err", err).Warn("version conflict persisted after retries")
	default:
		im.met.BumpSum("op.err", 1, "op", op, "type", "store")
		c.WithField("err", err).Error("store operation failed")
	}
}

// afterOp starts a full reconciliation pass once a probe found the durable store back
func (im *impl) afterOp(c ctx.Ctx) {
	if !im.store.TakeRecovered() {
		return
	}
	if !atomic.CompareAndSwapInt32(&im.reconciling, 0, 1) {
		return
	}
	bc := ctx.Detach(c)
	goroutine.RecoverableGo(func() {
		defer atomic.StoreInt32(&im.reconciling, 0)
		if _, err := im.Reconcile(bc); err != nil {
			bc.WithField("err", err).Warn("background reconcile stopped")
		}
	}, goroutine.Named("reconcile"), goroutine.WithLogger(bc.Logger))
}
