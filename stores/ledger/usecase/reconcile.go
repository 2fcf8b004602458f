package usecase

import (
	"errors"

	"github.com/x-xyz/goledger/base/ctx"
	"github.com/x-xyz/goledger/base/log"
	"github.com/x-xyz/goledger/domain"
	"github.com/x-xyz/goledger/domain/item"
)

// reconcileOne settles the dirty mirror record of id. The caller holds the lock of id.
func (im *impl) reconcileOne(c ctx.Ctx, id string) (item.ReconcileOutcome, error) {
	outcome, err := im.store.Reconcile(c, id)
	if err != nil {
		c.WithFields(log.Fields{"err": err, "id": id}).Warn("store.Reconcile failed")
	}
	return outcome, err
}

func (im *impl) Reconcile(c ctx.Ctx) (item.ReconcileSummary, error) {
	defer im.met.BumpTime("reconcile.time").End()
	sum := item.ReconcileSummary{}
	if !im.store.Reachable(c) {
		sum.Remaining = len(im.store.DirtyIds())
		return sum, domain.ErrStoreUnavailable
	}

	var stopErr error
	for _, id := range im.store.DirtyIds() {
		if err := c.Err(); err != nil {
			stopErr = err
			break
		}

		unlock := im.locks.Lock(id)
		outcome, err := im.reconcileOne(c, id)
		unlock()

		switch {
		case err != nil:
			sum.Failed++
			if errors.Is(err, domain.ErrStoreUnavailable) || !im.store.Reachable(c) {
				stopErr = domain.ErrStoreUnavailable
			}
		case outcome == item.ReconcilePromoted:
			sum.Promoted++
		case outcome == item.ReconcileDiscarded:
			sum.Discarded++
		}
		if stopErr != nil {
			break
		}
	}

	sum.Remaining = len(im.store.DirtyIds())
	logger := c.WithFields(log.Fields{
		"promoted":  sum.Promoted,
		"discarded": sum.Discarded,
		"failed":    sum.Failed,
		"remaining": sum.Remaining,
	})
	if sum.Promoted+sum.Discarded+sum.Failed > 0 {
		logger.Info("reconcile pass done")
	} else {
		logger.Debug("reconcile pass found nothing to do")
	}
	return sum, stopErr
}
