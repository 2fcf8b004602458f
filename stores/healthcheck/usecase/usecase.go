package usecase

import (
	"github.com/x-xyz/goledger/base/ctx"
	hcdomain "github.com/x-xyz/goledger/domain/healthcheck"
	"github.com/x-xyz/goledger/domain/item"
)

type impl struct {
	repo  hcdomain.HealthCheckRepo
	store item.Store
}

// New creates new healthCheckUsecase object representation of HealthCheckUsecase interface
func New(repo hcdomain.HealthCheckRepo, store item.Store) hcdomain.HealthCheckUsecase {
	return &impl{
		repo:  repo,
		store: store,
	}
}

// Check fails only when redis is down or when mongo is down and the mirror is empty,
// a ledger running on its mirror still serves requests.
func (im *impl) Check(context ctx.Ctx) (*hcdomain.Report, error) {
	report := &hcdomain.Report{
		Mongo: hcdomain.StatusDisabled,
		Redis: hcdomain.StatusDisabled,
		Store: im.store.Status(),
	}

	var dbErr, cacheErr error
	if im.repo.DBEnabled() {
		report.Mongo = hcdomain.StatusOk
		if dbErr = im.repo.PingDB(context); dbErr != nil {
			report.Mongo = dbErr.Error()
		}
	}
	if im.repo.CacheEnabled() {
		report.Redis = hcdomain.StatusOk
		if cacheErr = im.repo.PingCache(context); cacheErr != nil {
			report.Redis = cacheErr.Error()
		}
	}

	if cacheErr != nil {
		return report, cacheErr
	}
	if dbErr != nil && report.Store.MirrorRecords == 0 {
		return report, dbErr
	}
	return report, nil
}
