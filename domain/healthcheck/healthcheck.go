package healthcheck

import (
	"github.com/x-xyz/goledger/base/ctx"
	"github.com/x-xyz/goledger/domain/item"
)

const (
	StatusOk       = "ok"
	StatusDisabled = "disabled"
)

// Report describes the dependencies of the ledger. Mongo and Redis hold
// StatusOk, StatusDisabled or the error of the failed check.
type Report struct {
	Mongo string           `json:"mongo"`
	Redis string           `json:"redis"`
	Store item.StoreStatus `json:"store"`
}

// HealthCheckUsecase represents the healthCheck's usecases
type HealthCheckUsecase interface {
	Check(context ctx.Ctx) (*Report, error)
}

// HealthCheckRepo is repository layer of healthCheck
type HealthCheckRepo interface {
	PingDB(context ctx.Ctx) error
	PingCache(context ctx.Ctx) error
	DBEnabled() bool
	CacheEnabled() bool
}
