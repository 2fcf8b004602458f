package item

import (
	"time"

	"github.com/x-xyz/goledger/base/ctx"
)

type CreateParams struct {
	Creator string
	// InitialOwner defaults to Creator
	InitialOwner string
	MetadataRef  string
}

// ReconcileSummary counts the outcomes of a reconciliation pass
type ReconcileSummary struct {
	Promoted  int `json:"promoted"`
	Discarded int `json:"discarded"`
	Failed    int `json:"failed"`
	Remaining int `json:"remaining"`
}

// Usecase is the ledger service
type Usecase interface {
	CreateItem(c ctx.Ctx, p CreateParams) (*Item, error)
	GetItem(c ctx.Ctx, id string) (*Item, error)
	ItemsByOwner(c ctx.Ctx, owner string) ([]*Item, error)

	ListFixedPrice(c ctx.Ctx, id string, price Price, requester string) (*Item, error)
	Delist(c ctx.Ctx, id string, requester string) (*Item, error)
	StartAuction(c ctx.Ctx, id string, startingPrice Price, duration time.Duration, requester string) (*Item, error)
	CancelAuction(c ctx.Ctx, id string, requester string) (*Item, error)
	PlaceBid(c ctx.Ctx, id string, bidder string, amount Price) (*Item, error)
	SettleAuction(c ctx.Ctx, id string) (*Item, error)
	BuyFixedPrice(c ctx.Ctx, id string, buyer string) (*Item, error)
	TransferOwnership(c ctx.Ctx, id string, from string, to string) (*Item, error)

	// Reconcile runs a full pass over the dirty mirror records
	Reconcile(c ctx.Ctx) (ReconcileSummary, error)
}
