package item

import (
	"time"

	"github.com/x-xyz/goledger/base/ctx"
)

type EventKind string

const (
	EventCreated          EventKind = "created"
	EventListed           EventKind = "listed"
	EventDelisted         EventKind = "delisted"
	EventAuctionStarted   EventKind = "auction_started"
	EventAuctionCancelled EventKind = "auction_cancelled"
	EventBidPlaced        EventKind = "bid_placed"
	EventAuctionSettled   EventKind = "auction_settled"
	EventSold             EventKind = "sold"
	EventTransferred      EventKind = "transferred"
)

// State is the part of an item that change events describe
type State struct {
	Owner   string  `json:"owner"`
	Listing Listing `json:"listing"`
}

// Event describes one accepted mutation. PreviousState is nil for EventCreated.
type Event struct {
	Id            string    `json:"id"`
	Kind          EventKind `json:"kind"`
	ItemId        string    `json:"itemId"`
	PreviousState *State    `json:"previousState"`
	NewState      State     `json:"newState"`
	Version       int64     `json:"version"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// Emitter delivers events on a best-effort basis and never fails the caller
type Emitter interface {
	Emit(c ctx.Ctx, ev Event)
}

// Publisher is one delivery channel behind an Emitter
type Publisher interface {
	Publish(c ctx.Ctx, ev Event) error
	Close() error
}
