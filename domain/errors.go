package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound will throw if the requested item is not exists
	ErrNotFound = errors.New("item not found")
	// ErrNotOwner is returned when the requester does not own the item
	ErrNotOwner = errors.New("requester is not the owner")
	// ErrInvalidPrice is returned for a price or starting price that is not positive
	ErrInvalidPrice = errors.New("price must be positive")
	// ErrInvalidDuration is returned for an auction duration that is not positive
	ErrInvalidDuration = errors.New("duration must be positive")
	// ErrAlreadyListed is returned when the listing state forbids the transition
	ErrAlreadyListed = errors.New("item is already listed")
	// ErrNotListed is returned when a fixed-price listing is required but absent
	ErrNotListed         = errors.New("item is not listed at a fixed price")
	ErrAuctionNotActive  = errors.New("auction is not active")
	ErrAuctionExpired    = errors.New("auction has expired")
	ErrAuctionNotExpired = errors.New("auction has not expired")
	ErrAuctionHasBids    = errors.New("auction has bids")
	ErrSelfBid           = errors.New("owner cannot bid on own item")
	ErrSelfBuy           = errors.New("owner cannot buy own item")
	// ErrBidTooLow matches every *BidTooLowError through errors.Is
	ErrBidTooLow = errors.New("bid too low")
	// ErrVersionConflict is returned when a conditional write lost against a concurrent one
	ErrVersionConflict = errors.New("version conflict")
	// ErrStoreUnavailable is returned when neither the durable store nor the mirror can serve
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrDuplicateId is returned when an item id is already taken
	ErrDuplicateId = errors.New("duplicate item id")
	// ErrInvalidParam will throw if the given request-body or params is not valid
	ErrInvalidParam = errors.New("invalid param")
)

// BidTooLowError carries the smallest amount the next bid has to exceed
type BidTooLowError struct {
	MinimumAcceptable decimal.Decimal
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("%s: must exceed %s", ErrBidTooLow.Error(), e.MinimumAcceptable.String())
}

func (e *BidTooLowError) Is(target error) bool {
	return target == ErrBidTooLow
}

// IsBusinessError reports whether err is a rule rejection rather than an infrastructure failure
func IsBusinessError(err error) bool {
	for _, e := range []error{
		ErrNotFound, ErrNotOwner, ErrInvalidPrice, ErrInvalidDuration, ErrAlreadyListed, ErrNotListed,
		ErrAuctionNotActive, ErrAuctionExpired, ErrAuctionNotExpired, ErrAuctionHasBids,
		ErrSelfBid, ErrSelfBuy, ErrBidTooLow, ErrDuplicateId, ErrInvalidParam,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
