package item

import (
	"time"

	"github.com/x-xyz/goledger/base/ptr"
)

// ListingKind tags the active variant of a Listing
type ListingKind string

const (
	ListingUnlisted   ListingKind = "unlisted"
	ListingFixedPrice ListingKind = "fixed_price"
	ListingAuction    ListingKind = "auction"
)

// NoVersion is the expected version of a record that must not exist yet
const NoVersion int64 = -1

// Listing is a tagged union: Price is set only for ListingFixedPrice and
// Auction only for ListingAuction.
type Listing struct {
	Kind    ListingKind   `json:"kind" bson:"kind"`
	Price   *Price        `json:"price,omitempty" bson:"price,omitempty"`
	Auction *AuctionState `json:"auction,omitempty" bson:"auction,omitempty"`
}

type AuctionState struct {
	StartingPrice        Price     `json:"startingPrice" bson:"startingPrice"`
	CurrentHighestBid    *Price    `json:"currentHighestBid" bson:"currentHighestBid"`
	CurrentHighestBidder *string   `json:"currentHighestBidder" bson:"currentHighestBidder"`
	StartedAt            time.Time `json:"startedAt" bson:"startedAt"`
	EndsAt               time.Time `json:"endsAt" bson:"endsAt"`
	BidCount             int       `json:"bidCount" bson:"bidCount"`
}

type Item struct {
	Id          string    `json:"id" bson:"_id"`
	Owner       string    `json:"owner" bson:"owner"`
	Creator     string    `json:"creator" bson:"creator"`
	MetadataRef string    `json:"metadataRef" bson:"metadataRef"`
	Listing     Listing   `json:"listing" bson:"listing"`
	Version     int64     `json:"version" bson:"version"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`

	// Dirty marks a mirror record written while the durable store was unreachable
	Dirty bool `json:"dirty,omitempty" bson:"-"`
}

func Unlisted() Listing {
	return Listing{Kind: ListingUnlisted}
}

func FixedPrice(price Price) Listing {
	return Listing{Kind: ListingFixedPrice, Price: &price}
}

func Auction(startingPrice Price, startedAt time.Time, duration time.Duration) Listing {
	return Listing{
		Kind: ListingAuction,
		Auction: &AuctionState{
			StartingPrice: startingPrice,
			StartedAt:     startedAt,
			EndsAt:        startedAt.Add(duration),
		},
	}
}

func (l Listing) IsUnlisted() bool {
	return l.Kind == ListingUnlisted || l.Kind == ""
}

func (l Listing) Clone() Listing {
	res := Listing{Kind: l.Kind}
	if l.Price != nil {
		p := *l.Price
		res.Price = &p
	}
	if l.Auction != nil {
		a := l.Auction.Clone()
		res.Auction = &a
	}
	return res
}

func (a AuctionState) Clone() AuctionState {
	res := a
	res.CurrentHighestBid = ptr.Clone(a.CurrentHighestBid)
	res.CurrentHighestBidder = ptr.Clone(a.CurrentHighestBidder)
	return res
}

// MinimumAcceptable is the amount a new bid must strictly exceed
func (a AuctionState) MinimumAcceptable() Price {
	if a.CurrentHighestBid == nil {
		return a.StartingPrice
	}
	return a.StartingPrice.Max(*a.CurrentHighestBid)
}

// HasBids reports whether any bid has been accepted
func (a AuctionState) HasBids() bool {
	return a.CurrentHighestBidder != nil
}

// Expired reports whether the auction is over at now. The end instant itself counts as expired.
func (a AuctionState) Expired(now time.Time) bool {
	return !now.Before(a.EndsAt)
}

// Clone returns a deep copy so that callers never share mutable state with a store
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	res := *i
	res.Listing = i.Listing.Clone()
	return &res
}

// Snapshot captures the owner and listing of the item
func (i *Item) Snapshot() State {
	return State{Owner: i.Owner, Listing: i.Listing.Clone()}
}

// ExpiredAuction reports whether the item holds an auction that is over at now
func (i *Item) ExpiredAuction(now time.Time) bool {
	return i.Listing.Kind == ListingAuction && i.Listing.Auction != nil && i.Listing.Auction.Expired(now)
}
