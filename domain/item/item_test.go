package item

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/x-xyz/goledger/base/ptr"
)

type itemSuite struct {
	suite.Suite
	now time.Time
}

func TestItemSuite(t *testing.T) {
	suite.Run(t, new(itemSuite))
}

func (s *itemSuite) SetupTest() {
	s.now = time.Date(2022, 8, 1, 12, 0, 0, 0, time.UTC)
}

func (s *itemSuite) auctionItem() *Item {
	l := Auction(MustPrice("10"), s.now, time.Hour)
	l.Auction.CurrentHighestBid = &Price{MustPrice("12").Decimal}
	l.Auction.CurrentHighestBidder = ptr.Of("u2")
	return &Item{
		Id:      "a1",
		Owner:   "u1",
		Creator: "u1",
		Listing: l,
		Version: 3,
	}
}

func (s *itemSuite) TestCloneIsDeep() {
	orig := s.auctionItem()
	cp := orig.Clone()
	s.Equal(orig, cp)

	*cp.Listing.Auction.CurrentHighestBidder = "u3"
	cp.Listing.Auction.CurrentHighestBid.Decimal = MustPrice("99").Decimal
	cp.Owner = "u9"

	s.Equal("u2", *orig.Listing.Auction.CurrentHighestBidder)
	s.Equal("12", orig.Listing.Auction.CurrentHighestBid.String())
	s.Equal("u1", orig.Owner)

	var nilItem *Item
	s.Nil(nilItem.Clone())
}

func (s *itemSuite) TestMinimumAcceptable() {
	a := Auction(MustPrice("10"), s.now, time.Hour).Auction
	s.Equal("10", a.MinimumAcceptable().String())
	s.False(a.HasBids())

	a = s.auctionItem().Listing.Auction
	s.Equal("12", a.MinimumAcceptable().String())
	s.True(a.HasBids())
}

func (s *itemSuite) TestExpired() {
	it := s.auctionItem()
	end := it.Listing.Auction.EndsAt

	s.False(it.ExpiredAuction(end.Add(-time.Nanosecond)))
	s.True(it.ExpiredAuction(end))
	s.True(it.ExpiredAuction(end.Add(time.Second)))

	it.Listing = FixedPrice(MustPrice("5"))
	s.False(it.ExpiredAuction(end.Add(time.Hour)))
}

func (s *itemSuite) TestPriceEncoding() {
	type holder struct {
		P Price  `json:"p" bson:"p"`
		Q *Price `json:"q" bson:"q"`
	}
	q := MustPrice("0.000000001")
	in := holder{P: MustPrice("12.5"), Q: &q}

	raw, err := bson.Marshal(in)
	s.Require().NoError(err)
	s.Equal("12.5", bson.Raw(raw).Lookup("p").StringValue())

	var out holder
	s.Require().NoError(bson.Unmarshal(raw, &out))
	s.True(in.P.Equal(out.P.Decimal))
	s.True(in.Q.Equal(out.Q.Decimal))

	js, err := json.Marshal(in)
	s.Require().NoError(err)
	s.JSONEq(`{"p":"12.5","q":"0.000000001"}`, string(js))

	var back holder
	s.Require().NoError(json.Unmarshal(js, &back))
	s.True(in.P.Equal(back.P.Decimal))
}

func (s *itemSuite) TestPriceRejectsNumber() {
	raw, err := bson.Marshal(bson.M{"p": 12})
	s.Require().NoError(err)
	var out struct {
		P Price `bson:"p"`
	}
	s.Error(bson.Unmarshal(raw, &out))
}

func (s *itemSuite) TestDirtyIsReportedButNeverStored() {
	it := s.auctionItem()
	it.Dirty = true
	raw, err := bson.Marshal(it)
	s.Require().NoError(err)
	_, err = bson.Raw(raw).LookupErr("dirty")
	s.Error(err)
	s.Equal("a1", bson.Raw(raw).Lookup("_id").StringValue())

	var back Item
	s.Require().NoError(bson.Unmarshal(raw, &back))
	s.False(back.Dirty)
	s.Equal(it.Listing.Auction.EndsAt.Unix(), back.Listing.Auction.EndsAt.Unix())
	s.Equal("u2", *back.Listing.Auction.CurrentHighestBidder)

	js, err := json.Marshal(it)
	s.Require().NoError(err)
	s.Contains(string(js), `"dirty":true`)
	it.Dirty = false
	js, err = json.Marshal(it)
	s.Require().NoError(err)
	s.NotContains(string(js), `"dirty"`)
}
