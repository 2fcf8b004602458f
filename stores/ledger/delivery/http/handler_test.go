package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/x-xyz/goledger/base/ctx"
	bValidator "github.com/x-xyz/goledger/base/validator"
	"github.com/x-xyz/goledger/domain"
	"github.com/x-xyz/goledger/domain/item"
	"github.com/x-xyz/goledger/domain/item/mocks"
)

type handlerSuite struct {
	suite.Suite
	e      *echo.Echo
	ledger *mocks.Usecase
}

func (s *handlerSuite) SetupTest() {
	s.e = echo.New()
	s.e.Validator = bValidator.NewCustomValidator(bValidator.New())
	s.e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("ctx", ctx.Background())
			return next(c)
		}
	})
	s.ledger = &mocks.Usecase{}
	New(s.e, s.ledger)
}

func (s *handlerSuite) TearDownTest() {
	s.ledger.AssertExpectations(s.T())
}

func TestHandler(t *testing.T) {
	suite.Run(t, new(handlerSuite))
}

type resp struct {
	Data   json.RawMessage `json:"data"`
	Status string          `json:"status"`
}

func (s *handlerSuite) do(method, path, body string) (int, resp) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	r := resp{}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &r), rec.Body.String())
	return rec.Code, r
}

func sample() *item.Item {
	return &item.Item{Id: "a", Owner: "u1", Creator: "u1", Listing: item.Unlisted()}
}

func (s *handlerSuite) TestCreateItem() {
	s.ledger.On("CreateItem", mock.Anything, item.CreateParams{Creator: "u1", MetadataRef: "ipfs://x"}).Return(sample(), nil).Once()

	code, r := s.do(http.MethodPost, "/items", `{"creator":"u1","metadataRef":"ipfs://x"}`)
	s.Equal(http.StatusCreated, code)
	s.Equal("success", r.Status)

	got := item.Item{}
	s.Require().NoError(json.Unmarshal(r.Data, &got))
	s.Equal("a", got.Id)

	code, r = s.do(http.MethodPost, "/items", `{"creator":"has space"}`)
	s.Equal(http.StatusBadRequest, code)
	s.Equal("fail", r.Status)
}

func (s *handlerSuite) TestGetItem() {
	s.ledger.On("GetItem", mock.Anything, "a").Return(sample(), nil).Once()
	s.ledger.On("GetItem", mock.Anything, "b").Return(nil, domain.ErrNotFound).Once()
	s.ledger.On("GetItem", mock.Anything, "c").Return(nil, domain.ErrStoreUnavailable).Once()
	pending := sample()
	pending.Id = "d"
	pending.Dirty = true
	s.ledger.On("GetItem", mock.Anything, "d").Return(pending, nil).Once()

	code, r := s.do(http.MethodGet, "/items/a", "")
	s.Equal(http.StatusOK, code)
	s.NotContains(string(r.Data), `"dirty"`)
	code, r = s.do(http.MethodGet, "/items/d", "")
	s.Equal(http.StatusOK, code)
	got := item.Item{}
	s.Require().NoError(json.Unmarshal(r.Data, &got))
	s.True(got.Dirty)
	code, _ = s.do(http.MethodGet, "/items/b", "")
	s.Equal(http.StatusNotFound, code)
	code, _ = s.do(http.MethodGet, "/items/c", "")
	s.Equal(http.StatusServiceUnavailable, code)
}

func (s *handlerSuite) TestItemsByOwner() {
	s.ledger.On("ItemsByOwner", mock.Anything, "u1").Return([]*item.Item{sample()}, nil).Once()

	code, r := s.do(http.MethodGet, "/owners/u1/items", "")
	s.Equal(http.StatusOK, code)
	got := []item.Item{}
	s.Require().NoError(json.Unmarshal(r.Data, &got))
	s.Len(got, 1)
}

func (s *handlerSuite) TestListFixedPrice() {
	s.ledger.On("ListFixedPrice", mock.Anything, "a", item.MustPrice("2.5"), "u1").Return(sample(), nil).Once()
	s.ledger.On("ListFixedPrice", mock.Anything, "a", item.MustPrice("3"), "u2").Return(nil, domain.ErrNotOwner).Once()

	code, _ := s.do(http.MethodPost, "/items/a/listing", `{"price":"2.5","requester":"u1"}`)
	s.Equal(http.StatusOK, code)
	code, _ = s.do(http.MethodPost, "/items/a/listing", `{"price":"3","requester":"u2"}`)
	s.Equal(http.StatusForbidden, code)
	code, _ = s.do(http.MethodPost, "/items/a/listing", `{"price":"-1","requester":"u1"}`)
	s.Equal(http.StatusBadRequest, code)
}

func (s *handlerSuite) TestDelistAndCancel() {
	s.ledger.On("Delist", mock.Anything, "a", "u1").Return(sample(), nil).Once()
	s.ledger.On("CancelAuction", mock.Anything, "a", "u1").Return(nil, domain.ErrAuctionHasBids).Once()

	code, _ := s.do(http.MethodDelete, "/items/a/listing?requester=u1", "")
	s.Equal(http.StatusOK, code)
	code, _ = s.do(http.MethodDelete, "/items/a/auction?requester=u1", "")
	s.Equal(http.StatusConflict, code)
	code, _ = s.do(http.MethodDelete, "/items/a/listing", "")
	s.Equal(http.StatusBadRequest, code)
}

func (s *handlerSuite) TestStartAuction() {
	s.ledger.On("StartAuction", mock.Anything, "a", item.MustPrice("10"), time.Hour, "u1").Return(sample(), nil).Once()
	s.ledger.On("StartAuction", mock.Anything, "a", item.MustPrice("10"), time.Duration(0), "u1").Return(nil, domain.ErrInvalidDuration).Once()

	code, _ := s.do(http.MethodPost, "/items/a/auction", `{"startingPrice":"10","durationSeconds":3600,"requester":"u1"}`)
	s.Equal(http.StatusOK, code)
	code, _ = s.do(http.MethodPost, "/items/a/auction", `{"startingPrice":"10","requester":"u1"}`)
	s.Equal(http.StatusBadRequest, code)
}

func (s *handlerSuite) TestPlaceBidTooLow() {
	s.ledger.On("PlaceBid", mock.Anything, "a", "u3", item.MustPrice("11")).
		Return(nil, &domain.BidTooLowError{MinimumAcceptable: decimal.NewFromInt(12)}).Once()

	code, r := s.do(http.MethodPost, "/items/a/bids", `{"bidder":"u3","amount":"11"}`)
	s.Equal(http.StatusBadRequest, code)
	body := struct {
		MinimumAcceptable string `json:"minimumAcceptable"`
	}{}
	s.Require().NoError(json.Unmarshal(r.Data, &body))
	s.Equal("12", body.MinimumAcceptable)

	code, _ = s.do(http.MethodPost, "/items/a/bids", `{"bidder":"u3","amount":"eleven"}`)
	s.Equal(http.StatusBadRequest, code)
}

func (s *handlerSuite) TestSettleBuyTransfer() {
	s.ledger.On("SettleAuction", mock.Anything, "a").Return(sample(), nil).Once()
	s.ledger.On("BuyFixedPrice", mock.Anything, "a", "u2").Return(nil, domain.ErrVersionConflict).Once()
	s.ledger.On("TransferOwnership", mock.Anything, "a", "u1", "u2").Return(nil, domain.ErrAlreadyListed).Once()

	code, _ := s.do(http.MethodPost, "/items/a/settle", "")
	s.Equal(http.StatusOK, code)
	code, _ = s.do(http.MethodPost, "/items/a/buy", `{"buyer":"u2"}`)
	s.Equal(http.StatusConflict, code)
	code, _ = s.do(http.MethodPost, "/items/a/transfer", `{"from":"u1","to":"u2"}`)
	s.Equal(http.StatusConflict, code)
}

func (s *handlerSuite) TestReconcile() {
	s.ledger.On("Reconcile", mock.Anything).Return(item.ReconcileSummary{Promoted: 2}, nil).Once()
	s.ledger.On("Reconcile", mock.Anything).Return(item.ReconcileSummary{Remaining: 1}, domain.ErrStoreUnavailable).Once()

	code, r := s.do(http.MethodPost, "/admin/reconcile", "")
	s.Equal(http.StatusOK, code)
	sum := item.ReconcileSummary{}
	s.Require().NoError(json.Unmarshal(r.Data, &sum))
	s.Equal(2, sum.Promoted)

	code, _ = s.do(http.MethodPost, "/admin/reconcile", "")
	s.Equal(http.StatusServiceUnavailable, code)
}
