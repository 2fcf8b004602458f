package query

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/x-xyz/goledger/base/ctx"
	"github.com/x-xyz/goledger/base/database/mongoclient"
	"github.com/x-xyz/goledger/base/metrics"
	"github.com/x-xyz/goledger/domain"
)

var (
	mockCTX = ctx.Background()
)

const (
	mockTable = domain.Table("query_test")
	dbName    = "ledger_test"
)

type dummy struct {
	Id      string `bson:"_id"`
	Owner   string `bson:"owner"`
	Version int64  `bson:"version"`
}

func TestSortOption(t *testing.T) {
	s := getSortOption("owner", "", "-version")
	if len(s) != 2 || s[0].Key != "owner" || s[0].Value != 1 || s[1].Key != "version" || s[1].Value != -1 {
		t.Fatalf("unexpected sort option %v", s)
	}
}

func TestSlowLog(t *testing.T) {
	defer func(f func() time.Time) { timeNow = f }(timeNow)
	now := time.Now()
	timeNow = func() time.Time { return now }
	done := slowLog(mockCTX, "t", "find", bson.M{"a": 1}, nil)
	now = now.Add(time.Second)
	done()
}

type querySuite struct {
	suite.Suite
	im       *impl
	mongoURI string
}

func TestQuerySuite(t *testing.T) {
	uri := os.Getenv("LEDGER_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("LEDGER_TEST_MONGO_URI not set")
	}
	suite.Run(t, &querySuite{mongoURI: uri})
}

func (q *querySuite) SetupTest() {
	q.im = &impl{
		client: mongoclient.MustConnectMongoClient(mongoclient.Config{
			URI:            q.mongoURI,
			AuthDBName:     "admin",
			DBName:         dbName,
			SetSafe:        true,
			PoolMultiplier: 1,
		}),
		met: metrics.NewLog("mongo"),
	}
	q.Require().NoError(q.im.coll(mockTable).Drop(mockCTX))
}

func (q *querySuite) TearDownTest() {
	q.Require().NoError(q.im.client.Disconnect(mockCTX))
}

func (q *querySuite) TestInsertFindOne() {
	q.Require().NoError(q.im.Insert(mockCTX, mockTable, dummy{Id: "a", Owner: "u1"}))
	q.Equal(ErrDuplicateKey, q.im.Insert(mockCTX, mockTable, dummy{Id: "a", Owner: "u2"}))

	res := dummy{}
	q.Require().NoError(q.im.FindOne(mockCTX, mockTable, bson.M{"_id": "a"}, &res))
	q.Equal("u1", res.Owner)

	q.Equal(ErrNotFound, q.im.FindOne(mockCTX, mockTable, bson.M{"_id": "missing"}, &res))
}

func (q *querySuite) TestReplaceGuardedByVersion() {
	q.Require().NoError(q.im.Insert(mockCTX, mockTable, dummy{Id: "a", Owner: "u1", Version: 0}))

	q.NoError(q.im.Replace(mockCTX, mockTable, bson.M{"_id": "a", "version": 0}, dummy{Id: "a", Owner: "u2", Version: 1}))
	q.Equal(ErrNotFound, q.im.Replace(mockCTX, mockTable, bson.M{"_id": "a", "version": 0}, dummy{Id: "a", Owner: "u3", Version: 1}))

	res := dummy{}
	q.Require().NoError(q.im.FindOne(mockCTX, mockTable, bson.M{"_id": "a"}, &res))
	q.Equal("u2", res.Owner)
	q.Equal(int64(1), res.Version)
}

func (q *querySuite) TestSearchAndIndexes() {
	q.Require().NoError(q.im.EnsureIndexes(mockCTX, mockTable, []Index{{Keys: []string{"owner"}}}))
	for _, d := range []dummy{{Id: "b", Owner: "u1"}, {Id: "a", Owner: "u1"}, {Id: "c", Owner: "u2"}} {
		q.Require().NoError(q.im.Insert(mockCTX, mockTable, d))
	}

	res := []dummy{}
	q.Require().NoError(q.im.Search(mockCTX, mockTable, 0, 0, "_id", bson.M{"owner": "u1"}, &res))
	q.Require().Len(res, 2)
	q.Equal("a", res[0].Id)
	q.Equal("b", res[1].Id)

	q.NoError(q.im.Ping(mockCTX))
}
