package mongoclient

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type clientSuite struct {
	suite.Suite
	uri string
}

func TestClientSuite(t *testing.T) {
	uri := os.Getenv("LEDGER_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("LEDGER_TEST_MONGO_URI not set")
	}
	suite.Run(t, &clientSuite{uri: uri})
}

func (s *clientSuite) TestConnectAndPing() {
	cli, err := ConnectMongoClient(Config{URI: s.uri, AuthDBName: "admin", DBName: "ledger_test", PoolMultiplier: 1})
	s.Require().NoError(err)
	defer cli.Disconnect(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.NoError(cli.Ping(ctx))
	s.Equal("ledger_test", cli.DbName)
}

func TestConnectBadURI(t *testing.T) {
	_, err := ConnectMongoClient(Config{URI: "not-a-uri", DBName: "ledger_test"})
	if err == nil {
		t.Fatal("expected a parse error")
	}
}
