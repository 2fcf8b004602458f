package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedisKey(t *testing.T) {
	assert.Equal(t, "item:abc", RedisKey(PfxItem, "abc"))
	assert.Equal(t, "ledger:items", RedisKey(PfxLedgerEvents, "items"))
}

func TestGetPrefix(t *testing.T) {
	cases := map[string]string{
		"plain":             "",
		"item:abc":          "item",
		"ledger:items:sold": "ledger:items",
		"a:b:c:d":           "a:b",
	}
	for key, exp := range cases {
		assert.Equal(t, exp, GetPrefix(key), key)
	}
}
