// Package keys builds the redis keys and channels used by the ledger
package keys

import (
	"strings"
)

const (
	sep = ":"

	PfxHealthCheck  = "healthcheck"
	PfxItem         = "item"
	PfxLedgerEvents = "ledger"
)

// RedisKey joins components with ":", e.g. RedisKey(PfxItem, id) is item:<id>
func RedisKey(components ...string) string {
	return strings.Join(components, sep)
}

// GetPrefix returns the first two components of a key with three or more,
// the first component of a two part key, and "" otherwise. It bounds the
// cardinality of metric tags derived from keys.
func GetPrefix(key string) string {
	first := strings.Index(key, sep)
	if first < 0 {
		return ""
	}
	second := strings.Index(key[first+1:], sep)
	if second < 0 {
		return key[:first]
	}
	return key[:first+1+second]
}
