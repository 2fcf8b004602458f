package query

/*
	Package `query` wraps https://github.com/mongodb/mongo-go-driver with the
	handful of operations the ledger needs: inserts, lookups, guarded replaces
	and index setup. Every call logs slow queries and maps driver errors onto
	ErrNotFound / ErrDuplicateKey.
*/

import (
	"fmt"

	"github.com/x-xyz/goledger/base/ctx"
	"github.com/x-xyz/goledger/domain"
)

var (
	// ErrNotFound is mongo document not found error
	ErrNotFound = fmt.Errorf("document not found")

	// ErrDuplicateKey is an error when violating unique index
	ErrDuplicateKey = fmt.Errorf("duplicate key")

	// ErrCollScan is error for unindexed query
	ErrCollScan = fmt.Errorf("COLLSCAN is not allowed")
)

// Index is one index definition. Keys are field names, a leading "-" means descending.
type Index struct {
	Keys   []string
	Unique bool
}

// Mongo abstract the mongo layer.
type Mongo interface {
	// Insert inserts a new document to the table
	// Return ErrDuplicateKey if a unique index rejects it
	Insert(context ctx.Ctx, table domain.Table, insert interface{}) error

	// FindOne get data from the table
	// Return ErrNotFound if query does not match any documents
	FindOne(context ctx.Ctx, table domain.Table, query, result interface{}) error

	// Search sort order by `sort` argument (ex "timestamp" ascending, or "-timestamp" descending)
	// limit 0 means no limit.
	Search(context ctx.Ctx, table domain.Table, offset, limit int, sort string, query, results interface{}) error

	// Replace swaps the whole document matched by selector
	// Return ErrNotFound if selector does not match any documents
	Replace(context ctx.Ctx, table domain.Table, selector, replacement interface{}) error

	// EnsureIndexes creates the indexes that do not exist yet
	EnsureIndexes(context ctx.Ctx, table domain.Table, indexes []Index) error

	// Ping checks that the primary answers
	Ping(context ctx.Ctx) error
}
