package query

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/x-xyz/goledger/base/ctx"
	"github.com/x-xyz/goledger/base/database/mongoclient"
	"github.com/x-xyz/goledger/base/log"
	"github.com/x-xyz/goledger/base/metrics"
	"github.com/x-xyz/goledger/domain"
)

const (
	queryMaxTime       = 20 * time.Second
	slowQueryThreshold = 500 * time.Millisecond
)

var (
	timeNow = time.Now
)

type impl struct {
	client     *mongoclient.Client
	checkIndex bool
	met        metrics.Service
}

// New initializes an impl. checkIndex rejects queries the planner would answer with a COLLSCAN.
func New(client *mongoclient.Client, checkIndex bool) Mongo {
	return &impl{
		client:     client,
		checkIndex: checkIndex,
		met:        metrics.New("mongo"),
	}
}

func (im *impl) coll(table domain.Table) *mongo.Collection {
	return im.client.Database(im.client.DbName).Collection(string(table))
}

// observe tags context with the call and returns a func that records its
// latency and logs it when slow
func (im *impl) observe(context ctx.Ctx, table domain.Table, action string, query, sort interface{}) (ctx.Ctx, func()) {
	tracker := im.met.BumpTime("time", "func", action, "table", string(table))
	slow := slowLog(context, string(table), action, query, sort)
	context = ctx.WithValue(context, "table", table)
	if query != nil {
		context = ctx.WithValue(context, "query", query)
	}
	return context, func() {
		slow()
		tracker.End()
	}
}

func (im *impl) logerr(context ctx.Ctx, table domain.Table, msg string, err error) {
	im.met.BumpSum("err", 1, "table", string(table))
	context.WithFields(log.Fields{"err": err}).Error(msg)
}

func (im *impl) Insert(context ctx.Ctx, table domain.Table, insert interface{}) error {
	context, done := im.observe(context, table, "insert", nil, nil)
	defer done()

	if _, err := im.coll(table).InsertOne(context, insert); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		im.logerr(context, table, "Insert: InsertOne failed", err)
		return err
	}
	return nil
}

func (im *impl) FindOne(context ctx.Ctx, table domain.Table, query, result interface{}) error {
	context, done := im.observe(context, table, "findone", query, nil)
	defer done()

	if err := im.checkQueryIndex(context, table, query); err != nil {
		return err
	}

	findOneOpts := options.FindOne().SetMaxTime(queryMaxTime)
	if err := im.coll(table).FindOne(context, query, findOneOpts).Decode(result); err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrNotFound
		}
		im.logerr(context, table, "FindOne: FindOne error", err)
		return err
	}
	return nil
}

func getSortOption(sortStrings ...string) bson.D {
	res := bson.D{}
	for _, sort := range sortStrings {
		if sort == "" {
			continue
		}
		if sort[0] == '-' {
			res = append(res, bson.E{Key: sort[1:], Value: -1})
		} else {
			res = append(res, bson.E{Key: sort, Value: 1})
		}
	}
	return res
}

func (im *impl) Search(context ctx.Ctx, table domain.Table, offset, limit int, sort string, query, results interface{}) error {
	context, done := im.observe(context, table, "search", query, sort)
	defer done()

	if err := im.checkQueryIndex(context, table, query); err != nil {
		return err
	}

	findOpts := options.Find().SetMaxTime(queryMaxTime).SetSkip(int64(offset))
	if limit > 0 {
		findOpts.SetLimit(int64(limit))
	}
	if sortOpt := getSortOption(sort); len(sortOpt) > 0 {
		findOpts.SetSort(sortOpt)
	}
	cursor, err := im.coll(table).Find(context, query, findOpts)
	if err != nil {
		im.logerr(context, table, "Search: Find failed", err)
		return err
	}
	defer cursor.Close(context)

	if err := cursor.All(context, results); err != nil {
		im.logerr(context, table, "Search: cursor.All failed", err)
		return err
	}
	return nil
}

func (im *impl) Replace(context ctx.Ctx, table domain.Table, selector, replacement interface{}) error {
	context, done := im.observe(context, table, "replace", selector, nil)
	defer done()

	res, err := im.coll(table).ReplaceOne(context, selector, replacement)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		im.logerr(context, table, "Replace: ReplaceOne failed", err)
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (im *impl) EnsureIndexes(context ctx.Ctx, table domain.Table, indexes []Index) error {
	models := make([]mongo.IndexModel, 0, len(indexes))
	for _, idx := range indexes {
		models = append(models, mongo.IndexModel{
			Keys:    getSortOption(idx.Keys...),
			Options: options.Index().SetUnique(idx.Unique),
		})
	}
	if len(models) == 0 {
		return nil
	}

	names, err := im.coll(table).Indexes().CreateMany(context, models)
	if err != nil {
		im.logerr(ctx.WithValue(context, "table", table), table, "EnsureIndexes: CreateMany failed", err)
		return err
	}
	context.WithFields(log.Fields{"table": table, "indexes": names}).Info("indexes ensured")
	return nil
}

func (im *impl) Ping(context ctx.Ctx) error {
	defer im.met.BumpTime("time", "func", "ping").End()
	return im.client.Ping(context)
}

func slowLog(context ctx.Ctx, table, action string, query interface{}, sort interface{}) func() {
	start := timeNow()

	return func() {
		elapsed := timeNow().Sub(start)
		if elapsed >= slowQueryThreshold {
			context.WithFields(log.Fields{
				"table":      table,
				"action":     action,
				"startTime":  start.Unix(),
				"durationMs": elapsed.Milliseconds(),
				"query":      query,
				"sort":       sort,
			}).Warn("mongo slowlog")
		}
	}
}

// checkQueryIndex explains a find on query and rejects it when the plan scans the collection
func (im *impl) checkQueryIndex(context ctx.Ctx, table domain.Table, query interface{}) error {
	if !im.checkIndex {
		return nil
	}
	// reference: https://docs.mongodb.com/manual/reference/command/explain/
	res := im.client.Database(im.client.DbName).RunCommand(context, bson.D{
		bson.E{
			Key: "explain",
			Value: bson.D{
				bson.E{Key: "find", Value: string(table)},
				bson.E{Key: "filter", Value: query},
			},
		},
		bson.E{
			Key:   "verbosity",
			Value: "queryPlanner",
		},
	})

	var m bson.M
	if err := res.Decode(&m); err != nil {
		context.WithField("err", err).Warn("checkQueryIndex decode failed")
		return nil
	}

	// explain output differs between server versions, only the stage name is stable
	if strings.Contains(fmt.Sprintf("%v", m), "COLLSCAN") {
		im.logerr(context, table, "query rejected by index check", ErrCollScan)
		return ErrCollScan
	}
	return nil
}
