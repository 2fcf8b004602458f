package repository

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/xerrors"

	"github.com/x-xyz/goledger/base/ctx"
	"github.com/x-xyz/goledger/base/log"
	"github.com/x-xyz/goledger/domain"
	"github.com/x-xyz/goledger/domain/item"
	"github.com/x-xyz/goledger/domain/keys"
	"github.com/x-xyz/goledger/service/cache"
	"github.com/x-xyz/goledger/service/query"
	"github.com/x-xyz/goledger/service/redis"
)

// ItemIndexes are the indexes the items collection relies on
var ItemIndexes = []query.Index{
	{Keys: []string{"owner"}},
}

type itemImpl struct {
	q         query.Mongo
	itemCache cache.Service[item.Item]
}

// ItemRepoCfg configures the durable item store
type ItemRepoCfg struct {
	Mongo query.Mongo
	// Redis adds a shared cache layer behind the in-process one, optional
	Redis       redis.Service
	LocalTtl    time.Duration
	RemoteTtl   time.Duration
	LocalSizeMB int
}

func NewItem(cfg *ItemRepoCfg) item.Repo {
	localTtl := cfg.LocalTtl
	if localTtl <= 0 {
		localTtl = 10 * time.Second
	}
	remoteTtl := cfg.RemoteTtl
	if remoteTtl <= 0 {
		remoteTtl = 10 * time.Minute
	}
	sizeMB := cfg.LocalSizeMB
	if sizeMB <= 0 {
		sizeMB = 64
	}

	layers := []cache.Layer{cache.NewLocal(keys.PfxItem, sizeMB)}
	ttl := localTtl
	if cfg.Redis != nil {
		layers = append(layers, cache.NewRedis(cfg.Redis))
		ttl = remoteTtl
	}

	return &itemImpl{
		q: cfg.Mongo,
		itemCache: cache.New[item.Item](cache.Config{
			Ttl:    ttl,
			Pfx:    keys.PfxItem,
			Layers: layers,
		}),
	}
}

func (im *itemImpl) Get(c ctx.Ctx, id string) (*item.Item, error) {
	return im.itemCache.GetByFunc(c, id, func() (*item.Item, error) {
		return im.findOne(c, id)
	})
}

func (im *itemImpl) findOne(c ctx.Ctx, id string) (*item.Item, error) {
	res := &item.Item{}
	if err := im.q.FindOne(c, domain.TableItems, bson.M{"_id": id}, res); errors.Is(err, query.ErrNotFound) {
		return nil, domain.ErrNotFound
	} else if err != nil {
		return nil, xerrors.Errorf("find item %s: %w", id, err)
	}
	return res, nil
}

func (im *itemImpl) Create(c ctx.Ctx, it *item.Item) error {
	if err := im.q.Insert(c, domain.TableItems, it); errors.Is(err, query.ErrDuplicateKey) {
		return domain.ErrDuplicateId
	} else if err != nil {
		return xerrors.Errorf("insert item %s: %w", it.Id, err)
	}
	im.writeThrough(c, it)
	return nil
}

func (im *itemImpl) Put(c ctx.Ctx, it *item.Item, expectedVersion int64) error {
	if expectedVersion == item.NoVersion {
		if err := im.q.Insert(c, domain.TableItems, it); errors.Is(err, query.ErrDuplicateKey) {
			im.invalidate(c, it.Id)
			return domain.ErrVersionConflict
		} else if err != nil {
			im.invalidate(c, it.Id)
			return xerrors.Errorf("insert item %s: %w", it.Id, err)
		}
		im.writeThrough(c, it)
		return nil
	}

	selector := bson.M{"_id": it.Id, "version": expectedVersion}
	if err := im.q.Replace(c, domain.TableItems, selector, it); errors.Is(err, query.ErrNotFound) {
		// a missed guard may mean our cached copy is stale
		im.invalidate(c, it.Id)
		return domain.ErrVersionConflict
	} else if err != nil {
		im.invalidate(c, it.Id)
		return xerrors.Errorf("replace item %s: %w", it.Id, err)
	}
	im.writeThrough(c, it)
	return nil
}

func (im *itemImpl) ScanByOwner(c ctx.Ctx, owner string) ([]*item.Item, error) {
	res := []*item.Item{}
	if err := im.q.Search(c, domain.TableItems, 0, 0, "_id", bson.M{"owner": owner}, &res); err != nil {
		c.WithFields(log.Fields{"err": err, "owner": owner}).Error("q.Search failed")
		return nil, xerrors.Errorf("scan items of %s: %w", owner, err)
	}
	return res, nil
}

func (im *itemImpl) Ping(c ctx.Ctx) error {
	return im.q.Ping(c)
}

// writeThrough caches the record just written, falling back to dropping the key
func (im *itemImpl) writeThrough(c ctx.Ctx, it *item.Item) {
	cp := it.Clone()
	cp.Dirty = false
	if err := im.itemCache.Set(c, it.Id, cp); err != nil {
		c.WithFields(log.Fields{"err": err, "id": it.Id}).Warn("itemCache.Set failed")
		im.invalidate(c, it.Id)
	}
}

func (im *itemImpl) invalidate(c ctx.Ctx, id string) {
	if err := im.itemCache.Del(c, id); err != nil {
		c.WithFields(log.Fields{"err": err, "id": id}).Warn("itemCache.Del failed")
	}
}
