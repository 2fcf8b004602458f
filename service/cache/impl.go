package cache

import (
	"encoding/json"
	"errors"
	"hash/fnv"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/x-xyz/goledger/base/ctx"
	"github.com/x-xyz/goledger/base/log"
	"github.com/x-xyz/goledger/domain/keys"
)

// generation slots are shared by hash, a collision only skips a fill
const generationSlots = 1024

type impl[T any] struct {
	cfg   Config
	layer Layer
	group singleflight.Group
	// gens is bumped on every Set and Del of a key. A fill is stored only if the
	// generation of its key did not move while the getter ran.
	gens [generationSlots]uint64
}

func New[T any](cfg Config) Service[T] {
	if cfg.Codec == nil {
		cfg.Codec = &Codec{Marshal: json.Marshal, Unmarshal: json.Unmarshal}
	}
	var layer Layer
	if len(cfg.Layers) == 1 {
		layer = cfg.Layers[0]
	} else {
		layer = Layered(cfg.Layers...)
	}
	return &impl[T]{cfg: cfg, layer: layer}
}

func (im *impl[T]) key(k string) string {
	return keys.RedisKey(im.cfg.Pfx, k)
}

func (im *impl[T]) generation(key string) *uint64 {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &im.gens[h.Sum32()%generationSlots]
}

func (im *impl[T]) GetByFunc(c ctx.Ctx, key string, getter func() (*T, error)) (*T, error) {
	res, err := im.Get(c, key)
	if err == nil {
		return res, nil
	} else if !errors.Is(err, ErrNotFound) {
		c.WithFields(log.Fields{"err": err, "key": key}).Warn("cache get failed, falling back to getter")
	}

	// shared callers each decode their own copy of the loaded bytes
	v, err, _ := im.group.Do(key, func() (interface{}, error) {
		gen := im.generation(key)
		before := atomic.LoadUint64(gen)
		val, err := getter()
		if err != nil {
			return nil, err
		}
		raw, err := im.cfg.Codec.Marshal(val)
		if err != nil {
			return nil, err
		}
		im.fill(c, key, raw, gen, before)
		return raw, nil
	})
	if err != nil {
		return nil, err
	}
	res = new(T)
	if err := im.cfg.Codec.Unmarshal(v.([]byte), res); err != nil {
		return nil, err
	}
	return res, nil
}

// fill stores a loaded value unless the key was written or invalidated since the load started
func (im *impl[T]) fill(c ctx.Ctx, key string, raw []byte, gen *uint64, before uint64) {
	if atomic.LoadUint64(gen) != before {
		c.WithField("key", key).Debug("key changed during load, fill skipped")
		return
	}
	if err := im.layer.Set(c, im.key(key), raw, im.cfg.Ttl); err != nil {
		c.WithFields(log.Fields{"err": err, "key": key}).Warn("cache set failed")
		return
	}
	// a Set or Del that landed between the check and the store wins
	if atomic.LoadUint64(gen) != before {
		if err := im.layer.Del(c, im.key(key)); err != nil {
			c.WithFields(log.Fields{"err": err, "key": key}).Warn("cache del failed")
		}
	}
}

func (im *impl[T]) Get(c ctx.Ctx, key string) (*T, error) {
	key = im.key(key)
	raw, _, err := im.layer.Get(c, key)
	if err != nil {
		return nil, err
	}
	res := new(T)
	if err := im.cfg.Codec.Unmarshal(raw, res); err != nil {
		c.WithFields(log.Fields{"err": err, "key": key}).Error("unmarshal failed")
		return nil, err
	}
	return res, nil
}

func (im *impl[T]) Set(c ctx.Ctx, key string, value *T) error {
	atomic.AddUint64(im.generation(key), 1)
	raw, err := im.cfg.Codec.Marshal(value)
	if err != nil {
		c.WithFields(log.Fields{"err": err, "key": key}).Error("marshal failed")
		return err
	}
	return im.layer.Set(c, im.key(key), raw, im.cfg.Ttl)
}

func (im *impl[T]) Del(c ctx.Ctx, key string) error {
	atomic.AddUint64(im.generation(key), 1)
	return im.layer.Del(c, im.key(key))
}
