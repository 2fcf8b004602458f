package cache

import (
	"errors"
	"time"

	"github.com/x-xyz/goledger/base/ctx"
)

type layered []Layer

// Layered stacks layers, nearest first. Get returns on the first hit and
// back-fills the layers in front of it with the remaining ttl.
func Layered(layers ...Layer) Layer {
	return layered(layers)
}

func (ls layered) Get(c ctx.Ctx, key string) ([]byte, time.Duration, error) {
	for idx, lyr := range ls {
		val, ttl, err := lyr.Get(c, key)
		if errors.Is(err, ErrNotFound) {
			continue
		} else if err != nil {
			return nil, 0, err
		}
		for _, front := range ls[:idx] {
			if err := front.Set(c, key, val, ttl); err != nil {
				return nil, 0, err
			}
		}
		return val, ttl, nil
	}
	return nil, 0, ErrNotFound
}

func (ls layered) Set(c ctx.Ctx, key string, value []byte, ttl time.Duration) error {
	for _, lyr := range ls {
		if err := lyr.Set(c, key, value, ttl); err != nil {
			return err
		}
	}
	return nil
}

// Del visits every layer so a failing remote layer does not leave the local one stale
func (ls layered) Del(c ctx.Ctx, key string) error {
	var first error
	for _, lyr := range ls {
		if err := lyr.Del(c, key); err != nil && first == nil {
			first = err
		}
	}
	return first
}
