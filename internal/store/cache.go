package store

import (
	"context"
	"fmt"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of entries Cached keeps when no size is set.
const DefaultCacheSize = 256

// Cached is a read-through LRU cache in front of another KV.
type Cached struct {
	next  KV
	cache *lru.Cache[string, []byte]
}

// NewCached wraps next with an LRU cache of size entries.
func NewCached(next KV, size int) (*Cached, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("creating cache: %w", err)
	}
	return &Cached{next: next, cache: cache}, nil
}

func cacheKey(bucket, key string) string {
	return bucket + "\x00" + key
}

func (c *Cached) Put(ctx context.Context, bucket, key string, value []byte) error {
	if err := c.next.Put(ctx, bucket, key, value); err != nil {
		c.cache.Remove(cacheKey(bucket, key))
		return err
	}
	c.cache.Add(cacheKey(bucket, key), slices.Clone(value))
	return nil
}

func (c *Cached) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if v, ok := c.cache.Get(cacheKey(bucket, key)); ok {
		return slices.Clone(v), nil
	}
	v, err := c.next.Get(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	c.cache.Add(cacheKey(bucket, key), slices.Clone(v))
	return v, nil
}

func (c *Cached) Delete(ctx context.Context, bucket, key string) error {
	c.cache.Remove(cacheKey(bucket, key))
	return c.next.Delete(ctx, bucket, key)
}

func (c *Cached) Keys(ctx context.Context, bucket string) ([]string, error) {
	return c.next.Keys(ctx, bucket)
}

// Len returns the number of cached entries.
func (c *Cached) Len() int {
	return c.cache.Len()
}

func (c *Cached) Close() error {
	c.cache.Purge()
	return c.next.Close()
}
