package store

import (
	"context"
	"fmt"

	"github.com/matthewbaird/formbuilder/internal/config"
)

// Open creates the KV selected by cfg. Persistent backends are wrapped in an
// LRU read cache.
func Open(ctx context.Context, cfg config.StoreConfig) (KV, error) {
	var (
		kv  KV
		err error
	)
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryKV(), nil
	case "bolt":
		kv, err = OpenBolt(cfg.Path)
	case "sqlite":
		kv, err = OpenSQLite(ctx, cfg.Path)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	cached, err := NewCached(kv, cfg.CacheSize)
	if err != nil {
		kv.Close()
		return nil, err
	}
	return cached, nil
}
