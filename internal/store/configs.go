package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ConfigBucket holds one form config per module.
const ConfigBucket = "form_config"

const configSuffix = "_form_config"

// ConfigKey is the storage key of a module's form config.
func ConfigKey(module string) string {
	return module + configSuffix
}

// ErrEmptyModule is returned when a config is addressed without a module.
var ErrEmptyModule = errors.New("module identifier is required")

// Configs stores form config snapshots keyed by module.
type Configs struct {
	kv KV
}

// NewConfigs creates a Configs repository on kv.
func NewConfigs(kv KV) *Configs {
	return &Configs{kv: kv}
}

// Save writes the snapshot of module.
func (c *Configs) Save(ctx context.Context, module string, s Snapshot) error {
	if module == "" {
		return ErrEmptyModule
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := c.kv.Put(ctx, ConfigBucket, ConfigKey(module), data); err != nil {
		return fmt.Errorf("saving config %s: %w", module, err)
	}
	return nil
}

// Load reads the snapshot of module. It returns ErrNotFound when none is saved.
func (c *Configs) Load(ctx context.Context, module string) (Snapshot, error) {
	if module == "" {
		return Snapshot{}, ErrEmptyModule
	}
	data, err := c.kv.Get(ctx, ConfigBucket, ConfigKey(module))
	if err != nil {
		return Snapshot{}, err
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decoding config %s: %w", module, err)
	}
	return s, nil
}

// Delete removes the snapshot of module.
func (c *Configs) Delete(ctx context.Context, module string) error {
	return c.kv.Delete(ctx, ConfigBucket, ConfigKey(module))
}

// Modules lists the modules that have a saved config.
func (c *Configs) Modules(ctx context.Context) ([]string, error) {
	keys, err := c.kv.Keys(ctx, ConfigBucket)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if m, ok := strings.CutSuffix(k, configSuffix); ok {
			out = append(out, m)
		}
	}
	return out, nil
}
