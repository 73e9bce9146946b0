package runlog

import (
	"errors"

	"github.com/kilianp07/evsched/core/factory"
)

var storeRegistry = factory.NewRegistry[Store]()

// FileConfig configures the file based backends.
type FileConfig struct {
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

func (c FileConfig) withDefaults() FileConfig {
	if c.Path == "" {
		c.Path = "runs.jsonl"
	}
	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = 10
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = 5
	}
	if c.MaxAgeDays == 0 {
		c.MaxAgeDays = 30
	}
	return c
}

func init() {
	storeRegistry.MustRegister("memory", func(map[string]any) (Store, error) {
		return NewMemoryStore(), nil
	})
	storeRegistry.MustRegister("jsonl", func(conf map[string]any) (Store, error) {
		var c FileConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewJSONLStore(c.withDefaults().Path)
	})
	storeRegistry.MustRegister("rotating", func(conf map[string]any) (Store, error) {
		var c FileConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		c = c.withDefaults()
		return NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
	})
	storeRegistry.MustRegister("sqlite", func(conf map[string]any) (Store, error) {
		var c FileConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			return nil, errors.New("sqlite run log needs a path")
		}
		return NewSQLiteStore(c.Path)
	})
}

// RegisterStore adds a store factory identified by name.
func RegisterStore(name string, f factory.Factory[Store]) error {
	return storeRegistry.Register(name, f)
}

// StoreTypes lists registered store types.
func StoreTypes() []string { return storeRegistry.Names() }

// NewStore creates the store described by cfg. An empty type yields a
// MemoryStore.
func NewStore(cfg factory.ModuleConfig) (Store, error) {
	if cfg.Type == "" {
		return NewMemoryStore(), nil
	}
	return storeRegistry.Create(cfg)
}
