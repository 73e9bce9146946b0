package cache

import (
	"time"

	"github.com/kilianp07/evsched/core/factory"
)

var registry = factory.NewRegistry[Cache]()

// MemoryConfig configures the memory backend.
type MemoryConfig struct {
	TTL        time.Duration `json:"ttl"`
	MaxEntries int           `json:"max_entries"`
}

func init() {
	registry.MustRegister("memory", func(conf map[string]any) (Cache, error) {
		var c MemoryConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewMemory(c.TTL, c.MaxEntries), nil
	})
}

// Register adds a cache backend factory.
func Register(name string, f factory.Factory[Cache]) error {
	return registry.Register(name, f)
}

// Types lists registered backends.
func Types() []string { return registry.Names() }

// New creates the configured backend; an empty type disables caching.
func New(cfg factory.ModuleConfig) (Cache, error) {
	if cfg.Type == "" {
		return Nop{}, nil
	}
	return registry.Create(cfg)
}
