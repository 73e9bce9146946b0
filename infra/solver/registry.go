// Package solver builds lp.Solver backends from configuration.
package solver

import (
	"github.com/kilianp07/evsched/core/factory"
	"github.com/kilianp07/evsched/core/logger"
	"github.com/kilianp07/evsched/core/lp"
	"github.com/kilianp07/evsched/infra/solver/cbc"
	"github.com/kilianp07/evsched/infra/solver/relax"
)

// Registry holds the available backends. Each factory receives the
// backend's raw options.
var Registry = factory.NewRegistry[lp.Solver]()

// log is handed to backends created through the registry.
var log logger.Logger = logger.Nop{}

// SetLogger sets the logger passed to backends created afterwards.
func SetLogger(l logger.Logger) { log = logger.OrNop(l) }

func init() {
	Registry.MustRegister("cbc", func(conf map[string]any) (lp.Solver, error) {
		var c cbc.Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return cbc.New(c, log), nil
	})
	Registry.MustRegister("relax", func(conf map[string]any) (lp.Solver, error) {
		var c relax.Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return relax.New(c, log), nil
	})
}

// New creates the backend named by cfg.Type.
func New(cfg factory.ModuleConfig) (lp.Solver, error) {
	return Registry.Create(cfg)
}
