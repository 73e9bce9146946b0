//go:build glpk

package solver

import (
	"github.com/kilianp07/evsched/core/factory"
	"github.com/kilianp07/evsched/core/lp"
	"github.com/kilianp07/evsched/infra/solver/glpk"
)

func init() {
	Registry.MustRegister("glpk", func(conf map[string]any) (lp.Solver, error) {
		var c glpk.Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return glpk.New(c, log), nil
	})
}
