//go:build glpk

package glpk

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evsched/core/lp"
)

func TestSolveKnapsack(t *testing.T) {
	p := lp.NewProgram("knap")
	a := p.AddVar("a", lp.Binary, 0, 1)
	b := p.AddVar("b", lp.Binary, 0, 1)
	c := p.AddVar("c", lp.Binary, 0, 1)
	p.AddObjective(a, -5)
	p.AddObjective(b, -4)
	p.AddObjective(c, -3)
	p.AddConstraint(lp.Constraint{Name: "w", Terms: []lp.Term{{Var: a, Coef: 2}, {Var: b, Coef: 3}, {Var: c, Coef: 1}}, Sense: lp.LE, RHS: 3})

	sol, err := New(Config{Presolve: true}, nil).Solve(context.Background(), lp.Request{Program: p})
	require.NoError(t, err)
	require.Equal(t, lp.StatusOptimal, sol.Status)
	assert.InDelta(t, -8, *sol.Objective, 1e-9)
	assert.Equal(t, []float64{1, 0, 1}, sol.Values)
}

func TestSolveInfeasible(t *testing.T) {
	p := lp.NewProgram("bad")
	x := p.AddVar("x", lp.Continuous, 0, math.Inf(1))
	p.AddConstraint(lp.Constraint{Terms: []lp.Term{{Var: x, Coef: 1}}, Sense: lp.LE, RHS: -1})
	sol, err := New(Config{}, nil).Solve(context.Background(), lp.Request{Program: p})
	require.NoError(t, err)
	assert.Equal(t, lp.StatusInfeasible, sol.Status)
}

func TestMerge(t *testing.T) {
	got := merge([]lp.Term{{Var: 1, Coef: 1}, {Var: 2, Coef: 1}, {Var: 1, Coef: 2}})
	assert.Equal(t, []lp.Term{{Var: 1, Coef: 3}, {Var: 2, Coef: 1}}, got)
}
