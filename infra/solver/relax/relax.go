// Package relax solves the linear relaxation of a program with gonum's
// simplex implementation. Integrality is dropped, so the reported objective
// is a lower bound on the mixed-integer optimum. It is meant for small
// instances and for environments without an external solver.
package relax

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	gonumlp "gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/kilianp07/evsched/core/logger"
	"github.com/kilianp07/evsched/core/lp"
)

const (
	eps = 1e-9
	// maxDenseCells caps the dense constraint matrix handed to the simplex.
	maxDenseCells = 20_000_000
)

// ErrTooLarge is returned when the reduced problem does not fit the dense
// simplex.
var ErrTooLarge = errors.New("relaxation too large for dense simplex")

// errInfeasible is raised by presolve when bounds or empty rows conflict.
var errInfeasible = errors.New("presolve: infeasible")

// simplex points to the LP routine. Tests override it to simulate failures.
var simplex = gonumlp.Simplex

// Config holds the adapter settings.
type Config struct {
	Tolerance float64 `json:"tolerance"`
}

// Solver implements lp.Solver.
type Solver struct {
	tol float64
	log logger.Logger
}

// New returns a relaxation solver.
func New(cfg Config, log logger.Logger) *Solver {
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = 1e-7
	}
	return &Solver{tol: cfg.Tolerance, log: logger.OrNop(log)}
}

func (s *Solver) Name() string { return "relax" }

// Solve computes the relaxation optimum. The time limit is not enforced by
// the simplex routine.
func (s *Solver) Solve(ctx context.Context, req lp.Request) (*lp.Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := req.Program
	pre, err := presolve(p)
	if errors.Is(err, errInfeasible) {
		s.log.Debugf("relax: %v", err)
		return &lp.Solution{Status: lp.StatusInfeasible, Relaxation: true}, nil
	}
	if err != nil {
		return nil, err
	}
	if pre.unbounded {
		return &lp.Solution{Status: lp.StatusUnbounded, Relaxation: true}, nil
	}

	values := pre.values
	if len(pre.cols) > 0 {
		c, A, b, err := pre.standardForm(p)
		if err != nil {
			return nil, err
		}
		s.log.Debugw("relax: simplex", map[string]any{"rows": len(b), "cols": len(c), "fixed": len(p.Vars) - len(pre.cols)})
		_, x, err := simplex(c, A, b, s.tol, nil)
		switch {
		case errors.Is(err, gonumlp.ErrInfeasible):
			return &lp.Solution{Status: lp.StatusInfeasible, Relaxation: true}, nil
		case errors.Is(err, gonumlp.ErrUnbounded):
			return &lp.Solution{Status: lp.StatusUnbounded, Relaxation: true}, nil
		case err != nil:
			s.log.Warnf("relax: simplex failed: %v", err)
			return &lp.Solution{Status: lp.StatusNotSolved, Relaxation: true}, nil
		}
		for k, j := range pre.cols {
			values[j] = x[k] + pre.lo[j]
		}
	}

	sol := lp.NewSolution(p, lp.StatusOptimal)
	sol.Relaxation = true
	for j, v := range values {
		sol.Set(lp.VarID(j), v)
	}
	obj := p.Evaluate(values)
	sol.Objective = &obj
	return sol, nil
}

type presolved struct {
	lo, up    []float64
	fixed     []bool
	values    []float64
	rowAlive  []bool
	cols      []int
	unbounded bool
}

// presolve tightens bounds from single-variable rows, fixes variables whose
// bounds meet and drops rows left with no free variable. It iterates until
// nothing changes.
func presolve(p *lp.Program) (*presolved, error) {
	n := len(p.Vars)
	pre := &presolved{
		lo:       make([]float64, n),
		up:       make([]float64, n),
		fixed:    make([]bool, n),
		values:   make([]float64, n),
		rowAlive: make([]bool, len(p.Constraints)),
	}
	for j, v := range p.Vars {
		if math.IsInf(v.Lower, -1) {
			return nil, fmt.Errorf("relax: variable %s has no lower bound", v.Name)
		}
		pre.lo[j], pre.up[j] = v.Lower, v.Upper
	}
	for k := range pre.rowAlive {
		pre.rowAlive[k] = true
	}

	for changed := true; changed; {
		changed = false
		for k, c := range p.Constraints {
			if !pre.rowAlive[k] {
				continue
			}
			rhs := c.RHS
			var free []lp.Term
			for _, t := range c.Terms {
				if t.Coef == 0 {
					continue
				}
				if pre.fixed[t.Var] {
					rhs -= t.Coef * pre.values[t.Var]
				} else {
					free = append(free, t)
				}
			}
			switch len(free) {
			case 0:
				if !(lp.Constraint{Sense: c.Sense, RHS: rhs}).Satisfied(nil, 1e-7) {
					return nil, fmt.Errorf("%w: row %s", errInfeasible, c.Name)
				}
			case 1:
				if err := pre.tighten(p, free[0], c.Sense, rhs); err != nil {
					return nil, err
				}
			default:
				continue
			}
			pre.rowAlive[k] = false
			changed = true
		}
	}

	used := make([]bool, n)
	for k, c := range p.Constraints {
		if !pre.rowAlive[k] {
			continue
		}
		for _, t := range c.Terms {
			if t.Coef != 0 && !pre.fixed[t.Var] {
				used[t.Var] = true
			}
		}
	}
	for j := 0; j < n; j++ {
		switch {
		case pre.fixed[j]:
		case used[j]:
			pre.cols = append(pre.cols, j)
		case p.Objective[j] < 0:
			if math.IsInf(pre.up[j], 1) {
				pre.unbounded = true
			}
			pre.values[j] = pre.up[j]
		default:
			pre.values[j] = pre.lo[j]
		}
	}
	return pre, nil
}

func (pre *presolved) tighten(p *lp.Program, t lp.Term, sense lp.Sense, rhs float64) error {
	j := t.Var
	bound := rhs / t.Coef
	if t.Coef < 0 && sense != lp.EQ {
		if sense == lp.LE {
			sense = lp.GE
		} else {
			sense = lp.LE
		}
	}
	switch sense {
	case lp.EQ:
		pre.lo[j] = math.Max(pre.lo[j], bound)
		pre.up[j] = math.Min(pre.up[j], bound)
	case lp.LE:
		pre.up[j] = math.Min(pre.up[j], bound)
	case lp.GE:
		pre.lo[j] = math.Max(pre.lo[j], bound)
	}
	if pre.lo[j] > pre.up[j]+1e-7 {
		return fmt.Errorf("%w: bounds of %s cross", errInfeasible, p.Vars[j].Name)
	}
	if pre.up[j]-pre.lo[j] <= eps {
		pre.fixed[j] = true
		pre.values[j] = pre.lo[j]
	}
	return nil
}

// standardForm builds min cᵀx s.t. Ax = b, x ≥ 0 over the kept columns
// shifted by their lower bounds, with one slack per inequality and per
// finite upper bound.
func (pre *presolved) standardForm(p *lp.Program) ([]float64, *mat.Dense, []float64, error) {
	colOf := make(map[int]int, len(pre.cols))
	for k, j := range pre.cols {
		colOf[j] = k
	}
	type row struct {
		coefs map[int]float64
		slack float64
		rhs   float64
	}
	var rows []row
	for k, c := range p.Constraints {
		if !pre.rowAlive[k] {
			continue
		}
		r := row{coefs: make(map[int]float64), rhs: c.RHS}
		for _, t := range c.Terms {
			if pre.fixed[t.Var] {
				r.rhs -= t.Coef * pre.values[t.Var]
				continue
			}
			r.coefs[colOf[int(t.Var)]] += t.Coef
			r.rhs -= t.Coef * pre.lo[t.Var]
		}
		switch c.Sense {
		case lp.LE:
			r.slack = 1
		case lp.GE:
			r.slack = -1
		}
		rows = append(rows, r)
	}
	for k, j := range pre.cols {
		if math.IsInf(pre.up[j], 1) {
			continue
		}
		rows = append(rows, row{coefs: map[int]float64{k: 1}, slack: 1, rhs: pre.up[j] - pre.lo[j]})
	}

	nSlack := 0
	for _, r := range rows {
		if r.slack != 0 {
			nSlack++
		}
	}
	nCols := len(pre.cols) + nSlack
	if len(rows)*nCols > maxDenseCells {
		return nil, nil, nil, fmt.Errorf("%w: %d x %d", ErrTooLarge, len(rows), nCols)
	}

	A := mat.NewDense(len(rows), nCols, nil)
	b := make([]float64, len(rows))
	s := len(pre.cols)
	for i, r := range rows {
		sign := 1.0
		if r.rhs < 0 {
			sign = -1
		}
		for k, v := range r.coefs {
			A.Set(i, k, sign*v)
		}
		if r.slack != 0 {
			A.Set(i, s, sign*r.slack)
			s++
		}
		b[i] = sign * r.rhs
	}
	c := make([]float64, nCols)
	for k, j := range pre.cols {
		c[k] = p.Objective[j]
	}
	return c, A, b, nil
}
