//go:build glpk

// Package glpk solves programs in-process with the GLPK library through
// github.com/lukpank/go-glpk. It requires cgo and libglpk, so it is only
// compiled with the glpk build tag.
package glpk

import (
	"context"
	"math"

	glpk "github.com/lukpank/go-glpk/glpk"

	"github.com/kilianp07/evsched/core/logger"
	"github.com/kilianp07/evsched/core/lp"
)

// Config holds the adapter settings.
type Config struct {
	Presolve bool `json:"presolve"`
}

// Solver implements lp.Solver.
type Solver struct {
	cfg Config
	log logger.Logger
}

// New returns a GLPK solver.
func New(cfg Config, log logger.Logger) *Solver {
	return &Solver{cfg: cfg, log: logger.OrNop(log)}
}

func (s *Solver) Name() string { return "glpk" }

// Solve runs simplex followed by branch and cut. The wrapper exposes no time
// limit, so req.TimeLimit is only logged.
func (s *Solver) Solve(ctx context.Context, req lp.Request) (*lp.Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.TimeLimit > 0 {
		s.log.Warnf("glpk: time limit %s cannot be enforced", req.TimeLimit)
	}
	p := req.Program
	prob := glpk.New()
	defer prob.Delete()
	prob.SetProbName(p.Name)
	prob.SetObjDir(glpk.ObjDir(glpk.MIN))

	prob.AddCols(len(p.Vars))
	for j, v := range p.Vars {
		col := j + 1
		prob.SetColName(col, v.Name)
		switch v.Kind {
		case lp.Binary:
			prob.SetColKind(col, glpk.VarType(glpk.BV))
		case lp.Integer:
			prob.SetColKind(col, glpk.VarType(glpk.IV))
		}
		if v.Kind != lp.Binary {
			bt, lo, up := colBounds(v.Lower, v.Upper)
			prob.SetColBnds(col, bt, lo, up)
		}
		prob.SetObjCoef(col, p.Objective[j])
	}

	prob.AddRows(len(p.Constraints))
	for k, c := range p.Constraints {
		row := k + 1
		if c.Name != "" {
			prob.SetRowName(row, c.Name)
		}
		switch c.Sense {
		case lp.LE:
			prob.SetRowBnds(row, glpk.BndsType(glpk.UP), 0, c.RHS)
		case lp.GE:
			prob.SetRowBnds(row, glpk.BndsType(glpk.LO), c.RHS, 0)
		default:
			prob.SetRowBnds(row, glpk.BndsType(glpk.FX), c.RHS, c.RHS)
		}
		// index 0 is ignored by the library
		ind := make([]int32, 1, len(c.Terms)+1)
		val := make([]float64, 1, len(c.Terms)+1)
		for _, t := range merge(c.Terms) {
			ind = append(ind, int32(t.Var)+1)
			val = append(val, t.Coef)
		}
		prob.SetMatRow(row, ind, val)
	}

	smcp := glpk.NewSmcp()
	smcp.SetMsgLev(glpk.MsgLev(glpk.MSG_ERR))
	if err := prob.Simplex(smcp); err != nil {
		s.log.Debugf("glpk: simplex: %v", err)
		return &lp.Solution{Status: lpStatus(prob.Status())}, nil
	}
	switch prob.Status() {
	case glpk.NOFEAS, glpk.INFEAS:
		return &lp.Solution{Status: lp.StatusInfeasible}, nil
	case glpk.UNBND:
		return &lp.Solution{Status: lp.StatusUnbounded}, nil
	}

	iocp := glpk.NewIocp()
	iocp.SetPresolve(s.cfg.Presolve)
	iocp.SetMsgLev(glpk.MsgLev(glpk.MSG_ERR))
	if err := prob.Intopt(iocp); err != nil {
		s.log.Debugf("glpk: intopt: %v", err)
	}

	status := prob.MipStatus()
	var out lp.Status
	switch status {
	case glpk.OPT:
		out = lp.StatusOptimal
	case glpk.FEAS:
		out = lp.StatusTimeLimit
	case glpk.NOFEAS:
		return &lp.Solution{Status: lp.StatusInfeasible}, nil
	default:
		return &lp.Solution{Status: lp.StatusNotSolved}, nil
	}

	sol := lp.NewSolution(p, out)
	for j := range p.Vars {
		sol.Set(lp.VarID(j), prob.MipColVal(j+1))
	}
	obj := prob.MipObjVal()
	sol.Objective = &obj
	return sol, nil
}

func colBounds(lo, up float64) (glpk.BndsType, float64, float64) {
	switch {
	case math.IsInf(lo, -1) && math.IsInf(up, 1):
		return glpk.BndsType(glpk.FR), 0, 0
	case math.IsInf(up, 1):
		return glpk.BndsType(glpk.LO), lo, 0
	case math.IsInf(lo, -1):
		return glpk.BndsType(glpk.UP), 0, up
	case lo == up:
		return glpk.BndsType(glpk.FX), lo, up
	default:
		return glpk.BndsType(glpk.DB), lo, up
	}
}

func lpStatus(st glpk.SolStat) lp.Status {
	switch st {
	case glpk.NOFEAS, glpk.INFEAS:
		return lp.StatusInfeasible
	case glpk.UNBND:
		return lp.StatusUnbounded
	default:
		return lp.StatusNotSolved
	}
}

// merge sums duplicate variables; GLPK rejects repeated column indices.
func merge(terms []lp.Term) []lp.Term {
	seen := make(map[lp.VarID]int, len(terms))
	out := make([]lp.Term, 0, len(terms))
	for _, t := range terms {
		if k, ok := seen[t.Var]; ok {
			out[k].Coef += t.Coef
			continue
		}
		seen[t.Var] = len(out)
		out = append(out, t)
	}
	return out
}
