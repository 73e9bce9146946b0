package lp

import (
	"context"
	"errors"
	"time"
)

// Status is the outcome class reported by a solver.
type Status string

const (
	StatusOptimal    Status = "optimal"
	StatusTimeLimit  Status = "time_limit"
	StatusInfeasible Status = "infeasible"
	StatusUnbounded  Status = "unbounded"
	StatusNotSolved  Status = "not_solved"
)

// Usable reports whether the solution values may be read.
func (s Status) Usable() bool {
	return s == StatusOptimal || s == StatusTimeLimit
}

// ErrNoSolution is returned when values are requested from a solution whose
// status does not carry any.
var ErrNoSolution = errors.New("solution has no values")

// Solution is the response of a solver. Values and Available are indexed by
// VarID; a value is only meaningful when its availability flag is set.
type Solution struct {
	Status    Status
	Objective *float64
	Values    []float64
	Available []bool
	// Relaxation is set when integrality was dropped and Objective is a
	// lower bound.
	Relaxation bool
}

// Value returns the value of v and whether the solver reported it.
func (s *Solution) Value(v VarID) (float64, bool) {
	if s == nil || int(v) >= len(s.Values) {
		return 0, false
	}
	if int(v) < len(s.Available) && !s.Available[v] {
		return 0, false
	}
	return s.Values[v], true
}

// Point returns the full value vector when the status is usable.
func (s *Solution) Point() ([]float64, error) {
	if s == nil || !s.Status.Usable() || s.Values == nil {
		return nil, ErrNoSolution
	}
	return s.Values, nil
}

// NewSolution allocates a solution sized for p with nothing available.
func NewSolution(p *Program, status Status) *Solution {
	return &Solution{
		Status:    status,
		Values:    make([]float64, p.NumVars()),
		Available: make([]bool, p.NumVars()),
	}
}

// Set stores an available value.
func (s *Solution) Set(v VarID, x float64) {
	s.Values[v] = x
	s.Available[v] = true
}

// Request is one solve call.
type Request struct {
	Program   *Program
	TimeLimit time.Duration
}

// Solver solves a Program. Implementations must honour ctx cancellation and
// the request time limit where the backend supports it.
type Solver interface {
	Name() string
	Solve(ctx context.Context, req Request) (*Solution, error)
}
