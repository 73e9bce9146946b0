// Package lp holds a solver-independent description of a mixed-integer linear
// program together with the request/response boundary used to hand it to a
// solver backend.
package lp

import (
	"fmt"
	"math"
	"sort"
)

// VarID indexes a variable inside a Program.
type VarID int

// VarKind is the domain of a variable.
type VarKind int

const (
	Continuous VarKind = iota
	Binary
	Integer
)

func (k VarKind) String() string {
	switch k {
	case Binary:
		return "binary"
	case Integer:
		return "integer"
	default:
		return "continuous"
	}
}

// Var describes a single decision variable. Upper may be +Inf.
type Var struct {
	Name  string
	Kind  VarKind
	Lower float64
	Upper float64
}

// Term is coef·var.
type Term struct {
	Var  VarID
	Coef float64
}

// Sense is the relation of a constraint row.
type Sense int

const (
	LE Sense = iota
	GE
	EQ
)

func (s Sense) String() string {
	switch s {
	case GE:
		return ">="
	case EQ:
		return "="
	default:
		return "<="
	}
}

// Constraint is Σ terms (sense) RHS. Family groups rows of the same kind.
type Constraint struct {
	Name   string
	Family string
	Terms  []Term
	Sense  Sense
	RHS    float64
}

// Program is a minimization problem.
type Program struct {
	Name        string
	Vars        []Var
	Objective   []float64
	Constraints []Constraint

	byName map[string]VarID
}

// NewProgram returns an empty program.
func NewProgram(name string) *Program {
	return &Program{Name: name, byName: make(map[string]VarID)}
}

// AddVar appends a variable and returns its id. Ids are dense and assigned
// in insertion order.
func (p *Program) AddVar(name string, kind VarKind, lower, upper float64) VarID {
	if kind == Binary {
		lower, upper = 0, 1
	}
	id := VarID(len(p.Vars))
	p.Vars = append(p.Vars, Var{Name: name, Kind: kind, Lower: lower, Upper: upper})
	p.Objective = append(p.Objective, 0)
	if p.byName == nil {
		p.byName = make(map[string]VarID)
	}
	p.byName[name] = id
	return id
}

// Lookup returns the id of a named variable.
func (p *Program) Lookup(name string) (VarID, bool) {
	id, ok := p.byName[name]
	return id, ok
}

// AddObjective adds coef to the objective coefficient of v.
func (p *Program) AddObjective(v VarID, coef float64) {
	p.Objective[v] += coef
}

// AddConstraint appends a row.
func (p *Program) AddConstraint(c Constraint) {
	p.Constraints = append(p.Constraints, c)
}

// NumVars returns the number of variables.
func (p *Program) NumVars() int { return len(p.Vars) }

// FamilyCounts returns the number of rows per family.
func (p *Program) FamilyCounts() map[string]int {
	out := make(map[string]int)
	for _, c := range p.Constraints {
		out[c.Family]++
	}
	return out
}

// Family returns the rows of the given family in insertion order.
func (p *Program) Family(name string) []Constraint {
	var out []Constraint
	for _, c := range p.Constraints {
		if c.Family == name {
			out = append(out, c)
		}
	}
	return out
}

// Evaluate returns the objective value at values.
func (p *Program) Evaluate(values []float64) float64 {
	var sum float64
	for j, c := range p.Objective {
		if c != 0 && j < len(values) {
			sum += c * values[j]
		}
	}
	return sum
}

// LHS returns Σ terms at values.
func (c Constraint) LHS(values []float64) float64 {
	var sum float64
	for _, t := range c.Terms {
		sum += t.Coef * values[t.Var]
	}
	return sum
}

// Satisfied reports whether the row holds at values within tol.
func (c Constraint) Satisfied(values []float64, tol float64) bool {
	lhs := c.LHS(values)
	switch c.Sense {
	case GE:
		return lhs >= c.RHS-tol
	case EQ:
		return math.Abs(lhs-c.RHS) <= tol
	default:
		return lhs <= c.RHS+tol
	}
}

// Violation describes a row, bound or integrality requirement that a
// candidate solution breaks.
type Violation struct {
	Name   string
	Family string
	Value  float64
	Limit  float64
}

func (v Violation) String() string {
	return fmt.Sprintf("%s[%s]: %g vs %g", v.Family, v.Name, v.Value, v.Limit)
}

// Violation families that do not come from rows.
const (
	FamilyBounds      = "bounds"
	FamilyIntegrality = "integrality"
)

// Check verifies values against every bound, integrality requirement and
// row of the program. It returns nil when the point is feasible.
func (p *Program) Check(values []float64, tol float64) []Violation {
	if len(values) != len(p.Vars) {
		return []Violation{{Name: "values", Family: FamilyBounds, Value: float64(len(values)), Limit: float64(len(p.Vars))}}
	}
	var out []Violation
	for j, v := range p.Vars {
		x := values[j]
		if x < v.Lower-tol {
			out = append(out, Violation{Name: v.Name, Family: FamilyBounds, Value: x, Limit: v.Lower})
		}
		if x > v.Upper+tol {
			out = append(out, Violation{Name: v.Name, Family: FamilyBounds, Value: x, Limit: v.Upper})
		}
		if v.Kind != Continuous && math.Abs(x-math.Round(x)) > tol {
			out = append(out, Violation{Name: v.Name, Family: FamilyIntegrality, Value: x, Limit: math.Round(x)})
		}
	}
	for _, c := range p.Constraints {
		if !c.Satisfied(values, tol) {
			out = append(out, Violation{Name: c.Name, Family: c.Family, Value: c.LHS(values), Limit: c.RHS})
		}
	}
	return out
}

// ViolatedFamilies returns the sorted distinct families of vs.
func ViolatedFamilies(vs []Violation) []string {
	seen := make(map[string]struct{})
	for _, v := range vs {
		seen[v.Family] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
