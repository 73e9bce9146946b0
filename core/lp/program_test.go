package lp

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallProgram() *Program {
	p := NewProgram("small")
	x := p.AddVar("x", Binary, 0, 0)
	y := p.AddVar("y", Continuous, 0, math.Inf(1))
	z := p.AddVar("z", Integer, -2, 5)
	p.AddObjective(x, 3)
	p.AddObjective(y, -1.5)
	p.AddConstraint(Constraint{Name: "cap", Family: "cap", Terms: []Term{{x, 1}, {y, 1}}, Sense: LE, RHS: 4})
	p.AddConstraint(Constraint{Name: "link", Family: "link", Terms: []Term{{y, 1}, {x, -10}}, Sense: LE, RHS: 0})
	p.AddConstraint(Constraint{Name: "floor", Family: "floor", Terms: []Term{{z, 1}}, Sense: GE, RHS: 1})
	return p
}

func TestProgramAddVar(t *testing.T) {
	p := smallProgram()
	require.Equal(t, 3, p.NumVars())
	assert.Equal(t, Var{Name: "x", Kind: Binary, Lower: 0, Upper: 1}, p.Vars[0])
	id, ok := p.Lookup("z")
	require.True(t, ok)
	assert.Equal(t, VarID(2), id)
	_, ok = p.Lookup("missing")
	assert.False(t, ok)
	assert.Equal(t, map[string]int{"cap": 1, "link": 1, "floor": 1}, p.FamilyCounts())
}

func TestProgramEvaluate(t *testing.T) {
	p := smallProgram()
	assert.InDelta(t, 3-4.5, p.Evaluate([]float64{1, 3, 1}), 1e-12)
}

func TestProgramCheck(t *testing.T) {
	p := smallProgram()
	assert.Empty(t, p.Check([]float64{1, 3, 1}, 1e-6))

	vs := p.Check([]float64{0, 3, 1}, 1e-6)
	assert.Equal(t, []string{"link"}, ViolatedFamilies(vs))

	vs = p.Check([]float64{0.5, 0, 0}, 1e-6)
	assert.Equal(t, []string{"floor", FamilyIntegrality}, ViolatedFamilies(vs))

	vs = p.Check([]float64{1, 3, 6}, 1e-6)
	assert.Equal(t, []string{FamilyBounds}, ViolatedFamilies(vs))

	vs = p.Check([]float64{1}, 1e-6)
	require.Len(t, vs, 1)
	assert.Equal(t, FamilyBounds, vs[0].Family)
}

func TestSolutionValue(t *testing.T) {
	p := smallProgram()
	s := NewSolution(p, StatusTimeLimit)
	s.Set(1, 2.5)
	v, ok := s.Value(1)
	assert.True(t, ok)
	assert.Equal(t, 2.5, v)
	_, ok = s.Value(0)
	assert.False(t, ok)
	_, ok = s.Value(42)
	assert.False(t, ok)

	pt, err := s.Point()
	require.NoError(t, err)
	assert.Len(t, pt, 3)

	s.Status = StatusInfeasible
	_, err = s.Point()
	assert.ErrorIs(t, err, ErrNoSolution)
}

func TestStatusUsable(t *testing.T) {
	assert.True(t, StatusOptimal.Usable())
	assert.True(t, StatusTimeLimit.Usable())
	assert.False(t, StatusInfeasible.Usable())
	assert.False(t, StatusUnbounded.Usable())
	assert.False(t, StatusNotSolved.Usable())
}

func TestWriteLP(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLP(&buf, smallProgram()))
	out := buf.String()
	for _, want := range []string{
		"Minimize\n obj: + 3 x - 1.5 y\n",
		" cap: + 1 x + 1 y <= 4\n",
		" link: + 1 y - 10 x <= 0\n",
		" floor: + 1 z >= 1\n",
		" -2 <= z <= 5\n",
		"Binaries\n x\n",
		"Generals\n z\n",
	} {
		assert.Contains(t, out, want)
	}
	assert.True(t, strings.HasSuffix(out, "End\n"))
	// unbounded continuous variables with a zero floor need no bound line
	assert.NotContains(t, out, " y >=")
}

func TestWriteLPEmpty(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WriteLP(&buf, NewProgram("empty")))
}

func TestWriteLPWrapsLongRows(t *testing.T) {
	p := NewProgram("wide")
	var terms []Term
	for i := 0; i < 20; i++ {
		id := p.AddVar("v"+string(rune('a'+i)), Continuous, 0, 1)
		terms = append(terms, Term{id, 1})
	}
	p.AddConstraint(Constraint{Name: "sum", Terms: terms, Sense: EQ, RHS: 1})
	var buf bytes.Buffer
	require.NoError(t, WriteLP(&buf, p))
	assert.Contains(t, buf.String(), " sum:")
	assert.Contains(t, buf.String(), "\n   + 1 vi")
}
