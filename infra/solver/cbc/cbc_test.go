package cbc

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evsched/core/lp"
)

func program() *lp.Program {
	p := lp.NewProgram("t")
	x := p.AddVar("x_0_0_0", lp.Binary, 0, 1)
	e := p.AddVar("e_0", lp.Continuous, 0, math.Inf(1))
	p.AddObjective(e, -1)
	p.AddConstraint(lp.Constraint{Name: "demand_0", Family: "demand", Terms: []lp.Term{{Var: e, Coef: 1}, {Var: x, Coef: -5}}, Sense: lp.LE})
	return p
}

func TestParseStatus(t *testing.T) {
	cases := []struct {
		line   string
		status lp.Status
		values bool
	}{
		{"Optimal - objective value -5.00000000", lp.StatusOptimal, true},
		{"Infeasible - objective value 0.00000000", lp.StatusInfeasible, false},
		{"Integer infeasible - objective value 0.00000000", lp.StatusInfeasible, false},
		{"Unbounded - objective value 0", lp.StatusUnbounded, false},
		{"Stopped on time - objective value -3.5", lp.StatusTimeLimit, true},
		{"Stopped on time (no integer solution - continuous used) - objective value -4", lp.StatusNotSolved, false},
		{"Stopped on iterations - objective value -1", lp.StatusTimeLimit, true},
		{"garbage", lp.StatusNotSolved, false},
	}
	for _, tc := range cases {
		st, values := ParseStatus(tc.line)
		assert.Equal(t, tc.status, st, tc.line)
		assert.Equal(t, tc.values, values, tc.line)
	}
}

func TestParseSolution(t *testing.T) {
	p := program()
	in := strings.Join([]string{
		"Optimal - objective value -5.00000000",
		"      0 demand_0              0                       1",
		"      0 x_0_0_0               1                       0",
		"**    1 e_0                   5                      -0",
		"      2 unknown               9                       0",
	}, "\n")
	sol, err := ParseSolution(strings.NewReader(in), p)
	require.NoError(t, err)
	assert.Equal(t, lp.StatusOptimal, sol.Status)
	require.NotNil(t, sol.Objective)
	assert.Equal(t, -5.0, *sol.Objective)
	v, ok := sol.Value(0)
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)
	v, ok = sol.Value(1)
	assert.True(t, ok)
	assert.Equal(t, 5.0, v)
}

func TestParseSolutionWithoutValues(t *testing.T) {
	sol, err := ParseSolution(strings.NewReader("Infeasible - objective value 0\n"), program())
	require.NoError(t, err)
	assert.Equal(t, lp.StatusInfeasible, sol.Status)
	assert.Nil(t, sol.Values)

	sol, err = ParseSolution(strings.NewReader(""), program())
	require.NoError(t, err)
	assert.Equal(t, lp.StatusNotSolved, sol.Status)
}

func TestParseSolutionBadValue(t *testing.T) {
	_, err := ParseSolution(strings.NewReader("Optimal - objective value 1\n 0 e_0 abc 0\n"), program())
	assert.Error(t, err)
}

func TestSolveMissingBinary(t *testing.T) {
	s := New(Config{Binary: "definitely-not-cbc-binary"}, nil)
	assert.False(t, s.Available())
	_, err := s.Solve(context.Background(), lp.Request{Program: program()})
	assert.True(t, errors.Is(err, ErrSolverNotFound))
}

// fakeCBC writes a shell script that records its arguments and writes a
// canned solution file where -solution points.
func fakeCBC(t *testing.T, solution string) (bin, argsFile string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake needs a POSIX shell")
	}
	dir := t.TempDir()
	argsFile = filepath.Join(dir, "args.txt")
	solFile := filepath.Join(dir, "canned.txt")
	require.NoError(t, os.WriteFile(solFile, []byte(solution), 0o600))
	script := `#!/bin/sh
echo "$@" > ` + argsFile + `
while [ $# -gt 0 ]; do
  if [ "$1" = "-solution" ]; then cp ` + solFile + ` "$2"; fi
  shift
done
`
	bin = filepath.Join(dir, "cbc")
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755))
	return bin, argsFile
}

func TestSolveWithFakeBinary(t *testing.T) {
	bin, argsFile := fakeCBC(t, "Stopped on time - objective value -2.5\n 0 x_0_0_0 1 0\n 1 e_0 2.5 0\n")
	s := New(Config{Binary: bin, Threads: 2}, nil)
	sol, err := s.Solve(context.Background(), lp.Request{Program: program(), TimeLimit: 1500 * time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, lp.StatusTimeLimit, sol.Status)
	v, ok := sol.Value(1)
	require.True(t, ok)
	assert.Equal(t, 2.5, v)

	raw, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	args := string(raw)
	assert.Contains(t, args, "-sec 2 ")
	assert.Contains(t, args, "-threads 2 ")
	assert.Contains(t, args, "-timeMode elapsed -branch -printingOptions all -solution ")
	assert.True(t, strings.Contains(args, "model.lp"))
}

func TestSolveKeepsModelFile(t *testing.T) {
	bin, _ := fakeCBC(t, "Optimal - objective value 0\n")
	work := t.TempDir()
	s := New(Config{Binary: bin, WorkDir: work, KeepFiles: true}, nil)
	_, err := s.Solve(context.Background(), lp.Request{Program: program()})
	require.NoError(t, err)
	matches, err := filepath.Glob(filepath.Join(work, "evsched-cbc-*", "model.lp"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	raw, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Binaries\n x_0_0_0\n")
}
