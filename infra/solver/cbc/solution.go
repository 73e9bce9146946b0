package cbc

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kilianp07/evsched/core/lp"
)

// ParseStatus maps the first line of a CBC solution file to a status and
// reports whether variable values follow.
func ParseStatus(line string) (lp.Status, bool) {
	l := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(l, "Optimal"):
		return lp.StatusOptimal, true
	case strings.HasPrefix(l, "Infeasible"), strings.HasPrefix(l, "Integer infeasible"):
		return lp.StatusInfeasible, false
	case strings.HasPrefix(l, "Unbounded"):
		return lp.StatusUnbounded, false
	case strings.HasPrefix(l, "Stopped"):
		if strings.Contains(l, "no integer solution") {
			return lp.StatusNotSolved, false
		}
		return lp.StatusTimeLimit, true
	default:
		return lp.StatusNotSolved, false
	}
}

func parseObjective(line string) (float64, bool) {
	const marker = "objective value"
	k := strings.LastIndex(line, marker)
	if k < 0 {
		return 0, false
	}
	fields := strings.Fields(line[k+len(marker):])
	if len(fields) == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	return v, err == nil
}

// ParseSolution reads a CBC solution file for program p. Row lines and
// unknown names are ignored; lines prefixed with "**" are read like the
// others.
func ParseSolution(r io.Reader, p *lp.Program) (*lp.Solution, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read solution: %w", err)
		}
		return &lp.Solution{Status: lp.StatusNotSolved}, nil
	}
	header := sc.Text()
	status, hasValues := ParseStatus(header)
	if !hasValues {
		return &lp.Solution{Status: status}, nil
	}

	sol := lp.NewSolution(p, status)
	if obj, ok := parseObjective(header); ok {
		sol.Objective = &obj
	}
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) > 0 && fields[0] == "**" {
			fields = fields[1:]
		}
		if len(fields) < 3 {
			continue
		}
		id, ok := p.Lookup(fields[1])
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("value of %s: %w", fields[1], err)
		}
		sol.Set(id, v)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read solution: %w", err)
	}
	return sol, nil
}
