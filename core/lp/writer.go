package lp

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
)

const termsPerLine = 8

// WriteLP serializes p in CPLEX LP format.
func WriteLP(w io.Writer, p *Program) error {
	if len(p.Vars) == 0 {
		return fmt.Errorf("program %q has no variables", p.Name)
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "\\* %s *\\\n", p.Name)
	bw.WriteString("Minimize\n obj:")
	var obj []Term
	for j, c := range p.Objective {
		if c != 0 {
			obj = append(obj, Term{Var: VarID(j), Coef: c})
		}
	}
	if len(obj) == 0 {
		obj = []Term{{Var: 0, Coef: 0}}
	}
	writeTerms(bw, p, obj)
	bw.WriteString("\nSubject To\n")
	for k, c := range p.Constraints {
		name := c.Name
		if name == "" {
			name = "r" + strconv.Itoa(k)
		}
		fmt.Fprintf(bw, " %s:", name)
		terms := c.Terms
		if len(terms) == 0 {
			terms = []Term{{Var: 0, Coef: 0}}
		}
		writeTerms(bw, p, terms)
		fmt.Fprintf(bw, " %s %s\n", c.Sense, formatNum(c.RHS))
	}

	bw.WriteString("Bounds\n")
	var bins, ints []string
	for _, v := range p.Vars {
		switch v.Kind {
		case Binary:
			bins = append(bins, v.Name)
			continue
		case Integer:
			ints = append(ints, v.Name)
		}
		writeBound(bw, v)
	}
	writeSection(bw, "Binaries", bins)
	writeSection(bw, "Generals", ints)
	bw.WriteString("End\n")
	return bw.Flush()
}

func writeTerms(bw *bufio.Writer, p *Program, terms []Term) {
	for n, t := range terms {
		if n > 0 && n%termsPerLine == 0 {
			bw.WriteString("\n  ")
		}
		sign := "+"
		coef := t.Coef
		if coef < 0 {
			sign = "-"
			coef = -coef
		}
		fmt.Fprintf(bw, " %s %s %s", sign, formatNum(coef), p.Vars[t.Var].Name)
	}
}

func writeBound(bw *bufio.Writer, v Var) {
	lo, up := v.Lower, v.Upper
	switch {
	case math.IsInf(lo, -1) && math.IsInf(up, 1):
		fmt.Fprintf(bw, " %s free\n", v.Name)
	case lo == up:
		fmt.Fprintf(bw, " %s = %s\n", v.Name, formatNum(lo))
	case math.IsInf(up, 1):
		if lo != 0 {
			fmt.Fprintf(bw, " %s >= %s\n", v.Name, formatNum(lo))
		}
	default:
		fmt.Fprintf(bw, " %s <= %s <= %s\n", formatNum(lo), v.Name, formatNum(up))
	}
}

func writeSection(bw *bufio.Writer, title string, names []string) {
	if len(names) == 0 {
		return
	}
	bw.WriteString(title + "\n")
	for _, n := range names {
		bw.WriteString(" " + n + "\n")
	}
}

func formatNum(x float64) string {
	switch {
	case math.IsInf(x, 1):
		return "inf"
	case math.IsInf(x, -1):
		return "-inf"
	}
	return strconv.FormatFloat(x, 'g', 12, 64)
}
