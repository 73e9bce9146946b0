package schedule

import "github.com/kilianp07/evsched/core/lp"

// Index maps the five variable families onto dense program offsets. The
// layout is x, P, y, E, slack; inside x and P the charger varies fastest.
type Index struct {
	Vehicles  int
	Intervals int
	Chargers  int
}

func (ix Index) triple(i, t, c int) int {
	return (i*ix.Intervals+t)*ix.Chargers + c
}

func (ix Index) xBase() int     { return 0 }
func (ix Index) pBase() int     { return ix.Vehicles * ix.Intervals * ix.Chargers }
func (ix Index) yBase() int     { return 2 * ix.pBase() }
func (ix Index) eBase() int     { return ix.yBase() + ix.Vehicles*ix.Intervals }
func (ix Index) slackBase() int { return ix.eBase() + ix.Vehicles }

// X is the binary assignment of vehicle i to charger c during interval t.
func (ix Index) X(i, t, c int) lp.VarID { return lp.VarID(ix.xBase() + ix.triple(i, t, c)) }

// P is the power drawn by vehicle i on charger c during interval t.
func (ix Index) P(i, t, c int) lp.VarID { return lp.VarID(ix.pBase() + ix.triple(i, t, c)) }

// Y is the activity indicator of vehicle i during interval t.
func (ix Index) Y(i, t int) lp.VarID { return lp.VarID(ix.yBase() + i*ix.Intervals + t) }

// E is the energy delivered to vehicle i.
func (ix Index) E(i int) lp.VarID { return lp.VarID(ix.eBase() + i) }

// Slack is the budget overrun of vehicle i.
func (ix Index) Slack(i int) lp.VarID { return lp.VarID(ix.slackBase() + i) }

// Size is the total variable count.
func (ix Index) Size() int { return ix.slackBase() + ix.Vehicles }
