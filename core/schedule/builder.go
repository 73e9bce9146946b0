// Package schedule formulates the charging problem as a mixed-integer linear
// program.
package schedule

import (
	"fmt"
	"math"

	"github.com/kilianp07/evsched/core/derive"
	"github.com/kilianp07/evsched/core/lp"
	"github.com/kilianp07/evsched/core/model"
)

// Constraint families.
const (
	FamilyOneCharger  = "one_charger"
	FamilyOneVehicle  = "one_vehicle"
	FamilyCompat      = "compat"
	FamilyWindow      = "window"
	FamilyPowerMax    = "power_max"
	FamilyPowerMin    = "power_min"
	FamilyEnergy      = "energy"
	FamilyDemand      = "demand"
	FamilyTransformer = "transformer"
	FamilyPhase       = "phase"
	FamilySpots       = "spots"
	FamilyBudget      = "budget"
)

// centsPerDollar converts input prices (cents/kWh) to $/kWh.
const centsPerDollar = 100.0

// Model is a built program together with everything needed to read its
// solution back.
type Model struct {
	Program  *lp.Program
	Index    Index
	Instance *model.Instance
	Derived  *derive.Derived
	Config   Config
}

// IntervalStart returns the start hour of interval t.
func (m *Model) IntervalStart(t int) float64 { return m.Instance.Prices[t].Time }

// IntervalEnd returns the end hour of interval t.
func (m *Model) IntervalEnd(t int) float64 { return m.IntervalStart(t) + m.Config.IntervalHours }

// Price returns the energy price of interval t in $/kWh.
func (m *Model) Price(t int) float64 { return m.Instance.Prices[t].Price / centsPerDollar }

// Active reports whether vehicle i may charge during interval t.
func (m *Model) Active(i, t int) bool {
	v := m.Instance.Arrivals[i]
	if m.IntervalEnd(t) <= v.ArrivalTime {
		return false
	}
	return m.IntervalStart(t) < v.DepartureTime+m.Derived.MaxDelay[i]
}

// Build formulates inst using the derived attributes d.
func Build(inst *model.Instance, d *derive.Derived, cfg Config) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := inst.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}
	if d == nil || len(d.Priority) != len(inst.Arrivals) || len(d.Compat) != len(inst.Arrivals) {
		return nil, fmt.Errorf("%w: derived attributes do not match instance", ErrInvalidModel)
	}

	ix := Index{
		Vehicles:  len(inst.Arrivals),
		Intervals: len(inst.Prices),
		Chargers:  len(inst.Parking.Chargers),
	}
	m := &Model{
		Program:  lp.NewProgram("ev_charging"),
		Index:    ix,
		Instance: inst,
		Derived:  d,
		Config:   cfg,
	}
	m.addVariables()
	m.addObjective()
	m.addAssignmentRows()
	m.addPowerRows()
	m.addEnergyRows()
	m.addFacilityRows()
	m.addBudgetRows()
	return m, nil
}

func (m *Model) addVariables() {
	p, ix := m.Program, m.Index
	inf := math.Inf(1)
	m.eachTriple(func(i, t, c int) {
		p.AddVar(fmt.Sprintf("x_%d_%d_%d", i, t, c), lp.Binary, 0, 1)
	})
	m.eachTriple(func(i, t, c int) {
		p.AddVar(fmt.Sprintf("p_%d_%d_%d", i, t, c), lp.Continuous, 0, inf)
	})
	for i := 0; i < ix.Vehicles; i++ {
		for t := 0; t < ix.Intervals; t++ {
			p.AddVar(fmt.Sprintf("y_%d_%d", i, t), lp.Binary, 0, 1)
		}
	}
	for i := 0; i < ix.Vehicles; i++ {
		p.AddVar(fmt.Sprintf("e_%d", i), lp.Continuous, 0, inf)
	}
	for i := 0; i < ix.Vehicles; i++ {
		p.AddVar(fmt.Sprintf("slack_%d", i), lp.Continuous, 0, inf)
	}
}

func (m *Model) eachTriple(fn func(i, t, c int)) {
	ix := m.Index
	for i := 0; i < ix.Vehicles; i++ {
		for t := 0; t < ix.Intervals; t++ {
			for c := 0; c < ix.Chargers; c++ {
				fn(i, t, c)
			}
		}
	}
}

func (m *Model) addObjective() {
	p, ix, w := m.Program, m.Index, m.Config.Weights
	dt := m.Config.IntervalHours
	chargers := m.Instance.Parking.Chargers
	m.eachTriple(func(i, t, c int) {
		p.AddObjective(ix.P(i, t, c), w.Cost*dt*m.Price(t))
		p.AddObjective(ix.X(i, t, c), w.Cost*dt*chargers[c].OperationCostHour)
	})
	for i := 0; i < ix.Vehicles; i++ {
		p.AddObjective(ix.E(i), -w.Service*(1+w.PriorityBonus*m.Derived.Priority[i]))
		p.AddObjective(ix.Slack(i), w.BudgetPenalty)
	}
}

func (m *Model) addAssignmentRows() {
	p, ix := m.Program, m.Index
	for i := 0; i < ix.Vehicles; i++ {
		for t := 0; t < ix.Intervals; t++ {
			terms := make([]lp.Term, 0, ix.Chargers+1)
			for c := 0; c < ix.Chargers; c++ {
				terms = append(terms, lp.Term{Var: ix.X(i, t, c), Coef: 1})
			}
			terms = append(terms, lp.Term{Var: ix.Y(i, t), Coef: -1})
			p.AddConstraint(lp.Constraint{
				Name: fmt.Sprintf("one_charger_%d_%d", i, t), Family: FamilyOneCharger,
				Terms: terms, Sense: lp.EQ,
			})
			if !m.Active(i, t) {
				p.AddConstraint(lp.Constraint{
					Name: fmt.Sprintf("window_%d_%d", i, t), Family: FamilyWindow,
					Terms: []lp.Term{{Var: ix.Y(i, t), Coef: 1}}, Sense: lp.EQ,
				})
			}
		}
	}
	for t := 0; t < ix.Intervals; t++ {
		for c := 0; c < ix.Chargers; c++ {
			terms := make([]lp.Term, 0, ix.Vehicles)
			for i := 0; i < ix.Vehicles; i++ {
				terms = append(terms, lp.Term{Var: ix.X(i, t, c), Coef: 1})
			}
			p.AddConstraint(lp.Constraint{
				Name: fmt.Sprintf("one_vehicle_%d_%d", t, c), Family: FamilyOneVehicle,
				Terms: terms, Sense: lp.LE, RHS: 1,
			})
		}
	}
	m.eachTriple(func(i, t, c int) {
		if m.Derived.Compat.Allowed(i, c) {
			return
		}
		p.AddConstraint(lp.Constraint{
			Name: fmt.Sprintf("compat_%d_%d_%d", i, t, c), Family: FamilyCompat,
			Terms: []lp.Term{{Var: ix.X(i, t, c), Coef: 1}}, Sense: lp.EQ,
		})
	})
}

func (m *Model) addPowerRows() {
	p, ix := m.Program, m.Index
	m.eachTriple(func(i, t, c int) {
		ub, lb := m.Derived.Upper[i][c], m.Derived.Lower[i][c]
		p.AddConstraint(lp.Constraint{
			Name: fmt.Sprintf("power_max_%d_%d_%d", i, t, c), Family: FamilyPowerMax,
			Terms: []lp.Term{{Var: ix.P(i, t, c), Coef: 1}, {Var: ix.X(i, t, c), Coef: -ub}},
			Sense: lp.LE,
		})
		p.AddConstraint(lp.Constraint{
			Name: fmt.Sprintf("power_min_%d_%d_%d", i, t, c), Family: FamilyPowerMin,
			Terms: []lp.Term{{Var: ix.P(i, t, c), Coef: 1}, {Var: ix.X(i, t, c), Coef: -lb}},
			Sense: lp.GE,
		})
	})
}

func (m *Model) addEnergyRows() {
	p, ix := m.Program, m.Index
	dt := m.Config.IntervalHours
	chargers := m.Instance.Parking.Chargers
	for i, v := range m.Instance.Arrivals {
		terms := []lp.Term{{Var: ix.E(i), Coef: 1}}
		for t := 0; t < ix.Intervals; t++ {
			for c := 0; c < ix.Chargers; c++ {
				terms = append(terms, lp.Term{Var: ix.P(i, t, c), Coef: -dt * v.Efficiency * chargers[c].Efficiency})
			}
		}
		p.AddConstraint(lp.Constraint{
			Name: fmt.Sprintf("energy_%d", i), Family: FamilyEnergy,
			Terms: terms, Sense: lp.EQ,
		})
		p.AddConstraint(lp.Constraint{
			Name: fmt.Sprintf("demand_%d", i), Family: FamilyDemand,
			Terms: []lp.Term{{Var: ix.E(i), Coef: 1}}, Sense: lp.LE, RHS: v.RequiredEnergy,
		})
	}
}

func (m *Model) addFacilityRows() {
	p, ix := m.Program, m.Index
	parking := m.Instance.Parking
	phases := float64(m.Config.PhaseCount)
	for t := 0; t < ix.Intervals; t++ {
		var power, phase []lp.Term
		for i := 0; i < ix.Vehicles; i++ {
			for c := 0; c < ix.Chargers; c++ {
				power = append(power, lp.Term{Var: ix.P(i, t, c), Coef: 1})
				phase = append(phase, lp.Term{Var: ix.P(i, t, c), Coef: 1 / phases})
			}
		}
		p.AddConstraint(lp.Constraint{
			Name: fmt.Sprintf("transformer_%d", t), Family: FamilyTransformer,
			Terms: power, Sense: lp.LE, RHS: parking.TransformerLimit,
		})
		p.AddConstraint(lp.Constraint{
			Name: fmt.Sprintf("phase_%d", t), Family: FamilyPhase,
			Terms: phase, Sense: lp.LE, RHS: parking.Grid.MaxPowerPerPhase,
		})
		spots := make([]lp.Term, 0, ix.Vehicles)
		for i := 0; i < ix.Vehicles; i++ {
			spots = append(spots, lp.Term{Var: ix.Y(i, t), Coef: 1})
		}
		p.AddConstraint(lp.Constraint{
			Name: fmt.Sprintf("spots_%d", t), Family: FamilySpots,
			Terms: spots, Sense: lp.LE, RHS: float64(parking.Spots),
		})
	}
}

func (m *Model) addBudgetRows() {
	p, ix := m.Program, m.Index
	dt := m.Config.IntervalHours
	for i, v := range m.Instance.Arrivals {
		terms := make([]lp.Term, 0, ix.Intervals*ix.Chargers+1)
		for t := 0; t < ix.Intervals; t++ {
			for c := 0; c < ix.Chargers; c++ {
				terms = append(terms, lp.Term{Var: ix.P(i, t, c), Coef: dt * m.Price(t)})
			}
		}
		terms = append(terms, lp.Term{Var: ix.Slack(i), Coef: -1})
		p.AddConstraint(lp.Constraint{
			Name: fmt.Sprintf("budget_%d", i), Family: FamilyBudget,
			Terms: terms, Sense: lp.LE, RHS: v.WillingnessToPay * v.RequiredEnergy,
		})
	}
}
