// Package report reads a solver response back into per-vehicle, per-charger
// and aggregate figures.
package report

import (
	"github.com/kilianp07/evsched/core/logger"
	"github.com/kilianp07/evsched/core/lp"
	"github.com/kilianp07/evsched/core/schedule"
)

const (
	// activeThreshold decides when a binary value counts as set.
	activeThreshold = 0.5
	// servedThreshold is the minimum delivered energy, in kWh, for a vehicle
	// to count as served.
	servedThreshold = 0.01
)

// VehicleResult summarizes one vehicle.
type VehicleResult struct {
	ID            int     `json:"id"`
	Brand         string  `json:"brand"`
	Required      float64 `json:"required_kwh"`
	Delivered     float64 `json:"delivered_kwh"`
	Satisfaction  float64 `json:"satisfaction_pct"`
	EnergyCost    float64 `json:"energy_cost"`
	OperatingCost float64 `json:"operating_cost"`
	Priority      float64 `json:"priority"`
	Tier          int     `json:"tier"`
}

// TotalCost returns energy plus operating cost.
func (v VehicleResult) TotalCost() float64 { return v.EnergyCost + v.OperatingCost }

// ChargerResult summarizes one charger.
type ChargerResult struct {
	ID                 int     `json:"charger_id"`
	Type               string  `json:"type"`
	ActiveIntervals    int     `json:"active_intervals"`
	Utilization        float64 `json:"utilization_pct"`
	DeclaredTokens     int     `json:"declared_tokens"`
	CompatibleVehicles int     `json:"compatible_vehicles"`
}

// Totals aggregates the whole run.
type Totals struct {
	Required      float64 `json:"required_kwh"`
	Delivered     float64 `json:"delivered_kwh"`
	Served        int     `json:"served"`
	Vehicles      int     `json:"vehicles"`
	EnergyCost    float64 `json:"energy_cost"`
	OperatingCost float64 `json:"operating_cost"`
	TotalCost     float64 `json:"total_cost"`
	Satisfaction  float64 `json:"satisfaction_pct"`
}

// Entry is one scheduled (vehicle, interval, charger) slot.
type Entry struct {
	VehicleID int     `json:"vehicle_id"`
	ChargerID int     `json:"charger_id"`
	Interval  int     `json:"interval"`
	StartHour float64 `json:"start_hour"`
	PowerKW   float64 `json:"power_kw"`
}

// Report is the readable form of a solved model.
type Report struct {
	Status      lp.Status       `json:"status"`
	Objective   *float64        `json:"objective,omitempty"`
	Vehicles    []VehicleResult `json:"vehicles"`
	Chargers    []ChargerResult `json:"chargers"`
	Totals      Totals          `json:"totals"`
	Schedule    []Entry         `json:"schedule"`
	Substituted int             `json:"substituted"`
}

type reader struct {
	sol   *lp.Solution
	count int
}

func (r *reader) get(v lp.VarID) float64 {
	x, ok := r.sol.Value(v)
	if !ok {
		r.count++
		return 0
	}
	return x
}

// Extract builds the report of m from sol. The solution must carry usable
// values; unavailable ones are read as 0 and counted in Substituted.
func Extract(m *schedule.Model, sol *lp.Solution, log logger.Logger) (*Report, error) {
	if sol == nil || !sol.Status.Usable() {
		return nil, lp.ErrNoSolution
	}
	log = logger.OrNop(log)
	r := &reader{sol: sol}
	ix := m.Index
	dt := m.Config.IntervalHours
	inst := m.Instance
	chargers := inst.Parking.Chargers

	rep := &Report{
		Status:    sol.Status,
		Objective: sol.Objective,
		Vehicles:  make([]VehicleResult, 0, ix.Vehicles),
		Chargers:  make([]ChargerResult, 0, ix.Chargers),
	}

	for i, v := range inst.Arrivals {
		vr := VehicleResult{
			ID:        v.ID,
			Brand:     v.Brand,
			Required:  v.RequiredEnergy,
			Delivered: r.get(ix.E(i)),
			Priority:  m.Derived.Priority[i],
			Tier:      v.Priority,
		}
		for t := 0; t < ix.Intervals; t++ {
			for c := 0; c < ix.Chargers; c++ {
				p := r.get(ix.P(i, t, c))
				x := r.get(ix.X(i, t, c))
				vr.EnergyCost += p * dt * m.Price(t)
				vr.OperatingCost += x * dt * chargers[c].OperationCostHour
				if x > activeThreshold {
					rep.Schedule = append(rep.Schedule, Entry{
						VehicleID: v.ID,
						ChargerID: chargers[c].ID,
						Interval:  t,
						StartHour: m.IntervalStart(t),
						PowerKW:   p,
					})
				}
			}
		}
		vr.Satisfaction = percent(vr.Delivered, vr.Required)
		rep.Vehicles = append(rep.Vehicles, vr)

		rep.Totals.Required += vr.Required
		rep.Totals.Delivered += vr.Delivered
		rep.Totals.EnergyCost += vr.EnergyCost
		rep.Totals.OperatingCost += vr.OperatingCost
		if vr.Delivered > servedThreshold {
			rep.Totals.Served++
		}
	}
	rep.Totals.Vehicles = len(inst.Arrivals)
	rep.Totals.TotalCost = rep.Totals.EnergyCost + rep.Totals.OperatingCost
	rep.Totals.Satisfaction = percent(rep.Totals.Delivered, rep.Totals.Required)

	for c, ch := range chargers {
		active := 0
		for t := 0; t < ix.Intervals; t++ {
			for i := 0; i < ix.Vehicles; i++ {
				if x, ok := sol.Value(ix.X(i, t, c)); ok && x > activeThreshold {
					active++
				}
			}
		}
		rep.Chargers = append(rep.Chargers, ChargerResult{
			ID:                 ch.ID,
			Type:               string(ch.Type),
			ActiveIntervals:    active,
			Utilization:        percent(float64(active), float64(ix.Intervals)),
			DeclaredTokens:     len(ch.CompatibleVehicles),
			CompatibleVehicles: m.Derived.CompatibleCount(c),
		})
	}

	rep.Substituted = r.count
	if r.count > 0 {
		log.Warnf("%d unavailable solution values read as 0", r.count)
	}
	return rep, nil
}

func percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}
