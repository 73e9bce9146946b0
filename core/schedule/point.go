package schedule

import "math"

// Assignment places vehicle Vehicle on charger Charger during interval
// Interval at PowerKW.
type Assignment struct {
	Vehicle  int
	Interval int
	Charger  int
	PowerKW  float64
}

// Point expands a list of assignments into a full variable vector: x and y
// are set for every assignment, E follows the energy balance and slack
// absorbs any budget overrun. The vector is not guaranteed to be feasible;
// use Program.Check to verify it.
func (m *Model) Point(as []Assignment) []float64 {
	ix := m.Index
	dt := m.Config.IntervalHours
	values := make([]float64, ix.Size())
	spent := make([]float64, ix.Vehicles)
	for _, a := range as {
		values[ix.X(a.Vehicle, a.Interval, a.Charger)] = 1
		values[ix.P(a.Vehicle, a.Interval, a.Charger)] = a.PowerKW
		values[ix.Y(a.Vehicle, a.Interval)] = 1
		eff := m.Instance.Arrivals[a.Vehicle].Efficiency * m.Instance.Parking.Chargers[a.Charger].Efficiency
		values[ix.E(a.Vehicle)] += a.PowerKW * dt * eff
		spent[a.Vehicle] += a.PowerKW * dt * m.Price(a.Interval)
	}
	for i, v := range m.Instance.Arrivals {
		values[ix.Slack(i)] = math.Max(0, spent[i]-v.WillingnessToPay*v.RequiredEnergy)
	}
	return values
}
