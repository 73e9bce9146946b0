package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evsched/core/derive"
	"github.com/kilianp07/evsched/core/logger"
	"github.com/kilianp07/evsched/core/lp"
	"github.com/kilianp07/evsched/core/model"
	"github.com/kilianp07/evsched/core/schedule"
)

func testModel(t *testing.T) *schedule.Model {
	t.Helper()
	inst := &model.Instance{
		Parking: model.ParkingConfig{
			TransformerLimit: 50,
			Spots:            2,
			Grid:             model.GridConstraints{MaxPowerPerPhase: 20},
			Chargers: []model.Charger{
				{ID: 100, Type: model.ChargerAC, Power: 22, OperationCostHour: 2, Efficiency: 1, CompatibleVehicles: []string{"Tesla", "Nissan", "BMW"}},
				{ID: 200, Type: model.ChargerDC, Power: 50, OperationCostHour: 4, Efficiency: 1, CompatibleVehicles: []string{"Tesla"}},
			},
		},
		Prices: []model.PriceSlot{{Time: 8, Price: 10}, {Time: 8.25, Price: 20}},
		Arrivals: []model.Vehicle{
			{ID: 1, Brand: "Tesla Model Y", ArrivalTime: 8, DepartureTime: 9, RequiredEnergy: 5, Priority: 2, Efficiency: 1, ACChargeRate: 11, DCChargeRate: 100, WillingnessToPay: 1},
			{ID: 2, Brand: "Nissan Leaf", ArrivalTime: 8, DepartureTime: 9, RequiredEnergy: 4, Priority: 1, Efficiency: 1, ACChargeRate: 7, DCChargeRate: 40, WillingnessToPay: 1},
		},
	}
	d, err := derive.Derive(inst, nil)
	require.NoError(t, err)
	m, err := schedule.Build(inst, d, schedule.DefaultConfig())
	require.NoError(t, err)
	return m
}

func solutionFor(m *schedule.Model, status lp.Status, values []float64) *lp.Solution {
	sol := lp.NewSolution(m.Program, status)
	for j, v := range values {
		sol.Set(lp.VarID(j), v)
	}
	obj := m.Program.Evaluate(values)
	sol.Objective = &obj
	return sol
}

func TestExtract(t *testing.T) {
	m := testModel(t)
	values := m.Point([]schedule.Assignment{
		{Vehicle: 0, Interval: 0, Charger: 1, PowerKW: 20},
		{Vehicle: 1, Interval: 1, Charger: 0, PowerKW: 4},
	})
	rep, err := Extract(m, solutionFor(m, lp.StatusOptimal, values), logger.Nop{})
	require.NoError(t, err)

	require.Len(t, rep.Vehicles, 2)
	v0 := rep.Vehicles[0]
	assert.Equal(t, 1, v0.ID)
	assert.InDelta(t, 5, v0.Delivered, 1e-9)
	assert.InDelta(t, 100, v0.Satisfaction, 1e-9)
	assert.InDelta(t, 20*0.25*0.10, v0.EnergyCost, 1e-9)
	assert.InDelta(t, 0.25*4, v0.OperatingCost, 1e-9)
	assert.Equal(t, 2, v0.Tier)

	v1 := rep.Vehicles[1]
	assert.InDelta(t, 1, v1.Delivered, 1e-9)
	assert.InDelta(t, 25, v1.Satisfaction, 1e-9)
	assert.InDelta(t, 4*0.25*0.20, v1.EnergyCost, 1e-9)

	require.Len(t, rep.Chargers, 2)
	assert.Equal(t, ChargerResult{ID: 100, Type: "AC", ActiveIntervals: 1, Utilization: 50, DeclaredTokens: 3, CompatibleVehicles: 2}, rep.Chargers[0])
	assert.Equal(t, ChargerResult{ID: 200, Type: "DC", ActiveIntervals: 1, Utilization: 50, DeclaredTokens: 1, CompatibleVehicles: 1}, rep.Chargers[1])

	assert.InDelta(t, 9, rep.Totals.Required, 1e-9)
	assert.InDelta(t, 6, rep.Totals.Delivered, 1e-9)
	assert.Equal(t, 2, rep.Totals.Served)
	assert.Equal(t, 2, rep.Totals.Vehicles)
	assert.InDelta(t, 6.0/9*100, rep.Totals.Satisfaction, 1e-9)
	assert.InDelta(t, rep.Totals.EnergyCost+rep.Totals.OperatingCost, rep.Totals.TotalCost, 1e-12)

	assert.Equal(t, []Entry{
		{VehicleID: 1, ChargerID: 200, Interval: 0, StartHour: 8, PowerKW: 20},
		{VehicleID: 2, ChargerID: 100, Interval: 1, StartHour: 8.25, PowerKW: 4},
	}, rep.Schedule)
	assert.Zero(t, rep.Substituted)
	assert.Equal(t, lp.StatusOptimal, rep.Status)
}

func TestExtractTimeLimitKeepsLabel(t *testing.T) {
	m := testModel(t)
	values := m.Point(nil)
	rep, err := Extract(m, solutionFor(m, lp.StatusTimeLimit, values), nil)
	require.NoError(t, err)
	assert.Equal(t, lp.StatusTimeLimit, rep.Status)
	assert.Zero(t, rep.Totals.Served)
	assert.Zero(t, rep.Totals.Satisfaction)
	assert.Empty(t, rep.Schedule)
}

func TestExtractSubstitutesUnavailable(t *testing.T) {
	m := testModel(t)
	sol := lp.NewSolution(m.Program, lp.StatusOptimal)
	sol.Set(m.Index.E(0), 2)
	rep, err := Extract(m, sol, nil)
	require.NoError(t, err)
	// two E, eight P, eight x; one E was provided
	assert.Equal(t, 17, rep.Substituted)
	assert.InDelta(t, 2, rep.Vehicles[0].Delivered, 1e-9)
	assert.Zero(t, rep.Vehicles[1].Delivered)
}

func TestExtractRejectsUnusable(t *testing.T) {
	m := testModel(t)
	for _, st := range []lp.Status{lp.StatusInfeasible, lp.StatusUnbounded, lp.StatusNotSolved} {
		_, err := Extract(m, lp.NewSolution(m.Program, st), nil)
		assert.ErrorIs(t, err, lp.ErrNoSolution, st)
	}
	_, err := Extract(m, nil, nil)
	assert.ErrorIs(t, err, lp.ErrNoSolution)
}

func TestZeroRequirement(t *testing.T) {
	assert.Zero(t, percent(3, 0))
	assert.Equal(t, 50.0, percent(1, 2))
}
