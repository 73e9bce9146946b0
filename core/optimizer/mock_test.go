package optimizer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kilianp07/evsched/core/lp"
	"github.com/kilianp07/evsched/core/metrics"
	"github.com/kilianp07/evsched/core/model"
)

// mockSolver returns a canned status. Usable statuses carry zero values with
// vehicle 0 on charger 0 in interval 0.
type mockSolver struct {
	status     lp.Status
	objective  float64
	relaxation bool
	err        error
	panicWith  any
	calls      atomic.Int32
}

func (m *mockSolver) Name() string { return "mock" }

func (m *mockSolver) Solve(ctx context.Context, req lp.Request) (*lp.Solution, error) {
	m.calls.Add(1)
	if m.panicWith != nil {
		panic(m.panicWith)
	}
	if m.err != nil {
		return nil, m.err
	}
	sol := lp.NewSolution(req.Program, m.status)
	sol.Relaxation = m.relaxation
	if !m.status.Usable() {
		return sol, nil
	}
	for v := range req.Program.Vars {
		sol.Set(lp.VarID(v), 0)
	}
	if x, ok := req.Program.Lookup("x_0_0_0"); ok {
		sol.Set(x, 1)
	}
	if p, ok := req.Program.Lookup("p_0_0_0"); ok {
		sol.Set(p, 4)
	}
	if e, ok := req.Program.Lookup("e_0"); ok {
		sol.Set(e, 1)
	}
	obj := m.objective
	sol.Objective = &obj
	return sol, nil
}

type recordSink struct {
	mu     sync.Mutex
	events []metrics.SolveEvent
}

func (r *recordSink) RecordSolve(ev metrics.SolveEvent) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	return nil
}

type recordMonitor struct {
	mu     sync.Mutex
	errs   []error
	panics []any
}

func (r *recordMonitor) CaptureException(err error, _ map[string]string) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
}

func (r *recordMonitor) CapturePanic(v any, _ map[string]string) {
	r.mu.Lock()
	r.panics = append(r.panics, v)
	r.mu.Unlock()
}

func (r *recordMonitor) Flush(time.Duration) {}

type mapSource map[string]*model.Instance

func (s mapSource) Load(_ context.Context, name string) (*model.Instance, error) {
	if name == "broken.json" {
		return nil, errors.New("unexpected end of JSON input")
	}
	inst, ok := s[name]
	if !ok {
		return nil, model.ErrInstanceNotFound
	}
	return inst, nil
}

func testInstance() *model.Instance {
	return &model.Instance{
		Parking: model.ParkingConfig{
			TransformerLimit: 50,
			Spots:            2,
			Grid:             model.GridConstraints{MaxPowerPerPhase: 20},
			Chargers: []model.Charger{
				{ID: 11, Type: model.ChargerAC, Power: 11, OperationCostHour: 0.5, Efficiency: 1, CompatibleVehicles: []string{"Tesla"}},
			},
		},
		Prices: []model.PriceSlot{{Time: 8, Price: 20}, {Time: 8.25, Price: 25}},
		Arrivals: []model.Vehicle{
			{ID: 1, Brand: "Tesla Model 3", ArrivalTime: 8, DepartureTime: 8.5, RequiredEnergy: 2, Priority: 2, Efficiency: 1, ACChargeRate: 11, DCChargeRate: 100, WillingnessToPay: 1},
		},
	}
}
