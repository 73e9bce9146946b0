package scenarios

import (
	"context"
	"math"
	"slices"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kilianp07/evsched/core/lp"
	"github.com/kilianp07/evsched/core/optimizer"
	"github.com/kilianp07/evsched/core/publish"
	"github.com/kilianp07/evsched/core/report"
	"github.com/kilianp07/evsched/core/runlog"
	"github.com/kilianp07/evsched/infra/logger"
	"github.com/kilianp07/evsched/infra/metrics"
)

const tol = 1e-4

type harness struct {
	reg   *prometheus.Registry
	pub   *publish.MockPublisher
	store *runlog.MemoryStore
}

func solveScenario(t *testing.T, sc *Scenario, solver lp.Solver) (optimizer.Outcome, harness) {
	t.Helper()
	h := harness{reg: prometheus.NewRegistry(), pub: publish.NewMockPublisher(), store: runlog.NewMemoryStore()}
	sink, err := metrics.NewPromSinkWithRegistry(h.reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}
	for _, id := range sc.FailChargers {
		h.pub.FailChargers[id] = true
	}

	cfg := optimizer.DefaultConfig()
	cfg.TimeLimit = 30 * time.Second
	cfg.Publish = true
	runner, err := optimizer.NewRunner(cfg, solver, logger.NopLogger{})
	if err != nil {
		t.Fatalf("runner: %v", err)
	}
	runner.SetMetrics(sink)
	runner.SetPublisher(h.pub)
	runner.SetStore(h.store)

	inst := sc.Instance
	out := runner.Run(context.Background(), sc.Name, &inst)
	if out.Err != nil {
		t.Fatalf("scenario %s: %v", sc.Name, out.Err)
	}
	if n, err := testutil.GatherAndCount(h.reg, "evsched_runs_total"); err != nil || n != 1 {
		t.Errorf("scenario %s: expected one run series, got %d (%v)", sc.Name, n, err)
	}
	recs, err := h.store.Query(context.Background(), runlog.Query{Instance: sc.Name})
	if err != nil || len(recs) != 1 {
		t.Errorf("scenario %s: expected one run record, got %d (%v)", sc.Name, len(recs), err)
	} else if recs[0].Status != out.Status {
		t.Errorf("scenario %s: run record status %s, outcome %s", sc.Name, recs[0].Status, out.Status)
	}
	return out, h
}

// RunScenario solves sc with a MILP solver and checks its expectations.
func RunScenario(t *testing.T, sc *Scenario, solver lp.Solver) {
	out, h := solveScenario(t, sc, solver)
	pub := h.pub
	if len(sc.Expected.Statuses) > 0 && !slices.Contains(sc.Expected.Statuses, out.Status) {
		t.Fatalf("scenario %s: status %s not in %v", sc.Name, out.Status, sc.Expected.Statuses)
	}
	if !out.Usable() {
		return
	}

	rep := out.Report
	checkStructure(t, sc, rep)
	checkExpected(t, sc, rep)

	want := 0
	for _, e := range rep.Schedule {
		if !pub.FailChargers[e.ChargerID] {
			want++
		}
	}
	if got := len(pub.Published()); got != want {
		t.Errorf("scenario %s: expected %d setpoints, got %d", sc.Name, want, got)
	}
}

// RunRelaxation solves the LP relaxation of sc. Exact delivery figures do not
// carry over from the MILP, but the structural limits and the compatibility
// exclusions still hold on the schedule, and nothing is published.
func RunRelaxation(t *testing.T, sc *Scenario, solver lp.Solver) {
	out, h := solveScenario(t, sc, solver)
	allowed := []string{optimizer.StatusRelaxation}
	if slices.Contains(sc.Expected.Statuses, string(lp.StatusInfeasible)) {
		allowed = append(allowed, string(lp.StatusInfeasible))
	}
	if out.Status == string(lp.StatusNotSolved) {
		t.Skipf("scenario %s: simplex did not converge", sc.Name)
	}
	if !slices.Contains(allowed, out.Status) {
		t.Fatalf("scenario %s: status %s not in %v", sc.Name, out.Status, allowed)
	}
	if n := len(h.pub.Published()); n != 0 {
		t.Errorf("scenario %s: relaxation published %d setpoints", sc.Name, n)
	}
	if !out.Usable() {
		return
	}
	checkStructure(t, sc, out.Report)
	byID := map[int]report.VehicleResult{}
	for _, v := range out.Report.Vehicles {
		byID[v.ID] = v
	}
	for _, id := range sc.Expected.Unserved {
		if byID[id].Delivered > tol {
			t.Errorf("scenario %s: vehicle %d should be unserved, delivered %.4f", sc.Name, id, byID[id].Delivered)
		}
	}
	for _, e := range out.Report.Schedule {
		if slices.Contains(sc.Expected.Unserved, e.VehicleID) {
			t.Errorf("scenario %s: vehicle %d scheduled on charger %d", sc.Name, e.VehicleID, e.ChargerID)
		}
	}
}

func checkStructure(t *testing.T, sc *Scenario, rep *report.Report) {
	t.Helper()
	type slot struct{ charger, interval int }
	perSlot := map[slot]int{}
	power := map[int]float64{}
	vehicles := map[int]map[int]bool{}
	for _, e := range rep.Schedule {
		perSlot[slot{e.ChargerID, e.Interval}]++
		power[e.Interval] += e.PowerKW
		if vehicles[e.Interval] == nil {
			vehicles[e.Interval] = map[int]bool{}
		}
		vehicles[e.Interval][e.VehicleID] = true
	}
	for s, n := range perSlot {
		if n > 1 {
			t.Errorf("scenario %s: charger %d holds %d vehicles in interval %d", sc.Name, s.charger, n, s.interval)
		}
	}
	limit := sc.Instance.Parking.TransformerLimit
	for iv, p := range power {
		if p > limit+tol {
			t.Errorf("scenario %s: interval %d draws %.3f kW over transformer limit %.3f", sc.Name, iv, p, limit)
		}
	}
	for iv, vs := range vehicles {
		if len(vs) > sc.Instance.Parking.Spots {
			t.Errorf("scenario %s: %d vehicles in interval %d exceed %d spots", sc.Name, len(vs), iv, sc.Instance.Parking.Spots)
		}
	}
	for _, v := range rep.Vehicles {
		if v.Delivered > v.Required+tol {
			t.Errorf("scenario %s: vehicle %d delivered %.3f over required %.3f", sc.Name, v.ID, v.Delivered, v.Required)
		}
	}
}

func checkExpected(t *testing.T, sc *Scenario, rep *report.Report) {
	t.Helper()
	exp := sc.Expected
	byID := map[int]report.VehicleResult{}
	for _, v := range rep.Vehicles {
		byID[v.ID] = v
	}
	intervals := map[int]map[int]bool{}
	for _, e := range rep.Schedule {
		if intervals[e.VehicleID] == nil {
			intervals[e.VehicleID] = map[int]bool{}
		}
		intervals[e.VehicleID][e.Interval] = true
	}

	for id, want := range exp.Delivered {
		if got := byID[id].Delivered; math.Abs(got-want) > tol {
			t.Errorf("scenario %s: vehicle %d delivered %.4f, want %.4f", sc.Name, id, got, want)
		}
	}
	for id, want := range exp.ActiveIntervals {
		if got := len(intervals[id]); got != want {
			t.Errorf("scenario %s: vehicle %d active in %d intervals, want %d", sc.Name, id, got, want)
		}
	}
	for _, id := range exp.Unserved {
		if byID[id].Delivered > tol || len(intervals[id]) > 0 {
			t.Errorf("scenario %s: vehicle %d should be unserved, delivered %.4f in %d intervals",
				sc.Name, id, byID[id].Delivered, len(intervals[id]))
		}
	}
	unserved, short := 0, 0
	for _, v := range rep.Vehicles {
		if v.Delivered <= tol {
			unserved++
		}
		if v.Delivered < v.Required-tol {
			short++
		}
	}
	if unserved < exp.MinUnserved {
		t.Errorf("scenario %s: %d vehicles unserved, want at least %d", sc.Name, unserved, exp.MinUnserved)
	}
	if short < exp.MinShort {
		t.Errorf("scenario %s: %d vehicles short, want at least %d", sc.Name, short, exp.MinShort)
	}
}
