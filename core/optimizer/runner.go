// Package optimizer runs instances through derivation, model building,
// solving and extraction, and fans the outcome out to the configured
// stores, sinks and publishers.
package optimizer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/evsched/core/cache"
	"github.com/kilianp07/evsched/core/derive"
	"github.com/kilianp07/evsched/core/events"
	"github.com/kilianp07/evsched/core/logger"
	"github.com/kilianp07/evsched/core/lp"
	"github.com/kilianp07/evsched/core/metrics"
	"github.com/kilianp07/evsched/core/model"
	"github.com/kilianp07/evsched/core/monitoring"
	"github.com/kilianp07/evsched/core/publish"
	"github.com/kilianp07/evsched/core/report"
	"github.com/kilianp07/evsched/core/runlog"
	"github.com/kilianp07/evsched/core/schedule"
	"github.com/kilianp07/evsched/internal/eventbus"
)

// Extra statuses used alongside the solver statuses.
const (
	StatusFileNotFound = "file_not_found"
	// StatusRelaxation labels a usable LP relaxation. Its objective is a
	// lower bound and its schedule may be fractional.
	StatusRelaxation = "relaxation"
	errorPrefix        = "error: "
)

// ErrorStatus renders err as a status label.
func ErrorStatus(err error) string { return errorPrefix + err.Error() }

// Config tunes a Runner.
type Config struct {
	Model       schedule.Config
	TimeLimit   time.Duration
	Matcher     string
	Parallelism int
	Publish     bool
}

// DefaultConfig solves sequentially with a 20 second limit.
func DefaultConfig() Config {
	return Config{Model: schedule.DefaultConfig(), TimeLimit: 20 * time.Second, Parallelism: 1}
}

// InstanceSource resolves instance names to instances.
type InstanceSource interface {
	Load(ctx context.Context, name string) (*model.Instance, error)
}

// Outcome is the result of one instance run.
type Outcome struct {
	Instance   string
	RunID      string
	Solver     string
	Status     string
	Objective  *float64
	Report     *report.Report
	Err        error
	Duration   time.Duration
	Cached     bool
	Relaxation bool
}

// Usable reports whether the outcome carries a report.
func (o Outcome) Usable() bool { return o.Report != nil }

// Runner executes instances. The zero values of the optional collaborators
// are no-ops.
type Runner struct {
	cfg     Config
	solver  lp.Solver
	matcher derive.BrandMatcher
	logger  logger.Logger

	mu        sync.RWMutex
	source    InstanceSource
	store     runlog.Store
	cache     cache.Cache
	sink      metrics.MetricsSink
	publisher publish.Publisher
	bus       eventbus.Bus[events.RunEvent]
	now       func() time.Time
}

// NewRunner creates a Runner using solver.
func NewRunner(cfg Config, solver lp.Solver, log logger.Logger) (*Runner, error) {
	if solver == nil {
		return nil, errors.New("optimizer: solver is required")
	}
	if err := cfg.Model.Validate(); err != nil {
		return nil, err
	}
	matcher, ok := derive.MatcherByName(cfg.Matcher)
	if !ok {
		return nil, fmt.Errorf("optimizer: unknown matcher %q", cfg.Matcher)
	}
	if cfg.Parallelism < 1 {
		cfg.Parallelism = 1
	}
	return &Runner{
		cfg:       cfg,
		solver:    solver,
		matcher:   matcher,
		logger:    logger.OrNop(log),
		cache:     cache.Nop{},
		sink:      metrics.NopSink{},
		publisher: publish.Nop{},
		now:       time.Now,
	}, nil
}

// SetSource configures where Batch loads instances from.
func (r *Runner) SetSource(s InstanceSource) {
	r.mu.Lock()
	r.source = s
	r.mu.Unlock()
}

// SetStore configures the store used to persist run records.
func (r *Runner) SetStore(s runlog.Store) {
	r.mu.Lock()
	r.store = s
	r.mu.Unlock()
}

// SetCache configures the result cache.
func (r *Runner) SetCache(c cache.Cache) {
	if c == nil {
		c = cache.Nop{}
	}
	r.mu.Lock()
	r.cache = c
	r.mu.Unlock()
}

// SetMetrics configures the sink receiving solve events.
func (r *Runner) SetMetrics(s metrics.MetricsSink) {
	if s == nil {
		s = metrics.NopSink{}
	}
	r.mu.Lock()
	r.sink = s
	r.mu.Unlock()
}

// SetPublisher configures where schedules are sent. Publishing also needs
// Config.Publish.
func (r *Runner) SetPublisher(p publish.Publisher) {
	if p == nil {
		p = publish.Nop{}
	}
	r.mu.Lock()
	r.publisher = p
	r.mu.Unlock()
}

// SetBus configures the bus receiving lifecycle events.
func (r *Runner) SetBus(b eventbus.Bus[events.RunEvent]) {
	r.mu.Lock()
	r.bus = b
	r.mu.Unlock()
}

// Config returns the runner configuration.
func (r *Runner) Config() Config { return r.cfg }

// SolverName returns the name of the backend in use.
func (r *Runner) SolverName() string { return r.solver.Name() }

func (r *Runner) emit(ev events.RunEvent) {
	r.mu.RLock()
	bus := r.bus
	r.mu.RUnlock()
	if bus == nil {
		return
	}
	ev.Time = r.now()
	bus.Publish(ev)
}

// Run solves one instance. It never returns an error: failures are carried
// in the outcome status and Err.
func (r *Runner) Run(ctx context.Context, name string, inst *model.Instance) Outcome {
	out := Outcome{Instance: name, RunID: uuid.NewString(), Solver: r.solver.Name()}
	r.emit(events.RunEvent{Kind: events.RunStarted, Instance: name, RunID: out.RunID})
	r.logger.Infof("starting optimization for %s", name)

	tags := map[string]string{"module": "optimizer", "instance": name, "run_id": out.RunID}
	start := r.now()
	err := monitoring.Guard(tags, func() error {
		return r.solve(ctx, inst, &out)
	})
	out.Duration = r.now().Sub(start)
	if err != nil {
		out.Err = err
		out.Status = ErrorStatus(err)
		out.Objective = nil
		out.Report = nil
		monitoring.CaptureException(err, tags)
	}
	r.finish(ctx, &out)
	return out
}

// solve fills out. Returned errors are input or solver failures; a solver
// status without values is not an error.
func (r *Runner) solve(ctx context.Context, inst *model.Instance, out *Outcome) error {
	if inst == nil {
		return errors.New("nil instance")
	}
	d, err := derive.Derive(inst, r.matcher)
	if err != nil {
		return err
	}
	m, err := schedule.Build(inst, d, r.cfg.Model)
	if err != nil {
		return err
	}

	key, err := cache.Fingerprint(inst, r.cfg.Model, r.solver.Name(), r.cfg.Matcher, r.cfg.TimeLimit)
	if err != nil {
		return fmt.Errorf("fingerprint: %w", err)
	}
	r.mu.RLock()
	c := r.cache
	r.mu.RUnlock()
	if e, ok, err := c.Get(ctx, key); err != nil {
		r.logger.Warnf("cache lookup failed: %v", err)
	} else if ok && e.Report != nil {
		out.Status = string(e.Status)
		out.Objective = e.Objective
		out.Report = e.Report
		out.Cached = true
		r.logger.Infof("%s served from cache", out.Instance)
		return nil
	}

	var sol *lp.Solution
	if m.Program.NumVars() == 0 {
		// nothing to schedule
		sol = lp.NewSolution(m.Program, lp.StatusOptimal)
		zero := 0.0
		sol.Objective = &zero
	} else {
		sol, err = r.solver.Solve(ctx, lp.Request{Program: m.Program, TimeLimit: r.cfg.TimeLimit})
		if err != nil {
			return fmt.Errorf("%s: %w", r.solver.Name(), err)
		}
	}

	out.Status = string(sol.Status)
	out.Relaxation = sol.Relaxation
	if !sol.Status.Usable() {
		r.logger.Warnf("no usable solution for %s: %s", out.Instance, sol.Status)
		return nil
	}
	if sol.Relaxation {
		out.Status = StatusRelaxation
	}
	rep, err := report.Extract(m, sol, r.logger)
	if err != nil {
		return err
	}
	out.Objective = sol.Objective
	out.Report = rep

	if cache.Cacheable(cache.Entry{Status: sol.Status}) && !sol.Relaxation {
		e := cache.Entry{Solver: r.solver.Name(), Status: sol.Status, Objective: sol.Objective, Report: rep, StoredAt: r.now()}
		if err := c.Put(ctx, key, e); err != nil {
			r.logger.Warnf("cache store failed: %v", err)
		}
	}
	return nil
}

// finish runs the side effects of an outcome. Their errors are logged only.
func (r *Runner) finish(ctx context.Context, out *Outcome) {
	r.mu.RLock()
	store, sink, pub := r.store, r.sink, r.publisher
	r.mu.RUnlock()

	if out.Objective != nil {
		r.logger.Infof("result for %s: status=%s objective=%.2f", out.Instance, out.Status, *out.Objective)
	} else {
		r.logger.Infof("result for %s: status=%s", out.Instance, out.Status)
	}

	var totals report.Totals
	chargers := 0
	if out.Report != nil {
		totals = out.Report.Totals
		chargers = len(out.Report.Chargers)
	}

	if store != nil {
		rec := runlog.Record{
			RunID:      out.RunID,
			Instance:   out.Instance,
			Timestamp:  r.now(),
			Status:     out.Status,
			Objective:  out.Objective,
			DurationMS: out.Duration.Milliseconds(),
			Solver:     out.Solver,
			Cached:     out.Cached,
			Totals:     totals,
		}
		if out.Err != nil {
			rec.Error = out.Err.Error()
		}
		if err := store.Append(ctx, rec); err != nil {
			r.logger.Errorf("run log append failed: %v", err)
		}
	}

	ev := metrics.SolveEvent{
		RunID:     out.RunID,
		Instance:  out.Instance,
		Solver:    out.Solver,
		Status:    out.Status,
		Objective: out.Objective,
		Duration:  out.Duration,
		Delivered: totals.Delivered,
		Required:  totals.Required,
		Served:    totals.Served,
		Vehicles:  totals.Vehicles,
		Chargers:  chargers,
		Cached:    out.Cached,
		Time:      r.now(),
	}
	if out.Err != nil {
		// keep the label set bounded
		ev.Status = "error"
	}
	if err := sink.RecordSolve(ev); err != nil {
		r.logger.Errorf("metrics record failed: %v", err)
	}

	if r.cfg.Publish && out.Relaxation && out.Report != nil {
		r.logger.Warnf("not publishing %s: relaxation schedules are not dispatchable", out.Instance)
	} else if r.cfg.Publish && out.Report != nil && len(out.Report.Schedule) > 0 {
		if err := pub.PublishSchedule(ctx, out.RunID, out.Report.Schedule); err != nil {
			r.logger.Errorf("schedule publish failed for %s: %v", out.Instance, err)
		}
	}

	kind := events.RunSolved
	if out.Err != nil {
		kind = events.RunFailed
	}
	r.emit(events.RunEvent{Kind: kind, Instance: out.Instance, RunID: out.RunID, Status: out.Status, Cached: out.Cached, Err: out.Err})
}
