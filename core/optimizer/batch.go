package optimizer

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/evsched/core/events"
	"github.com/kilianp07/evsched/core/model"
	"github.com/kilianp07/evsched/core/monitoring"
)

// Summary is the per instance entry of the results file.
type Summary struct {
	ObjectiveValue *float64 `json:"objective_value"`
	Status         string   `json:"status"`
}

// Results maps instance names to their summary.
type Results map[string]Summary

// Summarize reduces outcomes to results.
func Summarize(outs []Outcome) Results {
	res := make(Results, len(outs))
	for _, o := range outs {
		res[o.Instance] = Summary{ObjectiveValue: o.Objective, Status: o.Status}
	}
	return res
}

// Batch runs every named instance and returns their summaries.
func (r *Runner) Batch(ctx context.Context, names []string) Results {
	return Summarize(r.BatchOutcomes(ctx, names))
}

// BatchOutcomes loads and runs every named instance with at most
// Config.Parallelism in flight. Outcomes keep the order of names. A failing
// instance never stops the others.
func (r *Runner) BatchOutcomes(ctx context.Context, names []string) []Outcome {
	r.mu.RLock()
	src := r.source
	r.mu.RUnlock()

	outs := make([]Outcome, len(names))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Parallelism)
	for i, name := range names {
		g.Go(func() error {
			o := r.runNamed(gctx, src, name)
			mu.Lock()
			outs[i] = o
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return outs
}

func (r *Runner) runNamed(ctx context.Context, src InstanceSource, name string) Outcome {
	if src == nil {
		return r.loadFailed(name, errors.New("no instance source configured"))
	}
	inst, err := src.Load(ctx, name)
	if err != nil {
		return r.loadFailed(name, err)
	}
	return r.Run(ctx, name, inst)
}

func (r *Runner) loadFailed(name string, err error) Outcome {
	out := Outcome{Instance: name, Solver: r.solver.Name(), Err: err}
	if errors.Is(err, model.ErrInstanceNotFound) {
		out.Status = StatusFileNotFound
		r.logger.Warnf("%s not found, skipping", name)
	} else {
		out.Status = ErrorStatus(err)
		r.logger.Errorf("could not load %s: %v", name, err)
		monitoring.CaptureException(err, map[string]string{"module": "optimizer", "instance": name})
	}
	r.emit(events.RunEvent{Kind: events.RunFailed, Instance: name, Status: out.Status, Err: err})
	return out
}

// WriteResults writes res as indented JSON to path.
func WriteResults(path string, res Results) error {
	b, err := json.MarshalIndent(res, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}
