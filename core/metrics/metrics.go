package metrics

import (
	"time"

	"github.com/kilianp07/evsched/core/events"
)

// SolveEvent summarizes one instance run.
type SolveEvent struct {
	RunID     string
	Instance  string
	Solver    string
	Status    string
	Objective *float64
	Duration  time.Duration
	Delivered float64
	Required  float64
	Served    int
	Vehicles  int
	Chargers  int
	Cached    bool
	Time      time.Time
}

// Satisfaction returns delivered over required energy in percent.
func (e SolveEvent) Satisfaction() float64 {
	if e.Required == 0 {
		return 0
	}
	return e.Delivered / e.Required * 100
}

// MetricsSink records solve events for observability purposes.
type MetricsSink interface {
	RecordSolve(ev SolveEvent) error
}

// RunEventRecorder is implemented by sinks that track run lifecycle events
// published on the event bus.
type RunEventRecorder interface {
	RecordRunEvent(ev events.RunEvent) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordSolve(SolveEvent) error         { return nil }
func (NopSink) RecordRunEvent(events.RunEvent) error { return nil }
