// Package events defines the optimizer lifecycle events published on the
// event bus.
//
// Kinds:
//   - started: an instance entered the pipeline
//   - solved: the solver returned a status (any status, including infeasible)
//   - failed: the instance could not be loaded, built or solved
package events

import "time"

// Kind classifies a run event.
type Kind string

const (
	RunStarted Kind = "started"
	RunSolved  Kind = "solved"
	RunFailed  Kind = "failed"
)

// RunEvent reports progress of one instance through the optimizer.
type RunEvent struct {
	Kind     Kind
	Instance string
	RunID    string
	Status   string
	Cached   bool
	Err      error
	Time     time.Time
}
