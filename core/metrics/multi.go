package metrics

import (
	"errors"

	"github.com/kilianp07/evsched/core/events"
)

// MultiSink fans out events to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSolve forwards the event to every sink. All sinks are tried; the
// errors are joined.
func (m *MultiSink) RecordSolve(ev SolveEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordSolve(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordRunEvent forwards lifecycle events to sinks that support them.
func (m *MultiSink) RecordRunEvent(ev events.RunEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(RunEventRecorder); ok {
			if err := rec.RecordRunEvent(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
